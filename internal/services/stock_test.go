package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/morinaga/stockbot-backend/internal/dialog"
	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/repos"
	"github.com/morinaga/stockbot-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// One connection, or every pooled connection gets its own empty
	// in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(
		&types.User{},
		&types.StockGroup{},
		&types.Stock{},
		&types.Message{},
		&types.ConversationState{},
	))
	return gdb
}

func newTestStockService(t *testing.T) (StockService, *gorm.DB) {
	t.Helper()
	gdb := newTestDB(t)
	log, err := logger.New("development")
	require.NoError(t, err)
	svc := NewStockService(
		gdb,
		log,
		repos.NewStockGroupRepo(gdb, log),
		repos.NewStockRepo(gdb, log),
		repos.NewMessageRepo(gdb, log),
		repos.NewConversationStateRepo(gdb, log),
	)
	return svc, gdb
}

// send drives the pipeline with a sequence of messages and returns the
// replies to the last one.
func send(t *testing.T, svc StockService, userID uint, msgs ...string) []string {
	t.Helper()
	var last []string
	for _, msg := range msgs {
		replies, err := svc.HandleMessage(context.Background(), userID, msg)
		require.NoError(t, err, "message %q", msg)
		last = replies
	}
	return last
}

func TestRoundTrip(t *testing.T) {
	svc, _ := newTestStockService(t)

	replies := send(t, svc, 1, "覚えて")
	require.Equal(t, []string{dialog.ReplyAskGroupName}, replies)

	replies = send(t, svc, 1, "X")
	require.Equal(t, []string{dialog.ReplyAskSnippet}, replies)

	replies = send(t, svc, 1, "Y")
	require.Equal(t, []string{dialog.ReplySnippetSaved}, replies)

	replies = send(t, svc, 1, "終了する")
	require.Equal(t, []string{dialog.ReplyStopped}, replies)

	replies = send(t, svc, 1, "X")
	require.Equal(t, []string{"Y"}, replies)
}

func TestMultipleSnippets(t *testing.T) {
	svc, _ := newTestStockService(t)

	send(t, svc, 1, "覚えて", "買い物", "にんじん", "たまねぎ", "じゃがいも", "終了する")

	replies := send(t, svc, 1, "買い物")
	require.Equal(t, []string{"にんじん", "たまねぎ", "じゃがいも"}, replies)
}

func TestCancelDeletesNamedGroup(t *testing.T) {
	svc, gdb := newTestStockService(t)

	send(t, svc, 1, "覚えて", "X", "Y")
	replies := send(t, svc, 1, "やめる")
	require.Equal(t, []string{dialog.ReplyCancelled}, replies)

	var groupCount, stockCount int64
	require.NoError(t, gdb.Model(&types.StockGroup{}).Count(&groupCount).Error)
	require.NoError(t, gdb.Model(&types.Stock{}).Count(&stockCount).Error)
	require.Zero(t, groupCount)
	require.Zero(t, stockCount)

	replies = send(t, svc, 1, "X")
	require.Equal(t, []string{dialog.ReplyNotFound}, replies)
}

func TestCancelWithoutOpenFlow(t *testing.T) {
	svc, _ := newTestStockService(t)

	// Nothing to abandon, the confirmation is still sent.
	replies := send(t, svc, 1, "やめる")
	require.Equal(t, []string{dialog.ReplyCancelled}, replies)
}

func TestRemovalFlow(t *testing.T) {
	svc, gdb := newTestStockService(t)

	send(t, svc, 1, "覚えて", "A", "a1", "終了する")
	send(t, svc, 1, "覚えて", "B", "b1", "終了する")

	replies := send(t, svc, 1, "忘れて")
	require.Equal(t, []string{dialog.ReplyAskRemovalIndex + "\n1: A\n2: B"}, replies)

	// Out of range leaves both groups intact.
	replies = send(t, svc, 1, "9")
	require.Equal(t, []string{dialog.ReplyNotFound}, replies)
	var groupCount int64
	require.NoError(t, gdb.Model(&types.StockGroup{}).Count(&groupCount).Error)
	require.EqualValues(t, 2, groupCount)

	// Non-numeric input re-prompts.
	replies = send(t, svc, 1, "そのうち二番目")
	require.Equal(t, []string{dialog.ReplyAskNumber}, replies)

	// Valid index deletes B together with its stocks and re-lists.
	replies = send(t, svc, 1, "2")
	require.Len(t, replies, 1)
	require.Contains(t, replies[0], "Bに関する言葉を忘れました")
	require.Contains(t, replies[0], "1: A")

	require.NoError(t, gdb.Model(&types.StockGroup{}).Count(&groupCount).Error)
	require.EqualValues(t, 1, groupCount)
	var orphaned int64
	require.NoError(t, gdb.Model(&types.Stock{}).Where("content = ?", "b1").Count(&orphaned).Error)
	require.Zero(t, orphaned)
}

func TestStopIdempotent(t *testing.T) {
	svc, gdb := newTestStockService(t)

	send(t, svc, 1, "覚えて", "X", "Y", "終了する")

	// Repeating stop with no open flow still confirms and deletes nothing.
	replies := send(t, svc, 1, "終了する")
	require.Equal(t, []string{dialog.ReplyStopped}, replies)

	var groupCount, stockCount int64
	require.NoError(t, gdb.Model(&types.StockGroup{}).Count(&groupCount).Error)
	require.NoError(t, gdb.Model(&types.Stock{}).Count(&stockCount).Error)
	require.EqualValues(t, 1, groupCount)
	require.EqualValues(t, 1, stockCount)
}

func TestAmbiguousAliasResolvesLatest(t *testing.T) {
	svc, _ := newTestStockService(t)

	send(t, svc, 1, "覚えて", "X", "old", "終了する")
	send(t, svc, 1, "覚えて", "X", "new", "終了する")

	replies := send(t, svc, 1, "X")
	require.Equal(t, []string{"new"}, replies)
}

func TestTriggerPreemptsOpenFlow(t *testing.T) {
	svc, _ := newTestStockService(t)

	// Mid-collection the start trigger opens a fresh flow instead of being
	// stored as a snippet.
	send(t, svc, 1, "覚えて", "X", "Y")
	replies := send(t, svc, 1, "覚えて")
	require.Equal(t, []string{dialog.ReplyAskGroupName}, replies)

	send(t, svc, 1, "Z", "終了する")
	replies = send(t, svc, 1, "X")
	require.Equal(t, []string{"Y"}, replies)
}

func TestCheckListsGroups(t *testing.T) {
	svc, _ := newTestStockService(t)

	send(t, svc, 1, "覚えて", "A", "a1", "終了する")
	send(t, svc, 1, "覚えて", "B", "b1", "終了する")

	replies := send(t, svc, 1, "リストを見せて")
	require.Equal(t, []string{"1: A\n2: B"}, replies)

	replies = send(t, svc, 1, "リストを見せて B")
	require.Equal(t, []string{"b1"}, replies)
}

func TestStatePerUserIsolated(t *testing.T) {
	svc, _ := newTestStockService(t)

	send(t, svc, 1, "覚えて", "X", "Y", "終了する")

	// Another user's plain text is a lookup against their own empty data.
	replies := send(t, svc, 2, "X")
	require.Equal(t, []string{dialog.ReplyNotFound}, replies)
}

func TestInboundHistoryRecorded(t *testing.T) {
	svc, gdb := newTestStockService(t)
	log, err := logger.New("development")
	require.NoError(t, err)

	send(t, svc, 1, "覚えて", "X", "Y", "終了する")

	messages, err := repos.NewMessageRepo(gdb, log).ListByUser(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	require.Equal(t, "覚えて", messages[0].Content)
	require.Equal(t, "終了する", messages[3].Content)
}
