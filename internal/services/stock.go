package services

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/morinaga/stockbot-backend/internal/dialog"
	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/repos"
	"github.com/morinaga/stockbot-backend/internal/types"
)

type StockService interface {
	// HandleMessage runs the full classify/transition pipeline for one
	// inbound text message and returns the replies to send.
	HandleMessage(ctx context.Context, userID uint, text string) ([]string, error)
}

type stockService struct {
	db          *gorm.DB
	log         *logger.Logger
	groupRepo   repos.StockGroupRepo
	stockRepo   repos.StockRepo
	messageRepo repos.MessageRepo
	stateRepo   repos.ConversationStateRepo

	// userLocks serializes same-user messages within this process. Distinct
	// users proceed concurrently.
	userLocks sync.Map
}

func NewStockService(
	db *gorm.DB,
	log *logger.Logger,
	groupRepo repos.StockGroupRepo,
	stockRepo repos.StockRepo,
	messageRepo repos.MessageRepo,
	stateRepo repos.ConversationStateRepo,
) StockService {
	serviceLog := log.With("service", "StockService")
	return &stockService{
		db:          db,
		log:         serviceLog,
		groupRepo:   groupRepo,
		stockRepo:   stockRepo,
		messageRepo: messageRepo,
		stateRepo:   stateRepo,
	}
}

func (ss *stockService) HandleMessage(ctx context.Context, userID uint, text string) ([]string, error) {
	mu := ss.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	var replies []string
	if err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ss.messageRepo.Create(ctx, tx, &types.Message{Content: text, UserID: userID}); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		row, err := ss.stateRepo.Get(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		state := dialog.StateIdle
		var pending *dialog.GroupRef
		if row != nil {
			state = dialog.State(row.State)
			if row.PendingGroupID != nil {
				pending = &dialog.GroupRef{ID: *row.PendingGroupID, Alias: row.PendingAlias}
			}
		}

		action := dialog.Classify(text, state)
		input, err := ss.buildInput(ctx, tx, userID, text, state, action, pending)
		if err != nil {
			return fmt.Errorf("build input: %w", err)
		}

		result := dialog.Transition(state, input)

		created, err := ss.applyEffects(ctx, tx, userID, result.Effects)
		if err != nil {
			return err
		}
		if err := ss.persistState(ctx, tx, userID, result.Next, pending, created); err != nil {
			return fmt.Errorf("persist state: %w", err)
		}

		replies = result.Replies
		return nil
	}); err != nil {
		ss.log.Warn("HandleMessage transaction error", "user_id", userID, "error", err)
		return nil, err
	}
	return replies, nil
}

// buildInput loads only the snapshot fields the classified action consults.
func (ss *stockService) buildInput(ctx context.Context, tx *gorm.DB, userID uint, text string, state dialog.State, action dialog.Action, pending *dialog.GroupRef) (dialog.Input, error) {
	input := dialog.Input{Action: action, Text: text, Pending: pending}

	switch action {
	case dialog.ActionContinue:
		if state != dialog.StateCollectingSnippets {
			return input, nil
		}
		latest, err := ss.groupRepo.GetLatestByUser(ctx, tx, userID)
		if err != nil {
			return input, err
		}
		if latest != nil {
			input.Latest = &dialog.GroupRef{ID: latest.ID, Alias: latest.Alias}
		}

	case dialog.ActionRemove, dialog.ActionRemoveIndex:
		groups, err := ss.loadGroupRefs(ctx, tx, userID)
		if err != nil {
			return input, err
		}
		input.Groups = groups

	case dialog.ActionCheck:
		alias, _ := dialog.CheckQuery(text)
		if alias == "" {
			groups, err := ss.loadGroupRefs(ctx, tx, userID)
			if err != nil {
				return input, err
			}
			input.Groups = groups
			return input, nil
		}
		return ss.withLookup(ctx, tx, userID, alias, input)

	case dialog.ActionNone:
		return ss.withLookup(ctx, tx, userID, text, input)
	}

	return input, nil
}

func (ss *stockService) loadGroupRefs(ctx context.Context, tx *gorm.DB, userID uint) ([]dialog.GroupRef, error) {
	groups, err := ss.groupRepo.ListByUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	refs := make([]dialog.GroupRef, 0, len(groups))
	for _, g := range groups {
		refs = append(refs, dialog.GroupRef{ID: g.ID, Alias: g.Alias})
	}
	return refs, nil
}

func (ss *stockService) withLookup(ctx context.Context, tx *gorm.DB, userID uint, alias string, input dialog.Input) (dialog.Input, error) {
	group, err := ss.groupRepo.GetLatestByAlias(ctx, tx, userID, alias)
	if err != nil {
		return input, err
	}
	if group == nil {
		return input, nil
	}
	input.MatchFound = true
	stocks, err := ss.stockRepo.ListByGroup(ctx, tx, group.ID)
	if err != nil {
		return input, err
	}
	for _, s := range stocks {
		input.Matches = append(input.Matches, s.Content)
	}
	return input, nil
}

// applyEffects runs the transition's storage effects inside the caller's
// transaction and returns the group created by an EffectCreateGroup, if any.
func (ss *stockService) applyEffects(ctx context.Context, tx *gorm.DB, userID uint, effects []dialog.Effect) (*dialog.GroupRef, error) {
	var created *dialog.GroupRef
	for _, e := range effects {
		switch e.Kind {
		case dialog.EffectCreateGroup:
			group := &types.StockGroup{Alias: e.Alias, UserID: userID}
			if err := ss.groupRepo.Create(ctx, tx, group); err != nil {
				return nil, fmt.Errorf("create group: %w", err)
			}
			created = &dialog.GroupRef{ID: group.ID, Alias: group.Alias}
		case dialog.EffectCreateStock:
			stock := &types.Stock{Content: e.Content, StockGroupID: e.GroupID, UserID: userID}
			if err := ss.stockRepo.Create(ctx, tx, stock); err != nil {
				return nil, fmt.Errorf("create stock: %w", err)
			}
		case dialog.EffectDeleteGroup:
			if err := ss.stockRepo.DeleteByGroup(ctx, tx, e.GroupID); err != nil {
				return nil, fmt.Errorf("delete stocks of group %d: %w", e.GroupID, err)
			}
			if err := ss.groupRepo.DeleteByID(ctx, tx, userID, e.GroupID); err != nil {
				return nil, fmt.Errorf("delete group %d: %w", e.GroupID, err)
			}
		}
	}
	return created, nil
}

func (ss *stockService) persistState(ctx context.Context, tx *gorm.DB, userID uint, next dialog.State, pending, created *dialog.GroupRef) error {
	if next == dialog.StateIdle {
		return ss.stateRepo.Clear(ctx, tx, userID)
	}

	row := &types.ConversationState{UserID: userID, State: string(next)}
	carry := pending
	if created != nil {
		carry = created
	}
	// The pending group only means something while the memorize flow is open.
	if next == dialog.StateCollectingSnippets && carry != nil {
		row.PendingGroupID = &carry.ID
		row.PendingAlias = carry.Alias
	}
	return ss.stateRepo.Upsert(ctx, tx, row)
}

func (ss *stockService) lockFor(userID uint) *sync.Mutex {
	v, _ := ss.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
