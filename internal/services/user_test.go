package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/repos"
	"github.com/morinaga/stockbot-backend/internal/types"
)

func TestResolveOrCreateIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	log, err := logger.New("development")
	require.NoError(t, err)
	svc := NewUserService(gdb, log, repos.NewUserRepo(gdb, log))

	first, err := svc.ResolveOrCreate(context.Background(), "U1234")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := svc.ResolveOrCreate(context.Background(), "U1234")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, gdb.Model(&types.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestResolveOrCreateRequiresUID(t *testing.T) {
	gdb := newTestDB(t)
	log, err := logger.New("development")
	require.NoError(t, err)
	svc := NewUserService(gdb, log, repos.NewUserRepo(gdb, log))

	_, err = svc.ResolveOrCreate(context.Background(), "   ")
	require.Error(t, err)
}
