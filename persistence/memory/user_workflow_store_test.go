package memory

import (
	"context"
	"testing"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/stretchr/testify/require"
)

func TestUserWorkflowStore(t *testing.T) {
	ctx := context.Background()
	s := NewUserWorkflowStore()

	ok, err := s.Reserve(ctx, "u1", model.TEMPLATE_MEETING_BOT, model.RecordEntry{State: model.ENTRY_PENDING, Token: "t1"})
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Reserve(ctx, "u1", model.TEMPLATE_MEETING_BOT, model.RecordEntry{State: model.ENTRY_PENDING, Token: "t2"})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, "u1", model.TEMPLATE_MEETING_BOT, "t2", nil)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, "u1", model.TEMPLATE_MEETING_BOT, "t1",
		&model.RecordEntry{State: model.ENTRY_CREATED, Token: "t1", RemoteId: "wf-1"})
	require.NoError(t, err)
	require.True(t, ok)

	record, err := s.GetRecord(ctx, "u1")
	require.NoError(t, err)
	require.True(t, record.Has(model.TEMPLATE_MEETING_BOT))

	// the returned record is a copy
	delete(record.Entries, model.TEMPLATE_MEETING_BOT)
	record, err = s.GetRecord(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, record.Entries, 1)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"u1"}, users)
}
