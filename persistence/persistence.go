package persistence

import (
	"context"
	"fmt"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

// UserWorkflowStore persists the user -> template -> workflow mapping. It is
// the only shared mutable state of the service, so every mutation is
// conditional: Reserve inserts only when the (user, template) key is absent
// and CompareAndSwap only applies when the stored entry still carries the
// caller's token.
type UserWorkflowStore interface {
	// GetRecord returns the user's record, empty when nothing was stored.
	GetRecord(ctx context.Context, userId string) (*model.UserWorkflowRecord, error)

	// Reserve stores entry under (userId, template) if no entry exists there
	// and reports whether it did. On error nothing is reserved.
	Reserve(ctx context.Context, userId string, template model.TemplateName, entry model.RecordEntry) (bool, error)

	// CompareAndSwap replaces the entry under (userId, template) with entry,
	// or deletes it when entry is nil, provided the current entry's token is
	// expectedToken. It reports whether the swap happened.
	CompareAndSwap(ctx context.Context, userId string, template model.TemplateName, expectedToken string, entry *model.RecordEntry) (bool, error)

	// ListUsers returns every user that has ever had an entry.
	ListUsers(ctx context.Context) ([]string, error)
}
