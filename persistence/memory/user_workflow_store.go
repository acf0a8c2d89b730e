package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/persistence"
)

var _ persistence.UserWorkflowStore = new(UserWorkflowStore)

// UserWorkflowStore is an in process store, used for tests and the
// "memory" storage type. Contents are lost on restart.
type UserWorkflowStore struct {
	mu      sync.Mutex
	records map[string]map[model.TemplateName]model.RecordEntry
}

func NewUserWorkflowStore() *UserWorkflowStore {
	return &UserWorkflowStore{
		records: make(map[string]map[model.TemplateName]model.RecordEntry),
	}
}

func (s *UserWorkflowStore) GetRecord(_ context.Context, userId string) (*model.UserWorkflowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := model.NewUserWorkflowRecord(userId)
	for name, entry := range s.records[userId] {
		record.Entries[name] = entry
	}
	return record, nil
}

func (s *UserWorkflowStore) Reserve(_ context.Context, userId string, template model.TemplateName, entry model.RecordEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.records[userId]
	if !ok {
		entries = make(map[model.TemplateName]model.RecordEntry)
		s.records[userId] = entries
	}
	if _, exists := entries[template]; exists {
		return false, nil
	}
	entries[template] = entry
	return true, nil
}

func (s *UserWorkflowStore) CompareAndSwap(_ context.Context, userId string, template model.TemplateName, expectedToken string, entry *model.RecordEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[userId][template]
	if !ok || cur.Token != expectedToken {
		return false, nil
	}
	if entry == nil {
		delete(s.records[userId], template)
		return true, nil
	}
	s.records[userId][template] = *entry
	return true, nil
}

func (s *UserWorkflowStore) ListUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]string, 0, len(s.records))
	for u := range s.records {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}
