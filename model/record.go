package model

import (
	"fmt"
	"sort"
	"time"
)

type EntryState string

const (
	// ENTRY_PENDING marks a (user, template) pair reserved by a provisioning
	// call that has not finished yet.
	ENTRY_PENDING EntryState = "pending"
	ENTRY_CREATED EntryState = "created"
	// ENTRY_UNDETERMINED marks a create whose outcome is unknown, e.g. a
	// timeout. It must be reconciled against the engine before re-creating.
	ENTRY_UNDETERMINED EntryState = "undetermined"
)

type RecordEntry struct {
	State     EntryState `json:"state"`
	RemoteId  string     `json:"remoteId,omitempty"`
	Token     string     `json:"token,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Check rejects entries that could not have been written by a provisioning
// call.
func (e *RecordEntry) Check() error {
	switch e.State {
	case ENTRY_CREATED:
		if e.RemoteId == "" {
			return fmt.Errorf("created entry without remote id")
		}
	case ENTRY_PENDING, ENTRY_UNDETERMINED:
	default:
		return fmt.Errorf("unknown entry state %q", e.State)
	}
	if e.Token == "" {
		return fmt.Errorf("entry without token")
	}
	return nil
}

// UserWorkflowRecord maps each template name to the user's entry for it.
type UserWorkflowRecord struct {
	UserId  string                       `json:"userId"`
	Entries map[TemplateName]RecordEntry `json:"entries"`
}

func NewUserWorkflowRecord(userId string) *UserWorkflowRecord {
	return &UserWorkflowRecord{UserId: userId, Entries: map[TemplateName]RecordEntry{}}
}

// Instances returns the created entries as workflow instances, in
// provisioning order for known templates, then by name.
func (r *UserWorkflowRecord) Instances() []WorkflowInstance {
	instances := make([]WorkflowInstance, 0, len(r.Entries))
	for _, name := range r.orderedNames() {
		e := r.Entries[name]
		if e.State != ENTRY_CREATED {
			continue
		}
		instances = append(instances, WorkflowInstance{
			RemoteId:  e.RemoteId,
			UserId:    r.UserId,
			Template:  name,
			Active:    e.Active,
			CreatedAt: e.CreatedAt,
		})
	}
	return instances
}

func (r *UserWorkflowRecord) Has(name TemplateName) bool {
	e, ok := r.Entries[name]
	return ok && e.State == ENTRY_CREATED
}

func (r *UserWorkflowRecord) orderedNames() []TemplateName {
	known := make(map[TemplateName]bool, len(TemplateNames))
	names := make([]TemplateName, 0, len(r.Entries))
	for _, n := range TemplateNames {
		known[n] = true
		if _, ok := r.Entries[n]; ok {
			names = append(names, n)
		}
	}
	var rest []TemplateName
	for n := range r.Entries {
		if !known[n] {
			rest = append(rest, n)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(names, rest...)
}
