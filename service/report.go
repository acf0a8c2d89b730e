package service

import (
	"errors"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/engine"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/persistence"
)

type ResultStatus string

const (
	STATUS_CREATED  ResultStatus = "created"
	STATUS_EXISTING ResultStatus = "existing"
	// STATUS_ADOPTED means a workflow created by an earlier, interrupted call
	// was found on the engine and recorded instead of creating a new one.
	STATUS_ADOPTED ResultStatus = "adopted"
	// STATUS_IN_PROGRESS means another process holds the reservation.
	STATUS_IN_PROGRESS ResultStatus = "in_progress"
	STATUS_FAILED      ResultStatus = "failed"
)

var ErrReservationLost = errors.New("workflow reservation lost")

type TemplateResult struct {
	Template  model.TemplateName `json:"template"`
	Status    ResultStatus       `json:"status"`
	RemoteId  string             `json:"remoteId,omitempty"`
	ErrorKind string             `json:"errorKind,omitempty"`
	Error     string             `json:"error,omitempty"`

	err error
}

func (r TemplateResult) Err() error {
	return r.err
}

func failed(name model.TemplateName, err error) TemplateResult {
	return TemplateResult{
		Template:  name,
		Status:    STATUS_FAILED,
		ErrorKind: errorKind(err),
		Error:     err.Error(),
		err:       err,
	}
}

// Report is the outcome of a create or ensure call: one result per template
// in provisioning order, plus the user's instances afterwards.
type Report struct {
	UserId    string                   `json:"userId"`
	Results   []TemplateResult         `json:"results"`
	Instances []model.WorkflowInstance `json:"instances"`
}

// Complete reports whether every template now has a workflow.
func (r *Report) Complete() bool {
	for _, res := range r.Results {
		if res.Status == STATUS_FAILED || res.Status == STATUS_IN_PROGRESS {
			return false
		}
	}
	return true
}

func (r *Report) Failed() []TemplateResult {
	var out []TemplateResult
	for _, res := range r.Results {
		if res.Status == STATUS_FAILED {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) Result(name model.TemplateName) (TemplateResult, bool) {
	for _, res := range r.Results {
		if res.Template == name {
			return res, true
		}
	}
	return TemplateResult{}, false
}

func errorKind(err error) string {
	var storageErr persistence.StorageLayerError
	switch {
	case errors.As(err, &storageErr):
		return "StorageError"
	case errors.Is(err, ErrReservationLost):
		return "ReservationLost"
	default:
		return engine.ErrorKind(err)
	}
}
