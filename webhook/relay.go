package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/analytics"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/engine"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/util"
	"go.uber.org/zap"
)

const (
	DEFAULT_PLATFORM = "web"
	DEFAULT_ACTION   = "trigger"
	// USER_PLACEHOLDER in a configured url is replaced by the payload's userId.
	USER_PLACEHOLDER = "{userId}"
)

var (
	ErrUnknownEvent = errors.New("unknown webhook event")
	// ErrMissingUser means the event url is per user but the payload has no
	// userId.
	ErrMissingUser = errors.New("webhook event has no user id")
)

// Trigger posts a payload to a webhook url. engine.Client implements it.
type Trigger interface {
	TriggerWebhook(ctx context.Context, webhookURL string, payload any) (*engine.WebhookResponse, error)
}

var _ Trigger = new(engine.Client)

type Config struct {
	URLs     map[model.EventKind]string
	Platform string
	// MinCallInterval spaces the calls of one SendBatch.
	MinCallInterval time.Duration
}

type Delivery struct {
	EventId   string          `json:"eventId"`
	Kind      model.EventKind `json:"kind"`
	Delivered bool            `json:"delivered"`
	Status    int             `json:"status"`
	Body      string          `json:"body"`
}

type Relay struct {
	conf    Config
	trigger Trigger
	now     func() time.Time
}

func NewRelay(conf Config, trigger Trigger) *Relay {
	if conf.Platform == "" {
		conf.Platform = DEFAULT_PLATFORM
	}
	return &Relay{
		conf:    conf,
		trigger: trigger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Kinds returns the configured event kinds in their fixed order.
func (r *Relay) Kinds() []model.EventKind {
	var kinds []model.EventKind
	for _, k := range model.EventKinds {
		if r.conf.URLs[k] != "" {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Event builds the event that Send would post. The payload is copied;
// timestamp and platform always overwrite caller values.
func (r *Relay) Event(kind model.EventKind, payload map[string]any) model.WebhookEvent {
	ev := model.WebhookEvent{
		Kind:      kind,
		Payload:   make(map[string]any, len(payload)+4),
		Timestamp: r.now(),
		Platform:  r.conf.Platform,
	}
	for k, v := range payload {
		ev.Payload[k] = v
	}
	ev.Payload["timestamp"] = ev.Timestamp.Format(time.RFC3339)
	ev.Payload["platform"] = ev.Platform
	if a, ok := ev.Payload["action"].(string); !ok || a == "" {
		ev.Payload["action"] = DEFAULT_ACTION
	}
	if _, ok := ev.Payload["eventId"]; !ok {
		ev.Payload["eventId"] = uuid.NewString()
	}
	return ev
}

// Send posts one event. A non-2xx response is a Delivery with Delivered
// false, not an error; the caller decides whether to retry. Errors are
// ErrUnknownEvent, ErrMissingUser or a transport failure wrapping
// engine.ErrNetwork.
func (r *Relay) Send(ctx context.Context, kind model.EventKind, payload map[string]any) (*Delivery, error) {
	target, ok := r.conf.URLs[kind]
	if !ok || target == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}
	ev := r.Event(kind, payload)
	userId := userIdOf(ev.Payload)
	if strings.Contains(target, USER_PLACEHOLDER) {
		if userId == "" {
			return nil, fmt.Errorf("%w: %q", ErrMissingUser, kind)
		}
		target = strings.ReplaceAll(target, USER_PLACEHOLDER, url.PathEscape(userId))
	}
	eventId, _ := ev.Payload["eventId"].(string)

	resp, err := r.trigger.TriggerWebhook(ctx, target, ev.Payload)
	if err != nil {
		logger.Error("error sending webhook", zap.String("event", string(kind)), zap.String("user", userId), zap.Error(err))
		analytics.RecordDelivery(string(kind), userId, 0, false)
		return nil, err
	}
	d := &Delivery{
		EventId:   eventId,
		Kind:      kind,
		Delivered: resp.Status >= 200 && resp.Status < 300,
		Status:    resp.Status,
		Body:      resp.Body,
	}
	if d.Delivered {
		logger.Info("webhook delivered", zap.String("event", string(kind)), zap.String("user", userId), zap.Int("status", d.Status))
	} else {
		logger.Warn("webhook not accepted", zap.String("event", string(kind)), zap.String("user", userId),
			zap.Int("status", d.Status), zap.String("body", d.Body))
	}
	analytics.RecordDelivery(string(kind), userId, d.Status, d.Delivered)
	return d, nil
}

// Outbound is one event of a batch.
type Outbound struct {
	Kind    model.EventKind
	Payload map[string]any
}

// userIdOf reads the payload's userId. Ids that arrive as JSON numbers are
// formatted as they were written.
func userIdOf(payload map[string]any) string {
	switch v := payload["userId"].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

type BatchResult struct {
	Delivery *Delivery
	Err      error
}

// SendBatch sends events one after another, spaced by MinCallInterval. A
// failed event does not stop the batch; results are in input order.
func (r *Relay) SendBatch(ctx context.Context, events []Outbound) []BatchResult {
	seq := util.NewSequencer(r.conf.MinCallInterval)
	results := make([]BatchResult, len(events))
	for i, ev := range events {
		err := seq.Do(ctx, func(ctx context.Context) error {
			d, err := r.Send(ctx, ev.Kind, ev.Payload)
			results[i].Delivery = d
			return err
		})
		results[i].Err = err
	}
	return results
}
