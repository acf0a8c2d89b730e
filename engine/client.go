package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ishahzaibhaider/Ideofuzion-sub001/logger"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/model"
	"github.com/ishahzaibhaider/Ideofuzion-sub001/util"
	"go.uber.org/zap"
)

const API_KEY_HEADER string = "X-Engine-API-Key"

const (
	DEFAULT_TIMEOUT           = 10 * time.Second
	DEFAULT_MIN_CALL_INTERVAL = 1 * time.Second
	maxBodySize               = 8 << 20
)

// Config is everything the client needs; nothing is read from the
// environment.
type Config struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	MinCallInterval time.Duration
}

// WorkflowSummary is one entry of a list call.
type WorkflowSummary struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type ListFilter struct {
	Name   string
	Active *bool
	Tags   []string
	Limit  int
}

type FetchResult struct {
	Id       string
	Workflow *model.Workflow
	Err      error
}

type WebhookResponse struct {
	Status int
	Body   string
}

// Client talks to the automation engine's REST API. It keeps no state
// between calls beyond its configuration.
type Client struct {
	conf       Config
	httpClient *http.Client
}

func NewClient(conf Config) *Client {
	if conf.Timeout <= 0 {
		conf.Timeout = DEFAULT_TIMEOUT
	}
	if conf.MinCallInterval < 0 {
		conf.MinCallInterval = 0
	}
	conf.BaseURL = strings.TrimRight(conf.BaseURL, "/")
	return &Client{
		conf:       conf,
		httpClient: &http.Client{Timeout: conf.Timeout},
	}
}

// NewBatchSequencer returns a sequencer for one batch of calls.
func (c *Client) NewBatchSequencer() *util.Sequencer {
	return util.NewSequencer(c.conf.MinCallInterval)
}

func (c *Client) FetchWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	op := "fetch workflow " + id
	status, body, err := c.do(ctx, op, http.MethodGet, "/workflows/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError(op, status, body)
	}
	wf, err := model.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return wf, nil
}

// FetchWorkflows fetches ids one after another, spacing the calls by the
// configured minimum interval. Failures are reported per id.
func (c *Client) FetchWorkflows(ctx context.Context, ids []string) []FetchResult {
	seq := c.NewBatchSequencer()
	results := make([]FetchResult, 0, len(ids))
	for _, id := range ids {
		res := FetchResult{Id: id}
		err := seq.Do(ctx, func(ctx context.Context) error {
			var err error
			res.Workflow, err = c.FetchWorkflow(ctx, id)
			return err
		})
		res.Err = waitError("fetch workflow", err)
		results = append(results, res)
	}
	return results
}

type createRequest struct {
	Name        string            `json:"name"`
	Nodes       []model.Node      `json:"nodes"`
	Connections model.Connections `json:"connections"`
	Settings    map[string]any    `json:"settings"`
	StaticData  map[string]any    `json:"staticData,omitempty"`
}

// CreateWorkflow validates wf locally and creates it on the engine,
// returning the engine issued id. An invalid graph is never sent.
func (c *Client) CreateWorkflow(ctx context.Context, wf *model.Workflow) (string, error) {
	if err := model.Validate(wf); err != nil {
		return "", err
	}
	op := "create workflow " + wf.Name
	req := createRequest{
		Name:        wf.Name,
		Nodes:       wf.Nodes,
		Connections: wf.Connections,
		Settings:    wf.Settings,
		StaticData:  wf.StaticData,
	}
	if req.Settings == nil {
		req.Settings = map[string]any{}
	}
	if req.Connections == nil {
		req.Connections = model.Connections{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow: %w", err)
	}
	status, body, err := c.do(ctx, op, http.MethodPost, "/workflows", nil, payload)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		logger.Error("engine rejected workflow", zap.String("workflow", wf.Name), zap.Int("status", status),
			zap.ByteString("response", body), zap.ByteString("payload", payload))
		return "", &Error{Kind: ErrValidationRejected, Op: op, Status: status, Body: string(body)}
	case status < 200 || status > 299:
		return "", statusError(op, status, body)
	}
	var created WorkflowSummary
	if err := json.Unmarshal(body, &created); err != nil || created.Id == "" {
		return "", &Error{Kind: ErrRemote, Op: op, Status: status, Body: string(body), Err: fmt.Errorf("response carries no workflow id")}
	}
	logger.Info("workflow created", zap.String("workflow", wf.Name), zap.String("id", created.Id))
	return created.Id, nil
}

// ActivateWorkflow turns on the workflow's triggers.
func (c *Client) ActivateWorkflow(ctx context.Context, id string) error {
	op := "activate workflow " + id
	status, body, err := c.do(ctx, op, http.MethodPost, "/workflows/"+url.PathEscape(id)+"/activate", nil, nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return statusError(op, status, body)
	}
	return nil
}

type listResponse struct {
	Data       []WorkflowSummary `json:"data"`
	NextCursor *string           `json:"nextCursor"`
}

// ListWorkflows returns every workflow matching filter, following the
// engine's cursor pagination. Pages are fetched through a batch sequencer.
func (c *Client) ListWorkflows(ctx context.Context, filter ListFilter) ([]WorkflowSummary, error) {
	query := url.Values{}
	if filter.Name != "" {
		query.Set("name", filter.Name)
	}
	if filter.Active != nil {
		query.Set("active", strconv.FormatBool(*filter.Active))
	}
	if len(filter.Tags) > 0 {
		query.Set("tags", strings.Join(filter.Tags, ","))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	seq := c.NewBatchSequencer()
	var all []WorkflowSummary
	for {
		var page listResponse
		err := seq.Do(ctx, func(ctx context.Context) error {
			status, body, err := c.do(ctx, "list workflows", http.MethodGet, "/workflows", query, nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return statusError("list workflows", status, body)
			}
			if err := json.Unmarshal(body, &page); err != nil {
				return &Error{Kind: ErrRemote, Op: "list workflows", Status: status, Body: string(body), Err: err}
			}
			return nil
		})
		if err != nil {
			return nil, waitError("list workflows", err)
		}
		all = append(all, page.Data...)
		if page.NextCursor == nil || *page.NextCursor == "" {
			break
		}
		query.Set("cursor", *page.NextCursor)
	}
	if filter.Name != "" {
		// some engine versions match names by prefix
		exact := all[:0]
		for _, w := range all {
			if w.Name == filter.Name {
				exact = append(exact, w)
			}
		}
		all = exact
	}
	return all, nil
}

// TriggerWebhook posts payload to an engine hosted webhook url. Non-2xx
// statuses are returned, not treated as errors; only transport failures fail.
func (c *Client) TriggerWebhook(ctx context.Context, webhookURL string, payload any) (*WebhookResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.conf.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	status, body, err := c.send(req, "trigger webhook")
	if err != nil {
		return nil, err
	}
	return &WebhookResponse{Status: status, Body: string(body)}, nil
}

func (c *Client) do(ctx context.Context, op string, method string, path string, query url.Values, body []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.conf.Timeout)
	defer cancel()
	u := c.conf.BaseURL + path
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(API_KEY_HEADER, c.conf.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, op)
}

func (c *Client) send(req *http.Request, op string) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &Error{Kind: ErrNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, &Error{Kind: ErrNetwork, Op: op, Status: resp.StatusCode, Err: err}
	}
	logger.Debug("engine call", zap.String("op", op), zap.String("method", req.Method), zap.Int("status", resp.StatusCode))
	return resp.StatusCode, body, nil
}
