package node

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

const (
	TYPE_WEBHOOK      string = "n8n-nodes-base.webhook"
	TYPE_HTTP_REQUEST string = "n8n-nodes-base.httpRequest"
	TYPE_CODE         string = "n8n-nodes-base.code"
)

var validWebhookMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"}

// Kind is the typed view of a node's parameters. Known engine node types
// decode into a dedicated struct, everything else stays Opaque.
type Kind interface {
	Type() string
	Validate() error
}

var _ Kind = new(Webhook)
var _ Kind = new(HTTPRequest)
var _ Kind = new(Code)
var _ Kind = new(Opaque)

// Decode picks the Kind for nodeType.
func Decode(nodeType string, params Parameters) Kind {
	switch nodeType {
	case TYPE_WEBHOOK:
		return NewWebhook(params.String("path"), params.String("httpMethod"))
	case TYPE_HTTP_REQUEST:
		return NewHTTPRequest(params.String("url"), params.String("method"))
	case TYPE_CODE:
		return NewCode(params.String("jsCode"))
	default:
		return NewOpaque(nodeType, params)
	}
}

type Webhook struct {
	Path       string
	HTTPMethod string
}

func NewWebhook(path string, method string) *Webhook {
	if method == "" {
		method = "GET"
	}
	return &Webhook{Path: path, HTTPMethod: strings.ToUpper(method)}
}

func (w *Webhook) Type() string {
	return TYPE_WEBHOOK
}

func (w *Webhook) Validate() error {
	if len(strings.TrimSpace(w.Path)) == 0 {
		return fmt.Errorf("webhook path can not be empty")
	}
	for _, m := range validWebhookMethods {
		if m == w.HTTPMethod {
			return nil
		}
	}
	return fmt.Errorf("invalid webhook method %s", w.HTTPMethod)
}

type HTTPRequest struct {
	URL    string
	Method string
}

func NewHTTPRequest(url string, method string) *HTTPRequest {
	if method == "" {
		method = "GET"
	}
	return &HTTPRequest{URL: url, Method: strings.ToUpper(method)}
}

func (h *HTTPRequest) Type() string {
	return TYPE_HTTP_REQUEST
}

func (h *HTTPRequest) Validate() error {
	if len(strings.TrimSpace(h.URL)) == 0 {
		return fmt.Errorf("http request url can not be empty")
	}
	return nil
}

type Code struct {
	JSCode string
}

func NewCode(jsCode string) *Code {
	return &Code{JSCode: jsCode}
}

func (c *Code) Type() string {
	return TYPE_CODE
}

// Validate compiles the snippet. The engine runs code node bodies inside a
// function, so top level return statements are legal.
func (c *Code) Validate() error {
	if len(strings.TrimSpace(c.JSCode)) == 0 {
		return fmt.Errorf("code can not be empty")
	}
	src := "(function() {\n" + c.JSCode + "\n})"
	if _, err := goja.Compile("code", src, false); err != nil {
		return fmt.Errorf("error compiling javascript %w", err)
	}
	return nil
}

type Opaque struct {
	NodeType string
	Params   Parameters
}

func NewOpaque(nodeType string, params Parameters) *Opaque {
	return &Opaque{NodeType: nodeType, Params: params}
}

func (o *Opaque) Type() string {
	return o.NodeType
}

func (o *Opaque) Validate() error {
	if len(strings.TrimSpace(o.NodeType)) == 0 {
		return fmt.Errorf("node type can not be empty")
	}
	return nil
}
