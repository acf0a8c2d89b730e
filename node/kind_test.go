package node

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	hook := Decode(TYPE_WEBHOOK, ParametersOf("path", "meeting-bot", "httpMethod", "post"))
	require.IsType(t, &Webhook{}, hook)
	require.Equal(t, "POST", hook.(*Webhook).HTTPMethod)
	require.NoError(t, hook.Validate())

	req := Decode(TYPE_HTTP_REQUEST, ParametersOf("url", "https://api.example.com"))
	require.IsType(t, &HTTPRequest{}, req)
	require.NoError(t, req.Validate())

	other := Decode("n8n-nodes-base.gmail", ParametersOf("sendTo", "a@b.c"))
	require.IsType(t, &Opaque{}, other)
	require.Equal(t, "n8n-nodes-base.gmail", other.Type())
	require.NoError(t, other.Validate())
}

func TestValidateKinds(t *testing.T) {
	require.Error(t, NewWebhook("", "POST").Validate())
	require.Error(t, NewWebhook("x", "TRACE").Validate())
	require.Error(t, NewHTTPRequest(" ", "GET").Validate())
	require.Error(t, NewCode("").Validate())
	require.Error(t, NewCode("const = 1;").Validate())
	require.NoError(t, NewCode("const out = $input.all();\nreturn out;").Validate())
}

func TestParametersKeepOrder(t *testing.T) {
	var p Parameters
	require.NoError(t, json.Unmarshal([]byte(`{"z": 1, "a": {"b": 2}, "m": "x"}`), &p))
	require.Equal(t, []string{"z", "a", "m"}, p.Keys())

	data, err := json.Marshal(p)
	require.NoError(t, err)
	require.Equal(t, `{"z":1,"a":{"b":2},"m":"x"}`, string(data))

	c, err := p.Clone()
	require.NoError(t, err)
	c.Set("m", "y")
	require.Equal(t, "x", p.String("m"))

	var empty Parameters
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	require.Equal(t, 0, empty.Len())
	data, err = json.Marshal(Parameters{})
	require.NoError(t, err)
	require.Equal(t, `{}`, string(data))
}
