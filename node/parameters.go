package node

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Parameters is the opaque, order preserving key/value mapping the engine
// attaches to every node. Values are plain decoded JSON.
type Parameters struct {
	m *orderedmap.OrderedMap[string, any]
}

func NewParameters() Parameters {
	return Parameters{m: orderedmap.New[string, any]()}
}

// ParametersOf builds Parameters from key/value pairs, keeping argument order.
func ParametersOf(kv ...any) Parameters {
	p := NewParameters()
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return p
}

func (p Parameters) Len() int {
	if p.m == nil {
		return 0
	}
	return p.m.Len()
}

func (p Parameters) Get(key string) (any, bool) {
	if p.m == nil {
		return nil, false
	}
	return p.m.Get(key)
}

// String returns the value under key when it is a string.
func (p Parameters) String(key string) string {
	v, ok := p.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (p *Parameters) Set(key string, value any) {
	if p.m == nil {
		p.m = orderedmap.New[string, any]()
	}
	p.m.Set(key, value)
}

func (p Parameters) Keys() []string {
	keys := make([]string, 0, p.Len())
	if p.m == nil {
		return keys
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Map returns an unordered copy, handy for jsonpath lookups and comparisons.
func (p Parameters) Map() map[string]any {
	out := make(map[string]any, p.Len())
	if p.m == nil {
		return out
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// Clone returns a deep copy.
func (p Parameters) Clone() (Parameters, error) {
	data, err := p.MarshalJSON()
	if err != nil {
		return Parameters{}, err
	}
	var c Parameters
	if err := c.UnmarshalJSON(data); err != nil {
		return Parameters{}, err
	}
	return c, nil
}

func (p Parameters) MarshalJSON() ([]byte, error) {
	if p.m == nil {
		return []byte("{}"), nil
	}
	return p.m.MarshalJSON()
}

func (p *Parameters) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, any]()
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		p.m = m
		return nil
	}
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	p.m = m
	return nil
}

var _ json.Marshaler = Parameters{}
var _ json.Unmarshaler = new(Parameters)
