package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

// tokenPattern matches {$.path} placeholders. Engine expressions such as
// {{ $json.x }} do not match and are left alone.
var tokenPattern = regexp.MustCompile(`\{(\$\.[^{}\s]+)\}`)

// ResolveParams returns a copy of params with every {$.path} placeholder in
// string values replaced by the jsonpath lookup of path in data. Unresolvable
// placeholders are kept verbatim.
func ResolveParams(data map[string]any, params map[string]any) map[string]any {
	output := make(map[string]any, len(params))
	resolveParams(data, params, output)
	return output
}

// ResolveValue resolves placeholders in a single decoded JSON value.
func ResolveValue(data map[string]any, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		resolveParams(data, val, out)
		return out
	case string:
		return resolveString(data, val)
	case []any:
		return resolveList(data, val)
	default:
		return v
	}
}

func resolveParams(data map[string]any, params map[string]any, output map[string]any) {
	for k, v := range params {
		output[k] = ResolveValue(data, v)
	}
}

func resolveList(data map[string]any, list []any) []any {
	output := make([]any, 0, len(list))
	for _, v := range list {
		output = append(output, ResolveValue(data, v))
	}
	return output
}

func resolveString(data map[string]any, s string) string {
	tokenMap := make(map[string]any)
	for _, match := range tokenPattern.FindAllStringSubmatch(s, -1) {
		value, err := jsonpath.JsonPathLookup(data, match[1])
		if err != nil || value == nil {
			continue
		}
		tokenMap[match[0]] = value
	}
	for t, tv := range tokenMap {
		s = strings.ReplaceAll(s, t, fmt.Sprintf("%v", tv))
	}
	return s
}
