package toolserver

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/EchoCog/echollama/core/coreerr"
)

// maxResponseBytes bounds every tool's rendered text body (§4.H).
const maxResponseBytes = 8 * 1024

// errorSigil leads every error response line (§4.H "Error shape"), kept
// visually distinct from the header sigil so a client can branch on the
// first byte without parsing the whole line.
const errorSigil = "✖"

// headerSigil marks the human-readable header of a successful response,
// matching the emoji register core/logging uses elsewhere in this tree.
const headerSigil = "🌊"

// field is one key/value line of a tool response body.
type field struct {
	key   string
	value interface{}
}

// frame renders a tool's response: a header line naming the tool, then one
// `key: value` line per field, truncated to maxResponseBytes.
func frame(title string, fields ...field) string {
	var b strings.Builder
	b.WriteString(headerSigil)
	b.WriteByte(' ')
	b.WriteString(title)
	b.WriteByte('\n')
	for _, f := range fields {
		fmt.Fprintf(&b, "%s: %v\n", f.key, f.value)
	}
	return truncate(b.String())
}

// frameBody is like frame but carries a free-text body line before the
// key/value fields, for tools whose primary output is prose (e.g. the
// orchestrated reply itself).
func frameBody(title, body string, fields ...field) string {
	var b strings.Builder
	b.WriteString(headerSigil)
	b.WriteByte(' ')
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "%s: %v\n", f.key, f.value)
	}
	return truncate(b.String())
}

func truncate(s string) string {
	if len(s) <= maxResponseBytes {
		return s
	}
	return s[:maxResponseBytes-1] + "…"
}

// renderError implements §4.H/§7's error shape: a single line beginning
// with the error sigil, the failure kind, and a one-line message. Security
// errors never leak internal detail beyond the fixed kind name (§7).
func renderError(ce *coreerr.CoreError) string {
	msg := ce.Message
	if ce.Kind.Family() == coreerr.FamilySecurity {
		msg = "request blocked"
	}
	return fmt.Sprintf("%s %s: %s", errorSigil, ce.Kind, msg)
}

// args is the decoded JSON-RPC/tool-call argument map. Values are limited
// to strings, integers, floats, booleans, and JSON-encoded strings for
// nested structures (§4.H), so every getter here degrades to a typed
// zero-value rather than panicking on a mismatched type.
type args map[string]interface{}

func (a args) str(key string) string {
	if v, ok := a[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (a args) strOr(key, def string) string {
	if v := a.str(key); v != "" {
		return v
	}
	return def
}

func (a args) floatOr(key string, def float64) float64 {
	if v, ok := a[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case json.Number:
			f, err := n.Float64()
			if err == nil {
				return f
			}
		}
	}
	return def
}

func (a args) intOr(key string, def int) int {
	return int(a.floatOr(key, float64(def)))
}

func (a args) boolOr(key string, def bool) bool {
	if v, ok := a[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// jsonField decodes a JSON-encoded-string argument (§4.H: nested structures
// travel as JSON-encoded strings) into a map, returning an empty map when
// absent or malformed rather than failing the call outright.
func (a args) jsonField(key string) map[string]interface{} {
	raw := a.str(key)
	if raw == "" {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// jsonStringList decodes a JSON-encoded string-array argument, returning
// nil when absent or malformed.
func (a args) jsonStringList(key string) []string {
	raw := a.str(key)
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// sortedKeys is a small formatting helper used by tools that render a
// map[string]float64 as deterministic key:value lines.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
