package gateway

import (
	"encoding/json"
	"strings"
)

// Payload is the decoded output of a single gateway command. The gateway is
// not guaranteed to emit JSON, so decoding is two-stage: a structured decode
// is attempted first, and only when that fails the line-oriented heuristic
// fills Lines. Callers inspect exactly one of Object, Array or Lines.
type Payload struct {
	Object map[string]interface{}
	Array  []interface{}
	Lines  []string
	Raw    string
}

// Structured reports whether the payload carried a JSON object or array.
func (p Payload) Structured() bool {
	return p.Object != nil || p.Array != nil
}

// Decode parses raw gateway output. JSON objects and arrays are decoded as
// such; anything else degrades to trimmed, non-empty lines with a leading
// header line and its separator line (----, ====) stripped when present.
func Decode(raw string) Payload {
	p := Payload{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			p.Object = obj
			return p
		}
	}
	if strings.HasPrefix(trimmed, "[") {
		var arr []interface{}
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
			p.Array = arr
			return p
		}
	}

	p.Lines = decodeLines(trimmed)
	return p
}

func decodeLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	// Tabular output starts with a header row followed by a separator row.
	if len(lines) >= 2 && isSeparator(lines[1]) {
		lines = lines[2:]
	}
	return lines
}

func isSeparator(line string) bool {
	if line == "" {
		return false
	}
	for _, r := range line {
		switch r {
		case '-', '=', '+', '|', ' ':
		default:
			return false
		}
	}
	return true
}

// FirstString returns the string held under the first of the given keys
// that maps to a string value.
func (p Payload) FirstString(keys ...string) (string, bool) {
	if p.Object == nil {
		return "", false
	}
	for _, key := range keys {
		if v, ok := p.Object[key]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}
