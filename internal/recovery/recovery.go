// internal/recovery/recovery.go
package recovery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hjson/hjson-go/v4"
	jsoniter "github.com/json-iterator/go"
)

// Markers the analyzers are instructed to wrap their JSON output in. They are
// the most reliable anchor when the output also contains reasoning prose.
const (
	StartMarker = "<<JSON_START>>"
	EndMarker   = "<<JSON_END>>"
)

// Keyword forms of the markers, matched when an intermediate transport has
// mangled the angle brackets.
const (
	startKeyword = "JSON_START"
	endKeyword   = "JSON_END"
)

// streamField is the field name streaming envelopes carry generation
// fragments under (one NDJSON object per delta).
const streamField = "response"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// markerRegex extracts the span between the literal start and end markers.
var markerRegex = regexp.MustCompile(`(?s)<<JSON_START>>(.*?)<<JSON_END>>`)

// strategy attempts one extraction approach. The boolean reports whether the
// approach produced a parseable object; on false the caller moves on to the
// next strategy.
type strategy func(text string) (map[string]any, bool)

// Recover turns an arbitrary text blob into a best-effort structured object.
// It never fails: on total exhaustion of every strategy it returns an empty
// map, which callers must treat identically to "no findings".
//
// The text is first reassembled if it arrived as a sequence of streaming
// NDJSON envelopes, then unescaped if the marker characters were
// unicode-escaped in transit. The resulting string is run through strict
// parsing, marker extraction, balanced-brace scanning and finally a tolerant
// whole-text parse, stopping at the first success.
func Recover(text string) map[string]any {
	if strings.TrimSpace(text) == "" {
		return map[string]any{}
	}

	text = reassembleStream(text)
	text = unescapeMarkers(text)

	strategies := []strategy{
		parseStrict,
		parseMarkers,
		parseMarkerKeywords,
		parseBalanced,
		parseTolerant,
	}
	for _, s := range strategies {
		if obj, ok := s(text); ok {
			return obj
		}
	}
	return map[string]any{}
}

// reassembleStream detects NDJSON streaming output (one small object per line
// carrying a text fragment under the "response" field) and concatenates the
// fragments, in line order, into the string the model actually generated.
// Text without such envelopes is returned unchanged.
func reassembleStream(text string) string {
	var assembled []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var obj map[string]any
			if err := json.UnmarshalFromString(line, &obj); err == nil {
				if frag, ok := obj[streamField].(string); ok {
					assembled = append(assembled, frag)
					continue
				}
			}
		}
		// Near-JSON envelope lines (truncated or malformed deltas). Pull the
		// fragment out with a naive substring heuristic rather than losing it.
		if strings.Contains(line, `"`+streamField+`"`) {
			if frag, ok := extractStreamFragment(line); ok {
				assembled = append(assembled, frag)
			}
		}
	}
	if len(assembled) == 0 {
		return text
	}
	return strings.Join(assembled, "")
}

// extractStreamFragment pulls the value following `"response":` out of a line
// that did not parse as JSON. Outer quotes and a trailing comma are stripped;
// no unescaping is attempted.
func extractStreamFragment(line string) (string, bool) {
	idx := strings.Index(line, `"`+streamField+`"`)
	if idx == -1 {
		return "", false
	}
	colon := strings.Index(line[idx:], ":")
	if colon == -1 {
		return "", false
	}
	frag := strings.TrimSpace(line[idx+colon+1:])
	frag = strings.TrimSuffix(frag, ",")
	if len(frag) >= 2 && strings.HasPrefix(frag, `"`) && strings.HasSuffix(frag, `"`) {
		frag = frag[1 : len(frag)-1]
	}
	return frag, true
}

// unescapeMarkers normalizes unicode-escaped angle brackets (some transports
// encode '<' as `\u003c`), so the literal marker tokens become findable. If
// a full escape decode fails, only the two known escaped forms are replaced.
func unescapeMarkers(text string) string {
	if !strings.Contains(text, `\u003c`) && !strings.Contains(text, `\u003e`) {
		return text
	}
	if decoded, err := decodeUnicodeEscapes(text); err == nil {
		return decoded
	}
	text = strings.ReplaceAll(text, `\u003c`, "<")
	return strings.ReplaceAll(text, `\u003e`, ">")
}

// decodeUnicodeEscapes decodes every \uXXXX sequence in s. Any malformed
// sequence aborts the decode so the caller can fall back to literal
// replacement.
func decodeUnicodeEscapes(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'u' {
			if i+6 > len(s) {
				return "", fmt.Errorf("truncated unicode escape at offset %d", i)
			}
			var r rune
			for _, c := range s[i+2 : i+6] {
				d, ok := hexDigit(c)
				if !ok {
					return "", fmt.Errorf("invalid unicode escape at offset %d", i)
				}
				r = r<<4 | rune(d)
			}
			b.WriteRune(r)
			i += 6
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String(), nil
}

func hexDigit(c rune) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// parseStrict attempts a strict JSON parse of the whole text as an object.
func parseStrict(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.UnmarshalFromString(strings.TrimSpace(text), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// parseMarkers extracts the span between the literal marker tokens and parses
// it, strictly first, then leniently.
func parseMarkers(text string) (map[string]any, bool) {
	m := markerRegex.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	candidate := strings.TrimSpace(m[1])
	if obj, ok := parseStrict(candidate); ok {
		return obj, true
	}
	return parseTolerant(candidate)
}

// parseMarkerKeywords handles output where the marker keywords survived but
// the surrounding angle brackets did not: it takes the first '{' after
// JSON_START and the last '}' before JSON_END as the candidate span.
func parseMarkerKeywords(text string) (map[string]any, bool) {
	start := strings.Index(text, startKeyword)
	end := strings.LastIndex(text, endKeyword)
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	open := strings.Index(text[start:], "{")
	if open == -1 {
		return nil, false
	}
	open += start
	close := strings.LastIndex(text[start:end], "}")
	if close == -1 {
		return nil, false
	}
	close += start
	if close <= open {
		return nil, false
	}
	candidate := text[open : close+1]
	if obj, ok := parseStrict(candidate); ok {
		return obj, true
	}
	return parseTolerant(candidate)
}

// parseBalanced locates the first '{' and scans forward tracking bracket
// depth to its matching '}'. The scan is simple counting with no awareness of
// string literals, which is good enough for the outputs seen in practice.
// Only the first balanced span is attempted.
func parseBalanced(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	if start == -1 {
		return nil, false
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if obj, ok := parseStrict(candidate); ok {
					return obj, true
				}
				return parseTolerant(candidate)
			}
		}
	}
	return nil, false
}

// parseTolerant is the lenient last resort: HJSON accepts the trailing
// commas, unquoted keys and comment noise that near-valid model output tends
// to contain. The decoded value is round-tripped through strict JSON so
// nested objects come back as plain maps instead of hjson's ordered maps,
// keeping every strategy's output shape identical.
func parseTolerant(text string) (map[string]any, bool) {
	var v any
	if err := hjson.Unmarshal([]byte(text), &v); err != nil || v == nil {
		return nil, false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// Findings returns the raw findings list of a recovered object, or nil when
// the object has none (including the empty map returned on recovery failure).
func Findings(obj map[string]any) []any {
	raw, ok := obj["findings"].([]any)
	if !ok {
		return nil
	}
	return raw
}
