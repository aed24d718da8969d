package vars

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/osbeck/labops/pkg/fault"
)

// Rule is one ordered key replacement against the sample document.
type Rule struct {
	Key   string
	Value any
}

// Override is one caller-supplied key appended after the anchor. Unlike
// rules, override keys need not exist in the sample at all.
type Override struct {
	Key   string
	Value any
}

// Report records what a render did, in application order. Updated holds
// "<key> (replaced)" entries for rules that matched a line, then
// "<key> (appended override)" entries for overrides. Skipped lists rule
// keys absent from the sample; those are never inserted into the body.
type Report struct {
	Updated []string `json:"updated"`
	Skipped []string `json:"skipped,omitempty"`
}

// Engine rewrites a sample configuration document line by line. Lines it
// does not touch survive byte for byte: comments, blanks, spacing, and
// ordering all pass through unchanged. The document is never parsed as
// YAML.
type Engine struct {
	anchor string
	quoted map[string]bool
}

// NewEngine returns an engine that inserts overrides after the given
// anchor comment line and double-quotes values for the listed keys.
func NewEngine(anchor string, quotedKeys []string) *Engine {
	quoted := make(map[string]bool, len(quotedKeys))
	for _, key := range quotedKeys {
		quoted[key] = true
	}
	return &Engine{anchor: anchor, quoted: quoted}
}

// Render applies rules in order, each replacing at most the first line
// matching "key:" at any indentation, then appends overrides after the
// anchor line (or at end of document when the anchor is absent). The
// returned text is the complete rendered document.
func (e *Engine) Render(sample string, rules []Rule, overrides []Override) (string, Report, error) {
	var report Report
	for _, o := range overrides {
		if !scalarValue(o.Value) {
			return "", Report{}, fault.Validation("extra var %q: nested values are not allowed", o.Key)
		}
	}

	lines := strings.Split(sample, "\n")
	for _, rule := range rules {
		if e.replaceFirst(lines, rule) {
			report.Updated = append(report.Updated, rule.Key+" (replaced)")
		} else {
			report.Skipped = append(report.Skipped, rule.Key)
		}
	}
	if len(overrides) > 0 {
		lines = e.insertOverrides(lines, overrides, &report)
	}
	return strings.Join(lines, "\n"), report, nil
}

// replaceFirst rewrites the first line declaring rule.Key, keeping the
// captured indentation exactly. It reports whether a line matched.
func (e *Engine) replaceFirst(lines []string, rule Rule) bool {
	pattern := regexp.MustCompile(`^(\s*)` + regexp.QuoteMeta(rule.Key) + `\s*:`)
	for i, line := range lines {
		m := pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lines[i] = m[1] + rule.Key + ": " + e.formatValue(rule.Key, rule.Value)
		return true
	}
	return false
}

// insertOverrides splices one formatted line per override immediately
// after the anchor line, or at the end of the document when no anchor
// exists. No surrounding line is altered; a document that gains
// overrides as its final lines always ends with a newline.
func (e *Engine) insertOverrides(lines []string, overrides []Override, report *Report) []string {
	formatted := make([]string, 0, len(overrides))
	for _, o := range overrides {
		formatted = append(formatted, o.Key+": "+e.formatValue(o.Key, o.Value))
		report.Updated = append(report.Updated, o.Key+" (appended override)")
	}

	anchorAt := -1
	for i, line := range lines {
		if strings.TrimRight(line, " \t\r") == e.anchor {
			anchorAt = i
			break
		}
	}

	if anchorAt >= 0 {
		out := make([]string, 0, len(lines)+len(formatted)+1)
		out = append(out, lines[:anchorAt+1]...)
		out = append(out, formatted...)
		out = append(out, lines[anchorAt+1:]...)
		if anchorAt == len(lines)-1 {
			out = append(out, "")
		}
		return out
	}

	// A trailing empty element means the document ended with a newline;
	// keep it last so the rendered file still does.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		out := make([]string, 0, n+len(formatted))
		out = append(out, lines[:n-1]...)
		out = append(out, formatted...)
		out = append(out, "")
		return out
	}
	out := append(lines, formatted...)
	return append(out, "")
}

// formatValue renders a value for a "key: value" line. The policy is
// fixed: booleans are lowercase, nil is empty, keys on the quote list
// and strings carrying a {{ }} templating expression are double-quoted,
// everything else appears in its plain textual form.
func (e *Engine) formatValue(key string, value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "true"
		}
		return "false"
	}
	text := plainString(value)
	if e.quoted[key] {
		return `"` + text + `"`
	}
	if s, ok := value.(string); ok && strings.Contains(s, "{{") && strings.Contains(s, "}}") {
		return `"` + s + `"`
	}
	return text
}

// plainString keeps numeric literals as the caller spelled them:
// json.Number passes through verbatim, so 1 stays 1 and 1.50 stays 1.50.
func plainString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func scalarValue(value any) bool {
	switch value.(type) {
	case nil, bool, string, json.Number, int, int64, float64:
		return true
	}
	return false
}
