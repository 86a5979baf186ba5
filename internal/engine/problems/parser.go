// Package problems parses free-text clinical problem lists into
// structured, severity-tagged entries. Parsing is pure and idempotent:
// identical text always yields identical problems, including their IDs.
// There is no identity across saves beyond the content-derived slug; a
// re-save recomputes everything.
package problems

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity levels share the task-priority enum and its total order.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Problem is one parsed problem-list entry.
type Problem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
}

// IsUrgent reports whether the problem warrants escalation review.
func (p Problem) IsUrgent() bool {
	return p.Severity == SeverityCritical || p.Severity == SeverityHigh
}

var (
	numberingRe = regexp.MustCompile(`^\d+[.)\-]\s*`)
	bracketRe   = regexp.MustCompile(`(?i)^\[(critical|high|medium|low)\]\s*(.*)$`)
	prefixRe    = regexp.MustCompile(`(?i)^(critical|high|medium|low)\s*[:\-]\s*(.*)$`)
	slugRe      = regexp.MustCompile(`[^a-z0-9]+`)
)

// Keyword lists for severity inference, checked against the lowercased
// title. The critical list always wins over the high list. These are the
// established lists; the overlap ambiguities (pneumonia is high, generic
// lines are medium) are intentional and must not be "corrected".
var criticalKeywords = []string{
	"sepsis",
	"septic shock",
	"cardiac arrest",
	"stroke",
	"stemi",
	"anaphylaxis",
	"dka",
	"gi bleed",
	"pulmonary embolism",
	"haemorrhage",
	"hemorrhage",
}

var highKeywords = []string{
	"acs",
	"chest pain",
	"pneumonia",
	"aki",
	"hypoxia",
	"delirium",
	"hyperkalaemia",
	"hyperkalemia",
	"cellulitis",
}

// Parse turns a multi-line problem list into problems, one per non-blank
// line. Severity comes from, in precedence order: an explicit "[high]"
// bracket tag, an explicit "high:"/"high-" prefix, bang shorthand ("!!!"
// critical, "!" high), then keyword inference with medium as the default.
func Parse(text string) []Problem {
	var out []Problem
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		line = numberingRe.ReplaceAllString(line, "")
		if line == "" {
			continue
		}

		severity, title := classifyLine(line)
		idx := len(out)
		out = append(out, Problem{
			ID:       fmt.Sprintf("problem-%d-%s", idx, slugOrIndex(title, idx)),
			Title:    title,
			Severity: severity,
		})
	}
	return out
}

func classifyLine(line string) (severity, title string) {
	if m := bracketRe.FindStringSubmatch(line); m != nil {
		return strings.ToLower(m[1]), strings.TrimSpace(m[2])
	}
	if m := prefixRe.FindStringSubmatch(line); m != nil {
		return strings.ToLower(m[1]), strings.TrimSpace(m[2])
	}
	if strings.HasPrefix(line, "!") {
		severity = SeverityHigh
		if strings.HasPrefix(line, "!!!") {
			severity = SeverityCritical
		}
		return severity, strings.TrimSpace(strings.TrimLeft(line, "!"))
	}
	return inferSeverity(line), line
}

func inferSeverity(title string) string {
	lower := strings.ToLower(title)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return SeverityCritical
		}
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return SeverityHigh
		}
	}
	return SeverityMedium
}

func slugOrIndex(title string, idx int) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		return fmt.Sprintf("%d", idx)
	}
	return slug
}
