// Package render turns raw assistant replies into terminal text: edit
// directives become status lines, prose is wrapped and code fences are
// bannered.
package render

import (
	"fmt"

	"github.com/abdul-mstfa/projectgen/internal/edits"
)

// StatusLine is the one-line replacement for an applied or failed directive.
func StatusLine(o edits.Outcome) string {
	if o.Applied {
		return fmt.Sprintf("🔄 APPLIED CHANGES TO: %s 🔄", o.Path)
	}
	return fmt.Sprintf("❌ ERROR UPDATING %s: %s ❌", o.Path, o.Reason)
}

// Substitute replaces each instruction's span in text with the status line
// of its outcome. instructions and outcomes are paired by index and must
// come from parsing text. Spans are rewritten from the end backwards so
// earlier offsets stay valid, and identical directives are each replaced
// exactly once.
func Substitute(text string, instructions []edits.Instruction, outcomes []edits.Outcome) string {
	n := min(len(instructions), len(outcomes))
	limit := len(text)
	for i := n - 1; i >= 0; i-- {
		span := instructions[i].Span
		if span.Start < 0 || span.Start > span.End || span.End > limit {
			continue
		}
		text = text[:span.Start] + StatusLine(outcomes[i]) + text[span.End:]
		limit = span.Start
	}
	return text
}
