package render

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// DefaultWidth is the column prose is wrapped to.
const DefaultWidth = 80

const fence = "```"

// Renderer formats assistant text for a fixed-width terminal.
type Renderer struct {
	styles Styles
	width  int
}

// NewRenderer creates a renderer wrapping prose at DefaultWidth.
func NewRenderer(styles Styles) *Renderer {
	return &Renderer{styles: styles, width: DefaultWidth}
}

// Reflow formats text line by line. Outside code fences, non-empty lines are
// word-wrapped and empty lines pass through. A line whose trimmed form starts
// with ``` opens or closes a fence; any text after the backticks on the
// opening line is the language. Fenced lines are kept verbatim between a
// "# <lang> code:" banner and "# End of code". A fence still open at the end
// of the text is flushed without the closing banner.
func (r *Renderer) Reflow(text string) string {
	var out []string
	var code []string
	inFence := false
	lang := ""

	flush := func(closed bool) {
		out = append(out, "", r.styles.Banner.Render(startBanner(lang)))
		out = append(out, code...)
		if closed {
			out = append(out, r.styles.Banner.Render("# End of code"), "")
		}
		code = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, fence) {
			if inFence {
				flush(true)
			} else {
				lang = strings.TrimSpace(strings.TrimPrefix(trimmed, fence))
			}
			inFence = !inFence
			continue
		}

		switch {
		case inFence:
			code = append(code, line)
		case trimmed == "":
			out = append(out, line)
		default:
			out = append(out, r.wrap(line))
		}
	}
	if inFence {
		flush(false)
	}

	return strings.Join(out, "\n")
}

// wrap breaks at word boundaries first and hard-wraps words that are still
// longer than the width.
func (r *Renderer) wrap(line string) string {
	return wrap.String(wordwrap.String(line, r.width), r.width)
}

func startBanner(lang string) string {
	if lang == "" {
		return "# Code:"
	}
	return "# " + lang + " code:"
}

var defaultRenderer = NewRenderer(NewStyles())

// Reflow formats text with the default styles.
func Reflow(text string) string {
	return defaultRenderer.Reflow(text)
}
