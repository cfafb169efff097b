// Package format turns agent-authored message text into display segments:
// prose, fenced code blocks and code detected in unfenced prose.
package format

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Collapse thresholds.
const (
	CodeMaxLines    = 10
	CodeMaxChars    = 500
	MessageMaxLines = 10
	MessageMaxChars = 800
)

// SegmentKind distinguishes prose from code.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentCode
)

// Segment is one contiguous piece of a formatted message.
type Segment struct {
	Kind SegmentKind
	Text string
	// Lang is the fence language tag or the detector's guess. Code only.
	Lang string
	// Fenced is true for blocks written with triple backticks.
	Fenced bool
	// Collapsible code blocks start collapsed.
	Collapsible bool
	Collapsed   bool
}

// Formatted is a message split into segments, in original order.
type Formatted struct {
	Segments []Segment
}

// CodeBlocks returns the indexes of the code segments.
func (f Formatted) CodeBlocks() []int {
	var idx []int
	for i, s := range f.Segments {
		if s.Kind == SegmentCode {
			idx = append(idx, i)
		}
	}
	return idx
}

// fence matches ```lang\n ... ``` with an optional word-character language.
var fence = regexp.MustCompile("```(\\w+)?\\n([\\s\\S]*?)```")

// Formatter splits messages using a configurable embedded-code detector.
type Formatter struct {
	Detector Detector
}

// Default uses the heuristic detector.
var Default = Formatter{Detector: HeuristicDetector{}}

// FormatMessage formats text with the default formatter.
func FormatMessage(text string) Formatted {
	return Default.Format(text)
}

// Format extracts fenced code blocks, then runs the detector over the prose
// between them. Text already inside a code block is never examined again.
func (f Formatter) Format(text string) Formatted {
	var out Formatted
	last := 0
	for _, m := range fence.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			out.Segments = append(out.Segments, f.prose(text[last:m[0]])...)
		}
		var lang string
		if m[2] >= 0 {
			lang = text[m[2]:m[3]]
		}
		code := text[m[4]:m[5]]
		collapse := codeCollapses(strings.TrimSpace(code), code)
		out.Segments = append(out.Segments, Segment{
			Kind:        SegmentCode,
			Text:        code,
			Lang:        lang,
			Fenced:      true,
			Collapsible: collapse,
			Collapsed:   collapse,
		})
		last = m[1]
	}
	if last < len(text) {
		out.Segments = append(out.Segments, f.prose(text[last:])...)
	}
	return out
}

// prose splits unfenced text around detected code regions.
func (f Formatter) prose(text string) []Segment {
	var regions []Region
	if f.Detector != nil {
		regions = f.Detector.Detect(text)
	}

	var segs []Segment
	last := 0
	for _, r := range regions {
		if r.Start < last || r.End > len(text) || r.Start >= r.End {
			continue
		}
		if r.Start > last {
			segs = append(segs, Segment{Kind: SegmentText, Text: text[last:r.Start]})
		}
		code := strings.TrimSpace(text[r.Start:r.End])
		collapse := codeCollapses(code, code)
		segs = append(segs, Segment{
			Kind:        SegmentCode,
			Text:        code,
			Lang:        r.Lang,
			Collapsible: collapse,
			Collapsed:   collapse,
		})
		last = r.End
	}
	if last < len(text) {
		segs = append(segs, Segment{Kind: SegmentText, Text: text[last:]})
	}
	return segs
}

// codeCollapses applies the code block thresholds: lines are counted on the
// trimmed body, characters on the body as displayed.
func codeCollapses(trimmed, body string) bool {
	return lineCount(trimmed) > CodeMaxLines || utf8.RuneCountInString(body) > CodeMaxChars
}

// ShouldCollapse reports whether a whole message starts collapsed.
func ShouldCollapse(text string) bool {
	return lineCount(text) > MessageMaxLines || utf8.RuneCountInString(text) > MessageMaxChars
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

// HTML renders the segments as markup. All text is escaped. Collapsible code
// blocks get an id built from idPrefix and a toggle button.
func (f Formatted) HTML(idPrefix string) string {
	var b strings.Builder
	n := 0
	for _, s := range f.Segments {
		if s.Kind == SegmentText {
			b.WriteString(html.EscapeString(s.Text))
			continue
		}
		n++
		code := fmt.Sprintf(`<code class="language-%s">%s</code>`, html.EscapeString(s.Lang), html.EscapeString(s.Text))
		if !s.Collapsible {
			b.WriteString("<pre>" + code + "</pre>")
			continue
		}
		id := fmt.Sprintf("%s-code-%d", idPrefix, n)
		class := ""
		label := "Show less"
		if s.Collapsed {
			class = ` class="collapsed"`
			label = "Show more..."
		}
		fmt.Fprintf(&b, `<pre id="%s"%s>%s</pre><button class="code-toggle" data-target="%s">%s</button>`,
			id, class, code, id, label)
	}
	return b.String()
}
