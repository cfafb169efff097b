package format

import (
	"regexp"
	"strings"
)

// Region is a byte range of text that looks like code, with a language guess.
// Lang is empty when no guess could be made.
type Region struct {
	Start int
	End   int
	Lang  string
}

// Detector finds code embedded in prose that is not fenced.
type Detector interface {
	Detect(text string) []Region
}

// NoDetector disables embedded code detection.
type NoDetector struct{}

// Detect implements Detector.
func (NoDetector) Detect(string) []Region { return nil }

// codeRun matches three or more consecutive code-looking lines preceded by a
// newline: keyword-leading lines, lines opening with a brace, bracket,
// semicolon or paren, and indented lines.
var codeRun = regexp.MustCompile(
	`\n((?:(?:[ \t]*(?:function|class|def|import|const|let|var|if|for|while|return|public|private|protected|async|await|export|interface|type)\b[^\n]*\n)` +
		`|(?:[ \t]*[{}\[\];()][^\n]*\n)` +
		`|(?:[ \t]+[^\n]+\n)){3,})`)

var languageGuesses = []struct {
	lang string
	re   *regexp.Regexp
}{
	{"javascript", regexp.MustCompile(`\b(function|const|let|var|console\.log)\b|=>`)},
	{"python", regexp.MustCompile(`\b(def|import|class|print|if __name__)\b`)},
	{"html", regexp.MustCompile(`<(html|div|body|script|style)\b`)},
	{"java", regexp.MustCompile(`\b(public|private|protected|class|interface)\b`)},
}

// HeuristicDetector classifies runs of lines as code with regular
// expressions. It is approximate by nature.
type HeuristicDetector struct{}

// Detect implements Detector. A region spans the whole run of lines,
// including the final newline; callers trim it for display.
func (HeuristicDetector) Detect(text string) []Region {
	var regions []Region
	for _, m := range codeRun.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		trimmed := strings.TrimSpace(text[start:end])
		if trimmed == "" {
			continue
		}
		regions = append(regions, Region{
			Start: start,
			End:   end,
			Lang:  GuessLanguage(trimmed),
		})
	}
	return regions
}

// DetectEmbeddedCode runs the default heuristic detector over text.
func DetectEmbeddedCode(text string) []Region {
	return HeuristicDetector{}.Detect(text)
}

// GuessLanguage returns javascript, python, html or java for code that
// matches their keyword patterns, checked in that order, or "".
func GuessLanguage(code string) string {
	for _, g := range languageGuesses {
		if g.re.MatchString(code) {
			return g.lang
		}
	}
	return ""
}
