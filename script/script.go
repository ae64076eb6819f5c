// Package script prepares guest source text for evaluation.
//
// It decides whether a source is a complete program or a bare fragment of
// statements, splits fragments into independently executable lines, and parses
// source with the goja parser.
package script

import (
	"regexp"
	"strings"
	"unicode"
)

// Mode is how a source text is executed.
type Mode int

const (
	// ModeProgram evaluates the whole source as one unit and stops at the first failure.
	ModeProgram Mode = iota
	// ModeFragment evaluates each line on its own and continues after a failing line.
	ModeFragment
)

func (m Mode) String() string {
	if m == ModeFragment {
		return "fragment"
	}
	return "program"
}

// programKeywords are the words a complete program may start with.
var programKeywords = map[string]bool{
	"const": true, "let": true, "var": true,
	"function": true, "async": true,
	"if": true, "for": true, "while": true, "do": true, "try": true, "switch": true,
	"class": true, "import": true, "export": true,
	"throw": true, "return": true,
}

// Classify reports whether src is a complete program or a bare fragment.
// A program starts, after whitespace and comments, with a statement or declaration keyword.
func Classify(src string) Mode {
	word := firstWord(skipComments(src))
	if programKeywords[word] {
		return ModeProgram
	}
	return ModeFragment
}

func skipComments(src string) string {
	for {
		src = strings.TrimLeftFunc(src, unicode.IsSpace)
		switch {
		case strings.HasPrefix(src, "//"):
			_, rest, found := strings.Cut(src, "\n")
			if !found {
				return ""
			}
			src = rest
		case strings.HasPrefix(src, "/*"):
			_, rest, found := strings.Cut(src[2:], "*/")
			if !found {
				return ""
			}
			src = rest
		default:
			return src
		}
	}
}

func firstWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$')
	})
	if end < 0 {
		return s
	}
	return s[:end]
}

// Line is one executable line of a fragment.
type Line struct {
	Number int // 1-based line number in the original source
	Text   string
}

// contextDestructure matches lines such as `const { page, log } = context;` whose
// bindings already exist in the root environment.
var contextDestructure = regexp.MustCompile(`^(?:const|let|var)\s*\{[^}]*\}\s*=\s*(?:context|ctx)\s*;?$`)

// SplitFragment splits a fragment into the lines that should be executed.
// Blank lines, comment lines and context destructuring lines are skipped.
func SplitFragment(src string) []Line {
	var lines []Line
	for i, text := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(text)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, "//"), strings.HasPrefix(trimmed, "/*"), strings.HasPrefix(trimmed, "*"):
			continue
		case contextDestructure.MatchString(trimmed):
			continue
		}
		lines = append(lines, Line{Number: i + 1, Text: trimmed})
	}
	return lines
}

// RewriteAwait wraps a line that begins with `await` in an immediately invoked async
// arrow function so that it parses as a standalone statement. Other lines are returned as is.
func RewriteAwait(line string) string {
	trimmed := strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(trimmed, "await")
	if !ok || rest == "" {
		return line
	}
	if r := rest[0]; r != ' ' && r != '\t' && r != '(' {
		return line // e.g. an identifier named awaitable
	}
	return "(async () => { " + trimmed + " })();"
}
