package script

import (
	"errors"
	"testing"

	"github.com/dop251/goja/ast"
	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Mode
	}{
		{name: "const declaration", input: "const x = 1;", want: ModeProgram},
		{name: "function", input: "function f() {}\nf();", want: ModeProgram},
		{name: "async function", input: "async function main() {}", want: ModeProgram},
		{name: "leading comments", input: "// login flow\n/* v2 */\n  let a = 1", want: ModeProgram},
		{name: "try", input: "try { x() } catch (e) {}", want: ModeProgram},
		{name: "await fragment", input: "await page.click('#a')\nawait page.click('#b')", want: ModeFragment},
		{name: "call fragment", input: "page.goto('https://example.com')", want: ModeFragment},
		{name: "identifier with keyword prefix", input: "constant = 1", want: ModeFragment},
		{name: "empty", input: "", want: ModeFragment},
		{name: "only comments", input: "// nothing here", want: ModeFragment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.input); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitFragment(t *testing.T) {
	input := `const { page, log } = context;
// open the form

await page.click('#a')
/* multi
 * line */
  await page.fill('#q', 'hi')
let {page} = ctx
log('done')`

	want := []Line{
		{Number: 4, Text: "await page.click('#a')"},
		{Number: 7, Text: "await page.fill('#q', 'hi')"},
		{Number: 9, Text: "log('done')"},
	}
	if diff := cmp.Diff(want, SplitFragment(input)); diff != "" {
		t.Errorf("SplitFragment() mismatch (-want +got):\n%s", diff)
	}
}

func TestRewriteAwait(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "await page.click('#a')", want: "(async () => { await page.click('#a') })();"},
		{input: "await(page.title())", want: "(async () => { await(page.title()) })();"},
		{input: "page.click('#a')", want: "page.click('#a')"},
		{input: "awaitable()", want: "awaitable()"},
		{input: "const t = await page.title()", want: "const t = await page.title()"},
	}
	for _, tt := range tests {
		if got := RewriteAwait(tt.input); got != tt.want {
			t.Errorf("RewriteAwait(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	prog, err := Parse("test.js", "const x = 1;\nawait page.click('#a');\nfunction f() { return x }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Body) != 3 {
		t.Fatalf("want 3 statements, got %d", len(prog.Body))
	}
	if _, ok := prog.Body[2].(*ast.FunctionDeclaration); !ok {
		t.Errorf("want *ast.FunctionDeclaration, got %T", prog.Body[2])
	}

	expr := prog.Body[1].(*ast.ExpressionStatement).Expression
	if _, ok := expr.(*ast.AwaitExpression); !ok {
		t.Errorf("top-level await: want *ast.AwaitExpression, got %T", expr)
	}
	if got := prog.Line(int(expr.Idx0())); got != 2 {
		t.Errorf("Line() = %d, want 2", got)
	}
	if got := prog.Line(int(prog.Body[0].Idx0())); got != 1 {
		t.Errorf("Line() of first statement = %d, want 1", got)
	}
}

func TestParse_Error(t *testing.T) {
	_, err := Parse("broken.js", "let a = 1;\nlet = = 2;")
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("want *ParseError, got %T", err)
	}
	if perr.Line != 2 {
		t.Errorf("Line = %d, want 2 (%v)", perr.Line, perr)
	}
	if perr.Name != "broken.js" {
		t.Errorf("Name = %q", perr.Name)
	}
}

func TestParse_RejectsEscapingTheWrapper(t *testing.T) {
	if _, err := Parse("evil.js", "})(); (function () {"); err == nil {
		t.Errorf("expected an error for a source that closes the wrapper")
	}
}
