package evaluator

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/pagescript/object"
	"github.com/podhmo/pagescript/script"
)

type testResult struct {
	eval   *Evaluator
	result object.Object
	logs   []string
}

// testEval parses input the way scripts are parsed and evaluates it in a fresh
// environment with the globals installed.
func testEval(t *testing.T, input string) (object.Object, []string) {
	t.Helper()
	r := testRun(t, context.Background(), Config{}, input)
	return r.result, r.logs
}

func testRun(t *testing.T, ctx context.Context, cfg Config, input string) testResult {
	t.Helper()
	prog, err := script.Parse("test.js", input)
	if err != nil {
		t.Fatalf("failed to parse code: %v", err)
	}

	var logs []string
	cfg.Log = func(s string) { logs = append(logs, s) }
	eval := New(cfg)
	env := object.NewEnvironment()
	eval.InstallGlobals(env)

	result := eval.EvalStatements(ctx, prog.Body, env)
	if rv, ok := result.(*object.ReturnValue); ok {
		result = rv.Value
	}
	return testResult{eval: eval, result: result, logs: logs}
}

func testNumberObject(t *testing.T, obj object.Object, expected float64) bool {
	t.Helper()
	result, ok := obj.(*object.Number)
	if !ok {
		t.Errorf("object is not Number. got=%T (%+v)", obj, obj)
		return false
	}
	if result.Value != expected {
		t.Errorf("object has wrong value. got=%v, want=%v", result.Value, expected)
		return false
	}
	return true
}

func testStringObject(t *testing.T, obj object.Object, expected string) bool {
	t.Helper()
	result, ok := obj.(*object.String)
	if !ok {
		t.Errorf("object is not String. got=%T (%+v)", obj, obj)
		return false
	}
	if result.Value != expected {
		t.Errorf("object has wrong value. got=%q, want=%q", result.Value, expected)
		return false
	}
	return true
}

func testBooleanObject(t *testing.T, obj object.Object, expected bool) bool {
	t.Helper()
	result, ok := obj.(*object.Boolean)
	if !ok {
		t.Errorf("object is not Boolean. got=%T (%+v)", obj, obj)
		return false
	}
	if result.Value != expected {
		t.Errorf("object has wrong value. got=%t, want=%t", result.Value, expected)
		return false
	}
	return true
}

func testErrorObject(t *testing.T, obj object.Object, kind object.ErrorKind, expectedMessage string) bool {
	t.Helper()
	errObj, ok := obj.(*object.Error)
	if !ok {
		t.Errorf("object is not Error. got=%T (%+v)", obj, obj)
		return false
	}
	if errObj.Kind != kind {
		t.Errorf("wrong error kind. expected=%s, got=%s (%s)", kind, errObj.Kind, errObj.Message)
		return false
	}
	if expectedMessage != "" && errObj.Message != expectedMessage {
		t.Errorf("wrong error message. expected=%q, got=%q", expectedMessage, errObj.Message)
		return false
	}
	return true
}

func TestEvalNumberExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"7 / 2", 3.5},
		{"10 % 3", 1},
		{"2 ** 10", 1024},
		{"-5 + +'3'", -2},
		{"5 & 3", 1},
		{"5 | 3", 7},
		{"5 ^ 3", 6},
		{"1 << 4", 16},
		{"-16 >> 2", -4},
		{"-1 >>> 28", 15},
		{"~5", -6},
		{"'6' * '7'", 42},
		{"0 && 'x'", 0},
		{"null ?? 3", 3},
		{"let x = 1; x += 1; x += 1; x", 3},
		{"let y = 5; y -= 2; y *= 4; y", 12},
		{"let i = 1; const a = i++; a * 10 + i", 12},
		{"let j = 1; const b = ++j; b * 10 + j", 22},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, _ := testEval(t, tt.input)
			testNumberObject(t, got, tt.expected)
		})
	}
}

func TestEvalStringExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"a" + 1`, "a1"},
		{`1 + 2 + "3"`, "33"},
		{`"x" + [1, 2]`, "x1,2"},
		{"const who = 'world'; `hello ${who} ${1 + 1}`", "hello world 2"},
		{`typeof undeclared`, "undefined"},
		{`typeof 1`, "number"},
		{`typeof (() => 1)`, "function"},
		{`typeof {}`, "object"},
		{`typeof null`, "object"},
		{`String(null) + String(undefined)`, "nullundefined"},
		{`(1.5).toFixed(2)`, "1.50"},
		{`(255).toString(16)`, "ff"},
		{`0.1 + 0.2 + ""`, "0.30000000000000004"},
		{`1e21 + ""`, "1e+21"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, _ := testEval(t, tt.input)
			testStringObject(t, got, tt.expected)
		})
	}
}

func TestEvalBooleanExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1 < 2", true},
		{"2 <= 1", false},
		{"'b' > 'a'", true},
		{"'10' < '9'", true},
		{"10 < 9", false},
		{"null == undefined", true},
		{"null === undefined", false},
		{"'1' == 1", true},
		{"'1' === 1", false},
		{"NaN == NaN", false},
		{"[1, NaN].includes(NaN)", true},
		{"!0", true},
		{"!!'x'", true},
		{"'a' in {a: 1}", true},
		{"'b' in {a: 1}", false},
		{"new TypeError('t') instanceof Error", true},
		{"new TypeError('t') instanceof RangeError", false},
		{"isNaN('abc')", true},
		{"Array.isArray([])", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, _ := testEval(t, tt.input)
			testBooleanObject(t, got, tt.expected)
		})
	}
}

func TestClosures(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{
			name: "counter",
			input: `
function counter() {
  let n = 0;
  return () => { n += 1; return n; };
}
const c = counter();
c(); c();
c()`,
			expected: 3,
		},
		{
			name: "captured environment, not the caller's",
			input: `
const x = 1;
const get = () => x;
function shadow() { const x = 2; return get(); }
shadow()`,
			expected: 1,
		},
		{
			name:     "hoisted function declaration",
			input:    "const r = f();\nfunction f() { return 41 + 1 }\nr",
			expected: 42,
		},
		{
			name:     "default and rest parameters",
			input:    "function f(a, b = 10, ...rest) { return a + b + rest.length }\nf(1) + f(1, 2, 3, 4)",
			expected: 16,
		},
		{
			name:     "arrow expression body",
			input:    "const sq = x => x * x; sq(7)",
			expected: 49,
		},
		{
			name: "recursion",
			input: `
function fib(n) { return n < 2 ? n : fib(n - 1) + fib(n - 2) }
fib(10)`,
			expected: 55,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := testEval(t, tt.input)
			testNumberObject(t, got, tt.expected)
		})
	}
}

func TestFunctionNames(t *testing.T) {
	input := `
function make() { return () => 1 }
const shared = make();
const alias = shared;
const f = () => 2;
const o = { g: function () {}, h: shared };
[shared, alias, f, o.g, o.h].map(x => '' + x).join('|')`
	got, _ := testEval(t, input)
	want := "[Function (anonymous)]|[Function (anonymous)]|[Function: f]|[Function: g]|[Function (anonymous)]"
	testStringObject(t, got, want)
}

func TestControlFlow(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected object.Object
	}{
		{
			name: "return from inside a loop",
			input: `
function find(xs) {
  for (let i = 0; i < xs.length; i++) {
    if (xs[i] > 2) { return i }
  }
  return -1
}
find([1, 2, 3, 4])`,
			expected: &object.Number{Value: 2},
		},
		{
			name: "return from inside a while loop stops iterating",
			input: `
let steps = 0;
function f() {
  let i = 0;
  while (true) {
    i++;
    if (i == 3) { return i }
    steps++;
  }
}
f() + ':' + steps`,
			expected: &object.String{Value: "3:2"},
		},
		{
			name: "return from inside a do while loop stops iterating",
			input: `
let steps = 0;
function f() {
  let i = 0;
  do {
    i++;
    if (i == 2) { return i }
    steps++;
  } while (i < 10);
  return -1;
}
f() + ':' + steps`,
			expected: &object.String{Value: "2:1"},
		},
		{
			name:     "let is copied per iteration",
			input:    "const fns = [];\nfor (let i = 0; i < 3; i++) { fns.push(() => i) }\nfns.map(f => f()).join(',')",
			expected: &object.String{Value: "0,1,2"},
		},
		{
			name:     "for of",
			input:    "let s = 0;\nfor (const x of [1, 2, 3]) { s += x }\ns",
			expected: &object.Number{Value: 6},
		},
		{
			name:     "for of string",
			input:    "let out = '';\nfor (const ch of 'abc') { out = ch + out }\nout",
			expected: &object.String{Value: "cba"},
		},
		{
			name:     "while",
			input:    "let n = 0;\nwhile (n < 5) { n++ }\nn",
			expected: &object.Number{Value: 5},
		},
		{
			name:     "do while runs once",
			input:    "let n = 10;\ndo { n++ } while (n < 5);\nn",
			expected: &object.Number{Value: 11},
		},
		{
			name:     "if else",
			input:    "function sign(x) { if (x > 0) { return 'pos' } else if (x < 0) { return 'neg' } return 'zero' }\n[sign(1), sign(-1), sign(0)].join()",
			expected: &object.String{Value: "pos,neg,zero"},
		},
		{
			name:     "conditional evaluates one branch",
			input:    "let hits = 0;\nconst v = true ? 'a' : hits++;\nv + hits",
			expected: &object.String{Value: "a0"},
		},
		{
			name:     "implicit global",
			input:    "function set() { created = 5 }\nset();\ncreated",
			expected: &object.Number{Value: 5},
		},
		{
			name:     "var in for initializer is visible after the loop",
			input:    "for (var k = 0; k < 3; k++) {}\nk",
			expected: &object.Number{Value: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := testEval(t, tt.input)
			if diff := cmp.Diff(tt.expected.Inspect(), got.Inspect()); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
			if tt.expected.Type() != got.Type() {
				t.Errorf("wrong type. want=%s, got=%s", tt.expected.Type(), got.Type())
			}
		})
	}
}

func TestTryCatchFinally(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLogs []string
	}{
		{
			name: "catch then finally",
			input: `
try {
  throw new Error("x");
} catch (e) {
  console.log(e.message);
} finally {
  console.log("done");
}`,
			wantLogs: []string{"x", "done"},
		},
		{
			name: "runtime errors are catchable",
			input: `
try {
  null.foo;
} catch (e) {
  console.log(e.name);
}`,
			wantLogs: []string{"TypeError"},
		},
		{
			name: "thrown primitive",
			input: `
try { throw 42 } catch (e) { console.log(typeof e, e) }`,
			wantLogs: []string{"number 42"},
		},
		{
			name: "finally runs once on return",
			input: `
function f() {
  try { return 1 } finally { console.log("cleanup") }
}
console.log(f())`,
			wantLogs: []string{"cleanup", "1"},
		},
		{
			name: "destructured catch parameter",
			input: `
try { throw new RangeError("r") } catch ({ name, message }) { console.log(name + ":" + message) }`,
			wantLogs: []string{"RangeError:r"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, logs := testEval(t, tt.input)
			if errObj, ok := got.(*object.Error); ok {
				t.Fatalf("unexpected error: %v", errObj)
			}
			if diff := cmp.Diff(tt.wantLogs, logs); diff != "" {
				t.Errorf("logs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDestructuring(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "object pattern with default and rest",
			input:    "const {a, b: renamed = 5, ...rest} = {a: 1, c: 3, d: 4};\n[a, renamed, Object.keys(rest).join('+')].join('|')",
			expected: "1|5|c+d",
		},
		{
			name:     "array pattern with hole and rest",
			input:    "const [first, , third = 'def', ...others] = [1, 2, undefined, 4, 5];\n[first, third, others.length].join('|')",
			expected: "1|def|2",
		},
		{
			name:     "swap by assignment",
			input:    "let x = 'a', y = 'b';\n[x, y] = [y, x];\nx + y",
			expected: "ba",
		},
		{
			name:     "parameter pattern",
			input:    "function f({ selector, timeout = 100 }) { return selector + '@' + timeout }\nf({ selector: '#go' })",
			expected: "#go@100",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := testEval(t, tt.input)
			testStringObject(t, got, tt.expected)
		})
	}
}

func TestErrorHandling(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    object.ErrorKind
		message string
	}{
		{"undefined variable", "missing + 1", object.ReferenceError, "missing is not defined"},
		{"compound on undefined", "nope += 1", object.ReferenceError, "nope is not defined"},
		{"const reassignment", "const a = 1;\na = 2", object.TypeError, "Assignment to constant variable."},
		{"const update", "const a = 1;\na++", object.TypeError, "Assignment to constant variable."},
		{"not a function", "const o = {};\no.missing()", object.TypeError, "o.missing is not a function"},
		{"member of undefined", "const o = {};\no.a.b", object.TypeError, "Cannot read properties of undefined (reading 'b')"},
		{"not a constructor", "new Math.floor(1)", object.TypeError, "Math.floor is not a constructor"},
		{"for of over object", "for (const x of {a: 1}) {}", object.TypeError, ""},
		{"frozen params", "const p = Object.freeze({a: 1});\np.a = 2", object.TypeError, "Cannot assign to read only property 'a' of object"},
		{"nested destructuring", "const {a: {b}} = {a: {b: 1}}", object.UnsupportedConstruct, "unsupported pattern: nested destructuring"},
		{"class", "class A {}", object.UnsupportedConstruct, "unsupported construct: *ast.ClassDeclaration"},
		{"break", "for (;;) { break }", object.UnsupportedConstruct, "unsupported construct: break statement"},
		{"uncaught throw", "throw new Error('boom')", object.Thrown, "boom"},
		{"delete identifier", "let v = 1;\ndelete v", object.TypeError, "delete is only allowed on member expressions"},
		{"stringify circular", "const a = {};\na.self = a;\nJSON.stringify(a)", object.TypeError, "Converting circular structure to JSON"},
		{"array index too large", "const a = [];\na[1e9] = 1", object.RangeError, "Invalid array length"},
		{"array length too large", "const a = [1];\na.length = 1e12", object.RangeError, "Invalid array length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := testEval(t, tt.input)
			testErrorObject(t, got, tt.kind, tt.message)
		})
	}
}

func TestErrorPosition(t *testing.T) {
	got, _ := testEval(t, "const a = 1;\nconst b = 2;\nmissing()")
	errObj, ok := got.(*object.Error)
	if !ok {
		t.Fatalf("object is not Error. got=%T (%+v)", got, got)
	}
	if errObj.Pos == 0 {
		t.Errorf("expected the error to carry a position")
	}
}

func TestCallDepthLimit(t *testing.T) {
	r := testRun(t, context.Background(), Config{MaxCallDepth: 50}, "function r(n) { return r(n + 1) }\nr(0)")
	testErrorObject(t, r.result, object.RangeError, "Maximum call stack size exceeded")

	r = testRun(t, context.Background(), Config{MaxCallDepth: 50}, `
function r(n) { return r(n + 1) }
let caught = "";
try { r(0) } catch (e) { caught = e.name }
caught`)
	testStringObject(t, r.result, "RangeError")
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name  string
		input string
	}{
		{"loop", "let i = 0;\nwhile (true) { i++ }"},
		{"not catchable", "try { while (true) {} } catch (e) { 1 }"},
		{"call", "function f() { return 1 }\nf()"},
		{"sleep", "await sleep(1000)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRun(t, ctx, Config{}, tt.input)
			testErrorObject(t, r.result, object.Aborted, "")
			if errObj, ok := r.result.(*object.Error); ok && !errors.Is(errObj, context.Canceled) {
				t.Errorf("expected the error to wrap context.Canceled, got %v", errObj)
			}
		})
	}
}

func TestPromises(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"await resolved", "await Promise.resolve(2) + 1", "3"},
		{"await non promise", "await 5", "5"},
		{"then", "await Promise.resolve(2).then(x => x * 2)", "4"},
		{"catch", "await Promise.reject(new Error('no')).catch(e => e.message)", "no"},
		{"constructor", "await new Promise((resolve) => resolve('ok'))", "ok"},
		{"async function", "async function f() { return 'v' }\nawait f()", "v"},
		{"all", "(await Promise.all([Promise.resolve(1), 2, (async () => 3)()])).join()", "1,2,3"},
		{
			name:     "rejection becomes a catchable error",
			input:    "async function f() { throw new Error('bad') }\nlet m = '';\ntry { await f() } catch (e) { m = e.message }\nm",
			expected: "bad",
		},
		{"sleep", "await sleep(0); 'woke'", "woke"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRun(t, context.Background(), Config{}, tt.input)
			if diff := cmp.Diff(tt.expected, r.result.Inspect()); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
			if err := r.eval.Unhandled(); err != nil {
				t.Errorf("unexpected unhandled rejection: %v", err)
			}
		})
	}
}

func TestUnhandledRejection(t *testing.T) {
	r := testRun(t, context.Background(), Config{}, "async function f() { throw new Error('lost') }\nf();\n1")
	testNumberObject(t, r.result, 1)

	err := r.eval.Unhandled()
	if err == nil {
		t.Fatal("expected an unhandled rejection")
	}
	if diff := cmp.Diff("Error: lost", err.Error()); diff != "" {
		t.Errorf("error mismatch (-want +got):\n%s", diff)
	}
	if again := r.eval.Unhandled(); again != nil {
		t.Errorf("expected tracked promises to be forgotten, got %v", again)
	}
}

func TestOptionalChainingAndSpread(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"short circuit", "const o = {a: null};\nString(o.a?.b.c)", "undefined"},
		{"present", "const o = {a: {b: 'x'}};\no.a?.b", "x"},
		{"optional call", "const o = {};\nString(o.run?.())", "undefined"},
		{"call spread", "const xs = [1, 5, 2];\nString(Math.max(...xs, 3))", "5"},
		{"array spread", "[0, ...[1, 2], ...'ab'].join()", "0,1,2,a,b"},
		{"object spread", "const o = {...{a: 1, b: 2}, b: 3, c: 4};\nObject.entries(o).map(([k, v]) => k + v).join()", "a1,b3,c4"},
		{"shorthand and method", "const name = 'n';\nconst o = { name, greet() { return 'hi ' + name } };\no.greet()", "hi n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := testEval(t, tt.input)
			testStringObject(t, got, tt.expected)
		})
	}
}

func TestBuiltinMethods(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"'a,b'.split(',').map(s => s.toUpperCase()).join('-')", "A-B"},
		{"'abcdef'.slice(-2)", "ef"},
		{"'abcdef'.substring(4, 1)", "bcd"},
		{"'5'.padStart(3, '0')", "005"},
		{"'  x '.trim() + '|'", "x|"},
		{"'a-b-c'.replace('-', '+')", "a+b-c"},
		{"'a-b-c'.replaceAll('-', '+')", "a+b+c"},
		{"'ab'.repeat(3)", "ababab"},
		{"String('hello'.includes('ell') && 'hello'.startsWith('he') && 'hello'.endsWith('lo'))", "true"},
		{"String('hello'.indexOf('l'))", "2"},
		{"String([1, 2, 3].reduce((a, b) => a + b, 0))", "6"},
		{"[3, 1, 2].sort().join()", "1,2,3"},
		{"[3, 10, 2].sort((a, b) => a - b).join()", "2,3,10"},
		{"[1, 2, 3, 4].filter(x => x % 2 === 0).join()", "2,4"},
		{"String([1, 2, 3].find(x => x > 1))", "2"},
		{"String([1, 2, 3].findIndex(x => x > 5))", "-1"},
		{"String([1, 2].some(x => x > 1)) + String([1, 2].every(x => x > 1))", "truefalse"},
		{"[1, 2].concat([3], 4).reverse().join()", "4,3,2,1"},
		{"[1, 2, 3, 4].slice(1, -1).join()", "2,3"},
		{"const xs = [1];\nxs.push(2, 3);\nxs.shift();\nxs.pop();\nxs.join()", "2"},
		{"String([1, 2, 3].indexOf(3))", "2"},
		{"let seen = '';\n[1, 2].forEach((x, i) => { seen += x + ':' + i + ' ' });\nseen", "1:0 2:1 "},
		{"JSON.stringify({b: 1, a: [1, 'x', null], f: () => 1, u: undefined})", `{"b":1,"a":[1,"x",null]}`},
		{"JSON.stringify({a: '<b>'})", `{"a":"<b>"}`},
		{"JSON.stringify([1], null, 2)", "[\n  1\n]"},
		{"Object.keys(JSON.parse('{\"z\": 1, \"a\": 2}')).join()", "z,a"},
		{"String(JSON.parse('[1, {\"k\": true}]')[1].k)", "true"},
		{"Object.values({a: 1, b: 'x'}).join()", "1,x"},
		{"const t = Object.assign({a: 1}, {b: 2});\nObject.keys(t).join()", "a,b"},
		{"String(parseInt('42px') + parseFloat('1.5e1x'))", "57"},
		{"String(parseInt('ff', 16))", "255"},
		{"String(Math.floor(1.7) + Math.ceil(1.2) + Math.round(2.5) + Math.abs(-1) + Math.trunc(-1.5))", "6"},
		{"String(Math.min(3, 1, 2) + Math.max() + Math.pow(2, 3) + Math.sqrt(16))", "-Infinity"},
		{"String(Number('12') + Number(true))", "13"},
		{"String(Boolean('') || Boolean('x'))", "true"},
		{"new Error('m').toString()", "Error: m"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, _ := testEval(t, tt.input)
			testStringObject(t, got, tt.expected)
		})
	}
}

func TestConsoleLog(t *testing.T) {
	_, logs := testEval(t, `console.log("a", 1, [1, "two"], {k: "v"}, null, undefined, new Error("e"))`)
	want := []string{`a 1 [1,"two"] {"k":"v"} null undefined Error: e`}
	if diff := cmp.Diff(want, logs); diff != "" {
		t.Errorf("logs mismatch (-want +got):\n%s", diff)
	}
}

func TestMathRandom(t *testing.T) {
	got, _ := testEval(t, "Math.random()")
	n, ok := got.(*object.Number)
	if !ok {
		t.Fatalf("object is not Number. got=%T", got)
	}
	if n.Value < 0 || n.Value >= 1 || math.IsNaN(n.Value) {
		t.Errorf("Math.random() out of range: %v", n.Value)
	}
}
