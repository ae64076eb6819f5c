package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// The source is parsed as the body of an async function so that top-level `await`
// is accepted. The prefix shares the first line with the source, so line numbers
// reported by the parser match the input.
const (
	wrapPrefix = "(async function () {"
	wrapSuffix = "\n})()"
)

// Program is a parsed source.
type Program struct {
	Name   string
	Source string
	// Body holds the top-level statements of the source.
	Body []ast.Statement

	wrapped string
}

// ParseError is returned when the source is not well formed.
type ParseError struct {
	Name    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d:%d: %s", e.Name, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Name, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses src. name is used in error messages only.
func Parse(name, src string) (*Program, error) {
	wrapped := wrapPrefix + src + wrapSuffix
	file, err := parser.ParseFile(nil, name, wrapped, 0)
	if err != nil {
		return nil, newParseError(name, err)
	}

	body, ok := unwrapBody(file)
	if !ok {
		// the source closed the wrapper function early, e.g. with a stray `})`
		return nil, &ParseError{Name: name, Message: "unbalanced braces at top level"}
	}
	return &Program{Name: name, Source: src, Body: body, wrapped: wrapped}, nil
}

func unwrapBody(file *ast.Program) ([]ast.Statement, bool) {
	if len(file.Body) != 1 {
		return nil, false
	}
	stmt, ok := file.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, false
	}
	call, ok := stmt.Expression.(*ast.CallExpression)
	if !ok || len(call.ArgumentList) != 0 {
		return nil, false
	}
	fn, ok := call.Callee.(*ast.FunctionLiteral)
	if !ok || !fn.Async || fn.Body == nil {
		return nil, false
	}
	return fn.Body.List, true
}

func newParseError(name string, err error) *ParseError {
	perr := &ParseError{Name: name, Message: err.Error(), Err: err}
	var list parser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		perr.Message = first.Message
		perr.Line = first.Position.Line
		perr.Column = first.Position.Column
		if perr.Line == 1 {
			perr.Column -= len(wrapPrefix)
		}
	}
	return perr
}

// Line returns the 1-based source line of a parser position, 0 if pos is unknown.
func (p *Program) Line(pos int) int {
	offset := pos - 1 // the parser numbers positions from 1 when no file set is given
	if offset < 0 || offset > len(p.wrapped) {
		return 0
	}
	return strings.Count(p.wrapped[:offset], "\n") + 1
}
