// Package evaluator walks goja ASTs and evaluates them against an object.Environment.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/dop251/goja/ast"
	"github.com/podhmo/pagescript/object"
)

const defaultMaxCallDepth = 512

// Config holds the configuration for creating a new Evaluator.
type Config struct {
	Logger *slog.Logger
	// Log receives the output of console.log.
	Log func(string)
	// MaxCallDepth bounds guest recursion. Zero means the default.
	MaxCallDepth int
}

// Evaluator is the core of the interpreter. One Evaluator serves one script execution;
// it is not safe for concurrent use.
type Evaluator struct {
	logger       *slog.Logger
	log          func(string)
	maxCallDepth int

	depth    int
	rejected []*object.Promise
}

// New creates a new Evaluator.
func New(cfg Config) *Evaluator {
	e := &Evaluator{
		logger:       cfg.Logger,
		log:          cfg.Log,
		maxCallDepth: cfg.MaxCallDepth,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.log == nil {
		e.log = func(string) {}
	}
	if e.maxCallDepth <= 0 {
		e.maxCallDepth = defaultMaxCallDepth
	}
	return e
}

// chainBreak is produced by an optional link (`?.`) whose base is null or undefined.
// It short-circuits the rest of the chain and becomes undefined at the chain's end.
type chainBreak struct{}

func (c *chainBreak) Type() object.ObjectType { return object.UNDEFINED_OBJ }
func (c *chainBreak) Inspect() string         { return "undefined" }

var brokenChain = &chainBreak{}

// Eval evaluates a node. Statements yield their completion value, an *object.ReturnValue
// when a `return` is on its way to the enclosing call, or an *object.Error.
func (e *Evaluator) Eval(ctx context.Context, node ast.Node, env *object.Environment) object.Object {
	switch n := node.(type) {
	// Statements
	case *ast.Program:
		return e.EvalStatements(ctx, n.Body, env)
	case *ast.BlockStatement:
		return e.evalBlock(ctx, n, object.NewEnclosedEnvironment(env))
	case *ast.ExpressionStatement:
		return e.Eval(ctx, n.Expression, env)
	case *ast.EmptyStatement:
		return object.UNDEFINED
	case *ast.VariableStatement:
		return e.evalBindings(ctx, n.List, env, bindVar)
	case *ast.LexicalDeclaration:
		return e.evalLexicalDeclaration(ctx, n.Token, n.List, env)
	case *ast.FunctionDeclaration:
		e.declareFunction(n.Function, env)
		return object.UNDEFINED
	case *ast.IfStatement:
		return e.evalIfStatement(ctx, n, env)
	case *ast.ForStatement:
		return e.evalForStatement(ctx, n, env)
	case *ast.ForOfStatement:
		return e.evalForOfStatement(ctx, n, env)
	case *ast.WhileStatement:
		return e.evalWhileStatement(ctx, n, env)
	case *ast.DoWhileStatement:
		return e.evalDoWhileStatement(ctx, n, env)
	case *ast.ReturnStatement:
		return e.evalReturnStatement(ctx, n, env)
	case *ast.ThrowStatement:
		val := e.Eval(ctx, n.Argument, env)
		if isError(val) {
			return val
		}
		err := object.ThrowValue(val)
		err.Pos = int(n.Idx0())
		return err
	case *ast.TryStatement:
		return e.evalTryStatement(ctx, n, env)
	case *ast.BranchStatement:
		return e.newError(n, object.UnsupportedConstruct, "unsupported construct: %s statement", n.Token.String())

	// Expressions
	case *ast.Identifier:
		return e.evalIdentifier(n, env)
	case *ast.NumberLiteral:
		return e.evalNumberLiteral(n)
	case *ast.StringLiteral:
		return &object.String{Value: n.Value.String()}
	case *ast.BooleanLiteral:
		return object.NativeBool(n.Value)
	case *ast.NullLiteral:
		return object.NULL
	case *ast.TemplateLiteral:
		return e.evalTemplateLiteral(ctx, n, env)
	case *ast.ArrayLiteral:
		return e.evalArrayLiteral(ctx, n, env)
	case *ast.ObjectLiteral:
		return e.evalObjectLiteral(ctx, n, env)
	case *ast.FunctionLiteral:
		return e.newFunction(n, env)
	case *ast.ArrowFunctionLiteral:
		return &object.Function{
			Parameters: n.ParameterList.List,
			Rest:       n.ParameterList.Rest,
			Body:       n.Body,
			Env:        env,
			Async:      n.Async,
			Arrow:      true,
		}
	case *ast.UnaryExpression:
		return e.evalUnaryExpression(ctx, n, env)
	case *ast.BinaryExpression:
		return e.evalBinaryExpression(ctx, n, env)
	case *ast.AssignExpression:
		return e.evalAssignExpression(ctx, n, env)
	case *ast.ConditionalExpression:
		test := e.Eval(ctx, n.Test, env)
		if isError(test) {
			return test
		}
		if isTruthy(test) {
			return e.Eval(ctx, n.Consequent, env)
		}
		return e.Eval(ctx, n.Alternate, env)
	case *ast.SequenceExpression:
		var result object.Object = object.UNDEFINED
		for _, expr := range n.Sequence {
			result = e.Eval(ctx, expr, env)
			if isError(result) {
				return result
			}
		}
		return result
	case *ast.CallExpression:
		return e.evalCallExpression(ctx, n, env)
	case *ast.NewExpression:
		return e.evalNewExpression(ctx, n, env)
	case *ast.DotExpression:
		left := e.Eval(ctx, n.Left, env)
		if isError(left) || left == brokenChain {
			return left
		}
		return e.getMember(n, left, n.Identifier.Name.String())
	case *ast.BracketExpression:
		left := e.Eval(ctx, n.Left, env)
		if isError(left) || left == brokenChain {
			return left
		}
		key := e.Eval(ctx, n.Member, env)
		if isError(key) {
			return key
		}
		return e.getMember(n, left, propertyKey(key))
	case *ast.OptionalChain:
		val := e.Eval(ctx, n.Expression, env)
		if val == brokenChain {
			return object.UNDEFINED
		}
		return val
	case *ast.Optional:
		val := e.Eval(ctx, n.Expression, env)
		if isError(val) {
			return val
		}
		if object.IsNullish(val) {
			return brokenChain
		}
		return val
	case *ast.AwaitExpression:
		return e.evalAwaitExpression(ctx, n, env)
	}
	return e.newError(node, object.UnsupportedConstruct, "unsupported construct: %T", node)
}

// EvalStatements evaluates statements in env without opening a new scope.
// Function declarations are bound before the first statement runs. The result is the
// value of the last statement, or the first ReturnValue or Error encountered.
func (e *Evaluator) EvalStatements(ctx context.Context, stmts []ast.Statement, env *object.Environment) object.Object {
	for _, stmt := range stmts {
		if decl, ok := stmt.(*ast.FunctionDeclaration); ok {
			e.declareFunction(decl.Function, env)
		}
	}

	var result object.Object = object.UNDEFINED
	for _, stmt := range stmts {
		if _, ok := stmt.(*ast.FunctionDeclaration); ok {
			continue
		}
		result = e.Eval(ctx, stmt, env)
		switch result.(type) {
		case *object.ReturnValue, *object.Error:
			return result
		}
	}
	return result
}

// Unhandled returns the first rejected promise that guest code never observed and
// forgets all tracked promises. It returns nil if every rejection was handled.
func (e *Evaluator) Unhandled() *object.Error {
	rejected := e.rejected
	e.rejected = nil
	for _, p := range rejected {
		if !p.Handled {
			err := p.Err()
			e.logger.Debug("unhandled rejection", "kind", err.Kind, "error", err.Message)
			return err
		}
	}
	return nil
}

func (e *Evaluator) track(p *object.Promise) {
	if p.Err() != nil && !p.Handled {
		e.rejected = append(e.rejected, p)
	}
}

func (e *Evaluator) newError(node ast.Node, kind object.ErrorKind, format string, args ...any) *object.Error {
	err := object.NewError(kind, format, args...)
	if node != nil {
		err.Pos = int(node.Idx0())
	}
	return err
}

// withPos returns err positioned at node unless it already carries a position.
func withPos(err *object.Error, node ast.Node) *object.Error {
	if err.Pos != 0 || node == nil {
		return err
	}
	cp := *err
	cp.Pos = int(node.Idx0())
	return &cp
}

func (e *Evaluator) checkContext(ctx context.Context, node ast.Node) *object.Error {
	if err := ctx.Err(); err != nil {
		aborted := e.newError(node, object.Aborted, "execution aborted: %v", err)
		aborted.Cause = err
		return aborted
	}
	return nil
}

func isError(obj object.Object) bool {
	_, ok := obj.(*object.Error)
	return ok
}

// isAbrupt reports whether obj ends the evaluation of the enclosing statement list.
func isAbrupt(obj object.Object) bool {
	switch obj.(type) {
	case *object.ReturnValue, *object.Error:
		return true
	}
	return false
}

func isTruthy(obj object.Object) bool {
	switch o := obj.(type) {
	case *object.Boolean:
		return o.Value
	case *object.Undefined, *object.Null:
		return false
	case *object.Number:
		return o.Value != 0 && !math.IsNaN(o.Value)
	case *object.String:
		return o.Value != ""
	}
	return true
}

// describe renders a short source-like name for a callee, used in error messages.
func describe(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Identifier:
		return n.Name.String()
	case *ast.DotExpression:
		return describe(n.Left) + "." + n.Identifier.Name.String()
	case *ast.BracketExpression:
		return describe(n.Left) + "[...]"
	case *ast.CallExpression:
		return describe(n.Callee) + "(...)"
	case *ast.OptionalChain:
		return describe(n.Expression)
	case *ast.Optional:
		return describe(n.Expression)
	}
	return fmt.Sprintf("%T", node)
}
