package cir

import (
	"strings"

	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/compileerr"
)

// Build translates a colored, lifted, rewritten *ast.Module into a
// CIR Module. Only green functions are translated; a module with no
// green functions produces an empty CIR Module (nothing to compile
// into a workflow).
func Build(m *ast.Module, greenFuncs map[string]bool) (*Module, error) {
	out := &Module{base: newBase(m.Loc())}
	for _, def := range m.Defs {
		if !greenFuncs[def.Name] {
			continue
		}
		fn, err := buildFunctionDef(def)
		if err != nil {
			return nil, err
		}
		out.Defs = append(out.Defs, fn)
	}
	return out, nil
}

func buildFunctionDef(def *ast.FunctionDef) (*FunctionDef, error) {
	params := make([]string, len(def.Params))
	for i, p := range def.Params {
		params[i] = p.Name
	}
	body, err := buildSequence(def.Body)
	if err != nil {
		return nil, err
	}
	return &FunctionDef{base: newBase(def.Loc()), Name: def.Name, Params: params, Body: body}, nil
}

// buildSequence packs contiguous blue runs into RawBlock leaves and
// translates each green statement into its CIR variant, matching
// cast.py's transform_list.
func buildSequence(stmts []ast.Stmt) ([]Node, error) {
	var out []Node
	var blue []ast.Stmt

	flush := func() {
		if len(blue) == 0 {
			return
		}
		out = append(out, &RawBlock{base: rangeOf(blue), Stmts: blue})
		blue = nil
	}

	for _, s := range stmts {
		if !s.Colored().Green {
			blue = append(blue, s)
			continue
		}
		flush()
		n, err := buildStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	flush()
	return out, nil
}

// rangeOf computes the location range spanned by a run of raw
// statements, mirroring cast.py's set_loc_range.
func rangeOf(stmts []ast.Stmt) base {
	start := stmts[0].Loc()
	end := stmts[len(stmts)-1].Loc()
	return newRangeBase(start, end)
}

func buildStmt(s ast.Stmt) (Node, error) {
	switch n := s.(type) {
	case *ast.Assign:
		call, ok := n.Value.(*ast.Call)
		if !ok {
			return nil, compileerr.NewUnsupportedConstruct(n.Loc(), "green assignment must have a call right-hand side")
		}
		target, err := envKey(n.Target)
		if err != nil {
			return nil, err
		}
		c, err := buildCall(call)
		if err != nil {
			return nil, err
		}
		return &Assign{base: newBase(n.Loc()), Target: target, Value: c}, nil

	case *ast.ExprStmt:
		call, ok := n.Value.(*ast.Call)
		if !ok {
			return nil, compileerr.NewUnsupportedConstruct(n.Loc(), "green expression statement must be a bare call")
		}
		return buildCall(call)

	case *ast.If:
		testVar, err := envKey(n.Test)
		if err != nil {
			return nil, err
		}
		then, err := buildSequence(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := buildSequence(n.Else)
		if err != nil {
			return nil, err
		}
		return &If{base: newBase(n.Loc()), TestVar: testVar, Then: then, Else: els}, nil

	case *ast.While:
		lit, ok := n.Test.(*ast.Literal)
		if !ok || lit.Kind != ast.LitBool || !lit.Bool {
			return nil, compileerr.NewUnsupportedConstruct(n.Loc(), "internal error: while test was not lowered to literal true")
		}
		body, err := buildSequence(n.Body)
		if err != nil {
			return nil, err
		}
		return &WhileLoop{base: newBase(n.Loc()), Body: body}, nil

	case *ast.Break:
		return &Break{base: newBase(n.Loc())}, nil

	case *ast.Return:
		if !n.HasValue {
			return &Return{base: newBase(n.Loc())}, nil
		}
		name, err := envKey(n.Value)
		if err != nil {
			return nil, err
		}
		return &Return{base: newBase(n.Loc()), VarName: name, HasVar: true}, nil

	case *ast.Try:
		body, err := buildSequence(n.Body)
		if err != nil {
			return nil, err
		}
		handlers := make([]Handler, len(n.Handlers))
		for i, h := range n.Handlers {
			hbody, err := buildSequence(h.Body)
			if err != nil {
				return nil, err
			}
			handlers[i] = Handler{ErrorTypes: h.Types, BindName: h.As, Body: hbody}
		}
		return &Try{base: newBase(n.Loc()), Body: body, Handlers: handlers}, nil

	default:
		return nil, compileerr.NewUnsupportedConstruct(s.Loc(), "unhandled green statement type")
	}
}

// envKey extracts the string key back out of an env['x'] subscript —
// an *ast.EnvRef after pkg/rewrite — the Go analog of cast.py's
// varFromEnv.
func envKey(e ast.Expr) (string, error) {
	ref, ok := e.(*ast.EnvRef)
	if !ok {
		return "", compileerr.NewUnsupportedConstruct(e.Loc(), "expected a variable reference, internal rewrite invariant violated")
	}
	return ref.Key, nil
}

// buildCall turns a lifted green ast.Call into a CIR node: a bare
// Call for a void-context statement, wrapped by the caller into an
// Assign when it has a target.
func buildCall(call *ast.Call) (*Call, error) {
	callee, err := calleeString(call.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		name, err := envKey(a)
		if err != nil {
			return nil, err
		}
		args[i] = name
	}

	c := &Call{base: newBase(call.Loc()), Callee: callee, Args: args}
	for _, kw := range call.Keywords {
		key := strings.ToLower(kw.Name)
		switch key {
		case "timeout", "timeoutseconds":
			n, err := intLiteral(kw.Value)
			if err != nil {
				return nil, err
			}
			c.HasTimeout = true
			c.TimeoutSec = n
		case "heartbeat", "heartbeatseconds":
			n, err := intLiteral(kw.Value)
			if err != nil {
				return nil, err
			}
			c.HasHeartbeat = true
			c.HeartbeatSec = n
		case "retry":
			rules, err := retryRules(kw.Value)
			if err != nil {
				return nil, err
			}
			c.Retry = rules
		default:
			return nil, compileerr.NewUnsupportedConstruct(kw.Value.Loc(), "unknown keyword argument %q", kw.Name)
		}
	}
	return c, nil
}

// calleeString renders a Call's callee expression back to its dotted
// source form (e.g. "cohesion.Lambda.foo"), which is all the CIR and
// later WIR build need: the callee is never itself loaded as a
// variable.
func calleeString(e ast.Expr) (string, error) {
	switch n := e.(type) {
	case *ast.Name:
		return n.Id, nil
	case *ast.Attribute:
		base, err := calleeString(n.Value)
		if err != nil {
			return "", err
		}
		return base + "." + n.Attr, nil
	default:
		return "", compileerr.NewUnsupportedConstruct(e.Loc(), "call target must be a dotted name")
	}
}

func intLiteral(e ast.Expr) (int, error) {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Kind != ast.LitInt {
		return 0, compileerr.NewUnsupportedConstruct(e.Loc(), "expected an integer literal")
	}
	return int(lit.Int), nil
}

func floatLiteral(e ast.Expr) (float64, error) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return 0, compileerr.NewUnsupportedConstruct(e.Loc(), "expected a numeric literal")
	}
	switch lit.Kind {
	case ast.LitInt:
		return float64(lit.Int), nil
	case ast.LitFloat:
		return lit.Flt, nil
	default:
		return 0, compileerr.NewUnsupportedConstruct(e.Loc(), "expected a numeric literal")
	}
}

func stringLiteral(e ast.Expr) (string, error) {
	lit, ok := e.(*ast.Literal)
	if !ok || lit.Kind != ast.LitString {
		return "", compileerr.NewUnsupportedConstruct(e.Loc(), "expected a string literal")
	}
	return lit.Str, nil
}

// retryRules parses a retry=[{...}, ...] keyword argument into
// structured rules, the Go analog of cast.py's getRetrier.
func retryRules(e ast.Expr) ([]RetryRule, error) {
	list, ok := e.(*ast.List)
	if !ok {
		return nil, compileerr.NewUnsupportedConstruct(e.Loc(), "retry must be a list of retry rules")
	}

	rules := make([]RetryRule, len(list.Elements))
	for i, el := range list.Elements {
		dict, ok := el.(*ast.Dict)
		if !ok {
			return nil, compileerr.NewUnsupportedConstruct(el.Loc(), "retry element must be a dict literal")
		}
		var rule RetryRule
		for _, entry := range dict.Entries {
			switch entry.Key {
			case "Error":
				s, err := stringLiteral(entry.Value)
				if err != nil {
					return nil, err
				}
				rule.ErrorEquals = append(rule.ErrorEquals, s)
			case "IntervalSeconds":
				n, err := intLiteral(entry.Value)
				if err != nil {
					return nil, err
				}
				rule.IntervalSec = n
			case "MaxAttempts":
				n, err := intLiteral(entry.Value)
				if err != nil {
					return nil, err
				}
				rule.MaxAttempts = n
			case "BackoffRate":
				n, err := floatLiteral(entry.Value)
				if err != nil {
					return nil, err
				}
				rule.BackoffRate = n
			default:
				return nil, compileerr.NewUnsupportedConstruct(entry.Value.Loc(), "unknown retry parameter %q", entry.Key)
			}
		}
		rules[i] = rule
	}
	return rules, nil
}
