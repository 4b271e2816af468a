// Package sourcelang implements the lexer and recursive-descent
// parser for cohesion source files, producing a pkg/ast tree.
//
// The grammar is deliberately small and brace-delimited so that a
// hand-written parser can stay simple: statements are separated by
// nothing (braces and keywords are enough to find boundaries), and
// there is no operator-precedence ambiguity between "and"/"or" and
// boolean tests, because the language has neither — every test
// expression is a single comparison, call, name, or literal, possibly
// negated with "not". This mirrors the restricted subset spec.md
// assumes a pre-existing parser already enforces upstream of
// coloring: no boolean connectives survive into the AST for the
// lifter and colorer to reason about.
package sourcelang

import (
	"github.com/cohesion-lang/cohesionc/pkg/ast"
	"github.com/cohesion-lang/cohesionc/pkg/compileerr"
)

// Parser is a recursive-descent parser over a token stream.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse lexes and parses a full source file into a Module.
func Parse(source string) (*ast.Module, error) {
	lexer := NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, err
	}

	p := &Parser{tokens: tokens}
	mod, err := p.parseModule()
	if err != nil {
		return nil, err
	}
	if p.current().Type != TokenEOF {
		return nil, compileerr.NewParseFailure(p.loc(), "unexpected trailing token %s", p.current().Type)
	}
	return mod, nil
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) loc() ast.SourceLocation {
	tok := p.current()
	return ast.SourceLocation{Line: tok.Line, Col: tok.Col}
}

func (p *Parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, compileerr.NewParseFailure(p.loc(), "expected %s, got %s", tt, tok.Type)
	}
	p.advance()
	return tok, nil
}

// parseModule parses a sequence of top-level `def` blocks.
func (p *Parser) parseModule() (*ast.Module, error) {
	loc := p.loc()
	mod := ast.NewModule(loc.Line, loc.Col)
	for p.current().Type != TokenEOF {
		def, err := p.parseFunctionDef()
		if err != nil {
			return nil, err
		}
		mod.Defs = append(mod.Defs, def)
	}
	return mod, nil
}

func (p *Parser) parseFunctionDef() (*ast.FunctionDef, error) {
	loc := p.loc()
	if _, err := p.expect(TokenDef); err != nil {
		return nil, err
	}
	name, err := p.expect(TokenIdent)
	if err != nil {
		return nil, compileerr.NewParseFailure(p.loc(), "expected function name: %v", err)
	}
	def := ast.NewFunctionDef(loc.Line, loc.Col, name.Value)

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	for p.current().Type != TokenRParen {
		if len(def.Params) > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
		pname, err := p.expect(TokenIdent)
		if err != nil {
			return nil, compileerr.NewParseFailure(p.loc(), "expected parameter name: %v", err)
		}
		def.Params = append(def.Params, ast.Param{Name: pname.Value})
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	def.Body = body
	return def, nil
}

// parseBlock parses `{ stmt* }`.
func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for p.current().Type != TokenRBrace {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.current().Type {
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenTry:
		return p.parseTry()
	case TokenReturn:
		return p.parseReturn()
	case TokenBreak:
		loc := p.loc()
		p.advance()
		return ast.NewBreak(loc.Line, loc.Col), nil
	case TokenFor:
		return nil, compileerr.NewUnsupportedConstruct(p.loc(), "for loops are not supported")
	default:
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	loc := p.loc()
	p.advance() // if
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	node := ast.NewIf(loc.Line, loc.Col, test)
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node.Then = then

	if p.current().Type == TokenElse {
		p.advance()
		if p.current().Type == TokenIf {
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			node.Else = []ast.Stmt{elseIf}
		} else {
			els, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			node.Else = els
		}
	}
	return node, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	loc := p.loc()
	p.advance() // while
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	test, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	node := ast.NewWhile(loc.Line, loc.Col, test)
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node.Body = body
	return node, nil
}

func (p *Parser) parseTry() (ast.Stmt, error) {
	loc := p.loc()
	p.advance() // try
	node := ast.NewTry(loc.Line, loc.Col)
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node.Body = body

	for p.current().Type == TokenExcept {
		p.advance()
		var handler ast.Handler
		if p.current().Type == TokenLParen {
			p.advance()
			for p.current().Type != TokenRParen {
				if len(handler.Types) > 0 {
					if _, err := p.expect(TokenComma); err != nil {
						return nil, err
					}
				}
				tname, err := p.expect(TokenIdent)
				if err != nil {
					return nil, compileerr.NewParseFailure(p.loc(), "expected exception type name: %v", err)
				}
				handler.Types = append(handler.Types, tname.Value)
			}
			if _, err := p.expect(TokenRParen); err != nil {
				return nil, err
			}
		} else if p.current().Type == TokenIdent {
			tname := p.advance()
			handler.Types = append(handler.Types, tname.Value)
		}
		if p.current().Type == TokenAs {
			p.advance()
			asName, err := p.expect(TokenIdent)
			if err != nil {
				return nil, compileerr.NewParseFailure(p.loc(), "expected bound name after 'as': %v", err)
			}
			handler.As = asName.Value
		}
		hbody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		handler.Body = hbody
		node.Handlers = append(node.Handlers, handler)
	}

	if len(node.Handlers) == 0 {
		return nil, compileerr.NewMalformedExceptionFlow(loc, "try block has no except clause")
	}
	if p.current().Type == TokenFinally || p.current().Type == TokenElse {
		return nil, compileerr.NewMalformedExceptionFlow(p.loc(), "finally and else on try blocks are not supported")
	}
	return node, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	loc := p.loc()
	p.advance() // return
	if p.current().Type == TokenRBrace {
		return ast.NewReturn(loc.Line, loc.Col, nil), nil
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.NewReturn(loc.Line, loc.Col, val), nil
}

// parseSimpleStatement parses an assignment or a bare expression
// statement, both of which start the same way: an expression.
func (p *Parser) parseSimpleStatement() (ast.Stmt, error) {
	loc := p.loc()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.current().Type == TokenAssign {
		name, ok := expr.(*ast.Name)
		if !ok {
			if _, isTuple := expr.(*ast.Tuple); isTuple {
				return nil, compileerr.NewUnsupportedConstruct(loc, "multiple-target assignment is not supported")
			}
			return nil, compileerr.NewUnsupportedConstruct(loc, "assignment target must be a plain name")
		}
		p.advance() // =
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return ast.NewAssign(loc.Line, loc.Col, name, value), nil
	}

	return ast.NewExprStmt(loc.Line, loc.Col, expr), nil
}

// ---- Expressions. Precedence, low to high:
//   comparison (==, !=, <, >, <=, >=)
//   +, -
//   *, /, %
//   unary -, unary not
//   postfix: attribute access, call
//   primary

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseTuple()
}

// parseTuple accepts a comma-separated expression list so that
// multiple-target assignment (`x, y = ...`) parses into a Tuple and
// can be rejected with a clear diagnostic instead of a syntax error.
func (p *Parser) parseTuple() (ast.Expr, error) {
	loc := p.loc()
	first, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.current().Type != TokenComma {
		return first, nil
	}
	elements := []ast.Expr{first}
	for p.current().Type == TokenComma {
		p.advance()
		next, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		elements = append(elements, next)
	}
	return ast.NewTuple(loc.Line, loc.Col, elements), nil
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}
	switch p.current().Type {
	case TokenEq, TokenNeq, TokenLt, TokenGt, TokenLte, TokenGte:
		loc := p.loc()
		op := p.advance()
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(loc.Line, loc.Col, op.Value, left, right), nil
	}
	return left, nil
}

func (p *Parser) parseAddition() (ast.Expr, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenPlus || p.current().Type == TokenMinus {
		loc := p.loc()
		op := p.advance()
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(loc.Line, loc.Col, op.Value, left, right)
	}
	return left, nil
}

func (p *Parser) parseMultiplication() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenStar || p.current().Type == TokenSlash || p.current().Type == TokenPercent {
		loc := p.loc()
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(loc.Line, loc.Col, op.Value, left, right)
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.current().Type == TokenMinus {
		loc := p.loc()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(loc.Line, loc.Col, "-", operand), nil
	}
	if p.current().Type == TokenNot {
		loc := p.loc()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryOp(loc.Line, loc.Col, "not", operand), nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.current().Type {
		case TokenDot:
			loc := p.loc()
			p.advance()
			name, err := p.expect(TokenIdent)
			if err != nil {
				return nil, compileerr.NewParseFailure(p.loc(), "expected attribute name after '.': %v", err)
			}
			node = ast.NewAttribute(loc.Line, loc.Col, node, name.Value)
		case TokenLParen:
			call, err := p.parseCallArgs(node)
			if err != nil {
				return nil, err
			}
			node = call
		default:
			return node, nil
		}
	}
}

func (p *Parser) parseCallArgs(callee ast.Expr) (ast.Expr, error) {
	loc := p.loc()
	call := ast.NewCall(loc.Line, loc.Col, callee)
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	seenKeyword := false
	for p.current().Type != TokenRParen {
		if len(call.Args)+len(call.Keywords) > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
		if p.current().Type == TokenIdent && p.peek().Type == TokenAssign {
			name := p.advance()
			p.advance() // =
			value, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			call.Keywords = append(call.Keywords, ast.Keyword{Name: name.Value, Value: value})
			seenKeyword = true
			continue
		}
		if seenKeyword {
			return nil, compileerr.NewParseFailure(p.loc(), "positional argument follows keyword argument")
		}
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.current()
	loc := p.loc()
	switch tok.Type {
	case TokenInt:
		p.advance()
		return ast.NewIntLiteral(loc.Line, loc.Col, tok.IntVal), nil
	case TokenFloat:
		p.advance()
		return ast.NewFloatLiteral(loc.Line, loc.Col, tok.FloatVal), nil
	case TokenString:
		p.advance()
		return ast.NewStringLiteral(loc.Line, loc.Col, tok.StrVal), nil
	case TokenTrue:
		p.advance()
		return ast.NewBoolLiteral(loc.Line, loc.Col, true), nil
	case TokenFalse:
		p.advance()
		return ast.NewBoolLiteral(loc.Line, loc.Col, false), nil
	case TokenIdent:
		p.advance()
		return ast.NewName(loc.Line, loc.Col, tok.Value), nil
	case TokenLParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil
	case TokenLBracket:
		return p.parseListLiteral()
	case TokenLBrace:
		return p.parseDictLiteral()
	default:
		return nil, compileerr.NewParseFailure(loc, "unexpected token %s", tok.Type)
	}
}

func (p *Parser) parseListLiteral() (ast.Expr, error) {
	loc := p.loc()
	p.advance() // [
	node := ast.NewList(loc.Line, loc.Col)
	for p.current().Type != TokenRBracket {
		if len(node.Elements) > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
		elem, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		node.Elements = append(node.Elements, elem)
	}
	if _, err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseDictLiteral() (ast.Expr, error) {
	loc := p.loc()
	p.advance() // {
	node := ast.NewDict(loc.Line, loc.Col)
	for p.current().Type != TokenRBrace {
		if len(node.Entries) > 0 {
			if _, err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
		key, err := p.expect(TokenString)
		if err != nil {
			return nil, compileerr.NewParseFailure(p.loc(), "expected string key in dict literal: %v", err)
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		node.Entries = append(node.Entries, ast.DictEntry{Key: key.StrVal, Value: value})
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return node, nil
}
