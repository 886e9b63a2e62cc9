// Package parser turns a lexed token stream into an untyped AST rooted at a
// module declaration list (spec.md §2 step 2). It is a thin collaborator:
// grammar is dictated entirely by the shapes in internal/ast: no validation
// beyond "the tokens fit a shape" happens here, all of that is the
// checker's job.
package parser

import (
	"github.com/GullianLanguage/Gullian/internal/ast"
	"github.com/GullianLanguage/Gullian/internal/diagnostic"
	"github.com/GullianLanguage/Gullian/internal/lexer"
	"github.com/GullianLanguage/Gullian/internal/source"
	"github.com/GullianLanguage/Gullian/internal/token"
)

// Parser walks a lexed item stream, one declaration/statement/expression at
// a time, with one item of lookahead via source.Source.Release.
type Parser struct {
	src        *source.Source[lexer.Item]
	moduleName string
}

// New wraps an already-lexed item slice in a Parser.
func New(items []lexer.Item, moduleName string) *Parser {
	return &Parser{src: source.New(items), moduleName: moduleName}
}

// Parse lexes and parses source text in one step.
func Parse(text string, moduleName string) (*ast.File, error) {
	items, err := lexer.Lex(text, moduleName)
	if err != nil {
		return nil, diagnostic.Syntaxf(moduleName, 0, "%s", err.Error())
	}
	return New(items, moduleName).ParseFile()
}

func (p *Parser) fail(line int, format string, args ...any) error {
	return diagnostic.Syntaxf(p.moduleName, line, format, args...)
}

// capture returns the next item, or ok=false at end of stream.
func (p *Parser) capture() (lexer.Item, bool) { return p.src.Capture() }

func (p *Parser) release() { p.src.Release() }

// captureToken returns the next item if it is a punctuation token.
func (p *Parser) captureToken() (token.Token, bool) {
	item, ok := p.capture()
	if !ok {
		return token.Token{}, false
	}
	t, ok := item.(token.Token)
	if !ok {
		p.release()
		return token.Token{}, false
	}
	return t, true
}

// expectToken requires the next item to be the punctuation Kind given.
func (p *Parser) expectToken(kind token.Kind) (token.Token, error) {
	t, ok := p.captureToken()
	if !ok || t.Kind != kind {
		line := 0
		if ok {
			line = t.Line()
			p.release()
		}
		return token.Token{}, p.fail(line, "expected %q", string(kind))
	}
	return t, nil
}

// peekToken reports whether the next item is the punctuation Kind given,
// without consuming it.
func (p *Parser) peekToken(kind token.Kind) bool {
	t, ok := p.captureToken()
	if ok {
		p.release()
	}
	return ok && t.Kind == kind
}

// captureKeyword returns the next item if it is the KeywordKind given.
func (p *Parser) captureKeyword(kind token.KeywordKind) (token.Keyword, bool) {
	item, ok := p.capture()
	if !ok {
		return token.Keyword{}, false
	}
	k, ok := item.(token.Keyword)
	if !ok || k.Kind != kind {
		p.release()
		return token.Keyword{}, false
	}
	return k, true
}

func (p *Parser) peekKeyword(kind token.KeywordKind) bool {
	item, ok := p.capture()
	if !ok {
		return false
	}
	p.release()
	k, ok := item.(token.Keyword)
	return ok && k.Kind == kind
}

func (p *Parser) expectKeyword(kind token.KeywordKind) (token.Keyword, error) {
	k, ok := p.captureKeyword(kind)
	if !ok {
		return token.Keyword{}, p.fail(0, "expected keyword %q", string(kind))
	}
	return k, nil
}

func (p *Parser) captureName() (token.Name, bool) {
	item, ok := p.capture()
	if !ok {
		return token.Name{}, false
	}
	n, ok := item.(token.Name)
	if !ok {
		p.release()
		return token.Name{}, false
	}
	return n, true
}

func (p *Parser) expectName() (token.Name, error) {
	n, ok := p.captureName()
	if !ok {
		return token.Name{}, p.fail(0, "expected identifier")
	}
	return n, nil
}

// ParseFile parses an entire source file into an ast.File. Leading '#'
// comments are collected separately (used for #include salvage by the
// checker); every other item is part of a top-level declaration.
func (p *Parser) ParseFile() (*ast.File, error) {
	file := &ast.File{ModuleName: p.moduleName}

	for {
		item, ok := p.capture()
		if !ok {
			break
		}

		if c, isComment := item.(token.Comment); isComment {
			file.Comments = append(file.Comments, c)
			continue
		}
		p.release()

		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		file.Declarations = append(file.Declarations, decl)
	}

	return file, nil
}

func (p *Parser) parseDeclaration() (ast.Node, error) {
	switch {
	case p.peekKeyword(token.Import):
		return p.parseImport()
	case p.peekKeyword(token.Struct):
		return p.parseStructOrUnion(false)
	case p.peekKeyword(token.Union):
		return p.parseStructOrUnion(true)
	case p.peekKeyword(token.Enum):
		return p.parseEnum()
	case p.peekKeyword(token.Extern):
		return p.parseExtern()
	case p.peekKeyword(token.Fun):
		return p.parseFunction()
	case p.peekKeyword(token.Let):
		return p.parseLet()
	default:
		return nil, p.fail(0, "expected a top-level declaration")
	}
}

// parseQualifiedPath parses a dotted Name chain used by `import a.b.c`.
func (p *Parser) parseQualifiedPath() (ast.Node, error) {
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	var node ast.Node = name

	for p.peekToken(token.Dot) {
		p.expectToken(token.Dot)
		right, err := p.expectName()
		if err != nil {
			return nil, err
		}
		node = &ast.Attribute{Left: node, Right: right, Ln: name.Line()}
	}

	return node, nil
}

func (p *Parser) parseImport() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.Import)
	path, err := p.parseQualifiedPath()
	if err != nil {
		return nil, err
	}
	return &ast.Import{Path: path, Ln: kw.Line()}, nil
}

// parseGenericParams parses an optional `[T, U]` parameter list.
func (p *Parser) parseGenericParams() ([]token.Name, error) {
	if !p.peekToken(token.LeftBracket) {
		return nil, nil
	}
	p.expectToken(token.LeftBracket)

	var params []token.Name
	for {
		if p.peekToken(token.RightBracket) {
			break
		}
		n, err := p.expectName()
		if err != nil {
			return nil, err
		}
		params = append(params, n)
		if p.peekToken(token.Comma) {
			p.expectToken(token.Comma)
			continue
		}
		break
	}

	if _, err := p.expectToken(token.RightBracket); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseParamList() ([]ast.Param, error) {
	if _, err := p.expectToken(token.LeftParen); err != nil {
		return nil, err
	}

	var params []ast.Param
	for {
		if p.peekToken(token.RightParen) {
			break
		}
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectToken(token.Colon); err != nil {
			return nil, err
		}
		typeHint, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: name, TypeHint: typeHint})

		if p.peekToken(token.Comma) {
			p.expectToken(token.Comma)
			continue
		}
		break
	}

	if _, err := p.expectToken(token.RightParen); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseStructOrUnion(isUnion bool) (ast.Node, error) {
	var kwLine int
	if isUnion {
		kw, _ := p.expectKeyword(token.Union)
		kwLine = kw.Line()
	} else {
		kw, _ := p.expectKeyword(token.Struct)
		kwLine = kw.Line()
	}

	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	generic, err := p.parseGenericParams()
	if err != nil {
		return nil, err
	}

	if _, err := p.expectToken(token.LeftBrace); err != nil {
		return nil, err
	}

	var fields []ast.Param
	for {
		if p.peekToken(token.RightBrace) {
			break
		}
		fname, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectToken(token.Colon); err != nil {
			return nil, err
		}
		ftype, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.Param{Name: fname, TypeHint: ftype})

		if p.peekToken(token.Comma) {
			p.expectToken(token.Comma)
			continue
		}
		break
	}

	if _, err := p.expectToken(token.RightBrace); err != nil {
		return nil, err
	}

	if isUnion {
		return &ast.UnionDeclaration{Name: name, Fields: fields, Generic: generic, Ln: kwLine}, nil
	}
	return &ast.StructDeclaration{Name: name, Fields: fields, Generic: generic, Ln: kwLine}, nil
}

func (p *Parser) parseEnum() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.Enum)
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}

	if _, err := p.expectToken(token.LeftBrace); err != nil {
		return nil, err
	}

	var variants []token.Name
	for {
		if p.peekToken(token.RightBrace) {
			break
		}
		v, err := p.expectName()
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
		if p.peekToken(token.Comma) {
			p.expectToken(token.Comma)
			continue
		}
		break
	}

	if _, err := p.expectToken(token.RightBrace); err != nil {
		return nil, err
	}

	return &ast.EnumDeclaration{Name: name, Variants: variants, Ln: kw.Line()}, nil
}

// parseFunctionHead parses `name[generic...](args...): retType` shared by
// `fun` and `extern` declarations. An associated name (`T.m`) is folded
// into a single dotted Name here; the checker splits owner from method.
func (p *Parser) parseFunctionHead() (*ast.FunctionHead, error) {
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}

	for p.peekToken(token.Dot) {
		p.expectToken(token.Dot)
		right, err := p.expectName()
		if err != nil {
			return nil, err
		}
		name = token.Name{Value: name.Value + "." + right.Value, Ln: name.Ln}
	}

	generic, err := p.parseGenericParams()
	if err != nil {
		return nil, err
	}

	args, err := p.parseParamList()
	if err != nil {
		return nil, err
	}

	var returnHint ast.Node
	if p.peekToken(token.Colon) {
		p.expectToken(token.Colon)
		returnHint, err = p.parseTypeRef()
		if err != nil {
			return nil, err
		}
	}

	return &ast.FunctionHead{Name: name, Args: args, ReturnHint: returnHint, Generic: generic, Ln: name.Line()}, nil
}

func (p *Parser) parseExtern() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.Extern)
	head, err := p.parseFunctionHead()
	if err != nil {
		return nil, err
	}
	return &ast.Extern{Head: head, Ln: kw.Line()}, nil
}

func (p *Parser) parseFunction() (ast.Node, error) {
	p.expectKeyword(token.Fun)
	head, err := p.parseFunctionHead()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDeclaration{Head: head, Body: body}, nil
}

func (p *Parser) parseLet() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.Let)
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}

	var typeHint ast.Node
	if p.peekToken(token.Colon) {
		p.expectToken(token.Colon)
		typeHint, err = p.parseTypeRef()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expectToken(token.Equal); err != nil {
		return nil, err
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &ast.VariableDeclaration{Name: name, TypeHint: typeHint, Value: value, Ln: kw.Line()}, nil
}

// parseTypeRef parses a qualified-identifier type reference: Name,
// Attribute, Subscript, or `&T` (pointer, surfaced as a UnaryOperator).
func (p *Parser) parseTypeRef() (ast.Node, error) {
	if p.peekToken(token.Ampersand) {
		amp, _ := p.expectToken(token.Ampersand)
		inner, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOperator{Op: token.Ampersand, Operand: inner, Ln: amp.Line()}, nil
	}

	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	var node ast.Node = name

	for {
		switch {
		case p.peekToken(token.Dot):
			p.expectToken(token.Dot)
			right, err := p.expectName()
			if err != nil {
				return nil, err
			}
			node = &ast.Attribute{Left: node, Right: right, Ln: name.Line()}
		case p.peekToken(token.LeftBracket):
			p.expectToken(token.LeftBracket)
			var items []ast.Node
			for {
				item, err := p.parseTypeRef()
				if err != nil {
					return nil, err
				}
				items = append(items, item)
				if p.peekToken(token.Comma) {
					p.expectToken(token.Comma)
					continue
				}
				break
			}
			if _, err := p.expectToken(token.RightBracket); err != nil {
				return nil, err
			}
			node = &ast.Subscript{Head: node, Items: items, Ln: name.Line()}
		default:
			return node, nil
		}
	}
}

func (p *Parser) parseBody() (*ast.Body, error) {
	open, err := p.expectToken(token.LeftBrace)
	if err != nil {
		return nil, err
	}

	body := &ast.Body{Ln: open.Line()}

	for {
		if p.peekToken(token.RightBrace) {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body.Statements = append(body.Statements, stmt)
	}

	if _, err := p.expectToken(token.RightBrace); err != nil {
		return nil, err
	}

	return body, nil
}

func (p *Parser) parseStatement() (ast.Node, error) {
	switch {
	case p.peekKeyword(token.Let):
		return p.parseLet()
	case p.peekKeyword(token.If):
		return p.parseIf()
	case p.peekKeyword(token.While):
		return p.parseWhile()
	case p.peekKeyword(token.For):
		return p.parseFor()
	case p.peekKeyword(token.Return):
		return p.parseReturn()
	case p.peekKeyword(token.Comptime):
		return p.parseComptime()
	case p.peekKeyword(token.Switch):
		return p.parseSwitch()
	case p.peekKeyword(token.Break):
		kw, _ := p.expectKeyword(token.Break)
		return &ast.Break{Ln: kw.Line()}, nil
	case p.peekKeyword(token.Continue):
		kw, _ := p.expectKeyword(token.Continue)
		return &ast.Continue{Ln: kw.Line()}, nil
	default:
		return p.parseExpressionOrAssignment()
	}
}

func (p *Parser) parseIf() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.If)
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	node := &ast.If{Cond: cond, Then: then, Ln: kw.Line()}

	switch {
	case p.peekKeyword(token.Elif):
		elifNode, err := p.parseElifChain()
		if err != nil {
			return nil, err
		}
		node.Else = elifNode
	case p.peekKeyword(token.Else):
		p.expectKeyword(token.Else)
		elseBody, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}

	return node, nil
}

// parseElifChain parses `elif cond { ... } [elif ...] [else ...]`.
func (p *Parser) parseElifChain() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.Elif)
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	node := &ast.If{Cond: cond, Then: then, Ln: kw.Line()}

	switch {
	case p.peekKeyword(token.Elif):
		elifNode, err := p.parseElifChain()
		if err != nil {
			return nil, err
		}
		node.Else = elifNode
	case p.peekKeyword(token.Else):
		p.expectKeyword(token.Else)
		elseBody, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}

	return node, nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.While)
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body, Ln: kw.Line()}, nil
}

func (p *Parser) parseFor() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.For)
	v, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(token.In); err != nil {
		return nil, err
	}
	iter, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.For{Var: v, Iter: iter, Body: body, Ln: kw.Line()}, nil
}

func (p *Parser) parseReturn() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.Return)
	if p.peekToken(token.RightBrace) {
		return &ast.Return{Ln: kw.Line()}, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Return{Value: value, Ln: kw.Line()}, nil
}

func (p *Parser) parseComptime() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.Comptime)
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Comptime{Value: value, Ln: kw.Line()}, nil
}

func (p *Parser) parseSwitch() (ast.Node, error) {
	kw, _ := p.expectKeyword(token.Switch)
	target, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.expectToken(token.LeftBrace); err != nil {
		return nil, err
	}

	sw := &ast.Switch{Target: target, Ln: kw.Line()}

	for {
		if p.peekToken(token.RightBrace) {
			break
		}

		var pattern ast.Node
		if name, ok := p.captureName(); ok && name.Value == "_" {
			pattern = nil
		} else if ok {
			p.release()
			pattern, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		} else {
			pattern, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}

		if _, err := p.expectToken(token.Colon); err != nil {
			return nil, err
		}

		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		sw.Cases = append(sw.Cases, ast.SwitchCase{Pattern: pattern, Value: value})

		if p.peekToken(token.Comma) {
			p.expectToken(token.Comma)
		}
	}

	if _, err := p.expectToken(token.RightBrace); err != nil {
		return nil, err
	}

	return sw, nil
}

// parseExpressionOrAssignment parses a bare expression statement, which is
// reinterpreted as an Assignment if followed by an assignment operator.
func (p *Parser) parseExpressionOrAssignment() (ast.Node, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	t, ok := p.captureToken()
	if ok && token.AssignmentOperators[t.Kind] {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Op: t.Kind, Target: expr, Value: value, Ln: t.Line()}, nil
	}
	if ok {
		p.release()
	}

	return expr, nil
}

// Expression grammar, lowest to highest precedence:
//
//	or -> and -> equality -> comparison -> bitwise -> additive ->
//	multiplicative -> unary -> postfix -> primary

func (p *Parser) parseExpression() (ast.Node, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekKeyword(token.Or) {
		kw, _ := p.expectKeyword(token.Or)
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperator{Op: token.Kind("or"), Left: left, Right: right, Ln: kw.Line()}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peekKeyword(token.And) {
		kw, _ := p.expectKeyword(token.And)
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperator{Op: token.Kind("and"), Left: left, Right: right, Ln: kw.Line()}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Node, error) {
	return p.parseBinaryLevel(p.parseComparison, token.EqualEqual, token.NotEqual)
}

func (p *Parser) parseComparison() (ast.Node, error) {
	return p.parseBinaryLevel(p.parseBitwise, token.GreaterThan, token.LessThan, token.GreaterEqual, token.LessEqual)
}

func (p *Parser) parseBitwise() (ast.Node, error) {
	return p.parseBinaryLevel(p.parseAdditive, token.Ampersand, token.Caret, token.VerticalBar, token.ShiftLeft, token.ShiftRight)
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	return p.parseBinaryLevel(p.parseMultiplicative, token.Plus, token.Minus)
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	return p.parseBinaryLevel(p.parseUnary, token.Star, token.Slash, token.Percent)
}

func (p *Parser) parseBinaryLevel(next func() (ast.Node, error), kinds ...token.Kind) (ast.Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for {
		t, ok := p.captureToken()
		if !ok {
			return left, nil
		}
		matched := false
		for _, k := range kinds {
			if t.Kind == k {
				matched = true
				break
			}
		}
		if !matched {
			p.release()
			return left, nil
		}

		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperator{Op: t.Kind, Left: left, Right: right, Ln: t.Line()}
	}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	t, ok := p.captureToken()
	if ok && token.UnaryOperators[t.Kind] {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOperator{Op: t.Kind, Operand: operand, Ln: t.Line()}, nil
	}
	if ok {
		p.release()
	}

	if k, ok := p.captureKeyword(token.Not); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOperator{Op: token.Kind("not"), Operand: operand, Ln: k.Line()}, nil
	}

	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.peekToken(token.Dot):
			p.expectToken(token.Dot)
			right, err := p.expectName()
			if err != nil {
				return nil, err
			}
			expr = &ast.Attribute{Left: expr, Right: right, Ln: right.Line()}
		case p.peekToken(token.Interrogation):
			tg, _ := p.expectToken(token.Interrogation)
			expr = &ast.TestGuard{Target: expr, Ln: tg.Line()}
		case p.peekToken(token.LeftParen):
			lp, _ := p.expectToken(token.LeftParen)
			var args []ast.Node
			for !p.peekToken(token.RightParen) {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.peekToken(token.Comma) {
					p.expectToken(token.Comma)
					continue
				}
				break
			}
			if _, err := p.expectToken(token.RightParen); err != nil {
				return nil, err
			}
			expr = &ast.Call{Callee: expr, Args: args, Ln: lp.Line()}
		case p.peekToken(token.LeftBracket):
			lb, _ := p.expectToken(token.LeftBracket)
			var items []ast.Node
			for !p.peekToken(token.RightBracket) {
				item, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				items = append(items, item)
				if p.peekToken(token.Comma) {
					p.expectToken(token.Comma)
					continue
				}
				break
			}
			if _, err := p.expectToken(token.RightBracket); err != nil {
				return nil, err
			}
			expr = &ast.Subscript{Head: expr, Items: items, Ln: lb.Line()}
		case p.peekToken(token.LeftBrace):
			lit, err := p.parseStructLiteralTail(expr, expr.Line())
			if err != nil {
				return nil, err
			}
			expr = lit
		default:
			return expr, nil
		}
	}
}

// parseStructLiteralTail parses the `{ ... }` suffix of `T{...}` once the
// type reference `typ` has already been parsed.
func (p *Parser) parseStructLiteralTail(typ ast.Node, line int) (ast.Node, error) {
	if _, err := p.expectToken(token.LeftBrace); err != nil {
		return nil, err
	}

	lit := &ast.StructLiteral{Type: typ, Ln: line}

	for {
		if p.peekToken(token.RightBrace) {
			break
		}

		var field ast.StructLiteralField

		if name, ok := p.captureName(); ok {
			if p.peekToken(token.Colon) {
				p.expectToken(token.Colon)
				value, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				n := name
				field = ast.StructLiteralField{Name: &n, Value: value}
			} else {
				p.release()
				value, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				field = ast.StructLiteralField{Value: value}
			}
		} else {
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			field = ast.StructLiteralField{Value: value}
		}

		lit.Fields = append(lit.Fields, field)

		if p.peekToken(token.Comma) {
			p.expectToken(token.Comma)
			continue
		}
		break
	}

	if _, err := p.expectToken(token.RightBrace); err != nil {
		return nil, err
	}

	return lit, nil
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	if p.peekKeyword(token.Switch) {
		return p.parseSwitch()
	}

	item, ok := p.capture()
	if !ok {
		return nil, p.fail(0, "unexpected end of input")
	}

	switch v := item.(type) {
	case token.Literal:
		return v, nil
	case token.Name:
		return v, nil
	case token.Token:
		if v.Kind == token.LeftParen {
			if p.peekToken(token.RightParen) {
				return nil, p.fail(v.Line(), "empty parenthesized expression")
			}
			inner, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectToken(token.RightParen); err != nil {
				return nil, err
			}
			return inner, nil
		}
		p.release()
		return nil, p.fail(v.Line(), "unexpected token %q", string(v.Kind))
	default:
		return nil, p.fail(0, "unexpected item %v", v)
	}
}
