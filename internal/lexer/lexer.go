// Package lexer turns Gullian source text into a flat token stream: a thin
// collaborator per spec.md §1 -- it only classifies characters, carrying no
// type information. Character classification itself is delegated to
// participle's stateless Simple lexer (the teacher repo carried
// alecthomas/participle as an unused dependency; here it earns its keep).
package lexer

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/GullianLanguage/Gullian/internal/token"
)

// rule names recognized by the underlying participle Simple lexer.
const (
	ruleComment    = "Comment"
	ruleString     = "String"
	ruleFloat      = "Float"
	ruleInt        = "Int"
	ruleIdent      = "Ident"
	rulePunct      = "Punct"
	ruleWhitespace = "Whitespace"
	ruleNewline    = "Newline"
)

var simpleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: ruleComment, Pattern: `#[^\n]*`},
	{Name: ruleString, Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
	{Name: ruleFloat, Pattern: `[0-9]+\.[0-9]+`},
	{Name: ruleInt, Pattern: `[0-9]+`},
	{Name: ruleIdent, Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: rulePunct, Pattern: `<<=|>>=|<<|>>|<=|>=|==|!=|\+=|-=|\*=|/=|%=|&=|\^=|\|=|[(){}\[\].,!?:;=<>+\-*/%&^|]`},
	{Name: ruleWhitespace, Pattern: `[ \t\r]+`},
	{Name: ruleNewline, Pattern: `\n`},
})

// Item is one element of a lexed stream: a token.Token, token.Keyword,
// token.Name, token.Literal, or token.Comment.
type Item any

// Lex tokenizes the given Gullian source text. moduleName is only used to
// annotate the SyntaxError raised for an unrecognized character.
func Lex(source string, moduleName string) ([]Item, error) {
	symbols := simpleLexer.Symbols()
	names := make(map[lexer.TokenType]string, len(symbols))
	for name, tt := range symbols {
		names[tt] = name
	}

	lex, err := simpleLexer.LexString("", source)
	if err != nil {
		return nil, err
	}

	var items []Item

	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF() {
			break
		}

		rule := names[tok.Type]
		line := tok.Pos.Line

		switch rule {
		case ruleWhitespace, ruleNewline:
			continue
		case ruleComment:
			items = append(items, token.Comment{Value: strings.TrimSpace(strings.TrimPrefix(tok.Value, "#")), Ln: line})
		case ruleString:
			items = append(items, token.Literal{Value: unquote(tok.Value), Ln: line})
		case ruleFloat:
			f, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil {
				return nil, err
			}
			items = append(items, token.Literal{Value: f, Ln: line})
		case ruleInt:
			i, err := strconv.ParseInt(tok.Value, 10, 64)
			if err != nil {
				return nil, err
			}
			items = append(items, token.Literal{Value: i, Ln: line})
		case ruleIdent:
			switch tok.Value {
			case "true":
				items = append(items, token.Literal{Value: true, Ln: line})
			case "false":
				items = append(items, token.Literal{Value: false, Ln: line})
			default:
				if kind, ok := token.Keywords[tok.Value]; ok {
					items = append(items, token.Keyword{Kind: kind, Ln: line})
				} else {
					items = append(items, token.Name{Value: tok.Value, Ln: line})
				}
			}
		case rulePunct:
			items = append(items, token.Token{Kind: token.Kind(tok.Value), Ln: line})
		default:
			return nil, &lexError{value: tok.Value, line: line, module: moduleName}
		}
	}

	return items, nil
}

// unquote strips the surrounding quote characters and resolves the small
// set of backslash escapes the grammar allows.
func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}

	inner := raw[1 : len(raw)-1]

	var sb strings.Builder
	escaped := false

	for _, ch := range inner {
		if escaped {
			switch ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case '\'':
				sb.WriteByte('\'')
			default:
				sb.WriteRune(ch)
			}
			escaped = false
			continue
		}

		if ch == '\\' {
			escaped = true
			continue
		}

		sb.WriteRune(ch)
	}

	return sb.String()
}

type lexError struct {
	value  string
	line   int
	module string
}

func (e *lexError) Error() string {
	return "invalid token " + strconv.Quote(e.value) + " at line " + strconv.Itoa(e.line) + " in module " + e.module
}
