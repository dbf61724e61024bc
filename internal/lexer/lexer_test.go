package lexer

import (
	"loquora/internal/token"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `tool add(a: Int, b: Int) -> Int {
	return a + b;
}
// comment
x = 5 * 2.5 % 3 @ y;
/* block
comment */ !- ~ ^ & | && || == != < > <= >= << >> ? : ?? :: !! . ;
'c' '\n' "str\"ing" 1e3 .5 2.0e-2
load-and-run std/io as io;
load-and-runner
struct schema model template export import elif in with
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.TOOL, "tool"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COLON, ":"},
		{token.IDENT, "Int"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.COLON, ":"},
		{token.IDENT, "Int"},
		{token.RPAREN, ")"},
		{token.ARROW, "->"},
		{token.IDENT, "Int"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "a"},
		{token.PLUS, "+"},
		{token.IDENT, "b"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT, "5"},
		{token.ASTERISK, "*"},
		{token.FLOAT, "2.5"},
		{token.PERCENT, "%"},
		{token.INT, "3"},
		{token.AT, "@"},
		{token.IDENT, "y"},
		{token.SEMICOLON, ";"},
		{token.BANG, "!"},
		{token.MINUS, "-"},
		{token.COMPLEMENT, "~"},
		{token.BITWISE_XOR, "^"},
		{token.BITWISE_AND, "&"},
		{token.BITWISE_OR, "|"},
		{token.LOGICAL_AND, "&&"},
		{token.LOGICAL_OR, "||"},
		{token.EQ, "=="},
		{token.NOT_EQ, "!="},
		{token.LT, "<"},
		{token.GT, ">"},
		{token.LT_EQ, "<="},
		{token.GT_EQ, ">="},
		{token.SHIFT_LEFT, "<<"},
		{token.SHIFT_RIGHT, ">>"},
		{token.QUESTION, "?"},
		{token.COLON, ":"},
		{token.COALESCE, "??"},
		{token.ON_FALSE, "::"},
		{token.ON_NULL, "!!"},
		{token.PERIOD, "."},
		{token.SEMICOLON, ";"},
		{token.CHAR, "'c'"},
		{token.CHAR, `'\n'`},
		{token.STRING, `"str\"ing"`},
		{token.FLOAT, "1e3"},
		{token.FLOAT, ".5"},
		{token.FLOAT, "2.0e-2"},
		{token.LOAD_AND_RUN, "load-and-run"},
		{token.IDENT, "std"},
		{token.SLASH, "/"},
		{token.IDENT, "io"},
		{token.AS, "as"},
		{token.IDENT, "io"},
		{token.SEMICOLON, ";"},
		{token.LOAD, "load"},
		{token.MINUS, "-"},
		{token.IDENT, "and"},
		{token.MINUS, "-"},
		{token.IDENT, "runner"},
		{token.STRUCT, "struct"},
		{token.SCHEMA, "schema"},
		{token.MODEL, "model"},
		{token.TEMPLATE, "template"},
		{token.EXPORT, "export"},
		{token.IMPORT, "import"},
		{token.ELIF, "elif"},
		{token.IN, "in"},
		{token.WITH, "with"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}

		if got := input[tok.Span.Start:tok.Span.End]; got != tok.Literal {
			t.Fatalf("tests[%d] - span %s covers %q, literal is %q", i, tok.Span, got, tok.Literal)
		}
	}
}

func TestEOFIsSticky(t *testing.T) {
	input := "x /* never closed"
	l := New(input)
	if tok := l.NextToken(); tok.Type != token.IDENT {
		t.Fatalf("expected IDENT, got %q", tok.Type)
	}
	for i := 0; i < 3; i++ {
		tok := l.NextToken()
		if tok.Type != token.EOF {
			t.Fatalf("call %d: expected EOF, got %q", i, tok.Type)
		}
		if tok.Span.Start != len(input) || tok.Span.Len() != 0 {
			t.Fatalf("call %d: expected zero-length span at %d, got %s", i, len(input), tok.Span)
		}
	}
}

func TestUnknownCharactersAreSkipped(t *testing.T) {
	toks := Tokenize("a # $ b")
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(toks), toks)
	}
	if toks[0].Literal != "a" || toks[1].Literal != "b" || toks[2].Type != token.EOF {
		t.Fatalf("unexpected tokens %v", toks)
	}
}

func TestHeredoc(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		body     string
		nextType token.TokenType
	}{
		{
			name:     "terminator with semicolon",
			input:    "<<~END\nline one\nline two\nEND;\nx",
			body:     "line one\nline two\n",
			nextType: token.SEMICOLON,
		},
		{
			name:     "bare terminator",
			input:    "<<~EOT\nhello\nEOT\nx",
			body:     "hello\n",
			nextType: token.IDENT,
		},
		{
			name:     "terminator must match the whole line",
			input:    "<<~END\n  END\nENDING\nEND\n",
			body:     "  END\nENDING\n",
			nextType: token.EOF,
		},
		{
			name:     "unterminated runs to EOF",
			input:    "<<~END\nabc\ndef",
			body:     "abc\ndef",
			nextType: token.EOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)
			tok := l.NextToken()
			if tok.Type != token.HEREDOC {
				t.Fatalf("expected HEREDOC, got %q", tok.Type)
			}
			if tok.Literal != tt.body {
				t.Fatalf("body wrong. expected=%q, got=%q", tt.body, tok.Literal)
			}
			if got := tt.input[tok.Span.Start:tok.Span.End]; got != tt.body {
				t.Fatalf("span covers %q", got)
			}
			if next := l.NextToken(); next.Type != tt.nextType {
				t.Fatalf("expected next token %q, got %q", tt.nextType, next.Type)
			}
		})
	}
}

func TestSaveRestore(t *testing.T) {
	l := New("Point { x: 1 }")
	l.NextToken()
	saved := l.Save()
	first := []token.Token{l.NextToken(), l.NextToken(), l.NextToken()}
	l.Restore(saved)
	for i, want := range first {
		if got := l.NextToken(); got != want {
			t.Fatalf("token %d after restore: expected %+v, got %+v", i, want, got)
		}
	}
}
