package token

import "fmt"

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT   = "IDENT"   // add, foobar, x, y, ...
	INT     = "INT"     // 1343456
	FLOAT   = "FLOAT"   // 1.5, 2e10, .5
	STRING  = "STRING"  // "foobar"
	CHAR    = "CHAR"    // 'a'
	HEREDOC = "HEREDOC" // <<~END ... END

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	BANG     = "!"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"
	AT       = "@"

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	COMPLEMENT  = "~"
	BITWISE_AND = "&"
	BITWISE_OR  = "|"
	BITWISE_XOR = "^"
	SHIFT_LEFT  = "<<"
	SHIFT_RIGHT = ">>"

	LOGICAL_AND = "&&"
	LOGICAL_OR  = "||"

	EQ     = "=="
	NOT_EQ = "!="

	ARROW    = "->"
	QUESTION = "?"
	COALESCE = "??"
	ON_FALSE = "::"
	ON_NULL  = "!!"

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN = "("
	RPAREN = ")"
	LBRACE = "{"
	RBRACE = "}"

	// Keywords
	IMPORT       = "IMPORT"
	LOAD         = "LOAD"
	LOAD_AND_RUN = "LOAD_AND_RUN"
	EXPORT       = "EXPORT"
	SCHEMA       = "SCHEMA"
	STRUCT       = "STRUCT"
	TEMPLATE     = "TEMPLATE"
	MODEL        = "MODEL"
	TOOL         = "TOOL"
	IF           = "IF"
	ELIF         = "ELIF"
	ELSE         = "ELSE"
	WHILE        = "WHILE"
	FOR          = "FOR"
	IN           = "IN"
	LOOP         = "LOOP"
	WITH         = "WITH"
	AS           = "AS"
	RETURN       = "RETURN"
	BREAK        = "BREAK"
	CONTINUE     = "CONTINUE"
	TRUE         = "TRUE"
	FALSE        = "FALSE"
	NULL         = "NULL"
)

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int { return s.End - s.Start }

func (s Span) String() string { return fmt.Sprintf("%d..%d", s.Start, s.End) }

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

type Token struct {
	Type    TokenType
	Literal string // exact source text of Span; heredocs carry the body only
	Span    Span
}

var keywords = map[string]TokenType{
	// constants
	"null":  NULL,
	"true":  TRUE,
	"false": FALSE,

	// modules
	"import": IMPORT,
	"load":   LOAD,
	"export": EXPORT,

	// declarations
	"schema":   SCHEMA,
	"struct":   STRUCT,
	"template": TEMPLATE,
	"model":    MODEL,
	"tool":     TOOL,

	// flow control
	"if":       IF,
	"elif":     ELIF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"loop":     LOOP,
	"with":     WITH,
	"as":       AS,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
