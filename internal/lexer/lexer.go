package lexer

import (
	"loquora/internal/token"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
}

// State is a saved cursor. Restoring it rewinds the lexer so that the same
// tokens are produced again.
type State struct {
	position     int
	readPosition int
	ch           rune
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) Input() string { return l.input }

func (l *Lexer) Save() State {
	return State{position: l.position, readPosition: l.readPosition, ch: l.ch}
}

func (l *Lexer) Restore(s State) {
	l.position = s.position
	l.readPosition = s.readPosition
	l.ch = s.ch
}

// Tokenize drains the lexer, EOF included.
func Tokenize(input string) []token.Token {
	l := New(input)
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) emit(t token.TokenType, start int) token.Token {
	return token.Token{
		Type:    t,
		Literal: l.input[start:l.position],
		Span:    token.Span{Start: start, End: l.position},
	}
}

// single consumes the current rune as a one-character token.
func (l *Lexer) single(t token.TokenType) token.Token {
	start := l.position
	l.readChar()
	return l.emit(t, start)
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	start := l.position
	if l.peekChar() == ch1 {
		l.readChar()
		l.readChar()
		return l.emit(t1, start)
	}
	l.readChar()
	return l.emit(t, start)
}

func (l *Lexer) handleCompoundToken2(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
	ch2 rune,
	t2 token.TokenType,
) token.Token {
	start := l.position
	switch l.peekChar() {
	case ch1:
		l.readChar()
		l.readChar()
		return l.emit(t1, start)
	case ch2:
		l.readChar()
		l.readChar()
		return l.emit(t2, start)
	default:
		l.readChar()
		return l.emit(t, start)
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.atEOF() {
		switch {
		case unicode.IsSpace(l.ch):
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			l.skipToLineEnd()
		case l.ch == '/' && l.peekChar() == '*':
			l.skipBlockComment()
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}
}

// skipBlockComment consumes /* ... */; an unterminated comment runs to EOF.
func (l *Lexer) skipBlockComment() {
	l.readChar()
	l.readChar()
	for !l.atEOF() {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// seek moves the cursor to the byte offset pos.
func (l *Lexer) seek(pos int) {
	l.readPosition = pos
	l.readChar()
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// peekTwoChars returns the rune after next without advancing; returns 0 if unavailable
func (l *Lexer) peekTwoChars() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	idx := l.readPosition + size
	if idx >= len(l.input) {
		return 0
	}
	r2, _ := utf8.DecodeRuneInString(l.input[idx:])
	return r2
}

// readIdentifier returns the substring (bytes) covering the identifier runes
func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isIdentDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber consumes an integer or float literal. A '.' is only part of the
// number when a digit follows it, and an exponent only when digits follow.
func (l *Lexer) readNumber() token.TokenType {
	kind := token.TokenType(token.INT)
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		kind = token.FLOAT
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next, after := l.peekChar(), l.peekTwoChars()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(after)) {
			kind = token.FLOAT
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return kind
}

// readString consumes a double-quoted string, quotes included. Escapes are
// skipped over, not decoded.
func (l *Lexer) readString() {
	l.readChar() // opening "
	for !l.atEOF() && l.ch != '"' {
		if l.ch == '\\' {
			l.readChar()
		}
		l.readChar()
	}
	if l.ch == '"' {
		l.readChar()
	}
}

// readCharLiteral consumes 'x' or '\x'; the closing quote is optional.
func (l *Lexer) readCharLiteral() {
	l.readChar() // opening '
	if l.ch == '\'' {
		l.readChar()
		return
	}
	if l.ch == '\\' {
		l.readChar()
	}
	if !l.atEOF() {
		l.readChar()
	}
	if l.ch == '\'' {
		l.readChar()
	}
}

// Unicode-aware helpers
func isLetter(ch rune) bool {
	// Letters, underscore, and categories like Letter and Mark to support identifiers like café,变量
	return ch == '_' || unicode.IsLetter(ch) || unicode.Is(unicode.Mn, ch) || unicode.Is(unicode.Mc, ch)
}

func isIdentDigit(ch rune) bool {
	return unicode.IsDigit(ch)
}

// numeric literals are ASCII only
func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
