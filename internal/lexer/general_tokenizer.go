package lexer

import (
	"loquora/internal/token"
	"strings"
)

const loadAndRunSuffix = "-and-run"

// NextToken returns the next token. Unrecognized characters are skipped, and
// once the input is exhausted every call yields a zero-length EOF token.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespace()
		if l.atEOF() {
			end := len(l.input)
			return token.Token{Type: token.EOF, Span: token.Span{Start: end, End: end}}
		}

		start := l.position

		switch l.ch {
		case '=':
			return l.handleCompoundToken(token.ASSIGN, '=', token.EQ)
		case '!':
			return l.handleCompoundToken2(token.BANG, '=', token.NOT_EQ, '!', token.ON_NULL)
		case '&':
			return l.handleCompoundToken(token.BITWISE_AND, '&', token.LOGICAL_AND)
		case '|':
			return l.handleCompoundToken(token.BITWISE_OR, '|', token.LOGICAL_OR)
		case '<':
			if l.peekChar() == '<' && l.peekTwoChars() == '~' {
				return l.readHeredoc()
			}
			return l.handleCompoundToken2(token.LT, '=', token.LT_EQ, '<', token.SHIFT_LEFT)
		case '>':
			return l.handleCompoundToken2(token.GT, '=', token.GT_EQ, '>', token.SHIFT_RIGHT)
		case '?':
			return l.handleCompoundToken(token.QUESTION, '?', token.COALESCE)
		case ':':
			return l.handleCompoundToken(token.COLON, ':', token.ON_FALSE)
		case '-':
			return l.handleCompoundToken(token.MINUS, '>', token.ARROW)
		case '+':
			return l.single(token.PLUS)
		case '*':
			return l.single(token.ASTERISK)
		case '/':
			return l.single(token.SLASH)
		case '%':
			return l.single(token.PERCENT)
		case '@':
			return l.single(token.AT)
		case '^':
			return l.single(token.BITWISE_XOR)
		case '~':
			return l.single(token.COMPLEMENT)
		case ';':
			return l.single(token.SEMICOLON)
		case ',':
			return l.single(token.COMMA)
		case '(':
			return l.single(token.LPAREN)
		case ')':
			return l.single(token.RPAREN)
		case '{':
			return l.single(token.LBRACE)
		case '}':
			return l.single(token.RBRACE)
		case '.':
			if isDigit(l.peekChar()) {
				kind := l.readNumber()
				return l.emit(kind, start)
			}
			return l.single(token.PERIOD)
		case '"':
			l.readString()
			return l.emit(token.STRING, start)
		case '\'':
			l.readCharLiteral()
			return l.emit(token.CHAR, start)
		}

		if isLetter(l.ch) {
			ident := l.readIdentifier()
			if ident == "load" && l.atLoadAndRun() {
				for i := 0; i < len(loadAndRunSuffix); i++ {
					l.readChar()
				}
				return l.emit(token.LOAD_AND_RUN, start)
			}
			return l.emit(token.LookupIdent(ident), start)
		}
		if isDigit(l.ch) {
			kind := l.readNumber()
			return l.emit(kind, start)
		}

		// unknown character
		l.readChar()
	}
}

// atLoadAndRun reports whether "-and-run" follows the cursor as a whole word.
func (l *Lexer) atLoadAndRun() bool {
	rest := l.input[l.position:]
	if !strings.HasPrefix(rest, loadAndRunSuffix) {
		return false
	}
	after := rest[len(loadAndRunSuffix):]
	if after == "" {
		return true
	}
	c := rune(after[0])
	return !isLetter(c) && !isIdentDigit(c)
}
