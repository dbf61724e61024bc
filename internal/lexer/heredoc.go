package lexer

import (
	"loquora/internal/token"
	"strings"
)

// readHeredoc reads <<~DELIM followed by body lines up to a line that is
// exactly DELIM or DELIM;. The token covers the body only. With the ';' form
// the cursor stops on the ';' so it is lexed as the statement terminator.
func (l *Lexer) readHeredoc() token.Token {
	l.readChar() // <
	l.readChar() // <
	l.readChar() // ~

	delimStart := l.position
	for isLetter(l.ch) || isIdentDigit(l.ch) {
		l.readChar()
	}
	delim := l.input[delimStart:l.position]

	if l.ch == '\r' && l.peekChar() == '\n' {
		l.readChar()
	}
	if l.ch == '\n' {
		l.readChar()
	}

	bodyStart := l.position
	bodyEnd := bodyStart
	for !l.atEOF() {
		lineStart := l.position
		lineEnd := len(l.input)
		if i := strings.IndexByte(l.input[lineStart:], '\n'); i >= 0 {
			lineEnd = lineStart + i
		}
		line := strings.TrimSuffix(l.input[lineStart:lineEnd], "\r")

		if line == delim+";" {
			l.seek(lineStart + len(delim))
			break
		}
		next := min(lineEnd+1, len(l.input))
		l.seek(next)
		if line == delim {
			break
		}
		bodyEnd = next
	}

	return token.Token{
		Type:    token.HEREDOC,
		Literal: l.input[bodyStart:bodyEnd],
		Span:    token.Span{Start: bodyStart, End: bodyEnd},
	}
}
