package object

import (
	"bytes"
	"errors"
	"fmt"
	"loquora/internal/util"
)

// RenderStacktrace formats a runtime failure with the offending source lines
// and the tool calls it unwound through.
func RenderStacktrace(err error, src, file string) string {
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		return err.Error()
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "RuntimeError: %s\n", rtErr.Error())

	if rtErr.Pos != nil && src != "" {
		l, c := util.GetLineAndColumn(src, rtErr.Pos.Start)
		fmt.Fprintf(&buf, "  at [%3d:%3d] %s\n\n", l, c, file)
		buf.WriteString(util.GetContextLines(src, l, c))
		buf.WriteString("\n")
	}

	buf.WriteString(formatRuntimeErrorStack(rtErr, src))

	return buf.String()
}

// Helper: turn a RuntimeError's stack trace into a human-readable string.
func formatRuntimeErrorStack(rtErr *RuntimeError, src string) string {
	var buf bytes.Buffer

	for _, frame := range rtErr.StackTrace {
		l, c := util.GetLineAndColumn(src, frame.Pos.Start)
		fmt.Fprintf(&buf, "  in tool %-12s [%3d:%3d]\n", frame.Tool, l, c)
	}

	if rtErr.Cause != nil {
		fmt.Fprintf(&buf, "Caused by: %v\n", rtErr.Cause)
	}

	return buf.String()
}
