// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

package hooktool

import (
	"fmt"
	"os"

	"github.com/juju/loggo/v2"
)

// logWriter forwards loggo records to the juju-log hook tool, so charm
// logging lands in the model log the same way it does for every other
// charm. Records that cannot be forwarded (no hook context, tool missing)
// fall back to stderr, which Juju also captures.
type logWriter struct {
	ctx *Context
}

// NewLogWriter returns a loggo writer backed by the juju-log tool.
func NewLogWriter(ctx *Context) loggo.Writer {
	return &logWriter{ctx: ctx}
}

// Write implements loggo.Writer.
func (w *logWriter) Write(entry loggo.Entry) {
	message := entry.Message
	if entry.Module != "" {
		message = entry.Module + ": " + message
	}
	if err := w.ctx.JujuLog(entry.Level.String(), message); err != nil {
		fmt.Fprintln(os.Stderr, loggo.DefaultFormatter(entry))
	}
}
