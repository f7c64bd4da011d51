// This file is part of rill - https://github.com/rill-lang/rill
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rli holds small internals shared between cmd/rill and the core
// packages: an error-latching writer used by the CLI and REPL so that a
// failed stdout/history write surfaces once instead of being retried on
// every subsequent print.
package rli

import (
	"io"

	"github.com/pkg/errors"
)

// ErrWriter wraps a Writer and latches the first error it returns. Once Err
// is set, every subsequent Write is a no-op that returns the same error,
// which lets cmd/rill's REPL loop check for output failure once at the end
// of a batch of prints instead of after every single one.
type ErrWriter struct {
	w   io.Writer
	Err error
}

func (w *ErrWriter) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}

// NewErrWriter returns a new ErrWriter wrapping w.
func NewErrWriter(w io.Writer) *ErrWriter {
	return &ErrWriter{w: w}
}
