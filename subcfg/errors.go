/*
 * Copyright 2026 The Pocl-Go Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package subcfg

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/Kerilk/pocl/ir"
)

// ErrSkipped is the sentinel errors.Is checks against to tell a
// legitimate no-op — not a kernel, or a handler other than CBS — apart
// from a real failure. A kernel with no barriers is not skipped: Run
// redirects it to TransformNoBarrierKernel instead.
var ErrSkipped = errors.New("subcfg: function not eligible for CBS transformation")

func skip(reason string) error {
	return fmt.Errorf("%w: %s", ErrSkipped, reason)
}

// InvariantError is panicked, never returned, for a precondition
// violation (malformed input — e.g. a function with no exit block) or a
// post-transform verifier failure (a bug in the pass itself). Neither is
// recoverable, matching spec's "fatal, unrecoverable" classification for
// both cases.
type InvariantError struct {
	Msg string
	Fn  *ir.Function
}

func (e *InvariantError) Error() string {
	return e.Msg
}

func invariant(f *ir.Function, format string, args ...interface{}) {
	dump := "<nil function>"
	if f != nil {
		dump = spew.Sdump(f)
	}
	panic(&InvariantError{
		Msg: fmt.Sprintf(format, args...) + "\n" + dump,
		Fn:  f,
	})
}
