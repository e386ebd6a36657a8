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

package pocl

import (
	"io"

	"github.com/Kerilk/pocl/subcfg"
)

// Option configures a Transform call, mirroring the teacher's
// functional-option pattern over its own Options struct.
type Option func(*subcfg.Options)

// WithNumArrayElements overrides the slot count of every wide alloca the
// pass emits, bounding the largest work-group it can flatten.
func WithNumArrayElements(n int) Option {
	return func(o *subcfg.Options) { o.NumArrayElements = n }
}

// WithDefaultAlignment overrides the byte alignment every wide alloca is
// given.
func WithDefaultAlignment(align uint32) Option {
	return func(o *subcfg.Options) { o.DefaultAlignment = align }
}

// WithStrictVerification toggles whether Transform runs the post-condition
// verifier (and panics on failure) before returning. Strict by default.
func WithStrictVerification(strict bool) Option {
	return func(o *subcfg.Options) { o.Strict = strict }
}

// WithTrace makes Transform write the function's IR, before and after
// transformation, to w.
func WithTrace(w io.Writer) Option {
	return func(o *subcfg.Options) { o.Trace = w }
}
