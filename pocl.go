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

// Package pocl is the public entry point for the CBS SubCFG Formation
// pass: flattening a single-work-item kernel function into a
// work-group-aware one, ready for scalar-CPU execution.
package pocl

import (
	"github.com/Kerilk/pocl/external"
	"github.com/Kerilk/pocl/ir"
	"github.com/Kerilk/pocl/subcfg"
)

// Transform runs the SubCFG Formation pass on f, configured by opts.
// It returns subcfg.ErrSkipped (check with errors.Is) when f is not a
// kernel or was not assigned the CBS work-item handler; any other error
// never returns normally — precondition and verifier failures panic, per
// the pass's fatal/unrecoverable error taxonomy.
func Transform(f *ir.Function, barrier external.BarrierInfo, kernel external.KernelInfo, uniform external.UniformityInfo, opts ...Option) error {
	o := subcfg.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	pass := subcfg.NewPass(o, barrier, kernel, uniform)
	return pass.Run(f)
}
