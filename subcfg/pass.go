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

// Package subcfg implements the CBS SubCFG Formation pass: rewriting a
// single-work-item kernel function into a work-group-flattened function
// by discovering barrier-bounded regions, arrayifying values that cross
// them, replicating each region inside its own work-item loop nest, and
// wiring the regions together with a dispatcher.
package subcfg

import (
	"fmt"
	"io"

	"github.com/Kerilk/pocl/external"
	"github.com/Kerilk/pocl/ir"
)

// Options configures one run of the pass, mirroring the teacher's
// functional-option-backed Options struct in spirit (validated defaults,
// no hidden global state).
type Options struct {
	// NumArrayElements is the slot count of a wide alloca (NUM_ARRAY_ELEMENTS
	// in the source); it bounds the largest work-group this pass can flatten.
	NumArrayElements int
	// DefaultAlignment is the byte alignment every wide alloca gets.
	DefaultAlignment uint32
	// Strict runs Verify at the end of Run and panics on failure.
	Strict bool
	// Trace, if non-nil, receives a dump of the function before and after
	// transformation.
	Trace io.Writer
}

func DefaultOptions() Options {
	return Options{
		NumArrayElements: 1024,
		DefaultAlignment: 64,
		Strict:           true,
	}
}

// Pass holds the external collaborators and the per-run side-tables
// (metadata-as-identity tags, diagnostics) that every component function
// needs; it has no state that outlives one Run.
type Pass struct {
	Opts    Options
	Barrier external.BarrierInfo
	Kernel  external.KernelInfo
	Uniform external.UniformityInfo

	tags     *tagSet
	warnings []string
}

func NewPass(opts Options, barrier external.BarrierInfo, kernel external.KernelInfo, uniform external.UniformityInfo) *Pass {
	if opts.NumArrayElements <= 0 {
		opts.NumArrayElements = 1024
	}
	if opts.DefaultAlignment == 0 {
		opts.DefaultAlignment = 64
	}
	return &Pass{
		Opts:    opts,
		Barrier: barrier,
		Kernel:  kernel,
		Uniform: uniform,
		tags:    newTagSet(),
	}
}

func (p *Pass) warn(format string, args ...interface{}) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// ForEachUse calls visit once for every operand slot in f that reads a
// Value — every Phi incoming edge, every instruction operand, and every
// terminator condition — passing the block the usage occurs in and a
// pointer that aliases the operand's actual storage so visit can rewrite
// it in place. Every rewrite in this package (remapping a clone,
// redirecting an alloca's uses to a GEP, repairing a dominance violation)
// funnels through this rather than re-deriving its own use-walk.
func ForEachUse(f *ir.Function, visit func(bb *ir.BasicBlock, use *ir.Value)) {
	for _, bb := range f.Blocks {
		for _, ph := range bb.Phis {
			for _, u := range ph.Usages() {
				visit(bb, u)
			}
		}
		for _, in := range bb.Instr {
			for _, u := range in.Usages() {
				visit(bb, u)
			}
		}
		if bb.Term != nil {
			if u, ok := bb.Term.(ir.Usages); ok {
				for _, v := range u.Usages() {
					visit(bb, v)
				}
			}
		}
	}
}

// usersOutside reports whether v has at least one use in a block that is
// not a member of allowed.
func usersOutside(f *ir.Function, v ir.Value, allowed map[*ir.BasicBlock]bool) bool {
	found := false
	ForEachUse(f, func(bb *ir.BasicBlock, use *ir.Value) {
		if *use == v && !allowed[bb] {
			found = true
		}
	})
	return found
}

// usersAllIn reports whether every use of v lies inside allowed.
func usersAllIn(f *ir.Function, v ir.Value, allowed map[*ir.BasicBlock]bool) bool {
	return !usersOutside(f, v, allowed)
}

// exitingBlocks returns every block in f with no successors — the
// precondition formSubCfgs asserts is non-empty before doing anything
// else.
func exitingBlocks(f *ir.Function) []*ir.BasicBlock {
	var out []*ir.BasicBlock
	for _, bb := range f.Blocks {
		if len(bb.Successors()) == 0 {
			out = append(out, bb)
		}
	}
	return out
}

// moveAllocasToEntry hoists every KAlloca instruction in f into f.Entry,
// preserving relative order, so every later pass can assume "all allocas
// live in the entry block" without having to search the whole function.
func moveAllocasToEntry(f *ir.Function) {
	if f.Entry == nil {
		return
	}
	var allocas []*ir.Instr
	for _, bb := range f.Blocks {
		if bb == f.Entry {
			continue
		}
		var kept []*ir.Instr
		for _, in := range bb.Instr {
			if in.Kind == ir.KAlloca {
				allocas = append(allocas, in)
			} else {
				kept = append(kept, in)
			}
		}
		bb.Instr = kept
	}
	if len(allocas) == 0 {
		return
	}
	f.Entry.Instr = append(allocas, f.Entry.Instr...)
}
