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

// Package external defines the three collaborators the subcfg pass
// requires but does not implement itself: barrier recognition, kernel
// metadata, and variable uniformity. A real embedding compiler supplies
// concrete implementations backed by its own analyses; the conservative
// defaults here let subcfg run and be tested standalone.
package external

import "github.com/Kerilk/pocl/ir"

// Handler mirrors the upstream WorkitemHandlerChooser's result: which
// work-item-replication strategy a kernel was assigned. Only POCLWIHCBS
// kernels are eligible for SubCFG formation; any other choice causes
// subcfg.Run to return ErrSkipped.
type Handler int

const (
	HandlerNone Handler = iota
	HandlerLoopsWI
	HandlerCBS
)

// BarrierInfo recognizes barrier calls in a kernel body.
type BarrierInfo interface {
	// HasOnlyBarrier reports whether bb's instruction stream contains
	// nothing but a single barrier call (plus its terminator) — the
	// precondition every SubCFG entry/exit boundary must satisfy.
	HasOnlyBarrier(bb *ir.BasicBlock) bool
	// IsBarrier reports whether in is itself a barrier call.
	IsBarrier(in *ir.Instr) bool
}

// KernelInfo surfaces the module-level facts formSubCfgs/createLoopsAroundKernel
// read before doing anything else: whether a function is a kernel at all,
// which work-item handler it was assigned, whether it contains barriers,
// and its work-group local size.
type KernelInfo interface {
	IsKernelToProcess(f *ir.Function) bool
	HasWorkgroupBarriers(f *ir.Function) bool
	HandlerChoice(f *ir.Function) Handler
	// LocalSize returns the work-group's local size along each dimension
	// and whether that size is only known at run time; the single point
	// where the "metadata constant vs. dynamic global load" branch the
	// original repeats at every call site happens, so subcfg itself never
	// re-implements that branch.
	LocalSize(f *ir.Function) (x, y, z uint32, dynamic bool)
	// Dimensions collapses the local size to 1 or 2 when trailing
	// dimensions are statically 1, exactly as formSubCfgs does.
	Dimensions(f *ir.Function) int
}

// UniformityInfo reports whether a value is provably the same across
// every work-item in the group (e.g. a kernel argument, or an expression
// built purely from uniform values) — used by the cross-region value
// classification in subcfg.AnalyzeCrossRegionValues to decide between
// arrayification and a cheap hoist-and-reload.
type UniformityInfo interface {
	IsUniform(f *ir.Function, v ir.Value) bool
}

// DefaultUniformity always reports divergent, the safe default when no
// real analysis is wired in: every multi-region value gets arrayified
// rather than incorrectly hoisted as uniform.
type DefaultUniformity struct{}

func (DefaultUniformity) IsUniform(f *ir.Function, v ir.Value) bool {
	return false
}

// StaticKernelInfo is a KernelInfo backed by fixed fields rather than a
// real module-metadata reader, for tests and for embedders that already
// know their kernel's shape statically.
type StaticKernelInfo struct {
	Kernel           bool
	Handler          Handler
	Barriers         bool
	LocalSizeX       uint32
	LocalSizeY       uint32
	LocalSizeZ       uint32
	DynamicLocalSize bool
}

func (k StaticKernelInfo) IsKernelToProcess(f *ir.Function) bool { return k.Kernel }
func (k StaticKernelInfo) HasWorkgroupBarriers(f *ir.Function) bool { return k.Barriers }
func (k StaticKernelInfo) HandlerChoice(f *ir.Function) Handler     { return k.Handler }

func (k StaticKernelInfo) LocalSize(f *ir.Function) (x, y, z uint32, dynamic bool) {
	return k.LocalSizeX, k.LocalSizeY, k.LocalSizeZ, k.DynamicLocalSize
}

func (k StaticKernelInfo) Dimensions(f *ir.Function) int {
	if k.LocalSizeZ == 1 && !k.DynamicLocalSize {
		if k.LocalSizeY == 1 {
			return 1
		}
		return 2
	}
	return 3
}

// CallBarrierInfo recognizes barriers by callee name, matching how the
// original identifies barrier() calls by symbol rather than by a
// dedicated IR node.
type CallBarrierInfo struct {
	CalleeName string
}

func (b CallBarrierInfo) IsBarrier(in *ir.Instr) bool {
	return in.Kind == ir.KCall && in.Call.Callee == b.CalleeName
}

func (b CallBarrierInfo) HasOnlyBarrier(bb *ir.BasicBlock) bool {
	if len(bb.Instr) != 1 {
		return false
	}
	return b.IsBarrier(bb.Instr[0])
}
