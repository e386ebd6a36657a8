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
	"github.com/Kerilk/pocl/external"
	"github.com/Kerilk/pocl/ir"
	"github.com/Kerilk/pocl/ssa"
)

// Run transforms f in place per §4: CBS SubCFG formation when f has
// work-group barriers, the simpler whole-body loop wrap of §4.10
// otherwise. It returns ErrSkipped, never an error wrapping anything
// else, when f is not eligible at all (not a kernel, or assigned a
// handler other than CBS) — a kernel with no barriers is not skipped, it
// is redirected to TransformNoBarrierKernel.
func (p *Pass) Run(f *ir.Function) error {
	if !p.Kernel.IsKernelToProcess(f) {
		return skip("function is not a kernel to process")
	}
	if p.Kernel.HandlerChoice(f) != external.HandlerCBS {
		return skip("kernel was not assigned the CBS work-item handler")
	}

	if p.Opts.Trace != nil {
		p.Opts.Trace.Write([]byte(f.String()))
	}

	if !p.Kernel.HasWorkgroupBarriers(f) {
		p.TransformNoBarrierKernel(f)
	} else {
		p.runCBS(f)
	}

	if p.Opts.Strict {
		p.Verify(f)
	}
	if p.Opts.Trace != nil {
		p.Opts.Trace.Write([]byte(f.String()))
	}
	return nil
}

func (p *Pass) runCBS(f *ir.Function) {
	exits := exitingBlocks(f)
	if len(exits) == 0 {
		invariant(f, "function %q has no exiting block", f.Name)
	}
	functionExit := exits[0]
	if len(exits) > 1 {
		functionExit = unifyExits(f, exits)
	}

	moveAllocasToEntry(f)

	lastBarrierAlloca := f.NewValue()
	f.Emit(f.Entry, &ir.Instr{
		Kind: ir.KAlloca, Def: lastBarrierAlloca,
		Alloca: &ir.Alloca{R: lastBarrierAlloca, ElemSize: 8, Count: 1, Align: p.Opts.DefaultAlignment, Name: "last_barrier_id"},
	})
	p.tags.markLoopState(lastBarrierAlloca)

	bm := BuildBarrierMap(p, f)
	regions := DiscoverSubCFGs(bm)

	dim := p.Kernel.Dimensions(f)
	x, y, z, dynamic := p.Kernel.LocalSize(f)
	sizes := loadLocalSizes(f, f.Entry, x, y, z, dynamic)

	whileHeader := f.CreateBlock("dispatch.while")

	// Every region's loop nest (and therefore its ContIdx) must exist
	// before cross-region analysis runs: a wide-slot allocation for a
	// value homed in region c indexes its backing alloca by c.ContIdx,
	// so classifying escaping values against an unset ContIdx would bake
	// a stale index into the GEP it emits. Structure every region first,
	// analyze second, splice last.
	for _, c := range regions {
		p.StructureSubCFG(f, c, lastBarrierAlloca, whileHeader, sizes, dim)
		p.ArrayifyAllocasInEntry(f, f.Entry, c.Blocks, c.LoadBB, c.ContIdx)
	}

	crm := p.AnalyzeCrossRegionValues(f, regions)

	for _, c := range regions {
		p.SpliceSubCFG(f, c, crm)
	}

	p.BuildDispatcher(f, regions, whileHeader, functionExit, lastBarrierAlloca)

	ssa.PruneUnreachable(f)
	dt := ssa.Build(f.Entry)

	p.WidenAllocas(f, regions)

	for _, c := range regions {
		p.RepairDominance(f, dt, c, crm)
	}

	latches := make(map[*ir.BasicBlock]bool, len(regions))
	for _, c := range regions {
		latches[c.ExitBB] = true
	}
	ssa.SimplifyLoop(f, whileHeader, latches)
}
