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
	"github.com/Kerilk/pocl/ir"
	"github.com/Kerilk/pocl/ssa"
)

// RepairDominance restores dominance inside one replicated SubCFG: a back
// edge in the original kernel (a loop whose body re-enters across what is
// now a barrier boundary) can leave an operand's definition not dominating
// its use even though the original code was valid SSA. For each such
// operand this finds or creates a backing slot and rewrites the use to a
// load from it.
//
// load_bb sits between the work-item loop's header and the region body
// (see replicate.go), so it is re-entered on every iteration of the loop,
// not just reached once before it: a load emitted there is fresh for the
// iteration currently executing, and it dominates every block in
// c.Blocks, since nothing in the region is reachable except through it.
// The per-use merge PHI the two-pass clone-then-fix model needs (to blend
// the load_bb-reached value with whatever reached the use on a path that
// bypassed load_bb) has no work to do here and is omitted; see DESIGN.md.
func (p *Pass) RepairDominance(f *ir.Function, dt *ssa.DominatorTree, c *SubCFG, crm *CrossRegionMap) {
	cache := make(map[ir.Value]ir.Value)

	for _, bb := range c.BlockList {
		for _, ph := range bb.Phis {
			for pred, vp := range ph.V {
				p.repairOperand(f, dt, c, crm, cache, vp, pred)
			}
		}
		for _, in := range bb.Instr {
			for _, u := range in.Usages() {
				p.repairOperand(f, dt, c, crm, cache, u, bb)
			}
		}
	}
}

func (p *Pass) repairOperand(f *ir.Function, dt *ssa.DominatorTree, c *SubCFG, crm *CrossRegionMap, cache map[ir.Value]ir.Value, use *ir.Value, useBB *ir.BasicBlock) {
	v := *use
	if !v.Valid() {
		return
	}
	defBB := f.BlockOf(v)
	if defBB == nil {
		return // a constant or an Undef operand, never non-dominating
	}
	if dt.Dominates(defBB, useBB) {
		return
	}

	if phi := f.PhiOf(v); phi != nil {
		for pred, incoming := range phi.V {
			if ib := f.BlockOf(*incoming); ib != nil && dt.Dominates(ib, pred) {
				return
			}
		}
	}

	if loaded, ok := cache[v]; ok {
		*use = loaded
		return
	}

	var alloca ir.Value
	uniform := false
	if slot, ok := crm.Slots[v]; ok {
		alloca, uniform = slot.Alloca, slot.Uniform
	} else {
		def := f.DefOf(v)
		idx := c.ContIdx
		alloca = p.ArrayifyInstruction(f, defBB, def, v, 8, idx, p.Opts.NumArrayElements, "ssarepair")
	}

	var loaded ir.Value
	if uniform {
		zero := emitConst(f, c.PreHeader, 0)
		loaded = p.LoadFromAlloca(f, c.PreHeader, alloca, 8, zero)
	} else {
		loaded = p.LoadFromAlloca(f, c.LoadBB, alloca, 8, c.ContIdx)
	}

	cache[v] = loaded
	*use = loaded
}
