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

import "github.com/Kerilk/pocl/ir"

// CrossRegionSlot records, for one value defined in a SubCFG and used in
// another, the backing slot chosen for it and how to read from it.
type CrossRegionSlot struct {
	Alloca   ir.Value
	Uniform  bool // true for case 3: a single-slot alloca, loaded once in pre_header
	Reused   bool // true for cases 1/2: an already-arrayified alloca/GEP was reused rather than allocated
}

// CrossRegionMap is the result of AnalyzeCrossRegionValues: the chosen
// slot for every value that escapes its defining SubCFG.
type CrossRegionMap struct {
	Slots map[ir.Value]*CrossRegionSlot
}

// AnalyzeCrossRegionValues finds every instruction defined in one
// discovered SubCFG with at least one user in a different SubCFG (or in
// no SubCFG at all, i.e. past the dispatcher in the function's tail) and
// assigns it a backing slot per §4.5's four cases, in priority order.
func (p *Pass) AnalyzeCrossRegionValues(f *ir.Function, regions []*SubCFG) *CrossRegionMap {
	owner := make(map[*ir.BasicBlock]*SubCFG, len(regions)*4)
	for _, c := range regions {
		for bb := range c.Blocks {
			owner[bb] = c
		}
	}

	crm := &CrossRegionMap{Slots: make(map[ir.Value]*CrossRegionSlot)}

	for _, c := range regions {
		for _, bb := range c.BlockList {
			for _, in := range bb.Instr {
				if !in.Def.Valid() {
					continue
				}
				if p.escapesRegion(f, in.Def, owner, c) {
					crm.Slots[in.Def] = p.classifyCrossRegionValue(f, bb, in, owner, c)
				}
			}
			for _, ph := range bb.Phis {
				if p.escapesRegion(f, ph.R, owner, c) {
					if _, ok := crm.Slots[ph.R]; !ok {
						crm.Slots[ph.R] = p.allocateWideSlot(f, bb, nil, ph.R, c)
					}
				}
			}
		}
	}
	return crm
}

func (p *Pass) escapesRegion(f *ir.Function, v ir.Value, owner map[*ir.BasicBlock]*SubCFG, home *SubCFG) bool {
	escapes := false
	ForEachUse(f, func(bb *ir.BasicBlock, use *ir.Value) {
		if *use != v {
			return
		}
		if owner[bb] != home {
			escapes = true
		}
	})
	return escapes
}

// classifyCrossRegionValue implements §4.5's four cases, in priority
// order: reuse a loop-state load's alloca, reuse an arrayified GEP's base
// alloca, hoist a uniform value to a 1-slot alloca, or fall back to a
// fresh wide alloca with an immediate store.
func (p *Pass) classifyCrossRegionValue(f *ir.Function, bb *ir.BasicBlock, in *ir.Instr, owner map[*ir.BasicBlock]*SubCFG, home *SubCFG) *CrossRegionSlot {
	// case 1: I is a load from an alloca already tagged arrayified — a
	// loop-state load — reuse that alloca directly. The loaded-from
	// pointer is itself a GEP, not the backing alloca, whenever the slot
	// is N-slot rather than uniform (LoadFromAlloca tags the GEP it
	// emits, not just the alloca it's based on), so resolve through
	// baseAlloca the same way case 2 does before falling back to treating
	// the pointer as already the alloca.
	if in.Kind == ir.KLoad && p.tags.isArrayified(in.Load.Ptr) {
		if base, ok := p.tags.baseAlloca[in.Load.Ptr]; ok {
			return &CrossRegionSlot{Alloca: base, Reused: true}
		}
		return &CrossRegionSlot{Alloca: in.Load.Ptr, Reused: true}
	}

	// case 2: I is a GEP already tagged arrayified — reuse its base
	// alloca.
	if in.Kind == ir.KGEP && p.tags.isArrayified(in.Def) {
		if base, ok := p.tags.baseAlloca[in.Def]; ok {
			return &CrossRegionSlot{Alloca: base, Reused: true}
		}
	}

	// case 3: uniform — a 1-slot alloca, still indexed trivially (idx is
	// always 0 for a uniform slot).
	if p.Uniform != nil && p.Uniform.IsUniform(f, in.Def) {
		zero := emitConst(f, f.Entry, 0)
		alloca := p.ArrayifyInstruction(f, bb, in, in.Def, 8, zero, 1, "uniform")
		p.tags.baseUniform[in.Def] = alloca
		return &CrossRegionSlot{Alloca: alloca, Uniform: true}
	}

	// case 4: fall back to a wide alloca with an immediate store.
	return p.allocateWideSlot(f, bb, in, in.Def, home)
}

func (p *Pass) allocateWideSlot(f *ir.Function, bb *ir.BasicBlock, after *ir.Instr, def ir.Value, home *SubCFG) *CrossRegionSlot {
	idx := home.ContIdx
	alloca := p.ArrayifyInstruction(f, bb, after, def, 8, idx, p.Opts.NumArrayElements, "crossregion")
	return &CrossRegionSlot{Alloca: alloca}
}
