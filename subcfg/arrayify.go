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

// ArrayifyValue emits, at the function's entry, a wide alloca of nSlots
// elements of elemSize bytes, and, at insertionPoint, a store of value
// into slot idx. A 1-slot alloca skips the GEP — the uniform-value path
// every later caller relies on to tell a trivially-indexed slot from a
// real per-work-item one.
func (p *Pass) ArrayifyValue(f *ir.Function, insertionPoint *ir.BasicBlock, value ir.Value, elemSize uint32, idx ir.Value, nSlots int, name string) ir.Value {
	alloca := f.NewValue()
	f.Emit(f.Entry, &ir.Instr{
		Kind: ir.KAlloca,
		Def:  alloca,
		Alloca: &ir.Alloca{
			R: alloca, ElemSize: elemSize, Count: uint32(nSlots),
			Align: p.Opts.DefaultAlignment, Name: name,
		},
	})
	p.tags.markArrayified(alloca)
	p.tags.slots[alloca] = nSlots

	dest := alloca
	if nSlots > 1 {
		gep := f.NewValue()
		f.Emit(insertionPoint, &ir.Instr{
			Kind: ir.KGEP, Def: gep,
			GEP: &ir.GEP{R: gep, Base: alloca, Index: idx, Stride: elemSize},
		})
		p.tags.markArrayified(gep)
		p.tags.baseAlloca[gep] = alloca
		dest = gep
	}
	f.Emit(insertionPoint, &ir.Instr{
		Kind:  ir.KStore,
		Store: &ir.Store{V: value, Ptr: dest, Size: elemSize},
	})
	return alloca
}

// ArrayifyInstruction arrayifies inst's result, inserting the store
// immediately after inst in bb — or at the front of bb's instruction list
// if after is nil, the insertion point used when the value being
// arrayified is a Phi result rather than an ordinary instruction (a Phi
// is never itself a member of BasicBlock.Instr).
func (p *Pass) ArrayifyInstruction(f *ir.Function, bb *ir.BasicBlock, after *ir.Instr, def ir.Value, elemSize uint32, idx ir.Value, nSlots int, name string) ir.Value {
	alloca := f.NewValue()
	f.Emit(f.Entry, &ir.Instr{
		Kind: ir.KAlloca, Def: alloca,
		Alloca: &ir.Alloca{R: alloca, ElemSize: elemSize, Count: uint32(nSlots), Align: p.Opts.DefaultAlignment, Name: name},
	})
	p.tags.markArrayified(alloca)
	p.tags.slots[alloca] = nSlots

	dest := alloca
	insertAfter := after
	if nSlots > 1 {
		gep := f.NewValue()
		gepInstr := &ir.Instr{Kind: ir.KGEP, Def: gep, GEP: &ir.GEP{R: gep, Base: alloca, Index: idx, Stride: elemSize}}
		f.EmitAfter(bb, insertAfter, gepInstr)
		p.tags.markArrayified(gep)
		p.tags.baseAlloca[gep] = alloca
		dest = gep
		insertAfter = gepInstr
	}
	store := &ir.Instr{Kind: ir.KStore, Store: &ir.Store{V: def, Ptr: dest, Size: elemSize}}
	f.EmitAfter(bb, insertAfter, store)
	return alloca
}

// LoadFromAlloca loads from alloca at idx, emitting and tagging an
// in-bounds GEP first if alloca is array-typed, or loading directly if it
// is a 1-slot uniform alloca.
func (p *Pass) LoadFromAlloca(f *ir.Function, ip *ir.BasicBlock, alloca ir.Value, elemSize uint32, idx ir.Value) ir.Value {
	ptr := alloca
	if p.tags.slots[alloca] > 1 {
		gep := f.NewValue()
		f.Emit(ip, &ir.Instr{Kind: ir.KGEP, Def: gep, GEP: &ir.GEP{R: gep, Base: alloca, Index: idx, Stride: elemSize}})
		p.tags.markArrayified(gep)
		p.tags.baseAlloca[gep] = alloca
		ptr = gep
	}
	v := f.NewValue()
	f.Emit(ip, &ir.Instr{Kind: ir.KLoad, Def: v, Load: &ir.Load{R: v, Ptr: ptr, Size: elemSize}})
	return v
}

// ArrayifyAllocasInEntry widens every non-arrayified alloca in entry whose
// every user lies inside loopBlocks — a region's own per-work-item loop
// iterates once per work item, so even a value that never leaves that one
// region still needs a private slot per work item, the same reason a
// value that does escape needs one (see WidenAllocas, §4.9, for the
// multi-region case this leaves alone). The widened alloca's GEP is
// emitted at insertAt, which the caller gives as a block that both
// dominates every use in loopBlocks and is re-entered every iteration of
// that region's own loop — a CBS region's load_bb.
func (p *Pass) ArrayifyAllocasInEntry(f *ir.Function, entry *ir.BasicBlock, loopBlocks map[*ir.BasicBlock]bool, insertAt *ir.BasicBlock, idx ir.Value) {
	var candidates []*ir.Instr
	for _, in := range entry.Instr {
		if in.Kind != ir.KAlloca || p.tags.isArrayified(in.Def) {
			continue
		}
		if usersAllIn(f, in.Def, loopBlocks) {
			candidates = append(candidates, in)
		}
	}

	for _, in := range candidates {
		old := in.Def
		nSlots := p.Opts.NumArrayElements
		elemSize := in.Alloca.ElemSize
		count := in.Alloca.Count
		if count > 1 {
			// preserve the existing array-of-k shape, nesting [k] x
			// nSlots, with the documented caveat: correctness of
			// non-constant-index uses into the inner array is not
			// re-validated here, matching the source.
			p.warn("alloca %q is an array of %d elements; widening to [%d x %d], non-constant inner-array indexing is not revalidated", in.Alloca.Name, count, count, nSlots)
		}

		wide := f.NewValue()
		in.Kind = ir.KAlloca
		in.Def = wide
		in.Alloca = &ir.Alloca{R: wide, ElemSize: elemSize * count, Count: uint32(nSlots), Align: p.Opts.DefaultAlignment, Name: in.Alloca.Name}
		p.tags.markArrayified(wide)
		p.tags.slots[wide] = nSlots
		f.Redefine(old, wide, entry, in)

		gep := f.NewValue()
		gepInstr := &ir.Instr{Kind: ir.KGEP, Def: gep, GEP: &ir.GEP{R: gep, Base: wide, Index: idx, Stride: elemSize * count}}
		f.EmitAfter(insertAt, nil, gepInstr)
		p.tags.markArrayified(gep)
		p.tags.baseAlloca[gep] = wide

		ForEachUse(f, func(bb *ir.BasicBlock, use *ir.Value) {
			if *use == old {
				*use = gep
			}
		})
	}
}
