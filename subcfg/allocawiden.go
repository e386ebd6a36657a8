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

// WidenAllocas rewrites every non-arrayified alloca in f.Entry whose users
// span more than one discovered region into a wide, NumArrayElements-slot
// alloca, indexed per region by a GEP at the top of that region's load_bb.
// An alloca entirely confined to one region (or used nowhere at all) is
// left alone — §4.1's ArrayifyAllocasInEntry already handled allocas whose
// users are confined to a single work-item loop before replication; this
// is the later, coarser pass §4.9 runs once every region exists.
func (p *Pass) WidenAllocas(f *ir.Function, regions []*SubCFG) {
	owner := make(map[*ir.BasicBlock]*SubCFG, len(regions)*4)
	for _, c := range regions {
		for bb := range c.Blocks {
			owner[bb] = c
		}
	}

	for _, in := range append([]*ir.Instr(nil), f.Entry.Instr...) {
		if in.Kind != ir.KAlloca || p.tags.isArrayified(in.Def) {
			continue
		}

		users := make(map[*SubCFG]bool)
		anyOutside := false
		ForEachUse(f, func(bb *ir.BasicBlock, use *ir.Value) {
			if *use != in.Def {
				return
			}
			if c, ok := owner[bb]; ok {
				users[c] = true
			} else {
				anyOutside = true
			}
		})
		if len(users) <= 1 && !anyOutside {
			continue
		}

		old := in.Def
		elemSize := in.Alloca.ElemSize
		count := in.Alloca.Count
		if count > 1 {
			p.warn("alloca %q is an array of %d elements; widening to [%d x %d], non-constant inner-array indexing is not revalidated", in.Alloca.Name, count, count, p.Opts.NumArrayElements)
		}

		wide := f.NewValue()
		in.Def = wide
		in.Alloca = &ir.Alloca{
			R: wide, ElemSize: elemSize * count, Count: uint32(p.Opts.NumArrayElements),
			Align: p.Opts.DefaultAlignment, Name: in.Alloca.Name,
		}
		p.tags.markArrayified(wide)
		p.tags.slots[wide] = p.Opts.NumArrayElements
		f.Redefine(old, wide, f.Entry, in)

		geps := make(map[*SubCFG]ir.Value, len(users))
		for c := range users {
			gep := f.NewValue()
			gepInstr := &ir.Instr{Kind: ir.KGEP, Def: gep, GEP: &ir.GEP{R: gep, Base: wide, Index: c.ContIdx, Stride: elemSize * count}}
			f.EmitAfter(c.LoadBB, nil, gepInstr)
			p.tags.markArrayified(gep)
			p.tags.baseAlloca[gep] = wide
			geps[c] = gep
		}

		ForEachUse(f, func(bb *ir.BasicBlock, use *ir.Value) {
			if *use != old {
				return
			}
			if c, ok := owner[bb]; ok {
				*use = geps[c]
				return
			}
			*use = wide
		})
	}
}
