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
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/Kerilk/pocl/ir"
)

func uniqueExitIDs(c *SubCFG) map[int64]bool {
	ids := make(map[int64]bool, len(c.Exits))
	for _, id := range c.Exits {
		ids[id] = true
	}
	return ids
}

// ReplicateSubCFG wraps c's region in its own work-item loop nest and
// stitches the result into the rest of the function, then splices in the
// cross-region loads the region's escaping uses need. It is a thin
// wrapper over StructureSubCFG and SpliceSubCFG kept for callers that
// don't need cross-region analysis sequenced between the two — see
// run.go's runCBS for why those callers must not use it: allocateWideSlot
// reads c.ContIdx, which StructureSubCFG is what actually assigns, so
// AnalyzeCrossRegionValues must run after every region's StructureSubCFG
// and before any region's SpliceSubCFG, not wrapped around a single
// region at a time.
func (p *Pass) ReplicateSubCFG(f *ir.Function, c *SubCFG, crm *CrossRegionMap, lastBarrierAlloca ir.Value, whileHeader *ir.BasicBlock, sizes LocalSizes, dim int) {
	p.StructureSubCFG(f, c, lastBarrierAlloca, whileHeader, sizes, dim)
	p.SpliceSubCFG(f, c, crm)
}

// StructureSubCFG performs §4.6's steps 1-4: an exit stub per distinct
// barrier this region can exit to, a load_bb that is the loop body's
// entry point, the work-item loop nest around the region body, and a
// pre_header outside that nest. It assigns c.ContIdx, c.EntryBB,
// c.ExitBB, c.LoadBB and c.PreHeader, all of which SpliceSubCFG and
// AnalyzeCrossRegionValues's wide-slot allocation depend on.
//
// The original source clones the region's blocks into a separate
// NewBlocks twin before wrapping them, since it must keep rewriting the
// rest of the (still being discovered) function around the pristine
// original; this implementation discovers every region up front with
// disjoint block sets (DiscoverSubCFGs never assigns a block to more
// than one SubCFG), so there is nothing left to preserve a pristine copy
// of — c.NewBlocks is populated as an identity map onto c.BlockList
// rather than a real clone, a simplification recorded in DESIGN.md.
func (p *Pass) StructureSubCFG(f *ir.Function, c *SubCFG, lastBarrierAlloca ir.Value, whileHeader *ir.BasicBlock, sizes LocalSizes, dim int) {
	for _, bb := range c.BlockList {
		c.NewBlocks[bb] = bb
	}

	// step 1: exit stubs, one per distinct barrier this region can exit to.
	stubs := make(map[int64]*ir.BasicBlock, len(c.Exits))
	for id := range uniqueExitIDs(c) {
		stub := f.CreateBlock("subcfg.exit")
		idConst := emitConst(f, stub, id)
		f.Emit(stub, &ir.Instr{Kind: ir.KStore, Store: &ir.Store{V: idConst, Ptr: lastBarrierAlloca, Size: 8}})
		stubs[id] = stub
	}
	for _, bb := range c.BlockList {
		br, ok := bb.Term.(*ir.Br)
		if !ok {
			continue
		}
		for k, t := range br.Targets {
			if id, isExit := c.Exits[t]; isExit {
				br.Targets[k] = stubs[id]
				stubs[id].Preds = append(stubs[id].Preds, bb)
			}
		}
		if br.Default != nil {
			if id, isExit := c.Exits[br.Default]; isExit {
				br.Default = stubs[id]
				stubs[id].Preds = append(stubs[id].Preds, bb)
			}
		}
	}

	// step 4 (built first since the loop nest needs a one-time entry
	// block to seed its induction Phis from): pre_header, outside the
	// loop nest.
	preHeader := f.CreateBlock("subcfg.preheader")

	// steps 2-3: the work-item loop nest around the region body, with
	// load_bb spliced in as the loop header's target — the loop body's
	// entry point, re-entered on every iteration, not a one-time
	// pre-header. preHeader above is what's re-entered exactly once.
	loadBB := f.CreateBlock("subcfg.load")
	nest := p.CreateLoopsAround(f, preHeader, whileHeader, sizes, dim)
	preHeader.Term = &ir.Br{Default: nest.Outer}

	nest.Body.Term = &ir.Br{Default: loadBB}
	loadBB.Preds = append(loadBB.Preds, nest.Body)
	loadBB.Term = &ir.Br{Default: c.BodyEntry}
	c.BodyEntry.ReplacePred(c.EntryBarrier, loadBB)

	innerLatch := nest.Latches[0]
	for _, stub := range stubs {
		stub.Term = &ir.Br{Default: innerLatch}
		innerLatch.Preds = append(innerLatch.Preds, stub)
	}
	outerLatch := nest.Latches[len(nest.Latches)-1]
	whileHeader.Preds = append(whileHeader.Preds, outerLatch)

	c.ContIdx = nest.ContIdx
	c.EntryBB = preHeader
	c.ExitBB = outerLatch
	c.LoadBB = loadBB
	c.PreHeader = preHeader

	// §4.2's vmap step, scoped to this region: any get_local_id(d) call
	// still in the body this region owns now reads the loop nest's real
	// induction variable instead of the unbacked global call.
	remapLocalIDCalls(f, c.Blocks, nest.IndVars)
}

// SpliceSubCFG performs §4.6's remaining steps 5-6 and 8: the
// cross-region loads c's escaping uses need (now resolvable, since every
// region's StructureSubCFG — and therefore every region's ContIdx — has
// already run by the time crm's wide slots were allocated), and the
// dead-PHI-edge cleanup the structural rewiring left behind.
func (p *Pass) SpliceSubCFG(f *ir.Function, c *SubCFG, crm *CrossRegionMap) {
	p.spliceCrossRegionLoads(f, c, crm, c.LoadBB, c.PreHeader)
	pruneDeadPhiEdges(c)
}

// spliceCrossRegionLoads rewrites every use, inside c's blocks, of a value
// that is defined outside c and that the cross-region analysis assigned a
// backing slot to (uses in the defining region keep the value itself, so
// the store that fills the slot reads the real value): a wide slot gets
// one GEP+load in load_bb indexed by c.ContIdx; a uniform (1-slot) slot
// gets one load in pre_header. Each is emitted once per region and reused
// for every use within it.
func (p *Pass) spliceCrossRegionLoads(f *ir.Function, c *SubCFG, crm *CrossRegionMap, loadBB, preHeader *ir.BasicBlock) {
	loaded := make(map[ir.Value]ir.Value)

	ForEachUse(f, func(bb *ir.BasicBlock, use *ir.Value) {
		if !c.Blocks[bb] {
			return
		}
		slot, ok := crm.Slots[*use]
		if !ok {
			return
		}
		if c.Blocks[f.BlockOf(*use)] {
			return
		}
		if v, ok := loaded[*use]; ok {
			*use = v
			return
		}

		var v ir.Value
		if slot.Uniform {
			zero := emitConst(f, preHeader, 0)
			v = p.LoadFromAlloca(f, preHeader, slot.Alloca, 8, zero)
			if replicas := p.tags.contReplica[*use]; len(replicas) > 0 {
				for _, in := range topoSortContiguous(f, replicas) {
					f.Emit(loadBB, in)
				}
			}
		} else {
			v = p.LoadFromAlloca(f, loadBB, slot.Alloca, 8, c.ContIdx)
		}
		loaded[*use] = v
		*use = v
	})
}

// pruneDeadPhiEdges drops every Phi incoming entry in c's blocks whose
// recorded predecessor is not actually in the block's current Preds list
// — the cleanup every block-retargeting step above can leave behind.
func pruneDeadPhiEdges(c *SubCFG) {
	for bb := range c.Blocks {
		actual := make(map[*ir.BasicBlock]bool, len(bb.Preds))
		for _, p := range bb.Preds {
			actual[p] = true
		}
		for _, phi := range bb.Phis {
			for from := range phi.V {
				if !actual[from] {
					delete(phi.V, from)
				}
			}
		}
	}
}

// topoSortContiguous orders a recorded set of "contiguous" instructions
// (values re-materializable from the work-item index plus a small set of
// uniform predecessors) so dependencies precede uses, via gonum's
// topological sort over the dependency edges between them. This is only
// reachable when the disabled dontArrayifyContiguousValues optimization
// populates tags.contReplica (see DESIGN.md open question); with it off
// every caller passes an empty slice and this is never invoked in
// practice, but the call site and the sort itself are real.
func topoSortContiguous(f *ir.Function, instrs []*ir.Instr) []*ir.Instr {
	if len(instrs) == 0 {
		return nil
	}

	g := simple.NewDirectedGraph()
	nodeOf := make(map[ir.Value]graph.Node, len(instrs))
	instrOf := make(map[int64]*ir.Instr, len(instrs))

	for _, in := range instrs {
		n := g.NewNode()
		g.AddNode(n)
		nodeOf[in.Def] = n
		instrOf[n.ID()] = in
	}
	for _, in := range instrs {
		for _, u := range in.Usages() {
			if dep, ok := nodeOf[*u]; ok {
				g.SetEdge(g.NewEdge(dep, nodeOf[in.Def]))
			}
		}
	}

	order, err := topo.Sort(g)
	if err != nil {
		return instrs
	}
	out := make([]*ir.Instr, 0, len(order))
	for _, n := range order {
		out = append(out, instrOf[n.ID()])
	}
	return out
}
