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

package ssa

import "github.com/Kerilk/pocl/ir"

// PruneUnreachable walks f's CFG forward from its entry block and drops
// every block that walk never reaches, unlinking it from any surviving
// predecessor/Phi bookkeeping first. The teacher's own DCE.unreachable is
// a stub ("// TODO: remove unreachable blocks"); this pass fills in the
// one piece of dead-code elimination the dispatcher construction in
// subcfg actually depends on (§4.8 runs this before rebuilding the
// dominator tree, since the dispatcher's unreachable default case and the
// pre-dispatcher unconditional jumps it replaces leave stale blocks
// behind).
func PruneUnreachable(f *ir.Function) (removed []*ir.BasicBlock) {
	reachable := map[int]bool{f.Entry.ID: true}
	WalkSuccessors(f.Entry, func(bb *ir.BasicBlock) {
		reachable[bb.ID] = true
	})

	var keep []*ir.BasicBlock
	for _, bb := range f.Blocks {
		if reachable[bb.ID] {
			keep = append(keep, bb)
			continue
		}
		removed = append(removed, bb)
	}
	f.Blocks = keep

	for _, bb := range keep {
		var preds []*ir.BasicBlock
		for _, p := range bb.Preds {
			if reachable[p.ID] {
				preds = append(preds, p)
			}
		}
		bb.Preds = preds
		for _, p := range bb.Phis {
			for from := range p.V {
				if !reachable[from.ID] {
					delete(p.V, from)
				}
			}
		}
	}
	return removed
}

type crEdge struct {
	from, to *ir.BasicBlock
}

// SplitCriticalEdges inserts an empty relay block on every edge that runs
// from a block with more than one successor to a block with more than one
// predecessor, the same "PhiProp wants a critical-edge-free CFG" rationale
// the teacher's SplitCritical pass states — here it is SubCFG replication
// and dominance repair (§4.6, §4.7) that need it, since cloning a block
// with a critical edge into it would otherwise duplicate a Phi input in a
// way that cannot be disambiguated by predecessor alone.
func SplitCriticalEdges(f *ir.Function) int {
	var edges []crEdge
	for _, bb := range f.Blocks {
		if len(bb.Preds) <= 1 {
			continue
		}
		for _, p := range bb.Preds {
			if len(p.Successors()) > 1 {
				edges = append(edges, crEdge{from: p, to: bb})
			}
		}
	}

	for _, e := range edges {
		relay := f.CreateBlock("split.critical")
		relay.Term = &ir.Br{Default: e.to}
		relay.Preds = []*ir.BasicBlock{e.from}

		if br, ok := e.from.Term.(*ir.Br); ok {
			if br.Default == e.to {
				br.Default = relay
			}
			for k, t := range br.Targets {
				if t == e.to {
					br.Targets[k] = relay
				}
			}
		}

		e.to.ReplacePred(e.from, relay)
	}
	return len(edges)
}

// MergeBlocks folds every block with a single unconditional successor that
// has exactly one predecessor into its predecessor, mirroring the
// teacher's BlockMerge pass; it runs to a fixed point.
func MergeBlocks(f *ir.Function) {
	for {
		changed := false
		for _, bb := range f.Blocks {
			br, ok := bb.Term.(*ir.Br)
			if !ok || len(br.Targets) != 0 || br.Default == nil {
				continue
			}
			succ := br.Default
			if len(succ.Preds) != 1 || len(succ.Phis) != 0 || succ == bb {
				continue
			}

			bb.Instr = append(bb.Instr, succ.Instr...)
			bb.Term = succ.Term

			for _, next := range succ.Successors() {
				next.ReplacePred(succ, bb)
			}
			f.RemoveBlock(succ)
			changed = true
		}
		if !changed {
			return
		}
	}
}

// SimplifyLoop canonicalizes a loop header so it has a single preheader
// predecessor outside the loop, inserting one if the header currently has
// more than one non-latch predecessor. This is the structural-cleanup
// counterpart to BlockMerge/SplitCritical the dispatcher's outer while
// loop runs once construction finishes (§4.8's "Finally" step).
func SimplifyLoop(f *ir.Function, header *ir.BasicBlock, latches map[*ir.BasicBlock]bool) *ir.BasicBlock {
	var outside []*ir.BasicBlock
	for _, p := range header.Preds {
		if !latches[p] {
			outside = append(outside, p)
		}
	}
	if len(outside) <= 1 {
		if len(outside) == 1 {
			return outside[0]
		}
		return nil
	}

	pre := f.CreateBlock("loop.preheader")
	pre.Term = &ir.Br{Default: header}
	for _, p := range outside {
		if br, ok := p.Term.(*ir.Br); ok {
			if br.Default == header {
				br.Default = pre
			}
			for k, t := range br.Targets {
				if t == header {
					br.Targets[k] = pre
				}
			}
		}
		pre.Preds = append(pre.Preds, p)
	}

	// header keeps its latch predecessors and gains pre as its single
	// non-latch predecessor; any Phi incoming value recorded against one
	// of the outside blocks is reassigned to pre on the first sighting and
	// dropped on the rest, since pre now speaks for all of them (callers
	// with genuinely divergent per-predecessor values must pre-merge
	// before calling SimplifyLoop — the dispatcher construction this
	// serves always has exactly one non-latch predecessor in practice).
	var newPreds []*ir.BasicBlock
	for _, p := range header.Preds {
		if latches[p] {
			newPreds = append(newPreds, p)
		}
	}
	newPreds = append(newPreds, pre)
	header.Preds = newPreds

	for _, phi := range header.Phis {
		var assigned bool
		for _, p := range outside {
			if v, ok := phi.V[p]; ok {
				delete(phi.V, p)
				if !assigned {
					phi.V[pre] = v
					assigned = true
				}
			}
		}
	}
	return pre
}
