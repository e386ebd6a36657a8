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

import (
	"sort"

	"github.com/oleiade/lane"

	"github.com/Kerilk/pocl/ir"
)

// InsertPhiNodes places a Phi for v at every block in the iterated
// dominance frontier of defSites, the block set that already has a
// reaching definition of v (directly or through an earlier Phi), wiring
// each inserted Phi's incoming edges from the predecessor list. This is
// a general dominance-frontier placement step for when a block-cloning
// pass turns a single definition into several; subcfg.RepairDominance
// (§4.7) does not call it. Grounded on the teacher's insertPhiNodes (itself Cytron et al.'s
// algorithm), generalized to a single already-known value instead of
// scanning every register definition in the function.
func InsertPhiNodes(f *ir.Function, dt *DominatorTree, v ir.Value, defSites []*ir.BasicBlock, newValue func() ir.Value) map[int]*ir.Phi {
	inserted := make(map[int]*ir.Phi)
	hasDef := make(map[int]bool, len(defSites))

	work := lane.NewQueue()
	for _, bb := range defSites {
		hasDef[bb.ID] = true
		work.Enqueue(bb)
	}

	sort.Slice(defSites, func(i, j int) bool { return defSites[i].ID < defSites[j].ID })

	for work.Empty() == false {
		n, _ := work.Dequeue().(*ir.BasicBlock)
		for _, y := range dt.Frontier[n.ID] {
			if _, ok := inserted[y.ID]; ok {
				continue
			}
			incoming := make(map[*ir.BasicBlock]*ir.Value, len(y.Preds))
			for _, pred := range y.Preds {
				vv := v
				incoming[pred] = &vv
			}
			p := &ir.Phi{R: newValue(), V: incoming}
			f.EmitPhi(y, p)
			inserted[y.ID] = p

			if !hasDef[y.ID] {
				hasDef[y.ID] = true
				work.Enqueue(y)
			}
		}
	}
	return inserted
}
