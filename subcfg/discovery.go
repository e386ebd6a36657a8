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
	"github.com/oleiade/lane"

	"github.com/Kerilk/pocl/ir"
)

// SubCFG is one barrier-bounded region: the set of blocks reachable from
// its entry barrier without crossing another barrier, plus the state
// ReplicateSubCFG fills in once the region is wrapped in its own
// work-item loop nest.
type SubCFG struct {
	EntryID      int64
	EntryBarrier *ir.BasicBlock
	// BodyEntry is entry_barrier's single successor — the block the
	// region's work-item loop body branches into, fixed at discovery
	// time regardless of the DFS order the rest of Blocks is found in.
	BodyEntry *ir.BasicBlock

	Blocks    map[*ir.BasicBlock]bool
	BlockList []*ir.BasicBlock
	Exits     map[*ir.BasicBlock]int64

	NewBlocks map[*ir.BasicBlock]*ir.BasicBlock

	EntryBB, ExitBB, LoadBB, PreHeader *ir.BasicBlock
	ContIdx                            ir.Value
}

func (c *SubCFG) addBlock(bb *ir.BasicBlock) {
	if c.Blocks[bb] {
		return
	}
	c.Blocks[bb] = true
	c.BlockList = append(c.BlockList, bb)
}

// DiscoverSubCFGs builds one SubCFG per non-exit barrier in bm by forward
// DFS from the barrier's successor, stopping at the next barrier(s).
func DiscoverSubCFGs(bm *BarrierMap) []*SubCFG {
	var out []*SubCFG
	for _, barrier := range bm.Barriers {
		if bm.Exits[barrier] {
			continue
		}
		succs := barrier.Successors()
		if len(succs) != 1 {
			invariant(nil, "barrier block bb%d must have exactly one successor, has %d", barrier.ID, len(succs))
		}
		c := &SubCFG{
			EntryID:      bm.ID[barrier],
			EntryBarrier: barrier,
			BodyEntry:    succs[0],
			Blocks:       make(map[*ir.BasicBlock]bool),
			Exits:        make(map[*ir.BasicBlock]int64),
			NewBlocks:    make(map[*ir.BasicBlock]*ir.BasicBlock),
		}
		discoverOne(c, bm)
		out = append(out, c)
	}
	return out
}

// discoverOne's barrier check runs before its visited check, and visited
// is never pre-seeded with c.EntryBarrier: a back edge from inside the
// region to its own entry barrier (a source-level loop whose body
// crosses one barrier) must still be recorded as a genuine self-exit in
// c.Exits, not silently dropped as "already seen". Only non-barrier
// blocks dedupe against visited — a barrier reached by more than one
// path inside the region is harmlessly recorded into c.Exits again with
// the same id each time.
func discoverOne(c *SubCFG, bm *BarrierMap) {
	stack := lane.NewStack()
	stack.Push(c.BodyEntry)
	visited := map[*ir.BasicBlock]bool{}

	for !stack.Empty() {
		bb, _ := stack.Pop().(*ir.BasicBlock)

		if bm.IsBarrier(bb) {
			id := bm.ID[bb]
			if id == EntryBarrierID {
				invariant(nil, "subcfg rooted at bb%d reaches the function entry barrier at bb%d, which is not a valid exit", c.EntryBarrier.ID, bb.ID)
			}
			c.Exits[bb] = id
			continue
		}

		if visited[bb] {
			continue
		}
		visited[bb] = true

		c.addBlock(bb)
		for _, s := range bb.Successors() {
			stack.Push(s)
		}
	}
}
