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
	"github.com/oleiade/lane"

	"github.com/Kerilk/pocl/ir"
)

// BlockIter walks the dominator tree in postorder, the same traversal
// shape the teacher's BasicBlockIter uses: push the root, then repeatedly
// push an unvisited dominator-tree child of the block on top of the stack
// until none remain, at which point that block is yielded and popped.
type BlockIter struct {
	dt *DominatorTree
	s  *lane.Stack
	v  map[int]struct{}
	b  *ir.BasicBlock
}

func NewPostOrderIter(dt *DominatorTree) *BlockIter {
	s := lane.NewStack()
	s.Push(dt.Root)
	return &BlockIter{
		dt: dt,
		s:  s,
		v:  map[int]struct{}{dt.Root.ID: {}},
	}
}

func (it *BlockIter) Next() bool {
	for !it.s.Empty() {
		tail := true
		this := it.s.Head().(*ir.BasicBlock)

		for _, c := range it.dt.DominatorOf[this.ID] {
			if _, ok := it.v[c.ID]; !ok {
				tail = false
				it.v[c.ID] = struct{}{}
				it.s.Push(c)
				break
			}
		}

		if tail {
			it.b, _ = it.s.Pop().(*ir.BasicBlock)
			return true
		}
	}
	it.b = nil
	return false
}

func (it *BlockIter) Block() *ir.BasicBlock {
	return it.b
}

// PostOrder returns every block reachable from dt's root in dominator-tree
// postorder.
func PostOrder(dt *DominatorTree) []*ir.BasicBlock {
	it := NewPostOrderIter(dt)
	out := make([]*ir.BasicBlock, 0, len(dt.DominatedBy)+1)
	for it.Next() {
		out = append(out, it.Block())
	}
	return out
}

// ReversePostOrder returns PostOrder reversed — the order renaming,
// dispatcher construction and most forward data-flow passes want to
// process blocks in.
func ReversePostOrder(dt *DominatorTree) []*ir.BasicBlock {
	po := PostOrder(dt)
	out := make([]*ir.BasicBlock, len(po))
	for i, bb := range po {
		out[len(po)-1-i] = bb
	}
	return out
}

// WalkSuccessors runs a forward depth-first search over bb's CFG
// successors starting at root, visiting each reachable block exactly
// once and calling visit on it. PruneUnreachable uses it to find the
// blocks reachable from the function entry.
func WalkSuccessors(root *ir.BasicBlock, visit func(*ir.BasicBlock)) {
	s := lane.NewStack()
	s.Push(root)
	seen := map[int]bool{root.ID: true}

	for !s.Empty() {
		bb, _ := s.Pop().(*ir.BasicBlock)
		visit(bb)
		for _, succ := range bb.Successors() {
			if !seen[succ.ID] {
				seen[succ.ID] = true
				s.Push(succ)
			}
		}
	}
}
