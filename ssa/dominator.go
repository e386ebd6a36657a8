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

// Package ssa provides the dominance, iteration order, and structural
// CFG-rewriting primitives the subcfg pass needs: a Lengauer-Tarjan
// dominator tree with dominance frontiers, postorder/reverse-postorder
// block iteration, a reachability matrix, and a handful of block-level
// rewrites (critical-edge splitting, block merging, unreachable-block
// pruning, loop preheader canonicalization).
package ssa

import "github.com/Kerilk/pocl/ir"

// This is an implementation of the Lengauer-Tarjan algorithm described in
// https://doi.org/10.1145%2F357062.357071, adapted from a register-machine
// CFG to ir.BasicBlock.

type ltNode struct {
	semi     int
	node     *ir.BasicBlock
	dom      *ltNode
	label    *ltNode
	parent   *ltNode
	ancestor *ltNode
	pred     []*ltNode
	bucket   map[*ltNode]struct{}
}

type lengauerTarjan struct {
	nodes  []*ltNode
	vertex map[int]int
}

func newLengauerTarjan() *lengauerTarjan {
	return &lengauerTarjan{vertex: make(map[int]int)}
}

func (lt *lengauerTarjan) dfs(bb *ir.BasicBlock) {
	i := len(lt.nodes)
	lt.vertex[bb.ID] = i

	p := &ltNode{
		semi:   i,
		node:   bb,
		bucket: make(map[*ltNode]struct{}),
	}
	p.label = p
	lt.nodes = append(lt.nodes, p)

	for _, w := range bb.Successors() {
		idx, ok := lt.vertex[w.ID]
		if !ok {
			lt.dfs(w)
			idx = lt.vertex[w.ID]
			lt.nodes[idx].parent = p
		}
		q := lt.nodes[idx]
		q.pred = append(q.pred, p)
	}
}

func (lt *lengauerTarjan) eval(p *ltNode) *ltNode {
	if p.ancestor == nil {
		return p
	}
	lt.compress(p)
	return p.label
}

func (lt *lengauerTarjan) link(p, q *ltNode) {
	q.ancestor = p
}

func (lt *lengauerTarjan) compress(p *ltNode) {
	if p.ancestor.ancestor != nil {
		lt.compress(p.ancestor)
		if p.label.semi > p.ancestor.label.semi {
			p.label = p.ancestor.label
		}
		p.ancestor = p.ancestor.ancestor
	}
}

// DominatorTree holds the immediate-dominator relation plus the dominance
// frontier set every block needs for Phi placement, both computed by Build.
type DominatorTree struct {
	Root        *ir.BasicBlock
	DominatedBy map[int]*ir.BasicBlock
	DominatorOf map[int][]*ir.BasicBlock
	Frontier    map[int][]*ir.BasicBlock
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Build runs the Lengauer-Tarjan algorithm from root and then computes
// dominance frontiers with the standard Cytron-et-al. algorithm.
func Build(root *ir.BasicBlock) *DominatorTree {
	domby := make(map[int]*ir.BasicBlock)
	domof := make(map[int][]*ir.BasicBlock)

	lt := newLengauerTarjan()
	lt.dfs(root)

	for i := len(lt.nodes) - 1; i > 0; i-- {
		p := lt.nodes[i]
		var q *ltNode

		for _, v := range p.pred {
			q = lt.eval(v)
			p.semi = minInt(p.semi, q.semi)
		}

		lt.link(p.parent, p)
		lt.nodes[p.semi].bucket[p] = struct{}{}

		for v := range p.parent.bucket {
			if q = lt.eval(v); q.semi < v.semi {
				v.dom = q
			} else {
				v.dom = p.parent
			}
		}
		for v := range p.parent.bucket {
			delete(p.parent.bucket, v)
		}
	}

	for _, p := range lt.nodes[1:] {
		if p.dom.node.ID != lt.nodes[p.semi].node.ID {
			p.dom = p.dom.dom
		}
	}

	for _, p := range lt.nodes[1:] {
		domby[p.node.ID] = p.dom.node
		domof[p.dom.node.ID] = append(domof[p.dom.node.ID], p.node)
	}

	dt := &DominatorTree{
		Root:        root,
		DominatorOf: domof,
		DominatedBy: domby,
	}
	dt.Frontier = computeDominanceFrontier(dt, blocksOf(lt.nodes))
	return dt
}

func blocksOf(nodes []*ltNode) []*ir.BasicBlock {
	out := make([]*ir.BasicBlock, len(nodes))
	for i, n := range nodes {
		out[i] = n.node
	}
	return out
}

// computeDominanceFrontier is the standard Cytron/Ferrante/Rosen/Zadeck
// algorithm: for every block with two or more predecessors, walk each
// predecessor up its dominator chain until it reaches the block's
// immediate dominator, marking every block visited along the way.
func computeDominanceFrontier(dt *DominatorTree, blocks []*ir.BasicBlock) map[int][]*ir.BasicBlock {
	frontier := make(map[int][]*ir.BasicBlock)
	seen := make(map[int]map[int]bool)

	for _, bb := range blocks {
		if len(bb.Preds) < 2 {
			continue
		}
		idom := dt.DominatedBy[bb.ID]
		for _, pred := range bb.Preds {
			runner := pred
			for runner != nil && runner != idom {
				if seen[runner.ID] == nil {
					seen[runner.ID] = make(map[int]bool)
				}
				if !seen[runner.ID][bb.ID] {
					seen[runner.ID][bb.ID] = true
					frontier[runner.ID] = append(frontier[runner.ID], bb)
				}
				runner = dt.DominatedBy[runner.ID]
			}
		}
	}
	return frontier
}

// Dominates reports whether a dominates b in dt (inclusive of a == b).
func (dt *DominatorTree) Dominates(a, b *ir.BasicBlock) bool {
	for n := b; n != nil; n = dt.DominatedBy[n.ID] {
		if n == a {
			return true
		}
		if n == dt.Root {
			break
		}
	}
	return a == b
}
