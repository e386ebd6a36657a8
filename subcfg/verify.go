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

// Verify checks that every PHI's incoming blocks are exactly its block's
// recorded predecessors and that every instruction operand resolves to a
// real definition. It does not check arrayified GEP indices or where a
// region's exit_bb branches. It also checks, via a reachability
// matrix rather than a fresh CFG walk, that every block left in f after
// transformation is actually reachable from f.Entry — PruneUnreachable
// should have already guaranteed this, so a failure here points at a
// rewrite that introduced a block outside that pass's reach. Any
// violation panics via invariant, matching §7's "verifier failure after
// transform: fatal".
func (p *Pass) Verify(f *ir.Function) {
	if f.Entry != nil {
		rm := ssa.BuildReachabilityMatrix(f.Blocks)
		for _, bb := range f.Blocks {
			if bb != f.Entry && !rm.Reachable(f.Entry, bb) {
				invariant(f, "bb%d is not reachable from entry after transformation", bb.ID)
			}
		}
	}

	for _, bb := range f.Blocks {
		preds := make(map[*ir.BasicBlock]bool, len(bb.Preds))
		for _, pr := range bb.Preds {
			preds[pr] = true
		}
		for _, ph := range bb.Phis {
			if len(ph.V) != len(preds) {
				invariant(f, "phi %s in bb%d has %d incoming edges, block has %d predecessors", ph.R, bb.ID, len(ph.V), len(preds))
			}
			for from := range ph.V {
				if !preds[from] {
					invariant(f, "phi %s in bb%d has an incoming edge from bb%d, which is not a predecessor", ph.R, bb.ID, from.ID)
				}
			}
		}

		for _, in := range bb.Instr {
			for _, u := range in.Usages() {
				if !u.Valid() {
					continue
				}
				if f.DefOf(*u) == nil && f.PhiOf(*u) == nil {
					invariant(f, "instruction %s in bb%d uses %s, which has no definition", in, bb.ID, *u)
				}
			}
		}
	}
}
