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

package ir

import "fmt"

// BasicBlock is a single-entry, single-exit straight-line instruction
// sequence terminated by exactly one Terminator, the same shape the
// teacher's BasicBlock uses (Phi/Ins/Pred/Term) generalized with a typed
// Phis slice instead of an inline Phi field.
type BasicBlock struct {
	ID    int
	Phis  []*Phi
	Instr []*Instr
	Term  Terminator
	Preds []*BasicBlock

	// Label is a debug-only name ("entry", "bb3.barrier7", ...); never
	// consulted for control flow.
	Label string
}

func (bb *BasicBlock) String() string {
	s := fmt.Sprintf("bb%d: ; %s\n", bb.ID, bb.Label)
	for _, p := range bb.Phis {
		s += "  " + p.String() + "\n"
	}
	for _, in := range bb.Instr {
		s += "  " + in.String() + "\n"
	}
	if bb.Term != nil {
		s += "  " + bb.Term.String() + "\n"
	}
	return s
}

func (bb *BasicBlock) AddInstr(in *Instr) {
	bb.Instr = append(bb.Instr, in)
}

func (bb *BasicBlock) AddPhi(p *Phi) {
	bb.Phis = append(bb.Phis, p)
}

// InsertInstrAfter inserts in immediately after after in bb's instruction
// list, or at the front of the list if after is nil — the "after all
// Phis" insertion point arrayification uses when the value being
// arrayified is itself a Phi result rather than an ordinary instruction.
func (bb *BasicBlock) InsertInstrAfter(after *Instr, in *Instr) {
	if after == nil {
		bb.Instr = append([]*Instr{in}, bb.Instr...)
		return
	}
	for i, cur := range bb.Instr {
		if cur == after {
			rest := make([]*Instr, 0, len(bb.Instr)-i)
			rest = append(rest, in)
			rest = append(rest, bb.Instr[i+1:]...)
			bb.Instr = append(bb.Instr[:i+1:i+1], rest...)
			return
		}
	}
	bb.Instr = append(bb.Instr, in)
}

// Successors reports the blocks reachable directly from bb's terminator,
// or nil for an unterminated (still being built) block.
func (bb *BasicBlock) Successors() []*BasicBlock {
	if bb.Term == nil {
		return nil
	}
	return bb.Term.Successors()
}

// ReplacePred rewrites every occurrence of from in Preds (and the matching
// key in every Phi's incoming map) to to — the single operation every
// structural CFG rewrite (block splitting, critical-edge splitting, SubCFG
// replication) needs after retargeting an edge.
func (bb *BasicBlock) ReplacePred(from, to *BasicBlock) {
	for i, p := range bb.Preds {
		if p == from {
			bb.Preds[i] = to
		}
	}
	for _, p := range bb.Phis {
		if v, ok := p.V[from]; ok {
			delete(p.V, from)
			p.V[to] = v
		}
	}
}
