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

// unifyExits redirects every exiting block (no successors) in f to a
// single fresh exit block, so loop scaffolding has one after_bb instead of
// one per original return site.
func unifyExits(f *ir.Function, exits []*ir.BasicBlock) *ir.BasicBlock {
	exit := f.CreateBlock("nobarrier.exit")
	exit.Term = &ir.Ret{}
	for _, e := range exits {
		e.Term = &ir.Br{Default: exit}
		exit.Preds = append(exit.Preds, e)
	}
	return exit
}

// splitEntry moves every instruction but the (already entry-hoisted)
// allocas, plus the entry's terminator, into a fresh block — the Go
// analogue of llvm::SplitBlock in createLoopsAroundKernel, needed so the
// work-item loop nest can be spliced strictly around the body without
// also looping the alloca prologue.
func splitEntry(f *ir.Function, entry *ir.BasicBlock) *ir.BasicBlock {
	body := f.CreateBlock("nobarrier.body")

	var kept []*ir.Instr
	for _, in := range entry.Instr {
		if in.Kind == ir.KAlloca {
			kept = append(kept, in)
			continue
		}
		body.Instr = append(body.Instr, in)
		if in.Def.Valid() {
			f.Redefine(in.Def, in.Def, body, in)
		}
	}
	entry.Instr = kept

	body.Term = entry.Term
	entry.Term = nil
	for _, succ := range body.Successors() {
		succ.ReplacePred(entry, body)
	}
	return body
}

// eraseLocalIDCalls redirects every get_local_id(d)-style call
// (recognized, like a barrier, by callee name per ir.LocalIDGlobalNames)
// to the loop nest's real induction variable for dimension d, rewriting
// each call in place into "ind_d | ind_d" so its result keeps its
// identity; no instruction is removed — the Go equivalent of
// "erase the original uses of _local_id_x/y/z globals". Used by the
// no-barrier path, where the whole function is a single scope; CBS
// replication uses the scoped remapLocalIDCalls instead, since each
// region gets its own induction variables.
func eraseLocalIDCalls(f *ir.Function, indVars []ir.Value) {
	remapLocalIDCalls(f, nil, indVars)
}

// remapLocalIDCalls is §4.2's "vmap[local_id_global_d] = ind_d" step: every
// _local_id_x/y/z call in scope (or in the whole function, when scope is
// nil) is rewritten in place to compute indVars[d] instead of calling the
// global, so a kernel body that reads get_local_id after being replicated
// inside its own work-item loop sees the loop's real induction variable.
//
// The rewrite keeps the call's result Value and its position, rather than
// deleting the instruction and redirecting uses: a get_local_id result can
// itself be the value that escapes this region into a later one (gid
// computed before a barrier, read again after it), and cross-region
// analysis runs after this and needs a live defining instruction in this
// region to arrayify. Deleting the call once every in-scope use was
// rewritten left any escaping use dangling on a Value nothing defined
// anymore.
func remapLocalIDCalls(f *ir.Function, scope map[*ir.BasicBlock]bool, indVars []ir.Value) {
	inScope := func(bb *ir.BasicBlock) bool { return scope == nil || scope[bb] }

	for d, name := range ir.LocalIDGlobalNames {
		if d >= len(indVars) {
			break
		}
		ind := indVars[d]
		for _, bb := range f.Blocks {
			if !inScope(bb) {
				continue
			}
			for _, in := range bb.Instr {
				if in.Kind == ir.KCall && in.Call.Callee == name && in.Def.Valid() {
					r := in.Def
					in.Kind = ir.KBinOp
					in.Call = nil
					in.Bin = &ir.BinExpr{R: r, Op: ir.OpOr, X: ind, Y: ind}
				}
			}
		}
	}
}

// TransformNoBarrierKernel implements §4.10: a kernel with no work-group
// barriers skips discovery/replication/dispatch entirely and is simply
// wrapped, body and all, in one work-item loop nest.
func (p *Pass) TransformNoBarrierKernel(f *ir.Function) {
	exits := exitingBlocks(f)
	if len(exits) == 0 {
		invariant(f, "function %q has no exiting block", f.Name)
	}
	exit := unifyExits(f, exits)

	moveAllocasToEntry(f)
	body := splitEntry(f, f.Entry)

	dim := p.Kernel.Dimensions(f)
	x, y, z, dynamic := p.Kernel.LocalSize(f)
	sizes := loadLocalSizes(f, f.Entry, x, y, z, dynamic)

	nest := p.CreateLoopsAround(f, f.Entry, exit, sizes, dim)
	f.Entry.Term = &ir.Br{Default: nest.Outer}

	nest.Body.Term = &ir.Br{Default: body}
	body.Preds = append(body.Preds, nest.Body)

	// Every edge that used to reach the unified function exit directly
	// must now continue the work-item loop instead — only the outermost
	// latch's non-continue edge (already wired by CreateLoopsAround,
	// since afterBB was exit) actually leaves it. Without this, the
	// wrapped body would run for exactly one work item before falling
	// straight out of a loop it never iterated.
	innerLatch := nest.Latches[0]
	outerLatch := nest.Latches[len(nest.Latches)-1]
	oldPreds := append([]*ir.BasicBlock(nil), exit.Preds...)
	exit.Preds = []*ir.BasicBlock{outerLatch}
	for _, pred := range oldPreds {
		if br, ok := pred.Term.(*ir.Br); ok {
			if br.Default == exit {
				br.Default = innerLatch
			}
			for k, t := range br.Targets {
				if t == exit {
					br.Targets[k] = innerLatch
				}
			}
		}
		innerLatch.Preds = append(innerLatch.Preds, pred)
	}

	eraseLocalIDCalls(f, nest.IndVars)
}
