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

// BuildDispatcher wires whileHeader into a "while(true){switch(last_barrier_id)}"
// loop: a load of lastBarrierAlloca, a switch with one case per region
// (entry id -> that region's entry_bb), a case for ExitBarrierID targeting
// functionExit, and an unreachable default. It also rewires the function
// entry to store ENTRY_BARRIER_ID and jump straight into whileHeader rather
// than into the original first block.
//
// Every region's outermost latch was already pointed at whileHeader by
// ReplicateSubCFG (see its LoopNest wiring), so the only remaining
// predecessor bookkeeping here is each region's entry_bb and functionExit
// gaining whileHeader as a predecessor, and whileHeader gaining f.Entry.
func (p *Pass) BuildDispatcher(f *ir.Function, regions []*SubCFG, whileHeader, functionExit *ir.BasicBlock, lastBarrierAlloca ir.Value) {
	loaded := f.NewValue()
	f.Emit(whileHeader, &ir.Instr{Kind: ir.KLoad, Def: loaded, Load: &ir.Load{R: loaded, Ptr: lastBarrierAlloca, Size: 8}})

	// A dedicated block for the switch's default case: every valid
	// last-barrier-id has its own case, so control never reaches here in a
	// correctly transformed function. Ret stands in for a trap/unreachable
	// terminator, since this IR has no dedicated one.
	unreachable := f.CreateBlock("dispatch.unreachable")
	unreachable.Term = &ir.Ret{}

	targets := make(map[int64]*ir.BasicBlock, len(regions)+1)
	for _, c := range regions {
		targets[c.EntryID] = c.EntryBB
		c.EntryBB.Preds = append(c.EntryBB.Preds, whileHeader)
	}
	targets[ExitBarrierID] = functionExit
	functionExit.Preds = append(functionExit.Preds, whileHeader)

	whileHeader.Term = &ir.Br{Cond: loaded, Targets: targets, Default: unreachable}

	entryID := emitConst(f, f.Entry, EntryBarrierID)
	f.Emit(f.Entry, &ir.Instr{Kind: ir.KStore, Store: &ir.Store{V: entryID, Ptr: lastBarrierAlloca, Size: 8}})
	f.Entry.Term = &ir.Br{Default: whileHeader}
	whileHeader.Preds = append(whileHeader.Preds, f.Entry)
}
