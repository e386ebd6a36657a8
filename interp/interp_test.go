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

package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kerilk/pocl/ir"
)

func TestRunStraightLineArithmetic(t *testing.T) {
	f := ir.NewFunction("k")
	entry := f.CreateBlock("entry")
	f.Entry = entry

	a := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KConst, Def: a, Const: &ir.Const{R: a, V: 3}})
	b := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KConst, Def: b, Const: &ir.Const{R: b, V: 4}})
	sum := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KBinOp, Def: sum, Bin: &ir.BinExpr{R: sum, Op: ir.OpAdd, X: a, Y: b}})
	entry.Term = &ir.Ret{}

	s := NewState(NewMemory(64), nil, nil)
	regs := s.Run(f)

	require.Equal(t, int64(7), regs[sum])
}

func TestRunLoadStoreThroughGEP(t *testing.T) {
	f := ir.NewFunction("k")
	entry := f.CreateBlock("entry")
	f.Entry = entry

	base := f.NewValue()
	idx := f.NewValue()
	val := f.NewValue()
	gep := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KGEP, Def: gep, GEP: &ir.GEP{R: gep, Base: base, Index: idx, Stride: 8}})
	f.Emit(entry, &ir.Instr{Kind: ir.KStore, Store: &ir.Store{V: val, Ptr: gep, Size: 8}})
	loaded := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KLoad, Def: loaded, Load: &ir.Load{R: loaded, Ptr: gep, Size: 8}})
	entry.Term = &ir.Ret{}

	mem := NewMemory(64)
	baseAddr := mem.Alloc(32)
	s := NewState(mem, nil, map[ir.Value]int64{base: baseAddr, idx: 2, val: 99})
	regs := s.Run(f)

	require.Equal(t, int64(99), regs[loaded])
	require.Equal(t, int64(99), mem.ReadI64(baseAddr+16))
}

func TestRunBranchesOnCondition(t *testing.T) {
	f := ir.NewFunction("k")
	entry := f.CreateBlock("entry")
	then := f.CreateBlock("then")
	els := f.CreateBlock("else")
	merge := f.CreateBlock("merge")
	f.Entry = entry

	cond := f.NewValue()
	entry.Term = &ir.Br{Cond: cond, Targets: map[int64]*ir.BasicBlock{1: then}, Default: els}
	then.Preds = []*ir.BasicBlock{entry}
	els.Preds = []*ir.BasicBlock{entry}

	thenVal := f.NewValue()
	f.Emit(then, &ir.Instr{Kind: ir.KConst, Def: thenVal, Const: &ir.Const{R: thenVal, V: 10}})
	then.Term = &ir.Br{Default: merge}

	elseVal := f.NewValue()
	f.Emit(els, &ir.Instr{Kind: ir.KConst, Def: elseVal, Const: &ir.Const{R: elseVal, V: 20}})
	els.Term = &ir.Br{Default: merge}

	merge.Preds = []*ir.BasicBlock{then, els}
	result := f.NewValue()
	f.EmitPhi(merge, &ir.Phi{R: result, V: map[*ir.BasicBlock]*ir.Value{then: &thenVal, els: &elseVal}})
	merge.Term = &ir.Ret{}

	s := NewState(NewMemory(8), nil, map[ir.Value]int64{cond: 1})
	regs := s.Run(f)
	require.Equal(t, int64(10), regs[result])

	s2 := NewState(NewMemory(8), nil, map[ir.Value]int64{cond: 0})
	regs2 := s2.Run(f)
	require.Equal(t, int64(20), regs2[result])
}

func TestRunCallsBoundCallee(t *testing.T) {
	f := ir.NewFunction("k")
	entry := f.CreateBlock("entry")
	f.Entry = entry

	r := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KCall, Def: r, Call: &ir.Call{R: r, Callee: "_local_id_x"}})
	entry.Term = &ir.Ret{}

	s := NewState(NewMemory(8), map[string]Callee{
		"_local_id_x": func(args []int64) int64 { return 5 },
	}, nil)
	regs := s.Run(f)

	require.Equal(t, int64(5), regs[r])
}
