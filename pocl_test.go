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

package pocl

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/Kerilk/pocl/external"
	"github.com/Kerilk/pocl/interp"
	"github.com/Kerilk/pocl/ir"
	"github.com/Kerilk/pocl/subcfg"
)

// buildS1Kernel builds a kernel with no work-group barriers writing
// out[gid] = gid, where gid comes from _local_id_x — the S1 scenario.
func buildS1Kernel() *ir.Function {
	f := ir.NewFunction("s1")
	entry := f.CreateBlock("entry")
	f.Entry = entry

	id := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KCall, Def: id, Call: &ir.Call{R: id, Callee: "_local_id_x"}})
	out := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KCall, Def: out, Call: &ir.Call{R: out, Callee: "_arg_out"}})
	ptr := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KGEP, Def: ptr, GEP: &ir.GEP{R: ptr, Base: out, Index: id, Stride: 8}})
	f.Emit(entry, &ir.Instr{Kind: ir.KStore, Store: &ir.Store{V: id, Ptr: ptr, Size: 8}})
	entry.Term = &ir.Ret{}
	return f
}

func TestTransformS1NoBarriersWritesLinearIndex(t *testing.T) {
	f := buildS1Kernel()
	kernel := external.StaticKernelInfo{
		Kernel: true, Handler: external.HandlerCBS, Barriers: false,
		LocalSizeX: 4, LocalSizeY: 1, LocalSizeZ: 1,
	}

	err := Transform(f, external.CallBarrierInfo{CalleeName: "barrier"}, kernel, external.DefaultUniformity{})
	require.NoError(t, err)

	mem := interp.NewMemory(256)
	outAddr := mem.Alloc(4 * 8)
	s := interp.NewState(mem, map[string]interp.Callee{
		"_arg_out": func(args []int64) int64 { return outAddr },
	}, nil)
	s.Run(f)

	for i := int64(0); i < 4; i++ {
		require.Equal(t, i, mem.ReadI64(outAddr+i*8), "out[%d]", i)
	}
}

// buildS4Kernel builds a barrier-free 2-D kernel: out[lid_y*3+lid_x] = 1
// when lid_x < lid_y, else 2 — the S4 scenario, exercising
// TransformNoBarrierKernel's loop nest at dim 2 with a conditional inside
// the wrapped body rather than a single straight-line block.
func buildS4Kernel() *ir.Function {
	f := ir.NewFunction("s4")
	entry := f.CreateBlock("entry")
	trueBB := f.CreateBlock("lt")
	falseBB := f.CreateBlock("ge")
	merge := f.CreateBlock("merge")
	exit := f.CreateBlock("exit")
	f.Entry = entry

	lidx := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KCall, Def: lidx, Call: &ir.Call{R: lidx, Callee: "_local_id_x"}})
	lidy := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KCall, Def: lidy, Call: &ir.Call{R: lidy, Callee: "_local_id_y"}})
	cmp := f.NewValue()
	f.Emit(entry, &ir.Instr{Kind: ir.KBinOp, Def: cmp, Bin: &ir.BinExpr{R: cmp, Op: ir.OpCmpLt, X: lidx, Y: lidy}})
	entry.Term = &ir.Br{Cond: cmp, Targets: map[int64]*ir.BasicBlock{1: trueBB}, Default: falseBB}

	trueBB.Preds = []*ir.BasicBlock{entry}
	one := f.NewValue()
	f.Emit(trueBB, &ir.Instr{Kind: ir.KConst, Def: one, Const: &ir.Const{R: one, V: 1}})
	trueBB.Term = &ir.Br{Default: merge}

	falseBB.Preds = []*ir.BasicBlock{entry}
	two := f.NewValue()
	f.Emit(falseBB, &ir.Instr{Kind: ir.KConst, Def: two, Const: &ir.Const{R: two, V: 2}})
	falseBB.Term = &ir.Br{Default: merge}

	merge.Preds = []*ir.BasicBlock{trueBB, falseBB}
	val := f.NewValue()
	f.EmitPhi(merge, &ir.Phi{R: val, V: map[*ir.BasicBlock]*ir.Value{trueBB: &one, falseBB: &two}})
	rowStride := f.NewValue()
	f.Emit(merge, &ir.Instr{Kind: ir.KConst, Def: rowStride, Const: &ir.Const{R: rowStride, V: 3}})
	row := f.NewValue()
	f.Emit(merge, &ir.Instr{Kind: ir.KBinOp, Def: row, Bin: &ir.BinExpr{R: row, Op: ir.OpMul, X: lidy, Y: rowStride}})
	idx := f.NewValue()
	f.Emit(merge, &ir.Instr{Kind: ir.KBinOp, Def: idx, Bin: &ir.BinExpr{R: idx, Op: ir.OpAdd, X: row, Y: lidx}})
	out := f.NewValue()
	f.Emit(merge, &ir.Instr{Kind: ir.KCall, Def: out, Call: &ir.Call{R: out, Callee: "_arg_out"}})
	ptr := f.NewValue()
	f.Emit(merge, &ir.Instr{Kind: ir.KGEP, Def: ptr, GEP: &ir.GEP{R: ptr, Base: out, Index: idx, Stride: 8}})
	f.Emit(merge, &ir.Instr{Kind: ir.KStore, Store: &ir.Store{V: val, Ptr: ptr, Size: 8}})
	merge.Term = &ir.Br{Default: exit}

	exit.Preds = []*ir.BasicBlock{merge}
	exit.Term = &ir.Ret{}
	return f
}

func TestTransformS4NoBarrierConditionalWritesTriangleMatrix(t *testing.T) {
	f := buildS4Kernel()
	kernel := external.StaticKernelInfo{
		Kernel: true, Handler: external.HandlerCBS, Barriers: false,
		LocalSizeX: 3, LocalSizeY: 3, LocalSizeZ: 1,
	}

	err := Transform(f, external.CallBarrierInfo{CalleeName: "barrier"}, kernel, external.DefaultUniformity{})
	require.NoError(t, err)

	mem := interp.NewMemory(256)
	outAddr := mem.Alloc(9 * 8)
	s := interp.NewState(mem, map[string]interp.Callee{
		"_arg_out": func(args []int64) int64 { return outAddr },
	}, nil)
	s.Run(f)

	want := []int64{2, 2, 2, 1, 2, 2, 1, 1, 2}
	for i, w := range want {
		require.Equal(t, w, mem.ReadI64(outAddr+int64(i)*8), "out[%d]", i)
	}
}

// TestTransformS1RandomLocalSizeWritesLinearIndex re-runs the S1 scenario
// across several randomly chosen work-group sizes: out[gid] = gid must
// hold regardless of how many work items TransformNoBarrierKernel's loop
// nest ends up wrapping the body in.
func TestTransformS1RandomLocalSizeWritesLinearIndex(t *testing.T) {
	for trial := 0; trial < 5; trial++ {
		localSizeX := int64(gofakeit.Number(1, 16))

		f := buildS1Kernel()
		kernel := external.StaticKernelInfo{
			Kernel: true, Handler: external.HandlerCBS, Barriers: false,
			LocalSizeX: uint32(localSizeX), LocalSizeY: 1, LocalSizeZ: 1,
		}

		err := Transform(f, external.CallBarrierInfo{CalleeName: "barrier"}, kernel, external.DefaultUniformity{})
		require.NoError(t, err)

		mem := interp.NewMemory(1 << 16)
		outAddr := mem.Alloc(int(localSizeX * 8))
		s := interp.NewState(mem, map[string]interp.Callee{
			"_arg_out": func(args []int64) int64 { return outAddr },
		}, nil)
		s.Run(f)

		for i := int64(0); i < localSizeX; i++ {
			require.Equal(t, i, mem.ReadI64(outAddr+i*8), "trial %d, localSizeX %d, out[%d]", trial, localSizeX, i)
		}
	}
}

func TestTransformSkipsNonKernelFunction(t *testing.T) {
	f := buildS1Kernel()
	kernel := external.StaticKernelInfo{Kernel: false}

	err := Transform(f, external.CallBarrierInfo{CalleeName: "barrier"}, kernel, external.DefaultUniformity{})
	require.ErrorIs(t, err, subcfg.ErrSkipped)
}
