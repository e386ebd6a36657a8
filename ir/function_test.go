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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFunctionEmitTracksDefinitions(t *testing.T) {
	f := NewFunction("k")
	entry := f.CreateBlock("entry")
	f.Entry = entry

	v := f.NewValue()
	in := &Instr{Kind: KConst, Def: v, Const: &Const{R: v, V: 42}}
	f.Emit(entry, in)

	require.Equal(t, in, f.DefOf(v))
	require.Nil(t, f.PhiOf(v))
	require.Equal(t, entry, f.BlockOf(v))
	require.Len(t, entry.Instr, 1)
}

func TestFunctionEmitAfterInsertsInOrder(t *testing.T) {
	f := NewFunction("k")
	bb := f.CreateBlock("bb")

	v1 := f.NewValue()
	in1 := &Instr{Kind: KConst, Def: v1, Const: &Const{R: v1, V: 1}}
	f.Emit(bb, in1)

	v3 := f.NewValue()
	in3 := &Instr{Kind: KConst, Def: v3, Const: &Const{R: v3, V: 3}}
	f.Emit(bb, in3)

	v2 := f.NewValue()
	in2 := &Instr{Kind: KConst, Def: v2, Const: &Const{R: v2, V: 2}}
	f.EmitAfter(bb, in1, in2)

	require.Equal(t, []*Instr{in1, in2, in3}, bb.Instr)
}

func TestFunctionEmitAfterNilInsertsAtFront(t *testing.T) {
	f := NewFunction("k")
	bb := f.CreateBlock("bb")

	v1 := f.NewValue()
	in1 := &Instr{Kind: KConst, Def: v1, Const: &Const{R: v1, V: 1}}
	f.Emit(bb, in1)

	v0 := f.NewValue()
	in0 := &Instr{Kind: KConst, Def: v0, Const: &Const{R: v0, V: 0}}
	f.EmitAfter(bb, nil, in0)

	require.Equal(t, []*Instr{in0, in1}, bb.Instr)
}

func TestFunctionRedefineMovesDefinitionOwnership(t *testing.T) {
	f := NewFunction("k")
	bb := f.CreateBlock("bb")

	old := f.NewValue()
	in := &Instr{Kind: KConst, Def: old, Const: &Const{R: old, V: 7}}
	f.Emit(bb, in)

	wide := f.NewValue()
	in.Def = wide
	f.Redefine(old, wide, bb, in)

	require.Nil(t, f.DefOf(old))
	require.Equal(t, in, f.DefOf(wide))
	require.Equal(t, bb, f.BlockOf(wide))
}

func TestFunctionEmitPhiRecordsOwnerAndDef(t *testing.T) {
	f := NewFunction("k")
	header := f.CreateBlock("header")

	r := f.NewValue()
	phi := &Phi{R: r, V: map[*BasicBlock]*Value{}}
	f.EmitPhi(header, phi)

	require.Equal(t, phi, f.PhiOf(r))
	require.Nil(t, f.DefOf(r))
	require.Equal(t, header, f.BlockOf(r))
	require.Contains(t, header.Phis, phi)
}

func TestFunctionRemoveBlock(t *testing.T) {
	f := NewFunction("k")
	a := f.CreateBlock("a")
	b := f.CreateBlock("b")
	c := f.CreateBlock("c")

	f.RemoveBlock(b)

	require.Equal(t, []*BasicBlock{a, c}, f.Blocks)
}

func TestValueValidity(t *testing.T) {
	require.False(t, Undef.Valid())

	f := NewFunction("k")
	v := f.NewValue()
	require.True(t, v.Valid())
	require.NotEqual(t, Undef, v)
}
