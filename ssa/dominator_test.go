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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kerilk/pocl/ir"
)

// buildDiamond wires entry -> {left, right} -> merge -> exit, the smallest
// CFG shape with a real dominance frontier (merge has two predecessors
// neither of which dominates it).
func buildDiamond(f *ir.Function) (entry, left, right, merge, exit *ir.BasicBlock) {
	entry = f.CreateBlock("entry")
	left = f.CreateBlock("left")
	right = f.CreateBlock("right")
	merge = f.CreateBlock("merge")
	exit = f.CreateBlock("exit")
	f.Entry = entry

	cond := f.NewValue()
	entry.Term = &ir.Br{Cond: cond, Targets: map[int64]*ir.BasicBlock{1: left}, Default: right}
	left.Preds = []*ir.BasicBlock{entry}
	right.Preds = []*ir.BasicBlock{entry}

	left.Term = &ir.Br{Default: merge}
	right.Term = &ir.Br{Default: merge}
	merge.Preds = []*ir.BasicBlock{left, right}

	merge.Term = &ir.Br{Default: exit}
	exit.Preds = []*ir.BasicBlock{merge}
	return
}

func TestBuildDominatorTreeDiamond(t *testing.T) {
	f := ir.NewFunction("k")
	entry, left, right, merge, exit := buildDiamond(f)

	dt := Build(entry)

	require.Equal(t, entry, dt.DominatedBy[left.ID])
	require.Equal(t, entry, dt.DominatedBy[right.ID])
	require.Equal(t, entry, dt.DominatedBy[merge.ID])
	require.Equal(t, merge, dt.DominatedBy[exit.ID])

	require.True(t, dt.Dominates(entry, merge))
	require.True(t, dt.Dominates(entry, exit))
	require.False(t, dt.Dominates(left, merge))
	require.False(t, dt.Dominates(right, merge))
	require.True(t, dt.Dominates(merge, merge))
}

func TestDominanceFrontierOfDiamond(t *testing.T) {
	f := ir.NewFunction("k")
	entry, left, right, merge, _ := buildDiamond(f)

	dt := Build(entry)

	require.ElementsMatch(t, []*ir.BasicBlock{merge}, dt.Frontier[left.ID])
	require.ElementsMatch(t, []*ir.BasicBlock{merge}, dt.Frontier[right.ID])
	require.Empty(t, dt.Frontier[entry.ID])
}

func TestBuildDominatorTreeLinearChain(t *testing.T) {
	f := ir.NewFunction("k")
	a := f.CreateBlock("a")
	b := f.CreateBlock("b")
	c := f.CreateBlock("c")
	a.Term = &ir.Br{Default: b}
	b.Preds = []*ir.BasicBlock{a}
	b.Term = &ir.Br{Default: c}
	c.Preds = []*ir.BasicBlock{b}
	c.Term = &ir.Ret{}

	dt := Build(a)

	require.Equal(t, a, dt.DominatedBy[b.ID])
	require.Equal(t, b, dt.DominatedBy[c.ID])
	require.True(t, dt.Dominates(a, c))
}
