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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kerilk/pocl/ir"
)

func TestDiscoverSubCFGsFindsEntryRegionAndBarrierRegion(t *testing.T) {
	f := ir.NewFunction("k")
	_, barrier, after, exit := buildOneBarrierKernel(f)
	p := newTestPass()

	bm := BuildBarrierMap(p, f)
	regions := DiscoverSubCFGs(bm)

	// The entry block counts as a barrier and gets its own region first.
	require.Len(t, regions, 2)
	require.Equal(t, int64(EntryBarrierID), regions[0].EntryID)
	c := regions[1]
	require.Equal(t, int64(1), c.EntryID)
	require.Equal(t, barrier, c.EntryBarrier)
	require.Equal(t, after, c.BodyEntry)
	require.True(t, c.Blocks[after])
	require.False(t, c.Blocks[exit])
	require.Equal(t, map[*ir.BasicBlock]int64{exit: ExitBarrierID}, c.Exits)
}

func TestDiscoverSubCFGsStopsAtNextBarrier(t *testing.T) {
	f := ir.NewFunction("k")
	entry := f.CreateBlock("entry")
	b1 := f.CreateBlock("b1")
	mid := f.CreateBlock("mid")
	b2 := f.CreateBlock("b2")
	exit := f.CreateBlock("exit")
	f.Entry = entry

	entry.Term = &ir.Br{Default: b1}
	b1.Preds = []*ir.BasicBlock{entry}
	f.Emit(b1, &ir.Instr{Kind: ir.KCall, Call: &ir.Call{Callee: "barrier"}})
	b1.Term = &ir.Br{Default: mid}

	mid.Preds = []*ir.BasicBlock{b1}
	mid.Term = &ir.Br{Default: b2}

	b2.Preds = []*ir.BasicBlock{mid}
	f.Emit(b2, &ir.Instr{Kind: ir.KCall, Call: &ir.Call{Callee: "barrier"}})
	b2.Term = &ir.Br{Default: exit}

	exit.Preds = []*ir.BasicBlock{b2}
	exit.Term = &ir.Ret{}

	p := newTestPass()
	bm := BuildBarrierMap(p, f)
	regions := DiscoverSubCFGs(bm)

	// Regions for entry, b1 and b2, in that order.
	require.Len(t, regions, 3)
	first := regions[1]
	require.True(t, first.Blocks[mid])
	require.False(t, first.Blocks[b2])
	require.Equal(t, map[*ir.BasicBlock]int64{b2: bm.ID[b2]}, first.Exits)
}
