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

func TestInsertPhiNodesPlacesAtDominanceFrontier(t *testing.T) {
	f := ir.NewFunction("k")
	entry, left, right, merge, _ := buildDiamond(f)
	dt := Build(entry)

	v := f.NewValue()
	inserted := InsertPhiNodes(f, dt, v, []*ir.BasicBlock{left, right}, f.NewValue)

	phi, ok := inserted[merge.ID]
	require.True(t, ok)
	require.Len(t, inserted, 1)
	require.Equal(t, phi, f.PhiOf(phi.R))
	require.Contains(t, merge.Phis, phi)
	require.Len(t, phi.V, len(merge.Preds))
	for _, pred := range merge.Preds {
		incoming, ok := phi.V[pred]
		require.True(t, ok)
		require.Equal(t, v, *incoming)
	}
}

func TestInsertPhiNodesNoOpWhenDefAlreadyDominatesEveryJoin(t *testing.T) {
	f := ir.NewFunction("k")
	entry, _, _, merge, _ := buildDiamond(f)
	dt := Build(entry)

	v := f.NewValue()
	inserted := InsertPhiNodes(f, dt, v, []*ir.BasicBlock{merge}, f.NewValue)

	require.Empty(t, inserted)
}
