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

func TestReachabilityMatrix(t *testing.T) {
	f := ir.NewFunction("k")
	entry, left, right, merge, exit := buildDiamond(f)
	orphan := f.CreateBlock("orphan")
	orphan.Term = &ir.Ret{}

	rm := BuildReachabilityMatrix(f.Blocks)

	require.True(t, rm.Reachable(entry, left))
	require.True(t, rm.Reachable(entry, right))
	require.True(t, rm.Reachable(entry, merge))
	require.True(t, rm.Reachable(entry, exit))
	require.True(t, rm.Reachable(left, merge))
	require.False(t, rm.Reachable(left, right))
	require.False(t, rm.Reachable(exit, entry))
	require.False(t, rm.Reachable(entry, orphan))
	require.True(t, rm.Reachable(entry, entry))
}
