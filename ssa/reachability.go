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
	"math"

	"github.com/Kerilk/pocl/ir"
)

// ReachabilityMatrix answers "is b reachable from a" in O(1) after an
// O(n^3) Floyd-Warshall precomputation, the same structure the teacher
// builds once per function and consults from several passes rather than
// re-walking the CFG for every query.
type ReachabilityMatrix struct {
	index map[int]int
	dist  [][]uint64
}

func BuildReachabilityMatrix(blocks []*ir.BasicBlock) *ReachabilityMatrix {
	n := len(blocks)
	index := make(map[int]int, n)
	for i, bb := range blocks {
		index[bb.ID] = i
	}

	dist := make([][]uint64, n)
	for i := range dist {
		dist[i] = make([]uint64, n)
		for j := range dist[i] {
			dist[i][j] = math.MaxUint64 / 2
		}
	}

	for i, bb := range blocks {
		dist[i][i] = 0
		for _, succ := range bb.Successors() {
			j, ok := index[succ.ID]
			if ok && dist[i][j] > 1 {
				dist[i][j] = 1
			}
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if dist[i][k] >= math.MaxUint64/2 {
				continue
			}
			for j := 0; j < n; j++ {
				if d := dist[i][k] + dist[k][j]; d < dist[i][j] {
					dist[i][j] = d
				}
			}
		}
	}

	return &ReachabilityMatrix{index: index, dist: dist}
}

// Reachable reports whether to is reachable from from.
func (m *ReachabilityMatrix) Reachable(from, to *ir.BasicBlock) bool {
	i, ok1 := m.index[from.ID]
	j, ok2 := m.index[to.ID]
	if !ok1 || !ok2 {
		return false
	}
	return m.dist[i][j] < math.MaxUint64/2
}
