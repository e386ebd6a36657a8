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

// Tag enumerates the metadata markers spec's §6 lists. Per design note
// "metadata as identity", these are never recognized by name — only by
// membership in the side-tables below, keyed by Value identity, so that
// cloning or remapping a value can never accidentally carry (or drop) a
// tag by coincidence of name.
type Tag uint8

const (
	TagArrayified Tag = iota
	TagWorkItemLoop
	TagLoopState
)

// tagSet is the pass's metadata side-table: Go has no per-instruction
// metadata attachment point that wouldn't bloat every ir.Instr with
// fields only a handful of instructions ever use, so tags live here
// instead, exactly the role the teacher's own side maps (e.g.
// BaseInstAllocaMap in the original) play relative to a struct field.
type tagSet struct {
	arrayified map[ir.Value]bool
	loopState  map[ir.Value]bool
	workItem   map[*ir.BasicBlock]bool

	// baseAlloca maps an arrayified GEP back to the alloca it indexes,
	// letting AnalyzeCrossRegionValues recognize case 2 ("GEP already
	// tagged arrayified, reuse its base alloca") without re-deriving it
	// from the GEP's operand, which may itself have been remapped.
	baseAlloca map[ir.Value]ir.Value

	// slots records the element count an arrayified alloca was given, so
	// LoadFromAlloca can tell a 1-slot uniform
	// alloca from a NumArrayElements-slot one without re-reading the
	// Alloca instruction.
	slots map[ir.Value]int

	// baseUniform and contReplica are the disabled-by-default
	// dontArrayifyContiguousValues plumbing (see DESIGN.md open question):
	// baseUniform is filled for uniform cross-region values; nothing fills
	// contReplica, so spliceCrossRegionLoads never finds replicas in it.
	baseUniform map[ir.Value]ir.Value
	contReplica map[ir.Value][]*ir.Instr
}

func newTagSet() *tagSet {
	return &tagSet{
		arrayified:  make(map[ir.Value]bool),
		loopState:   make(map[ir.Value]bool),
		workItem:    make(map[*ir.BasicBlock]bool),
		baseAlloca:  make(map[ir.Value]ir.Value),
		slots:       make(map[ir.Value]int),
		baseUniform: make(map[ir.Value]ir.Value),
		contReplica: make(map[ir.Value][]*ir.Instr),
	}
}

func (t *tagSet) markArrayified(v ir.Value) { t.arrayified[v] = true }
func (t *tagSet) isArrayified(v ir.Value) bool { return t.arrayified[v] }

func (t *tagSet) markLoopState(v ir.Value) { t.loopState[v] = true }
func (t *tagSet) isLoopState(v ir.Value) bool { return t.loopState[v] }

func (t *tagSet) markWorkItemLoop(bb *ir.BasicBlock) { t.workItem[bb] = true }
