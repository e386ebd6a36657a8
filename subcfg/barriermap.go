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

const (
	// EntryBarrierID is the id assigned to the function's entry block,
	// treated as a barrier for discovery purposes even though it holds no
	// actual barrier call — the region "from function entry to the first
	// real barrier" is discovered exactly like any other.
	EntryBarrierID = int64(0)
	// ExitBarrierID is the sentinel id every exiting block (no successors)
	// is assigned, regardless of whether it happens to also hold a barrier
	// call.
	ExitBarrierID = int64(-1)
)

// BarrierMap assigns every barrier block (plus the function entry and every
// exit block) a stable id: 0 for entry, -1 for every exit, and sequential
// positive ids for the rest in block-list order.
type BarrierMap struct {
	ID       map[*ir.BasicBlock]int64
	Barriers []*ir.BasicBlock
	Exits    map[*ir.BasicBlock]bool
}

// IsBarrier reports whether bb was assigned an id at all — entry, an exit,
// or an ordinary mid-function barrier.
func (bm *BarrierMap) IsBarrier(bb *ir.BasicBlock) bool {
	_, ok := bm.ID[bb]
	return ok
}

// BuildBarrierMap walks f once and assigns ids: f.Entry gets
// EntryBarrierID, every exiting block gets ExitBarrierID, and every
// remaining block whose sole content is a barrier call (per p.Barrier)
// gets the next sequential positive id, in f.Blocks order.
func BuildBarrierMap(p *Pass, f *ir.Function) *BarrierMap {
	bm := &BarrierMap{
		ID:    make(map[*ir.BasicBlock]int64),
		Exits: make(map[*ir.BasicBlock]bool),
	}

	if f.Entry != nil {
		bm.ID[f.Entry] = EntryBarrierID
		bm.Barriers = append(bm.Barriers, f.Entry)
	}

	next := int64(1)
	for _, bb := range f.Blocks {
		if bb == f.Entry {
			continue
		}
		if len(bb.Successors()) == 0 {
			bm.ID[bb] = ExitBarrierID
			bm.Exits[bb] = true
			bm.Barriers = append(bm.Barriers, bb)
			continue
		}
		if p.Barrier != nil && p.Barrier.HasOnlyBarrier(bb) {
			bm.ID[bb] = next
			next++
			bm.Barriers = append(bm.Barriers, bb)
		}
	}

	return bm
}
