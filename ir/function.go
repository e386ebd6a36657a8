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

import "fmt"

// Metadata carries the module-level facts formSubCfgs reads before it does
// anything else: the work-group's local size along each dimension and
// whether that size is only known at run time.
type Metadata struct {
	LocalSizeX, LocalSizeY, LocalSizeZ uint32
	DynamicLocalSize                   bool
}

// LocalIDGlobalNames mirrors the three magic globals the original lowers
// get_local_id(0..2) to; kept here as the canonical order loop scaffolding
// and the no-barrier path both index by dimension.
var LocalIDGlobalNames = [3]string{
	"_local_id_x",
	"_local_id_y",
	"_local_id_z",
}

// LocalSizeGlobalNames mirrors the three per-dimension size globals read
// only when a kernel's local size is not known at transform time
// (WGDynamicLocalSize).
var LocalSizeGlobalNames = [3]string{
	"_local_size_x",
	"_local_size_y",
	"_local_size_z",
}

// Function is a single work-item kernel body: a CFG of BasicBlocks plus
// the per-value definition table every pass needs to find "the
// instruction that defines this Value" without threading a use-def chain
// through every instruction.
type Function struct {
	Name string
	Meta Metadata

	Blocks []*BasicBlock
	Entry  *BasicBlock

	alloc ValueAllocator
	defs  map[Value]*Instr
	phis  map[Value]*Phi
	owner map[Value]*BasicBlock
	nextID int
}

func NewFunction(name string) *Function {
	return &Function{
		Name:  name,
		defs:  make(map[Value]*Instr),
		phis:  make(map[Value]*Phi),
		owner: make(map[Value]*BasicBlock),
	}
}

// NewValue allocates a fresh SSA value handle, unique within f.
func (f *Function) NewValue() Value {
	return f.alloc.New()
}

// CreateBlock appends a new, empty, unterminated block and returns it —
// the Go analogue of the teacher's CFG.CreateBlock.
func (f *Function) CreateBlock(label string) *BasicBlock {
	bb := &BasicBlock{ID: f.nextID, Label: label}
	f.nextID++
	f.Blocks = append(f.Blocks, bb)
	return bb
}

// Emit appends in to bb and records its definition, if any, in f's def
// table. Every instruction-constructing helper in subcfg funnels through
// this so DefOf is always accurate.
func (f *Function) Emit(bb *BasicBlock, in *Instr) {
	bb.AddInstr(in)
	if in.Def.Valid() {
		f.defs[in.Def] = in
		f.owner[in.Def] = bb
	}
}

// EmitAfter inserts in immediately after after in bb (or at the front if
// after is nil) and records its definition, if any.
func (f *Function) EmitAfter(bb *BasicBlock, after *Instr, in *Instr) {
	bb.InsertInstrAfter(after, in)
	if in.Def.Valid() {
		f.defs[in.Def] = in
		f.owner[in.Def] = bb
	}
}

// EmitPhi appends p to bb's phi list and records its definition.
func (f *Function) EmitPhi(bb *BasicBlock, p *Phi) {
	bb.AddPhi(p)
	f.phis[p.R] = p
	f.owner[p.R] = bb
}

// Redefine moves a definition from old to new — used when a component
// rewrites an instruction in place (e.g. widening an alloca from a
// scalar slot to a NumArrayElements-slot one) and needs the function's
// def table to track the new Value instead of the one it replaced.
func (f *Function) Redefine(old, new Value, bb *BasicBlock, in *Instr) {
	delete(f.defs, old)
	delete(f.owner, old)
	f.defs[new] = in
	f.owner[new] = bb
}

// DefOf returns the instruction that defines v, or nil if v is a Phi
// result or undefined — callers that need to handle both look up DefOf
// first and fall back to PhiOf.
func (f *Function) DefOf(v Value) *Instr {
	return f.defs[v]
}

// PhiOf returns the Phi that defines v, or nil.
func (f *Function) PhiOf(v Value) *Phi {
	return f.phis[v]
}

// BlockOf returns the block that defines v (via instruction or phi), or
// nil if v is not defined anywhere in f.
func (f *Function) BlockOf(v Value) *BasicBlock {
	return f.owner[v]
}

// RemoveBlock deletes bb from f.Blocks. Callers are responsible for having
// already unlinked bb from every predecessor/successor/Phi first; this
// only removes it from the block list, the same narrow responsibility the
// teacher's Rebuild-driven pass pipeline gives the final "drop the block"
// step.
func (f *Function) RemoveBlock(bb *BasicBlock) {
	for i, b := range f.Blocks {
		if b == bb {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			return
		}
	}
}

func (f *Function) String() string {
	s := fmt.Sprintf("func %s:\n", f.Name)
	for _, bb := range f.Blocks {
		s += bb.String()
	}
	return s
}
