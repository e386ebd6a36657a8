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
	"fmt"
	"strings"
)

// Node is the common interface every instruction, phi and terminator
// implements, mirroring the teacher's IrNode/irnode() marker pattern.
type Node interface {
	fmt.Stringer
	irnode()
}

func (*Alloca) irnode() {}
func (*Load) irnode()   {}
func (*Store) irnode()  {}
func (*GEP) irnode()    {}
func (*Call) irnode()   {}
func (*BinExpr) irnode() {}
func (*UnExpr) irnode() {}
func (*Phi) irnode()    {}
func (*Br) irnode()     {}
func (*Ret) irnode()    {}
func (*Const) irnode()  {}

// Usages is implemented by any Node that reads one or more Values.
type Usages interface {
	Node
	Usages() []*Value
}

// Definitions is implemented by any Node that defines exactly one Value
// (every instruction here is single-definition SSA; only Call can define
// zero when it targets a void callee).
type Definitions interface {
	Node
	Definitions() []*Value
}

// Instr is a tagged union over the instruction kinds a kernel body can
// hold. Exactly one of the typed fields is meaningful, selected by Kind —
// the same single-struct-plus-enum shape the teacher's Ir/OpCode pair
// uses, generalized from a flat register file to SSA values so that the
// pass can reason about dominance and insert Phi nodes.
type Instr struct {
	Kind Kind
	Def  Value

	Alloca *Alloca
	Load   *Load
	Store  *Store
	GEP    *GEP
	Call   *Call
	Bin    *BinExpr
	Un     *UnExpr
	Const  *Const
}

func (i *Instr) Node() Node {
	switch i.Kind {
	case KAlloca:
		return i.Alloca
	case KLoad:
		return i.Load
	case KStore:
		return i.Store
	case KGEP:
		return i.GEP
	case KCall:
		return i.Call
	case KBinOp:
		return i.Bin
	case KUnOp:
		return i.Un
	case KConst:
		return i.Const
	default:
		panic(fmt.Sprintf("ir: invalid instruction kind %d", i.Kind))
	}
}

func (i *Instr) String() string {
	return i.Node().String()
}

func (i *Instr) Usages() []*Value {
	if u, ok := i.Node().(Usages); ok {
		return u.Usages()
	}
	return nil
}

// Alloca reserves a scalar or array-of-N local slot; ArrayifyAllocasInEntry
// widens the ones whose users all sit in a single SubCFG, and WidenAllocas
// the ones used by more than one.
type Alloca struct {
	R        Value
	ElemSize uint32
	Count    uint32 // 1 for a scalar alloca, >1 for an array-of-N alloca
	Align    uint32
	Name     string // debug label only, e.g. the source variable name
}

func (a *Alloca) String() string {
	if a.Count > 1 {
		return fmt.Sprintf("%s = alloca [%d x u%d], align %d ; %s", a.R, a.Count, a.ElemSize*8, a.Align, a.Name)
	}
	return fmt.Sprintf("%s = alloca u%d, align %d ; %s", a.R, a.ElemSize*8, a.Align, a.Name)
}

func (a *Alloca) Definitions() []*Value { return []*Value{&a.R} }

// Load reads Size bytes from Ptr.
type Load struct {
	R    Value
	Ptr  Value
	Size uint32
}

func (l *Load) String() string {
	return fmt.Sprintf("%s = load.u%d %s", l.R, l.Size*8, l.Ptr)
}

func (l *Load) Usages() []*Value      { return []*Value{&l.Ptr} }
func (l *Load) Definitions() []*Value { return []*Value{&l.R} }

// Store writes V to Ptr.
type Store struct {
	V    Value
	Ptr  Value
	Size uint32
}

func (s *Store) String() string {
	return fmt.Sprintf("store.u%d %s -> *%s", s.Size*8, s.V, s.Ptr)
}

func (s *Store) Usages() []*Value { return []*Value{&s.V, &s.Ptr} }

// GEP computes Base + Index*Stride, the pointer-arithmetic primitive
// ArrayifyValue uses to index into a widened backing slot.
type GEP struct {
	R      Value
	Base   Value
	Index  Value
	Stride uint32
}

func (g *GEP) String() string {
	return fmt.Sprintf("%s = &%s[%s * %d]", g.R, g.Base, g.Index, g.Stride)
}

func (g *GEP) Usages() []*Value      { return []*Value{&g.Base, &g.Index} }
func (g *GEP) Definitions() []*Value { return []*Value{&g.R} }

// Call models a call to either a known builtin (barrier, get_local_id, ...)
// or an opaque kernel-body callee; Callee is a symbolic name rather than a
// function pointer since this IR never lowers to machine code.
type Call struct {
	R      Value // Undef for a void call
	Callee string
	Args   []Value
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	if !c.R.Valid() {
		return fmt.Sprintf("call %s(%s)", c.Callee, strings.Join(args, ", "))
	}
	return fmt.Sprintf("%s = call %s(%s)", c.R, c.Callee, strings.Join(args, ", "))
}

func (c *Call) Usages() []*Value {
	r := make([]*Value, len(c.Args))
	for i := range c.Args {
		r[i] = &c.Args[i]
	}
	return r
}

func (c *Call) Definitions() []*Value {
	if !c.R.Valid() {
		return nil
	}
	return []*Value{&c.R}
}

// BinExpr is the catch-all binary-compute instruction.
type BinExpr struct {
	R  Value
	Op BinOp
	X  Value
	Y  Value
}

func (b *BinExpr) String() string {
	return fmt.Sprintf("%s = %s %s %s", b.R, b.X, b.Op, b.Y)
}

func (b *BinExpr) Usages() []*Value      { return []*Value{&b.X, &b.Y} }
func (b *BinExpr) Definitions() []*Value { return []*Value{&b.R} }

// UnExpr is the catch-all unary-compute instruction.
type UnExpr struct {
	R  Value
	Op UnOp
	X  Value
}

func (u *UnExpr) String() string {
	return fmt.Sprintf("%s = %s%s", u.R, u.Op, u.X)
}

func (u *UnExpr) Usages() []*Value      { return []*Value{&u.X} }
func (u *UnExpr) Definitions() []*Value { return []*Value{&u.R} }

// Phi is kept off the Instr stream (on BasicBlock.Phis) rather than tagged
// into Instr, matching how a Phi is visually and semantically distinct
// from the rest of the instruction list in every pass that walks a block.
// Const is an integer constant, the one instruction kind with no operand:
// loop bounds, stride multipliers, and the induction-variable zero/one
// come from here rather than from a magic Undef sentinel.
type Const struct {
	R Value
	V int64
}

func (c *Const) String() string              { return fmt.Sprintf("%s = const %d", c.R, c.V) }
func (c *Const) Definitions() []*Value        { return []*Value{&c.R} }

// Phi's incoming map stores a *Value per predecessor, not a Value, so that
// Usages() can hand back pointers that alias the map's own storage — the
// same reason the teacher's IrPhi keeps map[*BasicBlock]*Reg rather than
// map[*BasicBlock]Reg: every rewrite pass needs to mutate an operand in
// place through the pointer Usages() returns.
type Phi struct {
	R Value
	V map[*BasicBlock]*Value
}

func (p *Phi) String() string {
	parts := make([]string, 0, len(p.V))
	for bb, v := range p.V {
		parts = append(parts, fmt.Sprintf("bb%d: %s", bb.ID, *v))
	}
	return fmt.Sprintf("%s = phi(%s)", p.R, strings.Join(parts, ", "))
}

func (p *Phi) Usages() []*Value {
	r := make([]*Value, 0, len(p.V))
	for _, v := range p.V {
		r = append(r, v)
	}
	return r
}

func (p *Phi) Definitions() []*Value { return []*Value{&p.R} }

// Terminator is implemented by Br and Ret.
type Terminator interface {
	Node
	Successors() []*BasicBlock
	iscfgterminator()
}

func (*Br) iscfgterminator()  {}
func (*Ret) iscfgterminator() {}

// Br is the single terminator kind for both unconditional jumps and
// barrier-dispatch switches: an unconditional branch has an empty Targets
// and only Default set; a multi-way switch (the dispatcher's "switch(last_barrier_id)")
// populates Targets by barrier id and Default as the unreachable case.
type Br struct {
	Cond     Value // Undef for an unconditional/switch-less branch
	Targets  map[int64]*BasicBlock
	Default  *BasicBlock
}

func (b *Br) String() string {
	if len(b.Targets) == 0 {
		return fmt.Sprintf("goto bb%d", b.Default.ID)
	}
	keys := make([]int64, 0, len(b.Targets))
	for k := range b.Targets {
		keys = append(keys, k)
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d => bb%d", k, b.Targets[k].ID)
	}
	return fmt.Sprintf("switch %s { %s, _ => bb%d }", b.Cond, strings.Join(parts, ", "), b.Default.ID)
}

func (b *Br) Usages() []*Value {
	if !b.Cond.Valid() {
		return nil
	}
	return []*Value{&b.Cond}
}

func (b *Br) Successors() []*BasicBlock {
	seen := make(map[*BasicBlock]bool)
	var out []*BasicBlock
	for _, bb := range b.Targets {
		if !seen[bb] {
			seen[bb] = true
			out = append(out, bb)
		}
	}
	if b.Default != nil && !seen[b.Default] {
		out = append(out, b.Default)
	}
	return out
}

// Ret marks a kernel exit block; no kernel body returns values.
type Ret struct{}

func (*Ret) String() string                { return "ret" }
func (*Ret) Successors() []*BasicBlock     { return nil }
