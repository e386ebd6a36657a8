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

// Package interp is a direct, software evaluator over ir.Function, used
// only by this repository's own tests to check the testable properties of
// §8: they run a kernel's post-transform, dispatcher-driven body once and
// compare the buffer it wrote against fixed expected values. It has no
// part in the pass itself.
package interp

import (
	"encoding/binary"

	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/Kerilk/pocl/ir"
)

// Memory is a flat byte-addressable heap backing every alloca and every
// buffer a test wires in as a kernel argument. Bytes are allocated dirty
// (uninitialized) via dirtmake, matching every allocation here: the first
// thing done with a fresh slot is either a Store or immediately loaded to
// feed a deterministic comparison, never relied on to start zeroed.
type Memory struct {
	bytes []byte
	next  int64
}

func NewMemory(size int) *Memory {
	return &Memory{bytes: dirtmake.Bytes(size, size)}
}

// Alloc reserves n bytes and returns their base address.
func (m *Memory) Alloc(n int) int64 {
	addr := m.next
	m.next += int64(n)
	if int(m.next) > len(m.bytes) {
		panic("interp: memory exhausted")
	}
	return addr
}

func (m *Memory) ReadI64(addr int64) int64 {
	return int64(binary.LittleEndian.Uint64(m.bytes[addr : addr+8]))
}

func (m *Memory) WriteI64(addr int64, v int64) {
	binary.LittleEndian.PutUint64(m.bytes[addr:addr+8], uint64(v))
}

// Callee resolves a Call's callee name to a value, given its already
// evaluated arguments — the interpreter's way of binding
// _local_id_x/y/z (and _local_size_x/y/z, for a dynamic-size test) to
// concrete values without the evaluator needing to know those names are
// special.
type Callee func(args []int64) int64

// State is one evaluation's mutable register file plus the external
// collaborators (memory, callee bindings) it reads through.
type State struct {
	Mem    *Memory
	Callee map[string]Callee

	regs     map[ir.Value]int64
	steps    int
	maxSteps int
}

// NewState creates a State with every value in seed already bound —
// typically a kernel's implicit pointer arguments (output buffers) the
// test has allocated addresses for.
func NewState(mem *Memory, callees map[string]Callee, seed map[ir.Value]int64) *State {
	s := &State{Mem: mem, Callee: callees, regs: make(map[ir.Value]int64), maxSteps: 1 << 20}
	for k, v := range seed {
		s.regs[k] = v
	}
	return s
}

func (s *State) Get(v ir.Value) int64 { return s.regs[v] }
func (s *State) Set(v ir.Value, x int64) {
	if v.Valid() {
		s.regs[v] = x
	}
}

// Run executes f starting at f.Entry until it reaches a Ret, mutating s
// in place and returning the final register file. It panics if execution
// exceeds s.maxSteps, the interpreter's own "this should have
// terminated" invariant — a real bug in the function under test (an
// infinite dispatcher loop, a latch that never reaches its exit
// condition) rather than a recoverable condition.
func (s *State) Run(f *ir.Function) map[ir.Value]int64 {
	cur := f.Entry
	var prev *ir.BasicBlock

	for {
		for _, ph := range cur.Phis {
			incoming, ok := ph.V[prev]
			if !ok {
				panic("interp: phi has no incoming edge from the block actually taken")
			}
			s.Set(ph.R, s.Get(*incoming))
		}

		for _, in := range cur.Instr {
			s.step(in)
		}

		switch term := cur.Term.(type) {
		case *ir.Ret:
			return s.regs
		case *ir.Br:
			next := term.Default
			if term.Cond.Valid() {
				if t, ok := term.Targets[s.Get(term.Cond)]; ok {
					next = t
				}
			}
			if next == nil {
				panic("interp: branch has no resolvable target")
			}
			prev, cur = cur, next
		default:
			panic("interp: unterminated block")
		}

		s.steps++
		if s.steps > s.maxSteps {
			panic("interp: exceeded step budget, probable non-terminating dispatcher loop")
		}
	}
}

func (s *State) step(in *ir.Instr) {
	switch in.Kind {
	case ir.KAlloca:
		n := int(in.Alloca.Count) * int(in.Alloca.ElemSize)
		if n == 0 {
			n = 8
		}
		s.Set(in.Def, s.Mem.Alloc(n))
	case ir.KLoad:
		s.Set(in.Def, s.Mem.ReadI64(s.Get(in.Load.Ptr)))
	case ir.KStore:
		s.Mem.WriteI64(s.Get(in.Store.Ptr), s.Get(in.Store.V))
	case ir.KGEP:
		base := s.Get(in.GEP.Base)
		idx := s.Get(in.GEP.Index)
		s.Set(in.Def, base+idx*int64(in.GEP.Stride))
	case ir.KCall:
		args := make([]int64, len(in.Call.Args))
		for i, a := range in.Call.Args {
			args[i] = s.Get(a)
		}
		if fn, ok := s.Callee[in.Call.Callee]; ok {
			s.Set(in.Def, fn(args))
		}
	case ir.KBinOp:
		s.Set(in.Def, evalBinOp(in.Bin.Op, s.Get(in.Bin.X), s.Get(in.Bin.Y)))
	case ir.KUnOp:
		s.Set(in.Def, evalUnOp(in.Un.Op, s.Get(in.Un.X)))
	case ir.KConst:
		s.Set(in.Def, in.Const.V)
	}
}

func evalBinOp(op ir.BinOp, x, y int64) int64 {
	switch op {
	case ir.OpAdd:
		return x + y
	case ir.OpSub:
		return x - y
	case ir.OpMul:
		return x * y
	case ir.OpUDiv:
		return x / y
	case ir.OpAnd:
		return x & y
	case ir.OpOr:
		return x | y
	case ir.OpXor:
		return x ^ y
	case ir.OpShl:
		return x << uint(y)
	case ir.OpShr:
		return x >> uint(y)
	case ir.OpCmpEq:
		return boolToInt(x == y)
	case ir.OpCmpNe:
		return boolToInt(x != y)
	case ir.OpCmpLt:
		return boolToInt(x < y)
	case ir.OpCmpLe:
		return boolToInt(x <= y)
	default:
		panic("interp: unknown binop")
	}
}

func evalUnOp(op ir.UnOp, x int64) int64 {
	switch op {
	case ir.OpNeg:
		return -x
	case ir.OpNot:
		return boolToInt(x == 0)
	default:
		panic("interp: unknown unop")
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
