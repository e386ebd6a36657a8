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

// LocalSizes is the per-dimension work-group size, resolved once by
// external.KernelInfo.LocalSize up front so every later component reads
// plain integers (or the corresponding runtime Values, for the dynamic
// case) instead of re-deriving the metadata-vs-global branch.
type LocalSizes struct {
	// Const holds the per-dimension size when it is known at transform
	// time (WGDynamicLocalSize false).
	Const [3]uint32
	// Dynamic holds a runtime Value loaded from _local_size_x/y/z,
	// populated only when WGDynamicLocalSize is true.
	Dynamic   [3]ir.Value
	IsDynamic bool
}

// emitConst appends an integer constant to bb's instructions and returns its
// Value — every loop bound, stride and induction-variable seed funnels
// through here instead of synthesizing a fake operand.
func emitConst(f *ir.Function, bb *ir.BasicBlock, v int64) ir.Value {
	r := f.NewValue()
	f.Emit(bb, &ir.Instr{Kind: ir.KConst, Def: r, Const: &ir.Const{R: r, V: v}})
	return r
}

// loadLocalSizes resolves a kernel's local-size triple into a LocalSizes
// value the rest of the package can consume uniformly: constants straight
// from metadata, or one call per dimension to the corresponding
// _local_size_x/y/z global when the size is only known at run time.
func loadLocalSizes(f *ir.Function, bb *ir.BasicBlock, x, y, z uint32, dynamic bool) LocalSizes {
	sizes := LocalSizes{Const: [3]uint32{x, y, z}, IsDynamic: dynamic}
	if !dynamic {
		return sizes
	}
	for d, name := range ir.LocalSizeGlobalNames {
		v := f.NewValue()
		f.Emit(bb, &ir.Instr{Kind: ir.KCall, Def: v, Call: &ir.Call{R: v, Callee: name}})
		sizes.Dynamic[d] = v
	}
	return sizes
}

func sizeValue(f *ir.Function, bb *ir.BasicBlock, sizes LocalSizes, d int) ir.Value {
	if sizes.IsDynamic {
		return sizes.Dynamic[d]
	}
	return emitConst(f, bb, int64(sizes.Const[d]))
}

// LoopNest is the result of CreateLoopsAround: the per-dimension headers
// and latches (innermost first), the block callers splice their region
// body into, the outermost header/latch, and the contiguous index the
// body should use to address backing slots.
type LoopNest struct {
	Headers []*ir.BasicBlock // innermost first
	Latches []*ir.BasicBlock // innermost first
	Body    *ir.BasicBlock   // innermost header: the region body branches from here
	Outer   *ir.BasicBlock   // outermost header
	ContIdx ir.Value
	IndVars []ir.Value // per dimension, 0..dim-1
}

func (n LoopNest) LatchSet() map[*ir.BasicBlock]bool {
	s := make(map[*ir.BasicBlock]bool, len(n.Latches))
	for _, l := range n.Latches {
		s[l] = true
	}
	return s
}

// CreateLoopsAround builds, from innermost to outermost dimension d in
// [dim-1 .. 0], a header block with a 2-operand induction-variable Phi
// and a latch block incrementing it, wires the headers/latches into a
// nest, rewires every outer latch's non-continue edge to target the
// next-outer latch rather than afterBB (only the outermost latch exits
// there), and computes the contiguous linear index
// idx = ((ind_0*size_1)+ind_1)*size_2+ind_2, projected to dim.
//
// entryPred is the block the outermost header's induction-variable Phi
// takes its initial (zero) value from — the function entry on first
// construction around the no-barrier kernel body, or a SubCFG's
// pre_header when wrapping a replicated region.
func (p *Pass) CreateLoopsAround(f *ir.Function, entryPred, afterBB *ir.BasicBlock, sizes LocalSizes, dim int) *LoopNest {
	n := &LoopNest{IndVars: make([]ir.Value, dim)}
	if dim == 0 {
		return n
	}

	zero := emitConst(f, entryPred, 0)
	one := emitConst(f, entryPred, 1)

	for d := dim - 1; d >= 0; d-- {
		header := f.CreateBlock("wiloop.header")
		latch := f.CreateBlock("wiloop.latch")

		ind := f.NewValue()
		f.EmitPhi(header, &ir.Phi{R: ind, V: map[*ir.BasicBlock]*ir.Value{}})
		n.IndVars[d] = ind

		inc := f.NewValue()
		f.Emit(latch, &ir.Instr{Kind: ir.KBinOp, Def: inc, Bin: &ir.BinExpr{R: inc, Op: ir.OpAdd, X: ind, Y: one}})
		size := sizeValue(f, latch, sizes, d)
		cmp := f.NewValue()
		f.Emit(latch, &ir.Instr{Kind: ir.KBinOp, Def: cmp, Bin: &ir.BinExpr{R: cmp, Op: ir.OpCmpLt, X: inc, Y: size}})

		latch.Term = &ir.Br{Cond: cmp, Targets: map[int64]*ir.BasicBlock{1: header}, Default: afterBB}
		header.Preds = append(header.Preds, latch)

		phi := header.Phis[0]
		incv := inc
		phi.V[latch] = &incv

		n.Headers = append(n.Headers, header)
		n.Latches = append(n.Latches, latch)
	}

	// header[i] (outer, larger i) branches into header[i-1] (next inner).
	for i := len(n.Headers) - 1; i > 0; i-- {
		outer := n.Headers[i]
		inner := n.Headers[i-1]
		outer.Term = &ir.Br{Default: inner}
		inner.Preds = append(inner.Preds, outer)

		innerPhi := inner.Phis[0]
		z := zero
		innerPhi.V[outer] = &z
	}

	// latch[i] (inner) on loop exit continues to latch[i+1] (outer), not
	// afterBB directly — only the outermost latch's non-continue edge
	// reaches afterBB.
	for i := 0; i < len(n.Latches)-1; i++ {
		inner := n.Latches[i]
		outer := n.Latches[i+1]
		inner.Term.(*ir.Br).Default = outer
	}

	n.Outer = n.Headers[dim-1]
	n.Body = n.Headers[0]
	n.Outer.Preds = append(n.Outer.Preds, entryPred)
	outerPhi := n.Outer.Phis[0]
	z := zero
	outerPhi.V[entryPred] = &z

	p.tags.markWorkItemLoop(n.Latches[0])

	n.ContIdx = computeContIdx(f, n.Body, n.IndVars, sizes, dim)
	return n
}

// computeContIdx emits idx = ((ind_0*size_1)+ind_1)*size_2+ind_2
// (projected to dim) in body, the block every region's cloned
// instructions will be spliced into, so the chain is always available
// there by construction.
func computeContIdx(f *ir.Function, body *ir.BasicBlock, indVars []ir.Value, sizes LocalSizes, dim int) ir.Value {
	acc := indVars[0]
	for d := 1; d < dim; d++ {
		size := sizeValue(f, body, sizes, d)
		mul := f.NewValue()
		f.Emit(body, &ir.Instr{Kind: ir.KBinOp, Def: mul, Bin: &ir.BinExpr{R: mul, Op: ir.OpMul, X: acc, Y: size}})
		add := f.NewValue()
		f.Emit(body, &ir.Instr{Kind: ir.KBinOp, Def: add, Bin: &ir.BinExpr{R: add, Op: ir.OpAdd, X: mul, Y: indVars[d]}})
		acc = add
	}
	return acc
}
