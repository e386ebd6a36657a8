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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicBlockReplacePredRewritesPredsAndPhis(t *testing.T) {
	f := NewFunction("k")
	from := f.CreateBlock("from")
	to := f.CreateBlock("to")
	merge := f.CreateBlock("merge")
	merge.Preds = []*BasicBlock{from}

	v := f.NewValue()
	phi := &Phi{R: f.NewValue(), V: map[*BasicBlock]*Value{from: &v}}
	merge.Phis = []*Phi{phi}

	merge.ReplacePred(from, to)

	require.Equal(t, []*BasicBlock{to}, merge.Preds)
	_, stillFrom := phi.V[from]
	require.False(t, stillFrom)
	require.Equal(t, &v, phi.V[to])
}

func TestBasicBlockSuccessorsDedupsTargets(t *testing.T) {
	f := NewFunction("k")
	a := f.CreateBlock("a")
	b := f.CreateBlock("b")
	a.Term = &Br{Targets: map[int64]*BasicBlock{1: b, 2: b}, Default: b}

	require.Equal(t, []*BasicBlock{b}, a.Successors())
}

func TestBasicBlockSuccessorsUnterminatedIsNil(t *testing.T) {
	f := NewFunction("k")
	bb := f.CreateBlock("bb")
	require.Nil(t, bb.Successors())
}
