// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package caterpillar

import "strconv"

// FieldRef names the struct field an atom is being invoked through;
// StructAtom attaches it to each field's layer (see Layer.Field). It
// carries only the field name and does not change the layer's Path.
type FieldRef struct {
	Name string
}

// Layer is a single frame of the parsing context: one per struct or
// sequence nesting level. A Layer is created when entering a
// substructure or sequence and is invalidated on exit; layers form a
// strictly LIFO stack via parent, per the Design Notes.
type Layer struct {
	parent *Layer
	state  *State

	path  string
	field *FieldRef

	// Obj is the current object's Context, when this layer scopes
	// a struct. Nil for sequence layers.
	Obj *Context
	// Value holds the value currently being packed (pack mode
	// only); nil during unpack.
	Value any

	// Sequence layer bookkeeping.
	Sequence   any
	Index      int
	Length     int
	Greedy     bool
	Sequential bool

	invalid bool
}

// NewRootLayer builds the initial layer for a top-level Pack/Unpack/
// Sizeof call.
func NewRootLayer(state *State) *Layer {
	return &Layer{state: state, path: "<root>", Obj: NewContext()}
}

// State returns the owning State.
func (l *Layer) State() *State {
	if l == nil {
		return nil
	}
	return l.state
}

// Path returns the dotted path to this layer: a child's path is
// parent.path + "." + segment.
func (l *Layer) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Parent returns the enclosing layer, or nil at the root.
func (l *Layer) Parent() *Layer { return l.parent }

// Field returns the field this layer (or the atom currently using it)
// is bound to, if any.
func (l *Layer) Field() *FieldRef { return l.field }

// child allocates a new struct-scoped layer nested under l.
func (l *Layer) child(segment string, obj *Context) *Layer {
	return &Layer{
		parent: l,
		state:  l.state,
		path:   l.path + "." + segment,
		Obj:    obj,
	}
}

// elementLayer allocates a sequence-element layer at position index
// under l, following the "<N>" segment convention.
func (l *Layer) elementLayer(index int) *Layer {
	return &Layer{
		parent: l,
		state:  l.state,
		path:   l.path + ".<" + strconv.Itoa(index) + ">",
		Index:  index,
	}
}

// withField returns a shallow copy of l annotated with field, used by
// struct walking to let atoms see which named field they're bound to
// without allocating a fresh struct scope.
func (l *Layer) withField(f *FieldRef) *Layer {
	cp := *l
	cp.field = f
	return &cp
}

// invalidate clears a layer's fields and unlinks its parent, marking it
// invalidated on exit. It is not required for correctness (Go is
// garbage collected) but documents the lifetime contract and helps
// catch use-after-exit bugs during development.
func (l *Layer) invalidate() {
	l.parent = nil
	l.Obj = nil
	l.Value = nil
	l.Sequence = nil
	l.invalid = true
}
