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

// Atom is the central polymorphic entity: anything that knows how to
// pack, unpack, size, and type itself. Every concrete atom in
// this package implements Atom directly ("native dispatch", per the
// Design Notes); a user-supplied atom only needs to implement the
// subset of Packer/Unpacker/Sizer/Typer it cares about and can be
// wrapped with Adapt.
type Atom interface {
	Packer
	Unpacker
	Sizer
	Typer
}

// Packer writes the representation of value to layer.State().Stream.
type Packer interface {
	Pack(value any, l *Layer) error
}

// Unpacker reads and returns a value from layer.State().Stream.
type Unpacker interface {
	Unpack(l *Layer) (any, error)
}

// Sizer reports the static or context-dependent byte size of an
// atom's encoding. Implementations return a *Error with Kind
// DynamicSize when the size cannot be determined without consuming
// input (varint, greedy repeats, a switch without a callable
// selector).
type Sizer interface {
	Size(l *Layer) (int, error)
}

// Typer reports the declared host-language type an atom produces.
type Typer interface {
	Type() TypeTag
}

// ManyPacker is an optional bulk-pack capability: atoms that can pack
// a whole sequence in one call (notably PaddingAtom) implement this so
// RepeatedAtom can skip the per-element layer loop.
type ManyPacker interface {
	PackMany(value any, l *Layer, length lengthInfo) error
}

// ManyUnpacker is the unpack counterpart of ManyPacker.
type ManyUnpacker interface {
	UnpackMany(l *Layer, length lengthInfo) (any, error)
}

// absentType is the type of the sentinel value ConditionAtom.Unpack
// returns when its condition is false; StructAtom treats it as "skip
// this field" rather than assigning a Go nil.
type absentType struct{}

// Absent is returned by ConditionAtom.Unpack when the condition is
// false. StructAtom.Unpack (which package structmodel also compiles
// to) leaves a field whose value is Absent out of the map it returns.
var Absent = absentType{}

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absentType)
	return ok
}

// adapter wraps a partial (Packer/Unpacker/Sizer/Typer) implementation
// into an Atom: a missing Packer or Unpacker yields a NotImplemented
// *Error, a missing Sizer a DynamicSize *Error, and a missing Typer
// TypeAny. This is the "dyn Atom" escape hatch the Design Notes
// call for: user-supplied atoms that only implement part of the
// protocol still compose with the combinators in this package.
type adapter struct {
	name string
	p    Packer
	u    Unpacker
	s    Sizer
	t    Typer
}

// Adapt builds an Atom out of whichever of Packer/Unpacker/Sizer/Typer
// v implements. name is used in the error messages for the
// capabilities v lacks.
func Adapt(name string, v any) Atom {
	a := &adapter{name: name}
	a.p, _ = v.(Packer)
	a.u, _ = v.(Unpacker)
	a.s, _ = v.(Sizer)
	a.t, _ = v.(Typer)
	return a
}

func (a *adapter) Pack(value any, l *Layer) error {
	if a.p == nil {
		return errNotImplemented(a.name+".Pack", l)
	}
	return a.p.Pack(value, l)
}

func (a *adapter) Unpack(l *Layer) (any, error) {
	if a.u == nil {
		return nil, errNotImplemented(a.name+".Unpack", l)
	}
	return a.u.Unpack(l)
}

func (a *adapter) Size(l *Layer) (int, error) {
	if a.s == nil {
		return 0, errDynamicSize(a.name+".Size", l)
	}
	return a.s.Size(l)
}

func (a *adapter) Type() TypeTag {
	if a.t == nil {
		return TypeAny
	}
	return a.t.Type()
}
