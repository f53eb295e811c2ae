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

// Pack serializes value through atom against stream, flushing any
// deferred offset writes staged by OffsetAtom before returning.
func Pack(atom Atom, value any, stream Stream, globals *Context) error {
	state := NewState(stream, globals)
	l := NewRootLayer(state)
	defer l.invalidate()
	if err := atom.Pack(value, l); err != nil {
		return err
	}
	return state.Flush()
}

// Unpack deserializes a value of atom's shape from stream.
func Unpack(atom Atom, stream Stream, globals *Context) (any, error) {
	state := NewState(stream, globals)
	l := NewRootLayer(state)
	defer l.invalidate()
	return atom.Unpack(l)
}

// Sizeof reports atom's static encoded size, or a *Error with Kind
// DynamicSize if the size depends on runtime data.
func Sizeof(atom Atom, globals *Context) (int, error) {
	state := NewState(nil, globals)
	l := NewRootLayer(state)
	defer l.invalidate()
	return atom.Size(l)
}

// Typeof reports atom's declared host-language type.
func Typeof(atom Atom) TypeTag {
	return atom.Type()
}
