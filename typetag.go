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

// TypeTag is the declared host-language type of the values an atom
// produces. It exists so callers (and the struct-model binding layer)
// can introspect an atom tree without unpacking anything.
type TypeTag int

const (
	TypeNone TypeTag = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeBytes
	TypeString
	TypeSequence
	TypeStruct
	TypeAny
)

func (t TypeTag) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBytes:
		return "bytes"
	case TypeString:
		return "string"
	case TypeSequence:
		return "sequence"
	case TypeStruct:
		return "struct"
	case TypeAny:
		return "any"
	default:
		return "unknown"
	}
}

// ByteOrder selects the endianness a primitive atom encodes with.
type ByteOrder int

const (
	// NativeEndian defers to the atom's own default (little-endian
	// unless overridden).
	NativeEndian ByteOrder = iota
	LittleEndian
	BigEndian
)

// byteOrderAware is implemented by atoms whose encoding depends on
// byte order and that can have it overridden by an enclosing
// SetByteOrder call or a field's endian annotation.
type byteOrderAware interface {
	setByteOrder(o ByteOrder)
}

// SetByteOrder overrides the byte order of a, propagating to child
// atoms where the atom is a combinator. Atoms that are not byte-order
// aware (bool, padding, struct containers without a primitive child)
// silently ignore the call.
func SetByteOrder(a Atom, o ByteOrder) {
	if ba, ok := a.(byteOrderAware); ok {
		ba.setByteOrder(o)
	}
}

// propagate forwards a byte-order override to v when v is an atom (or
// length spec) that cares about it. Non-atoms and order-indifferent
// atoms are ignored, so combinators can call it on any child slot.
func propagate(v any, o ByteOrder) {
	if ba, ok := v.(byteOrderAware); ok {
		ba.setByteOrder(o)
	}
}

func littleEndian(o ByteOrder, def bool) bool {
	switch o {
	case LittleEndian:
		return true
	case BigEndian:
		return false
	default:
		return def
	}
}
