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

import "fmt"

// Field names one member of a StructAtom: an Atom bound to Name, with
// an optional Condition overriding whether it participates at all
// (equivalent to wrapping the atom in a ConditionAtom, but reported
// with the field's own name rather than an anonymous child layer).
type Field struct {
	Name      string
	Atom      Atom
	Condition any
	Order     ByteOrder
}

// F builds a Field with no condition override.
func F(name string, atom Atom) Field { return Field{Name: name, Atom: atom} }

// FIf builds a Field that only participates when cond evaluates
// truthy against the enclosing layer.
func FIf(name string, atom Atom, cond any) Field {
	return Field{Name: name, Atom: atom, Condition: cond}
}

func (f Field) resolvedAtom() Atom {
	if f.Order != NativeEndian {
		SetByteOrder(f.Atom, f.Order)
	}
	return f.Atom
}

func (f Field) active(l *Layer) (bool, error) {
	if f.Condition == nil {
		return true, nil
	}
	v, err := evalOperand(l, f.Condition)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// StructAtom packs/unpacks a named, ordered composite: pack/unpack
// values as a map[string]any keyed by field name. Union, when set,
// treats the struct as a tagged union for sizing purposes: Sizeof
// reports the maximum field size rather than the sum, matching a C
// union's storage layout.
type StructAtom struct {
	Name   string
	Fields []Field
	Union  bool
}

// Struct builds a StructAtom named name over the given ordered fields.
func Struct(name string, fields ...Field) *StructAtom {
	return &StructAtom{Name: name, Fields: fields}
}

// AsUnion marks the receiver as union-sized and returns it.
func (a *StructAtom) AsUnion() *StructAtom {
	a.Union = true
	return a
}

func (a *StructAtom) childLayer(l *Layer) *Layer {
	return l.child(a.Name, NewContext())
}

func (a *StructAtom) Pack(value any, l *Layer) error {
	values, ok := value.(map[string]any)
	if !ok {
		return errTypeMismatch("Struct.Pack", l, fmt.Errorf("got %T, want map[string]any for struct %q", value, a.Name))
	}
	cl := a.childLayer(l)
	cl.Value = value
	for _, f := range a.Fields {
		fl := cl.withField(&FieldRef{Name: f.Name})
		active, err := f.active(fl)
		if err != nil {
			return err
		}
		if !active {
			continue
		}
		v, present := values[f.Name]
		if !present {
			return errInvalidValue("Struct.Pack", fl, fmt.Errorf("missing field %q", f.Name))
		}
		cl.Obj.Set(f.Name, v)
		if err := f.resolvedAtom().Pack(v, fl); err != nil {
			return err
		}
	}
	return nil
}

func (a *StructAtom) Unpack(l *Layer) (any, error) {
	cl := a.childLayer(l)
	out := make(map[string]any, len(a.Fields))
	for _, f := range a.Fields {
		fl := cl.withField(&FieldRef{Name: f.Name})
		active, err := f.active(fl)
		if err != nil {
			return nil, err
		}
		if !active {
			continue
		}
		v, err := f.resolvedAtom().Unpack(fl)
		if err != nil {
			return nil, err
		}
		cl.Obj.Set(f.Name, v)
		if !IsAbsent(v) {
			out[f.Name] = v
		}
	}
	return out, nil
}

func (a *StructAtom) Size(l *Layer) (int, error) {
	cl := a.childLayer(l)
	if a.Union {
		max := 0
		for _, f := range a.Fields {
			n, err := f.resolvedAtom().Size(cl.withField(&FieldRef{Name: f.Name}))
			if err != nil {
				return 0, err
			}
			if n > max {
				max = n
			}
		}
		return max, nil
	}
	total := 0
	for _, f := range a.Fields {
		n, err := f.resolvedAtom().Size(cl.withField(&FieldRef{Name: f.Name}))
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (a *StructAtom) Type() TypeTag { return TypeStruct }

func (a *StructAtom) setByteOrder(o ByteOrder) {
	for i := range a.Fields {
		propagate(a.Fields[i].Atom, o)
	}
}
