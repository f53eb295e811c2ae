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

import (
	"errors"
	"fmt"
	"io"
	"reflect"
)

// ConstAtom packs a fixed Value through Child regardless of the input
// (pack ignores its argument); unpack reads via Child and fails with
// InvalidValue if the result isn't equal to Value.
type ConstAtom struct {
	Child Atom
	Value any
}

// Const builds a ConstAtom.
func Const(child Atom, value any) *ConstAtom { return &ConstAtom{Child: child, Value: value} }

func (a *ConstAtom) Pack(_ any, l *Layer) error {
	return a.Child.Pack(a.Value, l)
}

func (a *ConstAtom) Unpack(l *Layer) (any, error) {
	v, err := a.Child.Unpack(l)
	if err != nil {
		return nil, err
	}
	if !reflect.DeepEqual(v, a.Value) {
		return nil, errInvalidValue("Const.Unpack", l, fmt.Errorf("got %v, want constant %v", v, a.Value))
	}
	return v, nil
}

func (a *ConstAtom) Size(l *Layer) (int, error) { return a.Child.Size(l) }
func (a *ConstAtom) Type() TypeTag              { return a.Child.Type() }
func (a *ConstAtom) setByteOrder(o ByteOrder)   { propagate(a.Child, o) }

// EnumAtom packs/unpacks the integer representation of a named value
// through Child. Values maps member names to their integer
// encoding; unpack falls back to Default when set, else returns the
// raw decoded integer.
type EnumAtom struct {
	Child      Atom
	Values     map[string]int64
	Default    any
	HasDefault bool

	byValue map[int64]string
}

// Enum builds an EnumAtom over the given name->value mapping.
func Enum(child Atom, values map[string]int64) *EnumAtom {
	byValue := make(map[int64]string, len(values))
	for name, v := range values {
		byValue[v] = name
	}
	return &EnumAtom{Child: child, Values: values, byValue: byValue}
}

// WithDefault sets the fallback value EnumAtom.Unpack returns when the
// decoded integer has no matching name, and returns the receiver.
func (a *EnumAtom) WithDefault(v any) *EnumAtom {
	a.Default = v
	a.HasDefault = true
	return a
}

func (a *EnumAtom) Pack(value any, l *Layer) error {
	switch t := value.(type) {
	case string:
		iv, ok := a.Values[t]
		if !ok {
			return errInvalidValue("Enum.Pack", l, fmt.Errorf("unknown member %q", t))
		}
		return a.Child.Pack(iv, l)
	default:
		iv, ok := asInt(value)
		if !ok {
			return errTypeMismatch("Enum.Pack", l, fmt.Errorf("got %T, want member name or integer", value))
		}
		return a.Child.Pack(iv, l)
	}
}

func (a *EnumAtom) Unpack(l *Layer) (any, error) {
	v, err := a.Child.Unpack(l)
	if err != nil {
		return nil, err
	}
	iv, ok := asInt(v)
	if !ok {
		return nil, errTypeMismatch("Enum.Unpack", l, fmt.Errorf("child atom produced %T, want integer", v))
	}
	if name, ok := a.byValue[iv]; ok {
		return name, nil
	}
	if a.HasDefault {
		return a.Default, nil
	}
	return iv, nil
}

func (a *EnumAtom) Size(l *Layer) (int, error) { return a.Child.Size(l) }
func (a *EnumAtom) Type() TypeTag              { return a.Child.Type() }
func (a *EnumAtom) setByteOrder(o ByteOrder)   { propagate(a.Child, o) }

// RepeatedAtom packs/unpacks a homogeneous sequence of Child elements,
// using Length to determine the element count. Unpack returns []any;
// Pack accepts []any or any other slice or array, whose elements it
// reads through reflection.
type RepeatedAtom struct {
	Child  Atom
	Length any
}

// Repeated builds a RepeatedAtom.
func Repeated(child Atom, length any) *RepeatedAtom {
	return &RepeatedAtom{Child: child, Length: length}
}

func (a *RepeatedAtom) Pack(value any, l *Layer) error {
	items, err := toSlice(value, l, "Repeated.Pack")
	if err != nil {
		return err
	}
	li, err := evalLengthSpec(l, a.Length)
	if err != nil {
		return err
	}
	if li.kind == lengthFixed && li.n != len(items) {
		return errLengthMismatch("Repeated.Pack", l, fmt.Errorf("value has %d elements, declared length is %d", len(items), li.n))
	}
	if mp, ok := a.Child.(ManyPacker); ok {
		li.n = len(items)
		return mp.PackMany(value, l, li)
	}
	if err := packLength(l, li, len(items)); err != nil {
		return err
	}
	for i, item := range items {
		el := l.elementLayer(i)
		el.Sequential = true
		el.Sequence = items
		el.Length = len(items)
		if err := a.Child.Pack(item, el); err != nil {
			return err
		}
	}
	return nil
}

func toSlice(value any, l *Layer, fn string) ([]any, error) {
	if items, ok := value.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, errTypeMismatch(fn, l, fmt.Errorf("got %T, want a sequence", value))
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// isEOFLike reports whether err represents a read-past-EOF condition,
// the only failure RepeatedAtom's greedy unpack loop is allowed to
// swallow before it stops and returns what it has.
func isEOFLike(err error) bool {
	var ce *Error
	if errors.As(err, &ce) && ce.Kind == IOFailure {
		return errors.Is(ce.Err, io.EOF) || errors.Is(ce.Err, io.ErrUnexpectedEOF)
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (a *RepeatedAtom) Unpack(l *Layer) (any, error) {
	li, err := evalLengthSpec(l, a.Length)
	if err != nil {
		return nil, err
	}
	if mu, ok := a.Child.(ManyUnpacker); ok {
		return mu.UnpackMany(l, li)
	}
	greedy, n, err := unpackLength(l, li)
	if err != nil {
		return nil, err
	}
	var out []any
	if greedy {
		for i := 0; ; i++ {
			el := l.elementLayer(i)
			el.Sequential = true
			el.Greedy = true
			v, err := a.Child.Unpack(el)
			if err != nil {
				if isEOFLike(err) {
					break
				}
				return nil, err
			}
			out = append(out, v)
		}
	} else {
		out = make([]any, 0, n)
		for i := 0; i < n; i++ {
			el := l.elementLayer(i)
			el.Sequential = true
			el.Length = n
			v, err := a.Child.Unpack(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (a *RepeatedAtom) Size(l *Layer) (int, error) {
	li, err := evalLengthSpec(l, a.Length)
	if err != nil {
		return 0, err
	}
	n, ok := staticLength(l, li)
	if !ok {
		return 0, errDynamicSize("Repeated.Size", l)
	}
	each, err := a.Child.Size(l)
	if err != nil {
		return 0, err
	}
	return n * each, nil
}

func (a *RepeatedAtom) Type() TypeTag { return TypeSequence }

func (a *RepeatedAtom) setByteOrder(o ByteOrder) {
	propagate(a.Child, o)
	propagate(a.Length, o)
}

// ConditionAtom delegates to Child only when Condition evaluates
// truthy. Pack is a no-op and Unpack returns Absent otherwise.
type ConditionAtom struct {
	Condition any
	Child     Atom
}

// Condition builds a ConditionAtom. cond may be a bool literal, an
// Expr, or a func(*Layer) (any, error).
func Condition(cond any, child Atom) *ConditionAtom {
	return &ConditionAtom{Condition: cond, Child: child}
}

func (a *ConditionAtom) eval(l *Layer) (bool, error) {
	v, err := evalOperand(l, a.Condition)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func (a *ConditionAtom) Pack(value any, l *Layer) error {
	ok, err := a.eval(l)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return a.Child.Pack(value, l)
}

func (a *ConditionAtom) Unpack(l *Layer) (any, error) {
	ok, err := a.eval(l)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Absent, nil
	}
	return a.Child.Unpack(l)
}

func (a *ConditionAtom) Size(l *Layer) (int, error) {
	ok, err := a.eval(l)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return a.Child.Size(l)
}

func (a *ConditionAtom) Type() TypeTag { return a.Child.Type() }

func (a *ConditionAtom) setByteOrder(o ByteOrder) { propagate(a.Child, o) }

// DefaultCase is the sentinel case key a map-shaped SwitchAtom.Cases
// falls back to when the discriminator doesn't match any other key.
var DefaultCase = struct{ defaultCase bool }{true}

// SwitchAtom dispatches to one of several atoms based on a
// discriminator. ReadAtom reads the discriminator on unpack;
// Selector (required only for Pack) computes the case key from the
// layer. Cases is either a map[any]Atom or a
// func(*Layer) (Atom, error).
type SwitchAtom struct {
	ReadAtom Atom
	Selector func(l *Layer) (any, error)
	Cases    any
}

// Switch builds a SwitchAtom that reads its discriminator via
// readAtom and dispatches through cases (a map[any]Atom or a
// func(*Layer) (Atom, error)).
func Switch(readAtom Atom, cases any) *SwitchAtom {
	return &SwitchAtom{ReadAtom: readAtom, Cases: cases}
}

// WithSelector attaches the callable selector Pack requires, and
// returns the receiver.
func (a *SwitchAtom) WithSelector(sel func(l *Layer) (any, error)) *SwitchAtom {
	a.Selector = sel
	return a
}

func (a *SwitchAtom) resolve(l *Layer, key any) (Atom, bool, error) {
	switch c := a.Cases.(type) {
	case map[any]Atom:
		if at, ok := c[key]; ok {
			return at, true, nil
		}
		if at, ok := c[DefaultCase]; ok {
			return at, true, nil
		}
		return nil, false, nil
	case func(*Layer) (Atom, error):
		at, err := c(l)
		if err != nil {
			return nil, false, err
		}
		return at, true, nil
	default:
		return nil, false, fmt.Errorf("unsupported Cases type %T", a.Cases)
	}
}

func (a *SwitchAtom) Unpack(l *Layer) (any, error) {
	v, err := a.ReadAtom.Unpack(l)
	if err != nil {
		return nil, err
	}
	target, ok, err := a.resolve(l, v)
	if err != nil {
		return nil, err
	}
	if !ok || target == nil {
		return v, nil
	}
	return target.Unpack(l)
}

func (a *SwitchAtom) Pack(value any, l *Layer) error {
	if a.Selector == nil {
		return errNotImplemented("Switch.Pack", l)
	}
	key, err := a.Selector(l)
	if err != nil {
		return err
	}
	target, ok, err := a.resolve(l, key)
	if err != nil {
		return err
	}
	if !ok || target == nil {
		return errInvalidValue("Switch.Pack", l, fmt.Errorf("no case for selector result %v", key))
	}
	return target.Pack(value, l)
}

func (a *SwitchAtom) Size(l *Layer) (int, error) {
	if a.Selector == nil {
		return 0, errDynamicSize("Switch.Size", l)
	}
	key, err := a.Selector(l)
	if err != nil {
		return 0, err
	}
	target, ok, err := a.resolve(l, key)
	if err != nil {
		return 0, err
	}
	if !ok || target == nil {
		return 0, errDynamicSize("Switch.Size", l)
	}
	return target.Size(l)
}

func (a *SwitchAtom) Type() TypeTag { return TypeAny }

func (a *SwitchAtom) setByteOrder(o ByteOrder) {
	propagate(a.ReadAtom, o)
	if cases, ok := a.Cases.(map[any]Atom); ok {
		for _, at := range cases {
			propagate(at, o)
		}
	}
}

// OffsetAtom temporarily relocates the stream cursor to pack/unpack
// Child, then restores it, implementing a Saved->Relocated->Restored
// state machine. When Deferred is set, pack instead stages the
// child's encoding via State.Defer and a later State.Flush call
// performs the writes.
type OffsetAtom struct {
	Child    Atom
	Offset   any // int64, or func(*Layer) (any, error)
	Whence   int
	Deferred bool
}

// Offset builds an OffsetAtom seeking to offset (an int64 or a
// callable) relative to whence before delegating to child.
func Offset(child Atom, offset any, whence int) *OffsetAtom {
	return &OffsetAtom{Child: child, Offset: offset, Whence: whence}
}

func (a *OffsetAtom) resolveOffset(l *Layer) (int64, error) {
	v, err := evalOperand(l, a.Offset)
	if err != nil {
		return 0, err
	}
	iv, ok := asInt(v)
	if !ok {
		return 0, errTypeMismatch("Offset", l, fmt.Errorf("offset evaluated to %T, want integer", v))
	}
	return iv, nil
}

func (a *OffsetAtom) Pack(value any, l *Layer) error {
	off, err := a.resolveOffset(l)
	if err != nil {
		return err
	}
	if a.Deferred {
		bs := &bufStream{}
		sub := *l
		sub.state = &State{Stream: bs, Globals: l.state.Globals}
		if err := a.Child.Pack(value, &sub); err != nil {
			return err
		}
		l.state.Defer(off, bs.buf)
		return nil
	}
	stream := l.State().Stream
	saved, err := stream.Tell() // Saved
	if err != nil {
		return errIO("Offset.Pack", l, err)
	}
	_, err = stream.Seek(off, a.Whence) // Relocated
	var packErr error
	if err != nil {
		packErr = errIO("Offset.Pack", l, err)
	} else {
		packErr = a.Child.Pack(value, l)
	}
	_, restoreErr := stream.Seek(saved, SeekSet) // Restored (best-effort)
	if packErr != nil {
		return packErr
	}
	if restoreErr != nil {
		return errIO("Offset.Pack", l, restoreErr)
	}
	return nil
}

func (a *OffsetAtom) Unpack(l *Layer) (any, error) {
	off, err := a.resolveOffset(l)
	if err != nil {
		return nil, err
	}
	stream := l.State().Stream
	saved, err := stream.Tell()
	if err != nil {
		return nil, errIO("Offset.Unpack", l, err)
	}
	_, err = stream.Seek(off, a.Whence)
	var value any
	var unpackErr error
	if err != nil {
		unpackErr = errIO("Offset.Unpack", l, err)
	} else {
		value, unpackErr = a.Child.Unpack(l)
	}
	_, restoreErr := stream.Seek(saved, SeekSet)
	if unpackErr != nil {
		return nil, unpackErr
	}
	if restoreErr != nil {
		return nil, errIO("Offset.Unpack", l, restoreErr)
	}
	return value, nil
}

// Size always returns 0: an OffsetAtom's bytes land at a relocated
// position, so it contributes nothing to the enclosing structure's
// footprint at the cursor's current position.
func (a *OffsetAtom) Size(*Layer) (int, error) { return 0, nil }
func (a *OffsetAtom) Type() TypeTag            { return a.Child.Type() }
func (a *OffsetAtom) setByteOrder(o ByteOrder) { propagate(a.Child, o) }

// LazyAtom defers resolving its real atom until first use, breaking
// cyclic atom graphs needed for recursive formats. When
// AlwaysLazy is set, Fn is re-invoked on every call instead of caching
// the resolved atom, supporting mutually recursive grammars.
type LazyAtom struct {
	Fn         func() (Atom, error)
	AlwaysLazy bool

	resolved Atom
	order    ByteOrder
}

// Lazy builds a LazyAtom around fn.
func Lazy(fn func() (Atom, error)) *LazyAtom { return &LazyAtom{Fn: fn} }

func (a *LazyAtom) resolve() (Atom, error) {
	if !a.AlwaysLazy && a.resolved != nil {
		return a.resolved, nil
	}
	at, err := a.Fn()
	if err != nil {
		return nil, err
	}
	if a.order != NativeEndian {
		propagate(at, a.order)
	}
	if !a.AlwaysLazy {
		a.resolved = at
	}
	return at, nil
}

func (a *LazyAtom) setByteOrder(o ByteOrder) {
	a.order = o
	if a.resolved != nil {
		propagate(a.resolved, o)
	}
}

func (a *LazyAtom) Pack(value any, l *Layer) error {
	at, err := a.resolve()
	if err != nil {
		return err
	}
	return at.Pack(value, l)
}

func (a *LazyAtom) Unpack(l *Layer) (any, error) {
	at, err := a.resolve()
	if err != nil {
		return nil, err
	}
	return at.Unpack(l)
}

func (a *LazyAtom) Size(l *Layer) (int, error) {
	at, err := a.resolve()
	if err != nil {
		return 0, err
	}
	return at.Size(l)
}

func (a *LazyAtom) Type() TypeTag {
	at, err := a.resolve()
	if err != nil {
		return TypeAny
	}
	return at.Type()
}

// ComputedAtom packs nothing and unpacks to a literal value or the
// result of evaluating an Expr/callable against the layer.
// Static size is always 0.
type ComputedAtom struct {
	Value any
}

// Computed builds a ComputedAtom.
func Computed(value any) *ComputedAtom { return &ComputedAtom{Value: value} }

func (a *ComputedAtom) Pack(any, *Layer) error { return nil }

func (a *ComputedAtom) Unpack(l *Layer) (any, error) {
	return evalOperand(l, a.Value)
}

func (a *ComputedAtom) Size(*Layer) (int, error) { return 0, nil }
func (a *ComputedAtom) Type() TypeTag            { return TypeAny }
