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
	"bytes"
	"errors"
	"testing"
)

func TestRepeatedWithPrefixLength(t *testing.T) {
	l := newLayer()
	atom := Repeated(Int8(false), Int8(false))
	if err := atom.Pack([]any{int64(1), int64(2), int64(3)}, l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	want := []byte{0x03, 0x01, 0x02, 0x03}
	if !bytes.Equal(got, want) {
		t.Fatalf("Repeated pack = % x, want % x", got, want)
	}
	l2 := NewRootLayer(NewState(&bufStream{buf: got}, nil))
	v, err := atom.Unpack(l2)
	if err != nil {
		t.Fatal(err)
	}
	xs := v.([]any)
	if len(xs) != 3 || xs[0] != int64(1) || xs[1] != int64(2) || xs[2] != int64(3) {
		t.Fatalf("unpacked %v", xs)
	}
}

func TestRepeatedGreedyStopsAtEOF(t *testing.T) {
	buf := &bufStream{buf: []byte{1, 2, 3}}
	l := NewRootLayer(NewState(buf, nil))
	atom := Repeated(Int8(false), Ellipsis)
	v, err := atom.Unpack(l)
	if err != nil {
		t.Fatal(err)
	}
	xs := v.([]any)
	if len(xs) != 3 {
		t.Fatalf("got %d elements, want 3", len(xs))
	}
}

func TestRepeatedPaddingWithPrefixLength(t *testing.T) {
	l := newLayer()
	atom := Repeated(ZeroPadding, Int8(false))
	if err := atom.Pack([]any{Absent, Absent, Absent}, l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	want := []byte{0x03, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("Repeated(Padding) pack = % x, want % x", got, want)
	}
}

func TestRepeatedPaddingGreedy(t *testing.T) {
	l := newLayer()
	atom := Repeated(ZeroPadding, Ellipsis)
	if err := atom.Pack([]any{Absent, Absent, Absent, Absent, Absent}, l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	want := []byte{0x00, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("Repeated(Padding, Ellipsis) pack = % x, want % x (length of input, not zero)", got, want)
	}
}

func TestSwitchSelectorPack(t *testing.T) {
	l := newLayer()
	l.Obj.Set("kind", int64(1))
	sw := Switch(Int8(false), map[any]Atom{
		int64(0): Int8(false),
		int64(1): Int16(false, true),
	}).WithSelector(func(l *Layer) (any, error) {
		return resolvePath(l, []string{"kind"})
	})
	if err := sw.Pack(int64(0x1234), l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	want := []byte{0x34, 0x12}
	if !bytes.Equal(got, want) {
		t.Fatalf("Switch pack = % x, want % x", got, want)
	}
}

func TestSwitchUnpackDiscriminator(t *testing.T) {
	buf := &bufStream{buf: []byte{0x01, 0x34, 0x12}}
	l := NewRootLayer(NewState(buf, nil))
	sw := Switch(Int8(false), map[any]Atom{
		int64(0): Int8(false),
		int64(1): Int16(false, true),
	})
	v, err := sw.Unpack(l)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(0x1234) {
		t.Fatalf("got %v, want 0x1234", v)
	}
}

func TestConditionFalseWritesNothing(t *testing.T) {
	l := newLayer()
	cond := Condition(false, Int32(true, true))
	if err := cond.Pack(int64(5), l); err != nil {
		t.Fatal(err)
	}
	if n := len(l.State().Stream.(*bufStream).buf); n != 0 {
		t.Fatalf("wrote %d bytes, want 0", n)
	}
	v, err := cond.Unpack(l)
	if err != nil || !IsAbsent(v) {
		t.Fatalf("unpack = %v, %v, want Absent", v, err)
	}
}

func TestConstRejectsWrongValue(t *testing.T) {
	buf := &bufStream{buf: []byte{0xff}}
	l := NewRootLayer(NewState(buf, nil))
	c := Const(Int8(false), int64(1))
	_, err := c.Unpack(l)
	if err == nil {
		t.Fatal("expected InvalidValue error")
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != InvalidValue {
		t.Fatalf("got %v, want InvalidValue", err)
	}
}

func TestOffsetRoundTripsPosition(t *testing.T) {
	l := newLayer()
	off := Offset(Int32(false, true), int64(8), SeekSet)
	if err := off.Pack(int64(0xaabbccdd), l); err != nil {
		t.Fatal(err)
	}
	pos, _ := l.State().Stream.Tell()
	if pos != 0 {
		t.Fatalf("stream position after Offset.Pack = %d, want 0", pos)
	}
	buf := l.State().Stream.(*bufStream).buf
	if len(buf) != 12 {
		t.Fatalf("buffer length = %d, want 12 (8 bytes skipped + 4 written)", len(buf))
	}
	l2 := NewRootLayer(NewState(&bufStream{buf: buf}, nil))
	v, err := off.Unpack(l2)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(0xaabbccdd) {
		t.Fatalf("got %v", v)
	}
	pos2, _ := l2.State().Stream.Tell()
	if pos2 != 0 {
		t.Fatalf("stream position after Offset.Unpack = %d, want 0", pos2)
	}
}

func TestLazyResolvesOnce(t *testing.T) {
	calls := 0
	lazy := Lazy(func() (Atom, error) {
		calls++
		return Int8(false), nil
	})
	l := newLayer()
	if err := lazy.Pack(int64(1), l); err != nil {
		t.Fatal(err)
	}
	if err := lazy.Pack(int64(2), l); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("builder called %d times, want 1 (cached)", calls)
	}
}

func TestLazyAlwaysReresolves(t *testing.T) {
	calls := 0
	lazy := &LazyAtom{AlwaysLazy: true, Fn: func() (Atom, error) {
		calls++
		return Int8(false), nil
	}}
	l := newLayer()
	lazy.Pack(int64(1), l)
	lazy.Pack(int64(2), l)
	if calls != 2 {
		t.Fatalf("builder called %d times, want 2 (always_lazy)", calls)
	}
}

func TestEnumPackUnpackByName(t *testing.T) {
	e := Enum(Int8(false), map[string]int64{"read": 1, "write": 2})
	l := newLayer()
	if err := e.Pack("write", l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	if !bytes.Equal(got, []byte{0x02}) {
		t.Fatalf("Enum pack = % x, want 02", got)
	}
	l2 := NewRootLayer(NewState(&bufStream{buf: got}, nil))
	v, err := e.Unpack(l2)
	if err != nil || v != "write" {
		t.Fatalf("Enum unpack = %v, %v, want \"write\"", v, err)
	}
}

func TestEnumPackPlainInteger(t *testing.T) {
	e := Enum(Int8(false), map[string]int64{"read": 1})
	l := newLayer()
	if err := e.Pack(int64(7), l); err != nil {
		t.Fatal(err)
	}
	if got := l.State().Stream.(*bufStream).buf; !bytes.Equal(got, []byte{0x07}) {
		t.Fatalf("Enum pack(7) = % x", got)
	}
}

func TestEnumUnknownValue(t *testing.T) {
	e := Enum(Int8(false), map[string]int64{"read": 1})
	l := NewRootLayer(NewState(&bufStream{buf: []byte{0x09}}, nil))
	v, err := e.Unpack(l)
	if err != nil || v != int64(9) {
		t.Fatalf("strict miss = %v, %v, want raw 9", v, err)
	}

	d := Enum(Int8(false), map[string]int64{"read": 1}).WithDefault("invalid")
	l2 := NewRootLayer(NewState(&bufStream{buf: []byte{0x09}}, nil))
	v, err = d.Unpack(l2)
	if err != nil || v != "invalid" {
		t.Fatalf("default miss = %v, %v, want \"invalid\"", v, err)
	}
}

func TestSetByteOrderPropagatesThroughCombinators(t *testing.T) {
	atom := Repeated(Int16(false, true), 2)
	SetByteOrder(atom, BigEndian)
	l := newLayer()
	if err := atom.Pack([]any{int64(0x1234), int64(1)}, l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	want := []byte{0x12, 0x34, 0x00, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("big-endian repeated pack = % x, want % x", got, want)
	}

	c := Const(Int16(false, true), int64(0xbeef))
	SetByteOrder(c, BigEndian)
	l2 := newLayer()
	if err := c.Pack(nil, l2); err != nil {
		t.Fatal(err)
	}
	got = l2.State().Stream.(*bufStream).buf
	if !bytes.Equal(got, []byte{0xbe, 0xef}) {
		t.Fatalf("big-endian const pack = % x, want be ef", got)
	}
}

func TestComputedNoopPackEvalUnpack(t *testing.T) {
	l := newLayer()
	l.Obj.Set("n", int64(5))
	c := Computed(NewPath("n"))
	if err := c.Pack("ignored", l); err != nil {
		t.Fatal(err)
	}
	if n := len(l.State().Stream.(*bufStream).buf); n != 0 {
		t.Fatalf("Computed.Pack wrote %d bytes, want 0", n)
	}
	v, err := c.Unpack(l)
	if err != nil || v != int64(5) {
		t.Fatalf("Computed.Unpack = %v, %v, want 5", v, err)
	}
}
