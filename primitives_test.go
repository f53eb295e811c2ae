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
	"testing"
)

func newLayer() *Layer {
	return NewRootLayer(NewState(&bufStream{}, nil))
}

func TestInt16SignedLE(t *testing.T) {
	l := newLayer()
	atom := Int16(true, true)
	if err := atom.Pack(int64(-2), l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	want := []byte{0xfe, 0xff}
	if !bytes.Equal(got, want) {
		t.Fatalf("Int16(-2) = % x, want % x", got, want)
	}
	l2 := NewRootLayer(NewState(&bufStream{buf: got}, nil))
	v, err := atom.Unpack(l2)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(-2) {
		t.Fatalf("unpack = %v, want -2", v)
	}
}

func TestIntBoundaryWidths(t *testing.T) {
	cases := []struct {
		atom *IntAtom
		v    int64
	}{
		{Int8(true), -1},
		{Int8(false), 255},
		{Int16(true, true), -32768},
		{Int16(false, false), 65535},
		{Int32(true, true), -1},
		{Int32(false, false), 4294967295},
		{Int64(true, true), -1},
		{Int64(false, false), 1<<63 - 1},
	}
	for _, c := range cases {
		l := newLayer()
		if err := c.atom.Pack(c.v, l); err != nil {
			t.Fatalf("pack %d: %v", c.v, err)
		}
		buf := l.State().Stream.(*bufStream).buf
		n, err := c.atom.Size(l)
		if err != nil {
			t.Fatal(err)
		}
		if len(buf) != n {
			t.Fatalf("wrote %d bytes, Size() = %d", len(buf), n)
		}
		l2 := NewRootLayer(NewState(&bufStream{buf: buf}, nil))
		v, err := c.atom.Unpack(l2)
		if err != nil {
			t.Fatal(err)
		}
		if v != c.v {
			t.Fatalf("round trip %d: got %v", c.v, v)
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	cases := []struct {
		atom *FloatAtom
		v    float64
	}{
		{&FloatAtom{NBits: 16, LittleEndian: true}, 1.5},
		{&FloatAtom{NBits: 16, LittleEndian: true}, -0.5},
		{Float32, 3.14159},
		{Float64, 2.718281828},
	}
	for _, c := range cases {
		l := newLayer()
		if err := c.atom.Pack(c.v, l); err != nil {
			t.Fatal(err)
		}
		buf := l.State().Stream.(*bufStream).buf
		l2 := NewRootLayer(NewState(&bufStream{buf: buf}, nil))
		v, err := c.atom.Unpack(l2)
		if err != nil {
			t.Fatal(err)
		}
		got := v.(float64)
		if diff := got - c.v; diff > 1e-2 || diff < -1e-2 {
			t.Fatalf("round trip %v: got %v", c.v, got)
		}
	}
}

func TestBoolAndChar(t *testing.T) {
	l := newLayer()
	if err := Bool.Pack(true, l); err != nil {
		t.Fatal(err)
	}
	if err := Char.Pack("x", l); err != nil {
		t.Fatal(err)
	}
	buf := l.State().Stream.(*bufStream).buf
	want := []byte{0x01, 'x'}
	if !bytes.Equal(buf, want) {
		t.Fatalf("got % x, want % x", buf, want)
	}
	l2 := NewRootLayer(NewState(&bufStream{buf: buf}, nil))
	b, err := Bool.Unpack(l2)
	if err != nil || b != true {
		t.Fatalf("Bool.Unpack = %v, %v", b, err)
	}
	c, err := Char.Unpack(l2)
	if err != nil || c != "x" {
		t.Fatalf("Char.Unpack = %v, %v", c, err)
	}
}
