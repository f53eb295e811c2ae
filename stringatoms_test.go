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

func TestCStringGreedy(t *testing.T) {
	l := newLayer()
	atom := CString(Ellipsis)
	if err := atom.Pack("hi", l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	want := []byte{'h', 'i', 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("CString(\"hi\") = % x, want % x", got, want)
	}
	l2 := NewRootLayer(NewState(&bufStream{buf: got}, nil))
	v, err := atom.Unpack(l2)
	if err != nil {
		t.Fatal(err)
	}
	if v != "hi" {
		t.Fatalf("unpack = %q, want \"hi\"", v)
	}
}

func TestCStringFixedPadding(t *testing.T) {
	l := newLayer()
	atom := CString(8)
	if err := atom.Pack("hi", l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	if len(got) != 8 {
		t.Fatalf("wrote %d bytes, want 8", len(got))
	}
	for i := 2; i < 8; i++ {
		if got[i] != 0 {
			t.Fatalf("padding byte %d = %#x, want 0", i, got[i])
		}
	}
	l2 := NewRootLayer(NewState(&bufStream{buf: got}, nil))
	v, err := atom.Unpack(l2)
	if err != nil {
		t.Fatal(err)
	}
	if v != "hi" {
		t.Fatalf("unpack = %q, want \"hi\"", v)
	}
}

func TestCStringKeepTerminator(t *testing.T) {
	atom := CString(Ellipsis)
	atom.Keep = true
	l := newLayer()
	if err := atom.Pack("ok", l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	l2 := NewRootLayer(NewState(&bufStream{buf: got}, nil))
	v, err := atom.Unpack(l2)
	if err != nil {
		t.Fatal(err)
	}
	if v != "ok\x00" {
		t.Fatalf("unpack with Keep = %q, want %q", v, "ok\x00")
	}
}

func TestPStringRoundTrip(t *testing.T) {
	l := newLayer()
	atom := PString(Int8(false))
	if err := atom.Pack("hello", l); err != nil {
		t.Fatal(err)
	}
	got := l.State().Stream.(*bufStream).buf
	want := []byte{0x05, 'h', 'e', 'l', 'l', 'o'}
	if !bytes.Equal(got, want) {
		t.Fatalf("PString(\"hello\") = % x, want % x", got, want)
	}
	l2 := NewRootLayer(NewState(&bufStream{buf: got}, nil))
	v, err := atom.Unpack(l2)
	if err != nil {
		t.Fatal(err)
	}
	if v != "hello" {
		t.Fatalf("unpack = %q", v)
	}
}

func TestBytesFixedLengthMismatch(t *testing.T) {
	l := newLayer()
	atom := FixedBytes(4)
	err := atom.Pack([]byte{1, 2, 3}, l)
	if err == nil {
		t.Fatal("expected length mismatch error")
	}
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != LengthMismatch {
		t.Fatalf("got %v, want LengthMismatch", err)
	}
}
