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

func TestPackUnpackDriversRoundTrip(t *testing.T) {
	schema := Struct("record",
		F("count", Int8(false)),
		F("items", Repeated(Int16(false, true), NewPath("count"))),
	)
	stream := &bufStream{}
	in := map[string]any{"count": int64(2), "items": []any{int64(10), int64(20)}}
	if err := Pack(schema, in, stream, nil); err != nil {
		t.Fatal(err)
	}
	got := stream.buf
	want := []byte{0x02, 0x0a, 0x00, 0x14, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("Pack() = % x, want % x", got, want)
	}

	in2 := &bufStream{buf: got}
	v, err := Unpack(schema, in2, nil)
	if err != nil {
		t.Fatal(err)
	}
	out := v.(map[string]any)
	if out["count"] != int64(2) {
		t.Fatalf("count = %v", out["count"])
	}
}

func TestSizeofStaticStruct(t *testing.T) {
	schema := Struct("fixed",
		F("a", Int8(false)),
		F("b", Int32(false, true)),
	)
	n, err := Sizeof(schema, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("Sizeof() = %d, want 5", n)
	}
}

func TestSizeofDynamicFails(t *testing.T) {
	schema := Struct("dyn", F("s", CString(Ellipsis)))
	_, err := Sizeof(schema, nil)
	if err == nil {
		t.Fatal("expected DynamicSize error")
	}
}

func TestTypeofReportsDeclaredType(t *testing.T) {
	if Typeof(Int8(false)) != TypeInt {
		t.Fatalf("Typeof(Int8) = %v, want TypeInt", Typeof(Int8(false)))
	}
	if Typeof(CString(Ellipsis)) != TypeString {
		t.Fatalf("Typeof(CString) = %v, want TypeString", Typeof(CString(Ellipsis)))
	}
}

func TestStateDeferAndFlush(t *testing.T) {
	stream := &bufStream{buf: make([]byte, 4)}
	state := NewState(stream, nil)
	state.Defer(0, []byte{0xaa, 0xbb})
	if err := state.Flush(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(stream.buf[:2], []byte{0xaa, 0xbb}) {
		t.Fatalf("flushed bytes = % x", stream.buf[:2])
	}
}

func TestOffsetAtomDeferredMode(t *testing.T) {
	stream := &bufStream{buf: make([]byte, 16)}
	state := NewState(stream, nil)
	l := NewRootLayer(state)

	off := &OffsetAtom{Child: Int16(false, true), Offset: int64(4), Whence: SeekSet, Deferred: true}
	if err := off.Pack(int64(0x1234), l); err != nil {
		t.Fatal(err)
	}
	if err := state.Flush(); err != nil {
		t.Fatal(err)
	}
	if stream.buf[4] != 0x34 || stream.buf[5] != 0x12 {
		t.Fatalf("deferred write landed wrong: % x", stream.buf[4:6])
	}
}
