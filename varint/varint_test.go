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

package varint

import (
	"bytes"
	"testing"
)

func TestEncodeScenario6(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{300, []byte{0xac, 0x02}},
		{0, []byte{0x00}},
	}
	for _, c := range cases {
		got := Encode(c.v, true, false)
		if !bytes.Equal(got, c.want) {
			t.Errorf("Encode(%d, le=true, lsb=false) = % x, want % x", c.v, got, c.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 127, 128, 1<<14 - 1, 1<<63 - 1}
	for _, le := range []bool{true, false} {
		for _, lsb := range []bool{true, false} {
			for _, v := range values {
				enc := Encode(v, le, lsb)
				got, n, err := DecodeBytes(enc, le, lsb)
				if err != nil {
					t.Fatalf("Decode(%d, le=%v, lsb=%v): %v", v, le, lsb, err)
				}
				if n != len(enc) {
					t.Fatalf("Decode(%d, le=%v, lsb=%v) consumed %d, want %d", v, le, lsb, n, len(enc))
				}
				if got != v {
					t.Errorf("Decode(Encode(%d, le=%v, lsb=%v)) = %d", v, le, lsb, got)
				}
			}
		}
	}
}

func TestSizeMatchesEncode(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 1<<14 - 1, 1<<14, 1<<63 - 1}
	for _, v := range values {
		if got := Size(v); got != len(Encode(v, true, false)) {
			t.Errorf("Size(%d) = %d, want %d", v, got, len(Encode(v, true, false)))
		}
	}
}

func TestDecodeTrailingDataIgnored(t *testing.T) {
	// two encoded values back to back: Decode should stop at the
	// first terminal byte and report how much it consumed.
	first := Encode(128, true, false)
	second := Encode(42, true, false)
	buf := append(append([]byte{}, first...), second...)
	v, n, err := DecodeBytes(buf, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if v != 128 || n != len(first) {
		t.Fatalf("got v=%d n=%d, want v=128 n=%d", v, n, len(first))
	}
}
