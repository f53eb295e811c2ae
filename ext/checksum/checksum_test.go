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

package checksum

import (
	"testing"

	caterpillar "github.com/MatrixEditor/caterpillar-go"
	"github.com/MatrixEditor/caterpillar-go/streamio"
)

func TestChecksumRoundTrip(t *testing.T) {
	atom := New(caterpillar.Int32(false, true))
	stream := streamio.NewMemStream(nil)
	if err := caterpillar.Pack(atom, int64(7), stream, nil); err != nil {
		t.Fatal(err)
	}
	b := stream.Bytes()
	if len(b) != 4+digestSize {
		t.Fatalf("packed %d bytes, want %d", len(b), 4+digestSize)
	}
	v, err := caterpillar.Unpack(atom, streamio.NewMemStream(b), nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(7) {
		t.Fatalf("unpack = %v, want 7", v)
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	atom := New(caterpillar.Int32(false, true))
	stream := streamio.NewMemStream(nil)
	if err := caterpillar.Pack(atom, int64(7), stream, nil); err != nil {
		t.Fatal(err)
	}
	b := stream.Bytes()
	b[0] ^= 0xff
	if _, err := caterpillar.Unpack(atom, streamio.NewMemStream(b), nil); err == nil {
		t.Fatal("expected digest mismatch after corrupting payload")
	}
}

func TestChecksumSize(t *testing.T) {
	atom := New(caterpillar.Int32(false, true))
	n, err := caterpillar.Sizeof(atom, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4+digestSize {
		t.Fatalf("Sizeof = %d, want %d", n, 4+digestSize)
	}
}
