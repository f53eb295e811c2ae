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
	"fmt"

	"github.com/MatrixEditor/caterpillar-go/varint"
)

// VarIntAtom packs/unpacks an unsigned varint via the varint package.
// Sizeof fails with DynamicSize since the encoded width depends on the
// runtime value.
type VarIntAtom struct {
	LittleEndian bool
	LSB          bool
}

// VarInt builds a VarIntAtom. Pass lsb=true for "bit 7 set marks the
// final byte" polarity, lsb=false for "bit 7 set means more bytes
// follow" (the Protobuf-style convention).
func VarInt(littleEndian, lsb bool) *VarIntAtom {
	return &VarIntAtom{LittleEndian: littleEndian, LSB: lsb}
}

func (a *VarIntAtom) Pack(value any, l *Layer) error {
	iv, ok := asInt(value)
	if !ok {
		return errTypeMismatch("VarInt.Pack", l, fmt.Errorf("got %T, want integer", value))
	}
	if iv < 0 {
		return errInvalidValue("VarInt.Pack", l, fmt.Errorf("value %d is negative", iv))
	}
	buf := varint.Encode(uint64(iv), a.LittleEndian, a.LSB)
	if _, err := l.State().Stream.Write(buf); err != nil {
		return errIO("VarInt.Pack", l, err)
	}
	return nil
}

func (a *VarIntAtom) Unpack(l *Layer) (any, error) {
	stream := l.State().Stream
	next := func() (byte, error) {
		b, err := stream.Read(1)
		if err != nil {
			return 0, err
		}
		return b[0], nil
	}
	uv, _, err := varint.Decode(next, a.LittleEndian, a.LSB)
	if err != nil {
		return nil, errIO("VarInt.Unpack", l, err)
	}
	return int64(uv), nil
}

func (a *VarIntAtom) Size(l *Layer) (int, error) {
	return 0, errDynamicSize("VarInt.Size", l)
}

func (a *VarIntAtom) Type() TypeTag { return TypeInt }
