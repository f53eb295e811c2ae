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

// BytesAtom reads/writes a fixed or dynamic raw byte span. Length is
// evaluated per the configured rule (fixed int, Ellipsis for greedy, an Atom for a
// length prefix, or a callable producing one of those).
type BytesAtom struct {
	Length any
}

// FixedBytes builds a BytesAtom of a literal length.
func FixedBytes(n int) *BytesAtom { return &BytesAtom{Length: n} }

// GreedyBytes reads to EOF on unpack and writes len(value) bytes on
// pack.
var GreedyBytes = &BytesAtom{Length: Ellipsis}

// PrefixedBytes builds a BytesAtom whose length is read/written
// through lengthAtom.
func PrefixedBytes(lengthAtom Atom) *BytesAtom { return &BytesAtom{Length: lengthAtom} }

func (a *BytesAtom) Pack(value any, l *Layer) error {
	b, ok := value.([]byte)
	if !ok {
		if s, ok2 := value.(string); ok2 {
			b = []byte(s)
		} else {
			return errTypeMismatch("Bytes.Pack", l, fmt.Errorf("got %T, want []byte", value))
		}
	}
	li, err := evalLengthSpec(l, a.Length)
	if err != nil {
		return err
	}
	if li.kind == lengthFixed && li.n != len(b) {
		return errLengthMismatch("Bytes.Pack", l, fmt.Errorf("value has %d bytes, declared length is %d", len(b), li.n))
	}
	if err := packLength(l, li, len(b)); err != nil {
		return err
	}
	if _, err := l.State().Stream.Write(b); err != nil {
		return errIO("Bytes.Pack", l, err)
	}
	return nil
}

func (a *BytesAtom) Unpack(l *Layer) (any, error) {
	li, err := evalLengthSpec(l, a.Length)
	if err != nil {
		return nil, err
	}
	greedy, n, err := unpackLength(l, li)
	if err != nil {
		return nil, err
	}
	if greedy {
		b, err := l.State().Stream.ReadAll()
		if err != nil {
			return nil, errIO("Bytes.Unpack", l, err)
		}
		return b, nil
	}
	b, err := l.State().Stream.Read(n)
	if err != nil {
		return nil, errIO("Bytes.Unpack", l, err)
	}
	return b, nil
}

func (a *BytesAtom) Size(l *Layer) (int, error) {
	li, err := evalLengthSpec(l, a.Length)
	if err != nil {
		return 0, err
	}
	n, ok := staticLength(l, li)
	if !ok {
		return 0, errDynamicSize("Bytes.Size", l)
	}
	return n, nil
}

func (a *BytesAtom) Type() TypeTag { return TypeBytes }

func (a *BytesAtom) setByteOrder(o ByteOrder) { propagate(a.Length, o) }

// PaddingAtom packs/unpacks filler bytes of a fixed value. A
// single Unpack call reads and discards one byte, returning Absent.
// UnpackMany/PackMany give the bulk behavior RepeatedAtom prefers.
type PaddingAtom struct {
	Byte byte
}

// Padding builds a PaddingAtom using the given fill byte.
func Padding(b byte) *PaddingAtom { return &PaddingAtom{Byte: b} }

// ZeroPadding is the common 0x00-filled PaddingAtom.
var ZeroPadding = &PaddingAtom{Byte: 0x00}

func (a *PaddingAtom) Pack(value any, l *Layer) error {
	_, err := l.State().Stream.Write([]byte{a.Byte})
	if err != nil {
		return errIO("Padding.Pack", l, err)
	}
	return nil
}

func (a *PaddingAtom) Unpack(l *Layer) (any, error) {
	_, err := l.State().Stream.Read(1)
	if err != nil {
		return nil, errIO("Padding.Unpack", l, err)
	}
	return Absent, nil
}

func (a *PaddingAtom) PackMany(value any, l *Layer, length lengthInfo) error {
	n := length.n
	if length.kind == lengthPrefix {
		if err := packLength(l, length, n); err != nil {
			return err
		}
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = a.Byte
	}
	if _, err := l.State().Stream.Write(buf); err != nil {
		return errIO("Padding.PackMany", l, err)
	}
	return nil
}

func (a *PaddingAtom) UnpackMany(l *Layer, length lengthInfo) (any, error) {
	greedy, n, err := unpackLength(l, length)
	if err != nil {
		return nil, err
	}
	var buf []byte
	if greedy {
		buf, err = l.State().Stream.ReadAll()
	} else {
		buf, err = l.State().Stream.Read(n)
	}
	if err != nil {
		return nil, errIO("Padding.UnpackMany", l, err)
	}
	for i, b := range buf {
		if b != a.Byte {
			return nil, errInvalidValue("Padding.UnpackMany", l, fmt.Errorf("byte %d is 0x%02x, want padding byte 0x%02x", i, b, a.Byte))
		}
	}
	return Absent, nil
}

func (a *PaddingAtom) Size(*Layer) (int, error) { return 1, nil }
func (a *PaddingAtom) Type() TypeTag            { return TypeNone }
