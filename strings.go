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
	"fmt"
)

// CStringAtom packs/unpacks a terminated, length-prefixed, or greedy
// C-style string. Only the "utf-8" encoding is implemented;
// Go strings are already UTF-8, so Encoding mainly documents intent
// and is checked for typos.
type CStringAtom struct {
	Length   any
	Encoding string
	Sep      byte
	Keep     bool
}

// CString builds a CStringAtom with the given length spec (nil or
// Ellipsis for greedy) and a NUL separator.
func CString(length any) *CStringAtom {
	return &CStringAtom{Length: length, Encoding: "utf-8", Sep: 0}
}

func (a *CStringAtom) sep() byte { return a.Sep }

func (a *CStringAtom) encode(value any, l *Layer) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, errTypeMismatch("CString.Pack", l, fmt.Errorf("got %T, want string", value))
	}
	if a.Encoding != "" && a.Encoding != "utf-8" {
		return nil, errNotImplemented("CString.Pack["+a.Encoding+"]", l)
	}
	return []byte(s), nil
}

func (a *CStringAtom) Pack(value any, l *Layer) error {
	b, err := a.encode(value, l)
	if err != nil {
		return err
	}
	if len(b) == 0 || b[len(b)-1] != a.sep() {
		b = append(b, a.sep())
	}
	li, err := evalLengthSpec(l, a.Length)
	if err != nil {
		return err
	}
	switch li.kind {
	case lengthFixed:
		if len(b) > li.n {
			return errLengthMismatch("CString.Pack", l, fmt.Errorf("encoded value (%d bytes incl. terminator) exceeds fixed length %d", len(b), li.n))
		}
		padded := make([]byte, li.n)
		copy(padded, b)
		for i := len(b); i < li.n; i++ {
			padded[i] = a.sep()
		}
		if _, err := l.State().Stream.Write(padded); err != nil {
			return errIO("CString.Pack", l, err)
		}
	case lengthGreedy:
		if _, err := l.State().Stream.Write(b); err != nil {
			return errIO("CString.Pack", l, err)
		}
	case lengthPrefix:
		if err := packLength(l, li, len(b)); err != nil {
			return err
		}
		if _, err := l.State().Stream.Write(b); err != nil {
			return errIO("CString.Pack", l, err)
		}
	}
	return nil
}

func (a *CStringAtom) stripTerminator(buf []byte) []byte {
	idx := bytes.IndexByte(buf, a.sep())
	if idx < 0 {
		return buf
	}
	if a.Keep {
		return buf[:idx+1]
	}
	return buf[:idx]
}

func (a *CStringAtom) Unpack(l *Layer) (any, error) {
	li, err := evalLengthSpec(l, a.Length)
	if err != nil {
		return nil, err
	}
	stream := l.State().Stream
	switch li.kind {
	case lengthGreedy:
		var buf []byte
		for {
			b, err := stream.Read(1)
			if err != nil {
				return nil, errIO("CString.Unpack", l, err)
			}
			if b[0] == a.sep() {
				if a.Keep {
					buf = append(buf, b[0])
				}
				break
			}
			buf = append(buf, b[0])
		}
		return string(buf), nil
	case lengthFixed:
		buf, err := stream.Read(li.n)
		if err != nil {
			return nil, errIO("CString.Unpack", l, err)
		}
		return string(a.stripTerminator(buf)), nil
	case lengthPrefix:
		greedy, n, err := unpackLength(l, li)
		if err != nil {
			return nil, err
		}
		if greedy {
			return nil, errInvalidValue("CString.Unpack", l, fmt.Errorf("prefix length evaluated to greedy"))
		}
		buf, err := stream.Read(n)
		if err != nil {
			return nil, errIO("CString.Unpack", l, err)
		}
		return string(a.stripTerminator(buf)), nil
	default:
		return nil, fmt.Errorf("unreachable length kind")
	}
}

func (a *CStringAtom) Size(l *Layer) (int, error) {
	li, err := evalLengthSpec(l, a.Length)
	if err != nil {
		return 0, err
	}
	n, ok := staticLength(l, li)
	if !ok {
		return 0, errDynamicSize("CString.Size", l)
	}
	return n, nil
}

func (a *CStringAtom) Type() TypeTag { return TypeString }

func (a *CStringAtom) setByteOrder(o ByteOrder) { propagate(a.Length, o) }

// PStringAtom packs/unpacks a length-prefixed string, where the
// prefix (written/read via Prefix) carries the encoded byte length of
// the payload, not its code-point count.
type PStringAtom struct {
	Prefix   Atom
	Encoding string
}

// PString builds a PStringAtom whose length prefix is read/written
// via prefix.
func PString(prefix Atom) *PStringAtom {
	return &PStringAtom{Prefix: prefix, Encoding: "utf-8"}
}

func (a *PStringAtom) Pack(value any, l *Layer) error {
	s, ok := value.(string)
	if !ok {
		return errTypeMismatch("PString.Pack", l, fmt.Errorf("got %T, want string", value))
	}
	b := []byte(s)
	if err := a.Prefix.Pack(len(b), l); err != nil {
		return err
	}
	if _, err := l.State().Stream.Write(b); err != nil {
		return errIO("PString.Pack", l, err)
	}
	return nil
}

func (a *PStringAtom) Unpack(l *Layer) (any, error) {
	v, err := a.Prefix.Unpack(l)
	if err != nil {
		return nil, err
	}
	n, ok := asInt(v)
	if !ok {
		return nil, errTypeMismatch("PString.Unpack", l, fmt.Errorf("prefix atom produced %T, want integer", v))
	}
	buf, err := l.State().Stream.Read(int(n))
	if err != nil {
		return nil, errIO("PString.Unpack", l, err)
	}
	return string(buf), nil
}

func (a *PStringAtom) Size(l *Layer) (int, error) {
	return 0, errDynamicSize("PString.Size", l)
}

func (a *PStringAtom) Type() TypeTag { return TypeString }

func (a *PStringAtom) setByteOrder(o ByteOrder) { propagate(a.Prefix, o) }
