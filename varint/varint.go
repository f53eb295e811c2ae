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

// Package varint implements the 7-bit-per-byte variable-length
// unsigned integer codec used by VarIntAtom, factored out as free
// functions the way binary codecs commonly factor their varint
// helpers into standalone functions.
//
// Two independent axes are supported:
//
//   - lsb selects continuation-bit polarity: lsb=false means bit 7
//     set on a byte means "more bytes follow" (the conventional
//     Protobuf-style base-128 varint); lsb=true means bit 7 set marks
//     the final byte.
//   - littleEndian selects whether 7-bit groups are emitted
//     least-significant-group-first (true) or most-significant-group-
//     first (false, "big-endian order").
package varint

import (
	"errors"
	"io"
)

// Size reports the number of bytes Encode(uv, ...) will produce,
// which is independent of polarity/order: it is the number of 7-bit
// groups needed to represent uv.
func Size(uv uint64) int {
	n := 1
	for uv >= 0x80 {
		uv >>= 7
		n++
	}
	return n
}

// groupsLSBFirst splits uv into 7-bit groups, least-significant group
// at index 0. Always returns at least one group.
func groupsLSBFirst(uv uint64) []byte {
	n := Size(uv)
	groups := make([]byte, n)
	for i := 0; i < n; i++ {
		groups[i] = byte(uv & 0x7f)
		uv >>= 7
	}
	return groups
}

// Encode encodes uv per the littleEndian/lsb polarity described in
// the package doc.
func Encode(uv uint64, littleEndian, lsb bool) []byte {
	groups := groupsLSBFirst(uv)
	k := len(groups)
	out := make([]byte, k)
	for p := 0; p < k; p++ {
		var g byte
		if littleEndian {
			g = groups[p]
		} else {
			g = groups[k-1-p]
		}
		last := p == k-1
		var flag byte
		if lsb {
			if last {
				flag = 0x80
			}
		} else if !last {
			flag = 0x80
		}
		out[p] = g | flag
	}
	return out
}

// ByteSource supplies one byte at a time, the shape a Stream-backed
// reader naturally provides.
type ByteSource func() (byte, error)

// ErrTooLong is returned when more than 10 groups (enough for a full
// 64-bit value) are read without hitting a terminal byte, indicating
// a malformed stream.
var ErrTooLong = errors.New("varint: more than 10 groups without a terminal byte")

// maxGroups bounds a 64-bit value: ceil(64/7) = 10.
const maxGroups = 10

// Decode reads groups from next until the terminal byte (per the lsb
// polarity) and reassembles the value according to littleEndian. It
// returns the decoded value and the number of bytes consumed.
func Decode(next ByteSource, littleEndian, lsb bool) (uv uint64, n int, err error) {
	var groups []byte
	for {
		b, err := next()
		if err != nil {
			return 0, len(groups), err
		}
		groups = append(groups, b&0x7f)
		done := (lsb && b&0x80 != 0) || (!lsb && b&0x80 == 0)
		if done {
			break
		}
		if len(groups) >= maxGroups {
			return 0, len(groups), ErrTooLong
		}
	}
	k := len(groups)
	var out uint64
	for p := 0; p < k; p++ {
		var shift int
		if littleEndian {
			shift = 7 * p
		} else {
			shift = 7 * (k - 1 - p)
		}
		out |= uint64(groups[p]) << uint(shift)
	}
	return out, k, nil
}

// DecodeBytes is a convenience wrapper over Decode for an in-memory
// buffer, returning the number of bytes consumed from buf.
func DecodeBytes(buf []byte, littleEndian, lsb bool) (uv uint64, consumed int, err error) {
	i := 0
	next := func() (byte, error) {
		if i >= len(buf) {
			return 0, io.ErrUnexpectedEOF
		}
		b := buf[i]
		i++
		return b, nil
	}
	return Decode(next, littleEndian, lsb)
}
