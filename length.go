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

// ellipsisMarker is the concrete type behind Ellipsis, the sentinel
// length spec meaning "greedy".
type ellipsisMarker struct{}

// Ellipsis is passed as a length spec (to Bytes, CString, Repeated)
// to request greedy behavior: read until EOF on unpack, emit exactly
// len(value) elements on pack.
var Ellipsis = ellipsisMarker{}

type lengthKind int

const (
	lengthFixed lengthKind = iota
	lengthGreedy
	lengthPrefix
)

// lengthInfo is the normalized form evalLengthSpec produces: an
// atom is either of fixed size n, greedy, or length-prefixed via a
// child atom.
type lengthInfo struct {
	kind   lengthKind
	n      int
	prefix Atom
}

// evalLengthSpec normalizes a length spec, evaluating any nested
// Expr/callable forms against l. Accepted spec types: nil or Ellipsis
// (greedy), int (fixed count), Atom (prefix), Expr, or
// func(*Layer) (any, error) (callable, re-evaluated to one of the
// above).
func evalLengthSpec(l *Layer, spec any) (lengthInfo, error) {
	switch t := spec.(type) {
	case nil:
		return lengthInfo{kind: lengthGreedy}, nil
	case ellipsisMarker:
		return lengthInfo{kind: lengthGreedy}, nil
	case int:
		return lengthInfo{kind: lengthFixed, n: t}, nil
	case int64:
		return lengthInfo{kind: lengthFixed, n: int(t)}, nil
	case Atom:
		return lengthInfo{kind: lengthPrefix, prefix: t}, nil
	case Expr:
		v, err := t.Eval(l)
		if err != nil {
			return lengthInfo{}, err
		}
		return evalLengthSpec(l, v)
	case func(*Layer) (any, error):
		v, err := t(l)
		if err != nil {
			return lengthInfo{}, err
		}
		return evalLengthSpec(l, v)
	default:
		return lengthInfo{}, fmt.Errorf("unsupported length spec %T", spec)
	}
}

// unpackLength resolves li into a concrete (greedy, n) pair during
// unpack, reading the prefix atom's value when li is prefix-kind.
func unpackLength(l *Layer, li lengthInfo) (greedy bool, n int, err error) {
	switch li.kind {
	case lengthGreedy:
		return true, 0, nil
	case lengthFixed:
		return false, li.n, nil
	case lengthPrefix:
		v, err := li.prefix.Unpack(l)
		if err != nil {
			return false, 0, err
		}
		n, ok := asInt(v)
		if !ok {
			return false, 0, errTypeMismatch("length prefix", l, fmt.Errorf("prefix atom produced %T, want integer", v))
		}
		return false, int(n), nil
	default:
		return false, 0, fmt.Errorf("unreachable length kind %d", li.kind)
	}
}

// packLength resolves li for pack: valueLen is the number of elements
// (or bytes) the caller is about to write. When li is prefix-kind, the
// count is packed through the prefix atom at the current stream
// position (before the payload), per the configured rule
func packLength(l *Layer, li lengthInfo, valueLen int) error {
	switch li.kind {
	case lengthGreedy, lengthFixed:
		return nil
	case lengthPrefix:
		return li.prefix.Pack(valueLen, l)
	default:
		return fmt.Errorf("unreachable length kind %d", li.kind)
	}
}

// staticLength reports the fixed count (bytes or elements) a length
// spec implies, for atoms whose per-element size is also static (used
// by Sizeof). It returns ok=false for every greedy or prefix spec.
func staticLength(l *Layer, li lengthInfo) (n int, ok bool) {
	switch li.kind {
	case lengthFixed:
		return li.n, true
	default:
		return 0, false
	}
}
