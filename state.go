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

import "golang.org/x/exp/slices"

// State is the per-call container: it owns the Stream, the globals
// Context, and an offset table used by offset atoms that stage writes
// for later. Its lifetime is exactly one top-level Pack/Unpack/Sizeof
// call.
type State struct {
	Stream  Stream
	Globals *Context

	// offsets holds staged writes keyed by absolute stream offset,
	// for the deferred-write variant of OffsetAtom, grounded on a C
	// reference implementation's offset table. The default
	// save/seek/write/restore strategy does not use this.
	offsets map[int64][]byte
}

// NewState constructs a State over stream with the given globals. A
// nil globals is replaced with an empty Context.
func NewState(stream Stream, globals *Context) *State {
	if globals == nil {
		globals = NewContext()
	}
	return &State{Stream: stream, Globals: globals}
}

// Defer stages b to be written at offset when Flush runs, instead of
// writing it immediately. Later calls for the same offset overwrite
// earlier ones.
func (s *State) Defer(offset int64, b []byte) {
	if s.offsets == nil {
		s.offsets = make(map[int64][]byte)
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	s.offsets[offset] = cp
}

// Flush writes every staged deferred write to s.Stream, restoring the
// stream's position to its value before the call. Entries are written
// in ascending offset order so overlapping diagnostics are
// reproducible.
func (s *State) Flush() error {
	if len(s.offsets) == 0 {
		return nil
	}
	pos, err := s.Stream.Tell()
	if err != nil {
		return errIO("State.Flush", nil, err)
	}
	offs := make([]int64, 0, len(s.offsets))
	for off := range s.offsets {
		offs = append(offs, off)
	}
	slices.Sort(offs)
	for _, off := range offs {
		if _, err := s.Stream.Seek(off, SeekSet); err != nil {
			return errIO("State.Flush", nil, err)
		}
		if _, err := s.Stream.Write(s.offsets[off]); err != nil {
			return errIO("State.Flush", nil, err)
		}
	}
	s.offsets = nil
	_, err = s.Stream.Seek(pos, SeekSet)
	if err != nil {
		return errIO("State.Flush", nil, err)
	}
	return nil
}
