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
	"io"
)

// bufStream is a minimal in-memory Stream used internally by
// OffsetAtom's deferred-write mode to capture a child atom's encoding
// before staging it via State.Defer. The public, general-purpose
// in-memory Stream implementation lives in package streamio; this one
// stays unexported here to avoid an import cycle (streamio imports
// this package for the Stream interface).
type bufStream struct {
	buf []byte
	pos int64
}

func (s *bufStream) Read(n int) ([]byte, error) {
	if s.pos+int64(n) > int64(len(s.buf)) {
		return nil, io.ErrUnexpectedEOF
	}
	b := s.buf[s.pos : s.pos+int64(n)]
	s.pos += int64(n)
	return b, nil
}

func (s *bufStream) ReadAll() ([]byte, error) {
	b := s.buf[s.pos:]
	s.pos = int64(len(s.buf))
	return b, nil
}

func (s *bufStream) Write(b []byte) (int, error) {
	end := s.pos + int64(len(b))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], b)
	s.pos = end
	return len(b), nil
}

func (s *bufStream) Tell() (int64, error) { return s.pos, nil }

func (s *bufStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = s.pos
	case SeekEnd:
		base = int64(len(s.buf))
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	s.pos = base + offset
	return s.pos, nil
}
