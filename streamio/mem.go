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

// Package streamio provides concrete caterpillar.Stream
// implementations: an in-memory buffer, a file, a read-only mmap'd
// file, and a block-compressed wrapper.
package streamio

import (
	"fmt"
	"io"

	"github.com/MatrixEditor/caterpillar-go"
)

// MemStream is a growable in-memory caterpillar.Stream, the general
// purpose counterpart to the engine's own internal buffer type.
type MemStream struct {
	buf []byte
	pos int64
}

// NewMemStream wraps buf (copied) for reading and writing from the
// start.
func NewMemStream(buf []byte) *MemStream {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	return &MemStream{buf: cp}
}

// Bytes returns the stream's current backing buffer.
func (s *MemStream) Bytes() []byte { return s.buf }

func (s *MemStream) Read(n int) ([]byte, error) {
	if s.pos+int64(n) > int64(len(s.buf)) {
		return nil, io.ErrUnexpectedEOF
	}
	b := s.buf[s.pos : s.pos+int64(n)]
	s.pos += int64(n)
	return b, nil
}

func (s *MemStream) ReadAll() ([]byte, error) {
	b := s.buf[s.pos:]
	s.pos = int64(len(s.buf))
	return b, nil
}

func (s *MemStream) Write(b []byte) (int, error) {
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

func (s *MemStream) Tell() (int64, error) { return s.pos, nil }

func (s *MemStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case caterpillar.SeekSet:
		base = 0
	case caterpillar.SeekCur:
		base = s.pos
	case caterpillar.SeekEnd:
		base = int64(len(s.buf))
	default:
		return 0, fmt.Errorf("streamio: invalid whence %d", whence)
	}
	pos := base + offset
	if pos < 0 {
		return 0, fmt.Errorf("streamio: negative seek result %d", pos)
	}
	s.pos = pos
	return pos, nil
}

var _ caterpillar.Stream = (*MemStream)(nil)
