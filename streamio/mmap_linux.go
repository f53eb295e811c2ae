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

//go:build linux

package streamio

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"

	"github.com/MatrixEditor/caterpillar-go"
)

// MMapStream is a read-only caterpillar.Stream backed by a memory
// mapping of an entire file, avoiding a read syscall per Stream.Read.
type MMapStream struct {
	mem []byte
	pos int64
}

// OpenMMap opens and maps name read-only.
func OpenMMap(name string) (*MMapStream, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	mem, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("streamio: mmap %s: %w", name, err)
	}
	return &MMapStream{mem: mem}, nil
}

// Close unmaps the underlying memory region.
func (s *MMapStream) Close() error {
	if s.mem == nil {
		return nil
	}
	err := unix.Munmap(s.mem)
	s.mem = nil
	return err
}

func (s *MMapStream) Read(n int) ([]byte, error) {
	if s.pos+int64(n) > int64(len(s.mem)) {
		return nil, io.ErrUnexpectedEOF
	}
	b := s.mem[s.pos : s.pos+int64(n)]
	s.pos += int64(n)
	return b, nil
}

func (s *MMapStream) ReadAll() ([]byte, error) {
	b := s.mem[s.pos:]
	s.pos = int64(len(s.mem))
	return b, nil
}

// Write always fails: MMapStream is read-only.
func (s *MMapStream) Write([]byte) (int, error) {
	return 0, fmt.Errorf("streamio: MMapStream is read-only")
}

func (s *MMapStream) Tell() (int64, error) { return s.pos, nil }

func (s *MMapStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case caterpillar.SeekSet:
		base = 0
	case caterpillar.SeekCur:
		base = s.pos
	case caterpillar.SeekEnd:
		base = int64(len(s.mem))
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

var _ caterpillar.Stream = (*MMapStream)(nil)
