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

package streamio

import (
	"io"
	"os"

	"github.com/MatrixEditor/caterpillar-go"
)

// FileStream adapts an *os.File into a caterpillar.Stream.
type FileStream struct {
	f *os.File
}

// OpenFile opens name with flag/perm (as os.OpenFile) and wraps it.
func OpenFile(name string, flag int, perm os.FileMode) (*FileStream, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &FileStream{f: f}, nil
}

// NewFileStream wraps an already-open file.
func NewFileStream(f *os.File) *FileStream { return &FileStream{f: f} }

// Close closes the underlying file.
func (s *FileStream) Close() error { return s.f.Close() }

func (s *FileStream) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *FileStream) ReadAll() ([]byte, error) {
	return io.ReadAll(s.f)
}

func (s *FileStream) Write(b []byte) (int, error) {
	return s.f.Write(b)
}

func (s *FileStream) Tell() (int64, error) {
	return s.f.Seek(0, io.SeekCurrent)
}

func (s *FileStream) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}

var _ caterpillar.Stream = (*FileStream)(nil)
