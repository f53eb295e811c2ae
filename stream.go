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

// Whence values mirror POSIX lseek semantics and are used by
// Stream.Seek.
const (
	SeekSet = 0 // seek relative to the start of the stream
	SeekCur = 1 // seek relative to the current position
	SeekEnd = 2 // seek relative to the end of the stream
)

// Stream is the random-access byte stream the core consumes. It is
// deliberately minimal: concrete implementations (in-memory, file,
// mmap, compressed-block) live in the streamio package, not here.
//
// Read must return exactly n bytes, or an error; a short read at EOF
// is an error in every mode. RepeatedAtom's greedy loop relies on that
// error (io.EOF or io.ErrUnexpectedEOF) to detect the end of input.
type Stream interface {
	// Read reads exactly n bytes, or returns an error.
	Read(n int) ([]byte, error)
	// ReadAll reads and returns all remaining bytes up to EOF.
	ReadAll() ([]byte, error)
	// Write writes b in full and returns len(b), or an error.
	Write(b []byte) (int, error)
	// Tell returns the current stream offset.
	Tell() (int64, error)
	// Seek repositions the stream and returns the new offset.
	Seek(offset int64, whence int) (int64, error)
}
