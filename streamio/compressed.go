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
	"bytes"
	"fmt"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"

	"github.com/MatrixEditor/caterpillar-go"
)

// Codec selects the block codec NewCompressedReader and
// CompressedWriter use.
type Codec int

const (
	Zstd Codec = iota
	S2
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// NewCompressedReader decompresses src in full with codec and returns
// a MemStream over the decoded bytes, so callers can Pack/Unpack
// against it exactly like any other in-memory stream.
func NewCompressedReader(src []byte, codec Codec) (*MemStream, error) {
	switch codec {
	case Zstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(src, nil)
		if err != nil {
			return nil, fmt.Errorf("streamio: zstd decode: %w", err)
		}
		return NewMemStream(out), nil
	case S2:
		out, err := s2.Decode(nil, src)
		if err != nil {
			return nil, fmt.Errorf("streamio: s2 decode: %w", err)
		}
		return NewMemStream(out), nil
	default:
		return nil, fmt.Errorf("streamio: unknown codec %d", codec)
	}
}

// CompressedWriter buffers Pack output in memory and, on Close,
// compresses it with codec into dst.
type CompressedWriter struct {
	mem   *MemStream
	dst   *bytes.Buffer
	codec Codec
}

// NewCompressedWriter returns a Stream that buffers writes in memory
// and flushes a single compressed block to dst on Close.
func NewCompressedWriter(dst *bytes.Buffer, codec Codec) *CompressedWriter {
	return &CompressedWriter{mem: NewMemStream(nil), dst: dst, codec: codec}
}

func (w *CompressedWriter) Read(n int) ([]byte, error)          { return w.mem.Read(n) }
func (w *CompressedWriter) ReadAll() ([]byte, error)            { return w.mem.ReadAll() }
func (w *CompressedWriter) Write(b []byte) (int, error)         { return w.mem.Write(b) }
func (w *CompressedWriter) Tell() (int64, error)                { return w.mem.Tell() }
func (w *CompressedWriter) Seek(o int64, wh int) (int64, error) { return w.mem.Seek(o, wh) }

// Close compresses the buffered bytes into dst.
func (w *CompressedWriter) Close() error {
	src := w.mem.Bytes()
	switch w.codec {
	case Zstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		defer enc.Close()
		w.dst.Write(enc.EncodeAll(src, nil))
		return nil
	case S2:
		w.dst.Write(s2.Encode(nil, src))
		return nil
	default:
		return fmt.Errorf("streamio: unknown codec %d", w.codec)
	}
}

var (
	_ caterpillar.Stream = (*CompressedWriter)(nil)
)
