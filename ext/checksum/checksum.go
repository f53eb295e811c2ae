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

// Package checksum provides a bonus combinator atom, external to the
// core engine, that appends a blake2b-256 digest after a child atom's
// encoding and verifies it on unpack.
package checksum

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/blake2b"

	caterpillar "github.com/MatrixEditor/caterpillar-go"
)

const digestSize = 32

// Atom wraps Child, appending a blake2b-256 digest of Child's encoded
// bytes after it on pack, and verifying that digest on unpack.
type Atom struct {
	Child caterpillar.Atom
}

// New builds a checksum Atom around child.
func New(child caterpillar.Atom) *Atom { return &Atom{Child: child} }

func (a *Atom) Pack(value any, l *caterpillar.Layer) error {
	stream := l.State().Stream
	start, err := stream.Tell()
	if err != nil {
		return err
	}
	if err := a.Child.Pack(value, l); err != nil {
		return err
	}
	end, err := stream.Tell()
	if err != nil {
		return err
	}
	if _, err := stream.Seek(start, caterpillar.SeekSet); err != nil {
		return err
	}
	payload, err := stream.Read(int(end - start))
	if err != nil {
		return err
	}
	if _, err := stream.Seek(end, caterpillar.SeekSet); err != nil {
		return err
	}
	sum := blake2b.Sum256(payload)
	if _, err := stream.Write(sum[:]); err != nil {
		return err
	}
	return nil
}

func (a *Atom) Unpack(l *caterpillar.Layer) (any, error) {
	stream := l.State().Stream
	start, err := stream.Tell()
	if err != nil {
		return nil, err
	}
	value, err := a.Child.Unpack(l)
	if err != nil {
		return nil, err
	}
	end, err := stream.Tell()
	if err != nil {
		return nil, err
	}
	digest, err := stream.Read(digestSize)
	if err != nil {
		return nil, err
	}
	if _, err := stream.Seek(start, caterpillar.SeekSet); err != nil {
		return nil, err
	}
	payload, err := stream.Read(int(end - start))
	if err != nil {
		return nil, err
	}
	if _, err := stream.Seek(end+digestSize, caterpillar.SeekSet); err != nil {
		return nil, err
	}
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(sum[:], digest) {
		return nil, fmt.Errorf("checksum: digest mismatch at %s", l.Path())
	}
	return value, nil
}

func (a *Atom) Size(l *caterpillar.Layer) (int, error) {
	n, err := a.Child.Size(l)
	if err != nil {
		return 0, err
	}
	return n + digestSize, nil
}

func (a *Atom) Type() caterpillar.TypeTag { return a.Child.Type() }

var _ caterpillar.Atom = (*Atom)(nil)
