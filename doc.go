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

// Package caterpillar implements a declarative binary serialization
// engine: on-wire layouts are composed out of small, first-class atoms
// (bool, integer, float, bytes, string, padding, varint, const, enum,
// repeated, condition, switch, offset, lazy, computed) and the engine
// drives symmetric Pack/Unpack/Sizeof traversals over an abstract,
// random-access byte Stream.
//
// The central abstraction is Atom: anything that knows how to pack,
// unpack, size, and type itself. Atoms are composed by the combinators
// in this package (Repeated, Condition, Switch, Offset, ...) to build
// up context-sensitive layouts, where a field's length, presence, or
// shape depends on values read earlier in the same structure.
//
// A traversal carries a State (the Stream plus a globals Context and
// an offset table) and a stack of Layer frames (one per struct or
// sequence nesting level) that atoms consult to resolve context paths
// and to report their own position for diagnostics.
package caterpillar
