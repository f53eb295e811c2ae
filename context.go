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

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// RootContextName is the distinguished name used when a ContextPath's
// first segment should resolve against the top-level globals rather
// than the current object, mirroring the C source's "<root>" marker
// (include/caterpillar/context.h).
const RootContextName = "<root>"

// Context is an ordered name->value bag, used both as the struct
// "current object" a Layer carries and as the State's globals scope.
// Order is preserved, like an interned symbol table preserves
// insertion order, so iteration is deterministic for debugging/dumping.
type Context struct {
	names  []string
	values map[string]any
}

// NewContext builds an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set stores name->value, appending name to the order if it is new.
func (c *Context) Set(name string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, ok := c.values[name]; !ok {
		c.names = append(c.names, name)
	}
	c.values[name] = value
}

// Get looks up name directly in this context (no dotted-path walk,
// no parent fallback).
func (c *Context) Get(name string) (any, bool) {
	if c == nil || c.values == nil {
		return nil, false
	}
	v, ok := c.values[name]
	return v, ok
}

// Names returns the interned names in insertion order.
func (c *Context) Names() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.names)
}

// Clone returns a shallow copy of c.
func (c *Context) Clone() *Context {
	if c == nil {
		return NewContext()
	}
	return &Context{
		names:  slices.Clone(c.names),
		values: maps.Clone(c.values),
	}
}

// getattr looks name up in this Context only. The walk over the layer
// chain and the fallback to the State globals happen in resolvePath.
func (c *Context) getattr(name string) (any, bool) {
	if v, ok := c.Get(name); ok {
		return v, true
	}
	return nil, false
}

// resolvePath walks a dotted path against l (the per-level current
// object) and, failing that, against l.state.globals.
func resolvePath(l *Layer, segments []string) (any, error) {
	if l == nil {
		return nil, errContextLookup("ContextPath", nil, fmt.Errorf("no layer in scope"))
	}
	if len(segments) == 0 {
		return nil, errContextLookup("ContextPath", l, fmt.Errorf("empty path"))
	}
	head := segments[0]
	var cur any
	var ok bool
	if head == RootContextName {
		if len(segments) == 1 {
			// A bare "<root>" path names the globals context itself.
			return l.state.Globals, nil
		}
		cur, ok = l.state.Globals.getattr(segments[1])
		segments = segments[1:]
	} else {
		for cursor := l; cursor != nil && !ok; cursor = cursor.parent {
			if cursor.Obj != nil {
				cur, ok = cursor.Obj.getattr(head)
			}
		}
		if !ok {
			cur, ok = l.state.Globals.getattr(head)
		}
	}
	if !ok {
		return nil, errContextLookup("ContextPath", l, fmt.Errorf("unresolved name %q", head))
	}
	for _, seg := range segments[1:] {
		next, err := getMember(cur, seg)
		if err != nil {
			return nil, errContextLookup("ContextPath", l, err)
		}
		cur = next
	}
	return cur, nil
}

func getMember(v any, name string) (any, error) {
	switch t := v.(type) {
	case *Context:
		if r, ok := t.Get(name); ok {
			return r, nil
		}
	case map[string]any:
		if r, ok := t[name]; ok {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no member %q on %T", name, v)
}
