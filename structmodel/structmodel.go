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

// Package structmodel binds Go struct types to caterpillar.Atom trees
// via reflection and a "cat" struct tag, the way ion/marshal.go and
// ion/unmarshal.go bind Go values to ion encoders/decoders via an
// "ion" tag.
package structmodel

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/dchest/siphash"

	caterpillar "github.com/MatrixEditor/caterpillar-go"
)

// cacheKey identifies a compiled atom by the reflect.Type it was
// compiled from. Compile is reflect-heavy (VisibleFields, tag
// parsing); the cache avoids repeating that walk for a type seen
// before, keyed by a fast non-cryptographic hash rather than the
// reflect.Type value itself so the map stays comparable across
// repeated Compile calls for types built from strings.Join'd tag text.
type cacheKey uint64

var (
	compileCache sync.Map // cacheKey -> caterpillar.Atom
	hashKey0     = uint64(0x636174657270696c)
	hashKey1     = uint64(0x6c6172206174746e)
)

func keyFor(t reflect.Type) cacheKey {
	name := t.PkgPath() + "." + t.Name()
	if name == "." {
		name = t.String()
	}
	return cacheKey(siphash.Hash(hashKey0, hashKey1, []byte(name)))
}

// Compile builds a caterpillar.Atom for the layout described by the
// given struct type's "cat" struct tags. The result is a StructAtom:
// it packs and unpacks map[string]any values keyed by field name, not
// values of the struct type itself. v must be a struct or a pointer to
// one.
func Compile(v any) (caterpillar.Atom, error) {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("structmodel: %s is not a struct", t)
	}
	key := keyFor(t)
	if cached, ok := compileCache.Load(key); ok {
		return cached.(caterpillar.Atom), nil
	}
	atom, err := compileStruct(t)
	if err != nil {
		return nil, err
	}
	compileCache.Store(key, atom)
	return atom, nil
}

func compileStruct(t reflect.Type) (caterpillar.Atom, error) {
	fields := reflect.VisibleFields(t)
	var catFields []caterpillar.Field
	for _, f := range fields {
		if f.PkgPath != "" || len(f.Index) != 1 {
			continue // unexported or promoted embedded field
		}
		tag, ok := f.Tag.Lookup("cat")
		if !ok || tag == "-" {
			continue
		}
		name, opts := splitTag(tag)
		if name == "" {
			name = f.Name
		}
		fieldAtom, err := compileField(f.Type, opts)
		if err != nil {
			return nil, fmt.Errorf("structmodel: field %s.%s: %w", t.Name(), f.Name, err)
		}
		catFields = append(catFields, caterpillar.F(name, fieldAtom))
	}
	return caterpillar.Struct(t.Name(), catFields...), nil
}

func splitTag(tag string) (name string, opts []string) {
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}

func hasOpt(opts []string, key string) (string, bool) {
	for _, o := range opts {
		if o == key {
			return "", true
		}
		if k, v, found := strings.Cut(o, "="); found && k == key {
			return v, true
		}
	}
	return "", false
}

// prefixLengthAtom builds the fixed-width unsigned integer atom a
// "prefix=uN" tag option names, used as the length prefix for a
// PString or a PrefixedBytes field.
func prefixLengthAtom(kind string, le bool) (caterpillar.Atom, error) {
	switch kind {
	case "u8":
		return caterpillar.Int8(false), nil
	case "u16":
		return caterpillar.Int16(false, le), nil
	case "u32":
		return caterpillar.Int32(false, le), nil
	case "u64":
		return caterpillar.Int64(false, le), nil
	default:
		return nil, fmt.Errorf("unsupported prefix kind %q", kind)
	}
}

func compileField(t reflect.Type, opts []string) (caterpillar.Atom, error) {
	le := true
	if _, ok := hasOpt(opts, "be"); ok {
		le = false
	}
	if magic, ok := hasOpt(opts, "magic"); ok {
		return caterpillar.Const(caterpillar.FixedBytes(len(magic)), []byte(magic)), nil
	}
	prefixKind, hasPrefix := hasOpt(opts, "prefix")
	switch t.Kind() {
	case reflect.Bool:
		return caterpillar.Bool, nil
	case reflect.Int8:
		return caterpillar.Int8(true), nil
	case reflect.Uint8:
		return caterpillar.Int8(false), nil
	case reflect.Int16:
		return caterpillar.Int16(true, le), nil
	case reflect.Uint16:
		return caterpillar.Int16(false, le), nil
	case reflect.Int32:
		return caterpillar.Int32(true, le), nil
	case reflect.Uint32:
		return caterpillar.Int32(false, le), nil
	case reflect.Int64, reflect.Int:
		return caterpillar.Int64(true, le), nil
	case reflect.Uint64, reflect.Uint:
		return caterpillar.Int64(false, le), nil
	case reflect.Float32:
		return caterpillar.Float32, nil
	case reflect.Float64:
		return caterpillar.Float64, nil
	case reflect.String:
		if hasPrefix {
			p, err := prefixLengthAtom(prefixKind, le)
			if err != nil {
				return nil, err
			}
			return caterpillar.PString(p), nil
		}
		if n, ok := hasOpt(opts, "len"); ok {
			fixed, err := strconv.Atoi(n)
			if err != nil {
				return nil, fmt.Errorf("bad len option %q: %w", n, err)
			}
			return caterpillar.CString(fixed), nil
		}
		return caterpillar.CString(caterpillar.Ellipsis), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if hasPrefix {
				p, err := prefixLengthAtom(prefixKind, le)
				if err != nil {
					return nil, err
				}
				return caterpillar.PrefixedBytes(p), nil
			}
			if n, ok := hasOpt(opts, "len"); ok {
				fixed, err := strconv.Atoi(n)
				if err != nil {
					return nil, fmt.Errorf("bad len option %q: %w", n, err)
				}
				return caterpillar.FixedBytes(fixed), nil
			}
			return caterpillar.GreedyBytes, nil
		}
		elemAtom, err := compileField(t.Elem(), nil)
		if err != nil {
			return nil, err
		}
		var length any = caterpillar.Ellipsis
		if n, ok := hasOpt(opts, "len"); ok {
			fixed, err := strconv.Atoi(n)
			if err != nil {
				return nil, fmt.Errorf("bad len option %q: %w", n, err)
			}
			length = fixed
		}
		return caterpillar.Repeated(elemAtom, length), nil
	case reflect.Struct:
		return compileStruct(t)
	case reflect.Ptr:
		return compileField(t.Elem(), opts)
	default:
		return nil, fmt.Errorf("unsupported field kind %s", t.Kind())
	}
}
