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

// Command caterpillar packs and unpacks a small built-in record schema,
// reading its input from stdin and writing to stdout or the -o file,
// demonstrating the engine end to end.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	caterpillar "github.com/MatrixEditor/caterpillar-go"
	"github.com/MatrixEditor/caterpillar-go/streamio"
	"github.com/MatrixEditor/caterpillar-go/structmodel"
)

var (
	globalsPath = flag.String("globals", "", "path to a YAML file of globals exposed to the schema as <root>.*")
	outPath     = flag.String("o", "-", "output path, or - for stdout")
)

// Record is the demo layout: a 4-byte magic, a uint16 version, a
// length-prefixed name, and a length-prefixed payload. It is compiled
// to a caterpillar.Atom via structmodel.Compile's "cat" struct tag
// rather than hand-built, the way a real struct-model consumer would
// describe its wire layout.
type Record struct {
	Magic   []byte `cat:"magic,magic=CATR"`
	Version uint16 `cat:"version"`
	Name    string `cat:"name,prefix=u8"`
	Payload []byte `cat:"payload,prefix=u32"`
}

func recordSchema() (caterpillar.Atom, error) {
	return structmodel.Compile(Record{})
}

func loadGlobals(path string) (*caterpillar.Context, error) {
	g := caterpillar.NewContext()
	if path == "" {
		return g, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing globals %s: %w", path, err)
	}
	for k, v := range raw {
		g.Set(k, v)
	}
	return g, nil
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

func main() {
	flag.Parse()
	reqID := uuid.NewString()
	logger := log.New(os.Stderr, fmt.Sprintf("[%s] ", reqID), log.LstdFlags)

	args := flag.Args()
	if len(args) != 1 || (args[0] != "pack" && args[0] != "unpack") {
		fmt.Fprintln(os.Stderr, "usage: caterpillar [-globals file] [-o out] pack|unpack < input")
		os.Exit(2)
	}
	mode := args[0]

	globals, err := loadGlobals(*globalsPath)
	if err != nil {
		logger.Fatalf("loading globals: %s", err)
	}

	out, err := openOutput(*outPath)
	if err != nil {
		logger.Fatalf("opening output: %s", err)
	}
	defer out.Close()

	schema, err := recordSchema()
	if err != nil {
		logger.Fatalf("compiling schema: %s", err)
	}

	switch mode {
	case "unpack":
		if err := runUnpack(schema, globals, out, logger); err != nil {
			logger.Fatalf("unpack: %s", err)
		}
	case "pack":
		if err := runPack(schema, globals, out, logger); err != nil {
			logger.Fatalf("pack: %s", err)
		}
	}
}

func runUnpack(schema caterpillar.Atom, globals *caterpillar.Context, out io.Writer, logger *log.Logger) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	stream := streamio.NewMemStream(data)
	value, err := caterpillar.Unpack(schema, stream, globals)
	if err != nil {
		return err
	}
	logger.Printf("unpacked %d bytes", len(data))
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func runPack(schema caterpillar.Atom, globals *caterpillar.Context, out io.Writer, logger *log.Logger) error {
	var value map[string]any
	if err := json.NewDecoder(os.Stdin).Decode(&value); err != nil {
		return err
	}
	stream := streamio.NewMemStream(nil)
	if err := caterpillar.Pack(schema, map[string]any(value), stream, globals); err != nil {
		return err
	}
	b := stream.Bytes()
	logger.Printf("packed %d bytes", len(b))
	_, err := out.Write(b)
	return err
}
