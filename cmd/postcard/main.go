// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// postcard is a schema-driven command-line tool for the postcard
// wire format: encode values from JSON/JSONC documents, decode wire
// bytes back into JSON or CBOR for capable hosts, report exact and
// worst-case encoded sizes, and inspect framed captures.
//
// The schema is a YAML document (see the schema package for the node
// forms):
//
//	postcard encode --schema msg.yaml --input value.jsonc --out msg.bin
//	postcard decode --schema msg.yaml --in msg.bin --format json
//	postcard decode --schema msg.yaml --in capture.bin --cobs --crc crc32
//	postcard size   --schema msg.yaml --input value.jsonc
//	postcard inspect --in capture.bin --cobs
package main

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/sigurn/crc16"
	"github.com/sigurn/crc8"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/postcard"
	"github.com/bureau-foundation/postcard/cobs"
	"github.com/bureau-foundation/postcard/crcmod"
	"github.com/bureau-foundation/postcard/de"
	"github.com/bureau-foundation/postcard/schema"
	"github.com/bureau-foundation/postcard/ser"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("a subcommand is required")
	}
	switch args[0] {
	case "encode":
		return cmdEncode(args[1:])
	case "decode":
		return cmdDecode(args[1:])
	case "size":
		return cmdSize(args[1:])
	case "inspect":
		return cmdInspect(args[1:])
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: postcard <subcommand> [flags]

subcommands:
  encode    encode a JSON/JSONC value to postcard wire bytes
  decode    decode wire bytes to JSON or CBOR
  size      report exact and worst-case encoded sizes
  inspect   split and dump COBS-framed captures
`)
}

// commonFlags are shared by the wire-touching subcommands.
type commonFlags struct {
	schemaPath string
	cobsFramed bool
	crcName    string
	verbose    bool
}

func (c *commonFlags) add(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.schemaPath, "schema", "", "YAML schema document (required)")
	flagSet.BoolVar(&c.cobsFramed, "cobs", false, "COBS-frame the wire bytes")
	flagSet.StringVar(&c.crcName, "crc", "", "CRC trailer: crc8, crc16, or crc32")
	flagSet.BoolVar(&c.verbose, "verbose", false, "debug logging to stderr")
}

func (c *commonFlags) setup() (*schema.Schema, error) {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if c.schemaPath == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	doc, err := os.ReadFile(c.schemaPath)
	if err != nil {
		return nil, err
	}
	root, err := schema.Parse(doc)
	if err != nil {
		return nil, err
	}
	slog.Debug("schema loaded", "path", c.schemaPath)
	return root, nil
}

// crcDigest maps a --crc flag value to a digest. The parameter sets
// are the common defaults: CRC-32/ISCSI, CRC-16/ARC, CRC-8/SMBUS.
func crcDigest(name string) (crcmod.Digest, error) {
	switch name {
	case "":
		return nil, nil
	case "crc32":
		return crcmod.NewCRC32(crc32.MakeTable(crc32.Castagnoli)), nil
	case "crc16":
		return crcmod.NewCRC16(crc16.CRC16_ARC), nil
	case "crc8":
		return crcmod.NewCRC8(crc8.CRC8), nil
	default:
		return nil, fmt.Errorf("unknown CRC algorithm %q", name)
	}
}

func cmdEncode(args []string) error {
	var common commonFlags
	var inputPath, outPath string
	flagSet := pflag.NewFlagSet("postcard encode", pflag.ContinueOnError)
	common.add(flagSet)
	flagSet.StringVar(&inputPath, "input", "-", "JSON/JSONC value document (- for stdin)")
	flagSet.StringVar(&outPath, "out", "-", "output file (- for stdout)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	root, err := common.setup()
	if err != nil {
		return err
	}

	value, err := readValue(inputPath)
	if err != nil {
		return err
	}

	fn := func(s *ser.Serializer) error { return schema.Encode(s, root, value) }
	var out []byte
	digest, err := crcDigest(common.crcName)
	if err != nil {
		return err
	}
	switch {
	case digest != nil && common.cobsFramed:
		// CRC inside the frame: compute the trailer first, then
		// frame payload+trailer together.
		inner, err := postcard.ToBytesCRC(digest, fn)
		if err != nil {
			return err
		}
		out = cobs.AppendEncode(nil, inner)
	case digest != nil:
		if out, err = postcard.ToBytesCRC(digest, fn); err != nil {
			return err
		}
	case common.cobsFramed:
		if out, err = postcard.ToBytesCOBS(fn); err != nil {
			return err
		}
	default:
		if out, err = postcard.ToBytes(fn); err != nil {
			return err
		}
	}
	slog.Debug("encoded", "bytes", len(out))
	return writeOutput(outPath, out)
}

func cmdDecode(args []string) error {
	var common commonFlags
	var inPath, format string
	flagSet := pflag.NewFlagSet("postcard decode", pflag.ContinueOnError)
	common.add(flagSet)
	flagSet.StringVar(&inPath, "in", "-", "wire bytes (- for stdin)")
	flagSet.StringVar(&format, "format", "json", "output format: json, cbor, or diag")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	root, err := common.setup()
	if err != nil {
		return err
	}

	data, err := readInput(inPath)
	if err != nil {
		return err
	}
	if common.cobsFramed {
		if data, err = cobs.AppendDecode(nil, data); err != nil {
			return err
		}
	}

	var value any
	fn := func(d *de.Deserializer) error {
		value, err = schema.Decode(d, root)
		return err
	}
	digest, err := crcDigest(common.crcName)
	if err != nil {
		return err
	}
	if digest != nil {
		err = postcard.FromBytesCRC(data, digest, fn)
	} else {
		err = postcard.FromBytes(data, fn)
	}
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case "cbor":
		out, err := cbor.Marshal(value)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	case "diag":
		out, err := cbor.Marshal(value)
		if err != nil {
			return err
		}
		diag, err := cbor.Diagnose(out)
		if err != nil {
			return err
		}
		fmt.Println(diag)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func cmdSize(args []string) error {
	var common commonFlags
	var inputPath string
	flagSet := pflag.NewFlagSet("postcard size", pflag.ContinueOnError)
	common.add(flagSet)
	flagSet.StringVar(&inputPath, "input", "", "JSON/JSONC value document (omit for worst-case only)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	root, err := common.setup()
	if err != nil {
		return err
	}

	if worst, bounded := root.MaxSize(); bounded {
		fmt.Printf("worst-case: %d bytes\n", worst)
	} else {
		fmt.Println("worst-case: unbounded (schema contains a variable-length element)")
	}

	if inputPath == "" {
		return nil
	}
	value, err := readValue(inputPath)
	if err != nil {
		return err
	}
	n, err := postcard.SizeOf(func(s *ser.Serializer) error {
		return schema.Encode(s, root, value)
	})
	if err != nil {
		return err
	}
	fmt.Printf("exact: %d bytes\n", n)
	return nil
}

func cmdInspect(args []string) error {
	var inPath string
	var framed bool
	var capacity int
	flagSet := pflag.NewFlagSet("postcard inspect", pflag.ContinueOnError)
	flagSet.StringVar(&inPath, "in", "-", "capture file (- for stdin)")
	flagSet.BoolVar(&framed, "cobs", true, "treat input as COBS-framed stream")
	flagSet.IntVar(&capacity, "frame-capacity", 1024, "accumulator capacity in bytes")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	data, err := readInput(inPath)
	if err != nil {
		return err
	}
	if !framed {
		dump(0, data)
		return nil
	}

	acc := cobs.NewAccumulator(capacity)
	index := 0
	for len(data) > 0 {
		result := acc.Feed(data)
		data = result.Remaining
		switch result.State {
		case cobs.FeedConsumed:
			data = nil
		case cobs.FeedFrame:
			dump(index, result.Payload)
			index++
		case cobs.FeedBadFrame:
			fmt.Printf("frame %d: bad COBS frame\n", index)
			index++
		case cobs.FeedOverFull:
			fmt.Printf("frame %d: exceeds %d-byte capacity\n", index, capacity)
			index++
		}
	}
	return nil
}

func dump(index int, payload []byte) {
	fmt.Printf("frame %d: %d bytes\n", index, len(payload))
	for off := 0; off < len(payload); off += 16 {
		end := min(off+16, len(payload))
		fmt.Printf("  %04x  % x\n", off, payload[off:end])
	}
}

// readValue loads a JSON or JSONC document into the dynamic form the
// schema package encodes.
func readValue(path string) (any, error) {
	doc, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal(jsonc.ToJSON(doc), &value); err != nil {
		return nil, fmt.Errorf("parse value document: %w", err)
	}
	return value, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
