// Command baotree hashes files and produces or verifies bao-tree outboard
// and proof streams from the command line.
package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Arqu/bao-tree"
	"github.com/Arqu/bao-tree/rangeset"
)

func main() {
	app := &cli.App{
		Name:  "baotree",
		Usage: "hash, encode and verify files with BLAKE3 bao-trees",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  "group-log",
				Usage: "chunk-group exponent g: each block covers 2^g chunks",
				Value: 0,
			},
		},
		Commands: []*cli.Command{
			hashCommand,
			outboardCommand,
			encodeCommand,
			decodeCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func chunkGroupLog(c *cli.Context) uint8 {
	return uint8(c.Uint("group-log"))
}

var hashCommand = &cli.Command{
	Name:      "hash",
	Usage:     "print the BLAKE3 bao-tree root hash of a file",
	ArgsUsage: "<file>",
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.Exit("hash: missing file argument", 1)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("hash: %v", err), 1)
		}
		root := bao.BlobHash(data, chunkGroupLog(c))
		fmt.Printf("%x\n", root)
		return nil
	},
}

var outboardCommand = &cli.Command{
	Name:      "outboard",
	Usage:     "write a file's outboard (side hash tree) next to it",
	ArgsUsage: "<file> <outboard-out>",
	Action: func(c *cli.Context) error {
		if c.Args().Len() < 2 {
			return cli.Exit("outboard: usage: outboard <file> <outboard-out>", 1)
		}
		data, err := os.ReadFile(c.Args().Get(0))
		if err != nil {
			return cli.Exit(fmt.Sprintf("outboard: %v", err), 1)
		}
		ob, root := bao.BuildOutboard(data, chunkGroupLog(c))
		if err := os.WriteFile(c.Args().Get(1), ob.Bytes(), 0o644); err != nil {
			return cli.Exit(fmt.Sprintf("outboard: %v", err), 1)
		}
		fmt.Printf("%x\n", root)
		return nil
	},
}

var encodeCommand = &cli.Command{
	Name:      "encode",
	Usage:     "write a selective proof stream for a chunk range",
	ArgsUsage: "<file> <outboard> <out> [--from N] [--to N]",
	Flags: []cli.Flag{
		&cli.Uint64Flag{Name: "from", Usage: "first chunk index (inclusive)"},
		&cli.Uint64Flag{Name: "to", Usage: "last chunk index (exclusive); 0 means end of file"},
	},
	Action: func(c *cli.Context) error {
		if c.Args().Len() < 3 {
			return cli.Exit("encode: usage: encode <file> <outboard> <out>", 1)
		}
		data, err := os.ReadFile(c.Args().Get(0))
		if err != nil {
			return cli.Exit(fmt.Sprintf("encode: %v", err), 1)
		}
		obBytes, err := os.ReadFile(c.Args().Get(1))
		if err != nil {
			return cli.Exit(fmt.Sprintf("encode: %v", err), 1)
		}
		g := chunkGroupLog(c)
		ob, err := bao.ParseOutboard(obBytes, g)
		if err != nil {
			return cli.Exit(fmt.Sprintf("encode: %v", err), 1)
		}

		to := c.Uint64("to")
		if to == 0 {
			to = uint64(ob.Tree().Chunks())
		}
		ranges := rangeset.New(c.Uint64("from"), to)

		out, err := os.Create(c.Args().Get(2))
		if err != nil {
			return cli.Exit(fmt.Sprintf("encode: %v", err), 1)
		}
		defer out.Close()

		return bao.EncodeRanges(out, data, ob, ranges)
	},
}

var decodeCommand = &cli.Command{
	Name:      "decode",
	Usage:     "verify a proof stream against a trusted root and print its chunk ranges",
	ArgsUsage: "<proof> <root-hex> [--from N] [--to N]",
	Flags: []cli.Flag{
		&cli.Uint64Flag{Name: "from", Usage: "first chunk index (inclusive)"},
		&cli.Uint64Flag{Name: "to", Usage: "last chunk index (exclusive); 0 means unbounded"},
	},
	Action: func(c *cli.Context) error {
		if c.Args().Len() < 2 {
			return cli.Exit("decode: usage: decode <proof> <root-hex>", 1)
		}
		proof, err := os.Open(c.Args().Get(0))
		if err != nil {
			return cli.Exit(fmt.Sprintf("decode: %v", err), 1)
		}
		defer proof.Close()

		var root bao.Hash
		rootBytes, err := hex.DecodeString(c.Args().Get(1))
		if err == nil && len(rootBytes) != len(root) {
			err = fmt.Errorf("want %d bytes, got %d", len(root), len(rootBytes))
		}
		if err != nil {
			return cli.Exit(fmt.Sprintf("decode: invalid root hex: %v", err), 1)
		}
		copy(root[:], rootBytes)

		to := c.Uint64("to")
		var ranges *rangeset.Set
		if to == 0 {
			ranges = rangeset.NewOpen(c.Uint64("from"))
		} else {
			ranges = rangeset.New(c.Uint64("from"), to)
		}

		chunks, err := bao.DecodeRanges(proof, root, ranges, chunkGroupLog(c))
		if err != nil {
			return cli.Exit(fmt.Sprintf("decode: %v", err), 1)
		}
		for _, ch := range chunks {
			fmt.Printf("offset=%d len=%d\n", ch.Offset, len(ch.Data))
		}
		return nil
	},
}
