// Command shape2svg reads a shape payload previously written by extract
// (shape_<id>.dat, character-ID header included) and renders it as an XML
// vector document. The record version is supplied on the command line
// because the payload itself carries no version byte — it's encoded in the
// DefineShape* tag code the extractor already consumed.
package main

import (
	"fmt"
	"os"
	"strconv"

	"swfdec/internal/shape"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: shape_to_svg <shape.dat> <version 1..4> <output.svg>")
		os.Exit(1)
	}
	inPath, versionArg, outPath := os.Args[1], os.Args[2], os.Args[3]

	version, err := strconv.Atoi(versionArg)
	if err != nil || version < 1 || version > 4 {
		fmt.Fprintf(os.Stderr, "shape_to_svg: version must be 1..4, got %q\n", versionArg)
		os.Exit(1)
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shape_to_svg: open %s: %v\n", inPath, err)
		os.Exit(1)
	}
	if len(data) < 2 {
		fmt.Fprintf(os.Stderr, "shape_to_svg: %s too short to carry a character ID\n", inPath)
		os.Exit(1)
	}

	sh := shape.Decode(data[2:], version)
	doc := shape.Render(sh)

	if err := os.WriteFile(outPath, []byte(doc.WriteXML()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "shape_to_svg: write %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "shape_to_svg: %s (v%d) -> %s\n", inPath, version, outPath)
}
