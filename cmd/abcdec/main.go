// Command abcdec decompiles an ABC bytecode image into one labelled,
// goto-style source listing per class, written under
// outputABC_decompiled/<pkg>/<Class>.as. With --graph, it additionally
// renders each method's basic-block control-flow graph as DOT.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"swfdec/internal/abc"
	"swfdec/internal/decompile"
	"swfdec/internal/render"
)

const outputDir = "outputABC_decompiled"

func main() {
	fs := flag.NewFlagSet("abcdec", flag.ExitOnError)
	graphDir := fs.String("graph", "", "also render each method's CFG as DOT under this directory")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: abcdec [--graph <dir>] <file.abc>")
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	inPath := fs.Arg(0)

	data, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "abcdec: open %s: %v\n", inPath, err)
		os.Exit(1)
	}

	file, err := abc.Parse(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "abcdec: parse %s: %v\n", inPath, err)
		os.Exit(1)
	}

	written, err := decompile.WriteClasses(file, outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "abcdec: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "abcdec: %s -> %d class file(s) under %s\n", inPath, len(written), outputDir)
	for _, rel := range written {
		fmt.Fprintf(os.Stderr, "  %s\n", rel)
	}

	if *graphDir != "" {
		if err := writeGraphs(file, *graphDir); err != nil {
			fmt.Fprintf(os.Stderr, "abcdec: graph: %v\n", err)
			os.Exit(1)
		}
	}
}

// writeGraphs renders one DOT file per instance/static method trait that
// has a resolvable method body, named <Class>_<method>.dot, mirroring the
// class/method walk decompile.EmitClasses does but keeping the per-method
// CFG (rather than the linear decompiled listing) as the artifact.
func writeGraphs(file *abc.File, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	bodyByMethod := make(map[uint32]abc.MethodBody, len(file.Bodies))
	for _, b := range file.Bodies {
		bodyByMethod[b.Method] = b
	}

	for _, script := range file.Scripts {
		for _, t := range script.Traits {
			if t.Kind&0x0F != abc.TraitClass {
				continue
			}
			if int(t.ClassIndex) >= len(file.Classes) {
				continue
			}
			cls := file.Classes[t.ClassIndex]
			className := file.Name(cls.Instance.Name)
			if err := writeClassGraphs(file, className, cls.Instance.Traits, bodyByMethod, dir); err != nil {
				return err
			}
			if err := writeClassGraphs(file, className, cls.Statics.Traits, bodyByMethod, dir); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeClassGraphs(file *abc.File, className string, traits []abc.Trait, bodyByMethod map[uint32]abc.MethodBody, dir string) error {
	for _, mt := range traits {
		kind := mt.Kind & 0x0F
		if kind < abc.TraitMethod || kind > abc.TraitSetter {
			continue
		}
		body, ok := bodyByMethod[mt.MethodIndex]
		if !ok {
			continue
		}
		methodName := file.Name(mt.Name)
		cfg := decompile.BuildCFG(className+"."+methodName, body.Code)
		if len(cfg.Blocks) == 0 {
			continue
		}
		mnemonics := decompile.Mnemonics(body.Code)
		dot := render.CFGDOT(cfg, mnemonics, render.NASA)

		name := sanitizeFileName(className) + "_" + sanitizeFileName(methodName) + ".dot"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
