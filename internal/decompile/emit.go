package decompile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"swfdec/internal/abc"
)

// ClassSource is one emitted class's rendered ActionScript-like listing
// plus the relative path it belongs at under an output root.
type ClassSource struct {
	Package   string
	ClassName string
	RelPath   string
	Source    string
}

// EmitClasses walks every script's class traits in file and renders one
// ClassSource per class: its instance and static method bodies
// decompiled in turn, grouped under a package block when the class has
// one. Classes with no backing method body (an external interface, or a
// trait this toolchain's trait reader didn't resolve) still get a stub
// method header with no body text.
func EmitClasses(file *abc.File) []ClassSource {
	dec := New(file)

	bodyByMethod := make(map[uint32]abc.MethodBody, len(file.Bodies))
	for _, b := range file.Bodies {
		bodyByMethod[b.Method] = b
	}

	var out []ClassSource
	for _, script := range file.Scripts {
		for _, t := range script.Traits {
			if t.Kind&0x0F != abc.TraitClass {
				continue
			}
			if int(t.ClassIndex) >= len(file.Classes) {
				continue
			}
			cls := file.Classes[t.ClassIndex]
			out = append(out, dec.emitClass(cls, bodyByMethod))
		}
	}
	return out
}

func (d *Decompiler) emitClass(cls abc.ClassDef, bodyByMethod map[uint32]abc.MethodBody) ClassSource {
	className := d.ClassName(cls.Instance.Name)
	pkg := d.Package(cls.Instance.Name)

	var b strings.Builder
	indent := ""
	if pkg != "" {
		fmt.Fprintf(&b, "package %s {\n", pkg)
		indent = "    "
	}

	fmt.Fprintf(&b, "%spublic class %s", indent, className)
	if cls.Instance.SuperName != 0 {
		fmt.Fprintf(&b, " extends %s", d.file.Name(cls.Instance.SuperName))
	}
	b.WriteString(" {\n")

	d.emitMethodTraits(&b, cls.Instance.Traits, bodyByMethod, false)
	d.emitMethodTraits(&b, cls.Statics.Traits, bodyByMethod, true)

	b.WriteString(indent + "}\n")
	if pkg != "" {
		b.WriteString("}\n")
	}

	relPath := className + ".as"
	if pkg != "" {
		relPath = filepath.Join(filepath.Join(strings.Split(pkg, ".")...), relPath)
	}

	return ClassSource{Package: pkg, ClassName: className, RelPath: relPath, Source: b.String()}
}

func (d *Decompiler) emitMethodTraits(b *strings.Builder, traits []abc.Trait, bodyByMethod map[uint32]abc.MethodBody, static bool) {
	for _, mt := range traits {
		kind := mt.Kind & 0x0F
		if kind < abc.TraitMethod || kind > abc.TraitSetter {
			continue
		}
		mname := d.file.Name(mt.Name)
		qualifier := "public function"
		if static {
			qualifier = "public static function"
		}
		fmt.Fprintf(b, "    %s %s() {\n", qualifier, mname)
		if body, ok := bodyByMethod[mt.MethodIndex]; ok {
			b.WriteString(d.DecompileMethod(body))
		}
		b.WriteString("    }\n\n")
	}
}

// WriteClasses renders every class in file and writes each to
// <outDir>/<package-as-directories>/<ClassName>.as, creating directories
// as needed. It returns the list of files written, relative to outDir.
func WriteClasses(file *abc.File, outDir string) ([]string, error) {
	classes := EmitClasses(file)
	written := make([]string, 0, len(classes))
	for _, c := range classes {
		full := filepath.Join(outDir, c.RelPath)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return written, fmt.Errorf("decompile: mkdir %s: %w", filepath.Dir(full), err)
		}
		if err := os.WriteFile(full, []byte(c.Source), 0o644); err != nil {
			return written, fmt.Errorf("decompile: write %s: %w", full, err)
		}
		written = append(written, c.RelPath)
	}
	return written, nil
}
