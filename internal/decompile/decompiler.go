package decompile

import (
	"fmt"
	"strings"

	"swfdec/internal/abc"
	"swfdec/internal/swfprim"
)

// Decompiler walks one ABC file's method bodies, resolving names through
// its constant pool and multiname table as it emits symbolic source.
type Decompiler struct {
	file *abc.File

	// KeepOpcodeComments, when true, emits a "// opcode 0xNN" line for
	// every unhandled or suppressed instruction instead of silently
	// dropping it — useful when diffing against a disassembly, noisy
	// otherwise.
	KeepOpcodeComments bool
}

// New returns a Decompiler that resolves names against file.
func New(file *abc.File) *Decompiler {
	return &Decompiler{file: file}
}

// ClassName resolves a class's instance multiname to its bare class name.
func (d *Decompiler) ClassName(instanceNameIndex uint32) string {
	return d.file.Name(instanceNameIndex)
}

// Package resolves a class's instance multiname to its dotted package
// path, or "" for a top-level (no-package) class.
func (d *Decompiler) Package(instanceNameIndex uint32) string {
	return d.file.Package(instanceNameIndex)
}

// methodState is the mutable per-call state decompileMethod threads
// through a single method body's linear pass: the symbolic operand
// stack, the named-local table, and the set of byte offsets some earlier
// jump instruction targeted.
type methodState struct {
	stack       []string
	locals      []string
	jumpTargets map[int]bool
	out         strings.Builder
	indent      int
}

func (m *methodState) push(v string) { m.stack = append(m.stack, v) }

func (m *methodState) pop() (string, bool) {
	if len(m.stack) == 0 {
		return "", false
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, true
}

func (m *methodState) top() (string, bool) {
	if len(m.stack) == 0 {
		return "", false
	}
	return m.stack[len(m.stack)-1], true
}

func (m *methodState) emit(line string) {
	for i := 0; i < m.indent; i++ {
		m.out.WriteString("    ")
	}
	m.out.WriteString(line)
	m.out.WriteString("\n")
}

// DecompileMethod renders one method body's bytecode as linear,
// goto-labelled source lines. Every stack-popping instruction tolerates an
// empty stack by becoming a no-op rather than panicking — corrupt or
// partially-understood bytecode should degrade the listing, not abort it.
func (d *Decompiler) DecompileMethod(body abc.MethodBody) string {
	localCount := int(body.LocalCount)
	if localCount == 0 {
		localCount = 4
	}
	m := &methodState{
		locals:      make([]string, localCount, max(localCount, 4)),
		jumpTargets: make(map[int]bool),
		indent:      1,
	}
	for i := range m.locals {
		m.locals[i] = "undefined"
	}

	code := body.Code
	pc := 0
	for pc < len(code) {
		op := code[pc]
		pc++

		if m.jumpTargets[pc] {
			m.out.WriteString(fmt.Sprintf("label_%d:\n", pc))
		}

		if isNonSemanticOpcode(op) {
			if d.KeepOpcodeComments {
				m.emit(fmt.Sprintf("// opcode 0x%02x", op))
			}
			continue
		}

		d.step(m, code, &pc, op)
	}

	return m.out.String()
}

// step executes one opcode's effect on the symbolic stack/output, given
// code and a pc already advanced past the opcode byte itself. pc is
// advanced further here for opcodes with inline operands.
func (d *Decompiler) step(m *methodState, code []byte, pcp *int, op byte) {
	switch op {
	case opReturnVoid:
		m.emit("return;")

	case opReturnValue:
		if v, ok := m.pop(); ok {
			m.emit("return " + v + ";")
		}

	case opPushNaN:
		m.push("NaN")

	case opPushByte:
		if *pcp < len(code) {
			v := int8(code[*pcp])
			*pcp++
			m.push(fmt.Sprintf("%d", v))
		}

	case opPushShort:
		v := readU30Inline(code, pcp)
		m.push(fmt.Sprintf("%d", v))

	case opPushString:
		idx := readU30Inline(code, pcp)
		m.push("\"" + d.file.String(idx) + "\"")

	case opPushInt:
		idx := readU30Inline(code, pcp)
		if int(idx) < len(d.file.ConstantPool.Ints) {
			m.push(fmt.Sprintf("%d", d.file.ConstantPool.Ints[idx]))
		} else {
			m.push("0")
		}

	case opPushUint:
		idx := readU30Inline(code, pcp)
		if int(idx) < len(d.file.ConstantPool.Uints) {
			m.push(fmt.Sprintf("%d", d.file.ConstantPool.Uints[idx]))
		} else {
			m.push("0")
		}

	case opPushDouble:
		idx := readU30Inline(code, pcp)
		if int(idx) < len(d.file.ConstantPool.Doubles) {
			m.push(fmt.Sprintf("%v", d.file.ConstantPool.Doubles[idx]))
		} else {
			m.push("0.0")
		}

	case opGetLocal:
		idx := readU30Inline(code, pcp)
		if int(idx) < len(m.locals) {
			m.push(fmt.Sprintf("local%d", idx))
		} else {
			m.push(fmt.Sprintf("arg%d", idx))
		}

	case opGetLocal0, opGetLocal1, opGetLocal2, opGetLocal3:
		idx := uint32(op - opGetLocal0)
		if idx == 0 {
			m.push("this")
		} else {
			m.push(fmt.Sprintf("arg%d", idx))
		}

	case opSetLocal:
		idx := readU30Inline(code, pcp)
		d.assignLocal(m, idx)

	case opSetLocal0, opSetLocal1, opSetLocal2, opSetLocal3:
		idx := uint32(op - opSetLocal0)
		d.assignLocal(m, idx)

	case opAdd:
		d.binary(m, "+")
	case opSubtract:
		d.binary(m, "-")
	case opMultiply:
		d.binary(m, "*")
	case opDivide:
		d.binary(m, "/")
	case opEquals:
		d.binary(m, "==")
	case opLessThan:
		d.binary(m, "<")

	case opGetLex:
		idx := readU30Inline(code, pcp)
		m.push(d.file.Name(idx))

	case opGetProperty:
		idx := readU30Inline(code, pcp)
		if obj, ok := m.pop(); ok {
			m.push(obj + "." + d.file.Name(idx))
		}

	case opSetProperty, opInitProperty:
		idx := readU30Inline(code, pcp)
		if len(m.stack) >= 2 {
			val, _ := m.pop()
			obj, _ := m.pop()
			m.emit(obj + "." + d.file.Name(idx) + " = " + val + ";")
		}

	case opCallProperty, opCallPropVoid:
		idx := readU30Inline(code, pcp)
		argc := readU30Inline(code, pcp)
		args := d.popArgs(m, int(argc))
		obj, ok := m.pop()
		if !ok {
			break
		}
		call := obj + "." + d.file.Name(idx) + "(" + strings.Join(args, ", ") + ")"
		if op == opCallPropVoid {
			m.emit(call + ";")
		} else {
			m.push(call)
		}

	case opNewFunction:
		idx := readU30Inline(code, pcp)
		m.push(fmt.Sprintf("function_%d", idx))

	case opNewClass:
		idx := readU30Inline(code, pcp)
		m.pop()
		m.push(fmt.Sprintf("Class_%d", idx))

	case opNewObject:
		argc := readU30Inline(code, pcp)
		m.push(objectLiteral(m, int(argc)))

	case opNewArray:
		argc := readU30Inline(code, pcp)
		items := d.popArgs(m, int(argc))
		m.push("[" + strings.Join(items, ", ") + "]")

	case opJump:
		offset := readS24Inline(code, pcp)
		target := *pcp + int(offset)
		m.jumpTargets[target] = true
		m.emit(fmt.Sprintf("goto label_%d;", target))

	case opIfTrue:
		offset := readS24Inline(code, pcp)
		target := *pcp + int(offset)
		m.jumpTargets[target] = true
		if cond, ok := m.pop(); ok {
			m.emit(fmt.Sprintf("if (%s) goto label_%d;", cond, target))
		}

	case opIfFalse:
		offset := readS24Inline(code, pcp)
		target := *pcp + int(offset)
		m.jumpTargets[target] = true
		if cond, ok := m.pop(); ok {
			m.emit(fmt.Sprintf("if (!(%s)) goto label_%d;", cond, target))
		}

	case opPop:
		if v, ok := m.pop(); ok {
			m.emit(v + ";")
		}

	case opDup:
		if v, ok := m.top(); ok {
			m.push(v)
		}

	case opConvertInt:
		d.wrap(m, "int")
	case opConvertUint:
		d.wrap(m, "uint")
	case opConvertDouble:
		d.wrap(m, "Number")

	default:
		if d.KeepOpcodeComments {
			m.emit(fmt.Sprintf("// opcode 0x%02x", op))
		}
	}
}

func (d *Decompiler) assignLocal(m *methodState, idx uint32) {
	v, ok := m.pop()
	if !ok {
		return
	}
	name := fmt.Sprintf("local%d", idx)
	m.emit("var " + name + " = " + v + ";")
	if int(idx) < len(m.locals) {
		m.locals[idx] = name
	}
}

func (d *Decompiler) binary(m *methodState, op string) {
	if len(m.stack) < 2 {
		return
	}
	r, _ := m.pop()
	l, _ := m.pop()
	m.push("(" + l + " " + op + " " + r + ")")
}

func (d *Decompiler) wrap(m *methodState, fn string) {
	v, ok := m.pop()
	if !ok {
		return
	}
	m.push(fn + "(" + v + ")")
}

func (d *Decompiler) popArgs(m *methodState, n int) []string {
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v, ok := m.pop()
		if !ok {
			break
		}
		args = append(args, v)
	}
	reverse(args)
	return args
}

// objectLiteral renders a newobject instruction's argc key/value pairs —
// popped in reverse, alternating value then key — as a "{k: v, ...}"
// object literal. The original bytecode reader this package is grounded
// on discarded these pairs entirely and pushed a bare "{}"; rendering the
// literal is a deliberate improvement (see DESIGN.md).
func objectLiteral(m *methodState, argc int) string {
	type pair struct{ key, val string }
	pairs := make([]pair, 0, argc)
	for i := 0; i < argc; i++ {
		val, ok := m.pop()
		if !ok {
			break
		}
		key, ok := m.pop()
		if !ok {
			pairs = append(pairs, pair{key: "?", val: val})
			break
		}
		pairs = append(pairs, pair{key: key, val: val})
	}
	for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.key + ": " + p.val
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// sliceReader adapts a []byte plus an external cursor to swfprim's
// byteReader interface, letting decompileMethod reuse the same varint and
// signed-24 decoders the container and ABC parsers use rather than
// hand-rolling a second copy of either.
type sliceReader struct {
	code *[]byte
	pc   *int
}

func (s sliceReader) ReadByte() byte {
	if *s.pc >= len(*s.code) {
		return 0
	}
	b := (*s.code)[*s.pc]
	*s.pc++
	return b
}

func (s sliceReader) AtEnd() bool {
	return *s.pc >= len(*s.code)
}

func readU30Inline(code []byte, pcp *int) uint32 {
	v, _ := swfprim.ReadU30(sliceReader{code: &code, pc: pcp})
	return v
}

func readS24Inline(code []byte, pcp *int) int32 {
	return swfprim.ReadS24(sliceReader{code: &code, pc: pcp})
}
