package decompile

import (
	"fmt"
	"sort"

	"github.com/zboralski/lattice"
)

// inst is one decoded instruction's position and, for jump/branch opcodes,
// resolved target — the unit BuildCFG partitions into basic blocks.
type inst struct {
	pc     int // offset of the opcode byte itself
	next   int // offset of the following instruction
	op     byte
	target int  // valid only when isBranch
	isCond bool // ifTrue/ifFalse vs. unconditional jump
	isJump bool
}

// scanInstructions walks code exactly as DecompileMethod does, recording
// instruction boundaries and branch targets without building any symbolic
// stack output. It shares operand-width knowledge with step/DecompileMethod
// by construction: both advance pc using the same readU30Inline/
// readS24Inline/opcode-operand rules, so the two passes stay in lockstep.
func scanInstructions(code []byte) []inst {
	var insts []inst
	pc := 0
	for pc < len(code) {
		start := pc
		op := code[pc]
		pc++

		it := inst{pc: start, op: op}

		switch op {
		case opPushByte:
			if pc < len(code) {
				pc++
			}
		case opPushShort, opPushString, opPushInt, opPushUint, opPushDouble,
			opGetLocal, opSetLocal, opGetLex, opSetProperty, opGetProperty,
			opInitProperty, opNewFunction, opNewClass, opNewObject, opNewArray:
			readU30Inline(code, &pc)
		case opCallProperty, opCallPropVoid:
			readU30Inline(code, &pc)
			readU30Inline(code, &pc)
		case opJump:
			offset := readS24Inline(code, &pc)
			it.isJump, it.target = true, pc+int(offset)
		case opIfTrue, opIfFalse:
			offset := readS24Inline(code, &pc)
			it.isJump, it.isCond, it.target = true, true, pc+int(offset)
		}

		it.next = pc
		insts = append(insts, it)
	}
	return insts
}

// Mnemonics returns one "0xNN @offset" label per instruction in code, in
// the same order and count as BuildCFG's internal instruction list — so a
// caller rendering BuildCFG's blocks can index into this slice with the
// block's Start/End instruction indices directly.
func Mnemonics(code []byte) []string {
	insts := scanInstructions(code)
	out := make([]string, len(insts))
	for i, it := range insts {
		out[i] = fmt.Sprintf("0x%02x @%d", it.op, it.pc)
	}
	return out
}

// BuildCFG constructs a basic-block control-flow graph for one method
// body's bytecode, following the same leaders-then-partition-then-succs
// three-pass shape used elsewhere in this toolchain for machine-code CFGs:
// block leaders are the entry instruction, every branch target, and the
// instruction immediately after every branch; blocks are the runs between
// consecutive leaders; successor edges come from each block's last
// instruction.
func BuildCFG(name string, code []byte) *lattice.FuncCFG {
	insts := scanInstructions(code)
	if len(insts) == 0 {
		return &lattice.FuncCFG{Name: name}
	}

	pcToIdx := make(map[int]int, len(insts))
	for i, it := range insts {
		pcToIdx[it.pc] = i
	}

	leaders := map[int]bool{0: true}
	for i, it := range insts {
		if !it.isJump {
			continue
		}
		if i+1 < len(insts) {
			leaders[i+1] = true
		}
		if idx, ok := pcToIdx[it.target]; ok {
			leaders[idx] = true
		}
	}

	sortedLeaders := make([]int, 0, len(leaders))
	for idx := range leaders {
		sortedLeaders = append(sortedLeaders, idx)
	}
	sort.Ints(sortedLeaders)

	leaderToBlock := make(map[int]int, len(sortedLeaders))
	cfg := &lattice.FuncCFG{Name: name}
	for i, start := range sortedLeaders {
		end := len(insts)
		if i+1 < len(sortedLeaders) {
			end = sortedLeaders[i+1]
		}
		leaderToBlock[start] = i
		cfg.Blocks = append(cfg.Blocks, &lattice.BasicBlock{ID: i, Start: start, End: end})
	}

	for _, blk := range cfg.Blocks {
		if blk.End <= blk.Start {
			continue
		}
		last := insts[blk.End-1]
		if !last.isJump {
			if nextBlk, ok := leaderToBlock[blk.End]; ok {
				blk.Succs = append(blk.Succs, lattice.Successor{BlockID: nextBlk})
			}
			continue
		}

		targetBlock := -1
		if idx, ok := pcToIdx[last.target]; ok {
			if bid, ok := leaderToBlock[idx]; ok {
				targetBlock = bid
			}
		}

		if last.isCond {
			if targetBlock >= 0 {
				blk.Succs = append(blk.Succs, lattice.Successor{BlockID: targetBlock, Cond: "T"})
			}
			if nextBlk, ok := leaderToBlock[blk.End]; ok {
				blk.Succs = append(blk.Succs, lattice.Successor{BlockID: nextBlk, Cond: "F"})
			}
		} else {
			if targetBlock >= 0 {
				blk.Succs = append(blk.Succs, lattice.Successor{BlockID: targetBlock})
			} else {
				blk.Term = true
			}
		}
	}

	return cfg
}
