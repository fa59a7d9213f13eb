package cpu

import (
	"fmt"
)

// Opcode is an LS-8 instruction byte, laid out as AABCDDDD.
type Opcode uint8

const (
	OP_HLT  = Opcode(0b00000001) // HLT
	OP_LDI  = Opcode(0b10000010) // LDI reg, imm8
	OP_PRN  = Opcode(0b01000111) // PRN reg
	OP_ADD  = Opcode(0b10100000) // ADD regA, regB
	OP_MUL  = Opcode(0b10100010) // MUL regA, regB
	OP_PUSH = Opcode(0b01000101) // PUSH reg
	OP_POP  = Opcode(0b01000110) // POP reg
	OP_CALL = Opcode(0b01010000) // CALL reg
	OP_RET  = Opcode(0b00010001) // RET
	OP_CMP  = Opcode(0b10100111) // CMP regA, regB
	OP_JMP  = Opcode(0b01010100) // JMP reg
	OP_JEQ  = Opcode(0b01010101) // JEQ reg
	OP_JNE  = Opcode(0b01010110) // JNE reg
)

// Opcode field masks.
const (
	OPCODE_OPERANDS_SHIFT = 6
	OPCODE_ALU            = Opcode(0b00100000) // Operation is performed by the ALU.
	OPCODE_SETS_PC        = Opcode(0b00010000) // Operation writes the PC itself.
	OPCODE_ID_MASK        = Opcode(0b00001111)
)

// OperandKind describes how an operand byte is interpreted.
type OperandKind int

const (
	OPERAND_REG = OperandKind(iota) // Register index.
	OPERAND_IMM                     // 8-bit immediate.
)

// opcodeInfo describes the assembly form of each known opcode.
var opcodeInfo = map[Opcode]struct {
	Name     string
	Operands []OperandKind
}{
	OP_HLT:  {"HLT", nil},
	OP_LDI:  {"LDI", []OperandKind{OPERAND_REG, OPERAND_IMM}},
	OP_PRN:  {"PRN", []OperandKind{OPERAND_REG}},
	OP_ADD:  {"ADD", []OperandKind{OPERAND_REG, OPERAND_REG}},
	OP_MUL:  {"MUL", []OperandKind{OPERAND_REG, OPERAND_REG}},
	OP_PUSH: {"PUSH", []OperandKind{OPERAND_REG}},
	OP_POP:  {"POP", []OperandKind{OPERAND_REG}},
	OP_CALL: {"CALL", []OperandKind{OPERAND_REG}},
	OP_RET:  {"RET", nil},
	OP_CMP:  {"CMP", []OperandKind{OPERAND_REG, OPERAND_REG}},
	OP_JMP:  {"JMP", []OperandKind{OPERAND_REG}},
	OP_JEQ:  {"JEQ", []OperandKind{OPERAND_REG}},
	OP_JNE:  {"JNE", []OperandKind{OPERAND_REG}},
}

// mnemonicMap maps assembly mnemonics to opcodes.
var mnemonicMap = func() map[string]Opcode {
	mnemonics := make(map[string]Opcode, len(opcodeInfo))
	for op, info := range opcodeInfo {
		mnemonics[info.Name] = op
	}
	return mnemonics
}()

// Operands returns the number of operand bytes following the opcode.
func (op Opcode) Operands() int {
	return int(op >> OPCODE_OPERANDS_SHIFT)
}

// SetsPc returns true if the instruction positions the PC itself.
func (op Opcode) SetsPc() bool {
	return (op & OPCODE_SETS_PC) != 0
}

// IsAlu returns true if the instruction is an ALU operation.
func (op Opcode) IsAlu() bool {
	return (op & OPCODE_ALU) != 0
}

// Id returns the operation identifier nibble.
func (op Opcode) Id() int {
	return int(op & OPCODE_ID_MASK)
}

// Valid returns true if the opcode is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfo[op]
	return ok
}

// Size returns the encoded size of the instruction, in bytes.
func (op Opcode) Size() int {
	return op.Operands() + 1
}

func (op Opcode) String() string {
	info, ok := opcodeInfo[op]
	if !ok {
		return fmt.Sprintf("Opcode(0b%08b)", uint8(op))
	}
	return info.Name
}

// Instruction is a decoded opcode with its two raw operand bytes.
type Instruction struct {
	Opcode Opcode
	A      uint8
	B      uint8
}

// Decode returns the instruction at addr. Operand reads wrap around
// the end of memory.
func Decode(mem *[MEMORY_SIZE]uint8, addr uint8) Instruction {
	return Instruction{
		Opcode: Opcode(mem[addr]),
		A:      mem[addr+1],
		B:      mem[addr+2],
	}
}

// String returns the assembly language representation of the instruction.
func (in Instruction) String() (out string) {
	info, ok := opcodeInfo[in.Opcode]
	if !ok {
		return fmt.Sprintf(".db 0b%08b", uint8(in.Opcode))
	}

	out = info.Name
	for n, kind := range info.Operands {
		value := in.A
		if n == 1 {
			value = in.B
		}
		sep := " "
		if n > 0 {
			sep = ","
		}
		switch kind {
		case OPERAND_REG:
			out += fmt.Sprintf("%vR%d", sep, value)
		case OPERAND_IMM:
			out += fmt.Sprintf("%v%d", sep, value)
		}
	}

	return
}

// Bytes returns the encoded form of the instruction.
func (in Instruction) Bytes() []uint8 {
	return []uint8{uint8(in.Opcode), in.A, in.B}[:min(in.Opcode.Size(), 3)]
}
