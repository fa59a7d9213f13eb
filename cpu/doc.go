// Package cpu implements the LS-8 microprocessor and its assembler.
//
// The CPU consists of a 256 byte memory, eight 8-bit registers (R0-R7, with
// R7 reserved as the stack pointer), a program counter (PC), a comparison
// flags register, and a two operation ALU. Instructions are fetched,
// decoded and executed one at a time by Tick.
//
// Opcodes are laid out as AABCDDDD, where AA is the operand count, B is set
// when the instruction writes the PC itself, and DDDD identifies the
// operation.
//
// The assembler provides a small assembly language for the LS-8 instruction
// set, supporting macros, labels, equates, data bytes, and compile-time
// expression evaluation.
package cpu
