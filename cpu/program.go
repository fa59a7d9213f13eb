package cpu

import (
	"fmt"
	"io"
	"iter"
	"strings"
)

// Statement is a line of assembled source with its address and the bytes
// generated for it.
type Statement struct {
	LineNo    int
	Address   int
	Words     []string
	Bytes     []uint8
	Data      bool   // Bytes are from .db, not an instruction.
	LinkLabel string // Label whose address is placed in Bytes[LinkIndex].
	LinkIndex int
}

// Program is an assembled LS-8 program.
type Program struct {
	Statements []Statement
}

type Debug struct {
	*Statement
	Index int
}

// Debug finds the statement that generated the byte at addr.
func (prog *Program) Debug(addr uint8) (dbg Debug) {
	for n, st := range prog.Statements {
		if int(addr) >= st.Address && int(addr) < st.Address+len(st.Bytes) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     int(addr) - st.Address,
			}
			break
		}
	}

	return
}

// Size returns the number of bytes in the program image.
func (prog *Program) Size() (size int) {
	for _, st := range prog.Statements {
		size = max(size, st.Address+len(st.Bytes))
	}

	return
}

// Binary returns the program image, starting at address 0.
func (prog *Program) Binary() (bins []uint8) {
	bins = make([]uint8, prog.Size())
	for addr, value := range prog.Bytes() {
		bins[addr] = value
	}

	return
}

// Bytes iterates over each address and the byte assembled there.
func (prog *Program) Bytes() iter.Seq2[int, uint8] {
	return func(yield func(addr int, value uint8) bool) {
		for _, st := range prog.Statements {
			for n, value := range st.Bytes {
				if !yield(st.Address+n, value) {
					return
				}
			}
		}
	}
}

// WriteLs8 writes the program in the loader's text format, one binary byte
// per line, with the disassembly of each instruction as a comment.
func (prog *Program) WriteLs8(output io.Writer) (err error) {
	for _, st := range prog.Statements {
		var comment string
		if st.Data {
			comment = ".db " + strings.Join(st.Words[1:], " ")
		} else {
			in := Instruction{Opcode: Opcode(st.Bytes[0])}
			if len(st.Bytes) > 1 {
				in.A = st.Bytes[1]
			}
			if len(st.Bytes) > 2 {
				in.B = st.Bytes[2]
			}
			comment = in.String()
		}

		for n, value := range st.Bytes {
			if n == 0 {
				_, err = fmt.Fprintf(output, "%08b # %v\n", value, comment)
			} else {
				_, err = fmt.Fprintf(output, "%08b\n", value)
			}
			if err != nil {
				return
			}
		}
	}

	return
}
