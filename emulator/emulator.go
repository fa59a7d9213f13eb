// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator ties an LS-8 CPU to its ROM image and console.
package emulator

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/internal"
	"github.com/ezrec/ls8/io"
)

var _emulator_defines = map[string]string{
	"ROM_SIZE": fmt.Sprintf("%v", io.ROM_SIZE),
}

// Emulator state. CPU + ROM + console.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the running program, if assembled.

	Rom     io.Rom     // Program image loaded at reset.
	Console io.Console // PRN output.

	Limit  int               // If non-zero, the most instructions to run.
	Tracer func(line string) // If set, called with the trace line before each instruction.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(),
	}

	emu.Cpu.Output = &emu.Console

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Reset the CPU, and load the ROM image, or the program binary when the
// ROM is empty.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	if len(emu.Rom.Data) == 0 && emu.Program != nil {
		emu.Rom.Data = emu.Program.Binary()
	}

	emu.Cpu.Reset()
	emu.Console.Rewind()

	err = emu.Cpu.Load(emu.Rom.Data)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: reset, %d byte image", len(emu.Rom.Data))
	}

	return
}

// Status returns the CPU status.
func (emu *Emulator) Status() cpu.Status {
	return emu.Cpu.Status()
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns the current program counter.
func (emu *Emulator) Pc() int {
	return int(emu.Cpu.Pc)
}

// Instruction returns the instruction at the PC.
func (emu *Emulator) Instruction() cpu.Instruction {
	return cpu.Decode(&emu.Cpu.Memory, emu.Cpu.Pc)
}

// LineNo returns the source line number of the instruction at the PC, or 0
// if there is no program listing.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Statement == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
		}
	}()

	if emu.Limit > 0 && emu.Cpu.Ticks >= emu.Limit && emu.Cpu.Running {
		err = ErrTickLimit
		return
	}

	if emu.Tracer != nil && emu.Cpu.Running {
		emu.Tracer(emu.Cpu.Trace())
	}

	status, err := emu.Cpu.Tick()
	done = status != cpu.STATUS_RUNNING

	return
}

// Run ticks the emulator until the program halts or faults.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}
