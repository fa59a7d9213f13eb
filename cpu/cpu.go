package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"
)

const (
	MEMORY_SIZE    = 256         // Bytes of addressable memory.
	REGISTER_COUNT = 8           // General purpose registers.
	REG_SP         = 7           // Register reserved as the stack pointer.
	STACK_TOP      = uint8(0xf4) // Initial stack pointer.
)

// Comparison flags, set only by CMP.
const (
	FL_EQUAL   = uint8(1 << 0)
	FL_GREATER = uint8(1 << 1)
	FL_LESS    = uint8(1 << 2)
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%v", MEMORY_SIZE),
	"STACK_TOP":   fmt.Sprintf("%#x", STACK_TOP),
	"FL_EQUAL":    fmt.Sprintf("%#x", FL_EQUAL),
	"FL_GREATER":  fmt.Sprintf("%#x", FL_GREATER),
	"FL_LESS":     fmt.Sprintf("%#x", FL_LESS),
}

// Output is the line oriented sink that PRN writes to.
type Output interface {
	// Print emits the decimal value of a register.
	Print(value uint8) error
}

// Cpu is the simulation context for the LS-8 processor.
type Cpu struct {
	Verbose bool   // Set to enable verbose logging.
	Output  Output // Destination of PRN.

	Memory   [MEMORY_SIZE]uint8    // Flat, unprotected memory.
	Register [REGISTER_COUNT]uint8 // Register bank. R7 is the stack pointer.
	Pc       uint8                 // Program counter.
	Fl       uint8                 // Flags from the most recent CMP.
	Running  bool                  // Cleared by HLT or a fault.
	Fault    error                 // Fault that stopped the CPU, if any.

	Ticks int // Instructions executed since reset.
}

// NewCpu creates a new CPU, in its reset state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Clears memory, registers, and flags.
// - Sets the stack pointer to STACK_TOP.
// - Sets the PC to address 0, and marks the CPU as running.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Memory[:])
	clear(cpu.Register[:])
	cpu.Register[REG_SP] = STACK_TOP
	cpu.Pc = 0
	cpu.Fl = 0
	cpu.Running = true
	cpu.Fault = nil
	cpu.Ticks = 0
}

// Load copies a program image into memory, starting at address 0.
func (cpu *Cpu) Load(data []uint8) (err error) {
	if len(data) > MEMORY_SIZE {
		err = ErrProgramFull
		return
	}

	copy(cpu.Memory[:], data)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", len(data))
	}

	return
}

// Status returns the current execution state.
func (cpu *Cpu) Status() Status {
	switch {
	case cpu.Running:
		return STATUS_RUNNING
	case cpu.Fault != nil:
		return STATUS_FAULTED
	default:
		return STATUS_HALTED
	}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"pc",
		"next",
		"fl",
		"r0", "r1", "r2", "r3", "r4", "r5", "r6",
		"sp",
		"stack",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%02X", cpu.Pc)
		case "next":
			strval = Decode(&cpu.Memory, cpu.Pc).String()
		case "fl":
			strval = "---"
			if cpu.Fl&FL_LESS != 0 {
				strval = "L--"
			}
			if cpu.Fl&FL_GREATER != 0 {
				strval = "-G-"
			}
			if cpu.Fl&FL_EQUAL != 0 {
				strval = "--E"
			}
		case "r0", "r1", "r2", "r3", "r4", "r5", "r6":
			strval = fmt.Sprintf("%02X", cpu.Register[reg[1]-'0'])
		case "sp":
			strval = fmt.Sprintf("%02X", cpu.Register[REG_SP])
		case "stack":
			val, ok := cpu.Peek()
			if ok {
				strval = fmt.Sprintf("%02X", val)
			} else {
				strval = "--"
			}
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Trace returns a single line with the PC, the three bytes at the PC,
// and the register bank.
func (cpu *Cpu) Trace() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "TRACE: %02X | %02X %02X %02X |",
		cpu.Pc,
		cpu.Memory[cpu.Pc],
		cpu.Memory[cpu.Pc+1],
		cpu.Memory[cpu.Pc+2],
	)

	for _, reg := range cpu.Register {
		fmt.Fprintf(&sb, " %02X", reg)
	}

	return sb.String()
}

// Tick executes a single CPU instruction cycle.
//
// Every instruction that does not set the PC itself advances it past
// its operands, except HLT: a halted CPU's PC addresses the HLT byte.
//
// Once the CPU has halted or faulted, Tick has no effect and
// reports the final status again.
func (cpu *Cpu) Tick() (status Status, err error) {
	if !cpu.Running {
		return cpu.Status(), cpu.Fault
	}

	in := Decode(&cpu.Memory, cpu.Pc)

	err = cpu.Execute(in)
	if err != nil {
		if cpu.Verbose {
			log.Printf("cpu: fault at %02x: %v", cpu.Pc, err)
		}
		cpu.Running = false
		cpu.Fault = err
		status = STATUS_FAULTED
		return
	}

	cpu.Ticks += 1
	status = cpu.Status()

	return
}

// Run ticks the CPU until it halts or faults, and returns the fault.
func (cpu *Cpu) Run() (err error) {
	for cpu.Running {
		_, err = cpu.Tick()
		if err != nil {
			return
		}
	}

	err = cpu.Fault
	return
}

// Execute executes a single decoded instruction, and advances the PC
// for instructions that do not position it themselves.
func (cpu *Cpu) Execute(in Instruction) (err error) {
	if cpu.Verbose {
		log.Printf("%02x: %v", cpu.Pc, in)
	}

	op := in.Opcode
	a := in.A
	b := in.B

	switch op {
	case OP_HLT:
		// The PC stays on the HLT.
		cpu.Running = false
		return
	case OP_LDI:
		err = cpu.setRegister(a, b)
	case OP_PRN:
		var value uint8
		value, err = cpu.getRegister(a)
		if err != nil {
			return
		}
		if cpu.Output == nil {
			err = ErrOutputInvalid
			return
		}
		err = cpu.Output.Print(value)
	case OP_ADD, OP_MUL:
		err = cpu.Alu(aluMap[op], a, b)
	case OP_PUSH:
		var value uint8
		value, err = cpu.getRegister(a)
		if err != nil {
			return
		}
		cpu.push(value)
	case OP_POP:
		err = cpu.checkRegister(a)
		if err != nil {
			return
		}
		cpu.Register[a] = cpu.pop()
	case OP_CALL:
		var target uint8
		target, err = cpu.getRegister(a)
		if err != nil {
			return
		}
		// Return address is the byte after CALL's operand.
		cpu.push(cpu.Pc + 2)
		cpu.Pc = target
	case OP_RET:
		cpu.Pc = cpu.pop()
	case OP_CMP:
		err = cpu.compare(a, b)
	case OP_JMP:
		err = cpu.jump(a, true)
	case OP_JEQ:
		err = cpu.jump(a, (cpu.Fl&FL_EQUAL) != 0)
	case OP_JNE:
		err = cpu.jump(a, (cpu.Fl&FL_EQUAL) == 0)
	default:
		err = ErrOpcode(op)
	}

	if err != nil {
		return
	}

	if !op.SetsPc() {
		err = cpu.advance(op.Size())
	}

	return
}

// advance moves the PC forward by count bytes.
func (cpu *Cpu) advance(count int) (err error) {
	next_pc := int(cpu.Pc) + count
	if next_pc >= MEMORY_SIZE {
		err = ErrPcOverflow
		return
	}

	cpu.Pc = uint8(next_pc)

	return
}

// jump sets the PC to the value of a register when taken, and otherwise
// skips past the jump's single operand.
func (cpu *Cpu) jump(reg uint8, taken bool) (err error) {
	target, err := cpu.getRegister(reg)
	if err != nil {
		return
	}

	if !taken {
		return cpu.advance(OP_JMP.Size())
	}

	cpu.Pc = target

	return
}

// compare sets exactly one of the comparison flags.
func (cpu *Cpu) compare(reg_a, reg_b uint8) (err error) {
	a, err := cpu.getRegister(reg_a)
	if err != nil {
		return
	}
	b, err := cpu.getRegister(reg_b)
	if err != nil {
		return
	}

	switch {
	case a == b:
		cpu.Fl = FL_EQUAL
	case a < b:
		cpu.Fl = FL_LESS
	default:
		cpu.Fl = FL_GREATER
	}

	return
}

func (cpu *Cpu) checkRegister(reg uint8) (err error) {
	if int(reg) >= len(cpu.Register) {
		err = ErrRegister(reg)
	}
	return
}

func (cpu *Cpu) getRegister(reg uint8) (value uint8, err error) {
	err = cpu.checkRegister(reg)
	if err != nil {
		return
	}

	value = cpu.Register[reg]
	return
}

func (cpu *Cpu) setRegister(reg uint8, value uint8) (err error) {
	err = cpu.checkRegister(reg)
	if err != nil {
		return
	}

	cpu.Register[reg] = value
	return
}
