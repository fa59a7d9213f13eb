package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// printer records PRN output.
type printer struct {
	Values []uint8
}

func (p *printer) Print(value uint8) error {
	p.Values = append(p.Values, value)
	return nil
}

func newTestCpu(program ...uint8) (cpu *Cpu, out *printer) {
	out = &printer{}
	cpu = NewCpu()
	cpu.Output = out
	err := cpu.Load(program)
	if err != nil {
		panic(err)
	}
	return
}

func TestNewCpu(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	assert.True(cpu.Running)
	assert.Equal(STATUS_RUNNING, cpu.Status())
	assert.Equal(uint8(0), cpu.Pc)
	assert.Equal(STACK_TOP, cpu.Register[REG_SP])
	assert.Equal(uint8(0xf4), cpu.Register[7])
	for n := range REG_SP {
		assert.Equal(uint8(0), cpu.Register[n])
	}
	for _, value := range cpu.Memory {
		assert.Equal(uint8(0), value)
	}
	assert.Equal(0, cpu.StackDepth())
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(0x12, 0x34)
	cpu.Register[3] = 9
	cpu.Register[REG_SP] = 0x80
	cpu.Pc = 0x40
	cpu.Fl = FL_LESS
	cpu.Running = false
	cpu.Fault = ErrPcOverflow
	cpu.Ticks = 4

	cpu.Reset()

	assert.Equal(uint8(0), cpu.Memory[0])
	assert.Equal(uint8(0), cpu.Register[3])
	assert.Equal(STACK_TOP, cpu.Register[REG_SP])
	assert.Equal(uint8(0), cpu.Pc)
	assert.Equal(uint8(0), cpu.Fl)
	assert.True(cpu.Running)
	assert.Nil(cpu.Fault)
	assert.Equal(0, cpu.Ticks)
}

func TestCpu_Load(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.NoError(cpu.Load([]uint8{1, 2, 3}))
	assert.Equal([]uint8{1, 2, 3, 0}, cpu.Memory[:4])

	assert.NoError(cpu.Load(make([]uint8, MEMORY_SIZE)))
	assert.Equal(ErrProgramFull, cpu.Load(make([]uint8, MEMORY_SIZE+1)))
}

func TestCpu_Print8(t *testing.T) {
	assert := assert.New(t)

	cpu, out := newTestCpu(
		0b10000010, // LDI R0,8
		0b00000000,
		0b00001000,
		0b01000111, // PRN R0
		0b00000000,
		0b00000001, // HLT
	)

	err := cpu.Run()
	assert.NoError(err)

	assert.Equal([]uint8{8}, out.Values)
	assert.False(cpu.Running)
	assert.Equal(STATUS_HALTED, cpu.Status())
	assert.Nil(cpu.Fault)
	assert.Equal(3, cpu.Ticks)
}

func TestCpu_Tick(t *testing.T) {
	assert := assert.New(t)

	cpu, out := newTestCpu(
		0b10000010, 0, 8, // LDI R0,8
		0b01000111, 0, // PRN R0
		0b00000001, // HLT
	)

	status, err := cpu.Tick()
	assert.NoError(err)
	assert.Equal(STATUS_RUNNING, status)
	assert.Equal(uint8(3), cpu.Pc)
	assert.Equal(uint8(8), cpu.Register[0])

	status, err = cpu.Tick()
	assert.NoError(err)
	assert.Equal(STATUS_RUNNING, status)
	assert.Equal(uint8(5), cpu.Pc)
	assert.Equal([]uint8{8}, out.Values)

	status, err = cpu.Tick()
	assert.NoError(err)
	assert.Equal(STATUS_HALTED, status)

	// Halted CPUs stay halted.
	pc := cpu.Pc
	status, err = cpu.Tick()
	assert.NoError(err)
	assert.Equal(STATUS_HALTED, status)
	assert.Equal(pc, cpu.Pc)
	assert.Equal(3, cpu.Ticks)
}

func TestCpu_Ldi(t *testing.T) {
	assert := assert.New(t)

	for reg := range uint8(REGISTER_COUNT) {
		cpu, _ := newTestCpu(uint8(OP_LDI), reg, 0xa5)
		_, err := cpu.Tick()
		assert.NoError(err)
		assert.Equal(uint8(0xa5), cpu.Register[reg])
		assert.Equal(uint8(3), cpu.Pc)
	}
}

func TestCpu_Add(t *testing.T) {
	assert := assert.New(t)

	for a := range uint8(REGISTER_COUNT) {
		for b := range uint8(REGISTER_COUNT) {
			cpu, _ := newTestCpu(uint8(OP_ADD), a, b)
			for n := range cpu.Register {
				cpu.Register[n] = uint8(n*37 + 200)
			}
			old := cpu.Register

			_, err := cpu.Tick()
			assert.NoError(err)

			expected := old
			expected[a] = uint8((int(old[a]) + int(old[b])) % 256)
			assert.Equal(expected, cpu.Register, "ADD R%d,R%d", a, b)
			assert.Equal(uint8(3), cpu.Pc)
		}
	}
}

func TestCpu_Mul(t *testing.T) {
	assert := assert.New(t)

	for a := range uint8(REGISTER_COUNT) {
		for b := range uint8(REGISTER_COUNT) {
			cpu, _ := newTestCpu(uint8(OP_MUL), a, b)
			for n := range cpu.Register {
				cpu.Register[n] = uint8(n*23 + 11)
			}
			old := cpu.Register

			_, err := cpu.Tick()
			assert.NoError(err)

			expected := old
			expected[a] = uint8((int(old[a]) * int(old[b])) % 256)
			assert.Equal(expected, cpu.Register, "MUL R%d,R%d", a, b)
		}
	}
}

func TestCpu_PushPop(t *testing.T) {
	assert := assert.New(t)

	for reg := range uint8(REGISTER_COUNT) {
		cpu, _ := newTestCpu(
			uint8(OP_PUSH), reg,
			uint8(OP_POP), reg,
			uint8(OP_HLT),
		)
		if reg != REG_SP {
			cpu.Register[reg] = 0x40 + reg
		}
		before := cpu.Register

		_, err := cpu.Tick()
		assert.NoError(err)
		assert.Equal(STACK_TOP-1, cpu.Register[REG_SP])
		assert.Equal(before[reg], cpu.Memory[STACK_TOP-1])
		assert.Equal(1, cpu.StackDepth())

		_, err = cpu.Tick()
		assert.NoError(err)
		assert.Equal(before, cpu.Register, "R%d", reg)
		assert.Equal(uint8(4), cpu.Pc)
		assert.Equal(0, cpu.StackDepth())
	}
}

func TestCpu_PushPop_Order(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(
		uint8(OP_PUSH), 0,
		uint8(OP_PUSH), 1,
		uint8(OP_POP), 0,
		uint8(OP_POP), 1,
		uint8(OP_HLT),
	)
	cpu.Register[0] = 0x11
	cpu.Register[1] = 0x22

	assert.NoError(cpu.Run())
	assert.Equal(uint8(0x22), cpu.Register[0])
	assert.Equal(uint8(0x11), cpu.Register[1])
	assert.Equal(STACK_TOP, cpu.Register[REG_SP])
}

func TestCpu_CallRet(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(
		uint8(OP_CALL), 1, // 0x00: CALL R1
		uint8(OP_HLT), // 0x02: HLT
		0,
		0,
		uint8(OP_RET), // 0x05: RET
	)
	cpu.Register[1] = 0x05

	_, err := cpu.Tick()
	assert.NoError(err)
	assert.Equal(uint8(0x05), cpu.Pc)
	assert.Equal(STACK_TOP-1, cpu.Register[REG_SP])
	assert.Equal(uint8(0x02), cpu.Memory[STACK_TOP-1])

	_, err = cpu.Tick()
	assert.NoError(err)
	assert.Equal(uint8(0x02), cpu.Pc)
	assert.Equal(STACK_TOP, cpu.Register[REG_SP])

	status, err := cpu.Tick()
	assert.NoError(err)
	assert.Equal(STATUS_HALTED, status)
}

func TestCpu_Cmp(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		a, b uint8
		fl   uint8
	}){
		{"equal", 5, 5, FL_EQUAL},
		{"less", 4, 5, FL_LESS},
		{"greater", 6, 5, FL_GREATER},
		{"zero", 0, 0, FL_EQUAL},
		{"unsigned", 0xff, 0x01, FL_GREATER},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(uint8(OP_CMP), 0, 1)
		cpu.Register[0] = entry.a
		cpu.Register[1] = entry.b
		cpu.Fl = FL_EQUAL | FL_LESS | FL_GREATER

		_, err := cpu.Tick()
		assert.NoError(err, entry.name)
		assert.Equal(entry.fl, cpu.Fl, entry.name)
		assert.Equal(uint8(3), cpu.Pc, entry.name)
		assert.Equal(entry.a, cpu.Register[0], entry.name)
		assert.Equal(entry.b, cpu.Register[1], entry.name)
	}
}

func TestCpu_Jumps(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		op    Opcode
		fl    uint8
		taken bool
	}){
		{"jmp", OP_JMP, 0, true},
		{"jmp_eq", OP_JMP, FL_EQUAL, true},
		{"jeq_eq", OP_JEQ, FL_EQUAL, true},
		{"jeq_lt", OP_JEQ, FL_LESS, false},
		{"jeq_gt", OP_JEQ, FL_GREATER, false},
		{"jne_eq", OP_JNE, FL_EQUAL, false},
		{"jne_lt", OP_JNE, FL_LESS, true},
		{"jne_gt", OP_JNE, FL_GREATER, true},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, uint8(entry.op), 2)
		cpu.Pc = 10
		cpu.Register[2] = 0x30
		cpu.Fl = entry.fl

		_, err := cpu.Tick()
		assert.NoError(err, entry.name)
		if entry.taken {
			assert.Equal(uint8(0x30), cpu.Pc, entry.name)
		} else {
			assert.Equal(uint8(12), cpu.Pc, entry.name)
		}
	}
}

func TestCpu_CmpJeq(t *testing.T) {
	assert := assert.New(t)

	// Only the most recent CMP decides JEQ.
	program := []uint8{
		uint8(OP_CMP), 0, 1, // 0x00: CMP R0,R1 (equal)
		uint8(OP_CMP), 0, 2, // 0x03: CMP R0,R2 (less)
		uint8(OP_JEQ), 3, // 0x06: JEQ R3
		uint8(OP_HLT), // 0x08: HLT
		uint8(OP_PRN), 0, // 0x09: PRN R0
		uint8(OP_HLT), // 0x0b: HLT
	}

	cpu, out := newTestCpu(program...)
	cpu.Register[0] = 1
	cpu.Register[1] = 1
	cpu.Register[2] = 2
	cpu.Register[3] = 0x09

	assert.NoError(cpu.Run())
	assert.Equal(4, cpu.Ticks)
	assert.Empty(out.Values)
}

func TestCpu_Subroutine(t *testing.T) {
	assert := assert.New(t)

	program := []uint8{
		uint8(OP_LDI), 0, 5, // 0x00: LDI R0,5
		uint8(OP_LDI), 1, 0x0b, // 0x03: LDI R1,Double
		uint8(OP_CALL), 1, // 0x06: CALL R1
		uint8(OP_PRN), 0, // 0x08: PRN R0
		uint8(OP_HLT), // 0x0a: HLT
		// Double:
		uint8(OP_PUSH), 2, // 0x0b: PUSH R2
		uint8(OP_LDI), 2, 2, // 0x0d: LDI R2,2
		uint8(OP_MUL), 0, 2, // 0x10: MUL R0,R2
		uint8(OP_POP), 2, // 0x13: POP R2
		uint8(OP_RET), // 0x15: RET
	}

	cpu, out := newTestCpu(program...)
	cpu.Register[2] = 0x77

	for cpu.Pc != 0x0b {
		_, err := cpu.Tick()
		assert.NoError(err)
	}
	assert.Equal(STACK_TOP-1, cpu.Register[REG_SP])
	assert.Equal(uint8(0x08), cpu.Memory[STACK_TOP-1])

	for cpu.Pc != 0x08 {
		_, err := cpu.Tick()
		assert.NoError(err)
	}
	assert.Equal(STACK_TOP, cpu.Register[REG_SP])
	assert.Equal(uint8(10), cpu.Register[0])
	assert.Equal(uint8(0x77), cpu.Register[2])

	assert.NoError(cpu.Run())
	assert.Equal([]uint8{10}, out.Values)
	assert.Equal(STATUS_HALTED, cpu.Status())
	assert.Equal(STACK_TOP, cpu.Register[REG_SP])
}

func TestCpu_Prn_NoOutput(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.NoError(cpu.Load([]uint8{uint8(OP_PRN), 0}))

	status, err := cpu.Tick()
	assert.Equal(STATUS_FAULTED, status)
	assert.Equal(ErrOutputInvalid, err)
}

func TestCpu_IllegalInstruction(t *testing.T) {
	assert := assert.New(t)

	for _, op := range []uint8{0x00, 0xff, 0b10100001, 0b01010111} {
		cpu, _ := newTestCpu(op, 1, 2)

		status, err := cpu.Tick()
		assert.Equal(STATUS_FAULTED, status)
		assert.ErrorIs(err, ErrOpcode(0))

		var illegal ErrOpcode
		if assert.True(errors.As(err, &illegal)) {
			assert.Equal(op, uint8(illegal))
		}

		assert.False(cpu.Running)
		assert.Equal(STATUS_FAULTED, cpu.Status())
		assert.Equal(uint8(0), cpu.Pc)
		assert.Equal(0, cpu.Ticks)

		// The fault is sticky.
		status, again := cpu.Tick()
		assert.Equal(STATUS_FAULTED, status)
		assert.Equal(err, again)
		assert.Equal(err, cpu.Run())
	}
}

func TestCpu_RegisterInvalid(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []uint8
	}){
		{"ldi", []uint8{uint8(OP_LDI), 8, 1}},
		{"prn", []uint8{uint8(OP_PRN), 9}},
		{"add_a", []uint8{uint8(OP_ADD), 8, 0}},
		{"add_b", []uint8{uint8(OP_ADD), 0, 8}},
		{"mul", []uint8{uint8(OP_MUL), 0xff, 0}},
		{"push", []uint8{uint8(OP_PUSH), 8}},
		{"pop", []uint8{uint8(OP_POP), 8}},
		{"call", []uint8{uint8(OP_CALL), 8}},
		{"cmp", []uint8{uint8(OP_CMP), 0, 8}},
		{"jmp", []uint8{uint8(OP_JMP), 8}},
		{"jeq", []uint8{uint8(OP_JEQ), 8}},
		{"jne", []uint8{uint8(OP_JNE), 8}},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(entry.program...)
		before := cpu.Register

		status, err := cpu.Tick()
		assert.Equal(STATUS_FAULTED, status, entry.name)
		assert.ErrorIs(err, ErrRegisterInvalid, entry.name)
		assert.Equal(before, cpu.Register, entry.name)
		assert.Equal(uint8(0), cpu.Pc, entry.name)
	}
}

func TestCpu_PcOverflow(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Memory[0xfe] = uint8(OP_LDI)
	cpu.Memory[0xff] = 1
	cpu.Memory[0x00] = 0x42
	cpu.Pc = 0xfe

	status, err := cpu.Tick()
	assert.Equal(STATUS_FAULTED, status)
	assert.Equal(ErrPcOverflow, err)
	// Operand reads wrap to address 0.
	assert.Equal(uint8(0x42), cpu.Register[1])
}

func TestCpu_HaltAtEnd(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Memory[0xff] = uint8(OP_HLT)
	cpu.Pc = 0xff

	status, err := cpu.Tick()
	assert.NoError(err)
	assert.Equal(STATUS_HALTED, status)
	assert.Equal(uint8(0xff), cpu.Pc)
}

func TestCpu_Trace(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(0b10000010, 0, 8, 0b01000111, 0, 1)

	assert.Equal("TRACE: 00 | 82 00 08 | 00 00 00 00 00 00 00 F4", cpu.Trace())

	cpu.Tick()
	assert.Equal("TRACE: 03 | 47 00 01 | 08 00 00 00 00 00 00 F4", cpu.Trace())
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(uint8(OP_LDI), 0, 8)
	cpu.Fl = FL_EQUAL

	text := cpu.String()
	assert.Contains(text, "   pc: 00\n")
	assert.Contains(text, " next: LDI R0,8\n")
	assert.Contains(text, "   fl: --E\n")
	assert.Contains(text, "   sp: F4\n")
	assert.Contains(text, "stack: --\n")

	cpu.push(0x5a)
	assert.Contains(cpu.String(), "stack: 5A\n")
}

func TestCpu_Defines(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()

	defines := map[string]string{}
	for k, v := range cpu.Defines() {
		defines[k] = v
	}
	assert.Equal("256", defines["MEMORY_SIZE"])
	assert.Equal("0xf4", defines["STACK_TOP"])
	assert.Equal("0x1", defines["FL_EQUAL"])
}

func TestStatus_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("running", STATUS_RUNNING.String())
	assert.Equal("halted", STATUS_HALTED.String())
	assert.Equal("faulted", STATUS_FAULTED.String())
	assert.Equal("Status(7)", Status(7).String())
}
