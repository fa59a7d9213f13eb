package cpu

// AluOp is an ALU operation type.
type AluOp int

//go:generate go tool stringer -linecomment -type=AluOp
const (
	ALU_OP_ADD = AluOp(0) // ADD
	ALU_OP_MUL = AluOp(1) // MUL
)

// aluMap maps ALU class opcodes to their ALU operation.
var aluMap = map[Opcode]AluOp{
	OP_ADD: ALU_OP_ADD,
	OP_MUL: ALU_OP_MUL,
}

// Alu performs the ALU operation on two registers, storing the result in
// reg_a. Results wrap at 8 bits.
func (cpu *Cpu) Alu(op AluOp, reg_a, reg_b uint8) (err error) {
	a, err := cpu.getRegister(reg_a)
	if err != nil {
		return
	}
	b, err := cpu.getRegister(reg_b)
	if err != nil {
		return
	}

	output, err := doAlu(op, a, b)
	if err != nil {
		return
	}

	cpu.Register[reg_a] = output

	return
}

// doAlu performs the requested ALU action, and returns the output value.
func doAlu(op AluOp, input uint8, value uint8) (output uint8, err error) {
	switch op {
	case ALU_OP_ADD:
		output = input + value
	case ALU_OP_MUL:
		output = input * value
	default:
		err = ErrAluOp(op)
	}

	return
}
