package cpu

// The stack lives in memory below STACK_TOP, and grows towards address 0.
// R7 (SP) addresses the most recently pushed byte.

// push decrements SP, then writes value to the new top of stack.
func (cpu *Cpu) push(value uint8) {
	cpu.Register[REG_SP]--
	cpu.Memory[cpu.Register[REG_SP]] = value
}

// pop reads the top of stack, then increments SP.
func (cpu *Cpu) pop() (value uint8) {
	value = cpu.Memory[cpu.Register[REG_SP]]
	cpu.Register[REG_SP]++
	return
}

// Peek returns the top of stack, if anything has been pushed since reset.
func (cpu *Cpu) Peek() (value uint8, ok bool) {
	if cpu.StackDepth() == 0 {
		return
	}

	return cpu.Memory[cpu.Register[REG_SP]], true
}

// StackDepth returns the number of bytes pushed below STACK_TOP.
func (cpu *Cpu) StackDepth() int {
	return int(uint8(STACK_TOP - cpu.Register[REG_SP]))
}
