package cpu

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ls8/io"
)

func print8Program() *Program {
	return &Program{
		Statements: []Statement{
			{LineNo: 1, Address: 0, Words: []string{"LDI", "R0", "8"},
				Bytes: []uint8{uint8(OP_LDI), 0, 8}},
			{LineNo: 2, Address: 3, Words: []string{"PRN", "R0"},
				Bytes: []uint8{uint8(OP_PRN), 0}},
			{LineNo: 4, Address: 5, Words: []string{"HLT"},
				Bytes: []uint8{uint8(OP_HLT)}},
			{LineNo: 5, Address: 6, Words: []string{".db", "1", "2"},
				Bytes: []uint8{1, 2}, Data: true},
		},
	}
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := print8Program()

	dbg := prog.Debug(0)
	assert.NotNil(dbg.Statement)
	assert.Equal(1, dbg.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(2)
	assert.Equal(1, dbg.LineNo)
	assert.Equal(2, dbg.Index)

	dbg = prog.Debug(4)
	assert.Equal(2, dbg.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(5)
	assert.Equal(4, dbg.LineNo)
	assert.Equal(0, dbg.Index)
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := print8Program()

	dbg := prog.Debug(8)
	assert.Nil(dbg.Statement)
	assert.Equal(0, dbg.Index)

	empty := &Program{}
	assert.Nil(empty.Debug(0).Statement)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := print8Program()

	assert.Equal(8, prog.Size())
	assert.Equal([]uint8{0x82, 0, 8, 0x47, 0, 0x01, 1, 2}, prog.Binary())

	empty := &Program{}
	assert.Equal(0, empty.Size())
	assert.Empty(empty.Binary())
}

func TestProgram_Bytes_Stop(t *testing.T) {
	assert := assert.New(t)

	prog := print8Program()

	var addrs []int
	for addr := range prog.Bytes() {
		addrs = append(addrs, addr)
		if addr == 3 {
			break
		}
	}

	assert.Equal([]int{0, 1, 2, 3}, addrs)
}

func TestProgram_WriteLs8(t *testing.T) {
	assert := assert.New(t)

	prog := print8Program()

	output := &bytes.Buffer{}
	err := prog.WriteLs8(output)
	assert.NoError(err)

	expected := "10000010 # LDI R0,8\n" +
		"00000000\n" +
		"00001000\n" +
		"01000111 # PRN R0\n" +
		"00000000\n" +
		"00000001 # HLT\n" +
		"00000001 # .db 1 2\n" +
		"00000010\n"
	assert.Equal(expected, output.String())

	// The listing is loadable.
	rom := &io.Rom{}
	assert.NoError(rom.Parse(output))
	assert.Equal(prog.Binary(), rom.Data)
}
