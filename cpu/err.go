package cpu

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Cpu faults
	ErrPcOverflow      = errors.New(f("pc past end of memory"))
	ErrOutputInvalid   = errors.New(f("output invalid"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrProgramFull     = errors.New(f("program larger than memory"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrMacroRecursion     = errors.New(f(".macro recursion"))
	ErrDataMissing        = errors.New(f(".db without values"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// ErrOpcode is an illegal instruction fault.
type ErrOpcode Opcode

func (eo ErrOpcode) Error() string {
	return f("illegal instruction 0b%08b (0x%02x)", uint8(eo), uint8(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrAluOp is an unsupported ALU operation fault.
type ErrAluOp AluOp

func (ea ErrAluOp) Error() string {
	return f("unsupported alu operation %v", AluOp(ea).String())
}

func (ea ErrAluOp) Is(err error) (ok bool) {
	_, ok = err.(ErrAluOp)
	return
}

// ErrRegister is an out of range register operand.
type ErrRegister uint8

func (er ErrRegister) Error() string {
	return f("register R%d out of range", uint8(er))
}

func (er ErrRegister) Unwrap() error {
	return ErrRegisterInvalid
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseRange string

func (err ErrParseRange) Error() string {
	return f("'%v' does not fit in a byte", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
