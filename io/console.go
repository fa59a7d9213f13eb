// Package io provides the devices attached to the LS-8 emulator: the ROM
// image loader, and the line oriented console that PRN writes to.
package io

import (
	"fmt"
	"io"
)

// Console writes each printed value as a decimal number on its own line.
type Console struct {
	Output io.Writer

	Printed int // Count of values printed since the last rewind.
}

// Rewind resets the console statistics.
func (con *Console) Rewind() {
	con.Printed = 0
}

// Print writes value, in decimal, followed by a newline.
func (con *Console) Print(value uint8) (err error) {
	if con.Output == nil {
		err = ErrConsoleClosed
		return
	}

	_, err = fmt.Fprintf(con.Output, "%d\n", value)
	if err != nil {
		return
	}

	con.Printed++

	return
}
