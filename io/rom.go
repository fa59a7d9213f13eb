package io

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	ROM_SIZE    = 256 // Largest image that fits in memory.
	ROM_COMMENT = "#" // Comment leader of the text format.
)

// Rom is a program image, in the LS-8 text format: one byte per line,
// written as binary digits. Anything after a '#' is a comment, and blank
// lines are skipped.
type Rom struct {
	Data []uint8
}

// Parse replaces the ROM contents with the image read from input.
func (rom *Rom) Parse(input io.Reader) (err error) {
	scanner := bufio.NewScanner(input)

	rom.Data = rom.Data[:0]

	var lineno int
	for scanner.Scan() {
		lineno += 1
		text := scanner.Text()

		line, _, _ := strings.Cut(text, ROM_COMMENT)
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var value uint64
		value, err = strconv.ParseUint(strings.TrimPrefix(line, "0b"), 2, 8)
		if err != nil {
			err = &ErrRomSyntax{LineNo: lineno, Line: text}
			return
		}

		if len(rom.Data) == ROM_SIZE {
			err = ErrRomFull
			return
		}

		rom.Data = append(rom.Data, uint8(value))
	}

	err = scanner.Err()

	return
}

// WriteTo writes the ROM image in the text format accepted by Parse.
func (rom *Rom) WriteTo(output io.Writer) (n int64, err error) {
	for _, value := range rom.Data {
		var count int
		count, err = fmt.Fprintf(output, "%08b\n", value)
		n += int64(count)
		if err != nil {
			return
		}
	}

	return
}
