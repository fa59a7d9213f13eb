// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
	"github.com/ezrec/ls8/io"
)

// Exit status for a program image that cannot be found.
const EXIT_NOT_FOUND = 2

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %v [options] program.ls8\n", os.Args[0])
	fmt.Fprintf(flag.CommandLine.Output(), "       %v [options] -c program.asm\n", os.Args[0])
	flag.PrintDefaults()
}

// exitCode returns the process exit status for a failed load or assembly.
func exitCode(err error) int {
	if errors.Is(err, io.ErrFileNotFound) {
		return EXIT_NOT_FOUND
	}
	return 1
}

// fatal reports err, and exits with its exitCode.
func fatal(name string, err error) {
	log.Printf("%v: %v", name, err)
	os.Exit(exitCode(err))
}

func main() {
	var compile string
	var save bool
	var output string
	var verbose bool
	var trace bool
	var limit int

	emu := emulator.NewEmulator()
	asm := &cpu.Assembler{}

	flag.Usage = usage
	flag.StringVar(&compile, "c", "", ".asm file to compile")
	flag.BoolVar(&save, "s", false, "Save compiled program as .ls8, do not execute")
	flag.StringVar(&output, "o", "-", "Output for PRN, or for the saved program")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&trace, "t", false, "Trace each instruction to stderr")
	flag.IntVar(&limit, "n", 0, "Stop after this many instructions (0 is unlimited)")
	flag.Func("D", "Predefine an assembler equate, as NAME=VALUE", func(define string) error {
		name, value, ok := strings.Cut(define, "=")
		if !ok || len(name) == 0 {
			return cpu.ErrEquateSyntax
		}
		asm.Predefine(name, value)
		return nil
	})

	for name, value := range emu.Defines() {
		asm.Predefine(name, value)
	}

	flag.Parse()

	switch {
	case len(compile) != 0 && flag.NArg() == 0:
		inf, err := os.Open(compile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				err = errors.Join(io.ErrFileNotFound, err)
			}
			fatal(compile, err)
		}
		defer inf.Close()

		asm.Verbose = verbose
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			fatal(compile, err)
		}
	case len(compile) == 0 && flag.NArg() == 1 && !save:
		rom, err := io.OpenFile(flag.Arg(0))
		if err != nil {
			fatal(flag.Arg(0), err)
		}
		emu.Rom = *rom
	default:
		flag.Usage()
		os.Exit(1)
	}

	ouf := os.Stdout
	if output != "-" {
		var err error
		ouf, err = os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
	}

	if save {
		err := emu.Program.WriteLs8(ouf)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	emu.Verbose = verbose
	emu.Limit = limit
	emu.Console.Output = ouf
	if trace {
		emu.Tracer = func(line string) { fmt.Fprintln(os.Stderr, line) }
	}

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	err = emu.Run()
	if err != nil {
		if verbose {
			log.Printf("\n%v", emu.Cpu.String())
		}
		log.Fatal(err)
	}
}
