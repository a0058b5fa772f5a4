// main.go - entry point: load a .COM image, set up the console, run the
// machine to completion.

package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: ucpm <program.com>")
		os.Exit(1)
	}

	program, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ucpm: %v\n", err)
		os.Exit(1)
	}

	console, err := NewConsole()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ucpm: %v\n", err)
		os.Exit(1)
	}
	defer console.Restore()

	m := NewMachine(console)
	defer m.Close()

	m.Load(program)
	m.Run()
}
