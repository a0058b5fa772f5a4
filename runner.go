// runner.go - the run loop: repeatedly resume the CPU until it traps at a
// known address, act on the trap, and resume again.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/koron-go/z80"
)

// Run drives the machine to completion. It resumes the CPU harness until
// it reports a breakpoint hit, acts on whichever of the two armed
// addresses was hit, and keeps going until the guest calls Program
// Terminate, falls through to the warm-boot vector, or hits an
// unrecognised BDOS function.
func (m *Machine) Run() {
	ctx := context.Background()

	for m.running {
		err := m.cpu.Run(ctx)
		if err == nil {
			m.running = false
			break
		}
		if !errors.Is(err, z80.ErrBreakPoint) {
			fmt.Fprintf(os.Stderr, "ucpm: fatal: cpu error: %v\n", err)
			m.running = false
			break
		}

		switch m.cpu.PC {
		case addrWarmBoot:
			m.running = false
		case addrBDOSEntry:
			m.Dispatch()
			m.returnFromCall()
		default:
			fmt.Fprintf(os.Stderr, "ucpm: fatal: trap at unexpected address 0x%04X\n", m.cpu.PC)
			m.running = false
		}
	}
}

// returnFromCall emulates the RET that "JMP BDOS" at 0x0005 never
// actually executes: pop the return address CALL 5 pushed and resume the
// guest there.
func (m *Machine) returnFromCall() {
	lo := m.mem.Get(m.cpu.SP)
	hi := m.mem.Get(m.cpu.SP + 1)
	m.cpu.SP += 2
	m.cpu.PC = uint16(lo) | uint16(hi)<<8
}
