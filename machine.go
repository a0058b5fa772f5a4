// machine.go - the Machine struct: the guest memory image, the CPU
// harness, the open-file registry and the console adapter, wired
// together the way the teacher's cpu_z80.go ties its own bus and runner
// to a single owning struct.

package main

import "github.com/koron-go/z80"

// Machine is the complete state of one emulator run.
type Machine struct {
	mem     *Image
	cpu     *z80.CPU
	reg     *registry
	console consoleDevice
	dma     uint16
	running bool
}

// NewMachine builds a Machine with its zero page already seeded and its
// breakpoints already armed at the two addresses the trap mechanism
// cares about: 0x0000 (warm boot) and 0x0005 (BDOS entry). console may be
// a real *Console or, in tests, a bare consoleCore fed with canned bytes.
func NewMachine(console consoleDevice) *Machine {
	m := &Machine{
		mem:     &Image{},
		reg:     newRegistry(),
		console: console,
		dma:     defaultDMAAddress,
		running: true,
	}

	m.cpu = &z80.CPU{
		States: z80.States{SPR: z80.SPR{PC: 0x0100, SP: 0x0000}},
		Memory: m.mem,
	}
	m.cpu.BreakPoints = map[uint16]struct{}{
		addrWarmBoot:  {},
		addrBDOSEntry: {},
	}

	initZeroPage(m.mem)
	return m
}

// Load places a raw .COM image at 0x0100, the fixed CP/M transient
// program area.
func (m *Machine) Load(program []byte) {
	m.mem.LoadProgram(program)
}

// Close releases every host resource the machine is still holding open.
func (m *Machine) Close() {
	m.reg.closeAll()
}
