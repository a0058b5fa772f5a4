package main

import "testing"

// TestRunTrapsOnCallFiveNotOnDataAccess drives a tiny real Z80 program
// through the full CPU harness: read the byte at 0x0005 as data, load C
// with a BDOS function number, load DE, CALL 5, then jump to the
// warm-boot vector. The breakpoint must fire when the CPU is about to
// execute the instruction at 0x0005 (the CALL target) and must not fire
// merely because the CALL pushed a return address or because the
// LD A,(0x0005) reads memory at 0x0005.
func TestRunTrapsOnCallFiveNotOnDataAccess(t *testing.T) {
	program := []byte{
		0x3A, 0x05, 0x00, // LD A,(0x0005) ; data read of the BDOS entry
		0x0E, 12, // LD C,12        ; BDOS function 12: Get BDOS Version
		0x11, 0x00, 0x00, // LD DE,0x0000
		0xCD, 0x05, 0x00, // CALL 0x0005
		0xC3, 0x00, 0x00, // JP 0x0000      ; warm boot
	}

	m := NewMachine(nil)
	m.Load(program)
	m.Run()

	if m.running {
		t.Fatal("expected the machine to stop at the warm-boot vector")
	}
	if m.cpu.States.AF.Hi != 0x22 {
		t.Fatalf("A = 0x%02X after Get BDOS Version, expected 0x22", m.cpu.States.AF.Hi)
	}
	if m.cpu.States.HL.U16() != 0x0022 {
		t.Fatalf("HL = 0x%04X after Get BDOS Version, expected 0x0022", m.cpu.States.HL.U16())
	}
}

// TestRunTerminatesOnProgramTerminate exercises BDOS function 0 end to
// end: CALL 5 with C=0 must stop the machine without ever reaching the
// trailing HALT.
func TestRunTerminatesOnProgramTerminate(t *testing.T) {
	program := []byte{
		0x0E, 0x00, // LD C,0         ; BDOS function 0: Program Terminate
		0xCD, 0x05, 0x00, // CALL 0x0005
		0x76, // HALT (should never execute)
	}

	m := NewMachine(nil)
	m.Load(program)
	m.Run()

	if m.running {
		t.Fatal("expected Program Terminate to stop the machine")
	}
}
