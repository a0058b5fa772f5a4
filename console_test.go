package main

import "testing"

// fakeFeed is a canned byte source/sink for driving consoleCore without a
// real tty, mirroring the way the teacher's TerminalMMIO is driven via
// EnqueueByte in its own tests.
type fakeFeed struct {
	in  []byte
	out []byte
}

func newFakeConsole(input string) (*consoleCore, *fakeFeed) {
	f := &fakeFeed{in: []byte(input)}
	core := newConsoleCore(
		func(b byte) { f.out = append(f.out, b) },
		func() (byte, bool) {
			if len(f.in) == 0 {
				return 0, false
			}
			b := f.in[0]
			f.in = f.in[1:]
			return b, true
		},
		func() byte {
			if len(f.in) == 0 {
				panic("fakeFeed: blocking read with no input queued")
			}
			b := f.in[0]
			f.in = f.in[1:]
			return b
		},
	)
	return core, f
}

func TestConsoleCoreHasCharAndReadNonBlocking(t *testing.T) {
	core, _ := newFakeConsole("A")

	if !core.HasChar() {
		t.Fatal("expected HasChar to report a pending byte")
	}
	if got := core.ReadNonBlocking(); got != 'A' {
		t.Fatalf("ReadNonBlocking() = %q, expected 'A'", got)
	}
	if core.HasChar() {
		t.Fatal("expected HasChar to report nothing pending after consuming the byte")
	}
	if got := core.ReadNonBlocking(); got != 0 {
		t.Fatalf("ReadNonBlocking() with nothing pending = 0x%02X, expected 0", got)
	}
}

func TestConsoleCoreReadNonBlockingTranslatesNewlineToCR(t *testing.T) {
	core, _ := newFakeConsole("\n")
	if got := core.ReadNonBlocking(); got != '\r' {
		t.Fatalf("ReadNonBlocking() = 0x%02X, expected CR", got)
	}
}

func TestConsoleCoreWriteByte(t *testing.T) {
	core, feed := newFakeConsole("")
	core.WriteByte('x')
	if string(feed.out) != "x" {
		t.Fatalf("output = %q, expected %q", feed.out, "x")
	}
}

func TestConsoleCoreReadLineEchoesAndTerminatesOnCR(t *testing.T) {
	core, feed := newFakeConsole("HI\r")
	line := core.ReadLine(10)
	if string(line) != "HI" {
		t.Fatalf("line = %q, expected %q", line, "HI")
	}
	if string(feed.out) != "HI\n" {
		t.Fatalf("echoed output = %q, expected %q", feed.out, "HI\n")
	}
}

func TestConsoleCoreReadLineTerminatesOnLF(t *testing.T) {
	core, _ := newFakeConsole("BYE\n")
	line := core.ReadLine(10)
	if string(line) != "BYE" {
		t.Fatalf("line = %q, expected %q", line, "BYE")
	}
}

func TestConsoleCoreReadLineHandlesBackspaceAndDelete(t *testing.T) {
	core, _ := newFakeConsole("HEALLO\x08\x08LO\r")
	line := core.ReadLine(10)
	if string(line) != "HEALLO" {
		t.Fatalf("line = %q, expected %q", line, "HEALLO")
	}

	core, _ = newFakeConsole("XY\x7F\x7FAB\r")
	line = core.ReadLine(10)
	if string(line) != "AB" {
		t.Fatalf("line = %q, expected %q", line, "AB")
	}
}

func TestConsoleCoreReadLineBackspaceOnEmptyLineIsNoOp(t *testing.T) {
	core, feed := newFakeConsole("\x08A\r")
	line := core.ReadLine(10)
	if string(line) != "A" {
		t.Fatalf("line = %q, expected %q", line, "A")
	}
	if string(feed.out) != "A\n" {
		t.Fatalf("output = %q, expected no erase sequence before A", feed.out)
	}
}

func TestConsoleCoreReadLineTruncatesAtCapacity(t *testing.T) {
	core, _ := newFakeConsole("ABCDE\r")
	line := core.ReadLine(3)
	if string(line) != "ABC" {
		t.Fatalf("line = %q, expected %q", line, "ABC")
	}
}
