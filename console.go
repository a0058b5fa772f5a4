// console.go - the console device split in two, mirroring the teacher's
// terminal_io.go/terminal_host.go: consoleCore is a pure state machine for
// echo, backspace handling and CR/LF translation (tests drive it directly
// with canned bytes); Console is the thin syscall-based adapter that
// feeds it from a real tty and is only ever constructed from main.go.

package main

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

// pollInterval is how long a blocking read waits between polls of a
// non-blocking fd. It matches the teacher's own cadence for stdin polling.
const pollInterval = 5 * time.Millisecond

// consoleDevice is what the BDOS dispatcher needs from a console. Both
// consoleCore and Console (which embeds one) satisfy it, so bdos_test.go
// can exercise the dispatcher against a consoleCore fed with canned bytes
// instead of a real terminal.
type consoleDevice interface {
	HasChar() bool
	ReadNonBlocking() byte
	WriteByte(b byte)
	ReadLine(capacity int) []byte
}

// consoleCore is the pure terminal state machine behind the five
// console-backed BDOS functions. It owns a one-byte read-ahead (so a
// status probe can check for pending input without consuming it) and the
// echo/backspace/CR-LF-translation rules, but nothing about file
// descriptors or syscalls: it is fed by two callbacks, a non-blocking
// byte poll and a blocking byte wait, and it writes output through a
// third.
type consoleCore struct {
	write     func(b byte)
	pollByte  func() (b byte, ok bool)
	blockByte func() byte
	pending   []byte
}

func newConsoleCore(write func(byte), pollByte func() (byte, bool), blockByte func() byte) *consoleCore {
	return &consoleCore{write: write, pollByte: pollByte, blockByte: blockByte}
}

// poll fills the one-byte read-ahead if it is empty, returning whether a
// byte is now available.
func (c *consoleCore) poll() bool {
	if len(c.pending) > 0 {
		return true
	}
	b, ok := c.pollByte()
	if !ok {
		return false
	}
	c.pending = append(c.pending, b)
	return true
}

// HasChar implements the non-blocking probe behind BDOS function 11.
func (c *consoleCore) HasChar() bool {
	return c.poll()
}

// ReadNonBlocking implements BDOS function 6 (E=0xFF): return the next
// pending byte with no echo, or 0 if nothing is waiting. Incoming '\n' is
// translated to '\r', matching spec.md's direct-I/O convention.
func (c *consoleCore) ReadNonBlocking() byte {
	if !c.poll() {
		return 0
	}
	b := c.pending[0]
	c.pending = c.pending[1:]
	if b == '\n' {
		b = '\r'
	}
	return b
}

// WriteByte implements every console-backed BDOS output path (functions
// 2, 6 and 9): a single byte straight out.
func (c *consoleCore) WriteByte(b byte) {
	c.write(b)
}

// next returns the next input byte, blocking (via blockByte) if none is
// already read ahead.
func (c *consoleCore) next() byte {
	if len(c.pending) > 0 {
		b := c.pending[0]
		c.pending = c.pending[1:]
		return b
	}
	return c.blockByte()
}

// ReadLine implements the line-editing half of BDOS function 10: read
// bytes, echoing each one and honoring backspace/delete, until CR or LF,
// returning at most capacity bytes of data. Bytes typed past capacity are
// silently dropped rather than overflowing the caller's descriptor.
func (c *consoleCore) ReadLine(capacity int) []byte {
	if capacity < 0 {
		capacity = 0
	}
	line := make([]byte, 0, capacity)

	for {
		b := c.next()

		switch {
		case b == '\r' || b == '\n':
			c.write('\n')
			return line
		case b == 0x08 || b == 0x7f:
			if len(line) > 0 {
				line = line[:len(line)-1]
				c.write(0x08)
				c.write(' ')
				c.write(0x08)
			}
		case len(line) < capacity:
			line = append(line, b)
			c.write(b)
		}
	}
}

// Console is the syscall-based host adapter: it puts stdin into raw,
// non-blocking mode and wires a consoleCore to read and write through it.
// Only ever constructed from main.go - never in tests.
type Console struct {
	*consoleCore
	fd       int
	oldState *term.State
}

// NewConsole puts stdin into raw, non-blocking mode. Restore must be
// called before the process exits to hand the terminal back in a usable
// state.
func NewConsole() (*Console, error) {
	fd := int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		term.Restore(fd, oldState)
		return nil, err
	}

	c := &Console{fd: fd, oldState: oldState}
	c.consoleCore = newConsoleCore(c.writeStdout, c.pollStdin, c.blockStdin)
	return c, nil
}

// Restore returns the terminal to the mode it was in before NewConsole.
func (c *Console) Restore() {
	term.Restore(c.fd, c.oldState)
}

func (c *Console) writeStdout(b byte) {
	os.Stdout.Write([]byte{b})
}

// pollStdin is a non-blocking single-byte read. EAGAIN/EWOULDBLOCK means
// "nothing waiting," not an error.
func (c *Console) pollStdin() (byte, bool) {
	buf := make([]byte, 1)
	n, err := syscall.Read(c.fd, buf)
	if n > 0 {
		return buf[0], true
	}
	_ = err
	return 0, false
}

// blockStdin polls pollStdin's same non-blocking fd in a loop, since the
// terminal is left in non-blocking mode for the whole run.
func (c *Console) blockStdin() byte {
	buf := make([]byte, 1)
	for {
		n, err := syscall.Read(c.fd, buf)
		if n > 0 {
			return buf[0]
		}
		_ = err
		time.Sleep(pollInterval)
	}
}
