// bdos.go - the BDOS dispatcher: trap handling and per-function handlers.
//
// The dispatcher is invoked once the CPU harness (machine.go, runner.go) has trapped
// execution at guest address 0x0005. It reads the function number and
// argument from guest registers, performs the action against the host,
// and writes the CP/M 2.2 result convention back into A/B/HL.

package main

import (
	"fmt"
	"io"
	"os"
)

// Extended error codes, carried in the high byte of HL (low byte 0xFF,
// A=0xFF) per spec.md section 3/6. Bit-exact reproduction of CP/M 3's own
// numbering is an explicit non-goal, so these values only need to be
// distinct and stable within this implementation.
const (
	errFileAlreadyOpen          byte = 1
	errFilenameContainsWildcard byte = 2
	errFileAlreadyExists        byte = 3
	errSoftwareError            byte = 4
)

// blockSize is CP/M's fundamental record granularity.
const blockSize = 128

type bdosHandler func(m *Machine, arg uint16)

var bdosTable = map[byte]bdosHandler{
	0:  bdosTerminate,
	2:  bdosConsoleOutput,
	6:  bdosDirectIO,
	9:  bdosWriteString,
	10: bdosBufferedInput,
	11: bdosConsoleStatus,
	12: bdosGetVersion,
	13: bdosResetDrives,
	14: bdosSelectDrive,
	15: bdosOpenFile,
	16: bdosCloseFile,
	19: bdosDeleteFile,
	20: bdosSequentialRead,
	21: bdosSequentialWrite,
	22: bdosMakeFile,
	23: bdosRenameFile,
	25: bdosGetDrive,
	26: bdosSetDMA,
	33: bdosRandomRead,
	34: bdosRandomWrite,
	35: bdosComputeFileSize,
	36: bdosSetRandomRecord,
}

// Dispatch decodes and performs one BDOS call. fn is taken from the low
// byte of BC (the C register), arg from the full DE pair, per CP/M
// convention. An unrecognised function is a fatal, fail-fast stop: a
// silent success would corrupt guest state in ways the guest cannot
// detect.
func (m *Machine) Dispatch() {
	fn := m.cpu.States.BC.Lo
	arg := m.cpu.States.DE.U16()

	handler, ok := bdosTable[fn]
	if !ok {
		fmt.Fprintf(os.Stderr, "ucpm: fatal: unknown BDOS function %d (0x%02X), argument 0x%04X\n", fn, fn, arg)
		m.running = false
		return
	}
	handler(m, arg)
}

// setResult mirrors a 16-bit BDOS result into the guest registers per the
// CP/M 2.2 return convention: low byte into A, high byte into B and H,
// full word into HL.
func (m *Machine) setResult(result uint16) {
	m.cpu.States.AF.Hi = byte(result)
	m.cpu.States.BC.Hi = byte(result >> 8)
	m.cpu.States.HL.SetU16(result)
}

// setExtendedError reports one of the CP/M 3 style extended error kinds:
// A=0xFF, high byte of HL = code.
func (m *Machine) setExtendedError(code byte) {
	m.setResult(uint16(code)<<8 | 0x00FF)
}

func bdosTerminate(m *Machine, _ uint16) {
	m.running = false
}

// bdosConsoleOutput implements function 2, deliberately absent from the
// distilled function table but required by spec.md's own "Hello world"
// scenario: write the character in E to stdout.
func bdosConsoleOutput(m *Machine, arg uint16) {
	m.console.WriteByte(byte(arg))
	m.setResult(0)
}

// bdosDirectIO implements function 6. E=0xFF means non-blocking,
// unechoed, non-line-edited input; every other value of E (including the
// under-implemented 0xFC-0xFE probes) is treated as character output of
// the literal byte in E, per the "echo" interpretation spec.md settles on.
func bdosDirectIO(m *Machine, arg uint16) {
	e := byte(arg)
	if e == 0xFF {
		m.setResult(uint16(m.console.ReadNonBlocking()))
		return
	}
	m.console.WriteByte(e)
	m.setResult(0)
}

// bdosWriteString implements function 9: write bytes from guest memory at
// DE to stdout until (not including) a '$' terminator.
func bdosWriteString(m *Machine, arg uint16) {
	addr := arg
	for {
		c := m.mem.Get(addr)
		if c == '$' {
			break
		}
		m.console.WriteByte(c)
		addr++
	}
	m.setResult(0)
}

// bdosBufferedInput implements function 10. The descriptor at arg (or at
// the DMA address, if arg is 0) has byte 0 = max length, byte 1 = actual
// length written back, bytes 2+ = data. A max length below 2 is clamped
// to 2, and input is truncated to max-2 data bytes.
func bdosBufferedInput(m *Machine, arg uint16) {
	addr := arg
	if addr == 0 {
		addr = m.dma
	}

	maxLen := m.mem.Get(addr)
	if maxLen < 2 {
		maxLen = 2
	}
	capacity := int(maxLen) - 2

	line := m.console.ReadLine(capacity)
	m.mem.Set(addr+1, byte(len(line)))
	m.mem.CopyIn(addr+2, line)
	m.setResult(0)
}

// bdosConsoleStatus implements function 11: a non-blocking probe of
// whether a character is waiting on stdin, without consuming it.
func bdosConsoleStatus(m *Machine, _ uint16) {
	if m.console.HasChar() {
		m.setResult(0xFF)
	} else {
		m.setResult(0)
	}
}

// bdosGetVersion implements function 12, reporting CP/M 2.2 (H=0 for
// CP/M, L=0x22).
func bdosGetVersion(m *Machine, _ uint16) {
	m.setResult(0x0022)
}

func bdosResetDrives(m *Machine, _ uint16) {
	m.setResult(0)
}

// bdosSelectDrive implements function 14: only drive A (0) is accepted in
// this single-drive model.
func bdosSelectDrive(m *Machine, arg uint16) {
	if byte(arg) == 0 {
		m.setResult(0)
	} else {
		m.setResult(0x00FF)
	}
}

// bdosOpenFile implements function 15: canonicalize the FCB's filename,
// reject duplicates and wildcards, then open the host file for random
// read/write.
func bdosOpenFile(m *Machine, arg uint16) {
	fcb := ReadFCB(m.mem, arg)
	if fcb.HasWildcard() {
		m.setExtendedError(errFilenameContainsWildcard)
		return
	}

	name := fcb.CanonicalName()
	if _, open := m.reg.lookup(name); open {
		m.setExtendedError(errFileAlreadyOpen)
		return
	}

	f, err := os.OpenFile(name, os.O_RDWR, 0644)
	if err != nil {
		m.setExtendedError(errSoftwareError)
		return
	}
	m.reg.insert(name, f)
	m.setResult(0)
}

// bdosCloseFile implements function 16: find the entry by canonical name,
// close and remove it.
func bdosCloseFile(m *Machine, arg uint16) {
	name := ReadFCB(m.mem, arg).CanonicalName()
	if m.reg.remove(name) {
		m.setResult(0)
	} else {
		m.setResult(0x00FF)
	}
}

// bdosDeleteFile implements function 19. Wildcards pass through literally
// to the host - a future revision would expand them against the registry
// and the host directory, but this implementation deliberately does not.
func bdosDeleteFile(m *Machine, arg uint16) {
	name := ReadFCB(m.mem, arg).CanonicalName()
	if _, open := m.reg.lookup(name); open {
		m.setExtendedError(errFileAlreadyOpen)
		return
	}
	if err := os.Remove(name); err != nil {
		m.setExtendedError(errSoftwareError)
		return
	}
	m.setResult(0)
}

// bdosSequentialRead implements function 20: read 128 bytes from the
// handle's implicit cursor into the DMA buffer, zero-padding a short
// read and reporting EOF if nothing was read at all.
func bdosSequentialRead(m *Machine, arg uint16) {
	name := ReadFCB(m.mem, arg).CanonicalName()
	entry, ok := m.reg.lookup(name)
	if !ok {
		m.setResult(9)
		return
	}

	buf := make([]byte, blockSize)
	n, err := entry.file.Read(buf)
	if n == 0 {
		m.setResult(1)
		return
	}
	_ = err // a short read is reported via zero-padding, not as an error
	for i := n; i < blockSize; i++ {
		buf[i] = 0
	}
	m.mem.CopyIn(m.dma, buf)
	m.setResult(0)
}

// bdosSequentialWrite implements function 21: copy 128 bytes from the DMA
// buffer to the handle at its implicit cursor.
func bdosSequentialWrite(m *Machine, arg uint16) {
	name := ReadFCB(m.mem, arg).CanonicalName()
	entry, ok := m.reg.lookup(name)
	if !ok {
		m.setResult(9)
		return
	}

	data := m.mem.CopyOut(m.dma, blockSize)
	if _, err := entry.file.Write(data); err != nil {
		m.setExtendedError(errSoftwareError)
		return
	}
	m.setResult(0)
}

// bdosMakeFile implements function 22: canonicalize, reject duplicates
// and wildcards, then create/truncate on the host and register it.
func bdosMakeFile(m *Machine, arg uint16) {
	fcb := ReadFCB(m.mem, arg)
	if fcb.HasWildcard() {
		m.setExtendedError(errFilenameContainsWildcard)
		return
	}

	name := fcb.CanonicalName()
	if _, open := m.reg.lookup(name); open {
		m.setExtendedError(errFileAlreadyExists)
		return
	}

	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		m.setExtendedError(errSoftwareError)
		return
	}
	m.reg.insert(name, f)
	m.setResult(0)
}

// bdosRenameFile implements function 23: DE points at a pair of FCBs, the
// old name at DE and the new name 16 bytes later.
func bdosRenameFile(m *Machine, arg uint16) {
	oldFCB := ReadFCB(m.mem, arg)
	newFCB := ReadFCB(m.mem, arg+16)
	if oldFCB.HasWildcard() || newFCB.HasWildcard() {
		m.setExtendedError(errFilenameContainsWildcard)
		return
	}

	oldName := oldFCB.CanonicalName()
	if _, open := m.reg.lookup(oldName); open {
		m.setExtendedError(errFileAlreadyOpen)
		return
	}

	if err := os.Rename(oldName, newFCB.CanonicalName()); err != nil {
		m.setExtendedError(errSoftwareError)
		return
	}
	m.setResult(0)
}

func bdosGetDrive(m *Machine, _ uint16) {
	m.setResult(0)
}

// bdosSetDMA implements function 26, the Set DMA Address call spec.md's
// own data model flags as a real gap: it moves where record I/O reads and
// writes its 128-byte buffer.
func bdosSetDMA(m *Machine, arg uint16) {
	m.dma = arg
	m.setResult(0)
}

// bdosRandomRead implements function 33: decode R[3], seek, read 128
// bytes into the DMA buffer, zero-padding a short read.
func bdosRandomRead(m *Machine, arg uint16) {
	fcb := ReadFCB(m.mem, arg)
	name := fcb.CanonicalName()
	entry, ok := m.reg.lookup(name)
	if !ok {
		m.setResult(9)
		return
	}

	_, offset := fcb.RandomRecord()
	if _, err := entry.file.Seek(offset, io.SeekStart); err != nil {
		m.setResult(6)
		return
	}

	buf := make([]byte, blockSize)
	n, _ := entry.file.Read(buf)
	if n == 0 {
		m.setResult(1)
		return
	}
	for i := n; i < blockSize; i++ {
		buf[i] = 0
	}
	m.mem.CopyIn(m.dma, buf)
	m.setResult(0)
}

// bdosRandomWrite implements function 34: decode R[3], seek, write 128
// bytes from the DMA buffer. Host filesystems zero-fill the hole when the
// seek lands past the current end of file.
func bdosRandomWrite(m *Machine, arg uint16) {
	fcb := ReadFCB(m.mem, arg)
	name := fcb.CanonicalName()
	entry, ok := m.reg.lookup(name)
	if !ok {
		m.setResult(9)
		return
	}

	_, offset := fcb.RandomRecord()
	if _, err := entry.file.Seek(offset, io.SeekStart); err != nil {
		m.setExtendedError(errSoftwareError)
		return
	}

	data := m.mem.CopyOut(m.dma, blockSize)
	if _, err := entry.file.Write(data); err != nil {
		m.setExtendedError(errSoftwareError)
		return
	}
	m.setResult(0)
}

// bdosComputeFileSize implements function 35: stat the open file and
// write the record count as a 24-bit little-endian value into R[0..2].
func bdosComputeFileSize(m *Machine, arg uint16) {
	fcb := ReadFCB(m.mem, arg)
	name := fcb.CanonicalName()
	entry, ok := m.reg.lookup(name)
	if !ok {
		m.setResult(9)
		return
	}

	info, err := entry.file.Stat()
	if err != nil {
		m.setExtendedError(errSoftwareError)
		return
	}

	records := uint32((info.Size() + blockSize - 1) / blockSize)
	fcb.SetRandomRecord(records)
	fcb.WriteFCB(m.mem, arg)
	m.setResult(0)
}

// bdosSetRandomRecord implements function 36: mirror the FCB's current
// sequential record (CR) into R[0..2].
func bdosSetRandomRecord(m *Machine, arg uint16) {
	fcb := ReadFCB(m.mem, arg)
	fcb.SetRandomRecord(uint32(fcb.Raw[fcbOffCR]))
	fcb.WriteFCB(m.mem, arg)
	m.setResult(0)
}
