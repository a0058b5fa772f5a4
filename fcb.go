// fcb.go - the 36-byte File Control Block: marshalling, filename canonicalization
// and random-record decoding. Layout is bit-exact per CP/M 2.2.

package main

import "strings"

// fcbSize is the on-the-wire size of a File Control Block in guest memory.
const fcbSize = 36

// Byte offsets within the FCB this codec actually touches, per spec.md
// section 3. DR (offset 0x00), EX and S1/S2 (0x0C-0x0E) and RC (0x0F) are
// real CP/M 2.2 fields but nothing in this implementation's single-drive,
// no-partial-extent model ever reads or writes them, so they are not
// given names here.
const (
	fcbOffName   = 0x01
	fcbOffType   = 0x09
	fcbOffCR     = 0x20
	fcbOffRandom = 0x21
)

// FCB is a guest File Control Block held as its raw wire bytes; the
// methods below decode the fields they need from Raw, and fields they do
// not touch are written back unchanged.
type FCB struct {
	Raw [fcbSize]byte
}

// ReadFCB copies 36 bytes out of guest memory at addr and returns the
// decoded form.
func ReadFCB(mem *Image, addr uint16) FCB {
	var f FCB
	copy(f.Raw[:], mem.CopyOut(addr, fcbSize))
	return f
}

// WriteFCB copies the FCB's bytes back into guest memory at addr,
// unchanged. Used by FCB round-trip tests and by handlers that only need
// to rewrite a handful of fields in place.
func (f FCB) WriteFCB(mem *Image, addr uint16) {
	mem.CopyIn(addr, f.Raw[:])
}

// CanonicalName extracts the NAME.EXT form used as the open-file registry
// key: the high (attribute) bit of each name/extension byte is stripped,
// trailing spaces are trimmed from each part independently, and the two
// parts are joined with a literal dot even when the extension is empty
// (producing "NAME."). The drive selector is ignored - every file lives in
// the emulator's single working directory.
func (f FCB) CanonicalName() string {
	name := stripAttrs(f.Raw[fcbOffName : fcbOffName+8])
	ext := stripAttrs(f.Raw[fcbOffType : fcbOffType+3])
	return strings.TrimRight(name, " ") + "." + strings.TrimRight(ext, " ")
}

// HasWildcard reports whether the canonicalized filename contains '?',
// which CP/M uses as a single-character wildcard. Wildcard expansion is
// deliberately unsupported; callers reject such names outright.
func (f FCB) HasWildcard() bool {
	return strings.ContainsRune(f.CanonicalName(), '?')
}

// RandomRecord decodes the 24-bit little-endian random record number
// (the R field at offset 0x21) and returns the corresponding byte offset
// into the file (record number * 128).
func (f FCB) RandomRecord() (record uint32, offset int64) {
	r := f.Raw[fcbOffRandom : fcbOffRandom+3]
	record = uint32(r[0]) | uint32(r[1])<<8 | uint32(r[2])<<16
	return record, int64(record) * 128
}

// SetRandomRecord writes a record number back into the R field, used by
// Set Random Record (function 36) to mirror the current sequential
// position.
func (f *FCB) SetRandomRecord(record uint32) {
	f.Raw[fcbOffRandom] = byte(record)
	f.Raw[fcbOffRandom+1] = byte(record >> 8)
	f.Raw[fcbOffRandom+2] = byte(record >> 16)
}

// stripAttrs clears the high bit of each byte (CP/M overloads it for
// attribute flags) and returns the result as a string.
func stripAttrs(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = c &^ 0x80
	}
	return string(out)
}
