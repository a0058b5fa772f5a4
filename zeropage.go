// zeropage.go - seeds the handful of fixed, well-known addresses a CP/M
// program expects to find set up before it ever gets control.

package main

// Zero-page addresses and the synthetic BIOS/BDOS locations the warm-boot
// and BDOS-entry jumps point at. Neither location is ever actually
// executed - the CPU harness traps both addresses before the jump fires -
// but the bytes are written anyway so a guest that inspects them finds
// the shape it expects.
const (
	addrWarmBoot  = 0x0000
	addrIOByte    = 0x0003
	addrDriveUser = 0x0004
	addrBDOSEntry = 0x0005

	biosLocation = 0xFE00
	bdosLocation = 0xFE06
)

// initZeroPage writes the warm-boot jump at 0x0000, a quiescent IOBYTE and
// default drive/user byte, and the JMP BDOS at 0x0005 that spec.md's trap
// mechanism intercepts before it ever executes.
func initZeroPage(mem *Image) {
	mem.Set(addrWarmBoot, 0xC3)
	mem.Set(addrWarmBoot+1, byte(biosLocation))
	mem.Set(addrWarmBoot+2, byte(biosLocation>>8))

	mem.Set(addrIOByte, 0x00)
	mem.Set(addrDriveUser, 0x00)

	mem.Set(addrBDOSEntry, 0xC3)
	mem.Set(addrBDOSEntry+1, byte(bdosLocation))
	mem.Set(addrBDOSEntry+2, byte(bdosLocation>>8))
}
