// Package bios implements the machine's reset-time bootstrap (zero the
// IVT, load the boot sector, plant the reset vector) and the host-side
// INT 10h/13h/15h service routines that stand in for real-mode BIOS
// handler code.
package bios

import (
	"encoding/binary"

	"github.com/valerio/go-bob/disk"
)

// Memory is the subset of *memory.Memory the bootstrap and handlers need.
type Memory interface {
	Read8(addr uint32) (uint8, error)
	Write8(addr uint32, value uint8) error
	ReadBytes(addr uint32, length int) ([]byte, error)
	WriteBytes(addr uint32, data []byte) error
}

// Disk is the subset of *disk.Disk the bootstrap and INT 13h need.
type Disk interface {
	ReadSector(lba int) ([]byte, error)
}

// Geometry is the subset of disk.Geometry the INT 13h handler needs to
// convert a guest-supplied CHS triple to an LBA.
type Geometry interface {
	LBA(cyl, head, sector int) int
}

const (
	ivtEnd         = 0x400
	bootSectorAt   = 0x7C00
	resetVector    = 0xFFFF0
	bytesPerSector = 512

	videoFramebuffer = 0xA0000
	videoWidth       = 320

	e820DestAddr = 0x1000
)

// CPU is the subset of *cpu.CPU the handlers read and mutate register
// state through.
type CPU interface {
	GetWord(id int) uint16
	SetWord(id int, v uint16)
	Flags() uint32
	SetFlags(v uint32)
	ES() uint16
	EAX() uint32
	SetEAX(v uint32)
	SetECX(v uint32)
	SetEDX(v uint32)
}

// Load performs the reset-time bootstrap: zero the IVT, copy sector 0
// of disk to 0x7C00, and plant the far-jump reset vector stub.
func Load(mem Memory, d Disk) error {
	if err := mem.WriteBytes(0, make([]byte, ivtEnd)); err != nil {
		return err
	}

	sector, err := d.ReadSector(0)
	if err != nil {
		return err
	}
	if err := mem.WriteBytes(bootSectorAt, sector); err != nil {
		return err
	}

	// EA 00 7C 00 00: JMP 0000:7C00
	stub := []byte{0xEA, 0x00, 0x7C, 0x00, 0x00}
	return mem.WriteBytes(resetVector, stub)
}

// Services bundles the BIOS's INT 10h/13h/15h host-side handlers over a
// shared memory, disk, and disk geometry.
type Services struct {
	mem      Memory
	disk     Disk
	geometry Geometry
}

// NewServices returns the BIOS service routines bound to mem, disk, and
// geometry.
func NewServices(mem Memory, disk Disk, geometry Geometry) *Services {
	return &Services{mem: mem, disk: disk, geometry: geometry}
}

// Int10 implements the INT 10h video service: AH=0x00 sets the video
// mode (acknowledged, no effect beyond 0x13), AH=0x0C draws one pixel.
func (s *Services) Int10(c CPU) {
	ah := byte(c.GetWord(0) >> 8) // word-A high byte
	switch ah {
	case 0x00:
		// mode set acknowledged; only 0x13 (320x200x8bpp) is modeled
	case 0x0C:
		al := byte(c.GetWord(0))
		cx := c.GetWord(1) // word-C carries the column
		dx := c.GetWord(2) // word-D carries the row
		addr := uint32(videoFramebuffer) + uint32(dx)*videoWidth + uint32(cx)
		if addr >= videoFramebuffer && addr < videoFramebuffer+videoWidth*200 {
			s.mem.Write8(addr, al)
		}
	}
}

// Int13 implements the INT 13h disk service: AH=0x02 reads AL sectors
// from CHS(CH,DH,CL) to (ES<<4)+BX. Other AH values set CF.
func (s *Services) Int13(c CPU) {
	ah := byte(c.GetWord(0) >> 8)
	if ah != 0x02 {
		setCF(c, true)
		return
	}

	al := byte(c.GetWord(0))
	bx := c.GetWord(3)
	cx := c.GetWord(1)
	dx := c.GetWord(2)
	cl := byte(cx)
	ch := byte(cx >> 8)
	dh := byte(dx >> 8)

	cyl := int(ch)
	sector := int(cl & 0x3F)
	head := int(dh)
	count := int(al)

	dest := (uint32(c.ES()) << 4) + uint32(bx)
	for i := 0; i < count; i++ {
		lba := s.geometry.LBA(cyl, head, sector+i)
		data, err := s.disk.ReadSector(lba)
		if err != nil {
			panic(&disk.IOError{Op: "int13 read", Err: err})
		}
		if err := s.mem.WriteBytes(dest+uint32(i*bytesPerSector), data); err != nil {
			panic(err)
		}
	}

	c.SetWord(0, 0x0100) // AH=0x01, AL=0
	setCF(c, false)
}

// smapSignature is the ASCII 'SMAP' tag the caller checks in EAX/EDX
// after a successful E820 call.
const smapSignature = 0x534D4150

// Int15 implements the INT 15h system service: EAX=0xE820 returns a
// four-entry memory map. Other EAX values set CF.
func (s *Services) Int15(c CPU) {
	if c.EAX() != 0xE820 {
		setCF(c, true)
		return
	}

	type region struct {
		base, length uint64
		kind         uint32
	}
	regions := []region{
		{0x00000000, 0x0009FC00, 1}, // conventional, free
		{0x0009FC00, 0x00000400, 2}, // reserved
		{0x000F0000, 0x00010000, 2}, // reserved
		{0x00100000, 0x00F00000, 1}, // extended, free
	}

	buf := make([]byte, 0, len(regions)*24)
	for _, r := range regions {
		entry := make([]byte, 24)
		binary.LittleEndian.PutUint64(entry[0:8], r.base)
		binary.LittleEndian.PutUint64(entry[8:16], r.length)
		binary.LittleEndian.PutUint32(entry[16:20], r.kind)
		buf = append(buf, entry...)
	}
	s.mem.WriteBytes(e820DestAddr, buf)

	c.SetEAX(smapSignature)
	c.SetECX(24)
	c.SetEDX(smapSignature)
	setCF(c, false)
}

const cfBit = 1 << 0

func setCF(c CPU, v bool) {
	if v {
		c.SetFlags(c.Flags() | cfBit)
	} else {
		c.SetFlags(c.Flags() &^ cfBit)
	}
}
