// Package dma implements the machine's DMA block-copy engine: per
// channel, a block write of caller-supplied bytes into memory followed
// by an IRQ.
package dma

// memoryWriter is the subset of *memory.Memory the DMA engine needs.
type memoryWriter interface {
	WriteBytes(addr uint32, data []byte) error
}

// interruptRequester is the subset of *interrupt.Controller the DMA
// engine needs.
type interruptRequester interface {
	RequestIRQ(n int)
}

// dmaIRQ is the IRQ line raised after a channel completes a transfer.
const dmaIRQ = 3

type channel struct {
	address uint32
	count   int
	mode    int
}

// Engine holds the DMA channel configuration and performs transfers.
type Engine struct {
	mem      memoryWriter
	ic       interruptRequester
	channels map[int]*channel
}

// New returns a DMA engine with no channels configured.
func New(mem memoryWriter, ic interruptRequester) *Engine {
	return &Engine{mem: mem, ic: ic, channels: make(map[int]*channel)}
}

// SetChannelParams updates channel ch's address, count, and mode. A
// channel is created on first use.
func (e *Engine) SetChannelParams(ch int, address uint32, count, mode int) {
	e.channels[ch] = &channel{address: address, count: count, mode: mode}
}

// StartDMA writes min(len(data), channel.count) bytes of data to memory
// starting at the channel's configured address, then raises IRQ3.
// Undefined channels are no-ops.
func (e *Engine) StartDMA(ch int, data []byte) {
	c, ok := e.channels[ch]
	if !ok {
		return
	}

	length := len(data)
	if c.count < length {
		length = c.count
	}

	e.mem.WriteBytes(c.address, data[:length])
	e.ic.RequestIRQ(dmaIRQ)
}
