// Package render draws the guest's VGA framebuffer and register panel
// to a terminal via tcell, using a shade-character quantization and a
// split-screen layout.
package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-bob/console"
	"github.com/valerio/go-bob/cpu"
	"github.com/valerio/go-bob/video"
)

const (
	scale = 1

	gameAreaWidth  = video.Width / 4 * scale // terminal cells are taller than wide; downsample 4:1 horizontally
	gameAreaHeight = video.Height / 8 * scale
)

var shadeChars = []rune{' ', '░', '▒', '▓', '█'}

// shadeFor quantizes a grayscale channel value (0-255) into one of the
// five shade characters.
func shadeFor(v uint8) rune {
	idx := int(v) * (len(shadeChars) - 1) / 255
	return shadeChars[idx]
}

// Terminal renders a Framebuffer and a CPU register snapshot to a
// tcell.Screen, and forwards recognized key presses to a console
// command channel.
type Terminal struct {
	screen  tcell.Screen
	fb      *video.Framebuffer
	forward chan<- console.Command
	running bool
}

// New initializes a tcell screen and returns a Terminal that will
// render fb and forward key presses as console commands on forward.
func New(fb *video.Framebuffer, forward chan<- console.Command) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("render: initializing terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("render: initializing terminal: %w", err)
	}
	return &Terminal{screen: screen, fb: fb, forward: forward, running: true}, nil
}

// Close finalizes the terminal screen.
func (t *Terminal) Close() { t.screen.Fini() }

// HandleInput polls key events on the calling goroutine until the
// screen is closed, translating keys into console commands per the
// mapping g->Go, n->Next, s->Stop, r->Regs, q/Escape->Quit.
func (t *Terminal) HandleInput() {
	for t.running {
		ev := t.screen.PollEvent()
		if ev == nil { // screen finalized
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				t.forward <- console.Quit
				t.running = false
				return
			case tcell.KeyRune:
				switch ev.Rune() {
				case 'g':
					t.forward <- console.Go
				case 'n':
					t.forward <- console.Next
				case 's':
					t.forward <- console.Stop
				case 'r':
					t.forward <- console.Regs
				case 'q':
					t.forward <- console.Quit
					t.running = false
					return
				}
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// Render paints one frame: the quantized framebuffer on the left, a
// register panel on the right, and (if fault is non-nil) a fatal error
// banner in place of the register panel.
func (t *Terminal) Render(regs cpu.Registers, fault error) {
	t.screen.Clear()

	frame, err := t.fb.ReadFrame()
	if err == nil {
		t.drawFrame(frame)
	}

	if fault != nil {
		t.drawFault(fault)
	} else {
		t.drawRegisters(regs)
	}

	t.screen.Show()
}

func (t *Terminal) drawFrame(frame []byte) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for cellY := 0; cellY < gameAreaHeight; cellY++ {
		for cellX := 0; cellX < gameAreaWidth; cellX++ {
			px := cellX * video.Width / gameAreaWidth
			py := cellY * video.Height / gameAreaHeight
			pixel := frame[py*video.Width+px]
			color := t.fb.ColorAt(pixel)
			gray := (uint16(color.R) + uint16(color.G) + uint16(color.B)) / 3
			t.screen.SetContent(cellX, cellY, shadeFor(uint8(gray)), nil, style)
		}
	}
}

func (t *Terminal) drawRegisters(r cpu.Registers) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	startX := gameAreaWidth + 2
	lines := []string{
		fmt.Sprintf("AX:%08X BX:%08X", r.A, r.B),
		fmt.Sprintf("CX:%08X DX:%08X", r.C, r.D),
		fmt.Sprintf("SI:%08X DI:%08X", r.SI, r.DI),
		fmt.Sprintf("BP:%08X SP:%08X", r.BP, r.SP),
		fmt.Sprintf("CS:%04X DS:%04X", r.CS, r.DS),
		fmt.Sprintf("ES:%04X SS:%04X", r.ES, r.SS),
		fmt.Sprintf("IP:%04X FLAGS:%08X", r.IP, r.Flags),
	}
	for i, line := range lines {
		for x, ch := range line {
			t.screen.SetContent(startX+x, i, ch, nil, style)
		}
	}
}

func (t *Terminal) drawFault(err error) {
	style := tcell.StyleDefault.Foreground(tcell.ColorRed)
	msg := fmt.Sprintf("FATAL: %v", err)
	for x, ch := range msg {
		t.screen.SetContent(gameAreaWidth+2+x, 0, ch, nil, style)
	}
}
