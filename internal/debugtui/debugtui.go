// Package debugtui renders a live, read-only snapshot of the console's
// register state to the terminal using tcell, a ticker-driven loop in the
// same shape as the teacher's own TerminalRenderer — except it draws
// registers instead of pixels, since GP0/GP1 drawing is out of scope.
package debugtui

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/cantrip-labs/psxcore/internal/scheduler"
)

const refreshInterval = time.Second / 10

// TerminalRenderer owns the tcell screen and the console state it's
// inspecting. It never mutates state: it only reads registers each tick
// and redraws.
type TerminalRenderer struct {
	screen  tcell.Screen
	state   *scheduler.State
	running bool
}

// New initializes a tcell screen bound to the given console state.
func New(state *scheduler.State) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("debugtui: failed to initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("debugtui: failed to initialize terminal: %w", err)
	}

	return &TerminalRenderer{
		screen:  screen,
		state:   state,
		running: true,
	}, nil
}

// Run steps the console by one slice per tick and redraws the register
// panel, until Escape is pressed or the process receives SIGINT/SIGTERM.
func (t *TerminalRenderer) Run(sliceSeconds float64) error {
	defer t.screen.Fini()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleInput()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	for t.running {
		select {
		case <-ticker.C:
			if err := t.state.Time(sliceSeconds); err != nil {
				return err
			}
			t.render()
			t.screen.Show()
		case <-signals:
			t.running = false
			return nil
		}
	}

	return nil
}

func (t *TerminalRenderer) handleInput() {
	for t.running {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				t.running = false
				return
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *TerminalRenderer) render() {
	t.screen.Clear()

	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	row := 0
	drawLine := func(s tcell.Style, format string, args ...any) {
		line := fmt.Sprintf(format, args...)
		for i, r := range line {
			t.screen.SetContent(i, row, r, nil, s)
		}
		row++
	}

	cpu := t.state.CPU
	drawLine(headerStyle, "R3000")
	for r := 0; r < 32; r += 4 {
		drawLine(style, "r%-2d=%08X r%-2d=%08X r%-2d=%08X r%-2d=%08X",
			r, cpu.GPR(uint8(r)), r+1, cpu.GPR(uint8(r+1)), r+2, cpu.GPR(uint8(r+2)), r+3, cpu.GPR(uint8(r+3)))
	}
	drawLine(style, "PC=%08X", cpu.PC)
	drawLine(style, "CP0 Status=%08X Cause=%08X EPC=%08X", cpu.CP0().Status, cpu.CP0().Cause, cpu.CP0().EPC)

	row++
	drawLine(headerStyle, "INTC")
	drawLine(style, "STAT=%08X MASK=%08X LINE=%v", t.state.INTC.ReadStat(), t.state.INTC.ReadMask(), t.state.INTC.Line())

	row++
	drawLine(headerStyle, "DMAC")
	drawLine(style, "DPCR=%08X DICR=%08X BUSLOCKED=%v", t.state.DMAC.ReadDPCR(), t.state.DMAC.ReadDICR(), t.state.DMAC.BusLocked())
	for id := 0; id < 7; id++ {
		madr, bcr, chcr := t.state.DMAC.ReadChannel(id)
		drawLine(style, "chan%d MADR=%08X BCR=%08X CHCR=%08X", id, madr, bcr, chcr)
	}

	row++
	drawLine(headerStyle, "TIMERS")
	for id := 0; id < 3; id++ {
		drawLine(style, "timer%d MODE=%08X COUNT=%08X TARGET=%08X",
			id, t.state.Timers.ReadMode(id), t.state.Timers.ReadCount(id), t.state.Timers.ReadTarget(id))
	}
}
