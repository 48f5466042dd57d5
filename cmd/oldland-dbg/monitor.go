package main

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ycyang0508/oldland-cpu/oldland/cpu"
	"github.com/ycyang0508/oldland-cpu/oldland/debug"
	"github.com/ycyang0508/oldland-cpu/oldland/disasm"
	"github.com/ycyang0508/oldland-cpu/oldland/memory"
)

const (
	monitorRefresh = 200 * time.Millisecond
	dumpRows       = 8
	dumpCols       = 4 // 32-bit words per row
	disasmRows     = 6
)

// runMonitor opens a live register/memory view on the terminal. The
// machine is stopped on entry so state can be read; s steps, r resumes,
// h halts again, arrow keys scroll the memory dump, ESC returns to the
// REPL.
func runMonitor(client *debug.Client) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	if err := client.Stop(); err != nil {
		return err
	}

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(monitorRefresh)
	defer ticker.Stop()

	var dumpBase uint32
	for {
		if err := draw(screen, client, dumpBase); err != nil {
			return err
		}

		select {
		case <-ticker.C:
			// Periodic refresh keeps the view live while running.
		case ev := <-events:
			key, ok := ev.(*tcell.EventKey)
			if !ok {
				continue
			}
			switch {
			case key.Key() == tcell.KeyEscape || key.Rune() == 'q':
				return client.Stop()
			case key.Rune() == 's':
				if err := client.Step(); err != nil {
					return err
				}
			case key.Rune() == 'r':
				if err := client.Run(); err != nil {
					return err
				}
			case key.Rune() == 'h':
				if err := client.Stop(); err != nil {
					return err
				}
			case key.Key() == tcell.KeyUp:
				dumpBase -= dumpCols * 4
			case key.Key() == tcell.KeyDown:
				dumpBase += dumpCols * 4
			case key.Key() == tcell.KeyPgUp:
				dumpBase -= dumpRows * dumpCols * 4
			case key.Key() == tcell.KeyPgDn:
				dumpBase += dumpRows * dumpCols * 4
			}
		}
	}
}

func draw(screen tcell.Screen, client *debug.Client, dumpBase uint32) error {
	mask, err := client.ExecStatus()
	if err != nil {
		return err
	}
	running := mask&debug.ExecStatusRunning != 0

	screen.Clear()
	drawText(screen, 0, 0, tcell.StyleDefault.Bold(true),
		fmt.Sprintf("oldland-dbg monitor (%s)   [s]tep [r]un [h]alt [esc] quit", statusString(mask)))

	row := 2
	if running {
		// Register and memory reads are rejected while running; show
		// the state instead of stale values.
		drawText(screen, 0, row, tcell.StyleDefault, "running, halt to inspect state")
		screen.Show()
		return nil
	}

	var pc uint32
	for r := cpu.R0; r <= cpu.PC; r++ {
		v, err := client.ReadReg(r)
		if err != nil {
			return err
		}
		if r == cpu.PC {
			pc = v
		}
		col := (int(r) % 3) * 20
		drawText(screen, col, row+int(r)/3, tcell.StyleDefault,
			fmt.Sprintf("%-3s 0x%08X", r, v))
	}
	row += 4

	drawText(screen, 0, row, tcell.StyleDefault.Bold(true), "disassembly")
	row++
	for i := 0; i < disasmRows; i++ {
		addr := pc + uint32(i*4)
		word, err := client.ReadMem(addr, memory.Width32)
		text := fmt.Sprintf("0x%08X  ????????", addr)
		if err == nil {
			text = fmt.Sprintf("0x%08X  %08X  %s", addr, word, disasm.Disassemble(addr, word))
		}
		style := tcell.StyleDefault
		if i == 0 {
			style = style.Foreground(tcell.ColorGreen)
		}
		drawText(screen, 0, row+i, style, text)
	}
	row += disasmRows + 1

	drawText(screen, 0, row, tcell.StyleDefault.Bold(true), "memory")
	row++
	for i := 0; i < dumpRows; i++ {
		base := dumpBase + uint32(i*dumpCols*4)
		line := fmt.Sprintf("0x%08X ", base)
		for j := 0; j < dumpCols; j++ {
			word, err := client.ReadMem(base+uint32(j*4), memory.Width32)
			if err != nil {
				line += " ????????"
			} else {
				line += fmt.Sprintf(" %08X", word)
			}
		}
		drawText(screen, 0, row+i, tcell.StyleDefault, line)
	}

	screen.Show()
	return nil
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
