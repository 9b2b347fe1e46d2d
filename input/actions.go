// Package input dispatches terminal key events against an open
// app.Document. A real modal editor's input dispatch (operator-pending
// state, counts, registers, macros) is a large state machine orthogonal
// to the storage engine, so this package keeps just enough of it —
// normal, insert, and command-line modes — to drive the core through a
// terminal.
package input

import (
	"github.com/gdamore/tcell/v2"

	"github.com/SkuldNorniern/niv/app"
)

// Mode names which of the three key-dispatch tables is active.
type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
	ModeCommand
)

// State is the input dispatcher's state: the current mode, a cursor
// position expressed as an absolute byte offset into the document, and
// an in-progress command-line buffer for ModeCommand.
type State struct {
	Mode       Mode
	CursorPos  uint64
	CommandBuf []rune
}

// Outcome reports what a HandleKeyEvent call did, so cmd/niv's event
// loop knows whether to redraw, save, or exit. Edited is set when the
// document's content changed, so the caller can feed its periodic swap
// writer.
type Outcome struct {
	Quit    bool
	Redraw  bool
	Edited  bool
	Command Command
}

// HandleKeyEvent dispatches ev against doc according to st.Mode,
// mutating st and doc in place and returning what the caller should do
// next.
func HandleKeyEvent(st *State, doc *app.Document, ev *tcell.EventKey) Outcome {
	switch st.Mode {
	case ModeInsert:
		return handleInsert(st, doc, ev)
	case ModeCommand:
		return handleCommand(st, doc, ev)
	default:
		return handleNormal(st, doc, ev)
	}
}

func handleNormal(st *State, doc *app.Document, ev *tcell.EventKey) Outcome {
	if ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'i':
			st.Mode = ModeInsert
			return Outcome{Redraw: true}
		case ':':
			st.Mode = ModeCommand
			st.CommandBuf = st.CommandBuf[:0]
			return Outcome{Redraw: true}
		case 'x':
			if doc.Rope != nil && st.CursorPos < doc.Rope.Len() {
				doc.Rope.DeleteRange(st.CursorPos, st.CursorPos+1)
				return Outcome{Redraw: true, Edited: true}
			}
			return Outcome{Redraw: true}
		case 'h':
			st.moveLeft()
			return Outcome{Redraw: true}
		case 'l':
			st.moveRight(doc)
			return Outcome{Redraw: true}
		}
	}
	switch ev.Key() {
	case tcell.KeyLeft:
		st.moveLeft()
	case tcell.KeyRight:
		st.moveRight(doc)
	case tcell.KeyCtrlC:
		return Outcome{Quit: true}
	}
	return Outcome{Redraw: true}
}

func handleInsert(st *State, doc *app.Document, ev *tcell.EventKey) Outcome {
	switch ev.Key() {
	case tcell.KeyEscape:
		st.Mode = ModeNormal
		return Outcome{Redraw: true}
	case tcell.KeyEnter:
		return insertAndAdvance(st, doc, []byte{'\n'})
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if doc.Rope != nil && st.CursorPos > 0 {
			doc.Rope.DeleteRange(st.CursorPos-1, st.CursorPos)
			st.CursorPos--
			return Outcome{Redraw: true, Edited: true}
		}
		return Outcome{Redraw: true}
	case tcell.KeyRune:
		return insertAndAdvance(st, doc, []byte(string(ev.Rune())))
	default:
		return Outcome{Redraw: true}
	}
}

func insertAndAdvance(st *State, doc *app.Document, data []byte) Outcome {
	if doc.Rope == nil {
		return Outcome{Redraw: true}
	}
	if err := doc.Rope.InsertAt(st.CursorPos, data); err == nil {
		st.CursorPos += uint64(len(data))
		return Outcome{Redraw: true, Edited: true}
	}
	return Outcome{Redraw: true}
}

func handleCommand(st *State, doc *app.Document, ev *tcell.EventKey) Outcome {
	switch ev.Key() {
	case tcell.KeyEscape:
		st.Mode = ModeNormal
		return Outcome{Redraw: true}
	case tcell.KeyEnter:
		st.Mode = ModeNormal
		cmd := parseCommand(string(st.CommandBuf))
		st.CommandBuf = st.CommandBuf[:0]
		return Outcome{Redraw: true, Command: cmd}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(st.CommandBuf) > 0 {
			st.CommandBuf = st.CommandBuf[:len(st.CommandBuf)-1]
		}
		return Outcome{Redraw: true}
	case tcell.KeyRune:
		st.CommandBuf = append(st.CommandBuf, ev.Rune())
		return Outcome{Redraw: true}
	default:
		return Outcome{Redraw: true}
	}
}

func (st *State) moveLeft() {
	if st.CursorPos > 0 {
		st.CursorPos--
	}
}

func (st *State) moveRight(doc *app.Document) {
	if doc.Rope != nil && st.CursorPos < doc.Rope.Len() {
		st.CursorPos++
	}
}
