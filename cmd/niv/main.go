// Command niv is the editor's CLI entrypoint: `niv [PATH]`. Exit codes
// 0 success, 1 load failure, 2 usage error.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/SkuldNorniern/niv/app"
	"github.com/SkuldNorniern/niv/display"
	"github.com/SkuldNorniern/niv/input"
	"github.com/SkuldNorniern/niv/internal/pkg/fileio"
	"github.com/SkuldNorniern/niv/internal/pkg/swap"
	"github.com/SkuldNorniern/niv/internal/pkg/watch"
)

var (
	logpath        = flag.String("log", "", "log to file")
	forceDefault   = flag.Bool("noconfig", false, "ignore any config file and use defaults")
	showLineNums   = flag.Bool("number", true, "show line numbers")
	allowLossyUTF8 = flag.Bool("allow-lossy-save", false, "allow saving as UTF-8 when the original encoding can't represent every code point")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds | log.Llongfile)
	if *logpath != "" {
		logFile, err := os.Create(*logpath)
		if err != nil {
			exitWithError(err, 2)
		}
		defer logFile.Close()
		log.SetOutput(logFile)
	} else {
		log.SetOutput(io.Discard)
	}

	if flag.NArg() > 1 {
		printUsage()
		os.Exit(2)
	}

	path := flag.Arg(0)
	if err := runEditor(path); err != nil {
		exitWithError(err, 1)
	}
}

func printUsage() {
	f := flag.CommandLine.Output()
	fmt.Fprintf(f, "Usage: %s [options...] [path]\n", os.Args[0])
	flag.PrintDefaults()
}

func runEditor(path string) error {
	settings, err := app.LoadOrDefaultConfig(*forceDefault)
	if err != nil {
		return err
	}
	configStore := app.NewConfigStore(settings)

	var doc *app.Document
	if path != "" {
		doc, err = app.Open(path, fileio.DefaultLoadConfig())
		if err != nil {
			return err
		}
		for _, w := range doc.Warnings {
			log.Printf("warning: %s\n", w)
		}
	}

	swapMgr, err := swap.New(swap.DefaultConfig())
	if err != nil {
		log.Printf("swap directory unavailable, periodic saves disabled: %v\n", err)
		swapMgr = nil
	}

	if doc != nil && swapMgr != nil {
		recoverSwapIfPresent(doc, swapMgr)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	if doc != nil {
		watcher := watch.New(watch.DefaultConfig())
		defer watcher.Stop()
		watcher.Watch(doc.Path)
		go forwardWatchEvents(screen, watcher)
	}

	return runEventLoop(screen, doc, configStore, swapMgr)
}

// recoverSwapIfPresent implements startup crash recovery: a swap file
// left behind by a session that never reached a clean close is folded
// into doc's content so the recovered edits show up as unsaved work
// rather than being silently discarded. There is no interactive prompt
// in this entrypoint's minimal event loop, so recovery happens
// automatically and is logged; the swap file itself is left on disk
// until the next successful Save or explicit discard.
func recoverSwapIfPresent(doc *app.Document, swapMgr *swap.Manager) {
	has, err := swapMgr.HasSwap(doc.Path)
	if err != nil {
		log.Printf("check swap file for %s: %v\n", doc.Path, err)
		return
	}
	if !has {
		return
	}
	content, err := swapMgr.RecoverSwap(doc.Path)
	if err != nil {
		log.Printf("recover swap file for %s: %v\n", doc.Path, err)
		return
	}
	if err := doc.RecoverFromSwap(content); err != nil {
		log.Printf("restore recovered content for %s: %v\n", doc.Path, err)
		return
	}
	log.Printf("recovered unsaved changes for %s from a previous session (saved %s, %d edits)\n",
		doc.Path, time.Unix(content.Timestamp, 0).Format(time.RFC3339), content.EditCount)
}

// watchEvent wraps a watcher notification as a tcell event so the
// blocking PollEvent loop can drain watcher output cooperatively
// without a second select.
type watchEvent struct {
	tcell.EventTime
	ev watch.Event
}

func forwardWatchEvents(screen tcell.Screen, w *watch.Watcher) {
	for ev := range w.Events() {
		wrapped := &watchEvent{ev: ev}
		wrapped.SetEventNow()
		if err := screen.PostEvent(wrapped); err != nil {
			log.Printf("dropped watch event for %s: %v\n", ev.Path, err)
		}
	}
}

func runEventLoop(screen tcell.Screen, doc *app.Document, configStore *app.ConfigStore, swapMgr *swap.Manager) error {
	st := &input.State{}

	for {
		redraw(screen, doc, st, configStore)

		ev := screen.PollEvent()
		switch tev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *watchEvent:
			handleWatch(doc, tev.ev)
		case *tcell.EventKey:
			outcome := input.HandleKeyEvent(st, documentOrEmpty(doc), tev)
			if outcome.Quit {
				return nil
			}
			if doc == nil {
				continue
			}
			if outcome.Edited && swapMgr != nil {
				noteEditAndMaybeSwap(screen, doc, st, swapMgr)
			}
			switch outcome.Command.Kind {
			case input.CommandWrite, input.CommandWriteQuit:
				if _, err := doc.Save(*allowLossyUTF8, fileio.DefaultLoadConfig()); err != nil {
					log.Printf("save failed: %v\n", err)
				} else if swapMgr != nil {
					if err := swapMgr.Discard(doc.Path); err != nil {
						log.Printf("discard swap for %s: %v\n", doc.Path, err)
					}
				}
				if outcome.Command.Kind == input.CommandWriteQuit {
					return nil
				}
			case input.CommandQuit, input.CommandForceQuit:
				return nil
			}
		}
	}
}

// handleWatch applies the external-change policy: auto-reload a clean
// buffer, log a surfaced conflict for a dirty one. Resolution beyond
// logging needs UI this entrypoint doesn't carry; the conflict is left
// for the next explicit :w, which refuses until the user decides.
func handleWatch(doc *app.Document, ev watch.Event) {
	if doc == nil || ev.Path != doc.Path {
		return
	}
	reloaded, conflict, err := doc.HandleWatchEvent(ev, fileio.DefaultLoadConfig())
	switch {
	case err != nil:
		log.Printf("watch event for %s: %v\n", ev.Path, err)
	case reloaded:
		log.Printf("auto-reloaded %s after external change\n", ev.Path)
	case conflict != nil:
		log.Printf("external change conflicts with unsaved edits in %s (event %s)\n", ev.Path, conflict.EventID)
	}
}

func noteEditAndMaybeSwap(screen tcell.Screen, doc *app.Document, st *input.State, swapMgr *swap.Manager) {
	due := doc.NoteEdit(swapMgr)
	line, col := lineAndColumnFor(doc, st.CursorPos)
	_, height := screen.Size()
	cursor := &swap.Cursor{Line: int(line), Column: int(col), Offset: int(st.CursorPos)}
	viewport := &swap.Viewport{Top: 0, Height: height, HOffset: 0}
	if err := doc.MaybeSwap(swapMgr, due, cursor, viewport); err != nil {
		log.Printf("periodic swap write for %s: %v\n", doc.Path, err)
	}
}

func documentOrEmpty(doc *app.Document) *app.Document {
	if doc != nil {
		return doc
	}
	return &app.Document{}
}

func redraw(screen tcell.Screen, doc *app.Document, st *input.State, configStore *app.ConfigStore) {
	if doc == nil || doc.Rope == nil {
		screen.Clear()
		screen.Show()
		return
	}
	lineNums := *showLineNums && configStore.Snapshot().Editor.LineNumbers
	cursorLine, cursorCol := lineAndColumnFor(doc, st.CursorPos)
	display.DrawBuffer(screen, doc.Rope, 0, cursorLine, cursorCol, lineNums)
}

// lineAndColumnFor computes the 0-indexed display line and column for
// an absolute byte offset by scanning from the start of that line.
func lineAndColumnFor(doc *app.Document, off uint64) (line, col uint64) {
	total := doc.Rope.Len()
	if off > total {
		off = total
	}
	buf := make([]byte, off)
	doc.Rope.Read(0, buf)
	lastNL := -1
	for i, b := range buf {
		if b == '\n' {
			line++
			lastNL = i
		}
	}
	col = uint64(len(buf) - lastNL - 1)
	return line, col
}

func exitWithError(err error, code int) {
	fmt.Fprintf(os.Stderr, "%v\n", err)
	os.Exit(code)
}
