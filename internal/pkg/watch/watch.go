// Package watch implements a poll-based watcher that notices when a
// file changes underneath an open buffer, debounces the notification,
// and classifies it as a modification, deletion, creation, or rename.
//
// Polling is chosen over a kernel notification API (inotify, kqueue,
// ReadDirectoryChangesW) to keep the dependency surface small and the
// behaviour identical across platforms; the debounce layer and the
// identity-based rename match recover the semantics a notification API
// would offer natively.
package watch

import (
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/SkuldNorniern/niv/internal/pkg/identity"
)

// ChangeKind classifies what the poller observed happened to a watched
// path since the last sample.
type ChangeKind int

const (
	Modified ChangeKind = iota
	Deleted
	Created
	Renamed
)

func (k ChangeKind) String() string {
	switch k {
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Created:
		return "created"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Event is one debounced, classified change. EventID tags the event with
// a correlation id so repeated conflicts on the same path across a
// session are distinguishable in logs.
type Event struct {
	EventID  string
	Path     string
	Kind     ChangeKind
	Identity identity.Identity
}

// Config tunes the poller's cadence.
type Config struct {
	PollInterval   time.Duration
	DebounceDelay  time.Duration
	IdentityConfig identity.Config
}

// DefaultConfig uses a 500ms poll interval and a 100ms debounce delay.
func DefaultConfig() Config {
	return Config{
		PollInterval:   500 * time.Millisecond,
		DebounceDelay:  100 * time.Millisecond,
		IdentityConfig: identity.DefaultConfig(),
	}
}

// sample is the poller's last-seen state for one watched path.
type sample struct {
	path     string
	exists   bool
	identity identity.Identity
	pending  *time.Timer
}

// Watcher polls a set of paths on a dedicated goroutine and delivers
// debounced, classified Events on Events(). It never touches buffer
// state directly: the editor drains the channel cooperatively and
// decides what to do with each event.
type Watcher struct {
	cfg     Config
	events  chan Event
	stop    chan struct{}
	stopped chan struct{}

	watch    chan string
	unwatch  chan string
	samples  map[string]*sample
	vanished map[string]identity.Identity // recently-deleted paths, for rename matching
}

// New starts a Watcher's polling goroutine. Call Stop to shut it down.
func New(cfg Config) *Watcher {
	w := &Watcher{
		cfg:      cfg,
		events:   make(chan Event, 64),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		watch:    make(chan string),
		unwatch:  make(chan string),
		samples:  make(map[string]*sample),
		vanished: make(map[string]identity.Identity),
	}
	go w.run()
	return w
}

// Events returns the channel events are delivered on, in the order the
// poller observed them. Debouncing may collapse but never reorder
// events for a given path.
func (w *Watcher) Events() <-chan Event { return w.events }

// Watch adds path to the set of watched files.
func (w *Watcher) Watch(path string) {
	select {
	case w.watch <- path:
	case <-w.stopped:
	}
}

// Unwatch removes path from the watched set, e.g. when its buffer closes.
func (w *Watcher) Unwatch(path string) {
	select {
	case w.unwatch <- path:
	case <-w.stopped:
	}
}

// Stop signals the poller to exit after its in-flight poll completes
// and waits for it to finish. Cancellation is cooperative: a poll
// already in progress runs to completion.
func (w *Watcher) Stop() {
	close(w.stop)
	<-w.stopped
}

func (w *Watcher) run() {
	defer close(w.stopped)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case path := <-w.watch:
			if _, ok := w.samples[path]; !ok {
				w.samples[path] = w.takeSample(path)
			}
		case path := <-w.unwatch:
			delete(w.samples, path)
		case <-ticker.C:
			w.pollOnce()
		}
	}
}

func (w *Watcher) pollOnce() {
	for path, prev := range w.samples {
		cur := w.takeSample(path)
		if sameSample(prev, cur) {
			continue
		}
		w.samples[path] = cur
		w.classifyAndDebounce(prev, cur)
	}
}

func (w *Watcher) takeSample(path string) *sample {
	info, err := os.Stat(path)
	if err != nil {
		return &sample{path: path, exists: false}
	}
	ident, err := identity.Compute(path, w.cfg.IdentityConfig)
	if err != nil {
		return &sample{path: path, exists: false}
	}
	_ = info
	return &sample{path: path, exists: true, identity: ident}
}

func sameSample(a, b *sample) bool {
	if a.exists != b.exists {
		return false
	}
	if !a.exists {
		return true
	}
	return !identity.IsModified(a.identity, b.identity)
}

// classifyAndDebounce determines the ChangeKind for a transition and
// schedules a debounced delivery, collapsing any still-pending timer
// for the same path rather than sending a second event.
func (w *Watcher) classifyAndDebounce(prev, cur *sample) {
	var kind ChangeKind
	switch {
	case prev.exists && !cur.exists:
		kind = Deleted
		w.vanished[cur.path] = prev.identity
	case !prev.exists && cur.exists:
		kind = Created
		if renamedFrom, ok := w.findRenameSource(cur.identity); ok {
			kind = Renamed
			delete(w.vanished, renamedFrom)
		}
	default:
		kind = Modified
	}

	if prev.pending != nil {
		prev.pending.Stop()
	}
	path := cur.path
	cur.pending = time.AfterFunc(w.cfg.DebounceDelay, func() {
		w.deliver(Event{
			EventID:  uuid.New().String(),
			Path:     path,
			Kind:     kind,
			Identity: cur.identity,
		})
	})
}

// findRenameSource looks for a recently-vanished path whose identity
// matches ident, the signal that a Created event is really the
// destination half of a rename.
func (w *Watcher) findRenameSource(ident identity.Identity) (string, bool) {
	for path, vanishedIdent := range w.vanished {
		if identity.IsSameFile(vanishedIdent, ident) {
			return path, true
		}
	}
	return "", false
}

func (w *Watcher) deliver(ev Event) {
	select {
	case w.events <- ev:
	case <-w.stop:
	}
}
