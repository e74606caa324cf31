// Package watch reports changes to source files. It backs `cpplite run
// --watch`, which re-runs a program every time it is saved.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op describes what happened to a file.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

// Event is one change to a watched file.
type Event struct {
	Path string
	Op   Op
}

// Watcher watches individual files. It watches each file's directory so
// that editors which save by renaming a temp file are still seen.
type Watcher struct {
	w     *fsnotify.Watcher
	mu    sync.RWMutex
	files map[string]bool
	evC   chan Event
	erC   chan error
}

// New creates a watcher with nothing registered.
func New() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &Watcher{
		w:     w,
		files: make(map[string]bool),
		evC:   make(chan Event, 128),
		erC:   make(chan error, 1),
	}
	go fw.loop()
	return fw, nil
}

func (fw *Watcher) loop() {
	defer close(fw.evC)

	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if !fw.watching(ev.Name) {
				continue
			}
			var op Op
			if ev.Op&fsnotify.Create != 0 {
				op |= OpCreate
			}
			if ev.Op&fsnotify.Write != 0 {
				op |= OpWrite
			}
			if ev.Op&fsnotify.Remove != 0 {
				op |= OpRemove
			}
			if ev.Op&fsnotify.Rename != 0 {
				op |= OpRename
			}
			if op == 0 {
				continue
			}
			fw.evC <- Event{Path: ev.Name, Op: op}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.erC <- err:
			default:
			}
		}
	}
}

// Add starts watching path.
func (fw *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := fw.w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	fw.mu.Lock()
	fw.files[abs] = true
	fw.mu.Unlock()
	return nil
}

func (fw *Watcher) watching(name string) bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.files[filepath.Clean(name)]
}

func (fw *Watcher) Events() <-chan Event { return fw.evC }
func (fw *Watcher) Errors() <-chan error { return fw.erC }
func (fw *Watcher) Close() error         { return fw.w.Close() }

// Watch calls onChange once per burst of changes to path until ctx is done.
// Events closer together than quiet are coalesced.
func Watch(ctx context.Context, path string, quiet time.Duration, onChange func(Event)) error {
	fw, err := New()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(path); err != nil {
		return err
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending Event
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-fw.Errors():
			return err
		case ev, ok := <-fw.Events():
			if !ok {
				return nil
			}
			pending.Path = ev.Path
			pending.Op |= ev.Op
			if timer == nil {
				timer = time.NewTimer(quiet)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(quiet)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange(pending)
			pending = Event{}
		}
	}
}
