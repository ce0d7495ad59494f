package plugins

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/plugin"
)

// ErrNoBookmark is returned by jump for unset keys.
var ErrNoBookmark = errors.New("no such bookmark")

// LastDirKey is the bookmark that always holds the previous directory.
const LastDirKey = "'"

// Bookmarks keeps named directories in memory.
type Bookmarks struct {
	host     Host
	marks    map[string]string
	bindings bindings
}

func newBookmarks(host Host) *Bookmarks {
	return &Bookmarks{host: host, marks: make(map[string]string)}
}

func (p *Bookmarks) descriptor() *plugin.Descriptor {
	return &plugin.Descriptor{
		Name:        "bookmarks",
		Version:     "1.0.0",
		Description: "mark and jump between directories",
		Implements:  []string{FeatureBookmarks},
		Activate:    p.activate,
		Deactivate:  p.deactivate,
	}
}

func (p *Bookmarks) activate(context.Context) error {
	if err := p.host.AddCommand("mark", p.markCommand); err != nil {
		return err
	}
	if err := p.host.AddCommand("jump", p.jumpCommand); err != nil {
		p.host.RemoveCommand("mark")
		return err
	}
	p.bindings.bus = p.host.Bus()
	return p.bindings.addFunc(event.SignalCd, func(sig *event.Signal) {
		if prev := sig.String("previous"); prev != "" {
			p.marks[LastDirKey] = prev
		}
	}, 0.9)
}

func (p *Bookmarks) deactivate(context.Context) error {
	p.bindings.clear()
	p.host.RemoveCommand("mark")
	p.host.RemoveCommand("jump")
	return nil
}

// Set stores path under key.
func (p *Bookmarks) Set(key, path string) {
	p.marks[key] = path
}

// Get returns the path stored under key.
func (p *Bookmarks) Get(key string) (string, bool) {
	path, ok := p.marks[key]
	return path, ok
}

// Keys returns the set keys, sorted.
func (p *Bookmarks) Keys() []string {
	keys := make([]string, 0, len(p.marks))
	for k := range p.marks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *Bookmarks) markCommand(args []string) error {
	if len(args) != 1 || args[0] == LastDirKey {
		return fmt.Errorf("usage: mark <key>")
	}
	p.Set(args[0], p.host.Cwd())
	p.host.Notify(fmt.Sprintf("marked %s", args[0]), false)
	return nil
}

func (p *Bookmarks) jumpCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: jump <key>")
	}
	path, ok := p.Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoBookmark, args[0])
	}
	return p.host.Cd(path)
}
