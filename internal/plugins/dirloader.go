package plugins

import (
	"context"

	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/fsobject"
	"github.com/dshills/rover/internal/loader"
	"github.com/dshills/rover/internal/plugin"
)

// dirLoader queues scans for pathway directories that are unloaded or
// stale, cwd first.
type dirLoader struct {
	host     Host
	bindings bindings
}

func newDirLoader(host Host) *dirLoader {
	return &dirLoader{host: host}
}

func (p *dirLoader) descriptor() *plugin.Descriptor {
	return &plugin.Descriptor{
		Name:        "dirloader",
		Version:     "1.0.0",
		Description: "Loads the directories along the current path",
		Implements:  []string{FeatureDataLoader},
		Activate:    p.activate,
		Deactivate:  p.deactivate,
	}
}

func (p *dirLoader) activate(context.Context) error {
	p.bindings.bus = p.host.Bus()
	if err := p.bindings.addFunc(event.SignalCd, func(*event.Signal) { p.loadPathway() }, 0.8); err != nil {
		return err
	}
	return p.bindings.addFunc(event.SignalLoopStart, func(*event.Signal) { p.loadPathway() }, 0.4)
}

func (p *dirLoader) deactivate(context.Context) error {
	p.bindings.clear()
	return nil
}

// loadPathway applies listing options and queues the scans. Scans are
// pushed root first so the cwd ends up at the front of the queue.
func (p *dirLoader) loadPathway() {
	settings := p.host.Settings()
	opts := settings.FileOptions()
	for _, d := range p.host.Cache().Pathway() {
		d.SetOptions(opts)
		if d.NeedsLoad() {
			p.host.Loader().Add(&loadTask{
				Task: d.LoadTask(p.host.FS(), settings.ScanChunk),
				dir:  d,
				bus:  p.host.Bus(),
			})
		}
	}
}

// loadTask announces the directory once its scan commits.
type loadTask struct {
	loader.Task
	dir *fsobject.Directory
	bus *event.Bus
}

func (t *loadTask) Step() (loader.StepResult, error) {
	res, err := t.Task.Step()
	if err == nil && res == loader.Done {
		t.bus.Emit(event.SignalDirectoryLoaded, map[string]any{
			"path":  t.dir.Path,
			"files": len(t.dir.Files),
		})
	}
	return res, err
}

func (t *loadTask) Unload() {
	if u, ok := t.Task.(loader.Unloader); ok {
		u.Unload()
	}
}
