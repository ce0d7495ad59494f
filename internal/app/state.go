package app

// State is a read-only snapshot of the runtime, published after every
// loop iteration for readers on other goroutines.
type State struct {
	Cwd      string            `json:"cwd"`
	Ticks    int               `json:"ticks"`
	Plugins  []string          `json:"plugins"`
	Features map[string]string `json:"features"`
	Pathway  []string          `json:"pathway"`
	Cached   []string          `json:"cached"`
	Queue    []string          `json:"queue"`
	Paused   bool              `json:"paused"`
	History  []string          `json:"history"`
	Commands []string          `json:"commands"`
}

// State returns the latest snapshot, or nil before Init. It is safe for
// concurrent use.
func (r *Runtime) State() *State {
	return r.state.Load()
}

// publish stores a fresh snapshot.
func (r *Runtime) publish() {
	s := &State{
		Cwd:      r.cwd,
		Ticks:    r.ticks,
		Plugins:  r.resolver.Installed(),
		Features: r.resolver.Features(),
		Cached:   r.cache.Paths(),
		Paused:   r.loader.Paused(),
		History:  r.history.list(),
		Commands: r.Commands(),
	}
	for _, d := range r.cache.Pathway() {
		s.Pathway = append(s.Pathway, d.Path)
	}
	for _, t := range r.loader.Tasks() {
		s.Queue = append(s.Queue, t.Description())
	}
	r.state.Store(s)
}
