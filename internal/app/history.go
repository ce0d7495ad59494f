package app

// DefaultHistorySize bounds the navigation history.
const DefaultHistorySize = 20

// history is a bounded list of visited directories with a position.
// Pushing after going back discards the entries ahead of the position.
type history struct {
	entries []string
	index   int
	max     int
}

func newHistory(max int) *history {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &history{index: -1, max: max}
}

// push records p as the newest entry unless it is the current one.
func (h *history) push(p string) {
	if h.index >= 0 && h.entries[h.index] == p {
		return
	}
	h.entries = append(h.entries[:h.index+1], p)
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = append([]string(nil), h.entries[over:]...)
	}
	h.index = len(h.entries) - 1
}

// back moves one entry towards the oldest and returns it.
func (h *history) back() (string, bool) {
	if h.index <= 0 {
		return "", false
	}
	h.index--
	return h.entries[h.index], true
}

// forward moves one entry towards the newest and returns it.
func (h *history) forward() (string, bool) {
	if h.index < 0 || h.index >= len(h.entries)-1 {
		return "", false
	}
	h.index++
	return h.entries[h.index], true
}

// list returns a copy of the entries, oldest first.
func (h *history) list() []string {
	return append([]string(nil), h.entries...)
}
