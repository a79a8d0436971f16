package reactive

import "time"

// MultiHooks fans events out to several sinks in order. Nil entries are
// skipped.
func MultiHooks(hooks ...Hooks) Hooks {
	var m multiHooks
	for _, h := range hooks {
		if h != nil {
			m = append(m, h)
		}
	}
	if len(m) == 0 {
		return noopHooks{}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

type multiHooks []Hooks

func (m multiHooks) Recomputed(node string, took time.Duration) {
	for _, h := range m {
		h.Recomputed(node, took)
	}
}

func (m multiHooks) Suspended(node string) {
	for _, h := range m {
		h.Suspended(node)
	}
}

func (m multiHooks) Flushed(stats FlushStats) {
	for _, h := range m {
		h.Flushed(stats)
	}
}
