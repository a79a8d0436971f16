package dashboard

import (
	"log"
	"strings"
	"time"

	"github.com/spektr-org/pengdash/reactive"
)

// LogHooks logs every recomputation event. Enabled by log.verbose.
type LogHooks struct {
	// Session tags log lines when several dashboards share a process.
	Session string
}

var _ reactive.Hooks = LogHooks{}

func (h LogHooks) prefix() string {
	if h.Session == "" {
		return "Pengdash"
	}
	return "Pengdash[" + shortID(h.Session) + "]"
}

func (h LogHooks) Recomputed(node string, took time.Duration) {
	log.Printf("🔧 %s: %s recomputed in %s", h.prefix(), node, took.Round(time.Microsecond))
}

func (h LogHooks) Suspended(node string) {
	log.Printf("⏸️ %s: %s suspended, no species selected — keeping last output", h.prefix(), node)
}

func (h LogHooks) Flushed(stats reactive.FlushStats) {
	log.Printf("📊 %s: cycle %d done in %s (recomputed=%s suspended=%s)",
		h.prefix(), stats.Cycle, stats.Duration.Round(time.Microsecond),
		joinOrDash(stats.Recomputed), joinOrDash(stats.Suspended))
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
