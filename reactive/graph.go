// Package reactive is a small explicit dataflow graph.
//
// Inputs hold values set from outside; calcs declare the nodes they read
// and are recomputed only when one of those nodes changed. Nodes are kept
// in creation order, which is a topological order because a node can only
// depend on nodes that already exist.
//
// Usage:
//
//	g := reactive.New()
//	bins := reactive.NewInput(g, "bins", 20)
//	label := reactive.NewCalc(g, "label", func() reactive.Maybe[string] {
//	    return reactive.Some(fmt.Sprintf("%d bins", bins.Get()))
//	}, bins)
//
//	bins.Set(30)
//	g.Flush(ctx) // recomputes label only
//
// A graph is not safe for concurrent use; callers serialize Set and Flush.
package reactive

import (
	"context"
	"fmt"
	"time"
)

// ============================================================================
// GRAPH — node registry + recomputation cycle
// ============================================================================

// Hooks receives recomputation events. Used for logging and metrics.
type Hooks interface {
	Recomputed(node string, took time.Duration)
	Suspended(node string)
	Flushed(stats FlushStats)
}

// FlushStats describes one recomputation cycle.
type FlushStats struct {
	Cycle      uint64
	Recomputed []string
	Suspended  []string
	Duration   time.Duration
}

// Graph owns a set of nodes and runs recomputation cycles over them.
type Graph struct {
	nodes []*base
	hooks Hooks
	cycle uint64
}

// Option configures a Graph.
type Option func(*Graph)

// WithHooks installs an event sink.
func WithHooks(h Hooks) Option {
	return func(g *Graph) {
		if h != nil {
			g.hooks = h
		}
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{hooks: noopHooks{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Node is anything registered in a Graph.
type Node interface {
	Name() string
	node() *base
}

type base struct {
	g          *Graph
	id         int
	name       string
	deps       []*base
	dependents []*base

	stale     bool
	suspended bool
	runs      int

	// nil for inputs; reports (changed, ok)
	recompute func() (bool, bool)
}

func (b *base) node() *base { return b }

// Name returns the node name.
func (b *base) Name() string { return b.name }

// Runs returns how many times the node was successfully recomputed.
func (b *base) Runs() int { return b.runs }

// Stale reports whether the node awaits recomputation.
func (b *base) Stale() bool { return b.stale }

// Suspended reports whether the node's last recomputation attempt was
// withheld because a required input was missing.
func (b *base) Suspended() bool { return b.suspended }

func (b *base) markDependentsStale() {
	for _, d := range b.dependents {
		d.stale = true
	}
}

func (b *base) blocked() bool {
	for _, d := range b.deps {
		if d.suspended {
			return true
		}
	}
	return false
}

func (g *Graph) register(name string, deps []Node) *base {
	b := &base{g: g, id: len(g.nodes), name: name}
	for _, dep := range deps {
		d := dep.node()
		if d.g != g {
			panic(fmt.Sprintf("reactive: %s depends on %s from another graph", name, d.name))
		}
		b.deps = append(b.deps, d)
		d.dependents = append(d.dependents, b)
	}
	g.nodes = append(g.nodes, b)
	return b
}

// Flush runs one recomputation cycle: every stale node is visited in
// topological order. A node whose dependency is suspended, or whose own
// computation yields None, is suspended and stays stale; its last good
// value is kept. A successful recomputation clears staleness and marks
// direct dependents stale when the value changed.
//
// If ctx is cancelled the cycle stops; nodes not yet visited stay stale
// and are picked up by the next Flush.
func (g *Graph) Flush(ctx context.Context) (FlushStats, error) {
	g.cycle++
	start := time.Now()
	stats := FlushStats{Cycle: g.cycle}

	for _, n := range g.nodes {
		if !n.stale || n.recompute == nil {
			n.stale = false
			continue
		}
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("flush cycle %d: %w", g.cycle, err)
		}

		if n.blocked() {
			n.suspended = true
			stats.Suspended = append(stats.Suspended, n.name)
			g.hooks.Suspended(n.name)
			continue
		}

		t0 := time.Now()
		changed, ok := n.recompute()
		if !ok {
			n.suspended = true
			stats.Suspended = append(stats.Suspended, n.name)
			g.hooks.Suspended(n.name)
			continue
		}

		n.stale = false
		n.suspended = false
		n.runs++
		stats.Recomputed = append(stats.Recomputed, n.name)
		g.hooks.Recomputed(n.name, time.Since(t0))

		if changed {
			n.markDependentsStale()
		}
	}

	stats.Duration = time.Since(start)
	g.hooks.Flushed(stats)
	return stats, nil
}

// Pending returns the names of nodes awaiting recomputation.
func (g *Graph) Pending() []string {
	var names []string
	for _, n := range g.nodes {
		if n.stale {
			names = append(names, n.name)
		}
	}
	return names
}

// Cycle returns the number of Flush calls so far.
func (g *Graph) Cycle() uint64 { return g.cycle }

type noopHooks struct{}

func (noopHooks) Recomputed(string, time.Duration) {}
func (noopHooks) Suspended(string) {}
func (noopHooks) Flushed(FlushStats) {}
