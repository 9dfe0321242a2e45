// Package stagegraph holds the immutable hiring stage graph: the ordered stage
// set, the terminal subset and the legal transition edges.
package stagegraph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"recruiting-pipeline/internal/models"
)

// Definition is the on-disk form of a graph.
type Definition struct {
	Stages   []string            `yaml:"stages"`
	Terminal []string            `yaml:"terminal"`
	Initial  string              `yaml:"initial"`
	Rejected string              `yaml:"rejected"`
	Accepted string              `yaml:"accepted"`
	Edges    map[string][]string `yaml:"edges"`
}

// Graph is read-only after New returns; it is safe for concurrent use.
type Graph struct {
	order    []models.Stage
	stages   map[models.Stage]bool
	terminal map[models.Stage]bool
	edges    map[models.Stage][]models.Stage
	initial  models.Stage
	rejected models.Stage
	accepted models.Stage
}

// DefaultDefinition is the canonical pipeline using the "offer" stage literal.
func DefaultDefinition() Definition {
	return Definition{
		Stages:   []string{"applied", "screening", "interview", "offer", "offer_accepted", "rejected"},
		Terminal: []string{"offer_accepted", "rejected"},
		Initial:  "applied",
		Rejected: "rejected",
		Accepted: "offer_accepted",
		Edges: map[string][]string{
			"applied":   {"screening", "rejected"},
			"screening": {"interview", "rejected"},
			"interview": {"offer", "rejected"},
			"offer":     {"offer_accepted", "rejected"},
		},
	}
}

// Default returns the canonical graph.
func Default() *Graph {
	g, err := New(DefaultDefinition())
	if err != nil {
		panic(fmt.Sprintf("default stage graph is invalid: %v", err))
	}
	return g
}

// LoadFile reads a YAML definition. An empty path yields the default graph.
func LoadFile(path string) (*Graph, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stage graph %s: %w", path, err)
	}
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse stage graph %s: %w", path, err)
	}
	return New(def)
}

// New validates def and builds a Graph. It rejects graphs where a non-terminal
// stage has no outgoing edge, a terminal stage has one, an edge leaves the stage
// set, or the rejected stage is unreachable from some non-terminal stage.
func New(def Definition) (*Graph, error) {
	if len(def.Stages) == 0 {
		return nil, fmt.Errorf("stage graph has no stages")
	}

	g := &Graph{
		stages:   make(map[models.Stage]bool, len(def.Stages)),
		terminal: make(map[models.Stage]bool, len(def.Terminal)),
		edges:    make(map[models.Stage][]models.Stage, len(def.Edges)),
		initial:  models.Stage(def.Initial),
		rejected: models.Stage(def.Rejected),
		accepted: models.Stage(def.Accepted),
	}

	for _, s := range def.Stages {
		st := models.Stage(s)
		if s == "" {
			return nil, fmt.Errorf("stage graph contains an empty stage name")
		}
		if g.stages[st] {
			return nil, fmt.Errorf("stage %q listed twice", s)
		}
		g.stages[st] = true
		g.order = append(g.order, st)
	}

	for _, s := range def.Terminal {
		st := models.Stage(s)
		if !g.stages[st] {
			return nil, fmt.Errorf("terminal stage %q is not in the stage set", s)
		}
		g.terminal[st] = true
	}

	for from, tos := range def.Edges {
		fs := models.Stage(from)
		if !g.stages[fs] {
			return nil, fmt.Errorf("edge source %q is not in the stage set", from)
		}
		if g.terminal[fs] && len(tos) > 0 {
			return nil, fmt.Errorf("terminal stage %q has outgoing edges", from)
		}
		seen := make(map[models.Stage]bool, len(tos))
		for _, to := range tos {
			ts := models.Stage(to)
			if !g.stages[ts] {
				return nil, fmt.Errorf("edge %s -> %s targets an unknown stage", from, to)
			}
			if ts == fs {
				return nil, fmt.Errorf("stage %q has a self edge", from)
			}
			if seen[ts] {
				continue
			}
			seen[ts] = true
			g.edges[fs] = append(g.edges[fs], ts)
		}
	}

	for _, st := range g.order {
		if !g.terminal[st] && len(g.edges[st]) == 0 {
			return nil, fmt.Errorf("non-terminal stage %q has no outgoing edge", st)
		}
	}

	for name, st := range map[string]models.Stage{"initial": g.initial, "rejected": g.rejected, "accepted": g.accepted} {
		if !g.stages[st] {
			return nil, fmt.Errorf("%s stage %q is not in the stage set", name, st)
		}
	}
	if g.terminal[g.initial] {
		return nil, fmt.Errorf("initial stage %q is terminal", g.initial)
	}
	if !g.terminal[g.rejected] || !g.terminal[g.accepted] {
		return nil, fmt.Errorf("rejected and accepted stages must be terminal")
	}
	for _, st := range g.order {
		if !g.terminal[st] && !g.CanTransition(st, g.rejected) {
			return nil, fmt.Errorf("stage %q has no edge to %q", st, g.rejected)
		}
	}
	return g, nil
}

// IsValidStage reports whether s is in the stage set.
func (g *Graph) IsValidStage(s models.Stage) bool { return g.stages[s] }

// IsTerminal reports whether s is terminal. Unknown stages are not terminal.
func (g *Graph) IsTerminal(s models.Stage) bool { return g.terminal[s] }

// AllowedNext returns the stages reachable from s in one step. Unknown and
// terminal stages yield an empty slice.
func (g *Graph) AllowedNext(s models.Stage) []models.Stage {
	out := make([]models.Stage, len(g.edges[s]))
	copy(out, g.edges[s])
	return out
}

// CanTransition reports whether from -> to is an edge.
func (g *Graph) CanTransition(from, to models.Stage) bool {
	for _, s := range g.edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Stages returns the stage set in declaration order.
func (g *Graph) Stages() []models.Stage {
	out := make([]models.Stage, len(g.order))
	copy(out, g.order)
	return out
}

// TerminalStages returns the terminal subset in declaration order.
func (g *Graph) TerminalStages() []models.Stage {
	var out []models.Stage
	for _, s := range g.order {
		if g.terminal[s] {
			out = append(out, s)
		}
	}
	return out
}

func (g *Graph) Initial() models.Stage  { return g.initial }
func (g *Graph) Rejected() models.Stage { return g.rejected }
func (g *Graph) Accepted() models.Stage { return g.accepted }

// OfferStage is the first non-terminal stage, in declaration order, with an edge
// into the accepted stage, or "" when none has one.
func (g *Graph) OfferStage() models.Stage {
	for _, s := range g.order {
		if !g.terminal[s] && g.CanTransition(s, g.accepted) {
			return s
		}
	}
	return ""
}
