package stagegraph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruiting-pipeline/internal/models"
)

func TestDefault(t *testing.T) {
	g := Default()

	assert.Equal(t, []models.Stage{"applied", "screening", "interview", "offer", "offer_accepted", "rejected"}, g.Stages())
	assert.Equal(t, []models.Stage{"offer_accepted", "rejected"}, g.TerminalStages())
	assert.Equal(t, models.StageApplied, g.Initial())
	assert.Equal(t, models.StageRejected, g.Rejected())
	assert.Equal(t, models.StageOfferAccepted, g.Accepted())

	assert.ElementsMatch(t, []models.Stage{"screening", "rejected"}, g.AllowedNext("applied"))
	assert.ElementsMatch(t, []models.Stage{"offer_accepted", "rejected"}, g.AllowedNext("offer"))
	assert.Empty(t, g.AllowedNext("rejected"))
	assert.Empty(t, g.AllowedNext("bogus"))

	assert.True(t, g.IsValidStage("interview"))
	assert.False(t, g.IsValidStage("offer_sent"))
	assert.True(t, g.IsTerminal("offer_accepted"))
	assert.False(t, g.IsTerminal("bogus"))
	assert.False(t, g.CanTransition("applied", "interview"))
}

func TestEveryNonTerminalStageCanReject(t *testing.T) {
	g := Default()
	for _, s := range g.Stages() {
		if g.IsTerminal(s) {
			continue
		}
		assert.True(t, g.CanTransition(s, g.Rejected()), "stage %s", s)
	}
}

func TestAllowedNextReturnsCopy(t *testing.T) {
	g := Default()
	next := g.AllowedNext("applied")
	next[0] = "hacked"
	assert.ElementsMatch(t, []models.Stage{"screening", "rejected"}, g.AllowedNext("applied"))
}

func TestNew_RejectsBrokenGraphs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *Definition)
		wantErr string
	}{
		{"empty", func(d *Definition) { d.Stages = nil }, "no stages"},
		{"duplicate stage", func(d *Definition) { d.Stages = append(d.Stages, "offer") }, "listed twice"},
		{"dead end", func(d *Definition) { delete(d.Edges, "interview") }, `"interview" has no outgoing edge`},
		{"terminal with edge", func(d *Definition) { d.Edges["rejected"] = []string{"applied"} }, "terminal stage"},
		{"unknown target", func(d *Definition) { d.Edges["offer"] = []string{"offer_sent", "rejected"} }, "unknown stage"},
		{"no reject edge", func(d *Definition) { d.Edges["screening"] = []string{"interview"} }, `has no edge to "rejected"`},
		{"initial terminal", func(d *Definition) { d.Initial = "rejected" }, "initial stage"},
		{"unknown accepted", func(d *Definition) { d.Accepted = "hired" }, "accepted stage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := DefaultDefinition()
			tt.mutate(&def)
			_, err := New(def)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stages: [applied, screening, offer_sent, hired, rejected]
terminal: [hired, rejected]
initial: applied
rejected: rejected
accepted: hired
edges:
  applied: [screening, rejected]
  screening: [offer_sent, rejected]
  offer_sent: [hired, rejected]
`), 0o600))

	g, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, g.CanTransition("offer_sent", "hired"))
	assert.Equal(t, models.Stage("hired"), g.Accepted())

	g, err = LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default().Stages(), g.Stages())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOfferStage(t *testing.T) {
	assert.Equal(t, models.StageOffer, Default().OfferStage())

	def := DefaultDefinition()
	def.Stages = []string{"applied", "offer_extended", "hired", "rejected"}
	def.Terminal = []string{"hired", "rejected"}
	def.Accepted = "hired"
	def.Edges = map[string][]string{
		"applied":        {"offer_extended", "rejected"},
		"offer_extended": {"hired", "rejected"},
	}
	g, err := New(def)
	require.NoError(t, err)
	assert.Equal(t, models.Stage("offer_extended"), g.OfferStage())
}

func TestLoadFile_ShippedGraphMatchesDefault(t *testing.T) {
	g, err := LoadFile(filepath.Join("..", "..", "..", "configs", "stage-graph.yaml"))
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.Stages(), g.Stages())
	for _, s := range d.Stages() {
		assert.Equal(t, d.AllowedNext(s), g.AllowedNext(s), s)
	}
	assert.Equal(t, models.StageOffer, g.OfferStage())
}
