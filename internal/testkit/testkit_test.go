package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	g := NewGenerator(Config{Rows: 30, Seed: 11})
	first := g.Records()
	second := g.Records()
	assert.Equal(t, first, second)

	other := NewGenerator(Config{Rows: 30, Seed: 12}).Records()
	assert.NotEqual(t, first, other)
}

func TestGeneratorCoversEveryGroupAndRegion(t *testing.T) {
	records := NewGenerator(DefaultConfig()).Records()
	groups := make(map[string]int)
	regions := make(map[string]int)
	for _, r := range records {
		groups[r.PopulationGroup]++
		regions[r.Region]++
	}
	assert.Len(t, groups, 4)
	assert.Len(t, regions, 6)
}

func TestKitProvisionsTrainedTree(t *testing.T) {
	kit, err := NewTestKit(t.TempDir(), Config{Rows: 60, Seed: 3}, "ridge")
	require.NoError(t, err)

	store, err := kit.Store(8)
	require.NoError(t, err)

	models, err := store.AvailableModels()
	require.NoError(t, err)
	assert.Equal(t, []string{"ridge"}, models)

	require.NoError(t, kit.WriteFigure("distribution.png"))
	figures, err := store.Figures()
	require.NoError(t, err)
	assert.Equal(t, []string{"distribution.png"}, figures)
}
