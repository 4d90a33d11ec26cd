package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifegate/workforce-engine/factory"
)

func TestGenerate(t *testing.T) {
	gen := factory.NewWorkerNumberGenerator("lgw", map[string]string{
		"Media":    "med",
		"Ushering": "USH",
	})

	tests := []struct {
		name string
		team string
		seq  int
		want string
	}{
		{"basic", "Media", 42, "LGW-MED-0042"},
		{"case-insensitive team", "media", 1, "LGW-MED-0001"},
		{"four digit padding", "Ushering", 7, "LGW-USH-0007"},
		{"grows past padding", "Media", 12345, "LGW-MED-12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gen.Generate(tt.team, tt.seq)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_UnknownTeam(t *testing.T) {
	gen := factory.NewWorkerNumberGenerator("LGW", factory.DefaultTeamCodes)

	_, err := gen.Generate("Basket Weaving", 1)
	assert.Error(t, err)
	assert.False(t, gen.KnownTeam("Basket Weaving"))
	assert.True(t, gen.KnownTeam("choir"))
}

func TestGenerate_InvalidSequence(t *testing.T) {
	gen := factory.NewWorkerNumberGenerator("LGW", factory.DefaultTeamCodes)

	_, err := gen.Generate("Media", 0)
	assert.Error(t, err)
	_, err = gen.Generate("Media", -3)
	assert.Error(t, err)
}

func TestNewWorkerNumberGenerator_CopiesMap(t *testing.T) {
	codes := map[string]string{"Media": "MED"}
	gen := factory.NewWorkerNumberGenerator("LGW", codes)

	codes["Media"] = "XXX"
	got, err := gen.Generate("Media", 1)
	require.NoError(t, err)
	assert.Equal(t, "LGW-MED-0001", got)
}
