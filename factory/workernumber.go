/*
Package factory builds worker numbers from an explicit team configuration.

PURPOSE:
  Worker numbers encode the worker's team, e.g. LGW-MED-0042 for the 42nd
  member of the Media team. The team-name to code mapping is an explicit
  configuration map handed to the generator at construction - there is no
  package-level mutable lookup, and adding a team is a config change, not a
  code change.
*/
package factory

import (
	"fmt"
	"strings"
)

// DefaultTeamCodes is the stock mapping for a typical church workforce.
// Deployments pass their own map to NewWorkerNumberGenerator.
var DefaultTeamCodes = map[string]string{
	"Media":       "MED",
	"Ushering":    "USH",
	"Choir":       "CHR",
	"Protocol":    "PRT",
	"Children":    "CHL",
	"Technical":   "TEC",
	"Sanctuary":   "SAN",
	"Evangelism":  "EVA",
	"Hospitality": "HSP",
}

// WorkerNumberGenerator produces team-scoped worker numbers.
type WorkerNumberGenerator struct {
	prefix    string
	teamCodes map[string]string
}

// NewWorkerNumberGenerator creates a generator with the given organization
// prefix and team-name to code map. The map is copied; later mutation of
// the caller's map has no effect.
func NewWorkerNumberGenerator(prefix string, teamCodes map[string]string) *WorkerNumberGenerator {
	codes := make(map[string]string, len(teamCodes))
	for name, code := range teamCodes {
		codes[strings.ToLower(name)] = strings.ToUpper(code)
	}
	return &WorkerNumberGenerator{prefix: strings.ToUpper(prefix), teamCodes: codes}
}

// Generate returns the worker number for the seq-th member of the team.
// Team lookup is case-insensitive; an unknown team is an error.
func (g *WorkerNumberGenerator) Generate(teamName string, seq int) (string, error) {
	code, ok := g.teamCodes[strings.ToLower(teamName)]
	if !ok {
		return "", fmt.Errorf("unknown team %q", teamName)
	}
	if seq <= 0 {
		return "", fmt.Errorf("sequence must be positive, got %d", seq)
	}
	return fmt.Sprintf("%s-%s-%04d", g.prefix, code, seq), nil
}

// KnownTeam reports whether the generator has a code for the team.
func (g *WorkerNumberGenerator) KnownTeam(teamName string) bool {
	_, ok := g.teamCodes[strings.ToLower(teamName)]
	return ok
}
