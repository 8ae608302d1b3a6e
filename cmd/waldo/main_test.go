package main

import (
	"testing"

	"github.com/chazu/waldo/manifest"
)

func TestEffectiveVerbosity(t *testing.T) {
	configured := &manifest.Manifest{}
	configured.Log.Verbosity = 2

	cases := []struct {
		name      string
		m         *manifest.Manifest
		explicit  bool
		flagValue int
		want      int
	}{
		{"manifest applies without flag", configured, false, 0, 2},
		{"explicit flag overrides manifest", configured, true, 1, 1},
		{"explicit zero silences a configured manifest", configured, true, 0, 0},
		{"flag applies without manifest", nil, true, 3, 3},
		{"quiet default without either", nil, false, 0, 0},
	}

	for _, c := range cases {
		if got := effectiveVerbosity(c.m, c.explicit, c.flagValue); got != c.want {
			t.Errorf("%s: verbosity = %d, want %d", c.name, got, c.want)
		}
	}
}
