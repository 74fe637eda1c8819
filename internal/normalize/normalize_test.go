package normalize

import (
	"strings"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	n := New(DefaultConfig())

	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"hey chanty", "hey chanti"},
		{"hey shanti open gmail", "hey chanti open gmail"},
		{"a chanti", "hey chanti"},
		{"hint chanti", "hey chanti"},
		{"hnd chuntu", "hey chanti"},
		{"hey chandi", "hey chanti"},
		{"okay hey chanthi list processes", "okay hey chanti list processes"},
		{"hey", "hey"},
		{"  hey chanti  ", "hey chanti"},
		{"list processes", "list processes"},
		{"hey   chanti", "hey chanti"},
		{"a chanty", "hey chanti"},
		{"a  shanty open gmail", "hey chanti open gmail"},
		{"hey chantee", "hey chanti"},
		{"hey chantee open safari", "hey chanti open safari"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			if got := n.Normalize(tc.raw); got != tc.want {
				t.Fatalf("Normalize(%q): expected %q, got %q", tc.raw, tc.want, got)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New(DefaultConfig())

	samples := []string{
		"hey chanty",
		"hmt shanty",
		"a chanti start chrome",
		"hey chandi",
		"brightness up",
		"mt chunty kill 42",
		"a chanty",
		"a shanty open gmail",
		"a   chunti list processes",
		"hey chantee",
		"hmt  chanty",
		"",
	}
	for _, s := range samples {
		once := n.Normalize(s)
		twice := n.Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}

func TestNormalizeCustomWakePhrase(t *testing.T) {
	n := New(Config{
		WakePhrase:  "Okay Robot",
		Phrases:     []Correction{{From: "okay row bot", To: "okay robot"}, {From: "", To: "ignored"}},
		FirstWords:  []string{"ok"},
		SecondWords: []string{"robert", " Rowboat "},
	})

	tests := map[string]string{
		"okay row bot":   "okay robot",
		"ok robert":      "okay robot",
		"ok rowboat now": "okay robot now",
		"ok":             "ok",
	}
	for raw, want := range tests {
		if got := n.Normalize(raw); got != want {
			t.Fatalf("Normalize(%q): expected %q, got %q", raw, want, got)
		}
	}
}

func TestEmptyConfigFallsBackToDefaultWakePhrase(t *testing.T) {
	n := New(Config{FirstWords: []string{"hmm"}})

	got := n.Normalize("hmm there")
	if !strings.HasPrefix(got, "hey ") {
		t.Fatalf("expected canonical first word hey, got %q", got)
	}
}

func TestNormalizeLongerCorrectionWins(t *testing.T) {
	n := New(Config{
		WakePhrase: "okay robot",
		Phrases: []Correction{
			{From: "okay row bot", To: "okay robot"},
			{From: "okay row bots", To: "okay robot"},
		},
	})

	if got := n.Normalize("okay row bots go"); got != "okay robot go" {
		t.Fatalf("expected longer correction to win, got %q", got)
	}
}
