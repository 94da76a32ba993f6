package models_test

import (
	"testing"

	"github.com/mkallio/manweek/internal/models"
)

func TestTimeEntryValidate(t *testing.T) {
	valid := models.TimeEntry{
		StartTS:       1710403200,
		EndTS:         1710406800,
		ActiveSeconds: 3000,
		IdleSeconds:   600,
		ModeLabel:     "Coding",
		Source:        models.SourceAuto,
	}

	testCases := []struct {
		name    string
		mutate  func(e *models.TimeEntry)
		wantErr bool
	}{
		{
			name:   "valid entry",
			mutate: func(_ *models.TimeEntry) {},
		},
		{
			name: "one second of rounding slack is tolerated",
			mutate: func(e *models.TimeEntry) {
				e.ActiveSeconds = 2999
			},
		},
		{
			name: "end equals start",
			mutate: func(e *models.TimeEntry) {
				e.EndTS = e.StartTS
			},
			wantErr: true,
		},
		{
			name: "end before start",
			mutate: func(e *models.TimeEntry) {
				e.EndTS = e.StartTS - 60
			},
			wantErr: true,
		},
		{
			name: "below minimum duration",
			mutate: func(e *models.TimeEntry) {
				e.EndTS = e.StartTS + 9
				e.ActiveSeconds = 9
				e.IdleSeconds = 0
			},
			wantErr: true,
		},
		{
			name: "negative component",
			mutate: func(e *models.TimeEntry) {
				e.ActiveSeconds = 3700
				e.IdleSeconds = -100
			},
			wantErr: true,
		},
		{
			name: "components exceed the slack",
			mutate: func(e *models.TimeEntry) {
				e.ActiveSeconds = 2998
			},
			wantErr: true,
		},
		{
			name: "whitespace-only mode",
			mutate: func(e *models.TimeEntry) {
				e.ModeLabel = "  \t "
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry := valid
			tc.mutate(&entry)

			err := entry.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected the entry to be rejected")
			}

			if !tc.wantErr && err != nil {
				t.Fatalf("expected the entry to be accepted, got: %v", err)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"Coding", "coding"},
		{"  Deep Work  ", "deep work"},
		{"LUNCH", "lunch"},
		{"   ", ""},
	}

	for _, tc := range testCases {
		if got := models.Canonical(tc.in); got != tc.want {
			t.Errorf("Canonical(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
