package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCandidates(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty",
			text: "",
			want: []string{},
		},
		{
			name: "no dates",
			text: "Feuchtigkeitscreme 50 ml",
			want: []string{},
		},
		{
			name: "german dotted with overlapping short form",
			text: "12.06.2025",
			want: []string{"12.06.2025", "06.2025"},
		},
		{
			name: "mhd prefix keeps marker",
			text: "MHD: 12.06.2025 best before",
			want: []string{"MHD: 12.06.2025", "12.06.2025", "06.2025"},
		},
		{
			name: "exp prefix short form",
			text: "exp 08/2026",
			want: []string{"exp 08/2026", "08/2026"},
		},
		{
			name: "iso",
			text: "LOT A12 2026-03-01",
			want: []string{"2026-03-01"},
		},
		{
			name: "first occurrence order",
			text: "made 2024-01-15 use by 03/2026",
			want: []string{"2024-01-15", "03/2026"},
		},
		{
			name: "duplicates removed",
			text: "04.2027 / 04.2027",
			want: []string{"04.2027"},
		},
		{
			name: "german month name",
			text: "Mindestens haltbar bis 01. MÄR. 2026",
			want: []string{"01. MÄR. 2026"},
		},
		{
			name: "english month name lowercase",
			text: "best before 15 oct 2025",
			want: []string{"15 oct 2025"},
		},
		{
			name: "syntactic only",
			text: "31.02.2025",
			want: []string{"31.02.2025", "02.2025"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractCandidates(tc.text))
		})
	}
}

func TestExtractCandidates_NormalizeAll(t *testing.T) {
	text := "Charge 4711\nMHD: 12.06.2025\nEXP 2026/01/31\n31.02.2025"

	var parsed []string
	var failed []string
	for _, c := range ExtractCandidates(text) {
		d, err := Normalize(c)
		if err != nil {
			failed = append(failed, c)
			continue
		}
		parsed = append(parsed, d)
	}

	assert.Contains(t, parsed, "2025-06-12")
	assert.Contains(t, parsed, "2026-01-31")
	assert.Contains(t, failed, "31.02.2025")
}
