package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil slice", input: nil, want: nil},
		{name: "empty slice", input: []string{}, want: []string{}},
		{name: "trims whitespace", input: []string{" acct-1 ", "acct-2  "}, want: []string{"acct-1", "acct-2"}},
		{name: "drops empties", input: []string{"acct-1", "", "   "}, want: []string{"acct-1"}},
		{name: "dedupes preserving order", input: []string{"b", "a", "b", "c", "a"}, want: []string{"b", "a", "c"}},
		{name: "keeps case-distinct values", input: []string{"Location", "location"}, want: []string{"Location", "location"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil slice", input: nil, want: nil},
		{name: "lowercases before comparing", input: []string{"Location", "NETWORK", "location"}, want: []string{"location", "network"}},
		{name: "trims then lowercases", input: []string{"  DEVICE ", "device"}, want: []string{"device"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrimLower(tt.input))
		})
	}
}
