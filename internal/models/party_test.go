package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewParty(t *testing.T) {
	t.Run("keeps the given name", func(t *testing.T) {
		party := NewParty("Dinner")

		assert.NotEmpty(t, party.ID)
		assert.Equal(t, "Dinner", party.Name)
		assert.NotNil(t, party.Leftovers)
		assert.Empty(t, party.Leftovers)
		assert.WithinDuration(t, time.Now().UTC(), party.CreatedAt, 5*time.Second)
	})

	t.Run("falls back to the default name", func(t *testing.T) {
		assert.Equal(t, DefaultPartyName, NewParty("").Name)
		assert.Equal(t, DefaultPartyName, NewParty("   ").Name)
	})

	t.Run("generates unique ids", func(t *testing.T) {
		assert.NotEqual(t, NewParty("a").ID, NewParty("a").ID)
	})
}

func TestLeftoverIDs(t *testing.T) {
	party := &Party{Leftovers: []Leftover{{ID: "b"}, {ID: "a"}}}
	assert.Equal(t, []string{"b", "a"}, party.LeftoverIDs())
}

func TestPhotoNameFromURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
		ok       bool
	}{
		{"own url", PhotoURL("abc_soup.jpg"), "abc_soup.jpg", true},
		{"absolute url", "https://leftovers.example" + PhotoURL("abc_soup.jpg"), "abc_soup.jpg", true},
		{"prefix only", PhotoRoutePrefix, "", false},
		{"foreign url", "https://example.com/soup.jpg", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := PhotoNameFromURL(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, name)
		})
	}
}
