package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubmittedParty(t *testing.T) {
	t.Run("parses a well formed submission", func(t *testing.T) {
		party, err := ParseSubmittedParty([]byte(`{
			"name": "Dinner",
			"leftovers": [
				{"id": "a", "description": "soup", "owner": ""},
				{"id": "b", "description": "", "owner": "Max"}
			]
		}`))
		require.NoError(t, err)

		assert.Equal(t, "Dinner", party.Name)
		assert.Equal(t, []SubmittedLeftover{
			{ID: "a", Description: "soup", Owner: ""},
			{ID: "b", Description: "", Owner: "Max"},
		}, party.Leftovers)
	})

	t.Run("accepts an empty name and no leftovers", func(t *testing.T) {
		party, err := ParseSubmittedParty([]byte(`{"name": "", "leftovers": []}`))
		require.NoError(t, err)
		assert.Equal(t, "", party.Name)
		assert.Empty(t, party.Leftovers)
	})

	t.Run("drops malformed entries silently", func(t *testing.T) {
		party, err := ParseSubmittedParty([]byte(`{
			"name": "Dinner",
			"leftovers": [
				"not an object",
				42,
				null,
				{"id": 7, "description": "soup", "owner": ""},
				{"id": "b", "description": "bread"},
				{"id": "c", "description": "cake", "owner": null},
				{"id": "d", "description": "dip", "owner": "", "extra": true}
			]
		}`))
		require.NoError(t, err)
		assert.Equal(t, []SubmittedLeftover{{ID: "d", Description: "dip", Owner: ""}}, party.Leftovers)
	})

	t.Run("rejects structurally invalid input", func(t *testing.T) {
		tests := []struct {
			name    string
			raw     string
			message string
		}{
			{"not json", `{"name":`, "party must be a JSON object"},
			{"array", `[]`, "party must be a JSON object"},
			{"null", `null`, "party must be a JSON object"},
			{"string", `"party"`, "party must be a JSON object"},
			{"missing name", `{"leftovers": []}`, "must include name string"},
			{"numeric name", `{"name": 1, "leftovers": []}`, "must include name string"},
			{"missing leftovers", `{"name": "x"}`, "must include leftovers array"},
			{"leftovers object", `{"name": "x", "leftovers": {}}`, "must include leftovers array"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseSubmittedParty([]byte(tt.raw))
				require.ErrorIs(t, err, ErrValidation)
				assert.EqualError(t, err, tt.message)
			})
		}
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		_, err := ParseSubmittedParty([]byte(`{"name": "x", "leftovers": [
			{"id": "a", "description": "", "owner": ""},
			{"id": "a", "description": "again", "owner": ""}
		]}`))
		assert.ErrorIs(t, err, ErrValidation)
		assert.EqualError(t, err, "duplicate leftover id 'a'")
	})
}
