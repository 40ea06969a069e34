package services

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leftovers/server/internal/models"
	"github.com/leftovers/server/internal/repository"
)

func testUpload(content string) models.PhotoUpload {
	return models.PhotoUpload{
		Filename: "photo.jpg",
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(content))), nil
		},
	}
}

func persistedLeftover(id, description, owner string) models.Leftover {
	return models.Leftover{
		ID:          id,
		PartyID:     "party",
		Description: description,
		Owner:       owner,
		ImageURL:    models.PhotoURL(id + "-uuid_" + id + ".jpg"),
	}
}

func TestPlanReconciliation(t *testing.T) {
	t.Run("unchanged ids become updates", func(t *testing.T) {
		persisted := []models.Leftover{persistedLeftover("a", "soup", "")}
		submitted := []models.SubmittedLeftover{{ID: "a", Description: "soup", Owner: "Max"}}

		plan, err := PlanReconciliation(persisted, submitted, nil)
		require.NoError(t, err)

		assert.Empty(t, plan.Deletes)
		assert.Empty(t, plan.Creates)
		assert.Equal(t, []repository.LeftoverUpdate{{ID: "a", Description: "soup", Owner: "Max"}}, plan.Updates)
	})

	t.Run("missing ids become deletes with their photo names", func(t *testing.T) {
		persisted := []models.Leftover{persistedLeftover("a", "soup", ""), persistedLeftover("b", "bread", "")}
		submitted := []models.SubmittedLeftover{{ID: "a", Description: "soup"}}

		plan, err := PlanReconciliation(persisted, submitted, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"b"}, plan.DeleteIDs())
		assert.Equal(t, []string{"b-uuid_b.jpg"}, plan.PhotoNamesToRemove())
		assert.Len(t, plan.Updates, 1)
	})

	t.Run("new ids with uploads become creates", func(t *testing.T) {
		submitted := []models.SubmittedLeftover{{ID: "c", Description: "cake", Owner: ""}}
		uploads := map[string]models.PhotoUpload{"c": testUpload("img")}

		plan, err := PlanReconciliation(nil, submitted, uploads)
		require.NoError(t, err)

		require.Len(t, plan.Creates, 1)
		assert.Equal(t, "c", plan.Creates[0].Leftover.ID)
		assert.Equal(t, "cake", plan.Creates[0].Leftover.Description)
		assert.Empty(t, plan.Dropped)
	})

	t.Run("new ids without uploads are dropped silently", func(t *testing.T) {
		submitted := []models.SubmittedLeftover{{ID: "c", Description: "cake"}}

		plan, err := PlanReconciliation(nil, submitted, map[string]models.PhotoUpload{"other": testUpload("x")})
		require.NoError(t, err)

		assert.Empty(t, plan.Creates)
		assert.Empty(t, plan.Updates)
		assert.Equal(t, []string{"c"}, plan.Dropped)
	})

	t.Run("uploads for persisted ids are ignored", func(t *testing.T) {
		persisted := []models.Leftover{persistedLeftover("a", "soup", "")}
		submitted := []models.SubmittedLeftover{{ID: "a", Description: "soup"}}

		plan, err := PlanReconciliation(persisted, submitted, map[string]models.PhotoUpload{"a": testUpload("x")})
		require.NoError(t, err)

		assert.Empty(t, plan.Creates)
		assert.Len(t, plan.Updates, 1)
	})

	t.Run("action sets are disjoint and cover the expected ids", func(t *testing.T) {
		persisted := []models.Leftover{
			persistedLeftover("a", "", ""),
			persistedLeftover("b", "", ""),
			persistedLeftover("c", "", ""),
		}
		submitted := []models.SubmittedLeftover{{ID: "b"}, {ID: "d"}, {ID: "e"}}
		uploads := map[string]models.PhotoUpload{"d": testUpload("d"), "a": testUpload("a")}

		plan, err := PlanReconciliation(persisted, submitted, uploads)
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"a", "c"}, plan.DeleteIDs())
		require.Len(t, plan.Updates, 1)
		assert.Equal(t, "b", plan.Updates[0].ID)
		require.Len(t, plan.Creates, 1)
		assert.Equal(t, "d", plan.Creates[0].Leftover.ID)
		assert.Equal(t, []string{"e"}, plan.Dropped)
	})

	t.Run("duplicate submitted ids are rejected", func(t *testing.T) {
		submitted := []models.SubmittedLeftover{{ID: "a"}, {ID: "a", Owner: "Max"}}

		_, err := PlanReconciliation(nil, submitted, nil)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("foreign image URLs are deleted without a photo name", func(t *testing.T) {
		persisted := []models.Leftover{{ID: "a", ImageURL: "https://example.com/a.jpg"}}

		plan, err := PlanReconciliation(persisted, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"a"}, plan.DeleteIDs())
		assert.Empty(t, plan.PhotoNamesToRemove())
	})
}
