package services

import (
	"github.com/leftovers/server/internal/models"
	"github.com/leftovers/server/internal/repository"
)

// PlannedDelete is a persisted leftover that the submission no longer lists
type PlannedDelete struct {
	Leftover models.Leftover
	// PhotoName is empty when the image URL does not point at the photo store
	PhotoName string
}

// PlannedCreate is a new leftover whose photo still has to be stored
type PlannedCreate struct {
	Leftover models.SubmittedLeftover
	Upload   models.PhotoUpload
}

// SyncPlan is the outcome of reconciling a submission against a party.
// Deletes, Updates and Creates are disjoint by leftover id.
type SyncPlan struct {
	Deletes []PlannedDelete
	Updates []repository.LeftoverUpdate
	Creates []PlannedCreate
	// Dropped lists new ids that arrived without a photo
	Dropped []string
}

// PlanReconciliation diffs the submitted leftovers against the persisted ones.
// Matching is by id only. Entries that are new and have no upload are
// dropped; the planner never touches the photo store.
func PlanReconciliation(persisted []models.Leftover, submitted []models.SubmittedLeftover, uploads map[string]models.PhotoUpload) (*SyncPlan, error) {
	submittedIDs := make(map[string]bool, len(submitted))
	for _, l := range submitted {
		if submittedIDs[l.ID] {
			return nil, models.ValidationError("duplicate leftover id '%s'", l.ID)
		}
		submittedIDs[l.ID] = true
	}

	persistedIDs := make(map[string]bool, len(persisted))
	for _, l := range persisted {
		persistedIDs[l.ID] = true
	}

	plan := &SyncPlan{
		Deletes: []PlannedDelete{},
		Updates: []repository.LeftoverUpdate{},
		Creates: []PlannedCreate{},
	}

	for _, l := range persisted {
		if submittedIDs[l.ID] {
			continue
		}
		name, _ := models.PhotoNameFromURL(l.ImageURL)
		plan.Deletes = append(plan.Deletes, PlannedDelete{Leftover: l, PhotoName: name})
	}

	for _, l := range submitted {
		if persistedIDs[l.ID] {
			plan.Updates = append(plan.Updates, repository.LeftoverUpdate{
				ID:          l.ID,
				Description: l.Description,
				Owner:       l.Owner,
			})
			continue
		}

		upload, ok := uploads[l.ID]
		if !ok {
			plan.Dropped = append(plan.Dropped, l.ID)
			continue
		}
		plan.Creates = append(plan.Creates, PlannedCreate{Leftover: l, Upload: upload})
	}

	return plan, nil
}

// DeleteIDs returns the ids of the planned deletes
func (p *SyncPlan) DeleteIDs() []string {
	ids := make([]string, len(p.Deletes))
	for i, d := range p.Deletes {
		ids[i] = d.Leftover.ID
	}
	return ids
}

// PhotoNamesToRemove returns the stored photo names of the planned deletes
func (p *SyncPlan) PhotoNamesToRemove() []string {
	names := make([]string, 0, len(p.Deletes))
	for _, d := range p.Deletes {
		if d.PhotoName != "" {
			names = append(names, d.PhotoName)
		}
	}
	return names
}
