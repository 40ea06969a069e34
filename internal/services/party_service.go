package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leftovers/server/internal/models"
	"github.com/leftovers/server/internal/observability"
	"github.com/leftovers/server/internal/repository"
)

// maxParallelStores bounds concurrent photo writes and removals within one
// synchronization
const maxParallelStores = 4

// PartyService drives party creation, synchronization and claims
type PartyService struct {
	repo    repository.PartyRepo
	photos  PhotoStore
	events  EventPublisher
	metrics *observability.SyncMetrics
	logger  *observability.Logger
}

// NewPartyService creates a new PartyService. events and metrics may be nil.
func NewPartyService(repo repository.PartyRepo, photos PhotoStore, events EventPublisher, metrics *observability.SyncMetrics) *PartyService {
	return &PartyService{
		repo:    repo,
		photos:  photos,
		events:  events,
		metrics: metrics,
		logger:  observability.GetLogger().WithField("component", "party_service"),
	}
}

// Create persists a new party without leftovers
func (s *PartyService) Create(ctx context.Context, name string) (*models.Party, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PartyService", "Create")
	defer span.End()

	party := models.NewParty(name)
	span.SetAttributes(observability.PartyID(party.ID))

	if err := s.repo.Create(ctx, party); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to create party: %w", err)
	}

	s.logger.WithContext(ctx).WithField("party_id", party.ID).Infof("created party %q", party.Name)
	return party, nil
}

// Get returns the party with its leftovers
func (s *PartyService) Get(ctx context.Context, id string) (*models.Party, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PartyService", "Get")
	defer span.End()
	span.SetAttributes(observability.PartyID(id))

	party, err := s.repo.GetByID(ctx, id)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if party == nil {
		return nil, models.NotFoundError("invalid id '%s'", id)
	}
	return party, nil
}

// Synchronize reconciles a submitted party against the persisted one.
//
// New photos are stored before the transaction starts. When the transaction
// fails those photos are left orphaned. Photos of deleted leftovers are removed
// only after commit, and a failed removal never fails the call.
func (s *PartyService) Synchronize(ctx context.Context, partyID string, submitted *models.SubmittedParty, uploads map[string]models.PhotoUpload) (*models.Party, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PartyService", "Synchronize")
	defer span.End()
	span.SetAttributes(observability.PartyID(partyID))
	start := time.Now()

	party, plan, err := s.synchronize(ctx, partyID, submitted, uploads)
	if err != nil {
		observability.RecordError(span, err)
		s.metrics.RecordSync(ctx, 0, 0, 0, false)
		return nil, err
	}

	s.metrics.RecordSync(ctx, len(plan.Creates), len(plan.Updates), len(plan.Deletes), true)
	span.SetAttributes(observability.Duration(time.Since(start)))
	observability.SetSuccess(span)

	s.publish(partyID, EventPartyUpdated, party)
	s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"party_id": partyID,
		"created":  len(plan.Creates),
		"updated":  len(plan.Updates),
		"deleted":  len(plan.Deletes),
		"dropped":  len(plan.Dropped),
	}).Info("party synchronized")

	return party, nil
}

func (s *PartyService) synchronize(ctx context.Context, partyID string, submitted *models.SubmittedParty, uploads map[string]models.PhotoUpload) (*models.Party, *SyncPlan, error) {
	if submitted == nil {
		return nil, nil, models.ValidationError("party must be a JSON object")
	}

	current, err := s.Get(ctx, partyID)
	if err != nil {
		return nil, nil, err
	}

	plan, err := PlanReconciliation(current.Leftovers, submitted.Leftovers, uploads)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range plan.Dropped {
		s.logger.WithContext(ctx).WithField("leftover_id", id).Debugf("dropping new leftover without photo")
	}

	creates, err := s.storePhotos(ctx, plan.Creates)
	if err != nil {
		return nil, nil, err
	}

	party, err := s.repo.Synchronize(ctx, partyID, repository.SyncChanges{
		DeleteIDs: plan.DeleteIDs(),
		Updates:   plan.Updates,
		Creates:   creates,
		Name:      submitted.Name,
	})
	if err != nil {
		s.reportOrphans(ctx, creates, err)
		return nil, nil, err
	}

	s.removePhotos(ctx, plan.PhotoNamesToRemove())
	return party, plan, nil
}

// storePhotos writes the uploads of all planned creates in parallel and
// returns the leftovers to insert. On failure the photos already written are
// removed again.
func (s *PartyService) storePhotos(ctx context.Context, planned []PlannedCreate) ([]models.Leftover, error) {
	creates := make([]models.Leftover, len(planned))
	if len(planned) == 0 {
		return creates, nil
	}

	ctx, span := observability.StartSpan(ctx, "PartyService.storePhotos")
	defer span.End()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelStores)

	for i, pc := range planned {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			name, err := s.storeUpload(pc.Upload)
			if err != nil {
				return fmt.Errorf("failed to store photo for leftover '%s': %w", pc.Leftover.ID, err)
			}

			creates[i] = models.Leftover{
				ID:          pc.Leftover.ID,
				Description: pc.Leftover.Description,
				Owner:       pc.Leftover.Owner,
				ImageURL:    models.PhotoURL(name),
			}
			observability.AddEvent(span, "photo.stored", observability.LeftoverID(pc.Leftover.ID), observability.PhotoName(name))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		stored := make([]string, 0, len(creates))
		for _, l := range creates {
			if name, ok := models.PhotoNameFromURL(l.ImageURL); ok {
				stored = append(stored, name)
			}
		}
		s.removePhotos(ctx, stored)
		return nil, err
	}

	s.metrics.RecordPhoto(ctx, "stored", len(creates))
	return creates, nil
}

func (s *PartyService) storeUpload(upload models.PhotoUpload) (string, error) {
	if upload.Open == nil {
		return "", models.StorageError("open upload", errors.New("upload has no content"))
	}

	reader, err := upload.Open()
	if err != nil {
		return "", models.StorageError("open upload", err)
	}
	defer reader.Close()

	return s.photos.Store(reader, upload.Filename, upload.Size)
}

// removePhotos deletes stored photos concurrently. Failures are logged as
// orphans and otherwise ignored.
func (s *PartyService) removePhotos(ctx context.Context, names []string) {
	if len(names) == 0 {
		return
	}

	var removed, orphans atomic.Int64

	var g errgroup.Group
	g.SetLimit(maxParallelStores)
	for _, name := range names {
		g.Go(func() error {
			if err := s.photos.Remove(name); err != nil {
				s.logger.WithContext(ctx).WithField("photo", name).Warnf("orphaned photo, removal failed: %v", err)
				orphans.Add(1)
				return nil
			}
			removed.Add(1)
			return nil
		})
	}
	g.Wait()

	s.metrics.RecordPhoto(ctx, "removed", int(removed.Load()))
	s.metrics.RecordPhoto(ctx, "orphaned", int(orphans.Load()))
}

func (s *PartyService) reportOrphans(ctx context.Context, creates []models.Leftover, cause error) {
	for _, l := range creates {
		name, _ := models.PhotoNameFromURL(l.ImageURL)
		s.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"photo":       name,
			"leftover_id": l.ID,
		}).Warnf("orphaned photo, synchronization failed: %v", cause)
	}
	s.metrics.RecordPhoto(ctx, "orphaned", len(creates))
}

// SetOwner claims a leftover for owner, or unclaims it when owner is empty.
// Concurrent claims are not coordinated; the last write wins.
func (s *PartyService) SetOwner(ctx context.Context, leftoverID, owner string) (*models.Leftover, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PartyService", "SetOwner")
	defer span.End()
	span.SetAttributes(observability.LeftoverID(leftoverID))

	leftover, err := s.repo.SetOwner(ctx, leftoverID, owner)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if leftover == nil {
		return nil, models.NotFoundError("no leftover with id '%s'", leftoverID)
	}

	s.metrics.RecordClaim(ctx, owner == "")
	s.publish(leftover.PartyID, EventLeftoverClaimed, leftover)
	observability.SetSuccess(span)

	return leftover, nil
}

func (s *PartyService) publish(partyID, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(PartyTopic(partyID), PartyEvent{Type: eventType, Payload: payload})
}
