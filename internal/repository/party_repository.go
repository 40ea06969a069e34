package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/leftovers/server/internal/models"
	"github.com/leftovers/server/internal/observability"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var _ PartyRepo = (*PartyRepository)(nil)

// PartyRepository handles party and leftover persistence.
// Queries are written with ? placeholders and rebound for PostgreSQL.
type PartyRepository struct {
	db       *sql.DB
	system   string
	postgres bool
}

// NewPartyRepository creates a PartyRepository for SQLite
func NewPartyRepository(db *sql.DB) *PartyRepository {
	return &PartyRepository{db: db, system: "sqlite"}
}

// NewPartyRepositoryPostgres creates a PartyRepository for PostgreSQL
func NewPartyRepositoryPostgres(db *sql.DB) *PartyRepository {
	return &PartyRepository{db: db, system: "postgresql", postgres: true}
}

// Close releases the database handle
func (r *PartyRepository) Close() error {
	return r.db.Close()
}

// Create persists a new party without leftovers
func (r *PartyRepository) Create(ctx context.Context, party *models.Party) error {
	ctx, span := observability.StartDBSpan(ctx, r.system, "INSERT", "parties")
	defer span.End()

	_, err := r.db.ExecContext(ctx,
		r.rebind(`INSERT INTO parties (id, name, created_at) VALUES (?, ?, ?)`),
		party.ID, party.Name, party.CreatedAt,
	)
	if err != nil {
		observability.RecordError(span, err)
		return models.StorageError("insert party", err)
	}

	return nil
}

// GetByID retrieves a party with its leftovers
func (r *PartyRepository) GetByID(ctx context.Context, id string) (*models.Party, error) {
	ctx, span := observability.StartDBSpan(ctx, r.system, "SELECT", "parties")
	defer span.End()

	party, err := r.getParty(ctx, r.db, id)
	if err != nil {
		observability.RecordError(span, err)
		return nil, models.StorageError("get party", err)
	}
	return party, nil
}

// Synchronize deletes, updates and inserts leftovers and renames the party
// in one transaction, then returns the party as read inside it.
func (r *PartyRepository) Synchronize(ctx context.Context, partyID string, changes SyncChanges) (*models.Party, error) {
	ctx, span := observability.StartDBSpan(ctx, r.system, "SYNC", "leftovers")
	defer span.End()
	span.SetAttributes(observability.PartyID(partyID))

	party, err := r.synchronize(ctx, partyID, changes)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.SetSuccess(span)
	return party, nil
}

func (r *PartyRepository) synchronize(ctx context.Context, partyID string, changes SyncChanges) (*models.Party, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, models.StorageError("begin transaction", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, r.rebind(`SELECT 1 FROM parties WHERE id = ?`), partyID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, models.NotFoundError("invalid id '%s'", partyID)
	}
	if err != nil {
		return nil, models.StorageError("lookup party", err)
	}

	if len(changes.DeleteIDs) > 0 {
		placeholders := make([]string, len(changes.DeleteIDs))
		args := make([]interface{}, 0, len(changes.DeleteIDs)+1)
		args = append(args, partyID)
		for i, id := range changes.DeleteIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}

		query := `DELETE FROM leftovers WHERE party_id = ? AND id IN (` + strings.Join(placeholders, ",") + `)`
		if _, err := tx.ExecContext(ctx, r.rebind(query), args...); err != nil {
			return nil, models.StorageError("delete leftovers", err)
		}
	}

	for _, u := range changes.Updates {
		_, err := tx.ExecContext(ctx,
			r.rebind(`UPDATE leftovers SET description = ?, owner = ? WHERE id = ? AND party_id = ?`),
			u.Description, u.Owner, u.ID, partyID,
		)
		if err != nil {
			return nil, models.StorageError("update leftover", err)
		}
	}

	now := time.Now().UTC()
	for i, l := range changes.Creates {
		// offsets keep submission order among leftovers created together
		createdAt := now.Add(time.Duration(i) * time.Microsecond)
		_, err := tx.ExecContext(ctx,
			r.rebind(`INSERT INTO leftovers (id, party_id, description, owner, image_url, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
			l.ID, partyID, l.Description, l.Owner, l.ImageURL, createdAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, models.ValidationError("leftover id '%s' is already in use", l.ID)
			}
			return nil, models.StorageError("insert leftover", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		r.rebind(`UPDATE parties SET name = ? WHERE id = ?`),
		changes.Name, partyID,
	)
	if err != nil {
		return nil, models.StorageError("rename party", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, models.StorageError("rename party", err)
	} else if n == 0 {
		return nil, models.NotFoundError("invalid id '%s'", partyID)
	}

	party, err := r.getParty(ctx, tx, partyID)
	if err != nil {
		return nil, models.StorageError("reload party", err)
	}
	if party == nil {
		return nil, models.NotFoundError("invalid id '%s'", partyID)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.StorageError("commit transaction", err)
	}

	return party, nil
}

// SetOwner updates the owner of a single leftover
func (r *PartyRepository) SetOwner(ctx context.Context, leftoverID, owner string) (*models.Leftover, error) {
	ctx, span := observability.StartDBSpan(ctx, r.system, "UPDATE", "leftovers")
	defer span.End()
	span.SetAttributes(observability.LeftoverID(leftoverID))

	result, err := r.db.ExecContext(ctx,
		r.rebind(`UPDATE leftovers SET owner = ? WHERE id = ?`),
		owner, leftoverID,
	)
	if err != nil {
		observability.RecordError(span, err)
		return nil, models.StorageError("update owner", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		observability.RecordError(span, err)
		return nil, models.StorageError("update owner", err)
	}
	if n == 0 {
		return nil, nil
	}

	var l models.Leftover
	err = r.db.QueryRowContext(ctx,
		r.rebind(`SELECT id, party_id, description, owner, image_url, created_at FROM leftovers WHERE id = ?`),
		leftoverID,
	).Scan(&l.ID, &l.PartyID, &l.Description, &l.Owner, &l.ImageURL, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, models.StorageError("get leftover", err)
	}

	return &l, nil
}

func (r *PartyRepository) getParty(ctx context.Context, q querier, id string) (*models.Party, error) {
	var party models.Party
	err := q.QueryRowContext(ctx,
		r.rebind(`SELECT id, name, created_at FROM parties WHERE id = ?`),
		id,
	).Scan(&party.ID, &party.Name, &party.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		r.rebind(`
		SELECT id, party_id, description, owner, image_url, created_at
		FROM leftovers WHERE party_id = ?
		ORDER BY created_at, id
	`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	party.Leftovers = []models.Leftover{}
	for rows.Next() {
		var l models.Leftover
		if err := rows.Scan(&l.ID, &l.PartyID, &l.Description, &l.Owner, &l.ImageURL, &l.CreatedAt); err != nil {
			return nil, err
		}
		party.Leftovers = append(party.Leftovers, l)
	}

	return &party, rows.Err()
}

// rebind rewrites ? placeholders to $n for PostgreSQL
func (r *PartyRepository) rebind(query string) string {
	if !r.postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "UNIQUE constraint")
}
