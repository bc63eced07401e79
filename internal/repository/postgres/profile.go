package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/service/optimization"
)

// ProfileRepo implements optimization.ProfileRepository against PostgreSQL.
// Override columns are NULL when the strategy default applies.
type ProfileRepo struct{ db *sql.DB }

// NewProfileRepo creates a Postgres-backed profile repository.
func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileColumns = `client_id, name, strategy, target_acos, min_conversion_rate, min_clicks, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(s rowScanner) (*domain.StoredProfile, error) {
	var (
		p      domain.StoredProfile
		acos   sql.NullFloat64
		minCR  sql.NullFloat64
		clicks sql.NullInt64
	)
	if err := s.Scan(&p.ClientID, &p.Name, &p.Strategy, &acos, &minCR, &clicks, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if acos.Valid {
		p.Overrides.TargetACOS = &acos.Float64
	}
	if minCR.Valid {
		p.Overrides.MinConversionRate = &minCR.Float64
	}
	if clicks.Valid {
		n := int(clicks.Int64)
		p.Overrides.MinClicks = &n
	}
	return &p, nil
}

func (r *ProfileRepo) Get(ctx context.Context, clientID string) (*domain.StoredProfile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM client_profiles WHERE client_id = $1`, clientID))
	if err == sql.ErrNoRows {
		return nil, optimization.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *ProfileRepo) List(ctx context.Context) ([]domain.StoredProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM client_profiles ORDER BY name, client_id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.StoredProfile) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO client_profiles (client_id, name, strategy, target_acos, min_conversion_rate, min_clicks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (client_id) DO UPDATE SET
			name = EXCLUDED.name,
			strategy = EXCLUDED.strategy,
			target_acos = EXCLUDED.target_acos,
			min_conversion_rate = EXCLUDED.min_conversion_rate,
			min_clicks = EXCLUDED.min_clicks,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`, p.ClientID, p.Name, string(p.Strategy),
		nullFloat(p.Overrides.TargetACOS), nullFloat(p.Overrides.MinConversionRate), nullInt(p.Overrides.MinClicks),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) Delete(ctx context.Context, clientID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM client_profiles WHERE client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n == 0 {
		return optimization.ErrProfileNotFound
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
