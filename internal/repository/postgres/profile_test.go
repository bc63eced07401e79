package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/service/optimization"
)

var profileCols = []string{"client_id", "name", "strategy", "target_acos", "min_conversion_rate", "min_clicks", "created_at", "updated_at"}

func TestProfileRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM client_profiles WHERE client_id = $1`)).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("acme", "Acme GmbH", "market-leader", 0.06, nil, int64(40), created, created))

	p, err := NewProfileRepo(db).Get(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", p.Name)
	assert.Equal(t, domain.StrategyMarketLeader, p.Strategy)
	require.NotNil(t, p.Overrides.TargetACOS)
	assert.Equal(t, 0.06, *p.Overrides.TargetACOS)
	assert.Nil(t, p.Overrides.MinConversionRate)
	require.NotNil(t, p.Overrides.MinClicks)
	assert.Equal(t, 40, *p.Overrides.MinClicks)
	assert.Equal(t, created, p.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM client_profiles`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(profileCols))

	_, err = NewProfileRepo(db).Get(context.Background(), "ghost")
	assert.True(t, errors.Is(err, optimization.ErrProfileNotFound))
}

func TestProfileRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`ORDER BY name, client_id`).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("a", "Alpha", "standard", nil, nil, nil, now, now).
			AddRow("b", "Beta", "large-inventory", nil, 0.12, nil, now, now))

	list, err := NewProfileRepo(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Overrides.IsZero())
	require.NotNil(t, list[1].Overrides.MinConversionRate)
	assert.Equal(t, 0.12, *list[1].Overrides.MinConversionRate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	acos := 0.15
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO client_profiles`).
		WithArgs("acme", "Acme", "standard", 0.15, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, updated))

	p := &domain.StoredProfile{
		ClientID:  "acme",
		Name:      "Acme",
		Strategy:  domain.StrategyStandard,
		Overrides: domain.ProfileOverrides{TargetACOS: &acos},
	}
	require.NoError(t, NewProfileRepo(db).Upsert(context.Background(), p))
	assert.Equal(t, created, p.CreatedAt)
	assert.Equal(t, updated, p.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM client_profiles`).WithArgs("acme").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM client_profiles`).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewProfileRepo(db)
	require.NoError(t, repo.Delete(context.Background(), "acme"))
	assert.True(t, errors.Is(repo.Delete(context.Background(), "ghost"), optimization.ErrProfileNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}
