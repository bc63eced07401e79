package warehouse

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ppc-optimizer/internal/config"
	"github.com/ignite/ppc-optimizer/internal/storage"
)

func record() storage.RunRecord {
	return storage.RunRecord{
		RunID:         "run-1",
		ClientID:      "acme",
		SourceFile:    "bulk.xlsx",
		Strategy:      "standard",
		TargetACOS:    0.2,
		Good:          4,
		Bad:           3,
		Pause:         1,
		Increases:     2,
		Decreases:     3,
		Skipped:       1,
		TotalBidDelta: -0.42,
		CreatedAt:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSink_RecordPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := record()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO optimization_runs`) + `.*` + regexp.QuoteMeta(`VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)).
		WithArgs(rec.RunID, rec.ClientID, rec.SourceFile, rec.Strategy, rec.TargetACOS,
			rec.Good, rec.Bad, rec.Pause, rec.Increases, rec.Decreases, rec.Skipped,
			rec.TotalBidDelta, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s, err := NewSink(db, "postgres", "optimization_runs")
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSink_RecordSnowflakePlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO PPC.PUBLIC.RUNS`) + `.*` + regexp.QuoteMeta(`VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s, err := NewSink(db, "snowflake", "PPC.PUBLIC.RUNS")
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), record()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSink_EnsureTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS optimization_runs`).WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := NewSink(db, "postgres", "optimization_runs")
	require.NoError(t, err)
	require.NoError(t, s.EnsureTable(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSink_RejectsBadTableName(t *testing.T) {
	_, err := NewSink(nil, "postgres", "runs; DROP TABLE x")
	assert.Error(t, err)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.WarehouseConfig{Driver: "mysql", Table: "runs"})
	assert.Error(t, err)
}

func TestSnowflakeDSN(t *testing.T) {
	assert.Equal(t, "u:p@acct/PPC/PUBLIC?warehouse=WH",
		SnowflakeDSN("ACCOUNT=acct;USER=u;PASSWORD=p;DB=PPC;SCHEMA=PUBLIC;WAREHOUSE=WH;"))
	assert.Equal(t, "u:p@acct/db/schema", SnowflakeDSN("u:p@acct/db/schema"))
}
