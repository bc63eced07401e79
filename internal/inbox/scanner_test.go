package inbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ppc-optimizer/internal/config"
	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/service/optimization"
	"github.com/ignite/ppc-optimizer/internal/storage"
)

// fakeOptimizer answers by file name.
type fakeOptimizer struct {
	calls []optimization.RunRequest
}

func (f *fakeOptimizer) Optimize(_ context.Context, req optimization.RunRequest) (*domain.Result, error) {
	f.calls = append(f.calls, req)
	switch req.Filename {
	case "busy.csv":
		return nil, optimization.ErrRunInProgress
	case "broken.csv":
		return nil, errors.New("no data to optimize")
	}
	return &domain.Result{RunID: "run-" + req.ClientID, ClientID: req.ClientID}, nil
}

func inboxConfig() config.InboxConfig {
	return config.InboxConfig{
		Enabled:         true,
		Schedule:        "@every 1h",
		Prefix:          "inbox/",
		ProcessedPrefix: "processed/",
		FailedPrefix:    "failed/",
	}
}

func seed(t *testing.T, store storage.Store, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, store.PutObject(context.Background(), k, []byte("data of "+k), "text/csv"))
	}
}

func exists(t *testing.T, store storage.Store, key string) bool {
	t.Helper()
	_, err := store.GetObject(context.Background(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	require.NoError(t, err)
	return true
}

func TestScanOnce(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	seed(t, store,
		"inbox/acme/bulk.xlsx",
		"inbox/zeta/busy.csv",
		"inbox/zeta/broken.csv",
		"inbox/readme.md",
		"inbox/acme/notes.pdf",
		"inbox/acme/old/bulk.csv",
	)

	opt := &fakeOptimizer{}
	s := NewScanner(store, opt, inboxConfig())

	res, err := s.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Deferred)
	assert.Equal(t, 3, res.Ignored)
	assert.Equal(t, []string{"run-acme"}, res.RunIDs)

	require.Len(t, opt.calls, 3)
	for _, c := range opt.calls {
		assert.NotEmpty(t, c.Data)
		assert.NotEmpty(t, c.ClientID)
	}

	assert.False(t, exists(t, store, "inbox/acme/bulk.xlsx"))
	assert.True(t, exists(t, store, "processed/acme/run-acme_bulk.xlsx"))

	assert.True(t, exists(t, store, "inbox/zeta/busy.csv"), "deferred reports stay in the inbox")

	assert.False(t, exists(t, store, "inbox/zeta/broken.csv"))
	assert.True(t, exists(t, store, "failed/zeta/broken.csv"))
	note, err := store.GetObject(context.Background(), "failed/zeta/broken.csv.error.txt")
	require.NoError(t, err)
	assert.Contains(t, string(note), "no data to optimize")

	// Second scan only retries the deferred report.
	res, err = s.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deferred)
	assert.Zero(t, res.Processed)
	assert.Len(t, opt.calls, 4)
}

func TestSplit(t *testing.T) {
	s := NewScanner(nil, nil, inboxConfig())

	client, file, ok := s.split("inbox/acme/report.csv")
	assert.True(t, ok)
	assert.Equal(t, "acme", client)
	assert.Equal(t, "report.csv", file)

	for _, key := range []string{"inbox/report.csv", "other/acme/report.csv", "inbox/acme/x/report.csv", "inbox/acme/report.docx", "inbox//report.csv"} {
		_, _, ok := s.split(key)
		assert.False(t, ok, key)
	}
}

func TestStart(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	cfg := inboxConfig()
	cfg.Schedule = "not a schedule"
	_, err = NewScanner(store, &fakeOptimizer{}, cfg).Start(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	c, err := NewScanner(store, &fakeOptimizer{}, inboxConfig()).Start(ctx)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.Entries()[0].Next, time.Minute)
	cancel()
}
