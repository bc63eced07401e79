package optimization

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/ppc-optimizer/internal/datanorm"
	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/export"
	"github.com/ignite/ppc-optimizer/internal/optimizer"
	"github.com/ignite/ppc-optimizer/internal/pkg/distlock"
	"github.com/ignite/ppc-optimizer/internal/pkg/logger"
	"github.com/ignite/ppc-optimizer/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Deps bundles the collaborators of the Service. Cache and Sink are optional.
type Deps struct {
	Profiles ProfileRepository
	Store    storage.Store
	Cache    ResultCache
	Sink     RunSink
	Locks    distlock.Factory
}

// Settings holds the run-wide options taken from configuration.
type Settings struct {
	Run             optimizer.Options
	DefaultStrategy domain.Strategy
	Export          export.Options
	TopChanges      int
}

// Service implements the optimization workflow. All public methods are safe
// for concurrent use if the underlying collaborators are.
type Service struct {
	deps     Deps
	settings Settings
	summary  *export.SummaryRenderer
	now      func() time.Time
}

// NewService creates an optimization service.
func NewService(deps Deps, settings Settings) *Service {
	if deps.Locks == nil {
		deps.Locks = distlock.NewFactory(nil, nil, 0)
	}
	if settings.DefaultStrategy == "" {
		settings.DefaultStrategy = domain.StrategyStandard
	}
	if settings.TopChanges == 0 {
		settings.TopChanges = export.DefaultTopChanges
	}
	return &Service{
		deps:     deps,
		settings: settings,
		summary:  export.NewSummaryRenderer(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StrategyInfo is one row of the strategy defaults table.
type StrategyInfo struct {
	Strategy domain.Strategy `json:"strategy"`
	domain.Thresholds
}

// Strategies returns the defaults of every supported strategy.
func (s *Service) Strategies() []StrategyInfo {
	out := make([]StrategyInfo, 0, len(domain.AllStrategies()))
	for _, st := range domain.AllStrategies() {
		th, _ := optimizer.StrategyDefaults(st)
		out = append(out, StrategyInfo{Strategy: st, Thresholds: th})
	}
	return out
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// GetProfile returns a stored profile together with its resolved thresholds.
func (s *Service) GetProfile(ctx context.Context, clientID string) (*domain.StoredProfile, domain.ClientProfile, error) {
	sp, err := s.deps.Profiles.Get(ctx, clientID)
	if err != nil {
		return nil, domain.ClientProfile{}, err
	}
	p, err := optimizer.ResolveProfile(sp.Name, sp.Strategy, sp.Overrides)
	if err != nil {
		return nil, domain.ClientProfile{}, err
	}
	p.ClientID = sp.ClientID
	return sp, p, nil
}

// ListProfiles returns all stored profiles.
func (s *Service) ListProfiles(ctx context.Context) ([]domain.StoredProfile, error) {
	return s.deps.Profiles.List(ctx)
}

// ProfileInput is the mutable part of a stored profile.
type ProfileInput struct {
	Name      string                  `json:"name"`
	Strategy  domain.Strategy         `json:"strategy"`
	Overrides domain.ProfileOverrides `json:"overrides"`
}

// SaveProfile validates and persists a profile. The thresholds must resolve
// to a valid ClientProfile, so a bad override is rejected with a ConfigError.
func (s *Service) SaveProfile(ctx context.Context, clientID string, in ProfileInput) (*domain.StoredProfile, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, &optimizer.ConfigError{Field: "client_id", Value: clientID, Reason: "must not be empty"}
	}
	if in.Strategy == "" {
		in.Strategy = s.settings.DefaultStrategy
	}
	if in.Name == "" {
		in.Name = clientID
	}
	if _, err := optimizer.ResolveProfile(in.Name, in.Strategy, in.Overrides); err != nil {
		return nil, err
	}

	sp := &domain.StoredProfile{
		ClientID:  clientID,
		Name:      in.Name,
		Strategy:  in.Strategy,
		Overrides: in.Overrides,
	}
	if err := s.deps.Profiles.Upsert(ctx, sp); err != nil {
		return nil, fmt.Errorf("save profile %s: %w", clientID, err)
	}
	logger.Info("profile saved", "client_id", clientID, "strategy", string(in.Strategy))
	return sp, nil
}

// DeleteProfile removes a stored profile.
func (s *Service) DeleteProfile(ctx context.Context, clientID string) error {
	return s.deps.Profiles.Delete(ctx, clientID)
}

// resolve merges the stored profile of clientID (if any) with the request.
// A client without a stored profile needs an explicit strategy or overrides.
func (s *Service) resolve(ctx context.Context, req RunRequest) (domain.ClientProfile, error) {
	name := req.ClientID
	strategy := req.Strategy
	overrides := req.Overrides

	if req.ClientID != "" {
		sp, err := s.deps.Profiles.Get(ctx, req.ClientID)
		switch {
		case err == nil:
			name = sp.Name
			if strategy == "" {
				strategy = sp.Strategy
			}
			overrides = sp.Overrides.Merge(req.Overrides)
		case errors.Is(err, ErrProfileNotFound):
			if req.Strategy == "" && req.Overrides.IsZero() {
				return domain.ClientProfile{}, err
			}
		default:
			return domain.ClientProfile{}, fmt.Errorf("load profile %s: %w", req.ClientID, err)
		}
	}
	if strategy == "" {
		strategy = s.settings.DefaultStrategy
	}

	p, err := optimizer.ResolveProfile(name, strategy, overrides)
	if err != nil {
		return domain.ClientProfile{}, err
	}
	p.ClientID = req.ClientID
	return p, nil
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

// RunRequest is one uploaded bulk report to optimize.
type RunRequest struct {
	ClientID  string
	Filename  string
	Data      []byte
	Strategy  domain.Strategy
	Overrides domain.ProfileOverrides
}

// Optimize runs the optimizer over an uploaded report and persists the
// outcome. Configuration errors are returned before the report is parsed.
// Runs of the same client are serialized; a concurrent run gets
// ErrRunInProgress. Runs without a client ID are not locked.
func (s *Service) Optimize(ctx context.Context, req RunRequest) (*domain.Result, error) {
	if len(req.Data) == 0 {
		return nil, ErrEmptyReport
	}
	p, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.settings.Run.Limits.Validate(); err != nil {
		return nil, err
	}

	if req.ClientID != "" {
		release, err := s.lock(ctx, req.ClientID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	start := time.Now()
	wb, rep, err := datanorm.Parse(bytes.NewReader(req.Data), req.Filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", req.Filename, err)
	}

	res, err := optimizer.Run(rep.Rows, p, s.settings.Run)
	if err != nil {
		return nil, err
	}
	res.RunID = uuid.New().String()
	res.ClientID = req.ClientID
	res.SourceFile = path.Base(req.Filename)
	res.CreatedAt = s.now()

	if err := s.persist(ctx, req.Data, wb, rep, res); err != nil {
		return nil, err
	}

	logger.Info("optimization run finished",
		"run_id", res.RunID,
		"client_id", res.ClientID,
		"sheet", rep.Sheet,
		"rows", res.Summary.TotalRows,
		"good", res.Summary.Good,
		"bad", res.Summary.Bad,
		"pause", res.Summary.Pause,
		"skipped", res.Summary.Skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// persist stores the report, the result and the export, then feeds the cache
// and the sink. Cache and sink failures are logged, not returned.
func (s *Service) persist(ctx context.Context, original []byte, wb *datanorm.Workbook, rep *datanorm.Report, res *domain.Result) error {
	reportKey := storage.ReportKey(res.ClientID, res.RunID, res.SourceFile)
	if err := s.deps.Store.PutObject(ctx, reportKey, original, contentType(wb.Format)); err != nil {
		return fmt.Errorf("store report: %w", err)
	}

	rec := storage.NewRunRecord(res, reportKey)
	var out bytes.Buffer
	if _, err := export.WriteWorkbook(&out, original, wb, rep, res, s.settings.Export); err != nil {
		logger.Warn("export failed", "run_id", res.RunID, "error", err.Error())
	} else if err := s.deps.Store.PutObject(ctx, storage.ExportKey(res.RunID), out.Bytes(), xlsxContentType); err != nil {
		return fmt.Errorf("store export: %w", err)
	}

	if err := s.deps.Store.SaveRun(ctx, rec, res); err != nil {
		return fmt.Errorf("store result: %w", err)
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, res); err != nil {
			logger.Warn("result cache set failed", "run_id", res.RunID, "error", err.Error())
		}
	}
	if s.deps.Sink != nil {
		if err := s.deps.Sink.Record(ctx, rec); err != nil {
			logger.Warn("run sink failed", "run_id", res.RunID, "error", err.Error())
		}
	}
	return nil
}

// GetRun returns a stored result, from the cache when possible.
func (s *Service) GetRun(ctx context.Context, runID string) (*domain.Result, error) {
	if s.deps.Cache != nil {
		res, err := s.deps.Cache.Get(ctx, runID)
		if err != nil {
			logger.Warn("result cache get failed", "run_id", runID, "error", err.Error())
		}
		if res != nil {
			return res, nil
		}
	}

	res, err := s.deps.Store.GetRun(ctx, runID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, res); err != nil {
			logger.Warn("result cache set failed", "run_id", runID, "error", err.Error())
		}
	}
	return res, nil
}

// ListRuns returns the run history of a client, newest first.
func (s *Service) ListRuns(ctx context.Context, clientID string, limit int) ([]storage.RunRecord, error) {
	return s.deps.Store.ListRuns(ctx, clientID, limit)
}

// Summary renders the human-readable change summary of a run.
func (s *Service) Summary(ctx context.Context, runID string) (string, error) {
	res, err := s.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	return s.summary.Render(res, s.settings.TopChanges)
}

// Export returns the updated bulk workbook of a run and its download name.
// The stored export is served when opts match the configured defaults;
// other toggles rebuild the workbook from the stored report.
func (s *Service) Export(ctx context.Context, runID string, opts export.Options) ([]byte, string, error) {
	res, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, "", err
	}
	name := ExportFilename(res.SourceFile)

	if opts == s.settings.Export {
		data, err := s.deps.Store.GetObject(ctx, storage.ExportKey(runID))
		if err == nil {
			return data, name, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("load export %s: %w", runID, err)
		}
	}

	original, err := s.deps.Store.GetObject(ctx, storage.ReportKey(res.ClientID, res.RunID, res.SourceFile))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", ErrRunNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("load report %s: %w", runID, err)
	}
	wb, rep, err := datanorm.Parse(bytes.NewReader(original), res.SourceFile)
	if err != nil {
		return nil, "", fmt.Errorf("parse stored report %s: %w", runID, err)
	}
	var out bytes.Buffer
	if _, err := export.WriteWorkbook(&out, original, wb, rep, res, opts); err != nil {
		return nil, "", err
	}
	return out.Bytes(), name, nil
}

// ExportFilename names the updated workbook after the uploaded report.
func ExportFilename(source string) string {
	base := strings.TrimSuffix(path.Base(source), path.Ext(source))
	if base == "" || base == "." || base == "/" {
		base = "bulk"
	}
	return base + "_optimized.xlsx"
}

// lock serializes the runs of one client.
func (s *Service) lock(ctx context.Context, clientID string) (func(), error) {
	l := s.deps.Locks("run:" + clientID)
	ok, err := l.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("run lock release failed", "client_id", clientID, "error", err.Error())
		}
	}, nil
}

func contentType(f datanorm.Format) string {
	if f == datanorm.FormatCSV {
		return "text/csv"
	}
	return xlsxContentType
}
