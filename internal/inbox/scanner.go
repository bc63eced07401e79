// Package inbox optimizes bulk reports dropped into the blob store.
//
// Reports are picked up from <prefix><client id>/<file> on a cron schedule,
// optimized with the client's stored profile and moved to the processed or
// failed prefix. A report whose client already has a run in progress stays
// in the inbox until the next scan.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/ignite/ppc-optimizer/internal/config"
	"github.com/ignite/ppc-optimizer/internal/datanorm"
	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/pkg/logger"
	"github.com/ignite/ppc-optimizer/internal/service/optimization"
	"github.com/ignite/ppc-optimizer/internal/storage"
)

// Optimizer runs one report. *optimization.Service implements it.
type Optimizer interface {
	Optimize(ctx context.Context, req optimization.RunRequest) (*domain.Result, error)
}

// ScanResult counts what one scan did.
type ScanResult struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Deferred  int      `json:"deferred"`
	Ignored   int      `json:"ignored"`
	RunIDs    []string `json:"run_ids,omitempty"`
}

// Scanner moves reports from the inbox through the optimizer.
type Scanner struct {
	store storage.Store
	opt   Optimizer
	cfg   config.InboxConfig
	mu    sync.Mutex
}

// NewScanner creates a scanner over store.
func NewScanner(store storage.Store, opt Optimizer, cfg config.InboxConfig) *Scanner {
	return &Scanner{store: store, opt: opt, cfg: cfg}
}

// ScanOnce processes every report currently in the inbox. Concurrent calls
// are serialized.
func (s *Scanner) ScanOnce(ctx context.Context) (*ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	objs, err := s.store.ListObjects(ctx, s.cfg.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}

	result := &ScanResult{}
	for _, obj := range objs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		clientID, file, ok := s.split(obj.Key)
		if !ok {
			result.Ignored++
			continue
		}
		s.process(ctx, obj.Key, clientID, file, result)
	}

	if result.Processed+result.Failed+result.Deferred > 0 {
		logger.Info("inbox scan complete",
			"processed", result.Processed,
			"failed", result.Failed,
			"deferred", result.Deferred,
			"ignored", result.Ignored,
		)
	}
	return result, nil
}

func (s *Scanner) process(ctx context.Context, key, clientID, file string, result *ScanResult) {
	data, err := s.store.GetObject(ctx, key)
	if err != nil {
		logger.Error("inbox read failed", "key", key, "error", err.Error())
		result.Failed++
		return
	}

	res, err := s.opt.Optimize(ctx, optimization.RunRequest{ClientID: clientID, Filename: file, Data: data})
	if errors.Is(err, optimization.ErrRunInProgress) {
		result.Deferred++
		return
	}
	if err != nil {
		logger.Warn("inbox report rejected", "key", key, "client_id", clientID, "error", err.Error())
		s.fail(ctx, key, clientID, file, err)
		result.Failed++
		return
	}

	dst := path.Join(s.cfg.ProcessedPrefix, clientID, res.RunID+"_"+file)
	if err := s.store.MoveObject(ctx, key, dst); err != nil {
		logger.Error("inbox archive failed", "key", key, "run_id", res.RunID, "error", err.Error())
	}
	result.Processed++
	result.RunIDs = append(result.RunIDs, res.RunID)
}

// fail moves the report to the failed prefix with the reason next to it.
func (s *Scanner) fail(ctx context.Context, key, clientID, file string, cause error) {
	dst := path.Join(s.cfg.FailedPrefix, clientID, file)
	if err := s.store.MoveObject(ctx, key, dst); err != nil {
		logger.Error("inbox move to failed prefix", "key", key, "error", err.Error())
		return
	}
	if err := s.store.PutObject(ctx, dst+".error.txt", []byte(cause.Error()+"\n"), "text/plain"); err != nil {
		logger.Error("inbox error note", "key", dst, "error", err.Error())
	}
}

// split parses <prefix><client id>/<file>. Only CSV and XLSX files directly
// below a client folder are reports.
func (s *Scanner) split(key string) (clientID, file string, ok bool) {
	rest := strings.TrimPrefix(key, s.cfg.Prefix)
	if rest == key && s.cfg.Prefix != "" {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	if _, err := datanorm.DetectFormat(parts[1]); err != nil {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Start schedules ScanOnce on cfg.Schedule until ctx is cancelled. The
// schedule is a standard 5-field cron expression or a descriptor such as
// "@every 5m". Overlapping ticks are skipped.
func (s *Scanner) Start(ctx context.Context) (*cron.Cron, error) {
	schedule := strings.TrimSpace(s.cfg.Schedule)
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid inbox schedule %q: %w", schedule, err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.ScanOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Error("inbox scan failed", "error", err.Error())
		}
	}); err != nil {
		return nil, err
	}
	c.Start()
	logger.Info("inbox scheduled", "schedule", schedule, "prefix", s.cfg.Prefix)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
