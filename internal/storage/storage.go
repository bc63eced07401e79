// Package storage keeps uploaded reports, run results and exported
// workbooks, either on the local filesystem or in S3 with a DynamoDB run
// index.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/ignite/ppc-optimizer/internal/config"
	"github.com/ignite/ppc-optimizer/internal/domain"
)

// ErrNotFound is returned when an object or run does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistence contract of the optimization service and the
// inbox scanner. Implementations must be safe for concurrent use.
type Store interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	MoveObject(ctx context.Context, src, dst string) error

	// SaveRun stores the full result and indexes the run under its client.
	SaveRun(ctx context.Context, rec RunRecord, res *domain.Result) error
	// GetRun returns the stored result of a run.
	GetRun(ctx context.Context, runID string) (*domain.Result, error)
	// ListRuns returns a client's runs, newest first.
	ListRuns(ctx context.Context, clientID string, limit int) ([]RunRecord, error)
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// RunRecord is the index entry of one optimization run.
type RunRecord struct {
	RunID         string    `json:"run_id" dynamodbav:"RunID"`
	ClientID      string    `json:"client_id" dynamodbav:"ClientID"`
	SourceFile    string    `json:"source_file" dynamodbav:"SourceFile"`
	ReportKey     string    `json:"report_key" dynamodbav:"ReportKey"`
	ResultKey     string    `json:"result_key" dynamodbav:"ResultKey"`
	Strategy      string    `json:"strategy" dynamodbav:"Strategy"`
	TargetACOS    float64   `json:"target_acos" dynamodbav:"TargetACOS"`
	Good          int       `json:"good" dynamodbav:"Good"`
	Bad           int       `json:"bad" dynamodbav:"Bad"`
	Pause         int       `json:"pause" dynamodbav:"Pause"`
	Increases     int       `json:"increases" dynamodbav:"Increases"`
	Decreases     int       `json:"decreases" dynamodbav:"Decreases"`
	Skipped       int       `json:"skipped" dynamodbav:"Skipped"`
	TotalBidDelta float64   `json:"total_bid_delta" dynamodbav:"TotalBidDelta"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"CreatedAt"`
}

// NewRunRecord builds the index entry of res.
func NewRunRecord(res *domain.Result, reportKey string) RunRecord {
	s := res.Summary
	return RunRecord{
		RunID:         res.RunID,
		ClientID:      res.ClientID,
		SourceFile:    res.SourceFile,
		ReportKey:     reportKey,
		ResultKey:     ResultKey(res.RunID),
		Strategy:      string(res.Profile.Strategy),
		TargetACOS:    res.Profile.TargetACOS,
		Good:          s.Good,
		Bad:           s.Bad,
		Pause:         s.Pause,
		Increases:     s.Increases,
		Decreases:     s.Decreases,
		Skipped:       s.Skipped,
		TotalBidDelta: s.TotalBidDelta,
		CreatedAt:     res.CreatedAt,
	}
}

// ReportKey is where an uploaded report is kept.
func ReportKey(clientID, runID, filename string) string {
	return path.Join("reports", safeSegment(clientID), runID, safeSegment(path.Base(filename)))
}

// ResultKey is where the JSON result of a run is kept.
func ResultKey(runID string) string {
	return path.Join("results", runID+".json")
}

// ExportKey is where the exported workbook of a run is kept.
func ExportKey(runID string) string {
	return path.Join("exports", runID+".xlsx")
}

func safeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

// New creates the Store selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "s3", "aws":
		return NewAWSStore(ctx, cfg)
	case "local", "":
		return NewLocalStore(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
