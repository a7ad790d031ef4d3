package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/shopspring/decimal"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/services"
	"github.com/ersonp/jurisflow/internal/infrastructure/parsers"
)

// DefaultConflictRetries is how many times a conflicting write is retried.
const DefaultConflictRetries = 3

// IngestHandler feeds observations into case timelines, retrying merges that
// lose a race with another writer.
type IngestHandler struct {
	service         *services.TimelineService
	conflictRetries int
	location        *time.Location
	logger          *slog.Logger
}

// IngestHandlerOption configures an IngestHandler.
type IngestHandlerOption func(*IngestHandler)

// WithConflictRetries sets how many times a persistence conflict is retried.
func WithConflictRetries(n int) IngestHandlerOption {
	return func(h *IngestHandler) {
		if n >= 0 {
			h.conflictRetries = n
		}
	}
}

// WithLocation sets the time zone for event dates that carry no offset.
func WithLocation(loc *time.Location) IngestHandlerOption {
	return func(h *IngestHandler) {
		if loc != nil {
			h.location = loc
		}
	}
}

// WithIngestLogger sets the logger.
func WithIngestLogger(logger *slog.Logger) IngestHandlerOption {
	return func(h *IngestHandler) {
		h.logger = logger
	}
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(service *services.TimelineService, opts ...IngestHandlerOption) *IngestHandler {
	h := &IngestHandler{
		service:         service,
		conflictRetries: DefaultConflictRetries,
		location:        time.UTC,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// IngestOptions controls file ingestion.
type IngestOptions struct {
	Format        string // "json", "csv", or "auto"
	DefaultCaseID string // used for records without a case id
}

// IngestError describes a record that could not be ingested.
type IngestError struct {
	Line int
	Err  error
}

func (e IngestError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// IngestResult tallies the merge decisions taken for one file.
type IngestResult struct {
	FilePath     string
	Observations int
	Created      int
	Siblings     int
	Enriched     int
	Unchanged    int
	Credits      decimal.Decimal
	Errors       []IngestError
}

// IngestBatchResult contains the result of directory ingestion.
type IngestBatchResult struct {
	TotalFiles   int
	Observations int
	FileResults  []*IngestResult
	Errors       []error
}

// Ingest merges one observation, retrying persistence conflicts against a
// freshly loaded timeline.
func (h *IngestHandler) Ingest(ctx context.Context, observation entities.EventObservation) (*services.MergeResult, error) {
	var lastErr error
	for attempt := 0; attempt <= h.conflictRetries; attempt++ {
		result, err := h.service.Ingest(ctx, observation)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, entities.ErrPersistenceConflict) {
			return nil, err
		}
		lastErr = err
		h.logger.Debug("Retrying after persistence conflict",
			"case_id", observation.CaseID,
			"attempt", attempt+1,
			"error", err)
	}
	return nil, lastErr
}

// IngestBatch merges observations with per-case ordering, retrying conflicted
// items one by one.
func (h *IngestHandler) IngestBatch(ctx context.Context, observations []entities.EventObservation) []services.BatchItemResult {
	results := h.service.IngestBatch(ctx, observations)
	for i := range results {
		if errors.Is(results[i].Err, entities.ErrPersistenceConflict) {
			results[i].Result, results[i].Err = h.Ingest(ctx, observations[results[i].Index])
		}
	}
	return results
}

// HandleFile parses a JSON or CSV observation file and ingests every record.
// Bad records are reported per line and never stop the rest of the file.
func (h *IngestHandler) HandleFile(ctx context.Context, filePath string, opts IngestOptions) (*IngestResult, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(absPath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}
	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", absPath)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	raws, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	result := &IngestResult{FilePath: absPath, Observations: len(raws)}

	observations := make([]entities.EventObservation, 0, len(raws))
	lines := make([]int, 0, len(raws))
	for _, raw := range raws {
		obs, err := raw.ToObservation(opts.DefaultCaseID, h.location)
		if err != nil {
			result.Errors = append(result.Errors, IngestError{Line: raw.LineNum, Err: err})
			continue
		}
		observations = append(observations, obs)
		lines = append(lines, raw.LineNum)
	}

	result.Credits = decimal.Zero
	for _, item := range h.IngestBatch(ctx, observations) {
		if item.Err != nil {
			result.Errors = append(result.Errors, IngestError{Line: lines[item.Index], Err: item.Err})
			continue
		}
		result.count(item.Result)
		result.Credits = result.Credits.Add(item.Result.Audit.CreditCost)
	}

	return result, nil
}

func (r *IngestResult) count(res *services.MergeResult) {
	switch res.Action {
	case entities.ActionCreate:
		r.Created++
	case entities.ActionCreateSibling:
		r.Siblings++
	case entities.ActionUpdate:
		r.Enriched++
	default:
		r.Unchanged++
	}
}

// HandleDirectory ingests every file under dirPath matching the doublestar pattern.
func (h *IngestHandler) HandleDirectory(ctx context.Context, dirPath, pattern string, progressFn func(file string), opts IngestOptions) (*IngestBatchResult, error) {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if !IsDirectory(absPath) {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	files, err := FindFiles(absPath, pattern)
	if err != nil {
		return nil, fmt.Errorf("finding files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files matching pattern %q found in %s", pattern, absPath)
	}

	result := &IngestBatchResult{
		FileResults: make([]*IngestResult, 0, len(files)),
	}

	for _, file := range files {
		if progressFn != nil {
			progressFn(file)
		}

		fileResult, err := h.HandleFile(ctx, file, opts)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", file, err))
			continue
		}

		result.FileResults = append(result.FileResults, fileResult)
		result.TotalFiles++
		result.Observations += fileResult.Observations
	}

	return result, nil
}

// FindFiles returns the files under dirPath matching pattern, in lexical order.
func FindFiles(dirPath, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(dirPath), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(dirPath, filepath.FromSlash(m)))
	}
	return files, nil
}

// IsDirectory checks if the given path is a directory.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsGlobPattern checks if the path contains glob characters.
func IsGlobPattern(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
