package submission

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"morph/internal/jobs"
	"morph/internal/jobstore"
	"morph/internal/logging"
	"morph/internal/services"
)

// Submitter is the slice of the api client the service needs.
type Submitter interface {
	SubmitFile(ctx context.Context, conversionType, path string, opts *jobs.ProcessingOptions) (jobs.Job, error)
	SubmitBatch(ctx context.Context, conversionType string, paths []string) ([]jobs.Job, error)
}

// Request describes one user-initiated submission.
type Request struct {
	Paths          []string
	ConversionType string
	BatchMode      bool
	Options        *jobs.ProcessingOptions
}

// Service validates requests, talks to the conversion service, and records
// accepted jobs.
type Service struct {
	store        *jobstore.Store
	client       Submitter
	maxBatch     int
	maxFileBytes int64
	logger       *slog.Logger
}

// New constructs a submission service. maxBatch and maxFileBytes of zero
// disable the respective local limit.
func New(store *jobstore.Store, client Submitter, maxBatch int, maxFileBytes int64, logger *slog.Logger) *Service {
	return &Service{
		store:        store,
		client:       client,
		maxBatch:     maxBatch,
		maxFileBytes: maxFileBytes,
		logger:       logging.NewComponentLogger(logger, "submission"),
	}
}

// Submit dispatches the request and returns the records inserted into the
// store. On any failure nothing is inserted.
func (s *Service) Submit(ctx context.Context, req Request) ([]jobs.Job, error) {
	conversionType := strings.TrimSpace(req.ConversionType)
	if conversionType == "" {
		return nil, services.Wrap(services.ErrSubmissionFailed, "submission", "validate", "missing conversion type", nil)
	}

	paths := cleanPaths(req.Paths)
	if len(paths) == 0 {
		return nil, services.Wrap(services.ErrNoFilesSelected, "submission", "validate", "", nil)
	}
	if err := s.preflight(paths); err != nil {
		return nil, err
	}

	batch := req.BatchMode && len(paths) > 1
	var (
		accepted []jobs.Job
		err      error
	)
	if batch {
		accepted, err = s.submitBatch(ctx, conversionType, paths)
	} else {
		accepted, err = s.submitSingle(ctx, conversionType, paths[0], req.Options)
	}
	if err != nil {
		return nil, err
	}

	enrich(accepted, paths, conversionType)
	if err := s.insertAll(accepted); err != nil {
		return nil, err
	}

	s.logger.Info("submission accepted",
		logging.String(logging.FieldConversionType, conversionType),
		logging.Int("jobs", len(accepted)),
		logging.Bool("batch", batch),
	)
	return accepted, nil
}

func (s *Service) submitSingle(ctx context.Context, conversionType, path string, opts *jobs.ProcessingOptions) ([]jobs.Job, error) {
	record, err := s.client.SubmitFile(ctx, conversionType, path, opts)
	if err != nil {
		return nil, services.Wrap(services.ErrSubmissionFailed, "submission", "submit file", filepath.Base(path), err)
	}
	if record.JobID == "" {
		return nil, services.Wrap(services.ErrSubmissionFailed, "submission", "submit file", "server returned record without job id", nil)
	}
	return []jobs.Job{record}, nil
}

func (s *Service) submitBatch(ctx context.Context, conversionType string, paths []string) ([]jobs.Job, error) {
	detail := fmt.Sprintf("%d files", len(paths))
	accepted, err := s.client.SubmitBatch(ctx, conversionType, paths)
	if err != nil {
		return nil, services.Wrap(services.ErrSubmissionFailed, "submission", "submit batch", detail, err)
	}
	if len(accepted) != len(paths) {
		msg := fmt.Sprintf("server accepted %d of %d files", len(accepted), len(paths))
		return nil, services.Wrap(services.ErrSubmissionFailed, "submission", "submit batch", msg, nil)
	}
	for _, record := range accepted {
		if record.JobID == "" {
			return nil, services.Wrap(services.ErrSubmissionFailed, "submission", "submit batch", "server returned record without job id", nil)
		}
	}
	return accepted, nil
}

// preflight mirrors the server's own limits so obviously doomed submissions
// fail locally without a round-trip.
func (s *Service) preflight(paths []string) error {
	if s.maxBatch > 0 && len(paths) > s.maxBatch {
		msg := fmt.Sprintf("%d files exceeds the %d file batch limit", len(paths), s.maxBatch)
		return services.Wrap(services.ErrSubmissionFailed, "submission", "validate", msg, nil)
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return services.Wrap(services.ErrSubmissionFailed, "submission", "validate", filepath.Base(path), err)
		}
		if info.IsDir() {
			msg := fmt.Sprintf("%s is a directory", filepath.Base(path))
			return services.Wrap(services.ErrSubmissionFailed, "submission", "validate", msg, nil)
		}
		if s.maxFileBytes > 0 && info.Size() > s.maxFileBytes {
			msg := fmt.Sprintf("%s exceeds the %d byte file limit", filepath.Base(path), s.maxFileBytes)
			return services.Wrap(services.ErrSubmissionFailed, "submission", "validate", msg, nil)
		}
	}
	return nil
}

// insertAll lands every record or none: an insert failure unwinds records
// already inserted by this call.
func (s *Service) insertAll(records []jobs.Job) error {
	inserted := make([]string, 0, len(records))
	for _, record := range records {
		if err := s.store.Insert(record); err != nil {
			for _, id := range inserted {
				s.store.Remove(id)
			}
			return services.Wrap(services.ErrSubmissionFailed, "submission", "record jobs", record.JobID, err)
		}
		inserted = append(inserted, record.JobID)
	}
	return nil
}

func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if path = strings.TrimSpace(path); path != "" {
			out = append(out, path)
		}
	}
	return out
}

func enrich(records []jobs.Job, paths []string, conversionType string) {
	now := time.Now().UTC()
	for i := range records {
		if records[i].Status == "" {
			records[i].Status = jobs.StatusPending
		}
		if records[i].InputFilename == "" && i < len(paths) {
			records[i].InputFilename = filepath.Base(paths[i])
		}
		if records[i].ConversionType == "" {
			records[i].ConversionType = conversionType
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
	}
}
