package giftai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/craftloom/craftloom-backend/internal/enrich"
	"github.com/craftloom/craftloom-backend/pkg/config"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	giftaiclient "github.com/craftloom/craftloom-backend/pkg/giftai"
	"github.com/craftloom/craftloom-backend/pkg/logger"
	pkgredis "github.com/craftloom/craftloom-backend/pkg/redis"
)

const (
	jobKind         = "gift_bundle"
	defaultJobTTL   = 30 * time.Minute
	maxSearchLimit  = 25
	jobTimeoutGrace = 10 * time.Second
)

// Service runs gift bundle generation as redis-backed async jobs. Model
// inference takes tens of seconds, so callers poll the job instead of
// holding the request open.
type Service interface {
	StartBundleJob(ctx context.Context, buyerID uuid.UUID, input BundleInput) (*JobDTO, error)
	GetBundleJob(ctx context.Context, jobID string) (*JobDTO, error)
	SearchCatalog(ctx context.Context, query string, limit int) (*enrich.Result, error)
}

type modelClient interface {
	GenerateBundle(ctx context.Context, params giftaiclient.BundleParams) (*giftaiclient.BundleResult, error)
	Search(ctx context.Context, query string, limit int) ([]giftaiclient.SearchResult, error)
}

type bundleResolver interface {
	Resolve(ctx context.Context, source string, bundles []enrich.BundleInput) (*enrich.Result, error)
}

type jobStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	JobKey(kind, jobID string) string
}

type service struct {
	model    modelClient
	resolver bundleResolver
	jobs     jobStore
	logg     *logger.Logger
	jobTTL   time.Duration
	timeout  time.Duration
	launch   func(fn func())
}

// NewService constructs the gift bundle service.
func NewService(model modelClient, resolver bundleResolver, jobs jobStore, cfg config.GiftAIConfig, logg *logger.Logger) (Service, error) {
	if model == nil {
		return nil, fmt.Errorf("model client required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver required")
	}
	if jobs == nil {
		return nil, fmt.Errorf("job store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	jobTTL := cfg.JobTTL
	if jobTTL <= 0 {
		jobTTL = defaultJobTTL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &service{
		model:    model,
		resolver: resolver,
		jobs:     jobs,
		logg:     logg,
		jobTTL:   jobTTL,
		timeout:  timeout,
		launch:   func(fn func()) { go fn() },
	}, nil
}

func (s *service) StartBundleJob(ctx context.Context, buyerID uuid.UUID, input BundleInput) (*JobDTO, error) {
	if strings.TrimSpace(input.Occasion) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occasion is required")
	}
	if input.Budget < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "budget cannot be negative")
	}

	job := &JobDTO{
		JobID:     uuid.NewString(),
		BuyerID:   buyerID.String(),
		Status:    JobStatusPending,
		Occasion:  strings.TrimSpace(input.Occasion),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.storeJob(ctx, job); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "storing bundle job")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"job_id": job.JobID, "occasion": job.Occasion})
	s.logg.Info(logCtx, "gift bundle job queued")

	s.launch(func() { s.runBundleJob(job, input) })
	return job, nil
}

// runBundleJob executes off the request path, so it carries its own
// deadline instead of the caller's context.
func (s *service) runBundleJob(job *JobDTO, input BundleInput) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout+jobTimeoutGrace)
	defer cancel()

	result, err := s.model.GenerateBundle(ctx, giftaiclient.BundleParams{
		Occasion:  input.Occasion,
		Budget:    input.Budget,
		Recipient: input.Recipient,
		Notes:     input.Notes,
		ImageName: input.ImageName,
		Image:     input.Image,
	})
	if err != nil {
		s.finishJob(ctx, job, nil, "", err)
		return
	}

	inputs := make([]enrich.BundleInput, 0, len(result.Bundles))
	for _, modelBundle := range result.Bundles {
		input := enrich.BundleInput{Title: modelBundle.Title}
		for _, c := range modelBundle.Items {
			input.Items = append(input.Items, enrich.Candidate{CatalogID: c.CatalogID, Title: c.Title, Reason: c.Reason})
		}
		inputs = append(inputs, input)
	}
	enriched, err := s.resolver.Resolve(ctx, "gift_bundle", inputs)
	if err != nil {
		s.finishJob(ctx, job, nil, result.BundleID, err)
		return
	}
	s.finishJob(ctx, job, enriched, result.BundleID, nil)
}

func (s *service) finishJob(ctx context.Context, job *JobDTO, result *enrich.Result, bundleID string, cause error) {
	now := time.Now().UTC()
	job.CompletedAt = &now
	job.BundleID = bundleID
	if cause != nil {
		job.Status = JobStatusFailed
		job.Error = publicJobError(cause)
		logCtx := s.logg.WithFields(ctx, map[string]any{"job_id": job.JobID})
		s.logg.Error(logCtx, "gift bundle job failed", cause)
	} else {
		job.Status = JobStatusCompleted
		job.Result = result
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"job_id":  job.JobID,
			"bundles": result.Stats.BundlesCreated,
			"found":   result.Stats.FoundItems,
			"missing": result.Stats.MissingItems,
		})
		s.logg.Info(logCtx, "gift bundle job completed")
	}
	if err := s.storeJob(ctx, job); err != nil {
		s.logg.Error(ctx, "storing finished bundle job", err)
	}
}

func (s *service) GetBundleJob(ctx context.Context, jobID string) (*JobDTO, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id is required")
	}
	raw, err := s.jobs.Get(ctx, s.jobs.JobKey(jobKind, jobID))
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle job not found or expired")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading bundle job")
	}
	var job JobDTO
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "decoding bundle job")
	}
	return &job, nil
}

// SearchCatalog resolves semantic search suggestions against the live
// catalog so only purchasable items come back. The suggestions travel as a
// single bundle named after the query.
func (s *service) SearchCatalog(ctx context.Context, query string, limit int) (*enrich.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results, err := s.model.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	input := enrich.BundleInput{Title: query}
	for _, result := range results {
		input.Items = append(input.Items, enrich.Candidate{Title: result.Title})
	}
	return s.resolver.Resolve(ctx, "search", []enrich.BundleInput{input})
}

func (s *service) storeJob(ctx context.Context, job *JobDTO) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.jobs.Set(ctx, s.jobs.JobKey(jobKind, job.JobID), string(payload), s.jobTTL)
}

// publicJobError keeps stored job errors presentable. Domain errors carry a
// public message already; anything else collapses to a generic line.
func publicJobError(err error) string {
	var domainErr *pkgerrors.Error
	if pkgerrors.As(err, &domainErr) {
		return pkgerrors.MetadataFor(domainErr.Code()).PublicMessage
	}
	return "bundle generation failed"
}
