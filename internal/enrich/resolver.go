package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
	"github.com/craftloom/craftloom-backend/pkg/metrics"
)

// Match strategies in cascade order. Every candidate walks the cascade and
// the first hit wins.
const (
	StrategyID    = "id"
	StrategyExact = "exact"
	StrategyFold  = "case_insensitive"
	StrategyFuzzy = "fuzzy"
	StrategyNone  = "none"
)

// defaultReason fills in when the model gave no rationale for an item.
const defaultReason = "Recommended for you"

type catalogLookup interface {
	FindPublishedByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
	FindPublishedByTitle(ctx context.Context, title string) (*models.CatalogItem, error)
	FindPublishedByTitleFold(ctx context.Context, title string) (*models.CatalogItem, error)
	FindPublishedByTitleFuzzy(ctx context.Context, term string) (*models.CatalogItem, error)
}

// Candidate is a loose item reference to resolve against the live catalog.
// CatalogID is the raw id string from the model; it is often absent and may
// be malformed, so it is parsed leniently.
type Candidate struct {
	CatalogID string `json:"catalog_id,omitempty"`
	Title     string `json:"title"`
	Reason    string `json:"reason,omitempty"`
}

// BundleInput is one suggested bundle before enrichment.
type BundleInput struct {
	Title string      `json:"title,omitempty"`
	Items []Candidate `json:"items"`
}

// ResolvedItem pairs a catalog row with the strategy that matched it.
type ResolvedItem struct {
	ItemID   uuid.UUID `json:"item_id"`
	SellerID uuid.UUID `json:"seller_id"`
	Title    string    `json:"title"`
	Price    string    `json:"price"`
	Currency string    `json:"currency"`
	ImageURL *string   `json:"image_url,omitempty"`
	Strategy string    `json:"match_strategy"`
	Reason   string    `json:"reason"`
}

// EnrichedBundle is the catalog-backed view of one input bundle. ItemCount
// counts resolved items only; OriginalItemCount counts every candidate the
// bundle arrived with.
type EnrichedBundle struct {
	Title             string         `json:"title,omitempty"`
	Items             []ResolvedItem `json:"items"`
	TotalPrice        string         `json:"total_price"`
	ItemCount         int            `json:"item_count"`
	OriginalItemCount int            `json:"original_item_count"`
}

// Stats aggregates a full enrichment pass. FoundItems plus MissingItems
// always equals TotalItems, and BundlesCreated equals the emitted bundle
// count.
type Stats struct {
	TotalItems     int `json:"total_items"`
	FoundItems     int `json:"found_items"`
	MissingItems   int `json:"missing_items"`
	BundlesCreated int `json:"bundles_created"`
}

// Result is the outcome of enriching a batch of candidate bundles. Bundles
// that resolved nothing are dropped; the warnings name what was lost.
type Result struct {
	Bundles  []EnrichedBundle `json:"bundles"`
	Stats    Stats            `json:"stats"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Resolver maps loose candidate bundles onto purchasable catalog rows.
type Resolver struct {
	catalog catalogLookup
	metrics *metrics.CommerceMetrics
	logg    *logger.Logger
}

// NewResolver constructs a resolver. Metrics may be nil.
func NewResolver(catalog catalogLookup, commerceMetrics *metrics.CommerceMetrics, logg *logger.Logger) (*Resolver, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{catalog: catalog, metrics: commerceMetrics, logg: logg}, nil
}

// Resolve runs every bundle through the match cascade. A bundle survives
// only when at least one of its items resolved; candidates that match
// nothing purchasable become warnings, never silent drops.
func (r *Resolver) Resolve(ctx context.Context, source string, bundles []BundleInput) (*Result, error) {
	start := time.Now()
	defer func() {
		r.metrics.ObserveEnrichmentDuration(source, time.Since(start))
	}()

	result := &Result{Bundles: []EnrichedBundle{}}
	for i, input := range bundles {
		name := bundleName(input, i)
		if len(input.Items) == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("bundle %s has no items", name))
			continue
		}

		bundle := EnrichedBundle{Title: input.Title, OriginalItemCount: len(input.Items)}
		total := decimal.Zero
		for _, candidate := range input.Items {
			item, strategy, err := r.resolveOne(ctx, candidate)
			if err != nil {
				return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "resolving bundle candidate")
			}
			r.metrics.IncEnrichmentMatch(strategy)
			if item == nil {
				result.Stats.MissingItems++
				result.Warnings = append(result.Warnings, fmt.Sprintf("no catalog match for %s", candidateLabel(candidate)))
				continue
			}
			reason := candidate.Reason
			if reason == "" {
				reason = defaultReason
			}
			bundle.Items = append(bundle.Items, ResolvedItem{
				ItemID:   item.ID,
				SellerID: item.SellerID,
				Title:    item.Title,
				Price:    item.Price.StringFixed(2),
				Currency: item.Currency.String(),
				ImageURL: item.ImageURL,
				Strategy: strategy,
				Reason:   reason,
			})
			total = total.Add(item.Price)
		}

		result.Stats.TotalItems += bundle.OriginalItemCount
		bundle.ItemCount = len(bundle.Items)
		result.Stats.FoundItems += bundle.ItemCount
		if bundle.ItemCount == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("bundle %s matched no purchasable items", name))
			continue
		}
		bundle.TotalPrice = total.StringFixed(2)
		result.Bundles = append(result.Bundles, bundle)
	}
	result.Stats.BundlesCreated = len(result.Bundles)

	logCtx := r.logg.WithFields(ctx, map[string]any{
		"source":          source,
		"bundles_in":      len(bundles),
		"bundles_created": result.Stats.BundlesCreated,
		"found_items":     result.Stats.FoundItems,
		"missing_items":   result.Stats.MissingItems,
	})
	r.logg.Info(logCtx, "bundle candidates resolved")
	return result, nil
}

func (r *Resolver) resolveOne(ctx context.Context, candidate Candidate) (*models.CatalogItem, string, error) {
	if raw := strings.TrimSpace(candidate.CatalogID); raw != "" {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			// A malformed id is a failed attempt, not a hard error; the
			// title stages still get their shot.
			logCtx := r.logg.WithFields(ctx, map[string]any{"catalog_id": raw})
			r.logg.Warn(logCtx, "malformed candidate catalog id")
		} else {
			item, err := r.catalog.FindPublishedByID(ctx, id)
			if err == nil {
				return item, StrategyID, nil
			}
			if !isNotFound(err) {
				return nil, "", err
			}
		}
	}

	title := strings.TrimSpace(candidate.Title)
	if title == "" {
		return nil, StrategyNone, nil
	}

	item, err := r.catalog.FindPublishedByTitle(ctx, title)
	if err == nil {
		return item, StrategyExact, nil
	}
	if !isNotFound(err) {
		return nil, "", err
	}

	item, err = r.catalog.FindPublishedByTitleFold(ctx, title)
	if err == nil {
		return item, StrategyFold, nil
	}
	if !isNotFound(err) {
		return nil, "", err
	}

	item, err = r.catalog.FindPublishedByTitleFuzzy(ctx, title)
	if err == nil {
		return item, StrategyFuzzy, nil
	}
	if !isNotFound(err) {
		return nil, "", err
	}
	return nil, StrategyNone, nil
}

func bundleName(input BundleInput, index int) string {
	if strings.TrimSpace(input.Title) != "" {
		return fmt.Sprintf("%q", input.Title)
	}
	return fmt.Sprintf("#%d", index+1)
}

func candidateLabel(candidate Candidate) string {
	if strings.TrimSpace(candidate.Title) != "" {
		return fmt.Sprintf("%q", candidate.Title)
	}
	if strings.TrimSpace(candidate.CatalogID) != "" {
		return fmt.Sprintf("id %q", candidate.CatalogID)
	}
	return "an unnamed candidate"
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
