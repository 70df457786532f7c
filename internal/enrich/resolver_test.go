package enrich

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/craftloom/craftloom-backend/pkg/db/models"
	"github.com/craftloom/craftloom-backend/pkg/enums"
	"github.com/craftloom/craftloom-backend/pkg/logger"
)

type stubCatalog struct {
	items []models.CatalogItem
}

func (s *stubCatalog) FindPublishedByID(_ context.Context, id uuid.UUID) (*models.CatalogItem, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) FindPublishedByTitle(_ context.Context, title string) (*models.CatalogItem, error) {
	for i := range s.items {
		if s.items[i].Title == title {
			return &s.items[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalog) FindPublishedByTitleFold(_ context.Context, title string) (*models.CatalogItem, error) {
	for i := range s.items {
		if strings.EqualFold(s.items[i].Title, title) {
			return &s.items[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// Mirrors the repository's word-OR matching: any term word longer than
// three characters hits on a substring, alphabetically first title wins.
func (s *stubCatalog) FindPublishedByTitleFuzzy(_ context.Context, term string) (*models.CatalogItem, error) {
	var words []string
	for _, word := range strings.Fields(term) {
		if len([]rune(word)) > 3 {
			words = append(words, strings.ToLower(word))
		}
	}
	var best *models.CatalogItem
	for i := range s.items {
		title := strings.ToLower(s.items[i].Title)
		for _, word := range words {
			if !strings.Contains(title, word) {
				continue
			}
			if best == nil || s.items[i].Title < best.Title {
				best = &s.items[i]
			}
			break
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func newTestResolver(t *testing.T, catalog *stubCatalog) *Resolver {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	resolver, err := NewResolver(catalog, nil, logg)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver
}

func catalogItem(title string) models.CatalogItem {
	return models.CatalogItem{
		ID:       uuid.New(),
		SellerID: uuid.New(),
		Title:    title,
		Price:    decimal.RequireFromString("350.00"),
		Currency: enums.CurrencyINR,
		Status:   enums.CatalogStatusPublished,
	}
}

func singleBundle(items ...Candidate) []BundleInput {
	return []BundleInput{{Items: items}}
}

func checkStats(t *testing.T, result *Result) {
	t.Helper()
	if result.Stats.FoundItems+result.Stats.MissingItems != result.Stats.TotalItems {
		t.Fatalf("stats do not reconcile: %+v", result.Stats)
	}
	if result.Stats.BundlesCreated != len(result.Bundles) {
		t.Fatalf("bundles_created %d != emitted %d", result.Stats.BundlesCreated, len(result.Bundles))
	}
}

func TestResolveCascadeStrategies(t *testing.T) {
	scarf := catalogItem("Indigo Block Print Scarf")
	bowl := catalogItem("Terracotta Bowl")
	rug := catalogItem("Handwoven Jute Rug")
	catalog := &stubCatalog{items: []models.CatalogItem{scarf, bowl, rug}}
	resolver := newTestResolver(t, catalog)

	result, err := resolver.Resolve(context.Background(), "test", singleBundle(
		Candidate{CatalogID: scarf.ID.String(), Title: "ignored when id matches"},
		Candidate{Title: "Terracotta Bowl"},
		Candidate{Title: "handwoven jute rug"},
		Candidate{Title: "jute doormat"},
	))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	checkStats(t, result)
	if len(result.Bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(result.Bundles))
	}
	bundle := result.Bundles[0]
	if bundle.ItemCount != 4 || bundle.OriginalItemCount != 4 {
		t.Fatalf("expected 4/4, got %d/%d", bundle.ItemCount, bundle.OriginalItemCount)
	}

	strategies := []string{StrategyID, StrategyExact, StrategyFold, StrategyFuzzy}
	for i, want := range strategies {
		if bundle.Items[i].Strategy != want {
			t.Fatalf("candidate %d: expected strategy %s, got %s", i, want, bundle.Items[i].Strategy)
		}
	}
}

func TestResolveMixedBundleKeepsResolvedItems(t *testing.T) {
	scarf := catalogItem("Indigo Block Print Scarf")
	vase := catalogItem("Blue Vase")
	catalog := &stubCatalog{items: []models.CatalogItem{scarf, vase}}
	resolver := newTestResolver(t, catalog)

	result, err := resolver.Resolve(context.Background(), "test", singleBundle(
		Candidate{CatalogID: scarf.ID.String()},
		Candidate{Title: "Blue Vase"},
		Candidate{Title: "Moonstone Pendant"},
	))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	checkStats(t, result)
	if len(result.Bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(result.Bundles))
	}
	bundle := result.Bundles[0]
	if bundle.ItemCount != 2 || bundle.OriginalItemCount != 3 {
		t.Fatalf("expected 2 resolved of 3, got %d/%d", bundle.ItemCount, bundle.OriginalItemCount)
	}
	if result.Stats.MissingItems != 1 {
		t.Fatalf("expected 1 missing item, got %d", result.Stats.MissingItems)
	}
	found := false
	for _, warning := range result.Warnings {
		if strings.Contains(warning, "Moonstone Pendant") {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings must name the unresolved title, got %v", result.Warnings)
	}
}

func TestResolveSumsBundleTotalPrice(t *testing.T) {
	scarf := catalogItem("Indigo Block Print Scarf")
	scarf.Price = decimal.RequireFromString("350.50")
	bowl := catalogItem("Terracotta Bowl")
	bowl.Price = decimal.RequireFromString("120.00")
	catalog := &stubCatalog{items: []models.CatalogItem{scarf, bowl}}
	resolver := newTestResolver(t, catalog)

	result, err := resolver.Resolve(context.Background(), "test", singleBundle(
		Candidate{Title: "Indigo Block Print Scarf"},
		Candidate{Title: "Terracotta Bowl"},
	))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Bundles[0].TotalPrice != "470.50" {
		t.Fatalf("expected total 470.50, got %s", result.Bundles[0].TotalPrice)
	}
}

func TestResolveDropsBundleWithNothingResolvable(t *testing.T) {
	bowl := catalogItem("Terracotta Bowl")
	catalog := &stubCatalog{items: []models.CatalogItem{bowl}}
	resolver := newTestResolver(t, catalog)

	result, err := resolver.Resolve(context.Background(), "test", []BundleInput{
		{Title: "Desk Upgrade", Items: []Candidate{{Title: "Moonstone Pendant"}}},
		{Items: []Candidate{{Title: "Terracotta Bowl"}}},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	checkStats(t, result)
	if len(result.Bundles) != 1 || result.Bundles[0].Items[0].Title != "Terracotta Bowl" {
		t.Fatalf("only the resolvable bundle should survive, got %+v", result.Bundles)
	}
	found := false
	for _, warning := range result.Warnings {
		if strings.Contains(warning, "Desk Upgrade") {
			found = true
		}
	}
	if !found {
		t.Fatalf("dropped bundle must be named in warnings, got %v", result.Warnings)
	}
}

func TestResolveDropsEmptyBundle(t *testing.T) {
	resolver := newTestResolver(t, &stubCatalog{})

	result, err := resolver.Resolve(context.Background(), "test", []BundleInput{{Title: "Empty"}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	checkStats(t, result)
	if len(result.Bundles) != 0 || result.Stats.TotalItems != 0 {
		t.Fatalf("empty input bundle must be dropped, got %+v", result)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "no items") {
		t.Fatalf("expected an empty-bundle warning, got %v", result.Warnings)
	}
}

func TestResolveAppliesDefaultReason(t *testing.T) {
	bowl := catalogItem("Terracotta Bowl")
	rug := catalogItem("Handwoven Jute Rug")
	catalog := &stubCatalog{items: []models.CatalogItem{bowl, rug}}
	resolver := newTestResolver(t, catalog)

	result, err := resolver.Resolve(context.Background(), "test", singleBundle(
		Candidate{Title: "Terracotta Bowl"},
		Candidate{Title: "Handwoven Jute Rug", Reason: "soft landing for the hallway"},
	))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	items := result.Bundles[0].Items
	if items[0].Reason != "Recommended for you" {
		t.Fatalf("expected default reason, got %q", items[0].Reason)
	}
	if items[1].Reason != "soft landing for the hallway" {
		t.Fatalf("model reason must be preserved, got %q", items[1].Reason)
	}
}

func TestResolveMalformedIDFallsBackToTitle(t *testing.T) {
	bowl := catalogItem("Terracotta Bowl")
	catalog := &stubCatalog{items: []models.CatalogItem{bowl}}
	resolver := newTestResolver(t, catalog)

	result, err := resolver.Resolve(context.Background(), "test", singleBundle(
		Candidate{CatalogID: "not-a-uuid", Title: "Terracotta Bowl"},
	))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	bundle := result.Bundles[0]
	if bundle.ItemCount != 1 || bundle.Items[0].Strategy != StrategyExact {
		t.Fatalf("expected exact fallback past the malformed id, got %+v", bundle.Items)
	}
}

func TestResolveUnknownIDFallsBackToTitle(t *testing.T) {
	bowl := catalogItem("Terracotta Bowl")
	catalog := &stubCatalog{items: []models.CatalogItem{bowl}}
	resolver := newTestResolver(t, catalog)

	result, err := resolver.Resolve(context.Background(), "test", singleBundle(
		Candidate{CatalogID: uuid.NewString(), Title: "Terracotta Bowl"},
	))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	bundle := result.Bundles[0]
	if bundle.ItemCount != 1 || bundle.Items[0].Strategy != StrategyExact {
		t.Fatalf("expected exact fallback, got %+v", bundle.Items)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	resolver := newTestResolver(t, &stubCatalog{})

	result, err := resolver.Resolve(context.Background(), "test", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	checkStats(t, result)
	if len(result.Bundles) != 0 || len(result.Warnings) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
