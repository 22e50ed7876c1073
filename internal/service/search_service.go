package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dropiq/dropiq-api/internal/cache"
	"github.com/dropiq/dropiq-api/internal/models"
	"github.com/dropiq/dropiq-api/internal/repository"
	"github.com/dropiq/dropiq-api/internal/search"
	"github.com/dropiq/dropiq-api/pkg/gemini"
)

// SearchService runs the full search pipeline: spelling correction, keyword
// classification, multi-table fetch, cross-table ranking and pagination.
type SearchService struct {
	productRepo *repository.ProductRepository
	historyRepo *repository.SearchHistoryRepository
	gemini      *gemini.Client
	spellCache  *cache.SpellingCache
	aiEnabled   bool
}

// NewSearchService constructs a SearchService. spellCache may be nil when
// Redis is unavailable; AI corrections then simply go uncached.
func NewSearchService(
	productRepo *repository.ProductRepository,
	historyRepo *repository.SearchHistoryRepository,
	geminiClient *gemini.Client,
	spellCache *cache.SpellingCache,
	aiEnabled bool,
) *SearchService {
	return &SearchService{
		productRepo: productRepo,
		historyRepo: historyRepo,
		gemini:      geminiClient,
		spellCache:  spellCache,
		aiEnabled:   aiEnabled,
	}
}

// Search executes one search request and returns the paginated results along
// with the interpreted query (corrected term, detected tags) for the response
// filters block.
func (s *SearchService) Search(ctx context.Context, filters search.Filters) ([]models.SearchResult, *search.Query, error) {
	q := s.interpret(ctx, filters)

	results, err := s.productRepo.Search(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	search.Rank(results, q.DetectedBrands, q.SortBy)
	page := search.Paginate(results, q.Offset, q.Limit)

	// History is recorded fire-and-forget: the write is detached from the
	// request and its failure is only logged, never surfaced.
	if strings.TrimSpace(filters.SearchTerm) != "" {
		go s.recordHistory(filters.SearchTerm)
	}

	return page, q, nil
}

// interpret turns the raw filter set into an executable query: normalize the
// term, apply static spelling corrections, optionally escalate to the AI
// corrector, then detect brand and category tags.
func (s *SearchService) interpret(ctx context.Context, filters search.Filters) *search.Query {
	q := &search.Query{Filters: filters}
	if filters.SearchTerm == "" {
		return q
	}

	normalized := search.Normalize(filters.SearchTerm)
	corrected, staticApplied := search.CorrectSpelling(normalized)
	q.CorrectedTerm = corrected

	// AI escalation: only when enabled, nothing static fired, and the fast
	// heuristic still suspects a mistake. Every failure falls back to the
	// statically corrected term; correction is never fatal to a search.
	if s.aiEnabled && !staticApplied && search.HasLikelyMistakes(normalized) {
		if aiCorrected, ok := s.aiCorrect(ctx, filters.SearchTerm, normalized); ok {
			q.CorrectedTerm = aiCorrected
		}
	}

	q.DetectedBrands, q.DetectedCategories = search.Classify(q.CorrectedTerm)

	log.Debug().
		Str("raw", filters.SearchTerm).
		Str("corrected", q.CorrectedTerm).
		Strs("brands", q.DetectedBrands).
		Strs("categories", q.DetectedCategories).
		Msg("interpreted search query")
	return q
}

// aiCorrect consults the correction cache, then the Gemini client. A verdict
// is adopted only at high confidence with mistakes actually found.
func (s *SearchService) aiCorrect(ctx context.Context, rawTerm, normalized string) (string, bool) {
	if s.spellCache != nil {
		if entry, err := s.spellCache.Get(ctx, normalized); err != nil {
			log.Warn().Err(err).Msg("spelling cache read failed")
		} else if entry != nil {
			return entry.Corrected, true
		}
	}

	result, err := s.gemini.CorrectSpelling(ctx, rawTerm)
	if err != nil {
		log.Warn().Err(err).Str("query", rawTerm).Msg("AI spelling correction failed")
		return "", false
	}
	if result.Confidence != gemini.ConfidenceHigh || !result.HasMistakes {
		log.Debug().Str("confidence", result.Confidence).Msg("AI decided no correction needed")
		return "", false
	}

	corrected := strings.ToLower(result.Corrected)
	log.Info().Str("from", rawTerm).Str("to", corrected).Msg("AI correction applied")

	if s.spellCache != nil {
		if err := s.spellCache.Set(ctx, normalized, &cache.CorrectionEntry{
			Corrected:  corrected,
			Confidence: result.Confidence,
		}); err != nil {
			log.Warn().Err(err).Msg("spelling cache write failed")
		}
	}
	return corrected, true
}

// recordHistory upserts the search term into history with its own deadline,
// independent of the originating request.
func (s *SearchService) recordHistory(term string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.historyRepo.Save(ctx, term); err != nil {
		log.Error().Err(err).Str("query", term).Msg("failed to save search query")
	}
}

// RecentSearches returns the latest history entries.
func (s *SearchService) RecentSearches(ctx context.Context, limit int) ([]models.SearchHistory, error) {
	return s.historyRepo.Recent(ctx, limit)
}

// PopularSearches returns history entries ordered by search count.
func (s *SearchService) PopularSearches(ctx context.Context, limit int) ([]models.SearchHistory, error) {
	return s.historyRepo.Popular(ctx, limit)
}

// ClearHistory wipes the search history.
func (s *SearchService) ClearHistory(ctx context.Context) error {
	return s.historyRepo.Clear(ctx)
}

// FrequentSearches returns the static list of frequently searched categories.
func (s *SearchService) FrequentSearches() []string {
	return []string{
		models.CategoryHeadphones,
		models.CategoryEarbuds,
		models.CategoryNeckbands,
		models.CategoryWiredEarphones,
		models.CategoryRobotVacuums,
	}
}
