// Package sentiment is the service facade tying classification, caching
// and the history store together.
package sentiment

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/thiagodifaria/MoodAPI/internal/domain"
	"github.com/thiagodifaria/MoodAPI/internal/errors"
	"github.com/thiagodifaria/MoodAPI/internal/fingerprint"
	"github.com/thiagodifaria/MoodAPI/internal/logging"
	"github.com/thiagodifaria/MoodAPI/internal/metrics"
)

// Recorder is the slice of the record store the service writes through.
type Recorder interface {
	Append(ctx context.Context, rec *domain.AnalysisRecord) (uuid.UUID, error)
}

// Options bound request shapes and cache behavior.
type Options struct {
	MaxTextLength int
	MaxBatchSize  int
	CacheTTL      time.Duration
}

func (o *Options) applyDefaults() {
	if o.MaxTextLength <= 0 {
		o.MaxTextLength = 2000
	}
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = 100
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = time.Hour
	}
}

// Service analyzes texts. Identical texts hit the result cache instead of
// the model; concurrent identical misses share a single model call.
type Service struct {
	classifier domain.Classifier
	cache      domain.ResultCache
	records    Recorder
	clock      clockwork.Clock
	group      singleflight.Group
	opts       Options
}

// New wires the service. All collaborators are required.
func New(classifier domain.Classifier, cache domain.ResultCache, records Recorder, clock clockwork.Clock, opts Options) *Service {
	opts.applyDefaults()
	return &Service{
		classifier: classifier,
		cache:      cache,
		records:    records,
		clock:      clock,
		opts:       opts,
	}
}

// Analyze classifies one text. language may be empty; when set it narrows
// the fingerprint and hints the model. Every call appends a history record,
// cache hits included.
func (s *Service) Analyze(ctx context.Context, text, language string) (*domain.Analysis, error) {
	normalized := fingerprint.Normalize(text)
	if normalized == "" {
		metrics.AnalyzeRequests.WithLabelValues("rejected").Inc()
		return nil, errors.ValidationError("text must not be empty")
	}
	if len(normalized) > s.opts.MaxTextLength {
		metrics.AnalyzeRequests.WithLabelValues("rejected").Inc()
		return nil, errors.ValidationError("text exceeds the maximum length").
			WithContext("max_length", s.opts.MaxTextLength)
	}

	key := fingerprint.Key(normalized, language, s.classifier.ModelVersion())

	if raw, ok := s.cache.Get(ctx, key); ok {
		if pred, err := decodePrediction(raw); err == nil {
			metrics.AnalyzeRequests.WithLabelValues("cache_hit").Inc()
			return s.record(ctx, normalized, pred, true)
		}
		// Undecodable entries are evicted so the next request reclassifies.
		slog.Warn("evicting undecodable cache entry", "key", key)
		s.cache.Invalidate(ctx, key)
	}

	pred, err := s.classify(ctx, key, normalized, language)
	if err != nil {
		metrics.AnalyzeRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.AnalyzeRequests.WithLabelValues("classified").Inc()
	return s.record(ctx, normalized, pred, false)
}

// AnalyzeBatch classifies up to MaxBatchSize texts in request order. The
// batch fails as a whole: one bad item rejects the request, matching the
// all-or-nothing contract of the endpoint.
func (s *Service) AnalyzeBatch(ctx context.Context, texts []string, language string) ([]domain.Analysis, error) {
	if len(texts) == 0 {
		return nil, errors.ValidationError("batch must contain at least one text")
	}
	if len(texts) > s.opts.MaxBatchSize {
		return nil, errors.ValidationError("batch exceeds the maximum size").
			WithContext("max_batch_size", s.opts.MaxBatchSize)
	}

	results := make([]domain.Analysis, 0, len(texts))
	for i, text := range texts {
		analysis, err := s.Analyze(ctx, text, language)
		if err != nil {
			if structured := errors.AsStructuredError(err); structured != nil {
				return nil, structured.WithContext("index", i)
			}
			return nil, err
		}
		results = append(results, *analysis)
	}
	return results, nil
}

// classify runs the model behind singleflight so concurrent identical
// misses produce one upstream call. The winner also writes the cache.
func (s *Service) classify(ctx context.Context, key, text, language string) (domain.Prediction, error) {
	v, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		pred, err := s.classifier.Classify(ctx, text, language)
		metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return domain.Prediction{}, errors.ExternalError("classification failed", err)
		}
		if !domain.ValidSentiment(pred.Sentiment) {
			return domain.Prediction{}, errors.ExternalError("classifier produced unknown label", nil).
				WithContext("label", pred.Sentiment)
		}

		if raw, err := json.Marshal(pred); err == nil {
			s.cache.Put(ctx, key, string(raw), s.opts.CacheTTL)
		}
		return pred, nil
	})
	if err != nil {
		return domain.Prediction{}, err
	}
	return v.(domain.Prediction), nil
}

// record appends the history row and shapes the API result. A history
// write failure fails the request: the append-only audit trail is part of
// the analyze contract, not best-effort.
func (s *Service) record(ctx context.Context, text string, pred domain.Prediction, cached bool) (*domain.Analysis, error) {
	rec := &domain.AnalysisRecord{
		Text:       text,
		Sentiment:  pred.Sentiment,
		Confidence: pred.Confidence,
		Language:   pred.Language,
		AllScores:  pred.AllScores,
		Cached:     cached,
		CreatedAt:  s.clock.Now().UTC(),
	}
	id, err := s.records.Append(ctx, rec)
	if err != nil {
		return nil, err
	}
	logging.WithAnalysis(id.String()).Debug("analysis recorded",
		"sentiment", rec.Sentiment, "cached", rec.Cached)

	return &domain.Analysis{
		ID:         rec.ID,
		Sentiment:  rec.Sentiment,
		Confidence: rec.Confidence,
		Language:   rec.Language,
		AllScores:  rec.AllScores,
		Cached:     rec.Cached,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

func decodePrediction(raw string) (domain.Prediction, error) {
	var pred domain.Prediction
	if err := json.Unmarshal([]byte(raw), &pred); err != nil {
		return domain.Prediction{}, err
	}
	if !domain.ValidSentiment(pred.Sentiment) {
		return domain.Prediction{}, errors.InternalError("cached prediction has unknown label", nil)
	}
	return pred, nil
}
