package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veritaslab/aiprobe/internal/application"
	domain "github.com/veritaslab/aiprobe/internal/domain/analysis"
	"github.com/veritaslab/aiprobe/internal/domain/providers"
	"github.com/veritaslab/aiprobe/internal/domain/routing"
	"github.com/veritaslab/aiprobe/internal/middleware"
)

// Mode selects the orchestration strategy for a request.
type Mode string

const (
	// ModeSingle walks the fallback chain sequentially and stops at the
	// first success.
	ModeSingle Mode = "single"
	// ModeConsensus invokes every supporting provider concurrently and
	// aggregates their results.
	ModeConsensus Mode = "consensus"
)

// Options tune the orchestrator. Zero values are replaced by defaults.
type Options struct {
	// Retries is the maximum attempts per candidate in single mode.
	Retries int
	// Backoff is the base delay between attempts; it doubles each retry.
	Backoff time.Duration
	// Timeout bounds every individual provider invocation.
	Timeout time.Duration
	// CacheTTL is how long successful results stay cached.
	CacheTTL time.Duration
}

func DefaultOptions() Options {
	return Options{
		Retries:  3,
		Backoff:  500 * time.Millisecond,
		Timeout:  60 * time.Second,
		CacheTTL: 24 * time.Hour,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Retries <= 0 {
		o.Retries = d.Retries
	}
	if o.Backoff <= 0 {
		o.Backoff = d.Backoff
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = d.CacheTTL
	}
	return o
}

// Service implements the analyze use-cases: the try/fallback/cache sequence
// for single mode and the concurrent fan-out for consensus mode.
// Service is designed to be used concurrently and is thread-safe.
type Service struct {
	Registry *providers.Registry
	Router   *routing.Router
	Cache    domain.Cache
	Repo     domain.Repository // optional; nil disables history persistence
	Clock    application.Clock
	opts     Options
}

func NewService(reg *providers.Registry, router *routing.Router, cache domain.Cache, repo domain.Repository, clock application.Clock, opts Options) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Service{
		Registry: reg,
		Router:   router,
		Cache:    cache,
		Repo:     repo,
		Clock:    clock,
		opts:     opts.withDefaults(),
	}
}

// Run drives one request according to mode. The return value is either a
// *domain.Result (single) or a *domain.ConsensusResult (consensus). The only
// error it returns is a configuration error from the router; provider
// failures are absorbed into the result envelope.
func (s *Service) Run(ctx context.Context, tenant string, req domain.Request, mode Mode) (any, error) {
	switch mode {
	case ModeConsensus:
		return s.RunConsensus(ctx, tenant, req)
	default:
		return s.RunSingle(ctx, tenant, req)
	}
}

// RunSingle checks the cache, then walks the router's candidates in order
// until one succeeds. A failed request still returns a well-formed Result
// with Success=false and a readable reason.
func (s *Service) RunSingle(ctx context.Context, tenant string, req domain.Request) (*domain.Result, error) {
	middleware.IncrementAnalyses()
	fp := domain.Fingerprint(req, domain.AnyProvider)

	if cached, ok := s.Cache.Get(ctx, fp); ok {
		cached.Cached = true
		middleware.IncrementCacheHits()
		s.record(ctx, tenant, req, cached)
		return &cached, nil
	}

	candidates, err := s.Router.Candidates(req.ContentType, req.Task, req.PreferredProvider)
	if err != nil {
		return nil, err
	}

	var last domain.Result
	for i, id := range candidates {
		if i == 1 {
			middleware.IncrementFallbacks()
		}
		p := s.Registry.Get(id)
		res := s.tryProvider(ctx, p, req)
		if res.Provider == "" {
			res.Provider = id
		}
		if res.Success {
			s.Cache.Put(ctx, fp, res, s.opts.CacheTTL)
			s.record(ctx, tenant, req, res)
			return &res, nil
		}
		last = res
		if ctx.Err() != nil {
			break
		}
	}

	last.Success = false
	if last.Error == nil {
		last.Error = domain.Permanent("all providers failed")
	}
	middleware.IncrementAnalysesFailed()
	s.record(ctx, tenant, req, last)
	return &last, nil
}

// RunConsensus invokes every available provider supporting the content type
// concurrently, each with its own cache check and timeout. All results,
// failures included, land in PerProvider; the aggregate covers only the
// successes. Zero successes is still a valid outcome.
func (s *Service) RunConsensus(ctx context.Context, tenant string, req domain.Request) (*domain.ConsensusResult, error) {
	middleware.IncrementAnalyses()
	ids, err := s.Router.Supporting(req.ContentType, req.Task)
	if err != nil {
		return nil, err
	}

	results := make([]domain.Result, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i] = s.invokeWithCache(ctx, id, req)
		}(i, id)
	}
	wg.Wait()

	out := &domain.ConsensusResult{PerProvider: results}
	out.AggregateScore, out.Agreement = aggregate(results)
	if out.Successes() == 0 {
		middleware.IncrementAnalysesFailed()
	}

	s.recordConsensus(ctx, tenant, req, out)
	return out, nil
}

// invokeWithCache is one consensus leg: per-provider fingerprint, cache
// check, single bounded invocation, write-through on success.
func (s *Service) invokeWithCache(ctx context.Context, id string, req domain.Request) domain.Result {
	fp := domain.Fingerprint(req, id)
	if cached, ok := s.Cache.Get(ctx, fp); ok {
		cached.Cached = true
		return cached
	}

	res := s.invoke(ctx, s.Registry.Get(id), req)
	if res.Provider == "" {
		res.Provider = id
	}
	if res.Success {
		s.Cache.Put(ctx, fp, res, s.opts.CacheTTL)
	}
	return res
}

// tryProvider gives one candidate up to Retries attempts. Only transient
// failures are retried; permanent ones fall through to the next candidate
// after a single attempt. The backoff doubles between attempts.
func (s *Service) tryProvider(ctx context.Context, p providers.Provider, req domain.Request) domain.Result {
	var last domain.Result
	for attempt := 0; attempt < s.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(s.backoffDelay(attempt)):
			}
		}
		res := s.invoke(ctx, p, req)
		if res.Success {
			return res
		}
		last = res
		if !res.Retryable() {
			return last
		}
	}
	return last
}

// invoke performs a single bounded provider call.
func (s *Service) invoke(ctx context.Context, p providers.Provider, req domain.Request) domain.Result {
	cctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := s.Clock.Now()
	res := p.Analyze(cctx, req)
	if res.Latency == 0 {
		res.Latency = s.Clock.Now().Sub(start)
	}
	if res.Provider == "" {
		res.Provider = p.Descriptor().ID
	}
	return res
}

func (s *Service) backoffDelay(attempt int) time.Duration {
	delay := s.opts.Backoff * time.Duration(1<<uint(attempt-1))
	if max := 10 * time.Second; delay > max {
		delay = max
	}
	return delay
}

// aggregate computes the mean of successful scores and buckets the standard
// deviation into an agreement level.
func aggregate(results []domain.Result) (*float64, domain.Agreement) {
	var scores []float64
	for _, r := range results {
		if r.Success {
			scores = append(scores, r.Score)
		}
	}
	if len(scores) == 0 {
		return nil, domain.AgreementNone
	}

	var sum float64
	for _, v := range scores {
		sum += v
	}
	mean := sum / float64(len(scores))

	var variance float64
	for _, v := range scores {
		d := v - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(len(scores)))

	agreement := domain.AgreementLow
	switch {
	case sd < 5:
		agreement = domain.AgreementHigh
	case sd < 15:
		agreement = domain.AgreementModerate
	}
	return &mean, agreement
}

// record persists one analysis outcome. Persistence problems are logged and
// swallowed; history is best-effort and never fails a request.
func (s *Service) record(ctx context.Context, tenant string, req domain.Request, res domain.Result) {
	if s.Repo == nil {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		payload = []byte("{}")
	}
	rec := &domain.Record{
		ID:            domain.RecordID(fmt.Sprintf("%s-%s", uuid.New().String(), req.Task)),
		TenantID:      tenant,
		ContentDigest: domain.ContentDigest(req.Content),
		ContentType:   req.ContentType,
		Task:          req.Task,
		Provider:      res.Provider,
		Success:       res.Success,
		Score:         res.Score,
		ResultJSON:    string(payload),
		Cached:        res.Cached,
		LatencyMS:     res.Latency.Milliseconds(),
		CreatedAt:     s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, rec); err != nil {
		log.Printf("history save error: tenant=%s provider=%s: %v", tenant, res.Provider, err)
	}
}

func (s *Service) recordConsensus(ctx context.Context, tenant string, req domain.Request, out *domain.ConsensusResult) {
	if s.Repo == nil {
		return
	}
	payload, err := json.Marshal(out)
	if err != nil {
		payload = []byte("{}")
	}
	var score float64
	if out.AggregateScore != nil {
		score = *out.AggregateScore
	}
	rec := &domain.Record{
		ID:            domain.RecordID(fmt.Sprintf("%s-%s", uuid.New().String(), req.Task)),
		TenantID:      tenant,
		ContentDigest: domain.ContentDigest(req.Content),
		ContentType:   req.ContentType,
		Task:          req.Task,
		Provider:      "consensus",
		Success:       out.Successes() > 0,
		Score:         score,
		ResultJSON:    string(payload),
		LatencyMS:     0,
		CreatedAt:     s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, rec); err != nil {
		log.Printf("history save error: tenant=%s provider=consensus: %v", tenant, err)
	}
}

// Paginate exposes stored analyses for the history endpoint.
func (s *Service) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	if s.Repo == nil {
		return nil, nil
	}
	return s.Repo.Paginate(ctx, tenant, page, pageSize)
}

// Latest returns the most recent stored analyses.
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Record, error) {
	if s.Repo == nil {
		return nil, nil
	}
	return s.Repo.Latest(ctx, tenant, limit)
}
