package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/knaito/opcg-pricewatch/internal/affiliate"
	"github.com/knaito/opcg-pricewatch/internal/fxrate"
	"github.com/knaito/opcg-pricewatch/internal/model"
	"github.com/knaito/opcg-pricewatch/internal/normalize"
	"github.com/knaito/opcg-pricewatch/internal/reconcile"
	"github.com/knaito/opcg-pricewatch/internal/source"
	"github.com/knaito/opcg-pricewatch/internal/store"
)

// Store is the persistence surface the runner needs.
type Store interface {
	ListCards(ctx context.Context, offset, limit int) ([]model.Card, error)
	GetReferencePrice(ctx context.Context, cardNumber string, cond model.Condition) (decimal.Decimal, bool, error)
	UpsertCurrentPrice(ctx context.Context, rp model.ReconciledPrice) error
	AppendPriceHistory(ctx context.Context, e model.PriceHistoryEntry) error
}

// RateLoader resolves the per-run currency rate table.
type RateLoader interface {
	Load(ctx context.Context) (fxrate.Rates, error)
}

// Config holds runner settings.
type Config struct {
	BatchSize     int           // Cards per invocation
	PairInterval  time.Duration // Token-bucket refill per (card, condition) pair
	CooldownEvery int           // Pairs between cooldowns
	CooldownFor   time.Duration
	TimeBudget    time.Duration // Soft limit; exceeded -> stop with next_offset
	FloorRatio    float64       // Plausibility floor ratio, typically 0.5
	DryRun        bool          // Reconcile but skip writes
}

// Runner drives the pipeline across all tracked cards.
type Runner struct {
	cfg      Config
	adapters []source.Adapter
	store    Store
	rates    RateLoader
	tagger   *affiliate.Tagger
	logger   *slog.Logger
	limiter  *rate.Limiter

	now func() time.Time // Test hook
}

// New creates a Runner.
func New(cfg Config, adapters []source.Adapter, st Store, rates RateLoader, tagger *affiliate.Tagger, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.PairInterval
	if interval <= 0 {
		interval = time.Nanosecond
	}
	return &Runner{
		cfg:      cfg,
		adapters: adapters,
		store:    st,
		rates:    rates,
		tagger:   tagger,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		now:      time.Now,
	}
}

// Run processes one batch starting at the given card offset and returns the
// summary. Errors are returned only for run-aborting conditions (rate table
// or card list unavailable); everything per-pair lands in the summary.
func (r *Runner) Run(ctx context.Context, offset int) (model.RunSummary, error) {
	summary := model.RunSummary{
		RunID:     uuid.New(),
		StartedAt: r.now().UTC(),
	}
	log := r.logger.With("run_id", summary.RunID)

	rates, err := r.rates.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("load rates: %w", err)
	}

	// Fetch one extra card to learn whether more remain past this batch.
	cards, err := r.store.ListCards(ctx, offset, r.cfg.BatchSize+1)
	if err != nil {
		return summary, fmt.Errorf("list cards: %w", err)
	}
	hasMore := len(cards) > r.cfg.BatchSize
	if hasMore {
		cards = cards[:r.cfg.BatchSize]
	}

	log.Info("batch started",
		"offset", offset,
		"cards", len(cards),
		"adapters", len(r.adapters),
	)

	pairs := 0
	stopped := false

cardLoop:
	for i, card := range cards {
		if r.cfg.TimeBudget > 0 && r.now().UTC().Sub(summary.StartedAt) > r.cfg.TimeBudget {
			log.Warn("time budget exceeded, stopping early",
				"processed_cards", i,
			)
			summary.NextOffset = offset + i
			stopped = true
			break
		}

		for _, cond := range model.Conditions {
			if err := r.limiter.Wait(ctx); err != nil {
				summary.NextOffset = offset + i
				stopped = true
				break cardLoop
			}

			r.processPair(ctx, log, card, cond, rates, &summary)

			pairs++
			if r.cfg.CooldownEvery > 0 && pairs%r.cfg.CooldownEvery == 0 {
				if !r.cooldown(ctx) {
					summary.NextOffset = offset + i + 1
					stopped = true
					break cardLoop
				}
			}
		}
	}

	if !stopped {
		if hasMore {
			summary.NextOffset = offset + len(cards)
		} else {
			summary.Complete = true
		}
	}
	summary.FinishedAt = r.now().UTC()

	log.Info("batch finished",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"complete", summary.Complete,
		"next_offset", summary.NextOffset,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)

	return summary, nil
}

// RunCard prices a single card immediately, outside any batch cursor. Used
// by the one-shot CLI mode; pacing still applies.
func (r *Runner) RunCard(ctx context.Context, card model.Card) (model.RunSummary, error) {
	summary := model.RunSummary{
		RunID:     uuid.New(),
		StartedAt: r.now().UTC(),
		Complete:  true,
	}
	log := r.logger.With("run_id", summary.RunID)

	rates, err := r.rates.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("load rates: %w", err)
	}

	for _, cond := range model.Conditions {
		if err := r.limiter.Wait(ctx); err != nil {
			return summary, err
		}
		r.processPair(ctx, log, card, cond, rates, &summary)
	}

	summary.FinishedAt = r.now().UTC()
	return summary, nil
}

// processPair runs the pipeline for one (card, condition) pair. All failure
// handling is local: nothing escapes to abort the batch.
func (r *Runner) processPair(ctx context.Context, log *slog.Logger, card model.Card, cond model.Condition, rates fxrate.Rates, summary *model.RunSummary) {
	summary.Processed++
	plog := log.With("card", card.Number, "condition", string(cond))

	var union []model.Listing
	sourceErrs := 0
	for _, ad := range r.adapters {
		listings, err := ad.Search(ctx, card, cond)
		if err != nil {
			sourceErrs++
			plog.Warn("source unavailable", "source", ad.Name(), "err", err)
			continue
		}
		union = append(union, listings...)
	}

	if len(union) == 0 {
		if sourceErrs > 0 {
			// Every usable source failed; this pair goes unpriced this pass.
			summary.Failed++
			summary.Failures = append(summary.Failures, model.Failure{
				CardNumber: card.Number,
				Condition:  cond,
				Reason:     model.ReasonSourceUnavailable,
				Detail:     fmt.Sprintf("%d source(s) failed", sourceErrs),
			})
			return
		}
		// Valid empty outcome, not an error.
		plog.Debug("no listings found")
		summary.Skipped++
		return
	}

	candidates, dropped := normalize.Listings(union, rates)
	if dropped > 0 {
		plog.Debug("dropped listings with unresolvable currency", "dropped", dropped)
	}
	if len(candidates) == 0 {
		summary.Skipped++
		return
	}

	refAmount, refExists, err := r.store.GetReferencePrice(ctx, card.Number, cond)
	if err != nil {
		summary.Failed++
		summary.Failures = append(summary.Failures, model.Failure{
			CardNumber: card.Number,
			Condition:  cond,
			Reason:     model.ReasonPersistFailed,
			Detail:     "reference price read failed",
		})
		plog.Error("reference price read failed", "err", err)
		return
	}

	res, err := reconcile.Reconcile(candidates, reconcile.Reference{
		AmountJPY: refAmount,
		Exists:    refExists,
	}, decimal.NewFromFloat(r.cfg.FloorRatio))
	if err != nil {
		// All candidates below the plausibility floor: a skip, never a
		// zero-price write.
		plog.Info("all candidates rejected by plausibility floor",
			"candidates", len(candidates),
			"reference_jpy", refAmount.String(),
		)
		summary.Skipped++
		return
	}

	rep := res.Representative
	sourceURL := rep.URL
	if rep.Source == model.SourceEbay {
		sourceURL = r.tagger.Tag(sourceURL)
	}

	rp := model.ReconciledPrice{
		CardNumber:   card.Number,
		Condition:    cond,
		Amount:       rep.Price,
		Currency:     rep.Currency,
		AmountJPY:    rep.AmountJPY,
		SourceURL:    sourceURL,
		Source:       rep.Source,
		ReconciledAt: r.now().UTC(),
	}

	plog.Info("reconciled",
		"amount", rp.Amount.String(),
		"currency", rp.Currency,
		"amount_jpy", rp.AmountJPY.String(),
		"source", rp.Source,
		"survivors", res.Stats.Count,
		"rejected", res.Rejected,
		"min_jpy", res.Stats.Min.String(),
		"mean_jpy", res.Stats.Mean.String(),
		"max_jpy", res.Stats.Max.String(),
	)

	if r.cfg.DryRun {
		summary.Succeeded++
		return
	}

	// The upsert and the history append are independent: each is attempted
	// regardless of the other's outcome, and partial success is logged.
	upsertErr := r.store.UpsertCurrentPrice(ctx, rp)
	if upsertErr != nil {
		plog.Error("current price upsert failed", "err", upsertErr)
	}
	histErr := r.store.AppendPriceHistory(ctx, store.HistoryEntryFor(rp))
	if histErr != nil {
		plog.Error("price history append failed", "err", histErr)
	}

	if upsertErr != nil || histErr != nil {
		if upsertErr == nil || histErr == nil {
			plog.Warn("partial persistence: one write succeeded, one failed")
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, model.Failure{
			CardNumber: card.Number,
			Condition:  cond,
			Reason:     model.ReasonPersistFailed,
			Detail:     persistDetail(upsertErr, histErr),
		})
		return
	}

	summary.Succeeded++
}

// cooldown pauses between pair groups; returns false when the context was
// cancelled during the pause.
func (r *Runner) cooldown(ctx context.Context) bool {
	if r.cfg.CooldownFor <= 0 {
		return true
	}
	r.logger.Debug("cooldown", "for", r.cfg.CooldownFor)
	select {
	case <-time.After(r.cfg.CooldownFor):
		return true
	case <-ctx.Done():
		return false
	}
}

func persistDetail(upsertErr, histErr error) string {
	switch {
	case upsertErr != nil && histErr != nil:
		return "upsert and history append failed"
	case upsertErr != nil:
		return "upsert failed, history appended"
	default:
		return "history append failed, upsert succeeded"
	}
}
