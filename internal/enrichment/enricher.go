package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/logger"
	"github.com/miko-factory/creamdash/internal/metadata"
)

// fallbackNamePrefixLen is how much of the mint goes into a fallback batch name
const fallbackNamePrefixLen = 8

// Config holds enrichment configuration
type Config struct {
	// Concurrency bounds the number of tokens enriched at the same time
	Concurrency int
	// LegacyBatchNumbering names unnamed batches "Batch N" by success order
	// instead of after their mint
	LegacyBatchNumbering bool
}

// Enricher turns tokens into enriched batches
//
//go:generate mockgen -source=enricher.go -destination=../mocks/enricher.go -package=mocks -mock_names=Enricher=MockEnricher
type Enricher interface {
	// Enrich fetches the metadata of every token. Per-token failures are
	// recorded in the result and never abort the run.
	Enrich(ctx context.Context, tokens []domain.Token) Result
	// Close stops the worker pool
	Close()
}

// outcome is what one pool task reports; tasks never return an error
type outcome struct {
	batch   *Batch
	failure *TokenFailure
	err     error
}

type enricher struct {
	config  Config
	fetcher metadata.Fetcher
	pool    pond.ResultPool[outcome]
}

// NewEnricher creates an enricher backed by a bounded worker pool
func NewEnricher(cfg Config, fetcher metadata.Fetcher) Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	return &enricher{
		config:  cfg,
		fetcher: fetcher,
		pool:    pond.NewResultPool[outcome](cfg.Concurrency),
	}
}

// Close stops the worker pool and waits for running tasks
func (e *enricher) Close() {
	e.pool.StopAndWait()
}

// Enrich enriches tokens concurrently and gathers the outcomes in input order
func (e *enricher) Enrich(ctx context.Context, tokens []domain.Token) Result {
	log := logger.FromContext(ctx).With(zap.String("component", "enrichment"))

	tasks := make([]pond.Result[outcome], len(tokens))
	for i := range tokens {
		token := tokens[i]
		tasks[i] = e.pool.SubmitErr(func() (outcome, error) {
			if err := ctx.Err(); err != nil {
				return outcome{err: err}, nil
			}
			return e.enrichToken(ctx, token), nil
		})
	}

	result := Result{Batches: make([]Batch, 0, len(tokens))}
	for i, task := range tasks {
		out, err := task.Wait()
		if err == nil {
			err = out.err
		}
		if err != nil {
			// The pool was stopped or the caller gave up; partial output is not usable
			if result.Error == nil {
				result.Error = fmt.Errorf("enrichment aborted at token %d: %w", i, err)
			}
			continue
		}

		if out.failure != nil {
			result.Skipped++
			result.Failures = append(result.Failures, *out.failure)
			fields := []zap.Field{
				zap.String("mint", out.failure.Mint),
				zap.String("stage", string(out.failure.Stage)),
				zap.Error(out.failure.Err),
			}
			var typeErr *metadata.ContentTypeError
			if errors.As(out.failure.Err, &typeErr) {
				fields = append(fields, zap.String("content_type", typeErr.MIME))
			}
			log.Warn("Skipping token", fields...)
			continue
		}

		result.Batches = append(result.Batches, *out.batch)
	}

	if result.Error != nil {
		log.Error("Enrichment aborted", zap.Error(result.Error))
		return Result{Batches: []Batch{}, Error: result.Error}
	}

	e.applyNameFallbacks(result.Batches)

	log.Info("Enriched tokens",
		zap.Int("tokens", len(tokens)),
		zap.Int("batches", len(result.Batches)),
		zap.Int("skipped", result.Skipped))

	return result
}

// enrichToken runs the fetch chain for a single token
func (e *enricher) enrichToken(ctx context.Context, token domain.Token) outcome {
	fail := func(stage Stage, err error) outcome {
		return outcome{failure: &TokenFailure{Mint: token.Mint, Stage: stage, Err: err}}
	}

	if token.URI == "" {
		return fail(StageMissingURI, nil)
	}

	primaryRaw, err := e.fetcher.Fetch(ctx, token.URI)
	if err != nil {
		return e.failOrAbort(ctx, fail(StageFetchPrimary, err))
	}

	primary, err := metadata.ParsePrimary(primaryRaw)
	if err != nil {
		if errors.Is(err, metadata.ErrMissingSecondaryFile) {
			return fail(StageMissingSecondaryFile, err)
		}
		return fail(StageFetchPrimary, err)
	}

	secondaryRaw, err := e.fetcher.Fetch(ctx, primary.SecondaryURI)
	if err != nil {
		return e.failOrAbort(ctx, fail(StageFetchSecondary, err))
	}

	secondary, err := metadata.ParseSecondary(secondaryRaw)
	if err != nil {
		return fail(StageParseSecondary, err)
	}

	batch := merge(token, secondary)
	return outcome{batch: &batch}
}

// failOrAbort turns a fetch failure into an abort when the caller's context is done
func (e *enricher) failOrAbort(ctx context.Context, o outcome) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{err: err}
	}
	return o
}

// merge combines a token with its batch document; document fields win over fallbacks.
// Name is left empty when the document has none; applyNameFallbacks fills it.
func merge(token domain.Token, doc *metadata.SecondaryDocument) Batch {
	return Batch{
		ID:             valueOr(doc.ID, token.Mint),
		Name:           valueOr(doc.Name, ""),
		Status:         domain.Status(valueOr(doc.Status, string(domain.DEFAULT_BATCH_STATUS))),
		StartDate:      valueOr(doc.StartDate, token.CreatedAt.UTC().Format(domain.START_DATE_LAYOUT)),
		Product:        valueOr(doc.Product, productFallback(token)),
		Quantity:       valueOr(doc.Quantity, domain.DEFAULT_BATCH_QUANTITY),
		SecondFileData: doc.Raw,
		Token:          token,
	}
}

// applyNameFallbacks names batches whose document has no name
func (e *enricher) applyNameFallbacks(batches []Batch) {
	for i := range batches {
		if batches[i].Name != "" {
			continue
		}
		if e.config.LegacyBatchNumbering {
			batches[i].Name = "Batch " + strconv.Itoa(i+1)
		} else {
			batches[i].Name = "Batch " + domain.Prefix(batches[i].Token.Mint, fallbackNamePrefixLen)
		}
	}
}

func productFallback(token domain.Token) string {
	if token.Name != "" {
		return token.Name
	}
	return domain.DEFAULT_BATCH_PRODUCT
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
