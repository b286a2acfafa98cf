package metadata

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/miko-factory/creamdash/internal/adapter"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/logger"
	"github.com/miko-factory/creamdash/internal/ratelimit"
)

// ErrUnsupportedScheme is returned for URIs the fetcher cannot dereference
var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

// Config holds the gateways used for content-addressed URIs
type Config struct {
	IPFSGateways    []string
	ArweaveGateways []string
}

// Fetcher dereferences a metadata URI into a JSON document
//
//go:generate mockgen -source=fetcher.go -destination=../mocks/metadata_fetcher.go -package=mocks -mock_names=Fetcher=MockDocumentFetcher
type Fetcher interface {
	// Fetch returns the raw document behind uri. The result is guaranteed to be
	// a JSON object; anything else yields an error wrapping domain.ErrInvalidDocument.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

type fetcher struct {
	config     Config
	httpClient adapter.HTTPClient
	json       adapter.JSON
	limiter    ratelimit.Limiter
}

// NewFetcher creates a document fetcher. A nil limiter disables rate limiting.
func NewFetcher(cfg Config, httpClient adapter.HTTPClient, json adapter.JSON, limiter ratelimit.Limiter) Fetcher {
	if limiter == nil {
		limiter = ratelimit.NewHostLimiter(ratelimit.Config{})
	}
	if len(cfg.IPFSGateways) == 0 {
		cfg.IPFSGateways = []string{domain.DEFAULT_IPFS_GATEWAY}
	}
	if len(cfg.ArweaveGateways) == 0 {
		cfg.ArweaveGateways = []string{domain.DEFAULT_ARWEAVE_GATEWAY}
	}
	return &fetcher{
		config:     cfg,
		httpClient: httpClient,
		json:       json,
		limiter:    limiter,
	}
}

// Fetch fetches a document from a given URI, handling different protocols
func (f *fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	uri = strings.TrimSpace(uri)

	var (
		body []byte
		err  error
	)
	switch {
	case strings.HasPrefix(uri, "data:"):
		body, err = parseDataURI(uri)
	case strings.HasPrefix(uri, "ipfs://"):
		body, err = f.fetchFromGateways(ctx, f.config.IPFSGateways, "ipfs/"+strings.TrimPrefix(uri, "ipfs://"))
	case strings.HasPrefix(uri, "ar://"):
		body, err = f.fetchFromGateways(ctx, f.config.ArweaveGateways, strings.TrimPrefix(uri, "ar://"))
	case strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://"):
		body, err = f.get(ctx, uri)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, uri)
	}
	if err != nil {
		return nil, err
	}

	if err := f.checkJSONObject(body); err != nil {
		return nil, err
	}

	return body, nil
}

// get waits for the host's rate limit, then fetches u
func (f *fetcher) get(ctx context.Context, u string) ([]byte, error) {
	if err := f.limiter.Wait(ctx, u); err != nil {
		return nil, err
	}
	return f.httpClient.GetBytes(ctx, u)
}

// ContentTypeError reports a document whose sniffed type is not JSON, such as
// an HTML error page or an image served where metadata was expected
type ContentTypeError struct {
	MIME string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("%s: unexpected content type %s", domain.ErrInvalidDocument, e.MIME)
}

func (e *ContentTypeError) Unwrap() error {
	return domain.ErrInvalidDocument
}

// checkJSONObject rejects payloads that are not a JSON object. The body is
// sniffed first so that pages and binaries are never handed to the JSON parser.
func (f *fetcher) checkJSONObject(body []byte) error {
	mtype := mimetype.Detect(body)
	if !isJSONCandidate(mtype) {
		return &ContentTypeError{MIME: mtype.String()}
	}

	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") || !f.json.Valid(body) {
		return fmt.Errorf("%w: not a JSON object (detected %s)", domain.ErrInvalidDocument, mtype.String())
	}

	return nil
}

// isJSONCandidate accepts JSON and its subtypes, plus plain text which covers
// truncated or otherwise unrecognised JSON
func isJSONCandidate(mtype *mimetype.MIME) bool {
	if mtype.Is("text/plain") {
		return true
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/json") {
			return true
		}
	}
	return false
}

// parseDataURI decodes data:application/json;base64,<data> or data:application/json,<data>
func parseDataURI(uri string) ([]byte, error) {
	parts := strings.SplitN(strings.TrimPrefix(uri, "data:"), ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: invalid data URI format", domain.ErrInvalidDocument)
	}

	mediaType, data := parts[0], parts[1]
	if strings.HasSuffix(mediaType, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode base64: %v", domain.ErrInvalidDocument, err)
		}
		return decoded, nil
	}

	unescaped, err := url.PathUnescape(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to unescape data URI: %v", domain.ErrInvalidDocument, err)
	}
	return []byte(unescaped), nil
}

// fetchFromGateways tries every gateway in parallel and returns the first successful result
func (f *fetcher) fetchFromGateways(ctx context.Context, gateways []string, path string) ([]byte, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		body []byte
		err  error
	}

	results := make(chan result, len(gateways))

	for _, gateway := range gateways {
		go func(gw string) {
			u := strings.TrimRight(gw, "/") + "/" + path
			body, err := f.get(ctx, u)
			if err != nil {
				logger.Debug("Gateway fetch failed", zap.String("url", u), zap.Error(err))
			}
			results <- result{body: body, err: err}
		}(gateway)
	}

	var errs []error
	for range gateways {
		res := <-results
		if res.err == nil {
			return res.body, nil
		}
		errs = append(errs, res.err)
	}

	return nil, fmt.Errorf("failed to fetch %s from all gateways: %w", path, errors.Join(errs...))
}
