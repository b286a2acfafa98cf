package walletsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/miko-factory/creamdash/internal/adapter"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/logger"
)

// TokensPath is the wallet API endpoint listing the wallet's tokens
const TokensPath = "/wallet-tokens"

// Source fetches the current token list of the factory wallet
//
//go:generate mockgen -source=source.go -destination=../mocks/walletsource.go -package=mocks -mock_names=Source=MockTokenSource
type Source interface {
	// FetchTokens returns the valid tokens held by the wallet.
	// Any failure is reported as a *domain.SourceError.
	FetchTokens(ctx context.Context) ([]domain.Token, error)
}

// Config holds the wallet source configuration
type Config struct {
	APIBaseURL string
	// StrictMints drops tokens whose mint is not a Solana address
	StrictMints bool
}

type source struct {
	config     Config
	httpClient adapter.HTTPClient
	json       adapter.JSON
}

// NewSource creates a wallet token source backed by the wallet HTTP API
func NewSource(cfg Config, httpClient adapter.HTTPClient, json adapter.JSON) Source {
	return &source{
		config:     cfg,
		httpClient: httpClient,
		json:       json,
	}
}

// tokensResponse is the envelope returned by the wallet API.
// Tokens is kept raw so that one malformed record does not sink the list.
type tokensResponse struct {
	Success bool               `json:"success"`
	Tokens  *[]json.RawMessage `json:"tokens"`
	Error   string             `json:"error"`
}

// FetchTokens fetches and validates the wallet's tokens
func (s *source) FetchTokens(ctx context.Context) ([]domain.Token, error) {
	url := strings.TrimRight(s.config.APIBaseURL, "/") + TokensPath

	body, err := s.httpClient.GetBytes(ctx, url)
	if err != nil {
		// The wallet API reports failures in a JSON body even on non-200 responses
		var statusErr *adapter.StatusError
		if errors.As(err, &statusErr) {
			var resp tokensResponse
			if jerr := s.json.Unmarshal(statusErr.Body, &resp); jerr == nil && resp.Error != "" {
				return nil, domain.NewSourceError(resp.Error, err)
			}
		}
		return nil, domain.NewSourceError(err.Error(), err)
	}

	var resp tokensResponse
	if err := s.json.Unmarshal(body, &resp); err != nil {
		return nil, domain.NewSourceError(fmt.Sprintf("failed to decode token response: %v", err), err)
	}

	if !resp.Success || resp.Tokens == nil {
		return nil, domain.NewSourceError(resp.Error, nil)
	}

	tokens := make([]domain.Token, 0, len(*resp.Tokens))
	for i, raw := range *resp.Tokens {
		var token domain.Token
		if err := s.json.Unmarshal(raw, &token); err != nil {
			logger.WarnCtx(ctx, "Dropping undecodable token", zap.Int("index", i), zap.Error(err))
			continue
		}
		if err := s.validate(token); err != nil {
			logger.WarnCtx(ctx, "Dropping invalid token", zap.Int("index", i), zap.Error(err))
			continue
		}
		tokens = append(tokens, token)
	}

	logger.InfoCtx(ctx, "Fetched wallet tokens",
		zap.Int("received", len(*resp.Tokens)),
		zap.Int("accepted", len(tokens)))

	return tokens, nil
}

func (s *source) validate(token domain.Token) error {
	if err := token.Validate(); err != nil {
		return err
	}
	if s.config.StrictMints {
		return token.ValidateSolanaMint()
	}
	return nil
}
