package operator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/miko-factory/creamdash/internal/adapter"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/logger"
	"github.com/miko-factory/creamdash/internal/registry"
	"github.com/miko-factory/creamdash/internal/store"
)

// ManualRole is the role given to operators who sign in by typing a code
const ManualRole = "operator"

// Service creates and resolves operator sessions
//
//go:generate mockgen -source=session.go -destination=../mocks/operator_service.go -package=mocks -mock_names=Service=MockOperatorService
type Service interface {
	// LoginWithBadge signs in the roster operator whose badge code appears in the OCR text
	LoginWithBadge(ctx context.Context, ocrText string) (*domain.OperatorSession, error)
	// LoginWithCode signs in with a typed employee code
	LoginWithCode(ctx context.Context, code string) (*domain.OperatorSession, error)
	// Load returns a live session
	Load(ctx context.Context, id string) (*domain.OperatorSession, error)
	// Clear ends a session
	Clear(ctx context.Context, id string) error
	// PurgeExpired removes expired sessions from the store
	PurgeExpired(ctx context.Context) (int64, error)
}

// Config holds operator session configuration
type Config struct {
	SessionTTL time.Duration
}

type service struct {
	config   Config
	registry registry.OperatorRegistry
	store    store.Store
	clock    adapter.Clock
}

// NewService creates a new operator session service
func NewService(cfg Config, reg registry.OperatorRegistry, st store.Store, clock adapter.Clock) Service {
	return &service{
		config:   cfg,
		registry: reg,
		store:    st,
		clock:    clock,
	}
}

func (s *service) LoginWithBadge(ctx context.Context, ocrText string) (*domain.OperatorSession, error) {
	if strings.TrimSpace(ocrText) == "" {
		return nil, fmt.Errorf("%w: ocr text is empty", domain.ErrInvalidInput)
	}

	op, err := s.registry.MatchBadge(ocrText)
	if err != nil {
		logger.WarnCtx(ctx, "Badge code not recognized", zap.Int("text_length", len(ocrText)))
		return nil, err
	}

	return s.create(ctx, *op)
}

func (s *service) LoginWithCode(ctx context.Context, code string) (*domain.OperatorSession, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: employee code is empty", domain.ErrInvalidInput)
	}

	return s.create(ctx, domain.Operator{
		ID:   code,
		Name: "Operator " + code,
		Role: ManualRole,
	})
}

func (s *service) create(ctx context.Context, op domain.Operator) (*domain.OperatorSession, error) {
	now := s.clock.Now().UTC()
	session := &domain.OperatorSession{
		ID:        uuid.NewString(),
		Operator:  op,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.SessionTTL),
	}

	if err := s.store.SaveOperatorSession(ctx, session); err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "Operator signed in",
		zap.String("session_id", session.ID),
		zap.String("operator_id", op.ID),
		zap.String("role", op.Role))

	return session, nil
}

func (s *service) Load(ctx context.Context, id string) (*domain.OperatorSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrSessionNotFound
	}

	session, err := s.store.GetOperatorSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.clock.Now()) {
		if err := s.store.DeleteOperatorSession(ctx, id); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("session_id", id))
		}
		return nil, domain.ErrSessionNotFound
	}

	return session, nil
}

func (s *service) Clear(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	if err := s.store.DeleteOperatorSession(ctx, id); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Operator signed out", zap.String("session_id", id))
	return nil
}

func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredOperatorSessions(ctx, s.clock.Now())
}
