package middleware

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apierrors "github.com/miko-factory/creamdash/internal/api/shared/errors"
	"github.com/miko-factory/creamdash/internal/logger"
)

// Role is what a caller may do on the dashboard
type Role string

const (
	// RoleManager may trigger refreshes; factory managers and automation hold it
	RoleManager Role = "manager"
	// RoleOperator watches the floor and signs in at stations
	RoleOperator Role = "operator"
)

type contextKey string

const PRINCIPAL_KEY contextKey = "principal"

// jwtLeeway absorbs clock drift between the token issuer and this service
const jwtLeeway = 30 * time.Second

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string // RSA public key in PEM format
	// APIKeys are machine credentials (cron, ops scripts); they act as managers
	APIKeys []string
}

// StaffClaims are the claims of a dashboard staff token
type StaffClaims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// Principal is the authenticated caller of a request
type Principal struct {
	Method  string // "jwt" or "apikey"
	Subject string
	Role    Role
}

// PrincipalFrom returns the caller stored by RequireRole
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(PRINCIPAL_KEY)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

type authenticator struct {
	publicKey *rsa.PublicKey
	keyErr    error
	apiKeys   map[string]struct{}
}

func newAuthenticator(cfg AuthConfig) *authenticator {
	a := &authenticator{apiKeys: make(map[string]struct{})}
	for _, key := range cfg.APIKeys {
		if key != "" {
			a.apiKeys[key] = struct{}{}
		}
	}

	if cfg.JWTPublicKey == "" {
		a.keyErr = errors.New("JWT public key not configured")
	} else if a.publicKey, a.keyErr = parseRSAPublicKey(cfg.JWTPublicKey); a.keyErr != nil {
		logger.Error(a.keyErr, zap.String("message", "Invalid JWT public key, bearer tokens will be rejected"))
		a.keyErr = fmt.Errorf("failed to parse RSA public key: %w", a.keyErr)
	}
	return a
}

// authenticate resolves the Authorization header into a principal
func (a *authenticator) authenticate(header string) (Principal, error) {
	if header == "" {
		return Principal{}, errors.New("missing Authorization header")
	}

	scheme, credentials, ok := strings.Cut(header, " ")
	if !ok || credentials == "" {
		return Principal{}, errors.New("invalid Authorization header format")
	}

	switch strings.ToLower(scheme) {
	case "bearer":
		claims, err := a.parseStaffToken(credentials)
		if err != nil {
			return Principal{}, err
		}
		return Principal{Method: "jwt", Subject: claims.Subject, Role: claims.Role}, nil
	case "apikey":
		if len(a.apiKeys) == 0 {
			return Principal{}, errors.New("no API keys configured")
		}
		if _, ok := a.apiKeys[credentials]; !ok {
			return Principal{}, errors.New("invalid API key")
		}
		return Principal{Method: "apikey", Role: RoleManager}, nil
	default:
		return Principal{}, fmt.Errorf("unsupported authorization type: %s", scheme)
	}
}

// parseStaffToken verifies an RS-signed staff token. Tokens without a known
// role are rejected.
func (a *authenticator) parseStaffToken(raw string) (*StaffClaims, error) {
	if a.keyErr != nil {
		return nil, a.keyErr
	}

	claims := &StaffClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.publicKey, nil
	}, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}), jwt.WithLeeway(jwtLeeway))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	switch claims.Role {
	case RoleManager, RoleOperator:
		return claims, nil
	case "":
		return nil, errors.New("token has no role")
	default:
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}
}

// RequireRole authenticates the request with a bearer staff token or an API
// key and lets it through only when the caller holds one of roles
func RequireRole(cfg AuthConfig, roles ...Role) gin.HandlerFunc {
	auth := newAuthenticator(cfg)

	return func(c *gin.Context) {
		principal, err := auth.authenticate(c.GetHeader("Authorization"))
		if err != nil {
			logger.WarnCtx(c.Request.Context(), "Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()))
			apiErr := apierrors.NewUnauthorizedError("Authentication failed", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiErr.Wrap())
			return
		}

		if !slices.Contains(roles, principal.Role) {
			logger.WarnCtx(c.Request.Context(), "Caller lacks the required role",
				zap.String("path", c.Request.URL.Path),
				zap.String("subject", principal.Subject),
				zap.String("role", string(principal.Role)))
			apiErr := apierrors.NewForbiddenError("Insufficient role", fmt.Sprintf("%s role required", joinRoles(roles)))
			c.AbortWithStatusJSON(http.StatusForbidden, apiErr.Wrap())
			return
		}

		c.Set(PRINCIPAL_KEY, principal)
		logger.DebugCtx(c.Request.Context(), "Request authenticated",
			zap.String("method", principal.Method),
			zap.String("subject", principal.Subject),
			zap.String("role", string(principal.Role)))

		c.Next()
	}
}

func joinRoles(roles []Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, " or ")
}

// parseRSAPublicKey accepts PKIX and PKCS1 PEM blocks
func parseRSAPublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing public key")
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an RSA key")
	}
	return rsaKey, nil
}
