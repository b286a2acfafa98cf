package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miko-factory/creamdash/internal/logger"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	gin.SetMode(gin.TestMode)
	code := m.Run()
	os.Exit(code)
}

func generateKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pemKey)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims StaffClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func staffClaims(subject string, role Role, expiresIn time.Duration) StaffClaims {
	return StaffClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
		Role: role,
	}
}

func TestAuthenticate(t *testing.T) {
	key, publicPEM := generateKeyPair(t)
	otherKey, _ := generateKeyPair(t)
	auth := newAuthenticator(AuthConfig{JWTPublicKey: publicPEM, APIKeys: []string{"secret"}})

	manager := signToken(t, key, staffClaims("shift-lead", RoleManager, time.Hour))
	operator := signToken(t, key, staffClaims("MKO_FBEN", RoleOperator, time.Hour))
	expired := signToken(t, key, staffClaims("shift-lead", RoleManager, -time.Hour))
	foreign := signToken(t, otherKey, staffClaims("shift-lead", RoleManager, time.Hour))
	noRole := signToken(t, key, staffClaims("shift-lead", "", time.Hour))
	unknownRole := signToken(t, key, staffClaims("shift-lead", "owner", time.Hour))
	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, staffClaims("x", RoleManager, time.Hour)).SignedString([]byte("k"))
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		expected    Principal
		expectedErr string
	}{
		{name: "missing header", header: "", expectedErr: "missing Authorization header"},
		{name: "malformed header", header: "Bearer", expectedErr: "invalid Authorization header format"},
		{name: "unsupported scheme", header: "Basic dXNlcjpwYXNz", expectedErr: "unsupported authorization type"},
		{name: "api key acts as manager", header: "ApiKey secret", expected: Principal{Method: "apikey", Role: RoleManager}},
		{name: "wrong api key", header: "ApiKey nope", expectedErr: "invalid API key"},
		{name: "manager token", header: "Bearer " + manager, expected: Principal{Method: "jwt", Subject: "shift-lead", Role: RoleManager}},
		{name: "operator token", header: "bearer " + operator, expected: Principal{Method: "jwt", Subject: "MKO_FBEN", Role: RoleOperator}},
		{name: "expired token", header: "Bearer " + expired, expectedErr: "failed to parse token"},
		{name: "token signed by another key", header: "Bearer " + foreign, expectedErr: "failed to parse token"},
		{name: "hmac token", header: "Bearer " + hmac, expectedErr: "failed to parse token"},
		{name: "token without role", header: "Bearer " + noRole, expectedErr: "token has no role"},
		{name: "token with unknown role", header: "Bearer " + unknownRole, expectedErr: `unknown role "owner"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := auth.authenticate(tt.header)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, principal)
		})
	}
}

func TestAuthenticate_NoCredentialsConfigured(t *testing.T) {
	auth := newAuthenticator(AuthConfig{})

	_, err := auth.authenticate("ApiKey anything")
	assert.EqualError(t, err, "no API keys configured")

	_, err = auth.authenticate("Bearer token")
	assert.EqualError(t, err, "JWT public key not configured")
}

func TestAuthenticate_InvalidPublicKey(t *testing.T) {
	auth := newAuthenticator(AuthConfig{JWTPublicKey: "not a pem"})

	_, err := auth.authenticate("Bearer token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse RSA public key")
}

func TestRequireRole(t *testing.T) {
	key, publicPEM := generateKeyPair(t)
	cfg := AuthConfig{JWTPublicKey: publicPEM, APIKeys: []string{"secret"}}

	router := gin.New()
	router.POST("/refresh", RequireRole(cfg, RoleManager), func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, principal.Method+":"+string(principal.Role))
	})

	tests := []struct {
		name         string
		header       string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "no credentials",
			expectedCode: http.StatusUnauthorized,
			expectedBody: `"code":"unauthorized"`,
		},
		{
			name:         "api key",
			header:       "ApiKey secret",
			expectedCode: http.StatusOK,
			expectedBody: "apikey:manager",
		},
		{
			name:         "manager token",
			header:       "Bearer " + signToken(t, key, staffClaims("shift-lead", RoleManager, time.Hour)),
			expectedCode: http.StatusOK,
			expectedBody: "jwt:manager",
		},
		{
			name:         "operator token is forbidden",
			header:       "Bearer " + signToken(t, key, staffClaims("MKO_FBEN", RoleOperator, time.Hour)),
			expectedCode: http.StatusForbidden,
			expectedBody: `"code":"forbidden"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery())
	router.GET("/boom", func(c *gin.Context) {
		panic("freezer on fire")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":{"code":"internal_error","message":"Internal server error"}}`, w.Body.String())
}
