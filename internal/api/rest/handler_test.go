package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miko-factory/creamdash/internal/api/middleware"
	"github.com/miko-factory/creamdash/internal/api/rest"
	"github.com/miko-factory/creamdash/internal/dashboard"
	"github.com/miko-factory/creamdash/internal/domain"
	"github.com/miko-factory/creamdash/internal/enrichment"
	"github.com/miko-factory/creamdash/internal/logger"
	"github.com/miko-factory/creamdash/internal/mocks"
	"github.com/miko-factory/creamdash/internal/timeline"
)

const (
	testAPIKey        = "test-api-key"
	testCollectionKey = "VanillaCollectionAddress"
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

type testHandlerMocks struct {
	ctrl      *gomock.Controller
	dashboard *mocks.MockDashboardService
	operators *mocks.MockOperatorService
	router    *gin.Engine
}

func setupTestHandler(t *testing.T) *testHandlerMocks {
	ctrl := gomock.NewController(t)

	tm := &testHandlerMocks{
		ctrl:      ctrl,
		dashboard: mocks.NewMockDashboardService(ctrl),
		operators: mocks.NewMockOperatorService(ctrl),
		router:    gin.New(),
	}
	rest.SetupRoutes(tm.router,
		rest.NewHandler(tm.dashboard, tm.operators),
		middleware.AuthConfig{APIKeys: []string{testAPIKey}})
	return tm
}

func (tm *testHandlerMocks) do(method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	tm.router.ServeHTTP(w, req)
	return w
}

func testSnapshot() *dashboard.Snapshot {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	name := "Vanilla Dream"
	address := testCollectionKey

	tokens := make([]domain.Token, 3)
	for i := range tokens {
		tokens[i] = domain.Token{
			Mint:       base58.Encode(bytes.Repeat([]byte{byte(i + 1)}, domain.SOLANA_MINT_LENGTH)),
			Name:       "Scoop",
			URI:        "https://meta.example/scoop.json",
			Collection: &domain.Collection{Address: &address, Name: &name},
			CreatedAt:  domain.NewTimestamp(created.Add(time.Duration(i) * time.Minute)),
		}
	}

	return &dashboard.Snapshot{
		ID:          "01HZX3Q6M2T1B7S0D9KQ4V8N5C",
		Fingerprint: "abc123",
		GeneratedAt: created.Add(time.Hour),
		Tokens:      tokens,
		Stats:       timeline.ComputeStats(tokens),
		Batches: []enrichment.Batch{{
			ID:       tokens[0].Mint,
			Name:     "Vanilla Batch",
			Status:   domain.StatusCompleted,
			Product:  "IceCream_NFT",
			Quantity: "500L",
			Token:    tokens[0],
		}},
		Timeline: timeline.Project(tokens),
	}
}

func readySnapshot(tm *testHandlerMocks) *dashboard.Snapshot {
	s := testSnapshot()
	tm.dashboard.EXPECT().State().Return(dashboard.State{Snapshot: s}).AnyTimes()
	return s
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	tm := setupTestHandler(t)
	defer tm.ctrl.Finish()
	tm.dashboard.EXPECT().State().Return(dashboard.State{Loading: true})

	w := tm.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"creamdash-api","ready":false}`, w.Body.String())
}

func TestListTokens(t *testing.T) {
	tests := []struct {
		name         string
		state        dashboard.State
		headers      map[string]string
		expectedCode int
		expectedErr  string
		expectedMsg  string
	}{
		{
			name:         "loading",
			state:        dashboard.State{Loading: true},
			expectedCode: http.StatusServiceUnavailable,
			expectedErr:  "not_ready",
		},
		{
			name:         "source failure",
			state:        dashboard.State{Err: domain.NewSourceError("Wallet API is down", nil)},
			expectedCode: http.StatusBadGateway,
			expectedErr:  "source_error",
			expectedMsg:  "Wallet API is down",
		},
		{
			name:         "ready",
			state:        dashboard.State{Snapshot: testSnapshot()},
			expectedCode: http.StatusOK,
		},
		{
			name:         "not modified",
			state:        dashboard.State{Snapshot: testSnapshot()},
			headers:      map[string]string{"If-None-Match": `"abc123"`},
			expectedCode: http.StatusNotModified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t)
			defer tm.ctrl.Finish()
			tm.dashboard.EXPECT().State().Return(tt.state)

			w := tm.do(http.MethodGet, "/api/v1/tokens", "", tt.headers)
			assert.Equal(t, tt.expectedCode, w.Code)

			if tt.expectedErr != "" {
				body := decodeError(t, w)
				assert.Equal(t, tt.expectedErr, body.Error.Code)
				if tt.expectedMsg != "" {
					assert.Equal(t, tt.expectedMsg, body.Error.Message)
				}
				return
			}

			assert.Equal(t, `"abc123"`, w.Header().Get("ETag"))
			if tt.expectedCode == http.StatusOK {
				var body struct {
					SnapshotID string         `json:"snapshotId"`
					Tokens     []domain.Token `json:"tokens"`
					Stats      timeline.Stats `json:"stats"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "01HZX3Q6M2T1B7S0D9KQ4V8N5C", body.SnapshotID)
				assert.Len(t, body.Tokens, 3)
				assert.Equal(t, 3, body.Stats.WithCollections)
			}
		})
	}
}

func TestListBatches(t *testing.T) {
	tm := setupTestHandler(t)
	defer tm.ctrl.Finish()
	readySnapshot(tm)

	w := tm.do(http.MethodGet, "/api/v1/batches?search=vanilla&status=completed", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body dashboard.BatchesView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Batches, 1)
	assert.Equal(t, "Vanilla Batch", body.Batches[0].Name)
}

func TestListBatches_StatusFilter(t *testing.T) {
	snapshot := testSnapshot()
	shipped := snapshot.Batches[0]
	shipped.ID = "B-SHIP"
	shipped.Name = "Truck 4"
	shipped.Status = domain.Status("shipped")
	snapshot.Batches = append(snapshot.Batches, shipped)

	tests := []struct {
		name          string
		query         string
		expectedCode  int
		expectedNames []string
		expectedErr   string
	}{
		{name: "document-defined status", query: "?status=shipped", expectedCode: http.StatusOK, expectedNames: []string{"Truck 4"}},
		{name: "padded status", query: "?status=%20completed%20", expectedCode: http.StatusOK, expectedNames: []string{"Vanilla Batch"}},
		{name: "all", query: "?status=all", expectedCode: http.StatusOK, expectedNames: []string{"Vanilla Batch", "Truck 4"}},
		{name: "unknown status matches nothing", query: "?status=melted", expectedCode: http.StatusOK},
		{name: "status too long", query: "?status=" + strings.Repeat("s", rest.MAX_STATUS_LENGTH+1), expectedCode: http.StatusBadRequest, expectedErr: "status must be at most"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t)
			defer tm.ctrl.Finish()
			tm.dashboard.EXPECT().State().Return(dashboard.State{Snapshot: snapshot}).AnyTimes()

			w := tm.do(http.MethodGet, "/api/v1/batches"+tt.query, "", nil)
			require.Equal(t, tt.expectedCode, w.Code)

			if tt.expectedErr != "" {
				body := decodeError(t, w)
				assert.Equal(t, "validation_failed", body.Error.Code)
				assert.Contains(t, body.Error.Details, tt.expectedErr)
				return
			}

			var body dashboard.BatchesView
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			names := []string{}
			for _, b := range body.Batches {
				names = append(names, b.Name)
			}
			if len(tt.expectedNames) == 0 {
				assert.Empty(t, names)
			} else {
				assert.Equal(t, tt.expectedNames, names)
			}
		})
	}
}

func TestListRecentBatches(t *testing.T) {
	tm := setupTestHandler(t)
	defer tm.ctrl.Finish()
	readySnapshot(tm)

	w := tm.do(http.MethodGet, "/api/v1/batches/recent?status=failed", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body dashboard.RecentView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Batches)
	assert.NotEmpty(t, body.Message)
}

func TestGetTimeline(t *testing.T) {
	tm := setupTestHandler(t)
	defer tm.ctrl.Finish()
	readySnapshot(tm)

	w := tm.do(http.MethodGet, "/api/v1/timeline", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body dashboard.TimelineView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Batches, 1)
	assert.Equal(t, testCollectionKey, body.Batches[0].Key)
	assert.Equal(t, "Vanilla Dream", body.Batches[0].Product)
	assert.Empty(t, body.Message)

	w = tm.do(http.MethodGet, "/api/v1/timeline?search=chocolate", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Batches)
	assert.Equal(t, timeline.EmptyMessageNoMatch, body.Message)
}

func TestGetStation(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "station name is case-insensitive",
			path:         "/api/v1/timeline/" + testCollectionKey + "/stations/farm",
			expectedCode: http.StatusOK,
		},
		{
			name:         "unknown station",
			path:         "/api/v1/timeline/" + testCollectionKey + "/stations/Freezer",
			expectedCode: http.StatusNotFound,
			expectedMsg:  "Station not found",
		},
		{
			name:         "unknown batch",
			path:         "/api/v1/timeline/nope/stations/Farm",
			expectedCode: http.StatusNotFound,
			expectedMsg:  "Batch not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t)
			defer tm.ctrl.Finish()
			readySnapshot(tm)

			w := tm.do(http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, decodeError(t, w).Error.Message)
				return
			}

			var body timeline.StationSelection
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, timeline.Farm, body.Station)
			assert.Equal(t, 3, body.Completed)
			assert.Equal(t, 9, body.Total)
			assert.Equal(t, domain.StatusProcessing, body.Status)
		})
	}
}

func TestGetUnit(t *testing.T) {
	tests := []struct {
		name         string
		index        string
		expectedCode int
		expectedErr  string
	}{
		{name: "completed unit", index: "2", expectedCode: http.StatusOK},
		{name: "beyond completed count", index: "3", expectedCode: http.StatusNotFound, expectedErr: "not_found"},
		{name: "negative index", index: "-1", expectedCode: http.StatusBadRequest, expectedErr: "validation_failed"},
		{name: "not a number", index: "first", expectedCode: http.StatusBadRequest, expectedErr: "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t)
			defer tm.ctrl.Finish()
			s := readySnapshot(tm)

			w := tm.do(http.MethodGet, "/api/v1/timeline/"+testCollectionKey+"/stations/Farm/units/"+tt.index, "", nil)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedErr != "" {
				assert.Equal(t, tt.expectedErr, decodeError(t, w).Error.Code)
				return
			}

			var body timeline.UnitDetail
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, 2, body.SquareIndex)
			assert.Equal(t, s.Tokens[2].Mint, body.Token.Mint)
			require.NotEmpty(t, body.Data)
			assert.Equal(t, "Scoop", body.Data[0].Value)
		})
	}
}

func TestRefresh(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		tm := setupTestHandler(t)
		defer tm.ctrl.Finish()

		w := tm.do(http.MethodPost, "/api/v1/refresh", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthorized", decodeError(t, w).Error.Code)
	})

	t.Run("api key", func(t *testing.T) {
		tm := setupTestHandler(t)
		defer tm.ctrl.Finish()
		s := testSnapshot()
		tm.dashboard.EXPECT().Refresh(gomock.Any()).Return(s, nil)

		w := tm.do(http.MethodPost, "/api/v1/refresh", "", map[string]string{"Authorization": "ApiKey " + testAPIKey})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `"abc123"`, w.Header().Get("ETag"))

		var body struct {
			SnapshotID string `json:"snapshotId"`
			TokenCount int    `json:"tokenCount"`
			BatchCount int    `json:"batchCount"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, s.ID, body.SnapshotID)
		assert.Equal(t, 3, body.TokenCount)
		assert.Equal(t, 1, body.BatchCount)
	})

	t.Run("source failure", func(t *testing.T) {
		tm := setupTestHandler(t)
		defer tm.ctrl.Finish()
		tm.dashboard.EXPECT().Refresh(gomock.Any()).Return(nil, domain.NewSourceError("", nil))

		w := tm.do(http.MethodPost, "/api/v1/refresh", "", map[string]string{"Authorization": "ApiKey " + testAPIKey})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, domain.DEFAULT_SOURCE_ERROR_MESSAGE, decodeError(t, w).Error.Message)
	})

	t.Run("service closed", func(t *testing.T) {
		tm := setupTestHandler(t)
		defer tm.ctrl.Finish()
		tm.dashboard.EXPECT().Refresh(gomock.Any()).Return(nil, dashboard.ErrClosed)

		w := tm.do(http.MethodPost, "/api/v1/refresh", "", map[string]string{"Authorization": "ApiKey " + testAPIKey})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "service_error", decodeError(t, w).Error.Code)
	})
}

func testSession() *domain.OperatorSession {
	created := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	return &domain.OperatorSession{
		ID:        "6f1c2b1e-7d44-4c1f-9f1e-3a2b4c5d6e7f",
		Operator:  domain.Operator{ID: "op1", Name: "Fatima Bennani", Role: "Mixing Room", Code: "MKO_FBEN"},
		CreatedAt: created,
		ExpiresAt: created.Add(12 * time.Hour),
	}
}

func TestLoginWithBadge(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		setupMocks   func(tm *testHandlerMocks)
		expectedCode int
		expectedErr  string
	}{
		{
			name: "recognized badge",
			body: `{"ocr_text":"MIKO\nMKO_FBEN"}`,
			setupMocks: func(tm *testHandlerMocks) {
				tm.operators.EXPECT().LoginWithBadge(gomock.Any(), "MIKO\nMKO_FBEN").Return(testSession(), nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "unknown badge",
			body: `{"ocr_text":"MKO_NOPE"}`,
			setupMocks: func(tm *testHandlerMocks) {
				tm.operators.EXPECT().LoginWithBadge(gomock.Any(), "MKO_NOPE").Return(nil, domain.ErrOperatorNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedErr:  "not_found",
		},
		{
			name:         "missing text",
			body:         `{}`,
			expectedCode: http.StatusBadRequest,
			expectedErr:  "validation_failed",
		},
		{
			name:         "blank text",
			body:         `{"ocr_text":"   "}`,
			expectedCode: http.StatusBadRequest,
			expectedErr:  "validation_failed",
		},
		{
			name:         "oversized text",
			body:         `{"ocr_text":"` + strings.Repeat("x", 5000) + `"}`,
			expectedCode: http.StatusBadRequest,
			expectedErr:  "validation_failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t)
			defer tm.ctrl.Finish()
			if tt.setupMocks != nil {
				tt.setupMocks(tm)
			}

			w := tm.do(http.MethodPost, "/api/v1/operator/sessions/badge", tt.body, nil)
			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedErr != "" {
				assert.Equal(t, tt.expectedErr, decodeError(t, w).Error.Code)
				return
			}

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, testSession().ID, body["sessionId"])
			op := body["operator"].(map[string]any)
			assert.Equal(t, "Fatima Bennani", op["name"])
			assert.NotContains(t, op, "code")
		})
	}
}

func TestLoginWithCode(t *testing.T) {
	tm := setupTestHandler(t)
	defer tm.ctrl.Finish()

	session := testSession()
	session.Operator = domain.Operator{ID: "4711", Name: "Operator 4711", Role: "operator"}
	tm.operators.EXPECT().LoginWithCode(gomock.Any(), "4711").Return(session, nil)

	w := tm.do(http.MethodPost, "/api/v1/operator/sessions/code", `{"code":"4711"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Operator 4711"`)

	w = tm.do(http.MethodPost, "/api/v1/operator/sessions/code", `{"code":"  "}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSession(t *testing.T) {
	tm := setupTestHandler(t)
	defer tm.ctrl.Finish()

	session := testSession()
	tm.operators.EXPECT().Load(gomock.Any(), session.ID).Return(session, nil)
	tm.operators.EXPECT().Load(gomock.Any(), "expired").Return(nil, domain.ErrSessionNotFound)

	w := tm.do(http.MethodGet, "/api/v1/operator/sessions/"+session.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = tm.do(http.MethodGet, "/api/v1/operator/sessions/expired", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found", decodeError(t, w).Error.Message)
}

func TestDeleteSession(t *testing.T) {
	tm := setupTestHandler(t)
	defer tm.ctrl.Finish()

	session := testSession()
	tm.operators.EXPECT().Clear(gomock.Any(), session.ID).Return(nil)

	w := tm.do(http.MethodDelete, "/api/v1/operator/sessions/"+session.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
