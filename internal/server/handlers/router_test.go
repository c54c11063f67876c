package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fieldkeeper/internal/server/handlers"
	"github.com/iudanet/fieldkeeper/internal/server/jwt"
	"github.com/iudanet/fieldkeeper/internal/server/middleware"
	"github.com/iudanet/fieldkeeper/internal/server/storage/sqlite"
	"github.com/iudanet/fieldkeeper/pkg/api"
)

// newTestServer собирает полный HTTP-стек сервера поверх sqlite :memory:
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens := jwt.NewService("test-secret", time.Hour)

	router := handlers.NewRouter(
		logger,
		handlers.NewAuthHandler(logger, store, tokens),
		handlers.NewSyncHandler(logger, store),
		handlers.NewHealthHandler(logger),
		middleware.AuthMiddleware(logger, tokens),
		middleware.RecoveryMiddleware(logger),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_SyncRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/api/v1/sync", "", api.BatchSyncRequest{})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_UnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/nope")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// Полный цикл: регистрация устройства, логин, отправка мутации
func TestRouter_RegisterLoginSync(t *testing.T) {
	srv := newTestServer(t)

	deviceID := uuid.New().String()

	resp := post(t, srv.URL+"/api/v1/auth/register", "", api.RegisterRequest{
		DeviceName: "field-tablet",
		DeviceID:   deviceID,
		Secret:     "secret-12345",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = post(t, srv.URL+"/api/v1/auth/login", "", api.LoginRequest{
		DeviceID: deviceID,
		Secret:   "secret-12345",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decodeBody[api.TokenResponse](t, resp)
	require.NotEmpty(t, token.AccessToken)

	resp = post(t, srv.URL+"/api/v1/sync", token.AccessToken, api.BatchSyncRequest{
		Items: []api.SyncItem{{
			ClientTimestamp: time.Now().UTC(),
			EntityID:        uuid.New().String(),
			EntityType:      "job",
			Operation:       "create",
			DeviceID:        deviceID,
			Payload:         map[string]any{"status": "scheduled"},
			VersionVector:   map[string]uint64{deviceID: 1},
		}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	batch := decodeBody[api.BatchSyncResponse](t, resp)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, api.ItemApplied, batch.Results[0].Status)
}
