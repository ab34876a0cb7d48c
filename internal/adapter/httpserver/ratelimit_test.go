package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/pollpulse/internal/domain"
	"github.com/pscheid92/pollpulse/internal/platform/config"
	apperrors "github.com/pscheid92/pollpulse/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRequest(t *testing.T, handler echo.HandlerFunc, remoteAddr string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/polls", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	require.NoError(t, handler(echo.New().NewContext(req, rec)))
	return rec.Code
}

func TestRateLimiter_PerClientBuckets(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		burst   int
		clients []string
		want    []int
	}{
		{
			name:    "burst is served",
			rate:    10,
			burst:   3,
			clients: []string{"10.0.0.1:1", "10.0.0.1:2", "10.0.0.1:3"},
			want:    []int{http.StatusOK, http.StatusOK, http.StatusOK},
		},
		{
			name:    "excess is rejected",
			rate:    0.01,
			burst:   1,
			clients: []string{"10.0.0.1:1", "10.0.0.1:2"},
			want:    []int{http.StatusOK, http.StatusTooManyRequests},
		},
		{
			name:    "clients do not share a bucket",
			rate:    0.01,
			burst:   1,
			clients: []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.1:2", "10.0.0.2:2"},
			want:    []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newRateLimiter(tt.rate, tt.burst)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})

			got := make([]int, 0, len(tt.clients))
			for _, addr := range tt.clients {
				got = append(got, limitedRequest(t, handler, addr))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimiter_VoteEndpointReturnsStructuredError(t *testing.T) {
	calls := 0
	app := &mockAppService{
		recordVoteFn: func(context.Context, string, string) (*domain.Vote, error) {
			calls++
			return sampleVote(), nil
		},
	}
	srv := newTestServer(t, app, withConfig(&config.Config{
		AppURL:       "http://localhost:8080",
		APIRateLimit: 0.01,
		APIRateBurst: 1,
	}))

	first := serve(srv, http.MethodPost, "/api/votes", voteBody())
	second := serve(srv, http.MethodPost, "/api/votes", voteBody())

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, 1, calls, "rejected request must not reach the service")

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	assert.Equal(t, apperrors.TypeRateLimited, body.Type)
	assert.Equal(t, "rate limit exceeded", body.Error)
}

func TestRateLimiter_DisabledWhenRateIsZero(t *testing.T) {
	app := &mockAppService{
		recordVoteFn: func(context.Context, string, string) (*domain.Vote, error) {
			return sampleVote(), nil
		},
	}
	srv := newTestServer(t, app, withConfig(&config.Config{AppURL: "http://localhost:8080"}))

	for range 5 {
		rec := serve(srv, http.MethodPost, "/api/votes", voteBody())
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestRateLimiter_HealthIsNotLimited(t *testing.T) {
	srv := newTestServer(t, &mockAppService{}, withConfig(&config.Config{
		AppURL:       "http://localhost:8080",
		APIRateLimit: 0.01,
		APIRateBurst: 1,
	}))

	for range 3 {
		rec := serve(srv, http.MethodGet, "/health/live", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
