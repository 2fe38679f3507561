package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger, _ := zap.NewDevelopment()
	client := NewClient("test-key", 5*time.Second, logger)
	client.SetBaseURL(server.URL)

	return client
}

func TestFetch_Success(t *testing.T) {
	var gotKey, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-apisports-key")
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"errors":[],"results":1,"response":[{"fixture":{"id":42}}]}`))
	})

	body, err := client.Fetch(context.Background(), FixturesByDate("2026-09-01"))
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "date=2026-09-01", gotQuery)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Contains(t, env, "response")
}

func TestFetch_ServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Fetch(context.Background(), LiveFixtures())
	require.Error(t, err)

	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, ClassTransient, upErr.Class)
	assert.Equal(t, http.StatusBadGateway, upErr.StatusCode)
	assert.True(t, IsTransient(err))
}

func TestFetch_ThrottleIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Fetch(context.Background(), LiveFixtures())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestFetch_AuthErrorIsFatal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Fetch(context.Background(), LiveFixtures())
	require.Error(t, err)

	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, ClassFatal, upErr.Class)
	assert.False(t, IsTransient(err))
}

func TestFetch_EnvelopeErrorIsFatal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"errors":{"token":"Error/Missing application key."},"results":0,"response":[]}`))
	})

	_, err := client.Fetch(context.Background(), FixtureByID(42))
	require.Error(t, err)

	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, ClassFatal, upErr.Class)
	assert.Contains(t, upErr.Message, "token")
}

func TestFetch_MalformedBodyIsFatal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.Fetch(context.Background(), LiveFixtures())
	require.Error(t, err)

	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, ClassFatal, upErr.Class)
}

func TestFetch_TimeoutIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.Fetch(context.Background(), LiveFixtures())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestRequestSpecs(t *testing.T) {
	h2h := HeadToHead(33, 40, 5)
	assert.Equal(t, EndpointHeadToHead, h2h.Endpoint)
	assert.Equal(t, "33-40", h2h.Params["h2h"])
	assert.Equal(t, "5", h2h.Params["last"])

	standings := Standings(39, 2026)
	assert.Equal(t, EndpointStandings, standings.Endpoint)
	assert.Equal(t, "39", standings.Params["league"])
	assert.Equal(t, "2026", standings.Params["season"])

	stats := TeamStatistics(33, 39, 2026)
	assert.Equal(t, EndpointTeamStats, stats.Endpoint)
	assert.Equal(t, "33", stats.Params["team"])
}
