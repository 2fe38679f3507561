package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
)

// MockFootballServer imitates the API-Football host for tests: a
// canned envelope per endpoint, plus failure injection for retry
// tests.
type MockFootballServer struct {
	Server *httptest.Server

	calls     int64
	failFirst int64
	failCode  int

	responses map[string]string
}

// NewMockFootballServer starts a mock upstream. Endpoints without a
// registered response return an empty successful envelope.
func NewMockFootballServer() *MockFootballServer {
	mfs := &MockFootballServer{
		responses: make(map[string]string),
	}

	mfs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := atomic.AddInt64(&mfs.calls, 1)
		if call <= atomic.LoadInt64(&mfs.failFirst) {
			w.WriteHeader(mfs.failCode)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if body, ok := mfs.responses[r.URL.Path]; ok {
			_, _ = w.Write([]byte(body))
			return
		}
		_, _ = w.Write([]byte(`{"get":"","errors":[],"results":0,"response":[]}`))
	}))

	return mfs
}

// RespondWith registers a canned body for an endpoint path.
func (m *MockFootballServer) RespondWith(endpoint, body string) {
	m.responses[endpoint] = body
}

// FailFirst makes the first n requests answer with the given status.
func (m *MockFootballServer) FailFirst(n int, status int) {
	atomic.StoreInt64(&m.failFirst, int64(n))
	m.failCode = status
}

// Calls reports how many requests reached the mock.
func (m *MockFootballServer) Calls() int {
	return int(atomic.LoadInt64(&m.calls))
}

// Close shuts the mock server down.
func (m *MockFootballServer) Close() {
	m.Server.Close()
}

// URL returns the mock host, for Client.SetBaseURL.
func (m *MockFootballServer) URL() string {
	return m.Server.URL
}
