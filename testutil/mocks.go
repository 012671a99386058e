// Package testutil provides a mock CodinGame services server for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockCodinGameServer mocks the CodinGame services API. Register handlers per
// endpoint path; unregistered paths return 404. Requests are counted per path.
type MockCodinGameServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc

	mu    sync.Mutex
	calls map[string]int
}

// NewMockCodinGameServer creates a new mock services server.
func NewMockCodinGameServer(t *testing.T) *MockCodinGameServer {
	t.Helper()
	m := &MockCodinGameServer{
		Handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.calls[r.URL.Path]++
		m.mu.Unlock()
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// Calls returns how many requests hit the given endpoint path.
func (m *MockCodinGameServer) Calls(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

// BaseURL is the value to set as the client's base URL.
func (m *MockCodinGameServer) BaseURL() string {
	return m.URL + "/"
}

// MockLanguageIDs serves the language id list.
func (m *MockCodinGameServer) MockLanguageIDs(ids []string) {
	m.Handlers["/ProgrammingLanguage/FindAllIds"] = jsonResponse(ids)
}

// MockCreateClash serves a created lobby with the given handle and one
// participant (the bot itself).
func (m *MockCodinGameServer) MockCreateClash(handle string) {
	m.Handlers["/ClashOfCode/CreatePrivateClash"] = jsonResponse(map[string]any{
		"publicHandle": handle,
		"players":      []any{map[string]any{"codingamerId": 1}},
	})
}

// MockPlayerCounts serves FindClashByHandle with a participant count per
// call, repeating the last entry once the script is exhausted.
func (m *MockCodinGameServer) MockPlayerCounts(counts ...int) {
	var mu sync.Mutex
	i := 0
	m.Handlers["/ClashOfCode/FindClashByHandle"] = func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		n := counts[len(counts)-1]
		if i < len(counts) {
			n = counts[i]
		}
		i++
		mu.Unlock()
		players := make([]any, n)
		for p := range players {
			players[p] = map[string]any{"codingamerId": p + 1}
		}
		jsonResponse(map[string]any{"publicHandle": "h", "players": players})(w, r)
	}
}

// MockLeaveClash serves LeaveClashByHandle with an empty success response.
func (m *MockCodinGameServer) MockLeaveClash() {
	m.Handlers["/ClashOfCode/LeaveClashByHandle"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

func jsonResponse(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test mock response
	}
}
