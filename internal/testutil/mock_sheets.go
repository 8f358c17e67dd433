package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockSheets is a configurable mock Google Sheets values API for testing
// the sheets client over HTTP. It understands values.get and
// values.append, which is all the client speaks.
type MockSheets struct {
	server *httptest.Server
	mu     sync.RWMutex
	rows   [][]interface{}

	// Tracking
	FetchCount  int
	AppendCount int
	FailStatus  int // when non-zero, every request fails with this status
}

// NewMockSheets creates a mock Sheets API serving the given rows
// (header row first).
func NewMockSheets(rows [][]interface{}) *MockSheets {
	mock := &MockSheets{rows: rows}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		defer mock.mu.Unlock()

		if mock.FailStatus != 0 {
			w.WriteHeader(mock.FailStatus)
			w.Write([]byte(`{"error": {"message": "mock failure"}}`))
			return
		}

		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
			mock.AppendCount++
			var body struct {
				Values [][]interface{} `json:"values"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			mock.rows = append(mock.rows, body.Values...)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"updates": map[string]interface{}{"updatedRows": len(body.Values)},
			})

		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
			mock.FetchCount++
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"range":          "products",
				"majorDimension": "ROWS",
				"values":         mock.rows,
			})

		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": {"message": "unsupported mock endpoint"}}`))
		}
	}))

	return mock
}

// URL returns the mock server URL, for use as the client endpoint.
func (m *MockSheets) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSheets) Close() {
	m.server.Close()
}

// SetRows replaces the rows served by values.get.
func (m *MockSheets) SetRows(rows [][]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}

// SetFailStatus makes every request fail with the given HTTP status
// (0 to restore normal behavior).
func (m *MockSheets) SetFailStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailStatus = status
}

// Rows returns a copy of the current rows, appends included.
func (m *MockSheets) Rows() [][]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([][]interface{}, len(m.rows))
	copy(out, m.rows)
	return out
}
