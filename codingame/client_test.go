package codingame

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// recordedCall captures one request seen by the mock service.
type recordedCall struct {
	path   string
	params []any
}

func newMockService(t *testing.T, handlers map[string]http.HandlerFunc) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var calls []recordedCall
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("cookie"); !strings.HasPrefix(got, "rememberMe=") {
			t.Errorf("cookie header = %q, want rememberMe= prefix", got)
		}
		body, _ := io.ReadAll(r.Body)
		var params []any
		if err := json.Unmarshal(body, &params); err != nil {
			t.Errorf("body is not a JSON array: %v (body %q)", err, body)
		}
		calls = append(calls, recordedCall{path: r.URL.Path, params: params})
		if h, ok := handlers[r.URL.Path]; ok {
			h(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func jsonHandler(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

func TestClient_UserID(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   string
	}{
		{name: "normal cookie", cookie: "1234567abcdefgh", want: "1234567"},
		{name: "short cookie", cookie: "12345", want: "12345"},
		{name: "exactly seven", cookie: "1234567", want: "1234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.cookie)
			if got := c.UserID(); got != tt.want {
				t.Errorf("UserID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_LanguageIDs(t *testing.T) {
	tests := []struct {
		name     string
		response any
		raw      string
		want     []string
		wantErr  bool
	}{
		{
			name:     "ordered list",
			response: []string{"Bash", "C", "Python3"},
			want:     []string{"Bash", "C", "Python3"},
		},
		{
			name:     "empty list",
			response: []string{},
			wantErr:  true,
		},
		{
			name:    "malformed body",
			raw:     `{"not":"a list"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := jsonHandler(tt.response)
			if tt.raw != "" {
				handler = func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte(tt.raw))
				}
			}
			server, calls := newMockService(t, map[string]http.HandlerFunc{
				"/ProgrammingLanguage/FindAllIds": handler,
			})
			c := NewClient("1234567cookie")
			c.BaseURL = server.URL + "/"

			got, err := c.LanguageIDs(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("LanguageIDs() error = nil, want error")
				}
				if !errors.Is(err, ErrCatalogUnavailable) {
					t.Errorf("LanguageIDs() error = %v, want ErrCatalogUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LanguageIDs() unexpected error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("LanguageIDs() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("LanguageIDs()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
			if len(*calls) != 1 || (*calls)[0].params == nil || len((*calls)[0].params) != 0 {
				t.Errorf("FindAllIds params = %v, want empty array", (*calls)[0].params)
			}
		})
	}
}

func TestClient_CreateClash(t *testing.T) {
	tests := []struct {
		name       string
		modes      []string
		languages  []string
		response   any
		wantHandle string
		wantErr    bool
	}{
		{
			name:       "fastest any language",
			modes:      []string{"FASTEST"},
			languages:  []string{},
			response:   map[string]any{"publicHandle": "abc123", "players": []any{map[string]any{"codingamerId": 1}}},
			wantHandle: "abc123",
		},
		{
			name:       "language restricted",
			modes:      []string{"FASTEST", "REVERSE", "SHORTEST"},
			languages:  []string{"Python3"},
			response:   map[string]any{"publicHandle": "def456", "players": []any{}},
			wantHandle: "def456",
		},
		{
			name:     "empty handle",
			modes:    []string{"FASTEST"},
			response: map[string]any{"publicHandle": "", "players": []any{}},
			wantErr:  true,
		},
		{
			name:    "no modes",
			modes:   nil,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := newMockService(t, map[string]http.HandlerFunc{
				"/ClashOfCode/CreatePrivateClash": jsonHandler(tt.response),
			})
			c := NewClient("1234567cookie")
			c.BaseURL = server.URL + "/"

			handle, err := c.CreateClash(context.Background(), tt.modes, tt.languages)
			if tt.wantErr {
				if err == nil {
					t.Fatal("CreateClash() error = nil, want error")
				}
				if !errors.Is(err, ErrClashCreation) {
					t.Errorf("CreateClash() error = %v, want ErrClashCreation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateClash() unexpected error = %v", err)
			}
			if handle != tt.wantHandle {
				t.Errorf("CreateClash() = %q, want %q", handle, tt.wantHandle)
			}
			// Positional parameter order is load-bearing: [userId, languages, modes].
			if len(*calls) != 1 {
				t.Fatalf("create calls = %d, want 1", len(*calls))
			}
			params := (*calls)[0].params
			if len(params) != 3 {
				t.Fatalf("params = %v, want 3 positional entries", params)
			}
			if params[0] != "1234567" {
				t.Errorf("params[0] = %v, want bot user id", params[0])
			}
			langs, ok := params[1].([]any)
			if !ok || len(langs) != len(tt.languages) {
				t.Errorf("params[1] = %v, want language array of %d", params[1], len(tt.languages))
			}
			modes, ok := params[2].([]any)
			if !ok || len(modes) != len(tt.modes) {
				t.Errorf("params[2] = %v, want mode array of %d", params[2], len(tt.modes))
			}
		})
	}
}

func TestClient_CreateClash_nilLanguagesMarshalsEmptyArray(t *testing.T) {
	server, calls := newMockService(t, map[string]http.HandlerFunc{
		"/ClashOfCode/CreatePrivateClash": jsonHandler(map[string]any{"publicHandle": "h", "players": []any{}}),
	})
	c := NewClient("1234567cookie")
	c.BaseURL = server.URL + "/"
	if _, err := c.CreateClash(context.Background(), []string{"FASTEST"}, nil); err != nil {
		t.Fatalf("CreateClash() error = %v", err)
	}
	params := (*calls)[0].params
	if langs, ok := params[1].([]any); !ok || len(langs) != 0 {
		t.Errorf("params[1] = %v, want [] not null", params[1])
	}
}

func TestClient_PlayerCount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		response any
		want     int
	}{
		{
			name: "two players",
			response: map[string]any{"publicHandle": "h", "players": []any{
				map[string]any{"codingamerId": 1}, map[string]any{"codingamerId": 2},
			}},
			want: 2,
		},
		{
			name:     "bot alone",
			response: map[string]any{"publicHandle": "h", "players": []any{map[string]any{"codingamerId": 1}}},
			want:     1,
		},
		{
			name: "unknown handle yields zero",
			raw:  `not json`,
			want: 0,
		},
		{
			name:     "empty object",
			response: map[string]any{},
			want:     0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := jsonHandler(tt.response)
			if tt.raw != "" {
				handler = func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte(tt.raw))
				}
			}
			server, _ := newMockService(t, map[string]http.HandlerFunc{
				"/ClashOfCode/FindClashByHandle": handler,
			})
			c := NewClient("1234567cookie")
			c.BaseURL = server.URL + "/"

			// Repeated calls on the same handle must stay stable.
			for i := 0; i < 3; i++ {
				got, err := c.PlayerCount(context.Background(), "some-handle")
				if err != nil {
					t.Fatalf("PlayerCount() unexpected error = %v", err)
				}
				if got != tt.want {
					t.Errorf("PlayerCount() = %d, want %d", got, tt.want)
				}
			}
		})
	}
}

func TestClient_LeaveClash(t *testing.T) {
	server, calls := newMockService(t, map[string]http.HandlerFunc{
		"/ClashOfCode/LeaveClashByHandle": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	})
	c := NewClient("1234567cookie")
	c.BaseURL = server.URL + "/"

	if err := c.LeaveClash(context.Background(), "some-handle"); err != nil {
		t.Fatalf("LeaveClash() error = %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("leave calls = %d, want 1", len(*calls))
	}
	params := (*calls)[0].params
	if len(params) != 2 || params[0] != "1234567" || params[1] != "some-handle" {
		t.Errorf("leave params = %v, want [userId, handle]", params)
	}
}

func TestClient_LeaveClash_transportError(t *testing.T) {
	c := NewClient("1234567cookie")
	c.BaseURL = "http://127.0.0.1:1/" // nothing listens here
	if err := c.LeaveClash(context.Background(), "h"); err == nil {
		t.Fatal("LeaveClash() error = nil, want transport error")
	}
}
