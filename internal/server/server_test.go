package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/uni-matcher/internal/catalog"
	"github.com/spigell/uni-matcher/internal/matcher"
)

func newTestServer(t *testing.T, log *zap.Logger) *Server {
	t.Helper()

	c, err := catalog.New([]catalog.University{
		{Name: "Stanford", Country: "United States", WorldRank: 3, TuitionUSD: 55000, GPAMin: 3.4, GPACompetitive: 3.8, TestBenchmark: 1500, IELTSMin: 7.0, TopSectors: "Computer Science, Business"},
		{Name: "TU Munich", Country: "Germany", WorldRank: 37, TuitionUSD: 0, GPAMin: 3.3, GPACompetitive: 3.7, TestBenchmark: 1350, IELTSMin: 6.5, TopSectors: "Engineering"},
		{Name: "Heidelberg", Country: "Germany", WorldRank: 47, TuitionUSD: 31000, GPAMin: 3.6, GPACompetitive: 3.9, TestBenchmark: 1480, IELTSMin: 7.0, TopSectors: "Medicine"},
		{Name: "Toronto", Country: "Canada", WorldRank: 21, TuitionUSD: 28000, GPAMin: 3.5, GPACompetitive: 3.9, TestBenchmark: 1450, IELTSMin: 6.5, TopSectors: "Finance"},
		{Name: "UBC", Country: "Canada", WorldRank: 34, TuitionUSD: 29000, GPAMin: 3.4, GPACompetitive: 3.8, TestBenchmark: 1420, IELTSMin: 6.5, TopSectors: "Forestry"},
	})
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}

	m, err := matcher.New(c, matcher.DefaultConfig(), log)
	if err != nil {
		t.Fatalf("building matcher: %v", err)
	}

	s, err := New(m, Config{Mode: gin.TestMode}, "test", log)
	if err != nil {
		t.Fatalf("building server: %v", err)
	}
	return s
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code == http.StatusNoContent {
		return rec, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not json: %v: %s", err, rec.Body.String())
	}
	return rec, decoded
}

const validProfile = `{"gpa": 3.5, "budget": 40000, "test_score": 1400, "ielts_score": 7.0}`

func TestEndpoints(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, zap.NewNop()).Handler()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		check  func(t *testing.T, body map[string]any)
	}{
		{
			name:   "home",
			method: http.MethodGet,
			target: "/",
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["version"] != "test" || body["endpoints"] == nil {
					t.Fatalf("unexpected body: %v", body)
				}
			},
		},
		{
			name:   "all universities",
			method: http.MethodGet,
			target: "/api/universities",
			status: http.StatusOK,
			check:  expectCount(5),
		},
		{
			name:   "universities by country",
			method: http.MethodGet,
			target: "/api/universities?country=Canada",
			status: http.StatusOK,
			check:  expectCount(2),
		},
		{
			name:   "universities by tuition and rank",
			method: http.MethodGet,
			target: "/api/universities?max_tuition=30000&min_rank=20&max_rank=40",
			status: http.StatusOK,
			check:  expectCount(3),
		},
		{
			name:   "malformed rank",
			method: http.MethodGet,
			target: "/api/universities?max_rank=abc",
			status: http.StatusBadRequest,
			check:  expectError("max_rank must be an integer"),
		},
		{
			name:   "malformed tuition",
			method: http.MethodGet,
			target: "/api/universities?max_tuition=cheap",
			status: http.StatusBadRequest,
			check:  expectError("max_tuition must be a number"),
		},
		{
			name:   "recommend",
			method: http.MethodPost,
			target: "/api/recommend",
			body:   validProfile,
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				expectCount(3)(t, body)
				if body["total_matches"] != float64(3) {
					t.Fatalf("unexpected total_matches: %v", body["total_matches"])
				}
				userProfile, ok := body["user_profile"].(map[string]any)
				if !ok || userProfile["gpa"] != 3.5 {
					t.Fatalf("unexpected user_profile: %v", body["user_profile"])
				}
				recs, ok := body["recommendations"].([]any)
				if !ok || len(recs) != 3 {
					t.Fatalf("unexpected recommendations: %v", body["recommendations"])
				}
				first := recs[0].(map[string]any)
				if first["university"] == nil || first["match_score"] == nil || first["score_breakdown"] == nil {
					t.Fatalf("unexpected recommendation: %v", first)
				}
			},
		},
		{
			name:   "recommend with query limit",
			method: http.MethodPost,
			target: "/api/recommend?limit=1",
			body:   validProfile,
			status: http.StatusOK,
			check:  expectCount(1),
		},
		{
			name:   "recommend with body limit",
			method: http.MethodPost,
			target: "/api/recommend",
			body:   `{"gpa": 3.5, "budget": 40000, "test_score": 1400, "ielts_score": 7.0, "limit": 2}`,
			status: http.StatusOK,
			check:  expectCount(2),
		},
		{
			name:   "no eligible universities",
			method: http.MethodPost,
			target: "/api/recommend",
			body:   `{"gpa": 3.8, "budget": 30000, "test_score": 1480, "ielts_score": 7.5, "preferred_countries": ["Germany"]}`,
			status: http.StatusOK,
			check:  expectCount(0),
		},
		{
			name:   "missing gpa",
			method: http.MethodPost,
			target: "/api/recommend",
			body:   `{"budget": 40000, "test_score": 1400, "ielts_score": 7.0}`,
			status: http.StatusBadRequest,
			check:  expectError("gpa is required"),
		},
		{
			name:   "fractional test score",
			method: http.MethodPost,
			target: "/api/recommend",
			body:   `{"gpa": 3.5, "budget": 40000, "test_score": 1400.5, "ielts_score": 7.0}`,
			status: http.StatusBadRequest,
			check:  expectError("test_score must be an integer between 400 and 1600"),
		},
		{
			name:   "ielts out of range",
			method: http.MethodPost,
			target: "/api/recommend",
			body:   `{"gpa": 3.5, "budget": 40000, "test_score": 1400, "ielts_score": 10}`,
			status: http.StatusBadRequest,
			check:  expectError("ielts_score must be a number between 0 and 9"),
		},
		{
			name:   "countries of wrong type",
			method: http.MethodPost,
			target: "/api/recommend",
			body:   `{"gpa": 3.5, "budget": 40000, "test_score": 1400, "ielts_score": 7.0, "preferred_countries": "Canada"}`,
			status: http.StatusBadRequest,
			check:  expectError("preferred_countries must be a list of strings"),
		},
		{
			name:   "not json",
			method: http.MethodPost,
			target: "/api/recommend",
			body:   `gpa=3.5`,
			status: http.StatusBadRequest,
			check:  expectError("request body must be JSON"),
		},
		{
			name:   "malformed limit",
			method: http.MethodPost,
			target: "/api/recommend?limit=many",
			body:   validProfile,
			status: http.StatusBadRequest,
			check:  expectError("limit must be an integer"),
		},
		{
			name:   "limit above max",
			method: http.MethodPost,
			target: "/api/recommend?limit=101",
			body:   validProfile,
			status: http.StatusBadRequest,
			check:  expectError("limit must be between 1 and 100"),
		},
		{
			name:   "countries",
			method: http.MethodGet,
			target: "/api/countries",
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				expectCount(3)(t, body)
				countries := body["countries"].([]any)
				if countries[0] != "Canada" || countries[2] != "United States" {
					t.Fatalf("unexpected countries: %v", countries)
				}
			},
		},
		{
			name:   "stats",
			method: http.MethodGet,
			target: "/api/stats",
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["success"] != true || body["total_universities"] != float64(5) || body["countries_count"] != float64(3) {
					t.Fatalf("unexpected stats: %v", body)
				}
				tuition, ok := body["tuition_range"].(map[string]any)
				if !ok || tuition["min"] != float64(0) || tuition["max"] != float64(55000) {
					t.Fatalf("unexpected tuition range: %v", body["tuition_range"])
				}
			},
		},
		{
			name:   "unknown endpoint",
			method: http.MethodGet,
			target: "/api/unknown",
			status: http.StatusNotFound,
			check:  expectError("Endpoint not found"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, body := do(t, h, tt.method, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			tt.check(t, body)
		})
	}
}

func expectCount(n int) func(t *testing.T, body map[string]any) {
	return func(t *testing.T, body map[string]any) {
		t.Helper()

		if body["success"] != true {
			t.Fatalf("expected success, got %v", body)
		}
		if body["count"] != float64(n) {
			t.Fatalf("expected count %d, got %v", n, body["count"])
		}
	}
}

func expectError(msg string) func(t *testing.T, body map[string]any) {
	return func(t *testing.T, body map[string]any) {
		t.Helper()

		if body["success"] != false || body["error"] != msg {
			t.Fatalf("expected error %q, got %v", msg, body)
		}
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, zap.NewNop()).Handler()

	rec, _ := do(t, h, http.MethodGet, "/api/countries", "")
	if _, err := uuid.Parse(rec.Header().Get(requestIDHeader)); err != nil {
		t.Fatalf("expected generated request id, got %q", rec.Header().Get(requestIDHeader))
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/countries", nil)
	req.Header.Set(requestIDHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != id {
		t.Fatalf("expected request id %q to be kept, got %q", id, got)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, zap.NewNop()).Handler()

	rec, _ := do(t, h, http.MethodOptions, "/api/recommend", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight to succeed, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing cors headers: %v", rec.Header())
	}
}

func TestPanicIsRecovered(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	s := newTestServer(t, zap.New(core))
	s.engine.GET("/api/panic", func(*gin.Context) {
		panic("boom")
	})

	rec, body := do(t, s.Handler(), http.MethodGet, "/api/panic", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	expectError("Internal server error")(t, body)

	if n := observed.FilterMessage("panic recovered").Len(); n != 1 {
		t.Fatalf("expected the panic to be logged once, got %d", n)
	}

	access := observed.FilterMessage("http request").All()
	if len(access) != 1 || access[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected an error level access log entry, got %+v", access)
	}
}

func TestAccessLogLevels(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	h := newTestServer(t, zap.New(core)).Handler()

	do(t, h, http.MethodGet, "/api/stats", "")
	do(t, h, http.MethodGet, "/missing", "")

	entries := observed.FilterMessage("http request").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected levels: %v, %v", entries[0].Level, entries[1].Level)
	}

	ctx := entries[1].ContextMap()
	if ctx["status"] != int64(http.StatusNotFound) || ctx["path"] != "/missing" || ctx["component"] != "server" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	c, err := catalog.New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, err := matcher.New(c, matcher.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := New(m, Config{Mode: "loud"}, "test", nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if _, err := New(nil, Config{}, "test", nil); err == nil {
		t.Fatalf("expected error for missing matcher")
	}
}
