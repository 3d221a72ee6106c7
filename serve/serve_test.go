package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/probeops/batch"
	"github.com/jonwraymond/probeops/check"
)

func testRegistry(t *testing.T) *check.Registry {
	t.Helper()
	r := check.NewRegistry()
	r.MustRegister("ok", check.CheckerFunc(func(ctx context.Context, config map[string]any) check.Outcome {
		return check.Success("ok")
	}))
	r.MustRegister("fail", check.CheckerFunc(func(ctx context.Context, config map[string]any) check.Outcome {
		return check.Failure("down")
	}))
	return r
}

func postBatch(t *testing.T, srv *Server, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/batches", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHandleRunBatch(t *testing.T) {
	srv := New(testRegistry(t), Config{})

	rec := postBatch(t, srv, `{
		"requests": [
			{"identity": "a", "check_type": "ok"},
			{"check_type": "fail"},
			{"identity": "c", "check_type": "no-such"}
		]
	}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var rep batch.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if rep.BatchID == "" {
		t.Error("batch_id is empty")
	}
	if len(rep.Results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(rep.Results))
	}
	if rep.Results[0].Identity != "a" || rep.Results[0].OutcomeKind != check.KindSuccess {
		t.Errorf("results[0] = %+v, want identity a, kind success", rep.Results[0])
	}
	if rep.Results[1].Identity != "check-0002" {
		t.Errorf("results[1].identity = %q, want generated check-0002", rep.Results[1].Identity)
	}
	want := batch.Summary{Success: 1, Warning: 0, Error: 2}
	if rep.Summary != want {
		t.Errorf("summary = %+v, want %+v", rep.Summary, want)
	}
}

func TestHandleRunBatchBadRequests(t *testing.T) {
	srv := New(testRegistry(t), Config{MaxBatchSize: 2})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"unknown field", `{"requests": [], "bogus": 1}`, http.StatusBadRequest},
		{"empty batch", `{"requests": []}`, http.StatusBadRequest},
		{"oversized batch", `{"requests": [{"check_type":"ok"},{"check_type":"ok"},{"check_type":"ok"}]}`, http.StatusRequestEntityTooLarge},
		{"negative workers", `{"requests": [{"check_type":"ok"}], "max_workers": -1}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postBatch(t, srv, tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			var errBody map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &errBody); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if errBody["error"] == "" {
				t.Error("error body is empty")
			}
		})
	}
}

func TestHandleListChecks(t *testing.T) {
	srv := New(testRegistry(t), Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/checks", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		CheckTypes []string `json:"check_types"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.CheckTypes) != 2 || body.CheckTypes[0] != "fail" || body.CheckTypes[1] != "ok" {
		t.Errorf("check_types = %v, want [fail ok]", body.CheckTypes)
	}
}

func TestHandleLiveness(t *testing.T) {
	srv := New(testRegistry(t), Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthAPIKey(t *testing.T) {
	srv := New(testRegistry(t), Config{
		APIKeyHashes: []string{HashAPIKey("valid-key")},
	})
	body := `{"requests": [{"check_type": "ok"}]}`

	if rec := postBatch(t, srv, body, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: status = %d, want 401", rec.Code)
	}
	if rec := postBatch(t, srv, body, map[string]string{"X-API-Key": "wrong"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad key: status = %d, want 401", rec.Code)
	}
	if rec := postBatch(t, srv, body, map[string]string{"X-API-Key": "valid-key"}); rec.Code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200", rec.Code)
	}

	// Liveness stays open.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz: status = %d, want 200", rec.Code)
	}
}

func TestAuthJWT(t *testing.T) {
	secret := []byte("test-secret")
	srv := New(testRegistry(t), Config{JWTSecret: secret})
	body := `{"requests": [{"check_type": "ok"}]}`

	sign := func(key []byte, exp time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "tester",
			"exp": exp.Unix(),
		})
		signed, err := token.SignedString(key)
		if err != nil {
			t.Fatalf("signing token: %v", err)
		}
		return signed
	}

	valid := sign(secret, time.Now().Add(time.Hour))
	if rec := postBatch(t, srv, body, map[string]string{"Authorization": "Bearer " + valid}); rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	expired := sign(secret, time.Now().Add(-time.Hour))
	if rec := postBatch(t, srv, body, map[string]string{"Authorization": "Bearer " + expired}); rec.Code != http.StatusUnauthorized {
		t.Errorf("expired token: status = %d, want 401", rec.Code)
	}

	forged := sign([]byte("other-secret"), time.Now().Add(time.Hour))
	if rec := postBatch(t, srv, body, map[string]string{"Authorization": "Bearer " + forged}); rec.Code != http.StatusUnauthorized {
		t.Errorf("forged token: status = %d, want 401", rec.Code)
	}

	if rec := postBatch(t, srv, body, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: status = %d, want 401", rec.Code)
	}
}

// recordingSink captures saved and published batches.
type recordingSink struct {
	mu        sync.Mutex
	saved     []string
	published []string
}

func (r *recordingSink) SaveBatch(ctx context.Context, startedAt time.Time, res *batch.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, res.BatchID)
	return nil
}

func (r *recordingSink) Publish(ctx context.Context, res *batch.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, res.BatchID)
	return nil
}

func TestHandleRunBatchRecordsSinks(t *testing.T) {
	srv := New(testRegistry(t), Config{})
	sink := &recordingSink{}
	srv.SetStore(sink)
	srv.SetPublisher(sink)

	rec := postBatch(t, srv, `{"requests": [{"check_type": "ok"}]}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var rep batch.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decoding report: %v", err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.saved) != 1 || sink.saved[0] != rep.BatchID {
		t.Errorf("saved = %v, want [%s]", sink.saved, rep.BatchID)
	}
	if len(sink.published) != 1 || sink.published[0] != rep.BatchID {
		t.Errorf("published = %v, want [%s]", sink.published, rep.BatchID)
	}
}

func TestMetricsRouteToggle(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	enabled := New(testRegistry(t), Config{EnableMetrics: true})
	rec := httptest.NewRecorder()
	enabled.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("enabled: status = %d, want 200", rec.Code)
	}

	disabled := New(testRegistry(t), Config{})
	rec = httptest.NewRecorder()
	disabled.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled: status = %d, want 404", rec.Code)
	}
}

func TestHashAPIKey(t *testing.T) {
	h := HashAPIKey("secret")
	if len(h) != 64 {
		t.Errorf("len(hash) = %d, want 64 hex chars", len(h))
	}
	if h == HashAPIKey("other") {
		t.Error("distinct keys hashed identically")
	}
	if !strings.EqualFold(h, HashAPIKey("secret")) {
		t.Error("hashing is not deterministic")
	}
}
