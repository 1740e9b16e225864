package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type samplePayload struct {
	Name    string  `json:"name" validate:"notblank"`
	Year    int     `json:"year" validate:"required,gte=1900"`
	Quarter int     `json:"quarter" validate:"gte=0,lte=4"`
	Value   float64 `json:"value" validate:"gte=0"`
}

func TestDecodeAndValidateReportsJSONFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  ","year":0,"quarter":7,"value":1}`))
	rec := httptest.NewRecorder()

	var payload samplePayload
	if DecodeAndValidate(rec, req, &payload, "req-1") {
		t.Fatal("expected validation to fail")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var env struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "validation_error" {
		t.Fatalf("unexpected code %q", env.Error.Code)
	}
	fields := map[string]bool{}
	for _, issue := range env.Error.Details.Fields {
		fields[issue.Field] = true
		if issue.Reason == "" {
			t.Fatalf("expected a reason for %s", issue.Field)
		}
	}
	for _, want := range []string{"name", "year", "quarter"} {
		if !fields[want] {
			t.Fatalf("expected issue for %s, got %+v", want, env.Error.Details.Fields)
		}
	}
	if fields["value"] {
		t.Fatal("value is valid and must not be reported")
	}
}

func TestDecodeAndValidateRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","year":2024,"extra":true}`))
	rec := httptest.NewRecorder()
	var payload samplePayload
	if DecodeAndValidate(rec, req, &payload, "") {
		t.Fatal("expected unknown field to be rejected")
	}
	if !strings.Contains(rec.Body.String(), "invalid_payload") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestDecodeAndValidateAcceptsGoodPayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Roads","year":2024,"quarter":2,"value":10}`))
	rec := httptest.NewRecorder()
	var payload samplePayload
	if !DecodeAndValidate(rec, req, &payload, "") {
		t.Fatalf("expected payload to validate, got %s", rec.Body.String())
	}
	if payload.Name != "Roads" || payload.Quarter != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestValidatorHelpers(t *testing.T) {
	v := NewValidator()
	v.Year("year", 24)
	v.Quarter("quarter", 0, false)
	v.Quarter("bucket", 0, true)
	v.UUID("id", "not-a-uuid")
	v.Required("name", " ", "is required")

	issues := v.Issues()
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %+v", issues)
	}
	if issues[0].Field != "id" {
		t.Fatalf("expected issues sorted by field, got %+v", issues)
	}
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?year=2024&quarter=x&confirmed=true", nil)
	if year, ok := QueryInt(req, "year", 0); !ok || year != 2024 {
		t.Fatalf("unexpected year %d %v", year, ok)
	}
	if _, ok := QueryInt(req, "quarter", 0); ok {
		t.Fatal("expected malformed quarter to fail")
	}
	if v, ok := QueryInt(req, "missing", 7); !ok || v != 7 {
		t.Fatalf("expected fallback, got %d", v)
	}
	if b := QueryBool(req, "confirmed"); b == nil || !*b {
		t.Fatal("expected confirmed=true")
	}
	if QueryBool(req, "missing") != nil {
		t.Fatal("expected nil for missing bool")
	}
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query         string
		limit, offset int
	}{
		{"", 50, 0},
		{"?limit=10&offset=20", 10, 20},
		{"?limit=-3&offset=-1", 50, 0},
		{"?limit=abc", 50, 0},
		{"?limit=5000", 200, 0},
	}
	for _, tc := range cases {
		p := ParsePagination(httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil), 50, 200)
		if p.Limit != tc.limit || p.Offset != tc.offset {
			t.Fatalf("%q: expected %d/%d, got %d/%d", tc.query, tc.limit, tc.offset, p.Limit, p.Offset)
		}
	}
}

func TestPathUUID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/items/{itemID}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := PathUUID(w, r, "itemID", "req-1")
		if !ok {
			return
		}
		w.Write([]byte(id))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/4B6F0C1E-2D3A-4F5B-8C7D-9E0F1A2B3C4D", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "4b6f0c1e-2d3a-4f5b-8c7d-9e0f1a2b3c4d" {
		t.Fatalf("expected canonical id, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/abc", nil))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "itemID") {
		t.Fatalf("expected 400 with itemID issue, got %d %s", rec.Code, rec.Body.String())
	}
}
