package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                             "/",
		"/":                            "/",
		"/metrics":                     "/metrics",
		"/v1/account":                  "/v1/account",
		"/v1/account/":                 "/v1/account",
		"/v1/account/actions":          "/v1/account/actions",
		"/v1/account/journal?limit=10": "/v1/account/journal",
		"/v1/account/abc/extra":        "other",
		"/wp-admin/install.php":        "other",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestObserveTransition(t *testing.T) {
	Init()
	before := testutil.ToFloat64(accountTransitions.WithLabelValues("DEPOSIT", "applied"))
	ObserveTransition("DEPOSIT", "applied")
	ObserveTransition("DEPOSIT", "applied")
	after := testutil.ToFloat64(accountTransitions.WithLabelValues("DEPOSIT", "applied"))
	if after-before != 2 {
		t.Fatalf("expected counter to grow by 2, got %v", after-before)
	}
}

func TestInstrumentCountsRequests(t *testing.T) {
	Init()
	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	c := httpRequestsTotal.WithLabelValues(http.MethodPost, "/v1/account/actions", "409")
	before := testutil.ToFloat64(c)

	req := httptest.NewRequest(http.MethodPost, "/v1/account/actions", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Fatalf("expected one request counted, got %v", got)
	}
}

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Logger().Info("hello")
	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v (%q)", err, line)
	}
	for _, key := range []string{"ts", "level", "msg"} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected key %q in %v", key, entry)
		}
	}
	if entry["msg"] != "hello" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
}
