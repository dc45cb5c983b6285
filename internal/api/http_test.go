package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/heysubinoy/rpkv/internal/api"
	"github.com/heysubinoy/rpkv/internal/store"
)

func newHTTPServer(t *testing.T) (*httptest.Server, *store.InstrumentedStore) {
	t.Helper()
	inst := store.NewInstrumentedStore(store.NewFileStore(filepath.Join(t.TempDir(), "rpkv.db")))

	router := api.NewServer(inst, zerolog.Nop()).Routes()
	router.Get("/metrics", api.MetricsHandler(inst))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, inst
}

func do(t *testing.T, method, target string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func putURL(base, key, value string) string {
	q := url.Values{}
	q.Set("key", key)
	q.Set("value", value)
	return base + "/store?" + q.Encode()
}

func TestHTTP_PutThenGet(t *testing.T) {
	srv, _ := newHTTPServer(t)

	code, body := do(t, http.MethodPost, putURL(srv.URL, "toto", "rue des pets"))
	if code != http.StatusOK || body != "rue des pets" {
		t.Fatalf("POST /store = %d %q", code, body)
	}

	code, body = do(t, http.MethodGet, srv.URL+"/store/toto")
	if code != http.StatusOK || body != "rue des pets" {
		t.Errorf("GET /store/toto = %d %q", code, body)
	}
}

func TestHTTP_GetMissing(t *testing.T) {
	srv, _ := newHTTPServer(t)

	code, _ := do(t, http.MethodGet, srv.URL+"/store/missing")
	if code != http.StatusNotFound {
		t.Errorf("GET /store/missing = %d, want 404", code)
	}
}

func TestHTTP_GetEscapedKey(t *testing.T) {
	srv, inst := newHTTPServer(t)
	for key, value := range map[string]string{"é": "v2", "a+b": "plus", "100%": "percent"} {
		if err := inst.Put(key, value); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		path string
		want string
	}{
		{"/store/%C3%A9", "v2"},
		{"/store/%c3%a9", "v2"},
		{"/store/a%2Bb", "plus"},
		{"/store/a%2bb", "plus"},
		{"/store/a+b", "plus"},
		{"/store/100%25", "percent"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			code, body := do(t, http.MethodGet, srv.URL+tt.path)
			if code != http.StatusOK || body != tt.want {
				t.Errorf("GET %s = %d %q, want 200 %q", tt.path, code, body, tt.want)
			}
		})
	}
}

func TestHTTP_GetBadKeyEncoding(t *testing.T) {
	inst := store.NewInstrumentedStore(store.NewFileStore(filepath.Join(t.TempDir(), "rpkv.db")))
	router := api.NewServer(inst, zerolog.Nop()).Routes()

	req := httptest.NewRequest(http.MethodGet, "/store/x", nil)
	req.URL.Path = "/store/%zz"
	req.URL.RawPath = "/store/%zz"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET /store/%%zz = %d, want 400", rec.Code)
	}
}

func TestHTTP_Path(t *testing.T) {
	srv, inst := newHTTPServer(t)

	code, body := do(t, http.MethodGet, srv.URL+"/store")
	if code != http.StatusOK || body != inst.Path() {
		t.Errorf("GET /store = %d %q, want %q", code, body, inst.Path())
	}
}

func TestHTTP_PutValidation(t *testing.T) {
	srv, _ := newHTTPServer(t)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing both", "", http.StatusBadRequest},
		{"missing value", "?key=a", http.StatusBadRequest},
		{"missing key", "?value=a", http.StatusBadRequest},
		{"empty value", "?key=a&value=", http.StatusOK},
		{"invalid utf-8", "?key=a&value=%ff", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, http.MethodPost, srv.URL+"/store"+tt.query)
			if code != tt.want {
				t.Errorf("POST /store%s = %d %q, want %d", tt.query, code, body, tt.want)
			}
		})
	}
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	srv, _ := newHTTPServer(t)

	code, _ := do(t, http.MethodDelete, srv.URL+"/store/toto")
	if code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /store/toto = %d, want 405", code)
	}
}

func TestHTTP_StorageFailure(t *testing.T) {
	inst := store.NewInstrumentedStore(store.NewFileStore(t.TempDir()))
	srv := httptest.NewServer(api.NewServer(inst, zerolog.Nop()).Routes())
	defer srv.Close()

	code, _ := do(t, http.MethodGet, srv.URL+"/store/a")
	if code != http.StatusInternalServerError {
		t.Errorf("GET /store/a = %d, want 500", code)
	}
}

func TestHTTP_Metrics(t *testing.T) {
	srv, _ := newHTTPServer(t)

	do(t, http.MethodPost, putURL(srv.URL, "a", "1"))
	do(t, http.MethodGet, srv.URL+"/store/a")
	do(t, http.MethodGet, srv.URL+"/store/b")

	code, body := do(t, http.MethodGet, srv.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", code)
	}

	var got struct {
		Operations map[string]uint64 `json:"operations"`
		Misses     uint64            `json:"misses"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("invalid metrics JSON %q: %v", body, err)
	}
	if got.Operations["put"] != 1 || got.Operations["get"] != 2 || got.Misses != 1 {
		t.Errorf("metrics = %+v", got)
	}
}
