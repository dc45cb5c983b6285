package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/heysubinoy/rpkv/pkg/kv"
)

// Server wraps a kv.Store and exposes HTTP endpoints for KV operations.
type Server struct {
	Store kv.Store
	Log   zerolog.Logger
}

// NewServer creates a new HTTP server with the given store.
func NewServer(store kv.Store, log zerolog.Logger) *Server {
	return &Server{
		Store: store,
		Log:   log,
	}
}

// Routes returns a router with all HTTP handlers registered.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all HTTP handlers on the given router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/store", func(r chi.Router) {
		r.Get("/", s.handlePath)
		r.Post("/", s.handlePut)
		r.Get("/{key}", s.handleGet)
	})
}

// handlePath handles GET /store and returns the storage location.
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(s.Store.Path()))
}

// handleGet handles GET /store/{key} requests.
// Returns the value as plain text or 404 when the key is absent.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		http.Error(w, "Invalid key encoding", http.StatusBadRequest)
		return
	}

	value, found, err := s.Store.Get(key)
	if err != nil {
		s.writeStoreError(w, "get", key, err)
		return
	}
	if !found {
		http.Error(w, "Key not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(value))
}

// handlePut handles POST /store?key=foo&value=bar requests.
// Both parameters must be present; empty values are accepted.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("key") || !q.Has("value") {
		http.Error(w, "`key` and `value` are needed in query params", http.StatusBadRequest)
		return
	}

	key, value := q.Get("key"), q.Get("value")
	if err := s.Store.Put(key, value); err != nil {
		s.writeStoreError(w, "put", key, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(value))
}

// pathKey returns the decoded {key} segment. chi matches against
// r.URL.RawPath when it is set, leaving the parameter escaped.
func pathKey(r *http.Request) (string, error) {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key, nil
	}
	return url.PathUnescape(key)
}

func (s *Server) writeStoreError(w http.ResponseWriter, op, key string, err error) {
	if errors.Is(err, kv.ErrEncoding) {
		http.Error(w, "Value cannot be encoded", http.StatusBadRequest)
		return
	}

	s.Log.Error().Err(err).Str("op", op).Str("key", key).Msg("store operation failed")
	http.Error(w, "Storage failure", http.StatusInternalServerError)
}
