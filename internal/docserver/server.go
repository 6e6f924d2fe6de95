// Package docserver hosts the shared document store: JSON documents
// addressed by collection and id, a WebSocket push of every document
// write, and a small named-file store used for off-device backups.
package docserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/alexanderramin/boardsync/internal/logging"
	"github.com/alexanderramin/boardsync/internal/repository"
)

const maxBodySize = 8 << 20

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// Options configures a Server.
type Options struct {
	// Secret is the shared secret clients exchange for a token. Empty
	// disables authentication.
	Secret   string
	TokenTTL time.Duration
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	Logger         logrus.FieldLogger
}

// Server serves documents and files out of a KV repository.
type Server struct {
	kv       repository.KVRepo
	hub      *Hub
	auth     *Auth
	log      logrus.FieldLogger
	handler  http.Handler
	upgrader websocket.Upgrader
}

func New(database *sql.DB, opts Options) *Server {
	log := logging.OrDiscard(opts.Logger).WithField("component", "docserver")
	s := &Server{
		kv:   repository.NewSQLiteKVRepo(database),
		hub:  NewHub(log),
		auth: NewAuth(opts.Secret, opts.TokenTTL),
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	go s.hub.Run()

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/token", s.token).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.auth.Middleware)
	api.HandleFunc("/docs/{collection}/{id}", s.getDoc).Methods(http.MethodGet)
	api.HandleFunc("/docs/{collection}/{id}", s.putDoc).Methods(http.MethodPut)
	api.HandleFunc("/docs/{collection}/{id}/ws", s.watchDoc).Methods(http.MethodGet)
	api.HandleFunc("/files/{name}", s.getFile).Methods(http.MethodGet)
	api.HandleFunc("/files/{name}", s.putFile).Methods(http.MethodPut)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	s.handler = c.Handler(r)
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

// Close disconnects every watcher.
func (s *Server) Close() {
	s.hub.Stop()
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{"event": logging.EventServerStart, "addr": addr}).Info("document server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func docKey(collection, id string) string { return "doc/" + collection + "/" + id }
func fileKey(name string) string          { return "file/" + name }

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type tokenRequest struct {
	Secret string `json:"secret"`
	Client string `json:"client"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	token, err := s.auth.Issue(req.Secret, req.Client)
	if errors.Is(err, ErrBadSecret) {
		http.Error(w, "invalid secret", http.StatusUnauthorized)
		return
	}
	if err != nil {
		s.log.WithError(err).Error("issuing token")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func docVars(r *http.Request) (string, string, bool) {
	vars := mux.Vars(r)
	c, id := vars["collection"], vars["id"]
	return c, id, namePattern.MatchString(c) && namePattern.MatchString(id)
}

func (s *Server) getDoc(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := docVars(r)
	if !ok {
		http.Error(w, "invalid document path", http.StatusBadRequest)
		return
	}
	s.serveValue(w, r, docKey(collection, id), "application/json")
}

func (s *Server) putDoc(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := docVars(r)
	if !ok {
		http.Error(w, "invalid document path", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil || len(body) > maxBodySize {
		http.Error(w, "unreadable or oversized body", http.StatusBadRequest)
		return
	}
	if !json.Valid(body) {
		http.Error(w, "document must be JSON", http.StatusBadRequest)
		return
	}
	if err := s.kv.Put(r.Context(), docKey(collection, id), string(body)); err != nil {
		s.log.WithError(err).Error("storing document")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.hub.Publish(docKey(collection, id), body)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) watchDoc(w http.ResponseWriter, r *http.Request) {
	collection, id, ok := docVars(r)
	if !ok {
		http.Error(w, "invalid document path", http.StatusBadRequest)
		return
	}

	// Register before upgrading so no write after the handshake is missed.
	c := &client{hub: s.hub, send: make(chan []byte, sendBuffer), topic: docKey(collection, id)}
	if !s.hub.Register(c) {
		http.Error(w, "server closing", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.Unregister(c)
		s.log.WithError(err).Debug("upgrading to websocket")
		return
	}
	c.conn = conn

	go c.writePump()
	go c.readPump()
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !namePattern.MatchString(name) {
		http.Error(w, "invalid file name", http.StatusBadRequest)
		return
	}
	s.serveValue(w, r, fileKey(name), "application/octet-stream")
}

func (s *Server) putFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !namePattern.MatchString(name) {
		http.Error(w, "invalid file name", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil || len(body) > maxBodySize {
		http.Error(w, "unreadable or oversized body", http.StatusBadRequest)
		return
	}
	if err := s.kv.Put(r.Context(), fileKey(name), string(body)); err != nil {
		s.log.WithError(err).Error("storing file")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveValue(w http.ResponseWriter, r *http.Request, key, contentType string) {
	entry, err := s.kv.Get(r.Context(), key)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("loading value")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Last-Modified", entry.UpdatedAt.UTC().Format(http.TimeFormat))
	_, _ = io.WriteString(w, entry.Value)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
