package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	internalstrings "github.com/amonks/taskboard/internal/strings"
	"github.com/amonks/taskboard/task"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 5 * time.Second

// ServerOptions configures a backend server.
type ServerOptions struct {
	Store *Store
	// AllowedOrigins lists browser origins allowed by CORS. "*" allows any.
	AllowedOrigins []string
	Logger         log.FieldLogger
	// Now defaults to time.Now.
	Now func() time.Time
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

// Server serves the task backend API.
type Server struct {
	store          *Store
	allowedOrigins []string
	logger         log.FieldLogger
	now            func() time.Time
	hashCost       int
}

// NewServer creates a backend server.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	logger := opts.Logger
	if logger == nil {
		stderr := log.New()
		stderr.SetOutput(os.Stderr)
		logger = stderr
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	hashCost := opts.HashCost
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &Server{
		store:          opts.Store,
		allowedOrigins: slices.Clone(opts.AllowedOrigins),
		logger:         logger,
		now:            now,
		hashCost:       hashCost,
	}, nil
}

// Handler returns the HTTP handler for the backend API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/tasks", s.handleTasksList)
	mux.HandleFunc("POST /api/tasks", s.handleTasksCreate)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleTasksUpdate)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleTasksDelete)
	mux.HandleFunc("GET /api/user/{id}", s.handleUser)
	mux.HandleFunc("GET /api/db-status", s.handleDBStatus)
	return s.logRequests(s.recoverHandler(s.corsHandler(mux)))
}

// Serve runs the server on addr until it fails or the process is interrupted.
func (s *Server) Serve(addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	listenErrs := make(chan error, 1)
	go func() {
		listenErrs <- server.ListenAndServe()
	}()
	s.logger.WithField("addr", addr).Info("backend listening")

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	select {
	case err := <-listenErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("server stopped")
			return err
		}
		return nil
	case <-interrupts:
		s.logger.Info("interrupt received, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		shutdownErr := server.Shutdown(shutdownCtx)
		cancel()
		listenErr := <-listenErrs
		if errors.Is(listenErr, http.ErrServerClosed) {
			listenErr = nil
		}
		return errors.Join(shutdownErr, listenErr, s.store.Close())
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Backend is running!"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	if internalstrings.IsBlank(payload.Username) || internalstrings.IsBlank(payload.Email) || payload.Password == "" {
		s.writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("username, email and password are required"))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.hashCost)
	if err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("hash password: %w", err))
		return
	}
	user, err := s.store.CreateUser(r.Context(), strings.TrimSpace(payload.Username), strings.TrimSpace(payload.Email), string(hash), s.now())
	switch {
	case errors.Is(err, ErrEmailTaken):
		s.writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	case errors.Is(err, ErrUsernameTaken):
		s.writeDetail(w, http.StatusBadRequest, "Username already taken")
		return
	case err != nil:
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	user, err := s.store.userByEmail(r.Context(), strings.TrimSpace(payload.Email))
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)) != nil {
		s.writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, user.User)
}

func (s *Server) handleTasksList(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r.URL.Query().Get("user_id"))
	if err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("user_id: %w", err))
		return
	}
	tasks, err := s.store.ListTasks(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleTasksCreate(w http.ResponseWriter, r *http.Request) {
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	created, err := s.store.CreateTask(r.Context(), record, s.now())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.requestLogger(r).WithFields(log.Fields{"task_id": created.ID, "user_id": record.UserID}).Debug("task created")
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleTasksUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("task id: %w", err))
		return
	}
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	updated, err := s.store.UpdateTask(r.Context(), id, record, s.now())
	if errors.Is(err, ErrNotFound) {
		s.writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleTasksDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("task id: %w", err))
		return
	}
	userID, err := parseID(r.URL.Query().Get("user_id"))
	if err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("user_id: %w", err))
		return
	}
	if err := s.store.DeleteTask(r.Context(), id, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.writeDetail(w, http.StatusNotFound, "Task not found")
			return
		}
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("user id: %w", err))
		return
	}
	user, err := s.store.UserByID(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		s.writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDBStatus(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, DBStatus{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, DBStatus{Status: "ok", Message: "Database connection successful"})
}

func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (task.Record, bool) {
	var record task.Record
	if err := decodeJSON(r, &record); err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, err)
		return task.Record{}, false
	}
	if record.Status == "" {
		record.Status = task.StatusTodo
	}
	if record.UserID <= 0 {
		s.writeError(w, r, http.StatusUnprocessableEntity, fmt.Errorf("user_id is required"))
		return task.Record{}, false
	}
	if err := record.Validate(); err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, err)
		return task.Record{}, false
	}
	return record, true
}

func (s *Server) corsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			header := w.Header()
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
					header.Set("Access-Control-Allow-Headers", requested)
				}
				header.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || strings.EqualFold(internalstrings.TrimTrailingSlash(allowed), origin) {
			return true
		}
	}
	return false
}

type requestIDKey struct{}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

		start := s.now()
		writer := &responseTracker{ResponseWriter: w}
		next.ServeHTTP(writer, r)
		status := writer.status
		if status == 0 {
			status = http.StatusOK
		}
		s.requestLogger(r).WithFields(log.Fields{
			"status":   status,
			"duration": s.now().Sub(start).String(),
		}).Debug("request handled")
	})
}

func (s *Server) requestLogger(r *http.Request) log.FieldLogger {
	fields := log.Fields{"method": r.Method, "path": r.URL.Path}
	if requestID, ok := r.Context().Value(requestIDKey{}).(string); ok {
		fields["request_id"] = requestID
	}
	return s.logger.WithFields(fields)
}

func (s *Server) recoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer := &responseTracker{ResponseWriter: w}
		defer func() {
			if recovered := recover(); recovered != nil {
				s.requestLogger(r).WithField("panic", recovered).Errorf("panic handling request\n%s", debug.Stack())
				if writer.status != 0 {
					return
				}
				writeJSON(writer, http.StatusInternalServerError, detailResponse{Detail: "Internal server error"})
			}
		}()
		next.ServeHTTP(writer, r)
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

func parseID(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("value is required")
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", value)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	entry := s.requestLogger(r).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
		s.writeDetail(w, status, "Internal server error")
		return
	}
	entry.Info("request rejected")
	writeJSON(w, status, detailResponse{Detail: err.Error()})
}

func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

type responseTracker struct {
	http.ResponseWriter
	status int
}

func (w *responseTracker) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseTracker) Write(data []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(data)
}
