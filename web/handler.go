// Package web serves the browser client: a login page and the task board,
// rendered on the server and talking to the backend over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/amonks/taskboard/board"
	"github.com/amonks/taskboard/internal/logging"
	"github.com/amonks/taskboard/session"
	"github.com/amonks/taskboard/task"
)

const shutdownTimeout = 5 * time.Second

// API is the backend surface the browser client needs.
type API interface {
	board.TaskAPI
	session.Authenticator
	session.Registrar
}

// Options configures the web handler.
type Options struct {
	API    API
	Logger log.FieldLogger
	// SecureCookies marks the identity cookie Secure.
	SecureCookies bool
}

// Handler serves the web client.
type Handler struct {
	api           API
	logger        log.FieldLogger
	secureCookies bool
	mux           *http.ServeMux
	templates     *templateWrapper

	mu     sync.Mutex
	boards map[int64]*board.Board
}

// NewHandler creates a new web handler.
func NewHandler(opts Options) *Handler {
	handler := &Handler{
		api:           opts.API,
		logger:        logging.OrDiscard(opts.Logger),
		secureCookies: opts.SecureCookies,
		templates:     newTemplateWrapper(),
		boards:        make(map[int64]*board.Board),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handler.handleRoot)
	mux.HandleFunc("GET /login", handler.handleLoginPage)
	mux.HandleFunc("POST /login", handler.handleLogin)
	mux.HandleFunc("GET /register", handler.handleRegisterPage)
	mux.HandleFunc("POST /register", handler.handleRegister)
	mux.HandleFunc("POST /logout", handler.handleLogout)
	mux.HandleFunc("GET /board", handler.handleBoard)
	mux.HandleFunc("POST /board/tasks/create", handler.handleTasksCreate)
	mux.HandleFunc("POST /board/tasks/update", handler.handleTasksUpdate)
	mux.HandleFunc("POST /board/tasks/delete", handler.handleTasksDelete)
	mux.HandleFunc("POST /board/tasks/move", handler.handleTasksMove)
	mux.HandleFunc("POST /board/dialog/close", handler.handleDialogClose)
	handler.mux = mux
	return handler
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	start := time.Now()
	writer := &statusRecorder{ResponseWriter: w}
	h.mux.ServeHTTP(writer, r)
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     writer.statusCode(),
		"duration":   time.Since(start).String(),
	}).Debug("request handled")
}

// Serve runs the web client on addr until it fails or the process is interrupted.
func (h *Handler) Serve(addr string) error {
	server := &http.Server{Addr: addr, Handler: h}

	listenErrs := make(chan error, 1)
	go func() {
		listenErrs <- server.ListenAndServe()
	}()
	h.logger.WithField("addr", addr).Info("web client listening")

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	select {
	case err := <-listenErrs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-interrupts:
		h.logger.Info("interrupt received, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		shutdownErr := server.Shutdown(shutdownCtx)
		cancel()
		listenErr := <-listenErrs
		if errors.Is(listenErr, http.ErrServerClosed) {
			listenErr = nil
		}
		return errors.Join(shutdownErr, listenErr)
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	sess := session.New(newCookieStore(w, r, h.secureCookies))
	_, _ = sess.Load()
	return sess
}

// boardFor returns the board for userID, creating it on first use.
func (h *Handler) boardFor(userID int64) *board.Board {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.boards[userID]
	if !ok {
		b = board.New(h.api, userID, board.Options{Logger: h.logger})
		h.boards[userID] = b
	}
	return b
}

// requireBoard returns the logged-in user's board, redirecting to the login
// page when nobody is logged in.
func (h *Handler) requireBoard(w http.ResponseWriter, r *http.Request) (*board.Board, bool) {
	userID, err := h.session(w, r).UserID()
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return nil, false
	}
	return h.boardFor(userID), true
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if h.session(w, r).Active() {
		http.Redirect(w, r, "/board", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.templates.Render(w, http.StatusOK, "login", authPageData{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.templates.Render(w, http.StatusBadRequest, "login", authPageData{Error: "invalid form input"})
		return
	}
	email := trimmedFormValue(r, "email")
	password := r.FormValue("password")

	_, err := h.session(w, r).Login(r.Context(), h.api, email, password)
	if err != nil {
		h.logger.WithError(err).WithField("email", email).Info("login failed")
		h.templates.Render(w, http.StatusOK, "login", authPageData{Email: email, Error: loginMessage(err)})
		return
	}
	http.Redirect(w, r, "/board", http.StatusSeeOther)
}

func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.templates.Render(w, http.StatusOK, "register", authPageData{})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.templates.Render(w, http.StatusBadRequest, "register", authPageData{Error: "invalid form input"})
		return
	}
	username := trimmedFormValue(r, "username")
	email := trimmedFormValue(r, "email")
	password := r.FormValue("password")

	identity, err := session.Register(r.Context(), h.api, username, email, password)
	if err == nil {
		err = h.session(w, r).Save(identity)
	}
	if err != nil {
		h.logger.WithError(err).WithField("email", email).Info("registration failed")
		h.templates.Render(w, http.StatusOK, "register", authPageData{Username: username, Email: email, Error: loginMessage(err)})
		return
	}
	http.Redirect(w, r, "/board", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if userID, err := sess.UserID(); err == nil {
		h.mu.Lock()
		delete(h.boards, userID)
		h.mu.Unlock()
	}
	_ = sess.Clear()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) handleBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBoard(w, r)
	if !ok {
		return
	}
	b.Mount(r.Context())

	dialog := b.Dialog()
	switch r.URL.Query().Get("dialog") {
	case "create":
		if dialog.Mode != board.DialogCreate {
			b.OpenCreate()
		}
	case "edit":
		id, err := parseID(trimmedQueryValue(r, "id"))
		if err != nil || dialog.Mode != board.DialogEdit || dialog.Current == nil || dialog.Current.ID != id {
			if err != nil || !b.OpenEdit(id) {
				b.Close()
			}
		}
	default:
		b.Close()
	}

	h.templates.Render(w, http.StatusOK, "board", newBoardPageData(b))
}

func (h *Handler) handleTasksCreate(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBoard(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/board?dialog=create", http.StatusSeeOther)
		return
	}
	if b.Dialog().Mode != board.DialogCreate {
		b.OpenCreate()
	}
	b.SetDraft(task.Draft{
		Title:       trimmedFormValue(r, "title"),
		Description: r.FormValue("description"),
		Status:      formStatus(r),
	})
	if err := b.Submit(r.Context()); err != nil {
		http.Redirect(w, r, "/board?dialog=create", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/board", http.StatusSeeOther)
}

func (h *Handler) handleTasksUpdate(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBoard(w, r)
	if !ok {
		return
	}
	id, err := parseID(trimmedQueryValue(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/board", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, editPath(id), http.StatusSeeOther)
		return
	}
	dialog := b.Dialog()
	if dialog.Mode != board.DialogEdit || dialog.Current == nil || dialog.Current.ID != id {
		if !b.OpenEdit(id) {
			http.Redirect(w, r, "/board", http.StatusSeeOther)
			return
		}
	}
	b.SetCurrent(task.Task{
		ID:          id,
		Title:       trimmedFormValue(r, "title"),
		Description: r.FormValue("description"),
		Status:      formStatus(r),
	})
	if err := b.Submit(r.Context()); err != nil {
		http.Redirect(w, r, editPath(id), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/board", http.StatusSeeOther)
}

func (h *Handler) handleTasksDelete(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBoard(w, r)
	if !ok {
		return
	}
	if id, err := parseID(trimmedQueryValue(r, "id")); err == nil {
		_ = b.Delete(r.Context(), id)
	}
	http.Redirect(w, r, "/board", http.StatusSeeOther)
}

type moveResponse struct {
	Outcome string `json:"outcome"`
	// Reload asks the page to re-render from the server's list.
	Reload bool `json:"reload"`
}

func (h *Handler) handleTasksMove(w http.ResponseWriter, r *http.Request) {
	userID, err := h.session(w, r).UserID()
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "not logged in"})
		return
	}
	b := h.boardFor(userID)

	var drop board.DropResult
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&drop); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid drop"})
		return
	}

	b.DragStart(drop.TaskID)
	if drop.Destination != nil {
		b.DragUpdate(task.StatusPtr(drop.Destination.Lane))
	} else {
		b.DragUpdate(nil)
	}
	outcome, err := b.DragEnd(r.Context(), drop)
	writeJSON(w, http.StatusOK, moveResponse{
		Outcome: outcome.String(),
		Reload:  outcome == board.DropMoved || err != nil,
	})
}

func (h *Handler) handleDialogClose(w http.ResponseWriter, r *http.Request) {
	b, ok := h.requireBoard(w, r)
	if !ok {
		return
	}
	b.Close()
	http.Redirect(w, r, "/board", http.StatusSeeOther)
}

func loginMessage(err error) string {
	var loginErr *session.LoginError
	switch {
	case errors.As(err, &loginErr):
		return loginErr.Message
	case errors.Is(err, session.ErrInvalidResponse):
		return "Invalid response from server"
	case errors.Is(err, session.ErrMissingCredentials):
		return "Email and password are required"
	default:
		return err.Error()
	}
}

func formStatus(r *http.Request) task.Status {
	status, err := task.ParseStatus(r.FormValue("status"))
	if err != nil {
		return task.StatusTodo
	}
	return status
}

func editPath(id int64) string {
	return "/board?dialog=edit&id=" + formatID(id)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(value string) (int64, error) {
	return strconv.ParseInt(value, 10, 64)
}

func trimmedQueryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func trimmedFormValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

type templateWrapper struct {
	tmpl *template.Template
}

func newTemplateWrapper() *templateWrapper {
	return &templateWrapper{tmpl: newTemplates()}
}

func (tw *templateWrapper) Render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = tw.tmpl.ExecuteTemplate(w, name, data)
}
