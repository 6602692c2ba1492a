package notes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"notesclient/views/components"
	"notesclient/views/models"
	"notesclient/views/pages"
)

type Handler struct {
	client *Client
	md     *Markdown
	log    *slog.Logger
}

// NewHandler wires the web UI to client. md may be nil, in which case note
// content is shown as escaped plain text.
func NewHandler(client *Client, md *Markdown, log *slog.Logger) *Handler {
	return &Handler{client: client, md: md, log: log}
}

// Routes mounts the web UI routes on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.HomePage)
	mux.HandleFunc("GET /fragments/app", h.AppFragment)
	mux.HandleFunc("GET /api/state", h.State)

	mux.HandleFunc("POST /register", h.RegisterUser)
	mux.HandleFunc("POST /login", h.LoginUser)
	mux.HandleFunc("POST /logout", h.LogoutUser)

	mux.HandleFunc("POST /notes", h.CreateNote)
	mux.HandleFunc("POST /notes/refresh", h.RefreshNotes)
	mux.HandleFunc("POST /notes/{id}/edit", h.EditNote)
	mux.HandleFunc("POST /notes/{id}/cancel", h.CancelEdit)
	mux.HandleFunc("POST /notes/{id}/save", h.SaveNote)
	mux.HandleFunc("POST /notes/{id}/delete", h.DeleteNote)
}

// --- Page Handlers ---

// HomePage handles GET /
func (h *Handler) HomePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.HomePage(h.pageView(h.client.Snapshot())).Render(r.Context(), w); err != nil {
		h.log.Error("failed to render home page", "error", err)
	}
}

// AppFragment handles GET /fragments/app (HTMX partial)
func (h *Handler) AppFragment(w http.ResponseWriter, r *http.Request) {
	h.renderApp(w, r)
}

// State handles GET /api/state
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, h.client.Snapshot(), http.StatusOK)
}

// --- Action Handlers ---

// RegisterUser handles POST /register
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	h.client.Register(opContext(r), r.PostFormValue("username"), r.PostFormValue("password"))
	h.respond(w, r)
}

// LoginUser handles POST /login
func (h *Handler) LoginUser(w http.ResponseWriter, r *http.Request) {
	h.client.Login(opContext(r), r.PostFormValue("username"), r.PostFormValue("password"))
	h.respond(w, r)
}

// LogoutUser handles POST /logout
func (h *Handler) LogoutUser(w http.ResponseWriter, r *http.Request) {
	h.client.Logout()
	h.respond(w, r)
}

// CreateNote handles POST /notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	h.client.CreateNote(opContext(r), r.PostFormValue("title"), r.PostFormValue("content"))
	h.respond(w, r)
}

// RefreshNotes handles POST /notes/refresh
func (h *Handler) RefreshNotes(w http.ResponseWriter, r *http.Request) {
	h.client.ListNotes(opContext(r))
	h.respond(w, r)
}

// EditNote handles POST /notes/{id}/edit
func (h *Handler) EditNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.noteID(w, r)
	if !ok {
		return
	}
	h.client.ToggleEditMode(opContext(r), id, true)
	h.respond(w, r)
}

// CancelEdit handles POST /notes/{id}/cancel
func (h *Handler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.noteID(w, r)
	if !ok {
		return
	}
	h.client.ToggleEditMode(opContext(r), id, false)
	h.respond(w, r)
}

// SaveNote handles POST /notes/{id}/save
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.noteID(w, r)
	if !ok {
		return
	}
	h.client.UpdateNote(opContext(r), id, r.PostFormValue("title"), r.PostFormValue("content"))
	h.respond(w, r)
}

// DeleteNote handles POST /notes/{id}/delete. The form carries
// confirm=yes once the user accepted the confirmation dialog.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.noteID(w, r)
	if !ok {
		return
	}
	h.client.DeleteNote(opContext(r), id, r.PostFormValue("confirm") == "yes")
	h.respond(w, r)
}

// --- Helper methods ---

// opContext detaches remote calls from the browser request: a request
// that has started is never aborted, even if the page goes away.
func opContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// respond re-renders the app for htmx, or redirects a plain form post
// back to the page.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		h.renderApp(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) renderApp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := components.App(h.pageView(h.client.Snapshot())).Render(r.Context(), w); err != nil {
		h.log.Error("failed to render app fragment", "error", err)
	}
}

func (h *Handler) noteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid note ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// --- View model converters ---

func messageView(m Message) models.MessageView {
	return models.MessageView{Text: m.Text, IsError: m.IsError}
}

func (h *Handler) notesToViews(items []Item) []models.NoteView {
	views := make([]models.NoteView, len(items))
	for i, item := range items {
		n := item.Note
		v := models.NoteView{
			ID:           n.ID,
			Title:        n.Title,
			Content:      n.Content,
			CreatedAt:    n.CreatedAt.Time,
			Editing:      item.Mode == ModeEdit,
			DraftTitle:   item.DraftTitle,
			DraftContent: item.DraftContent,
		}
		if n.UpdatedAt != nil {
			v.UpdatedAt = n.UpdatedAt.Time
		}
		if h.md != nil && !v.Editing {
			if rendered, ok := h.md.Render(n.Content); ok {
				v.Rendered = rendered
			}
		}
		views[i] = v
	}
	return views
}

func (h *Handler) pageView(s State) models.PageView {
	return models.PageView{
		Authenticated:    s.Authenticated,
		Username:         s.Username,
		Notes:            h.notesToViews(s.Notes),
		RegisterMessage:  messageView(s.RegisterMessage),
		LoginMessage:     messageView(s.LoginMessage),
		ListMessage:      messageView(s.ListMessage),
		NoteMessage:      messageView(s.NoteMessage),
		RegisterUsername: s.Forms.RegisterUsername,
		LoginUsername:    s.Forms.LoginUsername,
		NoteTitle:        s.Forms.NoteTitle,
		NoteContent:      s.Forms.NoteContent,
	}
}
