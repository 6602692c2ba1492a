package notes

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"notesclient/internal/api"
	"notesclient/internal/session"
)

// fakeService is an in-memory notes service speaking the same REST API
// as the real one.
type fakeService struct {
	mu     sync.Mutex
	users  map[string]string
	notes  map[int64]api.Note
	nextID int64
	calls  []string

	// statusOverride forces a status for "METHOD /path" keys
	statusOverride map[string]int
	// garbleCreate stores posted notes but answers with a non-JSON body
	garbleCreate bool
}

func newFakeService() *fakeService {
	return &fakeService{
		users:          map[string]string{},
		notes:          map[int64]api.Note{},
		nextID:         1,
		statusOverride: map[string]int{},
	}
}

func (f *fakeService) addNote(id int64, title, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[id] = api.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: api.Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	if id >= f.nextID {
		f.nextID = id + 1
	}
}

func (f *fakeService) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) countCalls(call string) int {
	n := 0
	for _, c := range f.callLog() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeService) override(call string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusOverride[call] = status
}

func (f *fakeService) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if msg != "" {
		json.NewEncoder(w).Encode(map[string]string{"message": msg})
	}
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	f.calls = append(f.calls, key)

	if status, ok := f.statusOverride[key]; ok {
		f.writeError(w, status, "")
		return
	}

	if r.URL.Path == "/api/auth/register" && r.Method == http.MethodPost {
		var body struct{ Username, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if _, exists := f.users[body.Username]; exists {
			f.writeError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		f.users[body.Username] = body.Password
		w.WriteHeader(http.StatusCreated)
		return
	}

	user, pass, ok := r.BasicAuth()
	if !ok || f.users[user] != pass || pass == "" {
		f.writeError(w, http.StatusUnauthorized, "")
		return
	}

	switch {
	case r.URL.Path == "/api/notes" && r.Method == http.MethodGet:
		ids := make([]int64, 0, len(f.notes))
		for id := range f.notes {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out := make([]api.Note, 0, len(ids))
		for _, id := range ids {
			out = append(out, f.notes[id])
		}
		json.NewEncoder(w).Encode(out)

	case r.URL.Path == "/api/notes" && r.Method == http.MethodPost:
		var in api.NoteInput
		json.NewDecoder(r.Body).Decode(&in)
		n := api.Note{ID: f.nextID, Title: in.Title, Content: in.Content, CreatedAt: api.Timestamp{Time: time.Now()}}
		f.notes[n.ID] = n
		f.nextID++
		w.WriteHeader(http.StatusCreated)
		if f.garbleCreate {
			io.WriteString(w, "created")
			return
		}
		json.NewEncoder(w).Encode(n)

	default:
		rest, found := strings.CutPrefix(r.URL.Path, "/api/notes/")
		id, err := strconv.ParseInt(rest, 10, 64)
		if !found || err != nil {
			f.writeError(w, http.StatusBadRequest, "bad id")
			return
		}
		n, exists := f.notes[id]
		if !exists {
			f.writeError(w, http.StatusNotFound, "")
			return
		}
		switch r.Method {
		case http.MethodPut:
			var in api.NoteInput
			json.NewDecoder(r.Body).Decode(&in)
			n.Title, n.Content = in.Title, in.Content
			now := api.Timestamp{Time: time.Now()}
			n.UpdatedAt = &now
			f.notes[id] = n
			json.NewEncoder(w).Encode(n)
		case http.MethodDelete:
			delete(f.notes, id)
			w.WriteHeader(http.StatusNoContent)
		default:
			f.writeError(w, http.StatusMethodNotAllowed, "")
		}
	}
}

// newTestClient returns a client wired to a fresh fake service with the
// user alice/secret.
func newTestClient(t *testing.T) (*Client, *fakeService) {
	t.Helper()
	fake := newFakeService()
	fake.users["alice"] = "secret"
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(api.New(srv.URL+"/api", nil, nil), &session.Session{}, nil), fake
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
