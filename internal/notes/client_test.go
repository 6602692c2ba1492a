package notes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"notesclient/internal/api"
	"notesclient/internal/session"
)

func login(t *testing.T, c *Client) {
	t.Helper()
	if msg := c.Login(context.Background(), "alice", "secret"); msg.IsError {
		t.Fatalf("Login() = %+v", msg)
	}
}

func TestClient_ValidationSkipsNetwork(t *testing.T) {
	ctx := context.Background()

	pairs := []struct{ a, b string }{{"", ""}, {"x", ""}, {"", "y"}}

	t.Run("register", func(t *testing.T) {
		c, fake := newTestClient(t)
		for _, p := range pairs {
			msg := c.Register(ctx, p.a, p.b)
			if !msg.IsError || msg.Text != "Please enter both username and password." {
				t.Errorf("Register(%q, %q) = %+v", p.a, p.b, msg)
			}
		}
		if calls := fake.callLog(); len(calls) != 0 {
			t.Errorf("unexpected calls %v", calls)
		}
	})

	t.Run("login", func(t *testing.T) {
		c, fake := newTestClient(t)
		for _, p := range pairs {
			msg := c.Login(ctx, p.a, p.b)
			if !msg.IsError || msg.Text != "Please enter both username and password." {
				t.Errorf("Login(%q, %q) = %+v", p.a, p.b, msg)
			}
		}
		if calls := fake.callLog(); len(calls) != 0 {
			t.Errorf("unexpected calls %v", calls)
		}
	})

	t.Run("create", func(t *testing.T) {
		c, fake := newTestClient(t)
		login(t, c)
		before := len(fake.callLog())
		for _, p := range pairs {
			msg := c.CreateNote(ctx, p.a, p.b)
			if !msg.IsError || msg.Text != "Please enter both title and content." {
				t.Errorf("CreateNote(%q, %q) = %+v", p.a, p.b, msg)
			}
		}
		if got := len(fake.callLog()); got != before {
			t.Errorf("validation issued %d calls", got-before)
		}
		if fake.countCalls("POST /api/notes") != 0 {
			t.Error("POST sent for invalid note")
		}
	})

	t.Run("update", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.addNote(5, "T", "C")
		login(t, c)
		c.ToggleEditMode(ctx, 5, true)
		before := len(fake.callLog())
		for _, p := range pairs {
			msg := c.UpdateNote(ctx, 5, p.a, p.b)
			if !msg.IsError || msg.Text != "Title and content cannot be empty." {
				t.Errorf("UpdateNote(%q, %q) = %+v", p.a, p.b, msg)
			}
		}
		if got := len(fake.callLog()); got != before {
			t.Errorf("validation issued %d calls", got-before)
		}
		s := c.Snapshot()
		if s.Notes[0].Mode != ModeEdit {
			t.Error("note left edit mode after a rejected save")
		}
	})
}

func TestClient_Register(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)

	msg := c.Register(ctx, "bob", "pw")
	if msg.IsError || msg.Text != "Registration successful! You can now login." {
		t.Fatalf("Register() = %+v", msg)
	}
	s := c.Snapshot()
	if s.Authenticated {
		t.Error("registration must not sign in")
	}
	if s.Forms.RegisterUsername != "" {
		t.Error("register form not cleared")
	}

	msg = c.Register(ctx, "bob", "pw")
	if !msg.IsError || msg.Text != "Registration failed: Username already exists" {
		t.Errorf("duplicate Register() = %+v", msg)
	}
	if got := c.Snapshot().Forms.RegisterUsername; got != "bob" {
		t.Errorf("form value = %q, want it kept after failure", got)
	}

	fake.override("POST /api/auth/register", http.StatusBadGateway)
	msg = c.Register(ctx, "carol", "pw")
	if msg.Text != "Registration failed: Bad Gateway" {
		t.Errorf("Register() = %+v, want status text fallback", msg)
	}
}

func TestClient_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("renders the fetched notes", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.addNote(1, "A", "B")

		msg := c.Login(ctx, "alice", "secret")
		if msg.IsError || msg.Text != "Login successful!" {
			t.Fatalf("Login() = %+v", msg)
		}
		s := c.Snapshot()
		if !s.Authenticated || s.Username != "alice" {
			t.Errorf("state = %+v", s)
		}
		if len(s.Notes) != 1 || s.Notes[0].Note.Title != "A" {
			t.Fatalf("notes = %+v", s.Notes)
		}
		if s.Notes[0].Mode != ModeDisplay {
			t.Error("fetched note not in display mode")
		}
		// credential check, then the refresh
		if n := fake.countCalls("GET /api/notes"); n != 2 {
			t.Errorf("GET /api/notes called %d times, want 2", n)
		}
	})

	t.Run("invalid credentials clear the session", func(t *testing.T) {
		c, _ := newTestClient(t)
		msg := c.Login(ctx, "alice", "wrong")
		if !msg.IsError || msg.Text != "Login failed: Invalid credentials." {
			t.Fatalf("Login() = %+v", msg)
		}
		if _, _, ok := c.session.Credentials(); ok {
			t.Error("session kept after 401")
		}
		if c.Snapshot().Authenticated {
			t.Error("authenticated after 401")
		}
	})

	t.Run("server error clears the session", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.override("GET /api/notes", http.StatusInternalServerError)
		msg := c.Login(ctx, "alice", "secret")
		if msg.Text != "Login failed: Internal Server Error" {
			t.Fatalf("Login() = %+v", msg)
		}
		if _, _, ok := c.session.Credentials(); ok {
			t.Error("session kept after server error")
		}
	})

	t.Run("failed login drops the previous user's notes", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.addNote(1, "private", "x")
		login(t, c)
		if len(c.Snapshot().Notes) != 1 {
			t.Fatal("notes not loaded")
		}

		msg := c.Login(ctx, "alice", "wrong")
		if !msg.IsError {
			t.Fatalf("Login() = %+v", msg)
		}
		s := c.Snapshot()
		if s.Authenticated || s.Username != "" {
			t.Errorf("state = %+v", s)
		}
		if len(s.Notes) != 0 {
			t.Errorf("previous notes kept after failed login: %+v", s.Notes)
		}
	})

	t.Run("network error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c := NewClient(api.New(srv.URL+"/api", nil, nil), &session.Session{}, nil)

		msg := c.Login(ctx, "alice", "secret")
		if !msg.IsError || !strings.HasPrefix(msg.Text, "Network error: ") {
			t.Fatalf("Login() = %+v", msg)
		}
		if _, _, ok := c.session.Credentials(); ok {
			t.Error("session kept after network error")
		}
	})
}

func TestClient_Logout(t *testing.T) {
	c, fake := newTestClient(t)
	fake.addNote(1, "A", "B")
	login(t, c)
	before := len(fake.callLog())

	msg := c.Logout()
	if msg.Text != "Logged out successfully." {
		t.Errorf("Logout() = %+v", msg)
	}
	s := c.Snapshot()
	if s.Authenticated || len(s.Notes) != 0 {
		t.Errorf("state after logout = %+v", s)
	}
	if _, _, ok := c.session.Credentials(); ok {
		t.Error("session kept after logout")
	}
	if len(fake.callLog()) != before {
		t.Error("logout must not call the server")
	}
}

func TestClient_ListNotes(t *testing.T) {
	ctx := context.Background()

	t.Run("no credentials short-circuits", func(t *testing.T) {
		c, fake := newTestClient(t)
		msg := c.ListNotes(ctx)
		if !msg.IsError || msg.Text != "Please log in to view notes." {
			t.Errorf("ListNotes() = %+v", msg)
		}
		if len(fake.callLog()) != 0 {
			t.Error("network call without credentials")
		}
	})

	t.Run("empty list", func(t *testing.T) {
		c, _ := newTestClient(t)
		login(t, c)
		s := c.Snapshot()
		if s.ListMessage.Text != "No notes found. Create one!" || s.ListMessage.IsError {
			t.Errorf("ListMessage = %+v", s.ListMessage)
		}
	})

	t.Run("401 forces logout", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.addNote(1, "A", "B")
		login(t, c)

		fake.mu.Lock()
		fake.users["alice"] = "rotated"
		fake.mu.Unlock()

		msg := c.ListNotes(ctx)
		if !msg.IsError || msg.Text != "Not authorized to fetch notes. Please log in." {
			t.Errorf("ListNotes() = %+v", msg)
		}
		s := c.Snapshot()
		if s.Authenticated || len(s.Notes) != 0 {
			t.Errorf("state after 401 = %+v", s)
		}
		if _, _, ok := c.session.Credentials(); ok {
			t.Error("session kept after 401")
		}
	})

	t.Run("failure keeps the last successful list", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.addNote(1, "A", "B")
		login(t, c)

		fake.override("GET /api/notes", http.StatusServiceUnavailable)
		msg := c.ListNotes(ctx)
		if msg.Text != "Error fetching notes: Service Unavailable" {
			t.Errorf("ListNotes() = %+v", msg)
		}
		if s := c.Snapshot(); len(s.Notes) != 1 || !s.Authenticated {
			t.Errorf("state = %+v", s)
		}
	})
}

func TestClient_CreateNote(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)
	fake.addNote(1, "A", "B")
	login(t, c)

	// a note created elsewhere shows up through the full refresh
	fake.addNote(2, "other", "tab")

	msg := c.CreateNote(ctx, "T", "C")
	if msg.IsError || msg.Text != "Note created successfully!" {
		t.Fatalf("CreateNote() = %+v", msg)
	}
	s := c.Snapshot()
	if s.Forms.NoteTitle != "" || s.Forms.NoteContent != "" {
		t.Error("create form not cleared")
	}
	titles := []string{}
	for _, it := range s.Notes {
		titles = append(titles, it.Note.Title)
	}
	if strings.Join(titles, ",") != "A,other,T" {
		t.Errorf("rendered titles = %v, want the server's full list", titles)
	}

	fake.override("POST /api/notes", http.StatusInternalServerError)
	msg = c.CreateNote(ctx, "T2", "C2")
	if msg.Text != "Failed to create note: Internal Server Error" {
		t.Errorf("CreateNote() = %+v", msg)
	}
	if s := c.Snapshot(); s.Forms.NoteTitle != "T2" {
		t.Error("form values lost after failure")
	}
}

func TestClient_CreateNoteUnreadableResponse(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)
	login(t, c)
	fake.mu.Lock()
	fake.garbleCreate = true
	fake.mu.Unlock()

	msg := c.CreateNote(ctx, "T", "C")
	if msg.IsError || msg.Text != "Note created successfully!" {
		t.Fatalf("CreateNote() = %+v", msg)
	}
	s := c.Snapshot()
	if len(s.Notes) != 1 || s.Notes[0].Note.Title != "T" {
		t.Errorf("notes = %+v", s.Notes)
	}
	if s.Forms.NoteTitle != "" {
		t.Error("create form not cleared")
	}
}

func TestClient_UpdateNote(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)
	fake.addNote(5, "old", "body")
	fake.addNote(6, "keep", "me")
	login(t, c)

	c.ToggleEditMode(ctx, 5, true)
	s := c.Snapshot()
	if s.Notes[0].Mode != ModeEdit || s.Notes[0].DraftTitle != "old" || s.Notes[0].DraftContent != "body" {
		t.Fatalf("edit state = %+v", s.Notes[0])
	}

	msg := c.UpdateNote(ctx, 5, "new", "text")
	if msg.IsError || msg.Text != "Note updated successfully!" {
		t.Fatalf("UpdateNote() = %+v", msg)
	}
	if fake.countCalls("PUT /api/notes/5") != 1 {
		t.Error("PUT not sent")
	}

	s = c.Snapshot()
	note := s.Notes[s.Find(5)]
	if note.Note.Title != "new" || note.Note.Content != "text" {
		t.Errorf("note 5 = %+v", note.Note)
	}
	if note.Note.UpdatedAt == nil {
		t.Error("updatedAt missing after refresh")
	}
	if note.Mode != ModeDisplay {
		t.Error("note 5 still in edit mode after save")
	}

	msg = c.UpdateNote(ctx, 99, "x", "y")
	if msg.Text != "Failed to update note: Not Found" {
		t.Errorf("UpdateNote(99) = %+v", msg)
	}
}

func TestClient_CancelEdit(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)
	fake.addNote(3, "title", "content")
	login(t, c)
	gets := fake.countCalls("GET /api/notes")

	c.ToggleEditMode(ctx, 3, true)
	// a rejected save leaves the typed draft in place
	c.UpdateNote(ctx, 3, "draft", "")
	if d := c.Snapshot().Notes[0].DraftTitle; d != "draft" {
		t.Fatalf("DraftTitle = %q", d)
	}

	c.ToggleEditMode(ctx, 3, false)
	if fake.countCalls("GET /api/notes") != gets+1 {
		t.Error("cancel did not refresh")
	}
	it := c.Snapshot().Notes[0]
	if it.Mode != ModeDisplay || it.DraftTitle != "" || it.Note.Title != "title" {
		t.Errorf("after cancel = %+v", it)
	}
}

func TestClient_DeleteNote(t *testing.T) {
	ctx := context.Background()

	t.Run("removes exactly the target without refreshing", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.addNote(1, "one", "x")
		fake.addNote(2, "two", "x")
		fake.addNote(3, "three", "x")
		login(t, c)
		gets := fake.countCalls("GET /api/notes")

		msg := c.DeleteNote(ctx, 2, true)
		if msg.IsError || msg.Text != "Note deleted successfully!" {
			t.Fatalf("DeleteNote() = %+v", msg)
		}
		s := c.Snapshot()
		if len(s.Notes) != 2 || s.Find(1) < 0 || s.Find(3) < 0 || s.Find(2) >= 0 {
			t.Errorf("notes = %+v", s.Notes)
		}
		if fake.countCalls("GET /api/notes") != gets {
			t.Error("delete triggered a refresh")
		}
	})

	t.Run("404 keeps the note", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.addNote(7, "seven", "x")
		login(t, c)
		fake.override("DELETE /api/notes/7", http.StatusNotFound)

		msg := c.DeleteNote(ctx, 7, true)
		if !msg.IsError || msg.Text != "Note not found." {
			t.Fatalf("DeleteNote() = %+v", msg)
		}
		if c.Snapshot().Find(7) < 0 {
			t.Error("note 7 removed after 404")
		}
	})

	t.Run("other errors surface the server message", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.addNote(7, "seven", "x")
		login(t, c)
		fake.override("DELETE /api/notes/7", http.StatusConflict)

		msg := c.DeleteNote(ctx, 7, true)
		if msg.Text != "Failed to delete note: Conflict" {
			t.Errorf("DeleteNote() = %+v", msg)
		}
	})

	t.Run("unconfirmed is a no-op", func(t *testing.T) {
		c, fake := newTestClient(t)
		fake.addNote(7, "seven", "x")
		login(t, c)
		c.DeleteNote(ctx, 7, false)
		if fake.countCalls("DELETE /api/notes/7") != 0 {
			t.Error("DELETE sent without confirmation")
		}
	})
}

func TestClient_MutationUnauthorizedForcesLogout(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)
	fake.addNote(1, "A", "B")
	login(t, c)
	fake.override("POST /api/notes", http.StatusUnauthorized)

	msg := c.CreateNote(ctx, "T", "C")
	if !msg.IsError {
		t.Fatalf("CreateNote() = %+v", msg)
	}
	s := c.Snapshot()
	if s.Authenticated || len(s.Notes) != 0 {
		t.Errorf("state = %+v", s)
	}
	if _, _, ok := c.session.Credentials(); ok {
		t.Error("session kept after 401")
	}
}

// stubAPI lets a test hold a list call open.
type stubAPI struct {
	release chan struct{}
	entered chan struct{}
	notes   []api.Note
}

func (s *stubAPI) Register(context.Context, string, string) error { return nil }

func (s *stubAPI) ListNotes(ctx context.Context, cred api.Credentials) ([]api.Note, error) {
	if s.release != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	return s.notes, nil
}

func (s *stubAPI) CreateNote(context.Context, api.Credentials, api.NoteInput) (*api.Note, error) {
	return &api.Note{}, nil
}

func (s *stubAPI) UpdateNote(context.Context, api.Credentials, int64, api.NoteInput) error {
	return nil
}

func (s *stubAPI) DeleteNote(context.Context, api.Credentials, int64) error { return nil }

func TestClient_StaleRefreshAfterLogoutIsDropped(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{notes: []api.Note{{ID: 1, Title: "A"}}}
	c := NewClient(stub, &session.Session{}, nil)
	login(t, c)

	stub.release = make(chan struct{})
	stub.entered = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.ListNotes(ctx)
	}()

	<-stub.entered
	c.Logout()
	close(stub.release)
	wg.Wait()

	s := c.Snapshot()
	if s.Authenticated || len(s.Notes) != 0 {
		t.Errorf("stale refresh repopulated the view: %+v", s)
	}
}
