package notes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"notesclient/internal/api"
	"notesclient/internal/session"
)

const (
	msgMissingCredentials = "Please enter both username and password."
	msgMissingNoteFields  = "Please enter both title and content."
	msgEmptyEdit          = "Title and content cannot be empty."
	msgNotLoggedIn        = "Please log in to view notes."
	msgListUnauthorized   = "Not authorized to fetch notes. Please log in."
	msgUnauthorized       = "Not authorized. Please log in."
	msgNoNotes            = "No notes found. Create one!"
	msgNoteNotFound       = "Note not found."
)

// NotesAPI is the remote notes service
type NotesAPI interface {
	Register(ctx context.Context, username, password string) error
	ListNotes(ctx context.Context, cred api.Credentials) ([]api.Note, error)
	CreateNote(ctx context.Context, cred api.Credentials, input api.NoteInput) (*api.Note, error)
	UpdateNote(ctx context.Context, cred api.Credentials, id int64, input api.NoteInput) error
	DeleteNote(ctx context.Context, cred api.Credentials, id int64) error
}

// Client is the notes view controller. It owns the session and the view
// state; every operation updates the state and returns the message it
// produced.
//
// The state lock is never held across a remote call, so operations run
// independently and whichever refresh resolves last is what gets
// rendered.
type Client struct {
	api     NotesAPI
	session *session.Session
	log     *slog.Logger

	mu    sync.Mutex
	state State
	// epoch changes whenever the signed-in identity does; results of
	// calls started under an older epoch are dropped.
	epoch uint64
}

func NewClient(notesAPI NotesAPI, sess *session.Session, log *slog.Logger) *Client {
	if sess == nil {
		sess = &session.Session{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{api: notesAPI, session: sess, log: log}
}

// Snapshot returns a copy of the current view state
func (c *Client) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, username, password string) Message {
	c.mu.Lock()
	c.state.RegisterMessage = Message{}
	c.state.Forms.RegisterUsername = username
	c.mu.Unlock()

	if username == "" || password == "" {
		return c.setRegisterMessage(failure(msgMissingCredentials), false)
	}

	err := c.api.Register(ctx, username, password)
	switch {
	case err == nil:
		c.log.Info("registered account", "username", username)
		return c.setRegisterMessage(success("Registration successful! You can now login."), true)
	case isNetwork(err):
		return c.setRegisterMessage(failure("Network error: "+err.Error()), false)
	default:
		c.log.Debug("registration rejected", "username", username, "error", err)
		return c.setRegisterMessage(failure("Registration failed: "+err.Error()), false)
	}
}

func (c *Client) setRegisterMessage(m Message, clearForm bool) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.RegisterMessage = m
	if clearForm {
		c.state.Forms.RegisterUsername = ""
	}
	return m
}

// Login checks the credentials by fetching the notes list. There is no
// dedicated login endpoint; a successful list call is the credential
// check.
func (c *Client) Login(ctx context.Context, username, password string) Message {
	c.mu.Lock()
	c.state.LoginMessage = Message{}
	c.state.Forms.LoginUsername = username
	c.mu.Unlock()

	if username == "" || password == "" {
		return c.setLoginMessage(failure(msgMissingCredentials))
	}

	c.session.Set(username, password)
	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()

	_, err := c.api.ListNotes(ctx, api.Credentials{Username: username, Password: password})
	if err != nil {
		c.session.Clear()
		c.mu.Lock()
		c.signOutLocked()
		c.mu.Unlock()

		switch {
		case errors.Is(err, api.ErrUnauthorized):
			c.log.Info("login rejected", "username", username)
			return c.setLoginMessage(failure("Login failed: Invalid credentials."))
		case isNetwork(err):
			return c.setLoginMessage(failure("Network error: " + err.Error()))
		default:
			c.log.Warn("login check failed", "username", username, "error", err)
			return c.setLoginMessage(failure("Login failed: " + err.Error()))
		}
	}

	c.log.Info("logged in", "username", username)
	c.mu.Lock()
	c.state.Authenticated = true
	c.state.Username = username
	c.state.LoginMessage = success("Login successful!")
	c.state.Forms.LoginUsername = ""
	msg := c.state.LoginMessage
	c.mu.Unlock()

	c.ListNotes(ctx)
	return msg
}

func (c *Client) setLoginMessage(m Message) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LoginMessage = m
	return m
}

// Logout forgets the credentials and returns to the sign-in view. Basic
// auth is stateless, so the server is not involved.
func (c *Client) Logout() Message {
	c.session.Clear()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.signOutLocked()
	c.state.LoginMessage = success("Logged out successfully.")
	c.log.Info("logged out")
	return c.state.LoginMessage
}

// signOutLocked resets everything tied to the signed-in identity.
func (c *Client) signOutLocked() {
	c.epoch++
	c.state.Authenticated = false
	c.state.Username = ""
	c.state.Notes = nil
	c.state.ListMessage = Message{}
	c.state.NoteMessage = Message{}
	c.state.Forms.NoteTitle = ""
	c.state.Forms.NoteContent = ""
}

// forceLogoutLocked handles a 401 from any authenticated call.
func (c *Client) forceLogoutLocked(m Message) {
	c.session.Clear()
	c.signOutLocked()
	c.state.LoginMessage = m
	c.log.Info("session rejected by server, signed out")
}

// credentials returns the session credentials and the epoch they belong to.
func (c *Client) credentials() (api.Credentials, uint64, bool) {
	username, password, ok := c.session.Credentials()
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()
	return api.Credentials{Username: username, Password: password}, epoch, ok
}

// ListNotes re-fetches the whole collection and replaces the rendered
// list. Every note goes back to display mode. On failure the previous
// list stays.
func (c *Client) ListNotes(ctx context.Context) Message {
	cred, epoch, ok := c.credentials()
	if !ok {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.state.ListMessage = failure(msgNotLoggedIn)
		return c.state.ListMessage
	}

	list, err := c.api.ListNotes(ctx, cred)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		c.log.Debug("dropping stale note list", "epoch", epoch, "current", c.epoch)
		return Message{}
	}

	switch {
	case err == nil:
		items := make([]Item, len(list))
		for i, n := range list {
			items[i] = Item{Note: n, Mode: ModeDisplay}
		}
		c.state.Notes = items
		if len(items) == 0 {
			c.state.ListMessage = success(msgNoNotes)
		} else {
			c.state.ListMessage = Message{}
		}
		return c.state.ListMessage
	case errors.Is(err, api.ErrUnauthorized):
		c.forceLogoutLocked(failure(msgListUnauthorized))
		return c.state.LoginMessage
	case isNetwork(err):
		c.state.ListMessage = failure("Network error fetching notes: " + err.Error())
	default:
		c.log.Warn("fetch notes failed", "error", err)
		c.state.ListMessage = failure("Error fetching notes: " + err.Error())
	}
	return c.state.ListMessage
}

// CreateNote posts a new note, then refreshes the list. There is no
// optimistic insert.
func (c *Client) CreateNote(ctx context.Context, title, content string) Message {
	c.mu.Lock()
	c.state.NoteMessage = Message{}
	c.state.Forms.NoteTitle = title
	c.state.Forms.NoteContent = content
	c.mu.Unlock()

	if title == "" || content == "" {
		return c.setNoteMessage(failure(msgMissingNoteFields))
	}

	cred, epoch, ok := c.credentials()
	if !ok {
		return c.unauthorized(epoch)
	}

	created, err := c.api.CreateNote(ctx, cred, api.NoteInput{Title: title, Content: content})
	var decodeErr *api.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		// the note exists; only its echo was unreadable
		c.log.Warn("create note response unreadable", "error", err)
	case err != nil:
		return c.mutationFailed(epoch, err, opCreate)
	default:
		c.log.Debug("created note", "id", created.ID)
	}

	c.mu.Lock()
	c.state.NoteMessage = success("Note created successfully!")
	c.state.Forms.NoteTitle = ""
	c.state.Forms.NoteContent = ""
	msg := c.state.NoteMessage
	c.mu.Unlock()

	c.ListNotes(ctx)
	return msg
}

// UpdateNote saves an edit. The refresh that follows a successful save
// also takes the note out of edit mode.
func (c *Client) UpdateNote(ctx context.Context, id int64, title, content string) Message {
	c.mu.Lock()
	c.state.NoteMessage = Message{}
	if i := c.state.Find(id); i >= 0 && c.state.Notes[i].Mode == ModeEdit {
		c.state.Notes[i].DraftTitle = title
		c.state.Notes[i].DraftContent = content
	}
	c.mu.Unlock()

	if title == "" || content == "" {
		return c.setNoteMessage(failure(msgEmptyEdit))
	}

	cred, epoch, ok := c.credentials()
	if !ok {
		return c.unauthorized(epoch)
	}

	err := c.api.UpdateNote(ctx, cred, id, api.NoteInput{Title: title, Content: content})
	if err != nil {
		return c.mutationFailed(epoch, err, opUpdate)
	}

	c.log.Debug("updated note", "id", id)
	msg := c.setNoteMessage(success("Note updated successfully!"))
	c.ListNotes(ctx)
	return msg
}

// DeleteNote removes a note once the user has confirmed. On success only
// that note leaves the view; the list is not re-fetched.
func (c *Client) DeleteNote(ctx context.Context, id int64, confirmed bool) Message {
	if !confirmed {
		return Message{}
	}

	c.mu.Lock()
	c.state.NoteMessage = Message{}
	c.mu.Unlock()

	cred, epoch, ok := c.credentials()
	if !ok {
		return c.unauthorized(epoch)
	}

	err := c.api.DeleteNote(ctx, cred, id)
	if errors.Is(err, api.ErrNotFound) {
		return c.setNoteMessage(failure(msgNoteNotFound))
	}
	if err != nil {
		return c.mutationFailed(epoch, err, opDelete)
	}

	c.log.Debug("deleted note", "id", id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch {
		if i := c.state.Find(id); i >= 0 {
			c.state.Notes = append(c.state.Notes[:i:i], c.state.Notes[i+1:]...)
		}
	}
	c.state.NoteMessage = success("Note deleted successfully!")
	return c.state.NoteMessage
}

// ToggleEditMode switches a note between display and edit. Leaving edit
// mode is a cancel: the list is re-fetched and the draft is discarded.
func (c *Client) ToggleEditMode(ctx context.Context, id int64, entering bool) Message {
	if !entering {
		return c.ListNotes(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.state.Find(id)
	if i < 0 {
		c.log.Warn("edit requested for note not in view", "id", id)
		return Message{}
	}
	item := &c.state.Notes[i]
	item.Mode = ModeEdit
	item.DraftTitle = item.Note.Title
	item.DraftContent = item.Note.Content
	return Message{}
}

func (c *Client) setNoteMessage(m Message) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.NoteMessage = m
	return m
}

func (c *Client) unauthorized(epoch uint64) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch == c.epoch {
		c.forceLogoutLocked(failure(msgUnauthorized))
	}
	return failure(msgUnauthorized)
}

type mutation struct {
	verb   string
	gerund string
}

var (
	opCreate = mutation{verb: "create", gerund: "creating"}
	opUpdate = mutation{verb: "update", gerund: "updating"}
	opDelete = mutation{verb: "delete", gerund: "deleting"}
)

func (c *Client) mutationFailed(epoch uint64, err error, op mutation) Message {
	if errors.Is(err, api.ErrUnauthorized) {
		return c.unauthorized(epoch)
	}
	if isNetwork(err) {
		return c.setNoteMessage(failure("Network error " + op.gerund + " note: " + err.Error()))
	}
	c.log.Warn("note mutation failed", "op", op.verb, "error", err)
	return c.setNoteMessage(failure("Failed to " + op.verb + " note: " + err.Error()))
}

func isNetwork(err error) bool {
	var ne *api.NetworkError
	return errors.As(err, &ne)
}
