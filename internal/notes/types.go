package notes

import (
	"notesclient/internal/api"
)

// Mode is the per-note view mode
type Mode int

const (
	ModeDisplay Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "display"
}

// Message is the inline status text shown next to a form
type Message struct {
	Text    string `json:"text,omitempty"`
	IsError bool   `json:"isError,omitempty"`
}

func (m Message) Empty() bool {
	return m.Text == ""
}

func failure(text string) Message {
	return Message{Text: text, IsError: true}
}

func success(text string) Message {
	return Message{Text: text}
}

// Item is one rendered note plus its view mode. Drafts only mean
// something in edit mode.
type Item struct {
	Note         api.Note `json:"note"`
	Mode         Mode     `json:"mode"`
	DraftTitle   string   `json:"draftTitle,omitempty"`
	DraftContent string   `json:"draftContent,omitempty"`
}

// Forms holds the values typed into the page forms. Passwords are
// never kept.
type Forms struct {
	RegisterUsername string `json:"registerUsername,omitempty"`
	LoginUsername    string `json:"loginUsername,omitempty"`
	NoteTitle        string `json:"noteTitle,omitempty"`
	NoteContent      string `json:"noteContent,omitempty"`
}

// State is everything the page renders
type State struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`

	// Notes is the result of the last successful fetch, minus any
	// notes deleted since.
	Notes []Item `json:"notes"`

	RegisterMessage Message `json:"registerMessage"`
	LoginMessage    Message `json:"loginMessage"`
	ListMessage     Message `json:"listMessage"`
	NoteMessage     Message `json:"noteMessage"`

	Forms Forms `json:"forms"`
}

// Find returns the index of the note with the given id, or -1
func (s State) Find(id int64) int {
	for i := range s.Notes {
		if s.Notes[i].Note.ID == id {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	out := s
	out.Notes = make([]Item, len(s.Notes))
	copy(out.Notes, s.Notes)
	return out
}
