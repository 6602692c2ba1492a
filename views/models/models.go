package models

import "time"

// NoteView represents a note for template rendering
type NoteView struct {
	ID        int64
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time // zero when the note was never edited

	// Rendered is the markdown rendering of Content; empty when markdown
	// rendering is off.
	Rendered string

	Editing      bool
	DraftTitle   string
	DraftContent string
}

// MessageView is an inline status line under a form
type MessageView struct {
	Text    string
	IsError bool
}

// PageView is the whole application state for template rendering
type PageView struct {
	Authenticated bool
	Username      string
	Notes         []NoteView

	RegisterMessage MessageView
	LoginMessage    MessageView
	ListMessage     MessageView
	NoteMessage     MessageView

	RegisterUsername string
	LoginUsername    string
	NoteTitle        string
	NoteContent      string
}
