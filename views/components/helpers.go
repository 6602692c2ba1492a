package components

import (
	"strconv"
	"time"
)

const timeLayout = "Jan 2, 2006, 3:04:05 PM"

func formatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}

func noteElementID(id int64) string {
	return "note-" + strconv.FormatInt(id, 10)
}

// notePath is the form target for a per-note action
func notePath(id int64, action string) string {
	return "/notes/" + strconv.FormatInt(id, 10) + "/" + action
}
