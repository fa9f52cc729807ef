package notes

import "time"

// DefaultTitle replaces a blank title at the editor boundary before a save is
// attempted. The service itself persists titles verbatim.
const DefaultTitle = "Untitled Note"

// Note is a single user-owned note. UpdatedAt is nil until the first edit
// after creation.
type Note struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	UserID    string     `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// FormatDate renders a timestamp the way note lists display it.
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006, 03:04 PM")
}
