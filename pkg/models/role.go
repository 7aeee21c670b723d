package models

// Role is a named function in the translation pipeline (translator,
// cleaner, typesetter, ...). Roles are seed data; the service only
// reads them.
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
