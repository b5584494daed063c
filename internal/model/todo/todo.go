// Package todo defines the Todo resource and the request payloads of its
// endpoints.
package todo

// Todo is a persisted task.
//
// Description is nullable: a nil pointer is written as JSON null.
type Todo struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Done        bool    `json:"done"`
}
