package todo

import (
	"github.com/bytedance/sonic"
	"github.com/deppfellow/todo-api/internal/validation"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// fieldsPresent reports which top-level keys a JSON object carries.
//
// encoding/json cannot tell `"description": null` apart from a missing
// key once decoded into a *string, so payloads record it themselves.
func fieldsPresent(data []byte) (map[string]bool, error) {
	var raw map[string]sonic.NoCopyRawMessage
	if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(raw))
	for key := range raw {
		present[key] = true
	}
	return present, nil
}

// requirePresent returns a CustomValidationErrors for every key that was
// not part of the decoded body.
func requirePresent(present map[string]bool, keys ...string) error {
	var missing validation.CustomValidationErrors
	for _, key := range keys {
		if !present[key] {
			missing = append(missing, validation.CustomValidationError{
				Field:   key,
				Message: "is required",
			})
		}
	}

	if len(missing) > 0 {
		return missing
	}
	return nil
}

// ------------------------------------------------------------

// CreateTodoPayload is the body of POST /todo.
//
// Both keys must be sent; description may be null.
type CreateTodoPayload struct {
	Title       *string `json:"title" validate:"required"`
	Description *string `json:"description"`

	present map[string]bool
}

func (p *CreateTodoPayload) UnmarshalJSON(data []byte) error {
	type alias CreateTodoPayload

	present, err := fieldsPresent(data)
	if err != nil {
		return err
	}

	if err := sonic.ConfigStd.Unmarshal(data, (*alias)(p)); err != nil {
		return err
	}

	p.present = present
	return nil
}

func (p *CreateTodoPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	return requirePresent(p.present, "description")
}

// ------------------------------------------------------------

// UpdateTodoPayload is the body of PUT /todo: the full Todo, id included.
type UpdateTodoPayload struct {
	ID          *int64  `json:"id" validate:"required"`
	Title       *string `json:"title" validate:"required"`
	Description *string `json:"description"`
	Done        *bool   `json:"done" validate:"required"`

	present map[string]bool
}

func (p *UpdateTodoPayload) UnmarshalJSON(data []byte) error {
	type alias UpdateTodoPayload

	present, err := fieldsPresent(data)
	if err != nil {
		return err
	}

	if err := sonic.ConfigStd.Unmarshal(data, (*alias)(p)); err != nil {
		return err
	}

	p.present = present
	return nil
}

func (p *UpdateTodoPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	return requirePresent(p.present, "description")
}

// ------------------------------------------------------------

// ListTodosQuery holds the query parameters of GET /todo.
// A nil Done lists every todo.
type ListTodosQuery struct {
	Limit  *int64 `query:"limit" validate:"omitempty,min=0"`
	Offset *int64 `query:"offset" validate:"omitempty,min=0"`
	Done   *bool  `query:"done"`
}

func (q *ListTodosQuery) Validate() error {
	return validate.Struct(q)
}

// ------------------------------------------------------------

type GetTodoByIDPayload struct {
	ID int64 `param:"id"`
}

func (p *GetTodoByIDPayload) Validate() error {
	return validate.Struct(p)
}

// ------------------------------------------------------------

type DeleteTodoPayload struct {
	ID int64 `param:"id"`
}

func (p *DeleteTodoPayload) Validate() error {
	return validate.Struct(p)
}
