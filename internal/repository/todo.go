package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/todo-api/internal/model/todo"
	"github.com/deppfellow/todo-api/internal/server"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

const (
	DefaultLimit  int64 = 100
	DefaultOffset int64 = 0
)

const (
	listTodosQuery      = `SELECT * FROM todo LIMIT :limit OFFSET :offset`
	listTodosWhereQuery = `SELECT * FROM todo WHERE done = :done LIMIT :limit OFFSET :offset`
	getTodoQuery        = `SELECT * FROM todo WHERE id = :id`
	createTodoQuery     = `INSERT INTO todo(title, description) VALUES (:title, :description) RETURNING *`
	updateTodoQuery     = `UPDATE todo SET title = :title, description = :description, done = :done WHERE id = :id RETURNING *`
	deleteTodoQuery     = `DELETE FROM todo WHERE id = :id`
)

// todoRow is the storage shape of a todo: done is an integer column.
type todoRow struct {
	ID          int64   `db:"id"`
	Title       string  `db:"title"`
	Description *string `db:"description"`
	Done        int64   `db:"done"`
}

func encodeDone(done bool) int64 {
	if done {
		return 1
	}
	return 0
}

func decodeDone(done int64) bool {
	return done != 0
}

func (r todoRow) toTodo() todo.Todo {
	return todo.Todo{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Done:        decodeDone(r.Done),
	}
}

// TodoRepository runs one statement per operation against the todo table.
//
// Statements are written with named parameters and rebound to the
// placeholder style of the active driver.
type TodoRepository struct {
	db                 *sqlx.DB
	slowQueryThreshold time.Duration
}

func NewTodoRepository(s *server.Server) *TodoRepository {
	return &TodoRepository{
		db:                 s.DB.DB,
		slowQueryThreshold: s.Config.Observability.Logging.SlowQueryThreshold,
	}
}

// GetAll lists todos in storage order. Nil limit and offset fall back to
// DefaultLimit and DefaultOffset.
func (r *TodoRepository) GetAll(ctx context.Context, limit, offset *int64) ([]todo.Todo, error) {
	args := map[string]any{
		"limit":  valueOr(limit, DefaultLimit),
		"offset": valueOr(offset, DefaultOffset),
	}

	return r.selectTodos(ctx, "list_todos", listTodosQuery, args)
}

// GetAllWhere lists the todos whose done flag equals done.
func (r *TodoRepository) GetAllWhere(ctx context.Context, done bool, limit, offset *int64) ([]todo.Todo, error) {
	args := map[string]any{
		"done":   encodeDone(done),
		"limit":  valueOr(limit, DefaultLimit),
		"offset": valueOr(offset, DefaultOffset),
	}

	return r.selectTodos(ctx, "list_todos_where", listTodosWhereQuery, args)
}

// GetByID returns nil, nil when no todo has the id.
func (r *TodoRepository) GetByID(ctx context.Context, id int64) (*todo.Todo, error) {
	return r.getTodo(ctx, "get_todo", getTodoQuery, map[string]any{"id": id})
}

// Create inserts a todo and returns the stored row, with its assigned id
// and done=false.
func (r *TodoRepository) Create(ctx context.Context, title string, description *string) (*todo.Todo, error) {
	args := map[string]any{
		"title":       title,
		"description": description,
	}

	item, err := r.getTodo(ctx, "create_todo", createTodoQuery, args)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, errors.New("failed to create todo: insert returned no row")
	}
	return item, nil
}

// Update overwrites every mutable column of the todo with the id. It
// returns nil, nil when no todo has the id.
func (r *TodoRepository) Update(ctx context.Context, id int64, title string, description *string, done bool) (*todo.Todo, error) {
	args := map[string]any{
		"id":          id,
		"title":       title,
		"description": description,
		"done":        encodeDone(done),
	}

	return r.getTodo(ctx, "update_todo", updateTodoQuery, args)
}

// DeleteByID removes the todo with the id. Deleting a missing id is not
// an error.
func (r *TodoRepository) DeleteByID(ctx context.Context, id int64) error {
	query, args, err := r.bind(deleteTodoQuery, map[string]any{"id": id})
	if err != nil {
		return err
	}

	defer r.observe(ctx, "delete_todo", time.Now())

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete todo %d: %w", id, err)
	}
	return nil
}

func (r *TodoRepository) selectTodos(ctx context.Context, op, namedQuery string, namedArgs map[string]any) ([]todo.Todo, error) {
	query, args, err := r.bind(namedQuery, namedArgs)
	if err != nil {
		return nil, err
	}

	defer r.observe(ctx, op, time.Now())

	var rows []todoRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", op, err)
	}

	todos := make([]todo.Todo, 0, len(rows))
	for _, row := range rows {
		todos = append(todos, row.toTodo())
	}
	return todos, nil
}

// getTodo runs a statement returning at most one row. sql.ErrNoRows is
// the absence value and is reported as nil, nil.
func (r *TodoRepository) getTodo(ctx context.Context, op, namedQuery string, namedArgs map[string]any) (*todo.Todo, error) {
	query, args, err := r.bind(namedQuery, namedArgs)
	if err != nil {
		return nil, err
	}

	defer r.observe(ctx, op, time.Now())

	var row todoRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to execute %s: %w", op, err)
	}

	item := row.toTodo()
	return &item, nil
}

// bind expands :name parameters and rebinds them for the driver.
func (r *TodoRepository) bind(namedQuery string, namedArgs map[string]any) (string, []any, error) {
	query, args, err := sqlx.Named(namedQuery, namedArgs)
	if err != nil {
		return "", nil, fmt.Errorf("failed to bind query parameters: %w", err)
	}
	return r.db.Rebind(query), args, nil
}

// observe logs statements slower than the configured threshold with the
// request-scoped logger carried by ctx.
func (r *TodoRepository) observe(ctx context.Context, op string, start time.Time) {
	if r.slowQueryThreshold <= 0 {
		return
	}

	if elapsed := time.Since(start); elapsed > r.slowQueryThreshold {
		zerolog.Ctx(ctx).Warn().
			Str("operation", op).
			Dur("duration", elapsed).
			Dur("threshold", r.slowQueryThreshold).
			Msg("slow query")
	}
}

func valueOr(v *int64, fallback int64) int64 {
	if v == nil {
		return fallback
	}
	return *v
}
