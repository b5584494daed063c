package service

import (
	"context"

	"github.com/deppfellow/todo-api/internal/errs"
	"github.com/deppfellow/todo-api/internal/model/todo"
	"github.com/deppfellow/todo-api/internal/server"
)

// TodoStore is the persistence the TodoService needs.
// *repository.TodoRepository implements it.
type TodoStore interface {
	GetAll(ctx context.Context, limit, offset *int64) ([]todo.Todo, error)
	GetAllWhere(ctx context.Context, done bool, limit, offset *int64) ([]todo.Todo, error)
	GetByID(ctx context.Context, id int64) (*todo.Todo, error)
	Create(ctx context.Context, title string, description *string) (*todo.Todo, error)
	Update(ctx context.Context, id int64, title string, description *string, done bool) (*todo.Todo, error)
	DeleteByID(ctx context.Context, id int64) error
}

type TodoService struct {
	server *server.Server
	store  TodoStore
}

func NewTodoService(s *server.Server, store TodoStore) *TodoService {
	return &TodoService{
		server: s,
		store:  store,
	}
}

func todoNotFound() *errs.HTTPError {
	code := "TODO_NOT_FOUND"
	return errs.NewNotFoundError("Todo not found", false, &code)
}

// ListTodos filters on done only when the query carries it.
func (s *TodoService) ListTodos(ctx context.Context, query *todo.ListTodosQuery) ([]todo.Todo, error) {
	if query.Done != nil {
		return s.store.GetAllWhere(ctx, *query.Done, query.Limit, query.Offset)
	}
	return s.store.GetAll(ctx, query.Limit, query.Offset)
}

func (s *TodoService) CreateTodo(ctx context.Context, payload *todo.CreateTodoPayload) (*todo.Todo, error) {
	return s.store.Create(ctx, *payload.Title, payload.Description)
}

// UpdateTodo fails with a 404 when the id does not exist.
func (s *TodoService) UpdateTodo(ctx context.Context, payload *todo.UpdateTodoPayload) (*todo.Todo, error) {
	item, err := s.store.Update(ctx, *payload.ID, *payload.Title, payload.Description, *payload.Done)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, todoNotFound()
	}
	return item, nil
}

func (s *TodoService) GetTodoByID(ctx context.Context, id int64) (*todo.Todo, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, todoNotFound()
	}
	return item, nil
}

// DeleteTodo is idempotent.
func (s *TodoService) DeleteTodo(ctx context.Context, id int64) error {
	return s.store.DeleteByID(ctx, id)
}
