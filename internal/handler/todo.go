package handler

import (
	"github.com/deppfellow/todo-api/internal/model/todo"
	"github.com/deppfellow/todo-api/internal/server"
	"github.com/deppfellow/todo-api/internal/service"
	"github.com/labstack/echo/v4"
)

// TodoHandler exposes the todo operations. Status codes are chosen at
// route registration.
type TodoHandler struct {
	Handler
	todoService *service.TodoService
}

func NewTodoHandler(s *server.Server, todoService *service.TodoService) *TodoHandler {
	return &TodoHandler{
		Handler:     NewHandler(s),
		todoService: todoService,
	}
}

func (h *TodoHandler) ListTodos(c echo.Context, query *todo.ListTodosQuery) ([]todo.Todo, error) {
	return h.todoService.ListTodos(c.Request().Context(), query)
}

func (h *TodoHandler) CreateTodo(c echo.Context, payload *todo.CreateTodoPayload) (*todo.Todo, error) {
	return h.todoService.CreateTodo(c.Request().Context(), payload)
}

func (h *TodoHandler) UpdateTodo(c echo.Context, payload *todo.UpdateTodoPayload) (*todo.Todo, error) {
	return h.todoService.UpdateTodo(c.Request().Context(), payload)
}

func (h *TodoHandler) GetTodoByID(c echo.Context, payload *todo.GetTodoByIDPayload) (*todo.Todo, error) {
	return h.todoService.GetTodoByID(c.Request().Context(), payload.ID)
}

func (h *TodoHandler) DeleteTodoByID(c echo.Context, payload *todo.DeleteTodoPayload) error {
	return h.todoService.DeleteTodo(c.Request().Context(), payload.ID)
}
