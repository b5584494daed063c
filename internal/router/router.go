// Package router builds the Echo instance: error handler, JSON
// serializer, middleware chain and routes.
package router

import (
	"net/http"

	"github.com/deppfellow/todo-api/internal/handler"
	"github.com/deppfellow/todo-api/internal/lib/serializer"
	"github.com/deppfellow/todo-api/internal/middleware"
	"github.com/deppfellow/todo-api/internal/model/todo"
	"github.com/deppfellow/todo-api/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter returns the application's http.Handler.
//
// Middleware order matters: the request id must exist before the logger
// and the tracer read it, and the New Relic transaction must exist
// before the context enhancer copies its trace ids into the logger.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler
	router.JSONSerializer = serializer.New()

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h)
	registerTodoRoutes(router, h)

	return router
}

func registerTodoRoutes(r *echo.Echo, h *handler.Handlers) {
	todos := h.Todo

	r.GET("/todo", handler.Handle(todos.Handler, todos.ListTodos, http.StatusOK, &todo.ListTodosQuery{}))
	r.POST("/todo", handler.Handle(todos.Handler, todos.CreateTodo, http.StatusCreated, &todo.CreateTodoPayload{}))
	r.PUT("/todo", handler.Handle(todos.Handler, todos.UpdateTodo, http.StatusOK, &todo.UpdateTodoPayload{}))
	r.GET("/todo/:id", handler.Handle(todos.Handler, todos.GetTodoByID, http.StatusOK, &todo.GetTodoByIDPayload{}))
	r.DELETE("/todo/:id", handler.HandleNoContent(todos.Handler, todos.DeleteTodoByID, http.StatusNoContent, &todo.DeleteTodoPayload{}))
}
