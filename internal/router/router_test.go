package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/deppfellow/todo-api/internal/errs"
	"github.com/deppfellow/todo-api/internal/handler"
	"github.com/deppfellow/todo-api/internal/model/todo"
	"github.com/deppfellow/todo-api/internal/repository"
	"github.com/deppfellow/todo-api/internal/service"
	"github.com/deppfellow/todo-api/internal/testutil"
	"github.com/labstack/echo/v4"
)

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()

	s := testutil.NewTestServer(t)
	services, err := service.NewServices(s, repository.NewRepositories(s))
	if err != nil {
		t.Fatalf("building services: %v", err)
	}
	return NewRouter(s, handler.NewHandlers(s, services))
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := sonic.ConfigStd.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func createTodo(t *testing.T, e *echo.Echo, title string) todo.Todo {
	t.Helper()

	rec := do(t, e, http.MethodPost, "/todo", `{"title":"`+title+`","description":null}`)
	expectStatus(t, rec, http.StatusCreated)
	return decode[todo.Todo](t, rec)
}

func TestCreateTodo(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodPost, "/todo", `{"title":"test","description":null}`)
	expectStatus(t, rec, http.StatusCreated)

	body := strings.TrimSpace(rec.Body.String())
	want := `{"id":1,"title":"test","description":null,"done":false}`
	if body != want {
		t.Fatalf("got %s, want %s", body, want)
	}

	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id header")
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodPost, "/todo", `{"title":"buy milk","description":"2 litres"}`)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[todo.Todo](t, rec)

	rec = do(t, e, http.MethodGet, "/todo/1", "")
	expectStatus(t, rec, http.StatusOK)
	got := decode[todo.Todo](t, rec)

	if got.ID != created.ID || got.Title != "buy milk" || got.Done {
		t.Fatalf("unexpected todo %+v", got)
	}
	if got.Description == nil || *got.Description != "2 litres" {
		t.Fatalf("unexpected description %v", got.Description)
	}
}

func TestListInCreationOrder(t *testing.T) {
	e := newTestRouter(t)

	for _, title := range []string{"a", "b", "c"} {
		createTodo(t, e, title)
	}

	rec := do(t, e, http.MethodGet, "/todo", "")
	expectStatus(t, rec, http.StatusOK)
	items := decode[[]todo.Todo](t, rec)

	if len(items) != 3 {
		t.Fatalf("expected 3 todos, got %d", len(items))
	}
	for i, title := range []string{"a", "b", "c"} {
		if items[i].Title != title || items[i].ID != int64(i+1) {
			t.Fatalf("item %d = %+v", i, items[i])
		}
	}
}

func TestListEmptyIsArray(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, "/todo", "")
	expectStatus(t, rec, http.StatusOK)

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("expected [], got %s", body)
	}
}

func TestListPagination(t *testing.T) {
	e := newTestRouter(t)

	for _, title := range []string{"a", "b", "c", "d"} {
		createTodo(t, e, title)
	}

	tests := map[string]struct {
		query string
		want  []string
	}{
		"limit":         {query: "?limit=2", want: []string{"a", "b"}},
		"offset":        {query: "?offset=3", want: []string{"d"}},
		"limit offset":  {query: "?limit=2&offset=1", want: []string{"b", "c"}},
		"zero limit":    {query: "?limit=0", want: []string{}},
		"offset beyond": {query: "?offset=10", want: []string{}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, e, http.MethodGet, "/todo"+tc.query, "")
			expectStatus(t, rec, http.StatusOK)
			items := decode[[]todo.Todo](t, rec)

			if len(items) != len(tc.want) {
				t.Fatalf("got %d items, want %d", len(items), len(tc.want))
			}
			for i, title := range tc.want {
				if items[i].Title != title {
					t.Fatalf("item %d = %s, want %s", i, items[i].Title, title)
				}
			}
		})
	}
}

func TestUpdateAndFilterByDone(t *testing.T) {
	e := newTestRouter(t)

	createTodo(t, e, "first")
	createTodo(t, e, "second")

	rec := do(t, e, http.MethodPut, "/todo", `{"id":2,"title":"second","description":"done now","done":true}`)
	expectStatus(t, rec, http.StatusOK)
	updated := decode[todo.Todo](t, rec)
	if !updated.Done || updated.Description == nil || *updated.Description != "done now" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	rec = do(t, e, http.MethodGet, "/todo?done=true", "")
	expectStatus(t, rec, http.StatusOK)
	done := decode[[]todo.Todo](t, rec)
	if len(done) != 1 || done[0].ID != 2 {
		t.Fatalf("expected only todo 2 to be done, got %+v", done)
	}

	rec = do(t, e, http.MethodGet, "/todo?done=false", "")
	expectStatus(t, rec, http.StatusOK)
	open := decode[[]todo.Todo](t, rec)
	if len(open) != 1 || open[0].ID != 1 {
		t.Fatalf("expected only todo 1 to be open, got %+v", open)
	}
}

func TestDeleteTodo(t *testing.T) {
	e := newTestRouter(t)

	createTodo(t, e, "gone soon")

	rec := do(t, e, http.MethodDelete, "/todo/1", "")
	expectStatus(t, rec, http.StatusNoContent)
	if rec.Body.Len() != 0 {
		t.Fatalf("expected an empty body, got %s", rec.Body.String())
	}

	expectStatus(t, do(t, e, http.MethodGet, "/todo/1", ""), http.StatusNotFound)

	// Deleting again, or deleting an id that never existed, still succeeds.
	expectStatus(t, do(t, e, http.MethodDelete, "/todo/1", ""), http.StatusNoContent)
	expectStatus(t, do(t, e, http.MethodDelete, "/todo/999", ""), http.StatusNoContent)
}

func TestNotFound(t *testing.T) {
	e := newTestRouter(t)

	tests := map[string]struct {
		method string
		target string
		body   string
		code   string
	}{
		"get unknown id": {
			method: http.MethodGet,
			target: "/todo/42",
			code:   "TODO_NOT_FOUND",
		},
		"update unknown id": {
			method: http.MethodPut,
			target: "/todo",
			body:   `{"id":42,"title":"x","description":null,"done":false}`,
			code:   "TODO_NOT_FOUND",
		},
		"unknown route": {
			method: http.MethodGet,
			target: "/nope",
			code:   "NOT_FOUND",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, e, tc.method, tc.target, tc.body)
			expectStatus(t, rec, http.StatusNotFound)

			body := decode[errs.HTTPError](t, rec)
			if body.Code != tc.code || body.Status != http.StatusNotFound {
				t.Fatalf("unexpected error body %+v", body)
			}
		})
	}
}

func TestBadRequests(t *testing.T) {
	e := newTestRouter(t)

	tests := map[string]struct {
		method    string
		target    string
		body      string
		wantField string
	}{
		"create without description key": {
			method:    http.MethodPost,
			target:    "/todo",
			body:      `{"title":"test"}`,
			wantField: "description",
		},
		"create without title": {
			method:    http.MethodPost,
			target:    "/todo",
			body:      `{"description":null}`,
			wantField: "title",
		},
		"create with malformed json": {
			method: http.MethodPost,
			target: "/todo",
			body:   `{"title":`,
		},
		"update without done": {
			method:    http.MethodPut,
			target:    "/todo",
			body:      `{"id":1,"title":"x","description":null}`,
			wantField: "done",
		},
		"non numeric id": {
			method: http.MethodGet,
			target: "/todo/abc",
		},
		"non numeric delete id": {
			method: http.MethodDelete,
			target: "/todo/abc",
		},
		"negative limit": {
			method:    http.MethodGet,
			target:    "/todo?limit=-1",
			wantField: "limit",
		},
		"negative offset": {
			method:    http.MethodGet,
			target:    "/todo?offset=-5",
			wantField: "offset",
		},
		"non boolean done": {
			method: http.MethodGet,
			target: "/todo?done=maybe",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, e, tc.method, tc.target, tc.body)
			expectStatus(t, rec, http.StatusBadRequest)

			body := decode[errs.HTTPError](t, rec)
			if body.Code != "BAD_REQUEST" {
				t.Fatalf("unexpected code %s", body.Code)
			}
			if tc.wantField == "" {
				return
			}

			for _, fe := range body.Errors {
				if fe.Field == tc.wantField {
					return
				}
			}
			t.Fatalf("expected a %s field error, got %+v", tc.wantField, body.Errors)
		})
	}
}

func TestStatus(t *testing.T) {
	e := newTestRouter(t)

	rec := do(t, e, http.MethodGet, "/status", "")
	expectStatus(t, rec, http.StatusOK)

	body := decode[map[string]any](t, rec)
	if body["status"] != "healthy" {
		t.Fatalf("unexpected health body %v", body)
	}
}
