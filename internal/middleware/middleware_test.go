package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/deppfellow/todo-api/internal/errs"
	"github.com/deppfellow/todo-api/internal/testutil"
	"github.com/labstack/echo/v4"
)

func TestGlobalErrorHandler(t *testing.T) {
	code := "TODO_NOT_FOUND"

	tests := map[string]struct {
		err          error
		method       string
		wantStatus   int
		wantCode     string
		wantMessage  string
		wantOverride bool
	}{
		"http error": {
			err:          errs.NewBadRequestError("Validation failed", true, nil, []errs.FieldError{{Field: "title", Error: "is required"}}),
			wantStatus:   http.StatusBadRequest,
			wantCode:     "BAD_REQUEST",
			wantMessage:  "Validation failed",
			wantOverride: true,
		},
		"not found with code": {
			err:         errs.NewNotFoundError("Todo not found", false, &code),
			wantStatus:  http.StatusNotFound,
			wantCode:    "TODO_NOT_FOUND",
			wantMessage: "Todo not found",
		},
		"echo route not found": {
			err:         echo.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantCode:    "NOT_FOUND",
			wantMessage: "Route not found",
		},
		"echo method not allowed": {
			err:         echo.ErrMethodNotAllowed,
			wantStatus:  http.StatusMethodNotAllowed,
			wantCode:    "METHOD_NOT_ALLOWED",
			wantMessage: "Method Not Allowed",
		},
		"plain error": {
			err:         errors.New("something broke"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_SERVER_ERROR",
			wantMessage: "Internal Server Error",
		},
	}

	global := NewGlobalMiddlewares(testutil.NewTestServer(t))

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/todo", nil), rec)

			global.GlobalErrorHandler(tc.err, c)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			var body errs.HTTPError
			if err := sonic.ConfigStd.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
			}
			if body.Code != tc.wantCode || body.Message != tc.wantMessage || body.Status != tc.wantStatus {
				t.Fatalf("unexpected body %+v", body)
			}
			if body.Override != tc.wantOverride {
				t.Fatalf("override = %v, want %v", body.Override, tc.wantOverride)
			}
		})
	}
}

func TestGlobalErrorHandlerHead(t *testing.T) {
	global := NewGlobalMiddlewares(testutil.NewTestServer(t))

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodHead, "/todo/1", nil), rec)

	global.GlobalErrorHandler(errs.NewNotFoundError("Todo not found", false, nil), c)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("HEAD responses carry no body, got %s", rec.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	tests := map[string]struct {
		incoming string
		reuse    bool
	}{
		"generated": {},
		"reused":    {incoming: "req-123", reuse: true},
		"too long":  {incoming: strings.Repeat("x", maxRequestIDLength+1)},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(RequestIDHeader, tc.incoming)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var seen string
			h := RequestID()(func(c echo.Context) error {
				seen = GetRequestID(c)
				return nil
			})
			if err := h(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if seen == "" {
				t.Fatalf("expected a request id in the context")
			}
			if rec.Header().Get(RequestIDHeader) != seen {
				t.Fatalf("response header %q does not match %q", rec.Header().Get(RequestIDHeader), seen)
			}
			if tc.reuse && seen != tc.incoming {
				t.Fatalf("expected %q to be reused, got %q", tc.incoming, seen)
			}
			if !tc.reuse && seen == tc.incoming {
				t.Fatalf("expected a fresh id")
			}
		})
	}
}

func TestGetLoggerWithoutEnhancer(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if GetLogger(c) == nil {
		t.Fatalf("expected a no-op logger")
	}
}

func TestStatusOf(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"http error":  {err: errs.NewNotFoundError("x", false, nil), want: http.StatusNotFound},
		"echo error":  {err: echo.ErrMethodNotAllowed, want: http.StatusMethodNotAllowed},
		"plain error": {err: errors.New("x"), want: http.StatusTeapot},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := statusOf(tc.err, http.StatusTeapot); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}
