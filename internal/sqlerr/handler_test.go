package sqlerr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/todo-api/internal/errs"
	"github.com/deppfellow/todo-api/internal/testutil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *errs.HTTPError, got %T: %v", err, err)
	}
	return httpErr
}

func TestHandleErrorSQLiteNotNull(t *testing.T) {
	srv := testutil.NewTestServer(t)

	_, err := srv.DB.DB.ExecContext(context.Background(), "INSERT INTO todo(title) VALUES (NULL)")
	if err == nil {
		t.Fatalf("expected a not-null violation")
	}

	if code := ErrCode(err); code != NotNullViolation {
		t.Fatalf("expected %s, got %s", NotNullViolation, code)
	}

	sqlErr := Convert(fmt.Errorf("failed to execute create_todo: %w", err))
	if sqlErr == nil {
		t.Fatalf("expected wrapped sqlite error to convert")
	}
	if sqlErr.TableName != "todo" || sqlErr.ColumnName != "title" {
		t.Fatalf("expected todo.title, got %s.%s", sqlErr.TableName, sqlErr.ColumnName)
	}

	httpErr := asHTTPError(t, HandleError(err))
	if httpErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", httpErr.Status)
	}
	if httpErr.Code != "TODO_REQUIRED" {
		t.Fatalf("expected TODO_REQUIRED, got %s", httpErr.Code)
	}
	if httpErr.Message != "The Title is required" {
		t.Fatalf("unexpected message %q", httpErr.Message)
	}
	if len(httpErr.Errors) != 1 || httpErr.Errors[0].Field != "title" {
		t.Fatalf("expected a title field error, got %+v", httpErr.Errors)
	}
}

func TestHandleErrorPostgres(t *testing.T) {
	tests := map[string]struct {
		err         *pgconn.PgError
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		"unique violation": {
			err:         &pgconn.PgError{Code: "23505", Severity: "ERROR", TableName: "todo", ConstraintName: "todo_title_key"},
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "TODO_ALREADY_EXISTS",
			wantMessage: "A Todo with this Title already exists",
		},
		"not null violation": {
			err:         &pgconn.PgError{Code: "23502", Severity: "ERROR", TableName: "todo", ColumnName: "title"},
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "TODO_REQUIRED",
			wantMessage: "The Title is required",
		},
		"check violation": {
			err:         &pgconn.PgError{Code: "23514", Severity: "ERROR", TableName: "todos", ColumnName: "done"},
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "TODO_INVALID",
			wantMessage: "The Done value does not meet required conditions",
		},
		"connection failure": {
			err:         &pgconn.PgError{Code: "08006", Severity: "FATAL"},
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_SERVER_ERROR",
			wantMessage: "Internal Server Error",
		},
		"unclassified": {
			err:         &pgconn.PgError{Code: "42601", Severity: "ERROR", Message: "syntax error"},
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_SERVER_ERROR",
			wantMessage: "Internal Server Error",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			httpErr := asHTTPError(t, HandleError(fmt.Errorf("query: %w", tc.err)))
			if httpErr.Status != tc.wantStatus {
				t.Fatalf("status = %d, want %d", httpErr.Status, tc.wantStatus)
			}
			if httpErr.Code != tc.wantCode {
				t.Fatalf("code = %s, want %s", httpErr.Code, tc.wantCode)
			}
			if httpErr.Message != tc.wantMessage {
				t.Fatalf("message = %q, want %q", httpErr.Message, tc.wantMessage)
			}
		})
	}
}

func TestHandleErrorNoRowsIsNotFound(t *testing.T) {
	for _, err := range []error{sql.ErrNoRows, pgx.ErrNoRows, fmt.Errorf("get: %w", sql.ErrNoRows)} {
		httpErr := asHTTPError(t, HandleError(err))
		if httpErr.Status != http.StatusNotFound {
			t.Fatalf("%v: expected 404, got %d", err, httpErr.Status)
		}
	}
}

func TestHandleErrorPassesHTTPErrorThrough(t *testing.T) {
	original := errs.NewBadRequestError("bad", true, nil, nil)
	if got := HandleError(original); got != error(original) {
		t.Fatalf("expected the same error back, got %v", got)
	}
}

func TestHandleErrorUnknownIsInternal(t *testing.T) {
	httpErr := asHTTPError(t, HandleError(errors.New("disk on fire")))
	if httpErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", httpErr.Status)
	}
	if httpErr.Message == "disk on fire" {
		t.Fatalf("internal error details must not leak")
	}
}

func TestErrCodeNonDriverError(t *testing.T) {
	if code := ErrCode(errors.New("plain")); code != Other {
		t.Fatalf("expected %s, got %s", Other, code)
	}
}

func TestMapSeverity(t *testing.T) {
	if got := MapSeverity("FATAL"); got != SeverityFatal {
		t.Fatalf("expected FATAL, got %s", got)
	}
	if got := MapSeverity("weird"); got != SeverityError {
		t.Fatalf("expected ERROR fallback, got %s", got)
	}
}
