package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"

	"taskhub/internal/models"
)

func taskRouter(h *TaskHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/task", h.Create)
	r.Get("/task", h.List)
	r.Route("/task/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Put("/complete", h.Complete)
		r.Put("/incomplete", h.Incomplete)
	})
	return r
}

func taskRows(id int64, title string, completed bool, userID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "completed", "user_id", "created_at"}).
		AddRow(id, title, "d1", completed, userID, time.Now().UTC())
}

func TestCreateTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO tasks").
		WithArgs("t1", "d1", false, "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now().UTC()))

	h := NewTaskHandler(db)
	r := taskRouter(h)

	b, _ := json.Marshal(map[string]any{"title": "t1", "description": "d1"})
	req := httptest.NewRequest(http.MethodPost, "/task", bytes.NewReader(b))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "u1"}))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", w.Code, w.Body.String())
	}
	var task models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if task.ID != 1 || task.UserID != "u1" || task.Completed {
		t.Fatalf("unexpected task %+v", task)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateTaskMissingTitle(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := NewTaskHandler(db)
	r := taskRouter(h)

	b, _ := json.Marshal(map[string]any{"description": "d1"})
	req := httptest.NewRequest(http.MethodPost, "/task", bytes.NewReader(b))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "u1"}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d (%s)", w.Code, w.Body.String())
	}
}

func TestGetTaskScopedToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// User B asks for user A's task: the ownership predicate finds no row.
	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(1), "user-b").
		WillReturnError(errNoRows())

	h := NewTaskHandler(db)
	r := taskRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/task/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "user-b"}))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d (%s)", w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetTaskSuperuserUnscoped(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(taskRows(1, "t1", false, "user-a"))

	h := NewTaskHandler(db)
	r := taskRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/task/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "admin", Superuser: true}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCompleteTaskIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := NewTaskHandler(db)
	r := taskRouter(h)

	// Completing twice returns the same 200 + completed state both times.
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`UPDATE tasks SET completed = \$1 WHERE id = \$2 AND user_id = \$3`).
			WithArgs(true, int64(1), "u1").
			WillReturnRows(taskRows(1, "t1", true, "u1"))

		req := httptest.NewRequest(http.MethodPut, "/task/1/complete", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "u1"}))

		if w.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d (%s)", i+1, w.Code, w.Body.String())
		}
		var task models.Task
		if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if !task.Completed {
			t.Fatalf("attempt %d: expected completed=true, got %+v", i+1, task)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCompleteNonexistentTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE tasks SET completed`).
		WithArgs(true, int64(0), "u1").
		WillReturnError(errNoRows())

	h := NewTaskHandler(db)
	r := taskRouter(h)

	req := httptest.NewRequest(http.MethodPut, "/task/0/complete", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "u1"}))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d (%s)", w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListTasksBadCompletedParam(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := NewTaskHandler(db)
	r := taskRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/task?completed=maybe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "u1"}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d (%s)", w.Code, w.Body.String())
	}
}

func TestListTasksBadOrderingParam(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := NewTaskHandler(db)
	r := taskRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/task?ordering=title", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "u1"}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d (%s)", w.Code, w.Body.String())
	}
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Fields["ordering"] == "" {
		t.Fatalf("expected ordering field error, got %s", w.Body.String())
	}
}

func TestListTasksEmptyIsJSONArray(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE TRUE AND user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "completed", "user_id", "created_at"}))

	h := NewTaskHandler(db)
	r := taskRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/task", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "u1"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", w.Code, w.Body.String())
	}
	if got := bytes.TrimSpace(w.Body.Bytes()); string(got) != "[]" {
		t.Fatalf("expected [], got %s", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(1), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewTaskHandler(db)
	r := taskRouter(h)

	req := httptest.NewRequest(http.MethodDelete, "/task/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "u1"}))

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d (%s)", w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteTaskNotOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM tasks`).
		WithArgs(int64(1), "user-b").
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := NewTaskHandler(db)
	r := taskRouter(h)

	req := httptest.NewRequest(http.MethodDelete, "/task/1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, scopedRequest(req, models.Scope{UserID: "user-b"}))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d (%s)", w.Code, w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
