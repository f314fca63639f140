package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "empire/internal/errors"
	"empire/internal/models"
	"empire/internal/services"
)

type mockWorkoutService struct {
	getWeekFn    func(userID, weekID string) (*models.Workout, error)
	updateWeekFn func(userID, weekID string, days models.WeekDays) (*models.Workout, error)
	toggleFn     func(userID, weekID, day, exerciseID string) (*models.Workout, error)
	archiveFn    func(userID, weekID string) (*models.Workout, error)
	archiveEndFn func(ctx context.Context, userID string, now time.Time) (bool, error)
	deleteFn     func(userID, weekID string) error
}

var _ services.WorkoutServicer = (*mockWorkoutService)(nil)

func (m *mockWorkoutService) GetTemplate(string) (*models.Workout, error) {
	w := sampleWeek()
	w.WeekID, w.IsTemplate = models.TemplateWeekID, true
	return w, nil
}

func (m *mockWorkoutService) UpdateTemplate(_ string, days models.WeekDays) (*models.Workout, error) {
	w := sampleWeek()
	w.WeekID, w.IsTemplate, w.Days = models.TemplateWeekID, true, days
	return w, nil
}

func (m *mockWorkoutService) GetWeek(userID, weekID string) (*models.Workout, error) {
	if m.getWeekFn != nil {
		return m.getWeekFn(userID, weekID)
	}
	return sampleWeek(), nil
}

func (m *mockWorkoutService) UpdateWeek(userID, weekID string, days models.WeekDays) (*models.Workout, error) {
	if m.updateWeekFn != nil {
		return m.updateWeekFn(userID, weekID, days)
	}
	return sampleWeek(), nil
}

func (m *mockWorkoutService) ToggleExercise(userID, weekID, day, exerciseID string) (*models.Workout, error) {
	if m.toggleFn != nil {
		return m.toggleFn(userID, weekID, day, exerciseID)
	}
	return sampleWeek(), nil
}

func (m *mockWorkoutService) ArchiveWeek(userID, weekID string) (*models.Workout, error) {
	if m.archiveFn != nil {
		return m.archiveFn(userID, weekID)
	}
	return sampleWeek(), nil
}

func (m *mockWorkoutService) ArchiveEndedWeek(ctx context.Context, userID string, now time.Time) (bool, error) {
	if m.archiveEndFn != nil {
		return m.archiveEndFn(ctx, userID, now)
	}
	return true, nil
}

func (m *mockWorkoutService) SyncWithTemplate(string, string) (*models.Workout, error) {
	return sampleWeek(), nil
}

func (m *mockWorkoutService) GetHistory(string) ([]models.Workout, error) {
	return []models.Workout{*sampleWeek()}, nil
}

func (m *mockWorkoutService) DeleteWeek(userID, weekID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, weekID)
	}
	return nil
}

func sampleWeek() *models.Workout {
	w := &models.Workout{
		UserID:    testUserID,
		WeekID:    "2024-03-10",
		StartDate: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		Days: models.WeekDays{
			"Monday": {Name: "Push", Exercises: []models.Exercise{{ID: "ex-1", Name: "Bench", Sets: "3", Reps: "10", RepsUnit: "reps"}}},
		},
	}
	w.ID = "0190a5b4-7777-7000-8000-000000000007"
	return w
}

func setupWorkoutRouter(handler *WorkoutHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/workouts", injectUserID(testUserID))
	g.GET("/template", handler.GetTemplate)
	g.PUT("/template", handler.UpdateTemplate)
	g.GET("/current", handler.GetCurrent)
	g.PUT("/current", handler.UpdateCurrent)
	g.GET("/history", handler.GetHistory)
	g.POST("/archive-all", handler.ArchiveAll)
	g.PATCH("/:weekId/:day/:exerciseId/toggle", handler.ToggleExercise)
	g.POST("/:weekId/archive", handler.ArchiveWeek)
	g.POST("/:weekId/sync", handler.SyncWithTemplate)
	g.DELETE("/:weekId", handler.DeleteWeek)
	return r
}

func TestWorkoutHandler_GetCurrent(t *testing.T) {
	t.Run("passes the requested week", func(t *testing.T) {
		var got string
		svc := &mockWorkoutService{
			getWeekFn: func(_, weekID string) (*models.Workout, error) {
				got = weekID
				return sampleWeek(), nil
			},
		}
		r := setupWorkoutRouter(NewWorkoutHandler(svc, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodGet, "/workouts/current?week_id=2024-03-10", "")
		assertStatus(t, rec, http.StatusOK)
		if got != "2024-03-10" {
			t.Errorf("expected week 2024-03-10, got %q", got)
		}
		if data := dataOf(t, parseJSON(t, rec)); data["week_id"] != "2024-03-10" {
			t.Errorf("unexpected week_id %v", data["week_id"])
		}
	})

	t.Run("returns 400 for a non-Sunday week id", func(t *testing.T) {
		svc := &mockWorkoutService{
			getWeekFn: func(_, _ string) (*models.Workout, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "must be a Sunday")
			},
		}
		r := setupWorkoutRouter(NewWorkoutHandler(svc, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodGet, "/workouts/current?week_id=2024-03-11", "")
		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestWorkoutHandler_UpdateCurrent(t *testing.T) {
	t.Run("replaces the week's days", func(t *testing.T) {
		var gotWeek string
		var gotDays models.WeekDays
		svc := &mockWorkoutService{
			updateWeekFn: func(_, weekID string, days models.WeekDays) (*models.Workout, error) {
				gotWeek, gotDays = weekID, days
				return sampleWeek(), nil
			},
		}
		r := setupWorkoutRouter(NewWorkoutHandler(svc, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodPut, "/workouts/current",
			`{"week_id":"2024-03-10","days":{"Tuesday":{"name":"Leg","exercises":[{"name":"Squat","sets":"5","reps":"5","reps_unit":"reps"}]}}}`)
		assertStatus(t, rec, http.StatusOK)
		if gotWeek != "2024-03-10" || gotDays["Tuesday"].Name != "Leg" {
			t.Errorf("unexpected update %s %+v", gotWeek, gotDays)
		}
	})

	t.Run("returns 409 for an archived week", func(t *testing.T) {
		svc := &mockWorkoutService{
			updateWeekFn: func(_, _ string, _ models.WeekDays) (*models.Workout, error) {
				return nil, apperrors.ErrWorkoutArchived
			},
		}
		r := setupWorkoutRouter(NewWorkoutHandler(svc, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodPut, "/workouts/current", `{"week_id":"2024-03-03","days":{}}`)
		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "WORKOUT_ARCHIVED")
	})
}

func TestWorkoutHandler_ToggleExercise(t *testing.T) {
	var got [3]string
	svc := &mockWorkoutService{
		toggleFn: func(_, weekID, day, exerciseID string) (*models.Workout, error) {
			got = [3]string{weekID, day, exerciseID}
			return sampleWeek(), nil
		},
	}
	r := setupWorkoutRouter(NewWorkoutHandler(svc, &mockAuditService{}, testCalendar()))
	rec := doRequest(r, http.MethodPatch, "/workouts/2024-03-10/Monday/ex-1/toggle", "")
	assertStatus(t, rec, http.StatusOK)
	if got != [3]string{"2024-03-10", "Monday", "ex-1"} {
		t.Errorf("unexpected params %v", got)
	}
}

func TestWorkoutHandler_ArchiveAll(t *testing.T) {
	var gotNow time.Time
	svc := &mockWorkoutService{
		archiveEndFn: func(_ context.Context, _ string, now time.Time) (bool, error) {
			gotNow = now
			return false, nil
		},
	}
	r := setupWorkoutRouter(NewWorkoutHandler(svc, &mockAuditService{}, testCalendar()))
	rec := doRequest(r, http.MethodPost, "/workouts/archive-all", "")
	assertStatus(t, rec, http.StatusOK)

	if !gotNow.Equal(wednesday) {
		t.Errorf("expected calendar now, got %v", gotNow)
	}
	if data := dataOf(t, parseJSON(t, rec)); data["archived"] != false {
		t.Errorf("expected archived=false, got %v", data["archived"])
	}
}

func TestWorkoutHandler_ArchiveWeek(t *testing.T) {
	t.Run("returns 404 for a missing week", func(t *testing.T) {
		svc := &mockWorkoutService{
			archiveFn: func(_, _ string) (*models.Workout, error) { return nil, apperrors.ErrWorkoutNotFound },
		}
		r := setupWorkoutRouter(NewWorkoutHandler(svc, &mockAuditService{}, testCalendar()))
		rec := doRequest(r, http.MethodPost, "/workouts/2024-01-07/archive", "")
		assertStatus(t, rec, http.StatusNotFound)
	})

	t.Run("audits the archival", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupWorkoutRouter(NewWorkoutHandler(&mockWorkoutService{}, audit, testCalendar()))
		rec := doRequest(r, http.MethodPost, "/workouts/2024-03-10/archive", "")
		assertStatus(t, rec, http.StatusOK)
		if len(audit.calls) != 1 || audit.calls[0].action != "ARCHIVE_WORKOUT" {
			t.Errorf("expected ARCHIVE_WORKOUT audit entry, got %v", audit.calls)
		}
	})
}

func TestWorkoutHandler_TemplateAndHistory(t *testing.T) {
	r := setupWorkoutRouter(NewWorkoutHandler(&mockWorkoutService{}, &mockAuditService{}, testCalendar()))

	rec := doRequest(r, http.MethodGet, "/workouts/template", "")
	assertStatus(t, rec, http.StatusOK)
	if data := dataOf(t, parseJSON(t, rec)); data["is_template"] != true {
		t.Errorf("expected template, got %v", data)
	}

	rec = doRequest(r, http.MethodPut, "/workouts/template", `{"days":{"Sunday":{"name":"Rest","exercises":[]}}}`)
	assertStatus(t, rec, http.StatusOK)

	rec = doRequest(r, http.MethodPut, "/workouts/template", `{}`)
	assertStatus(t, rec, http.StatusBadRequest)

	rec = doRequest(r, http.MethodGet, "/workouts/history", "")
	assertStatus(t, rec, http.StatusOK)
	if weeks, _ := parseJSON(t, rec)["data"].([]interface{}); len(weeks) != 1 {
		t.Errorf("expected one archived week, got %d", len(weeks))
	}

	rec = doRequest(r, http.MethodDelete, "/workouts/2024-03-10", "")
	assertStatus(t, rec, http.StatusOK)
}
