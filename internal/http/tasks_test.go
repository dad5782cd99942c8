package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/tasks"
)

type fakeTaskQueue struct {
	enqueued []backlite.Task
	err      error
	statuses map[string]backlite.TaskStatus
}

func (q *fakeTaskQueue) Enqueue(t ...backlite.Task) ([]string, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.enqueued = append(q.enqueued, t...)
	ids := make([]string, len(t))
	for i := range t {
		ids[i] = fmt.Sprintf("task-%d", len(q.enqueued)-len(t)+i+1)
	}
	return ids, nil
}

func (q *fakeTaskQueue) Status(_ context.Context, id string) (backlite.TaskStatus, error) {
	if q.err != nil {
		return backlite.TaskStatusNotFound, q.err
	}
	status, ok := q.statuses[id]
	if !ok {
		return backlite.TaskStatusNotFound, nil
	}
	return status, nil
}

func setupTasksRouter(queue *fakeTaskQueue, sched *scheduler.MaintenanceScheduler) (*gin.Engine, *fakeFlasher) {
	flashes := &fakeFlasher{}
	controller := NewTasksController(queue, sched, flashes, jsonRender)

	router := gin.New()
	router.GET("/admin/tasks", controller.TasksPage)
	router.GET("/admin/tasks/:id", controller.GetTaskStatus)
	router.POST("/admin/tasks/:type/run", controller.RunTask)
	return router, flashes
}

func jsonRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func TestTasksController_TasksPage(t *testing.T) {
	t.Run("renders task types with schedule", func(t *testing.T) {
		queue := &fakeTaskQueue{}
		sched := scheduler.NewMaintenanceScheduler(queue, "0 3 * * *")
		router, _ := setupTasksRouter(queue, sched)

		w := serve(router, httptest.NewRequest(http.MethodGet, "/admin/tasks", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, "admin_tasks", body["Template"])
		assert.Len(t, body["TaskTypes"], len(tasks.TaskTypes))
		assert.Equal(t, "0 3 * * *", body["Schedule"])
		assert.Equal(t, "Daily at 03:00", body["ScheduleDescription"])
	})

	t.Run("returns task types as JSON", func(t *testing.T) {
		router, _ := setupTasksRouter(&fakeTaskQueue{}, nil)

		w := serve(router, jsonRequest(http.MethodGet, "/admin/tasks"))

		assert.Equal(t, http.StatusOK, w.Code)
		types := decodeJSON(t, w)["task_types"].([]any)
		require.Len(t, types, 2)
		first := types[0].(map[string]any)
		assert.Equal(t, "sweep_orphan_uploads", first["type"])
		assert.NotContains(t, first, "New")
	})
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	queue := &fakeTaskQueue{statuses: map[string]backlite.TaskStatus{"abc": backlite.TaskStatusSuccess}}
	router, _ := setupTasksRouter(queue, nil)

	w := serve(router, jsonRequest(http.MethodGet, "/admin/tasks/abc"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"id": "abc", "status": "success"}, decodeJSON(t, w))

	w = serve(router, jsonRequest(http.MethodGet, "/admin/tasks/missing"))
	assert.Equal(t, "not_found", decodeJSON(t, w)["status"])

	queue.err = errors.New("db locked")
	w = serve(router, jsonRequest(http.MethodGet, "/admin/tasks/abc"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTasksController_RunTask(t *testing.T) {
	t.Run("enqueues known task and answers JSON", func(t *testing.T) {
		queue := &fakeTaskQueue{}
		router, _ := setupTasksRouter(queue, nil)

		w := serve(router, jsonRequest(http.MethodPost, "/admin/tasks/backfill_analytics/run"))

		assert.Equal(t, http.StatusAccepted, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "task-1", body["task_id"])
		require.Len(t, queue.enqueued, 1)
		assert.IsType(t, tasks.BackfillAnalyticsTask{}, queue.enqueued[0])
	})

	t.Run("flashes and redirects for form posts", func(t *testing.T) {
		queue := &fakeTaskQueue{}
		router, flashes := setupTasksRouter(queue, nil)

		w := serve(router, httptest.NewRequest(http.MethodPost, "/admin/tasks/sweep_orphan_uploads/run", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/admin/tasks", w.Header().Get("Location"))
		assert.Equal(t, auth.FlashSuccess, flashes.last().Category)
		assert.Contains(t, flashes.last().Message, "sweep_orphan_uploads")
		require.Len(t, queue.enqueued, 1)
		assert.IsType(t, tasks.SweepOrphanUploadsTask{}, queue.enqueued[0])
	})

	t.Run("rejects unknown task type", func(t *testing.T) {
		queue := &fakeTaskQueue{}
		router, flashes := setupTasksRouter(queue, nil)

		w := serve(router, jsonRequest(http.MethodPost, "/admin/tasks/reindex/run"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeJSON(t, w)["error"], "unknown task type")

		w = serve(router, httptest.NewRequest(http.MethodPost, "/admin/tasks/reindex/run", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, auth.FlashError, flashes.last().Category)
		assert.Empty(t, queue.enqueued)
	})

	t.Run("reports enqueue failure", func(t *testing.T) {
		queue := &fakeTaskQueue{err: errors.New("queue closed")}
		router, _ := setupTasksRouter(queue, nil)

		w := serve(router, jsonRequest(http.MethodPost, "/admin/tasks/backfill_analytics/run"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, decodeJSON(t, w)["error"], "queue closed")
	})
}
