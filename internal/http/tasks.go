package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/tasks"
)

// TaskQueue is the maintenance queue the admin area talks to.
type TaskQueue interface {
	Enqueue(tasks ...backlite.Task) ([]string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TasksController handles maintenance queue endpoints under /admin/tasks.
type TasksController struct {
	queue     TaskQueue
	scheduler *scheduler.MaintenanceScheduler
	flasher   Flasher
	render    RenderFunc
}

// NewTasksController creates a new TasksController. sched may be nil.
func NewTasksController(queue TaskQueue, sched *scheduler.MaintenanceScheduler, flasher Flasher, render RenderFunc) *TasksController {
	return &TasksController{
		queue:     queue,
		scheduler: sched,
		flasher:   flasher,
		render:    render,
	}
}

// TasksPage handles GET /admin/tasks
func (tc *TasksController) TasksPage(c *gin.Context) {
	data := gin.H{
		"Title":     "Maintenance Tasks",
		"TaskTypes": tasks.TaskTypes,
	}

	if tc.scheduler != nil {
		data["Schedule"] = tc.scheduler.Schedule()
		data["ScheduleDescription"] = scheduler.CronDescription(tc.scheduler.Schedule())
		data["NextRun"] = tc.scheduler.GetNextRunTime()
		lastRun, lastErr := tc.scheduler.LastRun()
		data["LastRun"] = lastRun
		if lastErr != nil {
			data["LastError"] = lastErr.Error()
		}
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"task_types": tasks.TaskTypes})
		return
	}
	tc.render(c, http.StatusOK, "admin_tasks", data)
}

// GetTaskStatus handles GET /admin/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "Failed to load task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": tasks.StatusString(status),
	})
}

// RunTask handles POST /admin/tasks/:type/run
// Manually enqueues a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	found, ok := tasks.LookupTaskType(taskType)
	if !ok {
		tc.respondTaskError(c, http.StatusBadRequest, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	ids, err := tc.queue.Enqueue(found.New())
	if err != nil || len(ids) == 0 {
		if err == nil {
			err = fmt.Errorf("no task ID returned")
		}
		tc.respondTaskError(c, http.StatusInternalServerError, "failed to enqueue task: "+err.Error())
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusAccepted, gin.H{
			"success": true,
			"task_id": ids[0],
			"type":    taskType,
			"message": "task enqueued",
		})
		return
	}

	tc.flasher.AddFlash(c.Request.Context(), auth.FlashSuccess, fmt.Sprintf("Task %s enqueued (ID: %s).", taskType, ids[0]))
	c.Redirect(http.StatusFound, "/admin/tasks")
}

func (tc *TasksController) respondTaskError(c *gin.Context, status int, errorMsg string) {
	if wantsJSON(c) {
		c.JSON(status, ErrorResponse{Error: errorMsg})
		return
	}
	tc.flasher.AddFlash(c.Request.Context(), auth.FlashError, errorMsg)
	c.Redirect(http.StatusFound, "/admin/tasks")
}
