package tasks

import "github.com/mikestefanello/backlite"

// TaskType describes a task that can be triggered from the admin area.
type TaskType struct {
	Type        string               `json:"type"`
	Description string               `json:"description"`
	New         func() backlite.Task `json:"-"`
}

// TaskTypes lists the maintenance tasks in display order.
var TaskTypes = []TaskType{
	{
		Type:        "sweep_orphan_uploads",
		Description: "Delete uploaded covers and book files that no book references",
		New:         func() backlite.Task { return SweepOrphanUploadsTask{} },
	},
	{
		Type:        "backfill_analytics",
		Description: "Create missing analytics rows for books",
		New:         func() backlite.Task { return BackfillAnalyticsTask{} },
	},
}

// LookupTaskType finds a task type by name.
func LookupTaskType(name string) (TaskType, bool) {
	for _, t := range TaskTypes {
		if t.Type == name {
			return t, true
		}
	}
	return TaskType{}, false
}

// StatusString converts a backlite status into the name shown to admins.
func StatusString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
