package board

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"projectboard/model"
)

var (
	ErrEmptyTaskName = errors.New("task name is required")
	ErrInvalidStatus = errors.New("invalid task status")
)

// NewTask builds a task owned by creator. An empty status defaults to pending.
func NewTask(name string, status model.TaskStatus, creator model.TaskUser, now time.Time) (model.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Task{}, ErrEmptyTaskName
	}
	if status == "" {
		status = model.TaskPending
	}
	if !status.Valid() {
		return model.Task{}, ErrInvalidStatus
	}
	id, err := uuid.NewV7()
	if err != nil {
		return model.Task{}, err
	}
	return model.Task{
		TaskID:    id.String(),
		Name:      name,
		Status:    status,
		User:      creator,
		CreatedAt: now.UTC(),
	}, nil
}

func AddTask(tasks []model.Task, task model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks)+1)
	out = append(out, tasks...)
	return append(out, task)
}

func HasTask(tasks []model.Task, id string) bool {
	return indexOf(tasks, id) >= 0
}

// RemoveTask drops the task with the given id. The bool reports whether
// anything was removed; an unknown id returns the input unchanged.
func RemoveTask(tasks []model.Task, id string) ([]model.Task, bool) {
	idx := indexOf(tasks, id)
	if idx < 0 {
		return tasks, false
	}
	out := make([]model.Task, 0, len(tasks)-1)
	out = append(out, tasks[:idx]...)
	return append(out, tasks[idx+1:]...), true
}

// MoveTask sets the task's status to target and places it at targetIndex
// within the target column. Columns render in storage order, so the
// position is expressed by reordering the slice. Other tasks keep their
// fields. Unknown ids and drops onto the task's own slot are no-ops.
func MoveTask(tasks []model.Task, id string, target model.TaskStatus, targetIndex int) ([]model.Task, bool) {
	idx := indexOf(tasks, id)
	if idx < 0 || !target.Valid() {
		return tasks, false
	}
	if targetIndex < 0 {
		targetIndex = 0
	}
	moved := tasks[idx]
	if moved.Status == target && ColumnIndex(tasks, id) == clamp(targetIndex, 0, len(Column(tasks, target))-1) {
		return tasks, false
	}
	moved.Status = target

	rest := make([]model.Task, 0, len(tasks)-1)
	rest = append(rest, tasks[:idx]...)
	rest = append(rest, tasks[idx+1:]...)

	// Find the storage slot of the targetIndex-th task in the target column.
	column := 0
	insertAt := -1
	last := -1
	for i, t := range rest {
		if t.Status != target {
			continue
		}
		if column == targetIndex {
			insertAt = i
			break
		}
		column++
		last = i
	}
	if insertAt < 0 {
		if last >= 0 {
			insertAt = last + 1
		} else {
			// Empty target column: keep the task where it was.
			insertAt = idx
		}
	}

	out := make([]model.Task, 0, len(tasks))
	out = append(out, rest[:insertAt]...)
	out = append(out, moved)
	return append(out, rest[insertAt:]...), true
}

// Column returns the tasks of one status in storage order.
func Column(tasks []model.Task, status model.TaskStatus) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// ColumnIndex is the position of a task inside its own column, or -1.
func ColumnIndex(tasks []model.Task, id string) int {
	idx := indexOf(tasks, id)
	if idx < 0 {
		return -1
	}
	n := 0
	for _, t := range tasks[:idx] {
		if t.Status == tasks[idx].Status {
			n++
		}
	}
	return n
}

func indexOf(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.TaskID == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
