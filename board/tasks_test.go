package board

import (
	"reflect"
	"testing"
	"time"

	"projectboard/model"
)

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.TaskID
	}
	return out
}

func TestNewTask(t *testing.T) {
	creator := model.TaskUser{Name: "Ada", Email: "ada@example.com", Avatar: "https://img/ada.png"}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	task, err := NewTask("  Write docs  ", "", creator, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.Name != "Write docs" || task.Status != model.TaskPending || task.User != creator || !task.CreatedAt.Equal(now) {
		t.Errorf("unexpected task %+v", task)
	}
	if task.TaskID == "" {
		t.Error("expected generated id")
	}

	other, _ := NewTask("x", model.TaskOngoing, creator, now)
	if other.TaskID == task.TaskID {
		t.Error("ids created in the same instant must differ")
	}

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := NewTask(name, "", creator, now); err != ErrEmptyTaskName {
			t.Errorf("NewTask(%q) error = %v, want ErrEmptyTaskName", name, err)
		}
	}
	if _, err := NewTask("x", "blocked", creator, now); err != ErrInvalidStatus {
		t.Errorf("unknown status error = %v, want ErrInvalidStatus", err)
	}
}

func TestRemoveTask(t *testing.T) {
	tasks := tasksWith(model.TaskPending, model.TaskCompleted, model.TaskOngoing)

	out, ok := RemoveTask(tasks, "b")
	if !ok || !reflect.DeepEqual(ids(out), []string{"a", "c"}) {
		t.Errorf("RemoveTask(b) = %v %v", ids(out), ok)
	}
	if len(tasks) != 3 {
		t.Error("input slice must not be modified")
	}

	out, ok = RemoveTask(tasks, "missing")
	if ok || !reflect.DeepEqual(out, tasks) || Progress(out) != Progress(tasks) {
		t.Error("removing an unknown id should leave the list unchanged")
	}
}

func TestMoveTaskChangesOnlyStatus(t *testing.T) {
	tasks := tasksWith(model.TaskPending, model.TaskPending, model.TaskOngoing, model.TaskCompleted)

	out, ok := MoveTask(tasks, "a", model.TaskOngoing, 1)
	if !ok {
		t.Fatal("expected a change")
	}
	if len(out) != len(tasks) {
		t.Fatalf("len = %d, want %d", len(out), len(tasks))
	}
	byID := map[string]model.Task{}
	for _, task := range out {
		byID[task.TaskID] = task
	}
	if byID["a"].Status != model.TaskOngoing {
		t.Errorf("moved status = %s", byID["a"].Status)
	}
	for _, orig := range tasks[1:] {
		if byID[orig.TaskID] != orig {
			t.Errorf("task %s changed: %+v", orig.TaskID, byID[orig.TaskID])
		}
	}
	if Progress(out) != 25 {
		t.Errorf("Progress = %d, want 25", Progress(out))
	}
	if tasks[0].Status != model.TaskPending {
		t.Error("input slice must not be modified")
	}
}

func TestMoveTaskOrdering(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		target model.TaskStatus
		index  int
		want   []string
		column []string
	}{
		{"to top of other column", "a", model.TaskOngoing, 0, []string{"b", "a", "c", "d"}, []string{"a", "c", "d"}},
		{"to end of other column", "a", model.TaskOngoing, 5, []string{"b", "c", "d", "a"}, []string{"c", "d", "a"}},
		{"within column down", "a", model.TaskPending, 1, []string{"b", "a", "c", "d"}, []string{"b", "a"}},
		{"into empty column keeps slot", "d", model.TaskCompleted, 0, []string{"a", "b", "c", "d"}, []string{"d"}},
		{"negative index is top", "c", model.TaskPending, -3, []string{"c", "a", "b", "d"}, []string{"c", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := tasksWith(model.TaskPending, model.TaskPending, model.TaskOngoing, model.TaskOngoing)
			out, ok := MoveTask(tasks, tt.id, tt.target, tt.index)
			if !ok {
				t.Fatal("expected a change")
			}
			if got := ids(out); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
			if got := ids(Column(out, tt.target)); !reflect.DeepEqual(got, tt.column) {
				t.Errorf("column = %v, want %v", got, tt.column)
			}
		})
	}
}

func TestMoveTaskNoOps(t *testing.T) {
	tasks := tasksWith(model.TaskPending, model.TaskPending, model.TaskOngoing)

	if _, ok := MoveTask(tasks, "b", model.TaskPending, 1); ok {
		t.Error("drop onto own slot should be a no-op")
	}
	if _, ok := MoveTask(tasks, "b", model.TaskPending, 9); ok {
		t.Error("drop past the end of own column should clamp to own slot")
	}
	if _, ok := MoveTask(tasks, "zzz", model.TaskCompleted, 0); ok {
		t.Error("unknown task should be a no-op")
	}
	if _, ok := MoveTask(tasks, "a", "archived", 0); ok {
		t.Error("unknown status should be a no-op")
	}
}

func TestColumnIndex(t *testing.T) {
	tasks := tasksWith(model.TaskPending, model.TaskOngoing, model.TaskPending)
	if got := ColumnIndex(tasks, "c"); got != 1 {
		t.Errorf("ColumnIndex(c) = %d, want 1", got)
	}
	if got := ColumnIndex(tasks, "x"); got != -1 {
		t.Errorf("ColumnIndex(x) = %d, want -1", got)
	}
}
