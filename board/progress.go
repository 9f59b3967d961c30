// Package board holds the derived-state rules of a project board: progress,
// status labels, task moves and membership checks. Everything here is pure
// and safe to call from any goroutine.
package board

import "projectboard/model"

const (
	LabelNotStarted     = "Not Started"
	LabelInProgress     = "In Progress"
	LabelNearlyComplete = "Nearly Complete"
	LabelCompleted      = "Completed"
)

// Progress is round(100 * completed / total) with halves rounded up, and 0
// for an empty board.
func Progress(tasks []model.Task) int {
	total := len(tasks)
	if total == 0 {
		return 0
	}
	completed := 0
	for _, t := range tasks {
		if t.Status == model.TaskCompleted {
			completed++
		}
	}
	return (200*completed + total) / (2 * total)
}

func Label(progress int) string {
	switch {
	case progress <= 0:
		return LabelNotStarted
	case progress < 50:
		return LabelInProgress
	case progress < 100:
		return LabelNearlyComplete
	default:
		return LabelCompleted
	}
}

// Tone is the colour bucket the dashboard uses for progress bars.
func Tone(progress int) string {
	switch {
	case progress < 25:
		return "red"
	case progress < 50:
		return "yellow"
	case progress < 75:
		return "blue"
	default:
		return "green"
	}
}

// Recompute refreshes the progress and status fields from the task list.
func Recompute(p *model.Project) {
	p.Progress = Progress(p.Tasks)
	p.Status = Label(p.Progress)
}

type Summary struct {
	Total          int `json:"total"`
	NotStarted     int `json:"notStarted"`
	InProgress     int `json:"inProgress"`
	NearlyComplete int `json:"nearlyComplete"`
	Completed      int `json:"completed"`
}

// Summarize buckets projects by their stored progress.
func Summarize(projects []model.Project) Summary {
	s := Summary{Total: len(projects)}
	for _, p := range projects {
		switch Label(p.Progress) {
		case LabelNotStarted:
			s.NotStarted++
		case LabelInProgress:
			s.InProgress++
		case LabelNearlyComplete:
			s.NearlyComplete++
		default:
			s.Completed++
		}
	}
	return s
}
