package dto

import (
	"projectboard/board"
	"projectboard/model"
)

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Github      string `json:"github"`
	DueDate     string `json:"dueDate"`
}

// UpdateProjectRequest carries only the fields being edited.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Github      *string `json:"github"`
	DueDate     *string `json:"dueDate"`
}

type InviteRequest struct {
	Email string `json:"email"`
}

type ProjectResponse struct {
	*model.Project
	Tone    string                  `json:"tone"`
	Columns map[string][]model.Task `json:"columns,omitempty"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Summary  board.Summary     `json:"summary"`
}

// NewProjectResponse adds the derived presentation fields. Columns are
// included only for the detail view.
func NewProjectResponse(p *model.Project, withColumns bool) ProjectResponse {
	out := ProjectResponse{Project: p, Tone: board.Tone(p.Progress)}
	if withColumns {
		out.Columns = make(map[string][]model.Task, len(model.TaskStatuses))
		for _, status := range model.TaskStatuses {
			column := board.Column(p.Tasks, status)
			if column == nil {
				column = []model.Task{}
			}
			out.Columns[string(status)] = column
		}
	}
	return out
}

func NewProjectListResponse(projects []model.Project, summary board.Summary) ProjectListResponse {
	out := ProjectListResponse{Projects: make([]ProjectResponse, 0, len(projects)), Summary: summary}
	for i := range projects {
		out.Projects = append(out.Projects, NewProjectResponse(&projects[i], false))
	}
	return out
}
