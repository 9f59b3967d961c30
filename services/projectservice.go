package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"projectboard/board"
	"projectboard/logging"
	"projectboard/model"
	"projectboard/repositories"
)

const (
	DefaultProjectName        = "New Project"
	DefaultProjectDescription = "Project description goes here"
	defaultDueIn              = 30 * 24 * time.Hour
	dueDateLayout             = "2006-01-02"
)

type ProjectService struct {
	projects repositories.ProjectStore
	tracer   trace.Tracer
	now      func() time.Time
}

// NewProjectService uses the global tracer provider when tracer is nil.
func NewProjectService(projects repositories.ProjectStore, tracer trace.Tracer) *ProjectService {
	if tracer == nil {
		tracer = otel.Tracer("projectboard/services")
	}
	return &ProjectService{projects: projects, tracer: tracer, now: time.Now}
}

type CreateInput struct {
	Name        string
	Description string
	Github      string
	DueDate     string
}

type UpdateInput struct {
	Name        *string
	Description *string
	Github      *string
	DueDate     *string
}

type MoveInput struct {
	TaskID       string
	SourceStatus model.TaskStatus
	TargetStatus model.TaskStatus
	SourceIndex  int
	TargetIndex  int
}

func (s *ProjectService) start(ctx context.Context, name, projectID string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "ProjectService."+name)
	if projectID != "" {
		span.SetAttributes(attribute.String("project.id", projectID))
	}
	return ctx, span
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *ProjectService) List(ctx context.Context, email string) ([]model.Project, board.Summary, error) {
	ctx, span := s.start(ctx, "List", "")
	defer span.End()

	projects, err := s.projects.ListByMember(ctx, board.NormalizeEmail(email))
	if err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_LIST_FAILED, Description: Failed to list projects: %v", err)
		return nil, board.Summary{}, fail(span, fmt.Errorf("list projects: %w", err))
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return projects, board.Summarize(projects), nil
}

func (s *ProjectService) Create(ctx context.Context, creator model.Identity, in CreateInput) (*model.Project, error) {
	ctx, span := s.start(ctx, "Create", "")
	defer span.End()

	email := board.NormalizeEmail(creator.Email)
	if err := board.ValidateEmail(email); err != nil {
		return nil, fail(span, err)
	}

	p := &model.Project{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Github:      strings.TrimSpace(in.Github),
		DueDate:     strings.TrimSpace(in.DueDate),
		Members:     []string{email},
		Tasks:       []model.Task{},
	}
	if p.Name == "" {
		p.Name = DefaultProjectName
	}
	if p.Description == "" {
		p.Description = DefaultProjectDescription
	}
	if p.DueDate == "" {
		p.DueDate = s.now().Add(defaultDueIn).Format(dueDateLayout)
	} else if _, err := time.Parse(dueDateLayout, p.DueDate); err != nil {
		return nil, fail(span, ErrInvalidDueDate)
	}
	board.Recompute(p)

	created, err := s.projects.Create(ctx, p)
	if err != nil {
		logging.Logger.Errorf("Event ID: PROJECT_CREATE_FAILED, Description: Failed to create project for %s: %v", email, err)
		return nil, fail(span, fmt.Errorf("create project: %w", err))
	}
	logging.Logger.WithField("projectId", created.ProjectID).
		Infof("Event ID: PROJECT_CREATED, Description: Project created by %s", email)
	return created, nil
}

// Access loads a project and checks that email is one of its members.
func (s *ProjectService) Access(ctx context.Context, id, email string) (*model.Project, error) {
	ctx, span := s.start(ctx, "Access", id)
	defer span.End()

	p, err := s.projects.Get(ctx, id)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fail(span, fmt.Errorf("load project: %w", err))
	}
	switch board.CheckAccess(p, email) {
	case board.AccessGranted:
		return p, nil
	case board.AccessDenied:
		logging.Logger.WithField("projectId", id).
			Warnf("Event ID: PROJECT_ACCESS_DENIED, Description: %s is not a member", email)
		return nil, ErrAccessDenied
	default:
		return nil, ErrProjectNotFound
	}
}

// mutate applies fn atomically after re-checking membership against the
// stored document.
func (s *ProjectService) mutate(ctx context.Context, id, email string, fn repositories.MutateFunc) (*model.Project, error) {
	p, err := s.projects.Mutate(ctx, id, func(p *model.Project) error {
		if !board.IsMember(p.Members, email) {
			return ErrAccessDenied
		}
		return fn(p)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	return p, err
}

func (s *ProjectService) Rename(ctx context.Context, id, email, name string) (*model.Project, error) {
	return s.Update(ctx, id, email, UpdateInput{Name: &name})
}

func (s *ProjectService) Describe(ctx context.Context, id, email, description string) (*model.Project, error) {
	return s.Update(ctx, id, email, UpdateInput{Description: &description})
}

// Update edits project metadata. Fields left nil are untouched and a request
// that changes nothing does not write.
func (s *ProjectService) Update(ctx context.Context, id, email string, in UpdateInput) (*model.Project, error) {
	ctx, span := s.start(ctx, "Update", id)
	defer span.End()

	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, fail(span, ErrEmptyName)
	}
	if in.DueDate != nil {
		if _, err := time.Parse(dueDateLayout, strings.TrimSpace(*in.DueDate)); err != nil {
			return nil, fail(span, ErrInvalidDueDate)
		}
	}

	p, err := s.mutate(ctx, id, email, func(p *model.Project) error {
		changed := false
		set := func(field *string, value *string) {
			if value == nil {
				return
			}
			if v := strings.TrimSpace(*value); v != *field {
				*field = v
				changed = true
			}
		}
		set(&p.Name, in.Name)
		set(&p.Description, in.Description)
		set(&p.Github, in.Github)
		set(&p.DueDate, in.DueDate)
		if !changed {
			return repositories.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, id, email string, confirmed bool) error {
	ctx, span := s.start(ctx, "Delete", id)
	defer span.End()

	if !confirmed {
		return ErrConfirmationRequired
	}
	if _, err := s.Access(ctx, id, email); err != nil {
		return fail(span, err)
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProjectNotFound
		}
		logging.Logger.Errorf("Event ID: PROJECT_DELETE_FAILED, Description: Failed to delete project %s: %v", id, err)
		return fail(span, fmt.Errorf("delete project: %w", err))
	}
	logging.Logger.WithField("projectId", id).
		Infof("Event ID: PROJECT_DELETED, Description: Project deleted by %s", email)
	return nil
}

func (s *ProjectService) AddTask(ctx context.Context, id string, creator model.Identity, name string, status model.TaskStatus) (*model.Project, error) {
	ctx, span := s.start(ctx, "AddTask", id)
	defer span.End()

	task, err := board.NewTask(name, status, creator.TaskUser(), s.now())
	if err != nil {
		return nil, fail(span, err)
	}
	p, err := s.mutate(ctx, id, creator.Email, func(p *model.Project) error {
		if board.HasTask(p.Tasks, task.TaskID) {
			return repositories.ErrNoChange
		}
		p.Tasks = board.AddTask(p.Tasks, task)
		board.Recompute(p)
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("task.id", task.TaskID))
	return p, nil
}

// DeleteTask removes a task. A project that vanished in the meantime is not
// an error and yields a nil project.
func (s *ProjectService) DeleteTask(ctx context.Context, id, email, taskID string, confirmed bool) (*model.Project, error) {
	ctx, span := s.start(ctx, "DeleteTask", id)
	defer span.End()

	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	p, err := s.mutate(ctx, id, email, func(p *model.Project) error {
		tasks, removed := board.RemoveTask(p.Tasks, taskID)
		if !removed {
			return repositories.ErrNoChange
		}
		p.Tasks = tasks
		board.Recompute(p)
		return nil
	})
	if errors.Is(err, ErrProjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fail(span, err)
	}
	return p, nil
}

func (s *ProjectService) MoveTask(ctx context.Context, id, email string, in MoveInput) (*model.Project, error) {
	ctx, span := s.start(ctx, "MoveTask", id)
	defer span.End()

	if !in.TargetStatus.Valid() {
		return nil, fail(span, board.ErrInvalidStatus)
	}
	p, err := s.mutate(ctx, id, email, func(p *model.Project) error {
		tasks, moved := board.MoveTask(p.Tasks, in.TaskID, in.TargetStatus, in.TargetIndex)
		if !moved {
			return repositories.ErrNoChange
		}
		p.Tasks = tasks
		board.Recompute(p)
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}
	return p, nil
}

// Invite adds invitee to the member set. Nothing is sent to the invitee.
func (s *ProjectService) Invite(ctx context.Context, id, email, invitee string) (*model.Project, error) {
	ctx, span := s.start(ctx, "Invite", id)
	defer span.End()

	if err := board.ValidateEmail(invitee); err != nil {
		return nil, fail(span, err)
	}
	p, err := s.mutate(ctx, id, email, func(p *model.Project) error {
		members, err := board.AddMember(p.Members, invitee)
		if err != nil {
			return err
		}
		p.Members = members
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}
	logging.Logger.WithFields(logrus.Fields{"projectId": id, "invitee": board.NormalizeEmail(invitee)}).
		Info("Event ID: MEMBER_INVITED, Description: Member added to project")
	return p, nil
}

type WatchEventType string

const (
	WatchSnapshot      WatchEventType = "snapshot"
	WatchNotFound      WatchEventType = "not-found"
	WatchAccessRevoked WatchEventType = "access-revoked"
	WatchError         WatchEventType = "error"
)

type WatchEvent struct {
	Type    WatchEventType
	Project *model.Project
	Err     error
}

// Watch streams snapshots of a project to one of its members. Every
// snapshot is re-checked; the stream ends with a terminal event when the
// project disappears, the viewer loses membership, or the store fails. The
// channel is closed once ctx is done or after a terminal event.
func (s *ProjectService) Watch(ctx context.Context, id, email string) (<-chan WatchEvent, error) {
	if _, err := s.Access(ctx, id, email); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	events, err := s.projects.Watch(subCtx, id)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch project: %w", err)
	}

	out := make(chan WatchEvent)
	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-subCtx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				next, terminal := classify(ev, email)
				select {
				case out <- next:
				case <-subCtx.Done():
					return
				}
				if terminal {
					if next.Type == WatchAccessRevoked {
						logging.Logger.WithField("projectId", id).
							Infof("Event ID: WATCH_ACCESS_REVOKED, Description: %s removed while watching", email)
					}
					return
				}
			}
		}
	}()
	return out, nil
}

func classify(ev repositories.ProjectEvent, email string) (WatchEvent, bool) {
	switch {
	case ev.Err != nil:
		return WatchEvent{Type: WatchError, Err: ev.Err}, true
	case ev.Project == nil:
		return WatchEvent{Type: WatchNotFound}, true
	case !board.IsMember(ev.Project.Members, email):
		return WatchEvent{Type: WatchAccessRevoked}, true
	default:
		return WatchEvent{Type: WatchSnapshot, Project: ev.Project}, false
	}
}
