package model

import (
	"time"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskOngoing   TaskStatus = "ongoing"
	TaskCompleted TaskStatus = "completed"
)

// TaskStatuses lists the board columns in display order.
var TaskStatuses = []TaskStatus{TaskPending, TaskOngoing, TaskCompleted}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskOngoing, TaskCompleted:
		return true
	}
	return false
}

type Task struct {
	TaskID    string     `firestore:"id" bson:"id" json:"id"`
	Name      string     `firestore:"name" bson:"name" json:"name"`
	Status    TaskStatus `firestore:"status" bson:"status" json:"status"`
	User      TaskUser   `firestore:"user" bson:"user" json:"user"`
	CreatedAt time.Time  `firestore:"createdAt" bson:"createdAt" json:"createdAt"`
}

// TaskUser is the creator snapshot taken when the task is added.
type TaskUser struct {
	Name   string `firestore:"name" bson:"name" json:"name"`
	Email  string `firestore:"email" bson:"email" json:"email"`
	Avatar string `firestore:"avatar" bson:"avatar" json:"avatar"`
}
