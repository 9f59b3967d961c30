package model

import "time"

type Project struct {
	ProjectID   string    `firestore:"-" bson:"_id" json:"id"`
	Name        string    `firestore:"name" bson:"name" json:"name"`
	Description string    `firestore:"description" bson:"description" json:"description"`
	Github      string    `firestore:"github,omitempty" bson:"github,omitempty" json:"github,omitempty"`
	Progress    int       `firestore:"progress" bson:"progress" json:"progress"`
	Status      string    `firestore:"status" bson:"status" json:"status"`
	DueDate     string    `firestore:"dueDate" bson:"dueDate" json:"dueDate"`
	Members     []string  `firestore:"members" bson:"members" json:"members"`
	Tasks       []Task    `firestore:"tasks" bson:"tasks" json:"tasks"`
	Version     int64     `firestore:"version" bson:"version" json:"version"`
	CreatedAt   time.Time `firestore:"createdAt,serverTimestamp" bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt,serverTimestamp" bson:"updatedAt" json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate tasks and members freely.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Members = append([]string(nil), p.Members...)
	cp.Tasks = append([]Task(nil), p.Tasks...)
	return &cp
}
