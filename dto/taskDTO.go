package dto

type CreateTaskRequest struct {
	Name   string `json:"name" binding:"required"`
	Status string `json:"status" binding:"omitempty,oneof=pending ongoing completed"`
}

type MoveTaskRequest struct {
	SourceStatus string `json:"sourceStatus" binding:"omitempty,oneof=pending ongoing completed"`
	TargetStatus string `json:"targetStatus" binding:"required,oneof=pending ongoing completed"`
	SourceIndex  int    `json:"sourceIndex" binding:"min=0"`
	TargetIndex  int    `json:"targetIndex" binding:"min=0"`
}
