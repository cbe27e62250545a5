package model

import "github.com/google/uuid"

// TaskProcessInterview is the task name shared between the API producer
// and worker consumers. Both sides must use the same string or messages
// are silently undeliverable.
const TaskProcessInterview = "process_interview"

// TaskMessage is the queue envelope. The broker serializes it as JSON;
// field order is fixed so a message can be located again by value.
type TaskMessage struct {
	ID      string   `json:"id"`
	Task    string   `json:"task"`
	Args    []string `json:"args"`
	Retries int      `json:"retries"`
}

func NewTaskMessage(task string, args ...string) *TaskMessage {
	return &TaskMessage{
		ID:   uuid.NewString(),
		Task: task,
		Args: args,
	}
}
