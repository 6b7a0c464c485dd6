package tasks

import "github.com/hibiken/asynq"

// TaskEnqueuer hands catalog scan tasks to the queue worker. The server uses
// an *asynq.Client; handler tests use test.MockTaskEnqueuer.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
