package di

import (
	"nibog/infras/scheduler"
	"nibog/transport/event"
	"nibog/transport/task"
)

// Worker bundles the background processes run by cmd/worker.
type Worker struct {
	Task      *task.Task
	Event     *event.Event
	Scheduler scheduler.Scheduler
}
