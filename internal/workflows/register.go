package workflows

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker) {
	w.RegisterWorkflow(CourseIngestWorkflow)
	w.RegisterWorkflow(MaterialProcessWorkflow)
	w.RegisterWorkflow(BackfillWorkflow)
}
