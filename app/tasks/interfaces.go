package tasks

// TaskSchedulerInterface defines the interface for background sync cycle
// scheduling. Used by the main application to run periodic catalog syncs in
// daemon mode.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
