package coordinator

import (
	"log"

	"github.com/hkakutalua/mapreduce-coordinator/internal/pkg/rpc"
)

// FailTask handles a failure reported by a worker. A retryable failure puts
// the task back up for grabs; any other failure aborts the whole job and the
// returned error tells the worker to stop working on it.
func FailTask(state *CoordinatorState, args rpc.FailTaskArgs) error {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	workerId := WorkerId(args.WorkerId)
	job, ok := state.Jobs[JobId(args.JobId)]
	if !ok {
		return rpc.Errorf(rpc.NotFound, "job %v not found", args.JobId)
	}

	log.Printf("task %v (reduce: %v) of job %v failed on worker %v, retry: %v: %v",
		args.Task, args.Reduce, job.Id, workerId, args.Retry, args.Error)

	if job.IsTerminal() {
		state.ChangeWorkerToIdle(workerId)
		if job.Phase == Failed {
			return rpc.Errorf(rpc.FailedPrecondition, "job %v has already failed", job.Id)
		}
		return nil
	}

	errorMessage := args.Error
	job.ErrorMessage = &errorMessage

	if args.Reduce && !job.AllMapTasksAreCompleted() {
		log.Printf("rejecting reduce task %v failure for job %v because not all map tasks are completed",
			args.Task, job.Id)
		return rpc.Errorf(rpc.FailedPrecondition, "not all map tasks of job %v are completed", job.Id)
	}

	state.ChangeWorkerToIdle(workerId)

	if !args.Retry {
		abortJob(state, job)
		return rpc.Errorf(rpc.FailedPrecondition, "job %v aborted: %v", job.Id, args.Error)
	}

	if args.Reduce {
		releaseReduceTask(job, TaskNumber(args.Task))
	} else {
		releaseMapTask(job, TaskNumber(args.Task))
		if job.Phase == Reducing {
			log.Printf("job %v lost map task %v, going back to map phase", job.Id, args.Task)
			job.Phase = Mapping
		}
	}
	job.IsFullyAssigned = false

	return nil
}

func releaseMapTask(job *Job, mapTaskId TaskNumber) {
	mapTask := job.GetMapTaskById(mapTaskId)
	if mapTask == nil {
		job.MapTasks = append(job.MapTasks, MapTask{Id: mapTaskId, Status: TaskIdle})
		return
	}

	mapTask.Status = TaskIdle
	mapTask.WorkerAssignedId = NoWorker
}

func releaseReduceTask(job *Job, reduceTaskId TaskNumber) {
	reduceTask := job.GetReduceTaskById(reduceTaskId)
	if reduceTask == nil {
		job.ReduceTasks = append(job.ReduceTasks, ReduceTask{Id: reduceTaskId, Status: TaskIdle})
		return
	}

	reduceTask.Status = TaskIdle
	reduceTask.WorkerAssignedId = NoWorker
}

func abortJob(state *CoordinatorState, job *Job) {
	job.Phase = Failed
	job.IsFullyAssigned = true

	for i := range job.MapTasks {
		job.MapTasks[i].Status = TaskFailed
	}

	for i := range job.ReduceTasks {
		job.ReduceTasks[i].Status = TaskFailed
	}

	state.retireJob(job.Id)
	log.Printf("job %v failed due to task failure", job.Id)
}
