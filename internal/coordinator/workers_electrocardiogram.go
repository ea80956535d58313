package coordinator

import (
	"log"
	"sort"

	"github.com/hkakutalua/mapreduce-coordinator/internal/pkg/rpc"
)

func RegisterWorker(state *CoordinatorState, args rpc.RegisterArgs) rpc.RegisterReply {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	state.LastWorkerId++
	worker := &Worker{
		Id:            state.LastWorkerId,
		Hostname:      args.Hostname,
		LastHeartbeat: state.now(),
		Status:        WorkerIdle,
		JobIds:        make([]JobId, 0),
	}
	state.Workers[worker.Id] = worker

	log.Printf("registered worker %v (host %q)", worker.Id, worker.Hostname)
	return rpc.RegisterReply{WorkerId: uint32(worker.Id), SessionId: state.SessionId.String()}
}

func Heartbeat(state *CoordinatorState, args rpc.HeartbeatArgs) error {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	worker, ok := state.Workers[WorkerId(args.WorkerId)]
	if !ok {
		return rpc.Errorf(rpc.NotFound, "worker %v not found", args.WorkerId)
	}

	worker.LastHeartbeat = state.now()
	return nil
}

// reapStaleWorkers removes every worker whose last heartbeat is older than the
// timeout and hands its work back to the scheduler. Callers hold the mutex.
func reapStaleWorkers(state *CoordinatorState) []WorkerId {
	currentTime := state.now()
	staleWorkerIds := make([]WorkerId, 0)

	for workerId, worker := range state.Workers {
		if currentTime.Sub(worker.LastHeartbeat) > state.HeartbeatTimeout {
			staleWorkerIds = append(staleWorkerIds, workerId)
		}
	}

	sort.Slice(staleWorkerIds, func(i, j int) bool { return staleWorkerIds[i] < staleWorkerIds[j] })

	for _, workerId := range staleWorkerIds {
		worker := state.Workers[workerId]
		worker.Status = WorkerDead
		log.Printf("worker %v has timed out", workerId)

		for _, jobId := range worker.JobIds {
			job, ok := state.Jobs[jobId]
			if !ok || job.IsTerminal() {
				continue
			}

			releaseTasksOfDeadWorker(job, workerId)

			if !state.isJobQueued(jobId) {
				state.JobQueue = append(state.JobQueue, jobId)
			}
		}

		delete(state.Workers, workerId)
	}

	return staleWorkerIds
}

func releaseTasksOfDeadWorker(job *Job, workerId WorkerId) {
	lostCompletedMapOutput := false

	// Map output lives on the worker that produced it, so completed map tasks
	// are lost together with their worker.
	for i, mapTask := range job.MapTasks {
		if mapTask.WorkerAssignedId != workerId {
			continue
		}

		if mapTask.Status == TaskCompleted {
			lostCompletedMapOutput = true
		}

		mapTask.Status = TaskIdle
		mapTask.WorkerAssignedId = NoWorker
		job.MapTasks[i] = mapTask
		log.Printf("reassigning map task %v of job %v", mapTask.Id, job.Id)
	}

	for i, reduceTask := range job.ReduceTasks {
		if reduceTask.WorkerAssignedId != workerId || reduceTask.Status == TaskCompleted {
			continue
		}

		reduceTask.Status = TaskIdle
		reduceTask.WorkerAssignedId = NoWorker
		job.ReduceTasks[i] = reduceTask
		log.Printf("reassigning reduce task %v of job %v", reduceTask.Id, job.Id)
	}

	remainingAssignments := job.MapTaskAssignments[:0]
	for _, assignment := range job.MapTaskAssignments {
		if WorkerId(assignment.WorkerId) != workerId {
			remainingAssignments = append(remainingAssignments, assignment)
		}
	}
	job.MapTaskAssignments = remainingAssignments

	if lostCompletedMapOutput && job.Phase == Reducing {
		log.Printf("job %v lost map output of worker %v, going back to map phase", job.Id, workerId)
		job.Phase = Mapping
	}

	job.IsFullyAssigned = job.isEveryTaskOfCurrentPhaseAssigned()
}
