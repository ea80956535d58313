package coordinator

import (
	"log"

	"github.com/hkakutalua/mapreduce-coordinator/internal/pkg/rpc"
)

// GetTask answers a worker poll. Stale workers are reaped first, so a dead
// worker's task is only reassigned once some worker asks for work.
func GetTask(state *CoordinatorState, args rpc.GetTaskArgs) (rpc.GetTaskReply, error) {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	reapStaleWorkers(state)

	workerId := WorkerId(args.WorkerId)
	if _, ok := state.Workers[workerId]; !ok {
		return rpc.GetTaskReply{}, rpc.Errorf(rpc.NotFound, "worker %v not found", args.WorkerId)
	}

	job := getFirstJobNotFullyAssigned(state)
	if job == nil {
		return waitReply(), nil
	}

	if job.Phase == Pending {
		job.Phase = Mapping
	}

	reply := rpc.GetTaskReply{
		JobId:              uint32(job.Id),
		OutputDir:          job.OutputDir,
		App:                job.App,
		Args:               job.Args,
		NReduce:            uint32(job.NReduce),
		NMap:               uint32(len(job.Files)),
		MapTaskAssignments: append([]rpc.MapTaskAssignment(nil), job.MapTaskAssignments...),
	}

	switch job.Phase {
	case Mapping:
		mapTask := getFirstIdleMapTask(job)
		if mapTask == nil {
			return waitReply(), nil
		}

		assignMapTaskToWorker(job, mapTask, workerId)
		reply.Task = uint32(mapTask.Id)
		reply.File = mapTask.InputFile
		reply.Reduce = false
	case Reducing:
		if !job.AllMapTasksAreCompleted() {
			return waitReply(), nil
		}

		reduceTask := getFirstIdleReduceTask(job)
		if reduceTask == nil {
			return waitReply(), nil
		}

		assignReduceTaskToWorker(job, reduceTask, workerId)
		reply.Task = uint32(reduceTask.Id)
		reply.Reduce = true
	default:
		return waitReply(), nil
	}

	state.ChangeWorkerToBusy(workerId, job.Id, TaskNumber(reply.Task), reply.Reduce)

	log.Printf("assigned task %v (reduce: %v) of job %v to worker %v", reply.Task, reply.Reduce, job.Id, workerId)
	return reply, nil
}

func waitReply() rpc.GetTaskReply {
	return rpc.GetTaskReply{Wait: true}
}

func getFirstJobNotFullyAssigned(state *CoordinatorState) *Job {
	for _, jobId := range state.JobQueue {
		job, ok := state.Jobs[jobId]
		if ok && !job.IsFullyAssigned {
			return job
		}
	}

	return nil
}

func getFirstIdleMapTask(job *Job) *MapTask {
	for i := range job.MapTasks {
		if job.MapTasks[i].Status == TaskIdle {
			return &job.MapTasks[i]
		}
	}

	return nil
}

func getFirstIdleReduceTask(job *Job) *ReduceTask {
	for i := range job.ReduceTasks {
		if job.ReduceTasks[i].Status == TaskIdle {
			return &job.ReduceTasks[i]
		}
	}

	return nil
}

// Handing out the task with the highest index marks the job as fully
// assigned, even if lower-index tasks are still idle.
func assignMapTaskToWorker(job *Job, mapTask *MapTask, workerId WorkerId) {
	mapTask.Status = TaskAssigned
	mapTask.WorkerAssignedId = workerId

	if int(mapTask.Id) == len(job.Files)-1 {
		job.IsFullyAssigned = true
	}
}

func assignReduceTaskToWorker(job *Job, reduceTask *ReduceTask, workerId WorkerId) {
	reduceTask.Status = TaskAssigned
	reduceTask.WorkerAssignedId = workerId

	if int(reduceTask.Id) == job.NReduce-1 {
		job.IsFullyAssigned = true
	}
}
