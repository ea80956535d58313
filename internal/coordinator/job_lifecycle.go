package coordinator

import (
	"log"

	"github.com/hkakutalua/mapreduce-coordinator/internal/pkg/rpc"
)

func SubmitJob(state *CoordinatorState, args rpc.SubmitJobArgs) (JobId, error) {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	if err := state.Apps.Named(args.App); err != nil {
		return 0, rpc.Errorf(rpc.InvalidArgument, "%v", err)
	}

	if len(args.Files) == 0 {
		return 0, rpc.Errorf(rpc.InvalidArgument, "job has no input files")
	}

	if args.NReduce == 0 {
		return 0, rpc.Errorf(rpc.InvalidArgument, "job needs at least one reduce partition")
	}

	state.LastJobId++
	job := &Job{
		Id:          state.LastJobId,
		Files:       append([]string(nil), args.Files...),
		App:         args.App,
		OutputDir:   args.OutputDir,
		Args:        append([]byte(nil), args.Args...),
		NReduce:     int(args.NReduce),
		Phase:       Pending,
		MapTasks:    make([]MapTask, 0, len(args.Files)),
		ReduceTasks: make([]ReduceTask, 0, args.NReduce),
	}

	for i, file := range args.Files {
		job.MapTasks = append(job.MapTasks, MapTask{Id: TaskNumber(i), Status: TaskIdle, InputFile: file})
	}

	for i := 0; i < job.NReduce; i++ {
		job.ReduceTasks = append(job.ReduceTasks, ReduceTask{Id: TaskNumber(i), Status: TaskIdle})
	}

	state.Jobs[job.Id] = job
	state.enqueueJob(job.Id)

	log.Printf("submitted job %v (app %v, %v map tasks, %v reduce tasks)",
		job.Id, job.App, len(job.MapTasks), len(job.ReduceTasks))
	return job.Id, nil
}

func PollJob(state *CoordinatorState, args rpc.PollJobArgs) (rpc.PollJobReply, error) {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	job, ok := state.Jobs[JobId(args.JobId)]
	if !ok {
		return rpc.PollJobReply{}, rpc.Errorf(rpc.NotFound, "job %v not found", args.JobId)
	}

	switch job.Phase {
	case Done:
		return rpc.PollJobReply{Done: true, Errors: []string{}}, nil
	case Failed:
		errors := []string{}
		if job.ErrorMessage != nil {
			errors = append(errors, *job.ErrorMessage)
		}
		return rpc.PollJobReply{Done: true, Failed: true, Errors: errors}, nil
	}

	return rpc.PollJobReply{Errors: []string{}}, nil
}

func FinishTask(state *CoordinatorState, args rpc.FinishTaskArgs) error {
	state.mutex.Lock()
	defer state.mutex.Unlock()

	workerId := WorkerId(args.WorkerId)
	if _, ok := state.Workers[workerId]; !ok {
		return rpc.Errorf(rpc.NotFound, "worker %v not found", args.WorkerId)
	}

	job, ok := state.Jobs[JobId(args.JobId)]
	if !ok {
		return rpc.Errorf(rpc.NotFound, "job %v not found", args.JobId)
	}

	state.ChangeWorkerToIdle(workerId)

	if job.IsTerminal() {
		log.Printf("skipping task %v completion from worker %v because job %v is %v",
			args.Task, workerId, job.Id, job.Phase)
		return nil
	}

	if args.Reduce {
		reduceTask := job.GetReduceTaskById(TaskNumber(args.Task))
		if reduceTask == nil {
			return rpc.Errorf(rpc.NotFound, "reduce task %v not found in job %v", args.Task, job.Id)
		}

		reduceTask.Status = TaskCompleted
		reduceTask.WorkerAssignedId = workerId
	} else {
		mapTask := job.GetMapTaskById(TaskNumber(args.Task))
		if mapTask == nil {
			return rpc.Errorf(rpc.NotFound, "map task %v not found in job %v", args.Task, job.Id)
		}

		mapTask.Status = TaskCompleted
		mapTask.WorkerAssignedId = workerId

		if (job.Phase == Pending || job.Phase == Mapping) && job.AllMapTasksAreCompleted() {
			startReducePhase(job)
		}
	}

	if job.Phase == Reducing && job.AllMapTasksAreCompleted() && job.AllReduceTasksAreCompleted() {
		job.Phase = Done
		state.retireJob(job.Id)
		log.Printf("job %v is done", job.Id)
	}

	return nil
}

func startReducePhase(job *Job) {
	job.Phase = Reducing
	job.IsFullyAssigned = false
	job.MapTaskAssignments = job.mapTaskAssignmentsFromHolders()

	log.Printf("all map tasks of job %v are completed, starting reduce phase", job.Id)
}
