package coordinator

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hkakutalua/mapreduce-coordinator/internal/app"
	"github.com/hkakutalua/mapreduce-coordinator/internal/pkg/rpc"
)

const DefaultHeartbeatTimeout = 7 * time.Second

type JobId uint32
type WorkerId uint32
type TaskNumber uint32

const NoWorker WorkerId = 0

type JobPhase uint8

const (
	Pending  JobPhase = 0
	Mapping  JobPhase = 1
	Reducing JobPhase = 2
	Done     JobPhase = 3
	Failed   JobPhase = 4
)

func (phase JobPhase) String() string {
	switch phase {
	case Pending:
		return "pending"
	case Mapping:
		return "mapping"
	case Reducing:
		return "reducing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}

	return "unknown"
}

type TaskStatus uint8

const (
	TaskIdle      TaskStatus = 0
	TaskAssigned  TaskStatus = 1
	TaskCompleted TaskStatus = 2
	TaskFailed    TaskStatus = 3
)

type WorkerStatus uint8

const (
	WorkerIdle WorkerStatus = 0
	WorkerBusy WorkerStatus = 1
	WorkerDead WorkerStatus = 2
)

type Worker struct {
	Id            WorkerId
	Hostname      string
	LastHeartbeat time.Time
	Status        WorkerStatus
	JobId         JobId
	TaskNumber    TaskNumber
	IsReduceTask  bool
	// Every job this worker touched that has not finished yet.
	JobIds []JobId
}

type MapTask struct {
	Id               TaskNumber
	Status           TaskStatus
	InputFile        string
	WorkerAssignedId WorkerId
}

type ReduceTask struct {
	Id               TaskNumber
	Status           TaskStatus
	WorkerAssignedId WorkerId
}

type Job struct {
	Id                 JobId
	Files              []string
	App                string
	OutputDir          string
	Args               []byte
	NReduce            int
	Phase              JobPhase
	MapTasks           []MapTask
	ReduceTasks        []ReduceTask
	MapTaskAssignments []rpc.MapTaskAssignment
	// Set when no more tasks of the current phase should be offered for now.
	IsFullyAssigned bool
	ErrorMessage    *string
}

type CoordinatorState struct {
	LastJobId        JobId
	LastWorkerId     WorkerId
	Jobs             map[JobId]*Job
	Workers          map[WorkerId]*Worker
	JobQueue         []JobId
	Apps             app.Registry
	HeartbeatTimeout time.Duration
	SessionId        uuid.UUID
	now              func() time.Time
	mutex            sync.Mutex
}

func NewCoordinatorState(apps app.Registry, heartbeatTimeout time.Duration) *CoordinatorState {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = DefaultHeartbeatTimeout
	}

	return &CoordinatorState{
		Jobs:             make(map[JobId]*Job),
		Workers:          make(map[WorkerId]*Worker),
		JobQueue:         make([]JobId, 0),
		Apps:             apps,
		HeartbeatTimeout: heartbeatTimeout,
		SessionId:        uuid.New(),
		now:              time.Now,
	}
}

func (state *CoordinatorState) isJobQueued(jobId JobId) bool {
	for _, queuedJobId := range state.JobQueue {
		if queuedJobId == jobId {
			return true
		}
	}

	return false
}

func (state *CoordinatorState) enqueueJob(jobId JobId) {
	if !state.isJobQueued(jobId) {
		state.JobQueue = append(state.JobQueue, jobId)
	}
}

func (state *CoordinatorState) dequeueJob(jobId JobId) {
	remaining := state.JobQueue[:0]
	for _, queuedJobId := range state.JobQueue {
		if queuedJobId != jobId {
			remaining = append(remaining, queuedJobId)
		}
	}

	state.JobQueue = remaining
}

// retireJob takes a terminal job out of scheduling and out of every worker's
// history so reaping a worker later cannot touch it.
func (state *CoordinatorState) retireJob(jobId JobId) {
	state.dequeueJob(jobId)

	for _, worker := range state.Workers {
		worker.JobIds = removeJobId(worker.JobIds, jobId)
	}
}

func (state *CoordinatorState) ChangeWorkerToIdle(workerId WorkerId) {
	worker, ok := state.Workers[workerId]
	if !ok {
		return
	}

	worker.Status = WorkerIdle
	worker.JobId = 0
	worker.TaskNumber = 0
	worker.IsReduceTask = false
}

func (state *CoordinatorState) ChangeWorkerToBusy(workerId WorkerId, jobId JobId, taskNumber TaskNumber, isReduceTask bool) {
	worker := state.Workers[workerId]
	worker.Status = WorkerBusy
	worker.JobId = jobId
	worker.TaskNumber = taskNumber
	worker.IsReduceTask = isReduceTask

	for _, touchedJobId := range worker.JobIds {
		if touchedJobId == jobId {
			return
		}
	}

	worker.JobIds = append(worker.JobIds, jobId)
}

func (job *Job) IsTerminal() bool {
	return job.Phase == Done || job.Phase == Failed
}

func (job *Job) AllMapTasksAreCompleted() bool {
	for _, mapTask := range job.MapTasks {
		if mapTask.Status != TaskCompleted {
			return false
		}
	}

	return true
}

func (job *Job) AllReduceTasksAreCompleted() bool {
	for _, reduceTask := range job.ReduceTasks {
		if reduceTask.Status != TaskCompleted {
			return false
		}
	}

	return true
}

func (job *Job) GetMapTaskById(mapTaskId TaskNumber) *MapTask {
	for i := range job.MapTasks {
		if job.MapTasks[i].Id == mapTaskId {
			return &job.MapTasks[i]
		}
	}

	return nil
}

func (job *Job) GetReduceTaskById(reduceTaskId TaskNumber) *ReduceTask {
	for i := range job.ReduceTasks {
		if job.ReduceTasks[i].Id == reduceTaskId {
			return &job.ReduceTasks[i]
		}
	}

	return nil
}

func (job *Job) mapTaskAssignmentsFromHolders() []rpc.MapTaskAssignment {
	assignments := make([]rpc.MapTaskAssignment, 0, len(job.MapTasks))

	for _, mapTask := range job.MapTasks {
		if mapTask.WorkerAssignedId != NoWorker {
			assignments = append(assignments, rpc.MapTaskAssignment{
				Task:     uint32(mapTask.Id),
				WorkerId: uint32(mapTask.WorkerAssignedId),
			})
		}
	}

	return assignments
}

func (job *Job) isEveryTaskOfCurrentPhaseAssigned() bool {
	switch job.Phase {
	case Pending, Mapping:
		for _, mapTask := range job.MapTasks {
			if mapTask.Status != TaskAssigned {
				return false
			}
		}
		return len(job.MapTasks) > 0
	case Reducing:
		for _, reduceTask := range job.ReduceTasks {
			if reduceTask.Status != TaskAssigned {
				return false
			}
		}
		return len(job.ReduceTasks) > 0
	}

	return false
}

func removeJobId(jobIds []JobId, jobId JobId) []JobId {
	remaining := jobIds[:0]
	for _, touchedJobId := range jobIds {
		if touchedJobId != jobId {
			remaining = append(remaining, touchedJobId)
		}
	}

	return remaining
}
