package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkakutalua/mapreduce-coordinator/internal/pkg/rpc"
)

func TestThat_ItShouldCreateOneTaskPerFileAndPartition_WhenJobIsSubmitted(t *testing.T) {
	state, _ := newTestState()

	jobId := submitTestJob(t, state, []string{"a.txt", "b.txt", "c.txt"}, 2)

	job := state.Jobs[jobId]
	assert.Equal(t, JobId(1), jobId)
	assert.Equal(t, Pending, job.Phase)
	assert.Equal(t, []JobId{jobId}, state.JobQueue)
	require.Len(t, job.MapTasks, 3)
	require.Len(t, job.ReduceTasks, 2)
	for i, mapTask := range job.MapTasks {
		assert.Equal(t, TaskNumber(i), mapTask.Id)
		assert.Equal(t, TaskIdle, mapTask.Status)
		assert.Equal(t, NoWorker, mapTask.WorkerAssignedId)
	}
	assert.Equal(t, "c.txt", job.MapTasks[2].InputFile)
	assert.Equal(t, TaskNumber(1), job.ReduceTasks[1].Id)
	assert.Equal(t, []byte("-x"), job.Args)
	assert.Nil(t, job.ErrorMessage)
}

func TestThat_JobIdsAreSequential_WhenSeveralJobsAreSubmitted(t *testing.T) {
	state, _ := newTestState()

	firstJobId := submitTestJob(t, state, []string{"a"}, 1)
	secondJobId := submitTestJob(t, state, []string{"b"}, 1)

	assert.Equal(t, JobId(1), firstJobId)
	assert.Equal(t, JobId(2), secondJobId)
	assert.Equal(t, []JobId{1, 2}, state.JobQueue)
}

func TestThat_ItShouldRejectJob_WhenAppIsUnknown(t *testing.T) {
	state, _ := newTestState()

	jobId, err := SubmitJob(state, rpc.SubmitJobArgs{Files: []string{"a"}, App: "sort", NReduce: 1})

	assert.Equal(t, rpc.InvalidArgument, rpc.CodeOf(err))
	assert.Equal(t, JobId(0), jobId)
	assert.Empty(t, state.Jobs)
	assert.Empty(t, state.JobQueue)
}

func TestThat_ItShouldRejectJob_WhenItCouldNeverProgress(t *testing.T) {
	state, _ := newTestState()

	_, noFilesErr := SubmitJob(state, rpc.SubmitJobArgs{App: "wc", NReduce: 1})
	_, noPartitionsErr := SubmitJob(state, rpc.SubmitJobArgs{Files: []string{"a"}, App: "wc"})

	assert.Equal(t, rpc.InvalidArgument, rpc.CodeOf(noFilesErr))
	assert.Equal(t, rpc.InvalidArgument, rpc.CodeOf(noPartitionsErr))
	assert.Equal(t, JobId(0), state.LastJobId)
}

func TestThat_PollJobFails_WhenJobDoesNotExist(t *testing.T) {
	state, _ := newTestState()

	_, err := PollJob(state, rpc.PollJobArgs{JobId: 99})

	assert.Equal(t, rpc.NotFound, rpc.CodeOf(err))
}

func TestThat_PollJobReportsNotDone_WhenJobIsInProgress(t *testing.T) {
	state, _ := newTestState()
	jobId := submitTestJob(t, state, []string{"a"}, 1)

	reply, err := PollJob(state, rpc.PollJobArgs{JobId: uint32(jobId)})

	assert.NoError(t, err)
	assert.False(t, reply.Done)
	assert.False(t, reply.Failed)
	assert.Empty(t, reply.Errors)
}

func TestThat_JobMovesToReducing_WhenAllMapTasksAreFinished(t *testing.T) {
	state, _ := newTestState()
	jobId := submitTestJob(t, state, []string{"a", "b"}, 1)
	worker1 := registerFakeWorker(t, state)
	worker2 := registerFakeWorker(t, state)
	mapTask1 := worker1.GetTask()
	mapTask2 := worker2.GetTask()

	worker1.Finish(mapTask1)
	assert.Equal(t, Mapping, state.Jobs[jobId].Phase)

	worker2.Finish(mapTask2)

	job := state.Jobs[jobId]
	assert.Equal(t, Reducing, job.Phase)
	assert.False(t, job.IsFullyAssigned)
	assert.Equal(t, []rpc.MapTaskAssignment{
		{Task: 0, WorkerId: uint32(worker1.Id)},
		{Task: 1, WorkerId: uint32(worker2.Id)},
	}, job.MapTaskAssignments)
	assert.Equal(t, WorkerIdle, state.Workers[worker1.Id].Status)
	assert.Equal(t, WorkerIdle, state.Workers[worker2.Id].Status)
}

func TestThat_FinishingTaskTwice_DoesNotCorruptCompletion(t *testing.T) {
	state, _ := newTestState()
	jobId := submitTestJob(t, state, []string{"a", "b"}, 1)
	worker := registerFakeWorker(t, state)
	mapTask := worker.GetTask()

	worker.Finish(mapTask)
	worker.Finish(mapTask)

	job := state.Jobs[jobId]
	assert.Equal(t, Mapping, job.Phase)
	assert.Equal(t, TaskCompleted, job.MapTasks[0].Status)
	assert.Equal(t, TaskIdle, job.MapTasks[1].Status)
}

func TestThat_LateMapCompletion_DoesNotRestartReducePhase(t *testing.T) {
	state, _ := newTestState()
	jobId := submitTestJob(t, state, []string{"a"}, 2)
	worker := registerFakeWorker(t, state)
	mapTask := worker.GetTask()
	worker.Finish(mapTask)
	reduceTask := worker.GetTask()
	require.True(t, reduceTask.Reduce)

	worker.Finish(mapTask)

	job := state.Jobs[jobId]
	assert.Equal(t, Reducing, job.Phase)
	assert.Equal(t, TaskAssigned, job.ReduceTasks[0].Status)
	assert.False(t, job.IsFullyAssigned)
}

func TestThat_JobIsDone_WhenAllReduceTasksAreFinished(t *testing.T) {
	state, _ := newTestState()
	jobId := submitTestJob(t, state, []string{"a"}, 2)
	otherJobId := submitTestJob(t, state, []string{"b"}, 1)
	worker := registerFakeWorker(t, state)
	worker.Finish(worker.GetTask())
	reduceTask1 := worker.GetTask()
	reduceTask2 := worker.GetTask()
	require.Equal(t, uint32(jobId), reduceTask1.JobId)
	require.Equal(t, uint32(jobId), reduceTask2.JobId)

	worker.Finish(reduceTask1)
	assert.Equal(t, Reducing, state.Jobs[jobId].Phase)
	worker.Finish(reduceTask2)

	assert.Equal(t, Done, state.Jobs[jobId].Phase)
	assert.Equal(t, []JobId{otherJobId}, state.JobQueue)
	assert.NotContains(t, state.Workers[worker.Id].JobIds, jobId)

	reply, err := PollJob(state, rpc.PollJobArgs{JobId: uint32(jobId)})
	assert.NoError(t, err)
	assert.True(t, reply.Done)
	assert.False(t, reply.Failed)
}

func TestThat_FinishTaskIsIgnored_WhenJobIsAlreadyDone(t *testing.T) {
	state, _ := newTestState()
	jobId := submitTestJob(t, state, []string{"a"}, 1)
	worker := registerFakeWorker(t, state)
	mapTask := worker.GetTask()
	worker.Finish(mapTask)
	worker.Finish(worker.GetTask())
	require.Equal(t, Done, state.Jobs[jobId].Phase)

	worker.Finish(mapTask)

	assert.Equal(t, Done, state.Jobs[jobId].Phase)
	assert.Empty(t, state.JobQueue)
}

func TestThat_FinishTaskFails_WhenWorkerOrJobIsUnknown(t *testing.T) {
	state, _ := newTestState()
	jobId := submitTestJob(t, state, []string{"a"}, 1)
	worker := registerFakeWorker(t, state)

	unknownWorkerErr := FinishTask(state, rpc.FinishTaskArgs{WorkerId: 77, JobId: uint32(jobId)})
	unknownJobErr := FinishTask(state, rpc.FinishTaskArgs{WorkerId: uint32(worker.Id), JobId: 77})
	unknownTaskErr := FinishTask(state, rpc.FinishTaskArgs{WorkerId: uint32(worker.Id), JobId: uint32(jobId), Task: 5})

	assert.Equal(t, rpc.NotFound, rpc.CodeOf(unknownWorkerErr))
	assert.Equal(t, rpc.NotFound, rpc.CodeOf(unknownJobErr))
	assert.Equal(t, rpc.NotFound, rpc.CodeOf(unknownTaskErr))
	assert.Equal(t, TaskIdle, state.Jobs[jobId].MapTasks[0].Status)
}
