package coordinator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hkakutalua/mapreduce-coordinator/internal/app"
	"github.com/hkakutalua/mapreduce-coordinator/internal/pkg/rpc"
)

type fakeClock struct {
	mutex   sync.Mutex
	current time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	return clock.current
}

func (clock *fakeClock) Advance(duration time.Duration) {
	clock.mutex.Lock()
	defer clock.mutex.Unlock()
	clock.current = clock.current.Add(duration)
}

func newTestState() (*CoordinatorState, *fakeClock) {
	clock := &fakeClock{current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	state := NewCoordinatorState(app.NewRegistry(), DefaultHeartbeatTimeout)
	state.now = clock.Now
	return state, clock
}

func submitTestJob(t *testing.T, state *CoordinatorState, files []string, nReduce uint32) JobId {
	jobId, err := SubmitJob(state, rpc.SubmitJobArgs{
		Files:     files,
		OutputDir: "/tmp/out",
		App:       "wc",
		NReduce:   nReduce,
		Args:      []byte("-x"),
	})
	require.NoError(t, err)
	return jobId
}

// FakeWorker plays the worker side of the protocol directly against the
// state, without going through the RPC server.
type FakeWorker struct {
	t            *testing.T
	state        *CoordinatorState
	Id           WorkerId
	RequestCount int
}

func registerFakeWorker(t *testing.T, state *CoordinatorState) *FakeWorker {
	reply := RegisterWorker(state, rpc.RegisterArgs{Hostname: "localhost"})
	return &FakeWorker{t: t, state: state, Id: WorkerId(reply.WorkerId)}
}

func (worker *FakeWorker) GetTask() rpc.GetTaskReply {
	reply, err := GetTask(worker.state, rpc.GetTaskArgs{WorkerId: uint32(worker.Id)})
	require.NoError(worker.t, err)

	worker.RequestCount++
	return reply
}

func (worker *FakeWorker) Heartbeat() {
	require.NoError(worker.t, Heartbeat(worker.state, rpc.HeartbeatArgs{WorkerId: uint32(worker.Id)}))
}

func (worker *FakeWorker) Finish(reply rpc.GetTaskReply) {
	err := FinishTask(worker.state, rpc.FinishTaskArgs{
		WorkerId: uint32(worker.Id),
		JobId:    reply.JobId,
		Task:     reply.Task,
		Reduce:   reply.Reduce,
	})
	require.NoError(worker.t, err)
}

func (worker *FakeWorker) Fail(reply rpc.GetTaskReply, retry bool, message string) error {
	return FailTask(worker.state, rpc.FailTaskArgs{
		WorkerId: uint32(worker.Id),
		JobId:    reply.JobId,
		Task:     reply.Task,
		Reduce:   reply.Reduce,
		Retry:    retry,
		Error:    message,
	})
}
