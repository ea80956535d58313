package rpc

type MapTaskAssignment struct {
	Task     uint32
	WorkerId uint32
}

type SubmitJobArgs struct {
	Files     []string
	OutputDir string
	App       string
	NReduce   uint32
	Args      []byte
}
type SubmitJobReply struct {
	JobId uint32
}

type PollJobArgs struct {
	JobId uint32
}
type PollJobReply struct {
	Done   bool
	Failed bool
	Errors []string
}

type RegisterArgs struct {
	Hostname string
}
type RegisterReply struct {
	WorkerId  uint32
	SessionId string
}

type HeartbeatArgs struct {
	WorkerId uint32
}
type HeartbeatReply struct {
	Ack bool
}

type GetTaskArgs struct {
	WorkerId uint32
}

// GetTaskReply carries everything a worker needs to run the task without
// calling back until it finishes or fails. Wait is set when there is nothing
// to hand out.
type GetTaskReply struct {
	JobId              uint32
	OutputDir          string
	App                string
	Task               uint32
	File               string
	NReduce            uint32
	NMap               uint32
	Reduce             bool
	Wait               bool
	MapTaskAssignments []MapTaskAssignment
	Args               []byte
}

type FinishTaskArgs struct {
	WorkerId uint32
	JobId    uint32
	Task     uint32
	Reduce   bool
}
type FinishTaskReply struct {
	Ack bool
}

type FailTaskArgs struct {
	WorkerId uint32
	JobId    uint32
	Task     uint32
	Reduce   bool
	Retry    bool
	Error    string
}
type FailTaskReply struct {
	Ack bool
}
