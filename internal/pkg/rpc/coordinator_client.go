package rpc

const ServiceName = "Coordinator"

type CoordinatorClient struct {
	Address string
	Gateway RpcGateway
}

func NewCoordinatorClient(address string) CoordinatorClient {
	return CoordinatorClient{Address: address, Gateway: DefaultRpcGateway{}}
}

func (client CoordinatorClient) SubmitJob(args SubmitJobArgs) (uint32, error) {
	reply := SubmitJobReply{}
	err := client.call("SubmitJob", args, &reply)
	return reply.JobId, err
}

func (client CoordinatorClient) PollJob(jobId uint32) (PollJobReply, error) {
	reply := PollJobReply{}
	err := client.call("PollJob", PollJobArgs{JobId: jobId}, &reply)
	return reply, err
}

func (client CoordinatorClient) Register(hostname string) (RegisterReply, error) {
	reply := RegisterReply{}
	err := client.call("Register", RegisterArgs{Hostname: hostname}, &reply)
	return reply, err
}

func (client CoordinatorClient) Heartbeat(workerId uint32) error {
	return client.call("Heartbeat", HeartbeatArgs{WorkerId: workerId}, &HeartbeatReply{})
}

func (client CoordinatorClient) GetTask(workerId uint32) (GetTaskReply, error) {
	reply := GetTaskReply{}
	err := client.call("GetTask", GetTaskArgs{WorkerId: workerId}, &reply)
	return reply, err
}

func (client CoordinatorClient) FinishTask(args FinishTaskArgs) error {
	return client.call("FinishTask", args, &FinishTaskReply{})
}

func (client CoordinatorClient) FailTask(args FailTaskArgs) error {
	return client.call("FailTask", args, &FailTaskReply{})
}

func (client CoordinatorClient) call(method string, args any, reply any) error {
	return client.Gateway.Call(client.Address, ServiceName+"."+method, args, reply)
}
