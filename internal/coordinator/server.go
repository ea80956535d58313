package coordinator

import (
	"errors"
	"log"
	"net"
	golangrpc "net/rpc"
	"sync"

	"github.com/hkakutalua/mapreduce-coordinator/internal/pkg/rpc"
)

// Coordinator exposes the state operations as net/rpc methods. Every method
// is one state transition under the state mutex.
type Coordinator struct {
	state *CoordinatorState
}

func NewCoordinator(state *CoordinatorState) *Coordinator {
	return &Coordinator{state: state}
}

func (coordinator *Coordinator) SubmitJob(args rpc.SubmitJobArgs, reply *rpc.SubmitJobReply) error {
	jobId, err := SubmitJob(coordinator.state, args)
	if err != nil {
		return err
	}

	reply.JobId = uint32(jobId)
	return nil
}

func (coordinator *Coordinator) PollJob(args rpc.PollJobArgs, reply *rpc.PollJobReply) error {
	pollJobReply, err := PollJob(coordinator.state, args)
	if err != nil {
		return err
	}

	*reply = pollJobReply
	return nil
}

func (coordinator *Coordinator) Register(args rpc.RegisterArgs, reply *rpc.RegisterReply) error {
	*reply = RegisterWorker(coordinator.state, args)
	return nil
}

func (coordinator *Coordinator) Heartbeat(args rpc.HeartbeatArgs, reply *rpc.HeartbeatReply) error {
	if err := Heartbeat(coordinator.state, args); err != nil {
		return err
	}

	reply.Ack = true
	return nil
}

func (coordinator *Coordinator) GetTask(args rpc.GetTaskArgs, reply *rpc.GetTaskReply) error {
	getTaskReply, err := GetTask(coordinator.state, args)
	if err != nil {
		return err
	}

	*reply = getTaskReply
	return nil
}

func (coordinator *Coordinator) FinishTask(args rpc.FinishTaskArgs, reply *rpc.FinishTaskReply) error {
	if err := FinishTask(coordinator.state, args); err != nil {
		return err
	}

	reply.Ack = true
	return nil
}

func (coordinator *Coordinator) FailTask(args rpc.FailTaskArgs, reply *rpc.FailTaskReply) error {
	if err := FailTask(coordinator.state, args); err != nil {
		return err
	}

	reply.Ack = true
	return nil
}

type Server struct {
	server      *golangrpc.Server
	listener    net.Listener
	connections map[net.Conn]struct{}
	mutex       sync.Mutex
	waitGroup   sync.WaitGroup
}

func NewServer(coordinator *Coordinator) (*Server, error) {
	server := golangrpc.NewServer()
	if err := server.RegisterName(rpc.ServiceName, coordinator); err != nil {
		return nil, err
	}

	return &Server{server: server, connections: make(map[net.Conn]struct{})}, nil
}

func (server *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	server.listener = listener
	server.waitGroup.Add(1)
	go server.listenToConnections()

	return nil
}

func (server *Server) Address() string {
	return server.listener.Addr().String()
}

func (server *Server) listenToConnections() {
	defer server.waitGroup.Done()

	for {
		conn, err := server.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Printf("stopped accepting connections: %v", err)
			}
			return
		}

		server.mutex.Lock()
		server.connections[conn] = struct{}{}
		server.mutex.Unlock()

		go func(conn net.Conn) {
			server.server.ServeConn(conn)

			server.mutex.Lock()
			delete(server.connections, conn)
			server.mutex.Unlock()
		}(conn)
	}
}

func (server *Server) Stop() {
	if server.listener != nil {
		server.listener.Close()
	}
	server.waitGroup.Wait()

	server.mutex.Lock()
	defer server.mutex.Unlock()
	for conn := range server.connections {
		conn.Close()
	}
}
