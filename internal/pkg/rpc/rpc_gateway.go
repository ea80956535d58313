package rpc // import "github.com/hkakutalua/mapreduce-coordinator/internal/pkg/rpc"

import (
	"fmt"
	"net"
	golangrpc "net/rpc"
	"time"
)

const DialTimeout = 5 * time.Second

type RpcGateway interface {
	Call(address string, methodName string, args any, reply any) error
}

type DefaultRpcGateway struct {
}

func (rpcGateway DefaultRpcGateway) Call(
	address string,
	methodName string,
	args any,
	reply any,
) error {
	dialer := net.Dialer{Timeout: DialTimeout}
	conn, err := dialer.Dial("tcp", address)
	if err != nil {
		return fmt.Errorf("host '%v' is unreachable: \"%w\"", address, err)
	}

	client := golangrpc.NewClient(conn)
	defer client.Close()

	return client.Call(methodName, args, reply)
}
