package rpc

import (
	"errors"
	"fmt"
	golangrpc "net/rpc"
	"strings"
)

type Code uint8

const (
	OK                 Code = 0
	InvalidArgument    Code = 1
	NotFound           Code = 2
	FailedPrecondition Code = 3
	Unknown            Code = 4
)

var codeNames = map[Code]string{
	OK:                 "OK",
	InvalidArgument:    "InvalidArgument",
	NotFound:           "NotFound",
	FailedPrecondition: "FailedPrecondition",
	Unknown:            "Unknown",
}

func (code Code) String() string {
	if name, ok := codeNames[code]; ok {
		return name
	}

	return fmt.Sprintf("Code(%d)", uint8(code))
}

// StatusError is returned by coordinator operations for the failures a caller
// is expected to act on. net/rpc flattens it to its Error() text on the wire,
// which CodeOf parses back.
type StatusError struct {
	Code    Code
	Message string
}

func (statusError *StatusError) Error() string {
	return fmt.Sprintf("%v: %v", statusError.Code, statusError.Message)
}

func Errorf(code Code, format string, args ...any) error {
	return &StatusError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func CodeOf(err error) Code {
	if err == nil {
		return OK
	}

	var statusError *StatusError
	if errors.As(err, &statusError) {
		return statusError.Code
	}

	var serverError golangrpc.ServerError
	if errors.As(err, &serverError) {
		name, _, found := strings.Cut(string(serverError), ": ")
		if !found {
			return Unknown
		}

		for code, codeName := range codeNames {
			if codeName == name {
				return code
			}
		}
	}

	return Unknown
}
