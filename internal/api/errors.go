// Package api implements the LMeterX backend client.
package api

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrFileTooLarge indicates an upload exceeded the client-side size ceiling.
var ErrFileTooLarge = errors.New("file exceeds the 10 MiB upload limit")

// IsTimeout reports whether an error represents a client-recognized
// timeout: a context deadline, a net timeout, or an error whose text says
// as much.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
