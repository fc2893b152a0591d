// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package dingtalk

import (
	"errors"
	"fmt"
)

// Validation errors. They are returned wrapped with details, so match them
// with [errors.Is].
var (
	// ErrInvalidToken is returned by New when the access token is not
	// TokenLength characters long.
	ErrInvalidToken = errors.New("dingtalk: invalid access token")
	// ErrInvalidArgument is returned for values of the wrong type or out of
	// range, such as a malformed list of mobile numbers.
	ErrInvalidArgument = errors.New("dingtalk: invalid argument")
	// ErrMissingField is returned when a required field is empty or a required
	// collection has no elements.
	ErrMissingField = errors.New("dingtalk: missing field")
)

// TransportError reports a failure to deliver the request or to read a
// well-formed response: connection errors, non-200 statuses and undecodable
// bodies.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "dingtalk: transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is returned when the robot API answers with a non-zero errcode.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("dingtalk: errcode %d: %s", e.Code, e.Message)
}

func missing(what string) error { return fmt.Errorf("%w: %s", ErrMissingField, what) }
