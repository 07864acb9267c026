// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package conformance

import "fmt"

// Status is the outcome of one scenario.
type Status int

const (
	// StatusPass means every assertion held.
	StatusPass Status = iota
	// StatusFail means an observed value differed from the expected one.
	StatusFail
	// StatusError means the driver or the harness faulted during arrange or act.
	StatusError
	// StatusIncomplete means the scenario is deliberately not fully verified.
	StatusIncomplete
)

var statusNames = map[Status]string{
	StatusPass:       "pass",
	StatusFail:       "fail",
	StatusError:      "error",
	StatusIncomplete: "incomplete",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}
