// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occ

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPayloadLength  = errors.New("occ: command payload exceeds 2 bytes")
	ErrShortBuffer           = errors.New("occ: response buffer too small")
	ErrDataLength            = errors.New("occ: invalid response data length")
	ErrBadMagic              = errors.New("occ: missing SENSOR eye catcher")
	ErrNoBlocks              = errors.New("occ: no sensor blocks")
	ErrUnsupportedSensorType = errors.New("occ: unsupported sensor type")
	ErrTruncated             = errors.New("occ: truncated response")
	ErrOffline               = errors.New("occ: device offline")
)

// ProtocolError is a nonzero status returned by the OCC firmware.
type ProtocolError struct {
	Op     string
	Status uint8
}

func (e *ProtocolError) Error() string {
	s := fmt.Sprintf("occ: %s failed: status 0x%02X", e.Op, e.Status)
	if e.IsInvalidValue() {
		s += " (invalid value)"
	}
	return s
}

// IsInvalidValue is true if the firmware rejected an out of range
// command argument.
func (e *ProtocolError) IsInvalidValue() bool {
	return e.Status == StatusInvalidValue
}

// LimitError reports more sensors of a type than the device is
// configured to serve.
type LimitError struct {
	Type  SensorType
	Count int
	Max   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("occ: %d %s sensors exceeds limit of %d",
		e.Count, e.Type, e.Max)
}
