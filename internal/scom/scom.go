// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package scom provides register-indirect (SCOM) access to a POWER8
// processor through its i2c slave port.
//
// A putscom writes the shifted register address followed by the 64-bit
// value as two little-endian words, low word first. A getscom writes the
// shifted address and then reads eight bytes that arrive most significant
// byte last.
package scom

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// Register addresses of the OCC Control Block (OCB) and attention logic.
const (
	AttnData            uint32 = 0x0006B035
	OcbAddress          uint32 = 0x0006B070
	OcbStatusControlAnd uint32 = 0x0006B072
	OcbStatusControlOr  uint32 = 0x0006B073
	OcbData             uint32 = 0x0006B075
)

const (
	addrSize = 4
	dataSize = 8
)

// Transport moves raw bytes to and from the chip's i2c slave.
// Each call is a single bus transaction.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// TransportError reports a short read or write.
type TransportError struct {
	Op   string
	Addr uint32
	Want int
	Got  int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("scom: %s %#x: transferred %d of %d bytes",
		e.Op, e.Addr, e.Got, e.Want)
}

type Scom struct {
	Transport
}

// Shift converts a SCOM register address to the form expected by the
// P8 i2c slave.
func Shift(addr uint32) uint32 { return addr << 1 }

// Putscom stores the 64-bit value hi:lo in register addr.
func (s Scom) Putscom(addr, hi, lo uint32) error {
	var buf [addrSize + dataSize]byte
	binary.LittleEndian.PutUint32(buf[0:], Shift(addr))
	binary.LittleEndian.PutUint32(buf[4:], lo)
	binary.LittleEndian.PutUint32(buf[8:], hi)
	return s.write("putscom", addr, buf[:])
}

// Getscom loads register addr into data[0:8], most significant byte
// first.
func (s Scom) Getscom(addr uint32, data []byte) error {
	var buf [dataSize]byte
	if len(data) < dataSize {
		return &TransportError{"getscom", addr, dataSize, len(data)}
	}
	binary.LittleEndian.PutUint32(buf[:addrSize], Shift(addr))
	if err := s.write("getscom", addr, buf[:addrSize]); err != nil {
		return err
	}
	n, err := s.Read(buf[:])
	if err != nil {
		return errors.Wrapf(err, "getscom %#x", addr)
	}
	if n != dataSize {
		return &TransportError{"getscom", addr, dataSize, n}
	}
	for i := range buf {
		data[i] = buf[dataSize-1-i]
	}
	return nil
}

func (s Scom) write(op string, addr uint32, b []byte) error {
	n, err := s.Write(b)
	if err != nil {
		return errors.Wrapf(err, "%s %#x", op, addr)
	}
	if n != len(b) {
		return &TransportError{op, addr, len(b), n}
	}
	return nil
}
