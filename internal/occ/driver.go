// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occ

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/platinasystems/occ/internal/scom"
)

// OCC SRAM addresses of the command and response buffers.
const (
	CommandAddr  uint32 = 0xFFFF6000
	ResponseAddr uint32 = 0xFFFF7000
)

const (
	// DataMax is the largest response data length.
	DataMax = 4096
	// BufferSize holds the largest response read in 8-byte chunks.
	BufferSize = DataMax + 8
)

const chunk = 8

type Driver struct {
	scom.Scom
}

type step struct {
	name   string
	addr   uint32
	hi, lo uint32
}

// SendCommand delivers a command to the OCC and reads the first 8 bytes
// of its response into resp. It returns the response status byte.
func (d Driver) SendCommand(seq, cmdType uint8, payload []byte,
	resp []byte) (uint8, error) {
	if len(resp) < chunk {
		return 0, ErrShortBuffer
	}
	f, err := EncodeCommand(seq, cmdType, payload)
	if err != nil {
		return 0, err
	}
	for _, s := range []step{
		{"init ocb", scom.OcbStatusControlOr, 0x08000000, 0},
		{"init ocb", scom.OcbStatusControlAnd, 0xFBFFFFFF, 0xFFFFFFFF},
		{"set command address", scom.OcbAddress, CommandAddr, 0},
		{"set command address", scom.OcbAddress, CommandAddr, 0},
		{"write command", scom.OcbData, f.Word1, f.Word2},
		{"trigger attention", scom.AttnData, 0x01010000, 0},
		{"set response address", scom.OcbAddress, ResponseAddr, 0},
	} {
		if err := d.Putscom(s.addr, s.hi, s.lo); err != nil {
			return 0, errors.WithMessage(err, s.name)
		}
	}
	if err := d.Getscom(scom.OcbData, resp[:chunk]); err != nil {
		return 0, errors.WithMessage(err, "read response")
	}
	return resp[respStatusOffset], nil
}

// Poll sends a poll command and reads the whole response into buf,
// which must have BufferSize bytes. It returns the length of the
// response including the trailing checksum.
func (d Driver) Poll(buf []byte) (int, error) {
	if len(buf) < BufferSize {
		return 0, ErrShortBuffer
	}
	status, err := d.SendCommand(0, CmdPoll, []byte{pollVersion}, buf)
	if err != nil {
		return 0, err
	}
	if status != StatusSuccess {
		return 0, &ProtocolError{Op: "poll", Status: status}
	}
	n := int(binary.BigEndian.Uint16(buf[respDataLenOffset:]))
	if n == 0 || n > DataMax {
		return 0, errors.Wrapf(ErrDataLength, "%d bytes", n)
	}
	for i := chunk; i < n+chunk; i += chunk {
		if err := d.Getscom(scom.OcbData, buf[i:i+chunk]); err != nil {
			return 0, errors.WithMessagef(err, "read response at %d", i)
		}
	}
	return respHeaderOffset + n + checksumSize, nil
}
