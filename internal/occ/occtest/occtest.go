// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package occtest emulates an OCC behind the P8 i2c slave and builds poll
// responses for tests.
package occtest

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/platinasystems/occ/internal/scom"
)

const (
	commandAddr  = 0xFFFF6000
	responseAddr = 0xFFFF7000

	cmdPoll            = 0x00
	cmdSetUserPowercap = 0x22

	headerSize = 40
)

var ErrBus = errors.New("remote I/O error")

// BlockHeader returns a sensor block sub-header.
func BlockHeader(tag string, length, count int) []byte {
	h := make([]byte, 8)
	copy(h, tag)
	h[5] = 1
	h[6] = byte(length)
	h[7] = byte(count)
	return h
}

// Block encodes fixed size records, big-endian, after a sub-header.
func Block(tag string, length int, recs ...interface{}) []byte {
	var buf bytes.Buffer
	buf.Write(BlockHeader(tag, length, len(recs)))
	for _, r := range recs {
		binary.Write(&buf, binary.BigEndian, r)
	}
	return buf.Bytes()
}

// Response builds a poll response image with the given blocks.
func Response(blocks ...[]byte) []byte {
	return ResponseN(len(blocks), blocks...)
}

// ResponseN is Response with an explicit block count.
func ResponseN(n int, blocks ...[]byte) []byte {
	hdr := make([]byte, headerSize)
	hdr[0] = 0xc3
	hdr[2] = 0x01
	hdr[4] = 0x03
	binary.BigEndian.PutUint32(hdr[8:], 0x00012340)
	binary.BigEndian.PutUint16(hdr[12:], 0x0100)
	copy(hdr[16:32], "op_occ_150909a")
	copy(hdr[32:38], "SENSOR")
	hdr[38] = byte(n)
	hdr[39] = 1

	data := append([]byte(nil), hdr...)
	for _, b := range blocks {
		data = append(data, b...)
	}
	raw := []byte{0, cmdPoll, 0, 0, 0}
	binary.BigEndian.PutUint16(raw[3:], uint16(len(data)))
	raw = append(raw, data...)
	var sum uint16
	for _, b := range raw {
		sum += uint16(b)
	}
	return append(raw, byte(sum>>8), byte(sum))
}

type Putscom struct {
	Addr   uint32
	Hi, Lo uint32
}

type Command struct {
	Word1, Word2 uint32
}

// OCC emulates the OCB registers and the OCC command handler. It is a
// scom.Transport.
type OCC struct {
	// Poll is the response image served to poll commands.
	Poll []byte
	// Status is returned to set user powercap commands.
	Status uint8
	// Fail makes every bus transaction fail with ErrBus.
	Fail bool

	Puts     []Putscom
	Commands []Command
	Polls    int
	Powercap uint16

	getAddr uint32
	ocbAddr uint32
	command Command
	image   []byte
	off     int
}

func (f *OCC) Write(p []byte) (int, error) {
	if f.Fail {
		return 0, ErrBus
	}
	le := binary.LittleEndian
	switch len(p) {
	case 4:
		f.getAddr = le.Uint32(p) >> 1
	case 12:
		put := Putscom{
			Addr: le.Uint32(p[0:]) >> 1,
			Lo:   le.Uint32(p[4:]),
			Hi:   le.Uint32(p[8:]),
		}
		f.Puts = append(f.Puts, put)
		switch put.Addr {
		case scom.OcbAddress:
			f.ocbAddr = put.Hi
			f.off = 0
		case scom.OcbData:
			if f.ocbAddr == commandAddr {
				f.command = Command{put.Hi, put.Lo}
			}
		case scom.AttnData:
			f.execute()
		}
	default:
		return 0, errors.New("unexpected write length")
	}
	return len(p), nil
}

func (f *OCC) Read(p []byte) (int, error) {
	if f.Fail {
		return 0, ErrBus
	}
	if f.getAddr != scom.OcbData || f.ocbAddr != responseAddr {
		return 0, errors.New("unexpected getscom")
	}
	var c [8]byte
	if f.off < len(f.image) {
		copy(c[:], f.image[f.off:])
	}
	f.off += 8
	for i := range c {
		p[i] = c[7-i]
	}
	return len(c), nil
}

func (f *OCC) execute() {
	cmd := f.command
	f.Commands = append(f.Commands, cmd)
	seq, t := byte(cmd.Word1>>24), byte(cmd.Word1>>16)
	switch t {
	case cmdPoll:
		f.Polls++
		f.image = append([]byte(nil), f.Poll...)
	case cmdSetUserPowercap:
		if f.Status == 0 {
			f.Powercap = uint16(cmd.Word2 >> 16)
		}
		f.image = []byte{seq, t, f.Status, 0, 0}
	default:
		f.image = []byte{seq, t, 0x12, 0, 0}
	}
}
