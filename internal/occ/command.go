// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occ

import "encoding/binary"

// Command types
const (
	CmdPoll            uint8 = 0x00
	CmdSetUserPowercap uint8 = 0x22
)

// Response status
const (
	StatusSuccess      uint8 = 0x00
	StatusInvalidValue uint8 = 0x13
)

const pollVersion = 0x10

const maxPayload = 2

// Frame is an encoded 8-byte command as the two words written to
// OCB_DATA.
type Frame struct {
	Word1, Word2 uint32
}

// Bytes renders the frame in the order the OCC reads it from SRAM.
func (f Frame) Bytes() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:], f.Word1)
	binary.BigEndian.PutUint32(b[4:], f.Word2)
	return b
}

// EncodeCommand builds a command frame. The payload occupies the high
// bytes of the second word and the 16-bit checksum of the frame follows
// it.
func EncodeCommand(seq, cmdType uint8, payload []byte) (Frame, error) {
	var f Frame
	n := len(payload)
	if n > maxPayload {
		return f, ErrInvalidPayloadLength
	}
	f.Word1 = uint32(seq)<<24 | uint32(cmdType)<<16 | uint32(n)
	for i, b := range payload {
		f.Word2 |= uint32(b) << uint(24-8*i)
	}
	sum := checksum(f.Word1) + checksum(f.Word2)
	f.Word2 |= uint32(sum) << uint((maxPayload-n)*8)
	return f, nil
}

func checksum(w uint32) (sum uint16) {
	for i := 0; i < 4; i++ {
		sum += uint16(byte(w >> uint(8*i)))
	}
	return
}
