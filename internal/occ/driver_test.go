// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occ

import (
	"errors"
	"reflect"
	"testing"

	"github.com/platinasystems/occ/internal/occ/occtest"
	"github.com/platinasystems/occ/internal/scom"
)

func newDriver(f *fakeOCC) Driver {
	return Driver{scom.Scom{Transport: f}}
}

func TestSendCommandSequence(t *testing.T) {
	f := &fakeOCC{}
	resp := make([]byte, 8)
	status, err := newDriver(f).SendCommand(0, CmdSetUserPowercap,
		[]byte{0x01, 0x2c}, resp)
	if err != nil {
		t.Fatal(err)
	}
	if status != StatusSuccess {
		t.Errorf("status %#x", status)
	}
	cmd, _ := EncodeCommand(0, CmdSetUserPowercap, []byte{0x01, 0x2c})
	want := []occtest.Putscom{
		{Addr: scom.OcbStatusControlOr, Hi: 0x08000000, Lo: 0},
		{Addr: scom.OcbStatusControlAnd, Hi: 0xFBFFFFFF, Lo: 0xFFFFFFFF},
		{Addr: scom.OcbAddress, Hi: CommandAddr, Lo: 0},
		{Addr: scom.OcbAddress, Hi: CommandAddr, Lo: 0},
		{Addr: scom.OcbData, Hi: cmd.Word1, Lo: cmd.Word2},
		{Addr: scom.AttnData, Hi: 0x01010000, Lo: 0},
		{Addr: scom.OcbAddress, Hi: ResponseAddr, Lo: 0},
	}
	if !reflect.DeepEqual(f.Puts, want) {
		t.Errorf("putscom sequence\n%#v\nwant\n%#v", f.Puts, want)
	}
	if f.Powercap != 300 {
		t.Errorf("powercap %d, want 300", f.Powercap)
	}
	if want := []byte{0, CmdSetUserPowercap, StatusSuccess}; !reflect.DeepEqual(resp[:3], want) {
		t.Errorf("response % x, want % x", resp[:3], want)
	}
}

func TestSendCommandBusError(t *testing.T) {
	f := &fakeOCC{Fail: true}
	_, err := newDriver(f).SendCommand(0, CmdPoll, []byte{pollVersion},
		make([]byte, 8))
	if !errors.Is(err, errBus) {
		t.Errorf("got %v, want %v", err, errBus)
	}
}

func TestSendCommandShortBuffer(t *testing.T) {
	_, err := newDriver(&fakeOCC{}).SendCommand(0, CmdPoll, nil,
		make([]byte, 7))
	if err != ErrShortBuffer {
		t.Errorf("got %v, want %v", err, ErrShortBuffer)
	}
}

func TestPoll(t *testing.T) {
	raw := sensorResponse(
		tempBlock(TempSensor{1, 40}, TempSensor{2, 41}),
		powerBlock(PowerSensor{0x10, 1, 2, 150}),
	)
	f := &fakeOCC{Poll: raw}
	buf := make([]byte, BufferSize)
	n, err := newDriver(f).Poll(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(raw) {
		t.Fatalf("poll returned %d bytes, want %d", n, len(raw))
	}
	if !reflect.DeepEqual(buf[:n], raw) {
		t.Errorf("poll data\n% x\nwant\n% x", buf[:n], raw)
	}
	if f.Polls != 1 {
		t.Errorf("%d polls", f.Polls)
	}
	if len(f.Commands) != 1 || f.Commands[0].Word1 != 0x00000001 {
		t.Errorf("commands %#v", f.Commands)
	}
}

func TestPollStatus(t *testing.T) {
	raw := sensorResponse(tempBlock(TempSensor{1, 40}))
	raw[respStatusOffset] = 0x11
	_, err := newDriver(&fakeOCC{Poll: raw}).Poll(make([]byte, BufferSize))
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want *ProtocolError", err)
	}
	if perr.Status != 0x11 || perr.IsInvalidValue() {
		t.Errorf("unexpected %#v", perr)
	}
}

func TestPollDataLength(t *testing.T) {
	for _, length := range []uint16{0, DataMax + 1} {
		raw := sensorResponse(tempBlock(TempSensor{1, 40}))
		raw[respDataLenOffset] = byte(length >> 8)
		raw[respDataLenOffset+1] = byte(length)
		_, err := newDriver(&fakeOCC{Poll: raw}).Poll(make([]byte,
			BufferSize))
		if !errors.Is(err, ErrDataLength) {
			t.Errorf("length %d: got %v, want %v", length, err,
				ErrDataLength)
		}
	}
}

func TestPollMaxDataLength(t *testing.T) {
	raw := make([]byte, respHeaderOffset+DataMax+checksumSize)
	raw[respDataLenOffset] = byte(DataMax >> 8)
	raw[respDataLenOffset+1] = byte(DataMax & 0xff)
	raw[len(raw)-1] = 0xaa
	f := &fakeOCC{Poll: raw}
	buf := make([]byte, BufferSize)
	n, err := newDriver(f).Poll(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(raw) || buf[n-1] != 0xaa {
		t.Errorf("n %d, last %#x", n, buf[n-1])
	}
}
