// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occ

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

type SensorType int

const (
	Freq SensorType = iota
	Temp
	Power
	Caps
	nSensorTypes
)

var sensorTags = [nSensorTypes]string{
	Freq:  "FREQ",
	Temp:  "TEMP",
	Power: "POWR",
	Caps:  "CAPS",
}

var sensorNames = [nSensorTypes]string{
	Freq:  "freq",
	Temp:  "temp",
	Power: "power",
	Caps:  "caps",
}

// minimum record length needed to decode each type
var recordSize = [nSensorTypes]int{
	Freq:  4,
	Temp:  4,
	Power: 12,
	Caps:  12,
}

// SensorTypes lists every type in wire order of preference.
var SensorTypes = []SensorType{Freq, Temp, Power, Caps}

func (t SensorType) String() string {
	if t < 0 || t >= nSensorTypes {
		return fmt.Sprint("sensor type ", int(t))
	}
	return sensorNames[t]
}

// Tag is the four character block tag of the type.
func (t SensorType) Tag() string {
	if t < 0 || t >= nSensorTypes {
		return ""
	}
	return sensorTags[t]
}

func sensorTypeOf(tag []byte) (SensorType, bool) {
	for t, s := range sensorTags {
		if string(tag) == s {
			return SensorType(t), true
		}
	}
	return -1, false
}

type FreqSensor struct {
	ID    uint16
	Value uint16
}

type TempSensor struct {
	ID    uint16
	Value uint16
}

type PowerSensor struct {
	ID          uint16
	UpdateTag   uint32
	Accumulator uint32
	Value       uint16
}

type CapsSensor struct {
	CurrPowercap     uint16
	CurrPowerreading uint16
	NormPowercap     uint16
	MaxPowercap      uint16
	MinPowercap      uint16
	UserPowerlimit   uint16
}

// CapsField selects one of the power capping values.
type CapsField int

const (
	CurrPowercap CapsField = iota
	CurrPowerreading
	NormPowercap
	MaxPowercap
	MinPowercap
	UserPowerlimit
	nCapsFields
)

var capsFieldNames = [nCapsFields]string{
	CurrPowercap:     "curr_powercap",
	CurrPowerreading: "curr_powerreading",
	NormPowercap:     "norm_powercap",
	MaxPowercap:      "max_powercap",
	MinPowercap:      "min_powercap",
	UserPowerlimit:   "user_powerlimit",
}

var CapsFields = []CapsField{
	CurrPowercap,
	CurrPowerreading,
	NormPowercap,
	MaxPowercap,
	MinPowercap,
	UserPowerlimit,
}

func (f CapsField) String() string {
	if f < 0 || f >= nCapsFields {
		return fmt.Sprint("caps field ", int(f))
	}
	return capsFieldNames[f]
}

// Field returns the selected value.
func (c CapsSensor) Field(f CapsField) (uint16, bool) {
	switch f {
	case CurrPowercap:
		return c.CurrPowercap, true
	case CurrPowerreading:
		return c.CurrPowerreading, true
	case NormPowercap:
		return c.NormPowercap, true
	case MaxPowercap:
		return c.MaxPowercap, true
	case MinPowercap:
		return c.MinPowercap, true
	case UserPowerlimit:
		return c.UserPowerlimit, true
	}
	return 0, false
}

// Limits bounds the number of sensors accepted per type.
type Limits [nSensorTypes]int

var DefaultLimits = Limits{
	Freq:  10,
	Temp:  22,
	Power: 11,
	Caps:  1,
}

// Block is one self-describing sensor block. Only the slice matching
// Type is populated.
type Block struct {
	Type         SensorType
	Tag          [4]byte
	Format       uint8
	RecordLength uint8
	Count        uint8

	Freq  []FreqSensor
	Temp  []TempSensor
	Power []PowerSensor
	Caps  []CapsSensor
}

// Len is the number of decoded records.
func (b *Block) Len() int {
	switch b.Type {
	case Freq:
		return len(b.Freq)
	case Temp:
		return len(b.Temp)
	case Power:
		return len(b.Power)
	case Caps:
		return len(b.Caps)
	}
	return 0
}

func (b *Block) decode(p []byte, length int) {
	be := binary.BigEndian
	for i := range b.Freq {
		q := p[i*length:]
		b.Freq[i] = FreqSensor{
			ID:    be.Uint16(q[0:]),
			Value: be.Uint16(q[2:]),
		}
	}
	for i := range b.Temp {
		q := p[i*length:]
		b.Temp[i] = TempSensor{
			ID:    be.Uint16(q[0:]),
			Value: be.Uint16(q[2:]),
		}
	}
	for i := range b.Power {
		q := p[i*length:]
		b.Power[i] = PowerSensor{
			ID:          be.Uint16(q[0:]),
			UpdateTag:   be.Uint32(q[2:]),
			Accumulator: be.Uint32(q[6:]),
			Value:       be.Uint16(q[10:]),
		}
	}
	for i := range b.Caps {
		q := p[i*length:]
		b.Caps[i] = CapsSensor{
			CurrPowercap:     be.Uint16(q[0:]),
			CurrPowerreading: be.Uint16(q[2:]),
			NormPowercap:     be.Uint16(q[4:]),
			MaxPowercap:      be.Uint16(q[6:]),
			MinPowercap:      be.Uint16(q[8:]),
			UserPowerlimit:   be.Uint16(q[10:]),
		}
	}
}

// Header is the 40-byte poll response header.
type Header struct {
	Status         uint8
	ExtStatus      uint8
	OccsPresent    uint8
	Config         uint8
	OccState       uint8
	ErrorLogID     uint8
	ErrorLogAddr   uint32
	ErrorLogLength uint16
	CodeLevel      [16]byte
	EyeCatcher     [6]byte
	BlockCount     uint8
	DataVersion    uint8
}

// Version is the firmware code level with trailing NULs removed.
func (h *Header) Version() string {
	return string(bytes.TrimRight(h.CodeLevel[:], "\x00"))
}

func (h *Header) decode(p []byte) {
	be := binary.BigEndian
	h.Status = p[0]
	h.ExtStatus = p[1]
	h.OccsPresent = p[2]
	h.Config = p[3]
	h.OccState = p[4]
	// p[5:7] reserved
	h.ErrorLogID = p[7]
	h.ErrorLogAddr = be.Uint32(p[8:])
	h.ErrorLogLength = be.Uint16(p[12:])
	// p[14:16] reserved
	copy(h.CodeLevel[:], p[16:32])
	copy(h.EyeCatcher[:], p[32:38])
	h.BlockCount = p[38]
	h.DataVersion = p[39]
}

// Response is a decoded poll response. It is updated in place by Parse
// and owns the record slices of its blocks.
type Response struct {
	Seq        uint8
	CmdType    uint8
	Status     uint8
	DataLength uint16
	Header     Header
	Blocks     []Block
	Checksum   uint16

	index [nSensorTypes]int
}

func NewResponse() *Response {
	r := new(Response)
	r.resetIndex()
	return r
}

func (r *Response) resetIndex() {
	for i := range r.index {
		r.index[i] = -1
	}
}

// BlockIndex returns the block last decoded for type t.
func (r *Response) BlockIndex(t SensorType) (int, bool) {
	if t < 0 || t >= nSensorTypes {
		return -1, false
	}
	i := r.index[t]
	return i, i >= 0 && i < len(r.Blocks)
}

// Block returns the block last decoded for type t or nil.
func (r *Response) Block(t SensorType) *Block {
	if i, ok := r.BlockIndex(t); ok {
		return &r.Blocks[i]
	}
	return nil
}

func (r *Response) Freqs() []FreqSensor {
	if b := r.Block(Freq); b != nil {
		return b.Freq
	}
	return nil
}

func (r *Response) Temps() []TempSensor {
	if b := r.Block(Temp); b != nil {
		return b.Temp
	}
	return nil
}

func (r *Response) Powers() []PowerSensor {
	if b := r.Block(Power); b != nil {
		return b.Power
	}
	return nil
}

func (r *Response) Caps() []CapsSensor {
	if b := r.Block(Caps); b != nil {
		return b.Caps
	}
	return nil
}

// Layout is the number of sensors of each type.
type Layout [nSensorTypes]int

func (r *Response) Layout() (l Layout) {
	for _, t := range SensorTypes {
		if b := r.Block(t); b != nil {
			l[t] = b.Len()
		}
	}
	return
}

func (l Layout) String() string {
	var buf bytes.Buffer
	for _, t := range SensorTypes {
		if buf.Len() > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprint(&buf, t, ": ", l[t])
	}
	return buf.String()
}
