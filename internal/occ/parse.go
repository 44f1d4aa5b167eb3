// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occ

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Response offsets
const (
	respSeqOffset        = 0
	respTypeOffset       = 1
	respStatusOffset     = 2
	respDataLenOffset    = 3
	respHeaderOffset     = 5
	sensorStrOffset      = 37
	sensorBlockNumOffset = 43
	sensorBlockOffset    = 45

	headerSize      = 40
	blockHeaderSize = 8
	checksumSize    = 2
)

var eyeCatcher = []byte("SENSOR")

// Parse decodes a raw poll response into r. The response is left as it
// was if the eye catcher or the block count is bad; any later failure
// releases it.
func Parse(raw []byte, r *Response, limits Limits) error {
	if len(raw) < sensorBlockOffset {
		return errors.Wrapf(ErrTruncated, "%d byte response", len(raw))
	}
	if string(raw[sensorStrOffset:sensorStrOffset+len(eyeCatcher)]) !=
		string(eyeCatcher) {
		return ErrBadMagic
	}
	if raw[sensorBlockNumOffset] == 0 {
		return ErrNoBlocks
	}
	if err := r.parse(raw, limits); err != nil {
		r.Deinit()
		return err
	}
	return nil
}

type cursor struct {
	buf []byte
	off int
}

func (c *cursor) next(n int) ([]byte, error) {
	if n < 0 || c.off+n > len(c.buf) {
		return nil, errors.Wrapf(ErrTruncated,
			"%d bytes at offset %d of %d", n, c.off, len(c.buf))
	}
	p := c.buf[c.off : c.off+n]
	c.off += n
	return p, nil
}

func (r *Response) parse(raw []byte, limits Limits) error {
	be := binary.BigEndian
	dataLength := int(be.Uint16(raw[respDataLenOffset:]))
	end := respHeaderOffset + dataLength
	if dataLength < headerSize || end > len(raw) {
		return errors.Wrapf(ErrTruncated, "data length %d of %d bytes",
			dataLength, len(raw)-respHeaderOffset)
	}
	n := int(raw[sensorBlockNumOffset])
	if n != len(r.Blocks) {
		r.Deinit()
		r.Blocks = make([]Block, n)
	}
	prev := r.index
	r.resetIndex()

	r.Seq = raw[respSeqOffset]
	r.CmdType = raw[respTypeOffset]
	r.Status = raw[respStatusOffset]
	r.DataLength = uint16(dataLength)
	r.Header.decode(raw[respHeaderOffset:])

	c := cursor{buf: raw[:end], off: sensorBlockOffset}
	for i := range r.Blocks {
		h, err := c.next(blockHeaderSize)
		if err != nil {
			return errors.WithMessagef(err, "block %d header", i)
		}
		t, ok := sensorTypeOf(h[0:4])
		if !ok {
			return errors.Wrapf(ErrUnsupportedSensorType, "block %d tag %q",
				i, h[0:4])
		}
		// h[4] reserved
		format, length, count := h[5], h[6], h[7]
		if length > 0 && int(length) < recordSize[t] {
			return errors.Wrapf(ErrTruncated, "%s record length %d",
				t, length)
		}
		p, err := c.next(int(length) * int(count))
		if err != nil {
			return errors.WithMessagef(err, "block %d records", i)
		}
		b := &r.Blocks[i]
		b.Type = t
		copy(b.Tag[:], h[0:4])
		b.Format = format
		b.RecordLength = length
		b.Count = count
		ok, err = r.renew(t, length, count, i, prev[t], limits)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		b.decode(p, int(length))
		r.index[t] = i
	}
	if len(raw) >= end+checksumSize {
		r.Checksum = be.Uint16(raw[end:])
	} else {
		r.Checksum = 0
	}
	return nil
}
