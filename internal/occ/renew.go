// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occ

// renew prepares block i to hold count records of type t. The records
// previously held for t, in block prev, are reused when the count is
// unchanged. It returns false if the block has no sensors.
func (r *Response) renew(t SensorType, length, count uint8, i, prev int,
	limits Limits) (bool, error) {
	b := &r.Blocks[i]
	// blocks before i were already rewritten by this parse
	var old *Block
	if prev >= i && prev < len(r.Blocks) {
		old = &r.Blocks[prev]
	}
	if length == 0 || count == 0 {
		if old != nil {
			old.release(t)
		}
		b.releaseAll()
		return false, nil
	}
	if int(count) > limits[t] {
		return false, &LimitError{Type: t, Count: int(count), Max: limits[t]}
	}
	n := int(count)
	switch t {
	case Freq:
		var s []FreqSensor
		if old != nil {
			s, old.Freq = old.Freq, nil
		}
		b.releaseAll()
		b.Freq = resize(s, n)
	case Temp:
		var s []TempSensor
		if old != nil {
			s, old.Temp = old.Temp, nil
		}
		b.releaseAll()
		b.Temp = resize(s, n)
	case Power:
		var s []PowerSensor
		if old != nil {
			s, old.Power = old.Power, nil
		}
		b.releaseAll()
		b.Power = resize(s, n)
	case Caps:
		var s []CapsSensor
		if old != nil {
			s, old.Caps = old.Caps, nil
		}
		b.releaseAll()
		b.Caps = resize(s, n)
	}
	return true, nil
}

// resize reuses s if it already has n elements.
func resize[T any](s []T, n int) []T {
	if len(s) == n {
		return s
	}
	return make([]T, n)
}

func (b *Block) release(t SensorType) {
	switch t {
	case Freq:
		b.Freq = nil
	case Temp:
		b.Temp = nil
	case Power:
		b.Power = nil
	case Caps:
		b.Caps = nil
	}
}

func (b *Block) releaseAll() {
	for _, t := range SensorTypes {
		b.release(t)
	}
}

// Deinit releases every block and resets the response to empty. It may
// be called any number of times.
func (r *Response) Deinit() {
	for i := range r.Blocks {
		r.Blocks[i].releaseAll()
	}
	*r = Response{}
	r.resetIndex()
}
