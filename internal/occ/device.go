// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occ

import (
	"io"
	"sync"
	"time"

	"github.com/platinasystems/log"
	"github.com/platinasystems/occ/internal/scom"
)

// Unavailable is read from a sensor that cannot be served.
const Unavailable = -1

// Device is one OCC session. All methods are safe for concurrent use;
// bus traffic and buffer renewal are serialized by the device mutex.
type Device struct {
	Name   string
	Limits Limits
	// Debug logs every poll.
	Debug bool

	mutex        sync.Mutex
	transport    scom.Transport
	drv          Driver
	cache        *Cache
	buf          []byte
	online       bool
	userPowercap uint16
	now          func() time.Time
}

// NewDevice starts an offline session on t.
func NewDevice(name string, t scom.Transport) *Device {
	d := &Device{
		Name:      name,
		Limits:    DefaultLimits,
		transport: t,
		drv:       Driver{scom.Scom{Transport: t}},
		buf:       make([]byte, BufferSize),
		now:       time.Now,
	}
	d.cache = NewCache(d.fetch)
	return d
}

func (d *Device) fetch(r *Response) error {
	n, err := d.drv.Poll(d.buf)
	if err != nil {
		r.Deinit()
		return err
	}
	if d.Debug {
		log.Printf("daemon", "debug", "%s: OCC data length: %d",
			d.Name, n-respHeaderOffset-checksumSize)
	}
	if err = Parse(d.buf[:n], r, d.Limits); err != nil {
		return err
	}
	if d.Debug {
		log.Printf("daemon", "debug", "%s: sensor block count: %d",
			d.Name, len(r.Blocks))
		for i := range r.Blocks {
			b := &r.Blocks[i]
			log.Printf("daemon", "debug",
				"%s: sensor block[%d]: type: %s, format: %d, "+
					"record length: %d, sensors: %d",
				d.Name, i, b.Tag[:], b.Format, b.RecordLength, b.Count)
		}
	}
	return nil
}

// value refreshes the cache as needed and applies f to the response.
func (d *Device) value(f func(*Response) (int, bool)) int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.online {
		return Unavailable
	}
	r, err := d.cache.Get(d.now())
	if err != nil {
		log.Print("daemon", "err", d.Name, ": cannot get occ sensor data: ",
			err)
		return Unavailable
	}
	v, ok := f(r)
	if !ok {
		return Unavailable
	}
	return v
}

// TempInput is sensor n's temperature in millidegrees Celsius.
func (d *Device) TempInput(n int) int {
	return d.value(func(r *Response) (int, bool) {
		s := r.Temps()
		if n < 0 || n >= len(s) {
			return 0, false
		}
		return int(s[n].Value) * 1000, true
	})
}

func (d *Device) TempLabel(n int) int {
	return d.value(func(r *Response) (int, bool) {
		s := r.Temps()
		if n < 0 || n >= len(s) {
			return 0, false
		}
		return int(s[n].ID), true
	})
}

// FreqInput is sensor n's frequency in MHz.
func (d *Device) FreqInput(n int) int {
	return d.value(func(r *Response) (int, bool) {
		s := r.Freqs()
		if n < 0 || n >= len(s) {
			return 0, false
		}
		return int(s[n].Value), true
	})
}

func (d *Device) FreqLabel(n int) int {
	return d.value(func(r *Response) (int, bool) {
		s := r.Freqs()
		if n < 0 || n >= len(s) {
			return 0, false
		}
		return int(s[n].ID), true
	})
}

// PowerInput is sensor n's power in watts.
func (d *Device) PowerInput(n int) int {
	return d.value(func(r *Response) (int, bool) {
		s := r.Powers()
		if n < 0 || n >= len(s) {
			return 0, false
		}
		return int(s[n].Value), true
	})
}

func (d *Device) PowerLabel(n int) int {
	return d.value(func(r *Response) (int, bool) {
		s := r.Powers()
		if n < 0 || n >= len(s) {
			return 0, false
		}
		return int(s[n].ID), true
	})
}

// Caps reads one power capping value of the first CAPS record.
func (d *Device) Caps(f CapsField) int {
	return d.value(func(r *Response) (int, bool) {
		s := r.Caps()
		if len(s) == 0 {
			return 0, false
		}
		v, ok := s[0].Field(f)
		return int(v), ok
	})
}

// Snapshot is a copy of the decoded response.
type Snapshot struct {
	Header Header
	Layout Layout
	Freq   []FreqSensor
	Temp   []TempSensor
	Power  []PowerSensor
	Caps   []CapsSensor
}

// Snapshot refreshes the cache as needed and copies every record.
func (d *Device) Snapshot() (*Snapshot, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.online {
		return nil, ErrOffline
	}
	r, err := d.cache.Get(d.now())
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Header: r.Header,
		Layout: r.Layout(),
		Freq:   append([]FreqSensor(nil), r.Freqs()...),
		Temp:   append([]TempSensor(nil), r.Temps()...),
		Power:  append([]PowerSensor(nil), r.Powers()...),
		Caps:   append([]CapsSensor(nil), r.Caps()...),
	}, nil
}

// SetUserPowercap asks the OCC to cap power at v watts. The value is
// remembered only if the OCC accepts it.
func (d *Device) SetUserPowercap(v uint16) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.online {
		return ErrOffline
	}
	var resp [chunk]byte
	status, err := d.drv.SendCommand(0, CmdSetUserPowercap,
		[]byte{byte(v >> 8), byte(v)}, resp[:])
	if err != nil {
		return err
	}
	if status != StatusSuccess {
		err := &ProtocolError{Op: "set user powercap", Status: status}
		if err.IsInvalidValue() {
			log.Print("daemon", "info", d.Name,
				": invalid powercap value: ", v)
		}
		return err
	}
	d.userPowercap = v
	return nil
}

// UserPowercap is the last accepted powercap.
func (d *Device) UserPowercap() uint16 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.userPowercap
}

func (d *Device) UpdateInterval() time.Duration {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.cache.Interval
}

func (d *Device) SetUpdateInterval(interval time.Duration) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if interval < 0 {
		interval = 0
	}
	d.cache.Interval = interval
}

func (d *Device) Online() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.online
}

// SetOnline polls the OCC and returns the discovered sensor layout when
// going online. Going offline releases the decoded response.
func (d *Device) SetOnline(online bool) (Layout, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !online {
		d.cache.Release()
		d.online = false
		return Layout{}, nil
	}
	if d.online {
		if r, err := d.cache.Get(d.now()); err == nil {
			return r.Layout(), nil
		}
	}
	d.cache.Invalidate()
	r, err := d.cache.Get(d.now())
	if err != nil {
		return Layout{}, err
	}
	d.online = true
	return r.Layout(), nil
}

// Close ends the session and closes the transport if it is closable.
func (d *Device) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.cache.Release()
	d.online = false
	if c, ok := d.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
