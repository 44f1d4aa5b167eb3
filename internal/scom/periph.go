// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package scom

import (
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var hostInit struct {
	once sync.Once
	err  error
}

// Periph is a Transport over a periph.io i2c bus. The bus stays open
// until Close.
type Periph struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// OpenPeriph opens the named bus ("" for the first one found, or a name
// such as "/dev/i2c-3" or "3").
func OpenPeriph(name string, addr uint16) (*Periph, error) {
	hostInit.once.Do(func() {
		_, hostInit.err = host.Init()
	})
	if hostInit.err != nil {
		return nil, errors.Wrap(hostInit.err, "periph host init")
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open i2c bus %q", name)
	}
	return &Periph{
		bus: bus,
		dev: &i2c.Dev{Addr: addr, Bus: bus},
	}, nil
}

func (p *Periph) Read(b []byte) (int, error) {
	if err := p.dev.Tx(nil, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (p *Periph) Write(b []byte) (int, error) {
	return p.dev.Write(b)
}

func (p *Periph) Close() error {
	return p.bus.Close()
}
