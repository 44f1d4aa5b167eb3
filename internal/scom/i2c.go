// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package scom

import "github.com/platinasystems/i2c"

// Default slave addresses of the P8 i2c port.
const (
	DefaultAddr   = 0x50
	AlternateAddr = 0x51
)

// I2c is a Transport over a linux i2c-dev bus. Like the other BMC
// drivers it opens the bus for every transaction.
type I2c struct {
	Bus  int
	Addr int
}

func (t *I2c) Read(p []byte) (int, error) {
	return t.do(i2c.ReadData, p)
}

func (t *I2c) Write(p []byte) (int, error) {
	return t.do(0, p)
}

func (t *I2c) do(flags i2c.MessageFlags, p []byte) (int, error) {
	var bus i2c.Bus

	if len(p) == 0 {
		return 0, nil
	}
	if err := bus.Open(t.Bus); err != nil {
		return 0, err
	}
	defer bus.Close()

	if err := bus.ForceSlaveAddress(t.Addr); err != nil {
		return 0, err
	}
	err := bus.Send([]i2c.Message{{
		Address: uint16(t.Addr),
		Flags:   flags,
		Data:    p,
	}})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
