// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package config

// Normalize fills in defaults. Call it after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	for i := range cfg.Occ.Devices {
		d := &cfg.Occ.Devices[i]
		if d.Driver == "" {
			d.Driver = I2c
		}
		if d.Addr == 0 {
			d.Addr = DefaultAddr
		}
		if d.UpdateIntervalMs == nil {
			ms := DefaultUpdateInterval
			d.UpdateIntervalMs = &ms
		}
	}
}
