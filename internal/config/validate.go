// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration without changing it.
func Validate(cfg *Config) error {
	if len(cfg.Occ.Devices) == 0 {
		return fmt.Errorf("no occ devices")
	}
	names := make(map[string]struct{})
	for i, d := range cfg.Occ.Devices {
		if d.Name == "" {
			return fmt.Errorf("device %d: missing name", i)
		}
		if strings.ContainsAny(d.Name, ".: \t") {
			return fmt.Errorf("device %q: name may not contain "+
				"'.', ':' or space", d.Name)
		}
		if _, found := names[d.Name]; found {
			return fmt.Errorf("device %q: duplicate name", d.Name)
		}
		names[d.Name] = struct{}{}

		switch d.Driver {
		case "", I2c:
			if d.Bus < 0 {
				return fmt.Errorf("device %q: invalid bus %d",
					d.Name, d.Bus)
			}
		case Periph:
		default:
			return fmt.Errorf("device %q: unknown driver %q",
				d.Name, d.Driver)
		}
		if d.Addr != 0 && (d.Addr < 0x03 || d.Addr > 0x77) {
			return fmt.Errorf("device %q: invalid i2c address %#x",
				d.Name, d.Addr)
		}
		if d.UpdateIntervalMs != nil && *d.UpdateIntervalMs < 0 {
			return fmt.Errorf("device %q: negative update_interval_ms",
				d.Name)
		}
		for _, l := range []struct {
			name string
			v    int
		}{
			{"freq", d.Limits.Freq},
			{"temp", d.Limits.Temp},
			{"power", d.Limits.Power},
			{"caps", d.Limits.Caps},
		} {
			if l.v < 0 || l.v > 255 {
				return fmt.Errorf("device %q: %s limit %d out of range",
					d.Name, l.name, l.v)
			}
		}
	}
	return nil
}
