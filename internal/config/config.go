// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package config loads the occd device configuration, e.g.
//
//	occ:
//	  metrics: ":9120"
//	  devices:
//	  - name: occ0
//	    bus: 3
//	    addr: 0x50
//	    update_interval_ms: 1000
//	    online: true
//	  - name: occ1
//	    driver: periph
//	    bus_name: /dev/i2c-4
//	    limits: {temp: 16}
package config

import (
	"bytes"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "/etc/goes/occ.yaml"

// Drivers
const (
	I2c    = "i2c"
	Periph = "periph"
)

const (
	DefaultAddr           = 0x50
	DefaultUpdateInterval = 1000
	DefaultName           = "occ-i2c"
)

type Config struct {
	Occ OccConfig `yaml:"occ"`
}

type OccConfig struct {
	// Metrics is the listen address of the prometheus handler; empty
	// disables it.
	Metrics string         `yaml:"metrics"`
	Devices []DeviceConfig `yaml:"devices"`
}

type DeviceConfig struct {
	Name    string `yaml:"name"`
	Driver  string `yaml:"driver"`
	Bus     int    `yaml:"bus"`
	BusName string `yaml:"bus_name"`
	Addr    int    `yaml:"addr"`
	// UpdateIntervalMs of zero polls on every read; nil is the default.
	UpdateIntervalMs *int         `yaml:"update_interval_ms"`
	Online           bool         `yaml:"online"`
	Debug            bool         `yaml:"debug"`
	Limits           LimitsConfig `yaml:"limits"`
}

// LimitsConfig bounds the number of sensors of each type; zero is the
// default.
type LimitsConfig struct {
	Freq  int `yaml:"freq"`
	Temp  int `yaml:"temp"`
	Power int `yaml:"power"`
	Caps  int `yaml:"caps"`
}

func (d *DeviceConfig) UpdateInterval() time.Duration {
	if d.UpdateIntervalMs == nil {
		return DefaultUpdateInterval * time.Millisecond
	}
	return time.Duration(*d.UpdateIntervalMs) * time.Millisecond
}

// Load reads, validates and normalizes the named file.
func Load(fn string) (*Config, error) {
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, errors.WithMessage(err, fn)
	}
	return cfg, nil
}

// Parse decodes, validates and normalizes a YAML document.
func Parse(b []byte) (*Config, error) {
	cfg := new(Config)
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	Normalize(cfg)
	return cfg, nil
}
