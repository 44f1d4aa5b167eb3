// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package occ is a client of the POWER8 On-Chip-Controller (OCC) command
// interface. Commands are written to OCC SRAM through the OCB registers,
// the OCC is signaled with an attention, and the response is read back
// from SRAM. A poll response carries a header followed by a variable
// number of self describing sensor blocks (FREQ, TEMP, POWR and CAPS)
// that are decoded into a Response reused across polls.
//
// Device wraps a transport with a rate limited cache and the per-sensor
// accessors used by occd.
package occ
