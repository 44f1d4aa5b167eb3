// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occ

import "github.com/platinasystems/occ/internal/occ/occtest"

func block[T any](tag string, length int, recs []T) []byte {
	v := make([]interface{}, len(recs))
	for i := range recs {
		v[i] = recs[i]
	}
	return occtest.Block(tag, length, v...)
}

func tempBlock(recs ...TempSensor) []byte   { return block("TEMP", 4, recs) }
func freqBlock(recs ...FreqSensor) []byte   { return block("FREQ", 4, recs) }
func powerBlock(recs ...PowerSensor) []byte { return block("POWR", 12, recs) }
func capsBlock(recs ...CapsSensor) []byte   { return block("CAPS", 12, recs) }

var (
	blockHeader     = occtest.BlockHeader
	sensorResponse  = occtest.Response
	sensorResponseN = occtest.ResponseN
	errBus          = occtest.ErrBus
)

type fakeOCC = occtest.OCC
