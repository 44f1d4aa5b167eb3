// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occd

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/platinasystems/occ/internal/cmd"
	"github.com/platinasystems/occ/internal/config"
	"github.com/platinasystems/occ/internal/occ"
	"github.com/platinasystems/occ/internal/occ/occtest"
	"github.com/platinasystems/occ/internal/scom"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recorder struct {
	lines []string
}

func (r *recorder) Print(a ...interface{}) (int, error) {
	s := fmt.Sprint(a...)
	r.lines = append(r.lines, s)
	return len(s), nil
}

func (r *recorder) has(s string) bool {
	for _, l := range r.lines {
		if l == s {
			return true
		}
	}
	return false
}

func testPoll(temp uint16) []byte {
	return occtest.Response(
		occtest.Block("TEMP", 4,
			occ.TempSensor{ID: 1, Value: temp},
			occ.TempSensor{ID: 2, Value: 47}),
		occtest.Block("POWR", 12,
			occ.PowerSensor{ID: 0x10, Value: 212}),
		occtest.Block("CAPS", 12,
			occ.CapsSensor{CurrPowercap: 180, CurrPowerreading: 172, NormPowercap: 190, MaxPowercap: 300, MinPowercap: 120, UserPowerlimit: 0}),
	)
}

func newTestInfo(t *testing.T, f *occtest.OCC) (*Info, *recorder) {
	t.Helper()
	zero := 0
	i := new(Info)
	i.init0()
	pub := new(recorder)
	i.pub = pub
	i.add(newSession(config.DeviceConfig{
		Name:             "occ0",
		Online:           true,
		UpdateIntervalMs: &zero,
	}, f))
	i.start()
	return i, pub
}

func (i *Info) expect(t *testing.T, kv ...string) {
	t.Helper()
	for n := 0; n < len(kv); n += 2 {
		k, want := kv[n], kv[n+1]
		got, found := i.lasts[k]
		if want == "" {
			if found {
				t.Errorf("%s: %q still published", k, got)
			}
			continue
		}
		if !found || got != want {
			t.Errorf("%s: %q, want %q", k, got, want)
		}
	}
}

func TestStart(t *testing.T) {
	f := &occtest.OCC{Poll: testPoll(45)}
	i, pub := newTestInfo(t, f)
	i.expect(t,
		"occ0.name", "occ-i2c",
		"occ0.update_interval", "0",
		"occ0.online", "1",
		"occ0.code_level", "op_occ_150909a",
		"occ0.temp1_input", "45000",
		"occ0.temp1_label", "1",
		"occ0.temp2_input", "47000",
		"occ0.power1_input", "212",
		"occ0.power1_label", "16",
		"occ0.caps_curr_powercap", "180",
		"occ0.caps_min_powercap", "120",
		"occ0.user_powercap", "0",
		"occ0.freq1_input", "",
	)
	if len(i.lasts["occ0.session"]) != 36 {
		t.Errorf("session %q", i.lasts["occ0.session"])
	}
	if !pub.has("occ0.online: 0") || !pub.has("occ0.online: 1") {
		t.Errorf("online transitions not published: %q", pub.lines)
	}
}

func TestPublishChanges(t *testing.T) {
	f := &occtest.OCC{Poll: testPoll(45)}
	i, pub := newTestInfo(t, f)
	now := time.Now()

	pub.lines = nil
	i.updateAll(now)
	if len(pub.lines) != 0 {
		t.Errorf("unchanged values published: %q", pub.lines)
	}

	f.Poll = testPoll(52)
	i.updateAll(now)
	if want := []string{"occ0.temp1_input: 52000"}; fmt.Sprint(pub.lines) !=
		fmt.Sprint(want) {
		t.Errorf("published %q, want %q", pub.lines, want)
	}
}

func TestPollFailure(t *testing.T) {
	f := &occtest.OCC{Poll: testPoll(45)}
	i, _ := newTestInfo(t, f)
	s := i.sessions["occ0"]
	now := time.Now()

	f.Fail = true
	i.updateAll(now)
	i.expect(t,
		"occ0.temp1_input", "-1",
		"occ0.temp1_label", "-1",
		"occ0.power1_input", "-1",
		"occ0.caps_curr_powercap", "-1",
		"occ0.user_powercap", "0",
	)
	if !s.holdOff.Equal(now.Add(time.Second)) {
		t.Errorf("hold off %v", s.holdOff.Sub(now))
	}

	f.Fail = false
	polls := f.Polls
	i.updateAll(now.Add(500 * time.Millisecond))
	if f.Polls != polls {
		t.Error("polled during hold off")
	}
	i.updateAll(now.Add(time.Second))
	i.expect(t, "occ0.temp1_input", "45000")
}

func hset(i *Info, field, value string) error {
	var r reply.Hset
	err := i.Hset(args.Hset{
		Key:   "platina",
		Field: field,
		Value: []byte(value),
	}, &r)
	if err == nil && r != 1 {
		return fmt.Errorf("reply %d", r)
	}
	return err
}

func TestHset(t *testing.T) {
	f := &occtest.OCC{Poll: testPoll(45)}
	i, pub := newTestInfo(t, f)
	s := i.sessions["occ0"]

	if err := hset(i, "occ0.update_interval", "250"); err != nil {
		t.Fatal(err)
	}
	if s.dev.UpdateInterval() != 250*time.Millisecond {
		t.Errorf("interval %v", s.dev.UpdateInterval())
	}
	i.expect(t, "occ0.update_interval", "250")

	if err := hset(i, "occ0.online", "0"); err != nil {
		t.Fatal(err)
	}
	i.expect(t,
		"occ0.online", "0",
		"occ0.temp1_input", "",
		"occ0.user_powercap", "",
		"occ0.session", "",
		"occ0.name", "occ-i2c",
	)
	if !pub.has("delete: occ0.temp1_input") {
		t.Error("temp1_input not deleted")
	}
	if err := hset(i, "occ0.user_powercap", "200"); err == nil {
		t.Error("offline powercap accepted")
	}

	if err := hset(i, "occ0.online", "1"); err != nil {
		t.Fatal(err)
	}
	if err := hset(i, "occ0.user_powercap", "250"); err != nil {
		t.Fatal(err)
	}
	if f.Powercap != 250 {
		t.Errorf("occ powercap %d", f.Powercap)
	}
	i.expect(t, "occ0.user_powercap", "250")

	f.Status = occ.StatusInvalidValue
	err := hset(i, "occ0.user_powercap", "9999")
	var perr *occ.ProtocolError
	if !errors.As(err, &perr) || !perr.IsInvalidValue() {
		t.Errorf("got %v, want invalid value", err)
	}
	i.expect(t, "occ0.user_powercap", "250")

	for _, x := range [][2]string{
		{"occ0.bogus", "1"},
		{"occ1.online", "1"},
		{"online", "1"},
		{"occ0.online", "maybe"},
		{"occ0.update_interval", "-5"},
		{"occ0.user_powercap", "70000"},
	} {
		if err := hset(i, x[0], x[1]); err == nil {
			t.Errorf("%s=%s accepted", x[0], x[1])
		}
	}
}

func TestNoCaps(t *testing.T) {
	f := &occtest.OCC{
		Poll: occtest.Response(occtest.Block("TEMP", 4,
			occ.TempSensor{ID: 1, Value: 40})),
	}
	i, _ := newTestInfo(t, f)
	i.expect(t,
		"occ0.temp1_input", "40000",
		"occ0.user_powercap", "",
	)
	if err := hset(i, "occ0.user_powercap", "200"); err == nil {
		t.Error("powercap accepted without CAPS block")
	}
}

func TestOnlineFailure(t *testing.T) {
	f := &occtest.OCC{Fail: true}
	i, _ := newTestInfo(t, f)
	i.expect(t,
		"occ0.online", "0",
		"occ0.temp1_input", "",
	)
	f.Fail = false
	f.Poll = testPoll(45)
	if err := hset(i, "occ0.online", "true"); err != nil {
		t.Fatal(err)
	}
	i.expect(t, "occ0.temp1_input", "45000")
}

func TestMetrics(t *testing.T) {
	f := &occtest.OCC{Poll: testPoll(45)}
	i, _ := newTestInfo(t, f)
	i.metrics = newMetrics()
	i.updateAll(time.Now())
	f.Fail = true
	i.updateAll(time.Now())

	m := i.metrics
	for _, x := range []struct {
		name string
		got  float64
		want float64
	}{
		{"polls", testutil.ToFloat64(m.polls.WithLabelValues("occ0")), 2},
		{"errors", testutil.ToFloat64(m.pollErrors.WithLabelValues("occ0")), 1},
		{"temp", testutil.ToFloat64(m.temp.WithLabelValues("occ0", "1")), 45},
		{"power", testutil.ToFloat64(m.power.WithLabelValues("occ0", "16")), 212},
		{"caps", testutil.ToFloat64(m.caps.WithLabelValues("occ0", "max_powercap")), 300},
	} {
		if x.got != x.want {
			t.Errorf("%s: %v, want %v", x.name, x.got, x.want)
		}
	}
}

func TestOpenTransport(t *testing.T) {
	tr, err := openTransport(config.DeviceConfig{
		Name:   "occ0",
		Driver: config.I2c,
		Bus:    3,
		Addr:   0x51,
	})
	if err != nil {
		t.Fatal(err)
	}
	if i2c, ok := tr.(*scom.I2c); !ok || i2c.Bus != 3 || i2c.Addr != 0x51 {
		t.Errorf("transport %#v", tr)
	}
}

func TestCommand(t *testing.T) {
	c := new(Command)
	if c.String() != "occd" || !cmd.WhatKind(c).IsDaemon() {
		t.Errorf("%s is %s", c, cmd.WhatKind(c))
	}
	if err := c.Main("extra"); err == nil {
		t.Error("unexpected argument accepted")
	}
	if err := c.Close(); err != nil {
		t.Error(err)
	}
}
