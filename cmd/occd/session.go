// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/log"
	"github.com/platinasystems/occ/internal/config"
	"github.com/platinasystems/occ/internal/occ"
	"github.com/platinasystems/occ/internal/scom"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"
	uuid "github.com/satori/go.uuid"
)

var openTransport = func(dc config.DeviceConfig) (scom.Transport, error) {
	if dc.Driver == config.Periph {
		return scom.OpenPeriph(dc.BusName, uint16(dc.Addr))
	}
	return &scom.I2c{Bus: dc.Bus, Addr: dc.Addr}, nil
}

type session struct {
	name    string
	cfg     config.DeviceConfig
	dev     *occ.Device
	id      string
	layout  occ.Layout
	retry   backoff.Backoff
	holdOff time.Time
}

func newSession(dc config.DeviceConfig, t scom.Transport) *session {
	s := &session{
		name: dc.Name,
		cfg:  dc,
		dev:  occ.NewDevice(dc.Name, t),
		retry: backoff.Backoff{
			Min:    1 * time.Second,
			Max:    60 * time.Second,
			Factor: 2,
			Jitter: false,
		},
	}
	for st, v := range map[occ.SensorType]int{
		occ.Freq:  dc.Limits.Freq,
		occ.Temp:  dc.Limits.Temp,
		occ.Power: dc.Limits.Power,
		occ.Caps:  dc.Limits.Caps,
	} {
		if v > 0 {
			s.dev.Limits[st] = v
		}
	}
	s.dev.Debug = dc.Debug
	s.dev.SetUpdateInterval(dc.UpdateInterval())
	return s
}

func (s *session) key(attr string) string {
	return s.name + "." + attr
}

// sensorKeys lists the input and label keys of the discovered layout.
func (s *session) sensorKeys() []string {
	var keys []string
	for _, t := range []occ.SensorType{occ.Temp, occ.Freq, occ.Power} {
		for n := 1; n <= s.layout[t]; n++ {
			keys = append(keys,
				s.key(fmt.Sprintf("%s%d_input", t, n)),
				s.key(fmt.Sprintf("%s%d_label", t, n)))
		}
	}
	if s.layout[occ.Caps] > 0 {
		for _, f := range occ.CapsFields {
			keys = append(keys, s.key("caps_"+f.String()))
		}
		keys = append(keys, s.key("user_powercap"))
	}
	return keys
}

func (i *Info) setOnline(s *session, online bool) error {
	if online == s.dev.Online() {
		return nil
	}
	if !online {
		for _, k := range s.sensorKeys() {
			i.unpublish(k)
		}
		i.unpublish(s.key("code_level"))
		i.unpublish(s.key("session"))
		s.dev.SetOnline(false)
		s.layout = occ.Layout{}
		log.Print("daemon", "info", s.name, ": offline, session ", s.id)
		s.id = ""
		i.publish(s.key("online"), "0")
		return nil
	}
	l, err := s.dev.SetOnline(true)
	if err != nil {
		return err
	}
	s.layout = l
	s.id = uuid.NewV4().String()
	s.holdOff = time.Time{}
	s.retry.Reset()
	log.Print("daemon", "info", s.name, ": online, session ", s.id,
		", ", l)
	i.publish(s.key("session"), s.id)
	i.publish(s.key("online"), "1")
	return i.update(s)
}

func (i *Info) publishInterval(s *session) {
	ms := s.dev.UpdateInterval() / time.Millisecond
	i.publish(s.key("update_interval"), strconv.FormatInt(int64(ms), 10))
}

// update publishes the device's sensors or, if the poll fails, marks
// every one unavailable.
func (i *Info) update(s *session) error {
	snap, err := s.dev.Snapshot()
	i.metrics.polled(s.name, err)
	if err != nil {
		for _, k := range s.sensorKeys() {
			if k != s.key("user_powercap") {
				i.publish(k, strconv.Itoa(occ.Unavailable))
			}
		}
		return err
	}
	i.metrics.update(s.name, snap, s.dev.UserPowercap())
	i.publish(s.key("code_level"), snap.Header.Version())

	value := func(ok bool, v int) string {
		if !ok {
			v = occ.Unavailable
		}
		return strconv.Itoa(v)
	}
	for n := 0; n < s.layout[occ.Temp]; n++ {
		ok := n < len(snap.Temp)
		var r occ.TempSensor
		if ok {
			r = snap.Temp[n]
		}
		i.publish(s.key(fmt.Sprint("temp", n+1, "_input")),
			value(ok, int(r.Value)*1000))
		i.publish(s.key(fmt.Sprint("temp", n+1, "_label")),
			value(ok, int(r.ID)))
	}
	for n := 0; n < s.layout[occ.Freq]; n++ {
		ok := n < len(snap.Freq)
		var r occ.FreqSensor
		if ok {
			r = snap.Freq[n]
		}
		i.publish(s.key(fmt.Sprint("freq", n+1, "_input")),
			value(ok, int(r.Value)))
		i.publish(s.key(fmt.Sprint("freq", n+1, "_label")),
			value(ok, int(r.ID)))
	}
	for n := 0; n < s.layout[occ.Power]; n++ {
		ok := n < len(snap.Power)
		var r occ.PowerSensor
		if ok {
			r = snap.Power[n]
		}
		i.publish(s.key(fmt.Sprint("power", n+1, "_input")),
			value(ok, int(r.Value)))
		i.publish(s.key(fmt.Sprint("power", n+1, "_label")),
			value(ok, int(r.ID)))
	}
	if s.layout[occ.Caps] > 0 {
		ok := len(snap.Caps) > 0
		var r occ.CapsSensor
		if ok {
			r = snap.Caps[0]
		}
		for _, f := range occ.CapsFields {
			v, _ := r.Field(f)
			i.publish(s.key("caps_"+f.String()), value(ok, int(v)))
		}
		i.publish(s.key("user_powercap"),
			strconv.Itoa(int(s.dev.UserPowercap())))
	}
	return nil
}

func (i *Info) Hset(args args.Hset, reply *reply.Hset) error {
	field := strings.TrimPrefix(args.Field, args.Key+":")
	dot := strings.Index(field, ".")
	if dot < 0 {
		return fmt.Errorf("cannot hset: %s", args.Field)
	}
	i.mutex.Lock()
	defer i.mutex.Unlock()
	s, found := i.sessions[field[:dot]]
	if !found {
		return fmt.Errorf("cannot hset: %s", args.Field)
	}
	v := strings.TrimSpace(string(args.Value))
	switch attr := field[dot+1:]; attr {
	case "update_interval":
		ms, err := strconv.ParseUint(v, 0, 32)
		if err != nil {
			return fmt.Errorf("%s: %v", args.Field, err)
		}
		s.dev.SetUpdateInterval(time.Duration(ms) * time.Millisecond)
		i.publishInterval(s)
	case "online":
		online, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %v", args.Field, err)
		}
		if err = i.setOnline(s, online); err != nil {
			return err
		}
	case "user_powercap":
		if !s.dev.Online() || s.layout[occ.Caps] == 0 {
			return fmt.Errorf("cannot hset: %s", args.Field)
		}
		w, err := strconv.ParseUint(v, 0, 16)
		if err != nil {
			return fmt.Errorf("%s: %v", args.Field, err)
		}
		if err = s.dev.SetUserPowercap(uint16(w)); err != nil {
			return err
		}
		i.publish(s.key(attr), strconv.Itoa(int(s.dev.UserPowercap())))
	default:
		return fmt.Errorf("cannot hset: %s", args.Field)
	}
	*reply = 1
	return nil
}
