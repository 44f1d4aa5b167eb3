// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package occd publishes POWER8 OCC sensors to redis.
//
// Each configured device publishes hwmon style keys,
//
//	occ0.temp1_input: 45000
//	occ0.temp1_label: 1
//	occ0.freq1_input: 3325
//	occ0.power1_input: 212
//	occ0.caps_curr_powercap: 180
//
// and accepts writes to occ0.update_interval (ms), occ0.online (0|1) and,
// on the master OCC, occ0.user_powercap (watts).
package occd

import (
	"fmt"
	"net/rpc"
	"sync"
	"time"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/occ/internal/cmd"
	"github.com/platinasystems/occ/internal/config"
	"github.com/platinasystems/occ/internal/lang"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
)

const tick = 250 * time.Millisecond

type Command struct {
	Info
	Init func()
	init sync.Once
}

type Info struct {
	mutex    sync.Mutex
	rpc      *atsock.RpcServer
	pub      printer
	stop     chan struct{}
	sessions map[string]*session
	names    []string
	lasts    map[string]string
	metrics  *metrics
}

// printer is satisfied by *publisher.Publisher.
type printer interface {
	Print(...interface{}) (int, error)
}

func (*Command) String() string { return "occd" }

func (*Command) Usage() string {
	return "occd [-once] [-config FILE] [-metrics ADDR]"
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "POWER8 OCC sensor daemon",
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Main(args ...string) error {
	var err error

	if c.Init != nil {
		c.init.Do(c.Init)
	}

	flag, args := flags.New(args, "-once")
	parm, args := parms.New(args, "-config", "-metrics")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	fn := parm.ByName["-config"]
	if len(fn) == 0 {
		fn = config.DefaultPath
	}
	cfg, err := config.Load(fn)
	if err != nil {
		return err
	}
	if addr := parm.ByName["-metrics"]; len(addr) > 0 {
		cfg.Occ.Metrics = addr
	}

	if err = redis.IsReady(); err != nil {
		return err
	}

	c.stop = make(chan struct{})
	c.init0()

	pub, err := publisher.New()
	if err != nil {
		return err
	}
	defer pub.Close()
	c.pub = pub

	for _, dc := range cfg.Occ.Devices {
		t, err := openTransport(dc)
		if err != nil {
			return err
		}
		c.add(newSession(dc, t))
	}
	defer c.closeSessions()

	if c.rpc, err = atsock.NewRpcServer("occd"); err != nil {
		return err
	}
	defer c.rpc.Close()

	rpc.Register(&c.Info)
	for _, name := range c.names {
		err = redis.Assign(redis.DefaultHash+":"+name+".", "occd", "Info")
		if err != nil {
			return err
		}
	}

	if len(cfg.Occ.Metrics) > 0 {
		c.metrics = newMetrics()
		go c.metrics.serve(cfg.Occ.Metrics)
	}

	c.start()
	if flag.ByName["-once"] {
		c.updateAll(time.Now())
		return nil
	}

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return nil
		case now := <-t.C:
			c.updateAll(now)
		}
	}
}

func (c *Command) Close() error {
	if c.stop != nil {
		close(c.stop)
	}
	return nil
}

func (i *Info) init0() {
	i.sessions = make(map[string]*session)
	i.names = i.names[:0]
	i.lasts = make(map[string]string)
}

func (i *Info) add(s *session) {
	i.sessions[s.name] = s
	i.names = append(i.names, s.name)
}

// start publishes the static keys of every device and brings configured
// devices online.
func (i *Info) start() {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	for _, name := range i.names {
		s := i.sessions[name]
		i.publish(s.key("name"), config.DefaultName)
		i.publishInterval(s)
		i.publish(s.key("online"), "0")
		if !s.cfg.Online {
			continue
		}
		if err := i.setOnline(s, true); err != nil {
			log.Print("daemon", "err", s.name, ": online: ", err)
		}
	}
}

func (i *Info) updateAll(now time.Time) {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	for _, name := range i.names {
		s := i.sessions[name]
		if !s.dev.Online() || now.Before(s.holdOff) {
			continue
		}
		if err := i.update(s); err != nil {
			d := s.retry.Duration()
			s.holdOff = now.Add(d)
			log.Print("daemon", "warn", s.name, ": ", err,
				"; retry in ", d)
		} else {
			s.retry.Reset()
		}
	}
}

func (i *Info) closeSessions() {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	for _, name := range i.names {
		if err := i.sessions[name].dev.Close(); err != nil {
			log.Print("daemon", "err", name, ": close: ", err)
		}
	}
}

// publish prints changed values.
func (i *Info) publish(k, v string) {
	if last, found := i.lasts[k]; found && last == v {
		return
	}
	i.pub.Print(k, ": ", v)
	i.lasts[k] = v
}

func (i *Info) unpublish(k string) {
	if _, found := i.lasts[k]; !found {
		return
	}
	i.pub.Print("delete: ", k)
	delete(i.lasts, k)
}
