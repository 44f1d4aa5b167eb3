// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// This is a goes machine with the POWER8 OCC commands. Run as,
//
//	goes-occ occd [-config FILE] [-metrics ADDR]
//	goes-occ occ [show [DEVICE]...]
//	goes-occ occ set DEVICE.ATTR VALUE
//
// or through links named occd and occ.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/platinasystems/log"
	"github.com/platinasystems/occ/cmd/occ"
	"github.com/platinasystems/occ/cmd/occd"
	"github.com/platinasystems/occ/internal/cmd"
	"github.com/platinasystems/redis"
)

var commands = map[string]cmd.Cmd{}

func plot(cmds ...cmd.Cmd) {
	for _, c := range cmds {
		commands[c.String()] = c
	}
}

func main() {
	redis.DefaultHash = "platina"
	plot(occ.Command{}, new(occd.Command))

	args := os.Args
	if _, found := commands[filepath.Base(args[0])]; found {
		args[0] = filepath.Base(args[0])
	} else {
		args = args[1:]
	}
	if len(args) == 0 || args[0] == "-help" || args[0] == "help" {
		usage()
		return
	}
	c, found := commands[args[0]]
	if !found {
		fmt.Fprintf(os.Stderr, "%s: command not found\n", args[0])
		os.Exit(1)
	}
	if err := run(c, args[1:]...); err != nil {
		if cmd.WhatKind(c).IsDaemon() {
			log.Print("daemon", "err", c, ": ", err)
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", c, err)
		os.Exit(1)
	}
}

func run(c cmd.Cmd, args ...string) error {
	if closer, ok := c.(cmd.Closer); ok && cmd.WhatKind(c).IsDaemon() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
		go func() {
			<-sig
			closer.Close()
		}()
		log.Print("daemon", "info", c, ": started")
		defer log.Print("daemon", "info", c, ": stopped")
	}
	return c.Main(args...)
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Printf("%-8s %s\n\t%s\n", name, c.Apropos(), c.Usage())
	}
}
