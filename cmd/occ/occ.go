// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package occ shows and sets the OCC keys published by occd.
package occ

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode"

	redigo "github.com/garyburd/redigo/redis"
	"github.com/mattn/go-isatty"
	"github.com/platinasystems/occ/internal/config"
	"github.com/platinasystems/occ/internal/lang"
	"github.com/platinasystems/redis"
)

type Command struct{}

func (Command) String() string { return "occ" }

func (Command) Usage() string {
	return "occ [show [DEVICE]...] | occ set DEVICE.ATTR VALUE"
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "show or set OCC sensor keys",
	}
}

func (c Command) Main(args ...string) error {
	if len(args) > 0 && args[0] == "set" {
		if len(args) != 3 {
			return fmt.Errorf("usage: %s", c.Usage())
		}
		_, err := redis.Hset(redis.DefaultHash, args[1], args[2])
		return err
	}
	if len(args) > 0 && args[0] == "show" {
		args = args[1:]
	}
	conn, err := redis.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()
	m, err := redigo.StringMap(conn.Do("HGETALL", redis.DefaultHash))
	if err != nil {
		return err
	}
	return show(os.Stdout, m, args, isatty.IsTerminal(os.Stdout.Fd()))
}

// devices lists occd devices in m by their name key.
func devices(m map[string]string) []string {
	var devs []string
	for k, v := range m {
		if strings.HasSuffix(k, ".name") && v == config.DefaultName {
			devs = append(devs, strings.TrimSuffix(k, ".name"))
		}
	}
	sort.Strings(devs)
	return devs
}

func show(w io.Writer, m map[string]string, devs []string, tty bool) error {
	if len(devs) == 0 {
		devs = devices(m)
	}
	var keys []string
	for _, dev := range devs {
		if _, found := m[dev+".name"]; !found {
			return fmt.Errorf("%s: not found", dev)
		}
		for k := range m {
			if strings.HasPrefix(k, dev+".") {
				keys = append(keys, k)
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return naturalLess(keys[i], keys[j])
	})
	if !tty {
		for _, k := range keys {
			fmt.Fprint(w, k, ": ", m[k], "\n")
		}
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprint(tw, k, "\t", m[k], "\n")
	}
	return tw.Flush()
}

// naturalLess orders embedded numbers by value so temp2 precedes temp10.
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		na, ra := leadingNumber(a)
		nb, rb := leadingNumber(b)
		if len(ra) != len(a) && len(rb) != len(b) {
			if na != nb {
				return na < nb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingNumber(s string) (uint64, string) {
	i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if i < 0 {
		i = len(s)
	}
	if i == 0 {
		return 0, s
	}
	n, _ := strconv.ParseUint(s[:i], 10, 64)
	return n, s[i:]
}
