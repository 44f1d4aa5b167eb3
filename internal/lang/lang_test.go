// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package lang

import (
	"os"
	"testing"
)

func TestAlt(t *testing.T) {
	alt := Alt{
		EnUS: "color",
		EnGB: "colour",
	}
	for _, x := range []struct {
		env, want string
	}{
		{"", "color"},
		{EnGB, "colour"},
		{FrFR, "color"},
	} {
		os.Setenv("LANG", x.env)
		if s := alt.String(); s != x.want {
			t.Errorf("LANG=%q: %q, want %q", x.env, s, x.want)
		}
	}
	os.Unsetenv("LANG")
	if s := (Alt{}).String(); s != "" {
		t.Errorf("empty: %q", s)
	}
}
