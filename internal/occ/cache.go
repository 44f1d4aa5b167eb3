// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occ

import "time"

// DefaultInterval is the minimum time between polls.
const DefaultInterval = time.Second

type cacheState int

const (
	stale cacheState = iota
	fresh
)

func (s cacheState) String() string {
	if s == fresh {
		return "fresh"
	}
	return "stale"
}

// Cache rate limits polls of one device. It is not safe for concurrent
// use; Device serializes access.
type Cache struct {
	Interval time.Duration

	fetch func(*Response) error
	resp  *Response
	last  time.Time
	state cacheState
}

// NewCache returns a stale cache that refreshes with fetch.
func NewCache(fetch func(*Response) error) *Cache {
	return &Cache{
		Interval: DefaultInterval,
		fetch:    fetch,
		resp:     NewResponse(),
	}
}

// Get returns the cached response if it is fresh and younger than the
// interval; otherwise it fetches a new one. The returned response is
// only valid until the next Get.
func (c *Cache) Get(now time.Time) (*Response, error) {
	if c.state == fresh && now.Sub(c.last) < c.Interval {
		return c.resp, nil
	}
	err := c.fetch(c.resp)
	c.last = now
	if err != nil {
		c.state = stale
		return nil, err
	}
	c.state = fresh
	return c.resp, nil
}

func (c *Cache) Fresh() bool { return c.state == fresh }

// LastUpdated is the time of the last fetch attempt.
func (c *Cache) LastUpdated() time.Time { return c.last }

// Invalidate forces the next Get to fetch.
func (c *Cache) Invalidate() { c.state = stale }

// Release frees the decoded response.
func (c *Cache) Release() {
	c.resp.Deinit()
	c.state = stale
}
