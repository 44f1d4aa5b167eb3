// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package occd

import (
	"net/http"
	"strconv"

	"github.com/platinasystems/log"
	"github.com/platinasystems/occ/internal/occ"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	reg        *prometheus.Registry
	polls      *prometheus.CounterVec
	pollErrors *prometheus.CounterVec
	temp       *prometheus.GaugeVec
	freq       *prometheus.GaugeVec
	power      *prometheus.GaugeVec
	caps       *prometheus.GaugeVec
	powercap   *prometheus.GaugeVec
}

func newMetrics() *metrics {
	sensor := []string{"device", "sensor"}
	m := &metrics{
		reg: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occ_polls_total",
			Help: "OCC poll attempts",
		}, []string{"device"}),
		pollErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "occ_poll_errors_total",
			Help: "Failed OCC polls",
		}, []string{"device"}),
		temp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "occ_temperature_celsius",
			Help: "OCC temperature sensor (°C)",
		}, sensor),
		freq: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "occ_frequency_mhz",
			Help: "OCC frequency sensor (MHz)",
		}, sensor),
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "occ_power_watts",
			Help: "OCC power sensor (W)",
		}, sensor),
		caps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "occ_caps_watts",
			Help: "OCC power capping values (W)",
		}, []string{"device", "field"}),
		powercap: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "occ_user_powercap_watts",
			Help: "Last accepted user powercap (W)",
		}, []string{"device"}),
	}
	m.reg.MustRegister(m.polls, m.pollErrors, m.temp, m.freq, m.power,
		m.caps, m.powercap)
	return m
}

func (m *metrics) serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Print("daemon", "err", "metrics: ", err)
	}
}

func (m *metrics) polled(dev string, err error) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(dev).Inc()
	if err != nil {
		m.pollErrors.WithLabelValues(dev).Inc()
	}
}

func (m *metrics) update(dev string, snap *occ.Snapshot, powercap uint16) {
	if m == nil {
		return
	}
	for _, r := range snap.Temp {
		m.temp.WithLabelValues(dev, strconv.Itoa(int(r.ID))).
			Set(float64(r.Value))
	}
	for _, r := range snap.Freq {
		m.freq.WithLabelValues(dev, strconv.Itoa(int(r.ID))).
			Set(float64(r.Value))
	}
	for _, r := range snap.Power {
		m.power.WithLabelValues(dev, strconv.Itoa(int(r.ID))).
			Set(float64(r.Value))
	}
	if len(snap.Caps) > 0 {
		for _, f := range occ.CapsFields {
			v, _ := snap.Caps[0].Field(f)
			m.caps.WithLabelValues(dev, f.String()).Set(float64(v))
		}
		m.powercap.WithLabelValues(dev).Set(float64(powercap))
	}
}
