// Package metrics exposes a prometheus.Collector aggregating RTP
// send/receive counters and jitter-buffer depth across a session's live Media,
// grounded on the teacher's pkg/dialog/metrics.go promauto usage
// (re-wired here as a pull-based prometheus.Collector instead of
// push-based counters, since the core is polled rather than
// event-driven at the collection point).
//
// pkg/rtcsession imports this package only for the MediaSample type
// its MediaSamples method returns; it never creates or registers a
// Collector. An adapter registers Collector with its own registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MediaSample is one Media's point-in-time counters, as reported by a
// Source during Collect.
type MediaSample struct {
	MediaID     uint64
	MediaType   string // "audio", "video", ...
	TransportID uint64
	SentPackets uint64
	SentOctets  uint64
	RecvPackets uint64
	JitterBufferDepth int
}

// Source is implemented by the session facade (pkg/rtcsession) to
// supply the current set of live Media samples on each scrape.
type Source interface {
	MediaSamples() []MediaSample
}

// Collector implements prometheus.Collector over a Source, pulling
// fresh counters from the live session on every scrape rather than
// mirroring them into separate prometheus metric objects — the
// session is the single source of truth for its own counters.
type Collector struct {
	source Source

	sentPackets  *prometheus.Desc
	sentOctets   *prometheus.Desc
	recvPackets  *prometheus.Desc
	jitterBuffer *prometheus.Desc
}

// NewCollector builds a Collector over source, namespaced "rtcmedia".
func NewCollector(source Source) *Collector {
	labels := []string{"media_id", "media_type", "transport_id"}
	return &Collector{
		source: source,
		sentPackets: prometheus.NewDesc(
			"rtcmedia_rtp_sent_packets_total",
			"Total RTP packets sent for a media stream.",
			labels, nil,
		),
		sentOctets: prometheus.NewDesc(
			"rtcmedia_rtp_sent_octets_total",
			"Total RTP payload octets sent for a media stream.",
			labels, nil,
		),
		recvPackets: prometheus.NewDesc(
			"rtcmedia_rtp_received_packets_total",
			"Total RTP packets received for a media stream.",
			labels, nil,
		),
		jitterBuffer: prometheus.NewDesc(
			"rtcmedia_jitter_buffer_depth",
			"Current number of packets held in a media stream's jitter buffer.",
			labels, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sentPackets
	ch <- c.sentOctets
	ch <- c.recvPackets
	ch <- c.jitterBuffer
}

// Collect implements prometheus.Collector, scraping the current
// sample set from the session on demand.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.source.MediaSamples() {
		labels := []string{
			formatUint(s.MediaID),
			s.MediaType,
			formatUint(s.TransportID),
		}
		ch <- prometheus.MustNewConstMetric(c.sentPackets, prometheus.CounterValue, float64(s.SentPackets), labels...)
		ch <- prometheus.MustNewConstMetric(c.sentOctets, prometheus.CounterValue, float64(s.SentOctets), labels...)
		ch <- prometheus.MustNewConstMetric(c.recvPackets, prometheus.CounterValue, float64(s.RecvPackets), labels...)
		ch <- prometheus.MustNewConstMetric(c.jitterBuffer, prometheus.GaugeValue, float64(s.JitterBufferDepth), labels...)
	}
}

func formatUint(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
