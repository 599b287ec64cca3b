package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type fakeSource struct {
	samples []MediaSample
}

func (f fakeSource) MediaSamples() []MediaSample { return f.samples }

func TestCollectorDescribe(t *testing.T) {
	c := NewCollector(fakeSource{})
	ch := make(chan *prometheus.Desc, 10)
	c.Describe(ch)
	close(ch)
	var descs []*prometheus.Desc
	for d := range ch {
		descs = append(descs, d)
	}
	if len(descs) != 4 {
		t.Fatalf("Describe() emitted %d descriptors, want 4", len(descs))
	}
}

func TestCollectorCollect(t *testing.T) {
	src := fakeSource{samples: []MediaSample{
		{MediaID: 1, MediaType: "audio", TransportID: 2, SentPackets: 10, SentOctets: 1600, RecvPackets: 5, JitterBufferDepth: 3},
	}}
	c := NewCollector(src)
	ch := make(chan prometheus.Metric, 10)
	c.Collect(ch)
	close(ch)

	var metrics []prometheus.Metric
	for m := range ch {
		metrics = append(metrics, m)
	}
	if len(metrics) != 4 {
		t.Fatalf("Collect() emitted %d metrics, want 4", len(metrics))
	}

	var m dto.Metric
	for _, metric := range metrics {
		if err := metric.Write(&m); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if strings.Contains(metric.Desc().String(), "sent_packets") {
			if m.Counter.GetValue() != 10 {
				t.Errorf("sent packets = %v, want 10", m.Counter.GetValue())
			}
		}
	}
}

func TestCollectorCollectEmptySource(t *testing.T) {
	c := NewCollector(fakeSource{})
	ch := make(chan prometheus.Metric, 10)
	c.Collect(ch)
	close(ch)
	count := 0
	for range ch {
		count++
	}
	if count != 0 {
		t.Errorf("Collect() over an empty source emitted %d metrics, want 0", count)
	}
}

func TestFormatUint(t *testing.T) {
	cases := map[uint64]string{0: "0", 7: "7", 123456789: "123456789"}
	for in, want := range cases {
		if got := formatUint(in); got != want {
			t.Errorf("formatUint(%d) = %q, want %q", in, got, want)
		}
	}
}
