// metrics_test.go: MetricsRegistry counters, snapshots and nil receivers.
package control_test

import (
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/syncwire/control"
)

func TestMetricsRegistry_Basic(t *testing.T) {
	reg := control.NewMetricsRegistry()
	reg.Add(control.MetricHTTPRequests, 2)
	reg.Add(control.MetricHTTPRequests, 3)

	snap := reg.GetSnapshot()
	if snap[control.MetricHTTPRequests] != 5 {
		t.Errorf("snapshot value %d", snap[control.MetricHTTPRequests])
	}
	snap[control.MetricHTTPRequests] = 100
	if reg.Get(control.MetricHTTPRequests) != 5 {
		t.Error("snapshot aliases registry state")
	}
	if reg.Updated().IsZero() {
		t.Error("update time not recorded")
	}
}

func TestMetricsRegistry_ZeroValue(t *testing.T) {
	var reg control.MetricsRegistry
	if reg.Get(control.MetricWSFramesSent) != 0 || len(reg.GetSnapshot()) != 0 {
		t.Fatal("zero registry not empty")
	}
	reg.Add(control.MetricWSFramesSent, 1)
	if reg.Get(control.MetricWSFramesSent) != 1 {
		t.Errorf("value %d", reg.Get(control.MetricWSFramesSent))
	}
}

func TestMetricsRegistry_NilIsNoop(t *testing.T) {
	var reg *control.MetricsRegistry
	reg.Add("x", 1)
	if reg.Get("x") != 0 || reg.GetSnapshot() != nil || !reg.Updated().IsZero() {
		t.Error("nil registry should read as empty")
	}
}

func TestMetricsRegistry_Concurrent(t *testing.T) {
	reg := control.NewMetricsRegistry()
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 1000; j++ {
				reg.Add(control.MetricWSFramesSent, 1)
			}
			return nil
		})
	}
	_ = g.Wait()
	if got := reg.Get(control.MetricWSFramesSent); got != 8000 {
		t.Fatalf("counter = %d, want 8000", got)
	}
}
