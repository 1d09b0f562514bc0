package injecting

import "AnomalyForge/pkg/metrics"

const (
	burstFloorKB   = 50000
	burstCeilingKB = 100000
)

// netTraffic adds a burst above baseline to both directions. Samples after the
// first may instead stall on the previous sample's counters.
func (inj *Injector) netTraffic(w metrics.Window) {
	for i := range w {
		n := &w[i].Network
		if i > 0 && inj.chance(inj.opts.NetStallProbability) {
			prev := w[i-1].Network
			n.BytesRecvKB = prev.BytesRecvKB
			n.BytesSentKB = prev.BytesSentKB
			continue
		}
		limit := inj.randint(burstFloorKB, burstCeilingKB)
		n.BytesRecvKB = metrics.Round2(n.BytesRecvKB + float64(inj.randint(burstFloorKB, limit)))
		n.BytesSentKB = metrics.Round2(n.BytesSentKB + float64(inj.randint(burstFloorKB, limit)))
	}
}

// netDown freezes both counters to the first sample, with occasional +-1 jitter.
func (inj *Injector) netDown(w metrics.Window) {
	recv := w[0].Network.BytesRecvKB
	sent := w[0].Network.BytesSentKB
	for i := range w {
		n := &w[i].Network
		n.BytesRecvKB = recv
		n.BytesSentKB = sent
		if inj.chance(inj.opts.NetJitterProbability) {
			n.BytesRecvKB = max(0, metrics.Round2(recv+inj.uniform(-1, 1)))
			n.BytesSentKB = max(0, metrics.Round2(sent+inj.uniform(-1, 1)))
		}
	}
}
