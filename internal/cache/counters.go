package cache

import "sync/atomic"

// Counters are the monotonic observability counters spec §4.4.6 requires.
// They are plain atomic.Int64 fields: exporting them to Prometheus/OTel is
// the surrounding server's job, not the cache manager's.
type Counters struct {
	VerifyFullHashChecks    atomic.Int64
	StoreDownloadFailures   atomic.Int64
	StoreErrorChecksumTotal atomic.Int64
	StoreErrorTimeoutTotal  atomic.Int64
	StoreErrorNetworkTotal  atomic.Int64
	StoreErrorOtherTotal    atomic.Int64
	StoreBreakerOpenTotal   atomic.Int64
	StoreBreakerHalfOpenTotal atomic.Int64
}

// Snapshot is a point-in-time copy of every counter's value, safe to log or
// serve from a debug endpoint.
type Snapshot struct {
	VerifyFullHashChecks      int64
	StoreDownloadFailures     int64
	StoreErrorChecksumTotal   int64
	StoreErrorTimeoutTotal    int64
	StoreErrorNetworkTotal    int64
	StoreErrorOtherTotal      int64
	StoreBreakerOpenTotal     int64
	StoreBreakerHalfOpenTotal int64
}

// Snapshot reads every counter's current value.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		VerifyFullHashChecks:      c.VerifyFullHashChecks.Load(),
		StoreDownloadFailures:     c.StoreDownloadFailures.Load(),
		StoreErrorChecksumTotal:   c.StoreErrorChecksumTotal.Load(),
		StoreErrorTimeoutTotal:    c.StoreErrorTimeoutTotal.Load(),
		StoreErrorNetworkTotal:    c.StoreErrorNetworkTotal.Load(),
		StoreErrorOtherTotal:      c.StoreErrorOtherTotal.Load(),
		StoreBreakerOpenTotal:     c.StoreBreakerOpenTotal.Load(),
		StoreBreakerHalfOpenTotal: c.StoreBreakerHalfOpenTotal.Load(),
	}
}

func (c *Counters) recordStoreErr(code string) {
	switch code {
	case "Validation":
		c.StoreErrorChecksumTotal.Add(1)
	case "Timeout":
		c.StoreErrorTimeoutTotal.Add(1)
	case "Network":
		c.StoreErrorNetworkTotal.Add(1)
	default:
		c.StoreErrorOtherTotal.Add(1)
	}
}
