package auth

import "sync/atomic"

// MetricID defines a public type used by the authentication module APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the authentication engine.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the authentication engine.
	MetricLoginFailure
	// MetricLoginLocked is an exported constant or variable used by the authentication engine.
	MetricLoginLocked
	// MetricLoginUnverified is an exported constant or variable used by the authentication engine.
	MetricLoginUnverified
	// MetricOTPIssued is an exported constant or variable used by the authentication engine.
	MetricOTPIssued
	// MetricOTPVerified is an exported constant or variable used by the authentication engine.
	MetricOTPVerified
	// MetricOTPFailure is an exported constant or variable used by the authentication engine.
	MetricOTPFailure
	// MetricOTPRegenerated is an exported constant or variable used by the authentication engine.
	MetricOTPRegenerated
	// MetricTempTokenStale is an exported constant or variable used by the authentication engine.
	MetricTempTokenStale
	// MetricTrustedDeviceHit is an exported constant or variable used by the authentication engine.
	MetricTrustedDeviceHit
	// MetricTrustedDeviceSaved is an exported constant or variable used by the authentication engine.
	MetricTrustedDeviceSaved
	// MetricTrustedDevicesPurged is an exported constant or variable used by the authentication engine.
	MetricTrustedDevicesPurged
	// MetricRegistration is an exported constant or variable used by the authentication engine.
	MetricRegistration
	// MetricRegistrationDuplicate is an exported constant or variable used by the authentication engine.
	MetricRegistrationDuplicate
	// MetricEmailVerified is an exported constant or variable used by the authentication engine.
	MetricEmailVerified
	// MetricEmailVerifyFailure is an exported constant or variable used by the authentication engine.
	MetricEmailVerifyFailure
	// MetricVerificationResent is an exported constant or variable used by the authentication engine.
	MetricVerificationResent
	// MetricPasswordChangeSuccess is an exported constant or variable used by the authentication engine.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeFailure is an exported constant or variable used by the authentication engine.
	MetricPasswordChangeFailure
	// MetricPasswordResetRequest is an exported constant or variable used by the authentication engine.
	MetricPasswordResetRequest
	// MetricPasswordResetSuccess is an exported constant or variable used by the authentication engine.
	MetricPasswordResetSuccess
	// MetricPasswordResetFailure is an exported constant or variable used by the authentication engine.
	MetricPasswordResetFailure
	// MetricFederatedLogin is an exported constant or variable used by the authentication engine.
	MetricFederatedLogin
	// MetricFederatedLoginRefused is an exported constant or variable used by the authentication engine.
	MetricFederatedLoginRefused
	// MetricAccountDeleted is an exported constant or variable used by the authentication engine.
	MetricAccountDeleted
	// MetricDeletionWarningSent is an exported constant or variable used by the authentication engine.
	MetricDeletionWarningSent
	// MetricMailFailure is an exported constant or variable used by the authentication engine.
	MetricMailFailure
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by the authentication module APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot defines a public type used by the authentication module APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

// Enabled describes the enabled operation and its observable behavior.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value describes the value operation and its observable behavior.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
