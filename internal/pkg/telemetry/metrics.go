package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Interaction quality
	MetricGestureMisfires   = "map.gesture_misfires"
	MetricPopupOpenLatency  = "map.popup_open_latency"
	MetricSessionEventQueue = "map.session_event_queue_depth"

	// External dependencies
	MetricGeocodeLatency = "external.geocode_latency"
	MetricRouteLatency   = "external.route_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"
)
