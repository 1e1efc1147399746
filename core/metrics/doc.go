// Package metrics defines the sinks that receive link refresh results. Sinks
// like the Prometheus, InfluxDB and MQTT implementations record link updates
// and can be combined with NewMultiSink; NewMetricsSink builds a MultiSink
// automatically when several sinks are configured. Optional recorder
// interfaces are discovered by type assertion.
package metrics
