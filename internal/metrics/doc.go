// Package metrics records build and compile metrics for docshell.
//
// Components receive a Recorder and default to NoopRecorder, so metrics can be
// switched on without nil checks in the build code:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	orchestrator := staticbuild.New(backends, staticbuild.WithRecorder(recorder))
//
// The Prometheus implementation is served by HTTPHandler in dev mode and can
// be exported to a node_exporter textfile after a static build.
package metrics
