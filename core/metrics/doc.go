// Package metrics exposes Prometheus collectors for deliveries and HTTP traffic.
package metrics
