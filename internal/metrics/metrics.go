// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SniffedPacketsTotal counts packets read from a source
	SniffedPacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdukit_sniffed_packets_total",
			Help: "Total number of packets read from capture sources",
		},
		[]string{"source"},
	)

	// SniffedBytesTotal counts captured bytes read from a source
	SniffedBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdukit_sniffed_bytes_total",
			Help: "Total number of captured bytes read from capture sources",
		},
		[]string{"source"},
	)

	// FilteredPacketsTotal counts packets dropped by the BPF filter
	FilteredPacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdukit_filtered_packets_total",
			Help: "Total number of packets rejected by the sniffer filter",
		},
		[]string{"source"},
	)

	// DissectFallbacksTotal counts packets whose root was replaced by raw bytes
	DissectFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdukit_dissect_fallbacks_total",
			Help: "Total number of packets that fell back to a raw PDU",
		},
		[]string{"source", "reason"},
	)

	// CaptureErrorsTotal counts source read errors
	CaptureErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdukit_capture_errors_total",
			Help: "Total number of errors returned by capture sources",
		},
		[]string{"source"},
	)

	// TransmittedPacketsTotal counts packets handed to a sink
	TransmittedPacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdukit_transmitted_packets_total",
			Help: "Total number of packets transmitted to sinks",
		},
		[]string{"link_type"},
	)

	// CaptureBlocksTotal counts pcap-ng blocks read, by block type
	CaptureBlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdukit_capture_blocks_total",
			Help: "Total number of pcap-ng blocks read from capture files",
		},
		[]string{"block_type"},
	)

	// PacketSizeBytes observes the captured length of sniffed packets
	PacketSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdukit_packet_size_bytes",
			Help:    "Captured length of sniffed packets",
			Buckets: prometheus.ExponentialBuckets(64, 2, 11), // 64 .. 65536
		},
		[]string{"source"},
	)
)
