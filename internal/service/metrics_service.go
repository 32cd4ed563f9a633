package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valokuva/cms-admin-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the admin API.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	ingestTotal      *prometheus.CounterVec
	publishTotal     *prometheus.CounterVec
	transferBytes    prometheus.Counter
	thumbTotal       prometheus.Counter
	sweepMissing     prometheus.Gauge
	sweepOrphans     prometheus.Gauge
	sweepDuplicates  prometheus.Gauge
	scheduleBacklogs prometheus.Gauge
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	ingestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_files_total",
		Help: "Ingested files by class and outcome",
	}, []string{"class", "outcome"})

	publishTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_operations_total",
		Help: "Publish operations by content type and outcome",
	}, []string{"type", "outcome"})

	transferBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "site_transfer_bytes_total",
		Help: "Bytes shipped to the site host",
	})

	thumbTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "thumbnails_generated_total",
		Help: "Thumbnails generated",
	})

	sweepMissing := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "acl_sweep_missing_groups",
		Help: "Acl groups referenced by entities but absent from the acl table",
	})
	sweepOrphans := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "acl_sweep_orphan_groups",
		Help: "Acl groups no entity references",
	})
	sweepDuplicates := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "acl_sweep_duplicate_refs",
		Help: "Entity references sharing an acl group beyond the first",
	})
	scheduleBacklogs := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "publish_schedule_backlog",
		Help: "Pending publish schedule rows",
	})

	registry.MustRegister(requestDuration, requestTotal, ingestTotal, publishTotal,
		transferBytes, thumbTotal, sweepMissing, sweepOrphans, sweepDuplicates, scheduleBacklogs)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		ingestTotal:      ingestTotal,
		publishTotal:     publishTotal,
		transferBytes:    transferBytes,
		thumbTotal:       thumbTotal,
		sweepMissing:     sweepMissing,
		sweepOrphans:     sweepOrphans,
		sweepDuplicates:  sweepDuplicates,
		scheduleBacklogs: scheduleBacklogs,
	}
}

// HTTPHandler exposes the scrape endpoint.
func (s *MetricsService) HTTPHandler() http.Handler {
	return s.handler
}

// ObserveRequest records one HTTP request.
func (s *MetricsService) ObserveRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveIngest records one ingest result.
func (s *MetricsService) ObserveIngest(class models.FileClass, outcome string) {
	s.ingestTotal.WithLabelValues(string(class), outcome).Inc()
}

// ObservePublish records one publish outcome.
func (s *MetricsService) ObservePublish(publishType models.PublishType, outcome string) {
	s.publishTotal.WithLabelValues(string(publishType), outcome).Inc()
}

// AddTransferBytes accumulates the size of shipped files.
func (s *MetricsService) AddTransferBytes(n int64) {
	if n > 0 {
		s.transferBytes.Add(float64(n))
	}
}

// ObserveThumbnail counts one generated thumbnail.
func (s *MetricsService) ObserveThumbnail() {
	s.thumbTotal.Inc()
}

// ObserveConsistencySweep publishes the latest sweep report.
func (s *MetricsService) ObserveConsistencySweep(report *models.ConsistencyReport) {
	s.sweepMissing.Set(float64(len(report.MissingGroups)))
	s.sweepOrphans.Set(float64(len(report.OrphanGroups)))
	s.sweepDuplicates.Set(float64(len(report.DuplicateRefs)))
}

// SetScheduleBacklog publishes the pending schedule row count.
func (s *MetricsService) SetScheduleBacklog(n int) {
	s.scheduleBacklogs.Set(float64(n))
}
