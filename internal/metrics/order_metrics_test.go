package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewOrderMetrics(t *testing.T) {
	metrics := newOrderMetricsWithRegisterer(prometheus.NewRegistry())

	if metrics == nil {
		t.Fatal("newOrderMetricsWithRegisterer should not return nil")
	}

	if metrics.ordersPlaced == nil {
		t.Error("ordersPlaced counter should not be nil")
	}

	if metrics.ordersCancelled == nil {
		t.Error("ordersCancelled counter should not be nil")
	}

	if metrics.statusChanges == nil {
		t.Error("statusChanges counter vec should not be nil")
	}

	if metrics.txConflicts == nil {
		t.Error("txConflicts counter should not be nil")
	}

	if metrics.placeDuration == nil {
		t.Error("placeDuration histogram should not be nil")
	}

	if metrics.outboxEvents == nil {
		t.Error("outboxEvents counter should not be nil")
	}

	if metrics.activeOrders == nil {
		t.Error("activeOrders gauge should not be nil")
	}
}

func TestNewOrderMetricsReuseExisting(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newOrderMetricsWithRegisterer(reg)
	second := newOrderMetricsWithRegisterer(reg)

	first.RecordOrderPlaced()
	second.RecordOrderPlaced()

	metric := &dto.Metric{}
	if err := first.ordersPlaced.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected shared counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordOrderPlaced(t *testing.T) {
	reg := prometheus.NewRegistry()

	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_orders_placed_total",
		Help: "Test counter",
	})
	activeOrders := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_active_orders",
		Help: "Test gauge",
	})

	reg.MustRegister(ordersPlaced, activeOrders)

	metrics := &OrderMetrics{
		ordersPlaced: ordersPlaced,
		activeOrders: activeOrders,
	}

	metrics.RecordOrderPlaced()

	metric := &dto.Metric{}
	if err := ordersPlaced.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected counter value 1.0, got %f", metric.Counter.GetValue())
	}

	gaugeMetric := &dto.Metric{}
	if err := activeOrders.Write(gaugeMetric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}

	if gaugeMetric.Gauge.GetValue() != 1.0 {
		t.Errorf("expected active orders 1.0, got %f", gaugeMetric.Gauge.GetValue())
	}
}

func TestRecordOrderCancelled(t *testing.T) {
	reg := prometheus.NewRegistry()

	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_orders_cancelled_total",
		Help: "Test counter",
	})
	activeOrders := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_active_orders_cancel",
		Help: "Test gauge",
	})

	reg.MustRegister(ordersCancelled, activeOrders)

	metrics := &OrderMetrics{
		ordersCancelled: ordersCancelled,
		activeOrders:    activeOrders,
	}

	activeOrders.Set(5)
	metrics.RecordOrderCancelled()

	metric := &dto.Metric{}
	if err := ordersCancelled.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected counter value 1.0, got %f", metric.Counter.GetValue())
	}

	gaugeMetric := &dto.Metric{}
	if err := activeOrders.Write(gaugeMetric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}

	if gaugeMetric.Gauge.GetValue() != 4.0 {
		t.Errorf("expected active orders 4.0, got %f", gaugeMetric.Gauge.GetValue())
	}
}

func TestRecordStatusChange(t *testing.T) {
	reg := prometheus.NewRegistry()

	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_order_status_changes_total",
		Help: "Test counter vec",
	}, []string{"status"})

	reg.MustRegister(statusChanges)

	metrics := &OrderMetrics{
		statusChanges: statusChanges,
	}

	metrics.RecordStatusChange("processing")
	metrics.RecordStatusChange("processing")
	metrics.RecordStatusChange("shipped")

	processingMetric := &dto.Metric{}
	if err := statusChanges.WithLabelValues("processing").Write(processingMetric); err != nil {
		t.Fatalf("failed to write processing metric: %v", err)
	}

	if processingMetric.Counter.GetValue() != 2.0 {
		t.Errorf("expected processing count 2.0, got %f", processingMetric.Counter.GetValue())
	}

	shippedMetric := &dto.Metric{}
	if err := statusChanges.WithLabelValues("shipped").Write(shippedMetric); err != nil {
		t.Fatalf("failed to write shipped metric: %v", err)
	}

	if shippedMetric.Counter.GetValue() != 1.0 {
		t.Errorf("expected shipped count 1.0, got %f", shippedMetric.Counter.GetValue())
	}
}

func TestRecordTxConflict(t *testing.T) {
	reg := prometheus.NewRegistry()

	txConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_tx_conflicts_total",
		Help: "Test counter",
	})

	reg.MustRegister(txConflicts)

	metrics := &OrderMetrics{
		txConflicts: txConflicts,
	}

	metrics.RecordTxConflict()
	metrics.RecordTxConflict()

	metric := &dto.Metric{}
	if err := txConflicts.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordPlaceDuration(t *testing.T) {
	reg := prometheus.NewRegistry()

	placeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_order_place_duration_seconds",
		Help:    "Test histogram",
		Buckets: prometheus.DefBuckets,
	})

	reg.MustRegister(placeDuration)

	metrics := &OrderMetrics{
		placeDuration: placeDuration,
	}

	metrics.RecordPlaceDuration(100 * time.Millisecond)
	metrics.RecordPlaceDuration(500 * time.Millisecond)
	metrics.RecordPlaceDuration(1 * time.Second)

	metric := &dto.Metric{}
	if err := placeDuration.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Histogram.GetSampleCount() != 3 {
		t.Errorf("expected 3 samples, got %d", metric.Histogram.GetSampleCount())
	}

	// Check sum is approximately correct (0.1 + 0.5 + 1.0 = 1.6)
	sum := metric.Histogram.GetSampleSum()
	if sum < 1.5 || sum > 1.7 {
		t.Errorf("expected sum around 1.6, got %f", sum)
	}
}

func TestRecordOutboxEvent(t *testing.T) {
	reg := prometheus.NewRegistry()

	outboxEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_outbox_events_total",
		Help: "Test counter",
	})

	reg.MustRegister(outboxEvents)

	metrics := &OrderMetrics{
		outboxEvents: outboxEvents,
	}

	metrics.RecordOutboxEvent()
	metrics.RecordOutboxEvent()

	metric := &dto.Metric{}
	if err := outboxEvents.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected counter value 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestOrderLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()

	activeOrders := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_order_lifecycle_active",
		Help: "Test gauge",
	})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_order_lifecycle_placed",
		Help: "Test counter",
	})

	reg.MustRegister(activeOrders, ordersPlaced)

	metrics := &OrderMetrics{
		activeOrders: activeOrders,
		ordersPlaced: ordersPlaced,
	}

	// Simulate order lifecycle
	metrics.RecordOrderPlaced() // active: 1
	metrics.RecordOrderPlaced() // active: 2
	metrics.RecordOrderPlaced() // active: 3

	metrics.RecordOrderFinished() // active: 2
	metrics.RecordOrderFinished() // active: 1

	gaugeMetric := &dto.Metric{}
	if err := activeOrders.Write(gaugeMetric); err != nil {
		t.Fatalf("failed to write gauge: %v", err)
	}

	if gaugeMetric.Gauge.GetValue() != 1.0 {
		t.Errorf("expected 1 active order, got %f", gaugeMetric.Gauge.GetValue())
	}

	placedMetric := &dto.Metric{}
	if err := ordersPlaced.Write(placedMetric); err != nil {
		t.Fatalf("failed to write placed metric: %v", err)
	}

	if placedMetric.Counter.GetValue() != 3.0 {
		t.Errorf("expected 3 placed orders, got %f", placedMetric.Counter.GetValue())
	}
}

func TestNilOrderMetrics(t *testing.T) {
	var metrics *OrderMetrics

	// Все методы должны быть no-op на nil получателе.
	metrics.RecordOrderPlaced()
	metrics.RecordOrderCancelled()
	metrics.RecordStatusChange("shipped")
	metrics.RecordOrderFinished()
	metrics.RecordTxConflict()
	metrics.RecordPlaceDuration(time.Second)
	metrics.RecordOutboxEvent()
}
