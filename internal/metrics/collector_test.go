package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.httpRequestDuration)
	assert.NotNil(t, collector.dbConnectionsOpen)
	assert.NotNil(t, collector.dbPoolExhausted)
	assert.NotNil(t, collector.outboundRequestsTotal)
	assert.NotNil(t, collector.outboundRetriesTotal)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("GET", "/api/product/{id}", 200, 100*time.Millisecond, 1024, 2048)
	collector.RecordHTTPRequest("GET", "/api/product/{id}", 404, 50*time.Millisecond, 512, 64)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/api/product/{id}", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/api/product/{id}", "4xx")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.httpRequestDuration))
}

func TestCollector_RecordDBPool(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordDBPool("database", 10, 4, 6, 3)

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.dbConnectionsOpen.WithLabelValues("database")))
	assert.Equal(t, 4.0, testutil.ToFloat64(collector.dbConnectionsInUse.WithLabelValues("database")))
	assert.Equal(t, 6.0, testutil.ToFloat64(collector.dbConnectionsIdle.WithLabelValues("database")))
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.dbSessionsInFlight.WithLabelValues("database")))

	// Gauge 以最新快照为准
	collector.RecordDBPool("database", 2, 0, 2, 0)
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.dbConnectionsOpen.WithLabelValues("database")))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.dbSessionsInFlight.WithLabelValues("database")))
}

func TestCollector_RecordDBPoolExhausted(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordDBPoolExhausted("database")
	collector.RecordDBPoolExhausted("database")

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.dbPoolExhausted.WithLabelValues("database")))
}

func TestCollector_RecordOutbound(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordOutboundRequest("GET", "api.example.com", 0, 10*time.Millisecond)
	collector.RecordOutboundRetry("api.example.com")
	collector.RecordOutboundRequest("GET", "api.example.com", 200, 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.outboundRequestsTotal.WithLabelValues("GET", "api.example.com", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.outboundRequestsTotal.WithLabelValues("GET", "api.example.com", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.outboundRetriesTotal.WithLabelValues("api.example.com")))
}

func TestStatusCode(t *testing.T) {
	tests := map[int]string{
		0:   "unknown",
		201: "2xx",
		302: "3xx",
		422: "4xx",
		503: "5xx",
	}
	for code, want := range tests {
		assert.Equal(t, want, statusCode(code), "code %d", code)
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 1024, 2048)
			collector.RecordOutboundRetry("upstream")
			collector.RecordDBPoolExhausted("database")
		}()
	}
	wg.Wait()

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues("GET", "/test", "2xx")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.outboundRetriesTotal.WithLabelValues("upstream")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.dbPoolExhausted.WithLabelValues("database")))
}

func TestCollector_MetricsRegistration(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	// 默认 registry 之外的 registry 也能收集同一组向量指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector.httpRequestsTotal)
	registry.MustRegister(collector.dbConnectionsOpen)

	collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 0, 0)
	collector.RecordDBPool("database", 1, 0, 1, 0)

	n, err := testutil.GatherAndCount(registry)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}
