package monitoring

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds in-process counters for the rating service.
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	PipelineExecutions  int64
	SingleFlightJoins   int64
	DuplicateFallbacks  int64
	ReapedTasks         int64
	LLMCalls            int64
	LLMFailures         int64
	RegistryLookups     int64
	AverageResponseTime int64 // nanoseconds
	StartTime           time.Time

	// Status code tracking
	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	// Rate limit metrics
	RateLimitIPBlocks      int64
	RateLimitRedisErrors   int64
	RateLimitFallbackCount int64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		RequestCountByStatus: make(map[int]int64),
	}
}

func (m *Metrics) IncrementRequest()           { atomic.AddInt64(&m.RequestCount, 1) }
func (m *Metrics) IncrementError()             { atomic.AddInt64(&m.ErrorCount, 1) }
func (m *Metrics) IncrementCacheHit()          { atomic.AddInt64(&m.CacheHits, 1) }
func (m *Metrics) IncrementCacheMiss()         { atomic.AddInt64(&m.CacheMisses, 1) }
func (m *Metrics) IncrementPipelineExecution() { atomic.AddInt64(&m.PipelineExecutions, 1) }
func (m *Metrics) IncrementSingleFlightJoin()  { atomic.AddInt64(&m.SingleFlightJoins, 1) }
func (m *Metrics) IncrementDuplicateFallback() { atomic.AddInt64(&m.DuplicateFallbacks, 1) }
func (m *Metrics) IncrementReapedTask()        { atomic.AddInt64(&m.ReapedTasks, 1) }
func (m *Metrics) IncrementLLMCall()           { atomic.AddInt64(&m.LLMCalls, 1) }
func (m *Metrics) IncrementLLMFailure()        { atomic.AddInt64(&m.LLMFailures, 1) }
func (m *Metrics) IncrementRegistryLookup()    { atomic.AddInt64(&m.RegistryLookups, 1) }

func (m *Metrics) IncrementRateLimitIPBlock()  { atomic.AddInt64(&m.RateLimitIPBlocks, 1) }
func (m *Metrics) IncrementRateLimitRedisErr() { atomic.AddInt64(&m.RateLimitRedisErrors, 1) }
func (m *Metrics) IncrementRateLimitFallback() { atomic.AddInt64(&m.RateLimitFallbackCount, 1) }

// RecordResponseTime records response time for the running average.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	newAverage := (current + duration.Nanoseconds()) / 2
	atomic.StoreInt64(&m.AverageResponseTime, newAverage)
}

// RecordRequestByStatus tracks request counts per status code.
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// Snapshot returns the current metric values for the metrics endpoint.
func (m *Metrics) Snapshot() map[string]interface{} {
	m.StatusMutex.RLock()
	byStatus := make(map[int]int64, len(m.RequestCountByStatus))
	for k, v := range m.RequestCountByStatus {
		byStatus[k] = v
	}
	m.StatusMutex.RUnlock()

	return map[string]interface{}{
		"request_count":           atomic.LoadInt64(&m.RequestCount),
		"error_count":             atomic.LoadInt64(&m.ErrorCount),
		"cache_hits":              atomic.LoadInt64(&m.CacheHits),
		"cache_misses":            atomic.LoadInt64(&m.CacheMisses),
		"pipeline_executions":     atomic.LoadInt64(&m.PipelineExecutions),
		"single_flight_joins":     atomic.LoadInt64(&m.SingleFlightJoins),
		"duplicate_fallbacks":     atomic.LoadInt64(&m.DuplicateFallbacks),
		"reaped_tasks":            atomic.LoadInt64(&m.ReapedTasks),
		"llm_calls":               atomic.LoadInt64(&m.LLMCalls),
		"llm_failures":            atomic.LoadInt64(&m.LLMFailures),
		"registry_lookups":        atomic.LoadInt64(&m.RegistryLookups),
		"avg_response_time_ms":    atomic.LoadInt64(&m.AverageResponseTime) / 1e6,
		"requests_by_status":      byStatus,
		"rate_limit_ip_blocks":    atomic.LoadInt64(&m.RateLimitIPBlocks),
		"rate_limit_redis_errors": atomic.LoadInt64(&m.RateLimitRedisErrors),
		"uptime_seconds":          time.Since(m.StartTime).Seconds(),
	}
}
