// Package metrics tracks operational counters for the local store and API.
package metrics

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	startTime time.Time

	documentLoads   atomic.Int64
	loadFailures    atomic.Int64
	documentSaves   atomic.Int64
	saveFailures    atomic.Int64
	migrations      atomic.Int64
	summariesServed atomic.Int64

	mutations     map[string]*atomic.Int64
	mutationsLock sync.Mutex
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	return &Metrics{
		startTime: time.Now(),
		mutations: make(map[string]*atomic.Int64),
	}
}

func (m *Metrics) RecordDocumentLoad(success bool) {
	if success {
		m.documentLoads.Add(1)
	} else {
		m.loadFailures.Add(1)
	}
}

func (m *Metrics) RecordDocumentSave(success bool) {
	if success {
		m.documentSaves.Add(1)
	} else {
		m.saveFailures.Add(1)
	}
}

func (m *Metrics) RecordMutation(collection string) {
	m.mutationsLock.Lock()
	defer m.mutationsLock.Unlock()

	if m.mutations[collection] == nil {
		m.mutations[collection] = &atomic.Int64{}
	}
	m.mutations[collection].Add(1)
}

func (m *Metrics) RecordMigration() {
	m.migrations.Add(1)
}

func (m *Metrics) RecordSummary() {
	m.summariesServed.Add(1)
}

type Snapshot struct {
	Uptime          time.Duration    `json:"uptime"`
	DocumentLoads   int64            `json:"document_loads"`
	LoadFailures    int64            `json:"load_failures"`
	DocumentSaves   int64            `json:"document_saves"`
	SaveFailures    int64            `json:"save_failures"`
	Migrations      int64            `json:"migrations"`
	SummariesServed int64            `json:"summaries_served"`
	Mutations       map[string]int64 `json:"mutations"`
}

func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		Uptime:          time.Since(m.startTime),
		DocumentLoads:   m.documentLoads.Load(),
		LoadFailures:    m.loadFailures.Load(),
		DocumentSaves:   m.documentSaves.Load(),
		SaveFailures:    m.saveFailures.Load(),
		Migrations:      m.migrations.Load(),
		SummariesServed: m.summariesServed.Load(),
		Mutations:       make(map[string]int64),
	}

	m.mutationsLock.Lock()
	for k, v := range m.mutations {
		s.Mutations[k] = v.Load()
	}
	m.mutationsLock.Unlock()

	return s
}

func (m *Metrics) Prometheus() string {
	var sb strings.Builder

	writeCounter := func(name, help string, value int64) {
		sb.WriteString("# HELP " + name + " " + help + "\n")
		sb.WriteString("# TYPE " + name + " counter\n")
		sb.WriteString(name + " " + strconv.FormatInt(value, 10) + "\n\n")
	}

	sb.WriteString("# HELP medtrack_uptime_seconds Time since process start\n")
	sb.WriteString("# TYPE medtrack_uptime_seconds gauge\n")
	sb.WriteString("medtrack_uptime_seconds " + strconv.FormatInt(int64(time.Since(m.startTime).Seconds()), 10) + "\n\n")

	writeCounter("medtrack_document_loads_total", "Successful document loads", m.documentLoads.Load())
	writeCounter("medtrack_load_failures_total", "Document loads that fell back to defaults", m.loadFailures.Load())
	writeCounter("medtrack_document_saves_total", "Successful document saves", m.documentSaves.Load())
	writeCounter("medtrack_save_failures_total", "Document saves that failed", m.saveFailures.Load())
	writeCounter("medtrack_migrations_total", "Legacy storage migrations performed", m.migrations.Load())
	writeCounter("medtrack_summaries_total", "Health summaries computed", m.summariesServed.Load())

	m.mutationsLock.Lock()
	for collection, v := range m.mutations {
		sb.WriteString("medtrack_mutations_total{collection=\"" + collection + "\"} " + strconv.FormatInt(v.Load(), 10) + "\n")
	}
	m.mutationsLock.Unlock()

	return sb.String()
}

// Package-level helpers over the default instance.

func GetSnapshot() *Snapshot {
	return Default().Snapshot()
}

func GetPrometheus() string {
	return Default().Prometheus()
}
