// Package metrics emits operation metrics as CloudWatch Embedded Metric Format
// (EMF) documents: one JSON line per flush, written to a configurable sink
// (stdout by default). A log shipper that understands EMF turns the lines into
// metrics; anything else can simply grep them.
//
// See: https://docs.aws.amazon.com/AmazonCloudWatch/latest/monitoring/CloudWatch_Embedded_Metric_Format_Specification.html
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

// Standard EMF metric units.
const (
	UnitMilliseconds = "Milliseconds"
	UnitCount        = "Count"
	UnitBytes        = "Bytes"
	UnitNone         = "None"
)

// Namespace is the metric namespace used by every Retouch Studio binary.
const Namespace = "RetouchStudio"

type metricDef struct {
	Name string `json:"Name"`
	Unit string `json:"Unit"`
}

type emfDirective struct {
	Timestamp         int64      `json:"Timestamp"`
	CloudWatchMetrics []cwMetric `json:"CloudWatchMetrics"`
}

type cwMetric struct {
	Namespace  string      `json:"Namespace"`
	Dimensions [][]string  `json:"Dimensions"`
	Metrics    []metricDef `json:"Metrics"`
}

var (
	sinkMu  sync.Mutex
	sink    io.Writer = os.Stdout
	enabled           = true
	service string
)

// SetOutput redirects flushed documents. The MCP server points this at stderr
// because stdout carries the protocol.
func SetOutput(w io.Writer) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sink = w
}

// SetEnabled turns emission on or off globally.
func SetEnabled(on bool) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	enabled = on
}

// SetService sets the Service dimension added to every new Recorder.
func SetService(name string) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	service = name
}

// Recorder accumulates dimensions, metrics and properties for a single flush.
// It is not safe for concurrent use; create one per operation.
type Recorder struct {
	namespace  string
	start      time.Time
	dimensions map[string]string
	metrics    map[string]metricDef
	values     map[string]interface{}
	properties map[string]interface{}
}

// New creates a Recorder in the given namespace, carrying the Service dimension
// when one is configured.
func New(namespace string) *Recorder {
	r := &Recorder{
		namespace:  namespace,
		start:      time.Now(),
		dimensions: make(map[string]string),
		metrics:    make(map[string]metricDef),
		values:     make(map[string]interface{}),
		properties: make(map[string]interface{}),
	}
	sinkMu.Lock()
	if service != "" {
		r.dimensions["Service"] = service
	}
	sinkMu.Unlock()
	return r
}

// Dimension adds an indexed dimension.
func (r *Recorder) Dimension(key, value string) *Recorder {
	r.dimensions[key] = value
	return r
}

// Metric records a named value with a unit.
func (r *Recorder) Metric(name string, value float64, unit string) *Recorder {
	r.metrics[name] = metricDef{Name: name, Unit: unit}
	r.values[name] = value
	return r
}

// Count records a count metric with value 1.
func (r *Recorder) Count(name string) *Recorder {
	return r.Metric(name, 1, UnitCount)
}

// Elapsed records the milliseconds since the Recorder was created.
func (r *Recorder) Elapsed(name string) *Recorder {
	return r.Metric(name, float64(time.Since(r.start).Milliseconds()), UnitMilliseconds)
}

// Property adds a non-indexed field to the document.
func (r *Recorder) Property(key string, value interface{}) *Recorder {
	r.properties[key] = value
	return r
}

// Flush writes the document as one JSON line. A Recorder without metrics
// writes nothing. The Recorder must not be reused afterwards.
func (r *Recorder) Flush() {
	if len(r.metrics) == 0 {
		return
	}

	sinkMu.Lock()
	defer sinkMu.Unlock()
	if !enabled {
		return
	}

	metricNames := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		metricNames = append(metricNames, name)
	}
	sort.Strings(metricNames)
	metricDefs := make([]metricDef, 0, len(metricNames))
	for _, name := range metricNames {
		metricDefs = append(metricDefs, r.metrics[name])
	}

	dimKeys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		dimKeys = append(dimKeys, k)
	}
	sort.Strings(dimKeys)

	doc := make(map[string]interface{}, len(r.dimensions)+len(r.values)+len(r.properties)+1)
	doc["_aws"] = emfDirective{
		Timestamp: time.Now().UnixMilli(),
		CloudWatchMetrics: []cwMetric{{
			Namespace:  r.namespace,
			Dimensions: [][]string{dimKeys},
			Metrics:    metricDefs,
		}},
	}
	for k, v := range r.properties {
		doc[k] = v
	}
	for k, v := range r.values {
		doc[k] = v
	}
	for k, v := range r.dimensions {
		doc[k] = v
	}

	data, err := json.Marshal(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "emf: failed to marshal metrics: %v\n", err)
		return
	}
	fmt.Fprintln(sink, string(data))
}
