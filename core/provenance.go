package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Provenance identifies the pipeline invocation that produced an output.
type Provenance struct {
	RunID       string         `json:"id"`
	ParentRunID string         `json:"parent_run_id,omitempty"`
	Pipeline    string         `json:"pipeline,omitempty"`
	TraceID     string         `json:"trace_id,omitempty"`
	SpanID      string         `json:"span_id,omitempty"`
	StartTime   time.Time      `json:"start_time,omitzero"`
	EndTime     time.Time      `json:"end_time,omitzero"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Handle is the call-scoped provenance handle an evaluator passes into a
// pipeline. Pipelines use it to stamp their output (Provenance) and to derive
// handles for nested work (Child) so everything stays attributable to the
// originating evaluation call.
type Handle struct {
	RunID       string
	ParentRunID string
	Name        string
	TraceID     string
	SpanID      string
	Tags        []string
	Metadata    map[string]any

	start time.Time
}

// NewHandle creates a root handle with a fresh run id. Trace and span ids are
// taken from the OpenTelemetry span carried by ctx, if any.
func NewHandle(ctx context.Context, name string) *Handle {
	h := &Handle{
		RunID: uuid.NewString(),
		Name:  name,
		start: time.Now().UTC(),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		h.TraceID = sc.TraceID().String()
		h.SpanID = sc.SpanID().String()
	}
	return h
}

// Child derives a handle for nested work. Tags are inherited; metadata is not.
// Calling Child on a nil handle returns a root handle.
func (h *Handle) Child(ctx context.Context, name string) *Handle {
	c := NewHandle(ctx, name)
	if h == nil {
		return c
	}
	c.ParentRunID = h.RunID
	if c.TraceID == "" {
		c.TraceID = h.TraceID
		c.SpanID = h.SpanID
	}
	if len(h.Tags) > 0 {
		c.Tags = append([]string(nil), h.Tags...)
	}
	return c
}

// Provenance snapshots the handle as a provenance record ending now.
func (h *Handle) Provenance() Provenance {
	if h == nil {
		return Provenance{}
	}
	p := Provenance{
		RunID:       h.RunID,
		ParentRunID: h.ParentRunID,
		Pipeline:    h.Name,
		TraceID:     h.TraceID,
		SpanID:      h.SpanID,
		StartTime:   h.start,
		EndTime:     time.Now().UTC(),
	}
	if len(h.Metadata) > 0 {
		p.Extra = make(map[string]any, len(h.Metadata))
		for k, v := range h.Metadata {
			p.Extra[k] = v
		}
	}
	return p
}
