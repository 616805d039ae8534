package logging

import (
	"context"
	"log/slog"

	"takeoutfix/internal/services"
)

const (
	// FieldComponent names the subsystem emitting a record.
	FieldComponent = "component"
	// FieldRunID identifies one patch, mtime or copy run.
	FieldRunID = "run_id"
	// FieldStage names the workflow phase (discover, preflight, patch, copy).
	FieldStage = "stage"
	// FieldSidecar is the sidecar path a record refers to.
	FieldSidecar = "sidecar"
	// FieldMedia is the resolved media path a record refers to.
	FieldMedia = "media"
	// FieldPattern is the naming pattern that resolved a sidecar.
	FieldPattern = "pattern"
	// FieldEventType classifies a record for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if sidecar, ok := services.SidecarFromContext(ctx); ok {
		fields = append(fields, Sidecar(sidecar))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
