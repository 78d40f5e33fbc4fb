package implementors

import (
	"log/slog"
	"sync"
)

// WarningHandler is called when part of a fragment is skipped.
type WarningHandler interface {
	OnMalformed(w *MalformedFragmentWarning)
}

// Ensure implementations satisfy the interface.
var (
	_ WarningHandler = (*LogWarningHandler)(nil)
	_ WarningHandler = (*NopWarningHandler)(nil)
	_ WarningHandler = (*CollectingWarningHandler)(nil)
)

// LogWarningHandler logs warnings through slog.
type LogWarningHandler struct {
	Logger *slog.Logger
}

func (h *LogWarningHandler) OnMalformed(w *MalformedFragmentWarning) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("skipping malformed fragment data",
		"module", w.Module,
		"capability", w.Capability,
		"record", w.Record,
		"reason", w.Reason)
}

// NopWarningHandler does nothing.
type NopWarningHandler struct{}

func (h *NopWarningHandler) OnMalformed(w *MalformedFragmentWarning) {}

// CollectingWarningHandler keeps every warning it receives and optionally
// forwards it to Next.
type CollectingWarningHandler struct {
	Next WarningHandler

	mu       sync.Mutex
	warnings []*MalformedFragmentWarning
}

func (h *CollectingWarningHandler) OnMalformed(w *MalformedFragmentWarning) {
	h.mu.Lock()
	h.warnings = append(h.warnings, w)
	h.mu.Unlock()
	if h.Next != nil {
		h.Next.OnMalformed(w)
	}
}

// Warnings returns the collected warnings in arrival order.
func (h *CollectingWarningHandler) Warnings() []*MalformedFragmentWarning {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*MalformedFragmentWarning(nil), h.warnings...)
}
