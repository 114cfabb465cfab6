package handler

import (
	"call-server/internal/calls/processor"
	"call-server/internal/notifier"
	"call-server/internal/observability"
)

type Handler struct {
	processor *processor.Processor
	notifier  *notifier.Notifier
	logger    *observability.Logger
}

func New(p *processor.Processor, n *notifier.Notifier, logger *observability.Logger) Handler {
	return Handler{
		processor: p,
		notifier:  n,
		logger:    logger,
	}
}
