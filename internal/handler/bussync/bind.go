package bussync

import (
	"log/slog"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/hirelight/room-events-service/internal/domain/event"
)

// Bind connects watermill to the processor, handling panic recovery and
// poison-pill protection.
func Bind(p *SyncProcessor, logger *slog.Logger) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		// [PANIC_RECOVERY]
		// Keep the consumer alive no matter what a bad payload triggers.
		defer func() {
			if r := recover(); r != nil {
				logger.Error("PANIC_RECOVERED",
					"err", r,
					"stack", string(debug.Stack()),
					"msg_id", msg.UUID)
			}
		}()

		env, err := event.DecodeEnvelope(msg.Payload)
		if err != nil {
			logger.Error("DECODE_FAILED", "err", err, "msg_id", msg.UUID)
			return nil // ACK: Poison Pill protection.
		}

		// NACK on persistence failure triggers the retry policy; the poison
		// queue catches what retries cannot fix.
		return p.Process(msg.Context(), env)
	}
}
