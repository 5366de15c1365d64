package chain

import (
	"log/slog"

	"go.uber.org/fx"
)

var Module = fx.Module("chain",
	fx.Provide(
		NewChatHandler,
		NewVoiceHandler,
		NewCodeEditorHandler,
		NewVideoJoinHandler,
		NewVideoSignalHandler,
		NewReviewTypingHandler,
		NewDomainEventHandler,

		// Priority order is fixed here: exact-name handlers first, the
		// registry-backed domain handler last.
		func(
			logger *slog.Logger,
			chat *ChatHandler,
			voice *VoiceHandler,
			code *CodeEditorHandler,
			videoJoin *VideoJoinHandler,
			videoSignal *VideoSignalHandler,
			typing *ReviewTypingHandler,
			domain *DomainEventHandler,
		) *Chain {
			return New(logger, chat, voice, code, videoJoin, videoSignal, typing, domain)
		},
	),
)
