package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/kenyap/quotabot/internal/config"
	"github.com/kenyap/quotabot/internal/ledger"
	"github.com/kenyap/quotabot/internal/utils"
)

// handleUpdate routes one Telegram update. Called on its own goroutine, so
// a slow vendor call never stalls other users.
func (b *Bot) handleUpdate(ctx context.Context, update gjson.Result) {
	b.metrics.RecordUpdate()

	switch {
	case update.Get("callback_query").Exists():
		b.handleCallback(ctx, update.Get("callback_query"))
	case update.Get("message.text").Exists():
		b.handleMessage(ctx, update.Get("message"))
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg gjson.Result) {
	chatID := msg.Get("chat.id").Int()
	userID := msg.Get("from.id").Int()
	text := msg.Get("text").String()

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, chatID, userID, msg)
		return
	}

	// A pending admin conversation consumes plain text input.
	if conv, ok := b.adminConvs.get(userID); ok && conv.stage != stageNone {
		b.handleAdminInput(ctx, chatID, userID, text, conv)
		return
	}

	b.handleQuery(ctx, chatID, userID, msg)
}

func (b *Bot) handleCommand(ctx context.Context, chatID, userID int64, msg gjson.Result) {
	command := strings.Fields(msg.Get("text").String())[0]

	switch command {
	case "/start":
		first := msg.Get("from.first_name").String()
		b.send(ctx, chatID, fmt.Sprintf(
			"Hi %s! I am Ken's personal AI Assistant. Please select which AI model you would like to chat with.", first))
		b.showMainMenu(ctx, chatID, 0)
	case "/help":
		b.send(ctx, chatID, "Just send me any message, and I'll respond with AI-generated content!")
	case "/change_model":
		b.showMainMenu(ctx, chatID, 0)
	case "/admin":
		b.handleAdminCommand(ctx, chatID, userID)
	case "/cancel":
		b.adminConvs.clear(userID)
		b.send(ctx, chatID, "❌ Operation canceled.\n\nUse /admin to return to the admin dashboard.")
	default:
		b.send(ctx, chatID, "Unknown command. Try /help.")
	}
}

// handleQuery is the billing pipeline: register, authorize, dispatch,
// estimate, price, record, reply. The vendor call happens strictly outside
// any ledger transaction.
func (b *Bot) handleQuery(ctx context.Context, chatID, userID int64, msg gjson.Result) {
	b.metrics.RecordMessage()
	text := msg.Get("text").String()

	b.ledger.RegisterOrTouch(ctx, userID,
		msg.Get("from.username").String(),
		msg.Get("from.first_name").String(),
		msg.Get("from.last_name").String())

	decision := b.policy.Authorize(ctx, userID)
	if !decision.Allowed {
		b.metrics.RecordDenial()
		b.send(ctx, chatID, fmt.Sprintf(
			"⚠️ %s\n\nTo continue using the bot, please contact the administrator.", decision.Reason))
		return
	}

	selection, ok := b.selections.Get(userID)
	if !ok {
		b.sendKB(ctx, chatID, "Please select an AI model first before sending messages.",
			[][]Button{{{Text: "Select Model", CallbackData: "back_to_main"}}})
		return
	}

	_ = b.api.SendChatAction(ctx, chatID, "typing")
	b.send(ctx, chatID, "Thinking...")

	dispatchCtx, cancel := context.WithTimeout(ctx, b.cfg.Dispatch.Timeout)
	reply, err := b.registry.Dispatch(dispatchCtx, selection.Provider, selection.ModelID, text)
	cancel()
	if err != nil {
		// Vendor failures are reported as text and never billed.
		b.metrics.RecordDispatchFailure()
		log.Error().Err(err).Str("provider", selection.Provider).Str("model", selection.ModelID).
			Int64("user_id", userID).Msg("dispatch failed")
		b.send(ctx, chatID, fmt.Sprintf("Error communicating with %s: %v", selection.Provider, err))
		return
	}

	inputTokens := b.estimator.Estimate(text)
	outputTokens := b.estimator.Estimate(reply)

	cost, err := b.pricing.Cost(selection.ModelID, inputTokens, outputTokens)
	if err != nil {
		// Config validation prices every offered model, so this means the
		// tables drifted at runtime. Deliver the reply but skip billing.
		log.Error().Err(err).Str("model", selection.ModelID).Msg("pricing lookup failed, message not billed")
	} else if b.ledger.RecordMessage(ctx, userID,
		strings.ToLower(selection.Provider), strings.ToLower(selection.ModelID),
		inputTokens, outputTokens, cost) {
		b.metrics.RecordBilled()
	}

	if decision.Tier == ledger.TierFree {
		reply += fmt.Sprintf("\n\n\n[📊 %d free queries remaining]", decision.Remaining)
	}

	for _, chunk := range utils.ChunkString(reply, config.ReplyChunkSize) {
		b.send(ctx, chatID, chunk)
	}
}

func (b *Bot) handleCallback(ctx context.Context, query gjson.Result) {
	_ = b.api.AnswerCallback(ctx, query.Get("id").String())

	data := query.Get("data").String()
	userID := query.Get("from.id").Int()
	chatID := query.Get("message.chat.id").Int()
	messageID := query.Get("message.message_id").Int()

	switch {
	case strings.HasPrefix(data, "provider_"):
		b.showModelMenu(ctx, chatID, messageID, strings.TrimPrefix(data, "provider_"))

	case data == "random":
		b.edit(ctx, chatID, messageID, "Sorry currently not available. WIP", nil)

	case data == "back_to_main":
		b.showMainMenu(ctx, chatID, messageID)

	case strings.HasPrefix(data, "model_"):
		parts := strings.SplitN(data, "_", 3)
		if len(parts) != 3 {
			return
		}
		provider, modelID := parts[1], parts[2]
		b.selections.Set(userID, provider, modelID)
		b.edit(ctx, chatID, messageID, fmt.Sprintf(
			"You have selected: %s\n\nUsing model: %s\n\n"+
				"You can now start chatting with this model. Simply send a message!\n\n"+
				"Use /change_model to select a different AI model at any time.",
			provider, modelID), nil)

	case strings.HasPrefix(data, "admin_"), strings.HasPrefix(data, "access_"):
		b.handleAdminCallback(ctx, chatID, messageID, userID, data)
	}
}

func (b *Bot) showMainMenu(ctx context.Context, chatID, messageID int64) {
	var keyboard [][]Button
	for _, name := range b.cfg.ProviderNames() {
		keyboard = append(keyboard, []Button{{Text: name, CallbackData: "provider_" + name}})
	}
	keyboard = append(keyboard, []Button{{Text: "Surprise Me!", CallbackData: "random"}})

	text := "Main Menu\n\nPlease select AI Model:"
	if messageID != 0 {
		b.edit(ctx, chatID, messageID, text, keyboard)
	} else {
		b.sendKB(ctx, chatID, text, keyboard)
	}
}

func (b *Bot) showModelMenu(ctx context.Context, chatID, messageID int64, provider string) {
	p, ok := b.cfg.Providers[provider]
	if !ok {
		b.edit(ctx, chatID, messageID, "Unknown provider. Use /change_model to start over.", nil)
		return
	}

	var keyboard [][]Button
	for _, m := range p.Models {
		keyboard = append(keyboard, []Button{{
			Text:         m.Name,
			CallbackData: fmt.Sprintf("model_%s_%s", provider, m.ID),
		}})
	}
	keyboard = append(keyboard, []Button{{Text: "◀️ Back to Main Menu", CallbackData: "back_to_main"}})

	b.edit(ctx, chatID, messageID, "Models - Select your model:", keyboard)
}

// send and friends log rather than propagate transport errors: a failed
// delivery must not poison the update loop.
func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if err := b.api.SendMessage(ctx, chatID, text); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) sendKB(ctx context.Context, chatID int64, text string, keyboard [][]Button) {
	if err := b.api.SendMessageKB(ctx, chatID, text, keyboard); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (b *Bot) edit(ctx context.Context, chatID, messageID int64, text string, keyboard [][]Button) {
	if err := b.api.EditMessage(ctx, chatID, messageID, text, keyboard); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("edit failed")
	}
}
