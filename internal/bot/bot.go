package bot

import (
	"context"
	"log"

	"vrnews-bot/config"
	"vrnews-bot/internal/dialog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramBot struct {
	api    *tgbotapi.BotAPI
	cfg    *config.Config
	engine *dialog.Engine
	ctx    context.Context
}

func NewBot(ctx context.Context, cfg *config.Config, engine *dialog.Engine) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, err
	}
	return &TelegramBot{
		api:    api,
		cfg:    cfg,
		engine: engine,
		ctx:    ctx,
	}, nil
}

func (b *TelegramBot) Start() {
	b.api.Debug = false
	log.Printf("Authorized on account %s", b.api.Self.UserName)
	b.listenForUpdates()
}

func (b *TelegramBot) listenForUpdates() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	for update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		if update.Message.IsCommand() {
			b.handleCommand(update.Message)
			continue
		}
		b.handleText(update.Message)
	}
}

func (b *TelegramBot) handleCommand(message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID
	switch message.Command() {
	case "start":
		replies, err := b.engine.Start(userID)
		if err != nil {
			log.Printf("Failed to start session for user %d: %v", userID, err)
			b.sendText(chatID, errorMessage)
			return
		}
		b.sendReplies(chatID, replies)
	case "show_settings":
		replies, err := b.engine.ShowSettings(userID)
		if err != nil {
			log.Printf("Failed to show settings for user %d: %v", userID, err)
			b.sendText(chatID, errorMessage)
			return
		}
		b.sendReplies(chatID, replies)
	case "help":
		msg := tgbotapi.NewMessage(chatID, helpMessage)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("Failed to send help message: %v", err)
		}
	case "contact":
		b.sendText(chatID, contactMessage)
	}
}

func (b *TelegramBot) handleText(message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID
	replies, err := b.engine.Handle(b.ctx, userID, message.Text)
	if err != nil {
		log.Printf("Dialogue handling failed for user %d: %v", userID, err)
		b.sendText(chatID, errorMessage)
		return
	}
	b.sendReplies(chatID, replies)
}

func (b *TelegramBot) sendReplies(chatID int64, replies []dialog.Reply) {
	for _, reply := range replies {
		msg := tgbotapi.NewMessage(chatID, reply.Text)
		if reply.HTML {
			msg.ParseMode = tgbotapi.ModeHTML
		}
		if keyboard, ok := keyboardFor(reply.Keyboard); ok {
			msg.ReplyMarkup = keyboard
		}
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("Failed to send reply: %v", err)
		}
	}
}

func (b *TelegramBot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}
