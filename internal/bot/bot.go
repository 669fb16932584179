package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"pepperbot/internal/domain"
	"pepperbot/internal/repository"
	"pepperbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// conversation states for multi-step commands
type sessionState int

const (
	stateNone sessionState = iota
	stateAwaitUsername
	stateAwaitPassword
	stateAwaitFilterName
	stateAwaitFilterCriteria
	stateAwaitListName
)

// session holds in-flight conversation data for one chat
type session struct {
	state      sessionState
	username   string
	filterName string
}

// Bot is the Telegram front end. It resolves chats to linked accounts
// and drives the same services as the HTTP API.
type Bot struct {
	api             *tgbotapi.BotAPI
	userService     service.UserService
	listService     service.ListService
	filterService   service.FilterService
	discountService service.DiscountService
	telegramRepo    repository.TelegramLinkRepository
	logger          *zap.Logger

	mu            sync.Mutex
	sessions      map[int64]*session
	callbacks     map[string]addToListPayload
	callbackOrder []string
}

// maxCallbackTokens caps the pending-suggestion map. Buttons that are
// never clicked would otherwise pin their payloads forever; past the
// cap the oldest tokens are dropped and their buttons expire.
const maxCallbackTokens = 1000

// addToListPayload is the target of an "add to list" suggestion button.
// Telegram limits callback data to 64 bytes, too small for two UUIDs,
// so buttons carry a short token resolved through this map.
type addToListPayload struct {
	ListID     uuid.UUID
	DiscountID uuid.UUID
}

// NewBot creates the bot and verifies the token against the Telegram API.
func NewBot(
	token string,
	userService service.UserService,
	listService service.ListService,
	filterService service.FilterService,
	discountService service.DiscountService,
	telegramRepo repository.TelegramLinkRepository,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:             api,
		userService:     userService,
		listService:     listService,
		filterService:   filterService,
		discountService: discountService,
		telegramRepo:    telegramRepo,
		logger:          logger,
		sessions:        make(map[int64]*session),
		callbacks:       make(map[string]addToListPayload),
	}, nil
}

// Start runs the long-polling update loop until the context is canceled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Telegram bot polling started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Telegram bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("Panic in bot handler", zap.Any("panic", rec))
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.Chat == nil {
		return
	}

	b.handleMessage(ctx, update.Message)
}

// linkedUser resolves the account linked to a chat, nil when none is.
func (b *Bot) linkedUser(ctx context.Context, chatID int64) *domain.User {
	link, err := b.telegramRepo.FindByChatID(ctx, strconv.FormatInt(chatID, 10))
	if err != nil {
		if err != repository.ErrTelegramLinkNotFound {
			b.logger.Error("Failed to resolve telegram link", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		return nil
	}

	user, err := b.userService.UserByID(ctx, link.UserID)
	if err != nil {
		b.logger.Error("Failed to load linked user", zap.String("user_id", link.UserID.String()), zap.Error(err))
		return nil
	}

	return user
}

func (b *Bot) session(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{}
		b.sessions[chatID] = s
	}

	return s
}

func (b *Bot) resetSession(chatID int64) {
	b.mu.Lock()
	delete(b.sessions, chatID)
	b.mu.Unlock()
}

// callbackToken stores a suggestion payload and returns the short token
// to embed in the button.
func (b *Bot) callbackToken(payload addToListPayload) string {
	token := uuid.NewString()[:8]

	b.mu.Lock()
	for len(b.callbackOrder) >= maxCallbackTokens {
		oldest := b.callbackOrder[0]
		b.callbackOrder = b.callbackOrder[1:]
		delete(b.callbacks, oldest)
	}
	b.callbacks[token] = payload
	b.callbackOrder = append(b.callbackOrder, token)
	b.mu.Unlock()

	return token
}

func (b *Bot) callbackPayload(token string) (addToListPayload, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	payload, ok := b.callbacks[token]
	if ok {
		delete(b.callbacks, token)
	}

	return payload, ok
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyMarkdown(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.DisableWebPagePreview = true
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
