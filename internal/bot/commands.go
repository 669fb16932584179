package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pepperbot/internal/domain"
	"pepperbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const welcomeText = `🤖 Welcome to PepperBot!

I help you find the best discounts and manage your shopping lists.

Commands:
/login - Link your account
/filters - Manage discount filters
/lists - View shopping lists
/help - Show this help

First, please /login to link your account.`

const helpText = `🤖 PepperBot Help

Commands:
/start - Start the bot and get welcome message
/login - Link your PepperBot account
/filters - View and manage discount filters
/addfilter - Create a new discount filter
/lists - View your shopping lists
/createlist - Create a new shopping list
/help - Show this help message

Features:
• Get notified when discounts match your filters
• Add discounted items to shopping lists
• Manage your shopping lists directly from Telegram`

const criteriaHelpText = `Please enter filter criteria as JSON. Examples:

For store-specific discounts:
{"store": "Amazon"}

For minimum discount percentage:
{"min_discount": 20}

For keyword matching:
{"keywords": ["laptop", "computer"]}

Combined criteria:
{"store": "Walmart", "min_discount": 15, "keywords": ["electronics"]}`

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.resetSession(chatID)
			b.reply(chatID, welcomeText)
		case "help":
			b.reply(chatID, helpText)
		case "login":
			b.cmdLogin(ctx, chatID)
		case "filters":
			b.cmdFilters(ctx, chatID)
		case "addfilter":
			b.cmdAddFilter(ctx, chatID)
		case "lists":
			b.cmdLists(ctx, chatID)
		case "createlist":
			b.cmdCreateList(ctx, chatID)
		default:
			b.reply(chatID, "Unknown command. Use /help to see what I can do.")
		}
		return
	}

	b.handleConversation(ctx, chatID, text)
}

// handleConversation routes free text to the pending multi-step command.
func (b *Bot) handleConversation(ctx context.Context, chatID int64, text string) {
	s := b.session(chatID)

	switch s.state {
	case stateAwaitUsername:
		s.username = text
		s.state = stateAwaitPassword
		b.reply(chatID, "Please enter your password:")

	case stateAwaitPassword:
		b.finishLogin(ctx, chatID, s.username, text)

	case stateAwaitFilterName:
		s.filterName = text
		s.state = stateAwaitFilterCriteria
		b.reply(chatID, criteriaHelpText)

	case stateAwaitFilterCriteria:
		b.finishAddFilter(ctx, chatID, s.filterName, text)

	case stateAwaitListName:
		b.finishCreateList(ctx, chatID, text)

	default:
		b.reply(chatID, "Use /help to see available commands.")
	}
}

func (b *Bot) cmdLogin(ctx context.Context, chatID int64) {
	b.resetSession(chatID)

	if user := b.linkedUser(ctx, chatID); user != nil {
		b.reply(chatID, fmt.Sprintf("✅ Already logged in as %s", user.Username))
		return
	}

	b.session(chatID).state = stateAwaitUsername
	b.reply(chatID, "Please enter your username:")
}

func (b *Bot) finishLogin(ctx context.Context, chatID int64, username, password string) {
	b.resetSession(chatID)

	user, err := b.userService.Authenticate(ctx, username, password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			b.reply(chatID, "❌ Invalid username or password. Please try again with /login")
			return
		}

		b.logger.Error("Bot login failed", zap.Error(err))
		b.reply(chatID, "❌ Something went wrong. Please try again with /login")
		return
	}

	link := &domain.TelegramLink{
		ID:        uuid.New(),
		ChatID:    strconv.FormatInt(chatID, 10),
		UserID:    user.ID,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := b.telegramRepo.Upsert(ctx, link); err != nil {
		b.logger.Error("Failed to link telegram chat", zap.Error(err))
		b.reply(chatID, "❌ Something went wrong. Please try again with /login")
		return
	}

	b.logger.Info("Telegram chat linked",
		zap.Int64("chat_id", chatID),
		zap.String("user_id", user.ID.String()))
	b.reply(chatID, fmt.Sprintf("✅ Successfully logged in as %s!", user.Username))
}

func (b *Bot) cmdFilters(ctx context.Context, chatID int64) {
	user := b.linkedUser(ctx, chatID)
	if user == nil {
		b.reply(chatID, "❌ Please /login first")
		return
	}

	filters, err := b.filterService.Filters(ctx, user.ID)
	if err != nil {
		b.logger.Error("Failed to list filters for bot", zap.Error(err))
		b.reply(chatID, "❌ Could not load your filters. Please try again later.")
		return
	}

	if len(filters) == 0 {
		b.reply(chatID, "📋 You have no filters yet.\n\nUse /addfilter to create one.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Your filters:\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range filters {
		status := "❌"
		action := "Enable"
		if f.IsActive {
			status = "✅"
			action = "Disable"
		}

		sb.WriteString(fmt.Sprintf("%s %s\n", status, f.Name))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s", action, f.Name),
				"toggle_filter:"+f.ID.String(),
			),
		))
	}

	sb.WriteString("\nUse /addfilter to create a new filter.")

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.replyMarkdown(chatID, sb.String(), &keyboard)
}

func (b *Bot) cmdAddFilter(ctx context.Context, chatID int64) {
	if b.linkedUser(ctx, chatID) == nil {
		b.reply(chatID, "❌ Please /login first")
		return
	}

	b.session(chatID).state = stateAwaitFilterName
	b.reply(chatID, "Please enter a name for your new filter:")
}

func (b *Bot) finishAddFilter(ctx context.Context, chatID int64, name, criteria string) {
	user := b.linkedUser(ctx, chatID)
	if user == nil {
		b.resetSession(chatID)
		b.reply(chatID, "❌ Session expired. Please /login again")
		return
	}

	if _, err := b.filterService.Create(ctx, user.ID, name, criteria); err != nil {
		if err == service.ErrInvalidCriteria {
			// keep the state so the user can retry the criteria
			b.reply(chatID, "❌ Invalid JSON format. Please try again or use /addfilter to start over")
			return
		}

		b.resetSession(chatID)
		b.logger.Error("Failed to create filter from bot", zap.Error(err))
		b.reply(chatID, "❌ Could not create the filter. Please try again later.")
		return
	}

	b.resetSession(chatID)
	b.reply(chatID, fmt.Sprintf("✅ Filter '%s' created successfully!", name))
}

func (b *Bot) cmdLists(ctx context.Context, chatID int64) {
	user := b.linkedUser(ctx, chatID)
	if user == nil {
		b.reply(chatID, "❌ Please /login first")
		return
	}

	lists, err := b.listService.Lists(ctx, user.ID, 0, 100)
	if err != nil {
		b.logger.Error("Failed to list shopping lists for bot", zap.Error(err))
		b.reply(chatID, "❌ Could not load your lists. Please try again later.")
		return
	}

	if len(lists) == 0 {
		b.reply(chatID, "📝 You have no shopping lists yet.\n\nUse /createlist to create one.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📝 Your shopping lists:\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sl := range lists {
		total, completed, err := b.listService.ItemCounts(ctx, sl.ID, user.ID)
		if err != nil {
			b.logger.Warn("Failed to count items", zap.String("list_id", sl.ID.String()), zap.Error(err))
		}

		sb.WriteString(fmt.Sprintf("🛒 %s (%d/%d completed)\n", sl.Title, completed, total))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("View "+sl.Title, "view_list:"+sl.ID.String()),
		))
	}

	sb.WriteString("\nUse /createlist to create a new list.")

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.replyMarkdown(chatID, sb.String(), &keyboard)
}

func (b *Bot) cmdCreateList(ctx context.Context, chatID int64) {
	if b.linkedUser(ctx, chatID) == nil {
		b.reply(chatID, "❌ Please /login first")
		return
	}

	b.session(chatID).state = stateAwaitListName
	b.reply(chatID, "Please enter a name for your new shopping list:")
}

func (b *Bot) finishCreateList(ctx context.Context, chatID int64, title string) {
	b.resetSession(chatID)

	user := b.linkedUser(ctx, chatID)
	if user == nil {
		b.reply(chatID, "❌ Session expired. Please /login again")
		return
	}

	if _, err := b.listService.CreateList(ctx, user.ID, title, nil); err != nil {
		b.logger.Error("Failed to create list from bot", zap.Error(err))
		b.reply(chatID, "❌ Could not create the list. Please try again later.")
		return
	}

	b.reply(chatID, fmt.Sprintf("✅ Shopping list '%s' created successfully!", title))
}
