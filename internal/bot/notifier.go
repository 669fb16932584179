package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"pepperbot/internal/domain"
	"pepperbot/internal/repository"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotifyDiscount pushes a matched deal to the user's linked chat and,
// when the item is not on any list yet, offers to add it to one.
// Users without an active link are silently skipped.
func (b *Bot) NotifyDiscount(ctx context.Context, userID uuid.UUID, discount *domain.Discount) error {
	link, err := b.telegramRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		if err == repository.ErrTelegramLinkNotFound {
			return nil
		}
		return fmt.Errorf("failed to find telegram link: %w", err)
	}

	chatID, err := strconv.ParseInt(link.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", link.ChatID, err)
	}

	b.replyMarkdown(chatID, formatDiscount(discount), nil)
	b.suggestLists(ctx, chatID, userID, discount)

	return nil
}

func formatDiscount(d *domain.Discount) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🛒 *%s*\n", d.Title))
	sb.WriteString(fmt.Sprintf("🏪 Store: %s\n", d.Store))

	switch {
	case d.DiscountPrice != nil && d.OriginalPrice != nil:
		sb.WriteString(fmt.Sprintf("💰 Price: %g (was %g)\n", *d.DiscountPrice, *d.OriginalPrice))
	case d.DiscountPercentage != nil:
		sb.WriteString(fmt.Sprintf("📉 Discount: %g%%\n", *d.DiscountPercentage))
	}

	if d.Description != nil {
		sb.WriteString(fmt.Sprintf("📝 %s\n", *d.Description))
	}

	if d.URL != nil {
		sb.WriteString(fmt.Sprintf("🔗 [View Deal](%s)", *d.URL))
	}

	return sb.String()
}

// suggestLists offers to put a discounted item on one of the user's
// lists, unless a matching uncompleted item already exists somewhere.
func (b *Bot) suggestLists(ctx context.Context, chatID int64, userID uuid.UUID, discount *domain.Discount) {
	lists, err := b.listService.Lists(ctx, userID, 0, 100)
	if err != nil {
		b.logger.Error("Failed to load lists for suggestion", zap.Error(err))
		return
	}

	if len(lists) == 0 {
		return
	}

	title := strings.ToLower(discount.Title)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, list := range lists {
		items, err := b.listService.Items(ctx, list.ID, userID)
		if err != nil {
			continue
		}

		for _, item := range items {
			if !item.IsCompleted && strings.Contains(strings.ToLower(item.Name), title) {
				return
			}
		}

		token := b.callbackToken(addToListPayload{ListID: list.ID, DiscountID: discount.ID})
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Add to "+list.Title, "add_to_list:"+token),
		))
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	text := fmt.Sprintf("🛒 Found discount on *%s*!\nWould you like to add this to your shopping list?", discount.Title)
	b.replyMarkdown(chatID, text, &keyboard)
}
