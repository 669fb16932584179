package bot

import (
	"context"
	"fmt"
	"strings"

	"pepperbot/internal/domain"
	"pepperbot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.Message.Chat == nil {
		return
	}

	chatID := query.Message.Chat.ID

	user := b.linkedUser(ctx, chatID)
	if user == nil {
		b.answerCallback(query.ID, "Please login first")
		return
	}

	action, arg, _ := strings.Cut(query.Data, ":")

	switch action {
	case "toggle_filter":
		b.callbackToggleFilter(ctx, query, user, arg)
	case "view_list":
		b.callbackViewList(ctx, query, user, arg)
	case "complete_item":
		b.callbackCompleteItem(ctx, query, user, arg)
	case "add_to_list":
		b.callbackAddToList(ctx, query, user, arg)
	default:
		b.answerCallback(query.ID, "Unknown action")
	}
}

func (b *Bot) callbackToggleFilter(ctx context.Context, query *tgbotapi.CallbackQuery, user *domain.User, arg string) {
	filterID, err := uuid.Parse(arg)
	if err != nil {
		b.answerCallback(query.ID, "Filter not found")
		return
	}

	filter, err := b.filterService.Toggle(ctx, filterID, user.ID)
	if err != nil {
		b.answerCallback(query.ID, "Filter not found")
		return
	}

	status := "disabled"
	if filter.IsActive {
		status = "enabled"
	}

	b.answerCallback(query.ID, "Filter "+status)
	b.editMessage(query, fmt.Sprintf("Filter '%s' has been %s", filter.Name, status), nil)
}

func (b *Bot) callbackViewList(ctx context.Context, query *tgbotapi.CallbackQuery, user *domain.User, arg string) {
	listID, err := uuid.Parse(arg)
	if err != nil {
		b.answerCallback(query.ID, "List not found")
		return
	}

	list, err := b.listService.List(ctx, listID, user.ID)
	if err != nil {
		b.answerCallback(query.ID, "List not found")
		return
	}

	items, err := b.listService.Items(ctx, listID, user.ID)
	if err != nil {
		b.answerCallback(query.ID, "Could not load items")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 %s\n\n", list.Title))

	if len(items) == 0 {
		sb.WriteString("No items in this list yet.")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range items {
		status := "⬜"
		if item.IsCompleted {
			status = "✅"
		}

		sb.WriteString(status + " " + item.Name)
		if item.Quantity != 1 {
			sb.WriteString(fmt.Sprintf(" (%g", item.Quantity))
			if item.Unit != nil {
				sb.WriteString(" " + *item.Unit)
			}
			sb.WriteString(")")
		}
		sb.WriteString("\n")

		if !item.IsCompleted {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					"Mark complete: "+item.Name,
					"complete_item:"+item.ID.String(),
				),
			))
		}
	}

	b.answerCallback(query.ID, "")

	if len(rows) > 0 {
		keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
		b.editMessage(query, sb.String(), &keyboard)
	} else {
		b.editMessage(query, sb.String(), nil)
	}
}

func (b *Bot) callbackCompleteItem(ctx context.Context, query *tgbotapi.CallbackQuery, user *domain.User, arg string) {
	itemID, err := uuid.Parse(arg)
	if err != nil {
		b.answerCallback(query.ID, "Item not found")
		return
	}

	item, listID, found := b.findItem(ctx, user.ID, itemID)
	if !found {
		b.answerCallback(query.ID, "Item not found")
		return
	}

	completed := true
	if _, err := b.listService.UpdateItem(ctx, listID, item.ID, user.ID, service.ItemUpdate{IsCompleted: &completed}); err != nil {
		b.logger.Error("Failed to complete item from bot", zap.Error(err))
		b.answerCallback(query.ID, "Could not update the item")
		return
	}

	b.answerCallback(query.ID, "Item marked as complete")
	b.editMessage(query, "✅ Item marked as complete!", nil)
}

func (b *Bot) callbackAddToList(ctx context.Context, query *tgbotapi.CallbackQuery, user *domain.User, arg string) {
	payload, ok := b.callbackPayload(arg)
	if !ok {
		b.answerCallback(query.ID, "This suggestion has expired")
		return
	}

	discount, err := b.discountService.Discount(ctx, payload.DiscountID)
	if err != nil {
		b.answerCallback(query.ID, "List or discount not found")
		return
	}

	items, err := b.listService.Items(ctx, payload.ListID, user.ID)
	if err != nil {
		b.answerCallback(query.ID, "List or discount not found")
		return
	}

	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), strings.ToLower(discount.Title)) {
			b.answerCallback(query.ID, "Item already in shopping list")
			return
		}
	}

	if _, err := b.listService.CreateItem(ctx, payload.ListID, user.ID, discount.Title, 1, nil, false); err != nil {
		b.logger.Error("Failed to add suggested item", zap.Error(err))
		b.answerCallback(query.ID, "Could not add the item")
		return
	}

	b.answerCallback(query.ID, "Item added to shopping list!")
	b.editMessage(query, "✅ Item added to your shopping list!", nil)
}

// findItem locates an item across the user's lists. Item-level callbacks
// only carry the item id, so the owning list is resolved by scanning.
func (b *Bot) findItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.ListItem, uuid.UUID, bool) {
	lists, err := b.listService.Lists(ctx, userID, 0, 100)
	if err != nil {
		return nil, uuid.Nil, false
	}

	for _, list := range lists {
		items, err := b.listService.Items(ctx, list.ID, userID)
		if err != nil {
			continue
		}

		for _, item := range items {
			if item.ID == itemID {
				return item, list.ID, true
			}
		}
	}

	return nil, uuid.Nil, false
}

func (b *Bot) answerCallback(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Error("Failed to answer callback", zap.Error(err))
	}
}

func (b *Bot) editMessage(query *tgbotapi.CallbackQuery, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	if keyboard != nil {
		edit.ReplyMarkup = keyboard
	}

	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("Failed to edit message", zap.Error(err))
	}
}
