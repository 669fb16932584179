// Package controller holds the per-view state machine behind a single
// shopping list: one snapshot of the last successful fetch, one staged
// edit draft, one error slot.
//
// The consistency policy is refetch-after-mutation: local state is
// never patched on write, it is always re-derived from a subsequent
// read. Do not "optimize" a mutation into a local patch; that changes
// the consistency model.
package controller

import (
	"context"
	"strings"

	"pepperbot/internal/client"
	"pepperbot/internal/domain"

	"github.com/google/uuid"
)

// Phase is the lifecycle state of a list view. The Loading transition
// is one-shot per Load call.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLoaded
	PhaseNotFound
	// PhaseClosed means the list was deleted and the view should
	// navigate back to the parent listing.
	PhaseClosed
)

// API is the backend surface the controller needs. *client.Client
// satisfies it.
type API interface {
	List(ctx context.Context, id uuid.UUID) (*domain.ShoppingList, error)
	Items(ctx context.Context, listID uuid.UUID) ([]domain.ListItem, error)
	CreateItem(ctx context.Context, listID uuid.UUID, item client.NewItem) (*domain.ListItem, error)
	UpdateItem(ctx context.Context, listID, itemID uuid.UUID, patch client.ItemPatch) (*domain.ListItem, error)
	DeleteItem(ctx context.Context, listID, itemID uuid.UUID) error
	DeleteList(ctx context.Context, id uuid.UUID) error
}

// Confirmer gates destructive operations on interactive confirmation.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// ListController manages one shopping list view.
type ListController struct {
	api     API
	confirm Confirmer
	listID  uuid.UUID

	phase Phase
	list  *domain.ShoppingList
	items []domain.ListItem
	draft *domain.ListItem
	err   string
}

// NewListController creates a controller for one list id, starting in
// the Loading phase.
func NewListController(api API, confirm Confirmer, listID uuid.UUID) *ListController {
	return &ListController{
		api:     api,
		confirm: confirm,
		listID:  listID,
		phase:   PhaseLoading,
	}
}

// Phase returns the current lifecycle phase.
func (c *ListController) Phase() Phase { return c.phase }

// List returns the loaded list, nil before a successful Load.
func (c *ListController) List() *domain.ShoppingList { return c.list }

// Items returns the item snapshot from the last successful fetch.
func (c *ListController) Items() []domain.ListItem { return c.items }

// Draft returns the staged edit, nil when no edit is open.
func (c *ListController) Draft() *domain.ListItem { return c.draft }

// Err returns the current error message, empty when none. The slot
// holds only the most recent failure.
func (c *ListController) Err() string { return c.err }

// Load fetches the list and its items. A missing list settles the view
// in NotFound; any other failure leaves it re-loadable with the error
// slot set.
func (c *ListController) Load(ctx context.Context) {
	list, err := c.api.List(ctx, c.listID)
	if err != nil {
		if client.IsNotFound(err) {
			c.phase = PhaseNotFound
			return
		}
		c.err = loadFailedMsg
		return
	}

	items, err := c.api.Items(ctx, c.listID)
	if err != nil {
		c.err = loadFailedMsg
		return
	}

	c.list = list
	c.items = items
	c.phase = PhaseLoaded
	c.err = ""
}

// Error messages shown in the view's single error slot.
const (
	loadFailedMsg   = "Failed to load shopping list"
	addFailedMsg    = "Failed to add item"
	updateFailedMsg = "Failed to update item"
	deleteFailedMsg = "Failed to delete item"
	listDelFailMsg  = "Failed to delete list"
	refreshFailMsg  = "Failed to refresh items"
)

// AddItem creates an item and refetches. An empty name (after
// trimming) is silently ignored; a non-positive quantity is coerced
// to 1. Returns true when the form should be cleared.
func (c *ListController) AddItem(ctx context.Context, name string, quantity float64, unit string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	if quantity <= 0 {
		quantity = 1
	}

	item := client.NewItem{Name: name, Quantity: &quantity}
	if unit != "" {
		item.Unit = &unit
	}

	if _, err := c.api.CreateItem(ctx, c.listID, item); err != nil {
		c.err = addFailedMsg
		return false
	}

	c.refetch(ctx)
	return true
}

// ToggleComplete sends the negation of the item's completion flag and
// refetches. The local flag is never flipped directly.
func (c *ListController) ToggleComplete(ctx context.Context, itemID uuid.UUID) {
	item := c.findItem(itemID)
	if item == nil {
		return
	}

	toggled := !item.IsCompleted
	if _, err := c.api.UpdateItem(ctx, c.listID, itemID, client.ItemPatch{IsCompleted: &toggled}); err != nil {
		c.err = updateFailedMsg
		return
	}

	c.refetch(ctx)
}

// BeginEdit stages a copy of the item as the edit draft. The snapshot
// itself stays untouched until SaveEdit succeeds.
func (c *ListController) BeginEdit(itemID uuid.UUID) {
	item := c.findItem(itemID)
	if item == nil {
		return
	}

	draft := *item
	c.draft = &draft
}

// CancelEdit discards the draft.
func (c *ListController) CancelEdit() {
	c.draft = nil
}

// SaveEdit sends the draft's name/quantity/unit (not the completion
// flag) and refetches. On failure the draft stays open.
func (c *ListController) SaveEdit(ctx context.Context) {
	if c.draft == nil {
		return
	}

	patch := client.ItemPatch{
		Name:     &c.draft.Name,
		Quantity: &c.draft.Quantity,
		Unit:     c.draft.Unit,
	}

	if _, err := c.api.UpdateItem(ctx, c.listID, c.draft.ID, patch); err != nil {
		c.err = updateFailedMsg
		return
	}

	c.draft = nil
	c.refetch(ctx)
}

// DeleteItem asks for confirmation, then deletes and refetches.
// Declining performs no request at all.
func (c *ListController) DeleteItem(ctx context.Context, itemID uuid.UUID) {
	if !c.confirm.Confirm("Delete this item?") {
		return
	}

	if err := c.api.DeleteItem(ctx, c.listID, itemID); err != nil {
		c.err = deleteFailedMsg
		return
	}

	c.refetch(ctx)
}

// DeleteList asks for confirmation, then deletes the whole list. On
// success the view closes instead of refetching.
func (c *ListController) DeleteList(ctx context.Context) {
	if !c.confirm.Confirm("Delete this list and all its items?") {
		return
	}

	if err := c.api.DeleteList(ctx, c.listID); err != nil {
		c.err = listDelFailMsg
		return
	}

	c.phase = PhaseClosed
}

// refetch replaces the item snapshot after a successful mutation. The
// mutation has already landed; a failed refetch leaves the view stale
// until the next successful read.
func (c *ListController) refetch(ctx context.Context) {
	items, err := c.api.Items(ctx, c.listID)
	if err != nil {
		c.err = refreshFailMsg
		return
	}

	c.items = items
	c.err = ""
}

func (c *ListController) findItem(itemID uuid.UUID) *domain.ListItem {
	for i := range c.items {
		if c.items[i].ID == itemID {
			return &c.items[i]
		}
	}
	return nil
}
