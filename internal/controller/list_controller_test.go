package controller

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"pepperbot/internal/client"
	"pepperbot/internal/domain"

	"github.com/google/uuid"
)

// mockAPI is an in-memory backend with switchable failures.
type mockAPI struct {
	list  *domain.ShoppingList
	items []domain.ListItem

	failList   error
	failItems  error
	failCreate error
	failUpdate error
	failDelete error

	createCalls int
	updateCalls int
	deleteCalls int
	lastPatch   client.ItemPatch
}

func (m *mockAPI) List(ctx context.Context, id uuid.UUID) (*domain.ShoppingList, error) {
	if m.failList != nil {
		return nil, m.failList
	}
	return m.list, nil
}

func (m *mockAPI) Items(ctx context.Context, listID uuid.UUID) ([]domain.ListItem, error) {
	if m.failItems != nil {
		return nil, m.failItems
	}
	out := make([]domain.ListItem, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *mockAPI) CreateItem(ctx context.Context, listID uuid.UUID, item client.NewItem) (*domain.ListItem, error) {
	m.createCalls++
	if m.failCreate != nil {
		return nil, m.failCreate
	}

	created := domain.ListItem{ID: uuid.New(), Name: item.Name, Quantity: 1, ShoppingListID: listID}
	if item.Quantity != nil {
		created.Quantity = *item.Quantity
	}
	created.Unit = item.Unit

	m.items = append(m.items, created)
	return &created, nil
}

func (m *mockAPI) UpdateItem(ctx context.Context, listID, itemID uuid.UUID, patch client.ItemPatch) (*domain.ListItem, error) {
	m.updateCalls++
	m.lastPatch = patch
	if m.failUpdate != nil {
		return nil, m.failUpdate
	}

	for i := range m.items {
		if m.items[i].ID == itemID {
			if patch.Name != nil {
				m.items[i].Name = *patch.Name
			}
			if patch.Quantity != nil {
				m.items[i].Quantity = *patch.Quantity
			}
			if patch.Unit != nil {
				m.items[i].Unit = patch.Unit
			}
			if patch.IsCompleted != nil {
				m.items[i].IsCompleted = *patch.IsCompleted
			}
			item := m.items[i]
			return &item, nil
		}
	}

	return nil, &client.APIError{Status: http.StatusNotFound, Message: "list item not found"}
}

func (m *mockAPI) DeleteItem(ctx context.Context, listID, itemID uuid.UUID) error {
	m.deleteCalls++
	if m.failDelete != nil {
		return m.failDelete
	}

	for i := range m.items {
		if m.items[i].ID == itemID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}

	return &client.APIError{Status: http.StatusNotFound, Message: "list item not found"}
}

func (m *mockAPI) DeleteList(ctx context.Context, id uuid.UUID) error {
	if m.failDelete != nil {
		return m.failDelete
	}
	return nil
}

func newMockAPI() *mockAPI {
	listID := uuid.New()
	return &mockAPI{
		list: &domain.ShoppingList{ID: listID, Title: "Groceries"},
		items: []domain.ListItem{
			{ID: uuid.New(), Name: "Milk", Quantity: 1, ShoppingListID: listID},
			{ID: uuid.New(), Name: "Eggs", Quantity: 10, IsCompleted: true, ShoppingListID: listID},
		},
	}
}

func alwaysConfirm() Confirmer { return ConfirmFunc(func(string) bool { return true }) }
func neverConfirm() Confirmer  { return ConfirmFunc(func(string) bool { return false }) }

func loadedController(t *testing.T, api *mockAPI, confirm Confirmer) *ListController {
	t.Helper()

	c := NewListController(api, confirm, api.list.ID)
	c.Load(context.Background())
	if c.Phase() != PhaseLoaded {
		t.Fatalf("expected loaded controller, phase=%v err=%q", c.Phase(), c.Err())
	}
	return c
}

func TestLoadSuccess(t *testing.T) {
	api := newMockAPI()
	c := NewListController(api, alwaysConfirm(), api.list.ID)

	if c.Phase() != PhaseLoading {
		t.Fatal("controller must start in the loading phase")
	}

	c.Load(context.Background())

	if c.Phase() != PhaseLoaded {
		t.Fatalf("expected loaded, got %v", c.Phase())
	}
	if c.List() == nil || c.List().Title != "Groceries" {
		t.Fatal("list not populated")
	}
	if len(c.Items()) != 2 {
		t.Fatalf("expected 2 items, got %d", len(c.Items()))
	}
	if c.Err() != "" {
		t.Fatalf("unexpected error %q", c.Err())
	}
}

func TestLoadMissingListSettlesInNotFound(t *testing.T) {
	api := newMockAPI()
	api.failList = &client.APIError{Status: http.StatusNotFound, Message: "shopping list not found"}

	c := NewListController(api, alwaysConfirm(), api.list.ID)
	c.Load(context.Background())

	if c.Phase() != PhaseNotFound {
		t.Fatalf("expected not-found, got %v", c.Phase())
	}
	if c.Err() != "" {
		t.Fatal("not-found is a phase, not an error")
	}
}

func TestLoadFailureIsRetryable(t *testing.T) {
	api := newMockAPI()
	api.failList = errors.New("connection refused")

	c := NewListController(api, alwaysConfirm(), api.list.ID)
	c.Load(context.Background())

	if c.Phase() != PhaseLoading {
		t.Fatalf("failed load should stay loading, got %v", c.Phase())
	}
	if c.Err() != loadFailedMsg {
		t.Fatalf("expected %q, got %q", loadFailedMsg, c.Err())
	}

	// Retry after the backend recovers
	api.failList = nil
	c.Load(context.Background())

	if c.Phase() != PhaseLoaded || c.Err() != "" {
		t.Fatalf("retry should succeed, phase=%v err=%q", c.Phase(), c.Err())
	}
}

func TestAddItemEmptyNameIsSilentNoOp(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, alwaysConfirm())

	if c.AddItem(context.Background(), "   ", 2, "kg") {
		t.Fatal("blank name must not clear the form")
	}
	if api.createCalls != 0 {
		t.Fatal("blank name must not reach the backend")
	}
	if c.Err() != "" {
		t.Fatal("blank name is not an error")
	}
}

func TestAddItemCoercesQuantityAndRefetches(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, alwaysConfirm())

	if !c.AddItem(context.Background(), "Bread", -3, "") {
		t.Fatal("successful add must clear the form")
	}

	items := c.Items()
	if len(items) != 3 {
		t.Fatalf("expected refetched snapshot with 3 items, got %d", len(items))
	}
	if got := items[2].Quantity; got != 1 {
		t.Fatalf("non-positive quantity should be coerced to 1, got %g", got)
	}
}

func TestAddItemFailureSetsErrorAndKeepsSnapshot(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, alwaysConfirm())

	api.failCreate = errors.New("boom")

	if c.AddItem(context.Background(), "Bread", 1, "") {
		t.Fatal("failed add must not clear the form")
	}
	if c.Err() != addFailedMsg {
		t.Fatalf("expected %q, got %q", addFailedMsg, c.Err())
	}
	if len(c.Items()) != 2 {
		t.Fatal("snapshot must be untouched on failure")
	}
}

func TestToggleSendsNegationNeverFlipsLocally(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, alwaysConfirm())

	milk := c.Items()[0] // not completed

	c.ToggleComplete(context.Background(), milk.ID)

	if api.lastPatch.IsCompleted == nil || *api.lastPatch.IsCompleted != true {
		t.Fatal("toggle must send the negation of the current flag")
	}
	if !c.Items()[0].IsCompleted {
		t.Fatal("refetched snapshot should reflect the toggle")
	}

	// Failure path: flag must keep its fetched value
	api.failUpdate = errors.New("boom")
	c.ToggleComplete(context.Background(), milk.ID)

	if c.Err() != updateFailedMsg {
		t.Fatalf("expected %q, got %q", updateFailedMsg, c.Err())
	}
	if !c.Items()[0].IsCompleted {
		t.Fatal("failed toggle must not flip the local flag")
	}
}

func TestEditDraftLifecycle(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, alwaysConfirm())

	milk := c.Items()[0]

	c.BeginEdit(milk.ID)

	draft := c.Draft()
	if draft == nil || draft.ID != milk.ID {
		t.Fatal("draft should copy the selected item")
	}

	// Mutating the draft must not touch the snapshot
	draft.Name = "Oat Milk"
	if c.Items()[0].Name != "Milk" {
		t.Fatal("editing the draft leaked into the snapshot")
	}

	c.SaveEdit(context.Background())

	if c.Draft() != nil {
		t.Fatal("successful save should close the draft")
	}
	if c.Items()[0].Name != "Oat Milk" {
		t.Fatal("refetched snapshot should carry the edit")
	}
	if api.lastPatch.IsCompleted != nil {
		t.Fatal("save must not send the completion flag")
	}
}

func TestSaveEditFailureKeepsDraftOpen(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, alwaysConfirm())

	c.BeginEdit(c.Items()[0].ID)
	c.Draft().Name = "Oat Milk"

	api.failUpdate = errors.New("boom")
	c.SaveEdit(context.Background())

	if c.Draft() == nil {
		t.Fatal("failed save must keep the draft open for retry")
	}
	if c.Draft().Name != "Oat Milk" {
		t.Fatal("draft content must survive the failure")
	}
	if c.Err() != updateFailedMsg {
		t.Fatalf("expected %q, got %q", updateFailedMsg, c.Err())
	}
}

func TestCancelEditDiscardsDraft(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, alwaysConfirm())

	c.BeginEdit(c.Items()[0].ID)
	c.CancelEdit()

	if c.Draft() != nil {
		t.Fatal("cancel should discard the draft")
	}
	if api.updateCalls != 0 {
		t.Fatal("cancel must not reach the backend")
	}
}

func TestDeleteItemRequiresConfirmation(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, neverConfirm())

	c.DeleteItem(context.Background(), c.Items()[0].ID)

	if api.deleteCalls != 0 {
		t.Fatal("declined confirmation must not issue a request")
	}
	if len(c.Items()) != 2 {
		t.Fatal("snapshot must be unchanged after a declined delete")
	}
}

func TestDeleteItemConfirmedRefetches(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, alwaysConfirm())

	c.DeleteItem(context.Background(), c.Items()[0].ID)

	if len(c.Items()) != 1 {
		t.Fatalf("expected 1 item after delete, got %d", len(c.Items()))
	}
	if c.Items()[0].Name != "Eggs" {
		t.Fatal("wrong item removed")
	}
}

func TestDeleteListClosesView(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, alwaysConfirm())

	c.DeleteList(context.Background())

	if c.Phase() != PhaseClosed {
		t.Fatalf("expected closed, got %v", c.Phase())
	}
}

func TestDeleteListDeclinedKeepsView(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, neverConfirm())

	c.DeleteList(context.Background())

	if c.Phase() != PhaseLoaded {
		t.Fatalf("declined delete must keep the view, got %v", c.Phase())
	}
}

func TestFailedRefetchLeavesStaleSnapshot(t *testing.T) {
	api := newMockAPI()
	c := loadedController(t, api, alwaysConfirm())

	// Mutation lands, refetch fails
	api.failItems = errors.New("boom")
	c.AddItem(context.Background(), "Bread", 1, "")

	if c.Err() != refreshFailMsg {
		t.Fatalf("expected %q, got %q", refreshFailMsg, c.Err())
	}
	if len(c.Items()) != 2 {
		t.Fatal("stale snapshot must survive a failed refetch")
	}

	// Next successful mutation heals the view
	api.failItems = nil
	c.AddItem(context.Background(), "Butter", 1, "")

	if c.Err() != "" {
		t.Fatalf("successful refetch should clear the error, got %q", c.Err())
	}
	if len(c.Items()) != 4 {
		t.Fatalf("expected 4 items, got %d", len(c.Items()))
	}
}
