package item_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartshare/cartshare/internal/api/models"
	"github.com/cartshare/cartshare/internal/event"
	"github.com/cartshare/cartshare/internal/group"
	"github.com/cartshare/cartshare/internal/item"
)

// capturePublisher records published item-change events.
type capturePublisher struct {
	changes []*event.ItemChange
}

func (p *capturePublisher) PublishItemChange(_ context.Context, change *event.ItemChange) error {
	p.changes = append(p.changes, change)
	return nil
}

// failingRepository fails every purchase write.
type failingRepository struct {
	item.Repository
}

var errStore = errors.New("store unavailable")

func (r *failingRepository) SetPurchased(context.Context, string, string, bool, *string, *time.Time) (bool, error) {
	return false, errStore
}

type fixture struct {
	service   *item.Service
	repo      *item.InMemoryRepository
	publisher *capturePublisher
	groupID   string
}

func newFixture(t *testing.T, members ...string) *fixture {
	t.Helper()
	ctx := context.Background()

	groups := group.NewService(group.NewInMemoryRepository())
	created, err := groups.Create(ctx, members[0], &models.GroupCreateRequest{Name: "Household"})
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
	for _, m := range members[1:] {
		if _, err := groups.JoinByCode(ctx, m, created.InviteCode); err != nil {
			t.Fatalf("failed to join group: %v", err)
		}
	}

	repo := item.NewInMemoryRepository()
	publisher := &capturePublisher{}
	service := item.NewService(repo, groups, publisher, zerolog.Nop())

	return &fixture{
		service:   service,
		repo:      repo,
		publisher: publisher,
		groupID:   created.ID,
	}
}

func TestService_Create(t *testing.T) {
	f := newFixture(t, "user123")
	ctx := context.Background()

	first, err := f.service.Create(ctx, "user123", f.groupID, &models.ItemCreateRequest{Name: "Milk"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}
	second, err := f.service.Create(ctx, "user123", f.groupID, &models.ItemCreateRequest{Name: "Bread"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	if first.Order != 1 {
		t.Errorf("expected first item order 1, got %d", first.Order)
	}
	if second.Order != 2 {
		t.Errorf("expected second item order 2, got %d", second.Order)
	}
	if first.Registrant != "user123" {
		t.Errorf("expected registrant user123, got %q", first.Registrant)
	}
	if first.Purchased {
		t.Error("expected new item to be unpurchased")
	}
}

func TestService_Create_ValidationErrors(t *testing.T) {
	f := newFixture(t, "user123")
	ctx := context.Background()

	qty := 0
	tests := []struct {
		name      string
		input     *models.ItemCreateRequest
		wantField string
	}{
		{
			name:      "empty name",
			input:     &models.ItemCreateRequest{Name: ""},
			wantField: "name",
		},
		{
			name:      "zero quantity",
			input:     &models.ItemCreateRequest{Name: "Milk", Quantity: &qty},
			wantField: "quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(ctx, "user123", f.groupID, tt.input)

			var vErr *item.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(vErr.Errors) == 0 || vErr.Errors[0].Field != tt.wantField {
				t.Errorf("expected error on field %q, got %v", tt.wantField, vErr.Errors)
			}
		})
	}
}

func TestService_Create_NotMember(t *testing.T) {
	f := newFixture(t, "owner")
	ctx := context.Background()

	_, err := f.service.Create(ctx, "stranger", f.groupID, &models.ItemCreateRequest{Name: "Milk"})
	if !errors.Is(err, group.ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}
}

func TestService_Toggle_Purchase(t *testing.T) {
	f := newFixture(t, "owner", "buyer")
	ctx := context.Background()

	created, err := f.service.Create(ctx, "owner", f.groupID, &models.ItemCreateRequest{Name: "Milk"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	result, err := f.service.Toggle(ctx, "buyer", f.groupID, created.ID, true)
	if err != nil {
		t.Fatalf("failed to toggle item: %v", err)
	}

	if !result.Purchased {
		t.Error("expected item to be purchased")
	}
	if result.Buyer == nil || *result.Buyer != "buyer" {
		t.Errorf("expected buyer to be recorded, got %v", result.Buyer)
	}
	if result.PurchasedAt == nil {
		t.Error("expected purchasedAt to be recorded")
	}

	if len(f.publisher.changes) != 1 {
		t.Fatalf("expected 1 published change, got %d", len(f.publisher.changes))
	}
	change := f.publisher.changes[0]
	if change.GroupID != f.groupID || change.ItemID != created.ID {
		t.Errorf("unexpected change identity: %+v", change)
	}
	if change.ItemName != "Milk" || !change.Purchased {
		t.Errorf("unexpected change payload: %+v", change)
	}
}

func TestService_Toggle_Unpurchase(t *testing.T) {
	f := newFixture(t, "owner")
	ctx := context.Background()

	created, err := f.service.Create(ctx, "owner", f.groupID, &models.ItemCreateRequest{Name: "Milk"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}
	if _, err := f.service.Toggle(ctx, "owner", f.groupID, created.ID, true); err != nil {
		t.Fatalf("failed to toggle item: %v", err)
	}

	result, err := f.service.Toggle(ctx, "owner", f.groupID, created.ID, false)
	if err != nil {
		t.Fatalf("failed to toggle item: %v", err)
	}

	if result.Purchased {
		t.Error("expected item to be unpurchased")
	}
	if result.Buyer != nil {
		t.Errorf("expected buyer cleared, got %v", *result.Buyer)
	}
	if result.PurchasedAt != nil {
		t.Error("expected purchasedAt cleared")
	}

	if len(f.publisher.changes) != 2 {
		t.Fatalf("expected 2 published changes, got %d", len(f.publisher.changes))
	}
	if f.publisher.changes[1].Purchased {
		t.Error("expected second change to report unpurchased")
	}
}

func TestService_Toggle_NoChangeNoEvent(t *testing.T) {
	f := newFixture(t, "owner")
	ctx := context.Background()

	created, err := f.service.Create(ctx, "owner", f.groupID, &models.ItemCreateRequest{Name: "Milk"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	if _, err := f.service.Toggle(ctx, "owner", f.groupID, created.ID, false); err != nil {
		t.Fatalf("failed to toggle item: %v", err)
	}

	if len(f.publisher.changes) != 0 {
		t.Errorf("expected no published changes for a no-op toggle, got %d", len(f.publisher.changes))
	}
}

func TestService_Toggle_WriteFailurePublishesNothing(t *testing.T) {
	f := newFixture(t, "owner")
	ctx := context.Background()

	created, err := f.service.Create(ctx, "owner", f.groupID, &models.ItemCreateRequest{Name: "Milk"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	failing := item.NewService(
		&failingRepository{Repository: f.repo},
		memberAlways{},
		f.publisher,
		zerolog.Nop(),
	)

	_, err = failing.Toggle(ctx, "owner", f.groupID, created.ID, true)
	if !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}

	if len(f.publisher.changes) != 0 {
		t.Errorf("expected no published changes after a failed write, got %d", len(f.publisher.changes))
	}
}

// memberAlways approves every membership check.
type memberAlways struct{}

func (memberAlways) IsMember(context.Context, string, string) (bool, error) {
	return true, nil
}

func TestService_Reorder(t *testing.T) {
	f := newFixture(t, "owner")
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"Milk", "Bread", "Eggs"} {
		created, err := f.service.Create(ctx, "owner", f.groupID, &models.ItemCreateRequest{Name: name})
		if err != nil {
			t.Fatalf("failed to create item: %v", err)
		}
		ids = append(ids, created.ID)
	}

	// Reverse the list.
	reversed := []string{ids[2], ids[1], ids[0]}
	if err := f.service.Reorder(ctx, "owner", f.groupID, reversed); err != nil {
		t.Fatalf("failed to reorder items: %v", err)
	}

	result, err := f.service.List(ctx, "owner", f.groupID)
	if err != nil {
		t.Fatalf("failed to list items: %v", err)
	}

	wantNames := []string{"Eggs", "Bread", "Milk"}
	for i, it := range result.Items {
		if it.Name != wantNames[i] {
			t.Errorf("position %d: expected %q, got %q", i, wantNames[i], it.Name)
		}
		if it.Order != i {
			t.Errorf("position %d: expected order %d, got %d", i, i, it.Order)
		}
	}
}

func TestService_Reorder_UnknownItemAppliesNothing(t *testing.T) {
	f := newFixture(t, "owner")
	ctx := context.Background()

	created, err := f.service.Create(ctx, "owner", f.groupID, &models.ItemCreateRequest{Name: "Milk"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	err = f.service.Reorder(ctx, "owner", f.groupID, []string{"itm_missing", created.ID})
	if !errors.Is(err, item.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	stored, err := f.repo.Get(ctx, f.groupID, created.ID)
	if err != nil {
		t.Fatalf("failed to get item: %v", err)
	}
	if stored.Order != 1 {
		t.Errorf("expected order untouched after failed reorder, got %d", stored.Order)
	}
}

func TestService_Reorder_EmptyList(t *testing.T) {
	f := newFixture(t, "owner")
	ctx := context.Background()

	err := f.service.Reorder(ctx, "owner", f.groupID, nil)

	var vErr *item.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t, "owner")
	ctx := context.Background()

	created, err := f.service.Create(ctx, "owner", f.groupID, &models.ItemCreateRequest{Name: "Milk"})
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	if err := f.service.Delete(ctx, "owner", f.groupID, created.ID); err != nil {
		t.Fatalf("failed to delete item: %v", err)
	}

	if _, err := f.repo.Get(ctx, f.groupID, created.ID); !errors.Is(err, item.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound after delete, got %v", err)
	}
}
