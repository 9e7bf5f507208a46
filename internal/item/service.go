package item

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cartshare/cartshare/internal/api/models"
	"github.com/cartshare/cartshare/internal/event"
	"github.com/cartshare/cartshare/internal/group"
)

// Validation constants.
const (
	MaxNameLength = 120
)

// Memberships reports group membership for access checks.
type Memberships interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// ChangePublisher publishes item-change events after successful
// purchase toggles.
type ChangePublisher interface {
	PublishItemChange(ctx context.Context, change *event.ItemChange) error
}

// Service provides item operations.
type Service struct {
	repo        Repository
	memberships Memberships
	publisher   ChangePublisher
	logger      zerolog.Logger
}

// NewService creates a new item service. The publisher may be nil, in which
// case purchase toggles emit no events.
func NewService(repo Repository, memberships Memberships, publisher ChangePublisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		memberships: memberships,
		publisher:   publisher,
		logger:      logger,
	}
}

// List retrieves all items in a group, sorted by their order key.
func (s *Service) List(ctx context.Context, userID, groupID string) (*models.ItemList, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	result := make([]models.Item, 0, len(items))
	for _, it := range items {
		result = append(result, s.toAPIItem(it))
	}

	return &models.ItemList{Items: result}, nil
}

// Create creates a new item at the end of the group's list.
func (s *Service) Create(ctx context.Context, userID, groupID string, input *models.ItemCreateRequest) (*models.Item, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	maxOrder, err := s.repo.MaxOrder(ctx, groupID)
	if err != nil {
		return nil, err
	}

	it := &Item{
		ID:           "itm_" + uuid.New().String()[:22],
		GroupID:      groupID,
		Name:         input.Name,
		Order:        maxOrder + 1,
		Location:     input.Location,
		URL:          input.URL,
		Quantity:     input.Quantity,
		Memo:         input.Memo,
		RegisteredAt: time.Now(),
		Registrant:   userID,
	}
	if input.Deadline != nil {
		deadline := input.Deadline.Time()
		it.Deadline = &deadline
	}

	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}

	result := s.toAPIItem(it)
	return &result, nil
}

// Toggle writes the item's purchased flag. Marking an item purchased records
// the buyer and purchase time; unmarking clears both. An item-change event
// is published only after the write committed, so a failed write leaves no
// event behind for the client's optimistic rollback to race against.
func (s *Service) Toggle(ctx context.Context, userID, groupID, itemID string, purchased bool) (*models.Item, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	var (
		buyer       *string
		purchasedAt *time.Time
	)
	if purchased {
		now := time.Now()
		buyer = &userID
		purchasedAt = &now
	}

	previous, err := s.repo.SetPurchased(ctx, groupID, itemID, purchased, buyer, purchasedAt)
	if err != nil {
		return nil, err
	}

	it, err := s.repo.Get(ctx, groupID, itemID)
	if err != nil {
		return nil, err
	}

	if previous != purchased {
		s.publishChange(ctx, it)
	}

	result := s.toAPIItem(it)
	return &result, nil
}

// Delete deletes an item.
func (s *Service) Delete(ctx context.Context, userID, groupID, itemID string) error {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, groupID, itemID)
}

// Reorder rewrites the order key of every listed item to its position in
// the given sequence.
func (s *Service) Reorder(ctx context.Context, userID, groupID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return &ValidationError{Errors: []models.FieldError{
			{Field: "itemIds", Message: "is required"},
		}}
	}

	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return err
	}

	return s.repo.Reorder(ctx, groupID, itemIDs)
}

func (s *Service) requireMember(ctx context.Context, groupID, userID string) error {
	ok, err := s.memberships.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return group.ErrNotMember
	}
	return nil
}

// publishChange emits an item-change event. Delivery is best-effort: the
// store write already committed, so a publish failure is logged and dropped.
func (s *Service) publishChange(ctx context.Context, it *Item) {
	if s.publisher == nil {
		return
	}

	change := &event.ItemChange{
		GroupID:   it.GroupID,
		ItemID:    it.ID,
		ItemName:  it.Name,
		Purchased: it.Purchased,
	}
	if err := s.publisher.PublishItemChange(ctx, change); err != nil {
		s.logger.Warn().
			Err(err).
			Str("item_id", it.ID).
			Msg("failed to publish item change")
	}
}

// validateCreateInput validates the create item input.
func (s *Service) validateCreateInput(input *models.ItemCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(input.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters"})
	}

	if input.Quantity != nil && *input.Quantity < 1 {
		errs = append(errs, models.FieldError{Field: "quantity", Message: "must be at least 1"})
	}

	return errs
}

// toAPIItem converts a domain Item to an API Item.
func (s *Service) toAPIItem(it *Item) models.Item {
	result := models.Item{
		ID:           it.ID,
		GroupID:      it.GroupID,
		Name:         it.Name,
		Purchased:    it.Purchased,
		Order:        it.Order,
		Location:     it.Location,
		URL:          it.URL,
		Quantity:     it.Quantity,
		Memo:         it.Memo,
		RegisteredAt: models.Timestamp(it.RegisteredAt),
		Registrant:   it.Registrant,
		Buyer:        it.Buyer,
	}
	if it.Deadline != nil {
		deadline := models.Timestamp(*it.Deadline)
		result.Deadline = &deadline
	}
	if it.PurchasedAt != nil {
		purchasedAt := models.Timestamp(*it.PurchasedAt)
		result.PurchasedAt = &purchasedAt
	}
	return result
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
