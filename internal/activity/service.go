package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var (
	// ErrInvalidEntry signals a manual append or query with missing or malformed fields.
	ErrInvalidEntry = errors.New("activity: invalid entry")
	// ErrStore wraps failures of the underlying repository.
	ErrStore = errors.New("activity: store failure")
)

const maxActionLength = 64

// ServiceDeps bundles constructor inputs for Service.
type ServiceDeps struct {
	Repository  Repository
	Logger      *zap.Logger
	Clock       func() time.Time
	IDGenerator func() string
}

// Service is the activity logger: best-effort recording for mutations, plus
// the validated manual append and the read path.
type Service struct {
	repo   Repository
	logger *zap.Logger
	clock  func() time.Time
	newID  func() string
}

func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Repository == nil {
		return nil, errors.New("activity service: repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &Service{
		repo:   deps.Repository,
		logger: logger,
		clock:  func() time.Time { return clock().UTC() },
		newID:  newID,
	}, nil
}

// Record appends e and never fails: repository errors are logged and dropped
// so they cannot affect the mutation that produced the entry.
func (s *Service) Record(ctx context.Context, e Entry) {
	if strings.TrimSpace(string(e.Action)) == "" || strings.TrimSpace(e.OrderID) == "" {
		s.logger.Warn("activity entry dropped: missing order id or action",
			zap.String("order_id", e.OrderID), zap.String("action", string(e.Action)))
		return
	}
	e = s.stamp(e)
	if err := s.repo.Append(ctx, e); err != nil {
		s.logger.Warn("activity append failed",
			zap.String("order_id", e.OrderID),
			zap.String("action", string(e.Action)),
			zap.Error(err))
	}
}

// AppendInput is a manual entry supplied by an admin.
type AppendInput struct {
	OrderID   string
	Action    string
	OldValue  json.RawMessage
	NewValue  json.RawMessage
	AdminID   string
	AdminName string
}

// Append validates and stores a manual entry, surfacing store failures.
func (s *Service) Append(ctx context.Context, in AppendInput) (Entry, error) {
	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		return Entry{}, fmt.Errorf("%w: order id is required", ErrInvalidEntry)
	}
	action := strings.TrimSpace(in.Action)
	if action == "" {
		return Entry{}, fmt.Errorf("%w: action is required", ErrInvalidEntry)
	}
	if len(action) > maxActionLength {
		return Entry{}, fmt.Errorf("%w: action longer than %d characters", ErrInvalidEntry, maxActionLength)
	}
	if len(in.OldValue) > 0 && !json.Valid(in.OldValue) {
		return Entry{}, fmt.Errorf("%w: old value is not valid JSON", ErrInvalidEntry)
	}
	if len(in.NewValue) > 0 && !json.Valid(in.NewValue) {
		return Entry{}, fmt.Errorf("%w: new value is not valid JSON", ErrInvalidEntry)
	}

	if !Action(action).Known() {
		s.logger.Debug("custom activity action", zap.String("order_id", orderID), zap.String("action", action))
	}

	e := s.stamp(Entry{
		OrderID:   orderID,
		Action:    Action(action),
		OldValue:  in.OldValue,
		NewValue:  in.NewValue,
		AdminID:   strings.TrimSpace(in.AdminID),
		AdminName: strings.TrimSpace(in.AdminName),
	})
	if err := s.repo.Append(ctx, e); err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return e, nil
}

// List returns the order's entries newest first, optionally restricted to one
// action. An order without entries yields an empty slice.
func (s *Service) List(ctx context.Context, orderID string, action Action) ([]Entry, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidEntry)
	}
	entries, err := s.repo.List(ctx, Filter{OrderID: orderID, Action: Action(strings.TrimSpace(string(action)))})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// DeleteByOrder removes every entry of the order. Used only by order deletion.
func (s *Service) DeleteByOrder(ctx context.Context, orderID string) error {
	if err := s.repo.DeleteByOrder(ctx, orderID); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

func (s *Service) stamp(e Entry) Entry {
	e.ID = s.newID()
	e.CreatedAt = s.clock()
	return e
}
