package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop-api/internal/model"
	"shop-api/internal/repository"
	"shop-api/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const auditFieldLimit = 255

// Actor is who asked for a status change and where the request came from.
// A zero Actor records a system-initiated change.
type Actor struct {
	UserID    *uuid.UUID
	Email     string
	Role      string
	IP        string
	UserAgent string
}

type TransitionResult struct {
	OrderNo   string            `json:"orderNo"`
	From      model.OrderStatus `json:"from"`
	To        model.OrderStatus `json:"to"`
	Unchanged bool              `json:"unchanged"`
}

type ShippingRequest struct {
	Courier    string `json:"courier" validate:"notblank,max=50"`
	TrackingNo string `json:"trackingNo" validate:"notblank,max=50"`
	AutoShip   *bool  `json:"autoShip"`
}

type ShippingResult struct {
	OrderNo    string            `json:"orderNo"`
	Status     model.OrderStatus `json:"status"`
	Courier    string            `json:"courier"`
	TrackingNo string            `json:"trackingNo"`
	ShippedAt  time.Time         `json:"shippedAt"`
}

type OrderStatusService interface {
	Transition(ctx context.Context, orderNo, status, note string, actor Actor) (*TransitionResult, error)
	UpdateShipping(ctx context.Context, orderNo string, req ShippingRequest, actor Actor) (*ShippingResult, error)
	ListLogs(ctx context.Context, orderNo string) ([]model.OrderStatusLog, error)
}

type orderStatusService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	logRepo   repository.OrderStatusLogRepository
	events    Publisher
	strict    bool
	now       func() time.Time
}

// NewOrderStatusService builds the ledger. With strict set, targets the
// state machine cannot reach from the current status are rejected; otherwise
// any known status is accepted.
func NewOrderStatusService(
	db *gorm.DB,
	oRepo repository.OrderRepository,
	lRepo repository.OrderStatusLogRepository,
	events Publisher,
	strict bool,
) OrderStatusService {
	return &orderStatusService{
		db:        db,
		orderRepo: oRepo,
		logRepo:   lRepo,
		events:    publisherOrNoop(events),
		strict:    strict,
		now:       time.Now,
	}
}

func (s *orderStatusService) Transition(ctx context.Context, orderNo, status, note string, actor Actor) (*TransitionResult, error) {
	target, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	var result *TransitionResult
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderNo)
		if err != nil {
			return err
		}

		result = &TransitionResult{OrderNo: order.OrderNo, From: order.Status, To: target}
		if order.Status == target {
			result.Unchanged = true
			return nil
		}
		if s.strict && !model.CanTransition(order.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
		}

		if err := s.orderRepo.UpdateStatus(tx, order.ID, target); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return s.logRepo.Append(tx, newStatusLog(order, target, note, actor))
	})
	if err != nil {
		return nil, err
	}

	if !result.Unchanged {
		s.publishStatusChange(result.OrderNo, result.From, result.To)
	}
	return result, nil
}

func (s *orderStatusService) UpdateShipping(ctx context.Context, orderNo string, req ShippingRequest, actor Actor) (*ShippingResult, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	autoShip := req.AutoShip == nil || *req.AutoShip

	var (
		result *ShippingResult
		from   model.OrderStatus
	)
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderNo)
		if err != nil {
			return err
		}
		from = order.Status

		update := repository.ShippingUpdate{
			Courier:    req.Courier,
			TrackingNo: req.TrackingNo,
			ShippedAt:  s.now(),
		}
		status := order.Status
		if autoShip && order.Status != model.OrderShipped {
			if s.strict && !model.CanTransition(order.Status, model.OrderShipped) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, model.OrderShipped)
			}
			status = model.OrderShipped
			update.Status = &status
		}

		if err := s.orderRepo.UpdateShipping(tx, order.ID, update); err != nil {
			return fmt.Errorf("update shipping: %w", err)
		}
		if update.Status != nil {
			note := fmt.Sprintf("shipped via %s (%s)", req.Courier, req.TrackingNo)
			if err := s.logRepo.Append(tx, newStatusLog(order, status, note, actor)); err != nil {
				return err
			}
		}

		result = &ShippingResult{
			OrderNo:    order.OrderNo,
			Status:     status,
			Courier:    update.Courier,
			TrackingNo: update.TrackingNo,
			ShippedAt:  update.ShippedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if from != result.Status {
		s.publishStatusChange(result.OrderNo, from, result.Status)
	}
	return result, nil
}

func (s *orderStatusService) ListLogs(ctx context.Context, orderNo string) ([]model.OrderStatusLog, error) {
	if _, err := s.orderRepo.FindByNo(ctx, orderNo); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return s.logRepo.FindByOrderNo(ctx, orderNo)
}

func (s *orderStatusService) lockOrder(tx *gorm.DB, orderNo string) (*model.Order, error) {
	order, err := s.orderRepo.LockByNo(tx, orderNo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return order, nil
}

func (s *orderStatusService) publishStatusChange(orderNo string, from, to model.OrderStatus) {
	s.events.Publish(map[string]interface{}{
		"type":     "order_status",
		"order_no": orderNo,
		"from":     from,
		"to":       to,
	})
}

func newStatusLog(order *model.Order, to model.OrderStatus, note string, actor Actor) *model.OrderStatusLog {
	return &model.OrderStatusLog{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		FromStatus:  order.Status,
		ToStatus:    to,
		ActorUserID: actor.UserID,
		ActorEmail:  optional(actor.Email, auditFieldLimit),
		ActorRole:   optional(actor.Role, 20),
		Note:        optional(note, auditFieldLimit),
		IP:          optional(actor.IP, 64),
		UserAgent:   optional(actor.UserAgent, auditFieldLimit),
	}
}

// optional truncates s to limit runes and maps the empty string to NULL.
func optional(s string, limit int) *string {
	if s == "" {
		return nil
	}
	if r := []rune(s); len(r) > limit {
		s = string(r[:limit])
	}
	return &s
}
