package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"eshop/apperr"
	"eshop/events"
	"eshop/logging"
	"eshop/mail"
	"eshop/models"
	"eshop/payment"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	ActionPay     = "pay"
	ActionDeliver = "deliver"
)

// CheckoutURLs are the pages the payment provider redirects back to.
type CheckoutURLs struct {
	Success string
	Cancel  string
}

type OrderService struct {
	db        *gorm.DB
	payments  payment.Provider
	publisher events.Publisher
	mailer    mail.Sender
	logger    *zap.Logger
	urls      CheckoutURLs
	now       func() time.Time
}

func NewOrderService(db *gorm.DB, payments payment.Provider, publisher events.Publisher, mailer mail.Sender, urls CheckoutURLs, logger *zap.Logger) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{
		db:        db,
		payments:  payments,
		publisher: publisher,
		mailer:    mailer,
		logger:    logger,
		urls:      urls,
		now:       time.Now,
	}
}

func nonEmptyCart(tx *gorm.DB, userID uint) (*models.Cart, error) {
	cart, err := loadCart(tx, userID)
	if errors.Is(err, errCartNotFound) {
		return nil, apperr.BadRequest("Cart is empty")
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.BadRequest("Cart is empty")
	}
	return cart, nil
}

func snapshot(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Color:     item.Color,
		})
	}
	return out
}

// CreateCashOrder turns the caller's cart into an unpaid cash order.
func (s *OrderService) CreateCashOrder(ctx context.Context, user *models.User, addr models.ShippingAddress) (*models.Order, error) {
	tx := s.db.WithContext(ctx)

	cart, err := nonEmptyCart(tx, user.ID)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:            user.ID,
		Items:             snapshot(cart.Items),
		TotalOrderPrice:   cart.Payable(),
		PaymentMethodType: models.PaymentCash,
		ShippingAddress:   addr,
	}
	if err := tx.Create(order).Error; err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.complete(ctx, order, cart, addr); err != nil {
		return nil, err
	}
	s.announce(ctx, user, order)

	return order, nil
}

// CheckoutSession opens a provider payment session for the caller's cart.
// The order itself is created by the webhook once the payment succeeds.
func (s *OrderService) CheckoutSession(ctx context.Context, user *models.User, addr *models.ShippingAddress) (*payment.Session, error) {
	cart, err := nonEmptyCart(s.db.WithContext(ctx), user.ID)
	if err != nil {
		return nil, err
	}

	req := payment.CheckoutRequest{
		CustomerName:    user.Name,
		CustomerEmail:   user.Email,
		ClientReference: strconv.FormatUint(uint64(cart.ID), 10),
		Amount:          decimal.NewFromFloat(cart.Payable()),
		SuccessURL:      s.urls.Success,
		CancelURL:       s.urls.Cancel,
	}
	if addr != nil {
		req.Metadata = addressMetadata(*addr)
	}

	return s.payments.CreateCheckoutSession(ctx, req)
}

// HandleWebhook verifies a provider event and, for a paid checkout, creates
// the card order. Failures after verification are logged, not returned.
func (s *OrderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		return apperr.BadRequest("Webhook Error: %s", err.Error())
	}

	switch event.Type {
	case payment.EventCheckoutCompleted, payment.EventChargeSucceeded:
		if err := s.createCardOrder(ctx, event); err != nil {
			logging.Error(ctx, s.logger, "Error creating card order", zap.String("event", event.Type), zap.Error(err))
		}
	}
	return nil
}

func (s *OrderService) createCardOrder(ctx context.Context, event *payment.Event) error {
	if event.PaymentStatus != payment.StatusPaid || event.ClientReference == "" {
		return nil
	}
	cartID, err := strconv.ParseUint(event.ClientReference, 10, 64)
	if err != nil {
		return fmt.Errorf("client reference %q: %w", event.ClientReference, err)
	}

	tx := s.db.WithContext(ctx)

	var cart models.Cart
	if err := tx.Preload("Items").First(&cart, cartID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Warn(ctx, s.logger, "webhook for unknown cart", zap.Uint64("cart_id", cartID))
			return nil
		}
		return err
	}

	var user models.User
	if err := tx.Where("email = ?", event.CustomerEmail).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Warn(ctx, s.logger, "webhook for unknown customer", zap.String("email", event.CustomerEmail))
			return nil
		}
		return err
	}

	paidAt := s.now()
	addr := metadataAddress(event.Metadata)
	order := &models.Order{
		UserID:            user.ID,
		Items:             snapshot(cart.Items),
		TotalOrderPrice:   payment.FromMinorUnits(event.AmountTotal),
		PaymentMethodType: models.PaymentCard,
		IsPaid:            true,
		PaidAt:            &paidAt,
		ShippingAddress:   addr,
	}
	if err := tx.Create(order).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	if err := s.complete(ctx, order, &cart, addr); err != nil {
		return err
	}
	s.announce(ctx, &user, order)

	return nil
}

// complete runs the post-order steps side by side: stock and sold counters,
// cart removal and remembering the shipping address. A failing step does not
// undo the others.
func (s *OrderService) complete(ctx context.Context, order *models.Order, cart *models.Cart, addr models.ShippingAddress) error {
	g, gctx := errgroup.WithContext(ctx)
	tx := s.db.WithContext(gctx)

	g.Go(func() error {
		for _, item := range cart.Items {
			err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).Updates(map[string]any{
				"quantity": gorm.Expr("quantity - ?", item.Quantity),
				"sold":     gorm.Expr("sold + ?", item.Quantity),
			}).Error
			if err != nil {
				return fmt.Errorf("update stock of product %d: %w", item.ProductID, err)
			}
		}
		return nil
	})

	g.Go(func() error {
		if err := tx.Select("Items").Delete(cart).Error; err != nil {
			return fmt.Errorf("delete cart %d: %w", cart.ID, err)
		}
		return nil
	})

	g.Go(func() error {
		return saveAddress(tx, order.UserID, addr)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("complete order %d: %w", order.ID, err)
	}
	return nil
}

// saveAddress appends addr to the user's address book unless an identical
// entry already exists. Empty addresses are skipped.
func saveAddress(tx *gorm.DB, userID uint, addr models.ShippingAddress) error {
	if addr == (models.ShippingAddress{}) {
		return nil
	}

	var count int64
	err := tx.Model(&models.Address{}).
		Where(map[string]any{
			"user_id":   userID,
			"alias":     addr.Alias,
			"details":   addr.Details,
			"street":    addr.Street,
			"city":      addr.City,
			"post_code": addr.PostCode,
		}).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("look up address: %w", err)
	}
	if count > 0 {
		return nil
	}

	if err := tx.Create(&models.Address{UserID: userID, ShippingAddress: addr}).Error; err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	return nil
}

// announce publishes the order event and mails the confirmation. Both are
// best effort.
func (s *OrderService) announce(ctx context.Context, user *models.User, order *models.Order) {
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(events.OrderCreated, order, s.now())); err != nil {
		logging.Warn(ctx, s.logger, "publish order event failed", zap.Uint("order_id", order.ID), zap.Error(err))
	}
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendOrderConfirmation(ctx, user, order); err != nil {
		logging.Warn(ctx, s.logger, "order confirmation email failed", zap.Uint("order_id", order.ID), zap.Error(err))
	}
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, action string) (*models.Order, error) {
	tx := s.db.WithContext(ctx)

	var order models.Order
	err := tx.Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}

	now := s.now()
	var kind string
	switch action {
	case ActionPay:
		order.IsPaid, order.PaidAt, kind = true, &now, events.OrderPaid
	case ActionDeliver:
		order.IsDelivered, order.DeliveredAt, kind = true, &now, events.OrderDelivered
	default:
		return nil, apperr.BadRequest("Invalid action")
	}

	err = tx.Model(&order).Select("is_paid", "paid_at", "is_delivered", "delivered_at").Updates(&order).Error
	if err != nil {
		return nil, fmt.Errorf("update order %d: %w", id, err)
	}

	if err := s.publisher.Publish(ctx, events.NewOrderEvent(kind, &order, now)); err != nil {
		logging.Warn(ctx, s.logger, "publish order event failed", zap.Uint("order_id", order.ID), zap.Error(err))
	}
	return &order, nil
}

func addressMetadata(addr models.ShippingAddress) map[string]string {
	meta := map[string]string{}
	for k, v := range map[string]string{
		"alias":    addr.Alias,
		"details":  addr.Details,
		"street":   addr.Street,
		"city":     addr.City,
		"postCode": addr.PostCode,
	} {
		if v != "" {
			meta[k] = v
		}
	}
	return meta
}

func metadataAddress(meta map[string]string) models.ShippingAddress {
	return models.ShippingAddress{
		Alias:    meta["alias"],
		Details:  meta["details"],
		Street:   meta["street"],
		City:     meta["city"],
		PostCode: meta["postCode"],
	}
}
