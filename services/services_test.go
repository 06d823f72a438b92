package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eshop/apperr"
	"eshop/db/dbtest"
	"eshop/events"
	"eshop/models"
	"eshop/payment"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func requireAppErr(t *testing.T, err error, status int, message string) {
	t.Helper()
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, status, appErr.Status)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
}

type fixture struct {
	db      *gorm.DB
	ctx     context.Context
	user    *models.User
	admin   *models.User
	phone   *models.Product
	laptop  *models.Product
	soldOut *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{db: db, ctx: context.Background()}

	f.user = &models.User{Name: "Mona", Email: "mona@example.com", Password: "x", Role: models.RoleUser, IsActive: true}
	f.admin = &models.User{Name: "Root", Email: "root@example.com", Password: "x", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, db.Create(f.user).Error)
	require.NoError(t, db.Create(f.admin).Error)

	category := models.Category{Name: "Electronics", Slug: "electronics"}
	require.NoError(t, db.Create(&category).Error)

	f.phone = &models.Product{
		Name: "Phone", Description: "A phone with a long description", Quantity: 10, Price: 100,
		Colors: []string{"black", "white"}, CategoryID: category.ID,
	}
	f.laptop = &models.Product{
		Name: "Laptop", Description: "A laptop with a long description", Quantity: 3, Price: 250.5,
		CategoryID: category.ID,
	}
	f.soldOut = &models.Product{
		Name: "Tablet", Description: "A tablet with a long description", Quantity: 0, Price: 80,
		CategoryID: category.ID,
	}
	for _, p := range []*models.Product{f.phone, f.laptop, f.soldOut} {
		require.NoError(t, db.Create(p).Error)
	}

	return f
}

func (f *fixture) product(t *testing.T, id uint) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.First(&p, id).Error)
	return p
}

type fakeMailer struct {
	mu      sync.Mutex
	fail    error
	codes   []string
	ordered []uint
}

func (m *fakeMailer) SendPasswordResetCode(_ context.Context, _ *models.User, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.codes = append(m.codes, code)
	return nil
}

func (m *fakeMailer) SendOrderConfirmation(_ context.Context, _ *models.User, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordered = append(m.ordered, order.ID)
	return m.fail
}

type fakeProvider struct {
	requests []payment.CheckoutRequest
	event    *payment.Event
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	p.requests = append(p.requests, req)
	return &payment.Session{
		ID:              "cs_test",
		URL:             "https://checkout.example/cs_test",
		AmountTotal:     payment.MinorUnits(req.Amount),
		ClientReference: req.ClientReference,
		CustomerEmail:   req.CustomerEmail,
		Metadata:        req.Metadata,
	}, nil
}

func (p *fakeProvider) ParseWebhook(_ []byte, signature string) (*payment.Event, error) {
	if signature != "good" {
		return nil, errors.New("no signatures found matching the expected signature for payload")
	}
	return p.event, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (r *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
