package routes_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eshop/apperr"
	"eshop/auth"
	"eshop/config"
	"eshop/db/dbtest"
	"eshop/events"
	"eshop/export"
	"eshop/mail"
	"eshop/models"
	"eshop/payment"
	"eshop/routes"
	"eshop/services"
	"eshop/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubProvider struct{}

func (stubProvider) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	return &payment.Session{
		ID:              "cs_test",
		URL:             "https://checkout.example/cs_test",
		AmountTotal:     payment.MinorUnits(req.Amount),
		ClientReference: req.ClientReference,
		CustomerEmail:   req.CustomerEmail,
	}, nil
}

func (stubProvider) ParseWebhook(_ []byte, signature string) (*payment.Event, error) {
	if signature != "good" {
		return nil, errors.New("no signatures found matching the expected signature for payload")
	}
	return &payment.Event{Type: "payment_intent.created"}, nil
}

type RoutesSuite struct {
	suite.Suite
	db         *gorm.DB
	app        *fiber.App
	userToken  string
	adminToken string
	category   models.Category
}

func (s *RoutesSuite) SetupTest() {
	s.db = dbtest.Open(s.T())
	logger := zap.NewNop()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	mailer := mail.New(config.SMTP{}, logger)

	s.app = fiber.New(fiber.Config{ErrorHandler: apperr.Handler(logger)})
	routes.SetupRoutes(s.app, routes.Deps{
		DB:        s.db,
		Tokens:    tokens,
		Auth:      services.NewAuthService(s.db, tokens, mailer, logger),
		Carts:     services.NewCartService(s.db),
		Orders:    services.NewOrderService(s.db, stubProvider{}, events.Nop{}, mailer, services.CheckoutURLs{}, logger),
		Reviews:   services.NewReviewService(s.db),
		Addresses: services.NewAddressService(s.db),
		Uploads:   uploads.NewStore(s.T().TempDir(), "http://shop.test"),
		Logger:    logger,
	})

	s.userToken = s.createUser(tokens, "Mona", "mona@example.com", models.RoleUser)
	s.adminToken = s.createUser(tokens, "Root", "root@example.com", models.RoleAdmin)

	s.category = models.Category{Name: "Electronics", Slug: "electronics"}
	s.Require().NoError(s.db.Create(&s.category).Error)
}

func (s *RoutesSuite) createUser(tokens *auth.TokenIssuer, name, email, role string) string {
	hash, err := auth.HashPassword("password123")
	s.Require().NoError(err)
	user := models.User{Name: name, Email: email, Password: hash, Role: role, IsActive: true}
	s.Require().NoError(s.db.Create(&user).Error)
	token, err := tokens.Issue(user.ID)
	s.Require().NoError(err)
	return token
}

func (s *RoutesSuite) request(method, target, token, body string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	return resp
}

func (s *RoutesSuite) do(method, target, token, body string) (int, map[string]any) {
	resp := s.request(method, target, token, body)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	out := map[string]any{}
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func dataID(body map[string]any) uint {
	return uint(body["data"].(map[string]any)["id"].(float64))
}

func (s *RoutesSuite) createProduct(sub uint) uint {
	status, body := s.do(http.MethodPost, "/api/products", s.adminToken, fmt.Sprintf(`{
		"name": "Phone X",
		"description": "A phone with a long enough description",
		"quantity": 10,
		"price": 100,
		"colors": ["black"],
		"imageCover": "cover.jpeg",
		"category": %d,
		"subCategories": [%d]
	}`, s.category.ID, sub))
	s.Require().Equal(http.StatusCreated, status, body)
	return dataID(body)
}

func (s *RoutesSuite) createSubCategory(name string) uint {
	status, body := s.do(http.MethodPost,
		fmt.Sprintf("/api/categories/%d/subCategories", s.category.ID), s.adminToken, `{"name":"`+name+`"}`)
	s.Require().Equal(http.StatusCreated, status, body)
	return dataID(body)
}

func (s *RoutesSuite) TestUnknownRoute() {
	status, body := s.do(http.MethodGet, "/api/nope", "", "")
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Equal("can't find the route : /api/nope", body["message"])

	for _, path := range []string{"/api/cartx", "/api/couponsx", "/api/users/me/nope"} {
		status, body = s.do(http.MethodGet, path, "", "")
		s.Require().Equal(http.StatusBadRequest, status, path)
		s.Require().Equal("can't find the route : "+path, body["message"])
	}
}

func (s *RoutesSuite) TestAdminGate() {
	status, body := s.do(http.MethodPost, "/api/categories", "", `{"name":"Books"}`)
	s.Require().Equal(http.StatusUnauthorized, status)
	s.Require().Equal("Authorization header is missing", body["message"])

	status, body = s.do(http.MethodPost, "/api/categories", s.userToken, `{"name":"Books"}`)
	s.Require().Equal(http.StatusForbidden, status)
	s.Require().Equal("You are not allowed to access this route", body["message"])

	status, body = s.do(http.MethodPost, "/api/categories", s.adminToken, `{"name":"Books"}`)
	s.Require().Equal(http.StatusCreated, status)
	s.Require().Equal("books", body["data"].(map[string]any)["slug"])
}

func (s *RoutesSuite) TestSignUpAndLogin() {
	status, body := s.do(http.MethodPost, "/api/auth/signUp", "",
		`{"name":"Sara","email":"Sara@Example.com","password":"secret12","passwordConfirm":"secret12"}`)
	s.Require().Equal(http.StatusCreated, status, body)
	s.Require().NotEmpty(body["token"])
	s.Require().Equal("sara@example.com", body["data"].(map[string]any)["email"])

	status, body = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"sara@example.com","password":"secret12"}`)
	s.Require().Equal(http.StatusOK, status, body)
	s.Require().NotEmpty(body["token"])

	status, body = s.do(http.MethodPost, "/api/auth/signUp", "",
		`{"name":"Sara","email":"sara2@example.com","password":"secret12","passwordConfirm":"other"}`)
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Equal("Password Confirmation incorrect", body["errors"].(map[string]any)["passwordConfirm"])

	status, _ = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"mona@example.com","password":"wrongpass1"}`)
	s.Require().Equal(http.StatusUnauthorized, status)

	status, body = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"mona@example.com","password":"password123"}`)
	s.Require().Equal(http.StatusOK, status)
	s.Require().NotEmpty(body["token"])
}

func (s *RoutesSuite) TestNestedSubCategories() {
	s.createSubCategory("Phones")

	other := models.Category{Name: "Books", Slug: "books"}
	s.Require().NoError(s.db.Create(&other).Error)
	s.Require().NoError(s.db.Create(&models.SubCategory{Name: "Novels", Slug: "novels", CategoryID: other.ID}).Error)

	status, body := s.do(http.MethodGet, fmt.Sprintf("/api/categories/%d/subCategories", s.category.ID), "", "")
	s.Require().Equal(http.StatusOK, status)
	s.Require().EqualValues(1, body["results"])

	status, body = s.do(http.MethodGet, "/api/subCategories", "", "")
	s.Require().Equal(http.StatusOK, status)
	s.Require().EqualValues(2, body["results"])
}

func (s *RoutesSuite) TestProductSubCategoriesMustBelongToCategory() {
	other := models.Category{Name: "Books", Slug: "books"}
	s.Require().NoError(s.db.Create(&other).Error)
	novels := models.SubCategory{Name: "Novels", Slug: "novels", CategoryID: other.ID}
	s.Require().NoError(s.db.Create(&novels).Error)

	status, body := s.do(http.MethodPost, "/api/products", s.adminToken, fmt.Sprintf(`{
		"name": "Phone X",
		"description": "A phone with a long enough description",
		"quantity": 10,
		"price": 100,
		"imageCover": "cover.jpeg",
		"category": %d,
		"subCategories": [%d]
	}`, s.category.ID, novels.ID))
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Equal("Provided subcategories do not belong to the specified category",
		body["errors"].(map[string]any)["subCategories"])
}

func (s *RoutesSuite) TestProductCreateAndPresent() {
	id := s.createProduct(s.createSubCategory("Phones"))

	status, body := s.do(http.MethodGet, fmt.Sprintf("/api/products/%d", id), "", "")
	s.Require().Equal(http.StatusOK, status)
	data := body["data"].(map[string]any)
	s.Require().Equal("phone-x", data["slug"])
	s.Require().Equal("http://shop.test/uploads/products/cover.jpeg", data["imageCover"])
	s.Require().Len(data["subCategories"], 1)
	s.Require().Equal("Electronics", data["category"].(map[string]any)["name"])

	status, body = s.do(http.MethodPatch, fmt.Sprintf("/api/products/%d", id), s.adminToken, `{"priceAfterDiscount": 150}`)
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Equal("priceAfterDiscount must be lower than price", body["errors"].(map[string]any)["priceAfterDiscount"])

	status, body = s.do(http.MethodPatch, fmt.Sprintf("/api/products/%d", id), s.adminToken, `{"priceAfterDiscount": 80, "colors": ["red","blue"]}`)
	s.Require().Equal(http.StatusOK, status, body)
	data = body["data"].(map[string]any)
	s.Require().EqualValues(80, data["priceAfterDiscount"])
	s.Require().Equal([]any{"red", "blue"}, data["colors"])

	status, body = s.do(http.MethodPatch, fmt.Sprintf("/api/products/%d", id), s.adminToken, `{"price": 50}`)
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Equal("price must be greater than the current priceAfterDiscount", body["errors"].(map[string]any)["price"])

	var stored models.Product
	s.Require().NoError(s.db.First(&stored, id).Error)
	s.Require().EqualValues(100, stored.Price)

	status, body = s.do(http.MethodPatch, fmt.Sprintf("/api/products/%d", id), s.adminToken, `{"price": 90}`)
	s.Require().Equal(http.StatusOK, status, body)
	s.Require().EqualValues(90, body["data"].(map[string]any)["price"])
}

func (s *RoutesSuite) TestProductPatchSurfacesLookupFailure() {
	id := s.createProduct(s.createSubCategory("Phones"))

	failed := false
	s.Require().NoError(s.db.Callback().Query().Before("gorm:query").Register("fail_first_product_lookup", func(tx *gorm.DB) {
		if tx.Statement.Table == "products" && !failed {
			failed = true
			_ = tx.AddError(errors.New("connection reset"))
		}
	}))

	status, body := s.do(http.MethodPatch, fmt.Sprintf("/api/products/%d", id), s.adminToken, `{"price": 90}`)
	s.Require().Equal(http.StatusInternalServerError, status)
	s.Require().Equal("error", body["status"])

	var stored models.Product
	s.Require().NoError(s.db.First(&stored, id).Error)
	s.Require().EqualValues(100, stored.Price)
}

func (s *RoutesSuite) TestCashOrderFlow() {
	product := s.createProduct(s.createSubCategory("Phones"))

	status, body := s.do(http.MethodPost, "/api/cart", s.userToken, fmt.Sprintf(`{"productId":%d,"quantity":2,"color":"black"}`, product))
	s.Require().Equal(http.StatusOK, status, body)
	cart := body["data"].(map[string]any)["cart"].(map[string]any)
	s.Require().EqualValues(200, cart["totalCartPrice"])

	status, body = s.do(http.MethodPost, "/api/orders", s.userToken, `{"shippingAddress":{"alias":"Home","details":"Flat 4","street":"Nile St"}}`)
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Contains(body["errors"], "shippingAddress.city")

	status, body = s.do(http.MethodPost, "/api/orders", s.userToken,
		`{"shippingAddress":{"alias":"Home","details":"Flat 4","street":"Nile St","city":"Cairo","postCode":"11511"}}`)
	s.Require().Equal(http.StatusCreated, status, body)
	s.Require().EqualValues(200, body["data"].(map[string]any)["totalOrderPrice"])

	var p models.Product
	s.Require().NoError(s.db.First(&p, product).Error)
	s.Require().Equal(8, p.Quantity)
	s.Require().Equal(2, p.Sold)

	status, _ = s.do(http.MethodGet, "/api/cart", s.userToken, "")
	s.Require().Equal(http.StatusNotFound, status)

	status, body = s.do(http.MethodGet, "/api/users/me/addresses", s.userToken, "")
	s.Require().Equal(http.StatusOK, status)
	s.Require().EqualValues(1, body["results"])

	status, body = s.do(http.MethodGet, "/api/orders", s.userToken, "")
	s.Require().Equal(http.StatusOK, status)
	s.Require().EqualValues(1, body["results"])

	status, body = s.do(http.MethodPatch, "/api/orders/1/ship", s.adminToken, "")
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Equal("Invalid action", body["message"])

	status, body = s.do(http.MethodPatch, "/api/orders/1/deliver", s.adminToken, "")
	s.Require().Equal(http.StatusOK, status)
	s.Require().Equal(true, body["data"].(map[string]any)["isDelivered"])
}

func (s *RoutesSuite) TestOrdersAreScopedToTheirOwner() {
	other := models.User{Name: "Omar", Email: "omar@example.com", Password: "x", Role: models.RoleUser, IsActive: true}
	s.Require().NoError(s.db.Create(&other).Error)
	order := models.Order{UserID: other.ID, TotalOrderPrice: 10, PaymentMethodType: models.PaymentCash}
	s.Require().NoError(s.db.Create(&order).Error)

	status, _ := s.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", order.ID), s.userToken, "")
	s.Require().Equal(http.StatusNotFound, status)

	status, body := s.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", order.ID), s.adminToken, "")
	s.Require().Equal(http.StatusOK, status)
	s.Require().Equal("Omar", body["data"].(map[string]any)["user"].(map[string]any)["name"])
}

func (s *RoutesSuite) TestNestedReviewsUpdateRating() {
	product := s.createProduct(s.createSubCategory("Phones"))
	target := fmt.Sprintf("/api/products/%d/reviews", product)

	status, body := s.do(http.MethodPost, target, s.userToken, `{"title":"Great","ratings":4}`)
	s.Require().Equal(http.StatusCreated, status, body)

	status, body = s.do(http.MethodPost, target, s.userToken, `{"title":"Again","ratings":2}`)
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Equal("You already created a review before", body["message"])

	status, body = s.do(http.MethodGet, target, "", "")
	s.Require().Equal(http.StatusOK, status)
	s.Require().EqualValues(1, body["results"])
	review := body["data"].([]any)[0].(map[string]any)
	s.Require().Equal("Mona", review["user"].(map[string]any)["name"])

	var p models.Product
	s.Require().NoError(s.db.First(&p, product).Error)
	s.Require().Equal(4.0, p.RatingsAverage)
	s.Require().Equal(1, p.RatingsQuantity)
}

func (s *RoutesSuite) TestWebhookRejectsBadSignature() {
	req := httptest.NewRequest(http.MethodPost, "/webhook-checkout", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "bad")
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Require().True(strings.HasPrefix(body["message"].(string), "Webhook Error: "))

	status, body := s.do(http.MethodPost, "/webhook-checkout", "", "")
	s.Require().Equal(http.StatusBadRequest, status)

	req = httptest.NewRequest(http.MethodPost, "/webhook-checkout", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "good")
	resp, err = s.app.Test(req, -1)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
}

func (s *RoutesSuite) TestCouponExpireMustBeInTheFuture() {
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	status, body := s.do(http.MethodPost, "/api/coupons", s.adminToken, `{"name":"SALE10","discount":10,"expire":"`+past+`"}`)
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Equal("Coupon expire time must be in the future", body["errors"].(map[string]any)["expire"])

	future := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	status, _ = s.do(http.MethodPost, "/api/coupons", s.adminToken, `{"name":"SALE10","discount":10,"expire":"`+future+`"}`)
	s.Require().Equal(http.StatusCreated, status)

	status, _ = s.do(http.MethodGet, "/api/coupons", s.userToken, "")
	s.Require().Equal(http.StatusForbidden, status)
}

func (s *RoutesSuite) TestMeProfile() {
	status, body := s.do(http.MethodPatch, "/api/users/me", s.userToken, `{"name":"Mona Ali","phone":"01012345678"}`)
	s.Require().Equal(http.StatusOK, status, body)
	s.Require().Equal("mona-ali", body["data"].(map[string]any)["slug"])

	status, body = s.do(http.MethodPatch, "/api/users/me", s.userToken, `{"email":"root@example.com"}`)
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Equal("This email is already in use", body["errors"].(map[string]any)["email"])

	status, body = s.do(http.MethodPatch, "/api/users/me", s.userToken, `{"phone":"+15551234567"}`)
	s.Require().Equal(http.StatusBadRequest, status)
	s.Require().Equal("Invalid phone number! Only Egyptian and Saudi numbers are accepted.",
		body["errors"].(map[string]any)["phone"])

	status, _ = s.do(http.MethodGet, "/api/users", s.userToken, "")
	s.Require().Equal(http.StatusForbidden, status)
}

func (s *RoutesSuite) TestExportProducts() {
	s.createProduct(s.createSubCategory("Phones"))

	resp := s.request(http.MethodGet, "/api/products/export", s.adminToken, "")
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal(export.ContentType, resp.Header.Get(fiber.HeaderContentType))

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().True(strings.HasPrefix(string(raw), "PK"))
}

func TestRoutesSuite(t *testing.T) {
	suite.Run(t, new(RoutesSuite))
}
