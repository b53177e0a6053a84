package handlers_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bouleverse/bookvault/internal/config"
	"github.com/bouleverse/bookvault/internal/handlers"
	"github.com/bouleverse/bookvault/internal/models"
	"github.com/bouleverse/bookvault/internal/routes"
	"github.com/bouleverse/bookvault/internal/services"
	"github.com/bouleverse/bookvault/internal/session"
	"github.com/bouleverse/bookvault/internal/vault"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAuthSecret = "test-secret"

type fakeMailer struct {
	email string
	url   string
	err   error
}

func (m *fakeMailer) SendLoginLink(email, url string) error {
	m.email = email
	m.url = url
	return m.err
}

type staticStatus struct {
	status string
}

func (s staticStatus) Status(string) (string, error) {
	return s.status, nil
}

type fakePortal struct {
	url       string
	err       error
	gotSubID  string
	gotReturn string
}

func (p *fakePortal) PortalURL(subscriptionID, returnURL string) (string, error) {
	p.gotSubID = subscriptionID
	p.gotReturn = returnURL
	return p.url, p.err
}

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	cfg    *config.Config
	mailer *fakeMailer
	portal *fakePortal
}

// newTestEnv wires the full route table against an in-memory database and a
// local vault rooted at vaultRoot (which may be an empty directory).
func newTestEnv(t *testing.T, vaultRoot string) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.LoginToken{},
		&models.Entitlement{},
	))

	cfg := &config.Config{
		AuthSecret:          testAuthSecret,
		AppBaseURL:          "https://shop.example",
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: "whsec_test",
		VaultMode:           vault.ModeLocal,
		VaultPath:           vaultRoot,
		Env:                 "test",
	}

	sessions := session.NewManager(cfg)
	tokens := services.NewLoginTokenService(db)
	entitlements := services.NewEntitlementService(db, staticStatus{status: "active"})
	v := vault.New(cfg)
	mailer := &fakeMailer{}
	portal := &fakePortal{url: "https://billing.example/session/1"}

	app := fiber.New()
	routes.Setup(app, sessions,
		handlers.NewAuthHandler(cfg, tokens, sessions, mailer),
		handlers.NewLibraryHandler(entitlements),
		handlers.NewReaderHandler(entitlements, v),
		handlers.NewWebhookHandler(cfg, entitlements),
		handlers.NewPortalHandler(cfg, entitlements, portal),
		handlers.NewHealthHandler(v),
	)

	return &testEnv{app: app, db: db, cfg: cfg, mailer: mailer, portal: portal}
}

// authedRequest attaches a valid session cookie for email.
func authedRequest(method, target, email string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{
		Name:  session.CookieName,
		Value: session.Sign(email, testAuthSecret),
	})
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}
