package handlers_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/bouleverse/bookvault/internal/dto"
	"github.com/bouleverse/bookvault/internal/models"
	"github.com/bouleverse/bookvault/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func portalRequest(email, body string) *http.Request {
	req := jsonRequest(http.MethodPost, "/api/stripe/portal", body)
	req.AddCookie(&http.Cookie{
		Name:  session.CookieName,
		Value: session.Sign(email, testAuthSecret),
	})
	return req
}

func TestPortalRequiresSession(t *testing.T) {
	env := newTestEnv(t, t.TempDir())

	resp, err := env.app.Test(jsonRequest(http.MethodPost, "/api/stripe/portal", `{"locale":"en"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPortalRejectsUnsupportedLocale(t *testing.T) {
	env := newTestEnv(t, t.TempDir())

	resp, err := env.app.Test(portalRequest("reader@example.com", `{"locale":"xx"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPortalWithoutSubscription(t *testing.T) {
	env := newTestEnv(t, t.TempDir())
	seedBundle(t, env.db, "reader@example.com", "petanque-basics", "standard")

	resp, err := env.app.Test(portalRequest("reader@example.com", `{"locale":"en"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "SUBSCRIPTION_NOT_FOUND", body.Code)
}

func TestPortalCreatesSessionForNewestSubscription(t *testing.T) {
	env := newTestEnv(t, t.TempDir())
	seedSubscription(t, env.db, "reader@example.com", models.StatusActive, "sub_1")

	resp, err := env.app.Test(portalRequest("reader@example.com", `{"locale":"sv"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.PortalResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "https://billing.example/session/1", body.URL)

	assert.Equal(t, "sub_1", env.portal.gotSubID)
	assert.Equal(t, "https://shop.example/sv/library", env.portal.gotReturn)
}

func TestPortalReturnURLPrefersConfiguredBase(t *testing.T) {
	env := newTestEnv(t, t.TempDir())
	env.cfg.PortalReturnURL = "https://portal-return.example/"
	seedSubscription(t, env.db, "reader@example.com", models.StatusPastDue, "sub_2")

	resp, err := env.app.Test(portalRequest("reader@example.com", `{"locale":"en"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "https://portal-return.example/en/library", env.portal.gotReturn)
	assert.False(t, strings.Contains(env.portal.gotReturn, "//en"), "trailing slash must be trimmed")
}

func TestPortalFailsClosedWithoutProviderKey(t *testing.T) {
	env := newTestEnv(t, t.TempDir())
	env.cfg.StripeSecretKey = ""
	seedSubscription(t, env.db, "reader@example.com", models.StatusActive, "sub_1")

	resp, err := env.app.Test(portalRequest("reader@example.com", `{"locale":"en"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
