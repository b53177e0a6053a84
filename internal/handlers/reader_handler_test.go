package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/bouleverse/bookvault/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedBook writes a catalog entry plus its asset files under root.
func seedBook(t *testing.T, root, slug, locale, format string, assets map[string]string) {
	t.Helper()
	dir := filepath.Join(root, slug, locale, format)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	meta := vault.BookMeta{
		Slug:   slug,
		Locale: locale,
		Format: format,
		Title:  "Title " + slug,
		Assets: assets,
	}
	raw, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta.json"), raw, 0o644))

	for _, name := range assets {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF "+locale+" "+name), 0o644))
	}
}

func TestReaderFileValidatesInput(t *testing.T) {
	env := newTestEnv(t, t.TempDir())
	email := "reader@example.com"

	cases := []struct {
		name   string
		target string
		code   string
	}{
		{"missing slug", "/api/reader/file?locale=en&format=standard&asset=interactive", "INVALID_SLUG"},
		{"bad slug", "/api/reader/file?slug=Bad_Slug&locale=en&format=standard&asset=interactive", "INVALID_SLUG"},
		{"traversal slug", "/api/reader/file?slug=..%2F..%2Fetc&locale=en&format=standard&asset=interactive", "INVALID_SLUG"},
		{"bad locale", "/api/reader/file?slug=petanque-basics&locale=xx&format=standard&asset=interactive", "INVALID_LOCALE"},
		{"bad format", "/api/reader/file?slug=petanque-basics&locale=en&format=folio&asset=interactive", "INVALID_FORMAT"},
		{"bad asset", "/api/reader/file?slug=petanque-basics&locale=en&format=standard&asset=source", "INVALID_ASSET"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := env.app.Test(authedRequest(http.MethodGet, tc.target, email, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestReaderFileRequiresSession(t *testing.T) {
	env := newTestEnv(t, t.TempDir())

	resp, err := env.app.Test(getRequest("/api/reader/file?slug=petanque-basics&locale=en&format=standard&asset=interactive"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReaderFileForbiddenWithoutEntitlement(t *testing.T) {
	root := t.TempDir()
	seedBook(t, root, "petanque-basics", "en", "standard",
		map[string]string{"interactive": "reader.pdf"})
	env := newTestEnv(t, root)

	resp, err := env.app.Test(authedRequest(http.MethodGet,
		"/api/reader/file?slug=petanque-basics&locale=en&format=standard&asset=interactive",
		"reader@example.com", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReaderFileEntitlementIsFormatExact(t *testing.T) {
	root := t.TempDir()
	seedBook(t, root, "petanque-basics", "en", "a5",
		map[string]string{"ebook": "book.pdf"})
	env := newTestEnv(t, root)
	email := "reader@example.com"
	seedBundle(t, env.db, email, "petanque-basics", "standard")

	// Owning the standard edition does not open the a5 one.
	resp, err := env.app.Test(authedRequest(http.MethodGet,
		"/api/reader/file?slug=petanque-basics&locale=en&format=a5&asset=ebook",
		email, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReaderFileNotFoundWhenCatalogMisses(t *testing.T) {
	env := newTestEnv(t, t.TempDir())
	email := "reader@example.com"
	seedBundle(t, env.db, email, "petanque-basics", "standard")

	resp, err := env.app.Test(authedRequest(http.MethodGet,
		"/api/reader/file?slug=petanque-basics&locale=en&format=standard&asset=interactive",
		email, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReaderFileStreamsInteractiveInline(t *testing.T) {
	root := t.TempDir()
	seedBook(t, root, "petanque-basics", "en", "standard",
		map[string]string{"interactive": "reader.pdf"})
	env := newTestEnv(t, root)
	email := "reader@example.com"
	seedBundle(t, env.db, email, "petanque-basics", "standard")

	resp, err := env.app.Test(authedRequest(http.MethodGet,
		"/api/reader/file?slug=petanque-basics&locale=en&format=standard&asset=interactive",
		email, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "private, no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, `inline; filename="petanque-basics-interactive.pdf"`,
		resp.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF en reader.pdf", string(body))
}

func TestReaderFileEbookDownloadIsAttachment(t *testing.T) {
	root := t.TempDir()
	seedBook(t, root, "petanque-basics", "en", "standard",
		map[string]string{"ebook": "book.pdf"})
	env := newTestEnv(t, root)
	email := "reader@example.com"
	seedBundle(t, env.db, email, "petanque-basics", "standard")

	resp, err := env.app.Test(authedRequest(http.MethodGet,
		"/api/reader/file?slug=petanque-basics&locale=en&format=standard&asset=ebook&download=1",
		email, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="petanque-basics-en-standard-ebook.pdf"`,
		resp.Header.Get("Content-Disposition"))
}

func TestReaderFileFallsBackToDefaultLocale(t *testing.T) {
	root := t.TempDir()
	seedBook(t, root, "petanque-basics", "en", "standard",
		map[string]string{"interactive": "reader.pdf"})
	env := newTestEnv(t, root)
	email := "reader@example.com"
	seedBundle(t, env.db, email, "petanque-basics", "standard")

	resp, err := env.app.Test(authedRequest(http.MethodGet,
		"/api/reader/file?slug=petanque-basics&locale=fr&format=standard&asset=interactive",
		email, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF en reader.pdf", string(body))
}

func TestReaderFileSubscriptionOpensAnyBook(t *testing.T) {
	root := t.TempDir()
	seedBook(t, root, "petanque-tactics", "en", "a5",
		map[string]string{"ebook": "book.pdf"})
	env := newTestEnv(t, root)
	email := "reader@example.com"
	seedSubscription(t, env.db, email, "active", "sub_1")

	resp, err := env.app.Test(authedRequest(http.MethodGet,
		"/api/reader/file?slug=petanque-tactics&locale=en&format=a5&asset=ebook",
		email, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
