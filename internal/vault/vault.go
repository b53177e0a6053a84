// Package vault locates catalog metadata and deliverable files for the book
// vault, in one of two deployment-wide modes: a local filesystem tree or a
// remote HTTP mirror. It performs no authorization; callers check the
// entitlement ledger first.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bouleverse/bookvault/internal/config"
	"github.com/bouleverse/bookvault/internal/i18n"
)

const (
	ModeLocal  = "local"
	ModeRemote = "remote"
)

// Book formats and asset kinds the vault serves.
const (
	FormatStandard = "standard"
	FormatA5       = "a5"

	AssetInteractive = "interactive"
	AssetEbook       = "ebook"
)

const metaFileName = "meta.json"

// ErrVaultUnconfigured means the mode's required setting (path or base URL)
// is absent. It maps to a 500, never silently degraded.
var ErrVaultUnconfigured = errors.New("book vault is not configured")

// BookMeta is one catalog record for a (slug, locale, format) triple.
type BookMeta struct {
	Slug        string            `json:"slug"`
	Locale      string            `json:"locale"`
	Format      string            `json:"format"`
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle,omitempty"`
	Description string            `json:"description,omitempty"`
	Edition     string            `json:"edition,omitempty"`
	Assets      map[string]string `json:"assets,omitempty"`
}

// ResolvedAsset points at the bytes for one asset, either a local path or a
// remote URL depending on the vault mode.
type ResolvedAsset struct {
	Mode     string
	Path     string
	URL      string
	Meta     *BookMeta
	FileName string
	Kind     string
}

type Vault struct {
	mode          string
	root          string
	baseURL       string
	defaultLocale string
	client        *http.Client
}

func New(cfg *config.Config) *Vault {
	mode := ModeLocal
	if cfg.VaultMode == ModeRemote {
		mode = ModeRemote
	}
	return &Vault{
		mode:          mode,
		root:          cfg.VaultPath,
		baseURL:       strings.TrimRight(cfg.VaultBaseURL, "/"),
		defaultLocale: i18n.DefaultLocale,
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (v *Vault) Mode() string {
	return v.mode
}

// Meta returns the catalog record for (slug, locale, format), falling back
// to the default locale when the requested locale has none. A nil, nil
// return means the record does not exist in either locale.
func (v *Vault) Meta(ctx context.Context, slug, locale, format string) (*BookMeta, error) {
	meta, err := v.metaRaw(ctx, slug, locale, format)
	if err != nil {
		return nil, err
	}
	if meta != nil || locale == v.defaultLocale {
		return meta, nil
	}
	return v.metaRaw(ctx, slug, v.defaultLocale, format)
}

// Resolve locates the named asset kind. Resolution order: metadata at the
// requested locale; when that metadata lacks the asset and the locale is
// not the default, one retry at the default locale; otherwise not found
// (nil, nil). Format fallback is a route-layer concern, never done here.
func (v *Vault) Resolve(ctx context.Context, slug, locale, format, kind string) (*ResolvedAsset, error) {
	meta, err := v.Meta(ctx, slug, locale, format)
	if err != nil {
		return nil, err
	}

	if assetName(meta, kind) == "" && locale != v.defaultLocale {
		meta, err = v.Meta(ctx, slug, v.defaultLocale, format)
		if err != nil {
			return nil, err
		}
	}

	fileName := assetName(meta, kind)
	if fileName == "" || meta == nil {
		return nil, nil
	}

	resolved := &ResolvedAsset{
		Mode:     v.mode,
		Meta:     meta,
		FileName: fileName,
		Kind:     kind,
	}
	if v.mode == ModeLocal {
		resolved.Path = filepath.Join(v.root, meta.Slug, meta.Locale, meta.Format, fileName)
	} else {
		resolved.URL = fmt.Sprintf("%s/%s/%s/%s/%s", v.baseURL, meta.Slug, meta.Locale, meta.Format, fileName)
	}
	return resolved, nil
}

func (v *Vault) metaRaw(ctx context.Context, slug, locale, format string) (*BookMeta, error) {
	if v.mode == ModeLocal {
		if v.root == "" {
			return nil, ErrVaultUnconfigured
		}
		return readMetaFile(filepath.Join(v.root, slug, locale, format, metaFileName))
	}

	if v.baseURL == "" {
		return nil, ErrVaultUnconfigured
	}
	url := fmt.Sprintf("%s/%s/%s/%s/%s", v.baseURL, slug, locale, format, metaFileName)
	return v.fetchMeta(ctx, url)
}

func readMetaFile(path string) (*BookMeta, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		// Missing or unreadable metadata is an absent catalog entry.
		return nil, nil
	}
	var meta BookMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, nil
	}
	return &meta, nil
}

func (v *Vault) fetchMeta(ctx context.Context, url string) (*BookMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	var meta BookMeta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, nil
	}
	return &meta, nil
}

func assetName(meta *BookMeta, kind string) string {
	if meta == nil {
		return ""
	}
	return meta.Assets[kind]
}
