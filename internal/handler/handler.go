package handler

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sort"

	"mbtamap/internal/config"
	"mbtamap/internal/directory"
	"mbtamap/internal/geocode"
	"mbtamap/internal/realtime"
	"mbtamap/internal/session"
	"mbtamap/internal/storage"
	"mbtamap/internal/templates"
)

// Handler holds shared dependencies for all HTTP handlers.
type Handler struct {
	dir          *directory.Directory
	sessions     *session.Registry
	db           *storage.DB
	rt           *realtime.Store
	geo          *geocode.Client // nil disables the address fallback
	cfg          *config.Config
	logger       *slog.Logger
	version      string // content hash of static assets, for cache busting
	cookieSecret []byte // HMAC key for signing session cookies
}

// New creates a Handler. static is the asset tree served under /static/.
// geo may be nil.
func New(dir *directory.Directory, sessions *session.Registry, db *storage.DB, rt *realtime.Store, geo *geocode.Client, cfg *config.Config, static fs.FS, logger *slog.Logger) (*Handler, error) {
	v := computeAssetVersion(static)
	logger.Info("asset version computed", "version", v)

	secret := []byte(cfg.CookieSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate cookie secret: %w", err)
		}
		logger.Warn("no MBTAMAP_COOKIE_SECRET set, generated random secret (sessions won't survive restart)")
	}

	return &Handler{
		dir:          dir,
		sessions:     sessions,
		db:           db,
		rt:           rt,
		geo:          geo,
		cfg:          cfg,
		logger:       logger,
		version:      v,
		cookieSecret: secret,
	}, nil
}

// computeAssetVersion hashes all CSS and JS files in the static tree
// to produce a short version string. Changes to any file produce a new version.
func computeAssetVersion(static fs.FS) string {
	h := md5.New()
	var paths []string
	fs.WalkDir(static, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if ext := path.Ext(p); ext == ".css" || ext == ".js" {
			paths = append(paths, p)
		}
		return nil
	})
	sort.Strings(paths) // deterministic order
	for _, p := range paths {
		f, err := static.Open(p)
		if err != nil {
			continue
		}
		io.Copy(h, f)
		f.Close()
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:8]
}

// page creates a templates.Page with the asset version pre-filled.
func (h *Handler) page(title string) templates.Page {
	return templates.Page{
		Title:        title,
		AssetVersion: h.version,
	}
}

// writeJSON encodes v before writing the header, so a value that cannot
// be encoded turns into a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding JSON response", "type", fmt.Sprintf("%T", v), "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"encoding failed"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
