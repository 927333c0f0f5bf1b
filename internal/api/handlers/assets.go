package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/video-stream/signreel/internal/storage"
)

const defaultAssetResults = 50

// AssetsHandler exposes the sign vocabulary in the media directory. The
// directory is rescanned on every request.
type AssetsHandler struct {
	mediaPath string
}

func NewAssetsHandler(mediaPath string) *AssetsHandler {
	return &AssetsHandler{mediaPath: mediaPath}
}

func (h *AssetsHandler) catalog(w http.ResponseWriter) (*storage.Catalog, bool) {
	cat, err := storage.BuildCatalog(h.mediaPath)
	if errors.Is(err, storage.ErrMediaDirectoryMissing) {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return nil, false
	}
	if err != nil {
		jsonError(w, "failed to scan media directory", http.StatusInternalServerError)
		return nil, false
	}
	return cat, true
}

// Search lists assets whose key contains q. An empty q lists everything.
func (h *AssetsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := defaultAssetResults
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	cat, ok := h.catalog(w)
	if !ok {
		return
	}
	results := cat.Search(q, limit)
	if results == nil {
		results = []storage.Asset{}
	}
	_, hasFallback := cat.Fallback()

	jsonResponse(w, map[string]interface{}{
		"query":        q,
		"results":      results,
		"has_fallback": hasFallback,
	}, http.StatusOK)
}

// Preview serves the asset a key resolves to.
func (h *AssetsHandler) Preview(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.catalog(w)
	if !ok {
		return
	}
	asset, found := cat.Lookup(urlParam(r, "key"))
	if !found {
		jsonError(w, "asset not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, asset.Path)
}
