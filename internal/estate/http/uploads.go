package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/estate/internal/estate/assets"
	"github.com/aussiebroadwan/estate/pkg/slogx"
)

// UploadsHandler streams stored listing images. Names are content
// digests, so responses are cacheable forever.
func UploadsHandler(store assets.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if !assets.ValidName(name) {
			http.NotFound(w, r)
			return
		}

		rc, err := store.Open(r.Context(), name)
		switch {
		case errors.Is(err, assets.ErrNotFound), errors.Is(err, assets.ErrInvalidName):
			http.NotFound(w, r)
			return
		case err != nil:
			slogx.FromContext(r.Context()).Error("failed to open image", slog.String("image", name), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", assets.ContentType(name))
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if _, err := io.Copy(w, rc); err != nil {
			slogx.FromContext(r.Context()).Warn("image transfer interrupted", slog.String("image", name), slog.Any("error", err))
		}
	}
}
