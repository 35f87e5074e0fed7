package filesystem

import (
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/datashare"
	datasharehttp "github.com/sagarc03/datashare/http"
)

// ObjectHandler serves signed PUT and GET requests for objects under
// /uploads/. It is mounted on the API router when the local driver is used.
type ObjectHandler struct {
	store         *Store
	verifier      *Verifier
	maxUploadSize int64
}

// NewObjectHandler creates an ObjectHandler. maxUploadSize <= 0 disables the
// size limit.
func NewObjectHandler(store *Store, verifier *Verifier, maxUploadSize int64) *ObjectHandler {
	return &ObjectHandler{store: store, verifier: verifier, maxUploadSize: maxUploadSize}
}

func (h *ObjectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	if !datashare.IsValidObjectKey(key) || !strings.HasPrefix(key, datashare.UploadPrefix) {
		datasharehttp.WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut:
	default:
		w.Header().Set("Allow", "GET, HEAD, PUT")
		datasharehttp.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	if err := h.verifier.Verify(r.Method, "/"+key, r.URL.Query()); err != nil {
		slog.Debug("object signature rejected", "key", key, "err", err)
		datasharehttp.WriteError(w, http.StatusForbidden, "access_denied", "Access denied")
		return
	}

	if r.Method == http.MethodPut {
		h.handlePut(w, r, key)
		return
	}
	h.handleGet(w, r, key)
}

func (h *ObjectHandler) handleGet(w http.ResponseWriter, r *http.Request, key string) {
	f, err := h.store.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, datashare.ErrNotFound) {
			datasharehttp.WriteError(w, http.StatusNotFound, "not_found", "Object not found")
			return
		}
		datasharehttp.HandleError(w, err)
		return
	}
	defer func() { _ = f.Close() }()

	modTime := time.Time{}
	if info, statErr := f.Stat(); statErr == nil {
		modTime = info.ModTime()
	}

	w.Header().Set("Content-Type", detectContentType(key))
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadName(key)+`"`)
	http.ServeContent(w, r, key, modTime, f)
}

func (h *ObjectHandler) handlePut(w http.ResponseWriter, r *http.Request, key string) {
	if h.maxUploadSize > 0 {
		if r.ContentLength > h.maxUploadSize {
			datasharehttp.WriteError(w, http.StatusRequestEntityTooLarge, "file_too_large", "File too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	res, err := h.store.Write(r.Context(), key, r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			datasharehttp.WriteError(w, http.StatusRequestEntityTooLarge, "file_too_large", "File too large")
			return
		}
		datasharehttp.HandleError(w, err)
		return
	}

	w.Header().Set("ETag", `"`+res.ETag+`"`)
	w.Header().Set("X-Bytes-Written", strconv.FormatInt(res.BytesWritten, 10))
	w.WriteHeader(http.StatusOK)
}

// downloadName strips the uploads/<uuid>- prefix from a key.
func downloadName(key string) string {
	name := path.Base(key)
	if len(name) > 37 && name[36] == '-' {
		name = name[37:]
	}
	return strings.ReplaceAll(name, `"`, "")
}
