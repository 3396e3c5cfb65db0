// Package download отдает файл продукта вошедшему пользователю.
package download

import (
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/paid-signup/internal/http/response"
	"github.com/magabrotheeeer/paid-signup/internal/lib/sl"
)

// ContentType тип содержимого файла продукта
const ContentType = "application/pdf"

// Handler обработчик GET /products/{id}
type Handler struct {
	log   *slog.Logger
	files map[string]string
}

// New создает Handler. files сопоставляет id продукта с путем к файлу.
func New(log *slog.Logger, files map[string]string) *Handler {
	return &Handler{
		log:   log,
		files: files,
	}
}

// ServeHTTP godoc
// @Summary Скачать продукт
// @Tags products
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID продукта"
// @Success 200 {file} file
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /products/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.products.download"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("product_id", id),
	)

	path, ok := h.files[id]
	if !ok {
		log.Info("unknown product")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("product not found"))
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Error("failed to open product file", slog.String("path", path), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Error("failed to stat product file", slog.String("path", path), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	name := filepath.Base(path)
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	log.Info("product downloaded")
	http.ServeContent(w, r, name, info.ModTime(), f)
}
