package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
)

const maxRequestBodySize = 1 << 20

func (h *linkHandler) shorten(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if !errors.Is(err, io.EOF) {
			logError(r, err)
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, badRequestResponse)
		return
	}

	req.URL = strings.TrimSpace(req.URL)

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	link, err := h.useCase.Shorten(r.Context(), req.URL, req.Alias)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrEmptyURL):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, badRequestResponse)
		case errors.Is(err, entity.ErrInvalidAlias):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, badAliasResponse)
		case errors.Is(err, entity.ErrAliasExists):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, aliasTakenResponse)
		default:
			logError(r, err)

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
		}
		return
	}

	h.metrics.LinkCreated(metrics.SourceAPI)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, shortenResponse{Short: h.shortURL(r, link.Alias)})
}
