package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
)

type indexPage struct {
	LongURL string
	Alias   string
	Message string
	Failed  bool
	Short   string
	QR      string
}

func (h *linkHandler) showForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "index.html", indexPage{})
}

func (h *linkHandler) submitForm(w http.ResponseWriter, r *http.Request) {
	page := indexPage{
		LongURL: r.PostFormValue("long_url"),
		Alias:   r.PostFormValue("alias"),
	}

	link, err := h.useCase.Shorten(r.Context(), page.LongURL, page.Alias)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, entity.ErrAliasExists):
			status = http.StatusConflict
		case errors.Is(err, entity.ErrEmptyURL), errors.Is(err, entity.ErrInvalidAlias):
			status = http.StatusBadRequest
		default:
			logError(r, err)
		}

		page.Message = formMessage(err)
		page.Failed = true
		h.pages.render(w, r, status, "index.html", page)
		return
	}

	h.metrics.LinkCreated(metrics.SourceForm)

	page.Short = h.shortURL(r, link.Alias)
	page.QR = h.qrURL(page.Short)
	page.Message = "Short link created!"
	page.LongURL, page.Alias = "", ""
	h.pages.render(w, r, http.StatusOK, "index.html", page)
}

func (h *linkHandler) redirect(w http.ResponseWriter, r *http.Request) {
	link, err := h.useCase.Resolve(r.Context(), chi.URLParam(r, "alias"))
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) || errors.Is(err, entity.ErrInvalidAlias) {
			h.metrics.Redirect(metrics.ResultNotFound)
			http.NotFound(w, r)
			return
		}

		logError(r, err)
		h.metrics.Redirect(metrics.ResultError)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.metrics.Redirect(metrics.ResultFound)
	http.Redirect(w, r, link.LongURL, http.StatusFound)
}

func (h *linkHandler) qr(w http.ResponseWriter, r *http.Request) {
	link, err := h.useCase.Lookup(r.Context(), chi.URLParam(r, "alias"))
	if err != nil {
		if errors.Is(err, entity.ErrLinkNotFound) || errors.Is(err, entity.ErrInvalidAlias) {
			http.NotFound(w, r)
			return
		}

		logError(r, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.qrURL(h.shortURL(r, link.Alias)), http.StatusFound)
}
