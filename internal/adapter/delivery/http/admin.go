package http

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type adminHandler struct {
	useCase linkUseCase
	auth    adminAuth
	pages   *pages
}

func newAdminHandler(useCase linkUseCase, auth adminAuth, pages *pages) *adminHandler {
	return &adminHandler{
		useCase: useCase,
		auth:    auth,
		pages:   pages,
	}
}

// requireKey rejects requests whose key query parameter or form field does
// not match the admin secret.
func (h *adminHandler) requireKey(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if !h.auth.Authorize(r.FormValue("key")) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}

type managePage struct {
	Key   string
	Links []entity.Link
}

func (h *adminHandler) manage(w http.ResponseWriter, r *http.Request) {
	links, err := h.useCase.Links(r.Context())
	if err != nil {
		logError(r, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.pages.render(w, r, http.StatusOK, "manage.html", managePage{
		Key:   r.FormValue("key"),
		Links: links,
	})
}

func (h *adminHandler) update(w http.ResponseWriter, r *http.Request) {
	_, err := h.useCase.ModifyURL(r.Context(), r.PostFormValue("alias"), r.PostFormValue("long_url"))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrEmptyURL):
			http.Error(w, "long_url is required", http.StatusBadRequest)
		case errors.Is(err, entity.ErrLinkNotFound):
			http.NotFound(w, r)
		default:
			logError(r, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.backToManage(w, r)
}

func (h *adminHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.useCase.RemoveLink(r.Context(), r.PostFormValue("alias")); err != nil {
		logError(r, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.backToManage(w, r)
}

func (h *adminHandler) backToManage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/manage?key="+url.QueryEscape(r.FormValue("key")), http.StatusFound)
}

type statsPage struct {
	Key   string
	Alias string
	Rows  []entity.DailyClickCount
	Total int64
}

func (h *adminHandler) stats(w http.ResponseWriter, r *http.Request) {
	alias := r.FormValue("alias")

	counts, err := h.useCase.DailyClicks(r.Context(), alias)
	if err != nil {
		logError(r, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page := statsPage{
		Key:   r.FormValue("key"),
		Alias: alias,
		Rows:  counts,
	}
	for _, c := range counts {
		page.Total += c.Count
	}

	h.pages.render(w, r, http.StatusOK, "stats.html", page)
}

func (h *adminHandler) exportCSV(w http.ResponseWriter, r *http.Request) {
	alias := r.FormValue("alias")

	counts, err := h.useCase.DailyClicks(r.Context(), alias)
	if err != nil {
		logError(r, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	filename := "clicks.csv"
	if alias != "" {
		filename = fmt.Sprintf("clicks-%s.csv", url.PathEscape(alias))
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	cw.Write([]string{"day", "alias", "count"})
	for _, c := range counts {
		cw.Write([]string{c.Day, c.Alias, strconv.FormatInt(c.Count, 10)})
	}
	cw.Flush()

	if err := cw.Error(); err != nil {
		logError(r, err)
	}
}
