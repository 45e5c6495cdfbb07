package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/metrics"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type linkUseCase interface {
	Shorten(ctx context.Context, longURL, alias string) (*entity.Link, error)
	Resolve(ctx context.Context, alias string) (*entity.Link, error)
	Lookup(ctx context.Context, alias string) (*entity.Link, error)
	Links(ctx context.Context) ([]entity.Link, error)
	ModifyURL(ctx context.Context, alias, longURL string) (*entity.Link, error)
	RemoveLink(ctx context.Context, alias string) error
	DailyClicks(ctx context.Context, alias string) ([]entity.DailyClickCount, error)
}

type adminAuth interface {
	Authorize(key string) bool
}

// Options controls how short and QR URLs are built.
type Options struct {
	// BaseURL prefixes short URLs. When empty the scheme and host of the
	// request are used.
	BaseURL string
	// QRURLTemplate is the QR image service URL; {data} is replaced with
	// the query-escaped short URL.
	QRURLTemplate string
}

type linkHandler struct {
	useCase  linkUseCase
	validate *validator.Validate
	pages    *pages
	metrics  *metrics.Metrics
	opts     Options
}

func newLinkHandler(useCase linkUseCase, validate *validator.Validate, pages *pages, m *metrics.Metrics, opts Options) *linkHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &linkHandler{
		useCase:  useCase,
		validate: validate,
		pages:    pages,
		metrics:  m,
		opts:     opts,
	}
}

func (h *linkHandler) shortURL(r *http.Request, alias string) string {
	base := h.opts.BaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	return base + "/" + alias
}

func (h *linkHandler) qrURL(shortURL string) string {
	return strings.ReplaceAll(h.opts.QRURLTemplate, "{data}", url.QueryEscape(shortURL))
}

func logError(r *http.Request, err error) {
	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
}
