package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/alias"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const maxRetries = 10

var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating alias")

type linkRepository interface {
	Save(ctx context.Context, alias, longURL string) (*entity.Link, error)
	RetrieveByAlias(ctx context.Context, alias string) (*entity.Link, error)
	Exists(ctx context.Context, alias string) (bool, error)
	RetrieveAll(ctx context.Context) ([]entity.Link, error)
	Update(ctx context.Context, alias, longURL string) (*entity.Link, error)
	Remove(ctx context.Context, alias string) error
	IncrementClicks(ctx context.Context, alias, day string) error
	RetrieveDailyClicks(ctx context.Context, alias string) ([]entity.DailyClickCount, error)
}

type LinkUseCase struct {
	aliasLength int
	linkRepo    linkRepository
	generate    func(length int) (string, error)
	nowFunc     func() time.Time
}

func New(aliasLength int, linkRepo linkRepository) *LinkUseCase {
	return &LinkUseCase{
		aliasLength: aliasLength,
		linkRepo:    linkRepo,
		generate:    alias.Generate,
		nowFunc:     time.Now,
	}
}

// Shorten stores longURL under customAlias, or under a freshly generated
// alias when customAlias is blank.
func (uc *LinkUseCase) Shorten(ctx context.Context, longURL, customAlias string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.Shorten"

	longURL = strings.TrimSpace(longURL)
	if longURL == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrEmptyURL)
	}

	if a := alias.Normalize(customAlias); a != "" {
		if !alias.IsValid(a) {
			return nil, fmt.Errorf("%s: %w: %q", op, entity.ErrInvalidAlias, a)
		}

		link, err := uc.linkRepo.Save(ctx, a, longURL)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		return link, nil
	}

	for i := 0; i < maxRetries; i++ {
		a, err := uc.uniqueAlias(ctx)
		if err != nil {
			if errors.Is(err, errAliasUnavailable) {
				continue
			}

			return nil, fmt.Errorf("%s: %w", op, err)
		}

		link, err := uc.linkRepo.Save(ctx, a, longURL)
		if err != nil {
			// Lost a race with a concurrent creator of the same alias.
			if errors.Is(err, entity.ErrAliasExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		return link, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

var errAliasUnavailable = errors.New("generated alias unavailable")

func (uc *LinkUseCase) uniqueAlias(ctx context.Context) (string, error) {
	a, err := uc.generate(uc.aliasLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate alias: %w", err)
	}

	if !alias.IsValid(a) {
		return "", errAliasUnavailable
	}

	exists, err := uc.linkRepo.Exists(ctx, a)
	if err != nil {
		return "", fmt.Errorf("failed to check alias: %w", err)
	}

	if exists {
		return "", errAliasUnavailable
	}

	return a, nil
}

// Resolve returns the link stored under a and counts one click for it on the
// current UTC day.
func (uc *LinkUseCase) Resolve(ctx context.Context, a string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.Resolve"

	link, err := uc.Lookup(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := uc.linkRepo.IncrementClicks(ctx, link.Alias, entity.Day(uc.nowFunc())); err != nil {
		return nil, fmt.Errorf("%s: failed to count click: %w", op, err)
	}
	link.Clicks++

	return link, nil
}

// Lookup returns the link stored under a without counting a click.
func (uc *LinkUseCase) Lookup(ctx context.Context, a string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.Lookup"

	a = alias.Normalize(a)
	if !alias.IsValid(a) {
		return nil, fmt.Errorf("%s: %w: %q", op, entity.ErrInvalidAlias, a)
	}

	link, err := uc.linkRepo.RetrieveByAlias(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to find link: %w", op, err)
	}

	return link, nil
}

func (uc *LinkUseCase) Links(ctx context.Context) ([]entity.Link, error) {
	const op = "usecase.LinkUseCase.Links"

	links, err := uc.linkRepo.RetrieveAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return links, nil
}

func (uc *LinkUseCase) ModifyURL(ctx context.Context, a, longURL string) (*entity.Link, error) {
	const op = "usecase.LinkUseCase.ModifyURL"

	longURL = strings.TrimSpace(longURL)
	if longURL == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrEmptyURL)
	}

	link, err := uc.linkRepo.Update(ctx, alias.Normalize(a), longURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to modify link: %w", op, err)
	}

	return link, nil
}

func (uc *LinkUseCase) RemoveLink(ctx context.Context, a string) error {
	const op = "usecase.LinkUseCase.RemoveLink"

	if err := uc.linkRepo.Remove(ctx, alias.Normalize(a)); err != nil {
		return fmt.Errorf("%s: failed to remove link: %w", op, err)
	}

	return nil
}

// DailyClicks returns per-day click counters. A blank alias selects every
// link.
func (uc *LinkUseCase) DailyClicks(ctx context.Context, a string) ([]entity.DailyClickCount, error) {
	const op = "usecase.LinkUseCase.DailyClicks"

	counts, err := uc.linkRepo.RetrieveDailyClicks(ctx, alias.Normalize(a))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get daily clicks: %w", op, err)
	}

	return counts, nil
}
