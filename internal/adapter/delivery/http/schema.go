package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// API error codes.
const (
	codeBadRequest  = "bad_request"
	codeBadAlias    = "bad_alias"
	codeAliasTaken  = "alias_taken"
	codeServerError = "server_error"
)

// shortenRequest is the body of POST /api/shorten.
type shortenRequest struct {
	URL   string `json:"url" validate:"required,url,max=2048"`
	Alias string `json:"alias,omitempty"`
}

type shortenResponse struct {
	Short string `json:"short"`
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details []validationError `json:"details,omitempty"`
}

var (
	badRequestResponse  = errorResponse{Error: codeBadRequest}
	badAliasResponse    = errorResponse{Error: codeBadAlias}
	aliasTakenResponse  = errorResponse{Error: codeAliasTaken}
	serverErrorResponse = errorResponse{Error: codeServerError}
)

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url":
		return "invalid url"
	case "max":
		return "value is too long"
	default:
		return "invalid value"
	}
}

func validationErrorResponse(err error) errorResponse {
	resp := errorResponse{Error: codeBadRequest}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			resp.Details = append(resp.Details, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return resp
}

// formMessage maps a failed create to the text shown under the web form.
func formMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrEmptyURL):
		return "Please enter the URL to shorten."
	case errors.Is(err, entity.ErrInvalidAlias):
		return "Alias may only contain a-z, 0-9, '-' and '_' (up to 64 characters) and must not be a reserved word."
	case errors.Is(err, entity.ErrAliasExists):
		return "This alias is already taken."
	default:
		return "Something went wrong, please try again."
	}
}
