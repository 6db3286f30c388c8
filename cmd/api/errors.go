package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/domain/addresses"
	"storefront/internal/domain/categories"
	"storefront/internal/domain/passwordreset"
	"storefront/internal/domain/products"
	"storefront/internal/domain/qna"
	"storefront/internal/domain/users"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusForbidden, err.Error())
}

// goneResponse reports an expired reset link.
func (app *application) goneResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("expired resource", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusGone, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+strconv.Itoa(seconds)+"s")
}

var (
	notFoundErrors = []error{
		users.ErrNotFound,
		addresses.ErrNotFound,
		categories.ErrNotFound,
		products.ErrNotFound,
		products.ErrMediaNotFound,
		qna.ErrNotFound,
		qna.ErrProductNotFound,
		passwordreset.ErrUserNotFound,
	}
	conflictErrors = []error{
		users.ErrDuplicateUserName,
		users.ErrDuplicateEmail,
		categories.ErrHasChildren,
		categories.ErrHasProducts,
		qna.ErrAlreadyAnswered,
	}
	forbiddenErrors = []error{
		users.ErrAdminSelfDelete,
		qna.ErrForbidden,
	}
	invalidErrors = []error{
		users.ErrWrongPassword,
		users.ErrPasswordMismatch,
		users.ErrPasswordTooShort,
		addresses.ErrDefaultNotDeleted,
		categories.ErrInvalidParent,
		categories.ErrCircularParent,
		products.ErrInvalidCategory,
		products.ErrInvalidDiscount,
		products.ErrInvalidMediaType,
		products.ErrTooManyThumbs,
		products.ErrInvalidReorder,
		qna.ErrNotAnswered,
		passwordreset.ErrPasswordMismatch,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorResponse maps a domain error onto its HTTP responder. Anything it does
// not recognise is a 500.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, passwordreset.ErrInvalid):
		// one message for every unusable link
		app.logger.Warnw("reset token rejected", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusBadRequest, passwordreset.ErrInvalid.Error())
	case errors.Is(err, passwordreset.ErrExpired):
		app.goneResponse(w, r, err)
	case errors.Is(err, users.ErrInvalidCredentials):
		app.logger.Warnw("login failed", "path", r.URL.Path)
		writeJSONError(w, http.StatusUnauthorized, err.Error())
	case isAny(err, notFoundErrors):
		app.notFoundResponse(w, r, err)
	case isAny(err, conflictErrors):
		app.conflictResponse(w, r, err)
	case isAny(err, forbiddenErrors):
		app.forbiddenResponse(w, r, err)
	case isAny(err, invalidErrors):
		app.badRequestResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
