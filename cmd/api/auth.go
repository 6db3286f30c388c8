package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain/users"
)

// ErrorBadRequestResponse represents the standard error format for bad request API responses.
//
//	@name			ErrorBadRequestResponse
//	@description	Standard error response format returned by all bad request API endpoints
type ErrorBadRequestResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"It show error from err.Error()"`
	Status  int    `json:"status" example:"400"`
}

// ErrorInternalServerResponse represents the standard error format for internal server API responses.
//
//	@name			ErrorInternalServerResponse
//	@description	Standard error response format returned by all internal server error API endpoints
type ErrorInternalServerResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"the server encountered a problem"`
	Status  int    `json:"status" example:"500"`
}

const dateLayout = "2006-01-02"

// parseDate accepts an empty or YYYY-MM-DD value.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("birth_date must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}

type AddressPayload struct {
	ZipCode       string  `json:"zip_code" validate:"required,zipcode"`
	Address       string  `json:"address" validate:"required,max=255"`
	AddressDetail *string `json:"address_detail" validate:"omitempty,max=255"`
}

type RegisterUserPayload struct {
	UserName  string          `json:"user_name" validate:"required,alphanum,min=4,max=20"`
	Email     string          `json:"email" validate:"required,email,max=255"`
	Password  string          `json:"password" validate:"required,min=6,max=72"`
	Name      string          `json:"name" validate:"required,max=50"`
	BirthDate string          `json:"birth_date" validate:"omitempty"`
	Phone     string          `json:"phone" validate:"required,max=20"`
	Address   *AddressPayload `json:"address" validate:"omitempty"`
}

// registerUserHandler godoc
//
//	@Summary		Registers a user
//	@Description	Creates an account. An optional address is saved as the default shipping address.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RegisterUserPayload			true	"User details"
//	@Success		201		{object}	users.User					"User registered"
//	@Failure		400		{object}	ErrorBadRequestResponse		"Bad request"
//	@Failure		409		{object}	ErrorBadRequestResponse		"User name or email already taken"
//	@Failure		500		{object}	ErrorInternalServerResponse	"Internal Server Error"
//	@Router			/authentication/user [post]
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	birthDate, err := parseDate(payload.BirthDate)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	in := users.RegisterInput{
		UserName:  payload.UserName,
		Email:     payload.Email,
		Password:  payload.Password,
		Name:      payload.Name,
		BirthDate: birthDate,
		Phone:     payload.Phone,
	}
	if payload.Address != nil {
		in.Address = &users.InitialAddress{
			ZipCode:       payload.Address.ZipCode,
			Address:       payload.Address.Address,
			AddressDetail: payload.Address.AddressDetail,
		}
	}

	user, err := app.services.users.Register(r.Context(), in)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateUserTokenPayload struct {
	UserName string `json:"user_name" validate:"required,max=20"`
	Password string `json:"password" validate:"required,max=72"`
}

// TokenResponse represents the structure of the tokens in the response. made for swagger doc success output
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
}

// Envelope is a wrapper for API responses.made for swagger doc success output
type Envelope struct {
	Data TokenResponse `json:"data"`
}

// issueTokens signs a new token pair and stores the refresh token.
func (app *application) issueTokens(r *http.Request, user *users.User) (*TokenResponse, error) {
	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := app.services.users.SaveRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       strconv.FormatInt(user.ID, 10),
		Role:         user.Role,
	}, nil
}

// createTokenHandler godoc
//
//	@Summary		Login to get Token
//	@Description	Exchanges a user name and password for an access and refresh token.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateUserTokenPayload	true	"User credentials"
//	@Success		200		{object}	Envelope				"Token pair"
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		401		{object}	ErrorBadRequestResponse	"Invalid user name or password"
//	@Failure		429		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/authentication/token [post]
func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserTokenPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.services.users.Authenticate(r.Context(), payload.UserName, payload.Password)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	tokens, err := app.issueTokens(r, user)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, tokens); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RefreshPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// refreshTokenHandler godoc
//
//	@Summary		Refresh authentication tokens
//	@Description	Validates the provided refresh token and issues new access and refresh tokens.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RefreshPayload	true	"Refresh token payload"
//	@Success		200		{object}	Envelope		"New access and refresh tokens"
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		401		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/authentication/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil || !token.Valid {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid refresh token"))
		return
	}

	userID, err := auth.UserID(token)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	ok, err := app.services.users.VerifyRefreshToken(r.Context(), userID, payload.RefreshToken)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if !ok {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("refresh token mismatch"))
		return
	}

	user, err := app.services.users.GetByID(r.Context(), userID)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	tokens, err := app.issueTokens(r, user)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, tokens); err != nil {
		app.internalServerError(w, r, err)
	}
}

type FindIDPayload struct {
	Name  string `json:"name" validate:"required,max=50"`
	Email string `json:"email" validate:"required,email,max=255"`
}

// findIDHandler godoc
//
//	@Summary		Find user name
//	@Description	Returns the masked user name of the active account matching name and email.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		FindIDPayload		true	"Name and email"
//	@Success		200		{object}	map[string]string	"Masked user name"
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/authentication/find-id [post]
func (app *application) findIDHandler(w http.ResponseWriter, r *http.Request) {
	var payload FindIDPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	masked, err := app.services.users.FindID(r.Context(), payload.Name, payload.Email)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"user_name": masked})
}

type RequestResetPasswordPayload struct {
	UserName string `json:"user_name" validate:"required,max=20"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

const resetRequestedMessage = "If the account exists, a password reset link has been sent to its email address."

// requestResetPasswordHandler godoc
//
//	@Summary		Request password reset
//	@Description	Mails a one-time reset link. The response is the same whether or not the account exists.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RequestResetPasswordPayload	true	"User name and email"
//	@Success		202		{object}	map[string]string
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		429		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/authentication/reset-password [post]
func (app *application) requestResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload RequestResetPasswordPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.services.resets.RequestReset(r.Context(), payload.UserName, payload.Email); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusAccepted, map[string]string{"message": resetRequestedMessage})
}

type CheckResetTokenPayload struct {
	TokenID int64  `json:"token_id" validate:"required,gt=0"`
	Token   string `json:"token" validate:"required"`
}

// checkResetTokenHandler godoc
//
//	@Summary		Check a reset link
//	@Description	Reports whether a reset link can still be used.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CheckResetTokenPayload	true	"Token id and value"
//	@Success		200		{object}	map[string]bool
//	@Failure		400		{object}	ErrorBadRequestResponse	"Invalid link"
//	@Failure		410		{object}	ErrorBadRequestResponse	"Expired link"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/authentication/reset-password/check [post]
func (app *application) checkResetTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CheckResetTokenPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.services.resets.Check(r.Context(), payload.TokenID, payload.Token); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]bool{"valid": true})
}

type ResetPasswordPayload struct {
	TokenID         int64  `json:"token_id" validate:"required,gt=0"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// resetPasswordHandler godoc
//
//	@Summary		Reset password
//	@Description	Sets a new password with a valid reset link. The link is spent only after the password is stored.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ResetPasswordPayload	true	"Reset link and new password"
//	@Success		204		{string}	string					"No Content"
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	ErrorBadRequestResponse
//	@Failure		410		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/authentication/reset-password [put]
func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload ResetPasswordPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err := app.services.resets.Reset(r.Context(), payload.TokenID, payload.Token, payload.Password, payload.ConfirmPassword)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
