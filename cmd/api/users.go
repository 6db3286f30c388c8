package main

import (
	"net/http"

	"storefront/internal/domain/users"
)

type userKey string

const userCtx userKey = "user"

func getUserFromContext(r *http.Request) *users.User {
	user, _ := r.Context().Value(userCtx).(*users.User)
	return user
}

// getCurrentUserHandler godoc
//
//	@Summary		Get current user
//	@Description	Returns the profile of the signed in user.
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	users.User
//	@Failure		401	{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me [get]
func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateProfilePayload struct {
	Name      string `json:"name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	BirthDate string `json:"birth_date" validate:"omitempty"`
	Phone     string `json:"phone" validate:"required,max=20"`
}

// updateProfileHandler godoc
//
//	@Summary		Update profile
//	@Description	Updates name, email, birth date and phone. The user name cannot be changed.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		UpdateProfilePayload	true	"Profile"
//	@Success		200		{object}	users.User
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	ErrorBadRequestResponse	"Email already taken"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me [put]
func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateProfilePayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	birthDate, err := parseDate(payload.BirthDate)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	updated, err := app.services.users.UpdateProfile(r.Context(), user.ID, users.ProfileInput{
		Name:      payload.Name,
		Email:     payload.Email,
		BirthDate: birthDate,
		Phone:     payload.Phone,
	})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, updated); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// changePasswordHandler godoc
//
//	@Summary		Change password
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ChangePasswordPayload	true	"Current and new password"
//	@Success		204		{string}	string					"No Content"
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me/password [put]
func (app *application) changePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload ChangePasswordPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	err := app.services.users.ChangePassword(r.Context(), user.ID, payload.CurrentPassword, payload.NewPassword, payload.ConfirmPassword)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type DeleteAccountPayload struct {
	Password string `json:"password" validate:"required"`
}

// deleteAccountHandler godoc
//
//	@Summary		Delete account
//	@Description	Deactivates the signed in account after confirming its password. Administrators cannot delete themselves.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		DeleteAccountPayload	true	"Password confirmation"
//	@Success		204		{string}	string					"No Content"
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		403		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me [delete]
func (app *application) deleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	var payload DeleteAccountPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	if err := app.services.users.DeleteAccount(r.Context(), user.ID, payload.Password); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// logoutHandler godoc
//
//	@Summary		logout user
//	@Description	logout user which will nullify refresh token
//	@Tags			users
//	@Produce		json
//	@Success		204	{string}	string	"No Content"
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.services.users.Logout(r.Context(), user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
