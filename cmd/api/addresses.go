package main

import (
	"net/http"

	"storefront/internal/domain/addresses"
)

type AddressInputPayload struct {
	ZipCode       string  `json:"zip_code" validate:"required,zipcode"`
	Address       string  `json:"address" validate:"required,max=255"`
	AddressDetail *string `json:"address_detail" validate:"omitempty,max=255"`
	IsDefault     bool    `json:"is_default"`
}

func (p AddressInputPayload) input() addresses.Input {
	return addresses.Input{
		ZipCode:       p.ZipCode,
		Address:       p.Address,
		AddressDetail: p.AddressDetail,
		IsDefault:     p.IsDefault,
	}
}

// listAddressesHandler godoc
//
//	@Summary		List addresses
//	@Description	Lists the signed in user's addresses, default first then newest.
//	@Tags			addresses
//	@Produce		json
//	@Success		200	{array}		addresses.Address
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me/addresses [get]
func (app *application) listAddressesHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	list, err := app.services.addresses.List(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, list)
}

// getAddressHandler godoc
//
//	@Summary	Get address
//	@Tags		addresses
//	@Produce	json
//	@Param		addressID	path		int	true	"Address ID"
//	@Success	200			{object}	addresses.Address
//	@Failure	404			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/users/me/addresses/{addressID} [get]
func (app *application) getAddressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "addressID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	addr, err := app.services.addresses.Get(r.Context(), user.ID, id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, addr)
}

// createAddressHandler godoc
//
//	@Summary		Add address
//	@Description	The first address of a user always becomes the default.
//	@Tags			addresses
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		AddressInputPayload	true	"Address"
//	@Success		201		{object}	addresses.Address
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me/addresses [post]
func (app *application) createAddressHandler(w http.ResponseWriter, r *http.Request) {
	var payload AddressInputPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	addr, err := app.services.addresses.Add(r.Context(), user.ID, payload.input())
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, addr)
}

// updateAddressHandler godoc
//
//	@Summary	Update address
//	@Tags		addresses
//	@Accept		json
//	@Produce	json
//	@Param		addressID	path		int					true	"Address ID"
//	@Param		payload		body		AddressInputPayload	true	"Address"
//	@Success	200			{object}	addresses.Address
//	@Failure	400			{object}	ErrorBadRequestResponse
//	@Failure	404			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/users/me/addresses/{addressID} [put]
func (app *application) updateAddressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "addressID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload AddressInputPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	addr, err := app.services.addresses.Update(r.Context(), user.ID, id, payload.input())
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, addr)
}

// deleteAddressHandler godoc
//
//	@Summary		Delete address
//	@Description	The default address cannot be deleted.
//	@Tags			addresses
//	@Param			addressID	path		int		true	"Address ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/users/me/addresses/{addressID} [delete]
func (app *application) deleteAddressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "addressID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	if err := app.services.addresses.Delete(r.Context(), user.ID, id); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// setDefaultAddressHandler godoc
//
//	@Summary	Set default address
//	@Tags		addresses
//	@Param		addressID	path		int		true	"Address ID"
//	@Success	204			{string}	string	"No Content"
//	@Failure	404			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/users/me/addresses/{addressID}/default [put]
func (app *application) setDefaultAddressHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "addressID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	if err := app.services.addresses.SetDefault(r.Context(), user.ID, id); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
