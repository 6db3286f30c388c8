package main

import (
	"net/http"

	"storefront/internal/domain/categories"
)

// categoryTreeHandler godoc
//
//	@Summary		Category tree
//	@Description	Every active category as a name-sorted forest.
//	@Tags			categories
//	@Produce		json
//	@Success		200	{array}		categories.Node
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Router			/categories [get]
func (app *application) categoryTreeHandler(w http.ResponseWriter, r *http.Request) {
	forest, err := app.services.categories.Forest(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, forest)
}

// categoryMenuHandler godoc
//
//	@Summary		Navigation menu
//	@Description	Categories that contain at least one product, directly or through a descendant. Served from cache.
//	@Tags			categories
//	@Produce		json
//	@Success		200	{array}		categories.Node
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Router			/categories/menu [get]
func (app *application) categoryMenuHandler(w http.ResponseWriter, r *http.Request) {
	menu, err := app.services.menu.GetVisibleMenu(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, menu)
}

// categoryChildrenHandler godoc
//
//	@Summary		Child categories
//	@Description	Direct active children of parent_id, or the roots when it is omitted.
//	@Tags			categories
//	@Produce		json
//	@Param			parent_id	query		int	false	"Parent category ID"
//	@Success		200			{array}		categories.Category
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	ErrorBadRequestResponse
//	@Router			/categories/children [get]
func (app *application) categoryChildrenHandler(w http.ResponseWriter, r *http.Request) {
	parentID, err := readOptionalInt64(r, "parent_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	children, err := app.services.categories.Children(r.Context(), parentID)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, children)
}

// categoryLocationHandler godoc
//
//	@Summary		Category location
//	@Description	Breadcrumb path and picker levels of a category.
//	@Tags			categories
//	@Produce		json
//	@Param			categoryID	path		int	true	"Category ID"
//	@Success		200			{object}	categories.Location
//	@Failure		404			{object}	ErrorBadRequestResponse
//	@Router			/categories/{categoryID}/location [get]
func (app *application) categoryLocationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	loc, err := app.services.categories.Locate(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, loc)
}

type CreateCategoryPayload struct {
	ParentID    *int64  `json:"parent_id" validate:"omitempty,gt=0"`
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// createCategoryHandler godoc
//
//	@Summary	Create category
//	@Tags		admin-categories
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		CreateCategoryPayload	true	"Category"
//	@Success	201		{object}	categories.Category
//	@Failure	400		{object}	ErrorBadRequestResponse
//	@Failure	403		{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateCategoryPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.services.categories.Create(r.Context(), categories.CreateInput{
		ParentID:    payload.ParentID,
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, c)
}

type UpdateCategoryPayload struct {
	ParentID    *int64  `json:"parent_id" validate:"omitempty,gt=0"`
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IsActive    bool    `json:"is_active"`
}

// updateCategoryHandler godoc
//
//	@Summary		Update category
//	@Description	A category cannot be moved under itself or one of its descendants.
//	@Tags			admin-categories
//	@Accept			json
//	@Produce		json
//	@Param			categoryID	path		int						true	"Category ID"
//	@Param			payload		body		UpdateCategoryPayload	true	"Category"
//	@Success		200			{object}	categories.Category
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/categories/{categoryID} [put]
func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateCategoryPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	c, err := app.services.categories.Update(r.Context(), id, categories.UpdateInput{
		ParentID:    payload.ParentID,
		Name:        payload.Name,
		Description: payload.Description,
		IsActive:    payload.IsActive,
	})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, c)
}

// deleteCategoryHandler godoc
//
//	@Summary		Delete category
//	@Description	Rejected while the category has active children or products.
//	@Tags			admin-categories
//	@Param			categoryID	path		int		true	"Category ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		404			{object}	ErrorBadRequestResponse
//	@Failure		409			{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/categories/{categoryID} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.services.categories.Delete(r.Context(), id); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
