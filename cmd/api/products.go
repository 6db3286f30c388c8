package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/domain/products"
	"storefront/internal/params"
)

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	Newest first, 20 per page. category_id includes every descendant category. search matches the product name or any category whose name contains the text.
//	@Tags			products
//	@Produce		json
//	@Param			page			query		int		false	"Page number, clamped to the valid range"
//	@Param			category_id		query		int		false	"Category ID"
//	@Param			search			query		string	false	"Search text"
//	@Param			include_hidden	query		bool	false	"Admins only: include hidden products"
//	@Success		200				{object}	products.ListResult
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	categoryID, err := readOptionalInt64(r, "category_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	includeHidden := false
	if user := getUserFromContext(r); user != nil && user.IsAdmin() {
		includeHidden = q.Get("include_hidden") == "true"
	}

	result, err := app.services.products.ListProducts(r.Context(), products.ListQuery{
		Page:          params.ParsePage(q),
		CategoryID:    categoryID,
		Search:        q.Get("search"),
		IncludeHidden: includeHidden,
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, result)
}

// getProductHandler godoc
//
//	@Summary		Product detail
//	@Description	Product with its category path and media. Hidden products are only returned to admins.
//	@Tags			products
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	products.Detail
//	@Failure		404			{object}	ErrorBadRequestResponse
//	@Router			/products/{productID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	privileged := user != nil && user.IsAdmin()

	detail, err := app.services.products.GetDetail(r.Context(), id, privileged)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, detail)
}

// readProductForm reads the scalar product fields of a multipart form.
func readProductForm(r *http.Request) (products.ProductInput, error) {
	var in products.ProductInput

	categoryID, err := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
	if err != nil || categoryID <= 0 {
		return in, fmt.Errorf("invalid category_id")
	}
	price, err := strconv.ParseInt(r.FormValue("price"), 10, 64)
	if err != nil || price < 0 {
		return in, fmt.Errorf("invalid price")
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" || len(name) > 200 {
		return in, fmt.Errorf("name is required and must be at most 200 characters")
	}

	in.CategoryID = categoryID
	in.Name = name
	in.Price = price
	in.IsVisible = r.FormValue("is_visible") != "false"

	if desc := strings.TrimSpace(r.FormValue("description")); desc != "" {
		in.Description = &desc
	}
	if raw := r.FormValue("discount_rate"); raw != "" {
		rate, err := strconv.Atoi(raw)
		if err != nil {
			return in, fmt.Errorf("invalid discount_rate")
		}
		in.DiscountRate = &rate
	}
	return in, nil
}

// createProductHandler godoc
//
//	@Summary		Create product
//	@Description	Creates a product with optional media. Up to 8 thumbs.
//	@Tags			admin-products
//	@Accept			mpfd
//	@Produce		json
//	@Param			category_id		formData	int		true	"Category ID"
//	@Param			name			formData	string	true	"Name"
//	@Param			description		formData	string	false	"Description"
//	@Param			price			formData	int		true	"Price"
//	@Param			discount_rate	formData	int		false	"Discount rate 0-100"
//	@Param			is_visible		formData	bool	false	"Visible (default true)"
//	@Param			thumbs			formData	file	false	"Thumbnail images"
//	@Param			images			formData	file	false	"Gallery images"
//	@Param			details			formData	file	false	"Detail images"
//	@Param			videos			formData	file	false	"Videos"
//	@Success		201				{object}	products.Product
//	@Failure		400				{object}	ErrorBadRequestResponse
//	@Failure		500				{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}

	in, err := readProductForm(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	uploads, closeAll, err := readUploads(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer closeAll()

	p, err := app.services.products.Create(r.Context(), in, uploads)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, p)
}

type UpdateProductPayload struct {
	CategoryID   int64   `json:"category_id" validate:"required,gt=0"`
	Name         string  `json:"name" validate:"required,max=200"`
	Description  *string `json:"description" validate:"omitempty"`
	Price        int64   `json:"price" validate:"gte=0"`
	DiscountRate *int    `json:"discount_rate" validate:"omitempty,gte=0,lte=100"`
	IsVisible    bool    `json:"is_visible"`
}

// updateProductHandler godoc
//
//	@Summary	Update product
//	@Tags		admin-products
//	@Accept		json
//	@Produce	json
//	@Param		productID	path		int						true	"Product ID"
//	@Param		payload		body		UpdateProductPayload	true	"Product"
//	@Success	200			{object}	products.Product
//	@Failure	400			{object}	ErrorBadRequestResponse
//	@Failure	404			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/products/{productID} [put]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateProductPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	p, err := app.services.products.Update(r.Context(), id, products.ProductInput{
		CategoryID:   payload.CategoryID,
		Name:         strings.TrimSpace(payload.Name),
		Description:  payload.Description,
		Price:        payload.Price,
		DiscountRate: payload.DiscountRate,
		IsVisible:    payload.IsVisible,
	})
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, p)
}

// deleteProductHandler godoc
//
//	@Summary		Delete product
//	@Description	Soft deletes the product and its media.
//	@Tags			admin-products
//	@Param			productID	path		int		true	"Product ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		404			{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/products/{productID} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.services.products.Delete(r.Context(), id); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
