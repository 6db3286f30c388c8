package main

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"storefront/internal/domain/products"
)

const (
	maxUploadBytes = 64 << 20 // 64MB per request
	maxMemoryBytes = 8 << 20
)

// form field -> media type
var mediaFields = []struct {
	field string
	typ   products.MediaType
}{
	{"thumbs", products.MediaThumb},
	{"images", products.MediaImage},
	{"details", products.MediaDetail},
	{"videos", products.MediaVideo},
}

var allowedImageTypes = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true, "image/gif": true}

// helper: sniff first 512 bytes and reset reader
func sniffMIME(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	mime := http.DetectContentType(buf[:n])

	// reset so later reads start from byte 0
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek reset: %w", err)
	}
	return mime, nil
}

func allowedMIME(t products.MediaType, mime string) bool {
	if t == products.MediaVideo {
		return strings.HasPrefix(mime, "video/")
	}
	return allowedImageTypes[mime]
}

// readUploads opens every media file of a parsed multipart form. The caller
// must call the returned func once the uploads have been consumed.
func readUploads(r *http.Request) ([]products.Upload, func(), error) {
	var (
		uploads []products.Upload
		files   []multipart.File
	)
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	if r.MultipartForm == nil {
		return nil, closeAll, nil
	}

	for _, mf := range mediaFields {
		for _, header := range r.MultipartForm.File[mf.field] {
			file, err := header.Open()
			if err != nil {
				closeAll()
				return nil, func() {}, fmt.Errorf("open %s: %w", header.Filename, err)
			}
			files = append(files, file)

			mime, err := sniffMIME(file)
			if err != nil {
				closeAll()
				return nil, func() {}, err
			}
			if !allowedMIME(mf.typ, mime) {
				closeAll()
				return nil, func() {}, fmt.Errorf("invalid %s file type: %s", mf.typ, mime)
			}

			uploads = append(uploads, products.Upload{Type: mf.typ, Name: header.Filename, Body: file})
		}
	}
	return uploads, closeAll, nil
}

// uploadMediaHandler godoc
//
//	@Summary		Upload product media
//	@Tags			admin-products
//	@Accept			mpfd
//	@Produce		json
//	@Param			productID	path		int		true	"Product ID"
//	@Param			thumbs		formData	file	false	"Thumbnail images"
//	@Param			images		formData	file	false	"Gallery images"
//	@Param			details		formData	file	false	"Detail images"
//	@Param			videos		formData	file	false	"Videos"
//	@Success		201			{array}		products.Media
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/products/{productID}/media [post]
func (app *application) uploadMediaHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := readIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}

	uploads, closeAll, err := readUploads(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer closeAll()

	if len(uploads) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("at least one file is required"))
		return
	}

	media, err := app.services.products.AddMedia(r.Context(), productID, uploads)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, media)
}

type ReorderMediaPayload struct {
	MediaType string  `json:"media_type" validate:"required,oneof=thumb image detail video"`
	MediaIDs  []int64 `json:"media_ids" validate:"required,min=1,dive,gt=0"`
}

// reorderMediaHandler godoc
//
//	@Summary		Reorder product media
//	@Description	media_ids must list every active media of the type exactly once, in the new order.
//	@Tags			admin-products
//	@Accept			json
//	@Param			productID	path		int					true	"Product ID"
//	@Param			payload		body		ReorderMediaPayload	true	"New order"
//	@Success		204			{string}	string				"No Content"
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/products/{productID}/media/order [put]
func (app *application) reorderMediaHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := readIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ReorderMediaPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.services.products.ReorderMedia(r.Context(), productID, products.MediaType(payload.MediaType), payload.MediaIDs)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// deleteMediaHandler godoc
//
//	@Summary	Delete product media
//	@Tags		admin-products
//	@Param		productID	path		int		true	"Product ID"
//	@Param		mediaID		path		int		true	"Media ID"
//	@Success	204			{string}	string	"No Content"
//	@Failure	404			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/products/{productID}/media/{mediaID} [delete]
func (app *application) deleteMediaHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := readIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	mediaID, err := readIDParam(r, "mediaID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.services.products.DeleteMedia(r.Context(), productID, mediaID); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// promoteThumbHandler godoc
//
//	@Summary		Promote media to thumbnail
//	@Description	Turns an existing image into the last thumbnail. Fails when the product already has 8.
//	@Tags			admin-products
//	@Param			productID	path		int		true	"Product ID"
//	@Param			mediaID		path		int		true	"Media ID"
//	@Success		204			{string}	string	"No Content"
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/products/{productID}/media/{mediaID}/thumb [put]
func (app *application) promoteThumbHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := readIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	mediaID, err := readIDParam(r, "mediaID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.services.products.PromoteToThumb(r.Context(), productID, mediaID); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
