package main

import (
	"context"
	"net/http"

	"storefront/internal/domain/qna"
	"storefront/internal/params"
)

func viewerFromRequest(r *http.Request) qna.Viewer {
	user := getUserFromContext(r)
	if user == nil {
		return qna.Viewer{}
	}
	return qna.Viewer{UserID: user.ID, IsAdmin: user.IsAdmin()}
}

// listProductQnAHandler godoc
//
//	@Summary		Product questions
//	@Description	Newest first, 10 per page. Secret questions are masked for everyone but their author and admins.
//	@Tags			qna
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Param			page		query		int	false	"Page number"
//	@Success		200			{object}	qna.Page
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Router			/products/{productID}/qna [get]
func (app *application) listProductQnAHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := readIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	page, err := app.services.qna.ListForProduct(r.Context(), productID, params.ParsePage(r.URL.Query()), viewerFromRequest(r))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, page)
}

type QuestionPayload struct {
	Question string `json:"question" validate:"required,max=2000"`
	IsSecret bool   `json:"is_secret"`
}

// createQnAHandler godoc
//
//	@Summary	Ask a question
//	@Tags		qna
//	@Accept		json
//	@Produce	json
//	@Param		productID	path		int				true	"Product ID"
//	@Param		payload		body		QuestionPayload	true	"Question"
//	@Success	201			{object}	qna.QnA
//	@Failure	400			{object}	ErrorBadRequestResponse
//	@Failure	404			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/products/{productID}/qna [post]
func (app *application) createQnAHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := readIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload QuestionPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)
	q, err := app.services.qna.Ask(r.Context(), qna.Author{ID: user.ID, UserName: user.UserName}, productID, payload.Question, payload.IsSecret)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, q)
}

// updateQnAHandler godoc
//
//	@Summary		Edit a question
//	@Description	Only the author can edit, and only while the question is unanswered.
//	@Tags			qna
//	@Accept			json
//	@Produce		json
//	@Param			qnaID	path		int				true	"Question ID"
//	@Param			payload	body		QuestionPayload	true	"Question"
//	@Success		200		{object}	qna.QnA
//	@Failure		403		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/qna/{qnaID} [put]
func (app *application) updateQnAHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "qnaID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload QuestionPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	q, err := app.services.qna.EditQuestion(r.Context(), viewerFromRequest(r), id, payload.Question, payload.IsSecret)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, q)
}

// deleteQnAHandler godoc
//
//	@Summary		Delete a question
//	@Description	The author or an admin can delete a question.
//	@Tags			qna
//	@Param			qnaID	path		int		true	"Question ID"
//	@Success		204		{string}	string	"No Content"
//	@Failure		403		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/qna/{qnaID} [delete]
func (app *application) deleteQnAHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "qnaID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.services.qna.Delete(r.Context(), viewerFromRequest(r), id); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// adminListQnAHandler godoc
//
//	@Summary	Moderation list
//	@Tags		admin-qna
//	@Produce	json
//	@Param		page		query		int		false	"Page number"
//	@Param		unanswered	query		bool	false	"Only unanswered questions"
//	@Param		product_id	query		int		false	"Product ID"
//	@Success	200			{object}	qna.Page
//	@Failure	400			{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/qna [get]
func (app *application) adminListQnAHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	productID, err := readOptionalInt64(r, "product_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	page, err := app.services.qna.AdminList(r.Context(), qna.AdminFilter{
		UnansweredOnly: q.Get("unanswered") == "true",
		ProductID:      productID,
	}, params.ParsePage(q))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, page)
}

// unansweredCountHandler godoc
//
//	@Summary	Unanswered question count
//	@Tags		admin-qna
//	@Produce	json
//	@Success	200	{object}	map[string]int
//	@Security	ApiKeyAuth
//	@Router		/admin/qna/unanswered-count [get]
func (app *application) unansweredCountHandler(w http.ResponseWriter, r *http.Request) {
	n, err := app.services.qna.UnansweredCount(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]int{"count": n})
}

type AnswerPayload struct {
	Answer string `json:"answer" validate:"required,max=4000"`
}

// answerQnAHandler godoc
//
//	@Summary	Answer a question
//	@Tags		admin-qna
//	@Accept		json
//	@Produce	json
//	@Param		qnaID	path		int				true	"Question ID"
//	@Param		payload	body		AnswerPayload	true	"Answer"
//	@Success	200		{object}	qna.QnA
//	@Failure	404		{object}	ErrorBadRequestResponse
//	@Failure	409		{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/qna/{qnaID}/answer [post]
func (app *application) answerQnAHandler(w http.ResponseWriter, r *http.Request) {
	app.writeAnswer(w, r, app.services.qna.Answer)
}

// editAnswerHandler godoc
//
//	@Summary		Edit an answer
//	@Description	Keeps the original answered_at.
//	@Tags			admin-qna
//	@Accept			json
//	@Produce		json
//	@Param			qnaID	path		int				true	"Question ID"
//	@Param			payload	body		AnswerPayload	true	"Answer"
//	@Success		200		{object}	qna.QnA
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	ErrorBadRequestResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/qna/{qnaID}/answer [put]
func (app *application) editAnswerHandler(w http.ResponseWriter, r *http.Request) {
	app.writeAnswer(w, r, app.services.qna.EditAnswer)
}

func (app *application) writeAnswer(w http.ResponseWriter, r *http.Request, write func(ctx context.Context, id int64, answer string) (*qna.QnA, error)) {
	id, err := readIDParam(r, "qnaID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload AnswerPayload
	if err := readAndValidate(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	q, err := write(r.Context(), id, payload.Answer)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, q)
}

// deleteAnswerHandler godoc
//
//	@Summary	Delete an answer
//	@Tags		admin-qna
//	@Param		qnaID	path		int		true	"Question ID"
//	@Success	204		{string}	string	"No Content"
//	@Failure	400		{object}	ErrorBadRequestResponse
//	@Failure	404		{object}	ErrorBadRequestResponse
//	@Security	ApiKeyAuth
//	@Router		/admin/qna/{qnaID}/answer [delete]
func (app *application) deleteAnswerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "qnaID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.services.qna.DeleteAnswer(r.Context(), id); err != nil {
		app.errorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
