package main

import (
	"context"
	"net/http"
	"time"
)

// healthCheckHandler godoc
//
//	@Summary		Healthcheck
//	@Description	Reports the API version and whether the database answers.
//	@Tags			ops
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		503	{object}	map[string]string
//	@Router			/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	data := map[string]string{
		"status":  "ok",
		"env":     app.config.Env,
		"version": version,
	}

	status := http.StatusOK
	if err := app.store.Ping(ctx); err != nil {
		app.logger.Errorw("database ping failed", "error", err)
		data["status"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if err := app.jsonResponse(w, status, data); err != nil {
		app.internalServerError(w, r, err)
	}
}
