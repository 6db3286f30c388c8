package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/docs" //this is required to generate swagger docs
	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/domain/addresses"
	"storefront/internal/domain/categories"
	"storefront/internal/domain/passwordreset"
	"storefront/internal/domain/products"
	"storefront/internal/domain/qna"
	"storefront/internal/domain/storage"
	"storefront/internal/domain/users"
	"storefront/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        *config.Config
	store         *storage.Container
	logger        *zap.SugaredLogger
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	services      services
}

type services struct {
	users      *users.Service
	addresses  *addresses.Service
	categories *categories.Service
	menu       *categories.MenuService
	products   *products.Service
	resets     *passwordreset.Service
	qna        *qna.Service
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Handle("/metrics", promhttp.Handler())

		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.Addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.With(app.RateLimitMiddleware("login")).Post("/token", app.createTokenHandler)
			r.Post("/refresh", app.refreshTokenHandler)
			r.With(app.RateLimitMiddleware("find_id")).Post("/find-id", app.findIDHandler)

			r.Route("/reset-password", func(r chi.Router) {
				r.With(app.RateLimitMiddleware("reset_request")).Post("/", app.requestResetPasswordHandler)
				r.Post("/check", app.checkResetTokenHandler)
				r.Put("/", app.resetPasswordHandler)
			})
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.getCurrentUserHandler)
			r.Put("/", app.updateProfileHandler)
			r.Put("/password", app.changePasswordHandler)
			r.Delete("/", app.deleteAccountHandler)
			r.Post("/logout", app.logoutHandler)

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", app.listAddressesHandler)
				r.Post("/", app.createAddressHandler)
				r.Route("/{addressID}", func(r chi.Router) {
					r.Get("/", app.getAddressHandler)
					r.Put("/", app.updateAddressHandler)
					r.Delete("/", app.deleteAddressHandler)
					r.Put("/default", app.setDefaultAddressHandler)
				})
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", app.categoryTreeHandler)
			r.Get("/menu", app.categoryMenuHandler)
			r.Get("/children", app.categoryChildrenHandler)
			r.Get("/{categoryID}/location", app.categoryLocationHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware, app.RequireAdmin)
				r.Post("/", app.createCategoryHandler)
				r.Put("/{categoryID}", app.updateCategoryHandler)
				r.Delete("/{categoryID}", app.deleteCategoryHandler)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.With(app.OptionalAuthMiddleware).Get("/", app.listProductsHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware, app.RequireAdmin)
				r.Post("/", app.createProductHandler)
			})

			r.Route("/{productID}", func(r chi.Router) {
				r.With(app.OptionalAuthMiddleware).Get("/", app.getProductHandler)

				r.Route("/qna", func(r chi.Router) {
					r.With(app.OptionalAuthMiddleware).Get("/", app.listProductQnAHandler)
					r.With(app.AuthTokenMiddleware).Post("/", app.createQnAHandler)
				})

				r.Group(func(r chi.Router) {
					r.Use(app.AuthTokenMiddleware, app.RequireAdmin)
					r.Put("/", app.updateProductHandler)
					r.Delete("/", app.deleteProductHandler)

					r.Route("/media", func(r chi.Router) {
						r.Post("/", app.uploadMediaHandler)
						r.Put("/order", app.reorderMediaHandler)
						r.Delete("/{mediaID}", app.deleteMediaHandler)
						r.Put("/{mediaID}/thumb", app.promoteThumbHandler)
					})
				})
			})
		})

		r.Route("/qna/{qnaID}", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Put("/", app.updateQnAHandler)
			r.Delete("/", app.deleteQnAHandler)
		})

		r.Route("/admin/qna", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware, app.RequireAdmin)
			r.Get("/", app.adminListQnAHandler)
			r.Get("/unanswered-count", app.unansweredCountHandler)
			r.Route("/{qnaID}/answer", func(r chi.Router) {
				r.Post("/", app.answerQnAHandler)
				r.Put("/", app.editAnswerHandler)
				r.Delete("/", app.deleteAnswerHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.APIURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.Addr, "env", app.config.Env)

	return nil
}
