package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oja-market/oja-backend/api/controllers"
	"github.com/oja-market/oja-backend/api/middleware"
	"github.com/oja-market/oja-backend/internal/notifications"
	"github.com/oja-market/oja-backend/internal/offers"
	"github.com/oja-market/oja-backend/pkg/config"
	"github.com/oja-market/oja-backend/pkg/db"
	"github.com/oja-market/oja-backend/pkg/logger"
	"github.com/oja-market/oja-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	offersService offers.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	offerWritePolicy := middleware.NewRateLimitPolicy(
		"offer-write",
		cfg.RateLimit.OfferWriteWindow,
		cfg.RateLimit.OfferWriteLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/offers", func(r chi.Router) {
			r.With(middleware.RateLimit(offerWritePolicy, redisClient, logg)).
				Post("/", controllers.CreateOffer(offersService, logg))
			r.Get("/", controllers.ListOffers(offersService, logg))

			r.Route("/{offerId}", func(r chi.Router) {
				r.Get("/", controllers.GetOffer(offersService, logg))
				r.Get("/chain", controllers.GetOfferChain(offersService, logg))
				r.Get("/suggestions", controllers.GetOfferSuggestions(offersService, logg))

				write := r.With(middleware.RateLimit(offerWritePolicy, redisClient, logg))
				write.Post("/accept", controllers.AcceptOffer(offersService, logg))
				write.Post("/reject", controllers.RejectOffer(offersService, logg))
				write.Post("/counter", controllers.CounterOffer(offersService, logg))
				write.Post("/withdraw", controllers.WithdrawOffer(offersService, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
