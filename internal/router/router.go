package router

import (
	"github.com/LordErl/itsells-core/internal/analytics"
	"github.com/LordErl/itsells-core/internal/batch"
	"github.com/LordErl/itsells-core/internal/ledger"
	"github.com/LordErl/itsells-core/internal/logger"
	"github.com/LordErl/itsells-core/internal/middleware"
	"github.com/LordErl/itsells-core/internal/order"
	"github.com/LordErl/itsells-core/internal/user"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(
	userH *user.Handler,
	orderH *order.Handler,
	batchH *batch.Handler,
	ledgerH *ledger.Handler,
	analyticsH *analytics.Handler,
	jwtSecret []byte,
	userRepo user.UserRepository,
) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.WithLogging)
	r.Use(chiMiddleware.Recoverer)

	r.Use(middleware.GzipHandler)

	r.Mount("/api/user", userH.Routes())

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(jwtSecret, userRepo))

		r.Post("/api/orders", orderH.PlaceOrder)
		r.Get("/api/orders", orderH.ListMyOrders)
		r.Get("/api/orders/{orderID}", orderH.GetOrder)
		r.Post("/api/items/{itemID}/confirm", orderH.ConfirmDelivery)
		r.Get("/api/items/delivering", orderH.ListDeliveringItems)

		r.Get("/api/account", ledgerH.GetAccount)
		r.Get("/api/account/payments", ledgerH.ListPayments)

		// kitchen, floor and back office
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)

			r.Get("/api/orders/active", orderH.ListActiveOrders)
			r.Post("/api/orders/{orderID}/status", orderH.UpdateOrderStatus)
			r.Post("/api/items/{itemID}/transition", orderH.TransitionItem)
			r.Get("/api/tables", orderH.ListTables)

			r.Post("/api/batches", batchH.CreateBatch)
			r.Get("/api/batches", batchH.ListBatches)
			r.Get("/api/batches/expiring", batchH.ListExpiringBatches)
			r.Get("/api/batches/statistics", batchH.BatchStatistics)
			r.Post("/api/batches/pick", batchH.PickBatch)
			r.Post("/api/batches/{batchID}/consume", batchH.ConsumeBatch)
			r.Post("/api/batches/{batchID}/dispose", batchH.DisposeBatch)
			r.Get("/api/products/{productID}/batches", batchH.ListBatchesByProduct)

			r.Post("/api/payments/events", ledgerH.PaymentEvent)
			r.Get("/api/reports/daily", analyticsH.DailyReport)
		})
	})

	return r
}
