package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/swiftcart/checkout-api/internal/adapter/http/middleware"
	"github.com/swiftcart/checkout-api/internal/logging"
)

func NewRouter(ch *CheckoutHandler, dh *DeliveryHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	v1 := r.Group("/v1")
	{
		v1.POST("/checkouts", authz.Require("checkout.write"), ch.CreateCheckout)
		v1.GET("/checkouts/:id", authz.Require("checkout.read"), ch.GetCheckout)
		v1.POST("/checkouts/:id/verify", authz.Require("checkout.write"), ch.StartCheck)
		v1.POST("/checkouts/:id/retry", authz.Require("checkout.write"), ch.Retry)
		v1.POST("/checkouts/:id/pay", authz.Require("checkout.write"), ch.Pay)
		v1.POST("/checkouts/:id/override", authz.Require("checkout.write"), ch.Override)
		v1.GET("/checkouts/:id/receipt", authz.Require("checkout.read"), ch.GetReceipt)
		v1.DELETE("/checkouts/:id", authz.Require("checkout.write"), ch.CancelCheckout)

		v1.POST("/deliveries", authz.Require("delivery.write"), dh.CreateDelivery)
		v1.GET("/deliveries/:id", authz.Require("delivery.read"), dh.GetDelivery)
		v1.DELETE("/deliveries/:id", authz.Require("delivery.write"), dh.CancelDelivery)
	}

	return r
}
