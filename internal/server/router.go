package server

import (
	"fmt"

	bidding "fruitbid/internal/biddingService"
	"fruitbid/internal/session"
	"fruitbid/internal/web"
	handler "fruitbid/services/bidding/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(biddingService *bidding.BiddingService, sessions *session.Manager) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("server: parse templates: %w", err)
	}

	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(session.Middleware(sessions))
	router.SetHTMLTemplate(tmpl)

	biddingHandler := handler.NewBiddingHandler(biddingService)
	pageHandler := handler.NewPageHandler(biddingService, sessions, biddingService.TopBidsLimit())

	router.GET("/health", biddingHandler.HealthHandler)

	// HTML pages
	router.GET("/", pageHandler.HomePage)
	router.GET("/go", pageHandler.NavigateHandler)
	router.POST("/session", pageHandler.StartSessionHandler)
	router.POST("/session/end", pageHandler.EndSessionHandler)
	router.GET("/marketplace", pageHandler.MarketplacePage)
	router.POST("/marketplace/lots/:lot_id/bids", pageHandler.PlaceBidFormHandler)
	router.GET("/my-bids", pageHandler.MyBidsPage)

	admin := router.Group("/admin")
	{
		admin.GET("/lots/new", pageHandler.AdminAddLotPage)
		admin.POST("/lots", pageHandler.AddLotFormHandler)
	}

	api := router.Group("/api")
	{
		lots := api.Group("/lots")
		{
			lots.GET("", biddingHandler.ListLotsHandler)
			lots.POST("", biddingHandler.AddLotHandler)
			lots.GET("/:lot_id", biddingHandler.GetLotHandler)
			lots.GET("/:lot_id/bids", biddingHandler.GetBidsByLotHandler)
			lots.GET("/:lot_id/top-bids", biddingHandler.GetTopBidsHandler)
		}

		api.POST("/bids", biddingHandler.PlaceBidHandler)
		api.GET("/users/:user_name/bids", biddingHandler.GetBidsByUserHandler)
	}

	return router, nil
}
