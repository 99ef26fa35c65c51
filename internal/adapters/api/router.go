package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all routes for the marketplace core
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	accounts := router.Group("/accounts")
	{
		accounts.POST("", handler.CreateAccount)
		accounts.GET("/:account_id/balance", handler.GetBalance)
		accounts.GET("/:account_id/movements", handler.ListMovements)
		accounts.POST("/:account_id/movements", handler.ApplyMovement)
	}

	pub := router.Group("/publication")
	{
		pub.GET("/services", handler.ListServices)
		pub.POST("/quote", handler.QuoteCost)
	}

	auctions := router.Group("/auctions")
	{
		auctions.POST("", handler.CreateDraft)
		auctions.GET("", handler.ListAuctions)
		auctions.GET("/:auction_id", handler.GetAuction)
		auctions.DELETE("/:auction_id", handler.DeleteAuction)
		auctions.POST("/:auction_id/submit", handler.SubmitAuction)
		auctions.POST("/:auction_id/approve", handler.ApproveAuction)
		auctions.POST("/:auction_id/pause", handler.PauseAuction)
		auctions.POST("/:auction_id/resume", handler.ResumeAuction)
		auctions.POST("/:auction_id/finalize", handler.FinalizeAuction)
		auctions.POST("/:auction_id/bids", handler.PlaceBid)
		auctions.GET("/:auction_id/bids", handler.ListBids)
	}

	return router
}
