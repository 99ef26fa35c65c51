package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pujamotor/platform/internal/domain/auctions"
	"github.com/pujamotor/platform/internal/domain/bids"
	"github.com/pujamotor/platform/internal/domain/ledger"
	"github.com/pujamotor/platform/internal/domain/publication"
	"github.com/pujamotor/platform/pkg/database"
)

// Handler exposes the marketplace core over HTTP. Authentication happens at
// the gateway; caller IDs arrive pre-validated in the request.
type Handler struct {
	ledger      *ledger.Service
	publication *publication.Service
	auctions    *auctions.Service
	bids        *bids.Service
	finalizer   *auctions.Finalizer
}

// NewHandler creates a new API handler
func NewHandler(
	ledgerService *ledger.Service,
	publicationService *publication.Service,
	auctionService *auctions.Service,
	bidService *bids.Service,
	finalizer *auctions.Finalizer,
) *Handler {
	return &Handler{
		ledger:      ledgerService,
		publication: publicationService,
		auctions:    auctionService,
		bids:        bidService,
		finalizer:   finalizer,
	}
}

// mapDomainError translates a domain failure into an HTTP status and a
// stable error code the UI can branch on: insufficient credits offers a
// top-up, a missing verification offers the verification flow, and plain
// validation errors show amount guidance.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "insufficient_credits"
	case errors.Is(err, bids.ErrBidderNotVerified):
		return http.StatusForbidden, "not_verified"
	case errors.Is(err, bids.ErrBidTooLow):
		return http.StatusUnprocessableEntity, "bid_too_low"
	case errors.Is(err, bids.ErrBidExceedsMax):
		return http.StatusUnprocessableEntity, "bid_exceeds_max"
	case errors.Is(err, bids.ErrAuctionNotActive):
		return http.StatusConflict, "auction_not_active"
	case errors.Is(err, auctions.ErrAuctionNotEnded):
		return http.StatusConflict, "auction_not_ended"
	case errors.Is(err, auctions.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, auctions.ErrNotDeletable):
		return http.StatusConflict, "not_deletable"
	case errors.Is(err, auctions.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, auctions.ErrAuctionNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrUnknownKind),
		errors.Is(err, publication.ErrInvalidStartPrice),
		errors.Is(err, publication.ErrInvalidReserve),
		errors.Is(err, publication.ErrInvalidIncrement),
		errors.Is(err, publication.ErrInvalidDuration):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, database.ErrTransientConflict):
		return http.StatusServiceUnavailable, "try_again"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := mapDomainError(err)
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": err.Error()}})
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": "invalid " + param}})
		return uuid.Nil, false
	}
	return id, true
}

// GetBalance handles GET /accounts/:account_id/balance
func (h *Handler) GetBalance(c *gin.Context) {
	accountID, ok := parseID(c, "account_id")
	if !ok {
		return
	}

	balance, err := h.ledger.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account_id": accountID, "balance": balance})
}

type applyMovementRequest struct {
	Kind        string `json:"kind" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// ApplyMovement handles POST /accounts/:account_id/movements
func (h *Handler) ApplyMovement(c *gin.Context) {
	accountID, ok := parseID(c, "account_id")
	if !ok {
		return
	}

	var req applyMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": err.Error()}})
		return
	}

	balance, err := h.ledger.ApplyMovement(c.Request.Context(), ledger.ApplyMovementCommand{
		AccountID:   accountID,
		Kind:        ledger.MovementKind(req.Kind),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account_id": accountID, "balance": balance})
}

// ListMovements handles GET /accounts/:account_id/movements
func (h *Handler) ListMovements(c *gin.Context) {
	accountID, ok := parseID(c, "account_id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	movements, err := h.ledger.ListMovements(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if movements == nil {
		movements = []*ledger.Movement{}
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements})
}

type createAccountRequest struct {
	AccountID uuid.UUID `json:"account_id" binding:"required"`
}

// CreateAccount handles POST /accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": err.Error()}})
		return
	}

	account, err := h.ledger.CreateAccount(c.Request.Context(), req.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// ListServices handles GET /publication/services
func (h *Handler) ListServices(c *gin.Context) {
	entries, err := h.publication.ListServices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": entries})
}

type quoteRequest struct {
	Services []string `json:"services"`
}

// QuoteCost handles POST /publication/quote
func (h *Handler) QuoteCost(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": err.Error()}})
		return
	}

	cost, err := h.publication.QuoteCost(c.Request.Context(), req.Services)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cost": cost})
}

type createDraftRequest struct {
	SellerID     uuid.UUID `json:"seller_id" binding:"required"`
	VehicleID    uuid.UUID `json:"vehicle_id" binding:"required"`
	StartPrice   int64     `json:"start_price" binding:"required"`
	ReservePrice int64     `json:"reserve_price"`
	MinIncrement int64     `json:"min_increment" binding:"required"`
	DurationDays int       `json:"duration_days" binding:"required"`
}

// CreateDraft handles POST /auctions
func (h *Handler) CreateDraft(c *gin.Context) {
	var req createDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": err.Error()}})
		return
	}

	auction, err := h.publication.CreateDraft(c.Request.Context(), publication.CreateDraftCommand{
		SellerID:     req.SellerID,
		VehicleID:    req.VehicleID,
		StartPrice:   req.StartPrice,
		ReservePrice: req.ReservePrice,
		MinIncrement: req.MinIncrement,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, auction)
}

type submitRequest struct {
	SellerID uuid.UUID `json:"seller_id" binding:"required"`
	Services []string  `json:"services"`
}

// SubmitAuction handles POST /auctions/:auction_id/submit
func (h *Handler) SubmitAuction(c *gin.Context) {
	auctionID, ok := parseID(c, "auction_id")
	if !ok {
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": err.Error()}})
		return
	}

	auction, err := h.publication.Submit(c.Request.Context(), publication.SubmitCommand{
		AuctionID: auctionID,
		SellerID:  req.SellerID,
		Services:  req.Services,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, auction)
}

// ApproveAuction handles POST /auctions/:auction_id/approve
func (h *Handler) ApproveAuction(c *gin.Context) {
	auctionID, ok := parseID(c, "auction_id")
	if !ok {
		return
	}

	auction, err := h.auctions.Approve(c.Request.Context(), auctionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, auction)
}

// PauseAuction handles POST /auctions/:auction_id/pause
func (h *Handler) PauseAuction(c *gin.Context) {
	auctionID, ok := parseID(c, "auction_id")
	if !ok {
		return
	}

	if err := h.auctions.Pause(c.Request.Context(), auctionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": auctions.StatusPaused})
}

// ResumeAuction handles POST /auctions/:auction_id/resume
func (h *Handler) ResumeAuction(c *gin.Context) {
	auctionID, ok := parseID(c, "auction_id")
	if !ok {
		return
	}

	if err := h.auctions.Resume(c.Request.Context(), auctionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": auctions.StatusActive})
}

// DeleteAuction handles DELETE /auctions/:auction_id
func (h *Handler) DeleteAuction(c *gin.Context) {
	auctionID, ok := parseID(c, "auction_id")
	if !ok {
		return
	}

	if err := h.auctions.Delete(c.Request.Context(), auctionID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAuction handles GET /auctions/:auction_id
func (h *Handler) GetAuction(c *gin.Context) {
	auctionID, ok := parseID(c, "auction_id")
	if !ok {
		return
	}

	auction, err := h.auctions.Get(c.Request.Context(), auctionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, auction)
}

// ListAuctions handles GET /auctions
func (h *Handler) ListAuctions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.auctions.ListActive(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []*auctions.Auction{}
	}

	c.JSON(http.StatusOK, gin.H{"auctions": list})
}

type placeBidRequest struct {
	BidderID uuid.UUID `json:"bidder_id" binding:"required"`
	Amount   int64     `json:"amount" binding:"required"`
}

// PlaceBid handles POST /auctions/:auction_id/bids
func (h *Handler) PlaceBid(c *gin.Context) {
	auctionID, ok := parseID(c, "auction_id")
	if !ok {
		return
	}

	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "invalid_request", "message": err.Error()}})
		return
	}

	bid, err := h.bids.PlaceBid(c.Request.Context(), bids.PlaceBidCommand{
		AuctionID: auctionID,
		BidderID:  req.BidderID,
		Amount:    req.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"bid_id":     bid.ID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount,
		"created_at": bid.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// ListBids handles GET /auctions/:auction_id/bids
func (h *Handler) ListBids(c *gin.Context) {
	auctionID, ok := parseID(c, "auction_id")
	if !ok {
		return
	}

	list, err := h.bids.ListBids(c.Request.Context(), auctionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []*bids.Bid{}
	}

	c.JSON(http.StatusOK, gin.H{"bids": list})
}

// FinalizeAuction handles POST /auctions/:auction_id/finalize
func (h *Handler) FinalizeAuction(c *gin.Context) {
	auctionID, ok := parseID(c, "auction_id")
	if !ok {
		return
	}

	settlement, err := h.finalizer.Finalize(c.Request.Context(), auctionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"winner_id":   settlement.WinnerID,
		"winning_bid": settlement.WinningBid,
	})
}
