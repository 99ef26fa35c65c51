package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pujamotor/platform/internal/domain/auctions"
	"github.com/pujamotor/platform/internal/domain/bids"
	"github.com/pujamotor/platform/internal/domain/ledger"
	"github.com/pujamotor/platform/pkg/database"
)

// TestMapDomainError tests the domain error to HTTP status mapping
func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "insufficient credits",
			err:        ledger.ErrInsufficientCredits,
			wantStatus: http.StatusPaymentRequired,
			wantCode:   "insufficient_credits",
		},
		{
			name:       "unverified bidder",
			err:        bids.ErrBidderNotVerified,
			wantStatus: http.StatusForbidden,
			wantCode:   "not_verified",
		},
		{
			name:       "bid too low",
			err:        bids.ErrBidTooLow,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "bid_too_low",
		},
		{
			name:       "auction not active",
			err:        bids.ErrAuctionNotActive,
			wantStatus: http.StatusConflict,
			wantCode:   "auction_not_active",
		},
		{
			name:       "wrapped invalid transition",
			err:        fmt.Errorf("%w: active -> draft", auctions.ErrInvalidTransition),
			wantStatus: http.StatusConflict,
			wantCode:   "invalid_transition",
		},
		{
			name:       "auction not found",
			err:        auctions.ErrAuctionNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "transient conflict after retries",
			err:        database.ErrTransientConflict,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "try_again",
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := mapDomainError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
