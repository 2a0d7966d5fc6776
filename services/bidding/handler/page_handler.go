package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fruitbid/internal/biddingerrors"
	bidding "fruitbid/internal/biddingService"
	"fruitbid/internal/session"
	"fruitbid/internal/web"
	"fruitbid/services/bidding/helpers"
	"fruitbid/utils"

	"github.com/gin-gonic/gin"
)

// User facing messages
const (
	MsgGenericError   = "Something went wrong, please try again."
	MsgEnterName      = "Please enter your name."
	MsgNeedSession    = "Please enter your name on the Home page first."
	MsgFillAllFields  = "Please fill in all fields."
	MsgInvalidAmount  = "Please enter a valid bid amount."
	MsgLotUnavailable = "That lot is no longer available."
)

// PageHandler serves the HTML pages of the marketplace
type PageHandler struct {
	service  BiddingServiceInterface
	sessions *session.Manager
	topBids  int
}

func NewPageHandler(service BiddingServiceInterface, sessions *session.Manager, topBids int) *PageHandler {
	return &PageHandler{service: service, sessions: sessions, topBids: topBids}
}

// render fills the shared parts of the view model and executes the page template
func (h *PageHandler) render(c *gin.Context, status int, page Page, data web.PageData) {
	data.Title = page.Label()
	data.Nav = navFor(page)
	if s, ok := session.FromContext(c); ok {
		data.UserName = s.UserName
	}
	if data.Form == nil {
		data.Form = map[string]string{}
	}
	c.HTML(status, page.template(), data)
}

// renderStorageError logs the failure and shows the generic message on the page
func (h *PageHandler) renderStorageError(c *gin.Context, page Page, handlerName string, err error) {
	utils.Error(handlerName+": storage failure", map[string]any{
		"handler": handlerName,
		"error":   err.Error(),
	})
	h.render(c, http.StatusInternalServerError, page, web.PageData{Warning: MsgGenericError})
}

// HomePage handles GET /
func (h *PageHandler) HomePage(c *gin.Context) {
	h.render(c, http.StatusOK, PageHome, web.PageData{})
}

// NavigateHandler handles GET /go?page=..., redirecting to the selected page
func (h *PageHandler) NavigateHandler(c *gin.Context) {
	page, err := ParsePage(c.Query("page"))
	if err != nil {
		utils.Warn("NavigateHandler: unknown page", map[string]any{"page": c.Query("page")})
	}
	c.Redirect(http.StatusSeeOther, page.Path())
}

// StartSessionHandler handles POST /session from the Home form
func (h *PageHandler) StartSessionHandler(c *gin.Context) {
	name := c.PostForm("name")
	phone := c.PostForm("phone")
	form := map[string]string{"name": name, "phone": phone}

	user, err := h.service.RegisterUser(c.Request.Context(), name, phone)
	switch {
	case errors.Is(err, biddingerrors.ErrMissingName):
		h.render(c, http.StatusBadRequest, PageHome, web.PageData{Warning: MsgEnterName, Form: form})
		return
	case err != nil:
		h.renderStorageError(c, PageHome, "StartSessionHandler", err)
		return
	}

	s := h.sessions.Start(user)
	session.SetCookie(c, s, h.sessions)
	helpers.LogSuccess("StartSessionHandler", "session started", map[string]any{
		"user_id":   user.ID,
		"user_name": user.Name,
	})
	h.render(c, http.StatusOK, PageHome, web.PageData{
		Notice: fmt.Sprintf("Welcome, %s! Head to the Marketplace to start bidding.", user.Name),
	})
}

// EndSessionHandler handles POST /session/end
func (h *PageHandler) EndSessionHandler(c *gin.Context) {
	if s, ok := session.FromContext(c); ok {
		h.sessions.End(s.ID)
	}
	session.ClearCookie(c)
	c.Redirect(http.StatusSeeOther, PageHome.Path())
}

// MarketplacePage handles GET /marketplace
func (h *PageHandler) MarketplacePage(c *gin.Context) {
	h.renderMarketplace(c, http.StatusOK, "", "")
}

func (h *PageHandler) renderMarketplace(c *gin.Context, status int, warning, notice string) {
	lots, err := h.service.Marketplace(c.Request.Context(), h.topBids)
	if err != nil {
		h.renderStorageError(c, PageMarketplace, "MarketplacePage", err)
		return
	}
	h.render(c, status, PageMarketplace, web.PageData{Lots: lots, Warning: warning, Notice: notice})
}

// PlaceBidFormHandler handles POST /marketplace/lots/:lot_id/bids
func (h *PageHandler) PlaceBidFormHandler(c *gin.Context) {
	lotID, err := helpers.ParseLotID(c, "lot_id")
	if err != nil {
		h.renderMarketplace(c, http.StatusNotFound, MsgLotUnavailable, "")
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("amount")), 64)
	if err != nil {
		h.renderMarketplace(c, http.StatusBadRequest, MsgInvalidAmount, "")
		return
	}

	userName := bidding.GuestName
	if s, ok := session.FromContext(c); ok {
		userName = s.UserName
	}

	ctx := c.Request.Context()
	bid, err := h.service.PlaceBid(ctx, userName, lotID, amount)
	if err != nil {
		if !isValidation(err) {
			h.renderStorageError(c, PageMarketplace, "PlaceBidFormHandler", err)
			return
		}
		status, _ := helpers.MapErrorToHTTP(err)
		utils.Warn("PlaceBidFormHandler: bid rejected", map[string]any{
			"lot_id":    lotID,
			"user_name": userName,
			"error":     err.Error(),
		})
		h.renderMarketplace(c, status, bidWarning(err), "")
		return
	}

	itemName := fmt.Sprintf("lot %d", lotID)
	if lot, err := h.service.GetLot(ctx, lotID); err == nil {
		itemName = lot.ItemName
	}
	helpers.LogSuccess("PlaceBidFormHandler", "bid recorded successfully", map[string]any{
		"bid_id":    bid.ID,
		"lot_id":    lotID,
		"user_name": userName,
		"amount":    amount,
	})
	h.renderMarketplace(c, http.StatusOK, "", fmt.Sprintf("%s bid placed on %s!", web.FormatRupees(bid.Amount), itemName))
}

// MyBidsPage handles GET /my-bids
func (h *PageHandler) MyBidsPage(c *gin.Context) {
	s, ok := session.FromContext(c)
	if !ok {
		h.render(c, http.StatusOK, PageMyBids, web.PageData{Warning: MsgNeedSession})
		return
	}

	bids, err := h.service.BidsByUser(c.Request.Context(), s.UserName)
	if err != nil {
		h.renderStorageError(c, PageMyBids, "MyBidsPage", err)
		return
	}
	h.render(c, http.StatusOK, PageMyBids, web.PageData{Bids: bids})
}

// AdminAddLotPage handles GET /admin/lots/new
func (h *PageHandler) AdminAddLotPage(c *gin.Context) {
	h.render(c, http.StatusOK, PageAdminAddLot, web.PageData{})
}

// AddLotFormHandler handles POST /admin/lots
func (h *PageHandler) AddLotFormHandler(c *gin.Context) {
	form := map[string]string{
		"item_name":  c.PostForm("item_name"),
		"quantity":   c.PostForm("quantity"),
		"base_price": c.PostForm("base_price"),
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(form["base_price"]), 64)
	if err != nil {
		h.render(c, http.StatusBadRequest, PageAdminAddLot, web.PageData{Warning: MsgFillAllFields, Form: form})
		return
	}

	lot, err := h.service.AddLot(c.Request.Context(), form["item_name"], form["quantity"], price)
	switch {
	case errors.Is(err, biddingerrors.ErrInvalidLot):
		h.render(c, http.StatusBadRequest, PageAdminAddLot, web.PageData{Warning: MsgFillAllFields, Form: form})
		return
	case err != nil:
		h.renderStorageError(c, PageAdminAddLot, "AddLotFormHandler", err)
		return
	}

	helpers.LogSuccess("AddLotFormHandler", "lot added successfully", map[string]any{
		"lot_id":    lot.ID,
		"item_name": lot.ItemName,
	})
	h.render(c, http.StatusCreated, PageAdminAddLot, web.PageData{
		Notice: fmt.Sprintf("Added new lot: %s (%s) at %s", lot.ItemName, lot.Quantity, web.FormatRupees(lot.BasePrice)),
	})
}

// isValidation reports whether err should be shown to the user as an inline warning
func isValidation(err error) bool {
	return errors.Is(err, biddingerrors.ErrInvalidBid) ||
		errors.Is(err, biddingerrors.ErrBidTooLow) ||
		errors.Is(err, biddingerrors.ErrInvalidLot) ||
		errors.Is(err, biddingerrors.ErrMissingName) ||
		errors.Is(err, biddingerrors.ErrLotNotFound)
}

func bidWarning(err error) string {
	switch {
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return "Your bid must be at least the base price."
	case errors.Is(err, biddingerrors.ErrLotNotFound):
		return MsgLotUnavailable
	default:
		return MsgInvalidAmount
	}
}
