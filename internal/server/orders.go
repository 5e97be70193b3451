package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	orderdomain "github.com/ultracivic/backend/internal/order/domain"
)

type CreateOrderRequest struct {
	TonnesCO2  int    `json:"tonnes_co2"`
	EthAddress string `json:"eth_address"`
}

type OrderView struct {
	ID            string     `json:"id"`
	TonnesCO2     int        `json:"tonnes_co2"`
	SubtotalCents int64      `json:"subtotal_cents"`
	FeeCents      int64      `json:"fee_cents"`
	TotalCents    int64      `json:"total_cents"`
	TokensMilli   int64      `json:"tokens_milli"`
	EthAddress    *string    `json:"eth_address,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func newOrderView(o *orderdomain.Order) OrderView {
	return OrderView{
		ID:            o.ID.String(),
		TonnesCO2:     o.TonnesCO2,
		SubtotalCents: o.SubtotalCents,
		FeeCents:      o.FeeCents,
		TotalCents:    o.TotalCents,
		TokensMilli:   o.TokensMilli,
		EthAddress:    o.EthAddress,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		CompletedAt:   o.CompletedAt,
	}
}

func (s *Server) CreateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderInput{
		UserID:     user.ID,
		TonnesCO2:  req.TonnesCO2,
		EthAddress: strings.TrimSpace(req.EthAddress),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newOrderView(order))
}

func (s *Server) ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	orders, err := s.orderSvc.List(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": views})
}

func (s *Server) GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, orderdomain.ErrOrderNotFound)
		return
	}

	order, err := s.orderSvc.Get(c.Request.Context(), user.ID, orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOrderView(order))
}

func (s *Server) CreatePaymentIntent(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	orderID, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, orderdomain.ErrOrderNotFound)
		return
	}

	result, err := s.paymentSvc.Authorize(c.Request.Context(), user.ID, orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_intent_id": result.Intent.StripeIntentID,
		"client_secret":     result.ClientSecret,
		"amount_cents":      result.Intent.AmountCents,
		"currency":          result.Intent.Currency,
	})
}
