package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ack, err := s.webhookGateway.Process(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		s.log.Warn("webhook processing failed", zap.Error(err))
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ack)
}
