package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) StartKYC(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	result, err := s.kycSvc.Start(c.Request.Context(), user.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verification_session_id": result.SessionID,
		"client_secret":           result.ClientSecret,
		"url":                     result.URL,
	})
}

func (s *Server) VerifiedOnly(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "identity verified",
		"user":    newUserView(user),
	})
}
