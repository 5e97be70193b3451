package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/ultracivic/backend/internal/config"
	magiclinkdomain "github.com/ultracivic/backend/internal/magiclink/domain"
	magiclinkservice "github.com/ultracivic/backend/internal/magiclink/service"
	"github.com/ultracivic/backend/internal/providers/email"
	sessiondomain "github.com/ultracivic/backend/internal/session/domain"
	userdomain "github.com/ultracivic/backend/internal/user/domain"
	"go.uber.org/zap"
)

type RequestMagicLinkRequest struct {
	Email       string `json:"email"`
	RedirectURL string `json:"redirect_url"`
}

type UserView struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
	KYCStatus  string `json:"kyc_status"`
}

func newUserView(u *userdomain.User) UserView {
	return UserView{
		ID:         u.ID.String(),
		Email:      u.Email,
		IsVerified: u.IsVerified,
		KYCStatus:  string(u.KYCStatus),
	}
}

// RequestMagicLink issues a login link. The response body never reveals
// whether the email belongs to an account.
func (s *Server) RequestMagicLink(c *gin.Context) {
	var req RequestMagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}

	if s.magicLinkLimiter != nil {
		allowed, err := s.magicLinkLimiter.Allow(c.Request.Context(), strings.ToLower(email), c.ClientIP())
		if err != nil {
			s.log.Warn("magic link rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			AbortWithError(c, magiclinkdomain.ErrRateLimited)
			return
		}
	}

	result, err := s.magicLinkSvc.RequestLink(c.Request.Context(), magiclinkdomain.RequestLinkInput{
		Email:       email,
		RedirectURL: strings.TrimSpace(req.RedirectURL),
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.IncMagicLinkIssued()
	s.sendMagicLinkEmail(result.User.Email, result.Token)

	c.JSON(http.StatusOK, gin.H{"message": "If the address exists, a sign-in link has been sent."})
}

// sendMagicLinkEmail delivers the link off the request path. A delivery
// failure is logged; the caller already got its generic 200.
func (s *Server) sendMagicLinkEmail(to, rawToken string) {
	loginURL := magiclinkservice.BuildURL(s.cfg.FrontendBaseURL, rawToken)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := email.SendMagicLink(ctx, s.emailProvider, to, loginURL); err != nil {
			s.log.Warn("magic link email delivery failed", zap.Error(err))
		}
	}()
}

func (s *Server) RedeemMagicLink(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		AbortWithError(c, magiclinkdomain.ErrInvalidLink)
		return
	}

	result, err := s.magicLinkSvc.Redeem(c.Request.Context(), magiclinkdomain.RedeemInput{
		Token:          token,
		IPAddress:      c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
		EnforceBinding: s.enforceLinkBinding(),
	})
	if err != nil {
		s.metrics.IncMagicLinkRedeem("rejected")
		AbortWithError(c, err)
		return
	}

	created, err := s.sessionSvc.Create(c.Request.Context(), sessionCreateInput(c, result.User.ID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.cookies.Set(c, created.Token, created.Session.ExpiresAt)
	s.metrics.IncMagicLinkRedeem("redeemed")

	c.JSON(http.StatusOK, gin.H{
		"user":         newUserView(result.User),
		"redirect_url": result.RedirectURL,
	})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.cookies.ReadToken(c); ok {
		if err := s.sessionSvc.Revoke(c.Request.Context(), token); err != nil {
			s.log.Warn("session revoke failed", zap.Error(err))
		}
	}
	s.cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, newUserView(user))
}

func (s *Server) enforceLinkBinding() bool {
	return config.MagicLinkEnforceBinding
}

func sessionCreateInput(c *gin.Context, userID snowflake.ID) sessiondomain.CreateInput {
	return sessiondomain.CreateInput{
		UserID:    userID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
