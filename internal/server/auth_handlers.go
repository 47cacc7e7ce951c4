package server

import (
	"log/slog"
	"time"

	"namethatobject/internal/middleware"
	"namethatobject/internal/models"
	"namethatobject/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /signup
// @Summary User signup
// @Description Register a new user account and its empty profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Signup request"
// @Success 201 {object} object{user_id=int,username=string,token=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.accountService.Signup(c.UserContext(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}

	token, _, err := middleware.IssueToken(s.config.JWTSecret, user.ID, user.Username, time.Now())
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user_id":  user.ID,
		"username": user.Username,
		"token":    token,
	})
}

// Login handles POST /api-token-auth
// @Summary User login
// @Description Exchange a username and password for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /api-token-auth [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.accountService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, _, err := middleware.IssueToken(s.config.JWTSecret, user.ID, user.Username, time.Now())
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"token": token})
}

// Logout handles POST /logout
// @Summary Logout
// @Description Revoke the bearer token used for this request
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("tokenClaims").(middleware.TokenClaims)
	if err := s.blacklist.Revoke(c.UserContext(), claims.JTI, claims.ExpiresAt); err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"message": "Successfully logged out"})
}

// revokeAccountTokens revokes every token issued to the request's user so
// far, logging failures only.
func (s *Server) revokeAccountTokens(c *fiber.Ctx) {
	claims, ok := c.Locals("tokenClaims").(middleware.TokenClaims)
	if !ok {
		return
	}
	now := time.Now()
	if err := s.blacklist.RevokeUser(c.UserContext(), claims.UserID, now, now.Add(middleware.TokenLifetime)); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "account token revocation failed",
			slog.String("error", err.Error()),
			slog.Uint64("user_id", uint64(claims.UserID)))
	}
}
