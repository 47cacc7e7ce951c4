package server

import (
	"namethatobject/internal/models"
	"namethatobject/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /user/profile
// @Summary Get own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /user/profile [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.accountService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetProfile handles GET /user/profile/:username
// @Summary Get a user's profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.ProfileResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/profile/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.accountService.GetProfileByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile handles PATCH /user/profile
// @Summary Update own profile
// @Description picture is a multipart file or a reference string
// @Tags users
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body object{bio=string,profession=string,picture=string} true "Fields to change"
// @Success 200 {object} models.ProfileResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /user/profile [patch]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	in := service.UpdateProfileInput{UserID: currentUserID(c)}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid multipart form"))
		}
		if v, ok := form.Value["bio"]; ok && len(v) > 0 {
			in.Bio = &v[0]
		}
		if v, ok := form.Value["profession"]; ok && len(v) > 0 {
			in.Profession = &v[0]
		}
		if files := form.File["picture"]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Unreadable picture upload"))
			}
			defer f.Close()
			in.Picture = &service.Attachment{Filename: files[0].Filename, Body: f}
		} else if v, ok := form.Value["picture"]; ok && len(v) > 0 {
			in.Picture = &service.Attachment{Ref: v[0]}
		}
	} else {
		var req struct {
			Bio        *string `json:"bio"`
			Profession *string `json:"profession"`
			Picture    *string `json:"picture"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Bio, in.Profession = req.Bio, req.Profession
		if req.Picture != nil {
			in.Picture = &service.Attachment{Ref: *req.Picture}
		}
	}

	profile, err := s.accountService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// DeleteAccount handles DELETE /user/delete-account
// @Summary Delete own account
// @Description Discussed posts stay up anonymously, the rest are removed. Comments are anonymised.
// @Tags users
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /user/delete-account [delete]
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	if err := s.accountService.DeleteAccount(c.UserContext(), currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	s.revokeAccountTokens(c)
	return c.SendStatus(fiber.StatusNoContent)
}
