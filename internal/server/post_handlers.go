package server

import (
	"encoding/json"
	"strings"

	"namethatobject/internal/models"
	"namethatobject/internal/service"
	"namethatobject/internal/storage"

	"github.com/gofiber/fiber/v2"
)

var postMediaFields = []struct {
	field string
	kind  storage.Kind
}{
	{"image", storage.KindImage},
	{"video", storage.KindVideo},
	{"audio", storage.KindAudio},
}

// ListPosts handles GET /posts
// @Summary List posts
// @Description Live posts, newest first. search matches title and description case-insensitively.
// @Description Comments are not embedded; fetch GET /posts/{id} or GET /comments?post={id} for them.
// @Tags posts
// @Produce json
// @Param search query string false "Substring to search for"
// @Param author query string false "Author username"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Search: c.Query("search"),
		Author: c.Query("author"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /posts/:id
// @Summary Get a post
// @Description A post with all of its comments in creation order
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// CreatePost handles POST /posts. Media arrive either as multipart files or
// as reference strings in the image, video and audio fields.
// @Summary Create a post
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,description=string,tags=[]string,image=string,video=string,audio=string} true "Post"
// @Success 201 {object} models.PostDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{UserID: currentUserID(c)}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid multipart form"))
		}
		in.Title = formValue(form.Value, "title")
		in.Description = formValue(form.Value, "description")
		in.Tags = splitTags(form.Value["tags"])

		for _, m := range postMediaFields {
			if files := form.File[m.field]; len(files) > 0 {
				f, err := files[0].Open()
				if err != nil {
					return models.RespondWithError(c, fiber.StatusBadRequest,
						models.NewValidationError("Unreadable "+m.field+" upload"))
				}
				defer f.Close()
				in.Media = append(in.Media, service.Attachment{Kind: m.kind, Filename: files[0].Filename, Body: f})
				continue
			}
			if ref := formValue(form.Value, m.field); ref != "" {
				in.Media = append(in.Media, service.Attachment{Kind: m.kind, Ref: ref})
			}
		}
	} else {
		var req struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Tags        []string `json:"tags"`
			Image       string   `json:"image"`
			Video       string   `json:"video"`
			Audio       string   `json:"audio"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Title, in.Description, in.Tags = req.Title, req.Description, req.Tags
		refs := map[storage.Kind]string{
			storage.KindImage: req.Image,
			storage.KindVideo: req.Video,
			storage.KindAudio: req.Audio,
		}
		for _, m := range postMediaFields {
			if ref := strings.TrimSpace(refs[m.kind]); ref != "" {
				in.Media = append(in.Media, service.Attachment{Kind: m.kind, Ref: ref})
			}
		}
	}

	detail, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// UpdatePost handles PATCH /posts/:id
// @Summary Update a post
// @Description Author only. Media cannot be changed. eureka_comment null clears the marker.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{title=string,description=string,tags=[]string,eureka_comment=int} true "Fields to change"
// @Success 200 {object} models.PostDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title         *string         `json:"title"`
		Description   *string         `json:"description"`
		Tags          *[]string       `json:"tags"`
		EurekaComment json.RawMessage `json:"eureka_comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdatePostInput{
		UserID:      currentUserID(c),
		PostID:      id,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if len(req.EurekaComment) > 0 {
		in.SetEureka = true
		if string(req.EurekaComment) != "null" {
			var commentID uint
			if err := json.Unmarshal(req.EurekaComment, &commentID); err != nil || commentID == 0 {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("eureka_comment must be a comment id or null"))
			}
			in.EurekaCommentID = &commentID
		}
	}

	detail, err := s.postService.UpdatePost(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// DeletePost handles DELETE /posts/:id
// @Summary Delete a post
// @Description Author only. Posts that have comments cannot be deleted.
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// vote returns the handler for POST /posts/:id/{upvote,downvote} and
// POST /comments/:id/{upvote,downvote}.
// @Summary Vote on a post or comment
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post or comment ID"
// @Success 200 {object} models.VoteResult
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/upvote [post]
// @Router /posts/{id}/downvote [post]
// @Router /comments/{id}/upvote [post]
// @Router /comments/{id}/downvote [post]
func (s *Server) vote(target models.VoteTarget, dir models.VoteDirection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return nil
		}
		result, err := s.voteService.Vote(c.UserContext(), target, id, dir)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	}
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
