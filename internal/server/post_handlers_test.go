package server

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"namethatobject/internal/models"
	"namethatobject/internal/storage"
	"namethatobject/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreatePost_JSON(t *testing.T) {
	env := newTestEnv(t, nil)
	user := testutil.CreateUser(t, env.db, "poster")

	status, body := env.do(http.MethodPost, "/posts", fiber.Map{
		"title":       "Odd brass hook",
		"description": "Found in a barn wall",
		"tags":        []string{"metal", " brass ", "metal"},
		"image":       "http://img.example.com/hook.jpg",
	}, env.tokenFor(user))
	require.Equal(t, http.StatusCreated, status, string(body))

	post := decode[postResponse](t, body)
	assert.Equal(t, "Odd brass hook", post.Title)
	assert.Equal(t, []string{"metal", "brass"}, post.Tags)
	assert.Equal(t, "https://img.example.com/hook.jpg", post.ImageURL)
	require.NotNil(t, post.Author)
	assert.Equal(t, "poster", post.Author.Username)
	assert.Empty(t, post.Comments)
}

func TestCreatePost_MultipartUpload(t *testing.T) {
	media := new(MockMediaStore)
	env := newTestEnv(t, media)
	user := testutil.CreateUser(t, env.db, "uploader")

	media.On("Save", mock.Anything, storage.KindImage, "thing.png", mock.Anything).
		Return("images/abc.png", nil).Once()
	media.On("PublicURL", "images/abc.png").Return("http://media.test/media/images/abc.png").Once()

	req := multipartRequest(t, http.MethodPost, "/posts",
		map[string]string{"title": "Tiny gear", "description": "From a watch?", "tags": "gear,watch"},
		map[string][2]string{"image": {"thing.png", "not really a png"}})
	status, body := env.send(req, env.tokenFor(user))
	require.Equal(t, http.StatusCreated, status, string(body))

	post := decode[postResponse](t, body)
	assert.Equal(t, "images/abc.png", post.Image)
	assert.Equal(t, "http://media.test/media/images/abc.png", post.ImageURL)
	assert.Equal(t, []string{"gear", "watch"}, post.Tags)
	media.AssertExpectations(t)
}

func TestCreatePost_SeveralUploadsNearTheFileLimit(t *testing.T) {
	media := new(MockMediaStore)
	env := newTestEnv(t, media)
	user := testutil.CreateUser(t, env.db, "uploader")

	media.On("Save", mock.Anything, storage.KindImage, "thing.png", mock.Anything).
		Return("images/abc.png", nil).Once()
	media.On("Save", mock.Anything, storage.KindVideo, "clip.webm", mock.Anything).
		Return("videos/abc.webm", nil).Once()
	media.On("PublicURL", mock.Anything).Return("http://media.test/media/x")

	// Each file is under the 1MB per-file limit; together they are not.
	nearLimit := strings.Repeat("x", 900*1024)
	req := multipartRequest(t, http.MethodPost, "/posts",
		map[string]string{"title": "Heavy box", "description": "Photo and clip"},
		map[string][2]string{"image": {"thing.png", nearLimit}, "video": {"clip.webm", nearLimit}})
	status, body := env.send(req, env.tokenFor(user))
	require.Equal(t, http.StatusCreated, status, string(body))
	media.AssertExpectations(t)
}

func TestCreatePost_RejectedUpload(t *testing.T) {
	media := new(MockMediaStore)
	env := newTestEnv(t, media)
	user := testutil.CreateUser(t, env.db, "uploader")

	media.On("Save", mock.Anything, storage.KindVideo, "clip.txt", mock.Anything).
		Return("", fmt.Errorf("%w: unsupported video type", storage.ErrInvalidMedia)).Once()

	req := multipartRequest(t, http.MethodPost, "/posts",
		map[string]string{"title": "Noisy box", "description": "It hums"},
		map[string][2]string{"video": {"clip.txt", "hello"}})
	status, body := env.send(req, env.tokenFor(user))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, decode[models.ErrorResponse](t, body).Code)
	media.AssertExpectations(t)
}

func TestCreatePost_UploadNamedByContent(t *testing.T) {
	env := newTestEnv(t, nil)
	user := testutil.CreateUser(t, env.db, "uploader")

	req := multipartRequest(t, http.MethodPost, "/posts",
		map[string]string{"title": "Odd clip", "description": "What is this?"},
		map[string][2]string{"video": {"evil.html", "\x1a\x45\xdf\xa3<html><script>alert(1)</script></html>"}})
	status, body := env.send(req, env.tokenFor(user))
	require.Equal(t, http.StatusCreated, status, string(body))

	post := decode[postResponse](t, body)
	assert.True(t, strings.HasPrefix(post.VideoURL, "http://media.test/media/videos/"), post.VideoURL)
	assert.True(t, strings.HasSuffix(post.VideoURL, ".webm"), post.VideoURL)
}

func TestCreatePost_RequiresAuthAndFields(t *testing.T) {
	env := newTestEnv(t, nil)
	user := testutil.CreateUser(t, env.db, "poster")

	status, _ := env.do(http.MethodPost, "/posts", fiber.Map{"title": "x", "description": "y"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(http.MethodPost, "/posts", fiber.Map{"title": "", "description": "y"}, env.tokenFor(user))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListAndGetPosts(t *testing.T) {
	env := newTestEnv(t, nil)
	user := testutil.CreateUser(t, env.db, "lister")
	lamp := testutil.CreatePost(t, env.db, user, "lamp")
	testutil.CreatePost(t, env.db, user, "spoon")
	testutil.CreateComment(t, env.db, user, lamp, nil, "looks old")

	status, body := env.do(http.MethodGet, "/posts?search=lamp", nil, "")
	require.Equal(t, http.StatusOK, status)
	list := decode[[]postResponse](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, lamp.ID, list[0].ID)
	assert.Nil(t, list[0].Comments)

	status, body = env.do(http.MethodGet, "/posts?limit=1", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]postResponse](t, body), 1)

	status, body = env.do(http.MethodGet, fmt.Sprintf("/posts/%d", lamp.ID), nil, "")
	require.Equal(t, http.StatusOK, status)
	detail := decode[postResponse](t, body)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "looks old", detail.Comments[0].Text)

	status, _ = env.do(http.MethodGet, "/posts/999", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(http.MethodGet, "/posts/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID", decode[models.ErrorResponse](t, body).Error)
}

func TestUpdatePost_Eureka(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := testutil.CreateUser(t, env.db, "owner")
	other := testutil.CreateUser(t, env.db, "other")
	post := testutil.CreatePost(t, env.db, owner, "widget")
	answer := testutil.CreateComment(t, env.db, other, post, nil, "a thimble")
	path := fmt.Sprintf("/posts/%d", post.ID)

	status, body := env.do(http.MethodPatch, path, fiber.Map{"eureka_comment": answer.ID, "title": "Thimble?"}, env.tokenFor(owner))
	require.Equal(t, http.StatusOK, status, string(body))
	got := decode[postResponse](t, body)
	require.NotNil(t, got.EurekaComment)
	assert.Equal(t, answer.ID, *got.EurekaComment)
	assert.Equal(t, "Thimble?", got.Title)

	status, body = env.do(http.MethodPatch, path, map[string]any{"eureka_comment": nil}, env.tokenFor(owner))
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Nil(t, decode[postResponse](t, body).EurekaComment)
	assert.Equal(t, "Thimble?", decode[postResponse](t, body).Title)

	status, _ = env.do(http.MethodPatch, path, fiber.Map{"eureka_comment": "soon"}, env.tokenFor(owner))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodPatch, path, fiber.Map{"title": "mine now"}, env.tokenFor(other))
	assert.Equal(t, http.StatusForbidden, status)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := testutil.CreateUser(t, env.db, "owner")
	discussed := testutil.CreatePost(t, env.db, owner, "discussed")
	testutil.CreateComment(t, env.db, owner, discussed, nil, "hmm")
	quiet := testutil.CreatePost(t, env.db, owner, "quiet")
	token := env.tokenFor(owner)

	status, body := env.do(http.MethodDelete, fmt.Sprintf("/posts/%d", discussed.ID), nil, token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeConflict, decode[models.ErrorResponse](t, body).Code)

	status, _ = env.do(http.MethodDelete, fmt.Sprintf("/posts/%d", quiet.ID), nil, token)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = env.do(http.MethodGet, fmt.Sprintf("/posts/%d", quiet.ID), nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestVoteHandlers(t *testing.T) {
	env := newTestEnv(t, nil)
	user := testutil.CreateUser(t, env.db, "voter")
	post := testutil.CreatePost(t, env.db, user, "knob")
	comment := testutil.CreateComment(t, env.db, user, post, nil, "door knob")
	token := env.tokenFor(user)

	for i := 0; i < 2; i++ {
		status, _ := env.do(http.MethodPost, fmt.Sprintf("/posts/%d/upvote", post.ID), nil, token)
		require.Equal(t, http.StatusOK, status)
	}
	status, body := env.do(http.MethodPost, fmt.Sprintf("/posts/%d/downvote", post.ID), nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.VoteResult{ID: post.ID, Upvotes: 2, Downvotes: 1, Points: 1}, decode[models.VoteResult](t, body))

	status, body = env.do(http.MethodPost, fmt.Sprintf("/comments/%d/downvote", comment.ID), nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, -1, decode[models.VoteResult](t, body).Points)

	status, _ = env.do(http.MethodPost, "/comments/404/upvote", nil, token)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(http.MethodPost, fmt.Sprintf("/posts/%d/upvote", post.ID), nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestVoteHandlers_CommentOfDeletedPost(t *testing.T) {
	env := newTestEnv(t, nil)
	user := testutil.CreateUser(t, env.db, "voter")
	post := testutil.CreatePost(t, env.db, user, "knob")
	comment := testutil.CreateComment(t, env.db, user, post, nil, "door knob")
	token := env.tokenFor(user)

	require.NoError(t, env.db.Model(&models.Post{}).Where("id = ?", post.ID).Update("is_deleted", true).Error)

	status, _ := env.do(http.MethodPost, fmt.Sprintf("/comments/%d/upvote", comment.ID), nil, token)
	assert.Equal(t, http.StatusNotFound, status)

	var row models.Comment
	require.NoError(t, env.db.First(&row, comment.ID).Error)
	assert.Zero(t, row.Upvotes)
}
