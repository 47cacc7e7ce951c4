package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"namethatobject/internal/config"
	"namethatobject/internal/middleware"
	"namethatobject/internal/models"
	"namethatobject/internal/storage"
	"namethatobject/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "server-test-secret-0123456789abcdef"

// MockMediaStore is a mock of the storage.Store interface
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Save(ctx context.Context, kind storage.Kind, filename string, r io.Reader) (string, error) {
	args := m.Called(ctx, kind, filename, r)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStore) PublicURL(ref string) string {
	args := m.Called(ref)
	return args.String(0)
}

type testEnv struct {
	t     *testing.T
	db    *gorm.DB
	mr    *miniredis.Miniredis
	srv   *Server
	app   *fiber.App
	media storage.Store
}

// newTestEnv wires a server over sqlite and miniredis. A nil media store
// selects a disk store in a temp dir.
func newTestEnv(t *testing.T, media storage.Store) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	if media == nil {
		disk, err := storage.NewDiskStore(t.TempDir(), "http://media.test/media", 1<<20)
		require.NoError(t, err)
		media = disk
	}

	cfg := &config.Config{JWTSecret: testSecret, Env: "test", MediaMaxUploadMB: 1}
	srv, err := NewServerWithDeps(cfg, db, rdb, media)
	require.NoError(t, err)
	srv.accountService.WithHashCost(bcrypt.MinCost)

	return &testEnv{t: t, db: db, mr: mr, srv: srv, app: srv.NewApp(), media: media}
}

// tokenFor issues a bearer token for user.
func (e *testEnv) tokenFor(user *models.User) string {
	e.t.Helper()
	token, _, err := middleware.IssueToken(testSecret, user.ID, user.Username, time.Now())
	require.NoError(e.t, err)
	return token
}

// do sends a JSON request and returns the status and raw body.
func (e *testEnv) do(method, path string, body any, token string) (int, []byte) {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return e.send(req, token)
}

func (e *testEnv) send(req *http.Request, token string) (int, []byte) {
	e.t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

type postResponse struct {
	ID            uint              `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Image         string            `json:"image"`
	ImageURL      string            `json:"image_url"`
	VideoURL      string            `json:"video_url"`
	Tags          []string          `json:"tags"`
	Author        *models.Author    `json:"author"`
	Upvotes       int               `json:"upvotes"`
	Downvotes     int               `json:"downvotes"`
	Points        int               `json:"points"`
	EurekaComment *uint             `json:"eureka_comment"`
	IsAnonymous   bool              `json:"is_anonymous"`
	Comments      []commentResponse `json:"comments"`
}

type commentResponse struct {
	ID      uint           `json:"id"`
	Post    uint           `json:"post"`
	Parent  *uint          `json:"parent"`
	Text    string         `json:"text"`
	Tag     string         `json:"tag"`
	Author  *models.Author `json:"author"`
	Replies []uint         `json:"replies"`
}

// multipartRequest builds a multipart body from fields and files keyed by
// form name; each file is a filename and its bytes.
func multipartRequest(t *testing.T, method, path string, fields map[string]string, files map[string][2]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, f := range files {
		part, err := w.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func pngFixture(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.String()
}
