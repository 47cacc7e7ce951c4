// Package storage persists uploaded media and derives their public URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders for DecodeConfig
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"namethatobject/internal/observability"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Kind is the category of an uploaded file.
type Kind string

const (
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
	KindPicture Kind = "picture"
)

func (k Kind) dir() string {
	switch k {
	case KindVideo:
		return "videos"
	case KindAudio:
		return "audio"
	case KindPicture:
		return "profile_pics"
	default:
		return "images"
	}
}

// ErrInvalidMedia is returned when an upload does not match its kind.
var ErrInvalidMedia = errors.New("invalid media")

// ErrTooLarge is returned when an upload exceeds the size limit.
var ErrTooLarge = errors.New("media exceeds size limit")

// Store saves media and resolves public URLs for stored references.
type Store interface {
	Save(ctx context.Context, kind Kind, filename string, r io.Reader) (string, error)
	PublicURL(ref string) string
}

// DiskStore keeps media under a local directory served by the API.
type DiskStore struct {
	root     string
	baseURL  string
	maxBytes int64
}

// NewDiskStore returns a store rooted at dir whose files are served from baseURL.
func NewDiskStore(dir, baseURL string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskStore{
		root:     dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

// Root is the directory files are written to.
func (s *DiskStore) Root() string { return s.root }

// Save validates the upload against kind and writes it under a fresh name.
// The returned reference is relative to the media root.
func (s *DiskStore) Save(ctx context.Context, kind Kind, _ string, r io.Reader) (string, error) {
	if s.maxBytes > 0 {
		r = io.LimitReader(r, s.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	ext, err := Validate(kind, data)
	if err != nil {
		return "", err
	}

	ref := path.Join(kind.dir(), uuid.NewString()+ext)
	full := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write media: %w", err)
	}

	observability.MediaUploads.WithLabelValues(string(kind)).Inc()
	return ref, nil
}

// PublicURL derives the absolute URL for a stored or external reference.
func (s *DiskStore) PublicURL(ref string) string {
	return PublicURL(s.baseURL, ref)
}

// PublicURL derives an absolute URL from a media reference. Absolute http
// references are upgraded to https, doubled "/image/upload/" segments from
// hosted URLs are collapsed and bare references are joined to base.
func PublicURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(ref, "http://"):
		ref = "https://" + strings.TrimPrefix(ref, "http://")
	case strings.HasPrefix(ref, "https://"):
	default:
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
	}

	const doubled = "/image/upload/image/upload/"
	for strings.Contains(ref, doubled) {
		ref = strings.ReplaceAll(ref, doubled, "/image/upload/")
	}
	return ref
}

// mediaExts maps sniffed audio and video content types to the extension
// they are stored under. The client's filename never picks the extension.
var mediaExts = map[Kind]map[string]string{
	KindVideo: {
		"video/mp4":  ".mp4",
		"video/webm": ".webm",
		"video/avi":  ".avi",
	},
	KindAudio: {
		"audio/mpeg":      ".mp3",
		"audio/wave":      ".wav",
		"audio/aiff":      ".aiff",
		"audio/midi":      ".mid",
		"application/ogg": ".ogg",
	},
}

// Validate checks that data is a file of the given kind and returns the
// extension to store it under, derived from the content alone.
func Validate(kind Kind, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrInvalidMedia)
	}

	switch kind {
	case KindImage, KindPicture:
		_, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("%w: not a supported image", ErrInvalidMedia)
		}
		if format == "jpeg" {
			return ".jpg", nil
		}
		return "." + format, nil
	case KindVideo, KindAudio:
		contentType := http.DetectContentType(data)
		if ext, ok := mediaExts[kind][contentType]; ok {
			return ext, nil
		}
		return "", fmt.Errorf("%w: unsupported %s type %s", ErrInvalidMedia, kind, contentType)
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidMedia, kind)
	}
}
