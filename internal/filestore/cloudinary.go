package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

var ErrBadURL = errors.New("failed to extract public ID from URL")

// uploadAPI is the subset of *uploader.API the store calls.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Cloudinary stores product media under one folder and hands back the
// secure URL.
type Cloudinary struct {
	api    uploadAPI
	folder string
}

func NewCloudinary(cloudinaryURL, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{api: &cld.Upload, folder: folder}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// publicID keeps a readable stem of the original name and appends a random
// suffix so uploads never overwrite each other.
func publicID(name string) string {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, "_"), "_")
	if len(stem) > 40 {
		stem = stem[:40]
	}
	if stem == "" {
		stem = "file"
	}
	return stem + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (c *Cloudinary) Store(ctx context.Context, body io.Reader, name string) (string, error) {
	resp, err := c.api.Upload(ctx, body, uploader.UploadParams{
		Folder:    c.folder,
		PublicID:  publicID(name),
		Overwrite: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (c *Cloudinary) Delete(ctx context.Context, fileURL string) error {
	id, err := ExtractPublicID(fileURL)
	if err != nil {
		return err
	}
	if _, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: id}); err != nil {
		return fmt.Errorf("failed to delete file from Cloudinary: %w", err)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// ExtractPublicID turns a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/products/lamp_ab12.jpg
// into "products/lamp_ab12".
func ExtractPublicID(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	parts := strings.Split(parsed.Path, "/")
	for i, part := range parts {
		if part != "upload" || i+1 >= len(parts) {
			continue
		}
		rest := parts[i+1:]
		if versionSegment.MatchString(rest[0]) {
			rest = rest[1:]
		}
		id := strings.Trim(strings.Join(rest, "/"), "/")
		id = strings.TrimSuffix(id, path.Ext(id))
		if id == "" {
			break
		}
		return id, nil
	}
	return "", ErrBadURL
}
