package filestore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type fakeAPI struct {
	uploaded  []uploader.UploadParams
	destroyed []string
	body      string
}

func (f *fakeAPI) Upload(_ context.Context, file interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	b, err := io.ReadAll(file.(io.Reader))
	if err != nil {
		return nil, err
	}
	f.body = string(b)
	f.uploaded = append(f.uploaded, p)
	return &uploader.UploadResult{SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/" + p.Folder + "/" + p.PublicID + ".jpg"}, nil
}

func (f *fakeAPI) Destroy(_ context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = append(f.destroyed, p.PublicID)
	return &uploader.DestroyResult{Result: "ok"}, nil
}

func TestExtractPublicID(t *testing.T) {
	tests := []struct {
		url  string
		want string
		err  bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/products/lamp_ab12.jpg", "products/lamp_ab12", false},
		{"https://res.cloudinary.com/demo/image/upload/products/lamp.png", "products/lamp", false},
		{"https://res.cloudinary.com/demo/video/upload/v3/clip.mp4", "clip", false},
		{"https://example.com/static/lamp.jpg", "", true},
		{"https://res.cloudinary.com/demo/image/upload/", "", true},
		{"https://res.cloudinary.com/demo/image/upload/v1712/", "", true},
		{"https://res.cloudinary.com/demo/image/upload/v1712", "", true},
		{"https://res.cloudinary.com/demo/image/upload/.jpg", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractPublicID(tt.url)
		if tt.err {
			if !errors.Is(err, ErrBadURL) {
				t.Errorf("%s: expected ErrBadURL, got %q, %v", tt.url, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%s: got %q, %v, want %q", tt.url, got, err, tt.want)
		}
	}
}

func TestPublicID(t *testing.T) {
	id := publicID("../My Lamp (front).JPG")
	if !strings.HasPrefix(id, "My_Lamp_front_") {
		t.Fatalf("id = %q", id)
	}
	if publicID("a.jpg") == publicID("a.jpg") {
		t.Fatalf("ids must be unique per upload")
	}
	if !strings.HasPrefix(publicID(".jpg"), "file_") {
		t.Fatalf("empty stems fall back to file")
	}
}

func TestStoreAndDelete(t *testing.T) {
	api := &fakeAPI{}
	c := &Cloudinary{api: api, folder: "products"}
	ctx := context.Background()

	url, err := c.Store(ctx, strings.NewReader("pixels"), "lamp.jpg")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if api.body != "pixels" || api.uploaded[0].Folder != "products" {
		t.Fatalf("upload = %+v", api.uploaded)
	}
	if err := c.Delete(ctx, url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if want := "products/" + api.uploaded[0].PublicID; api.destroyed[0] != want {
		t.Fatalf("destroyed %q, want %q", api.destroyed[0], want)
	}
}

func TestDeleteRejectsURLWithoutPublicID(t *testing.T) {
	api := &fakeAPI{}
	c := &Cloudinary{api: api, folder: "products"}

	err := c.Delete(context.Background(), "https://res.cloudinary.com/demo/image/upload/")
	if !errors.Is(err, ErrBadURL) {
		t.Fatalf("delete: got %v, want ErrBadURL", err)
	}
	if len(api.destroyed) != 0 {
		t.Fatalf("destroy must not be called, got %v", api.destroyed)
	}
}
