package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/perennia/storefront/pkg/storage"
)

// MaxUploadBytes caps a product image.
const MaxUploadBytes = 5 << 20

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type UploadResult struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

type UploadService struct {
	disk storage.Disk
}

func NewUploadService(disk storage.Disk) *UploadService {
	return &UploadService{disk: disk}
}

// StoreImage sniffs r and stores it under products/<uuid><ext>. The content
// type is taken from the bytes, not from the client.
func (s *UploadService) StoreImage(ctx context.Context, r io.Reader) (UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return UploadResult{}, fmt.Errorf("services: read upload: %w", err)
	}
	if len(data) == 0 {
		return UploadResult{}, BadRequest("File is empty")
	}
	if len(data) > MaxUploadBytes {
		return UploadResult{}, BadRequest("File too large (max 5 MB)")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExt[contentType]
	if !ok {
		return UploadResult{}, BadRequest("Only image uploads are allowed")
	}

	key := "products/" + uuid.NewString() + ext
	if err := s.disk.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return UploadResult{}, fmt.Errorf("services: store upload: %w", err)
	}
	return UploadResult{URL: s.disk.URL(key), Path: key}, nil
}
