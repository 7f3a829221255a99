package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"snapgram-backend/internal/storage"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	DefaultMaxDimension = 800
	DefaultJPEGQuality  = 80
	DefaultMaxPixels    = 25_000_000
)

// ErrImageTooLarge is returned when the image header declares more pixels than
// the service is willing to decode
var ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")

// ImageUploader normalizes an image and stores it, returning its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, src io.Reader, prefix string) (string, error)
}

// MediaService resizes uploaded images and hands them to object storage
type MediaService struct {
	store        storage.ObjectStore
	maxDimension int
	quality      int
	maxPixels    int64
}

// NewMediaService creates a new media service. Non-positive limits fall back
// to the defaults.
func NewMediaService(store storage.ObjectStore, maxDimension, quality int, maxPixels int64) *MediaService {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &MediaService{
		store:        store,
		maxDimension: maxDimension,
		quality:      quality,
		maxPixels:    maxPixels,
	}
}

// UploadImage resizes src to fit inside the configured bounds, re-encodes it
// as JPEG and uploads it under {prefix}/{uuid}.jpg. One attempt, no retries.
func (s *MediaService) UploadImage(ctx context.Context, src io.Reader, prefix string) (string, error) {
	if src == nil {
		return "", ErrUpload
	}

	data, err := s.Normalize(src)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}

	key := fmt.Sprintf("%s/%s.jpg", prefix, uuid.New().String())
	url, err := s.store.Put(ctx, key, bytes.NewReader(data), "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return url, nil
}

// Normalize decodes src and returns it as a JPEG whose width and height do not
// exceed the max dimension. Aspect ratio is kept and smaller images are never
// upscaled. Images whose header declares more than the pixel limit are
// rejected before any pixel data is decoded.
func (s *MediaService) Normalize(src io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if pixels := int64(header.Width) * int64(header.Height); pixels > s.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, header.Width, header.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = imaging.Fit(img, s.maxDimension, s.maxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
