package services

import (
	"context"
	"fmt"
	"io"

	"github.com/AnshRaj112/pixora-backend/internal/models"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ImageTransformation fits images inside 800x800 at quality 80.
const ImageTransformation = "c_limit,h_800,w_800/q_80"

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryService{cld: cld}, nil
}

// Upload stores r as a JPEG resized and recompressed by ImageTransformation.
func (s *CloudinaryService) Upload(ctx context.Context, r io.Reader, folder string) (models.Image, error) {
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         folder,
		ResourceType:   "image",
		Format:         "jpg",
		Transformation: ImageTransformation,
	})
	if err != nil {
		return models.Image{}, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return models.Image{}, fmt.Errorf("failed to upload to Cloudinary: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return models.Image{}, fmt.Errorf("failed to upload to Cloudinary: empty url")
	}

	return models.Image{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Destroy deletes the asset; a missing asset is not an error.
func (s *CloudinaryService) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("failed to delete from Cloudinary: %s", res.Error.Message)
	}
	return nil
}
