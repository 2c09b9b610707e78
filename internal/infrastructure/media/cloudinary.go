// Package media uploads payment proofs and complaint screenshots to
// Cloudinary and hands back the hosted URL stored in the document.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const uploadTimeout = 30 * time.Second

// Uploader wraps the Cloudinary client.
type Uploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *slog.Logger
}

// NewUploader builds an uploader from a CLOUDINARY_URL style connection
// string. folder namespaces this deployment's assets.
func NewUploader(cloudinaryURL, folder string, logger *slog.Logger) (*Uploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	if folder == "" {
		folder = "affiliateportal"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{cld: cld, folder: folder, logger: logger}, nil
}

// UploadImage stores the image (a file path, URL, or base64 data URI) and
// returns its hosted HTTPS URL.
func (u *Uploader) UploadImage(ctx context.Context, source, publicID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	res, err := u.cld.Upload.Upload(ctx, source, uploader.UploadParams{
		Folder:         u.folder,
		PublicID:       publicID,
		Transformation: "c_limit,w_1200,h_1200,q_auto",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}

	u.logger.Debug("image uploaded", slog.String("public_id", publicID))
	return res.SecureURL, nil
}
