package service

import (
	"bitwise74/auth-api/pkg/validators"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// AvatarSize is the edge length of stored avatars
	AvatarSize = 400

	maxAvatarPixels = 40_000_000
)

// processAvatar crops the upload to a centered square and scales it to
// AvatarSize. The result is re-encoded as PNG, which drops any metadata
// (EXIF, GPS) the original file carried. Animated GIFs keep their first frame.
func processAvatar(av *validators.Avatar) (*validators.Avatar, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(av.Data))
	if err != nil {
		return nil, fmt.Errorf("%w, %v", validators.ErrFileTypeUnsupported, err)
	}

	if cfg.Width*cfg.Height > maxAvatarPixels {
		return nil, fmt.Errorf("%w, %dx%d is too large", validators.ErrFileTypeUnsupported, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(av.Data))
	if err != nil {
		return nil, fmt.Errorf("%w, %v", validators.ErrFileTypeUnsupported, err)
	}

	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	if side == 0 {
		return nil, validators.ErrFileTypeUnsupported
	}

	crop := image.Rect(0, 0, side, side).Add(image.Pt(
		b.Min.X+(b.Dx()-side)/2,
		b.Min.Y+(b.Dy()-side)/2,
	))

	dst := image.NewNRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode avatar, %w", err)
	}

	return &validators.Avatar{
		Data:      buf.Bytes(),
		MIME:      "image/png",
		Extension: ".png",
	}, nil
}
