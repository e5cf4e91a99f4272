// Package cloudflare provides helpers for Cloudflare services
package cloudflare

import (
	"bitwise74/auth-api/aws"
	"context"
	"errors"
	"fmt"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

// NewR2 returns an S3 client pointed at a Cloudflare R2 bucket
func NewR2(ctx context.Context, c R2Config) (*aws.S3Client, error) {
	if c.AccountID == "" {
		return nil, errors.New("account id can't be empty")
	}

	if c.PublicURL == "" {
		return nil, errors.New("r2 buckets need a public url to serve avatars from")
	}

	return aws.NewS3(ctx, aws.S3Config{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		Region:          "auto",
		Bucket:          c.Bucket,
		Endpoint:        fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID),
		PublicURL:       c.PublicURL,
	})
}
