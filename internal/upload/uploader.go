/*
Copyright © 2025 Stackhand Contributors
SPDX-License-Identifier: BSD-3-Clause
*/

// Package upload stores deployment artifacts in S3. Objects are named by
// content hash, so re-deploying an unchanged template never uploads twice.
package upload

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stackhand/stackhand/internal/aws"
)

// Uploader writes template files to one bucket/prefix.
type Uploader struct {
	client aws.S3Client
	region string
	bucket string
	prefix string
	logger *slog.Logger
}

// New creates an uploader for the given bucket. The region is needed to
// build the path-style URLs CloudFormation reads templates from.
func New(client aws.S3Client, region, bucket, prefix string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		client: client,
		region: region,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// Upload stores the file at path under a content-hash key and returns a
// path-style URL for it. When an object with the same hash already exists
// the upload is skipped and the existing object's URL is returned.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	sum, err := fileChecksum(path)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint %s: %w", path, err)
	}

	key := sum + ".template"
	if u.prefix != "" {
		key = u.prefix + "/" + key
	}

	if u.exists(ctx, key) {
		u.logger.Debug("object with same content already uploaded, skipping", "bucket", u.bucket, "key", key)
		return u.PathStyleURL(key), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	u.logger.Debug("uploading template", "bucket", u.bucket, "key", key)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: awssdk.String(u.bucket),
		Key:    awssdk.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", u.bucket, key, err)
	}

	return u.PathStyleURL(key), nil
}

// PathStyleURL returns the https URL for key. CloudFormation's TemplateURL
// property requires the path-style form.
func (u *Uploader) PathStyleURL(key string) string {
	return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", u.region, u.bucket, key)
}

// exists probes for the object. Any error counts as absent; a false negative
// only costs a re-upload.
func (u *Uploader) exists(ctx context.Context, key string) bool {
	_, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: awssdk.String(u.bucket),
		Key:    awssdk.String(key),
	})
	return err == nil
}

// fileChecksum returns the md5 fingerprint of the file's content, the key
// naming scheme for deduplicated uploads.
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
