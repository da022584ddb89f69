// Copyright (c) 2026 Clipstream. All rights reserved.
// Author: minh.ngo.dev@gmail.com

/*
Package media transfers locally spooled files to the remote media host.

It exposes the [Uploader] contract the account flows depend on and an
S3-compatible implementation (MinIO, Cloudflare R2, plain S3).

Architecture:

  - Uploader: Narrow interface — local path in, public URL out.
  - S3Uploader: aws-sdk-go-v2 client with static credentials and a custom
    endpoint, so self-hosted object stores work unchanged.

The handler layer spools multipart uploads to a temp directory first; this
package owns the transfer and the cleanup of the spooled file.
*/
package media

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/minhngo/clipstream/pkg/uuidv7"
)

// Uploader defines the contract for transferring a local file to the media host.
type Uploader interface {

	/*
		Upload transfers the file at localPath to the media host.

		Parameters:
		  - context: context.Context
		  - localPath: string (Spooled multipart file)

		Returns:
		  - string: Publicly reachable URL of the stored object
		  - error: Transfer failures
	*/
	Upload(context context.Context, localPath string) (string, error)
}

// S3Config holds the settings needed to reach the S3-compatible media host.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// BaseURL is the public prefix objects are served from (CDN or bucket
	// website endpoint). The object key is appended to it.
	BaseURL string
}

// S3Uploader implements [Uploader] against any S3-compatible object store.
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Uploader constructs the S3 client with static credentials and a
// custom endpoint (MinIO / R2 friendly).
func NewS3Uploader(context context.Context, cfg S3Config) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("media: failed to load S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(options *s3.Options) {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
		// Path-style addressing: virtual-host style breaks on self-hosted stores.
		options.UsePathStyle = true
	})

	return &S3Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

/*
Upload stores the local file under a date-partitioned key and returns its
public URL. The spooled local file is removed on success.

Description: Key layout is media/YYYY/MM/DD/<uuidv7><ext> so the bucket
listing stays time-ordered and collision-free.

Parameters:
  - context: context.Context
  - localPath: string

Returns:
  - string: Public URL
  - error: Filesystem or transfer failures
*/
func (uploader *S3Uploader) Upload(context context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("media: failed to open spooled file: %w", err)
	}
	defer file.Close()

	key := objectKey(localPath)

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = uploader.client.PutObject(context, &s3.PutObjectInput{
		Bucket:      aws.String(uploader.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("media: failed to store object: %w", err)
	}

	// Spooled files are single-use scratch data. A failed removal is not a
	// transfer failure, the OS temp reaper will get it eventually.
	_ = file.Close()
	_ = os.Remove(localPath)

	return uploader.baseURL + "/" + key, nil
}

// objectKey builds a date-partitioned, collision-free storage key.
func objectKey(localPath string) string {
	now := time.Now().UTC()
	extension := filepath.Ext(localPath)
	return fmt.Sprintf("media/%04d/%02d/%02d/%s%s",
		now.Year(), now.Month(), now.Day(),
		uuidv7.New(), url.PathEscape(extension),
	)
}
