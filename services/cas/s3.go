// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package cas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const s3DefaultRegion = "us-east-1"

// S3Store keeps objects in one bucket under their sha256 digest.
// References have the form s3://bucket/digest.
type S3Store struct {
	session *session.Session
	bucket  string
}

// MakeS3Store opens a session for p.S3Bucket. Static credentials are used when
// both keys are set, the default AWS credential chain otherwise.
func MakeS3Store(p Params) (*S3Store, error) {
	if p.S3Bucket == "" {
		return nil, fmt.Errorf("cas: s3 bucket name is empty")
	}
	region := p.S3Region
	if region == "" {
		region = s3DefaultRegion
	}
	cfg := &aws.Config{Region: aws.String(region)}
	if p.S3AccessKey != "" && p.S3SecretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(p.S3AccessKey, p.S3SecretKey, "")
	}
	if p.S3Endpoint != "" {
		cfg.Endpoint = aws.String(p.S3Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
		cfg.DisableSSL = aws.Bool(strings.HasPrefix(p.S3Endpoint, "http://"))
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	return &S3Store{session: sess, bucket: p.S3Bucket}, nil
}

func (s *S3Store) ref(key string) string {
	return "s3://" + s.bucket + "/" + key
}

// Put uploads data under its digest.
func (s *S3Store) Put(ctx context.Context, data []byte) (string, error) {
	key := Digest(data)
	uploader := s3manager.NewUploader(s.session)
	_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	return s.ref(key), nil
}

// Get downloads the object named by ref.
func (s *S3Store) Get(ctx context.Context, ref string) ([]byte, error) {
	prefix := "s3://" + s.bucket + "/"
	if !strings.HasPrefix(ref, prefix) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRef, ref)
	}
	key := strings.TrimPrefix(ref, prefix)

	buf := aws.NewWriteAtBuffer(nil)
	downloader := s3manager.NewDownloader(s.session)
	_, err := downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.RequestFailure
		if errors.As(err, &aerr) && aerr.StatusCode() == 404 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("s3 download: %w", err)
	}
	return buf.Bytes(), nil
}

// Close is a no-op.
func (s *S3Store) Close() error { return nil }
