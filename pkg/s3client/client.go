package s3client

import (
	"context"
	"io"
)

type Client interface {
	PutObject(ctx context.Context, req *PutObjectRequest) error
}

type PutObjectRequest struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
}
