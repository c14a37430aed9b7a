// Package publisher mirrors rendered derivatives into an S3 bucket.
package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yuya-takeyama/strict-image-resize/pkg/errs"
	"github.com/yuya-takeyama/strict-image-resize/pkg/logger"
	"github.com/yuya-takeyama/strict-image-resize/pkg/s3client"
)

const DefaultConcurrency = 32

type Publisher struct {
	client      s3client.Client
	logger      logger.Logger
	concurrency int
}

func NewPublisher(client s3client.Client, logger logger.Logger, concurrency int) *Publisher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Publisher{
		client:      client,
		logger:      logger,
		concurrency: concurrency,
	}
}

type Result struct {
	LocalPath string
	Key       string
	Error     error
}

// Publish uploads every path, keyed by its location relative to outputDir.
func (p *Publisher) Publish(ctx context.Context, outputDir, bucket, prefix string, paths []string) []Result {
	results := make([]Result, len(paths))

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(idx int, localPath string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx].LocalPath = localPath

			key, err := objectKey(outputDir, prefix, localPath)
			if err != nil {
				results[idx].Error = errs.Wrap(errs.ErrPublish, localPath, err)
				return
			}
			results[idx].Key = key

			p.logger.Upload(localPath, fmt.Sprintf("s3://%s/%s", bucket, key))
			if err := p.upload(ctx, bucket, key, localPath); err != nil {
				p.logger.Error("upload", localPath, err)
				results[idx].Error = errs.Wrap(errs.ErrPublish, localPath, err)
			}
		}(i, path)
	}

	wg.Wait()
	return results
}

func (p *Publisher) upload(ctx context.Context, bucket, key, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.client.PutObject(ctx, &s3client.PutObjectRequest{
		Bucket:      bucket,
		Key:         key,
		Body:        file,
		ContentType: guessContentType(localPath),
	})
}

func objectKey(outputDir, prefix, localPath string) (string, error) {
	rel, err := filepath.Rel(outputDir, localPath)
	if err != nil {
		return "", fmt.Errorf("get relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside output directory %s", localPath, outputDir)
	}
	return s3client.Key(prefix, rel), nil
}
