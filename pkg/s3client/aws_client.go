package s3client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 100 * time.Millisecond
	defaultMaxDelay   = 30 * time.Second
)

// AWSClient uploads through the S3 transfer manager with retry on throttling
// and server errors.
type AWSClient struct {
	uploader   *manager.Uploader
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewAWSClient(cfg aws.Config) *AWSClient {
	return &AWSClient{
		uploader:   manager.NewUploader(s3.NewFromConfig(cfg)),
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
}

func (c *AWSClient) PutObject(ctx context.Context, req *PutObjectRequest) error {
	input := &s3.PutObjectInput{
		Bucket:            aws.String(req.Bucket),
		Key:               aws.String(req.Key),
		Body:              req.Body,
		ChecksumAlgorithm: types.ChecksumAlgorithmCrc64nvme,
	}
	if req.ContentType != "" {
		input.ContentType = aws.String(req.ContentType)
	}

	seeker, canRewind := req.Body.(io.Seeker)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if !canRewind {
				break
			}
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("failed to rewind body: %w", err)
			}
		}

		_, err := c.uploader.Upload(ctx, input)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return fmt.Errorf("failed to put object: %w", err)
		}

		lastErr = err
		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.calculateDelay(attempt)):
			}
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryableError checks if an error is retryable
func isRetryableError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "ServiceUnavailable", "RequestTimeout", "RequestTimeoutException":
			return true
		}
		// Retry on 5xx errors
		if httpErr, ok := apiErr.(interface{ HTTPStatusCode() int }); ok {
			code := httpErr.HTTPStatusCode()
			return code >= 500 && code < 600
		}
	}
	// Also retry on network errors
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF)
}

// calculateDelay calculates the retry delay with exponential backoff and jitter
func (c *AWSClient) calculateDelay(attempt int) time.Duration {
	delay := float64(c.baseDelay) * math.Pow(2.0, float64(attempt))

	// Add jitter (±25%)
	delay += delay * 0.25 * (2*rand.Float64() - 1)

	if delay > float64(c.maxDelay) {
		delay = float64(c.maxDelay)
	}
	return time.Duration(delay)
}
