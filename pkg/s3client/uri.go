package s3client

import (
	"fmt"
	"path"
	"strings"
)

// ParseS3URI parses an S3 URI into bucket and prefix
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", fmt.Errorf("invalid S3 URI: must start with s3://")
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, "s3://"), "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 URI: missing bucket name")
	}

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.Trim(parts[1], "/")
	}
	return bucket, prefix, nil
}

// Key joins a prefix and a slash-separated relative path
func Key(prefix, relPath string) string {
	if prefix == "" {
		return relPath
	}
	return path.Join(prefix, relPath)
}
