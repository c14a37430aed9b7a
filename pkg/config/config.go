package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File represents the optional YAML configuration file
type File struct {
	InputDir        string   `yaml:"input_dir"`
	OutputDir       string   `yaml:"output_dir"`
	OutputSizes     []int    `yaml:"output_sizes"`
	Exts            []string `yaml:"exts"`
	Excludes        []string `yaml:"excludes"`
	Concurrency     int      `yaml:"concurrency"`
	JPEGQuality     int      `yaml:"jpeg_quality"`
	WebPQuality     int      `yaml:"webp_quality"`
	AnimatedCommand string   `yaml:"animated_command"`
	S3URI           string   `yaml:"s3_uri"`
}

// Load reads and parses the configuration file. A missing output_sizes key
// leaves OutputSizes nil, which is different from an explicit empty list.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg File
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that can be judged without the rest of the run
func (c *File) Validate() error {
	if err := ValidateSizes(c.OutputSizes); err != nil {
		return err
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 0 and 100 (0 selects the default)")
	}
	if c.WebPQuality < 0 || c.WebPQuality > 100 {
		return fmt.Errorf("webp_quality must be between 0 and 100 (0 selects the default)")
	}
	return nil
}

// ValidateSizes rejects non-positive widths
func ValidateSizes(sizes []int) error {
	for _, s := range sizes {
		if s <= 0 {
			return fmt.Errorf("output size must be positive, got %d", s)
		}
	}
	return nil
}

// NormalizedSizes drops repeated widths, keeping the first occurrence. A nil
// input stays nil.
func NormalizedSizes(sizes []int) []int {
	if sizes == nil {
		return nil
	}
	seen := make(map[int]bool, len(sizes))
	out := make([]int, 0, len(sizes))
	for _, s := range sizes {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
