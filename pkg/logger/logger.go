package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

type Logger interface {
	Render(inputPath, outputPath string)
	Skip(inputPath string)
	Upload(localPath, s3Path string)
	Error(operation, path string, err error)
	Debug(message string)
}

// RenderLogger prints aws-cli style progress lines.
type RenderLogger struct {
	IsDryRun bool
	IsQuiet  bool
	Verbose  bool
}

func (l *RenderLogger) Render(inputPath, outputPath string) {
	if l.IsQuiet {
		return
	}
	fmt.Printf("%srender: %s to %s\n", l.prefix(), inputPath, outputPath)
}

func (l *RenderLogger) Skip(inputPath string) {
	if l.IsQuiet || !l.Verbose {
		return
	}
	fmt.Printf("%sskip: %s\n", l.prefix(), inputPath)
}

func (l *RenderLogger) Upload(localPath, s3Path string) {
	if l.IsQuiet {
		return
	}
	fmt.Printf("%supload: %s to %s\n", l.prefix(), localPath, s3Path)
}

func (l *RenderLogger) Error(operation, path string, err error) {
	fmt.Fprintf(os.Stderr, "%s failed: %s: %v\n", operation, path, err)
}

func (l *RenderLogger) Debug(message string) {
	if l.Verbose {
		log.Print(message)
	}
}

func (l *RenderLogger) prefix() string {
	if l.IsDryRun {
		return "(dryrun) "
	}
	return ""
}

type NullLogger struct{}

func (l *NullLogger) Render(inputPath, outputPath string) {}

func (l *NullLogger) Skip(inputPath string) {}

func (l *NullLogger) Upload(localPath, s3Path string) {}

func (l *NullLogger) Error(operation, path string, err error) {}

func (l *NullLogger) Debug(message string) {}

// Summary holds the end-of-run counters.
type Summary struct {
	Files    int
	Stale    int
	Rendered int
	Uploaded int
	Failed   int
	Duration time.Duration
}

// PrintSummary writes a summary of the run to w.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Summary ===")
	fmt.Fprintf(w, "Files: %d (%d stale, %d up to date)\n", s.Files, s.Stale, s.Files-s.Stale)
	fmt.Fprintf(w, "Rendered: %d outputs\n", s.Rendered)
	if s.Uploaded > 0 {
		fmt.Fprintf(w, "Uploaded: %d outputs\n", s.Uploaded)
	}
	if s.Failed > 0 {
		fmt.Fprintf(w, "Errors: %d\n", s.Failed)
	}
	fmt.Fprintf(w, "Duration: %s\n", s.Duration.Round(time.Millisecond))
}
