package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuya-takeyama/strict-image-resize/pkg/errs"
	"github.com/yuya-takeyama/strict-image-resize/pkg/pipeline"
	"github.com/yuya-takeyama/strict-image-resize/pkg/publisher"
	"github.com/yuya-takeyama/strict-image-resize/pkg/s3client"
)

// PlanResult represents the planned operations before execution
type PlanResult struct {
	Files   []PlanFile  `json:"files"`
	Summary PlanSummary `json:"summary"`
}

type PlanFile struct {
	Action  string   `json:"action"` // "render", "skip"
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
	Reason  string   `json:"reason"`
}

type PlanSummary struct {
	Render int `json:"render"`
	Skip   int `json:"skip"`
}

// SyncResult represents the actual execution results
type SyncResult struct {
	Files   []ResultFile  `json:"files"`
	Errors  []ErrorFile   `json:"errors"`
	Summary ResultSummary `json:"summary"`
}

type ResultFile struct {
	Action string `json:"action"` // "rendered", "uploaded"
	Source string `json:"source"`
	Target string `json:"target"`
}

type ErrorFile struct {
	Action string `json:"action"` // "probe", "render", "upload"
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
	Error  string `json:"error"`
}

type ResultSummary struct {
	Rendered int `json:"rendered"`
	Uploaded int `json:"uploaded"`
	Failed   int `json:"failed"`
}

func buildPlanResult(report *pipeline.Report) PlanResult {
	plan := PlanResult{Files: []PlanFile{}}

	for _, v := range report.Verdicts {
		if v.Err != nil {
			continue
		}
		file := PlanFile{
			Action:  "skip",
			Source:  getAbsolutePath(v.Task.Input.InputPath),
			Targets: make([]string, 0, len(v.Task.Outputs)),
			Reason:  v.Reason,
		}
		for _, p := range v.Task.OutputPaths() {
			file.Targets = append(file.Targets, getAbsolutePath(p))
		}
		if v.Stale {
			file.Action = "render"
			plan.Summary.Render++
		} else {
			plan.Summary.Skip++
		}
		plan.Files = append(plan.Files, file)
	}

	return plan
}

func buildSyncResult(report *pipeline.Report, uploads []publisher.Result, dest *target) SyncResult {
	result := SyncResult{
		Files:  []ResultFile{},
		Errors: []ErrorFile{},
	}

	for _, res := range report.Results {
		if res.Error != nil {
			result.Errors = append(result.Errors, ErrorFile{
				Action: "render",
				Source: getAbsolutePath(res.Input.InputPath),
				Target: getAbsolutePath(res.Output.Path),
				Error:  res.Error.Error(),
			})
			result.Summary.Failed++
			continue
		}
		result.Files = append(result.Files, ResultFile{
			Action: "rendered",
			Source: getAbsolutePath(res.Input.InputPath),
			Target: getAbsolutePath(res.Output.Path),
		})
		result.Summary.Rendered++
	}

	// probe and stat failures never reach the executor
	for _, failure := range report.Failures {
		if errors.Is(failure, errs.ErrRender) {
			continue
		}
		file := ErrorFile{Action: "probe", Error: failure.Error()}
		var e *errs.Error
		if errors.As(failure, &e) && e.Path != "" {
			file.Source = getAbsolutePath(e.Path)
		}
		result.Errors = append(result.Errors, file)
		result.Summary.Failed++
	}

	for _, up := range uploads {
		file := ResultFile{
			Action: "uploaded",
			Source: getAbsolutePath(up.LocalPath),
		}
		if up.Key != "" {
			file.Target = formatS3Path(dest.bucket, up.Key)
		}
		if up.Error != nil {
			result.Errors = append(result.Errors, ErrorFile{
				Action: "upload",
				Source: file.Source,
				Target: file.Target,
				Error:  up.Error.Error(),
			})
			result.Summary.Failed++
			continue
		}
		result.Files = append(result.Files, file)
		result.Summary.Uploaded++
	}

	return result
}

func renderedPaths(report *pipeline.Report) []string {
	rendered := report.Rendered()
	paths := make([]string, len(rendered))
	for i, res := range rendered {
		paths[i] = res.Output.Path
	}
	return paths
}

func writePlanResult(path string, report *pipeline.Report) error {
	return writeJSON(path, buildPlanResult(report))
}

func writeSyncResult(path string, result SyncResult) error {
	return writeJSON(path, result)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// uploadKey is the object key an output would get, used for dry-run logging
func uploadKey(outputDir, prefix, localPath string) string {
	rel, err := filepath.Rel(outputDir, localPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return s3client.Key(prefix, filepath.ToSlash(filepath.Base(localPath)))
	}
	return s3client.Key(prefix, filepath.ToSlash(rel))
}

func getAbsolutePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path // fallback to original path
	}
	return absPath
}

func formatS3Path(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}
