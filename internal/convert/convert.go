// Package convert turns reMarkable stroke files into PNG images by chaining
// rmc (stroke to SVG) and Inkscape (SVG to PNG).
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/deardayone/internal/logger"
	"github.com/mrlokans/deardayone/internal/runner"
	"github.com/mrlokans/deardayone/internal/utils"
)

const (
	ToolRmc      = "rmc"
	ToolInkscape = "inkscape"
)

// ConversionError reports a failed conversion stage with the tool's own diagnostic.
type ConversionError struct {
	Tool    string
	Message string
	Err     error // set when the tool could not be started
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s conversion failed: %s", e.Tool, e.Message)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Job describes the files involved in converting one page. The vector and
// raster files share a base name and directory.
type Job struct {
	PageID     string
	StrokePath string
	VectorPath string
	RasterPath string
}

// NewJob lays out the artifacts of a page conversion inside workDir.
func NewJob(workDir, pageID, strokePath string) Job {
	raster := filepath.Join(workDir, utils.SanitizeFilename(pageID)+".png")
	return Job{
		PageID:     pageID,
		StrokePath: strokePath,
		VectorPath: VectorPath(raster),
		RasterPath: raster,
	}
}

// VectorPath returns the intermediate SVG path for a raster output path.
func VectorPath(rasterPath string) string {
	return strings.TrimSuffix(rasterPath, filepath.Ext(rasterPath)) + ".svg"
}

// Pipeline runs the two conversion stages.
type Pipeline struct {
	RmcBin      string
	InkscapeBin string
	runner      runner.Runner
}

// NewPipeline creates a Pipeline invoking the given binaries through r
func NewPipeline(rmcBin, inkscapeBin string, r runner.Runner) *Pipeline {
	return &Pipeline{
		RmcBin:      rmcBin,
		InkscapeBin: inkscapeBin,
		runner:      r,
	}
}

// Convert renders the stroke file at strokePath to a PNG at rasterPath and
// returns rasterPath. The intermediate SVG is written next to the PNG and
// removed once the PNG exists. Failures are not retried.
func (p *Pipeline) Convert(ctx context.Context, strokePath, rasterPath string) (string, error) {
	svgPath := VectorPath(rasterPath)

	result, err := p.runner.Run(ctx, p.RmcBin, "-t", "svg", strokePath, "-o", svgPath)
	if err != nil {
		return "", &ConversionError{Tool: ToolRmc, Message: err.Error(), Err: err}
	}
	if !result.Success() {
		// rmc prints a traceback; the actionable message is its last line
		msg := utils.LastNonEmptyLine(result.Stderr)
		if msg == "" {
			msg = "unknown error"
		}
		return "", &ConversionError{Tool: ToolRmc, Message: msg}
	}

	result, err = p.runner.Run(ctx, p.InkscapeBin,
		"--export-type=png",
		"--export-filename="+rasterPath,
		svgPath,
	)
	if err != nil {
		return "", &ConversionError{Tool: ToolInkscape, Message: err.Error(), Err: err}
	}
	if !result.Success() {
		return "", &ConversionError{Tool: ToolInkscape, Message: strings.TrimSpace(result.Stderr)}
	}
	if _, err := os.Stat(rasterPath); err != nil {
		return "", &ConversionError{Tool: ToolInkscape, Message: "no image written to " + rasterPath, Err: err}
	}

	if err := os.Remove(svgPath); err != nil {
		logger.Debug("Could not remove intermediate SVG", logger.Fields{"path": svgPath, "error": err.Error()})
	}

	return rasterPath, nil
}
