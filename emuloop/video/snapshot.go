package video

import (
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// EncodePNG writes the frame as a PNG image.
func EncodePNG(w io.Writer, frame *FrameBuffer) error {
	if err := png.Encode(w, frame.Image()); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// SavePNG saves a frame as PNG with a timestamp to directory, or to the
// working directory if directory is empty. Returns the written path.
func SavePNG(frame *FrameBuffer, baseName, directory string) (string, error) {
	if frame == nil {
		return "", fmt.Errorf("no frame data available for snapshot")
	}

	outputDir := directory
	if outputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		outputDir = cwd
	}

	timestamp := time.Now().Format("20060102_150405")
	filePath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", baseName, timestamp))

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	if err := EncodePNG(file, frame); err != nil {
		return "", err
	}

	slog.Info("Snapshot saved", "path", filePath, "size", fmt.Sprintf("%dx%d", frame.Width(), frame.Height()), "format", "PNG")
	return filePath, nil
}
