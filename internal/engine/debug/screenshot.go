package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// ScreenshotCapture writes color screenshots and cascade depth dumps as PNG.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewScreenshotCapture creates a new screenshot capture handler.
func NewScreenshotCapture(outputDir, prefix string) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// CaptureFromPixels saves RGBA pixel data read back from OpenGL.
// The image is flipped vertically since OpenGL has origin at bottom-left.
func (sc *ScreenshotCapture) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], pixels[src:src+rowSize])
	}
	return sc.save(img, "")
}

// CaptureDepth saves one cascade's depth map as a grayscale image.
func (sc *ScreenshotCapture) CaptureDepth(cascade int, depth []float32, size int) (string, error) {
	img, err := DepthImage(depth, size)
	if err != nil {
		return "", err
	}
	return sc.save(img, fmt.Sprintf("cascade%d", cascade))
}

// DepthImage converts a square bottom-up depth buffer in [0, 1] to a
// top-down grayscale image. Near is black, far is white.
func DepthImage(depth []float32, size int) (*image.Gray, error) {
	if len(depth) != size*size {
		return nil, fmt.Errorf("depth data size mismatch: expected %d, got %d", size*size, len(depth))
	}
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		row := depth[(size-1-y)*size : (size-y)*size]
		for x, d := range row {
			img.SetGray(x, y, color.Gray{Y: uint8(min(max(d, 0), 1)*255 + 0.5)})
		}
	}
	return img, nil
}

// GenerateFilename generates a screenshot filename without saving.
func (sc *ScreenshotCapture) GenerateFilename(tag string) string {
	name := sc.prefix
	if tag != "" {
		name += "_" + tag
	}
	filename := fmt.Sprintf("%s_%s.png", name, sc.now().Format("2006-01-02_15-04-05"))
	if sc.outputDir != "" {
		filename = filepath.Join(sc.outputDir, filename)
	}
	return filename
}

func (sc *ScreenshotCapture) save(img image.Image, tag string) (string, error) {
	if sc.outputDir != "" {
		if err := os.MkdirAll(sc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := sc.GenerateFilename(tag)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, nil
}
