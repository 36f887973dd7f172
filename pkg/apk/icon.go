package apk

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/webp"
)

// StandardIconSize is the density the repository serves icons at.
const StandardIconSize = 144

// IconExtractor pulls launcher icons out of APK files and normalizes them
// to PNG at the standard size.
type IconExtractor struct {
	targetSize uint
}

// NewIconExtractor creates a new icon extractor
func NewIconExtractor() *IconExtractor {
	return &IconExtractor{
		targetSize: StandardIconSize,
	}
}

// ExtractIcon extracts the app icon from an APK file, returning PNG bytes.
func (e *IconExtractor) ExtractIcon(apkPath string) ([]byte, error) {
	reader, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open APK: %w", err)
	}
	defer reader.Close()

	// Densest first.
	iconPriorities := []string{
		"res/mipmap-xxxhdpi/ic_launcher.png",
		"res/mipmap-xxhdpi/ic_launcher.png",
		"res/mipmap-xhdpi/ic_launcher.png",
		"res/mipmap-hdpi/ic_launcher.png",
		"res/drawable-xxxhdpi/ic_launcher.png",
		"res/drawable-xxhdpi/ic_launcher.png",
		"res/drawable-xhdpi/ic_launcher.png",
		"res/drawable-hdpi/ic_launcher.png",
		"res/mipmap-xxxhdpi/ic_launcher.webp",
		"res/mipmap-xxhdpi/ic_launcher.webp",
		"res/mipmap-xhdpi/ic_launcher.webp",
		"res/mipmap-hdpi/ic_launcher.webp",
	}

	for _, iconPath := range iconPriorities {
		for _, file := range reader.File {
			if file.Name != iconPath {
				continue
			}
			iconData, err := readZipEntry(file)
			if err != nil {
				continue
			}
			return e.processIcon(iconData, filepath.Ext(iconPath))
		}
	}

	// No icon at a standard path, take any launcher icon that is not an
	// adaptive-icon layer.
	for _, file := range reader.File {
		if strings.Contains(file.Name, "ic_launcher") &&
			(strings.HasSuffix(file.Name, ".png") || strings.HasSuffix(file.Name, ".webp")) &&
			!strings.Contains(file.Name, "_foreground") &&
			!strings.Contains(file.Name, "_background") {
			iconData, err := readZipEntry(file)
			if err != nil {
				continue
			}
			return e.processIcon(iconData, filepath.Ext(file.Name))
		}
	}

	return nil, fmt.Errorf("no launcher icon found in APK")
}

func readZipEntry(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// processIcon decodes, resizes and re-encodes as PNG.
func (e *IconExtractor) processIcon(iconData []byte, ext string) ([]byte, error) {
	var img image.Image
	var err error

	if ext == ".webp" {
		img, err = webp.Decode(bytes.NewReader(iconData))
		if err != nil {
			return nil, fmt.Errorf("failed to decode webp: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(iconData))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
	}

	resized := resize.Resize(e.targetSize, e.targetSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	return buf.Bytes(), nil
}
