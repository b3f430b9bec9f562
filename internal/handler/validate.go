package handler

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"sort"
	"strings"

	// Decoders for every accepted upload format.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// allowedExtensions are the upload file types accepted by /analyze.
var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"bmp":  true,
	"tiff": true,
}

var (
	errNoFilename         = errors.New("no file provided")
	errFileTypeNotAllowed = errors.New("file type not allowed")
)

// AllowedExtensionList returns the accepted extensions in a stable order.
func AllowedExtensionList() []string {
	list := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		list = append(list, ext)
	}
	sort.Strings(list)
	return list
}

// allowedFile reports whether filename has an accepted extension.
func allowedFile(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return ext != "" && allowedExtensions[ext]
}

// validateFilename checks the name of an uploaded file.
func validateFilename(filename string) error {
	if filename == "" {
		return errNoFilename
	}
	if !allowedFile(filename) {
		return fmt.Errorf("%w: %q", errFileTypeNotAllowed, filepath.Ext(filename))
	}
	return nil
}

// decodeImage decodes the upload. The format is taken from the content, not
// the extension.
func decodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("file is not a valid image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, "", errors.New("image has no pixels")
	}
	return img, format, nil
}
