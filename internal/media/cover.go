package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// Cover crops album artwork to a centered square, matching what players
// expect for folder art. Failures leave the original file untouched.
type Cover struct{}

func NewCover() *Cover {
	return &Cover{}
}

func (c *Cover) CropToSquare(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read artwork %s: %w", file, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode artwork %s: %w", file, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == h {
		return nil
	}
	side := w
	if h < side {
		side = h
	}
	x0 := bounds.Min.X + (w-side)/2
	y0 := bounds.Min.Y + (h-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Copy(dst, image.Point{}, img, image.Rect(x0, y0, x0+side, y0+side), draw.Src, nil)

	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(file)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return fmt.Errorf("encode artwork %s: %w", file, err)
	}

	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write artwork %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, file); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace artwork %s: %w", file, err)
	}
	return nil
}
