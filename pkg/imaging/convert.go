// Package imaging shrinks images with ImageMagick's convert.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

var ErrConvertNotFound = errors.New("convert not found")

var sizePattern = regexp.MustCompile(`^(\d+x\d*|x\d+|\d+)$`)

// ValidateSize checks an ImageMagick geometry such as "1600x1200", "1600x",
// "x1200" or "1600".
func ValidateSize(size string) error {
	if !sizePattern.MatchString(size) {
		return fmt.Errorf("invalid size %q (expected WIDTHxHEIGHT)", size)
	}
	return nil
}

type Converter struct {
	Path string
}

func NewConverter(path string) *Converter {
	if strings.TrimSpace(path) == "" {
		path = "convert"
	}
	return &Converter{Path: path}
}

// Check verifies that the convert executable can be found.
func (c *Converter) Check(_ context.Context) error {
	if _, err := exec.LookPath(c.Path); err != nil {
		return fmt.Errorf("%w: %s", ErrConvertNotFound, c.Path)
	}
	return nil
}

// Resize writes a JPEG copy of src to dst that fits within size. Only the
// first frame is kept and images already smaller are left at their size.
func (c *Converter) Resize(ctx context.Context, src, dst, size string) error {
	cmd := exec.CommandContext(ctx, c.Path, args(src, dst, size)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	text := strings.TrimSpace(out.String())
	if err != nil {
		if text == "" {
			return fmt.Errorf("convert %s: %w", src, err)
		}
		return fmt.Errorf("convert %s: %w: %s", src, err, text)
	}
	if text != "" {
		return fmt.Errorf("convert %s: %s", src, text)
	}
	return nil
}

func args(src, dst, size string) []string {
	return []string{src, "-delete", "1--1", "-quality", "75%", "-resize", size + ">", dst}
}
