// Package document turns an uploaded identity document into a single
// bounded-size RGB image ready for transmission to the oracle.
package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedFileType rejects uploads outside the extension allow-list.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrPDFRender is returned when the first PDF page cannot be rasterized.
	ErrPDFRender = errors.New("pdf render failed")
	// ErrImageEncoding is returned when the normalized image cannot be re-encoded.
	ErrImageEncoding = errors.New("image encoding failed")
)

const (
	// MaxDimension bounds the longest side of the normalized image.
	MaxDimension = 1024
	// pdfRenderDPI is the rasterization resolution for the first PDF page.
	pdfRenderDPI = 300

	jpegQuality = 85
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".pdf":  true,
}

// Normalized is the transient transmission-ready form of an upload: a flat
// RGB JPEG no larger than MaxDimension on its longest side, base64-encoded.
type Normalized struct {
	Base64   string
	MIMEType string
	Width    int
	Height   int
}

// Normalize converts an uploaded document into a Normalized image. PDFs have
// only their first page rasterized; raster inputs are decoded directly. The
// result is downscaled (never upscaled) and flattened over white before
// JPEG encoding.
func Normalize(data []byte, filename string) (*Normalized, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	var img image.Image
	var err error
	if ext == ".pdf" {
		img, err = renderFirstPage(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			err = fmt.Errorf("%w: decode %s: %v", ErrImageEncoding, ext, err)
		}
	}
	if err != nil {
		return nil, err
	}

	flat := flatten(shrinkToFit(img))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageEncoding, err)
	}

	b := flat.Bounds()
	return &Normalized{
		Base64:   base64.StdEncoding.EncodeToString(buf.Bytes()),
		MIMEType: "image/jpeg",
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// renderFirstPage rasterizes page one of a PDF at pdfRenderDPI. The MuPDF
// document handle is the only scoped resource and is released on every exit
// path.
func renderFirstPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFRender, err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrPDFRender)
	}
	img, err := doc.ImageDPI(0, pdfRenderDPI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFRender, err)
	}
	return img, nil
}

// shrinkToFit downscales img so neither dimension exceeds MaxDimension,
// preserving aspect ratio. Images already within bounds pass through.
func shrinkToFit(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= MaxDimension {
		return img
	}

	scale := float64(MaxDimension) / float64(longest)
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// flatten composites img over a white background, dropping any alpha channel
// or palette so the oracle transport receives a flat 3-channel image.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
