package pubcards

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	// Stored uploads are capped at this width. Photo cards ask for 1400px.
	maxImageWidth = 1600
	jpegQuality   = 80
	maxUploadSize = 10 << 20
	uploadsSubdir = "uploads"
)

func (a *App) uploadsDir() string { return filepath.Join(a.staticDir, uploadsSubdir) }

// encodeUpload re-encodes an uploaded image as a JPEG no wider than
// maxImageWidth and describes the result. The file name is derived from
// originalName and may still collide with an existing upload.
func encodeUpload(src io.Reader, originalName string) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}
	img = capWidth(img, maxImageWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return Image{
		Filename:     uploadName(originalName),
		OriginalName: originalName,
		Width:        img.Bounds().Dx(),
		Height:       img.Bounds().Dy(),
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// uploadName is the stored name for an upload called originalName.
func uploadName(originalName string) string {
	stem := Slugify(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if stem == "" {
		stem = "image"
	}
	return stem + ".jpg"
}

// capWidth scales img down to maxW, keeping its aspect ratio.
func capWidth(img image.Image, maxW int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxW {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxW, b.Dy()*maxW/b.Dx()))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// freeFilename returns name, or name with a -2, -3... suffix, such that no
// upload on disk or in the store uses it yet.
func (a *App) freeFilename(name string) string {
	stem := strings.TrimSuffix(name, ".jpg")
	for n := 1; ; n++ {
		candidate := name
		if n > 1 {
			candidate = stem + "-" + strconv.Itoa(n) + ".jpg"
		}
		if _, err := os.Stat(filepath.Join(a.uploadsDir(), candidate)); err == nil {
			continue
		}
		if _, err := a.Store.GetImage(candidate); err != nil {
			return candidate
		}
	}
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := encodeUpload(src, file.Filename)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	img.Filename = a.freeFilename(img.Filename)

	if err := os.MkdirAll(a.uploadsDir(), 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.uploadsDir(), img.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	if err := a.Store.SaveImage(img); err != nil {
		return err
	}
	c.Logger().Infof("uploaded %s (%dx%d, %d bytes)", img.Filename, img.Width, img.Height, img.Size)
	return a.renderImageList(c)
}

// handleImageDelete removes an upload. A site icon pointing at it is reset,
// and cached cards are dropped since they may reference the image.
func (a *App) handleImageDelete(c echo.Context) error {
	filename := cleanFilename(c.Param("filename"))
	if filename == "" {
		return c.String(http.StatusBadRequest, "Filename required")
	}
	if err := os.Remove(filepath.Join(a.uploadsDir(), filename)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.Logger().Warnf("remove upload %s: %v", filename, err)
	}
	if err := a.Store.DeleteImage(filename); err != nil {
		return err
	}
	if icon, err := a.Store.GetSetting(settingSiteIcon); err == nil && icon == filename {
		if err := a.Store.SetSetting(settingSiteIcon, ""); err != nil {
			return err
		}
	}
	a.Cache.Invalidate()
	return a.renderImageList(c)
}

func (a *App) renderImageList(c echo.Context) error {
	images, err := a.Store.ListImages()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminImages(images, CsrfToken(c)))
}

// cleanFilename reduces a request parameter to a bare file name, or "".
func cleanFilename(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == ".." {
		return ""
	}
	return name
}

// handleUploadedImage serves an upload, downscaled to ?w= pixels wide when
// given. Card image URLs carry w, so this is what Twitter fetches. Images
// are never scaled up.
func (a *App) handleUploadedImage(c echo.Context) error {
	filename := cleanFilename(c.Param("filename"))
	if filename == "" {
		return echo.ErrNotFound
	}
	path := filepath.Join(a.uploadsDir(), filename)
	w := c.QueryParam("w")
	if w == "" {
		return c.File(path)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return c.String(http.StatusBadRequest, "Invalid width")
	}
	width = min(width, maxImageWidth)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if errors.Is(err, fs.ErrNotExist) {
		return echo.ErrNotFound
	}
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image")
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("encode resized image: %w", err)
	}
	return c.Blob(http.StatusOK, "image/jpeg", buf.Bytes())
}
