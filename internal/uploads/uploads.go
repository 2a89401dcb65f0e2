// Package uploads stores item photos on disk next to a JPEG thumbnail used
// by the board listings.
package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
	"golang.org/x/text/unicode/norm"
)

// ThumbMaxDimension is the maximum width or height of a thumbnail.
const ThumbMaxDimension = 400

// JPEGQuality is the compression quality for thumbnails.
const JPEGQuality = 85

// ThumbDir is the subdirectory thumbnails are written to.
const ThumbDir = "thumbs"

// maxNameAttempts bounds the numbered variants Save tries when a stored name
// is taken.
const maxNameAttempts = 100

// extensions maps each accepted extension to the format image.DecodeConfig
// reports for it.
var extensions = map[string]string{
	"png":  "png",
	"jpg":  "jpeg",
	"jpeg": "jpeg",
	"gif":  "gif",
	"webp": "webp",
}

// ErrNotAllowed is returned by Save for files that are not accepted images.
// Callers skip the image and carry on.
var ErrNotAllowed = errors.New("file type not allowed")

// extension returns the lowercased extension of filename without the dot.
func extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// Allowed reports whether filename has an accepted image extension.
func Allowed(filename string) bool {
	_, ok := extensions[extension(filename)]
	return ok
}

// SecureFilename reduces name to a flat ASCII filename that is safe to join
// onto a directory. The result may be empty.
func SecureFilename(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	name = strings.NewReplacer("/", " ", `\`, " ").Replace(b.String())
	name = strings.Join(strings.Fields(name), "_")

	b.Reset()
	for _, r := range name {
		if r == '_' || r == '.' || r == '-' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}

// StoredName is the name an upload from ownerID is stored under.
func StoredName(ownerID int64, now time.Time, original string) string {
	name := SecureFilename(original)
	if !Allowed(name) {
		name = "image." + extension(original)
	}
	return fmt.Sprintf("%d_%s_%s", ownerID, now.Format("20060102_150405"), name)
}

// Store keeps uploaded images in Dir.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, ThumbDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating upload folder: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Path returns the on-disk path of a stored image.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

// ThumbPath returns the on-disk path of a stored image's thumbnail.
func (s *Store) ThumbPath(name string) string {
	return filepath.Join(s.Dir, ThumbDir, filepath.Base(name)+".jpg")
}

// Save validates and writes the upload read from r and returns the stored
// filename. It returns ErrNotAllowed when the extension is not accepted or
// the bytes do not decode as the format the extension names.
func (s *Store) Save(ownerID int64, original string, r io.Reader, now time.Time) (string, error) {
	want, ok := extensions[extension(original)]
	if !ok {
		return "", ErrNotAllowed
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}

	// Sniff the actual format from the bytes, not the client's name.
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotAllowed, err)
	}
	if format != want {
		return "", fmt.Errorf("%w: %s content in .%s file", ErrNotAllowed, format, extension(original))
	}

	name, err := s.writeNew(StoredName(ownerID, now, original), data)
	if err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}

	if err := s.writeThumbnail(name, data); err != nil {
		slog.Warn("failed to create thumbnail", "file", name, "error", err)
	}

	return name, nil
}

// writeNew writes data under name, or under name-1, name-2 and so on when
// that file already exists, and returns the name used. Existing files are
// never overwritten.
func (s *Store) writeNew(name string, data []byte) (string, error) {
	stem, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		stem, ext = name[:i], name[i:]
	}

	for n := 0; n < maxNameAttempts; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s-%d%s", stem, n, ext)
		}

		f, err := os.OpenFile(s.Path(candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}

		_, err = f.Write(data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(f.Name())
			return "", err
		}
		return candidate, nil
	}
	return "", fmt.Errorf("no free name for %s", name)
}

func (s *Store) writeThumbnail(name string, data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, downscale(img, ThumbMaxDimension), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return fmt.Errorf("encoding JPEG: %w", err)
	}
	return os.WriteFile(s.ThumbPath(name), buf.Bytes(), 0o644)
}

// Remove deletes a stored image and its thumbnail. Missing files are ignored.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}

	var result *multierror.Error
	for _, path := range []string{s.Path(name), s.ThumbPath(name)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// downscale resizes the image so neither dimension exceeds maxDim, onto a
// white background since JPEG has no alpha. Uses Catmull-Rom interpolation.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	newW, newH := w, h
	if w > maxDim || h > maxDim {
		// Calculate new dimensions preserving aspect ratio.
		if w > h {
			newW = maxDim
			newH = int(float64(h) * float64(maxDim) / float64(w))
		} else {
			newH = maxDim
			newW = int(float64(w) * float64(maxDim) / float64(h))
		}
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
