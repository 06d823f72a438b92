// Package uploads stores resized images sent with multipart requests and
// turns stored names into public URLs.
package uploads

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"eshop/apperr"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	Products   = "products"
	Brands     = "brands"
	Users      = "users"
	Categories = "categories"

	width   = 2000
	height  = 1333
	quality = 95
)

type Store struct {
	dir     string
	baseURL string
	now     func() time.Time
}

func NewStore(dir, baseURL string) *Store {
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

func (s *Store) Dir() string { return s.dir }

// Single saves the file of a form field and returns its stored name, or ""
// when the field is absent.
func (s *Store) Single(c *fiber.Ctx, field, folder string) (string, error) {
	if !isMultipart(c) {
		return "", nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	return s.save(fh, folder, 0)
}

// Many saves up to max files of a form field.
func (s *Store) Many(c *fiber.Ctx, field, folder string, max int) ([]string, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	files := form.File[field]
	if len(files) > max {
		return nil, apperr.BadRequest("Too many files for %s, at most %d allowed", field, max)
	}

	names := make([]string, 0, len(files))
	for i, fh := range files {
		name, err := s.save(fh, folder, i+1)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

func (s *Store) save(fh *multipart.FileHeader, folder string, index int) (string, error) {
	if !strings.HasPrefix(fh.Header.Get(fiber.HeaderContentType), "image") {
		return "", apperr.BadRequest("Only images are allowed")
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return "", apperr.BadRequest("Only images are allowed")
	}
	img = imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	dir := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s-%d.jpeg", folder, uuid.NewString(), s.now().UnixMilli())
	if index > 0 {
		name = fmt.Sprintf("%s-%s-%d-%d.jpeg", folder, uuid.NewString(), s.now().UnixMilli(), index)
	}

	if err := imaging.Save(img, filepath.Join(dir, name), imaging.JPEGQuality(quality)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return name, nil
}

// URL is the public address of a stored name. Empty names and absolute
// URLs are returned unchanged.
func (s *Store) URL(folder, name string) string {
	if name == "" || strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return name
	}
	return fmt.Sprintf("%s/uploads/%s/%s", s.baseURL, folder, name)
}

func (s *Store) URLs(folder string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = s.URL(folder, n)
	}
	return out
}
