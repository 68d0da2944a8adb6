package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrNotConfigured = errors.New("image storage is not configured")

var versionSegment = regexp.MustCompile(`^v\d+$`)

// Cloudinary stores avatars and listing photos. Without credentials it
// refuses uploads and ignores deletes.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *logrus.Logger
	Tracer trace.Tracer
}

func New(cloudName, apiKey, apiSecret, folder string, logger *logrus.Logger, tracer trace.Tracer) (*Cloudinary, error) {
	store := &Cloudinary{folder: folder, logger: logger, Tracer: tracer}
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		logger.WithFields(logrus.Fields{"path": "storage/cloudinary"}).Warn("Cloudinary credentials missing, uploads disabled")
		return store, nil
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	store.cld = cld
	return store, nil
}

func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, name string) (string, error) {
	ctx, span := c.Tracer.Start(ctx, "Cloudinary.Upload")
	defer span.End()

	if c.cld == nil {
		span.SetStatus(codes.Error, ErrNotConfigured.Error())
		return "", ErrNotConfigured
	}
	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: c.folder})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if resp.Error.Message != "" {
		span.SetStatus(codes.Error, resp.Error.Message)
		return "", fmt.Errorf("upload %s: %s", name, resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (c *Cloudinary) Delete(ctx context.Context, imageURL string) error {
	ctx, span := c.Tracer.Start(ctx, "Cloudinary.Delete")
	defer span.End()

	if c.cld == nil {
		return nil
	}
	publicID, ok := PublicIDFromURL(imageURL)
	if !ok {
		return nil
	}
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		span.SetStatus(codes.Error, resp.Error.Message)
		return fmt.Errorf("destroy %s: %s", publicID, resp.Error.Message)
	}
	return nil
}

// PublicIDFromURL extracts the asset id from a Cloudinary delivery URL,
// e.g. .../image/upload/v1712/stayfinder/abc.jpg gives stayfinder/abc.
func PublicIDFromURL(imageURL string) (string, bool) {
	u, err := url.Parse(imageURL)
	if err != nil || !strings.HasSuffix(u.Host, "cloudinary.com") {
		return "", false
	}
	_, rest, found := strings.Cut(u.Path, "/upload/")
	if !found || rest == "" {
		return "", false
	}
	segments := strings.Split(rest, "/")
	for i, s := range segments {
		if versionSegment.MatchString(s) {
			segments = segments[i+1:]
			break
		}
	}
	if len(segments) == 0 {
		return "", false
	}
	id := strings.Join(segments, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	if id == "" {
		return "", false
	}
	return id, true
}
