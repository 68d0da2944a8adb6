package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stayfinder-service/domain"
	"stayfinder-service/services"
)

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formFiles opens every file sent under field. The returned closer must be
// called once the uploads have been consumed.
func formFiles(c *gin.Context, field string) ([]*services.FileUpload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, domain.InvalidRequest("Invalid multipart form")
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	uploads := make([]*services.FileUpload, 0, len(form.File[field]))
	for _, fh := range form.File[field] {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, noop, domain.InvalidRequest("Could not read uploaded file " + fh.Filename)
		}
		opened = append(opened, f)
		uploads = append(uploads, &services.FileUpload{Name: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}

// formFile opens the single file sent under field, or returns nil when none was sent.
func formFile(c *gin.Context, field string) (*services.FileUpload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, domain.InvalidRequest("Invalid multipart form")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, domain.InvalidRequest("Could not read uploaded file " + fh.Filename)
	}
	return &services.FileUpload{Name: fh.Filename, Content: f}, func() { _ = f.Close() }, nil
}
