package controllers

import (
	"fmt"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/services"
)

type mediaKind string

const (
	mediaPhoto    mediaKind = "photo"
	mediaDocument mediaKind = "document"
)

// Size limits in bytes
var uploadLimits = map[mediaKind]int64{
	mediaPhoto:    10 * 1024 * 1024,
	mediaDocument: 25 * 1024 * 1024,
}

// MaxUploadMemory bounds the multipart form kept in memory per request.
const MaxUploadMemory = 32 << 20

func isValidFileSize(size int64, kind mediaKind) bool {
	limit, ok := uploadLimits[kind]
	return ok && size > 0 && size <= limit
}

// formFile opens a multipart file for the services layer. The caller closes
// the returned file.
func formFile(c *gin.Context, field string, kind mediaKind) (*services.Upload, multipart.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, services.FieldError(field, "No file was submitted.")
	}
	if !isValidFileSize(header.Size, kind) {
		return nil, nil, services.FieldError(field,
			fmt.Sprintf("File size must be between 1 byte and %d MB.", uploadLimits[kind]>>20))
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}
	return &services.Upload{
		FileName:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, file, nil
}
