package storage

import (
	"fmt"
	"strings"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
)

// Kind groups the uploads the CRM accepts.
type Kind string

const (
	KindSpreadsheet Kind = "spreadsheet"
	KindAudio       Kind = "audio"
)

var allowedContentTypes = map[Kind]map[string]bool{
	KindSpreadsheet: {
		"text/csv":                 true,
		"text/plain":               true,
		"application/csv":          true,
		"application/vnd.ms-excel": true,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
		"application/octet-stream": true,
	},
	KindAudio: {
		"audio/mpeg":  true,
		"audio/mp4":   true,
		"audio/m4a":   true,
		"audio/x-m4a": true,
		"audio/wav":   true,
		"audio/x-wav": true,
		"audio/ogg":   true,
		"audio/webm":  true,
		"video/webm":  true,
	},
}

// NormalizeContentType drops parameters such as charset.
func NormalizeContentType(contentType string) string {
	normalized := strings.Split(contentType, ";")[0]
	return strings.TrimSpace(strings.ToLower(normalized))
}

func validate(kind Kind, contentType string, sizeBytes, maxSize int64) error {
	allowed, ok := allowedContentTypes[kind]
	if !ok {
		return apperr.Internal(fmt.Sprintf("unknown upload kind %q", kind))
	}
	if !allowed[NormalizeContentType(contentType)] {
		return apperr.Validation(fmt.Sprintf("content type %q is not allowed for %s uploads", contentType, kind))
	}
	if sizeBytes <= 0 {
		return apperr.Validation("file is empty")
	}
	if maxSize > 0 && sizeBytes > maxSize {
		return apperr.TooLarge(fmt.Sprintf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxSize))
	}
	return nil
}

func (s *MinIOService) Validate(kind Kind, contentType string, sizeBytes int64) error {
	return validate(kind, contentType, sizeBytes, s.maxFileSize)
}
