package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Store holds evidence bodies. Metadata lives in the database; the store only
// sees opaque keys.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Backend() Backend
}

type Backend string

const (
	BackendS3     Backend = "s3"
	BackendGCS    Backend = "gcs"
	BackendMemory Backend = "memory"
	BackendNone   Backend = "none"
)

var ErrNotFound = errors.New("object not found")

func ParseBackend(raw string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(raw))); b {
	case "":
		return BackendNone, nil
	case BackendS3, BackendGCS, BackendMemory, BackendNone:
		return b, nil
	default:
		return "", fmt.Errorf("invalid EVIDENCE_STORAGE=%q (allowed: %q, %q, %q, %q)",
			raw, BackendS3, BackendGCS, BackendMemory, BackendNone)
	}
}

// EvidenceKey builds the storage key for an uploaded evidence body.
func EvidenceKey(orgID, periodID, categoryID, uploadID, fileName string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return strings.Join([]string{
		"evidence",
		strings.TrimSpace(orgID),
		sanitizeSegment(periodID),
		sanitizeSegment(categoryID),
		strings.TrimSpace(uploadID),
		name,
	}, "/")
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		return "_"
	}
	return s
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".csv"):
		return "text/csv"
	case strings.HasSuffix(s, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
