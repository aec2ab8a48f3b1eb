package storage

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// MIME type constants.
const (
	MIMEOctetStream    = "application/octet-stream"
	MIMETextPlain      = "text/plain; charset=utf-8"
	mimeDetectionBytes = 512 // http.DetectContentType looks at up to 512 bytes
)

// documentTypes maps document extensions to their MIME types.
// These are sent as-is; everything else falls back to an image type.
var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odt":  "application/vnd.oasis.opendocument.text",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".rtf":  "application/rtf",
	".zip":  "application/zip",
}

// mediaTypes maps well-known image, audio and video extensions.
var mediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".ico":  "image/x-icon",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
}

// mimeExtensions maps MIME types to preferred file extensions for generated keys.
var mimeExtensions = map[string]string{
	"text/plain":       ".txt",
	"text/csv":         ".csv",
	"application/json": ".json",
	"application/pdf":  ".pdf",
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
}

// MIMEFromFilename infers an attachment content type from the file extension.
// Known documents and media map to their types. An unknown extension becomes
// image/<ext>; a name without an extension becomes application/octet-stream.
func MIMEFromFilename(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || ext == "." {
		return MIMEOctetStream
	}
	if mt, ok := documentTypes[ext]; ok {
		return mt
	}
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	return "image/" + strings.TrimPrefix(ext, ".")
}

// SplitMIME returns the major type and subtype of a MIME type, without parameters.
func SplitMIME(mimeType string) (major, sub string) {
	major, sub, _ = strings.Cut(normalizeMIME(mimeType), "/")
	return major, sub
}

// IsDocumentFilename reports whether name has a known document extension.
func IsDocumentFilename(name string) bool {
	_, ok := documentTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ExtFromMIME returns the file extension for a MIME type, or "" if unknown.
func ExtFromMIME(mimeType string) string {
	return mimeExtensions[normalizeMIME(mimeType)]
}

// detectMIMEWithReader sniffs the content type and returns a seekable reader.
// AWS SDK v2 needs io.ReadSeeker to compute the payload hash.
func detectMIMEWithReader(r io.Reader) (string, io.ReadSeeker) {
	if rs, ok := r.(io.ReadSeeker); ok {
		buf := make([]byte, mimeDetectionBytes)
		n, _ := rs.Read(buf)
		_, _ = rs.Seek(0, io.SeekStart)
		if n > 0 {
			return http.DetectContentType(buf[:n]), rs
		}
		return MIMEOctetStream, rs
	}

	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return MIMEOctetStream, bytes.NewReader(nil)
	}
	return http.DetectContentType(data), bytes.NewReader(data)
}

// normalizeMIME strips parameters such as charset and lowercases the type.
func normalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}
