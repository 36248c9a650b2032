package common

import (
	"path/filepath"
	"strings"
)

// CodecToFileExtension maps a capture fourcc to the container extension it is usually stored in.
func CodecToFileExtension(codec string) string {
	codec = strings.ToUpper(codec)
	switch codec {
	case "MJPG":
		return ".avi" // MJPG is typically stored in AVI containers
	case "MP4V":
		return ".mp4"
	case "AVC1", "H264", "X264":
		return ".mp4"
	case "YUYV":
		return ".avi" // Raw formats typically use AVI
	case "VP80", "VP90":
		return ".webm"
	default:
		// Default to avi for most capture codecs
		return ".avi"
	}
}

// NormalizeExtension lower-cases a container format and ensures a single leading dot.
func NormalizeExtension(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	format = strings.TrimLeft(format, ".")
	if format == "" {
		return ""
	}
	return "." + format
}

// VideoFormatToMimeType returns the MIME type for a video container format
func VideoFormatToMimeType(format string) string {
	format = strings.ToLower(format)
	format = strings.TrimPrefix(format, ".") // Remove leading dot if present
	switch format {
	case "mp4":
		return "video/mp4"
	case "avi":
		return "video/x-msvideo"
	case "mkv":
		return "video/x-matroska"
	case "webm":
		return "video/webm"
	case "mov":
		return "video/quicktime"
	default:
		// Default to mp4 if unknown format
		return "video/mp4"
	}
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".mov":  true,
}

// IsVideoFile reports whether path has the extension of a container clipshot can read
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}
