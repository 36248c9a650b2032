package resolution

import (
	"fmt"
	"strconv"
	"strings"
)

type Resolution struct {
	Width  int
	Height int
}

func EmptyResolution() Resolution {
	return Resolution{Width: 0, Height: 0}
}

func Resolution240p() Resolution {
	return Resolution{Width: 426, Height: 240}
}
func Resolution360p() Resolution {
	return Resolution{Width: 640, Height: 360}
}
func Resolution480p() Resolution {
	return Resolution{Width: 854, Height: 480}
}
func Resolution720p() Resolution {
	return Resolution{Width: 1280, Height: 720}
}
func Resolution1080p() Resolution {
	return Resolution{Width: 1920, Height: 1080}
}

// Returns the string representation of this Resolution (e.g. 640x480)
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Format replaces "w" with the width and "h" with the height, e.g. "scale=w:h"
func (r Resolution) Format(formatString string) string {
	result := strings.ReplaceAll(formatString, "w", strconv.Itoa(r.Width))
	return strings.ReplaceAll(result, "h", strconv.Itoa(r.Height))
}

// IsEmpty checks if the resolution is empty (both width and height are zero).
func (r Resolution) IsEmpty() bool {
	return r.Width == 0 && r.Height == 0
}

// Fit returns the largest size with the aspect ratio of (width, height) that fits inside r.
// Both dimensions are rounded down to even numbers, which most encoders require.
// Bounds with a zero dimension, or a source already inside the bounds, return the source size unchanged.
func (r Resolution) Fit(width, height int) Resolution {
	if r.Width <= 0 || r.Height <= 0 || width <= 0 || height <= 0 {
		return Resolution{Width: width, Height: height}
	}
	if width <= r.Width && height <= r.Height {
		return Resolution{Width: width, Height: height}
	}

	var w, h int
	if r.Width*height <= r.Height*width {
		w = r.Width
		h = height * r.Width / width
	} else {
		h = r.Height
		w = width * r.Height / height
	}
	w -= w % 2
	h -= h % 2
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	return Resolution{Width: w, Height: h}
}

// Parse converts a string representation of a resolution (e.g., "1920x1080") into a Resolution struct.
// Supported formats:
// - "1920x1080"
// - "1920:1080"
// - "1080p" (interpreted as 1920x1080)
// - "720p" (interpreted as 1280x720)
// An empty string yields the empty resolution.
func Parse(resolutionStr string) (Resolution, error) {
	resolutionStr = strings.ToLower(strings.TrimSpace(resolutionStr))
	if resolutionStr == "" {
		return EmptyResolution(), nil
	}

	var res Resolution
	var err error
	switch {
	case strings.Contains(resolutionStr, "x"):
		res, err = parseDimensions(resolutionStr)
	case strings.Contains(resolutionStr, ":"):
		res, err = parseDimensions(strings.ReplaceAll(resolutionStr, ":", "x"))
	case strings.HasSuffix(resolutionStr, "p"):
		res, err = parsePreset(resolutionStr)
	default:
		err = fmt.Errorf("invalid resolution format: %s", resolutionStr)
	}
	if err != nil {
		return Resolution{}, err
	}
	return res, nil
}

func parseDimensions(dimStr string) (Resolution, error) {
	parts := strings.Split(dimStr, "x")
	if len(parts) != 2 {
		return Resolution{}, fmt.Errorf("invalid dimensions: %s", dimStr)
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil || width < 0 {
		return Resolution{}, fmt.Errorf("invalid width: %s", parts[0])
	}

	height, err := strconv.Atoi(parts[1])
	if err != nil || height < 0 {
		return Resolution{}, fmt.Errorf("invalid height: %s", parts[1])
	}

	return Resolution{Width: width, Height: height}, nil
}

func parsePreset(preset string) (Resolution, error) {
	switch preset {
	case "1080p":
		return Resolution1080p(), nil
	case "720p":
		return Resolution720p(), nil
	case "480p":
		return Resolution480p(), nil
	case "360p":
		return Resolution360p(), nil
	case "240p":
		return Resolution240p(), nil
	default:
		return Resolution{}, fmt.Errorf("unsupported resolution preset: %s", preset)
	}
}
