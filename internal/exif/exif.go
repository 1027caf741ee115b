// Package exif pulls capture metadata out of photo bytes. Photos without
// EXIF blocks (screenshots, stripped uploads, PNGs) are common, so
// everything here degrades to empty fields instead of failing.
package exif

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/your-org/faceid/internal/models"
)

// Parse extracts capture time, GPS position and camera identity. It never
// returns an error: missing or malformed EXIF yields zero-value metadata.
func Parse(imageBytes []byte) models.PhotoMetadata {
	var meta models.PhotoMetadata

	x, err := exif.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return meta
	}

	if t, err := x.DateTime(); err == nil {
		meta.TakenAt = &t
	}

	if lat, lng, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &lng
	}

	if make := tagString(x, exif.Make); make != "" {
		meta.CameraMake = &make
	}
	if model := tagString(x, exif.Model); model != "" {
		meta.CameraModel = &model
	}

	return meta
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
