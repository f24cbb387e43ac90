// Package testutil provides shared test helpers and detection fixtures.
//
// This package centralises common assertions and fixture builders to
// reduce duplication across test files.
package testutil

import (
	"testing"

	"github.com/ilpeppino/scanium-sub009/internal/catalog"
	"github.com/ilpeppino/scanium-sub009/internal/geom"
	"github.com/ilpeppino/scanium-sub009/internal/track"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Thumbnail builds a square test thumbnail of the given pixel size.
func Thumbnail(size int) *track.Thumbnail {
	return &track.Thumbnail{
		Data:     []byte{0xde, 0xad, 0xbe, 0xef},
		MIMEType: "image/jpeg",
		Width:    size,
		Height:   size,
	}
}

// Detection builds a fashion-category detection fixture with a 200px
// thumbnail.
func Detection(trackingID string, box geom.NormalizedRect, confidence float64) track.DetectionInfo {
	return track.DetectionInfo{
		TrackingID: trackingID,
		Box:        box,
		Confidence: confidence,
		Category:   track.CategoryFashion,
		Thumbnail:  Thumbnail(200),
	}
}

// Item builds a catalog item fixture.
func Item(id string, category track.Category, box geom.NormalizedRect, thumbSize int) catalog.ScannedItem {
	return catalog.ScannedItem{
		ID:         id,
		Category:   category,
		Confidence: 0.8,
		Box:        box,
		Thumbnail:  Thumbnail(thumbSize),
		Listing:    catalog.ListingInfo{Status: catalog.ListingNone},
	}
}
