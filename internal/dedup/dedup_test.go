package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpeppino/scanium-sub009/internal/geom"
	"github.com/ilpeppino/scanium-sub009/internal/track"
)

func thumb(size int) *track.Thumbnail {
	return &track.Thumbnail{Data: []byte{0xff}, MIMEType: "image/jpeg", Width: size, Height: size}
}

func sighting(category track.Category, box geom.NormalizedRect, thumbSize int) Sighting {
	s := Sighting{Category: category, Box: box}
	if thumbSize > 0 {
		s.Thumbnail = thumb(thumbSize)
	}
	return s
}

func TestSightingFromCandidate(t *testing.T) {
	t.Parallel()

	cand := track.ObjectCandidate{
		InternalID: "cand_1",
		Category:   track.CategoryFashion,
		Box:        geom.NewRect(0.1, 0.1, 0.2, 0.2),
		Thumbnail:  thumb(200),
	}
	s := SightingFromCandidate(cand)
	assert.Equal(t, cand.Category, s.Category)
	assert.Equal(t, cand.Box, s.Box)
	assert.Same(t, cand.Thumbnail, s.Thumbnail)
}

func TestShouldAccept(t *testing.T) {
	t.Parallel()

	box := geom.NewRect(0.1, 0.1, 0.2, 0.2)

	t.Run("empty history accepts everything", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())

		dupOf, accept := d.ShouldAccept(sighting(track.CategoryFashion, box, 200), 0.55)
		assert.True(t, accept)
		assert.Empty(t, dupOf)
	})

	t.Run("near-identical sighting is a duplicate", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		d.Record("item-1", sighting(track.CategoryFashion, box, 200))

		jittered := geom.NewRect(0.105, 0.105, 0.205, 0.205)
		dupOf, accept := d.ShouldAccept(sighting(track.CategoryFashion, jittered, 205), 0.55)
		assert.False(t, accept)
		assert.Equal(t, "item-1", dupOf)
	})

	t.Run("missing thumbnail on sighting is never similar", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		d.Record("item-1", sighting(track.CategoryFashion, box, 200))

		_, accept := d.ShouldAccept(sighting(track.CategoryFashion, box, 0), 0.55)
		assert.True(t, accept)
	})

	t.Run("missing thumbnail in history is never similar", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		d.Record("item-1", sighting(track.CategoryFashion, box, 0))

		_, accept := d.ShouldAccept(sighting(track.CategoryFashion, box, 200), 0.55)
		assert.True(t, accept)
	})

	t.Run("cross-category pairs never merge at any threshold", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		d.Record("item-1", sighting(track.CategoryFashion, box, 200))

		_, accept := d.ShouldAccept(sighting(track.CategoryElectronics, box, 200), 0.0)
		assert.True(t, accept)
	})

	t.Run("size delta beyond tolerance disqualifies the pair", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		d.Record("item-1", sighting(track.CategoryFashion, box, 200))

		// 400 vs 200 is a 50% linear delta, above the 40% tolerance.
		_, accept := d.ShouldAccept(sighting(track.CategoryFashion, box, 400), 0.55)
		assert.True(t, accept)
	})

	t.Run("size delta within tolerance merges", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		d.Record("item-1", sighting(track.CategoryFashion, box, 200))

		_, accept := d.ShouldAccept(sighting(track.CategoryFashion, box, 210), 0.55)
		assert.False(t, accept)
	})

	t.Run("threshold 1 requires a perfect score", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		d.Record("item-1", sighting(track.CategoryFashion, box, 200))

		_, accept := d.ShouldAccept(sighting(track.CategoryFashion, box, 205), 1.0)
		assert.True(t, accept)

		// Identical box and size scores exactly 1.
		dupOf, accept := d.ShouldAccept(sighting(track.CategoryFashion, box, 200), 1.0)
		assert.False(t, accept)
		assert.Equal(t, "item-1", dupOf)
	})
}

func TestBestMatch(t *testing.T) {
	t.Parallel()

	box := geom.NewRect(0.1, 0.1, 0.2, 0.2)

	t.Run("empty history matches nothing", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		itemID, score := d.BestMatch(sighting(track.CategoryFashion, box, 200))
		assert.Empty(t, itemID)
		assert.Zero(t, score)
	})

	t.Run("returns the highest-scoring entry", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		d.Record("far", sighting(track.CategoryFashion, geom.NewRect(0.7, 0.7, 0.8, 0.8), 200))
		d.Record("near", sighting(track.CategoryFashion, box, 200))

		itemID, score := d.BestMatch(sighting(track.CategoryFashion, box, 200))
		assert.Equal(t, "near", itemID)
		assert.InDelta(t, 1.0, score, 1e-9)
	})
}

func TestScore(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator(DefaultSimilarityConfig())
	box := geom.NewRect(0.1, 0.1, 0.2, 0.2)

	t.Run("identical sightings score 1", func(t *testing.T) {
		t.Parallel()
		a := sighting(track.CategoryFashion, box, 200)
		b := sighting(track.CategoryFashion, box, 200)
		assert.InDelta(t, 1.0, d.Score(a, b), 1e-9)
	})

	t.Run("disjoint boxes score only the size term", func(t *testing.T) {
		t.Parallel()
		a := sighting(track.CategoryFashion, geom.NewRect(0.7, 0.7, 0.8, 0.8), 200)
		b := sighting(track.CategoryFashion, box, 200)
		assert.InDelta(t, 0.5, d.Score(a, b), 1e-9)
	})

	t.Run("score is monotone in thumbnail scale", func(t *testing.T) {
		t.Parallel()
		base := sighting(track.CategoryFashion, box, 200)
		closer := d.Score(sighting(track.CategoryFashion, box, 205), base)
		further := d.Score(sighting(track.CategoryFashion, box, 240), base)
		assert.Greater(t, closer, further)
	})
}

func TestHistoryLifecycle(t *testing.T) {
	t.Parallel()

	box := geom.NewRect(0.1, 0.1, 0.2, 0.2)

	t.Run("reset permits re-acceptance", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		s := sighting(track.CategoryFashion, box, 200)

		d.Record("item-1", s)
		_, accept := d.ShouldAccept(s, 0.55)
		require.False(t, accept)

		d.Reset()
		assert.Zero(t, d.HistorySize())
		_, accept = d.ShouldAccept(s, 0.55)
		assert.True(t, accept)
	})

	t.Run("remove purges only the named item", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		other := geom.NewRect(0.6, 0.6, 0.8, 0.8)

		d.Record("item-1", sighting(track.CategoryFashion, box, 200))
		d.Record("item-2", sighting(track.CategoryFashion, other, 200))
		require.Equal(t, 2, d.HistorySize())

		d.Remove("item-1")
		assert.Equal(t, 1, d.HistorySize())

		_, accept := d.ShouldAccept(sighting(track.CategoryFashion, box, 200), 0.55)
		assert.True(t, accept, "shape of removed item must be re-accepted")

		dupOf, accept := d.ShouldAccept(sighting(track.CategoryFashion, other, 200), 0.55)
		assert.False(t, accept)
		assert.Equal(t, "item-2", dupOf)
	})

	t.Run("remove of unknown id is a no-op", func(t *testing.T) {
		t.Parallel()
		d := NewDeduplicator(DefaultSimilarityConfig())
		d.Record("item-1", sighting(track.CategoryFashion, box, 200))
		d.Remove("nope")
		assert.Equal(t, 1, d.HistorySize())
	})
}
