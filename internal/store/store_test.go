package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ilpeppino/scanium-sub009/internal/catalog"
	"github.com/ilpeppino/scanium-sub009/internal/geom"
	"github.com/ilpeppino/scanium-sub009/internal/testutil"
	"github.com/ilpeppino/scanium-sub009/internal/track"
)

// storeUnderTest runs the shared ItemStore contract against any
// implementation.
func storeUnderTest(t *testing.T, s ItemStore) {
	t.Helper()

	box := geom.NewRect(0.1, 0.1, 0.2, 0.2)
	first := testutil.Item("item-1", track.CategoryFashion, box, 200)
	first.Label = "denim jacket"
	first.LastTouched = time.Unix(1000, 0)
	second := testutil.Item("item-2", track.CategoryElectronics, geom.NewRect(0.5, 0.5, 0.7, 0.7), 300)
	second.LastTouched = time.Unix(2000, 0)

	testutil.AssertNoError(t, s.SaveItem(first))
	testutil.AssertNoError(t, s.SaveItem(second))

	items, err := s.LoadItems()
	testutil.AssertNoError(t, err)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "item-1" || items[1].ID != "item-2" {
		t.Errorf("expected first-save order [item-1 item-2], got [%s %s]", items[0].ID, items[1].ID)
	}
	if items[0].Label != "denim jacket" {
		t.Errorf("expected label round-trip, got %q", items[0].Label)
	}
	if items[0].Thumbnail == nil || items[0].Thumbnail.Width != 200 {
		t.Errorf("expected 200px thumbnail round-trip, got %+v", items[0].Thumbnail)
	}
	if items[0].Box != box {
		t.Errorf("expected box round-trip %v, got %v", box, items[0].Box)
	}

	// Update keeps identity and ordering.
	first.Confidence = 0.95
	first.Listing = catalog.ListingInfo{
		Status:     catalog.ListingPublished,
		ListingID:  "lst-1",
		ListingURL: "https://example.test/lst-1",
		Payload:    json.RawMessage(`{"price_cents":1299}`),
	}
	testutil.AssertNoError(t, s.SaveItem(first))

	items, err = s.LoadItems()
	testutil.AssertNoError(t, err)
	if len(items) != 2 {
		t.Fatalf("expected update not to add items, got %d", len(items))
	}
	if items[0].ID != "item-1" {
		t.Errorf("expected updated item to keep first-save order, got %s first", items[0].ID)
	}
	if items[0].Confidence != 0.95 {
		t.Errorf("expected updated confidence 0.95, got %v", items[0].Confidence)
	}
	if items[0].Listing.Status != catalog.ListingPublished || items[0].Listing.ListingID != "lst-1" {
		t.Errorf("expected listing round-trip, got %+v", items[0].Listing)
	}

	// Delete is a no-op for unknown IDs.
	testutil.AssertNoError(t, s.DeleteItem("missing"))
	testutil.AssertNoError(t, s.DeleteItem("item-1"))

	items, err = s.LoadItems()
	testutil.AssertNoError(t, err)
	if len(items) != 1 || items[0].ID != "item-2" {
		t.Fatalf("expected only item-2 after delete, got %v", items)
	}

	testutil.AssertNoError(t, s.Clear())
	items, err = s.LoadItems()
	testutil.AssertNoError(t, err)
	if len(items) != 0 {
		t.Errorf("expected empty store after clear, got %d items", len(items))
	}
}

func TestMemStore(t *testing.T) {
	storeUnderTest(t, NewMemStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	testutil.AssertNoError(t, err)
	defer s.Close()

	storeUnderTest(t, s)
}

func TestSQLiteStore_ItemWithoutThumbnail(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	testutil.AssertNoError(t, err)
	defer s.Close()

	item := testutil.Item("bare", track.CategoryHome, geom.NewRect(0.1, 0.1, 0.2, 0.2), 200)
	item.Thumbnail = nil
	item.LastTouched = time.Unix(1000, 0)
	testutil.AssertNoError(t, s.SaveItem(item))

	items, err := s.LoadItems()
	testutil.AssertNoError(t, err)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Thumbnail != nil {
		t.Errorf("expected nil thumbnail round-trip, got %+v", items[0].Thumbnail)
	}
}
