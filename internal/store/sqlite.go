package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ilpeppino/scanium-sub009/internal/catalog"
	"github.com/ilpeppino/scanium-sub009/internal/track"
)

// SQLiteStore is an ItemStore backed by a sqlite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates when missing) a sqlite item store at
// path. Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open item store: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scanned_items (
			item_id           TEXT PRIMARY KEY,
			category          TEXT NOT NULL,
			label             TEXT,
			confidence        DOUBLE NOT NULL,
			box_left          DOUBLE NOT NULL,
			box_top           DOUBLE NOT NULL,
			box_right         DOUBLE NOT NULL,
			box_bottom        DOUBLE NOT NULL,
			thumb_mime        TEXT,
			thumb_width       BIGINT,
			thumb_height      BIGINT,
			thumb_data        BLOB,
			listing_status    TEXT NOT NULL,
			listing_id        TEXT,
			listing_url       TEXT,
			listing_payload   TEXT,
			last_touched_ns   BIGINT NOT NULL,
			created_at_ns     BIGINT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create item store schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveItem inserts or updates one item. The created_at ordering column
// is set once on insert and survives updates, so LoadItems keeps
// first-save order across merges.
func (s *SQLiteStore) SaveItem(item catalog.ScannedItem) error {
	var thumbMime sql.NullString
	var thumbWidth, thumbHeight sql.NullInt64
	var thumbData []byte
	if item.Thumbnail != nil {
		thumbMime = sql.NullString{String: item.Thumbnail.MIMEType, Valid: true}
		thumbWidth = sql.NullInt64{Int64: int64(item.Thumbnail.Width), Valid: true}
		thumbHeight = sql.NullInt64{Int64: int64(item.Thumbnail.Height), Valid: true}
		thumbData = item.Thumbnail.Data
	}

	query := `
		INSERT INTO scanned_items (
			item_id, category, label, confidence,
			box_left, box_top, box_right, box_bottom,
			thumb_mime, thumb_width, thumb_height, thumb_data,
			listing_status, listing_id, listing_url, listing_payload,
			last_touched_ns, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			category = excluded.category,
			label = excluded.label,
			confidence = excluded.confidence,
			box_left = excluded.box_left,
			box_top = excluded.box_top,
			box_right = excluded.box_right,
			box_bottom = excluded.box_bottom,
			thumb_mime = excluded.thumb_mime,
			thumb_width = excluded.thumb_width,
			thumb_height = excluded.thumb_height,
			thumb_data = excluded.thumb_data,
			listing_status = excluded.listing_status,
			listing_id = excluded.listing_id,
			listing_url = excluded.listing_url,
			listing_payload = excluded.listing_payload,
			last_touched_ns = excluded.last_touched_ns
	`

	_, err := s.db.Exec(query,
		item.ID,
		string(item.Category),
		nullString(item.Label),
		item.Confidence,
		item.Box.Left,
		item.Box.Top,
		item.Box.Right,
		item.Box.Bottom,
		thumbMime,
		thumbWidth,
		thumbHeight,
		thumbData,
		string(item.Listing.Status),
		nullString(item.Listing.ListingID),
		nullString(item.Listing.ListingURL),
		nullString(string(item.Listing.Payload)),
		item.LastTouched.UnixNano(),
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save item: %w", err)
	}
	return nil
}

// DeleteItem removes one item; unknown IDs are a no-op.
func (s *SQLiteStore) DeleteItem(id string) error {
	if _, err := s.db.Exec(`DELETE FROM scanned_items WHERE item_id = ?`, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// LoadItems returns all items in first-save order.
func (s *SQLiteStore) LoadItems() ([]catalog.ScannedItem, error) {
	rows, err := s.db.Query(`
		SELECT item_id, category, label, confidence,
		       box_left, box_top, box_right, box_bottom,
		       thumb_mime, thumb_width, thumb_height, thumb_data,
		       listing_status, listing_id, listing_url, listing_payload,
		       last_touched_ns
		FROM scanned_items
		ORDER BY created_at_ns ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	var items []catalog.ScannedItem
	for rows.Next() {
		var item catalog.ScannedItem
		var category, listingStatus string
		var label, thumbMime, listingID, listingURL, listingPayload sql.NullString
		var thumbWidth, thumbHeight sql.NullInt64
		var thumbData []byte
		var lastTouchedNs int64

		err := rows.Scan(
			&item.ID,
			&category,
			&label,
			&item.Confidence,
			&item.Box.Left,
			&item.Box.Top,
			&item.Box.Right,
			&item.Box.Bottom,
			&thumbMime,
			&thumbWidth,
			&thumbHeight,
			&thumbData,
			&listingStatus,
			&listingID,
			&listingURL,
			&listingPayload,
			&lastTouchedNs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}

		item.Category = track.Category(category)
		if label.Valid {
			item.Label = label.String
		}
		if thumbMime.Valid {
			item.Thumbnail = &track.Thumbnail{
				Data:     thumbData,
				MIMEType: thumbMime.String,
				Width:    int(thumbWidth.Int64),
				Height:   int(thumbHeight.Int64),
			}
		}
		item.Listing.Status = catalog.ListingStatus(listingStatus)
		if listingID.Valid {
			item.Listing.ListingID = listingID.String
		}
		if listingURL.Valid {
			item.Listing.ListingURL = listingURL.String
		}
		if listingPayload.Valid && listingPayload.String != "" {
			item.Listing.Payload = json.RawMessage(listingPayload.String)
		}
		item.LastTouched = time.Unix(0, lastTouchedNs)

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load items rows: %w", err)
	}
	return items, nil
}

// Clear drops every stored item.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM scanned_items`); err != nil {
		return fmt.Errorf("clear item store: %w", err)
	}
	return nil
}

// nullString converts empty strings to nil for SQL storage.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
