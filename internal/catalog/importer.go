package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync/atomic"
)

// maxPages bounds the pagination loop. The catalog reports the next
// page itself, but a response that always claims one would otherwise
// spin forever.
const maxPages = 200

// Importer mirrors the remote catalog into the titles table. One run
// fetches every page, then writes everything in a single transaction:
// either the whole run lands or nothing does.
type Importer struct {
	Client *Client
	DB     *sql.DB

	running atomic.Bool
}

func NewImporter(client *Client, db *sql.DB) *Importer {
	return &Importer{Client: client, DB: db}
}

// Synchronize fetches all catalog pages and upserts one title per
// entry, keyed on the catalog id, so re-running against an unchanged
// remote is a no-op. Returns how many entries were written.
func (i *Importer) Synchronize(ctx context.Context) (int, error) {
	if !i.running.CompareAndSwap(false, true) {
		return 0, ErrSyncInProgress
	}
	defer i.running.Store(false)

	var entries []Entry
	for page := 1; page <= maxPages; page++ {
		p, err := i.Client.FetchPage(ctx, page)
		if err != nil {
			return 0, fmt.Errorf("fetch page %d: %w", page, err)
		}

		// an empty page terminates even if has_next_page says otherwise
		if len(p.Entries) == 0 {
			break
		}
		entries = append(entries, p.Entries...)

		if !p.HasNext {
			break
		}
		if page == maxPages {
			log.Printf("[catalog] page cap %d reached, stopping", maxPages)
		}
	}

	if err := i.save(ctx, entries); err != nil {
		return 0, err
	}
	log.Printf("[catalog] synchronized %d titles", len(entries))
	return len(entries), nil
}

func (i *Importer) save(ctx context.Context, entries []Entry) error {
	tx, err := i.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO titles (catalog_id, native_name, localized_name, original_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(catalog_id) DO UPDATE SET
		  native_name = excluded.native_name,
		  localized_name = excluded.localized_name,
		  original_name = excluded.original_name
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.NativeName, e.LocalizedName, e.OriginalName); err != nil {
			return fmt.Errorf("exec upsert for %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
