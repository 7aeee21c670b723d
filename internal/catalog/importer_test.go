package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"mangaledger/pkg/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Migrate(): %v", err)
	}
	return db
}

func countTitles(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM titles`).Scan(&n); err != nil {
		t.Fatalf("count titles: %v", err)
	}
	return n
}

// twoPageCatalog serves page 1 with two entries and has_next_page=true,
// page 2 with one entry and has_next_page=false.
func twoPageCatalog(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("target_model"); got != "team" {
			t.Errorf("target_model = %q, want team", got)
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{
				"data": [
					{"id": 101, "rus_name": "Манга А", "eng_name": "Manga A", "name": "A"},
					{"id": 102, "rus_name": "", "eng_name": "", "name": "マンガ"}
				],
				"meta": {"has_next_page": true}
			}`)
		case "2":
			fmt.Fprint(w, `{
				"data": [{"id": 103, "rus_name": "Манга В", "eng_name": "", "name": "B"}],
				"meta": {"has_next_page": false}
			}`)
		default:
			t.Errorf("unexpected page request %q", r.URL.Query().Get("page"))
			fmt.Fprint(w, `{"data": [], "meta": {"has_next_page": false}}`)
		}
	}))
}

func TestSynchronize_TwoPages(t *testing.T) {
	srv := twoPageCatalog(t)
	defer srv.Close()

	db := newTestDB(t)
	importer := NewImporter(NewClient(srv.URL, "seed", 5064), db)

	n, err := importer.Synchronize(context.Background())
	if err != nil {
		t.Fatalf("Synchronize(): %v", err)
	}
	if n != 3 {
		t.Fatalf("Synchronize() = %d entries, want 3", n)
	}
	if got := countTitles(t, db); got != 3 {
		t.Fatalf("titles count = %d, want 3", got)
	}

	var native, original string
	err = db.QueryRow(`SELECT native_name, original_name FROM titles WHERE catalog_id = 102`).
		Scan(&native, &original)
	if err != nil {
		t.Fatalf("lookup catalog_id 102: %v", err)
	}
	if native != "" || original != "マンガ" {
		t.Fatalf("catalog_id 102 = (%q, %q), want (\"\", \"マンガ\")", native, original)
	}
}

func TestSynchronize_IsIdempotent(t *testing.T) {
	srv := twoPageCatalog(t)
	defer srv.Close()

	db := newTestDB(t)
	importer := NewImporter(NewClient(srv.URL, "seed", 5064), db)

	for i := 0; i < 2; i++ {
		if _, err := importer.Synchronize(context.Background()); err != nil {
			t.Fatalf("Synchronize() run %d: %v", i+1, err)
		}
	}

	// upsert keyed on catalog_id: second run must not duplicate
	if got := countTitles(t, db); got != 3 {
		t.Fatalf("titles count after two runs = %d, want 3", got)
	}
}

func TestSynchronize_StopsOnEmptyPageDespiteFlag(t *testing.T) {
	var pagesServed int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{
				"data": [{"id": 1, "rus_name": "X", "eng_name": "", "name": "X"}],
				"meta": {"has_next_page": true}
			}`)
			return
		}
		// lies about having more pages
		fmt.Fprint(w, `{"data": [], "meta": {"has_next_page": true}}`)
	}))
	defer srv.Close()

	db := newTestDB(t)
	importer := NewImporter(NewClient(srv.URL, "seed", 1), db)

	n, err := importer.Synchronize(context.Background())
	if err != nil {
		t.Fatalf("Synchronize(): %v", err)
	}
	if n != 1 {
		t.Fatalf("Synchronize() = %d, want 1", n)
	}
	if pagesServed != 2 {
		t.Fatalf("pages served = %d, want 2", pagesServed)
	}
}

func TestSynchronize_AbortsWithoutPartialCommit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, `{
				"data": [{"id": 1, "rus_name": "X", "eng_name": "", "name": "X"}],
				"meta": {"has_next_page": true}
			}`)
			return
		}
		fmt.Fprint(w, `not json at all`)
	}))
	defer srv.Close()

	db := newTestDB(t)
	importer := NewImporter(NewClient(srv.URL, "seed", 1), db)

	_, err := importer.Synchronize(context.Background())
	if err == nil {
		t.Fatal("Synchronize() = nil error, want parse failure")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Synchronize() error = %v, want *ParseError", err)
	}

	// page 1 must not have been committed
	if got := countTitles(t, db); got != 0 {
		t.Fatalf("titles count after failed run = %d, want 0", got)
	}
}
