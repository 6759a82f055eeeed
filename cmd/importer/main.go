package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mahi13singh2004/AIKYAM/internal/adapters/postgres"
	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/config"
)

const batchSize = 500

// Seeds unsafe locations from a CSV file or URL with a lat,lng[,status][,created_at] header.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <file.csv|https://...>")
	}

	cfg, err := config.Load("aikyam-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	src, err := open(ctx, os.Args[1])
	if err != nil {
		log.Fatalf("open %s: %v", os.Args[1], err)
	}
	defer src.Close()

	repo := postgres.NewUnsafeLocationRepo(db)
	total, skipped := 0, 0
	err = readLocations(src, func(batch []domain.UnsafeLocation, bad int) error {
		skipped += bad
		if len(batch) == 0 {
			return nil
		}
		n, err := repo.CreateBatch(ctx, batch)
		total += n
		return err
	})
	if err != nil {
		log.Fatalf("import: %v (stored %d before failing)", err, total)
	}

	log.Printf("import complete: %d stored, %d skipped", total, skipped)
}

func open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.Open(src)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// readLocations parses r and hands rows to flush in batches, together with the
// number of rows skipped since the previous batch.
func readLocations(r io.Reader, flush func(batch []domain.UnsafeLocation, skipped int) error) error {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols["lat"]; !ok {
		return fmt.Errorf("header has no lat column")
	}
	if _, ok := cols["lng"]; !ok {
		return fmt.Errorf("header has no lng column")
	}

	batch := make([]domain.UnsafeLocation, 0, batchSize)
	skipped := 0
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("line %d: %v", line, err)
			skipped++
			continue
		}

		loc, err := parseRecord(record, cols)
		if err != nil {
			log.Printf("line %d: %v", line, err)
			skipped++
			continue
		}
		batch = append(batch, loc)

		if len(batch) >= batchSize {
			if err := flush(batch, skipped); err != nil {
				return err
			}
			batch = batch[:0]
			skipped = 0
		}
	}

	if len(batch) > 0 || skipped > 0 {
		return flush(batch, skipped)
	}
	return nil
}

func parseRecord(record []string, cols map[string]int) (domain.UnsafeLocation, error) {
	var loc domain.UnsafeLocation

	lat, err := strconv.ParseFloat(getField(record, cols, "lat"), 64)
	if err != nil {
		return loc, fmt.Errorf("lat: %w", err)
	}
	lng, err := strconv.ParseFloat(getField(record, cols, "lng"), 64)
	if err != nil {
		return loc, fmt.Errorf("lng: %w", err)
	}
	p := domain.GeoPoint{Lat: lat, Lng: lng}
	if err := p.Validate(); err != nil {
		return loc, err
	}
	loc.Lat, loc.Lng = lat, lng

	loc.Status = domain.StatusUnsafe
	if s := domain.LocationStatus(strings.ToLower(getField(record, cols, "status"))); s != "" {
		if !s.Valid() {
			return loc, fmt.Errorf("unknown status %q", s)
		}
		loc.Status = s
	}

	if ts := getField(record, cols, "created_at"); ts != "" {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return loc, fmt.Errorf("created_at: %w", err)
		}
		loc.CreatedAt = t
	}
	return loc, nil
}

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		// Strip BOM from first column
		col = strings.TrimPrefix(col, "\xef\xbb\xbf")
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

func getField(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
