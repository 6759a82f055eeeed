package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
)

func TestReadLocations(t *testing.T) {
	input := "\xef\xbb\xbfLat,Lng,Status,created_at\n" +
		"10.7275,76.29,unsafe,2026-03-08T18:30:00Z\n" +
		"10.8,76.3,SAFE,\n" +
		"91,76.3,,\n" +
		"abc,76.3,,\n" +
		"10.9,76.4,closed,\n" +
		"11,76.5\n"

	var got []domain.UnsafeLocation
	skipped := 0
	err := readLocations(strings.NewReader(input), func(batch []domain.UnsafeLocation, bad int) error {
		got = append(got, batch...)
		skipped += bad
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 locations, got %d: %+v", len(got), got)
	}
	if skipped != 3 {
		t.Errorf("expected 3 skipped rows, got %d", skipped)
	}
	if !got[0].CreatedAt.Equal(time.Date(2026, 3, 8, 18, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", got[0].CreatedAt)
	}
	if got[1].Status != domain.StatusSafe {
		t.Errorf("expected safe status, got %s", got[1].Status)
	}
	if got[2].Status != domain.StatusUnsafe || !got[2].CreatedAt.IsZero() {
		t.Errorf("expected defaults for short row, got %+v", got[2])
	}
}

func TestReadLocations_Batches(t *testing.T) {
	var b strings.Builder
	b.WriteString("lat,lng\n")
	for i := 0; i < batchSize+10; i++ {
		b.WriteString("10.5,76.2\n")
	}

	var sizes []int
	err := readLocations(strings.NewReader(b.String()), func(batch []domain.UnsafeLocation, bad int) error {
		sizes = append(sizes, len(batch))
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sizes) != 2 || sizes[0] != batchSize || sizes[1] != 10 {
		t.Errorf("unexpected batch sizes %v", sizes)
	}
}

func TestReadLocations_MissingColumn(t *testing.T) {
	err := readLocations(strings.NewReader("latitude,lng\n1,2\n"), func([]domain.UnsafeLocation, int) error { return nil })
	if err == nil {
		t.Fatal("expected error for missing lat column")
	}
}

func TestReadLocations_FlushError(t *testing.T) {
	boom := errors.New("db down")
	err := readLocations(strings.NewReader("lat,lng\n1,2\n"), func([]domain.UnsafeLocation, int) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected flush error, got %v", err)
	}
}
