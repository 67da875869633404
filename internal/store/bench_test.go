package store

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/drowselabs/drowse/internal/sleep"
)

func setupBenchStore(b *testing.B) Store {
	b.Helper()

	st, err := Open("sqlite", Options{
		Path:   filepath.Join(b.TempDir(), "bench.db"),
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		b.Fatalf("failed to open store: %v", err)
	}
	b.Cleanup(func() { _ = st.Close() })
	return st
}

// seedNights inserts n closed sessions, one per night counting back
// from a fixed date.
func seedNights(b *testing.B, st Store, n int) {
	b.Helper()

	ctx := context.Background()
	bedtime := time.UnixMilli(1700000000000)
	for i := 0; i < n; i++ {
		s := &sleep.Session{
			Start:   bedtime.Add(-time.Duration(i) * 24 * time.Hour),
			End:     bedtime.Add(-time.Duration(i)*24*time.Hour + 8*time.Hour),
			Quality: i % 6,
		}
		if _, err := st.Insert(ctx, s); err != nil {
			b.Fatalf("seed insert failed: %v", err)
		}
	}
}

func BenchmarkInsert(b *testing.B) {
	st := setupBenchStore(b)
	ctx := context.Background()
	bedtime := time.UnixMilli(1700000000000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := &sleep.Session{
			Start: bedtime.Add(time.Duration(i) * 24 * time.Hour),
			End:   bedtime.Add(time.Duration(i)*24*time.Hour + 7*time.Hour),
		}
		if _, err := st.Insert(ctx, s); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}
}

// BenchmarkLatest exercises the hottest query: every tracker workflow
// starts by loading the newest session.
func BenchmarkLatest(b *testing.B) {
	st := setupBenchStore(b)
	seedNights(b, st, 365)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := st.Latest(ctx); err != nil {
			b.Fatalf("Latest failed: %v", err)
		}
	}
}

func BenchmarkList(b *testing.B) {
	st := setupBenchStore(b)
	seedNights(b, st, 365)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := st.List(ctx); err != nil {
			b.Fatalf("List failed: %v", err)
		}
	}
}

func BenchmarkUpdate(b *testing.B) {
	st := setupBenchStore(b)
	ctx := context.Background()

	id, err := st.Insert(ctx, &sleep.Session{
		Start: time.UnixMilli(1700000000000),
		End:   time.UnixMilli(1700000000000).Add(8 * time.Hour),
	})
	if err != nil {
		b.Fatalf("Insert failed: %v", err)
	}
	s, err := st.Get(ctx, id)
	if err != nil {
		b.Fatalf("Get failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Quality = i % 6
		if err := st.Update(ctx, s); err != nil {
			b.Fatalf("Update failed: %v", err)
		}
	}
}
