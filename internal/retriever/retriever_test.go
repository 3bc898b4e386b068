package retriever

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"ragbot/internal/chunker"
	"ragbot/internal/domain"
	"ragbot/internal/embedding/hashing"
	"ragbot/internal/indexer"
)

const testContent = `=== PAGINA: Orari ===
Il museo apre alle 9 del mattino e chiude alle 18 di sera.

=== PAGINA: Prezzi ===
Il biglietto intero costa 12 euro, il ridotto 8 euro.

=== PAGINA: Contatti ===
Per informazioni scrivere a info@example.com oppure telefonare.`

func buildStore(t *testing.T) (*Store, *hashing.Embedder) {
	t.Helper()
	indexDir := t.TempDir()
	contentPath := filepath.Join(t.TempDir(), "content.txt")
	if err := os.WriteFile(contentPath, []byte(testContent), 0o644); err != nil {
		t.Fatal(err)
	}
	ch, err := chunker.New(500, 50)
	if err != nil {
		t.Fatal(err)
	}
	emb := hashing.New(128)
	if _, err := indexer.NewBuilder(ch, emb, indexDir, "", 8).Build(contentPath); err != nil {
		t.Fatal(err)
	}
	store, err := OpenStore(indexDir, emb)
	if err != nil {
		t.Fatal(err)
	}
	return store, emb
}

func TestRetrieveRanksMatchingSectionFirst(t *testing.T) {
	store, emb := buildStore(t)
	r := New(emb, store, 3)

	results, err := r.Retrieve("quanto costa il biglietto intero in euro", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Section != "Prezzi" {
		t.Errorf("top section = %q, want Prezzi", results[0].Section)
	}
	if results[0].Rank != 1 {
		t.Errorf("top rank = %d, want 1", results[0].Rank)
	}
}

func TestRetrieveRanksAndScores(t *testing.T) {
	store, emb := buildStore(t)
	r := New(emb, store, 3)

	results, err := r.Retrieve("orari di apertura", 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, res := range results {
		if res.Rank != i+1 {
			t.Errorf("result %d has rank %d", i, res.Rank)
		}
		if res.Score <= 0 || res.Score > 1 {
			t.Errorf("result %d score %f out of (0, 1]", i, res.Score)
		}
		if want := 1 / (1 + float64(res.Distance)); math.Abs(res.Score-want) > 1e-12 {
			t.Errorf("result %d score %f inconsistent with distance %f", i, res.Score, res.Distance)
		}
		if i > 0 && res.Score > results[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestRetrieveSkipsSentinelsWhenKExceedsCount(t *testing.T) {
	store, emb := buildStore(t)
	r := New(emb, store, 3)

	results, err := r.Retrieve("informazioni", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results for a 3-chunk index, got %d", len(results))
	}
	for i, res := range results {
		if res.Rank != i+1 {
			t.Errorf("ranks not contiguous: result %d has rank %d", i, res.Rank)
		}
	}
}

func TestRetrieveDefaultTopK(t *testing.T) {
	store, emb := buildStore(t)
	r := New(emb, store, 2)

	results, err := r.Retrieve("museo", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected default top-k of 2, got %d results", len(results))
	}
}

func TestOpenStoreDimensionMismatch(t *testing.T) {
	indexDir := t.TempDir()
	contentPath := filepath.Join(t.TempDir(), "content.txt")
	if err := os.WriteFile(contentPath, []byte(testContent), 0o644); err != nil {
		t.Fatal(err)
	}
	ch, err := chunker.New(500, 50)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := indexer.NewBuilder(ch, hashing.New(128), indexDir, "", 8).Build(contentPath); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenStore(indexDir, hashing.New(64)); !errors.Is(err, indexer.ErrStaleIndex) {
		t.Errorf("expected ErrStaleIndex for dimension mismatch, got %v", err)
	}
}

type renamedEmbedder struct{ *hashing.Embedder }

func (renamedEmbedder) ModelName() string { return "other-model" }

func TestOpenStoreModelMismatch(t *testing.T) {
	indexDir := t.TempDir()
	contentPath := filepath.Join(t.TempDir(), "content.txt")
	if err := os.WriteFile(contentPath, []byte(testContent), 0o644); err != nil {
		t.Fatal(err)
	}
	ch, err := chunker.New(500, 50)
	if err != nil {
		t.Fatal(err)
	}
	emb := hashing.New(128)
	if _, err := indexer.NewBuilder(ch, emb, indexDir, "", 8).Build(contentPath); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenStore(indexDir, renamedEmbedder{emb}); !errors.Is(err, indexer.ErrStaleIndex) {
		t.Errorf("expected ErrStaleIndex for model mismatch, got %v", err)
	}
}

func TestFormatContextEmpty(t *testing.T) {
	text, sources := FormatContext(nil)
	if text != NoContextFound {
		t.Errorf("context = %q, want %q", text, NoContextFound)
	}
	if sources == nil || len(sources) != 0 {
		t.Errorf("sources = %v, want empty non-nil slice", sources)
	}
}

func TestFormatContextDedupsSources(t *testing.T) {
	results := []domain.RetrievalResult{
		{Text: "a", Section: "Prezzi", Rank: 1},
		{Text: "b", Section: "Orari", Rank: 2},
		{Text: "c", Section: "Prezzi", Rank: 3},
	}
	text, sources := FormatContext(results)

	if len(sources) != 2 || sources[0] != "Prezzi" || sources[1] != "Orari" {
		t.Errorf("sources = %v, want [Prezzi Orari]", sources)
	}
	want := "[Section: Prezzi]\na\n\n---\n[Section: Orari]\nb\n\n---\n[Section: Prezzi]\nc\n"
	if text != want {
		t.Errorf("context = %q, want %q", text, want)
	}
}
