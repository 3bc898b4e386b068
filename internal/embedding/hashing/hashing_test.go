package hashing

import (
	"math"
	"testing"
)

func TestDimensionFallback(t *testing.T) {
	if got := New(0).Dimension(); got != DefaultDimension {
		t.Errorf("New(0).Dimension() = %d, want %d", got, DefaultDimension)
	}
	if got := New(-5).Dimension(); got != DefaultDimension {
		t.Errorf("New(-5).Dimension() = %d, want %d", got, DefaultDimension)
	}
	if got := New(64).Dimension(); got != 64 {
		t.Errorf("New(64).Dimension() = %d", got)
	}
}

func TestModelNameEncodesDimension(t *testing.T) {
	if got := New(128).ModelName(); got != "feature-hashing-128" {
		t.Errorf("ModelName() = %q", got)
	}
}

func TestEmbedDeterministic(t *testing.T) {
	e := New(96)
	a, err := e.Embed("il tour costa 50 euro")
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Embed("il tour costa 50 euro")
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at index %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestEmbedVectorShape(t *testing.T) {
	e := New(96)
	vec, err := e.Embed("quanto costa il biglietto di ingresso")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 96 {
		t.Fatalf("vector length = %d, want 96", len(vec))
	}
	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1) > 1e-4 {
		t.Errorf("vector norm = %f, want 1", norm)
	}
}

func TestEmbedNoTokensYieldsZeroVector(t *testing.T) {
	e := New(32)
	vec, err := e.Embed("... !!! ???")
	if err != nil {
		t.Fatal(err)
	}
	for i, x := range vec {
		if x != 0 {
			t.Fatalf("expected zero vector, found %v at index %d", x, i)
		}
	}
}

func TestEmbedCaseInsensitive(t *testing.T) {
	e := New(64)
	a, _ := e.Embed("Orari Di Apertura")
	b, _ := e.Embed("orari di apertura")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("embedding must be case insensitive")
		}
	}
}

func TestEmbedBatchMatchesEmbed(t *testing.T) {
	e := New(48)
	texts := []string{"prima frase", "seconda frase un po' piu lunga", "terza"}

	for _, batchSize := range []int{0, 1, 2, 100} {
		vectors, err := e.EmbedBatch(texts, batchSize)
		if err != nil {
			t.Fatal(err)
		}
		if len(vectors) != len(texts) {
			t.Fatalf("batchSize %d: got %d vectors for %d texts", batchSize, len(vectors), len(texts))
		}
		for i, text := range texts {
			single, err := e.Embed(text)
			if err != nil {
				t.Fatal(err)
			}
			for j := range single {
				if vectors[i][j] != single[j] {
					t.Fatalf("batchSize %d: vector %d differs from single embed at %d", batchSize, i, j)
				}
			}
		}
	}
}

func TestDistinctTextsDistinctVectors(t *testing.T) {
	e := New(384)
	a, _ := e.Embed("orari di apertura del museo")
	b, _ := e.Embed("prezzo del biglietto ridotto")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("unrelated texts produced identical embeddings")
	}
}
