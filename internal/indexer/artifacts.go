package indexer

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ragbot/internal/domain"
	"ragbot/internal/vectorstore"
)

// One build produces three co-located artifacts under the index directory.
// They are positionally coupled and only valid as a set; every artifact
// carries the build generation ID so a mixed set is rejected at load time.
const (
	VectorsFile  = "vectors.bin"
	ChunksFile   = "chunks.gob"
	MetadataFile = "metadata.json"
)

var (
	// ErrIndexNotFound is returned when one of the persisted artifacts is
	// missing; the caller must build before querying.
	ErrIndexNotFound = errors.New("index not found")

	// ErrStaleIndex is returned when the persisted artifacts disagree with
	// each other or with the configured embedder.
	ErrStaleIndex = errors.New("stale or mismatched index")
)

// Metadata describes one build generation. Descriptive only; the search
// path does not consult it beyond load-time validation.
type Metadata struct {
	BuildID            string   `json:"build_id"`
	TotalChunks        int      `json:"total_chunks"`
	EmbeddingDimension int      `json:"embedding_dimension"`
	ModelName          string   `json:"model_name"`
	ChunkSize          int      `json:"chunk_size"`
	ChunkOverlap       int      `json:"chunk_overlap"`
	Sections           []string `json:"sections"`
	BuildTimestamp     string   `json:"build_timestamp"`
}

// chunkEnvelope is the gob payload of the chunk-list artifact.
type chunkEnvelope struct {
	BuildID string
	Chunks  []domain.Chunk
}

// writeArtifacts persists the trio. Each file is written to a temp path and
// renamed into place so a concurrent reader never observes a half-written
// artifact.
func writeArtifacts(dir, buildID string, index *vectorstore.Flat, chunks []domain.Chunk, meta Metadata) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeAtomic(filepath.Join(dir, VectorsFile), func(f *os.File) error {
		return index.WriteTo(f, buildID)
	}); err != nil {
		return fmt.Errorf("writing vector index: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, ChunksFile), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(chunkEnvelope{BuildID: buildID, Chunks: chunks})
	}); err != nil {
		return fmt.Errorf("writing chunk list: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, MetadataFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// LoadArtifacts restores one build generation from dir, validating that the
// three artifacts belong together and agree on the chunk count.
func LoadArtifacts(dir string) (*vectorstore.Flat, []domain.Chunk, *Metadata, error) {
	index, indexBuildID, err := loadVectors(filepath.Join(dir, VectorsFile))
	if err != nil {
		return nil, nil, nil, err
	}
	env, err := loadChunks(filepath.Join(dir, ChunksFile))
	if err != nil {
		return nil, nil, nil, err
	}
	meta, err := loadMetadata(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, nil, nil, err
	}

	if env.BuildID != indexBuildID || meta.BuildID != indexBuildID {
		return nil, nil, nil, fmt.Errorf("%w: artifacts come from different builds (index %s, chunks %s, metadata %s)",
			ErrStaleIndex, indexBuildID, env.BuildID, meta.BuildID)
	}
	if len(env.Chunks) != index.Count() {
		return nil, nil, nil, fmt.Errorf("%w: %d chunks but %d vectors", ErrStaleIndex, len(env.Chunks), index.Count())
	}
	if meta.EmbeddingDimension != index.Dimension() {
		return nil, nil, nil, fmt.Errorf("%w: metadata dimension %d but index dimension %d",
			ErrStaleIndex, meta.EmbeddingDimension, index.Dimension())
	}
	return index, env.Chunks, meta, nil
}

func loadVectors(path string) (*vectorstore.Flat, string, error) {
	index, buildID, err := vectorstore.LoadFlat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s (run build first)", ErrIndexNotFound, path)
		}
		return nil, "", err
	}
	return index, buildID, nil
}

func loadChunks(path string) (*chunkEnvelope, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run build first)", ErrIndexNotFound, path)
		}
		return nil, err
	}
	defer file.Close()
	var env chunkEnvelope
	if err := gob.NewDecoder(file).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding chunk list: %w", err)
	}
	return &env, nil
}

func loadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run build first)", ErrIndexNotFound, path)
		}
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return &meta, nil
}
