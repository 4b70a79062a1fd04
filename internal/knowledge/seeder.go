// internal/knowledge/seeder.go
package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tripwise/internal/models"
)

const embedBatchSize = 16

// Embedder is the slice of the LLM client the seeder needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Seeder chunks knowledge files, embeds the chunks in batches and upserts
// them into the store. Because document ids are deterministic, running the
// seeder again overwrites existing vectors in place.
type Seeder struct {
	store     *Store
	embedder  Embedder
	chunkSize int
	logger    Logger
}

func NewSeeder(store *Store, embedder Embedder, chunkSize int, log Logger) *Seeder {
	if chunkSize <= 0 {
		chunkSize = 1200
	}
	return &Seeder{
		store:     store,
		embedder:  embedder,
		chunkSize: chunkSize,
		logger:    log.With(map[string]interface{}{"component": "knowledge-seeder"}),
	}
}

// SeedDirectory ingests every .md and .txt file under dir. The file name
// (without extension) becomes the document source.
func (s *Seeder) SeedDirectory(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".md" || ext == ".txt" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return total, err
		}
		source := strings.TrimSuffix(name, filepath.Ext(name))
		n, err := s.SeedText(ctx, source, string(content))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// SeedText chunks, embeds and indexes one document.
func (s *Seeder) SeedText(ctx context.Context, source, content string) (int, error) {
	chunks := ChunkText(content, s.chunkSize)
	if len(chunks) == 0 {
		return 0, nil
	}

	docs := make([]models.Document, 0, len(chunks))
	for batchStart := 0; batchStart < len(chunks); batchStart += embedBatchSize {
		batchEnd := batchStart + embedBatchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}
		batch := chunks[batchStart:batchEnd]

		vectors, err := s.embedder.Embed(ctx, batch)
		if err != nil {
			return 0, err
		}

		for i, text := range batch {
			chunkIndex := batchStart + i
			docs = append(docs, models.Document{
				ID:        DocID(source, chunkIndex),
				Source:    source,
				Chunk:     chunkIndex,
				Content:   text,
				Embedding: vectors[i],
			})
		}
	}

	if err := s.store.Upsert(ctx, docs); err != nil {
		return 0, err
	}

	s.logger.Info("document seeded", map[string]interface{}{
		"source": source,
		"chunks": len(docs),
	})
	return len(docs), nil
}

// ChunkText splits text on blank lines and packs paragraphs into chunks of
// at most maxSize characters. A single oversized paragraph becomes its own
// chunk rather than being split mid-sentence.
func ChunkText(text string, maxSize int) []string {
	paragraphs := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > maxSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)

		if current.Len() >= maxSize {
			flush()
		}
	}
	flush()

	return chunks
}
