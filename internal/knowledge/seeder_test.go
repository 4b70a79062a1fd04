// internal/knowledge/seeder_test.go
package knowledge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// stubEmbedder returns one fixed-size vector per input text and records
// the batches it was called with.
type stubEmbedder struct {
	batches [][]string
	err     error
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.batches = append(e.batches, texts)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i]))}
	}
	return vectors, nil
}

func bulkIDs(t *testing.T, body string) []string {
	var ids []string
	for _, line := range strings.Split(body, "\n") {
		var action struct {
			Index struct {
				ID string `json:"_id"`
			} `json:"index"`
		}
		if json.Unmarshal([]byte(line), &action) == nil && action.Index.ID != "" {
			ids = append(ids, action.Index.ID)
		}
	}
	return ids
}

// ==========================
// ChunkText Tests
// ==========================

func TestChunkText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxSize  int
		expected []string
	}{
		{
			name:     "empty text",
			text:     "",
			maxSize:  100,
			expected: nil,
		},
		{
			name:     "whitespace only",
			text:     "  \n\n   \n\n ",
			maxSize:  100,
			expected: nil,
		},
		{
			name:     "single paragraph",
			text:     "Checked baggage up to 23kg is included.",
			maxSize:  100,
			expected: []string{"Checked baggage up to 23kg is included."},
		},
		{
			name:    "paragraphs packed under limit",
			text:    "First paragraph.\n\nSecond paragraph.",
			maxSize: 100,
			expected: []string{
				"First paragraph.\n\nSecond paragraph.",
			},
		},
		{
			name:    "paragraphs split at limit",
			text:    "First paragraph.\n\nSecond paragraph.",
			maxSize: 20,
			expected: []string{
				"First paragraph.",
				"Second paragraph.",
			},
		},
		{
			name:    "oversized paragraph kept whole",
			text:    "short\n\n" + strings.Repeat("x", 50) + "\n\nshort again",
			maxSize: 20,
			expected: []string{
				"short",
				strings.Repeat("x", 50),
				"short again",
			},
		},
		{
			name:    "windows line endings",
			text:    "First paragraph.\r\n\r\nSecond paragraph.",
			maxSize: 20,
			expected: []string{
				"First paragraph.",
				"Second paragraph.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChunkText(tt.text, tt.maxSize))
		})
	}
}

// ==========================
// Seeder Tests
// ==========================

func TestSeeder_SeedText(t *testing.T) {
	var bulkBody string
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bulkBody = string(raw)
		w.Write([]byte(`{"errors":false,"items":[]}`))
	})

	store := NewStore(client, "travel-knowledge", 1536, NewTestLogger(t))
	embedder := &stubEmbedder{}
	seeder := NewSeeder(store, embedder, 20, NewTestLogger(t))

	count, err := seeder.SeedText(context.Background(), "baggage", "First paragraph.\n\nSecond paragraph.")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"baggage:0", "baggage:1"}, bulkIDs(t, bulkBody))
}

func TestSeeder_SeedText_BatchesEmbeddings(t *testing.T) {
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":false,"items":[]}`))
	})

	store := NewStore(client, "travel-knowledge", 1536, NewTestLogger(t))
	embedder := &stubEmbedder{}
	seeder := NewSeeder(store, embedder, 10, NewTestLogger(t))

	// 20 chunks against a batch size of 16
	paragraphs := make([]string, 20)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("x", 10)
	}

	count, err := seeder.SeedText(context.Background(), "policy", strings.Join(paragraphs, "\n\n"))

	require.NoError(t, err)
	assert.Equal(t, 20, count)
	require.Len(t, embedder.batches, 2)
	assert.Len(t, embedder.batches[0], embedBatchSize)
	assert.Len(t, embedder.batches[1], 20-embedBatchSize)
}

func TestSeeder_SeedText_Empty(t *testing.T) {
	store := NewStore(nil, "travel-knowledge", 1536, NewTestLogger(t))
	seeder := NewSeeder(store, &stubEmbedder{}, 100, NewTestLogger(t))

	count, err := seeder.SeedText(context.Background(), "empty", "   ")

	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSeeder_SeedDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "baggage.md"), []byte("Baggage policy."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refunds.txt"), []byte("Refund policy."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.json"), []byte("{}"), 0o644))

	var allIDs []string
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		allIDs = append(allIDs, bulkIDs(t, string(raw))...)
		w.Write([]byte(`{"errors":false,"items":[]}`))
	})

	store := NewStore(client, "travel-knowledge", 1536, NewTestLogger(t))
	seeder := NewSeeder(store, &stubEmbedder{}, 100, NewTestLogger(t))

	count, err := seeder.SeedDirectory(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"baggage:0", "refunds:0"}, allIDs)
}

func TestSeeder_SeedText_EmbedError(t *testing.T) {
	store := NewStore(nil, "travel-knowledge", 1536, NewTestLogger(t))
	seeder := NewSeeder(store, &stubEmbedder{err: assert.AnError}, 100, NewTestLogger(t))

	_, err := seeder.SeedText(context.Background(), "baggage", "Baggage policy.")

	assert.Error(t, err)
}
