package service

import (
	"fmt"
	"strings"
)

// ChunkConfig controls the word windows used for agent file embeddings.
type ChunkConfig struct {
	Size    int // words per chunk
	Overlap int // words shared by consecutive chunks
}

// DefaultChunkConfig provides the standard 500/50 word windows.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    500,
		Overlap: 50,
	}
}

// Validate rejects windows that would never advance.
func (c ChunkConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.Size, c.Overlap)
	}
	return nil
}

// chunkWords splits text into overlapping windows of whole words. It does not
// drop blank windows; callers filter those before embedding.
func chunkWords(text string, cfg ChunkConfig) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if cfg.Validate() != nil {
		cfg = DefaultChunkConfig()
	}

	step := cfg.Size - cfg.Overlap
	chunks := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := start + cfg.Size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks
}

// nonBlank returns the chunks that still carry text after trimming.
func nonBlank(chunks []string) []string {
	out := chunks[:0:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}
