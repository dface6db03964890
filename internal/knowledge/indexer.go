package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// chunkSize is the target chunk length in characters. Chunks end on sentence
// boundaries, so individual chunks may run a little over.
const chunkSize = 500

// IndexDocument chunks a document and upserts the chunks with their
// embeddings. Returns the number of chunks indexed.
func (s *Store) IndexDocument(ctx context.Context, filename, department, text string) (int, error) {
	chunks := chunkText(text, chunkSize)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %s has no indexable content", filename)
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := s.embedder.CreateEmbedding(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("chunk embedding failed for %s: %w", filename, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.NewString()),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadContent:    chunk,
				payloadFilename:   filename,
				payloadDepartment: department,
			}),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant upsert failed for %s: %w", filename, err)
	}

	s.logger.Info().
		Str("filename", filename).
		Str("department", department).
		Int("chunks", len(points)).
		Msg("document indexed")
	return len(points), nil
}

// chunkText splits text into chunks of roughly limit characters, breaking on
// sentence boundaries so no sentence is split across chunks.
func chunkText(text string, limit int) []string {
	var chunks []string
	var current strings.Builder

	for _, sentence := range splitSentences(text) {
		if current.Len() > 0 && current.Len()+len(sentence)+1 > limit {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		chunks = append(chunks, trimmed)
	}

	return chunks
}

// splitSentences breaks text at sentence-ending punctuation, keeping the
// punctuation with its sentence. Newlines count as boundaries too, so lists
// and headings become their own sentences.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
		current.Reset()
	}

	for _, r := range text {
		switch r {
		case '.', '!', '?':
			current.WriteRune(r)
			flush()
		case '\n':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return sentences
}
