// Package knowledge stores and retrieves organizational knowledge chunks in
// Qdrant, keyed by department so retrieval stays within the routed team's
// documents.
package knowledge

import (
	"context"
	"fmt"

	"maildesk/internal/models"

	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog"
)

const (
	payloadContent    = "content"
	payloadFilename   = "filename"
	payloadDepartment = "department"

	searchLimit = 3
)

// embedder is the slice of the AI client the knowledge store needs
type embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Store wraps a Qdrant collection of knowledge chunks
type Store struct {
	client     *qdrant.Client
	collection string
	embedder   embedder
	logger     zerolog.Logger
}

// NewStore connects to Qdrant
func NewStore(host string, port int, apiKey string, useTLS bool, collection string, emb embedder, logger zerolog.Logger) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &Store{
		client:     client,
		collection: collection,
		embedder:   emb,
		logger:     logger.With().Str("component", "knowledge").Logger(),
	}, nil
}

// EnsureCollection creates the chunk collection if it doesn't exist
func (s *Store) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}

	s.logger.Info().Str("collection", s.collection).Msg("created qdrant collection")
	return nil
}

// Retrieve returns the best-matching knowledge chunks for the given text,
// restricted to the department's documents. The result may be empty.
func (s *Store) Retrieve(ctx context.Context, text, department string) ([]models.Snippet, error) {
	vector, err := s.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(searchLimit)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(payloadDepartment, department),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	snippets := make([]models.Snippet, 0, len(points))
	for _, point := range points {
		content := point.Payload[payloadContent].GetStringValue()
		if content == "" {
			continue
		}
		snippets = append(snippets, models.Snippet{
			Content: content,
			Source:  point.Payload[payloadFilename].GetStringValue(),
			Score:   point.Score,
		})
	}

	s.logger.Debug().
		Str("department", department).
		Int("snippets", len(snippets)).
		Msg("knowledge retrieved")
	return snippets, nil
}
