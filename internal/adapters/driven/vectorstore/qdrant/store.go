// Package qdrant provides a vector store backed by a Qdrant server over gRPC.
//
// Chunks of every owner share one collection. Owner and document ids are
// stored as keyword-indexed payload fields and every search and delete
// carries a match filter on them.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultHost = "localhost"
	DefaultPort = 6334
)

// Payload field names.
const (
	fieldOwnerID    = "owner_id"
	fieldDocumentID = "document_id"
	fieldChunkID    = "chunk_id"
	fieldText       = "text"
	fieldIndex      = "chunk_index"
	fieldInsertedAt = "inserted_at"
)

// client is the subset of *qdrant.Client the store uses.
type client interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Close() error
}

// Config holds connection settings.
type Config struct {
	// URL is the gRPC endpoint, e.g. http://localhost:6334. An https
	// scheme enables TLS.
	URL string

	APIKey string

	// Collection is the collection name (default: document_chunks).
	Collection string

	// Dimensions is the vector size used when creating the collection.
	Dimensions int
}

// Store implements driven.VectorStore on Qdrant.
type Store struct {
	client     client
	collection string
	dimensions uint64

	mu    sync.Mutex
	ready bool
}

// New connects to Qdrant. The collection is created lazily by EnsureReady.
func New(cfg Config) (*Store, error) {
	host, port, useTLS, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect %s:%d: %w", host, port, err)
	}

	return newStore(c, cfg)
}

func newStore(c client, cfg Config) (*Store, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant: %w: dimensions must be positive", domain.ErrInvalidInput)
	}
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollection
	}
	return &Store{
		client:     c,
		collection: cfg.Collection,
		dimensions: uint64(cfg.Dimensions),
	}, nil
}

// parseURL splits a Qdrant endpoint into host, port and TLS flag.
func parseURL(raw string) (string, int, bool, error) {
	if raw == "" {
		return DefaultHost, DefaultPort, false, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("qdrant: invalid URL %q: %w", raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", 0, false, fmt.Errorf("qdrant: invalid URL %q: missing host", raw)
	}
	port := DefaultPort
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return "", 0, false, fmt.Errorf("qdrant: invalid port in %q: %w", raw, err)
		}
	}
	return host, port, u.Scheme == "https", nil
}

// EnsureReady creates the collection and its payload indexes once.
func (s *Store) EnsureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("qdrant: check collection: %w", err)
	}
	if !exists {
		logger.Info("Creating Qdrant collection %s (%d dims)", s.collection, s.dimensions)
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.dimensions,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("qdrant: create collection: %w", err)
		}
		for _, field := range []string{fieldOwnerID, fieldDocumentID} {
			_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: s.collection,
				FieldName:      field,
				FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			})
			if err != nil {
				return fmt.Errorf("qdrant: index %s: %w", field, err)
			}
		}
	}

	s.ready = true
	return nil
}

// pointID derives a stable UUID so re-upserting a chunk replaces it.
func pointID(ownerID, chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(ownerID+"/"+chunkID)).String()
}

// Upsert writes chunks as points, waiting for the write to be applied.
func (s *Store) Upsert(ctx context.Context, ownerID string, chunks []domain.Chunk) error {
	if ownerID == "" {
		return fmt.Errorf("qdrant upsert: %w: owner id is required", domain.ErrInvalidInput)
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := s.EnsureReady(ctx); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(ownerID, c.ID)),
			Vectors: qdrant.NewVectors(c.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				fieldOwnerID:    ownerID,
				fieldDocumentID: c.DocumentID,
				fieldChunkID:    c.ID,
				fieldText:       c.Text,
				fieldIndex:      int64(c.Index),
				fieldInsertedAt: c.InsertedAt.UTC().Unix(),
			}),
		})
	}

	wait := true
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// ownerFilter builds the match filter for an owner and optional documents.
func ownerFilter(ownerID string, documentIDs ...string) *qdrant.Filter {
	must := []*qdrant.Condition{qdrant.NewMatch(fieldOwnerID, ownerID)}
	if len(documentIDs) > 0 {
		must = append(must, qdrant.NewMatchKeywords(fieldDocumentID, documentIDs...))
	}
	return &qdrant.Filter{Must: must}
}

// Search queries by cosine similarity inside the filter's owner.
func (s *Store) Search(
	ctx context.Context, query []float32, filter driven.VectorFilter, topK int,
) ([]driven.VectorHit, error) {
	if filter.OwnerID == "" {
		return nil, fmt.Errorf("qdrant search: %w: owner id is required", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return []driven.VectorHit{}, nil
	}
	if err := s.EnsureReady(ctx); err != nil {
		return nil, err
	}

	limit := uint64(topK)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Filter:         ownerFilter(filter.OwnerID, filter.DocumentIDs...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		hits = append(hits, driven.VectorHit{
			ChunkID:    payload[fieldChunkID].GetStringValue(),
			DocumentID: payload[fieldDocumentID].GetStringValue(),
			Text:       payload[fieldText].GetStringValue(),
			Index:      int(payload[fieldIndex].GetIntegerValue()),
			Score:      float64(p.GetScore()),
			Embedding:  p.GetVectors().GetVector().GetData(),
		})
	}
	return hits, nil
}

// DeleteByDocument removes the owner's points of documentID.
func (s *Store) DeleteByDocument(ctx context.Context, ownerID, documentID string) error {
	if ownerID == "" || documentID == "" {
		return fmt.Errorf("qdrant delete: %w: owner and document id are required", domain.ErrInvalidInput)
	}
	if err := s.EnsureReady(ctx); err != nil {
		return err
	}

	wait := true
	if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(ownerFilter(ownerID, documentID)),
	}); err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

// TrimDocument removes the owner's points of documentID from index keep on.
func (s *Store) TrimDocument(ctx context.Context, ownerID, documentID string, keep int) error {
	if ownerID == "" || documentID == "" {
		return fmt.Errorf("qdrant trim: %w: owner and document id are required", domain.ErrInvalidInput)
	}
	if err := s.EnsureReady(ctx); err != nil {
		return err
	}

	filter := ownerFilter(ownerID, documentID)
	from := float64(keep)
	filter.Must = append(filter.Must, qdrant.NewRange(fieldIndex, &qdrant.Range{Gte: &from}))

	wait := true
	if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	}); err != nil {
		return fmt.Errorf("qdrant trim: %w", err)
	}
	return nil
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}
