// Package qdrant provides a TimelineIndex implementation using Qdrant.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/ports"
	"github.com/ersonp/jurisflow/internal/infrastructure/config"
)

// entryNamespace derives point UUIDs for entry IDs that are not UUIDs.
var entryNamespace = uuid.MustParse("6f1c2a44-7f55-4c1e-9b7e-3d1f0c2b9a10")

// Repository implements the TimelineIndex interface using Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// Upsert stores an entry with its embedding, replacing any earlier version.
func (r *Repository) Upsert(ctx context.Context, entry entities.TimelineEntry, embedding []float32) error {
	point := &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(entry.ID)},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: embedding},
			},
		},
		Payload: entryPayload(&entry),
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         []*pb.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

// Search performs a semantic search restricted to one case.
func (r *Repository) Search(ctx context.Context, caseID string, embedding []float32, limit int) ([]ports.ScoredEntry, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		Filter:         caseFilter(caseID),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	hits := make([]ports.ScoredEntry, 0, len(resp.Result))
	for _, point := range resp.Result {
		hits = append(hits, ports.ScoredEntry{
			Entry: payloadToEntry(point.Payload),
			Score: point.Score,
		})
	}
	return hits, nil
}

// DeleteCase removes every indexed entry of a case.
func (r *Repository) DeleteCase(ctx context.Context, caseID string) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: caseFilter(caseID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting points by case: %w", err)
	}

	return nil
}

func caseFilter(caseID string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: "case_id",
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{Keyword: caseID},
						},
					},
				},
			},
		},
	}
}

// pointID returns id when it is a UUID, otherwise a stable UUID derived from it.
func pointID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(entryNamespace, []byte(id)).String()
}

func entryPayload(entry *entities.TimelineEntry) map[string]*pb.Value {
	return map[string]*pb.Value{
		"entry_id":         stringValue(entry.ID),
		"case_id":          stringValue(entry.CaseID),
		"event_date":       stringValue(entry.EventDate.Format(time.RFC3339)),
		"event_type":       stringValue(entry.EventType),
		"description":      stringValue(entry.Description),
		"source":           stringValue(string(entry.Source)),
		"related_entry_id": stringValue(entry.RelatedEntryID),
		"version":          {Kind: &pb.Value_IntegerValue{IntegerValue: int64(entry.Version)}},
		"created_at":       stringValue(entry.CreatedAt.Format(time.RFC3339)),
		"updated_at":       stringValue(entry.UpdatedAt.Format(time.RFC3339)),
	}
}

// payloadToEntry rebuilds an entry from its payload. History is not indexed.
func payloadToEntry(payload map[string]*pb.Value) entities.TimelineEntry {
	return entities.TimelineEntry{
		ID:             getStringValue(payload, "entry_id"),
		CaseID:         getStringValue(payload, "case_id"),
		EventDate:      getTimeValue(payload, "event_date"),
		EventType:      getStringValue(payload, "event_type"),
		Description:    getStringValue(payload, "description"),
		Source:         entities.Source(getStringValue(payload, "source")),
		RelatedEntryID: getStringValue(payload, "related_entry_id"),
		Version:        int(getIntValue(payload, "version")),
		CreatedAt:      getTimeValue(payload, "created_at"),
		UpdatedAt:      getTimeValue(payload, "updated_at"),
	}
}

// Helper functions for payload extraction.
func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func getIntValue(payload map[string]*pb.Value, key string) int64 {
	if v, ok := payload[key]; ok {
		return v.GetIntegerValue()
	}
	return 0
}

func getTimeValue(payload map[string]*pb.Value, key string) time.Time {
	t, err := time.Parse(time.RFC3339, getStringValue(payload, key))
	if err != nil {
		return time.Time{}
	}
	return t
}
