package backend

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/fyrsmithlabs/searchd/internal/config"
	"github.com/fyrsmithlabs/searchd/internal/logging"
	"go.uber.org/zap"
)

const (
	// maxMessageSize is the gRPC message ceiling; large documents carry
	// sizeable payloads.
	maxMessageSize = 50 * 1024 * 1024

	// scrollPageSize is how many points one scroll page fetches.
	scrollPageSize = 256
)

// QdrantBackend implements Backend over the Qdrant gRPC client.
type QdrantBackend struct {
	client     *qdrant.Client
	collection string
	logger     *logging.Logger
}

// NewQdrantBackend connects to Qdrant and returns a backend bound to the
// configured collection.
func NewQdrantBackend(cfg config.BackendConfig, logger *logging.Logger) (*QdrantBackend, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(maxMessageSize),
				grpc.MaxCallSendMsgSize(maxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	return &QdrantBackend{
		client:     client,
		collection: cfg.Collection,
		logger:     logger,
	}, nil
}

// QueryVector performs ANN search with a similarity floor.
func (b *QdrantBackend) QueryVector(ctx context.Context, vector []float32, limit int, minScore float64, filter *Filter) ([]Hit, error) {
	points, err := b.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: b.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: qdrant.PtrOf(float32(minScore)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(filter),
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", b.collection, err)
	}

	hits := make([]Hit, len(points))
	for i, point := range points {
		hit := Hit{Score: float64(point.Score)}
		decodePayload(point.Payload, &hit)
		hits[i] = hit
	}
	return hits, nil
}

// Scroll pages through documents matching the filter, up to limit.
func (b *QdrantBackend) Scroll(ctx context.Context, filter *Filter, limit int) ([]Hit, error) {
	var (
		hits   []Hit
		offset *qdrant.PointId
	)
	qf := buildFilter(filter)

	for len(hits) < limit {
		page := scrollPageSize
		if remaining := limit - len(hits); remaining < page {
			page = remaining
		}

		resp, err := b.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: b.collection,
			Filter:         qf,
			Limit:          qdrant.PtrOf(uint32(page)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scrolling collection %s: %w", b.collection, err)
		}

		for _, point := range resp.GetResult() {
			hit := Hit{}
			decodePayload(point.Payload, &hit)
			hits = append(hits, hit)
		}

		offset = resp.GetNextPageOffset()
		if offset == nil || len(resp.GetResult()) == 0 {
			break
		}
	}

	b.logger.Debug(ctx, "scrolled candidates",
		zap.Int("count", len(hits)),
		zap.Int("limit", limit),
	)
	return hits, nil
}

// Add stores pre-embedded documents.
func (b *QdrantBackend) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return ErrEmptyDocuments
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		payload := encodePayload(doc)
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: payload,
		}
	}

	_, err := b.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: b.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d documents: %w", len(docs), err)
	}
	return nil
}

// Close closes the gRPC connection.
func (b *QdrantBackend) Close() error {
	return b.client.Close()
}

// buildFilter converts a Filter to the qdrant wire form: equality and
// project-membership conditions under Must, nested fields via a
// NestedCondition one level deep.
func buildFilter(f *Filter) *qdrant.Filter {
	if f.IsEmpty() {
		return nil
	}

	conditions := make([]*qdrant.Condition, 0, len(f.Equals)+len(f.Nested)+1)
	for _, c := range f.Equals {
		conditions = append(conditions, keywordCondition(c.Key, c.Value))
	}
	for _, n := range f.Nested {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Nested{
				Nested: &qdrant.NestedCondition{
					Key: n.Path,
					Filter: &qdrant.Filter{
						Must: []*qdrant.Condition{keywordCondition(n.Key, n.Value)},
					},
				},
			},
		})
	}
	if len(f.ProjectIDs) > 0 {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: "project_id",
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keywords{
							Keywords: &qdrant.RepeatedStrings{Strings: f.ProjectIDs},
						},
					},
				},
			},
		})
	}

	return &qdrant.Filter{Must: conditions}
}

func keywordCondition(key, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

// decodePayload extracts content, id, and metadata from a point payload.
func decodePayload(payload map[string]*qdrant.Value, hit *Hit) {
	if payload == nil {
		return
	}
	hit.Metadata = make(map[string]any, len(payload))
	for k, v := range payload {
		value := decodeValue(v)
		if value == nil {
			continue
		}
		hit.Metadata[k] = value
		if s, ok := value.(string); ok {
			switch k {
			case "content":
				hit.Content = s
			case "document_id":
				hit.ID = s
			}
		}
	}
}

func decodeValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_ListValue:
		items := val.ListValue.GetValues()
		out := make([]any, 0, len(items))
		for _, item := range items {
			if decoded := decodeValue(item); decoded != nil {
				out = append(out, decoded)
			}
		}
		return out
	case *qdrant.Value_StructValue:
		fields := val.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for k, item := range fields {
			if decoded := decodeValue(item); decoded != nil {
				out[k] = decoded
			}
		}
		return out
	}
	return nil
}

// encodePayload converts a document to the qdrant payload form.
func encodePayload(doc Document) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(doc.Metadata)+2)
	payload["content"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: doc.Content}}
	payload["document_id"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: doc.ID}}
	for k, v := range doc.Metadata {
		if encoded := encodeValue(v); encoded != nil {
			payload[k] = encoded
		}
	}
	return payload
}

func encodeValue(v any) *qdrant.Value {
	switch val := v.(type) {
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
	case []string:
		items := make([]*qdrant.Value, len(val))
		for i, s := range val {
			items[i] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: items}}}
	case []any:
		items := make([]*qdrant.Value, 0, len(val))
		for _, item := range val {
			if encoded := encodeValue(item); encoded != nil {
				items = append(items, encoded)
			}
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: items}}}
	case map[string]any:
		fields := make(map[string]*qdrant.Value, len(val))
		for k, item := range val {
			if encoded := encodeValue(item); encoded != nil {
				fields[k] = encoded
			}
		}
		return &qdrant.Value{Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: fields}}}
	}
	return nil
}
