package query

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MetricsRecorder is the metrics surface the executor needs.
type MetricsRecorder interface {
	RecordQuery(ctx context.Context, database, collection, status string, duration time.Duration, documents int)
	IncrementConnections(ctx context.Context)
	DecrementConnections(ctx context.Context)
}

// Executor runs one query per call: connect, find, consume, release.
type Executor struct {
	connector  Connector
	defaults   Defaults
	logFilters bool
	logger     *zap.SugaredLogger
	metrics    MetricsRecorder
}

func NewExecutor(connector Connector, defaults Defaults, logFilters bool, logger *zap.SugaredLogger, metrics MetricsRecorder) *Executor {
	return &Executor{
		connector:  connector,
		defaults:   defaults,
		logFilters: logFilters,
		logger:     logger,
		metrics:    metrics,
	}
}

// Execute runs the request against MongoDB and returns the normalized
// result set, or a classified *Error. Exactly one session is opened and it
// is released on every path, including mid-iteration faults. All documents
// accumulated before a failure are discarded.
func (e *Executor) Execute(ctx context.Context, req Request) ([]Document, error) {
	database := req.Database
	if database == "" {
		database = e.defaults.Database
	}
	collection := req.Collection
	if collection == "" {
		collection = e.defaults.Collection
	}

	filter := req.Filter
	if filter == nil {
		filter = map[string]any{}
	}

	start := time.Now()

	e.logger.Infow("Connecting to MongoDB", "database", database, "collection", collection)
	session, err := e.connector.Connect(ctx)
	if err != nil {
		e.metrics.RecordQuery(ctx, database, collection, "connection_error", time.Since(start), 0)
		return nil, &Error{Kind: KindConnection, Err: err}
	}
	e.metrics.IncrementConnections(ctx)

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := session.Close(closeCtx); cerr != nil {
			e.logger.Warnw("Failed to close MongoDB connection", "error", cerr)
		}
		e.metrics.DecrementConnections(ctx)
		e.logger.Infow("MongoDB connection closed")
	}()

	logFields := []any{"database", database, "collection", collection, "limit", req.Limit}
	if e.logFilters {
		logFields = append(logFields, "filter", filter)
	}
	e.logger.Infow("Executing query", logFields...)

	cursor, err := session.Collection(database, collection).Find(ctx, bson.M(filter), e.findOptions(req))
	if err != nil {
		qerr := classify(err)
		e.metrics.RecordQuery(ctx, database, collection, statusFor(qerr.Kind), time.Since(start), 0)
		return nil, qerr
	}

	results, err := e.consume(ctx, cursor)
	if err != nil {
		qerr := classify(err)
		e.metrics.RecordQuery(ctx, database, collection, statusFor(qerr.Kind), time.Since(start), 0)
		return nil, qerr
	}

	e.metrics.RecordQuery(ctx, database, collection, "ok", time.Since(start), len(results))
	return results, nil
}

// findOptions translates projection, sort, and limit. Sort is set before
// limit so capping applies to sorted order, and a zero limit leaves the
// cursor unbounded.
func (e *Executor) findOptions(req Request) *options.FindOptions {
	opts := options.Find()

	if len(req.Projection) > 0 {
		opts.SetProjection(bson.M(req.Projection))
	}

	if len(req.Sort) > 0 {
		sortDoc := make(bson.D, 0, len(req.Sort))
		for _, s := range req.Sort {
			direction := s.Direction
			if direction != Descending {
				direction = Ascending
			}
			sortDoc = append(sortDoc, bson.E{Key: s.Field, Value: direction})
		}
		opts.SetSort(sortDoc)
	}

	if req.Limit > 0 {
		opts.SetLimit(req.Limit)
	}

	return opts
}

// consume drains the cursor into an ordered slice, normalizing each
// document. The cursor is closed before returning.
func (e *Executor) consume(ctx context.Context, cursor Cursor) ([]Document, error) {
	defer cursor.Close(ctx)

	results := make([]Document, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, normalizeDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// normalizeDocument rewrites the record identifier to a string and unwraps
// BSON container types so the document serializes as plain JSON. Other
// scalar field values pass through unmodified.
func normalizeDocument(doc bson.M) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	if id, ok := doc["_id"]; ok {
		out["_id"] = stringifyID(id)
	}
	return out
}

// stringifyID renders the identifier as a string regardless of how the
// collection keys its documents. ObjectIDs use their hex form; anything
// else gets a canonical string rendering.
func stringifyID(id any) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	case primitive.Binary:
		return hex.EncodeToString(v.Data)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, elem := range val {
			out[elem.Key] = normalizeValue(elem.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func statusFor(kind Kind) string {
	switch kind {
	case KindConnection:
		return "connection_error"
	case KindOperation:
		return "operation_error"
	default:
		return "error"
	}
}
