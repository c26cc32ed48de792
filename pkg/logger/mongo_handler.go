package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoQueueSize = 4096
	mongoBatchSize = 50
	mongoDrainTick = 2 * time.Second
)

// LogDocument is the shape written to MongoDB. Order attributes are lifted
// to top-level indexed fields so the trail of one order can be queried:
//
//	db.logs.find({numero_pedido: 42}).sort({time: 1})
type LogDocument struct {
	Time         time.Time `bson:"time"`
	Level        string    `bson:"level"`
	Msg          string    `bson:"msg"`
	RequestID    string    `bson:"request_id,omitempty"`
	PedidoID     string    `bson:"pedido_id,omitempty"`
	NumeroPedido int64     `bson:"numero_pedido,omitempty"`
	Attrs        bson.M    `bson:"attrs,omitempty"`
}

// batchWriter is the part of *mongo.Collection the sink uses.
type batchWriter interface {
	InsertMany(ctx context.Context, docs []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// MongoHandler is an slog.Handler that batches records into a MongoDB
// collection from a single background goroutine. Records are dropped when
// the queue is full; logging never blocks a request.
type MongoHandler struct {
	sink   *mongoSink
	attrs  []slog.Attr
	prefix string
}

type mongoSink struct {
	w          batchWriter
	disconnect func(context.Context) error
	queue      chan LogDocument
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
	dropped    atomic.Int64
}

// NewMongoHandler connects to uri, ensures the query indexes and starts the
// drain loop. Call Close on shutdown.
func NewMongoHandler(uri, db, collection string) (*MongoHandler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).
		SetConnectTimeout(5*time.Second).
		SetServerSelectionTimeout(5*time.Second).
		SetMaxPoolSize(10))
	if err != nil {
		return nil, fmt.Errorf("mongo_handler: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo_handler: ping: %w", err)
	}

	col := client.Database(db).Collection(collection)
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "time", Value: -1}}},
		{Keys: bson.D{{Key: "numero_pedido", Value: 1}, {Key: "time", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "request_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	})

	return newMongoHandler(col, client.Disconnect, mongoDrainTick), nil
}

func newMongoHandler(w batchWriter, disconnect func(context.Context) error, tick time.Duration) *MongoHandler {
	sink := &mongoSink{
		w:          w,
		disconnect: disconnect,
		queue:      make(chan LogDocument, mongoQueueSize),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go sink.drainLoop(tick)
	return &MongoHandler{sink: sink}
}

func (h *MongoHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= slog.LevelInfo }

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	doc := LogDocument{
		Time:  r.Time,
		Level: r.Level.String(),
		Msg:   r.Message,
		Attrs: bson.M{},
	}

	add := func(a slog.Attr) {
		v := a.Value.Resolve()
		switch strings.TrimPrefix(a.Key, h.prefix) {
		case "request_id":
			doc.RequestID = v.String()
			return
		case "pedido_id":
			doc.PedidoID = v.String()
			return
		case "numero_pedido":
			if n, ok := asInt64(v); ok {
				doc.NumeroPedido = n
				return
			}
		}
		doc.Attrs[a.Key] = v.Any()
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		a.Key = h.prefix + a.Key
		add(a)
		return true
	})
	if len(doc.Attrs) == 0 {
		doc.Attrs = nil
	}

	select {
	case h.sink.queue <- doc:
	default:
		h.sink.dropped.Add(1)
	}
	return nil
}

func asInt64(v slog.Value) (int64, bool) {
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		return int64(v.Uint64()), true
	case slog.KindString:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		merged = append(merged, a)
	}
	return &MongoHandler{sink: h.sink, attrs: merged, prefix: h.prefix}
}

func (h *MongoHandler) WithGroup(name string) slog.Handler {
	if strings.TrimSpace(name) == "" {
		return h
	}
	return &MongoHandler{sink: h.sink, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// Dropped counts records discarded because the queue was full.
func (h *MongoHandler) Dropped() int64 { return h.sink.dropped.Load() }

// Close flushes pending records and disconnects. Safe to call more than once.
func (h *MongoHandler) Close() {
	h.sink.closeOnce.Do(func() {
		close(h.sink.done)
		<-h.sink.stopped
		if h.sink.disconnect == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.sink.disconnect(ctx)
	})
}

func (s *mongoSink) drainLoop(tick time.Duration) {
	defer close(s.stopped)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, mongoBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = s.w.InsertMany(ctx, batch)
		batch = make([]interface{}, 0, mongoBatchSize)
	}

	for {
		select {
		case doc := <-s.queue:
			batch = append(batch, doc)
			if len(batch) >= mongoBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			for len(s.queue) > 0 {
				batch = append(batch, <-s.queue)
				if len(batch) >= mongoBatchSize {
					flush()
				}
			}
			flush()
			return
		}
	}
}

// MultiHandler fans out to multiple slog.Handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: hs}
}
