package jobs_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multidelivery/painel/app/events"
	"github.com/multidelivery/painel/app/jobs"
	"github.com/multidelivery/painel/app/models"
	"github.com/multidelivery/painel/pkg/queue"
)

type published struct {
	key  string
	body []byte
}

type fakePublisher struct {
	mu  sync.Mutex
	got []published
}

func (f *fakePublisher) Publish(_ context.Context, key string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, published{key, body})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) messages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.got...)
}

func TestHandlePublishesUnderEventName(t *testing.T) {
	pub := &fakePublisher{}
	ev := events.StatusAlterado(models.Pedido{ID: "p1", NumeroPedido: 7, Status: models.StatusPreparando}, models.StatusPendente)

	require.NoError(t, jobs.NewNotifyPedidoJob(pub, ev).Handle(context.Background()))

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "pedido.status", msgs[0].key)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(msgs[0].body, &body))
	assert.Equal(t, "p1", body["pedido_id"])
	assert.Equal(t, "pendente", body["status_anterior"])
}

func TestHandleWithoutPublisherFails(t *testing.T) {
	job := &jobs.NotifyPedidoJob{Evento: events.PedidoEvent{NumeroPedido: 1}}
	assert.Error(t, job.Handle(context.Background()))
}

func TestQueuedJobKeepsPublisher(t *testing.T) {
	pub := &fakePublisher{}
	m := queue.NewManager(queue.NewMemoryDriver())
	jobs.Register(m, pub)

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx, 1)
	t.Cleanup(func() {
		cancel()
		m.Wait()
	})

	ev := events.Criado(models.Pedido{ID: "p2", NumeroPedido: 8, Status: models.StatusPendente})
	require.NoError(t, m.Dispatch(ctx, jobs.NewNotifyPedidoJob(nil, ev)))

	assert.Eventually(t, func() bool { return len(pub.messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "pedido.criado", pub.messages()[0].key)
	assert.Empty(t, m.FailedJobs())
}
