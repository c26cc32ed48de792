package event_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/multidelivery/painel/pkg/event"
	"github.com/multidelivery/painel/pkg/workerpool"
)

func TestFireRunsListenersInOrder(t *testing.T) {
	d := event.New()
	var got []string
	d.Listen("pedido.criado", func(p any) { got = append(got, "a:"+p.(string)) })
	d.Listen("pedido.criado", func(p any) { got = append(got, "b:"+p.(string)) })
	d.Listen("pedido.status", func(any) { got = append(got, "other") })

	d.Fire("pedido.criado", "1")

	assert.Equal(t, []string{"a:1", "b:1"}, got)
}

func TestFireAsyncUsesPool(t *testing.T) {
	d := event.New()
	pool := workerpool.New(2)
	defer pool.Shutdown()
	d.UsePool(pool)

	var n atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		d.Listen("pedido.status", func(any) {
			n.Add(1)
			wg.Done()
		})
	}

	d.FireAsync("pedido.status", nil)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listeners did not run")
	}
	assert.Equal(t, int32(3), n.Load())
}

func TestFlush(t *testing.T) {
	d := event.New()
	called := false
	d.Listen("x", func(any) { called = true })
	d.Flush()
	d.Fire("x", nil)
	assert.False(t, called)
}

func TestFireAsyncRunsInlineListenersFirst(t *testing.T) {
	d := event.New()
	pool := workerpool.New(4)
	defer pool.Shutdown()
	d.UsePool(pool)

	var got []string
	d.ListenInline("pedido.criado", func(p any) { got = append(got, "criado:"+p.(string)) })
	d.ListenInline("pedido.status", func(p any) { got = append(got, "status:"+p.(string)) })

	var async atomic.Int32
	d.Listen("pedido.criado", func(any) { async.Add(1) })

	d.FireAsync("pedido.criado", "1")
	d.FireAsync("pedido.status", "1")

	assert.Equal(t, []string{"criado:1", "status:1"}, got)
	assert.Eventually(t, func() bool { return async.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}
