package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/spellcast/internal/adapters/mq/queue"
	worker "github.com/okian/spellcast/internal/adapters/mq/worker"
	logging "github.com/okian/spellcast/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	eventChan chan queue.Event
	once      sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		eventChan: make(chan queue.Event, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Event {
	return mq.eventChan
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.eventChan) })
	return nil
}

func (mq *mockQueue) addEvent(event queue.Event) { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	mq.eventChan <- event
}

type mockSpawner struct {
	spawned []string
	errors  map[string]error
	delay   time.Duration
	mu      sync.Mutex
}

func newMockSpawner() *mockSpawner {
	return &mockSpawner{errors: make(map[string]error)}
}

func (ms *mockSpawner) Spawn(ctx context.Context, e queue.Event) error {
	if ms.delay > 0 {
		time.Sleep(ms.delay)
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if err, ok := ms.errors[e.SpellID]; ok {
		return err
	}
	ms.spawned = append(ms.spawned, e.SpellID)
	return nil
}

func (ms *mockSpawner) setError(spellID string, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.errors[spellID] = err
}

func (ms *mockSpawner) count() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.spawned)
}

func (ms *mockSpawner) has(spellID string) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, s := range ms.spawned {
		if s == spellID {
			return true
		}
	}
	return false
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		spawner := newMockSpawner()

		convey.Convey("When creating a worker with default options", func() {
			w := worker.NewInMemoryWorker(q, spawner)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
				convey.So(w.Spawned(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When creating a worker with custom options", func() {
			w := worker.NewInMemoryWorker(q, spawner,
				worker.WithName("custom"),
				worker.WithLogger(logging.Discard()),
			)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the worker processes casts", func() {
			w := worker.NewInMemoryWorker(q, spawner)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			q.addEvent(queue.Event{SpellID: "fireball"})
			q.addEvent(queue.Event{SpellID: "lance"})

			convey.Convey("Then every cast is spawned", func() {
				convey.So(waitFor(func() bool { return spawner.count() == 2 }), convey.ShouldBeTrue)
				convey.So(spawner.has("fireball"), convey.ShouldBeTrue)
				convey.So(spawner.has("lance"), convey.ShouldBeTrue)
				convey.So(waitFor(func() bool { return w.Spawned() == 2 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the spawner fails for one cast", func() {
			spawner.setError("broken", errors.New("no such effect"))
			w := worker.NewInMemoryWorker(q, spawner)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			q.addEvent(queue.Event{SpellID: "broken"})
			q.addEvent(queue.Event{SpellID: "fireball"})

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(func() bool { return spawner.has("fireball") }), convey.ShouldBeTrue)
				convey.So(spawner.has("broken"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the queue closes", func() {
			w := worker.NewInMemoryWorker(q, spawner)
			done := make(chan struct{})
			go func() {
				w.Run(context.Background())
				close(done)
			}()
			q.addEvent(queue.Event{SpellID: "fireball"})
			_ = q.Close()

			convey.Convey("Then Run drains and returns", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
				}
				convey.So(spawner.has("fireball"), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shutting down", func() {
			w := worker.NewInMemoryWorker(q, spawner)
			go w.Run(context.Background())

			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops without error and tolerates a second call", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When shutdown outlives its context", func() {
			w := worker.NewInMemoryWorker(q, spawner)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := w.Shutdown(ctx)

			convey.Convey("Then it reports the timeout", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		spawner := newMockSpawner()
		spawner.delay = time.Millisecond

		convey.Convey("When created with a non-positive size", func() {
			p := worker.NewPool(0, q, spawner)

			convey.Convey("Then it uses at least one worker", func() {
				convey.So(p.Size(), convey.ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		convey.Convey("When casts are queued and the pool shuts down", func() {
			p := worker.NewPool(4, q, spawner)
			ctx := context.Background()
			p.Start(ctx)

			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(ctx, queue.Event{SpellID: fmt.Sprintf("spell-%d", i)}), convey.ShouldBeTrue)
			}
			err := p.Shutdown(ctx)

			convey.Convey("Then every queued cast is spawned before returning", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(spawner.count(), convey.ShouldEqual, 50)
				convey.So(p.Spawned(), convey.ShouldEqual, 50)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}
