package docstore

import (
	"context"
	"sync"

	"github.com/pixil98/go-realm/internal/remote"
)

// Hub fans committed snapshots out to in-process subscribers.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]*localSub
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[int]*localSub{}}
}

// Publish queues env for every subscriber of its document root. It never blocks on a
// subscriber.
func (h *Hub) Publish(env remote.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ls := range h.subs[env.Path] {
		ls.push(env.Snapshot())
	}
}

func (h *Hub) add(root string, ls *localSub) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	if h.subs[root] == nil {
		h.subs[root] = map[int]*localSub{}
	}
	h.subs[root][h.next] = ls
	return h.next
}

func (h *Hub) remove(root string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs[root], id)
	if len(h.subs[root]) == 0 {
		delete(h.subs, root)
	}
}

// localSub owns the delivery goroutine of one in-process subscription.
type localSub struct {
	sub *remote.Subscription

	mu    sync.Mutex
	queue []remote.Snapshot
	wake  chan struct{}
	done  chan struct{}
}

func (ls *localSub) push(snap remote.Snapshot) {
	ls.mu.Lock()
	ls.queue = append(ls.queue, snap)
	ls.mu.Unlock()

	select {
	case ls.wake <- struct{}{}:
	default:
	}
}

func (ls *localSub) run(first func() (remote.Snapshot, error)) {
	snap, err := first()
	if err != nil {
		ls.sub.Fail(err)
	} else {
		ls.sub.Deliver(snap)
	}

	for {
		select {
		case <-ls.done:
			return
		case <-ls.wake:
		}

		ls.mu.Lock()
		pending := ls.queue
		ls.queue = nil
		ls.mu.Unlock()

		for _, s := range pending {
			ls.sub.Deliver(s)
		}
	}
}

// LocalChannel is a remote.Channel served directly by a Store in the same process.
type LocalChannel struct {
	store   *Store
	hub     *Hub
	session string
	onClose func()
}

func NewLocalChannel(store *Store, hub *Hub, session string) *LocalChannel {
	return &LocalChannel{store: store, hub: hub, session: session}
}

// Close runs the session's disconnect writes, as a dropped broker connection would.
func (c *LocalChannel) Close() error {
	if c.onClose != nil {
		c.onClose()
	}
	return c.store.Disconnect(c.session)
}

func (c *LocalChannel) Subscribe(path string, onSnapshot func(remote.Snapshot), onError func(error)) (func(), error) {
	root, rel, err := remote.Root(path)
	if err != nil {
		return nil, err
	}

	ls := &localSub{
		sub:  remote.NewSubscription(path, rel, onSnapshot, onError),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	id := c.hub.add(root, ls)
	ls.sub.OnCancel(func() {
		c.hub.remove(root, id)
		close(ls.done)
	})

	go ls.run(func() (remote.Snapshot, error) {
		return c.store.Get(root)
	})

	return ls.sub.Cancel, nil
}

func (c *LocalChannel) AtomicUpdate(_ context.Context, u remote.Update) error {
	return c.store.Apply(c.session, u)
}

func (c *LocalChannel) OnDisconnectSetValue(_ context.Context, path string, value any) error {
	return c.store.OnDisconnect(c.session, path, value)
}

func (c *LocalChannel) Get(_ context.Context, path string) (remote.Snapshot, error) {
	return c.store.Get(path)
}

func (c *LocalChannel) Set(_ context.Context, path string, value any) error {
	return c.store.Set(c.session, path, value)
}
