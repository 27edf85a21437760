package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pixil98/go-realm/internal/remote"
)

// Broker is the message transport the store is served over.
type Broker interface {
	Ready() <-chan struct{}
	Handle(subject string, handler func(data []byte) []byte) (func(), error)
	Publish(subject string, data []byte) error
	ConnectedClients() (map[string]bool, error)
}

// Server answers document store requests arriving over a Broker, publishes every
// commit on the root's snapshot subject and runs disconnect writes for sessions whose
// broker connection has gone away.
type Server struct {
	store  *Store
	broker Broker
	hub    *Hub

	mu    sync.Mutex
	local map[string]bool
}

func NewServer(store *Store, broker Broker) *Server {
	s := &Server{
		store:  store,
		broker: broker,
		hub:    NewHub(),
		local:  map[string]bool{},
	}
	store.SetPublisher(s.publish)
	return s
}

// Local returns an in-process channel for session that shares this server's store
// and snapshot stream.
func (s *Server) Local(session string) *LocalChannel {
	s.mu.Lock()
	s.local[session] = true
	s.mu.Unlock()

	c := NewLocalChannel(s.store, s.hub, session)
	c.onClose = func() {
		s.mu.Lock()
		delete(s.local, session)
		s.mu.Unlock()
	}
	return c
}

func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-s.broker.Ready():
	}

	handlers := map[string]func(remote.Request) (remote.Reply, error){
		remote.SubjectGet:          s.handleGet,
		remote.SubjectSet:          s.handleSet,
		remote.SubjectUpdate:       s.handleUpdate,
		remote.SubjectOnDisconnect: s.handleOnDisconnect,
	}

	var unsubs []func()
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	for subject, h := range handlers {
		unsub, err := s.broker.Handle(subject, s.wrap(subject, h))
		if err != nil {
			return fmt.Errorf("handling %s: %w", subject, err)
		}
		unsubs = append(unsubs, unsub)
	}

	slog.InfoContext(ctx, "document store serving", "subjects", len(handlers))
	<-ctx.Done()
	return nil
}

// Tick runs disconnect writes for every session no longer connected to the broker.
func (s *Server) Tick(ctx context.Context) error {
	live, err := s.broker.ConnectedClients()
	if err != nil {
		slog.WarnContext(ctx, "listing broker clients", "error", err)
		return nil
	}

	s.mu.Lock()
	for session := range s.local {
		live[session] = true
	}
	s.mu.Unlock()

	s.store.Sweep(live)
	return nil
}

func (s *Server) publish(env remote.Envelope) {
	s.hub.Publish(env)

	data, err := remote.Pack(env)
	if err != nil {
		slog.Error("packing snapshot", "root", env.Path, "error", err)
		return
	}
	if err := s.broker.Publish(remote.Subject(env.Path), data); err != nil {
		slog.Warn("publishing snapshot", "root", env.Path, "error", err)
	}
}

func (s *Server) wrap(subject string, h func(remote.Request) (remote.Reply, error)) func([]byte) []byte {
	return func(data []byte) []byte {
		var rep remote.Reply
		var req remote.Request
		err := remote.Unpack(data, &req)
		if err == nil {
			rep, err = h(req)
		}
		if err != nil {
			slog.Debug("request failed", "subject", subject, "session", req.Session, "error", err)
			rep = remote.Reply{Err: err.Error()}
		}

		out, err := remote.Pack(rep)
		if err != nil {
			slog.Error("packing reply", "subject", subject, "error", err)
			return nil
		}
		return out
	}
}

func (s *Server) handleGet(req remote.Request) (remote.Reply, error) {
	snap, err := s.store.Get(req.Path)
	if err != nil {
		return remote.Reply{}, err
	}
	return remote.Reply{Rev: snap.Rev, Exists: snap.Exists, Data: snap.Data}, nil
}

func (s *Server) handleSet(req remote.Request) (remote.Reply, error) {
	v, err := remote.DecodeValue(req.Value)
	if err != nil {
		return remote.Reply{}, fmt.Errorf("decoding value: %w", err)
	}
	return remote.Reply{}, s.store.Set(req.Session, req.Path, v)
}

func (s *Server) handleUpdate(req remote.Request) (remote.Reply, error) {
	u, err := remote.DecodeOps(req.Ops)
	if err != nil {
		return remote.Reply{}, err
	}
	return remote.Reply{}, s.store.Apply(req.Session, u)
}

func (s *Server) handleOnDisconnect(req remote.Request) (remote.Reply, error) {
	if req.Session == "" {
		return remote.Reply{}, fmt.Errorf("request has no session")
	}
	u, err := remote.DecodeOps(req.Ops)
	if err != nil {
		return remote.Reply{}, err
	}
	op, ok := u[req.Path]
	if !ok || op.Kind != remote.OpSet {
		return remote.Reply{}, fmt.Errorf("disconnect write for %s must be a set", req.Path)
	}
	return remote.Reply{}, s.store.OnDisconnect(req.Session, req.Path, op.Value)
}
