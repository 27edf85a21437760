package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NatsChannel is a Channel backed by a document store reachable over NATS. The
// connection is named after the session so the store can tell when it goes away.
type NatsChannel struct {
	conn           *nats.Conn
	session        string
	requestTimeout time.Duration
}

type NatsChannelOpt func(*NatsChannel)

func WithRequestTimeout(d time.Duration) NatsChannelOpt {
	return func(c *NatsChannel) {
		c.requestTimeout = d
	}
}

// DialNats connects to the broker at url on behalf of session.
func DialNats(url, session string, opts ...NatsChannelOpt) (*NatsChannel, error) {
	c := &NatsChannel{
		session:        session,
		requestTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := nats.Connect(url, nats.Name(session))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	c.conn = conn

	return c, nil
}

// Session returns the name the channel's connection is registered under.
func (c *NatsChannel) Session() string {
	return c.session
}

// Close drops the connection. The store then runs this session's disconnect writes.
func (c *NatsChannel) Close() error {
	c.conn.Close()
	return nil
}

func (c *NatsChannel) Get(ctx context.Context, path string) (Snapshot, error) {
	if _, _, err := Root(path); err != nil {
		return Snapshot{}, err
	}
	rep, err := c.request(ctx, SubjectGet, Request{Session: c.session, Path: path})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Rev: rep.Rev, Exists: rep.Exists, Data: rep.Data}, nil
}

func (c *NatsChannel) Set(ctx context.Context, path string, value any) error {
	if _, _, err := Root(path); err != nil {
		return err
	}
	req := Request{Session: c.session, Path: path}
	if value != nil {
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding value for %s: %w", path, err)
		}
		req.Value = b
	}
	_, err := c.request(ctx, SubjectSet, req)
	return err
}

func (c *NatsChannel) AtomicUpdate(ctx context.Context, u Update) error {
	if err := u.Validate(); err != nil {
		return err
	}
	ops, err := EncodeOps(u)
	if err != nil {
		return err
	}
	_, err = c.request(ctx, SubjectUpdate, Request{Session: c.session, Ops: ops})
	return err
}

func (c *NatsChannel) OnDisconnectSetValue(ctx context.Context, path string, value any) error {
	ops, err := EncodeOps(NewUpdate().Set(path, value))
	if err != nil {
		return err
	}
	if _, _, err := Root(path); err != nil {
		return err
	}
	_, err = c.request(ctx, SubjectOnDisconnect, Request{Session: c.session, Path: path, Ops: ops})
	return err
}

func (c *NatsChannel) request(ctx context.Context, subject string, req Request) (Reply, error) {
	if c.conn.IsClosed() {
		return Reply{}, ErrClosed
	}
	data, err := Pack(req)
	if err != nil {
		return Reply{}, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	msg, err := c.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return Reply{}, fmt.Errorf("requesting %s: %w", subject, err)
	}

	var rep Reply
	if err := Unpack(msg.Data, &rep); err != nil {
		return Reply{}, err
	}
	if rep.Err != "" {
		return Reply{}, fmt.Errorf("%w: %s", ErrRejected, rep.Err)
	}
	return rep, nil
}

// Subscribe listens on the snapshot subject of path's document root and then fetches
// the current value, so the first delivery is never older than the subscription.
func (c *NatsChannel) Subscribe(path string, onSnapshot func(Snapshot), onError func(error)) (func(), error) {
	root, rel, err := Root(path)
	if err != nil {
		return nil, err
	}

	s := NewSubscription(path, rel, onSnapshot, onError)

	sub, err := c.conn.Subscribe(Subject(root), func(msg *nats.Msg) {
		var env Envelope
		if err := Unpack(msg.Data, &env); err != nil {
			s.Fail(err)
			return
		}
		s.Deliver(env.Snapshot())
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", root, err)
	}
	s.OnCancel(func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			slog.Warn("unsubscribing", "path", path, "error", err)
		}
	})

	go func() {
		snap, err := c.Get(context.Background(), root)
		if err != nil {
			s.Fail(fmt.Errorf("fetching %s: %w", root, err))
			return
		}
		s.Deliver(snap)
	}()

	return s.Cancel, nil
}
