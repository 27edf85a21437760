package command

import (
	"context"
	"fmt"

	"github.com/pixil98/go-realm/internal/docstore"
	"github.com/pixil98/go-realm/internal/driver"
	"github.com/pixil98/go-realm/internal/listener"
	"github.com/pixil98/go-realm/internal/player"
	"github.com/pixil98/go-realm/internal/remote"
	"github.com/pixil98/go-service/service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	tuning, err := cfg.loadTuning()
	if err != nil {
		return nil, err
	}

	realms, err := cfg.Storage.Realms.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating realm store: %w", err)
	}

	dec, err := remote.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	// Create the embedded broker
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	// Open the document store and serve it over the broker
	store, closeStore, err := cfg.Storage.openStore()
	if err != nil {
		return nil, err
	}
	docServer := docstore.NewServer(store, natsServer)

	// Every session talks to the store through its own broker connection, so a
	// dropped session is seen by the presence sweep like any other client.
	dial := func(ctx context.Context, sessionID string) (player.Channel, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-natsServer.Ready():
		}
		ch, err := remote.DialNats(natsServer.ClientURL(), sessionID, cfg.Nats.channelOpts()...)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}

	pm, err := cfg.Session.BuildPlayerManager(dial, dec, tuning, realms)
	if err != nil {
		closeStore()
		return nil, err
	}

	// Setup the drivers
	presence := driver.NewTickDriver("presence", []driver.Manager{docServer}, driver.WithTickLength(cfg.tickInterval()))
	render := driver.NewTickDriver("render", []driver.Manager{pm}, driver.WithTickLength(cfg.renderInterval()))

	// Create a worker list
	return service.WorkerList{
		"nats":     natsServer,
		"docstore": &storeWorker{server: docServer, close: closeStore},
		"presence": presence,
		"render":   render,
		"players":  pm,
		"listener": cfg.Listener.BuildListener(listener.NewConnectionManager(pm)),
	}, nil
}

// storeWorker serves the document store and closes its files once serving stops.
type storeWorker struct {
	server *docstore.Server
	close  func()
}

func (w *storeWorker) Start(ctx context.Context) error {
	defer w.close()
	return w.server.Start(ctx)
}
