package fakeclientrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/cleanhq/cleaner/clients"
)

var _ clients.Repo = (*FakeClientRepo)(nil)

type FakeClientRepo struct {
	clients map[string]*clients.Client
	lock    sync.RWMutex
}

func NewFakeClientRepo() *FakeClientRepo {
	return &FakeClientRepo{
		clients: make(map[string]*clients.Client),
	}
}

func (r *FakeClientRepo) Create(_ context.Context, client *clients.Client) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.clients[client.ID] = client
	return nil
}

func (r *FakeClientRepo) Get(_ context.Context, clientID string) (*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	client, ok := r.clients[clientID]
	if !ok {
		return nil, clients.ErrClientNotFound
	}
	return client, nil
}

func (r *FakeClientRepo) List(_ context.Context) ([]*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*clients.Client, 0, len(r.clients))
	for _, c := range r.clients {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}
