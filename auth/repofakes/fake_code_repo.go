package fakecoderepo

import (
	"context"
	"sync"

	"github.com/cleanhq/cleaner/auth"
)

var _ auth.CodeRepo = (*FakeCodeRepo)(nil)

type FakeCodeRepo struct {
	codes map[string]*auth.Code
	lock  sync.Mutex
}

func NewFakeCodeRepo() *FakeCodeRepo {
	return &FakeCodeRepo{
		codes: make(map[string]*auth.Code),
	}
}

func (cr *FakeCodeRepo) Store(_ context.Context, code *auth.Code) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	copied := *code
	cr.codes[code.Code] = &copied
	return nil
}

func (cr *FakeCodeRepo) Consume(_ context.Context, code string) (*auth.Code, error) {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	stored, ok := cr.codes[code]
	if !ok {
		return nil, auth.ErrCodeNotFound
	}
	delete(cr.codes, code)
	return stored, nil
}
