package tokenfakerepo

import (
	"context"
	"sync"

	"github.com/cleanhq/cleaner/token"
)

var _ token.Repo = (*FakeTokenRepo)(nil)

type FakeTokenRepo struct {
	records map[string]*token.Record // keyed by kind + jti hash
	lock    sync.Mutex
}

func NewFakeTokenRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		records: make(map[string]*token.Record),
	}
}

func key(jtiHash string, kind token.Kind) string {
	return string(kind) + ":" + jtiHash
}

func (tr *FakeTokenRepo) Store(_ context.Context, record *token.Record) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	copied := *record
	tr.records[key(record.JTIHash, record.Kind)] = &copied
	return nil
}

func (tr *FakeTokenRepo) Get(_ context.Context, jtiHash string, kind token.Kind) (*token.Record, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	record, ok := tr.records[key(jtiHash, kind)]
	if !ok {
		return nil, token.ErrRecordNotFound
	}
	copied := *record
	return &copied, nil
}

func (tr *FakeTokenRepo) Revoke(_ context.Context, jtiHash string, kind token.Kind) (bool, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	record, ok := tr.records[key(jtiHash, kind)]
	if !ok {
		return false, nil
	}
	record.Revoked = true
	return true, nil
}

func (tr *FakeTokenRepo) RevokeActive(_ context.Context, jtiHash string, kind token.Kind) (bool, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	record, ok := tr.records[key(jtiHash, kind)]
	if !ok || record.Revoked {
		return false, nil
	}
	record.Revoked = true
	return true, nil
}

func (tr *FakeTokenRepo) RevokeAllForOwner(_ context.Context, clientID, userID string, kind token.Kind) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	for _, record := range tr.records {
		if record.Kind == kind && record.ClientID == clientID && record.UserID == userID {
			record.Revoked = true
		}
	}
	return nil
}
