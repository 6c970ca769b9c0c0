package clients

import (
	"context"

	"github.com/pkg/errors"
)

var ErrClientNotFound = errors.New("client not found")

type Repo interface {
	Create(ctx context.Context, client *Client) error
	Get(ctx context.Context, clientID string) (*Client, error)
	List(ctx context.Context) ([]*Client, error)
}
