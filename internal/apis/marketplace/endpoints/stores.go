package endpoints

import (
	"context"

	"buscalisto/internal/apis/marketplace/responses"
)

func StoreRequest(name string) Request {
	return Request{Path: StorePath(name)}
}

func (c *Client) StoreByName(ctx context.Context, name string) (responses.Store, error) {
	r := StoreRequest(name)
	b, err := c.get(ctx, r.Path, r.Params, objectBodyLimit)
	if err != nil {
		return responses.Store{}, err
	}
	return decodeObject[responses.Store]("StoreByName", b)
}
