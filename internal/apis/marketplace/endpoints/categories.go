package endpoints

import (
	"context"

	"buscalisto/internal/apis/marketplace/responses"
)

func PopularCategoriesRequest(limit int) Request {
	return Request{Path: PathCategoriesPopular, Params: LimitParams(limit)}
}

func CategoriesRequest() Request {
	return Request{Path: PathCategoriesAll}
}

func (c *Client) PopularCategories(ctx context.Context, limit int) ([]responses.PopularCategory, error) {
	r := PopularCategoriesRequest(limit)
	b, err := c.get(ctx, r.Path, r.Params, listBodyLimit)
	if err != nil {
		return nil, err
	}
	return decodeList[responses.PopularCategory]("PopularCategories", b)
}

func (c *Client) Categories(ctx context.Context) ([]responses.Category, error) {
	r := CategoriesRequest()
	b, err := c.get(ctx, r.Path, r.Params, objectBodyLimit)
	if err != nil {
		return nil, err
	}
	return decodeList[responses.Category]("Categories", b)
}
