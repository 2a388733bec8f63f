package endpoints

import (
	"context"

	"buscalisto/internal/apis/marketplace/responses"
	"buscalisto/internal/domain/models"
)

// Request names one GET against the API. Two requests that resolve to the
// same URL are the same request.
type Request struct {
	Path   string
	Params Params
}

func RecentRequest(limit int) Request {
	return Request{Path: PathProductsRecent, Params: LimitParams(limit)}
}

func MostViewedRequest(limit int) Request {
	return Request{Path: PathProductsMostViewed, Params: LimitParams(limit)}
}

func DealsRequest(limit int) Request {
	return Request{Path: PathProductsDeals, Params: LimitParams(limit)}
}

func ByCategoryRequest(key string, limit int) Request {
	return Request{Path: ProductsByCategoryPath(key), Params: LimitParams(limit)}
}

func SearchRequest(q models.ProductQuery) Request {
	return Request{Path: PathProductsSearch, Params: ProductQueryParams(q)}
}

func AllRequest(q models.ProductQuery) Request {
	p := ProductQueryParams(q)
	delete(p, ParamTerm)
	return Request{Path: PathProductsAll, Params: p}
}

func FilteredRequest(q models.ProductQuery) Request {
	return Request{Path: PathProductsFiltered, Params: ProductQueryParams(q)}
}

func ProductDetailRequest(id models.ProductID) Request {
	return Request{Path: ProductDetailPath(id)}
}

func (c *Client) RecentProducts(ctx context.Context, limit int) ([]responses.Product, error) {
	return c.productList(ctx, "RecentProducts", RecentRequest(limit))
}

func (c *Client) MostViewedProducts(ctx context.Context, limit int) ([]responses.Product, error) {
	return c.productList(ctx, "MostViewedProducts", MostViewedRequest(limit))
}

func (c *Client) ProductsByCategory(ctx context.Context, key string, limit int) ([]responses.Product, error) {
	return c.productList(ctx, "ProductsByCategory", ByCategoryRequest(key, limit))
}

func (c *Client) Deals(ctx context.Context, limit int) ([]responses.Deal, error) {
	r := DealsRequest(limit)
	b, err := c.get(ctx, r.Path, r.Params, listBodyLimit)
	if err != nil {
		return nil, err
	}
	return decodeList[responses.Deal]("Deals", b)
}

func (c *Client) SearchProducts(ctx context.Context, q models.ProductQuery) ([]responses.Product, *responses.Pagination, error) {
	return c.productPage(ctx, "SearchProducts", SearchRequest(q))
}

func (c *Client) AllProducts(ctx context.Context, q models.ProductQuery) ([]responses.Product, *responses.Pagination, error) {
	return c.productPage(ctx, "AllProducts", AllRequest(q))
}

func (c *Client) FilteredProducts(ctx context.Context, q models.ProductQuery) ([]responses.Product, *responses.Pagination, error) {
	return c.productPage(ctx, "FilteredProducts", FilteredRequest(q))
}

func (c *Client) ProductDetail(ctx context.Context, id models.ProductID) (responses.Product, error) {
	r := ProductDetailRequest(id)
	b, err := c.get(ctx, r.Path, r.Params, objectBodyLimit)
	if err != nil {
		return responses.Product{}, err
	}
	return decodeObject[responses.Product]("ProductDetail", b)
}

func (c *Client) productList(ctx context.Context, op string, r Request) ([]responses.Product, error) {
	b, err := c.get(ctx, r.Path, r.Params, listBodyLimit)
	if err != nil {
		return nil, err
	}
	return decodeList[responses.Product](op, b)
}

func (c *Client) productPage(ctx context.Context, op string, r Request) ([]responses.Product, *responses.Pagination, error) {
	b, err := c.get(ctx, r.Path, r.Params, listBodyLimit)
	if err != nil {
		return nil, nil, err
	}
	return decodePage[responses.Product](op, b)
}
