package endpoints

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"buscalisto/internal/domain/models"
)

const (
	PathHealth = "/health"

	PathProductsRecent     = "/products/top/newest"
	PathProductsMostViewed = "/products/top/most-viewed"
	PathProductsDeals      = "/products/deals"
	PathProductsByCategory = "/products/category/"
	PathProductsSearch     = "/products/search"
	PathProductsAll        = "/products"
	PathProductsFiltered   = "/products/filter"

	PathCategoriesPopular = "/categories/popular"
	PathCategoriesAll     = "/categories"

	PathStores = "/stores/"
)

// Query parameter names on the wire. Older Spanish aliases (categoria,
// ordenarPor, orden) are accepted by the HTTP facade and mapped onto these.
const (
	ParamLimit     = "limit"
	ParamPage      = "page"
	ParamCategory  = "category"
	ParamTerm      = "q"
	ParamSortBy    = "sortBy"
	ParamSortOrder = "sortOrder"
	ParamMinPrice  = "minPrice"
	ParamMaxPrice  = "maxPrice"
)

func ProductsByCategoryPath(key string) string {
	return PathProductsByCategory + url.PathEscape(key)
}

func ProductDetailPath(id models.ProductID) string {
	return "/products/" + url.PathEscape(id.String()) + "/detail"
}

func StorePath(name string) string {
	return PathStores + url.PathEscape(name)
}

// Params maps query parameter names to values. nil, typed nil pointers and
// empty strings are dropped when building a URL.
type Params map[string]any

func LimitParams(limit int) Params {
	p := Params{}
	if limit > 0 {
		p[ParamLimit] = limit
	}
	return p
}

func ProductQueryParams(q models.ProductQuery) Params {
	p := Params{
		ParamCategory: q.Category,
		ParamTerm:     strings.TrimSpace(q.Term),
		ParamMinPrice: q.MinPrice,
		ParamMaxPrice: q.MaxPrice,
		ParamSortBy:   string(q.SortBy),
	}
	if q.Category == models.AllCategories {
		p[ParamCategory] = nil
	}
	if q.SortBy != models.SortNone {
		order := q.Order
		if order == "" {
			order = models.Asc
		}
		p[ParamSortOrder] = string(order)
	}
	if q.Page > 0 {
		p[ParamPage] = q.Page
	}
	if q.Limit > 0 {
		p[ParamLimit] = q.Limit
	}
	return p
}

// BuildURL joins base and path and appends params. The caller's map is
// not modified. A base without scheme or host is an error.
func BuildURL(base, path string, params Params) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(base), "/") + path)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("build url: base %q has no scheme or host", base)
	}

	q := u.Query()
	for k, v := range params {
		if s, ok := paramString(v); ok {
			q.Set(k, s)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func paramString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	case decimal.Decimal:
		return t.String(), true
	case *decimal.Decimal:
		if t == nil {
			return "", false
		}
		return t.String(), true
	case fmt.Stringer:
		if isNilPointer(v) {
			return "", false
		}
		s := t.String()
		return s, s != ""
	}
	if isNilPointer(v) {
		return "", false
	}
	s := fmt.Sprint(v)
	return s, s != ""
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
