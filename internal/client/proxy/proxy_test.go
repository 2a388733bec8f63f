package proxy_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buscalisto/internal/client/proxy"
)

func TestFromConfig(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		fn, err := proxy.FromConfig(proxy.Config{}, nil)
		require.NoError(t, err)
		assert.Nil(t, fn)
	})

	t.Run("list rotates", func(t *testing.T) {
		fn, err := proxy.FromConfig(proxy.Config{Mode: "LIST", List: []string{"10.0.0.1:3128", " ", "http://10.0.0.2:3128"}}, nil)
		require.NoError(t, err)

		req, _ := http.NewRequest(http.MethodGet, "http://api.test", nil)
		var hosts []string
		for range 3 {
			u, err := fn(req)
			require.NoError(t, err)
			hosts = append(hosts, u.Host)
		}
		assert.Equal(t, []string{"10.0.0.1:3128", "10.0.0.2:3128", "10.0.0.1:3128"}, hosts)
	})

	t.Run("empty list", func(t *testing.T) {
		_, err := proxy.FromConfig(proxy.Config{Mode: "list"}, nil)
		assert.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := proxy.FromConfig(proxy.Config{Mode: "rotation"}, nil)
		assert.Error(t, err)
	})
}
