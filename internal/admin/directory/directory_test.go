package directory_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pwm-project/pwm-admin/internal/admin/directory"
)

func TestStaticServiceBrowse(t *testing.T) {
	t.Parallel()

	svc := directory.NewStaticService()

	root, err := svc.Browse(context.Background(), "tok", "")
	require.NoError(t, err)
	require.Equal(t, "dc=example,dc=com", root.DN)
	require.Len(t, root.Containers, 3)

	people, err := svc.Browse(context.Background(), "tok", root.Containers[0].DN)
	require.NoError(t, err)
	require.Equal(t, root.DN, people.Parent)
	require.NotEmpty(t, people.Entries)

	_, err = svc.Browse(context.Background(), "tok", "ou=nowhere")
	var serverErr *directory.ServerError
	require.ErrorAs(t, err, &serverErr)
	require.Equal(t, 404, serverErr.StatusCode)
}

func TestHTTPServiceBrowse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/directory/browse", r.URL.Path)
		require.Equal(t, "ou=groups,dc=example,dc=com", r.URL.Query().Get("dn"))
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dn":"ou=groups,dc=example,dc=com","parent":"dc=example,dc=com","entries":[{"dn":"cn=staff,ou=groups,dc=example,dc=com","label":"staff"}]}`))
	}))
	t.Cleanup(server.Close)

	svc, err := directory.NewHTTPService(server.URL, server.Client())
	require.NoError(t, err)

	result, err := svc.Browse(context.Background(), "tok", "ou=groups,dc=example,dc=com")
	require.NoError(t, err)
	require.Equal(t, "dc=example,dc=com", result.Parent)
	require.Len(t, result.Entries, 1)
	require.Equal(t, "staff", result.Entries[0].Label)
}
