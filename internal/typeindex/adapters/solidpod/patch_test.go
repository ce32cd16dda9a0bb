package solidpod

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeindex/internal/rdf/graph"
	"typeindex/pkg/platform/sentinel"
)

func TestEncodePatch(t *testing.T) {
	del := []string{"<https://a.example/i#r> <http://www.w3.org/ns/solid/terms#instance> <https://a.example/old> ."}
	ins := []string{"<https://a.example/i#r> <http://www.w3.org/ns/solid/terms#instance> <https://a.example/new> ."}

	t.Run("sparql with both sets", func(t *testing.T) {
		ct, body, err := EncodePatch(PatchSPARQL, del, ins)
		require.NoError(t, err)
		assert.Equal(t, graph.MediaSPARQL, ct)
		text := string(body)
		assert.Less(t, strings.Index(text, "DELETE DATA"), strings.Index(text, "INSERT DATA"))
		assert.Contains(t, text, "};\nINSERT DATA")
		assert.Contains(t, text, del[0])
		assert.Contains(t, text, ins[0])
	})

	t.Run("empty format means sparql", func(t *testing.T) {
		ct, _, err := EncodePatch("", nil, ins)
		require.NoError(t, err)
		assert.Equal(t, graph.MediaSPARQL, ct)
	})

	t.Run("n3 names both formulae", func(t *testing.T) {
		ct, body, err := EncodePatch(PatchN3, del, ins)
		require.NoError(t, err)
		assert.Equal(t, graph.MediaN3, ct)
		text := string(body)
		assert.Contains(t, text, "a solid:InsertDeletePatch")
		assert.Contains(t, text, "solid:deletes {")
		assert.Contains(t, text, "solid:inserts {")
		assert.True(t, strings.HasSuffix(text, ".\n"))
	})

	t.Run("n3 omits empty formulae", func(t *testing.T) {
		_, body, err := EncodePatch(PatchN3, del, nil)
		require.NoError(t, err)
		assert.NotContains(t, string(body), "solid:inserts")
	})

	t.Run("nothing to change", func(t *testing.T) {
		_, _, err := EncodePatch(PatchSPARQL, nil, nil)
		assert.ErrorIs(t, err, errEmptyPatch)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := EncodePatch("ldpatch", del, nil)
		assert.Error(t, err)
	})
}

func TestStatusErrorUnwrap(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, sentinel.ErrNotFound},
		{http.StatusGone, sentinel.ErrNotFound},
		{http.StatusUnauthorized, sentinel.ErrUnauthorized},
		{http.StatusForbidden, sentinel.ErrUnauthorized},
		{http.StatusConflict, sentinel.ErrConflict},
		{http.StatusPreconditionFailed, sentinel.ErrConflict},
		{http.StatusUnsupportedMediaType, sentinel.ErrUnsupported},
		{http.StatusTooManyRequests, sentinel.ErrUnavailable},
		{http.StatusBadGateway, sentinel.ErrUnavailable},
		{http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := &StatusError{Method: http.MethodGet, URI: "https://a.example/x", StatusCode: tt.status}
			if tt.want == nil {
				assert.Nil(t, errors.Unwrap(err))
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	err := &StatusError{Method: http.MethodPatch, URI: "https://a.example/x", StatusCode: 409, Body: "cannot delete"}
	assert.Equal(t, "PATCH https://a.example/x: 409 Conflict: cannot delete", err.Error())
}
