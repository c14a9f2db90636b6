package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinnerd/internal/infrastructure/auth"
	"dinnerd/internal/infrastructure/persistence/models"
	"dinnerd/internal/shared/constants"
)

// upload posts raw content as the given requester.
func (f *fixture) upload(t *testing.T, contentType string, content []byte, requesterID uint) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader(content))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if requesterID != 0 {
		req.Header.Set(constants.HeaderRequesterIdentity, fmt.Sprintf("%d", requesterID))
	}
	return f.raw(t, req)
}

func TestDocumentUpload(t *testing.T) {
	f := setupFixture(t)
	uploader := f.seedPerson(t, "uploader@example.org", models.GroupUser)
	content := []byte("\x89PNG fake image bytes")

	t.Run("stores raw content with its digest", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader(content))
		req.Header.Set("Content-Type", "image/png")
		req.Header.Set(constants.HeaderContentDesc, "a test image")
		req.Header.Set(constants.HeaderRequesterIdentity, fmt.Sprintf("%d", uploader.ID))
		recorder := f.raw(t, req)
		require.Equal(t, http.StatusCreated, recorder.Code)

		var view struct {
			Hash        string  `json:"hash"`
			Type        string  `json:"type"`
			Size        int64   `json:"size"`
			Description *string `json:"description"`
		}
		decodeData(t, recorder, &view)
		assert.Equal(t, auth.Sha2HexBytes(content), view.Hash)
		assert.Equal(t, "image/png", view.Type)
		assert.Equal(t, int64(len(content)), view.Size)
		require.NotNil(t, view.Description)
		assert.Equal(t, "a test image", *view.Description)
	})

	t.Run("identical content is deduplicated", func(t *testing.T) {
		recorder := f.upload(t, "image/png", content, uploader.ID)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("structured payloads are rejected", func(t *testing.T) {
		recorder := f.upload(t, "application/json", []byte(`{"a":1}`), uploader.ID)
		assert.Equal(t, http.StatusUnsupportedMediaType, recorder.Code)

		recorder = f.upload(t, "text/xml", []byte(`<a/>`), uploader.ID)
		assert.Equal(t, http.StatusUnsupportedMediaType, recorder.Code)
	})

	t.Run("empty content is rejected", func(t *testing.T) {
		recorder := f.upload(t, "image/png", nil, uploader.ID)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("anonymous upload is rejected", func(t *testing.T) {
		recorder := f.upload(t, "image/png", []byte("other"), 0)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestDocumentNegotiation(t *testing.T) {
	f := setupFixture(t)
	reader := f.seedPerson(t, "reader@example.org", models.GroupUser)
	document := f.seedDocument(t, "text/plain", []byte("hello, dinner"))
	path := fmt.Sprintf("/documents/%d", document.ID)

	get := func(t *testing.T, accept string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		req.Header.Set(constants.HeaderRequesterIdentity, fmt.Sprintf("%d", reader.ID))
		return f.raw(t, req)
	}

	t.Run("json accept yields metadata without content", func(t *testing.T) {
		recorder := get(t, "application/json")
		require.Equal(t, http.StatusOK, recorder.Code)

		var view struct {
			Hash string `json:"hash"`
			Size int64  `json:"size"`
		}
		decodeData(t, recorder, &view)
		assert.Equal(t, document.Hash, view.Hash)
		assert.Equal(t, int64(len("hello, dinner")), view.Size)
		assert.NotContains(t, recorder.Body.String(), "hello, dinner")
	})

	t.Run("matching accept yields the raw content with etag", func(t *testing.T) {
		recorder := get(t, "text/plain")
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "hello, dinner", recorder.Body.String())
		assert.True(t, strings.HasPrefix(recorder.Header().Get("Content-Type"), "text/plain"))
		assert.Equal(t, `"`+document.Hash+`"`, recorder.Header().Get("ETag"))
	})

	t.Run("wildcard accept matches", func(t *testing.T) {
		recorder := get(t, "text/*")
		assert.Equal(t, http.StatusOK, recorder.Code)

		recorder = get(t, "*/*")
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("unacceptable type is refused", func(t *testing.T) {
		recorder := get(t, "image/png")
		assert.Equal(t, http.StatusNotAcceptable, recorder.Code)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents/999", nil)
		req.Header.Set("Accept", "application/json")
		req.Header.Set(constants.HeaderRequesterIdentity, fmt.Sprintf("%d", reader.ID))
		recorder := f.raw(t, req)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestDocumentDelete(t *testing.T) {
	f := setupFixture(t)
	admin := f.seedPerson(t, "admin@example.org", models.GroupAdmin)
	user := f.seedPerson(t, "user@example.org", models.GroupUser)

	t.Run("requires the admin group", func(t *testing.T) {
		document := f.seedDocument(t, "image/png", []byte("pixels"))
		recorder := f.request(t, http.MethodDelete, fmt.Sprintf("/documents/%d", document.ID), nil, user.ID)
		assert.Equal(t, http.StatusForbidden, recorder.Code)

		recorder = f.request(t, http.MethodDelete, fmt.Sprintf("/documents/%d", document.ID), nil, admin.ID)
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})

	t.Run("the default avatar is protected", func(t *testing.T) {
		recorder := f.request(t, http.MethodDelete, fmt.Sprintf("/documents/%d", constants.DefaultAvatarID), nil, admin.ID)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("an illustrated document is protected", func(t *testing.T) {
		recipe := f.seedRecipe(t, "Ratatouille", user.ID)
		photo := f.seedDocument(t, "image/jpeg", []byte("photo"))
		recorder := f.request(t, http.MethodPut,
			fmt.Sprintf("/recipes/%d/illustrations/%d", recipe.ID, photo.ID), nil, user.ID)
		require.Equal(t, http.StatusNoContent, recorder.Code)

		recorder = f.request(t, http.MethodDelete, fmt.Sprintf("/documents/%d", photo.ID), nil, admin.ID)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("an avatar document is protected", func(t *testing.T) {
		avatar := f.seedDocument(t, "image/png", []byte("face"))
		user.AvatarID = &avatar.ID
		require.NoError(t, f.people.Update(context.Background(), user))

		recorder := f.request(t, http.MethodDelete, fmt.Sprintf("/documents/%d", avatar.ID), nil, admin.ID)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}
