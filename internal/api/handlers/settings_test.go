package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/majako/sales-forecaster/internal/api/handlers"
	domain "github.com/majako/sales-forecaster/pkg/types"
)

type fakeSettingsStore struct {
	settings *domain.Settings
	getErr   error
	saveErr  error
	saved    *domain.Settings
}

func (f *fakeSettingsStore) GetSettings(context.Context) (*domain.Settings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.settings, nil
}

func (f *fakeSettingsStore) SaveSettings(_ context.Context, s *domain.Settings) error {
	f.saved = s
	return f.saveErr
}

func newSettingsAPI(t *testing.T, f *fakeSettingsStore) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterSettingsRoutes(api, handlers.NewSettingsHandler(f))
	return api
}

func TestSettingsHandler_Get(t *testing.T) {
	t.Parallel()

	t.Run("masks the key", func(t *testing.T) {
		t.Parallel()

		f := &fakeSettingsStore{
			settings: &domain.Settings{APIKey: "secret-key-1234", Quantile: 90},
		}
		api := newSettingsAPI(t, f)

		resp := api.Get("/api/v1/settings")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"***********1234"`)
		assert.NotContains(t, resp.Body.String(), "secret-key")
		assert.Contains(t, resp.Body.String(), `"quantile":90`)
	})

	t.Run("short key fully masked", func(t *testing.T) {
		t.Parallel()

		f := &fakeSettingsStore{settings: &domain.Settings{APIKey: "abc"}}
		api := newSettingsAPI(t, f)

		resp := api.Get("/api/v1/settings")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"***"`)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()

		api := newSettingsAPI(t, &fakeSettingsStore{getErr: assert.AnError})
		resp := api.Get("/api/v1/settings")
		require.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestSettingsHandler_Update(t *testing.T) {
	t.Parallel()

	t.Run("saves new key", func(t *testing.T) {
		t.Parallel()

		f := &fakeSettingsStore{settings: &domain.Settings{APIKey: "old-key"}}
		api := newSettingsAPI(t, f)

		resp := api.Put("/api/v1/settings", map[string]any{
			"api_key":  "new-key",
			"quantile": 95,
		})
		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, f.saved)
		assert.Equal(t, "new-key", f.saved.APIKey)
		assert.InDelta(t, 95.0, f.saved.Quantile, 1e-9)
	})

	t.Run("masked key keeps stored one", func(t *testing.T) {
		t.Parallel()

		f := &fakeSettingsStore{settings: &domain.Settings{APIKey: "old-key-1234"}}
		api := newSettingsAPI(t, f)

		resp := api.Put("/api/v1/settings", map[string]any{
			"api_key":  "********1234",
			"quantile": 0,
		})
		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, f.saved)
		assert.Equal(t, "old-key-1234", f.saved.APIKey)
	})

	t.Run("empty key keeps stored one", func(t *testing.T) {
		t.Parallel()

		f := &fakeSettingsStore{settings: &domain.Settings{APIKey: "old-key"}}
		api := newSettingsAPI(t, f)

		resp := api.Put("/api/v1/settings", map[string]any{
			"api_key":  "",
			"quantile": 50,
		})
		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, f.saved)
		assert.Equal(t, "old-key", f.saved.APIKey)
	})

	t.Run("save error", func(t *testing.T) {
		t.Parallel()

		f := &fakeSettingsStore{
			settings: &domain.Settings{},
			saveErr:  assert.AnError,
		}
		api := newSettingsAPI(t, f)

		resp := api.Put("/api/v1/settings", map[string]any{
			"api_key":  "k",
			"quantile": 0,
		})
		require.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}
