package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/majako/sales-forecaster/pkg/types"
)

// SettingsProvider defines the store methods required by the settings
// handler.
type SettingsProvider interface {
	GetSettings(ctx context.Context) (*domain.Settings, error)
	SaveSettings(ctx context.Context, s *domain.Settings) error
}

// SettingsHandler handles plugin configuration requests.
type SettingsHandler struct {
	store SettingsProvider
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s SettingsProvider) *SettingsHandler {
	return &SettingsHandler{store: s}
}

// SettingsBody is the settings representation on the wire. The API key
// is masked on reads.
type SettingsBody struct {
	APIKey   string  `json:"api_key" doc:"Forecasting API subscription key"`
	Quantile float64 `json:"quantile" doc:"Optional upper-bound percentile (0 disables)" minimum:"0" maximum:"100"`
}

// GetSettingsOutput is the response body for reading settings.
type GetSettingsOutput struct {
	Body SettingsBody
}

// UpdateSettingsInput is the request body for updating settings.
type UpdateSettingsInput struct {
	Body SettingsBody
}

// UpdateSettingsOutput is the response body for updating settings.
type UpdateSettingsOutput struct {
	Body StatusResponse
}

// GetSettings returns the stored configuration with the key masked.
func (h *SettingsHandler) GetSettings(
	ctx context.Context,
	_ *struct{},
) (*GetSettingsOutput, error) {
	settings, err := h.store.GetSettings(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("loading settings failed: " + err.Error())
	}

	return &GetSettingsOutput{
		Body: SettingsBody{
			APIKey:   maskKey(settings.APIKey),
			Quantile: settings.Quantile,
		},
	}, nil
}

// UpdateSettings persists the configuration. Submitting a masked key
// keeps the stored one.
func (h *SettingsHandler) UpdateSettings(
	ctx context.Context,
	input *UpdateSettingsInput,
) (*UpdateSettingsOutput, error) {
	current, err := h.store.GetSettings(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("loading settings failed: " + err.Error())
	}

	key := input.Body.APIKey
	if key == "" || strings.Contains(key, "*") {
		key = current.APIKey
	}

	if err := h.store.SaveSettings(ctx, &domain.Settings{
		APIKey:   key,
		Quantile: input.Body.Quantile,
	}); err != nil {
		return nil, huma.Error500InternalServerError("saving settings failed: " + err.Error())
	}

	return &UpdateSettingsOutput{Body: StatusResponse{Status: "saved"}}, nil
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// RegisterSettingsRoutes registers settings endpoints with the Huma API.
func RegisterSettingsRoutes(api huma.API, h *SettingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Get plugin settings",
		Description: "Returns the stored configuration. The subscription key is masked.",
		Tags:        []string{"settings"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.GetSettings)

	huma.Register(api, huma.Operation{
		OperationID: "update-settings",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings",
		Summary:     "Update plugin settings",
		Description: "Persists the subscription key and quantile configuration.",
		Tags:        []string{"settings"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.UpdateSettings)
}
