package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/video-stream/signreel/internal/db"
	"github.com/video-stream/signreel/internal/db/models"
)

type SettingsHandler struct {
	database    *db.Database
	recognizers []string
	defaults    map[string]string
}

// NewSettingsHandler takes the available recognizer names and the defaults
// reported for unset keys.
func NewSettingsHandler(database *db.Database, recognizers []string, defaultRecognizer, defaultLanguage string) *SettingsHandler {
	return &SettingsHandler{
		database:    database,
		recognizers: recognizers,
		defaults: map[string]string{
			models.SettingRecognizer: defaultRecognizer,
			models.SettingLanguage:   defaultLanguage,
		},
	}
}

type settingsResponse struct {
	Recognizer  string   `json:"recognizer"`
	Language    string   `json:"language"`
	Recognizers []string `json:"recognizers"`
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, settingsResponse{
		Recognizer:  h.database.GetSetting(models.SettingRecognizer, h.defaults[models.SettingRecognizer]),
		Language:    h.database.GetSetting(models.SettingLanguage, h.defaults[models.SettingLanguage]),
		Recognizers: h.recognizers,
	}, http.StatusOK)
}

// UpdateSettings saves the recognizer and language from the request body.
// Omitted fields are left unchanged.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recognizer *string `json:"recognizer"`
		Language   *string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Recognizer != nil {
		if !h.knownRecognizer(*req.Recognizer) {
			jsonError(w, "unknown recognizer: "+*req.Recognizer, http.StatusBadRequest)
			return
		}
		if err := h.database.SetSetting(models.SettingRecognizer, *req.Recognizer); err != nil {
			jsonError(w, "failed to save setting", http.StatusInternalServerError)
			return
		}
	}
	if req.Language != nil {
		if err := h.database.SetSetting(models.SettingLanguage, *req.Language); err != nil {
			jsonError(w, "failed to save setting", http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandler) knownRecognizer(name string) bool {
	for _, n := range h.recognizers {
		if n == name {
			return true
		}
	}
	return false
}
