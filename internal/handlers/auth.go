package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/argussec/argusgo/internal/utils"
	"github.com/google/uuid"
)

// PairRequest represents a shell pairing request
type PairRequest struct {
	Code       string `json:"code"`
	DeviceName string `json:"deviceName"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// pairShell exchanges the operator pairing code for a token pair
func (r *Router) pairShell(w http.ResponseWriter, req *http.Request) {
	var body PairRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if r.cfg.PairingCodeHash == "" {
		respondError(w, http.StatusServiceUnavailable, "Agent not configured for pairing")
		return
	}

	if !utils.CheckPairingCode(body.Code, r.cfg.PairingCodeHash) {
		respondError(w, http.StatusUnauthorized, "Invalid pairing code")
		return
	}

	// Each pairing mints a fresh shell identity. Shells announce a
	// stable ID over the feed once connected.
	deviceID := "shell_" + uuid.NewString()

	accessToken, refreshToken, err := utils.GenerateTokens(deviceID, body.DeviceName, r.cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"deviceId": deviceID,
		"agentId":  r.identity.AgentID,
	})
}

// refreshToken re-issues a token pair from a valid refresh token
func (r *Router) refreshToken(w http.ResponseWriter, req *http.Request) {
	var body RefreshRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	claims, err := utils.ValidateToken(body.RefreshToken, r.cfg.JWTSecret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	if !utils.IsRefreshToken(claims) {
		respondError(w, http.StatusUnauthorized, "Not a refresh token")
		return
	}

	deviceID, _ := claims["deviceId"].(string)
	if deviceID == "" {
		respondError(w, http.StatusUnauthorized, "Malformed refresh token")
		return
	}

	accessToken, newRefresh, err := utils.GenerateTokens(deviceID, "", r.cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": newRefresh,
		},
		"deviceId": deviceID,
	})
}
