package handlers

import (
	"net/http"
	"strings"

	"github.com/argussec/argusgo/internal/utils"
	"github.com/skip2/go-qrcode"
)

// pairingURL picks the address a shell should dial. LAN address first;
// loopback only helps shells running on the agent host itself.
func (r *Router) pairingURL() string {
	host := "localhost"
	if ips := utils.LocalIPv4s(); len(ips) > 0 {
		host = ips[0]
	}
	return "http://" + host + ":" + r.cfg.Port
}

// generatePairingQR creates the QR code a shell scans to find this agent
func (r *Router) generatePairingQR(w http.ResponseWriter, req *http.Request) {
	pubKeyHex, err := r.identity.PublicKeyHex()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Invalid agent key")
		return
	}

	// Compact agent ID: remove dashes and uppercase
	compactID := strings.ToUpper(strings.ReplaceAll(r.identity.AgentID, "-", ""))

	// Protocol: ARGUS$1$COMPACTID$PUBKEY_HEX$URL
	// Uppercase throughout keeps the payload in QR alphanumeric mode.
	qrString := "ARGUS$1$" + compactID + "$" + strings.ToUpper(pubKeyHex) + "$" + strings.ToUpper(r.pairingURL())

	png, err := qrcode.Encode(qrString, qrcode.Low, 256)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate QR")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// getPairingInfo returns the QR payload as JSON, signed with the agent
// key. Shells that learned the agent's public key from the Argus backend
// verify the signature before trusting a LAN address.
func (r *Router) getPairingInfo(w http.ResponseWriter, req *http.Request) {
	urls := []string{r.pairingURL()}

	message := r.identity.AgentID + "|" + r.identity.PublicKey + "|" + strings.Join(urls, ",")
	signature, err := r.identity.Sign(message)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to sign pairing info")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"agentId":   r.identity.AgentID,
		"publicKey": r.identity.PublicKey,
		"urls":      urls,
		"signature": signature,
	})
}
