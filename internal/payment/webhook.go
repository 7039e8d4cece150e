package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
)

// VerifySignature checks the hex HMAC-SHA256 of body. An empty secret accepts everything,
// which is only meant for local development.
func VerifySignature(secret string, body []byte, h http.Header) bool {
	if secret == "" {
		return true
	}
	sig := h.Get("Hoodpay-Signature")
	if sig == "" {
		sig = h.Get("X-Hoodpay-Signature")
	}
	sig = strings.TrimPrefix(strings.TrimSpace(sig), "sha256=")
	if sig == "" {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return hmac.Equal(got, Sign(secret, body))
}

func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

type Event struct {
	Type        string
	ReferenceID string
	Status      string
}

// Paid reports whether the event confirms a completed payment.
func (e Event) Paid() bool {
	if e.Type == "payment.paid" {
		return true
	}
	switch e.Status {
	case "paid", "succeeded", "success":
		return true
	}
	return false
}

type eventData struct {
	ReferenceID  string `json:"referenceId"`
	ReferenceID2 string `json:"reference_id"`
	Status       any    `json:"status"`
	Metadata     *struct {
		ReferenceID string `json:"referenceId"`
	} `json:"metadata"`
}

// ParseEvent reads a provider event. The payload is either {type, data:{…}} or flat.
// Malformed JSON gives an empty event.
func ParseEvent(body []byte) Event {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	_ = json.Unmarshal(body, &env)

	raw := body
	if len(env.Data) > 0 && string(env.Data) != "null" {
		raw = env.Data
	}
	var d eventData
	_ = json.Unmarshal(raw, &d)

	ev := Event{Type: env.Type, Status: strings.ToLower(statusString(d.Status))}
	switch {
	case d.ReferenceID != "":
		ev.ReferenceID = d.ReferenceID
	case d.ReferenceID2 != "":
		ev.ReferenceID = d.ReferenceID2
	case d.Metadata != nil:
		ev.ReferenceID = d.Metadata.ReferenceID
	}
	return ev
}

func statusString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		b, _ := json.Marshal(s)
		return string(b)
	}
}
