package payment

import (
	"encoding/hex"
	"net/http"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"referenceId":"top_1","status":"paid"}`)
	good := hex.EncodeToString(Sign("whsec", body))

	tests := []struct {
		name   string
		secret string
		header string
		value  string
		want   bool
	}{
		{"no secret accepts", "", "", "", true},
		{"valid", "whsec", "Hoodpay-Signature", good, true},
		{"valid x- header with prefix", "whsec", "X-Hoodpay-Signature", "sha256=" + good, true},
		{"missing", "whsec", "", "", false},
		{"wrong", "whsec", "Hoodpay-Signature", hex.EncodeToString(Sign("other", body)), false},
		{"not hex", "whsec", "Hoodpay-Signature", "zz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set(tt.header, tt.value)
			}
			if got := VerifySignature(tt.secret, body, h); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantRef  string
		wantPaid bool
	}{
		{"typed envelope", `{"type":"payment.paid","data":{"referenceId":"top_1"}}`, "top_1", true},
		{"flat succeeded", `{"reference_id":"top_2","status":"SUCCEEDED"}`, "top_2", true},
		{"metadata ref pending", `{"data":{"metadata":{"referenceId":"top_3"},"status":"pending"}}`, "top_3", false},
		{"no reference", `{"status":"paid"}`, "", true},
		{"garbage", `not json`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ParseEvent([]byte(tt.body))
			if ev.ReferenceID != tt.wantRef {
				t.Errorf("ReferenceID: got %q, want %q", ev.ReferenceID, tt.wantRef)
			}
			if ev.Paid() != tt.wantPaid {
				t.Errorf("Paid: got %v, want %v", ev.Paid(), tt.wantPaid)
			}
		})
	}
}
