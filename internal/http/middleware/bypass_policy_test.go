package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRequestBypassEvaluatorIgnoresInvalidCIDRsAndCanReturnNil(t *testing.T) {
	eval := NewRequestBypassEvaluator(RequestBypassConfig{
		EnableTrustedActorBypass: true,
		TrustedActorCIDRs:        []string{"not-a-cidr", "", "300.1.1.1/8"},
	})
	if eval != nil {
		t.Fatal("expected nil evaluator when trusted bypass has no valid cidrs and probes disabled")
	}
}

func TestRequestBypassEvaluatorMethodPathAndNilRequest(t *testing.T) {
	eval := NewRequestBypassEvaluator(RequestBypassConfig{EnableInternalProbeBypass: true})
	if eval == nil {
		t.Fatal("expected evaluator")
	}

	if bypass, reason := eval(nil); bypass || reason != "" {
		t.Fatalf("nil request should not bypass, got bypass=%v reason=%q", bypass, reason)
	}

	req := httptest.NewRequest(http.MethodPost, "/health/live", nil)
	if bypass, reason := eval(req); !bypass || reason != "internal_probe_path" {
		t.Fatalf("health/live should bypass regardless of method, got bypass=%v reason=%q", bypass, reason)
	}

	req = httptest.NewRequest(http.MethodGet, "/Health/Ready", nil)
	if bypass, reason := eval(req); !bypass || reason != "internal_probe_path" {
		t.Fatalf("path matching should be case-insensitive, got bypass=%v reason=%q", bypass, reason)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	if bypass, reason := eval(req); bypass || reason != "" {
		t.Fatalf("non-probe path should not bypass, got bypass=%v reason=%q", bypass, reason)
	}
}

func TestRequestBypassEvaluatorTrustedCIDR(t *testing.T) {
	eval := NewRequestBypassEvaluator(RequestBypassConfig{
		EnableTrustedActorBypass: true,
		TrustedActorCIDRs:        []string{"198.51.100.0/24"},
	})
	if eval == nil {
		t.Fatal("expected evaluator")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.RemoteAddr = "198.51.100.7:4444"
	if bypass, reason := eval(req); !bypass || reason != "trusted_actor_cidr" {
		t.Fatalf("expected trusted cidr bypass, got bypass=%v reason=%q", bypass, reason)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.RemoteAddr = "203.0.113.9:4444"
	if bypass, reason := eval(req); bypass || reason != "" {
		t.Fatalf("untrusted ip should not bypass, got bypass=%v reason=%q", bypass, reason)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.RemoteAddr = "bad-remote-addr"
	if bypass, reason := eval(req); bypass || reason != "" {
		t.Fatalf("unparseable remote addr should not bypass, got bypass=%v reason=%q", bypass, reason)
	}
}
