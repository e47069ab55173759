package observability

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestActorUserID(t *testing.T) {
	if got := ActorUserID(uuid.Nil); got != "anonymous" {
		t.Fatalf("ActorUserID(nil)=%q", got)
	}
	id := uuid.New()
	if got := ActorUserID(id); got != id.String() {
		t.Fatalf("ActorUserID=%q want %q", got, id.String())
	}
}

func TestEmitAuditFixedShape(t *testing.T) {
	captured := &testHandler{enabled: true}
	SetAuditLogger(slog.New(captured))
	t.Cleanup(func() { SetAuditLogger(nil) })

	r := httptest.NewRequest("DELETE", "/api/v1/sessions/abc", nil)
	EmitAudit(r, AuditInput{
		EventName:  "session.revoke.single",
		TargetType: "session",
		TargetID:   "abc",
		Action:     "revoke",
		Outcome:    "success",
		Reason:     "revoked",
	}, "extra_key", "extra_val")

	if captured.handled != 1 {
		t.Fatalf("expected one audit record, got %d", captured.handled)
	}
	attrs := attrsToMap(captured.lastRecord)
	for key, want := range map[string]string{
		"event":       "session.revoke.single",
		"target_type": "session",
		"action":      "revoke",
		"outcome":     "success",
		"reason":      "revoked",
		"method":      "DELETE",
		"path":        "/api/v1/sessions/abc",
		"extra_key":   "extra_val",
	} {
		if attrs[key] != want {
			t.Fatalf("audit attr %q=%q want %q", key, attrs[key], want)
		}
	}
}
