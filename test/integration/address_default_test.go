package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

type addressView struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	IsDefault bool      `json:"is_default"`
}

func createAddress(t *testing.T, client *http.Client, baseURL, token, label string) addressView {
	t.Helper()

	resp, envlp := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/me/addresses", map[string]any{
		"label":          label,
		"first_name":     "Ada",
		"last_name":      "Lovelace",
		"address_line_1": "12 Analytical Way",
		"city":           "London",
		"state":          "LDN",
		"postal_code":    "EC1A",
		"country":        "GB",
		"address_type":   "shipping",
	}, bearer(token))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create address %q: expected 201, got %d (%#v)", label, resp.StatusCode, envlp.Error)
	}
	var created addressView
	if err := json.Unmarshal(envlp.Data, &created); err != nil {
		t.Fatalf("parse address: %v", err)
	}
	return created
}

func fetchDefault(t *testing.T, client *http.Client, baseURL, token string) (*addressView, int) {
	t.Helper()

	resp, envlp := doJSON(t, client, http.MethodGet, baseURL+"/api/v1/me/addresses/default", nil, bearer(token))
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode
	}
	var view addressView
	if err := json.Unmarshal(envlp.Data, &view); err != nil {
		t.Fatalf("parse default address: %v", err)
	}
	return &view, resp.StatusCode
}

func TestDefaultAddressLifecycle(t *testing.T) {
	env := newTestEnv(t, 1000, 1000)
	defer env.Close()

	account := registerAndLogin(t, env.Client, env.BaseURL, "addresses@example.com", "ValidPass1234")
	client := &http.Client{}

	// The first address becomes the default automatically.
	home := createAddress(t, client, env.BaseURL, account.AccessToken, "home")
	if !home.IsDefault {
		t.Fatal("expected first address to become the default")
	}

	// A second address leaves the default untouched.
	office := createAddress(t, client, env.BaseURL, account.AccessToken, "office")
	if office.IsDefault {
		t.Fatal("expected second address to not steal the default")
	}
	current, status := fetchDefault(t, client, env.BaseURL, account.AccessToken)
	if status != http.StatusOK || current.ID != home.ID {
		t.Fatalf("expected home as default, got %+v (status %d)", current, status)
	}

	// Promoting the office demotes home.
	promoteURL := fmt.Sprintf("%s/api/v1/me/addresses/%s/default", env.BaseURL, office.ID)
	resp, envlp := doJSON(t, client, http.MethodPost, promoteURL, nil, bearer(account.AccessToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set default: expected 200, got %d (%#v)", resp.StatusCode, envlp.Error)
	}
	current, _ = fetchDefault(t, client, env.BaseURL, account.AccessToken)
	if current == nil || current.ID != office.ID {
		t.Fatalf("expected office as default, got %+v", current)
	}

	// Deleting the default re-elects among the remaining addresses.
	deleteURL := fmt.Sprintf("%s/api/v1/me/addresses/%s", env.BaseURL, office.ID)
	resp, _ = doJSON(t, client, http.MethodDelete, deleteURL, nil, bearer(account.AccessToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete default: expected 200, got %d", resp.StatusCode)
	}
	current, _ = fetchDefault(t, client, env.BaseURL, account.AccessToken)
	if current == nil || current.ID != home.ID {
		t.Fatalf("expected home re-elected as default, got %+v", current)
	}

	// Removing the last address leaves no default.
	deleteURL = fmt.Sprintf("%s/api/v1/me/addresses/%s", env.BaseURL, home.ID)
	resp, _ = doJSON(t, client, http.MethodDelete, deleteURL, nil, bearer(account.AccessToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete last address: expected 200, got %d", resp.StatusCode)
	}
	if _, status := fetchDefault(t, client, env.BaseURL, account.AccessToken); status != http.StatusNotFound {
		t.Fatalf("expected 404 without addresses, got %d", status)
	}
}
