package partner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hat-store/internal/models"
	"hat-store/internal/store"
)

func newPartnerServer(t *testing.T) (*httptest.Server, *[]models.WebhookEvent) {
	t.Helper()
	var webhooks []models.WebhookEvent

	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]models.Hat{
			"r1": {Name: "Scout Cap", Price: 20, Image: "cap.png"},
			"r2": {Name: "Pyro Mask", Price: 42, Image: "mask.png"},
		})
	})
	mux.HandleFunc("/api/buy/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/api/buy/r1" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "item not found"})
			return
		}
		json.NewEncoder(w).Encode(models.Hat{ID: "r1", Name: "Scout Cap", Price: 20, Image: "cap.png"})
	})
	mux.HandleFunc("/webhook/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var ev models.WebhookEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ev.Source = r.URL.Path
		webhooks = append(webhooks, ev)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "receivedEvent": ev.Type})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &webhooks
}

func TestFetchCatalog(t *testing.T) {
	srv, _ := newPartnerServer(t)
	client := NewClient(srv.URL, "BLU")

	catalog, err := client.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected 2 items, got %d", len(catalog))
	}
	if hat := catalog["r1"]; hat.Name != "Scout Cap" || hat.Price != 20 {
		t.Errorf("unexpected item: %+v", hat)
	}
}

func TestFetchCatalogUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "BLU")

	if _, err := client.FetchCatalog(context.Background()); err == nil {
		t.Fatal("expected an error for an unreachable partner")
	}
}

func TestPurchase(t *testing.T) {
	srv, _ := newPartnerServer(t)
	client := NewClient(srv.URL, "BLU")

	hat, err := client.Purchase(context.Background(), "r1")
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if hat.Name != "Scout Cap" || hat.Price != 20 {
		t.Errorf("unexpected hat: %+v", hat)
	}
}

func TestPurchaseNotFound(t *testing.T) {
	srv, _ := newPartnerServer(t)
	client := NewClient(srv.URL, "BLU")

	_, err := client.Purchase(context.Background(), "ghost")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a partner 404, got %v", err)
	}
}

func TestNotifyUsesTeamWebhookPath(t *testing.T) {
	srv, webhooks := newPartnerServer(t)
	client := NewClient(srv.URL, "BLU")

	err := client.Notify(context.Background(), models.WebhookEvent{
		Type: models.EventNewProduct,
		Item: &models.Hat{Name: "Fancy Fedora", Price: 50},
	})
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if len(*webhooks) != 1 {
		t.Fatalf("expected 1 webhook received, got %d", len(*webhooks))
	}
	got := (*webhooks)[0]
	if got.Source != "/webhook/BLU" {
		t.Errorf("expected webhook path /webhook/BLU, got %s", got.Source)
	}
	if got.Type != models.EventNewProduct || got.Item == nil || got.Item.Name != "Fancy Fedora" {
		t.Errorf("unexpected webhook body: %+v", got)
	}
}
