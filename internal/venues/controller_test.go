package venues

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"concertticket/internal/ledger"
	"concertticket/internal/shared/constants"
	"concertticket/internal/shared/validation"
	"concertticket/pkg/cache"
)

type envelope[T any] struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Data       T      `json:"data"`
}

func newGateway(t *testing.T, w *world, c cache.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Register()

	r := gin.New()
	controller := NewController(NewService(NewRepository(w.rt, c, time.Minute)))
	SetupVenueRoutes(r.Group("/api/v1"), controller)
	return r
}

func get[T any](t *testing.T, r http.Handler, path string) (int, T) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope[T]
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decoding %s: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, env.Data
}

func TestGetVenueAndReceipt(t *testing.T) {
	w := newWorld(t)
	bump := w.createVenue("arena")
	if err := w.addTickets("arena", bump, w.owner, "GA", 10, 100); err != nil {
		t.Fatal(err)
	}
	if err := w.addTickets("arena", bump, w.owner, "VIP", 50, 0); err != nil {
		t.Fatal(err)
	}
	buyer, buyerToken := w.buyer(100)
	if _, err := w.purchase("arena", bump, buyer, buyerToken, w.ownerToken, "GA", 3); err != nil {
		t.Fatal(err)
	}

	r := newGateway(t, w, cache.NewService(nil))

	code, venue := get[VenueResponse](t, r, "/api/v1/venues/arena")
	if code != http.StatusOK {
		t.Fatalf("GET venue status = %d", code)
	}
	if venue.Address != mustVenueAddress(t, "arena") || venue.Bump != bump {
		t.Errorf("venue address/bump = %s/%d", venue.Address, venue.Bump)
	}
	if venue.Owner != w.owner.Pubkey() || venue.OwnerTokenAccount != w.ownerToken {
		t.Errorf("venue owner fields = %+v", venue)
	}
	if len(venue.Tickets) != 2 || venue.Tickets[0].Available != 97 || !venue.Tickets[1].SoldOut {
		t.Errorf("tickets = %+v", venue.Tickets)
	}
	if venue.TotalAvailable != 97 {
		t.Errorf("total available = %d, want 97", venue.TotalAvailable)
	}

	code, receipt := get[ReceiptResponse](t, r, "/api/v1/venues/arena/receipts/"+buyer.Pubkey().String())
	if code != http.StatusOK {
		t.Fatalf("GET receipt status = %d", code)
	}
	if receipt.Quantity != 3 || receipt.Ticket.Name != "GA" || receipt.Ticket.Available != 100 {
		t.Errorf("receipt = %+v", receipt)
	}
	if !receipt.DateOfPurchase.Equal(purchaseTime) {
		t.Errorf("date of purchase = %v, want %v", receipt.DateOfPurchase, purchaseTime)
	}
}

func TestGetVenueErrors(t *testing.T) {
	w := newWorld(t)
	w.createVenue("arena")
	r := newGateway(t, w, cache.NewService(nil))
	stranger := keypair(t).Pubkey().String()

	tests := []struct {
		name string
		path string
		want int
	}{
		{"unknown venue", "/api/v1/venues/nowhere", http.StatusNotFound},
		{"venue id too long", "/api/v1/venues/abcdefghijklmnopqrstuvwxyz0123456789", http.StatusBadRequest},
		{"venue id too many bytes", "/api/v1/venues/" + strings.Repeat("%C3%A9", 20), http.StatusBadRequest},
		{"receipt venue id too many bytes", "/api/v1/venues/" + strings.Repeat("%C3%A9", 20) + "/receipts/" + stranger, http.StatusBadRequest},
		{"no receipt", "/api/v1/venues/arena/receipts/" + stranger, http.StatusNotFound},
		{"bad buyer", "/api/v1/venues/arena/receipts/not-a-key", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _ := get[json.RawMessage](t, r, tt.path); code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, code, tt.want)
			}
		})
	}
}

func TestRepositoryCachesDecodedVenue(t *testing.T) {
	w := newWorld(t)
	bump := w.createVenue("arena")
	if err := w.addTickets("arena", bump, w.owner, "GA", 10, 100); err != nil {
		t.Fatal(err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewService(NewRepository(w.rt, cache.NewService(client), time.Minute))
	ctx := t.Context()

	if _, err := svc.GetVenue(ctx, "arena"); err != nil {
		t.Fatal(err)
	}
	key := constants.BuildVenueKey(mustVenueAddress(t, "arena").String())
	if !mr.Exists(key) {
		t.Fatalf("venue view not cached under %s", key)
	}

	// Until the key is dropped the cached view is served.
	buyer, buyerToken := w.buyer(100)
	if _, err := w.purchase("arena", bump, buyer, buyerToken, w.ownerToken, "GA", 1); err != nil {
		t.Fatal(err)
	}
	v, err := svc.GetVenue(ctx, "arena")
	if err != nil {
		t.Fatal(err)
	}
	if v.Tickets[0].Available != 100 {
		t.Errorf("cached available = %d, want 100", v.Tickets[0].Available)
	}

	mr.Del(key)
	v, err = svc.GetVenue(ctx, "arena")
	if err != nil {
		t.Fatal(err)
	}
	if v.Tickets[0].Available != 99 {
		t.Errorf("available after invalidation = %d, want 99", v.Tickets[0].Available)
	}
}

func TestRepositoryRejectsForeignAccounts(t *testing.T) {
	w := newWorld(t)
	repo := NewRepository(w.rt, cache.NewService(nil), time.Minute)

	// A token account exists but belongs to the token program.
	if _, err := repo.GetVenue(t.Context(), w.ownerToken); err == nil {
		t.Fatal("GetVenue on a token account succeeded")
	}
	if _, err := repo.GetReceipt(t.Context(), ledger.Pubkey{}); err == nil {
		t.Fatal("GetReceipt on a missing account succeeded")
	}
}
