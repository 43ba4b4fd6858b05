package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/safar/sanli-cicek/internal/config"
	"github.com/safar/sanli-cicek/internal/database"
	"github.com/safar/sanli-cicek/internal/models"
	"github.com/shopspring/decimal"
)

const testKey = "service-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != testKey {
			t.Errorf("Expected apikey header %q, got %q", testKey, r.Header.Get("apikey"))
		}
		if r.Header.Get("Authorization") != "Bearer "+testKey {
			t.Errorf("Expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		if !strings.HasPrefix(r.URL.Path, "/rest/v1/") {
			t.Errorf("Expected /rest/v1 prefix, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return New(config.BackendConfig{URL: srv.URL + "/", APIKey: testKey, Timeout: 5 * time.Second})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("Encode response: %v", err)
	}
}

func TestCreateOrder(t *testing.T) {
	var gotOrder map[string]interface{}
	var gotItems []map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("Expected Prefer return=representation, got %q", r.Header.Get("Prefer"))
		}
		body, _ := io.ReadAll(r.Body)

		switch r.URL.Path {
		case "/rest/v1/orders":
			if err := json.Unmarshal(body, &gotOrder); err != nil {
				t.Errorf("Decode order body: %v", err)
			}
			writeJSON(t, w, http.StatusCreated, []map[string]interface{}{{
				"id":           41,
				"order_number": gotOrder["order_number"],
				"status":       gotOrder["status"],
				"total_amount": 215,
				"created_at":   "2024-05-01T10:00:00Z",
				"updated_at":   "2024-05-01T10:00:00Z",
			}})
		case "/rest/v1/order_items":
			if err := json.Unmarshal(body, &gotItems); err != nil {
				t.Errorf("Decode items body: %v", err)
			}
			writeJSON(t, w, http.StatusCreated, []map[string]interface{}{{
				"id": 1, "order_id": 41, "product_id": 3, "product_name": "Gül", "quantity": 2, "price": "100", "total": "200",
			}})
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	})

	order, err := client.CreateOrder(context.Background(), models.NewOrder{
		UserID:        "4b9e0b54-7c0e-4d0e-9d39-2f5d9d1f4c11",
		OrderNumber:   "SAN1714557600000",
		PaymentMethod: models.PaymentMethodCashOnDelivery,
		PaymentStatus: models.PaymentStatusPending,
		TotalAmount:   decimal.NewFromInt(215),
		Items: []models.NewOrderItem{
			{ProductID: 3, ProductName: "Gül", Quantity: 2, Price: decimal.NewFromInt(100), Total: decimal.NewFromInt(200)},
		},
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if gotOrder["status"] != "pending" {
		t.Errorf("Expected default status pending, got %v", gotOrder["status"])
	}
	if len(gotItems) != 1 || gotItems[0]["order_id"] != float64(41) {
		t.Errorf("Expected one item for order 41, got %v", gotItems)
	}
	if order.ID != 41 || len(order.Items) != 1 {
		t.Errorf("Expected order 41 with one item, got %+v", order)
	}
	if !order.TotalAmount.Equal(decimal.NewFromInt(215)) {
		t.Errorf("Expected total 215, got %s", order.TotalAmount)
	}
}

func TestCreateOrderConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusConflict, map[string]string{"code": "23505"})
	})

	_, err := client.CreateOrder(context.Background(), models.NewOrder{
		OrderNumber: "SAN1",
		Items:       []models.NewOrderItem{{ProductName: "Lale", Quantity: 1}},
	})
	if !errors.Is(err, database.ErrDuplicateOrder) {
		t.Errorf("Expected ErrDuplicateOrder, got %v", err)
	}
}

func TestCreateOrderDiscardsOrderWhenItemsFail(t *testing.T) {
	var deleted string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/orders":
			writeJSON(t, w, http.StatusCreated, []map[string]interface{}{{
				"id": 42, "order_number": "SAN2", "status": "pending",
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/order_items":
			writeJSON(t, w, http.StatusInternalServerError, map[string]string{"message": "boom"})
		case r.Method == http.MethodDelete && r.URL.Path == "/rest/v1/orders":
			deleted = r.URL.Query().Get("id")
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("Unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	_, err := client.CreateOrder(context.Background(), models.NewOrder{
		OrderNumber: "SAN2",
		Items:       []models.NewOrderItem{{ProductName: "Lale", Quantity: 1}},
	})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusInternalServerError {
		t.Errorf("Expected items StatusError 500, got %v", err)
	}
	if deleted != "eq.42" {
		t.Errorf("Expected order 42 to be deleted, got filter %q", deleted)
	}
}

func TestGetOrderByNumber(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("select") != orderSelect {
			t.Errorf("Expected select %q, got %q", orderSelect, q.Get("select"))
		}
		if q.Get("order_number") == "eq.SAN404" {
			writeJSON(t, w, http.StatusOK, []interface{}{})
			return
		}
		writeJSON(t, w, http.StatusOK, []map[string]interface{}{{
			"id": 7, "order_number": "SAN7", "status": "shipped",
			"shipping_address": map[string]string{"city": "İzmir"},
			"delivered_at":     nil,
			"order_items":      []map[string]interface{}{{"id": 1, "product_name": "Orkide", "quantity": 1}},
		}})
	})

	ctx := context.Background()

	order, err := client.GetOrderByNumber(ctx, "SAN7")
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if order.Status != "shipped" || order.ShippingAddress.City != "İzmir" || len(order.Items) != 1 {
		t.Errorf("Unexpected order %+v", order)
	}

	if _, err := client.GetOrderByNumber(ctx, "SAN404"); !errors.Is(err, database.ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
}

func TestUpdateOrderStatusDelivered(t *testing.T) {
	var patch map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "eq.9" {
			t.Errorf("Expected id filter eq.9, got %q", r.URL.Query().Get("id"))
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, []map[string]interface{}{{"status": "shipped", "delivered_at": nil}})
		case http.MethodPatch:
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &patch); err != nil {
				t.Errorf("Decode patch: %v", err)
			}
			writeJSON(t, w, http.StatusOK, []map[string]interface{}{{
				"id": 9, "status": patch["status"], "delivered_at": patch["delivered_at"],
			}})
		}
	})

	order, err := client.UpdateOrderStatus(context.Background(), 9, "delivered")
	if err != nil {
		t.Fatalf("Update status: %v", err)
	}

	if patch["status"] != "delivered" {
		t.Errorf("Expected status delivered in patch, got %v", patch["status"])
	}
	if _, ok := patch["delivered_at"]; !ok {
		t.Error("Expected delivered_at in patch")
	}
	if order.DeliveredAt == nil {
		t.Error("Expected delivered_at on returned order")
	}
}

func TestUpdateOrderStatusKeepsDeliveredAt(t *testing.T) {
	var patch map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK, []map[string]interface{}{{"status": "delivered", "delivered_at": "2024-05-02T09:00:00Z"}})
		case http.MethodPatch:
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &patch)
			writeJSON(t, w, http.StatusOK, []map[string]interface{}{{"id": 9, "status": "delivered"}})
		}
	})

	if _, err := client.UpdateOrderStatus(context.Background(), 9, "delivered"); err != nil {
		t.Fatalf("Update status: %v", err)
	}
	if _, ok := patch["delivered_at"]; ok {
		t.Error("Expected delivered_at to be left alone")
	}
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []interface{}{})
	})

	ctx := context.Background()
	if _, err := client.UpdateOrderStatus(ctx, 1, "confirmed"); !errors.Is(err, database.ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got %v", err)
	}
	if _, err := client.UpdateOrderStatus(ctx, 1, "cancelled"); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestListOrdersReadsCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "eq.pending" {
			t.Errorf("Expected status filter, got %q", q.Get("status"))
		}
		if q.Get("offset") != "10" || q.Get("limit") != "10" {
			t.Errorf("Expected offset 10 limit 10, got %s %s", q.Get("offset"), q.Get("limit"))
		}
		w.Header().Set("Content-Range", "10-10/11")
		writeJSON(t, w, http.StatusOK, []map[string]interface{}{{"id": 1, "status": "pending"}})
	})

	page, err := client.ListOrders(context.Background(), 2, 10, "pending")
	if err != nil {
		t.Fatalf("List orders: %v", err)
	}
	if page.Total != 11 || page.TotalPages != 2 {
		t.Errorf("Expected total 11 over 2 pages, got %d over %d", page.Total, page.TotalPages)
	}
	if len(page.Items.([]models.Order)) != 1 {
		t.Errorf("Expected 1 order, got %v", page.Items)
	}
}

func TestListUserOrdersPaging(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("user_id") != "eq.u1" || q.Get("limit") != "3" {
			t.Errorf("Unexpected query %v", q)
		}
		writeJSON(t, w, http.StatusOK, []map[string]interface{}{
			{"id": 3, "created_at": "2024-05-03T00:00:00Z"},
			{"id": 2, "created_at": "2024-05-02T00:00:00Z"},
			{"id": 1, "created_at": "2024-05-01T00:00:00Z"},
		})
	})

	page, err := client.ListUserOrders(context.Background(), "u1", "", 2)
	if err != nil {
		t.Fatalf("List user orders: %v", err)
	}
	if !page.HasMore || page.NextCursor == "" {
		t.Errorf("Expected another page, got %+v", page)
	}
	if len(page.Items.([]models.Order)) != 2 {
		t.Errorf("Expected 2 orders, got %v", page.Items)
	}
}

func TestStats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/orders":
			writeJSON(t, w, http.StatusOK, []map[string]interface{}{
				{"total_amount": "100.50"}, {"total_amount": 49.5},
			})
		case "/rest/v1/profiles":
			w.Header().Set("Content-Range", "*/4")
			writeJSON(t, w, http.StatusOK, []interface{}{})
		case "/rest/v1/products":
			w.Header().Set("Content-Range", "*/12")
			writeJSON(t, w, http.StatusOK, []interface{}{})
		}
	})

	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalOrders != 2 || stats.TotalUsers != 4 || stats.TotalProducts != 12 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if !stats.TotalRevenue.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected revenue 150, got %s", stats.TotalRevenue)
	}
}

func TestStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]string{"message": "boom"})
	})

	_, err := client.GetOrderByNumber(context.Background(), "SAN1")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", statusErr.Code)
	}
}
