package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/storefront/internal/domain"
)

func TestClient_FilterItemsQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items/filter", r.URL.Path)
		assert.Equal(t, "vestido", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Empty(t, r.URL.Query().Get("category"))
		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{{
				"id":       "p1",
				"name":     "Vestido",
				"variants": []map[string]any{{"id": "v1", "originalPrice": "40", "discountPrice": "bad"}},
			}},
			"page":       2,
			"totalPages": 3,
		})
	})

	page, err := c.FilterItems(context.Background(), ItemFilter{Query: "vestido", Page: 2})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.False(t, page.Items[0].Variants[0].DiscountPrice.Valid)
	assert.Equal(t, domain.Count(3), page.TotalPages)
}

func TestClient_ResolvePage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "black-friday", r.URL.Query().Get("slug"))
		writeJSON(w, http.StatusOK, map[string]any{"slug": "black-friday", "title": "Black Friday"})
	})

	p, err := c.ResolvePage(context.Background(), "black-friday")

	require.NoError(t, err)
	assert.Equal(t, "Black Friday", p.Title)
}

func TestClient_RedeemRejectedCarriesBalance(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "GIFT-1", body["code"])
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Código ya usado", "newBalance": 12.5})
	})

	_, err := c.Redeem(context.Background(), "GIFT-1")

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Código ya usado", apiErr.Message)
	require.True(t, apiErr.NewBalance.Valid)
	assert.Equal(t, "12.5", apiErr.NewBalance.Value.String())
}

func TestClient_CreateTransaction(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req TransactionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "key-1", req.IdempotencyKey)
		assert.True(t, req.Total.Equal(decimal.NewFromInt(33)))
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": "tx-1", "orderId": "o-1", "status": "APROBADO", "invoiceUrl": "https://inv/1",
		})
	})

	tx, err := c.CreateTransaction(context.Background(), TransactionRequest{
		IdempotencyKey: "key-1",
		PaymentMethod:  "card",
		Total:          decimal.NewFromInt(33),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusApproved, tx.Status)
	assert.Equal(t, "https://inv/1", tx.InvoiceURL)
}

func TestClient_OrdersNormalizeStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]any{
			"orders": []map[string]any{{"id": "o1", "status": "ENTREGADO", "paymentStatus": "pagado"}},
			"page":   3,
		})
	})

	page, err := c.Orders(context.Background(), OrderFilter{Page: 3})

	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, domain.OrderStatusDelivered, page.Orders[0].Status)
}

func TestClient_WishlistRoutes(t *testing.T) {
	var seen []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, c.AddToWishlist(ctx, "p1"))
	require.NoError(t, c.RemoveFromWishlist(ctx, "p/2"))

	assert.Equal(t, []string{"POST /api/wishlist", "DELETE /api/wishlist/p/2"}, seen)
}

func TestClient_ValidateDiscount(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Code    string   `json:"code"`
			ItemIDs []string `json:"itemIds"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"p1:M"}, body.ItemIDs)
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "discountAmount": "5"})
	})

	res, err := c.ValidateDiscount(context.Background(), "SAVE5", []string{"p1:M"})

	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "5", res.DiscountAmount.Value.String())
}
