package razorpay_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetprep/backend/internal/payment/razorpay"
)

func TestSignature_KnownVector(t *testing.T) {
	sig := razorpay.Signature("order_1", "pay_1", "secret")
	assert.Equal(t, "52115a0d3400de9e86aade1f1b6eba9e8974604f4e267a9e9a16633a4c8dd2cb", sig)
	assert.NotEqual(t, sig, razorpay.Signature("order_1", "pay_2", "secret"))
	assert.NotEqual(t, sig, razorpay.Signature("order_1", "pay_1", "other"))
}

func TestVerifySignature(t *testing.T) {
	c := razorpay.NewClient("http://unused", "rzp_test", "secret")
	sig := razorpay.Signature("order_1", "pay_1", "secret")

	assert.True(t, c.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, c.VerifySignature("order_1", "pay_1", sig[:63]+"0"))
	assert.False(t, c.VerifySignature("order_2", "pay_1", sig))
	assert.False(t, c.VerifySignature("order_1", "pay_1", ""))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(49900), req["amount"])

		json.NewEncoder(w).Encode(map[string]any{
			"id": "order_abc", "amount": 49900, "currency": "INR", "receipt": req["receipt"], "status": "created",
		})
	}))
	defer srv.Close()

	c := razorpay.NewClient(srv.URL, "rzp_test", "secret")
	order, err := c.CreateOrder(context.Background(), 49900, "INR", "rcpt_1", nil)
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, "rcpt_1", order.Receipt)
}

func TestCreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	c := razorpay.NewClient(srv.URL, "k", "s")
	_, err := c.CreateOrder(context.Background(), 1, "INR", "r", nil)

	var gerr *razorpay.GatewayError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusBadRequest, gerr.StatusCode)
	assert.Equal(t, "BAD_REQUEST_ERROR", gerr.Code)
	assert.Equal(t, "amount too small", gerr.Description)
}
