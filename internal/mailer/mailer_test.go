package mailer_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neetprep/backend/internal/mailer"
)

func TestResendClient_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	c := mailer.NewResendClient(srv.URL+"/", "re_test", "NEET Prep <hi@example.com>")
	msg, err := mailer.Welcome("asha@example.com", mailer.WelcomeData{Name: "Asha", TargetYear: 2027})
	require.NoError(t, err)
	require.NoError(t, c.Send(context.Background(), msg))

	assert.Equal(t, "NEET Prep <hi@example.com>", got["from"])
	assert.Equal(t, []any{"asha@example.com"}, got["to"])
	assert.Equal(t, "Welcome to NEET Prep", got["subject"])
	assert.Contains(t, got["html"], "NEET 2027")
}

func TestResendClient_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := mailer.NewResendClient(srv.URL, "k", "from@example.com")
	err := c.Send(context.Background(), mailer.Message{To: "a@example.com"})

	var apiErr *mailer.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, apiErr.Temporary())

	assert.Error(t, c.Send(context.Background(), mailer.Message{}))
}

func TestTemplates_EscapeInput(t *testing.T) {
	msg, err := mailer.Receipt("a@example.com", mailer.ReceiptData{
		Name:   "<script>x</script>",
		Plan:   "Cycle pass",
		Amount: "499.00 INR",
	})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "499.00 INR")
	assert.Equal(t, "receipt", msg.Kind)

	msg, err = mailer.Followup("a@example.com", mailer.FollowupData{Name: "Asha", Days: 4})
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "4 days")
}
