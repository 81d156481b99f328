package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadwatch/internal/testutil"
	"leadwatch/internal/webhook"
)

func TestWorkflowCompletionWebhook(t *testing.T) {
	server, app, _ := testutil.SetupTestServer(t)
	router := server.Router()

	t.Run("post records a receipt", func(t *testing.T) {
		rr := doRequest(router, "POST", "/api/webhooks/workflow-completion/job123", `{"status":"completed","artifact_url":"https://example.com/doc.html"}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var receipt webhook.Receipt
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &receipt))
		assert.Equal(t, "job123", receipt.JobID)
		assert.Equal(t, "completed", receipt.Status)
		assert.NotEmpty(t, receipt.ID)
	})

	t.Run("get returns the stored receipt", func(t *testing.T) {
		rr := doRequest(router, "GET", "/api/webhooks/workflow-completion/job123", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var receipt webhook.Receipt
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &receipt))
		assert.Equal(t, "job123", receipt.JobID)
	})

	t.Run("get for unknown job is 404", func(t *testing.T) {
		rr := doRequest(router, "GET", "/api/webhooks/workflow-completion/unknown", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid json payload", func(t *testing.T) {
		rr := doRequest(router, "POST", "/api/webhooks/workflow-completion/job123", `not json`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty body defaults to completed", func(t *testing.T) {
		rr := doRequest(router, "POST", "/api/webhooks/workflow-completion/job999", "")
		require.Equal(t, http.StatusOK, rr.Code)

		receipt, ok := app.Webhooks.Get("job999")
		require.True(t, ok)
		assert.Equal(t, "completed", receipt.Status)
	})
}

func TestWebhookSharedSecret(t *testing.T) {
	server, app, _ := testutil.SetupTestServer(t)
	app.Config.Webhook.Secret = "s3cret"
	router := server.Router()

	rr := doRequest(router, "POST", "/api/webhooks/workflow-completion/job123", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(router, "POST", "/api/webhooks/workflow-completion/job123?secret=wrong", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(router, "POST", "/api/webhooks/workflow-completion/job123?secret=s3cret", `{}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}
