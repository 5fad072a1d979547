package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedflow/seedflow/pkg/adapters"
	"github.com/seedflow/seedflow/pkg/delayqueue"
	"github.com/seedflow/seedflow/pkg/engine"
	"github.com/seedflow/seedflow/pkg/idempotency"
	"github.com/seedflow/seedflow/pkg/models"
	"github.com/seedflow/seedflow/pkg/nodes/customernote"
	"github.com/seedflow/seedflow/pkg/nodes/delay"
	"github.com/seedflow/seedflow/pkg/nodes/ordernote"
	"github.com/seedflow/seedflow/pkg/nodes/sendmessage"
	"github.com/seedflow/seedflow/pkg/nodes/split"
	"github.com/seedflow/seedflow/pkg/nodes/trigger"
	"github.com/seedflow/seedflow/pkg/persistence"
	"github.com/seedflow/seedflow/pkg/persistence/file"
	"github.com/seedflow/seedflow/pkg/registry"
	"github.com/seedflow/seedflow/pkg/testutil"
)

func setupTestApp(t *testing.T) (*fiber.App, persistence.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store := file.NewPersistence(t.TempDir())
	ledger := idempotency.NewMemoryLedger()

	reg := registry.NewRegistry(logger)
	reg.RegisterNode(trigger.NewTriggerNodeFactory())
	reg.RegisterNode(sendmessage.NewSendMessageNodeFactory(adapters.NewMockMessenger(ledger, logger)))
	reg.RegisterNode(ordernote.NewOrderNoteNodeFactory(adapters.NewMockOrderNotes(ledger, logger)))
	reg.RegisterNode(customernote.NewCustomerNoteNodeFactory(adapters.NewMockCustomerNotes(ledger, logger)))
	reg.RegisterNode(delay.NewDelayNodeFactory())
	reg.RegisterNode(split.NewSplitNodeFactory())

	queue := delayqueue.NewMemoryQueue(logger)
	require.NoError(t, queue.Start(context.Background()))
	t.Cleanup(func() { _ = queue.Close() })

	eng := engine.NewEngine("test-api", store, reg, queue, nil, logger)
	api := NewAPI(logger, store, eng)

	return api.App(), store
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Logf("Failed to close response body: %v", err)
	}
}

func TestAPI_RootEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Seedflow API", string(body))
}

func TestAPI_GetFlows_Empty(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/flows", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var flows []*models.Flow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&flows))
	assert.Empty(t, flows)
}

func TestAPI_CreateAndGetFlow(t *testing.T) {
	app, _ := setupTestApp(t)

	payload := map[string]any{
		"name":         "Welcome series",
		"trigger_type": "order_created",
		"active":       true,
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/flows", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Flow

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Welcome series", created.Name)

	getReq := httptest.NewRequest(http.MethodGet, "/flows/"+created.ID, nil)
	getResp, err := app.Test(getReq)
	require.NoError(t, err)

	defer closeBody(t, getResp)

	assert.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestAPI_CreateFlow_RejectsShortName(t *testing.T) {
	app, _ := setupTestApp(t)

	body, err := json.Marshal(map[string]any{"name": "ab", "trigger_type": "order_created"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/flows", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetFlow_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/flows/missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_DeleteFlow(t *testing.T) {
	app, store := setupTestApp(t)

	flow := testutil.LinearFlow()
	require.NoError(t, store.Flows().SaveFlow(context.Background(), flow))

	req := httptest.NewRequest(http.MethodDelete, "/flows/"+flow.ID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = store.Flows().FlowByID(context.Background(), flow.ID)
	assert.True(t, persistence.IsFlowNotFound(err))
}

func TestAPI_TriggerStartsExecutions(t *testing.T) {
	app, store := setupTestApp(t)

	flow := testutil.LinearFlow()
	require.NoError(t, store.Flows().SaveFlow(context.Background(), flow))

	body, err := json.Marshal(map[string]any{
		"trigger_type": "order_created",
		"payload":      map[string]any{"customer_name": "Ada"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/triggers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var triggered struct {
		ExecutionIDs []string `json:"execution_ids"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&triggered))
	require.Len(t, triggered.ExecutionIDs, 1)

	getReq := httptest.NewRequest(http.MethodGet, "/executions/"+triggered.ExecutionIDs[0], nil)
	getResp, err := app.Test(getReq)
	require.NoError(t, err)

	defer closeBody(t, getResp)

	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var record models.ExecutionRecord

	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&record))
	assert.Equal(t, models.ExecutionStatusCompleted, record.Status)
}

func TestAPI_Trigger_RequiresTriggerType(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/triggers", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RetryRejectsNonFailedExecution(t *testing.T) {
	app, store := setupTestApp(t)

	flow := testutil.LinearFlow()
	require.NoError(t, store.Flows().SaveFlow(context.Background(), flow))

	body, err := json.Marshal(map[string]any{
		"trigger_type": "order_created",
		"payload":      map[string]any{},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/triggers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)

	defer closeBody(t, resp)

	var triggered struct {
		ExecutionIDs []string `json:"execution_ids"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&triggered))
	require.Len(t, triggered.ExecutionIDs, 1)

	retryReq := httptest.NewRequest(http.MethodPost, "/executions/"+triggered.ExecutionIDs[0]+"/retry", nil)
	retryResp, err := app.Test(retryReq)
	require.NoError(t, err)

	defer closeBody(t, retryResp)

	assert.Equal(t, http.StatusConflict, retryResp.StatusCode)
}

func TestAPI_GetExecution_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/executions/exec-missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
