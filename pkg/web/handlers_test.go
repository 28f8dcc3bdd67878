package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/uiactions/pkg/actions/log"
	"github.com/dukex/uiactions/pkg/actions/urldrilldown"
	"github.com/dukex/uiactions/pkg/dynamicactions"
	"github.com/dukex/uiactions/pkg/license"
	"github.com/dukex/uiactions/pkg/metrics"
	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/navigation"
	"github.com/dukex/uiactions/pkg/notifications"
	"github.com/dukex/uiactions/pkg/overlays"
	"github.com/dukex/uiactions/pkg/persistence/file"
	"github.com/dukex/uiactions/pkg/registry"
	"github.com/dukex/uiactions/pkg/storage"
	"github.com/dukex/uiactions/pkg/uiactions"
	"github.com/dukex/uiactions/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	valueClick  = "VALUE_CLICK_TRIGGER"
	selectRange = "SELECT_RANGE_TRIGGER"
)

type testApp struct {
	app     *fiber.App
	service *uiactions.Service
	manager *dynamicactions.Manager
	toasts  *notifications.Toasts
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	navigator := navigation.NewNavigator(logger)
	store := overlays.NewStore(logger)

	service := uiactions.NewService(logger,
		uiactions.WithNavigator(navigator),
		uiactions.WithOverlay(store),
		uiactions.WithMetrics(collector),
	)
	require.NoError(t, service.RegisterTrigger(uiactions.NewTrigger(valueClick, "Value click", "A value was clicked")))
	require.NoError(t, service.RegisterTrigger(uiactions.NewTrigger(selectRange, "Select range", "")))

	checker := license.NewStatic(license.Gold)
	factories := registry.NewRegistry(logger)
	require.NoError(t, factories.RegisterDrilldown(urldrilldown.New(logger, urldrilldown.WithNavigator(navigator)), checker))
	require.NoError(t, factories.RegisterDrilldown(log_action.NewLogDrilldown(logger, valueClick, selectRange), checker))

	manager := dynamicactions.NewManager(logger, file.NewPersistence(t.TempDir()), service, factories,
		dynamicactions.WithMetrics(collector),
	)
	require.NoError(t, manager.Start(t.Context()))
	t.Cleanup(func() { manager.Stop(t.Context()) })

	toasts := notifications.NewToasts(logger, notifications.DefaultCapacity)

	handlers := web.NewAPIHandlers(web.Deps{
		Logger:    logger,
		Service:   service,
		Overlays:  store,
		Manager:   manager,
		Factories: factories,
		Toasts:    toasts,
		Storage:   storage.NewMemory(),
		Gatherer:  reg,
	})

	app := fiber.New()
	handlers.Register(app)

	return &testApp{app: app, service: service, manager: manager, toasts: toasts}
}

func (a *testApp) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func (a *testApp) createDrilldown(t *testing.T, req web.CreateDrilldownRequest) models.SerializedEvent {
	t.Helper()

	status, body := a.do(t, http.MethodPost, "/drilldowns", req)
	require.Equal(t, http.StatusCreated, status, string(body))

	var event models.SerializedEvent
	require.NoError(t, json.Unmarshal(body, &event))

	return event
}

func urlDrilldown(name, tmpl string, triggers ...string) web.CreateDrilldownRequest {
	return web.CreateDrilldownRequest{
		FactoryID: urldrilldown.ID,
		Name:      name,
		Triggers:  triggers,
		Config:    map[string]any{"url": map[string]any{"template": tmpl}},
	}
}

func logDrilldown(name string, triggers ...string) web.CreateDrilldownRequest {
	return web.CreateDrilldownRequest{
		FactoryID: log_action.ID,
		Name:      name,
		Triggers:  triggers,
		Config:    map[string]any{"message": "clicked", "level": "info"},
	}
}

func decodeProblem(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))

	return problem
}

func TestAPIHandlers_GetTriggers(t *testing.T) {
	a := setupTestApp(t)

	status, body := a.do(t, http.MethodGet, "/triggers", nil)
	require.Equal(t, http.StatusOK, status)

	var triggers []models.TriggerView
	require.NoError(t, json.Unmarshal(body, &triggers))
	require.Len(t, triggers, 2)
	assert.Equal(t, selectRange, triggers[0].ID)
	assert.Equal(t, valueClick, triggers[1].ID)
	assert.Equal(t, "A value was clicked", triggers[1].Description)
}

func TestAPIHandlers_GetTrigger(t *testing.T) {
	a := setupTestApp(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedDetail string
	}{
		{name: "registered", path: "/triggers/" + valueClick, expectedStatus: http.StatusOK},
		{
			name:           "missing",
			path:           "/triggers/missing",
			expectedStatus: http.StatusNotFound,
			expectedDetail: "Trigger [triggerId = missing] does not exist.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := a.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, status)

			if tt.expectedDetail != "" {
				problem := decodeProblem(t, body)
				assert.Equal(t, tt.expectedDetail, problem["detail"])
				assert.Equal(t, "not_found", problem["type"])
			}
		})
	}
}

func TestAPIHandlers_AttachDetachAction(t *testing.T) {
	a := setupTestApp(t)
	event := a.createDrilldown(t, logDrilldown("Audit", selectRange))

	status, _ := a.do(t, http.MethodPost, "/triggers/"+valueClick+"/actions/"+event.EventID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body := a.do(t, http.MethodGet, "/triggers/"+valueClick+"/actions", nil)
	require.Equal(t, http.StatusOK, status)

	var actions []models.ActionView
	require.NoError(t, json.Unmarshal(body, &actions))
	require.Len(t, actions, 1)
	assert.Equal(t, event.EventID, actions[0].ID)
	assert.Equal(t, "Audit", actions[0].DisplayName)

	status, _ = a.do(t, http.MethodDelete, "/triggers/"+valueClick+"/actions/"+event.EventID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = a.do(t, http.MethodGet, "/triggers/"+valueClick+"/actions", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &actions))
	assert.Empty(t, actions)

	status, _ = a.do(t, http.MethodPost, "/triggers/missing/actions/"+event.EventID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_ExecuteTrigger(t *testing.T) {
	t.Run("no compatible actions", func(t *testing.T) {
		a := setupTestApp(t)

		status, body := a.do(t, http.MethodPost, "/triggers/"+valueClick+"/execute", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "no_compatible_actions", decodeProblem(t, body)["type"])
	})

	t.Run("single action runs", func(t *testing.T) {
		a := setupTestApp(t)
		a.createDrilldown(t, logDrilldown("Audit", valueClick))

		status, body := a.do(t, http.MethodPost, "/triggers/"+valueClick+"/execute", web.ActionContextRequest{
			Context: models.ActionContext{"value": 42},
		})
		require.Equal(t, http.StatusOK, status, string(body))

		var resp web.ExecuteResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, web.ResultExecuted, resp.Result)
	})

	t.Run("single url drilldown navigates", func(t *testing.T) {
		a := setupTestApp(t)
		a.createDrilldown(t, urlDrilldown("Docs", "https://docs.example.com/{{ .event.value }}", valueClick))

		status, body := a.do(t, http.MethodPost, "/triggers/"+valueClick+"/execute", web.ActionContextRequest{
			Context: models.ActionContext{"value": "42"},
		})
		require.Equal(t, http.StatusOK, status, string(body))

		var resp web.ExecuteResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, web.ResultNavigated, resp.Result)
		assert.Equal(t, "https://docs.example.com/42", resp.Href)
	})

	t.Run("invalid body", func(t *testing.T) {
		a := setupTestApp(t)

		req := httptest.NewRequest(http.MethodPost, "/triggers/"+valueClick+"/execute", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.app.Test(req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPIHandlers_MenuFlow(t *testing.T) {
	a := setupTestApp(t)
	docs := a.createDrilldown(t, urlDrilldown("Docs", "https://docs.example.com/{{ .event.value }}", valueClick))
	a.createDrilldown(t, logDrilldown("Audit", valueClick))

	status, body := a.do(t, http.MethodPost, "/triggers/"+valueClick+"/compatible-actions", web.ActionContextRequest{
		Context: models.ActionContext{"value": "7"},
	})
	require.Equal(t, http.StatusOK, status)

	var compatible []models.ActionView
	require.NoError(t, json.Unmarshal(body, &compatible))
	assert.Len(t, compatible, 2)

	status, body = a.do(t, http.MethodPost, "/triggers/"+valueClick+"/execute", web.ActionContextRequest{
		Context: models.ActionContext{"value": "7"},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	var resp web.ExecuteResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Equal(t, web.ResultMenu, resp.Result)
	require.NotEmpty(t, resp.MenuID)

	status, body = a.do(t, http.MethodGet, "/menus/"+resp.MenuID, nil)
	require.Equal(t, http.StatusOK, status)

	var menu overlays.MenuView
	require.NoError(t, json.Unmarshal(body, &menu))
	assert.Len(t, menu.Items, 2)

	status, body = a.do(t, http.MethodGet, "/menus", nil)
	require.Equal(t, http.StatusOK, status)

	var menus []overlays.MenuView
	require.NoError(t, json.Unmarshal(body, &menus))
	assert.Len(t, menus, 1)

	status, body = a.do(t, http.MethodPost, "/menus/"+resp.MenuID+"/select", web.SelectMenuItemRequest{ActionID: "unknown"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "menu_item_not_found", decodeProblem(t, body)["type"])

	status, body = a.do(t, http.MethodPost, "/menus/"+resp.MenuID+"/select", web.SelectMenuItemRequest{ActionID: docs.EventID})
	require.Equal(t, http.StatusOK, status, string(body))

	var selected web.ExecuteResponse
	require.NoError(t, json.Unmarshal(body, &selected))
	assert.Equal(t, web.ResultNavigated, selected.Result)
	assert.Equal(t, "https://docs.example.com/7", selected.Href)

	status, body = a.do(t, http.MethodGet, "/menus/"+resp.MenuID, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "menu_not_found", decodeProblem(t, body)["type"])
}

func TestAPIHandlers_CancelMenu(t *testing.T) {
	a := setupTestApp(t)
	a.createDrilldown(t, urlDrilldown("Docs", "https://docs.example.com/", valueClick))
	a.createDrilldown(t, logDrilldown("Audit", valueClick))

	status, body := a.do(t, http.MethodPost, "/triggers/"+valueClick+"/execute", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var resp web.ExecuteResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Equal(t, web.ResultMenu, resp.Result)

	status, _ = a.do(t, http.MethodDelete, "/menus/"+resp.MenuID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = a.do(t, http.MethodDelete, "/menus/"+resp.MenuID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_CreateDrilldown(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "url drilldown",
			requestBody:    urlDrilldown("Docs", "https://docs.example.com/{{ .event.value }}", valueClick, selectRange),
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			requestBody:    urlDrilldown("", "https://docs.example.com/", valueClick),
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "no triggers",
			requestBody:    urlDrilldown("Docs", "https://docs.example.com/"),
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "trigger not offered by the drilldown type",
			requestBody:    urlDrilldown("Docs", "https://docs.example.com/", "APPLY_FILTER_TRIGGER"),
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "config rejected by the schema",
			requestBody:    web.CreateDrilldownRequest{FactoryID: urldrilldown.ID, Name: "Docs", Triggers: []string{valueClick}, Config: map[string]any{"url": map[string]any{}}},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "unparsable template",
			requestBody:    urlDrilldown("Docs", "https://docs.example.com/{{ .event.value", valueClick),
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "unknown drilldown type",
			requestBody:    web.CreateDrilldownRequest{FactoryID: "MISSING", Name: "Docs", Triggers: []string{valueClick}},
			expectedStatus: http.StatusNotFound,
			expectedType:   "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := setupTestApp(t)

			status, body := a.do(t, http.MethodPost, "/drilldowns", tt.requestBody)
			require.Equal(t, tt.expectedStatus, status, string(body))

			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, decodeProblem(t, body)["type"])
				assert.Equal(t, 0, a.manager.Count())

				return
			}

			var event models.SerializedEvent
			require.NoError(t, json.Unmarshal(body, &event))
			assert.NotEmpty(t, event.EventID)
			assert.Equal(t, urldrilldown.ID, event.Action.FactoryID)
			assert.Equal(t, []string{valueClick, selectRange}, event.Triggers)
			assert.Equal(t, 1, a.manager.Count())

			recent := a.toasts.Recent()
			require.NotEmpty(t, recent)
			assert.Equal(t, notifications.KindSuccess, recent[0].Kind)
			assert.Equal(t, `Drilldown "Docs" created`, recent[0].Title)
		})
	}
}

func TestAPIHandlers_CreateDrilldownRequiresLicense(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := uiactions.NewService(logger)
	require.NoError(t, service.RegisterTrigger(uiactions.NewTrigger(valueClick, "Value click", "")))

	factories := registry.NewRegistry(logger)
	require.NoError(t, factories.RegisterDrilldown(urldrilldown.New(logger), license.NewStatic(license.Basic)))

	manager := dynamicactions.NewManager(logger, file.NewPersistence(t.TempDir()), service, factories)
	require.NoError(t, manager.Start(t.Context()))

	handlers := web.NewAPIHandlers(web.Deps{
		Logger:    logger,
		Service:   service,
		Overlays:  overlays.NewStore(logger),
		Manager:   manager,
		Factories: factories,
		Toasts:    notifications.NewToasts(logger, 0),
		Storage:   storage.NewMemory(),
	})

	app := fiber.New()
	handlers.Register(app)

	a := &testApp{app: app, service: service, manager: manager}

	status, body := a.do(t, http.MethodPost, "/drilldowns", urlDrilldown("Docs", "https://docs.example.com/", valueClick))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "insufficient_license", decodeProblem(t, body)["type"])

	status, body = a.do(t, http.MethodGet, "/drilldowns", nil)
	require.Equal(t, http.StatusOK, status)

	var resp web.DrilldownsResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.CanUnlockMoreDrilldowns)
}

func TestAPIHandlers_UpdateDrilldown(t *testing.T) {
	a := setupTestApp(t)
	event := a.createDrilldown(t, urlDrilldown("Docs", "https://docs.example.com/", valueClick))

	name := "Handbook"
	status, body := a.do(t, http.MethodPatch, "/drilldowns/"+event.EventID, web.UpdateDrilldownRequest{
		Name:     &name,
		Triggers: []string{selectRange},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	var updated models.SerializedEvent
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, event.EventID, updated.EventID)
	assert.Equal(t, "Handbook", updated.Action.Name)
	assert.Equal(t, []string{selectRange}, updated.Triggers)
	assert.Equal(t, event.Action.Config, updated.Action.Config)

	stored := a.manager.List()
	require.Len(t, stored, 1)
	assert.Equal(t, "Handbook", stored[0].Action.Name)
	assert.Equal(t, "Drilldown saved", a.toasts.Recent()[0].Title)

	status, _ = a.do(t, http.MethodPatch, "/drilldowns/"+event.EventID, web.UpdateDrilldownRequest{
		Triggers: []string{"APPLY_FILTER_TRIGGER"},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodPatch, "/drilldowns/missing", web.UpdateDrilldownRequest{Name: &name})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "drilldown_not_found", decodeProblem(t, body)["type"])
}

func TestAPIHandlers_DeleteDrilldown(t *testing.T) {
	a := setupTestApp(t)
	event := a.createDrilldown(t, logDrilldown("Audit", valueClick))

	status, _ := a.do(t, http.MethodDelete, "/drilldowns/"+event.EventID, nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, 0, a.manager.Count())
	assert.False(t, a.service.HasAction(event.EventID))

	status, _ = a.do(t, http.MethodDelete, "/drilldowns/"+event.EventID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body := a.do(t, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, status)

	var toasts []notifications.Toast
	require.NoError(t, json.Unmarshal(body, &toasts))
	require.Len(t, toasts, 3)
	assert.Equal(t, notifications.KindError, toasts[0].Kind)
	assert.Equal(t, "Error deleting drilldowns", toasts[0].Title)
	assert.Equal(t, "Drilldown deleted", toasts[1].Title)
}

func TestAPIHandlers_GetDrilldowns(t *testing.T) {
	a := setupTestApp(t)
	a.createDrilldown(t, urlDrilldown("Docs", "https://docs.example.com/", valueClick))

	status, body := a.do(t, http.MethodGet, "/drilldowns", nil)
	require.Equal(t, http.StatusOK, status)

	var resp web.DrilldownsResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Drilldowns, 1)
	assert.Equal(t, "Docs", resp.Drilldowns[0].DrilldownName)
	assert.Equal(t, "Go to URL", resp.Drilldowns[0].ActionName)
	assert.Empty(t, resp.Drilldowns[0].Error)
	assert.False(t, resp.CanUnlockMoreDrilldowns)
	assert.False(t, resp.WelcomeMessageHidden)
}

func TestAPIHandlers_HideWelcomeMessage(t *testing.T) {
	a := setupTestApp(t)

	status, _ := a.do(t, http.MethodDelete, "/drilldowns/welcome-message", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body := a.do(t, http.MethodGet, "/drilldowns", nil)
	require.Equal(t, http.StatusOK, status)

	var resp web.DrilldownsResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.WelcomeMessageHidden)
}

func TestAPIHandlers_GetDrilldownTypes(t *testing.T) {
	a := setupTestApp(t)

	tests := []struct {
		name        string
		path        string
		expectedIDs []string
	}{
		{name: "all place triggers", path: "/drilldown-types", expectedIDs: []string{urldrilldown.ID, log_action.ID}},
		{name: "filtered by trigger", path: "/drilldown-types?triggers=" + selectRange, expectedIDs: []string{urldrilldown.ID, log_action.ID}},
		{name: "no shared trigger", path: "/drilldown-types?triggers=APPLY_FILTER_TRIGGER", expectedIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := a.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, status)

			var types []web.DrilldownTypeResponse
			require.NoError(t, json.Unmarshal(body, &types))

			ids := make([]string, 0, len(types))
			for _, drilldownType := range types {
				ids = append(ids, drilldownType.ID)
			}

			assert.ElementsMatch(t, tt.expectedIDs, ids)
		})
	}
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	a := setupTestApp(t)

	status, body := a.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "UI actions API is healthy", resp["message"])
}

func TestAPIHandlers_Metrics(t *testing.T) {
	a := setupTestApp(t)
	a.createDrilldown(t, logDrilldown("Audit", valueClick))

	status, _ := a.do(t, http.MethodPost, "/triggers/"+valueClick+"/execute", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := a.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "uiactions_trigger_executions_total")
	assert.Contains(t, string(body), "uiactions_dynamic_actions")
}
