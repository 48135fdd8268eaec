package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/internal/api/handlers"
	"Cooki-Backend/internal/middleware"
	"Cooki-Backend/internal/testutil"
	"Cooki-Backend/pkg/event"
	"Cooki-Backend/pkg/item"
	"Cooki-Backend/pkg/joinrequest"
	"Cooki-Backend/pkg/jwt"
	"Cooki-Backend/pkg/pantry"
	"Cooki-Backend/pkg/receipt"
	"Cooki-Backend/pkg/user"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	app   *fiber.App
	store *testutil.Store
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	store := testutil.NewStore()
	objects := testutil.NewObjectStore()
	validate := validator.New()

	jwtService, err := jwt.NewJWTServiceWithSecret("route-test-secret")
	require.NoError(t, err)
	events := event.NewEventService(store, store)
	pantries := pantry.NewPantryService(store, events)
	users := user.NewUserService(store, jwtService)
	items := item.NewItemService(store, pantries, events, objects)
	receipts := receipt.NewReceiptService(store, receipt.NewClient("http://127.0.0.1:1", time.Second, 0), receipt.NewConverter(), pantries, items, objects)
	joins := joinrequest.NewJoinRequestService(store, pantries, events, store, &testutil.Mailer{})

	app := fiber.New()
	cfg := Config{
		App:                app,
		UserHandler:        handlers.NewUserHandler(users, pantries, validate),
		PantryHandler:      handlers.NewPantryHandler(pantries, items, validate),
		ItemHandler:        handlers.NewItemHandler(items, validate),
		ReceiptHandler:     handlers.NewReceiptHandler(receipts, validate),
		JoinRequestHandler: handlers.NewJoinRequestHandler(joins, users, validate),
		EventHandler:       handlers.NewEventHandler(events, pantries),
		StreamHandler:      handlers.NewStreamHandler(events, pantries, joins, 10*time.Millisecond),
		Middleware:         middleware.NewMiddleware(),
		JWTService:         jwtService,
		PantryService:      pantries,
	}
	cfg.Setup()
	return testApp{app: app, store: store}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (a testApp) do(t *testing.T, method, path, token string, body any, headers ...string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a testApp) login(t *testing.T, name, email string) string {
	t.Helper()
	status, _ := a.do(t, http.MethodPost, "/api/v1/users/register", "", domain.RegisterRequest{
		Name: name, Email: email, Password: "correct-horse",
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := a.do(t, http.MethodPost, "/api/v1/users/login", "", domain.LoginRequest{
		Email: email, Password: "correct-horse",
	})
	require.Equal(t, http.StatusOK, status)

	var res domain.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.AccessToken)
	return res.AccessToken
}

func TestPing(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	a := newTestApp(t)

	status, env := a.do(t, http.MethodGet, "/api/v1/items", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Status)

	status, _ = a.do(t, http.MethodGet, "/api/v1/items", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginWrongPassword(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "Alice", "alice@cooki.test")

	status, env := a.do(t, http.MethodPost, "/api/v1/users/login", "", domain.LoginRequest{
		Email: "alice@cooki.test", Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, domain.ErrInvalidCredentials.Error(), env.Error)

	status, _ = a.do(t, http.MethodPost, "/api/v1/users/register", "", domain.RegisterRequest{
		Name: "Alice", Email: "alice@cooki.test", Password: "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func TestItemsInCurrentPantry(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t, "Alice", "alice@cooki.test")

	status, env := a.do(t, http.MethodPost, "/api/v1/items", token, domain.AddItemRequest{
		Title:    "Milk",
		Quantity: domain.QuantityRequest{Value: 1, Unit: "l"},
		Location: domain.LocationFridge,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	var created domain.ItemResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Milk", created.Title)

	status, env = a.do(t, http.MethodGet, "/api/v1/items?location=fridge", token, nil)
	require.Equal(t, http.StatusOK, status)

	var list struct {
		Items []domain.ItemResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, created.ID, list.Items[0].ID)

	status, _ = a.do(t, http.MethodPost, "/api/v1/items", token, map[string]any{
		"title":    "Milk",
		"quantity": map[string]any{"value": 1, "unit": "crate"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPantryHeaderScopesRequest(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t, "Alice", "alice@cooki.test")

	bob := a.store.SeedUser("Bob")
	other := a.store.SeedPantry("Bob's Pantry", bob)

	status, env := a.do(t, http.MethodGet, "/api/v1/items", token, nil, domain.PantryHeader, other.ID.String())
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, domain.ErrForbidden.Error(), env.Error)

	status, _ = a.do(t, http.MethodGet, "/api/v1/items", token, nil, domain.PantryHeader, "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, status)
}
