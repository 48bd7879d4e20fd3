package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/prestations/internal/accounts"
	"github.com/MarkoPoloResearchLab/prestations/internal/gateway/stripegw"
	"github.com/MarkoPoloResearchLab/prestations/internal/metrics"
	"github.com/MarkoPoloResearchLab/prestations/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/prestations/pkg/booking"
	"github.com/MarkoPoloResearchLab/prestations/pkg/catalog"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testSigningKey    = "session-secret"
	testIssuer        = "tauth"
	testCookieName    = "app_session"
	testWebhookSecret = "whsec_test_secret"
	testAdminID       = "admin-1"
	testUserID        = "user-1"
	otherUserID       = "user-2"
	checkoutURL       = "https://checkout.stripe.test/pay/cs_test_1"
)

type stripeBackend struct {
	mu    sync.Mutex
	calls int
	form  url.Values
}

func (backend *stripeBackend) lastForm() url.Values {
	backend.mu.Lock()
	defer backend.mu.Unlock()
	return backend.form
}

type testEnv struct {
	router  *gin.Engine
	cfg     Config
	catalog *catalog.Service
	stripe  *stripeBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/bookings.db"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	store := gormstore.New(db)
	require.NoError(t, store.Migrate(ctx))

	catalogService, err := catalog.NewService(store)
	require.NoError(t, err)
	_, err = catalogService.Seed(ctx, catalog.DefaultSeed())
	require.NoError(t, err)

	accountService, err := accounts.NewService(store, time.Now, accounts.WithHashCost(4))
	require.NoError(t, err)

	backend := &stripeBackend{}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		backend.mu.Lock()
		backend.calls++
		if err := request.ParseForm(); err == nil {
			backend.form = request.PostForm
		}
		backend.mu.Unlock()
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]any{
			"id":     "cs_test_1",
			"object": "checkout.session",
			"url":    checkoutURL,
		})
	}))
	t.Cleanup(server.Close)

	gateway, err := stripegw.New(stripegw.Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		Timeout:       2 * time.Second,
		BackendURL:    server.URL,
	})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	bookingService, err := booking.NewService(store, catalogService, gateway, time.Now,
		booking.WithCheckoutURLs("https://client.example/Success", "https://client.example/Cancel"),
		booking.WithMetrics(metrics.NewBookingMetrics(registry)),
	)
	require.NoError(t, err)

	cfg := Config{
		SessionSigningKey: testSigningKey,
		SessionIssuer:     testIssuer,
		SessionCookieName: testCookieName,
		AllowedOrigins:    []string{"http://localhost:3000"},
		AdminUserIDs:      []string{testAdminID},
	}
	require.NoError(t, cfg.Validate())

	router, err := NewRouter(cfg, Dependencies{
		Bookings: bookingService,
		Catalog:  catalogService,
		Accounts: accountService,
		Gatherer: registry,
	}, zap.NewNop())
	require.NoError(t, err)

	return &testEnv{router: router, cfg: cfg, catalog: catalogService, stripe: backend}
}

func (env *testEnv) sessionCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	claims := &sessionvalidator.Claims{
		UserID:          userID,
		UserEmail:       userID + "@example.com",
		UserDisplayName: "Test User",
		UserRoles:       []string{"member"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    env.cfg.SessionIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(env.cfg.SessionSigningKey))
	require.NoError(t, err)
	return &http.Cookie{Name: env.cfg.SessionCookieName, Value: signedToken}
}

func (env *testEnv) do(t *testing.T, method string, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, request)
	return recorder
}

func (env *testEnv) webhook(t *testing.T, payload []byte, secret string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, "/api/reservations/webhook", bytes.NewReader(payload))
	if secret != "" {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})
		request.Header.Set(signatureHeader, signed.Header)
	}
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, request)
	return recorder
}

func (env *testEnv) prestationBySlug(t *testing.T, slug string) catalog.Prestation {
	t.Helper()
	prestation, err := env.catalog.GetBySlug(context.Background(), slug)
	require.NoError(t, err)
	return prestation
}

func (env *testEnv) reserve(t *testing.T, cookie *http.Cookie, slugs ...string) string {
	t.Helper()
	items := make([]map[string]any, 0, len(slugs))
	for index, slug := range slugs {
		prestation := env.prestationBySlug(t, slug)
		items = append(items, map[string]any{
			"prestationId": prestation.ID,
			"name":         prestation.Name,
			"price":        prestation.Price.String(),
			"date":         time.Date(2024, time.March, 11+index, 0, 0, 0, 0, time.UTC).Format(dateLayout),
		})
	}
	recorder := env.do(t, http.MethodPost, "/api/reservations", map[string]any{"prestations": items}, cookie)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	var response struct {
		ReservationID string `json:"reservationId"`
	}
	decode(t, recorder, &response)
	require.NotEmpty(t, response.ReservationID)
	return response.ReservationID
}

func completionEvent(eventID string, metadata string) []byte {
	return []byte(`{
		"id": "` + eventID + `",
		"object": "event",
		"api_version": "2024-09-30.acacia",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"payment_status": "paid",
				"metadata": ` + metadata + `
			}
		}
	}`)
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), target), recorder.Body.String())
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type reservationsEnvelope struct {
	Reservations []reservationPayload `json:"reservations"`
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "bookings_reservations_created_total")
}

func TestReservationPaymentFlow(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.sessionCookie(t, testUserID)

	unauthorized := env.do(t, http.MethodPost, "/api/reservations", map[string]any{"prestations": []any{}}, nil)
	require.Equal(t, http.StatusUnauthorized, unauthorized.Code)

	reservationID := env.reserve(t, cookie, "prestation-du-lundi", "prestation-du-mercredi")

	recorder := env.do(t, http.MethodGet, "/api/reservations/user", nil, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	var listed reservationsEnvelope
	decode(t, recorder, &listed)
	require.Len(t, listed.Reservations, 1)
	require.Equal(t, "pending", listed.Reservations[0].Status)
	require.Len(t, listed.Reservations[0].Prestations, 2)

	recorder = env.do(t, http.MethodPost, "/api/reservations/create-checkout-session", map[string]any{"reservationIds": []string{reservationID}}, cookie)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	var session struct {
		URL string `json:"url"`
	}
	decode(t, recorder, &session)
	require.Equal(t, checkoutURL, session.URL)
	form := env.stripe.lastForm()
	require.Equal(t, []string{reservationID}, form["metadata[reservationIds]"])
	require.Equal(t, []string{"300"}, form["line_items[0][price_data][unit_amount]"])
	require.Equal(t, []string{"300"}, form["line_items[1][price_data][unit_amount]"])

	event := completionEvent("evt_1", `{"reservationIds":"`+reservationID+`"}`)
	recorder = env.webhook(t, event, testWebhookSecret)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	var confirmation struct {
		Handled bool `json:"handled"`
		Updated int  `json:"updated"`
	}
	decode(t, recorder, &confirmation)
	require.True(t, confirmation.Handled)
	require.Equal(t, 1, confirmation.Updated)

	recorder = env.webhook(t, event, testWebhookSecret)
	require.Equal(t, http.StatusOK, recorder.Code)
	decode(t, recorder, &confirmation)
	require.Equal(t, 0, confirmation.Updated)

	recorder = env.do(t, http.MethodGet, "/api/reservations/user/paid", nil, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	decode(t, recorder, &listed)
	require.Len(t, listed.Reservations, 1)
	require.Equal(t, "cs_test_1", listed.Reservations[0].PaymentSessionID)
	require.NotNil(t, listed.Reservations[0].PaidAt)

	recorder = env.do(t, http.MethodGet, "/api/reservations/"+reservationID, nil, cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	var fetched reservationPayload
	decode(t, recorder, &fetched)
	require.Equal(t, "paid", fetched.Status)

	recorder = env.do(t, http.MethodPost, "/api/reservations/create-checkout-session", map[string]any{"reservationIds": []string{reservationID}}, cookie)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.sessionCookie(t, testUserID)
	reservationID := env.reserve(t, cookie, "prestation-du-lundi")
	event := completionEvent("evt_forged", `{"reservationIds":"`+reservationID+`"}`)

	recorder := env.webhook(t, event, "whsec_forged")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	var envelope errorEnvelope
	decode(t, recorder, &envelope)
	require.Equal(t, errorCodeInvalidSignature, envelope.Error.Code)

	recorder = env.webhook(t, event, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = env.do(t, http.MethodGet, "/api/reservations/"+reservationID, nil, cookie)
	var fetched reservationPayload
	decode(t, recorder, &fetched)
	require.Equal(t, "pending", fetched.Status)
}

func TestWebhookAcknowledgesMalformedMetadata(t *testing.T) {
	env := newTestEnv(t)
	recorder := env.webhook(t, completionEvent("evt_2", `{"reservationIds":" , "}`), testWebhookSecret)
	require.Equal(t, http.StatusOK, recorder.Code)
	var response struct {
		Received bool `json:"received"`
		Handled  bool `json:"handled"`
	}
	decode(t, recorder, &response)
	require.True(t, response.Received)
	require.False(t, response.Handled)
}

func TestCreateReservationValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.sessionCookie(t, testUserID)
	lundi := env.prestationBySlug(t, "prestation-du-lundi")

	testCases := []struct {
		name string
		body any
	}{
		{name: "empty cart", body: map[string]any{"prestations": []any{}}},
		{name: "price mismatch", body: map[string]any{"prestations": []any{
			map[string]any{"prestationId": lundi.ID, "name": lundi.Name, "price": "1.00", "date": "2024-03-11"},
		}}},
		{name: "unknown prestation", body: map[string]any{"prestations": []any{
			map[string]any{"prestationId": "missing", "name": "Ghost", "price": "3", "date": "2024-03-11"},
		}}},
		{name: "bad date", body: map[string]any{"prestations": []any{
			map[string]any{"prestationId": lundi.ID, "name": lundi.Name, "price": "3", "date": "11/03/2024"},
		}}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			recorder := env.do(t, http.MethodPost, "/api/reservations", testCase.body, cookie)
			require.Equal(t, http.StatusBadRequest, recorder.Code, recorder.Body.String())
			var envelope errorEnvelope
			decode(t, recorder, &envelope)
			require.Equal(t, errorCodeInvalidInput, envelope.Error.Code)
		})
	}

	recorder := env.do(t, http.MethodPost, "/api/reservations", nil, cookie)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestReservationsAreOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	owner := env.sessionCookie(t, testUserID)
	stranger := env.sessionCookie(t, otherUserID)
	reservationID := env.reserve(t, owner, "prestation-du-dimanche")

	recorder := env.do(t, http.MethodGet, "/api/reservations/"+reservationID, nil, stranger)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = env.do(t, http.MethodPost, "/api/reservations/create-checkout-session", map[string]any{"reservationIds": []string{reservationID}}, stranger)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, 0, env.stripe.calls)

	recorder = env.do(t, http.MethodGet, "/api/reservations/user", nil, stranger)
	var listed reservationsEnvelope
	decode(t, recorder, &listed)
	require.Empty(t, listed.Reservations)
}

func TestCheckoutSkipsUnknownReservations(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.sessionCookie(t, testUserID)
	reservationID := env.reserve(t, cookie, "prestation-du-lundi")
	unknownID := "7b0c8f9e-1d2a-4c3b-9e8f-000000000001"

	recorder := env.do(t, http.MethodPost, "/api/reservations/create-checkout-session", map[string]any{"reservationIds": []string{reservationID, unknownID}}, cookie)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	require.Equal(t, 1, env.stripe.calls)
	require.Equal(t, []string{reservationID}, env.stripe.lastForm()["metadata[reservationIds]"])

	recorder = env.do(t, http.MethodPost, "/api/reservations/create-checkout-session", map[string]any{"reservationIds": []string{unknownID}}, cookie)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Equal(t, 1, env.stripe.calls)
}

func TestMalformedReservationIDsAreClientErrors(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.sessionCookie(t, testUserID)
	admin := env.sessionCookie(t, testAdminID)

	testCases := []struct {
		name   string
		method string
		path   string
		body   any
		cookie *http.Cookie
	}{
		{name: "blank checkout id", method: http.MethodPost, path: "/api/reservations/create-checkout-session", body: map[string]any{"reservationIds": []string{""}}, cookie: cookie},
		{name: "delimited checkout id", method: http.MethodPost, path: "/api/reservations/create-checkout-session", body: map[string]any{"reservationIds": []string{"a,b"}}, cookie: cookie},
		{name: "delimited reservation path", method: http.MethodGet, path: "/api/reservations/a,b", cookie: cookie},
		{name: "delimited admin cancel", method: http.MethodPost, path: "/api/admin/reservations/x,y/cancel", cookie: admin},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			recorder := env.do(t, testCase.method, testCase.path, testCase.body, testCase.cookie)
			require.Equal(t, http.StatusBadRequest, recorder.Code, recorder.Body.String())
			var envelope errorEnvelope
			decode(t, recorder, &envelope)
			require.Equal(t, errorCodeInvalidInput, envelope.Error.Code)
		})
	}
	require.Equal(t, 0, env.stripe.calls)
}

func TestAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.sessionCookie(t, testAdminID)
	member := env.sessionCookie(t, testUserID)

	recorder := env.do(t, http.MethodGet, "/api/admin/reservations", nil, member)
	require.Equal(t, http.StatusForbidden, recorder.Code)
	recorder = env.do(t, http.MethodGet, "/api/admin/reservations", nil, nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	body := map[string]any{"name": "Prestation Du Samedi", "description": "Weekend session", "price": "4.50", "availableDays": []string{"Samedi"}}
	recorder = env.do(t, http.MethodPost, "/api/admin/prestations", body, admin)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	var created catalog.Prestation
	decode(t, recorder, &created)
	require.Equal(t, "prestation-du-samedi", created.Slug)
	require.Equal(t, []string{"samedi"}, created.AvailableDays)

	recorder = env.do(t, http.MethodPost, "/api/admin/prestations", body, admin)
	require.Equal(t, http.StatusConflict, recorder.Code)

	body["name"] = "Prestation Du Vendredi"
	body["availableDays"] = []string{"vendredi"}
	recorder = env.do(t, http.MethodPut, "/api/admin/prestations/"+created.ID, body, admin)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	var updated catalog.Prestation
	decode(t, recorder, &updated)
	require.Equal(t, "prestation-du-vendredi", updated.Slug)
	require.True(t, updated.Price.Equal(decimal.RequireFromString("4.5")))

	recorder = env.do(t, http.MethodDelete, "/api/admin/prestations/"+created.ID, nil, admin)
	require.Equal(t, http.StatusNoContent, recorder.Code)
	recorder = env.do(t, http.MethodDelete, "/api/admin/prestations/"+created.ID, nil, admin)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	reservationID := env.reserve(t, member, "prestation-du-lundi")
	recorder = env.do(t, http.MethodGet, "/api/admin/reservations", nil, admin)
	require.Equal(t, http.StatusOK, recorder.Code)
	var listed reservationsEnvelope
	decode(t, recorder, &listed)
	require.Len(t, listed.Reservations, 1)

	recorder = env.do(t, http.MethodPost, "/api/admin/reservations/"+reservationID+"/cancel", nil, admin)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	recorder = env.do(t, http.MethodPost, "/api/admin/reservations/"+reservationID+"/cancel", nil, admin)
	require.Equal(t, http.StatusConflict, recorder.Code)
	recorder = env.do(t, http.MethodPost, "/api/admin/reservations/3f1c1c7e-8a51-4c55-a5a4-6b2a8f7d1e01/cancel", nil, admin)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = env.do(t, http.MethodGet, "/api/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestSignupAndProfile(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]any{"username": "  alice ", "email": "Alice@Example.com", "password": "correct horse"}

	recorder := env.do(t, http.MethodPost, "/api/auth/signup", body, nil)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	require.NotContains(t, recorder.Body.String(), "password")
	var user accounts.User
	decode(t, recorder, &user)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@example.com", user.Email)

	recorder = env.do(t, http.MethodPost, "/api/auth/signup", body, nil)
	require.Equal(t, http.StatusConflict, recorder.Code)

	recorder = env.do(t, http.MethodPost, "/api/auth/signup", map[string]any{"username": "bob", "email": "bob@example.com", "password": "short"}, nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = env.do(t, http.MethodGet, "/api/auth/profile", nil, env.sessionCookie(t, user.ID))
	require.Equal(t, http.StatusOK, recorder.Code)
	var profile accounts.User
	decode(t, recorder, &profile)
	require.Equal(t, user.ID, profile.ID)

	recorder = env.do(t, http.MethodGet, "/api/admin/users", nil, env.sessionCookie(t, testAdminID))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotContains(t, recorder.Body.String(), "passwordHash")
}

func TestPublicCatalog(t *testing.T) {
	env := newTestEnv(t)

	recorder := env.do(t, http.MethodGet, "/api/prestations", nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var listed struct {
		Prestations []catalog.Prestation `json:"prestations"`
	}
	decode(t, recorder, &listed)
	require.Len(t, listed.Prestations, 3)

	recorder = env.do(t, http.MethodGet, "/api/prestations/name/"+url.PathEscape("Prestation Du Lundi"), nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var byName catalog.Prestation
	decode(t, recorder, &byName)
	require.Equal(t, "prestation-du-lundi", byName.Slug)

	recorder = env.do(t, http.MethodGet, "/api/prestations/"+byName.ID, nil, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = env.do(t, http.MethodGet, "/api/prestations/unknown", nil, nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
	var envelope errorEnvelope
	decode(t, recorder, &envelope)
	require.Equal(t, errorCodeNotFound, envelope.Error.Code)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{SessionSigningKey: "k"}
	require.NoError(t, cfg.Validate())
	require.Equal(t, defaultListenAddr, cfg.ListenAddr)
	require.Equal(t, defaultSessionCookie, cfg.SessionCookieName)
	require.Equal(t, int64(defaultWebhookMaxBytes), cfg.WebhookMaxBytes)

	missingKey := Config{}
	require.Error(t, missingKey.Validate())

	wildcard := Config{SessionSigningKey: "k", AllowedOrigins: []string{"*"}}
	require.Error(t, wildcard.Validate())
}

func TestParseAllowedOrigins(t *testing.T) {
	origins := ParseAllowedOrigins(" http://a.com , http://b.com ,")
	require.Equal(t, []string{"http://a.com", "http://b.com"}, origins)
	require.Empty(t, ParseList("  "))
}

func TestStatusForError(t *testing.T) {
	testCases := []struct {
		err    error
		status int
	}{
		{err: booking.WrapError("create_reservation", "cart", "invalid", booking.ErrInvalidInput), status: http.StatusBadRequest},
		{err: booking.ErrInvalidReservationID, status: http.StatusBadRequest},
		{err: booking.ErrInvalidPrestationID, status: http.StatusBadRequest},
		{err: booking.ErrInvalidStatus, status: http.StatusBadRequest},
		{err: booking.ErrGateway, status: http.StatusBadGateway},
		{err: booking.ErrPersistence, status: http.StatusInternalServerError},
		{err: booking.ErrInvalidTransition, status: http.StatusConflict},
		{err: catalog.ErrDuplicateSlug, status: http.StatusConflict},
		{err: accounts.ErrUserNotFound, status: http.StatusNotFound},
		{err: context.DeadlineExceeded, status: http.StatusInternalServerError},
	}
	for _, testCase := range testCases {
		status, _ := statusForError(testCase.err)
		require.Equal(t, testCase.status, status, testCase.err.Error())
	}
}
