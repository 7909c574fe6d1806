package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"foodapp/internal/config"
	"foodapp/internal/domain/model"
	"foodapp/internal/infra/db/dbtest"
	"foodapp/internal/notify"
	"foodapp/internal/server"
	"foodapp/internal/telemetry"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "Sup3r-Secret-Pass"

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type testEnv struct {
	Server   *httptest.Server
	DB       *gorm.DB
	Registry *notify.Registry
	Client   *TestClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gormDB := dbtest.Open(t)
	registry := notify.NewRegistry()
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())

	srv := server.New(server.Deps{
		Config: config.Config{
			GoEnv:        "test",
			FEURL:        "http://localhost:5173",
			JWTSecret:    "test-secret",
			JWTTTL:       time.Hour,
			BcryptCost:   bcrypt.MinCost,
			UploadDir:    t.TempDir(),
			NotifyBuffer: 8,
		},
		DB:       gormDB,
		Metrics:  metrics,
		Registry: registry,
		Clock:    realClock{},
		IDGen:    uuidGenerator{},
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{
		Server:   ts,
		DB:       gormDB,
		Registry: registry,
		Client:   &TestClient{BaseURL: ts.URL, HTTP: &http.Client{Timeout: 10 * time.Second}},
	}
}

type TestClient struct {
	BaseURL string
	HTTP    *http.Client
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type UserDTO struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	WalletBalance string `json:"walletBalance"`
}

type AuthResponse struct {
	User  UserDTO `json:"user"`
	Token struct {
		AccessToken  string `json:"access_token"`
		ExpiresIn    int64  `json:"expires_in"`
		TokenVersion int    `json:"token_version"`
	} `json:"token"`
}

type OrderDTO struct {
	ID            string `json:"id"`
	TotalAmount   string `json:"totalAmount"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentStatus string `json:"paymentStatus"`
	OrderStatus   string `json:"orderStatus"`
	Items         []struct {
		MenuItemID int64  `json:"menuItemId"`
		Name       string `json:"name"`
		Quantity   int64  `json:"quantity"`
		Price      string `json:"price"`
	} `json:"items"`
}

func (c *TestClient) do(
	ctx context.Context,
	t *testing.T,
	method string,
	path string,
	bearer string,
	contentType string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	require.NoError(t, err)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, data
}

func (c *TestClient) doJSON(t *testing.T, method, path, bearer string, payload any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	contentType := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(context.Background(), t, method, path, bearer, contentType, body, headers)
}

// fields はテキスト項目、files は フィールド名 -> ファイル名
func (c *TestClient) doMultipart(t *testing.T, method, path, bearer string, fields map[string]string, files map[string]string) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, filename := range files {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("\x89PNG\r\n\x1a\nfake"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return c.do(context.Background(), t, method, path, bearer, w.FormDataContentType(), &buf, nil)
}

func requireStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("status=%d want=%d body=%s", resp.StatusCode, want, string(body))
	}
}

func mustDecode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json.Unmarshal(%T) failed: %v body=%s", v, err, string(body))
	}
	return v
}

func mustDecodeError(t *testing.T, body []byte) ErrorResponse {
	t.Helper()
	return mustDecode[ErrorResponse](t, body)
}

func (c *TestClient) registerUser(t *testing.T, email string) AuthResponse {
	t.Helper()

	resp, body := c.doJSON(t, http.MethodPost, "/api/users/register", "", map[string]any{
		"username":    "buyer",
		"email":       email,
		"phoneNumber": "090-0000-0000",
		"password":    testPassword,
	}, nil)
	requireStatus(t, resp, http.StatusCreated, body)
	return mustDecode[AuthResponse](t, body)
}

func (c *TestClient) registerVendor(t *testing.T, email string) AuthResponse {
	t.Helper()

	userData, err := json.Marshal(map[string]any{
		"username":    "vendor",
		"email":       email,
		"phoneNumber": "090-1111-1111",
		"password":    testPassword,
		"role":        "VENDOR",
		"vendorDetails": map[string]string{
			"restaurantName":    "Slice House",
			"restaurantAddress": "1-2-3 Shibuya",
			"cuisine":           "Italian",
			"description":       "Wood fired pizza",
		},
	})
	require.NoError(t, err)

	resp, body := c.doMultipart(t, http.MethodPost, "/api/users/register", "",
		map[string]string{"userData": string(userData)},
		map[string]string{"photo": "shop.png"},
	)
	requireStatus(t, resp, http.StatusCreated, body)
	return mustDecode[AuthResponse](t, body)
}

func (c *TestClient) login(t *testing.T, email string) AuthResponse {
	t.Helper()

	resp, body := c.doJSON(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"email":    email,
		"password": testPassword,
	}, nil)
	requireStatus(t, resp, http.StatusOK, body)
	return mustDecode[AuthResponse](t, body)
}

// 管理者は登録APIでは作れないのでDBに直接入れてからログインする
func (e *testEnv) seedAdmin(t *testing.T) AuthResponse {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, e.DB.Create(&model.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PhoneNumber:  "000",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}).Error)

	return e.Client.login(t, "admin@example.com")
}

func (c *TestClient) createMenuItem(t *testing.T, vendor AuthResponse, name, price string) int64 {
	t.Helper()

	resp, body := c.doMultipart(t, http.MethodPost, "/api/vendors/"+strconv.FormatInt(vendor.User.ID, 10)+"/menu", vendor.Token.AccessToken,
		map[string]string{"name": name, "price": price, "category": "pizza", "type": "Veg"},
		nil,
	)
	requireStatus(t, resp, http.StatusCreated, body)
	return mustDecode[struct {
		ID int64 `json:"id"`
	}](t, body).ID
}

func (c *TestClient) creditWallet(t *testing.T, admin AuthResponse, userID int64, amount string) {
	t.Helper()

	resp, body := c.doJSON(t, http.MethodPost, "/api/admin/users/"+strconv.FormatInt(userID, 10)+"/wallet/credit",
		admin.Token.AccessToken, map[string]string{"amount": amount}, nil)
	requireStatus(t, resp, http.StatusOK, body)
}
