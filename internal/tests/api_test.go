// internal/tests/api_test.go
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/rifas-backend/internal/config"
	"github.com/javajoker/rifas-backend/internal/i18n"
	"github.com/javajoker/rifas-backend/internal/lock"
	"github.com/javajoker/rifas-backend/internal/models"
	"github.com/javajoker/rifas-backend/internal/router"
	"github.com/javajoker/rifas-backend/internal/services"
	"github.com/javajoker/rifas-backend/internal/store"
)

const adminEmail = "admin@rifa.com"

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta json.RawMessage `json:"meta"`
}

type APITestSuite struct {
	suite.Suite
	cfg     *config.Config
	locker  *lock.LocalLocker
	raffles *services.RaffleService
	router  *gin.Engine
}

func testConfig(uploadDir string) *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			PublicURL:      "http://localhost:8080",
			UploadDir:      uploadDir,
		},
		JWT: config.JWTConfig{
			SecretKey:       "api-test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 2,
		},
		Raffle: config.RaffleConfig{
			KeepOrphanTickets:     true,
			SellerCodeLength:      6,
			SellerCodeMaxAttempts: 5,
			MaxTicketsPerRaffle:   1000,
		},
		Admin: config.AdminConfig{Emails: []string{adminEmail}},
		RateLimit: config.RateLimitConfig{
			GeneralPerSecond: 1000,
			GeneralBurst:     1000,
			AuthPerMinute:    1000,
			UploadPerMinute:  1000,
		},
	}
}

func (s *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(i18n.Initialize("es"))
}

func (s *APITestSuite) SetupTest() {
	s.cfg = testConfig(s.T().TempDir())

	st := store.NewMemoryStore()
	s.locker = lock.NewLocalLocker(50 * time.Millisecond)
	ledger := services.NewTicketLedger(st)
	sellers := services.NewSellerService(st, s.locker, ledger, s.cfg)
	s.raffles = services.NewRaffleService(st, s.locker, sellers, ledger, s.cfg)

	storage, err := services.NewStorageService(s.cfg)
	s.Require().NoError(err)

	s.router = router.Initialize(s.cfg, router.Services{
		Auth:    services.NewAuthService(st, s.cfg),
		Raffles: s.raffles,
		Sellers: sellers,
		Ledger:  ledger,
		Storage: storage,
		Audit:   services.NewAuditService(st),
	})
}

func (s *APITestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func (s *APITestSuite) register(email string) string {
	w, resp := s.do(http.MethodPost, "/v1/auth/register", "", map[string]interface{}{
		"name":     "Test User",
		"email":    email,
		"password": "secret123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &data))
	s.Require().NotEmpty(data.Token)
	return data.Token
}

func (s *APITestSuite) createRaffle(total int) *models.Raffle {
	raffle, err := s.raffles.CreateRaffle(context.Background(), services.CreateRaffleRequest{
		Title:        "Test raffle",
		TicketPrice:  decimal.NewFromInt(10),
		TotalTickets: total,
		Prizes:       []models.Prize{{Name: "Prize", Position: 1}},
		DrawDate:     models.Date{Time: time.Now().AddDate(0, 1, 0)},
	})
	s.Require().NoError(err)
	return raffle
}

func reservationPath(raffleID string) string {
	return fmt.Sprintf("/v1/raffles/%s/reservations", raffleID)
}

func (s *APITestSuite) TestHealth() {
	w, _ := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *APITestSuite) TestRegisterAndLogin() {
	s.register("ana@example.com")

	w, resp := s.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "secret123",
	})
	s.Equal(http.StatusOK, w.Code)
	s.True(resp.Success)

	w, resp = s.do(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong-password",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("INVALID_CREDENTIALS", resp.Error.Code)
}

func (s *APITestSuite) TestDuplicateRegistration() {
	s.register("dup@example.com")

	w, resp := s.do(http.MethodPost, "/v1/auth/register", "", map[string]interface{}{
		"name":     "Again",
		"email":    "DUP@example.com",
		"password": "secret123",
	})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("USER_EXISTS", resp.Error.Code)
}

func (s *APITestSuite) TestProfileRequiresToken() {
	w, resp := s.do(http.MethodGet, "/v1/auth/me", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("UNAUTHORIZED", resp.Error.Code)
}

func (s *APITestSuite) TestUpdateProfile() {
	token := s.register("perfil@example.com")

	w, resp := s.do(http.MethodPut, "/v1/auth/me", token, map[string]string{
		"phone":   "987654321",
		"address": "Av. Principal 123, Lima",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var data struct {
		User models.User `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &data))
	s.Equal("Test User", data.User.Name)
	s.Equal("Av. Principal 123, Lima", data.User.Address)

	w, resp = s.do(http.MethodGet, "/v1/auth/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(resp.Data, &data))
	s.Equal("987654321", data.User.Phone)

	w, resp = s.do(http.MethodPut, "/v1/auth/me", token, map[string]string{"dni": "12"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", resp.Error.Code)

	w, _ = s.do(http.MethodPut, "/v1/auth/me", "", map[string]string{"name": "Nobody"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestListPastLastPage() {
	s.createRaffle(10)

	w, resp := s.do(http.MethodGet, "/v1/raffles?page=100000000000000000&limit=100", "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("1", w.Header().Get("X-Total-Count"))
	var summaries []models.RaffleSummary
	s.Require().NoError(json.Unmarshal(resp.Data, &summaries))
	s.Empty(summaries)
}

func (s *APITestSuite) TestListAndGetRaffle() {
	raffle := s.createRaffle(10)

	w, resp := s.do(http.MethodGet, "/v1/raffles?status=active", "", nil)
	s.Equal(http.StatusOK, w.Code)
	var summaries []models.RaffleSummary
	s.Require().NoError(json.Unmarshal(resp.Data, &summaries))
	s.Require().Len(summaries, 1)
	s.Equal(10, summaries[0].AvailableCount)

	w, _ = s.do(http.MethodGet, "/v1/raffles?status=bogus", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/v1/raffles/"+raffle.ID, "", nil)
	s.Equal(http.StatusOK, w.Code)

	w, resp = s.do(http.MethodGet, "/v1/raffles/missing", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("RAFFLE_NOT_FOUND", resp.Error.Code)
}

func (s *APITestSuite) TestReservationFlow() {
	raffle := s.createRaffle(10)
	token := s.register("buyer@example.com")

	w, resp := s.do(http.MethodPost, reservationPath(raffle.ID), token, map[string]interface{}{
		"numbers": []int{3, 5},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Tickets []models.Ticket `json:"tickets"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &data))
	s.Len(data.Tickets, 2)
	s.Equal("buyer@example.com", data.Tickets[0].BuyerIdentity)

	// Overlapping selection fails as a whole
	w, resp = s.do(http.MethodPost, reservationPath(raffle.ID), token, map[string]interface{}{
		"numbers": []int{5, 6},
	})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("NUMBERS_UNAVAILABLE", resp.Error.Code)
	var details struct {
		Unavailable []int `json:"unavailable"`
	}
	s.Require().NoError(json.Unmarshal(resp.Error.Details, &details))
	s.Equal([]int{5}, details.Unavailable)

	w, resp = s.do(http.MethodGet, fmt.Sprintf("/v1/raffles/%s/numbers", raffle.ID), "", nil)
	s.Equal(http.StatusOK, w.Code)
	var numbers struct {
		Count int `json:"count"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &numbers))
	s.Equal(8, numbers.Count)

	w, resp = s.do(http.MethodGet, "/v1/tickets/me", token, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(resp.Data, &data))
	s.Len(data.Tickets, 2)
}

func (s *APITestSuite) TestReservationErrors() {
	raffle := s.createRaffle(5)
	token := s.register("err@example.com")

	w, _ := s.do(http.MethodPost, reservationPath(raffle.ID), "", map[string]interface{}{"numbers": []int{1}})
	s.Equal(http.StatusUnauthorized, w.Code)

	w, resp := s.do(http.MethodPost, reservationPath(raffle.ID), token, map[string]interface{}{"numbers": []int{}})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("EMPTY_SELECTION", resp.Error.Code)

	w, resp = s.do(http.MethodPost, reservationPath("missing"), token, map[string]interface{}{"numbers": []int{1}})
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("RAFFLE_NOT_FOUND", resp.Error.Code)

	w, resp = s.do(http.MethodPost, reservationPath(raffle.ID), token, map[string]interface{}{
		"numbers":     []int{1},
		"seller_code": "NOPE00",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_SELLER_CODE", resp.Error.Code)
}

func (s *APITestSuite) TestReservationBusy() {
	raffle := s.createRaffle(5)
	token := s.register("busy@example.com")

	unlock, err := s.locker.Lock(context.Background(), "raffle:"+raffle.ID)
	s.Require().NoError(err)
	defer unlock()

	w, resp := s.do(http.MethodPost, reservationPath(raffle.ID), token, map[string]interface{}{"numbers": []int{1}})
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal("BUSY", resp.Error.Code)
	s.Equal("1", w.Header().Get("Retry-After"))
}

func (s *APITestSuite) TestAdminRoutes() {
	userToken := s.register("user@example.com")
	adminToken := s.register(adminEmail)

	body := map[string]interface{}{
		"title":         "Moto",
		"ticket_price":  25,
		"total_tickets": 50,
		"prizes":        []map[string]interface{}{{"name": "Moto", "position": 1}},
		"draw_date":     time.Now().AddDate(0, 2, 0).Format(models.DateLayout),
	}

	w, resp := s.do(http.MethodPost, "/v1/admin/raffles", userToken, body)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("FORBIDDEN", resp.Error.Code)

	w, resp = s.do(http.MethodPost, "/v1/admin/raffles", adminToken, body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Raffle models.Raffle `json:"raffle"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &created))
	s.Len(created.Raffle.AvailableNumbers, 50)

	w, _ = s.do(http.MethodPut, "/v1/admin/raffles/"+created.Raffle.ID, adminToken, map[string]interface{}{
		"status": "closed",
	})
	s.Equal(http.StatusOK, w.Code)

	w, resp = s.do(http.MethodPost, reservationPath(created.Raffle.ID), userToken, map[string]interface{}{"numbers": []int{1}})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("RAFFLE_CLOSED", resp.Error.Code)

	w, resp = s.do(http.MethodGet, "/v1/admin/stats", adminToken, nil)
	s.Equal(http.StatusOK, w.Code)
	var stats struct {
		Stats services.Stats `json:"stats"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &stats))
	s.Equal(1, stats.Stats.TotalRaffles)
	s.Equal(0, stats.Stats.ActiveRaffleCount)

	w, _ = s.do(http.MethodDelete, "/v1/admin/raffles/"+created.Raffle.ID, adminToken, nil)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, "/v1/admin/raffles/"+created.Raffle.ID, adminToken, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestInvalidRaffleRejected() {
	adminToken := s.register(adminEmail)

	w, resp := s.do(http.MethodPost, "/v1/admin/raffles", adminToken, map[string]interface{}{
		"title":         "No prizes",
		"ticket_price":  10,
		"total_tickets": 10,
		"draw_date":     "2030-01-01",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", resp.Error.Code)
}

func (s *APITestSuite) TestSellerFlow() {
	raffle := s.createRaffle(20)
	sellerToken := s.register("seller@example.com")
	buyerToken := s.register("client@example.com")

	w, resp := s.do(http.MethodPost, "/v1/sellers", sellerToken, map[string]string{"display_name": "Rosa"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var registered struct {
		Seller models.Seller `json:"seller"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &registered))
	code := registered.Seller.Code
	s.Len(code, 6)
	s.Equal("seller@example.com", registered.Seller.ContactEmail)

	w, resp = s.do(http.MethodPost, "/v1/sellers", sellerToken, map[string]string{"display_name": "Rosa"})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("SELLER_ALREADY_REGISTERED", resp.Error.Code)

	w, _ = s.do(http.MethodGet, "/v1/sellers/"+code, "", nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, reservationPath(raffle.ID), buyerToken, map[string]interface{}{
		"numbers":     []int{1, 2, 3},
		"seller_code": code,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(http.MethodGet, "/v1/sellers/"+code+"/stats", buyerToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, resp = s.do(http.MethodGet, "/v1/sellers/"+code+"/stats", sellerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var stats struct {
		Stats services.SellerStats `json:"stats"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &stats))
	s.Equal(3, stats.Stats.TicketsSold)
	s.True(decimal.NewFromInt(30).Equal(stats.Stats.TotalSalesAmount))
}

func (s *APITestSuite) TestRaffleImageUpload() {
	adminToken := s.register(adminEmail)

	png := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0}, 32)...)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "prize.png")
	s.Require().NoError(err)
	_, err = part.Write(png)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/raffles/upload-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp apiResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	var data struct {
		Image services.UploadResult `json:"image"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &data))
	s.True(strings.HasPrefix(data.Image.Key, "raffles/"))
	s.Equal(int64(len(png)), data.Image.Size)

	// Served back from the local upload directory
	w, _ = s.do(http.MethodGet, "/uploads/"+data.Image.Key, "", nil)
	s.Equal(http.StatusOK, w.Code)

	name := strings.TrimPrefix(data.Image.Key, "raffles/")
	w, _ = s.do(http.MethodDelete, "/v1/admin/raffles/images/"+name, adminToken, nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/uploads/"+data.Image.Key, "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestAuditLogRecorded() {
	adminToken := s.register(adminEmail)

	s.Eventually(func() bool {
		w, resp := s.do(http.MethodGet, "/v1/admin/audit-logs?resource_type=auth", adminToken, nil)
		if w.Code != http.StatusOK {
			return false
		}
		var logs []models.AuditLog
		if err := json.Unmarshal(resp.Data, &logs); err != nil {
			return false
		}
		return len(logs) > 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
