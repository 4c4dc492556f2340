package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/forumhub/phone-verification/internal/config"
	"github.com/forumhub/phone-verification/internal/logging"
	"github.com/forumhub/phone-verification/internal/middleware"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/forumhub/phone-verification/internal/services"
	"github.com/forumhub/phone-verification/internal/store"
	"github.com/forumhub/phone-verification/internal/userdir"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	if config.AppConfig == nil {
		config.AppConfig = &config.Config{AdminGroup: "forum:admin"}
	}
}

// recordingDeliverer captures delivered codes for assertions.
type recordingDeliverer struct {
	spoken map[string]string
	err    error
}

func (d *recordingDeliverer) SpeakCode(ctx context.Context, phone, code string) error {
	if d.err != nil {
		return d.err
	}
	d.spoken[phone] = code
	return nil
}

func (d *recordingDeliverer) PlaceCallerIDCall(ctx context.Context, phone string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return "445566", nil
}

type testFixture struct {
	router   *gin.Engine
	users    *userdir.MemoryDirectory
	store    *store.MemoryStore
	registry *services.PhoneRegistry
	deliver  *recordingDeliverer
}

// newTestFixture builds the full route table over in-memory backends,
// mirroring the wiring in main.
func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	st := store.NewMemoryStore()
	users := userdir.NewMemoryDirectory()
	logger := logging.NewNop()
	cfg := &config.Config{Environment: "test", AdminGroup: "forum:admin"}

	codes := services.NewVerificationStore(st, services.DefaultVerificationPolicy(), logger)
	rateLimiter := services.NewIPRateLimiter(st, 100, 24*time.Hour, logger)
	registry := services.NewPhoneRegistry(st, users, logger)
	verified := services.NewVerifiedPhoneCache(st, 10*time.Minute)
	settings := services.NewSettingsService(st, cfg)
	deliver := &recordingDeliverer{spoken: make(map[string]string)}

	service := services.NewVerificationService(
		codes, rateLimiter, registry, verified, settings,
		deliver, users, logger, cfg.Environment,
	)
	h := NewHandler(service, users, cfg, logger, nil)

	router := gin.New()
	v1 := router.Group("/v1")
	v1.GET("/health", h.HealthCheck)

	pv := v1.Group("/phone-verification")
	pv.POST("/send-code", h.SendCode)
	pv.POST("/verify-code", h.VerifyCode)
	pv.POST("/initiate-call", h.InitiateCall)
	pv.POST("/check-status", h.CheckStatus)
	pv.POST("/check-registration", h.CheckRegistration)
	pv.POST("/complete-registration", h.CompleteRegistration)
	pv.GET("/can-post", middleware.AuthMiddleware(), h.CanPost)

	user := v1.Group("/user", middleware.AuthMiddleware())
	user.GET("/:userslug/phone", h.GetUserPhone)
	user.POST("/:userslug/phone", h.UpdateUserPhone)
	user.POST("/:userslug/phone/visibility", h.SetPhoneVisibility)
	user.POST("/:userslug/phone/verify", h.VerifyOwnPhone)

	admin := v1.Group("/admin/phone-verification", middleware.AuthMiddleware(), middleware.RequireAdmin())
	admin.GET("/users", h.ListUsers)
	admin.GET("/search", h.SearchByPhone)
	admin.GET("/user/:uid", h.GetUserPhoneAdmin)
	admin.POST("/user/:uid/force-bind", h.ForceBindPhone)
	admin.POST("/user/:uid/force-verify", h.ForceVerifyPhone)
	admin.POST("/user/:uid/force-unverify", h.ForceUnverifyPhone)
	admin.DELETE("/user/:uid/phone", h.DeleteUserPhone)
	admin.GET("/settings", h.GetSettings)
	admin.POST("/settings", h.SaveSettings)
	admin.POST("/test-call", h.TestCall)

	return &testFixture{
		router:   router,
		users:    users,
		store:    st,
		registry: registry,
		deliver:  deliver,
	}
}

func tokenFor(uid int64, admin bool) string {
	claims := models.JWTClaims{SUB: "test", UID: uid}
	if admin {
		claims.RealmAccess.Roles = []string{"forum:admin"}
	}
	claimsJSON, _ := json.Marshal(claims)
	claimsB64 := base64.RawURLEncoding.EncodeToString(claimsJSON)
	return "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9." + claimsB64 + ".fake-signature"
}

func (f *testFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}
