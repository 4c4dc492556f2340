package middleware

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forumhub/phone-verification/internal/config"
	"github.com/forumhub/phone-verification/internal/logging"
	"github.com/forumhub/phone-verification/internal/models"
	"github.com/gin-gonic/gin"
)

func init() {
	logging.InitLogger()
	gin.SetMode(gin.TestMode)

	if config.AppConfig == nil {
		config.AppConfig = &config.Config{
			AdminGroup: "forum:admin",
		}
	}
}

func createTestJWT(claims models.JWTClaims) string {
	claimsJSON, _ := json.Marshal(claims)
	claimsB64 := base64.RawURLEncoding.EncodeToString(claimsJSON)

	// Fake JWT (header.payload.signature); the signature is never checked here.
	return "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9." + claimsB64 + ".fake-signature"
}

func TestAuthMiddleware_Success(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware())
	router.GET("/test", func(c *gin.Context) {
		uid, err := UIDFromToken(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"uid": uid})
	})

	token := createTestJWT(models.JWTClaims{SUB: "user123", UID: 42})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("AuthMiddleware() status = %v, want %v", w.Code, http.StatusOK)
	}

	var body map[string]int64
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["uid"] != 42 {
		t.Errorf("UIDFromToken() = %v, want 42", body["uid"])
	}
}

func TestAuthMiddleware_NoAuthHeader(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("AuthMiddleware() with no auth header status = %v, want %v", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	for _, header := range []string{"Basic abc", "Bearer", "Bearer a b"} {
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("AuthMiddleware() with header %q status = %v, want %v", header, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestAuthMiddleware_MalformedToken(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("AuthMiddleware() with malformed token status = %v, want %v", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireAdmin(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware(), RequireAdmin())
	router.GET("/admin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	adminClaims := models.JWTClaims{SUB: "admin", UID: 1}
	adminClaims.RealmAccess.Roles = []string{"forum:admin"}

	req, _ := http.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+createTestJWT(adminClaims))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("RequireAdmin() with admin role status = %v, want %v", w.Code, http.StatusOK)
	}

	userClaims := models.JWTClaims{SUB: "user", UID: 2}
	userClaims.RealmAccess.Roles = []string{"forum:member"}

	req, _ = http.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+createTestJWT(userClaims))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("RequireAdmin() without admin role status = %v, want %v", w.Code, http.StatusForbidden)
	}
}

func TestUIDFromToken_MissingUID(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware())
	router.GET("/test", func(c *gin.Context) {
		if _, err := UIDFromToken(c); err == nil {
			c.JSON(http.StatusOK, gin.H{"message": "unexpected"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no uid"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+createTestJWT(models.JWTClaims{SUB: "user"}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("UIDFromToken() with no uid claim status = %v, want %v", w.Code, http.StatusUnauthorized)
	}
}
