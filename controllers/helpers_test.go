package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/roadrunner/api-go/utils"
	"github.com/roadrunner/api-go/validation"
	"github.com/stretchr/testify/require"
)

const testUserID uint = 42

func init() {
	gin.SetMode(gin.TestMode)
	validation.Register()
}

// newRouter returns an engine whose routes see testUserID as the caller.
func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		utils.SetUser(c, &utils.UserClaims{UserID: testUserID})
		c.Next()
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
