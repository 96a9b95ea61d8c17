package httpx

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/MikeMC777/ordenes-admin/internal/config"
)

const adminKey = "admin"

// Admin is the acting administrator attached to a request.
type Admin struct {
	ID   string
	Name string
	// Verified is set when the identity came from a matching admin key.
	Verified bool
}

// AdminIdentity resolves the acting admin. With no keys configured the
// X-Admin-Id and X-Admin-Name headers are trusted as given; otherwise the
// bearer token must match one of the bcrypt hashes and its name is used.
func AdminIdentity(keys []config.AdminKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Set(adminKey, Admin{
				ID:   strings.TrimSpace(c.GetHeader("X-Admin-Id")),
				Name: strings.TrimSpace(c.GetHeader("X-Admin-Name")),
			})
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			WriteError(c, http.StatusUnauthorized, "unauthorized", "admin key required")
			return
		}
		for _, k := range keys {
			if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(token)) == nil {
				c.Set(adminKey, Admin{ID: k.Name, Name: k.Name, Verified: true})
				c.Next()
				return
			}
		}
		WriteError(c, http.StatusUnauthorized, "unauthorized", "invalid admin key")
	}
}

// AdminFrom returns the admin resolved by AdminIdentity, or the zero Admin.
func AdminFrom(c *gin.Context) Admin {
	if v, ok := c.Get(adminKey); ok {
		if a, ok := v.(Admin); ok {
			return a
		}
	}
	return Admin{}
}
