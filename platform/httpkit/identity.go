// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated user's identity.
// Handlers read user and tenant information through it without touching
// raw gin context keys.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// TenantID returns the organization the token was issued for, if any.
	TenantID() *uuid.UUID
	// Roles returns the user's assigned roles.
	Roles() []string
	// HasRole checks if the user has a specific role.
	HasRole(role string) bool
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	tenantID      *uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID    { return i.userID }
func (i *identity) TenantID() *uuid.UUID { return i.tenantID }
func (i *identity) Roles() []string      { return i.roles }
func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

func (i *identity) HasRole(role string) bool {
	return slices.Contains(i.roles, role)
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	var roleList []string
	if roles, rolesOK := c.Get(ContextRolesKey); rolesOK {
		roleList, _ = roles.([]string)
	}

	var tenantID *uuid.UUID
	if raw, tenantOK := c.Get(ContextTenantIDKey); tenantOK {
		if parsed, ok := raw.(uuid.UUID); ok {
			tenantID = &parsed
		}
	}

	return &identity{
		userID:        uid,
		tenantID:      tenantID,
		roles:         roleList,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil
	}
	return id
}

// MustGetTenantID returns the authenticated identity and its tenant.
// It aborts with 401 when unauthenticated and 403 when the token carries no tenant.
func MustGetTenantID(c *gin.Context) (Identity, uuid.UUID, bool) {
	id := MustGetIdentity(c)
	if id == nil {
		return nil, uuid.Nil, false
	}
	tenantID := id.TenantID()
	if tenantID == nil {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "organization context required"})
		return nil, uuid.Nil, false
	}
	return id, *tenantID, true
}
