package config

import "ngo-backend/internal/domain"

type SecurityLevel int

const (
	SecurityPublic    SecurityLevel = iota // No authentication
	SecurityModerator                      // Admin, or moderator holding the endpoint permission
	SecurityAdmin                          // Admin only
)

// EndpointSecurity is the requirement for one route
type EndpointSecurity struct {
	Level      SecurityLevel
	Permission domain.Permission
}

// EndpointSecurityConfig maps "METHOD /path/template" to its requirement
var EndpointSecurityConfig = map[string]EndpointSecurity{
	// Public
	"POST /api/v1/auth/login":       {Level: SecurityPublic},
	"POST /api/v1/members/register": {Level: SecurityPublic},
	"GET /api/v1/notices":           {Level: SecurityPublic},
	"GET /api/v1/stats":             {Level: SecurityPublic},
	"POST /api/v1/contact":          {Level: SecurityPublic},
	"POST /api/v1/chat":             {Level: SecurityPublic},
	"GET /healthz":                  {Level: SecurityPublic},

	// Members
	"GET /api/v1/members":                        {Level: SecurityModerator, Permission: domain.PermissionManageMembers},
	"GET /api/v1/members/{id}":                   {Level: SecurityModerator, Permission: domain.PermissionManageMembers},
	"POST /api/v1/members":                       {Level: SecurityModerator, Permission: domain.PermissionManageMembers},
	"POST /api/v1/members/{id}/toggle-status":    {Level: SecurityModerator, Permission: domain.PermissionManageMembers},
	"DELETE /api/v1/members/{id}":                {Level: SecurityModerator, Permission: domain.PermissionManageMembers},
	"GET /api/v1/members/by-name/{name}/history": {Level: SecurityModerator, Permission: domain.PermissionManageTransactions},
	"PUT /api/v1/members/{id}/role":              {Level: SecurityAdmin},
	"POST /api/v1/members/{id}/session":          {Level: SecurityAdmin},

	// Ledger
	"GET /api/v1/transactions":    {Level: SecurityModerator, Permission: domain.PermissionManageTransactions},
	"POST /api/v1/transactions":   {Level: SecurityModerator, Permission: domain.PermissionManageTransactions},
	"DELETE /api/v1/transactions": {Level: SecurityAdmin},
	"GET /api/v1/statements":      {Level: SecurityModerator, Permission: domain.PermissionManageTransactions},

	// Notices
	"POST /api/v1/notices":        {Level: SecurityModerator, Permission: domain.PermissionManageNotices},
	"DELETE /api/v1/notices/{id}": {Level: SecurityModerator, Permission: domain.PermissionManageNotices},
}

// GetEndpointSecurity returns the requirement for a route
func GetEndpointSecurity(method, pathTemplate string) EndpointSecurity {
	if sec, exists := EndpointSecurityConfig[method+" "+pathTemplate]; exists {
		return sec
	}
	// Default to highest security for unknown endpoints
	return EndpointSecurity{Level: SecurityAdmin}
}
