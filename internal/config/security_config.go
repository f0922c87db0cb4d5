package config

type SecurityLevel int

const (
	SecurityPublic        SecurityLevel = iota // No session required
	SecurityAuthenticated                      // Any member or staff session
	SecurityStaff                              // Owner, admin or repair staff
	SecurityPrivileged                         // Owner or admin
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityPublic:
		return "public"
	case SecurityAuthenticated:
		return "authenticated"
	case SecurityStaff:
		return "staff"
	case SecurityPrivileged:
		return "privileged"
	}
	return "unknown"
}

// RouteSecurity maps router route names to their required security level.
// Per-member ownership is checked by the services.
var RouteSecurity = map[string]SecurityLevel{
	"healthz": SecurityPublic,

	// Auth - Public
	"auth.member.register": SecurityPublic,
	"auth.member.login":    SecurityPublic,
	"auth.member.logout":   SecurityPublic,
	"auth.admin.login":     SecurityPublic,
	"auth.admin.logout":    SecurityPublic,

	// Auth - Session required
	"auth.me":        SecurityAuthenticated,
	"auth.member.me": SecurityAuthenticated,
	"auth.admin.me":  SecurityStaff,
	"users.create":   SecurityPrivileged,

	// Members
	"members.list":   SecurityStaff,
	"members.create": SecurityStaff,
	"members.get":    SecurityAuthenticated,
	"members.update": SecurityAuthenticated,
	"members.delete": SecurityPrivileged,
	"members.audit":  SecurityStaff,

	// Levels
	"levels.list":   SecurityPublic,
	"levels.upsert": SecurityPrivileged,

	// Ledger
	"points.add":          SecurityStaff,
	"points.spend":        SecurityAuthenticated,
	"points.adjust":       SecurityStaff,
	"points.transactions": SecurityAuthenticated,
	"wallet.topup":        SecurityStaff,
	"wallet.deduct":       SecurityAuthenticated,
	"wallet.refund":       SecurityStaff,
	"wallet.adjust":       SecurityStaff,
	"wallet.transactions": SecurityAuthenticated,

	// Carts
	"cart.get":          SecurityAuthenticated,
	"cart.items.add":    SecurityAuthenticated,
	"cart.items.update": SecurityAuthenticated,
	"cart.items.delete": SecurityAuthenticated,
	"cart.clear":        SecurityAuthenticated,
	"cart.complete":     SecurityAuthenticated,
	"cart.checkout":     SecurityAuthenticated,
	"cart.abandon":      SecurityStaff,

	// Reports
	"reports.create": SecurityAuthenticated,
	"reports.list":   SecurityAuthenticated,
	"reports.mine":   SecurityAuthenticated,
	"reports.get":    SecurityAuthenticated,
	"reports.update": SecurityPrivileged,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(routeName string) SecurityLevel {
	if level, exists := RouteSecurity[routeName]; exists {
		return level
	}
	// Default to highest security for unknown routes
	return SecurityPrivileged
}
