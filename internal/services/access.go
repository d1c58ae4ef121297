// internal/services/access.go
package services

import "github.com/javajoker/imi-ledger/internal/models"

type Role int

const (
	RoleOwner Role = iota + 1
	RoleLicensor
	RoleLicensee
	RoleOperator
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleLicensor:
		return "licensor"
	case RoleLicensee:
		return "licensee"
	case RoleOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// Principals maps each role a record knows about to the identity holding it.
type Principals map[Role]string

func AssetPrincipals(asset *models.IntellectualProperty) Principals {
	return Principals{RoleOwner: asset.Owner}
}

func LicensePrincipals(license *models.License) Principals {
	return Principals{
		RoleLicensor: license.Licensor,
		RoleLicensee: license.Licensee,
	}
}

func PlatformPrincipals(platform Platform) Principals {
	return Principals{RoleOperator: platform.Operator}
}

// Authorize reports whether caller holds role on the subject. Anonymous
// callers and roles the subject does not define are always refused.
func Authorize(role Role, caller string, subject Principals) bool {
	if caller == "" {
		return false
	}
	holder, ok := subject[role]
	return ok && holder != "" && holder == caller
}
