package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/imi-ledger/internal/models"
)

func TestAuthorize(t *testing.T) {
	asset := &models.IntellectualProperty{Owner: "alice"}
	license := &models.License{Licensor: "alice", Licensee: "bob"}
	platform := Platform{Operator: "operator", Treasury: "treasury"}

	cases := []struct {
		name    string
		role    Role
		caller  string
		subject Principals
		want    bool
	}{
		{"owner", RoleOwner, "alice", AssetPrincipals(asset), true},
		{"not owner", RoleOwner, "bob", AssetPrincipals(asset), false},
		{"licensor", RoleLicensor, "alice", LicensePrincipals(license), true},
		{"licensee as licensor", RoleLicensor, "bob", LicensePrincipals(license), false},
		{"licensee", RoleLicensee, "bob", LicensePrincipals(license), true},
		{"operator", RoleOperator, "operator", PlatformPrincipals(platform), true},
		{"treasury is not operator", RoleOperator, "treasury", PlatformPrincipals(platform), false},
		{"role missing on subject", RoleOperator, "alice", AssetPrincipals(asset), false},
		{"anonymous", RoleOwner, "", AssetPrincipals(&models.IntellectualProperty{}), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Authorize(c.role, c.caller, c.subject))
		})
	}
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "licensee", RoleLicensee.String())
	assert.Equal(t, "unknown", Role(0).String())
}
