// Package roles defines the closed set of role identifiers the engine
// understands. Historical data carries role names in several spellings and two
// languages; Normalize maps those at the ingestion boundary so the rest of the
// engine only ever compares canonical values.
package roles

import "strings"

// Role is a canonical role identifier
type Role string

const (
	Employee    Role = "employee"
	Manager     Role = "manager"
	Supervisor  Role = "supervisor"
	HR          Role = "hr"
	Finance     Role = "finance"
	ITSupport   Role = "it_support"
	SystemAdmin Role = "system_admin"
)

// All returns every canonical role
func All() []Role {
	return []Role{Employee, Manager, Supervisor, HR, Finance, ITSupport, SystemAdmin}
}

// legacyAliases maps role spellings found in migrated data to canonical roles.
// The Arabic entries come from the original bilingual deployments.
var legacyAliases = map[string]Role{
	"employee":      Employee,
	"staff":         Employee,
	"user":          Employee,
	"موظف":          Employee,
	"manager":       Manager,
	"line_manager":  Manager,
	"مدير":          Manager,
	"supervisor":    Supervisor,
	"مشرف":          Supervisor,
	"hr":            HR,
	"human_resources": HR,
	"الموارد البشرية": HR,
	"finance":       Finance,
	"accounting":    Finance,
	"المالية":       Finance,
	"it_support":    ITSupport,
	"it":            ITSupport,
	"helpdesk":      ITSupport,
	"system_admin":  SystemAdmin,
	"admin":         SystemAdmin,
	"administrator": SystemAdmin,
	"مسؤول النظام":  SystemAdmin,
}

// Normalize maps a raw role string to its canonical Role. Unknown strings are
// reported, not guessed.
func Normalize(raw string) (Role, bool) {
	r, ok := legacyAliases[strings.ToLower(strings.TrimSpace(raw))]
	return r, ok
}

// NormalizeAll maps a list of raw role strings, silently dropping unknowns.
func NormalizeAll(raw []string) []Role {
	out := make([]Role, 0, len(raw))
	seen := make(map[Role]bool, len(raw))
	for _, s := range raw {
		r, ok := Normalize(s)
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// Contains reports whether set includes role
func Contains(set []Role, role Role) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

// Intersects reports whether the two sets share at least one role
func Intersects(a, b []Role) bool {
	for _, r := range a {
		if Contains(b, r) {
			return true
		}
	}
	return false
}
