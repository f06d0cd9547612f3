package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_CanonicalAndAliases(t *testing.T) {
	cases := map[string]Role{
		"manager":       Manager,
		"Line_Manager":  Manager,
		"  ADMIN ":      SystemAdmin,
		"مدير":          Manager,
		"موظف":          Employee,
		"human_resources": HR,
		"helpdesk":      ITSupport,
	}
	for raw, want := range cases {
		got, ok := Normalize(raw)
		assert.True(t, ok, "expected %q to normalize", raw)
		assert.Equal(t, want, got)
	}
}

func TestNormalize_Unknown(t *testing.T) {
	_, ok := Normalize("wizard")
	assert.False(t, ok)
}

func TestNormalizeAll_DropsUnknownsAndDuplicates(t *testing.T) {
	got := NormalizeAll([]string{"manager", "line_manager", "wizard", "hr"})
	assert.Equal(t, []Role{Manager, HR}, got)
}

func TestIntersects(t *testing.T) {
	assert.True(t, Intersects([]Role{Employee, HR}, []Role{HR}))
	assert.False(t, Intersects([]Role{Employee}, []Role{Finance}))
	assert.False(t, Intersects(nil, []Role{Finance}))
}
