package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateBool_FormDataComparison(t *testing.T) {
	e := NewEngine()

	env := map[string]interface{}{
		"form": map[string]interface{}{
			"amount":     7500.0,
			"department": "finance",
		},
	}

	ok, err := e.EvaluateBool(`form.amount > 5000`, env)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.EvaluateBool(`form.department in ["hr", "finance"]`, env)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.EvaluateBool(`form.amount > 10000`, env)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateBool_NonBooleanResult(t *testing.T) {
	e := NewEngine()

	_, err := e.EvaluateBool(`1 + 1`, map[string]interface{}{})
	assert.Error(t, err)
}

func TestEvaluateBool_UndefinedVariableIsNil(t *testing.T) {
	e := NewEngine()

	// Missing form fields compare as nil rather than failing compilation
	ok, err := e.EvaluateBool(`form.missing == nil`, map[string]interface{}{
		"form": map[string]interface{}{},
	})
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestValidate(t *testing.T) {
	e := NewEngine()

	assert.NoError(t, e.Validate(`form.amount > 100`))
	assert.Error(t, e.Validate(`form.amount >`))
}

func TestProgramCacheReuse(t *testing.T) {
	e := NewEngine()

	env := map[string]interface{}{"form": map[string]interface{}{"x": 1}}
	for i := 0; i < 3; i++ {
		ok, err := e.EvaluateBool(`form.x == 1`, env)
		assert.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Len(t, e.programCache, 1)
}
