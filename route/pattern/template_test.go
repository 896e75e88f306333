package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"www.velocidex.com/golang/vroute/events"
	"www.velocidex.com/golang/vroute/route"
)

func TestTemplateExpand(t *testing.T) {
	template, err := NewTemplate("logs/${ctx(tenant)}/${ctx(job,none)}.json")
	assert.NoError(t, err)

	assert.Equal(t, []string{"job", "tenant"}, template.ContextNames())

	event := events.NewEvent("info", "hello").
		WithContext("tenant", "acme").
		WithContext("job", "j1")

	expanded, err := template.Expand(event)
	assert.NoError(t, err)
	assert.Equal(t, "logs/acme/j1.json", expanded)

	// Defaults cover missing values.
	expanded, err = template.Expand(
		events.NewEvent("info", "x").WithContext("tenant", "acme"))
	assert.NoError(t, err)
	assert.Equal(t, "logs/acme/none.json", expanded)

	// A placeholder without a default fails on a missing value.
	_, err = template.Expand(events.NewEvent("info", "x"))
	assert.ErrorIs(t, err, route.ErrMissingValue)
	assert.Contains(t, err.Error(), "tenant")
}

func TestTemplateExpandPath(t *testing.T) {
	template, err := NewTemplate("${ctx(tenant)}/events.json")
	assert.NoError(t, err)

	// Substituted values can not introduce separators or traversal.
	event := events.NewEvent("info", "x").WithContext("tenant", "../../etc")
	expanded, err := template.ExpandPath(event)
	assert.NoError(t, err)
	assert.Equal(t, "%2E%2E%2F..%2Fetc/events.json", expanded)

	// Literal template text is trusted and keeps its separators.
	event = events.NewEvent("info", "x").WithContext("tenant", "acme")
	expanded, err = template.ExpandPath(event)
	assert.NoError(t, err)
	assert.Equal(t, "acme/events.json", expanded)

	// Defaults come from the config, not the event, so they keep
	// separators too.
	template, err = NewTemplate("${ctx(tenant,shared/common)}/events.json")
	assert.NoError(t, err)

	expanded, err = template.ExpandPath(events.NewEvent("info", "x"))
	assert.NoError(t, err)
	assert.Equal(t, "shared/common/events.json", expanded)
}

func TestTemplateErrors(t *testing.T) {
	for _, testcase := range []struct {
		pattern  string
		expected string
	}{
		{"${time(a)}", "Unsupported placeholder"},
		{"${ctx(a,b,c)}", "expects 1 or 2 arguments"},
		{"${ctx()}", "empty name"},
	} {
		_, err := NewTemplate(testcase.pattern)
		assert.Error(t, err, testcase.pattern)
		assert.Contains(t, err.Error(), testcase.expected)
	}
}
