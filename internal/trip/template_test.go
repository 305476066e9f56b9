package trip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateTextScalars(t *testing.T) {
	ec := EvalContext{}
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"true", true, "Yes"},
		{"false", false, "No"},
		{"integral float", float64(3), "3"},
		{"fractional float", float64(2.5), "2.5"},
		{"plain string", "hello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TemplateText(ec, tt.in, time.UTC))
		})
	}
}

func TestTemplateTextInterpolation(t *testing.T) {
	ec := EvalContext{
		"name":  "Ada",
		"count": float64(3),
		"Guide": map[string]any{"email": "g@example.com"},
	}
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple ref", "Hi {{ name }}!", "Hi Ada!"},
		{"number ref", "You have {{ count }}.", "You have 3."},
		{"nested ref", "Mail {{ Guide.email }}", "Mail g@example.com"},
		{"missing ref", "Got {{ nope }}", "Got "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TemplateText(ec, tt.in, time.UTC))
		})
	}
}

func TestTemplateTextIfBlocks(t *testing.T) {
	ec := EvalContext{"vip": true, "late": false}
	assert.Equal(t, "Welcome back!",
		TemplateText(ec, "Welcome{% if vip %} back{% endif %}!", time.UTC))
	assert.Equal(t, "on time",
		TemplateText(ec, "{% if late %}late{% else %}on time{% endif %}", time.UTC))
}

func TestTemplateTextTimestamp(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "7:30am", TemplateText(EvalContext{}, "2022-03-01T12:30:00Z", loc))
	assert.Equal(t, "12:30pm", TemplateText(EvalContext{}, "2022-03-01T12:30:00Z", nil))
}

func TestTemplateTextPhoneNumber(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", TemplateText(EvalContext{}, "5551234567", time.UTC))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "4", FormatNumber(4))
	assert.Equal(t, "4.25", FormatNumber(4.25))
	assert.Equal(t, "-3", FormatNumber(-3))
}

func TestFold(t *testing.T) {
	assert.Equal(t, Fold("Straße"), Fold("STRASSE"))
	assert.Equal(t, Fold("Hello"), Fold("hELLO"))
}
