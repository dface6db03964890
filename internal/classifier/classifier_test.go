package classifier

import (
	"context"
	"testing"

	"maildesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	response string
	err      error
	lastUser string
}

func (f *fakeChat) ChatJSON(_ context.Context, _, user string, _ int) (string, error) {
	f.lastUser = user
	return f.response, f.err
}

func TestClassify_Success(t *testing.T) {
	chat := &fakeChat{response: `{"department": "Sales", "priority": "HIGH"}`}
	c := New(chat, []string{"Sales", "Support", "Other"}, zerolog.Nop())

	cls, err := c.Classify(context.Background(), "Bulk order", "I want 500 units")

	require.NoError(t, err)
	assert.Equal(t, "Sales", cls.Department)
	assert.Equal(t, models.PriorityHigh, cls.Priority)
	assert.Contains(t, chat.lastUser, "Sales, Support, Other")
	assert.Contains(t, chat.lastUser, "Bulk order")
}

func TestClassify_CallFailure(t *testing.T) {
	chat := &fakeChat{err: assert.AnError}
	c := New(chat, []string{"Other"}, zerolog.Nop())

	_, err := c.Classify(context.Background(), "s", "b")
	assert.Error(t, err)
}

func TestClassify_MalformedJSON(t *testing.T) {
	chat := &fakeChat{response: "the department is probably Sales"}
	c := New(chat, []string{"Other"}, zerolog.Nop())

	_, err := c.Classify(context.Background(), "s", "b")
	assert.Error(t, err)
}

func TestClassify_MissingDepartment(t *testing.T) {
	chat := &fakeChat{response: `{"priority": "LOW"}`}
	c := New(chat, []string{"Other"}, zerolog.Nop())

	_, err := c.Classify(context.Background(), "s", "b")
	assert.Error(t, err)
}

func TestParseClassification_PriorityNormalization(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{"uppercase high", `{"department":"HR","priority":"HIGH"}`, models.PriorityHigh},
		{"lowercase high", `{"department":"HR","priority":"high"}`, models.PriorityHigh},
		{"urgent alias", `{"department":"HR","priority":"URGENT"}`, models.PriorityHigh},
		{"critical alias", `{"department":"HR","priority":"critical"}`, models.PriorityHigh},
		{"low", `{"department":"HR","priority":"low"}`, models.PriorityLow},
		{"medium", `{"department":"HR","priority":"MEDIUM"}`, models.PriorityMedium},
		{"unknown becomes medium", `{"department":"HR","priority":"whenever"}`, models.PriorityMedium},
		{"missing becomes medium", `{"department":"HR"}`, models.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls, err := parseClassification(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cls.Priority)
		})
	}
}

func TestParseClassification_TrimsWhitespace(t *testing.T) {
	cls, err := parseClassification("  {\"department\": \" Finance \", \"priority\": \"LOW\"}\n")
	require.NoError(t, err)
	assert.Equal(t, "Finance", cls.Department)
}
