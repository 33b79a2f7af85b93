package endpoint

import (
	"errors"
	"net/http"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	for input, expected := range map[string]Method{
		"":       MethodGet,
		"get":    MethodGet,
		"Post":   MethodPost,
		" PUT ":  MethodPut,
		"patch":  MethodPatch,
		"DELETE": MethodDelete,
	} {
		m, err := ParseMethod(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, m)
	}

	_, err := ParseMethod("options")
	var ume UnsupportedMethodError
	require.ErrorAs(t, err, &ume)
	assert.Equal(t, "options", ume.Method)
}

func TestMethodLower(t *testing.T) {
	assert.Equal(t, "delete", MethodDelete.Lower())
}

func TestResponseDescribe(t *testing.T) {
	r := Response{
		URL:           "https://dev.example/health",
		Status:        404,
		Headers:       http.Header{"Sec-Id": []string{"abc"}},
		Body:          ldvalue.ObjectBuild().Set("message", ldvalue.String("not found")).Build(),
		TransactionID: "tx1",
	}
	assert.Equal(t, "Test Failed!\nStatus Code: 404\nURL: https://dev.example/health\nsec-id: abc\nx-txid: tx1\n"+
		`Data: {"message":"not found"}`, r.Describe("Test Failed!"))

	failed := Response{Status: ServerErrorStatus, Error: TransportError{Method: MethodGet, URL: "u", Err: errors.New("boom")}}
	assert.True(t, failed.Failed())
	assert.Contains(t, failed.Describe(""), "Error Message:\nStatus Code: 555")
	assert.Contains(t, failed.Describe(""), "Error: GET u failed: boom")
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("cause")
	assert.ErrorIs(t, TemplateResolutionError{Template: "/x/{y}", Err: cause}, cause)
	assert.ErrorIs(t, TransportError{Err: cause}, cause)
}

func TestRefString(t *testing.T) {
	assert.Equal(t, "company_tasks_svc.healthCheck", Ref{"company_tasks_svc", "healthCheck"}.String())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "12345", FormatValue(float64(12345)))
	assert.Equal(t, "1.5", FormatValue(1.5))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "abc", FormatValue("abc"))
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "7", FormatValue(7))
}
