package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finlit/finlit-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type incomeRequest struct {
	MonthlyIncome string `json:"monthly_income" validate:"required,money"`
	Difficulty    string `json:"difficulty" validate:"omitempty,difficulty"`
}

func newBodyRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantBody   bool
		wantFields []string
	}{
		{name: "valid", body: `{"monthly_income": "1500.00", "difficulty": "B"}`},
		{name: "malformed json", body: `{"monthly_income": `, wantBody: true},
		{name: "wrong type", body: `{"monthly_income": 1500}`, wantBody: true},
		{name: "missing income", body: `{}`, wantFields: []string{"monthly_income"}},
		{
			name:       "bad values",
			body:       `{"monthly_income": "lots", "difficulty": "Z"}`,
			wantFields: []string{"monthly_income", "difficulty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req incomeRequest
			err := DecodeAndValidate(httptest.NewRecorder(), newBodyRequest(tt.body), &req)

			switch {
			case tt.wantBody:
				assert.ErrorIs(t, err, ErrInvalidBody)
			case len(tt.wantFields) > 0:
				require.ErrorIs(t, err, domain.ErrValidation)
				errs, ok := domain.AsValidationErrors(err)
				require.True(t, ok)
				for _, f := range tt.wantFields {
					assert.Contains(t, errs.Fields(), f)
				}
			default:
				require.NoError(t, err)
				assert.Equal(t, "1500.00", req.MonthlyIncome)
			}
		})
	}
}

func TestReadBodyLimit(t *testing.T) {
	big := `"` + strings.Repeat("x", MaxBodyBytes) + `"`
	_, err := ReadBody(httptest.NewRecorder(), newBodyRequest(big))
	assert.ErrorIs(t, err, ErrInvalidBody)

	raw, err := ReadBody(httptest.NewRecorder(), newBodyRequest(`[1, 2]`))
	require.NoError(t, err)
	assert.Equal(t, `[1, 2]`, string(raw))
}
