package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
)

// MockNutritionService is a mock implementation of the inbound port
type MockNutritionService struct {
	mock.Mock
}

func (m *MockNutritionService) Analyze(ctx context.Context, query string) (*nutrition.Analysis, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nutrition.Analysis), args.Error(1)
}

type NutritionAPITestSuite struct {
	suite.Suite
	service  *MockNutritionService
	handlers *NutritionAPIHandlers
}

func (s *NutritionAPITestSuite) SetupTest() {
	s.service = &MockNutritionService{}
	s.handlers = NewNutritionAPIHandlers(s.service, zap.NewNop())
}

func (s *NutritionAPITestSuite) TearDownTest() {
	s.service.AssertExpectations(s.T())
}

func (s *NutritionAPITestSuite) get(target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()

	s.handlers.Analyze(rec, req)

	var body map[string]interface{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func (s *NutritionAPITestSuite) TestMissingQuery() {
	for _, target := range []string{"/api/nutrition", "/api/nutrition?q=", "/api/nutrition?q=%20%20"} {
		rec, body := s.get(target)

		s.Equal(http.StatusBadRequest, rec.Code, target)
		s.Equal("Missing ?q parameter", body["error"])
		s.Equal("MISSING_PARAMETER", body["code"])
	}
	s.service.AssertNotCalled(s.T(), "Analyze", mock.Anything, mock.Anything)
}

func (s *NutritionAPITestSuite) TestSuccess() {
	analysis := nutrition.NewAnalysis([]nutrition.Record{{
		FoodName:     "Dosa",
		ServingSize:  "2 pieces",
		CaloriesKcal: 266.6,
		ProteinG:     5.4,
		CarbsG:       37.8,
		FatG:         10.4,
	}})
	analysis.Recommendations = []string{"Add a bowl of sambar"}
	s.service.On("Analyze", mock.Anything, "2 dosa").Return(analysis, nil).Once()

	rec, body := s.get("/api/nutrition?q=+2+dosa+")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Header().Get("Content-Type"), "application/json")
	s.Equal(float64(267), body["total_calories_kcal"])
	items := body["items"].([]interface{})
	s.Require().Len(items, 1)
	item := items[0].(map[string]interface{})
	s.Equal("Dosa", item["food_name"])
	s.Equal("2 pieces", item["serving_size"])
	s.Equal(266.6, item["calories_kcal"])
	s.Equal([]interface{}{"Add a bowl of sambar"}, body["recommendations"])
	s.Contains(body, "totals")
}

func (s *NutritionAPITestSuite) TestEmptyAnalysisSerializesEmptyArrays() {
	s.service.On("Analyze", mock.Anything, ",,").Return(nutrition.NewAnalysis(nil), nil).Once()

	rec, _ := s.get("/api/nutrition?q=,,")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{
		"items": [],
		"total_calories_kcal": 0,
		"totals": {"calories_kcal": 0, "protein_g": 0, "carbs_g": 0, "fat_g": 0},
		"recommendations": []
	}`, rec.Body.String())
}

func (s *NutritionAPITestSuite) TestUpstreamErrors() {
	tests := []struct {
		name  string
		err   error
		code  string
		error string
	}{
		{
			name:  "unavailable",
			err:   apperrors.NewUpstreamUnavailableError("openai", 503, nil),
			code:  "UPSTREAM_UNAVAILABLE",
			error: "Nutrition service unavailable",
		},
		{
			name:  "invalid food",
			err:   apperrors.NewInvalidFoodError("brick", "Not a food item"),
			code:  "INVALID_FOOD",
			error: "Not a food item",
		},
		{
			name:  "plain error",
			err:   errors.New("boom"),
			code:  "INTERNAL_ERROR",
			error: "Nutrition analysis failed",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.service.On("Analyze", mock.Anything, "brick").Return(nil, tt.err).Once()

			rec, body := s.get("/api/nutrition?q=brick")

			s.Equal(http.StatusInternalServerError, rec.Code)
			s.Equal(tt.code, body["code"])
			s.Equal(tt.error, body["error"])
		})
	}
}

func TestNutritionAPITestSuite(t *testing.T) {
	suite.Run(t, new(NutritionAPITestSuite))
}
