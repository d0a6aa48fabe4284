package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/inference"
)

// maxPredictBody bounds the request body of POST /v1/predict.
const maxPredictBody = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// observationRequest is one live observation. Optional fields take the
// predictor defaults when omitted.
type observationRequest struct {
	City          string   `json:"city" validate:"max=100"`
	TempMax       *float64 `json:"temp_max" validate:"required,gte=-90,lte=60"`
	TempMin       *float64 `json:"temp_min" validate:"omitempty,gte=-90,lte=60"`
	HumidityMax   *float64 `json:"humidity_max" validate:"required,gte=0,lte=100"`
	HumidityMin   *float64 `json:"humidity_min" validate:"omitempty,gte=0,lte=100"`
	WindSpeed     *float64 `json:"wind_speed" validate:"required,gte=0"`
	Precipitation *float64 `json:"precipitation" validate:"omitempty,gte=0"`
	PM25          *float64 `json:"pm25" validate:"required,gte=0"`
	PM10          *float64 `json:"pm10" validate:"required,gte=0"`
	NO2           *float64 `json:"no2" validate:"required,gte=0"`
	SO2           *float64 `json:"so2" validate:"required,gte=0"`
	O3            *float64 `json:"o3" validate:"required,gte=0"`
	CO            *float64 `json:"co" validate:"required,gte=0"`
}

type predictRequest struct {
	Observations []observationRequest `json:"observations" validate:"required,min=1,max=1000,dive"`
}

func (o observationRequest) input() inference.Input {
	return inference.Input{
		City: o.City,
		Features: domain.FeatureInput{
			TempMax:       *o.TempMax,
			TempMin:       o.TempMin,
			HumidityMax:   *o.HumidityMax,
			HumidityMin:   o.HumidityMin,
			WindSpeed:     *o.WindSpeed,
			Precipitation: o.Precipitation,
			PM25:          *o.PM25,
			PM10:          *o.PM10,
			NO2:           *o.NO2,
			SO2:           *o.SO2,
			O3:            *o.O3,
			CO:            *o.CO,
		},
	}
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if s.predictor == nil {
		writeError(w, http.StatusServiceUnavailable, "models not loaded")
		return
	}

	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	inputs := make([]inference.Input, len(req.Observations))
	for i, o := range req.Observations {
		inputs[i] = o.input()
	}
	preds, err := s.predictor.Predict(inputs)
	if err != nil {
		s.logger.Error("prediction failed", "error", err, "observations", len(inputs))
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": preds})
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}
	return "invalid request: " + strings.Join(parts, "; ")
}
