package app

import (
	"math"
	"sync"

	"depositscope/adapters/regressors"
	"depositscope/domain/banking"
	"depositscope/domain/model"
	"depositscope/internal/artifact"
	"depositscope/internal/errors"
	"depositscope/internal/pipeline"
)

// PredictionInput is one what-if scenario from the dashboard form.
type PredictionInput struct {
	Offices         int64  `json:"offices"`
	Accounts        int64  `json:"accounts"`
	PopulationGroup string `json:"population_group"`
	Region          string `json:"region"`
	State           string `json:"state"`
	District        string `json:"district"`
}

// Prediction is the scored scenario with its context figures. The bounds
// span 1.96 test RMSE either side of the point estimate, floored at zero
// because deposits cannot go negative.
type Prediction struct {
	ModelName         string  `json:"model_name"`
	Amount            float64 `json:"predicted_amount"`
	LowerBound        float64 `json:"lower_bound"`
	UpperBound        float64 `json:"upper_bound"`
	DepositPerOffice  float64 `json:"deposit_per_office"`
	DepositPerAccount float64 `json:"deposit_per_account"`
	RatioEstimate     float64 `json:"ratio_estimate"`
	SimilarAverage    float64 `json:"similar_average"`
	VsSimilarPct      float64 `json:"vs_similar_pct"`
	SupportCount      int     `json:"support_count"`
	Confidence        int     `json:"confidence"`
}

// PredictionService scores scenarios against trained models. Predictors
// hydrate lazily from the store on first use and stay cached; the
// service is safe for concurrent handlers.
type PredictionService struct {
	store *artifact.Store

	mu         sync.Mutex
	predictors map[string]loadedModel
}

// loadedModel pairs a hydrated predictor with the held-out RMSE from its
// envelope, which sizes the prediction band.
type loadedModel struct {
	predictor model.Predictor
	rmse      float64
}

// NewPredictionService creates a service over the artifact store.
func NewPredictionService(store *artifact.Store) *PredictionService {
	return &PredictionService{
		store:      store,
		predictors: make(map[string]loadedModel),
	}
}

// Predict scores one scenario with the named model. The encoder rebuilds
// the training-time feature vector, imputing the two deposit-derived
// ratios from the reference table for the scenario's group and region.
func (s *PredictionService) Predict(modelName string, input PredictionInput) (*Prediction, error) {
	predictor, rmse, err := s.predictor(modelName)
	if err != nil {
		return nil, err
	}
	encoder, err := s.store.Encoder()
	if err != nil {
		return nil, err
	}

	vector, ref, err := encoder.EncodeInput(pipeline.InferenceInput{
		Offices:         input.Offices,
		Accounts:        input.Accounts,
		PopulationGroup: input.PopulationGroup,
		Region:          input.Region,
		State:           input.State,
		District:        input.District,
	})
	if err != nil {
		return nil, err
	}

	amount, err := predictor.Predict(encoder.Scale(vector))
	if err != nil {
		return nil, err
	}

	margin := 1.96 * rmse
	p := &Prediction{
		ModelName:     modelName,
		Amount:        amount,
		LowerBound:    math.Max(0, amount-margin),
		UpperBound:    amount + margin,
		RatioEstimate: ratioEstimate(input.Offices, input.Accounts, ref),
	}
	if input.Offices > 0 {
		p.DepositPerOffice = amount / float64(input.Offices)
	}
	if input.Accounts > 0 {
		p.DepositPerAccount = amount / float64(input.Accounts)
	}
	s.attachSimilar(p, input, ref)
	return p, nil
}

// PredictVector scores a raw named feature vector with the named model.
// Values arrive unscaled in training units; the stored scaler is applied
// here. The vector must carry exactly the model's features.
func (s *PredictionService) PredictVector(modelName string, values map[string]float64) (float64, error) {
	predictor, _, err := s.predictor(modelName)
	if err != nil {
		return 0, err
	}
	encoder, err := s.store.Encoder()
	if err != nil {
		return 0, err
	}
	vector, err := encoder.Schema().Vector(values)
	if err != nil {
		return 0, err
	}
	return predictor.Predict(encoder.Scale(vector))
}

// Models lists the trained models available for scoring.
func (s *PredictionService) Models() ([]string, error) {
	return s.store.AvailableModels()
}

// predictor returns the cached predictor and held-out RMSE for a model,
// hydrating both from the saved envelope on first use.
func (s *PredictionService) predictor(name string) (model.Predictor, float64, error) {
	if _, ok := regressors.CategoryOf(name); !ok {
		return nil, 0, errors.UnknownModel(name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.predictors[name]; ok {
		return m.predictor, m.rmse, nil
	}

	saved, err := s.store.Model(name)
	if err != nil {
		return nil, 0, err
	}
	p, err := regressors.New(name, regressors.Params{})
	if err != nil {
		return nil, 0, err
	}
	if err := p.UnmarshalParams(saved.Params); err != nil {
		return nil, 0, errors.ArtifactFormat(name+" model params", err)
	}
	s.predictors[name] = loadedModel{predictor: p, rmse: saved.Metrics.TestRMSE}
	return p, saved.Metrics.TestRMSE, nil
}

// attachSimilar fills the comparison block from records matching the
// scenario's group and region. When the cleaned dataset is absent the
// reference cell's support count stands in and the comparison stays
// zero rather than failing the prediction.
func (s *PredictionService) attachSimilar(p *Prediction, input PredictionInput, ref pipeline.RatioCell) {
	dataset, err := s.store.CleanedData()
	if err != nil {
		p.SupportCount = ref.Records
		p.Confidence = confidenceFor(p.SupportCount)
		return
	}
	similar := banking.Filter{
		PopulationGroup: input.PopulationGroup,
		Region:          input.Region,
	}.Apply(dataset.Records)

	p.SupportCount = len(similar)
	p.Confidence = confidenceFor(p.SupportCount)
	if len(similar) == 0 {
		return
	}
	total := 0.0
	for _, r := range similar {
		total += r.DepositAmount
	}
	p.SimilarAverage = total / float64(len(similar))
	if p.SimilarAverage != 0 {
		p.VsSimilarPct = (p.Amount - p.SimilarAverage) / p.SimilarAverage * 100
	}
}

// ratioEstimate is the historical-ratio heuristic shown beside the model
// score: half the offices-based estimate plus half the accounts-based
// one.
func ratioEstimate(offices, accounts int64, ref pipeline.RatioCell) float64 {
	return float64(offices)*ref.DepositPerOffice*0.5 + float64(accounts)*ref.DepositPerAccount*0.5
}

func confidenceFor(support int) int {
	if support > 10 {
		return 85
	}
	return 70
}
