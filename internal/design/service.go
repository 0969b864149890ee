package design

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"roomdesign/internal/domain"
	"roomdesign/internal/infra"
	"roomdesign/internal/metrics"
	"roomdesign/internal/providers/genai"
)

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "gemini-2.5-flash-image"

	opDeclutter = "declutter"
	opAnalyze   = "analyze"
	opVisualize = "visualize"
)

var errNoImagePart = errors.New("response contained no image part")

// ContentGenerator is the remote model contract. *genai.Client satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, req genai.Request) (*genai.Response, error)
}

// Options configures the Service.
type Options struct {
	Client     ContentGenerator
	TextModel  string
	ImageModel string
	Logger     *infra.Logger
}

// Service adapts the declutter, analyze and visualize operations onto the
// remote generative model. It holds no state between calls.
type Service struct {
	client     ContentGenerator
	textModel  string
	imageModel string
	logger     *infra.Logger
}

// NewService constructs a Service with default models when none are given.
func NewService(opts Options) *Service {
	textModel := opts.TextModel
	if textModel == "" {
		textModel = defaultTextModel
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Service{
		client:     opts.Client,
		textModel:  textModel,
		imageModel: imageModel,
		logger:     logger,
	}
}

// Declutter returns a copy of img with loose clutter removed.
func (s *Service) Declutter(ctx context.Context, img domain.RoomImage) (domain.RoomImage, error) {
	if img.IsZero() {
		return domain.RoomImage{}, fmt.Errorf("%s: %w", opDeclutter, domain.ErrNoImage)
	}
	start := time.Now()
	out, err := s.editImage(ctx, img, DeclutterPrompt)
	if err != nil {
		metrics.ObserveModelCall(opDeclutter, metrics.OutcomeError, time.Since(start))
		return domain.RoomImage{}, wrapRemote(opDeclutter, err)
	}
	metrics.ObserveModelCall(opDeclutter, metrics.OutcomeSuccess, time.Since(start))
	return out, nil
}

// Analyze asks for AdviceCount cited recommendations about category. An
// unparseable or empty structured response yields an empty list and no error;
// only transport and upstream failures are errors.
func (s *Service) Analyze(ctx context.Context, img domain.RoomImage, category domain.DesignCategory, locale string) ([]domain.DesignAdvice, error) {
	if img.IsZero() {
		return nil, fmt.Errorf("%s: %w", opAnalyze, domain.ErrNoImage)
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%s: %w: %q", opAnalyze, domain.ErrInvalidCategory, category)
	}

	req := genai.Request{
		SystemInstruction: &genai.Content{Parts: []genai.Part{genai.TextPart(analysisSystemInstruction())}},
		Contents: []genai.Content{genai.UserContent(
			genai.ImagePart(img.MIMEType, img.Data),
			genai.TextPart(analysisPrompt(category, locale)),
		)},
		GenerationConfig: &genai.GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   adviceSchema(),
		},
	}

	start := time.Now()
	resp, err := s.client.GenerateContent(ctx, s.textModel, req)
	if err != nil {
		metrics.ObserveModelCall(opAnalyze, metrics.OutcomeError, time.Since(start))
		return nil, wrapRemote(opAnalyze, err)
	}

	advice, err := parseAdvice(resp.Text())
	if err != nil {
		metrics.ObserveModelCall(opAnalyze, metrics.OutcomeEmpty, time.Since(start))
		metrics.AdviceParseFailed()
		s.logger.Warn().
			Err(err).
			Str("category", string(category)).
			Str("block_reason", resp.BlockReason()).
			Msg("design: analysis response unparseable; returning no advice")
		return []domain.DesignAdvice{}, nil
	}
	metrics.ObserveModelCall(opAnalyze, metrics.OutcomeSuccess, time.Since(start))
	if len(advice) != AdviceCount {
		s.logger.Debug().
			Int("advice", len(advice)).
			Str("category", string(category)).
			Msg("design: analysis returned an unexpected number of recommendations")
	}
	return advice, nil
}

// Visualize renders count variations of img concurrently. Variations that fail
// or return no image are logged and dropped; the survivors keep the variation
// order. When every variation fails the batch is reported as ErrGeneration so
// the run can show a visualization error instead of an empty gallery.
func (s *Service) Visualize(ctx context.Context, img domain.RoomImage, category domain.DesignCategory, count int) ([]domain.Visualization, error) {
	if img.IsZero() {
		return nil, fmt.Errorf("%s: %w", opVisualize, domain.ErrNoImage)
	}
	variations := Variations(category, count)
	if len(variations) == 0 {
		return []domain.Visualization{}, nil
	}

	results := make([]*domain.Visualization, len(variations))
	errs := make([]error, len(variations))

	var g errgroup.Group
	for i, v := range variations {
		g.Go(func() error {
			start := time.Now()
			out, err := s.editImage(ctx, img, visualizationPrompt(category, v))
			if err != nil {
				metrics.ObserveModelCall(opVisualize, metrics.OutcomeError, time.Since(start))
				metrics.VisualizationDropped()
				s.logger.Warn().
					Err(err).
					Int("variation", i).
					Str("title", v.Title).
					Str("category", string(category)).
					Msg("design: visualization variation dropped")
				errs[i] = err
				return nil
			}
			metrics.ObserveModelCall(opVisualize, metrics.OutcomeSuccess, time.Since(start))
			results[i] = &domain.Visualization{Title: v.Title, Image: out}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Visualization, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	if len(out) == 0 {
		return nil, wrapRemote(opVisualize, errors.Join(errs...))
	}
	return out, nil
}

func (s *Service) editImage(ctx context.Context, img domain.RoomImage, prompt string) (domain.RoomImage, error) {
	resp, err := s.client.GenerateContent(ctx, s.imageModel, genai.Request{
		Contents: []genai.Content{genai.UserContent(
			genai.ImagePart(img.MIMEType, img.Data),
			genai.TextPart(prompt),
		)},
		GenerationConfig: &genai.GenerationConfig{
			ResponseModalities: []string{genai.ModalityImage, genai.ModalityText},
		},
	})
	if err != nil {
		return domain.RoomImage{}, err
	}
	data, mime, ok, err := resp.FirstImage()
	if err != nil {
		return domain.RoomImage{}, err
	}
	if !ok {
		if reason := resp.BlockReason(); reason != "" {
			return domain.RoomImage{}, fmt.Errorf("%w (%s)", errNoImagePart, reason)
		}
		return domain.RoomImage{}, errNoImagePart
	}
	return domain.RoomImage{Data: data, MIMEType: mime}, nil
}

func wrapRemote(op string, err error) error {
	if errors.Is(err, genai.ErrMissingAPIKey) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConfiguration, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrGeneration, err)
}
