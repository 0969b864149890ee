package design

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomdesign/internal/domain"
	"roomdesign/internal/providers/genai"
)

type fakeGenerator struct {
	mu       sync.Mutex
	requests []capturedRequest
	respond  func(model string, req genai.Request) (*genai.Response, error)
}

type capturedRequest struct {
	model string
	req   genai.Request
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, req genai.Request) (*genai.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, capturedRequest{model: model, req: req})
	f.mu.Unlock()
	return f.respond(model, req)
}

func (f *fakeGenerator) calls() []capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedRequest(nil), f.requests...)
}

func imageResponse(data string) *genai.Response {
	return &genai.Response{Candidates: []genai.Candidate{{Content: genai.Content{Parts: []genai.Part{
		{InlineData: &genai.InlineData{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString([]byte(data))}},
	}}}}}
}

func textResponse(text string) *genai.Response {
	return &genai.Response{Candidates: []genai.Candidate{{Content: genai.Content{Parts: []genai.Part{{Text: text}}}}}}
}

func promptText(req genai.Request) string {
	var b strings.Builder
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

var room = domain.RoomImage{Data: []byte("room"), MIMEType: "image/jpeg"}

const fourAdvice = `{"advice":[
 {"title":"Layer your lamps","description":"Add a floor lamp by the sofa.","principleSource":"The Lighting Handbook (Illuminating Engineering Society)"},
 {"title":"Warm bulbs","description":"Swap to 2700K bulbs.","principleSource":"The Little Book of Hygge (Meik Wiking)"},
 {"title":"Mirror the window","description":"Hang a mirror opposite the window.","principleSource":"A Pattern Language (Christopher Alexander)"},
 {"title":"Accent the art","description":"Use a picture light on the painting.","principleSource":"Interior Design Illustrated (Francis D.K. Ching)"}
]}`

func TestDeclutterReturnsEditedImage(t *testing.T) {
	gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
		return imageResponse("clean"), nil
	}}
	svc := NewService(Options{Client: gen, ImageModel: "image-model"})

	out, err := svc.Declutter(context.Background(), room)
	require.NoError(t, err)
	assert.Equal(t, "clean", string(out.Data))
	assert.Equal(t, "image/png", out.MIMEType)

	calls := gen.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "image-model", calls[0].model)
	assert.Contains(t, promptText(calls[0].req), "remove loose clutter")
	assert.Equal(t, []string{genai.ModalityImage, genai.ModalityText}, calls[0].req.GenerationConfig.ResponseModalities)
	parts := calls[0].req.Contents[0].Parts
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/jpeg", parts[0].InlineData.MimeType)
}

func TestDeclutterWithoutImagePartFails(t *testing.T) {
	gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
		return textResponse("I cannot edit this image"), nil
	}}
	svc := NewService(Options{Client: gen})

	_, err := svc.Declutter(context.Background(), room)
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.ErrorIs(t, err, errNoImagePart)
}

func TestDeclutterMissingKeyIsConfigurationError(t *testing.T) {
	gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
		return nil, genai.ErrMissingAPIKey
	}}
	svc := NewService(Options{Client: gen})

	_, err := svc.Declutter(context.Background(), room)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.NotErrorIs(t, err, domain.ErrGeneration)
}

func TestDeclutterRequiresImage(t *testing.T) {
	svc := NewService(Options{Client: &fakeGenerator{}})

	_, err := svc.Declutter(context.Background(), domain.RoomImage{})
	assert.ErrorIs(t, err, domain.ErrNoImage)
}

func TestAnalyzeParsesFourRecommendations(t *testing.T) {
	gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
		return textResponse(fourAdvice), nil
	}}
	svc := NewService(Options{Client: gen, TextModel: "text-model"})

	advice, err := svc.Analyze(context.Background(), room, domain.CategoryLighting, "en")
	require.NoError(t, err)
	require.Len(t, advice, 4)
	for _, a := range advice {
		assert.NotEmpty(t, a.Title)
		assert.NotEmpty(t, a.Description)
		assert.NotEmpty(t, a.PrincipleSource)
	}

	calls := gen.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "text-model", calls[0].model)
	req := calls[0].req
	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
	require.NotNil(t, req.GenerationConfig.ResponseSchema)
	assert.Contains(t, req.GenerationConfig.ResponseSchema.Properties, "advice")
	require.NotNil(t, req.SystemInstruction)
	for _, src := range ReferenceSources {
		assert.Contains(t, req.SystemInstruction.Parts[0].Text, src)
	}
	prompt := promptText(req)
	assert.Contains(t, prompt, "Lighting")
	assert.Contains(t, prompt, "exactly 4")
	assert.NotContains(t, prompt, "Write every title")
}

func TestAnalyzeRequestsLocalizedAdvice(t *testing.T) {
	gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
		return textResponse(fourAdvice), nil
	}}
	svc := NewService(Options{Client: gen})

	_, err := svc.Analyze(context.Background(), room, domain.CategoryColorPalette, "es")
	require.NoError(t, err)
	prompt := promptText(gen.calls()[0].req)
	assert.Contains(t, prompt, "Color Palette")
	assert.Contains(t, prompt, "Spanish")
}

func TestAnalyzeDegradesToEmptyList(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.Response
	}{
		{name: "malformed json", resp: textResponse(`{"advice": [ {"title": "x"`)},
		{name: "missing advice field", resp: textResponse(`{"recommendations": []}`)},
		{name: "no text part", resp: &genai.Response{}},
		{name: "prose", resp: textResponse("Sorry, I cannot help with that.")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
				return tc.resp, nil
			}}
			svc := NewService(Options{Client: gen})

			advice, err := svc.Analyze(context.Background(), room, domain.CategoryLayoutFlow, "")
			require.NoError(t, err)
			assert.NotNil(t, advice)
			assert.Empty(t, advice)
		})
	}
}

func TestAnalyzeRemoteFailure(t *testing.T) {
	gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
		return nil, &genai.StatusError{Code: 503, Message: "overloaded"}
	}}
	svc := NewService(Options{Client: gen})

	_, err := svc.Analyze(context.Background(), room, domain.CategoryLighting, "")
	assert.ErrorIs(t, err, domain.ErrGeneration)
	var statusErr *genai.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestAnalyzeRejectsUnknownCategory(t *testing.T) {
	svc := NewService(Options{Client: &fakeGenerator{}})

	_, err := svc.Analyze(context.Background(), room, domain.DesignCategory("plumbing"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestVisualizeDropsFailedVariationAndKeepsOrder(t *testing.T) {
	variations := Variations(domain.CategoryTexturesFabrics, 4)
	failing := variations[1].Title
	gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
		prompt := promptText(req)
		if strings.Contains(prompt, failing) {
			return nil, errors.New("boom")
		}
		for _, v := range variations {
			if strings.Contains(prompt, v.Title) {
				return imageResponse(v.Title), nil
			}
		}
		return nil, errors.New("unexpected prompt")
	}}
	svc := NewService(Options{Client: gen})

	out, err := svc.Visualize(context.Background(), room, domain.CategoryTexturesFabrics, 4)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Len(t, gen.calls(), 4)

	want := []string{variations[0].Title, variations[2].Title, variations[3].Title}
	for i, viz := range out {
		assert.Equal(t, want[i], viz.Title)
		assert.Equal(t, want[i], string(viz.Image.Data))
	}
}

func TestVisualizeDropsImagelessVariation(t *testing.T) {
	gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
		if strings.Contains(promptText(req), "Scandinavian") {
			return textResponse("no image"), nil
		}
		return imageResponse("ok"), nil
	}}
	svc := NewService(Options{Client: gen})

	out, err := svc.Visualize(context.Background(), room, domain.CategoryDecorStyling, 4)
	require.NoError(t, err)
	assert.Len(t, out, 3)
	for _, viz := range out {
		assert.NotEqual(t, "Scandinavian", viz.Title)
	}
}

func TestVisualizeAllFailed(t *testing.T) {
	gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
		return nil, errors.New("boom")
	}}
	svc := NewService(Options{Client: gen})

	out, err := svc.Visualize(context.Background(), room, domain.CategoryLighting, 4)
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.Nil(t, out)
}

func TestVisualizeZeroCount(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewService(Options{Client: gen})

	out, err := svc.Visualize(context.Background(), room, domain.CategoryLighting, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, gen.calls())
}

func TestVisualizePromptCarriesStructureInstruction(t *testing.T) {
	gen := &fakeGenerator{respond: func(model string, req genai.Request) (*genai.Response, error) {
		return imageResponse("ok"), nil
	}}
	svc := NewService(Options{Client: gen, ImageModel: "image-model"})

	_, err := svc.Visualize(context.Background(), room, domain.CategoryLighting, 1)
	require.NoError(t, err)
	calls := gen.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "image-model", calls[0].model)
	prompt := promptText(calls[0].req)
	assert.Contains(t, prompt, "Layered lighting")
	assert.Contains(t, prompt, "photorealistic")
}
