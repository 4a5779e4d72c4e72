package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsight/features/ingest"
)

// MockVerbalizer implements llm.Verbalizer
type MockVerbalizer struct {
	mock.Mock
}

func (m *MockVerbalizer) VerbalizeTable(ctx context.Context, tableContext string, table [][]string) ([]string, error) {
	args := m.Called(ctx, tableContext, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockVerbalizer) SynthesizeChunks(ctx context.Context, content string) ([]string, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestSynthesizeOrdersBlocks(t *testing.T) {
	doc := ingest.FinancialDocument{
		ID:       "doc-1",
		PreText:  []string{"Revenue grew.", "Margins held."},
		PostText: []string{"See notes."},
		Table:    [][]string{{"Year", "Revenue"}, {"2020", "500"}},
	}

	verbalizer := new(MockVerbalizer)
	verbalizer.On("VerbalizeTable", mock.Anything,
		"Revenue grew.\nMargins held.\nSee notes.", doc.Table).
		Return([]string{"Revenue in 2020 was 500."}, nil)
	verbalizer.On("SynthesizeChunks", mock.Anything,
		"Revenue grew.\nMargins held. Revenue in 2020 was 500. See notes.").
		Return([]string{"chunk one", "chunk two"}, nil)

	synth := ingest.NewSynthesizer(verbalizer)
	chunks, err := synth.Synthesize(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, []string{"chunk one", "chunk two"}, chunks)
	verbalizer.AssertExpectations(t)
}

func TestSynthesizeFallsBackToRawTable(t *testing.T) {
	doc := ingest.FinancialDocument{
		ID:    "doc-1",
		Table: [][]string{{"Year", "Revenue"}, {"2020", "500"}, {"2021", "600"}},
	}

	verbalizer := new(MockVerbalizer)
	verbalizer.On("VerbalizeTable", mock.Anything, "", doc.Table).
		Return(nil, errors.New("model unavailable"))
	verbalizer.On("SynthesizeChunks", mock.Anything,
		"Year,Revenue\n2020,500\n2021,600").
		Return([]string{"chunk"}, nil)

	synth := ingest.NewSynthesizer(verbalizer)
	chunks, err := synth.Synthesize(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, []string{"chunk"}, chunks)
	verbalizer.AssertExpectations(t)
}

func TestSynthesizeSkipsVerbalizationWithoutTable(t *testing.T) {
	doc := ingest.FinancialDocument{
		ID:      "doc-1",
		PreText: []string{"Only narrative."},
	}

	verbalizer := new(MockVerbalizer)
	verbalizer.On("SynthesizeChunks", mock.Anything, "Only narrative.").
		Return([]string{"Only narrative."}, nil)

	synth := ingest.NewSynthesizer(verbalizer)
	chunks, err := synth.Synthesize(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, []string{"Only narrative."}, chunks)
	verbalizer.AssertNotCalled(t, "VerbalizeTable", mock.Anything, mock.Anything, mock.Anything)
}

func TestSynthesizeChunkErrorPropagates(t *testing.T) {
	verbalizer := new(MockVerbalizer)
	verbalizer.On("SynthesizeChunks", mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited"))

	synth := ingest.NewSynthesizer(verbalizer)
	_, err := synth.Synthesize(context.Background(), ingest.FinancialDocument{
		ID:      "doc-1",
		PreText: []string{"text"},
	})

	assert.ErrorContains(t, err, "synthesize chunks")
}
