package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/asset-tracker/internal/application/port"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

type mockGenerator struct {
	generateFunc func(ctx context.Context, req port.GenerateRequest) (string, error)
	calls        int
	lastRequest  port.GenerateRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	m.calls++
	m.lastRequest = req
	return m.generateFunc(ctx, req)
}

func (m *mockGenerator) Model() string { return "mock-model" }

func respondWith(response string) *mockGenerator {
	return &mockGenerator{
		generateFunc: func(ctx context.Context, req port.GenerateRequest) (string, error) {
			return response, nil
		},
	}
}

func newTestClient(t *testing.T, gen port.Generator) *Client {
	t.Helper()
	client, err := NewClient(gen, nil, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestClient_ExtractRaw_Envelope(t *testing.T) {
	t.Run("parses the fenced json block", func(t *testing.T) {
		client := newTestClient(t, respondWith("blah ```json\n{\"a\":1}\n```  trailing"))

		obj, err := client.ExtractRaw(context.Background(), "doc")

		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": json.Number("1")}, obj)
	})

	t.Run("accepts an untagged fence", func(t *testing.T) {
		client := newTestClient(t, respondWith("```\n{\"Invoice Number\": \"X\"}\n```"))

		obj, err := client.ExtractRaw(context.Background(), "doc")

		require.NoError(t, err)
		assert.Equal(t, "X", obj["Invoice Number"])
	})

	t.Run("uses the first block", func(t *testing.T) {
		client := newTestClient(t, respondWith("```json\n{\"n\": 1}\n```\n```json\n{\"n\": 2}\n```"))

		obj, err := client.ExtractRaw(context.Background(), "doc")

		require.NoError(t, err)
		assert.Equal(t, json.Number("1"), obj["n"])
	})

	t.Run("missing block is a schema envelope error", func(t *testing.T) {
		client := newTestClient(t, respondWith(`{"a": 1}`))

		_, err := client.ExtractRaw(context.Background(), "doc")

		var envErr *entity.SchemaEnvelopeError
		require.ErrorAs(t, err, &envErr)
		assert.Equal(t, `{"a": 1}`, envErr.Response)
	})
}

func TestClient_ExtractRaw_MalformedJSON(t *testing.T) {
	client := newTestClient(t, respondWith("```json\n{\"a\": }\n```"))

	_, err := client.ExtractRaw(context.Background(), "doc")

	var jsonErr *entity.MalformedJSONError
	require.ErrorAs(t, err, &jsonErr)
	assert.Equal(t, `{"a": }`, jsonErr.Raw)
	assert.NotNil(t, errors.Unwrap(jsonErr))
}

func TestClient_ModelFailureIsNotRetried(t *testing.T) {
	gen := &mockGenerator{
		generateFunc: func(ctx context.Context, req port.GenerateRequest) (string, error) {
			return "", errors.New("503 unavailable")
		},
	}
	client := newTestClient(t, gen)

	_, err := client.ExtractRaw(context.Background(), "doc")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503 unavailable")
	assert.Equal(t, 1, gen.calls)
}

func TestClient_Extract(t *testing.T) {
	response := "Here you go:\n```json\n" + `{
  "Invoice Number": "INV-7",
  "Order Date": null,
  "Invoice Date": "05-01-2024",
  "Order Number": null,
  "Supplier (Vendor) Name": "Acme",
  "Laptops": [
    {"Lapotop Model": "Latitude 5440", "Laptop Serial Number": "SN9", "Laptop Price": 78000, "Quantity": 2, "Warranty Duration": "3 years"}
  ]
}` + "\n```"
	gen := respondWith(response)
	client := newTestClient(t, gen)

	rec, err := client.Extract(context.Background(), "Invoice INV-7")

	require.NoError(t, err)
	assert.Equal(t, "INV-7", entity.String(rec.InvoiceNumber))
	assert.Nil(t, rec.OrderDate)
	require.Len(t, rec.Laptops, 1)
	assert.Equal(t, 2, rec.Laptops[0].Quantity)
	assert.Equal(t, 36, *rec.Laptops[0].WarrantyMonths)

	assert.Contains(t, gen.lastRequest.Prompt, "Invoice INV-7")
	assert.Contains(t, gen.lastRequest.Prompt, "Lapotop Model")
	assert.NotEmpty(t, gen.lastRequest.System)
}

func TestClient_Extract_OversizedQuantity(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gen := respondWith("```json\n" + `{"Invoice Number": "INV-8", "Laptops": [{"Lapotop Model": "XPS", "Quantity": "1000000000"}]}` + "\n```")
	client, err := NewClient(gen, nil, zap.New(core))
	require.NoError(t, err)

	rec, err := client.Extract(context.Background(), "Invoice INV-8")

	require.NoError(t, err)
	require.Len(t, rec.Laptops, 1)
	assert.Equal(t, 1, rec.Laptops[0].Units())
	require.Equal(t, 1, logs.FilterMessage("Discarded model value").Len())
}
