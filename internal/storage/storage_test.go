package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-categorizer/internal/domain"
)

// MockBackend is a mock implementation of Backend for testing.
type MockBackend struct {
	ReadFunc  func(ctx context.Context) ([]byte, error)
	WriteFunc func(ctx context.Context, data []byte) error
}

func (m *MockBackend) Read(ctx context.Context) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx)
	}
	return nil, ErrNoSnapshot
}

func (m *MockBackend) Write(ctx context.Context, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, data)
	}
	return nil
}

func sampleVault() *domain.Vault {
	v := domain.NewVault()
	acc := v.EnsureAccount("alfa", "Main", "40817")
	v.Add(
		&domain.Transaction{
			ID:                   "t1",
			AccountID:            acc,
			Bank:                 "alfa",
			Date:                 time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
			Amount:               decimal.RequireFromString("-1234.56"),
			Currency:             "RUR",
			Type:                 domain.TypeExpense,
			Description:          "Pyaterochka",
			Merchant:             "Pyaterochka",
			MCC:                  "5411",
			BankCategory:         "Супермаркеты",
			CategoryID:           "base_shopping_groceries",
			CategorizationSource: domain.SourceMapping,
			BatchID:              "b1",
		},
		&domain.Transaction{
			ID:        "t2",
			AccountID: acc,
			Bank:      "alfa",
			Date:      time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
			Amount:    decimal.NewFromInt(500),
			Currency:  "RUR",
			Type:      domain.TypeTransfer,
			BatchID:   "b1",
		},
	)
	v.AddBatch(domain.Batch{ID: "b1", Filename: "alfa.csv", Bank: "alfa", Count: 2,
		ImportedAt: time.Date(2025, time.January, 7, 10, 0, 0, 0, time.UTC)})
	return v
}

func TestEncode_WireFormat(t *testing.T) {
	data, err := Encode(sampleVault())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "uploaded_files")
	assert.Contains(t, raw, "accounts")
	assert.Contains(t, raw, "operations")

	var ops []map[string]any
	require.NoError(t, json.Unmarshal(raw["operations"], &ops))
	require.Len(t, ops, 2)
	assert.Equal(t, "2025-01-05", ops[0]["date"])
	assert.Equal(t, "-1234.56", ops[0]["amount"])
	assert.Equal(t, "b1", ops[0]["source_file_id"])
}

func TestEncodeDecode_Roundtrip(t *testing.T) {
	src := sampleVault()
	data, err := Encode(src)
	require.NoError(t, err)

	dst := domain.NewVault()
	require.NoError(t, Decode(data, dst))

	want, got := src.Transactions(), dst.Transactions()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Amount.Equal(got[i].Amount))
		assert.True(t, want[i].Date.Equal(got[i].Date))
		assert.Equal(t, want[i].CategoryID, got[i].CategoryID)
		assert.Equal(t, want[i].CategorizationSource, got[i].CategorizationSource)
		assert.Equal(t, want[i].BatchID, got[i].BatchID)
		assert.Equal(t, want[i].Type, got[i].Type)
	}
	assert.Equal(t, src.Accounts(), dst.Accounts())
	require.Len(t, dst.Batches(), 1)
	assert.Equal(t, "alfa.csv", dst.Batches()[0].Filename)
}

func TestDecode_InvalidLeavesVaultUntouched(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"bad date", `{"operations":[{"id":"x","date":"05.01.2025","amount":"1","type":"INCOME"}]}`},
		{"bad amount", `{"operations":[{"id":"x","date":"2025-01-05","amount":"abc","type":"INCOME"}]}`},
		{"bad type", `{"operations":[{"id":"x","date":"2025-01-05","amount":"1","type":"REFUND"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := sampleVault()
			err := Decode([]byte(tt.data), v)
			assert.Error(t, err)
			assert.Len(t, v.Transactions(), 2)
		})
	}
}

func TestSaveLoad_Bolt(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBolt(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	defer b.Close()

	err = Load(ctx, b, domain.NewVault())
	assert.True(t, errors.Is(err, ErrNoSnapshot))

	require.NoError(t, Save(ctx, b, sampleVault()))

	v := domain.NewVault()
	require.NoError(t, Load(ctx, b, v))
	assert.Len(t, v.Transactions(), 2)
	assert.Len(t, v.Accounts(), 1)
}

func TestBolt_ReopenKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")

	b, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, Save(ctx, b, sampleVault()))
	require.NoError(t, b.Close())

	b, err = OpenBolt(path)
	require.NoError(t, err)
	defer b.Close()

	v := domain.NewVault()
	require.NoError(t, Load(ctx, b, v))
	assert.Len(t, v.Transactions(), 2)
}

func TestSave_BackendError(t *testing.T) {
	b := &MockBackend{
		WriteFunc: func(ctx context.Context, data []byte) error {
			return errors.New("disk full")
		},
	}

	err := Save(context.Background(), b, sampleVault())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestLoad_EmptyBackend(t *testing.T) {
	v := sampleVault()

	err := Load(context.Background(), &MockBackend{}, v)

	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Len(t, v.Transactions(), 2)
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://bucket/path/to/vault.json", "bucket", "path/to/vault.json", false},
		{"gs://bucket/vault.json", "bucket", "vault.json", false},
		{"gs://bucket", "", "", true},
		{"gs://bucket/", "", "", true},
		{"s3://bucket/vault.json", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantObject, object)
		})
	}
}
