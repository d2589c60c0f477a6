package proof_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/basebytes/receipt-indexer/internal/anchor"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/mocks"
	"github.com/basebytes/receipt-indexer/internal/proof"
	"github.com/basebytes/receipt-indexer/internal/store"
	"github.com/basebytes/receipt-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var (
	testNow   = time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	testDay   = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	testBuyer = "0x1111111111111111111111111111111111111111"
)

func buildTestReceipt(n int) schema.Receipt {
	return schema.Receipt{
		ReceiptID:         fmt.Sprintf("rcpt_%024x", n),
		Chain:             string(domain.ChainBaseSepolia),
		Buyer:             testBuyer,
		Seller:            "0x2222222222222222222222222222222222222222",
		SkuID:             "sku-basic",
		AmountUSD6:        "1505000",
		Units:             int64(n),
		TxHash:            fmt.Sprintf("0x%064x", n),
		AttestationStatus: domain.AttestationStatusPending,
		CreatedAt:         testDay.Add(time.Duration(n) * time.Hour),
	}
}

// buildTestProofs anchors the receipts the way the anchor engine does and returns the joined proof rows
func buildTestProofs(t *testing.T, receipts []schema.Receipt) []*store.ReceiptProof {
	plan, err := anchor.BuildPlan(receipts)
	require.NoError(t, err)

	dailyAnchor := schema.DailyAnchor{
		ID:             7,
		AnchorDate:     testDay,
		Timezone:       "Europe/Dublin",
		MerkleRoot:     plan.MerkleRoot,
		ReceiptCount:   len(receipts),
		FirstReceiptID: receipts[0].ReceiptID,
		LastReceiptID:  receipts[len(receipts)-1].ReceiptID,
		CreatedAt:      testNow,
	}

	out := make([]*store.ReceiptProof, 0, len(receipts))
	for i, p := range plan.Proofs {
		raw, err := json.Marshal(p.Proof)
		require.NoError(t, err)
		out = append(out, &store.ReceiptProof{
			Receipt: receipts[i],
			ReceiptAnchor: schema.ReceiptAnchor{
				ReceiptID:   p.ReceiptID,
				AnchorID:    dailyAnchor.ID,
				LeafIndex:   p.LeafIndex,
				LeafHash:    p.LeafHash,
				MerkleProof: datatypes.JSON(raw),
			},
			Anchor: dailyAnchor,
		})
	}
	return out
}

func setupTestService(t *testing.T) (*mocks.MockStore, proof.Service) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStore(ctrl)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(testNow).AnyTimes()

	return st, proof.NewService(st, clock)
}

func TestGetProof_Verifies(t *testing.T) {
	st, svc := setupTestService(t)
	ctx := context.Background()

	receipts := []schema.Receipt{buildTestReceipt(1), buildTestReceipt(2), buildTestReceipt(3)}
	proofs := buildTestProofs(t, receipts)

	for i, rp := range proofs {
		st.EXPECT().GetReceiptProof(ctx, receipts[i].ReceiptID).Return(rp, nil)

		view, err := svc.GetProof(ctx, receipts[i].ReceiptID)
		require.NoError(t, err)
		assert.True(t, view.Proof.Verified, "receipt %d", i)
		assert.Equal(t, i, view.Proof.LeafIndex)
		assert.Equal(t, rp.ReceiptAnchor.LeafHash, view.Proof.LeafHash)
		assert.Equal(t, "2025-03-01", view.Anchor.Date)
		assert.Equal(t, 3, view.Anchor.ReceiptCount)
		assert.Equal(t, "1.51", view.Receipt.AmountUSD)
	}
}

func TestGetProof_TamperedReceiptFailsVerification(t *testing.T) {
	st, svc := setupTestService(t)
	ctx := context.Background()

	receipts := []schema.Receipt{buildTestReceipt(1), buildTestReceipt(2)}
	proofs := buildTestProofs(t, receipts)

	tampered := proofs[0]
	tampered.Receipt.AmountUSD6 = "9999999"
	st.EXPECT().GetReceiptProof(ctx, receipts[0].ReceiptID).Return(tampered, nil)

	view, err := svc.GetProof(ctx, receipts[0].ReceiptID)
	require.NoError(t, err)
	assert.False(t, view.Proof.Verified)
	assert.NotEqual(t, tampered.ReceiptAnchor.LeafHash, view.Proof.LeafHash)
}

func TestGetProof_SingleReceiptAnchor(t *testing.T) {
	st, svc := setupTestService(t)
	ctx := context.Background()

	receipts := []schema.Receipt{buildTestReceipt(1)}
	proofs := buildTestProofs(t, receipts)
	st.EXPECT().GetReceiptProof(ctx, receipts[0].ReceiptID).Return(proofs[0], nil)

	view, err := svc.GetProof(ctx, receipts[0].ReceiptID)
	require.NoError(t, err)
	assert.True(t, view.Proof.Verified)
	assert.NotNil(t, view.Proof.Siblings)
}

func TestGetProof_NotFound(t *testing.T) {
	st, svc := setupTestService(t)
	ctx := context.Background()

	st.EXPECT().GetReceiptProof(ctx, "rcpt_pending").Return(nil, nil)
	st.EXPECT().GetReceipt(ctx, "rcpt_pending").Return(&schema.Receipt{ReceiptID: "rcpt_pending"}, nil)
	_, err := svc.GetProof(ctx, "rcpt_pending")
	assert.ErrorIs(t, err, domain.ErrProofNotFound)

	st.EXPECT().GetReceiptProof(ctx, "rcpt_missing").Return(nil, nil)
	st.EXPECT().GetReceipt(ctx, "rcpt_missing").Return(nil, nil)
	_, err = svc.GetProof(ctx, "rcpt_missing")
	assert.ErrorIs(t, err, domain.ErrReceiptNotFound)
}

func TestListAnchors_Paging(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{name: "default", limit: 0, offset: 0, wantLimit: 10, wantOffset: 0},
		{name: "capped", limit: 1000, offset: 20, wantLimit: 100, wantOffset: 20},
		{name: "negative offset", limit: 5, offset: -1, wantLimit: 5, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, svc := setupTestService(t)
			st.EXPECT().ListDailyAnchors(gomock.Any(), tt.wantLimit, tt.wantOffset).
				Return([]schema.DailyAnchor{{ID: 1, AnchorDate: testDay, MerkleRoot: "0xabc", ReceiptCount: 2}}, uint64(41), nil)

			list, err := svc.ListAnchors(context.Background(), tt.limit, tt.offset)
			require.NoError(t, err)
			require.Len(t, list.Anchors, 1)
			assert.Equal(t, "2025-03-01", list.Anchors[0].Date)
			assert.Equal(t, proof.Page{Limit: tt.wantLimit, Offset: tt.wantOffset, Total: 41}, list.Page)
		})
	}
}

func TestGetReceipt(t *testing.T) {
	st, svc := setupTestService(t)
	ctx := context.Background()

	receipt := buildTestReceipt(1)
	uid := "0xbeef"
	attestedAt := testNow
	receipt.AttestationStatus = domain.AttestationStatusOnchain
	receipt.AttestationUID = &uid
	receipt.AttestedAt = &attestedAt

	st.EXPECT().GetReceipt(ctx, receipt.ReceiptID).Return(&receipt, nil)
	view, err := svc.GetReceipt(ctx, receipt.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, "onchain", view.Attestation.Status)
	assert.Equal(t, &uid, view.Attestation.UID)

	st.EXPECT().GetReceipt(ctx, "rcpt_missing").Return(nil, nil)
	_, err = svc.GetReceipt(ctx, "rcpt_missing")
	assert.ErrorIs(t, err, domain.ErrReceiptNotFound)
}

func TestListReceipts(t *testing.T) {
	st, svc := setupTestService(t)
	ctx := context.Background()

	st.EXPECT().ListReceiptsByBuyer(ctx, testBuyer, 10, 0).
		Return([]schema.Receipt{buildTestReceipt(2), buildTestReceipt(1)}, uint64(2), nil)

	// Buyer addresses are matched case-insensitively
	list, err := svc.ListReceipts(ctx, "0x1111111111111111111111111111111111111111", 0, 0)
	require.NoError(t, err)
	assert.Len(t, list.Receipts, 2)
	assert.Equal(t, uint64(2), list.Page.Total)

	_, err = svc.ListReceipts(ctx, "not-an-address", 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestStatus(t *testing.T) {
	t.Run("with receipts and anchor", func(t *testing.T) {
		st, svc := setupTestService(t)
		ctx := context.Background()

		st.EXPECT().GetAttestationStats(ctx, testNow.Add(-24*time.Hour)).Return(&store.AttestationStats{
			Pending:           3,
			PermanentFailures: 1,
			ReceiptsSince:     4,
			AttestedSince:     3,
		}, nil)
		st.EXPECT().GetLatestDailyAnchor(ctx).Return(&schema.DailyAnchor{AnchorDate: testDay, CreatedAt: testNow}, nil)

		status, err := svc.Status(ctx)
		require.NoError(t, err)
		require.NotNil(t, status.ReceiptCoverage24h)
		assert.InDelta(t, 0.75, *status.ReceiptCoverage24h, 1e-9)
		assert.Equal(t, int64(3), status.PendingAttestations)
		require.NotNil(t, status.LastAnchorDate)
		assert.Equal(t, "2025-03-01", *status.LastAnchorDate)
	})

	t.Run("empty", func(t *testing.T) {
		st, svc := setupTestService(t)
		ctx := context.Background()

		st.EXPECT().GetAttestationStats(ctx, gomock.Any()).Return(&store.AttestationStats{}, nil)
		st.EXPECT().GetLatestDailyAnchor(ctx).Return(nil, nil)

		status, err := svc.Status(ctx)
		require.NoError(t, err)
		assert.Nil(t, status.ReceiptCoverage24h)
		assert.Nil(t, status.LastAnchorAt)
	})
}

func TestFormatUSD6(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "0.00"},
		{in: "1", want: "0.00"},
		{in: "1500000", want: "1.50"},
		{in: "1505000", want: "1.51"},
		{in: "123456789012", want: "123456.79"},
		{in: "garbage", want: "garbage"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, proof.FormatUSD6(tt.in), tt.in)
	}
}
