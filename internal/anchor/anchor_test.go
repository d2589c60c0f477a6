package anchor_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/anchor"
	"github.com/basebytes/receipt-indexer/internal/domain"
	"github.com/basebytes/receipt-indexer/internal/logger"
	"github.com/basebytes/receipt-indexer/internal/merkle"
	"github.com/basebytes/receipt-indexer/internal/mocks"
	"github.com/basebytes/receipt-indexer/internal/store"
	"github.com/basebytes/receipt-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func dublin(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Europe/Dublin")
	require.NoError(t, err)
	return loc
}

func buildTestReceipt(n int) schema.Receipt {
	return schema.Receipt{
		ReceiptID:  fmt.Sprintf("rcpt_%024x", n),
		Buyer:      "0x1111111111111111111111111111111111111111",
		Seller:     "0x2222222222222222222222222222222222222222",
		SkuID:      "sku-basic",
		AmountUSD6: "1500000",
		Units:      int64(n),
		TxHash:     fmt.Sprintf("0x%064x", n),
	}
}

func TestWindow(t *testing.T) {
	loc := dublin(t)

	tests := []struct {
		name      string
		day       time.Time
		wantDate  time.Time
		wantStart time.Time
		wantLen   time.Duration
	}{
		{
			name:      "winter day",
			day:       time.Date(2025, 1, 15, 18, 30, 0, 0, loc),
			wantDate:  time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			wantLen:   24 * time.Hour,
		},
		{
			name:      "summer day starts an hour before UTC midnight",
			day:       time.Date(2025, 7, 1, 9, 0, 0, 0, loc),
			wantDate:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC),
			wantLen:   24 * time.Hour,
		},
		{
			name:      "clocks go forward",
			day:       time.Date(2025, 3, 30, 12, 0, 0, 0, loc),
			wantDate:  time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC),
			wantLen:   23 * time.Hour,
		},
		{
			name:      "clocks go back",
			day:       time.Date(2025, 10, 26, 12, 0, 0, 0, loc),
			wantDate:  time.Date(2025, 10, 26, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 10, 25, 23, 0, 0, 0, time.UTC),
			wantLen:   25 * time.Hour,
		},
		{
			name:      "utc instant late in the evening belongs to the next local day in summer",
			day:       time.Date(2025, 7, 1, 23, 30, 0, 0, time.UTC),
			wantDate:  time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2025, 7, 1, 23, 0, 0, 0, time.UTC),
			wantLen:   24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, start, end := anchor.Window(tt.day, loc)
			assert.True(t, tt.wantDate.Equal(date), "date %s", date)
			assert.True(t, tt.wantStart.Equal(start), "start %s", start)
			assert.Equal(t, tt.wantLen, end.Sub(start))
		})
	}
}

func TestEngine_YesterdayAndParseDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	loc := dublin(t)
	clock := mocks.NewMockClock(ctrl)
	// 00:30 in Dublin on 2 July is still 1 July in UTC
	clock.EXPECT().Now().Return(time.Date(2025, 7, 1, 23, 30, 0, 0, time.UTC)).AnyTimes()

	engine := anchor.NewEngine(anchor.Config{Location: loc}, mocks.NewMockStore(ctrl), mocks.NewMockPublisher(ctrl), clock)

	yesterday := engine.Yesterday()
	assert.Equal(t, "2025-07-01", yesterday.In(loc).Format(anchor.DATE_LAYOUT))

	parsed, err := engine.ParseDate("2025-03-01")
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 3, 1, 0, 0, 0, 0, loc).Equal(parsed))

	_, err = engine.ParseDate("01/03/2025")
	assert.Error(t, err)
}

func TestEngine_CreateDailyAnchor(t *testing.T) {
	loc := dublin(t)
	now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, loc)

	tests := []struct {
		name        string
		result      func(input store.CreateDailyAnchorInput) (*store.CreateDailyAnchorResult, error)
		wantPublish bool
		wantErr     bool
		wantStatus  domain.AnchorStatus
	}{
		{
			name: "created",
			result: func(input store.CreateDailyAnchorInput) (*store.CreateDailyAnchorResult, error) {
				plan, err := input.Build([]schema.Receipt{buildTestReceipt(1), buildTestReceipt(2)})
				if err != nil {
					return nil, err
				}
				return &store.CreateDailyAnchorResult{
					Status: domain.AnchorStatusCreated,
					Anchor: &schema.DailyAnchor{
						AnchorDate:   input.AnchorDate,
						Timezone:     input.Timezone,
						MerkleRoot:   plan.MerkleRoot,
						ReceiptCount: len(plan.Proofs),
					},
				}, nil
			},
			wantPublish: true,
			wantStatus:  domain.AnchorStatusCreated,
		},
		{
			name: "exists",
			result: func(input store.CreateDailyAnchorInput) (*store.CreateDailyAnchorResult, error) {
				return &store.CreateDailyAnchorResult{Status: domain.AnchorStatusExists, Anchor: &schema.DailyAnchor{}}, nil
			},
			wantStatus: domain.AnchorStatusExists,
		},
		{
			name: "no receipts",
			result: func(input store.CreateDailyAnchorInput) (*store.CreateDailyAnchorResult, error) {
				return &store.CreateDailyAnchorResult{Status: domain.AnchorStatusNoReceipts}, nil
			},
			wantStatus: domain.AnchorStatusNoReceipts,
		},
		{
			name: "store error",
			result: func(input store.CreateDailyAnchorInput) (*store.CreateDailyAnchorResult, error) {
				return nil, errors.New("db down")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			st := mocks.NewMockStore(ctrl)
			publisher := mocks.NewMockPublisher(ctrl)
			clock := mocks.NewMockClock(ctrl)
			clock.EXPECT().Now().Return(now).AnyTimes()

			st.EXPECT().CreateDailyAnchor(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, input store.CreateDailyAnchorInput) (*store.CreateDailyAnchorResult, error) {
					assert.True(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Equal(input.AnchorDate))
					assert.Equal(t, "Europe/Dublin", input.Timezone)
					assert.True(t, day.Equal(input.WindowStart))
					assert.True(t, day.AddDate(0, 0, 1).Equal(input.WindowEnd))
					assert.Equal(t, 100, input.ProofBatchSize)
					return tt.result(input)
				})
			if tt.wantPublish {
				publisher.EXPECT().PublishEvent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, event *domain.PipelineEvent) error {
						assert.Equal(t, domain.EventTypeAnchorCreated, event.Type)
						assert.Equal(t, "2025-03-01", event.DedupKey)
						assert.Equal(t, 2, event.Data["receipt_count"])
						return errors.New("publish failures are not fatal")
					})
			}

			engine := anchor.NewEngine(anchor.Config{Location: loc, ProofBatchSize: 100}, st, publisher, clock)
			result, err := engine.CreateDailyAnchor(context.Background(), day)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.Status)
		})
	}
}

func TestBuildPlan(t *testing.T) {
	receipts := []schema.Receipt{buildTestReceipt(1), buildTestReceipt(2), buildTestReceipt(3)}

	plan, err := anchor.BuildPlan(receipts)
	require.NoError(t, err)
	require.Len(t, plan.Proofs, 3)

	root := common.HexToHash(plan.MerkleRoot)
	for i, proof := range plan.Proofs {
		assert.Equal(t, receipts[i].ReceiptID, proof.ReceiptID)
		assert.Equal(t, i, proof.LeafIndex)

		fields, err := receipts[i].HashFields()
		require.NoError(t, err)
		leaf, err := merkle.ReceiptHash(fields)
		require.NoError(t, err)
		assert.Equal(t, leaf.Hex(), proof.LeafHash)

		siblings := make([]common.Hash, 0, len(proof.Proof))
		for _, s := range proof.Proof {
			siblings = append(siblings, common.HexToHash(s))
		}
		assert.True(t, merkle.Verify(leaf, siblings, root, i), "proof of leaf %d", i)
	}

	// Reordering the receipts changes the root
	reordered, err := anchor.BuildPlan([]schema.Receipt{receipts[1], receipts[0], receipts[2]})
	require.NoError(t, err)
	assert.NotEqual(t, plan.MerkleRoot, reordered.MerkleRoot)
}

func TestBuildPlan_Errors(t *testing.T) {
	_, err := anchor.BuildPlan(nil)
	assert.Error(t, err)

	bad := buildTestReceipt(1)
	bad.AmountUSD6 = "-1"
	_, err = anchor.BuildPlan([]schema.Receipt{bad})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
