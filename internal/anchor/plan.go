package anchor

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/basebytes/receipt-indexer/internal/merkle"
	"github.com/basebytes/receipt-indexer/internal/store"
	"github.com/basebytes/receipt-indexer/internal/store/schema"
)

// BuildPlan hashes the ordered receipts of a window and computes every inclusion proof.
// Leaf i of the tree is receipt i, so the caller's ordering fixes the root.
func BuildPlan(receipts []schema.Receipt) (*store.AnchorPlan, error) {
	leaves := make([]common.Hash, 0, len(receipts))
	for _, receipt := range receipts {
		fields, err := receipt.HashFields()
		if err != nil {
			return nil, fmt.Errorf("receipt %s: %w", receipt.ReceiptID, err)
		}
		leaf, err := merkle.ReceiptHash(fields)
		if err != nil {
			return nil, fmt.Errorf("receipt %s: %w", receipt.ReceiptID, err)
		}
		leaves = append(leaves, leaf)
	}

	tree, err := merkle.Build(leaves)
	if err != nil {
		return nil, err
	}

	plan := &store.AnchorPlan{
		MerkleRoot: tree.Root.Hex(),
		Proofs:     make([]store.ReceiptProofInput, 0, len(receipts)),
	}
	for i, receipt := range receipts {
		proof, err := tree.Proof(i)
		if err != nil {
			return nil, err
		}
		plan.Proofs = append(plan.Proofs, store.ReceiptProofInput{
			ReceiptID: receipt.ReceiptID,
			LeafIndex: i,
			LeafHash:  leaves[i].Hex(),
			Proof:     hexHashes(proof),
		})
	}

	return plan, nil
}

func hexHashes(hashes []common.Hash) []string {
	out := make([]string, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, h.Hex())
	}
	return out
}
