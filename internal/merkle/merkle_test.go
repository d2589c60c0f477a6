package merkle_test

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basebytes/receipt-indexer/internal/merkle"
)

func leaves(n int) []common.Hash {
	out := make([]common.Hash, n)
	for i := range out {
		out[i] = crypto.Keccak256Hash([]byte{byte(i)})
	}
	return out
}

func TestBuild_EmptyLeaves(t *testing.T) {
	tree, err := merkle.Build(nil)

	assert.ErrorIs(t, err, merkle.ErrEmptyLeaves)
	assert.Nil(t, tree)
}

func TestBuild_ThreeLeavesExample(t *testing.T) {
	h1 := crypto.Keccak256Hash([]byte("a"))
	h2 := crypto.Keccak256Hash([]byte("b"))
	h3 := crypto.Keccak256Hash([]byte("c"))

	tree, err := merkle.Build([]common.Hash{h1, h2, h3})
	require.NoError(t, err)

	// Padded leaves duplicate the last one
	assert.Equal(t, []common.Hash{h1, h2, h3, h3}, tree.Leaves)

	expectedRoot := merkle.HashPair(merkle.HashPair(h1, h2), merkle.HashPair(h3, h3))
	assert.Equal(t, expectedRoot, tree.Root)
	assert.Equal(t, common.HexToHash("0x905b17edcf8b6fb1415b32cdbab3e02c2c93f80a345de80ea2bbf9feba9f5a55"), tree.Root)

	proof, err := tree.Proof(2)
	require.NoError(t, err)
	assert.Equal(t, []common.Hash{h3, merkle.HashPair(h1, h2)}, proof)
	assert.True(t, merkle.Verify(h3, proof, tree.Root, 2))

	// The duplicated leaf has its own position and proof
	dupProof, err := tree.Proof(3)
	require.NoError(t, err)
	assert.True(t, merkle.Verify(h3, dupProof, tree.Root, 3))
}

func TestBuild_SingleLeaf(t *testing.T) {
	leaf := crypto.Keccak256Hash([]byte("only"))

	tree, err := merkle.Build([]common.Hash{leaf})
	require.NoError(t, err)

	assert.Equal(t, merkle.HashPair(leaf, leaf), tree.Root)
	proof, err := tree.Proof(0)
	require.NoError(t, err)
	assert.Equal(t, []common.Hash{leaf}, proof)
	assert.True(t, merkle.Verify(leaf, proof, tree.Root, 0))
}

func TestBuild_PadsOddInnerLevels(t *testing.T) {
	// 5 leaves pad to 6, whose parent level has 3 nodes and is padded again
	tree, err := merkle.Build(leaves(5))
	require.NoError(t, err)

	require.Len(t, tree.Levels, 4)
	assert.Len(t, tree.Levels[0], 6)
	assert.Len(t, tree.Levels[1], 4)
	assert.Len(t, tree.Levels[2], 2)
	assert.Len(t, tree.Levels[3], 1)
	assert.Equal(t, common.HexToHash("0xdab316343e5c1a072596e3f220be979a86177fa524914e940ac6df4af42fc205"), tree.Root)
}

func TestProveVerify_AllIndices(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 9, 16, 31, 100} {
		t.Run(fmt.Sprintf("%d leaves", n), func(t *testing.T) {
			tree, err := merkle.Build(leaves(n))
			require.NoError(t, err)

			for i, leaf := range tree.Leaves {
				proof, err := merkle.Prove(tree.Levels, i)
				require.NoError(t, err)
				assert.True(t, merkle.Verify(leaf, proof, tree.Root, i), "leaf %d", i)
			}
		})
	}
}

func TestProve_OutOfRange(t *testing.T) {
	tree, err := merkle.Build(leaves(4))
	require.NoError(t, err)

	_, err = tree.Proof(4)
	assert.ErrorIs(t, err, merkle.ErrLeafIndexOutOfRange)

	_, err = tree.Proof(-1)
	assert.ErrorIs(t, err, merkle.ErrLeafIndexOutOfRange)

	_, err = merkle.Prove(nil, 0)
	assert.ErrorIs(t, err, merkle.ErrLeafIndexOutOfRange)
}

func TestVerify_Rejects(t *testing.T) {
	tree, err := merkle.Build(leaves(8))
	require.NoError(t, err)

	proof, err := tree.Proof(3)
	require.NoError(t, err)
	leaf := tree.Leaves[3]

	t.Run("wrong leaf", func(t *testing.T) {
		assert.False(t, merkle.Verify(tree.Leaves[4], proof, tree.Root, 3))
	})
	t.Run("wrong root", func(t *testing.T) {
		assert.False(t, merkle.Verify(leaf, proof, crypto.Keccak256Hash([]byte("x")), 3))
	})
	t.Run("tampered sibling", func(t *testing.T) {
		tampered := append([]common.Hash{}, proof...)
		tampered[1] = crypto.Keccak256Hash([]byte("tampered"))
		assert.False(t, merkle.Verify(leaf, tampered, tree.Root, 3))
	})
	t.Run("truncated proof", func(t *testing.T) {
		assert.False(t, merkle.Verify(leaf, proof[:2], tree.Root, 3))
	})
	t.Run("index beyond tree with a proof that folds to the root", func(t *testing.T) {
		require.True(t, merkle.Verify(leaf, proof, tree.Root, 3))
		assert.False(t, merkle.Verify(leaf, proof, tree.Root, len(tree.Leaves)))
		assert.False(t, merkle.Verify(leaf, proof, tree.Root, 11))
	})
	t.Run("negative index", func(t *testing.T) {
		assert.False(t, merkle.Verify(leaf, proof, tree.Root, -1))
	})
}

func TestHashPair_Commutative(t *testing.T) {
	a := crypto.Keccak256Hash([]byte("left"))
	b := crypto.Keccak256Hash([]byte("right"))

	assert.Equal(t, merkle.HashPair(a, b), merkle.HashPair(b, a))
	assert.NotEqual(t, crypto.Keccak256Hash(a[:], b[:]), crypto.Keccak256Hash(b[:], a[:]))
}
