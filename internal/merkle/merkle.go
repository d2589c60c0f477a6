package merkle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrEmptyLeaves is returned when building a tree without leaves
	ErrEmptyLeaves = errors.New("cannot build merkle tree from empty leaves")

	// ErrLeafIndexOutOfRange is returned when a proof is requested for a leaf outside the tree
	ErrLeafIndexOutOfRange = errors.New("leaf index out of range")
)

// Tree is a binary keccak256 tree built with sorted-pair hashing
type Tree struct {
	// Root is the single node of the top level
	Root common.Hash
	// Levels holds every level bottom-up, Levels[0] being the padded leaves
	Levels [][]common.Hash
	// Leaves are the input leaves, padded to an even count
	Leaves []common.Hash
}

// Build constructs a tree over the ordered leaves.
// An odd level is padded by duplicating its last node, so the duplicate of the
// last leaf occupies its own position and gets its own proof.
func Build(leaves []common.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyLeaves
	}

	level := pad(leaves)
	levels := [][]common.Hash{level}

	for len(level) > 1 {
		next := make([]common.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, HashPair(level[i], level[i+1]))
		}
		if len(next) > 1 {
			next = pad(next)
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{
		Root:   level[0],
		Levels: levels,
		Leaves: levels[0],
	}, nil
}

// Proof returns the inclusion proof of the leaf at index
func (t *Tree) Proof(index int) ([]common.Hash, error) {
	return Prove(t.Levels, index)
}

// Prove collects one sibling per level, bottom-up, for the leaf at index.
// A level without a sibling for the running index contributes nothing.
func Prove(levels [][]common.Hash, index int) ([]common.Hash, error) {
	if len(levels) == 0 || index < 0 || index >= len(levels[0]) {
		return nil, fmt.Errorf("%w: %d", ErrLeafIndexOutOfRange, index)
	}

	proof := make([]common.Hash, 0, len(levels)-1)
	for _, level := range levels[:len(levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}

	return proof, nil
}

// Verify folds the proof into the leaf and compares the result against root.
// Pair hashing is order independent, so index only tracks the level position
// and must reach the root position once the proof is consumed. An index outside
// the tree is rejected even when the hashes alone fold up to root.
func Verify(leaf common.Hash, proof []common.Hash, root common.Hash, index int) bool {
	if index < 0 {
		return false
	}

	computed := leaf
	for _, sibling := range proof {
		computed = HashPair(computed, sibling)
		index /= 2
	}

	return index == 0 && computed == root
}

// HashPair returns keccak256 of the two nodes concatenated in ascending byte order
func HashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

func pad(level []common.Hash) []common.Hash {
	padded := make([]common.Hash, len(level), len(level)+1)
	copy(padded, level)
	if len(padded)%2 != 0 {
		padded = append(padded, padded[len(padded)-1])
	}
	return padded
}
