package ethereum

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Router PaymentReceived(address indexed buyer, address indexed seller, bytes32 indexed skuId, uint96 amountUsd6, uint32 units, uint8 rights)
const routerABIJSON = `[{"anonymous":false,"inputs":[` +
	`{"indexed":true,"name":"buyer","type":"address"},` +
	`{"indexed":true,"name":"seller","type":"address"},` +
	`{"indexed":true,"name":"skuId","type":"bytes32"},` +
	`{"indexed":false,"name":"amountUsd6","type":"uint96"},` +
	`{"indexed":false,"name":"units","type":"uint32"},` +
	`{"indexed":false,"name":"rights","type":"uint8"}` +
	`],"name":"PaymentReceived","type":"event"}]`

// EAS attest(AttestationRequest) and Attested(address indexed recipient, address indexed attester, bytes32 uid, bytes32 indexed schemaUID)
const easABIJSON = `[{"inputs":[{"components":[` +
	`{"name":"schema","type":"bytes32"},` +
	`{"components":[` +
	`{"name":"recipient","type":"address"},` +
	`{"name":"expirationTime","type":"uint64"},` +
	`{"name":"revocable","type":"bool"},` +
	`{"name":"refUID","type":"bytes32"},` +
	`{"name":"data","type":"bytes"},` +
	`{"name":"value","type":"uint256"}` +
	`],"name":"data","type":"tuple"}` +
	`],"name":"request","type":"tuple"}],` +
	`"name":"attest","outputs":[{"name":"","type":"bytes32"}],"stateMutability":"payable","type":"function"},` +
	`{"anonymous":false,"inputs":[` +
	`{"indexed":true,"name":"recipient","type":"address"},` +
	`{"indexed":true,"name":"attester","type":"address"},` +
	`{"indexed":false,"name":"uid","type":"bytes32"},` +
	`{"indexed":true,"name":"schemaUID","type":"bytes32"}` +
	`],"name":"Attested","type":"event"}]`

var (
	routerABI = mustParseABI(routerABIJSON)
	easABI    = mustParseABI(easABIJSON)

	// PaymentReceivedEventSignature is topic 0 of router payment logs
	PaymentReceivedEventSignature = crypto.Keccak256Hash([]byte("PaymentReceived(address,address,bytes32,uint96,uint32,uint8)"))

	// AttestedEventSignature is topic 0 of EAS Attested logs
	AttestedEventSignature = crypto.Keccak256Hash([]byte("Attested(address,address,bytes32,bytes32)"))
)

// easAttestationRequestData mirrors the EAS AttestationRequestData tuple
type easAttestationRequestData struct {
	Recipient      common.Address `abi:"recipient"`
	ExpirationTime uint64         `abi:"expirationTime"`
	Revocable      bool           `abi:"revocable"`
	RefUID         [32]byte       `abi:"refUID"`
	Data           []byte         `abi:"data"`
	Value          *big.Int       `abi:"value"`
}

// easAttestationRequest mirrors the EAS AttestationRequest tuple
type easAttestationRequest struct {
	Schema [32]byte                  `abi:"schema"`
	Data   easAttestationRequestData `abi:"data"`
}

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return parsed
}
