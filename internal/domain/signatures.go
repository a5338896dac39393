package domain

import "github.com/ethereum/go-ethereum/crypto"

// Event signature topics, computed once at startup and treated as read-only
// process-wide configuration.
var (
	// Transfer event signature - shared by ERC20 and ERC721
	// ERC20: Transfer(address indexed from, address indexed to, uint256 value) - 3 topics
	// ERC721: Transfer(address indexed from, address indexed to, uint256 indexed tokenId) - 4 topics
	TransferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	// Wyvern-style marketplace OrdersMatched(bytes32 buyHash, bytes32 sellHash,
	// address indexed maker, address indexed taker, uint256 price, bytes32 indexed metadata)
	OrdersMatchedEventSignature = crypto.Keccak256Hash([]byte("OrdersMatched(bytes32,bytes32,address,address,uint256,bytes32)"))
)
