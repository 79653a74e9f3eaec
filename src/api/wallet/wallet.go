package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrNoKey = errors.New("no key material for account")

// Vault is the custody boundary for member private keys. Keys are held
// here and never serialized into account records or the state store.
type Vault interface {
	Put(email, keyHex string) error
	Get(email string) (string, error)
	Delete(email string) error
}

// Manager generates member wallets and reconstructs signers from the vault.
type Manager struct {
	vault Vault
}

func NewManager(vault Vault) *Manager {
	return &Manager{vault: vault}
}

// CreateWallet generates a fresh secp256k1 keypair, stores the private
// key in the vault and returns the derived address.
func (m *Manager) CreateWallet(email string) (string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}
	keyHex := hex.EncodeToString(crypto.FromECDSA(key))
	if err := m.vault.Put(email, keyHex); err != nil {
		return "", fmt.Errorf("store key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

// DeleteWallet discards the vault entry for email. Used when the
// account the key was minted for failed to persist.
func (m *Manager) DeleteWallet(email string) error {
	return m.vault.Delete(email)
}

// Signer reconstructs the member's private key from the vault.
func (m *Manager) Signer(email string) (*ecdsa.PrivateKey, error) {
	keyHex, err := m.vault.Get(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoKey, err)
	}
	return crypto.HexToECDSA(keyHex)
}

// TransactOpts builds transaction options bound to the member's key.
func (m *Manager) TransactOpts(email string, chainID *big.Int) (*bind.TransactOpts, error) {
	key, err := m.Signer(email)
	if err != nil {
		return nil, err
	}
	return bind.NewKeyedTransactorWithChainID(key, chainID)
}

// VerifyPersonalSig checks an EIP-191 personal_sign signature over
// message and reports whether it was produced by address.
func VerifyPersonalSig(address, message, sigHex string) error {
	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return errors.New("malformed signature: wrong length")
	}
	// Wallets return V as 27/28; go-ethereum expects 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return fmt.Errorf("recover signer: %w", err)
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
		return errors.New("signature does not match address")
	}
	return nil
}
