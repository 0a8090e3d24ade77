package ledger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/mr-tron/base58"
)

func TestPubkeyTextRoundTrip(t *testing.T) {
	kp, err := KeypairFromSeed(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}
	encoded, err := json.Marshal(kp.Pubkey())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Pubkey
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != kp.Pubkey() {
		t.Errorf("decoded %s, want %s", decoded, kp.Pubkey())
	}
}

func TestParsePubkeyRejectsWrongLength(t *testing.T) {
	if _, err := ParsePubkey("3mJr7AoUXx2Wqd"); err == nil {
		t.Fatal("expected error for short key")
	}
	if _, err := ParsePubkey("0OIl"); err == nil {
		t.Fatal("expected error for non-base58 input")
	}
}

func TestKeypairSignVerify(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	msg := []byte("purchase")
	sig := kp.Sign(msg)
	if !sig.Verify(kp.Pubkey(), msg) {
		t.Fatal("signature did not verify")
	}
	if sig.Verify(kp.Pubkey(), []byte("other")) {
		t.Fatal("signature verified over a different message")
	}
}

func TestKeypairFromBase58AcceptsSeedAndPrivateKey(t *testing.T) {
	seed := bytes.Repeat([]byte{3}, 32)
	fromSeed, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatalf("KeypairFromSeed: %v", err)
	}
	for _, encoded := range []string{
		base58.Encode(seed),
		base58.Encode(fromSeed.private),
		fromSeed.Base58(),
	} {
		kp, err := KeypairFromBase58(encoded)
		if err != nil {
			t.Fatalf("KeypairFromBase58: %v", err)
		}
		if kp.Pubkey() != fromSeed.Pubkey() {
			t.Errorf("got %s, want %s", kp.Pubkey(), fromSeed.Pubkey())
		}
	}
}
