package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/swiftcart/checkout-api/internal/receipt"
	"github.com/swiftcart/checkout-api/internal/security"
)

var (
	ErrUnknownPass = errors.New("exit pass not on record")
	ErrStalePass   = errors.New("exit pass does not match issued pass")
)

// VerifyExitPass checks a scanned QR against the signature and the issued
// record. It should be idempotent: gates may scan the same pass twice.
type VerifyExitPass struct {
	signer   security.PassSigner
	receipts ReceiptStore
}

func NewVerifyExitPass(signer security.PassSigner, receipts ReceiptStore) *VerifyExitPass {
	return &VerifyExitPass{signer: signer, receipts: receipts}
}

func (uc *VerifyExitPass) Execute(ctx context.Context, msg ExitScanMsg) (receipt.Payload, error) {
	if err := uc.signer.Verify(msg.Payload, msg.Signature); err != nil {
		return receipt.Payload{}, fmt.Errorf("verify scan: %w", err)
	}
	p, err := receipt.Decode(msg.Payload)
	if err != nil {
		return receipt.Payload{}, fmt.Errorf("decode scan payload: %w", err)
	}

	rec, ok, err := uc.receipts.Find(ctx, p.TransactionID)
	if err != nil {
		return receipt.Payload{}, err
	}
	if !ok {
		return receipt.Payload{}, ErrUnknownPass
	}
	// The pass must be byte-identical to what was issued; a re-signed
	// variant with the same transaction id does not get through.
	if rec.Encoded != string(msg.Payload) || rec.Signature != msg.Signature {
		return receipt.Payload{}, ErrStalePass
	}
	return p, nil
}
