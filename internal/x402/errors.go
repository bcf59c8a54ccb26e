package x402

import "errors"

var (
	ErrInvalidPayee              = errors.New("payee address invalid")
	ErrMalformedProof            = errors.New("malformed payment header")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrPaymentNotValid           = errors.New("payment not valid")
	ErrPaymentNotSettled         = errors.New("payment not settled")
)
