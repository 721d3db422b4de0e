package tx

import (
	"errors"
)

type GovTxType uint8

const (
	GovTxTypeUnknown     GovTxType = 0
	GovTxTypeCreateTopic GovTxType = 1
	GovTxTypeCancelTopic GovTxType = 2
	GovTxTypeVoteTopic   GovTxType = 3
	GovTxTypeMigrate     GovTxType = 4
)

func (t GovTxType) String() string {
	switch t {
	case GovTxTypeCreateTopic:
		return "createTopic"
	case GovTxTypeCancelTopic:
		return "cancelTopic"
	case GovTxTypeVoteTopic:
		return "voteTopic"
	case GovTxTypeMigrate:
		return "migrate"
	}
	return "unknown"
}

const (
	GovTxVersion0 uint8 = 0
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrInvalidPubKey        = errors.New("invalid pubkey")
	ErrInvalidSignature     = errors.New("invalid signature")
)
