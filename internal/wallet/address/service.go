package address

import (
	"fmt"
)

type service struct {
	account uint32
}

// NewService returns a Service deriving keys under account 0.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService() Service {
	return &service{}
}

func (s *service) BIP44Path(index uint32) string {
	return fmt.Sprintf("m/44'/60'/%d'/0/%d", s.account, index)
}
