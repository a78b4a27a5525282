package store

import (
	"fmt"

	"github.com/cortexchain/chain-machine/internal/chain"
)

// Record identifiers keep the shape of the provisioning pipeline's
// ObjectId-style tokens: an even run of lowercase hex characters.
// Checking the shape here keeps garbage keys out of the pool entirely
// and keeps "malformed id" distinct from "no such record".
func validateID(id string) error {
	if id == "" || len(id)%2 != 0 {
		return fmt.Errorf("%w: %q", chain.ErrInvalidIdentifier, id)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: %q", chain.ErrInvalidIdentifier, id)
		}
	}
	return nil
}
