package bench

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/node-benchmark/pkg/uciv"
)

// Provision generates the election key and the anonymity set of numberVoters voters.
//
// Nothing is returned unless both are complete.
func Provision(crypto VotingCrypto, numberVoters, numberOptions int) (*KeyPair, *uciv.UCIV, error) {
	if numberVoters <= 0 {
		return nil, nil, fmt.Errorf("bench: provision: number of voters must be positive, got %d", numberVoters)
	}
	if numberOptions <= 0 {
		return nil, nil, fmt.Errorf("bench: provision: number of options must be positive, got %d", numberOptions)
	}
	keys, err := crypto.GenerateKeys()
	if err != nil {
		return nil, nil, fmt.Errorf("bench: provision: keys: %w", err)
	}
	if keys == nil || keys.Public == nil {
		return nil, nil, errors.New("bench: provision: no public key")
	}
	set, err := crypto.GenerateUCIV(numberVoters, numberOptions, keys.Public)
	if err != nil {
		return nil, nil, fmt.Errorf("bench: provision: anonymity set: %w", err)
	}
	if set == nil || len(set.Public) != numberVoters || len(set.Private) != numberVoters {
		return nil, nil, fmt.Errorf("bench: provision: anonymity set does not hold %d voters", numberVoters)
	}
	for i := range set.Public {
		if len(set.Public[i]) != numberOptions || len(set.Private[i]) != numberOptions {
			return nil, nil, fmt.Errorf("bench: provision: voter %d does not hold %d options", i, numberOptions)
		}
	}
	return keys, set, nil
}
