package arbitration

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// CommitmentHash returns the commitment of a vote. It is the keccak256
// digest of the big endian vote followed by the salt.
func CommitmentHash(vote uint32, salt []byte) []byte {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], vote)
	h := sha3.NewLegacyKeccak256()
	h.Write(raw[:])
	h.Write(salt)
	return h.Sum(nil)
}
