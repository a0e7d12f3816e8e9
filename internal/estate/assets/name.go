package assets

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// nameDomainKey separates upload names from any other BLAKE3 use. It is
// the ASCII of "estate.assets.name", zero-padded to 32 bytes.
var nameDomainKey = [32]byte{
	'e', 's', 't', 'a', 't', 'e', '.', 'a', 's', 's', 'e', 't', 's', '.',
	'n', 'a', 'm', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Name derives the stored filename for an image uploaded to a listing:
// 32 hex characters of a keyed digest over the listing ID and content,
// followed by ext.
func Name(listingID int64, content []byte, ext string) string {
	hasher, err := blake3.NewKeyed(nameDomainKey[:])
	if err != nil {
		panic("assets: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	var id [8]byte
	binary.BigEndian.PutUint64(id[:], uint64(listingID))
	_, _ = hasher.Write(id[:])
	_, _ = hasher.Write(content)

	sum := hasher.Sum(nil)
	return hex.EncodeToString(sum[:16]) + ext
}
