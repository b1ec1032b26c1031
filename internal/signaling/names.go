package signaling

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Word pools for server-assigned participant ids, used when a caller joins
// without naming itself.
var (
	nameAdjectives = []string{
		"amber", "brisk", "calm", "clever", "cosy", "daring", "eager", "gentle", "glad", "humble",
		"jolly", "keen", "kind", "lively", "lucky", "merry", "mellow", "nimble", "noble", "plucky",
		"quiet", "rapid", "sunny", "swift", "steady", "tidy", "vivid", "warm", "witty", "zesty",
	}

	nameAnimals = []string{
		"badger", "beaver", "bison", "crane", "dingo", "falcon", "ferret", "gecko", "heron", "ibis",
		"jackal", "koala", "lemur", "lynx", "marten", "moose", "newt", "ocelot", "otter", "panda",
		"puffin", "quail", "raven", "robin", "seal", "stoat", "tapir", "vole", "walrus", "yak",
	}
)

// newParticipantID returns a readable id such as "calm-otter-042".
func newParticipantID() string {
	return fmt.Sprintf("%s-%s-%03d",
		nameAdjectives[randomIndex(len(nameAdjectives))],
		nameAnimals[randomIndex(len(nameAnimals))],
		randomIndex(1000),
	)
}

// randomIndex returns a cryptographically secure random index in [0, max).
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(fmt.Sprintf("signaling: random index: %v", err))
	}
	return int(n.Int64())
}
