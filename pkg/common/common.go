package common

import (
	"math/rand"
	"time"

	"github.com/bwmarrin/snowflake"
)

var idNode *snowflake.Node

func init() {
	node, err := snowflake.NewNode(rand.New(rand.NewSource(time.Now().UnixNano())).Int63n(1023)) //nolint:gosec // node id does not need crypto randomness
	if err != nil {
		panic(err)
	}
	idNode = node
}

// UUIDint64 returns a process-unique int64 identifier.
func UUIDint64() int64 {
	return idNode.Generate().Int64()
}
