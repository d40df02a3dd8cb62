package ids

import (
	"fmt"
	"strconv"
	"strings"
)

func AgentID(n uint64) string { return fmt.Sprintf("A%d", n) }

func ParseUintAfterPrefix(prefix, id string) (uint64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(id[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func ParseAgentNum(id string) (uint64, bool) {
	return ParseUintAfterPrefix("A", id)
}
