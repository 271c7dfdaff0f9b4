package directory

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cuemby/fluxdns/pkg/types"
)

// LoadPeers reads a newline-delimited list of directory peer addresses.
// Surrounding whitespace is trimmed, blank lines and '#' comments are skipped,
// and file order is preserved.
func LoadPeers(path string) ([]types.DirectoryPeer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open peer list: %w", err)
	}
	defer f.Close()

	var peers []types.DirectoryPeer
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		peers = append(peers, types.DirectoryPeer{Address: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read peer list: %w", err)
	}

	return peers, nil
}
