package registry

import (
	"fmt"
	"strings"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	errs "github.com/mozilla-ai/mcpfleet/internal/errors"
)

// QualifiedToolID joins a namespace, server ID and tool name into '<namespace>__<server>__<tool>'.
func QualifiedToolID(namespace string, serverID string, toolName string) string {
	return strings.Join([]string{namespace, serverID, toolName}, config.QualifiedIDSeparator)
}

// ParseQualifiedToolID splits a qualified tool ID into its parts.
// Tool names may themselves contain the separator, everything after the server ID is the tool name.
func ParseQualifiedToolID(id string) (namespace string, serverID string, toolName string, err error) {
	parts := strings.SplitN(id, config.QualifiedIDSeparator, 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: '%s'", errs.ErrInvalidToolID, id)
	}
	return parts[0], parts[1], parts[2], nil
}
