package telemetry

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/audiograph/streambridge/internal/errors"
)

// systemIDFile is the name of the file holding the persistent anonymous ID.
const systemIDFile = ".system_id"

// GenerateSystemID creates a random anonymous identifier, formatted as
// XXXX-XXXX-XXXX for readability. It carries no information about the host.
func GenerateSystemID() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.New(err).
			Component(component).
			Category(errors.CategorySystem).
			Context("operation", "generate-system-id").
			Build()
	}

	id := hex.EncodeToString(bytes)
	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", id[0:4], id[4:8], id[8:12])), nil
}

// LoadOrCreateSystemID returns the system ID stored in configDir, creating
// and persisting a fresh one when none exists or the stored value is
// malformed.
func LoadOrCreateSystemID(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", errors.New(err).
			Component(component).
			Category(errors.CategoryFileIO).
			Context("path", configDir).
			Build()
	}

	idFile := filepath.Join(configDir, systemIDFile)
	if data, err := os.ReadFile(idFile); err == nil {
		id := strings.TrimSpace(string(data))
		if isValidSystemID(id) {
			return id, nil
		}
	}

	id, err := GenerateSystemID()
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(idFile, []byte(id), 0o644); err != nil {
		return "", errors.New(err).
			Component(component).
			Category(errors.CategoryFileIO).
			Context("path", idFile).
			Build()
	}

	return id, nil
}

// isValidSystemID reports whether id matches the XXXX-XXXX-XXXX hex format.
func isValidSystemID(id string) bool {
	if len(id) != 14 || id[4] != '-' || id[9] != '-' {
		return false
	}
	raw := strings.ToLower(strings.ReplaceAll(id, "-", ""))
	_, err := hex.DecodeString(raw)
	return err == nil
}
