package cmd

import (
	"strings"

	"github.com/seedflow/seedflow/pkg/persistence"
	"github.com/seedflow/seedflow/pkg/persistence/file"
)

var supportedPersistenceProviders = []string{"file"}

func NewPersistence(databaseURL string) persistence.Persistence {
	provider := parsePersistenceProvider(databaseURL)

	switch provider {
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
